package loyalty

import (
	"testing"

	domain "github.com/PointDesk/loyalty_client/internal/app/domain/loyalty"
)

func page(ids ...string) []domain.Transaction {
	txs := make([]domain.Transaction, 0, len(ids))
	for _, id := range ids {
		txs = append(txs, domain.Transaction{ID: id})
	}
	return txs
}

func assertOrder(t *testing.T, got []domain.Transaction, want ...string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("unexpected transaction count: got %d want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("position %d: got %s want %s", i, got[i].ID, id)
		}
	}
}

func TestHistoryReplaceThenAppend(t *testing.T) {
	s := New(nil)

	hadCursor := s.BeginHistory(false)
	if hadCursor {
		t.Fatalf("empty store must not report a cursor")
	}
	s.ApplyHistory(page("t1", "t2", "t3"), "c1", hadCursor)

	snap := s.Snapshot()
	assertOrder(t, snap.Transactions, "t1", "t2", "t3")
	if snap.Cursor != "c1" || !snap.HasMore {
		t.Fatalf("cursor not recorded: %+v", snap)
	}

	hadCursor = s.BeginHistory(false)
	if !hadCursor {
		t.Fatalf("store held cursor c1, continuation expected")
	}
	s.ApplyHistory(page("t4", "t5"), "c2", hadCursor)

	snap = s.Snapshot()
	assertOrder(t, snap.Transactions, "t1", "t2", "t3", "t4", "t5")
	if snap.Cursor != "c2" {
		t.Fatalf("cursor not advanced: %q", snap.Cursor)
	}
}

func TestHistoryFinalPageClearsHasMore(t *testing.T) {
	s := New(nil)
	s.ApplyHistory(page("t1"), "c1", false)
	s.ApplyHistory(page("t2"), "", true)

	snap := s.Snapshot()
	assertOrder(t, snap.Transactions, "t1", "t2")
	if snap.HasMore || snap.Cursor != "" {
		t.Fatalf("final page must clear hasMore: %+v", snap)
	}
}

func TestHistoryResetClearsSynchronously(t *testing.T) {
	s := New(nil)
	s.ApplyHistory(page("t1", "t2"), "c1", false)

	hadCursor := s.BeginHistory(true)
	if hadCursor {
		t.Fatalf("reset must force replace semantics")
	}

	snap := s.Snapshot()
	if len(snap.Transactions) != 0 || snap.Cursor != "" || snap.HasMore {
		t.Fatalf("reset did not clear state: %+v", snap)
	}
	if !snap.Loading {
		t.Fatalf("loading not set")
	}
}

func TestHistoryEmptyBatchWithCursor(t *testing.T) {
	s := New(nil)
	// The server may return a cursor alongside an empty batch; the store
	// records it as-is and leaves any retry decision to the caller.
	s.ApplyHistory(nil, "c1", false)

	snap := s.Snapshot()
	if len(snap.Transactions) != 0 {
		t.Fatalf("unexpected transactions: %+v", snap.Transactions)
	}
	if !snap.HasMore || snap.Cursor != "c1" {
		t.Fatalf("cursor not recorded: %+v", snap)
	}
}

func TestMutationSetsAbsoluteBalance(t *testing.T) {
	s := New(nil)
	s.ApplyBalance(500)
	s.ApplyHistory(page("t1"), "", false)

	tier := &domain.RewardTier{RewardTierID: "gold", DiscountPercentage: 10}
	s.ApplyMutation(480, tier, domain.Transaction{ID: "t2", Type: domain.TypeRedeem, Points: 20})

	snap := s.Snapshot()
	if snap.Balance != 480 {
		t.Fatalf("balance must be set, not computed: %d", snap.Balance)
	}
	assertOrder(t, snap.Transactions, "t2", "t1")
	if snap.RewardTier == nil || snap.RewardTier.RewardTierID != "gold" {
		t.Fatalf("tier not applied: %+v", snap.RewardTier)
	}
}

func TestMutationWithoutTierKeepsExisting(t *testing.T) {
	s := New(nil)
	s.ApplyRewardTier(100, domain.RewardTier{RewardTierID: "silver", DiscountPercentage: 5})
	s.ApplyMutation(130, nil, domain.Transaction{ID: "t1", Type: domain.TypeEarn, Points: 30})

	snap := s.Snapshot()
	if snap.RewardTier == nil || snap.RewardTier.RewardTierID != "silver" {
		t.Fatalf("existing tier dropped: %+v", snap.RewardTier)
	}
}

func TestFailureLeavesLedgerUntouched(t *testing.T) {
	s := New(nil)
	s.ApplyBalance(1500)
	s.ApplyHistory(page("t1"), "c1", false)

	s.Begin()
	s.ApplyFailure("Insufficient points balance")

	snap := s.Snapshot()
	if snap.Error != "Insufficient points balance" {
		t.Fatalf("error not recorded: %q", snap.Error)
	}
	if snap.Balance != 1500 {
		t.Fatalf("balance mutated on failure: %d", snap.Balance)
	}
	assertOrder(t, snap.Transactions, "t1")
	if snap.Loading {
		t.Fatalf("loading not cleared")
	}

	s.ClearError()
	if got := s.Snapshot().Error; got != "" {
		t.Fatalf("error not cleared: %q", got)
	}
}

func TestReset(t *testing.T) {
	s := New(nil)
	s.ApplyRewardTier(100, domain.RewardTier{RewardTierID: "silver"})
	s.ApplyHistory(page("t1"), "c1", false)

	s.Reset()

	snap := s.Snapshot()
	if snap.Balance != 0 || snap.RewardTier != nil || len(snap.Transactions) != 0 || snap.Cursor != "" {
		t.Fatalf("reset incomplete: %+v", snap)
	}
}
