// Package loyalty holds the points ledger state: balance, reward tier and
// the cursor-paginated transaction history. The server is authoritative for
// every number here; reducers only record what the server returned.
package loyalty

import (
	"sync"

	domain "github.com/PointDesk/loyalty_client/internal/app/domain/loyalty"
	"github.com/PointDesk/loyalty_client/pkg/logger"
)

// Snapshot is a point-in-time copy of the ledger state. Transactions are
// ordered newest first.
type Snapshot struct {
	Balance      int64
	Transactions []domain.Transaction
	Cursor       string
	HasMore      bool
	RewardTier   *domain.RewardTier
	Loading      bool
	Error        string
}

// Store owns the ledger state. Safe for concurrent use.
type Store struct {
	mu           sync.RWMutex
	balance      int64
	transactions []domain.Transaction
	cursor       string
	hasMore      bool
	tier         *domain.RewardTier
	loading      bool
	err          string
	log          *logger.Logger
}

// New creates an empty ledger store.
func New(log *logger.Logger) *Store {
	if log == nil {
		log = logger.NewDefault("ledger-store")
	}
	return &Store{log: log}
}

// Begin marks a ledger request as in flight and clears any prior error.
// Applied synchronously at dispatch time.
func (s *Store) Begin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = true
	s.err = ""
}

// BeginHistory marks a history fetch as in flight. When reset is true the
// transaction list, cursor and hasMore flag are cleared immediately so the
// UI never shows stale rows while the fresh page loads. It reports whether
// the store held a non-empty cursor before this call; the caller uses that
// to decide append-vs-replace at settlement.
func (s *Store) BeginHistory(reset bool) (hadCursor bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	hadCursor = s.cursor != ""
	s.loading = true
	s.err = ""
	if reset {
		s.transactions = nil
		s.cursor = ""
		s.hasMore = false
		hadCursor = false
	}
	return hadCursor
}

// ApplyBalance records a server-reported balance. The value is absolute,
// never a delta.
func (s *Store) ApplyBalance(balance int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balance = balance
	s.loading = false
}

// ApplyRewardTier records the balance and reward tier returned by the
// server.
func (s *Store) ApplyRewardTier(balance int64, tier domain.RewardTier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balance = balance
	t := tier
	s.tier = &t
	s.loading = false
}

// ApplyHistory records a history page. With appendPage the returned batch
// is appended to the existing sequence (pagination continuation); otherwise
// it replaces the sequence wholesale. Cursor and hasMore always track the
// latest response; a non-empty cursor means more pages exist. An empty
// batch is recorded as-is.
func (s *Store) ApplyHistory(batch []domain.Transaction, cursor string, appendPage bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if appendPage {
		s.transactions = append(s.transactions, batch...)
	} else {
		s.transactions = append([]domain.Transaction(nil), batch...)
	}
	s.cursor = cursor
	s.hasMore = cursor != ""
	s.loading = false
}

// ApplyMutation records the outcome of a successful earn or redeem: the
// server-reported balance (absolute), an optional tier update, and the
// freshly created transaction prepended to keep the newest-first order. No
// dedup is performed; the server guarantees unique transaction ids.
func (s *Store) ApplyMutation(balance int64, tier *domain.RewardTier, tx domain.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.balance = balance
	if tier != nil {
		t := *tier
		s.tier = &t
	}
	s.transactions = append([]domain.Transaction{tx}, s.transactions...)
	s.loading = false
	s.log.WithField("tx_id", tx.ID).
		WithField("balance", balance).
		Info("ledger mutation applied")
}

// ApplyFailure records a failed ledger request. Balance and transactions
// are left untouched.
func (s *Store) ApplyFailure(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	s.err = msg
}

// ClearError drops the stored error string.
func (s *Store) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = ""
}

// Reset returns the store to its initial empty state. Called alongside a
// session logout when the consuming layer wants the ledger gone too.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balance = 0
	s.transactions = nil
	s.cursor = ""
	s.hasMore = false
	s.tier = nil
	s.loading = false
	s.err = ""
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Balance: s.balance,
		Cursor:  s.cursor,
		HasMore: s.hasMore,
		Loading: s.loading,
		Error:   s.err,
	}
	if s.tier != nil {
		t := *s.tier
		snap.RewardTier = &t
	}
	if len(s.transactions) > 0 {
		snap.Transactions = append([]domain.Transaction(nil), s.transactions...)
	}
	return snap
}
