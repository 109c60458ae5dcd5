package session

import (
	"testing"

	domain "github.com/PointDesk/loyalty_client/internal/app/domain/session"
)

func TestAuthLifecycle(t *testing.T) {
	s := New(nil)

	snap := s.Snapshot()
	if snap.Authenticated || snap.User != nil || snap.Loading || snap.Error != "" {
		t.Fatalf("unexpected initial state: %+v", snap)
	}

	s.Begin()
	if snap = s.Snapshot(); !snap.Loading {
		t.Fatalf("loading not set")
	}

	s.ApplyAuth(domain.UserProfile{ID: "u1", Name: "Ann", Contact: "+15551234567"})
	snap = s.Snapshot()
	if !snap.Authenticated || snap.User == nil {
		t.Fatalf("auth not applied: %+v", snap)
	}
	if snap.Authenticated != (snap.User != nil) {
		t.Fatalf("authenticated flag out of sync with user")
	}
	if snap.Loading || snap.Error != "" {
		t.Fatalf("loading/error not cleared: %+v", snap)
	}

	s.Logout()
	snap = s.Snapshot()
	if snap.Authenticated || snap.User != nil || snap.Error != "" {
		t.Fatalf("logout did not reset: %+v", snap)
	}
}

func TestFailureKeepsPriorSession(t *testing.T) {
	s := New(nil)
	s.ApplyAuth(domain.UserProfile{ID: "u1", Name: "Ann"})

	s.Begin()
	s.ApplyFailure("Login failed")

	snap := s.Snapshot()
	if snap.Error != "Login failed" {
		t.Fatalf("error not recorded: %q", snap.Error)
	}
	if !snap.Authenticated {
		t.Fatalf("failure must not tear down the existing session")
	}
}

func TestBeginClearsError(t *testing.T) {
	s := New(nil)
	s.ApplyFailure("boom")
	s.Begin()
	if got := s.Snapshot().Error; got != "" {
		t.Fatalf("error not cleared on new request: %q", got)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	s := New(nil)
	s.ApplyAuth(domain.UserProfile{ID: "u1", Name: "Ann"})

	snap := s.Snapshot()
	snap.User.Name = "mutated"

	if got := s.Snapshot().User.Name; got != "Ann" {
		t.Fatalf("snapshot aliased internal state: %q", got)
	}
}
