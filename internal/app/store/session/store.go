// Package session holds the authentication state for the dashboard engine.
// All mutation happens through single-step reducer methods; consumers read
// immutable snapshots.
package session

import (
	"sync"

	domain "github.com/PointDesk/loyalty_client/internal/app/domain/session"
	"github.com/PointDesk/loyalty_client/pkg/logger"
)

// Snapshot is a point-in-time copy of the session state. Authenticated is
// always equal to (User != nil).
type Snapshot struct {
	User          *domain.UserProfile
	Authenticated bool
	Loading       bool
	Error         string
}

// Store owns the session state. Safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	user    *domain.UserProfile
	loading bool
	err     string
	log     *logger.Logger
}

// New creates a store in the signed-out initial state.
func New(log *logger.Logger) *Store {
	if log == nil {
		log = logger.NewDefault("session-store")
	}
	return &Store{log: log}
}

// Begin marks an authentication request as in flight and clears any prior
// error. Applied synchronously at dispatch time.
func (s *Store) Begin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = true
	s.err = ""
}

// ApplyAuth records a successful login or registration.
func (s *Store) ApplyAuth(user domain.UserProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := user
	s.user = &u
	s.loading = false
	s.err = ""
	s.log.WithField("user_id", user.ID).Info("session established")
}

// ApplyFailure records a failed login or registration. The session remains
// in its previous authenticated/unauthenticated state.
func (s *Store) ApplyFailure(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	s.err = msg
}

// Logout synchronously resets the store to its initial state. External
// collaborators (for example the transport layer tearing down an expired
// session) call this directly.
func (s *Store) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
	s.loading = false
	s.err = ""
	s.log.Info("session cleared")
}

// Authenticated reports whether a user is signed in.
func (s *Store) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Authenticated: s.user != nil,
		Loading:       s.loading,
		Error:         s.err,
	}
	if s.user != nil {
		u := *s.user
		snap.User = &u
	}
	return snap
}
