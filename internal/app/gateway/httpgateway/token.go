package httpgateway

import (
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenStore holds the bearer token attached to outgoing calls. Safe for
// concurrent use. The token is treated as opaque except for its expiry
// claim, which is read without signature verification so the client can
// treat a stale token as unauthorized without a round trip.
type TokenStore struct {
	mu    sync.RWMutex
	token string
}

// NewTokenStore creates an empty token store.
func NewTokenStore() *TokenStore {
	return &TokenStore{}
}

// Set replaces the stored token.
func (s *TokenStore) Set(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}

// Get returns the stored token, empty if signed out.
func (s *TokenStore) Get() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Clear drops the stored token.
func (s *TokenStore) Clear() {
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()
}

// Expiry returns the token's exp claim. ok is false when no token is stored
// or the token carries no parseable expiry.
func (s *TokenStore) Expiry() (time.Time, bool) {
	token := s.Get()
	if token == "" {
		return time.Time{}, false
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// Expired reports whether a stored token exists and its expiry has passed.
// Tokens without an expiry claim never report expired.
func (s *TokenStore) Expired(now time.Time) bool {
	exp, ok := s.Expiry()
	if !ok {
		return false
	}
	return now.After(exp)
}
