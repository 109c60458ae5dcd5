// Package devgateway is an in-memory loyalty API used for local development
// and end-to-end exercising of the engine. It implements the remote gateway
// contract over HTTP: JWT-authenticated sessions, server-side balance
// arithmetic, reward-tier buckets and cursor-paginated history.
package devgateway

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/PointDesk/loyalty_client/internal/app/domain/loyalty"
	"github.com/PointDesk/loyalty_client/internal/app/domain/session"
	"github.com/PointDesk/loyalty_client/pkg/logger"
)

// WelcomeBonus is credited to every new member so a fresh account has a
// non-empty ledger.
const WelcomeBonus = 100

// Config holds server configuration.
type Config struct {
	// Secret signs the issued JWTs.
	Secret string
	// TokenTTL bounds session lifetime. Defaults to 24h.
	TokenTTL time.Duration
	// PageSize is the history page length. Defaults to 10.
	PageSize int
}

// Server owns the mock loyalty state. Safe for concurrent use.
type Server struct {
	cfg Config
	log *logger.Logger
	now func() time.Time

	mu        sync.Mutex
	members   map[string]*member
	byContact map[string]string
}

type member struct {
	profile  session.UserProfile
	password string
	balance  int64
	history  []loyalty.Transaction // newest first
}

// New creates an empty dev gateway.
func New(cfg Config, log *logger.Logger) *Server {
	if cfg.Secret == "" {
		cfg.Secret = "devgateway-secret"
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 10
	}
	if log == nil {
		log = logger.NewDefault("devgateway")
	}
	return &Server{
		cfg:       cfg,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
		members:   make(map[string]*member),
		byContact: make(map[string]string),
	}
}

// apiError carries an HTTP status and the user-facing message serialized in
// the error body.
type apiError struct {
	status  int
	message string
}

func (e *apiError) Error() string { return e.message }

func errf(status int, format string, args ...interface{}) *apiError {
	return &apiError{status: status, message: fmt.Sprintf(format, args...)}
}

func contactOf(email, phone string) string {
	if phone != "" {
		return phone
	}
	return email
}

func (s *Server) register(reg session.Registration) (session.UserProfile, string, error) {
	contact := contactOf(reg.Email, reg.PhoneNumber)
	if contact == "" {
		return session.UserProfile{}, "", errf(400, "Email or phone number is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byContact[contact]; exists {
		return session.UserProfile{}, "", errf(409, "Account already exists")
	}

	m := &member{
		profile: session.UserProfile{
			ID:      uuid.New().String(),
			Name:    reg.Name,
			Contact: contact,
		},
		password: reg.Password,
		balance:  WelcomeBonus,
	}
	m.history = []loyalty.Transaction{{
		ID:          uuid.New().String(),
		Type:        loyalty.TypeEarn,
		Points:      WelcomeBonus,
		Description: "Welcome bonus",
		Timestamp:   s.now(),
		Status:      loyalty.StatusCompleted,
	}}
	s.members[m.profile.ID] = m
	s.byContact[contact] = m.profile.ID

	token, err := s.issueToken(m.profile.ID)
	if err != nil {
		return session.UserProfile{}, "", err
	}
	s.log.WithField("user_id", m.profile.ID).Info("member registered")
	return m.profile, token, nil
}

func (s *Server) login(creds session.Credentials) (session.UserProfile, string, error) {
	contact := contactOf(creds.Email, creds.PhoneNumber)
	if contact == "" {
		return session.UserProfile{}, "", errf(400, "Email or phone number is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byContact[contact]
	if !ok {
		return session.UserProfile{}, "", errf(401, "Invalid credentials")
	}
	m := s.members[id]
	if m.password != "" && m.password != creds.Password {
		return session.UserProfile{}, "", errf(401, "Invalid credentials")
	}

	token, err := s.issueToken(id)
	if err != nil {
		return session.UserProfile{}, "", err
	}
	return m.profile, token, nil
}

func (s *Server) issueToken(userID string) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TokenTTL)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return "", errf(500, "Failed to issue token")
	}
	return token, nil
}

func (s *Server) validateToken(token string) (string, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.cfg.Secret), nil
	})
	if err != nil || !parsed.Valid {
		return "", errf(401, "Invalid or expired token")
	}
	claims := parsed.Claims.(*jwt.RegisteredClaims)
	return claims.Subject, nil
}

func (s *Server) balance(userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.members[userID]
	if !ok {
		return 0, errf(401, "Unknown member")
	}
	return m.balance, nil
}

// tierFor buckets a balance into a discount tier. Thresholds are part of
// the dev fixture, not the client contract.
func tierFor(balance int64) loyalty.RewardTier {
	switch {
	case balance >= 10000:
		return loyalty.RewardTier{RewardTierID: "platinum", DiscountPercentage: 15}
	case balance >= 5000:
		return loyalty.RewardTier{RewardTierID: "gold", DiscountPercentage: 10}
	case balance >= 1000:
		return loyalty.RewardTier{RewardTierID: "silver", DiscountPercentage: 5}
	default:
		return loyalty.RewardTier{RewardTierID: "member", DiscountPercentage: 0}
	}
}

func (s *Server) rewardTier(userID string) (int64, loyalty.RewardTier, error) {
	balance, err := s.balance(userID)
	if err != nil {
		return 0, loyalty.RewardTier{}, err
	}
	return balance, tierFor(balance), nil
}

// history returns one newest-first page. The cursor is the offset into the
// member's ledger encoded as a string; clients must treat it as opaque.
func (s *Server) historyPage(userID, cursor string) ([]loyalty.Transaction, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.members[userID]
	if !ok {
		return nil, "", errf(401, "Unknown member")
	}

	offset := 0
	if cursor != "" {
		parsed, err := strconv.Atoi(cursor)
		if err != nil || parsed < 0 {
			return nil, "", errf(400, "Invalid cursor")
		}
		offset = parsed
	}
	if offset >= len(m.history) {
		return []loyalty.Transaction{}, "", nil
	}

	end := offset + s.cfg.PageSize
	if end > len(m.history) {
		end = len(m.history)
	}
	page := append([]loyalty.Transaction(nil), m.history[offset:end]...)

	next := ""
	if end < len(m.history) {
		next = strconv.Itoa(end)
	}
	return page, next, nil
}

func (s *Server) earn(userID string, amount int64, description string) (int64, loyalty.RewardTier, loyalty.Transaction, error) {
	if amount <= 0 {
		return 0, loyalty.RewardTier{}, loyalty.Transaction{}, errf(400, "Amount must be positive")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.members[userID]
	if !ok {
		return 0, loyalty.RewardTier{}, loyalty.Transaction{}, errf(401, "Unknown member")
	}

	// One point per whole currency unit; amount arrives in minor units.
	points := amount / 100
	if points <= 0 {
		return 0, loyalty.RewardTier{}, loyalty.Transaction{}, errf(400, "Amount too small to earn points")
	}

	m.balance += points
	tx := loyalty.Transaction{
		ID:          uuid.New().String(),
		Type:        loyalty.TypeEarn,
		Points:      points,
		Description: description,
		Timestamp:   s.now(),
		Status:      loyalty.StatusCompleted,
	}
	m.history = append([]loyalty.Transaction{tx}, m.history...)
	return m.balance, tierFor(m.balance), tx, nil
}

func (s *Server) redeem(userID string, points int64, description, rewardTierID string) (int64, loyalty.RewardTier, loyalty.Transaction, error) {
	if points <= 0 {
		return 0, loyalty.RewardTier{}, loyalty.Transaction{}, errf(400, "Points must be positive")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.members[userID]
	if !ok {
		return 0, loyalty.RewardTier{}, loyalty.Transaction{}, errf(401, "Unknown member")
	}
	if points > m.balance {
		return 0, loyalty.RewardTier{}, loyalty.Transaction{}, errf(422, "Insufficient points balance")
	}

	m.balance -= points
	desc := description
	if rewardTierID != "" && desc == "" {
		desc = "Redeemed against " + rewardTierID
	}
	tx := loyalty.Transaction{
		ID:          uuid.New().String(),
		Type:        loyalty.TypeRedeem,
		Points:      points,
		Description: desc,
		Timestamp:   s.now(),
		Status:      loyalty.StatusCompleted,
	}
	m.history = append([]loyalty.Transaction{tx}, m.history...)
	return m.balance, tierFor(m.balance), tx, nil
}
