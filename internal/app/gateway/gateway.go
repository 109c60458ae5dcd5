// Package gateway defines the remote loyalty API contract the engine
// consumes. Implementations perform the actual network calls; the
// orchestrator treats them as a black box that settles with a structured
// result or a structured error.
package gateway

import (
	"context"
	"fmt"

	"github.com/PointDesk/loyalty_client/internal/app/domain/loyalty"
	"github.com/PointDesk/loyalty_client/internal/app/domain/session"
)

// Error is the structured failure returned by gateway calls. Message is the
// optional human-readable text supplied by the server; when empty the
// orchestrator substitutes a channel-specific default.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("gateway request failed with status %d", e.StatusCode)
}

// AuthResult is returned by Login and Register.
type AuthResult struct {
	User  session.UserProfile `json:"user"`
	Token string              `json:"token"`
}

// TierSnapshot is returned by RewardTier.
type TierSnapshot struct {
	Balance    int64              `json:"balance"`
	RewardTier loyalty.RewardTier `json:"rewardTier"`
}

// HistoryPage is one page of transaction history. An empty Cursor signals
// no further pages.
type HistoryPage struct {
	Transactions []loyalty.Transaction `json:"transactions"`
	Cursor       string                `json:"cursor"`
}

// EarnRequest records a purchase-tied points accrual. Amount is in minor
// currency units.
type EarnRequest struct {
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
}

// RedeemRequest spends points against a reward tier.
type RedeemRequest struct {
	Points       int64  `json:"points"`
	Description  string `json:"description"`
	RewardTierID string `json:"rewardTierId"`
}

// MutationResult is returned by EarnPoints and RedeemPoints. Balance is the
// absolute post-mutation balance; Transaction is the ledger entry the
// server created for this mutation.
type MutationResult struct {
	Balance     int64               `json:"balance"`
	RewardTier  *loyalty.RewardTier `json:"rewardTier,omitempty"`
	Transaction loyalty.Transaction `json:"transaction"`
}

// Remote is the loyalty API surface. Calls block until the server settles;
// context cancellation is the only client-side abort mechanism and the
// orchestrator deliberately does not use it (superseded calls complete on
// the wire and are discarded at settlement).
type Remote interface {
	Login(ctx context.Context, creds session.Credentials) (AuthResult, error)
	Register(ctx context.Context, reg session.Registration) (AuthResult, error)
	Balance(ctx context.Context) (int64, error)
	RewardTier(ctx context.Context) (TierSnapshot, error)
	History(ctx context.Context, cursor string) (HistoryPage, error)
	EarnPoints(ctx context.Context, req EarnRequest) (MutationResult, error)
	RedeemPoints(ctx context.Context, req RedeemRequest) (MutationResult, error)
}
