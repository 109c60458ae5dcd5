// Package loyalty defines the points-ledger domain model shared by the
// ledger store, the orchestrator and the gateway contract.
package loyalty

import "time"

// TransactionType distinguishes points movements.
type TransactionType string

const (
	TypeEarn   TransactionType = "earn"
	TypeRedeem TransactionType = "redeem"
)

// TransactionStatus reflects the server-side settlement state of a
// transaction.
type TransactionStatus string

const (
	StatusCompleted TransactionStatus = "completed"
	StatusPending   TransactionStatus = "pending"
	StatusFailed    TransactionStatus = "failed"
)

// Transaction is a single immutable ledger entry as returned by the server.
// Ordering is server-assigned; the client preserves it and only prepends
// newly created transactions.
type Transaction struct {
	ID          string            `json:"id"`
	Type        TransactionType   `json:"type"`
	Points      int64             `json:"points"`
	Description string            `json:"description"`
	Timestamp   time.Time         `json:"timestamp"`
	Status      TransactionStatus `json:"status"`
}

// RewardTier is the server-computed discount eligibility bucket. Advisory
// only: the client never derives balances from it.
type RewardTier struct {
	RewardTierID       string  `json:"rewardTierId"`
	DiscountPercentage float64 `json:"discountPercentage"`
}
