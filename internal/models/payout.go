package models

import (
	"time"

	"github.com/google/uuid"
)

// Payout records one settlement debit against the pool. Exactly one payout
// exists per paid claim.
type Payout struct {
	ID           uuid.UUID    `json:"id" db:"id"`
	ClaimID      uuid.UUID    `json:"claim_id" db:"claim_id"`
	PolicyID     uuid.UUID    `json:"policy_id" db:"policy_id"`
	Policyholder string       `json:"policyholder" db:"policyholder"`
	Amount       int64        `json:"amount" db:"amount"`
	Currency     string       `json:"currency" db:"currency"`
	Status       PayoutStatus `json:"status" db:"status"`
	InitiatedAt  *int64       `json:"initiated_at,omitempty" db:"initiated_at"`
	CompletedAt  *int64       `json:"completed_at,omitempty" db:"completed_at"`
	CreatedAt    time.Time    `json:"created_at" db:"created_at"`
}

// PoolStats mirrors the contract-level aggregate view: totals plus the
// current shared liquidity balance.
type PoolStats struct {
	TotalPolicies    int64 `json:"total_policies" db:"total_policies"`
	TotalClaims      int64 `json:"total_claims" db:"total_claims"`
	PoolBalance      int64 `json:"pool_balance" db:"pool_balance"`
	PremiumCollected int64 `json:"premium_collected" db:"premium_collected"`
	ClaimsPaid       int64 `json:"claims_paid" db:"claims_paid"`
}
