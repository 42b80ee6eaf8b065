package models

import (
	"time"

	"github.com/google/uuid"
)

// Claim is a payout request against a single policy. The claimant must be
// the policyholder and the amount must fit inside the policy coverage.
type Claim struct {
	ID          uuid.UUID   `json:"id" db:"id"`
	PolicyID    uuid.UUID   `json:"policy_id" db:"policy_id"`
	Claimant    string      `json:"claimant" db:"claimant"`
	ClaimAmount int64       `json:"claim_amount" db:"claim_amount"`
	Status      ClaimStatus `json:"status" db:"status"`
	EvidenceRef string      `json:"evidence_ref" db:"evidence_ref"`
	SubmittedAt int64       `json:"submitted_at" db:"submitted_at"`
	DecidedAt   *int64      `json:"decided_at,omitempty" db:"decided_at"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at" db:"updated_at"`
}

// OracleVerdict is the transient result of one verification pass. It carries
// a snapshot of the observed data so a decision can be audited later.
type OracleVerdict struct {
	ClaimID          uuid.UUID      `json:"claim_id"`
	EventType        EventType      `json:"event_type"`
	IsValid          bool           `json:"is_valid"`
	EvidenceSnapshot map[string]any `json:"evidence_snapshot,omitempty"`
	EvaluatedAt      time.Time      `json:"evaluated_at"`
}
