package services

import (
	"context"

	"parametric-insurance/internal/models"

	"github.com/google/uuid"
)

// The engine is storage-agnostic: it only needs per-entity read-modify-write,
// serialized by the entity locks in this package. The sqlx repositories
// implement these interfaces for Postgres; tests use in-memory stores.

type PolicyStore interface {
	GetPolicy(ctx context.Context, id uuid.UUID) (*models.Policy, error)
	CreatePolicy(ctx context.Context, policy *models.Policy) error
	UpdatePolicy(ctx context.Context, policy *models.Policy) error
	ListPoliciesByHolder(ctx context.Context, holder string) ([]models.Policy, error)
	ListActivePolicies(ctx context.Context) ([]models.Policy, error)
}

type ClaimStore interface {
	GetClaim(ctx context.Context, id uuid.UUID) (*models.Claim, error)
	CreateClaim(ctx context.Context, claim *models.Claim) error
	UpdateClaim(ctx context.Context, claim *models.Claim) error
	ListClaimsByPolicy(ctx context.Context, policyID uuid.UUID) ([]models.Claim, error)
	ListClaimsByStatus(ctx context.Context, status models.ClaimStatus) ([]models.Claim, error)
}

type PayoutStore interface {
	CreatePayout(ctx context.Context, payout *models.Payout) error
	GetPayoutByClaim(ctx context.Context, claimID uuid.UUID) (*models.Payout, error)
}

// PoolStore guards the shared liquidity balance. DebitPayout must be atomic:
// it fails with InsufficientPoolFunds instead of letting the balance go
// negative, even under concurrent settlement.
type PoolStore interface {
	CreditPremium(ctx context.Context, amount int64) error
	DebitPayout(ctx context.Context, amount int64) error
	Stats(ctx context.Context) (*models.PoolStats, error)
}

// ContentStore is the opaque evidence/parameter blob boundary (IPFS-style
// pinning in the original deployment, MinIO here). Refs are opaque strings.
type ContentStore interface {
	Put(ctx context.Context, blob []byte) (string, error)
	Get(ctx context.Context, ref string) ([]byte, error)
}

// LifecyclePublisher receives policy/claim lifecycle events. Publishing is
// best-effort; a broker outage never fails a ledger operation.
type LifecyclePublisher interface {
	PublishLifecycle(ctx context.Context, eventType string, payload any) error
}
