package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"parametric-insurance/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type ClaimRepository struct {
	db *sqlx.DB
}

func NewClaimRepository(db *sqlx.DB) *ClaimRepository {
	return &ClaimRepository{db: db}
}

// GetClaim retrieves a claim by its ID.
func (r *ClaimRepository) GetClaim(ctx context.Context, id uuid.UUID) (*models.Claim, error) {
	var claim models.Claim
	query := `
		SELECT id, policy_id, claimant, claim_amount, status, evidence_ref,
		       submitted_at, decided_at, created_at, updated_at
		FROM claim
		WHERE id = $1
	`

	err := r.db.GetContext(ctx, &claim, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.WrapDomain(models.ErrNotFound, fmt.Errorf("claim %s", id))
		}
		return nil, fmt.Errorf("failed to get claim by id: %w", err)
	}

	return &claim, nil
}

// CreateClaim inserts a new claim row.
func (r *ClaimRepository) CreateClaim(ctx context.Context, claim *models.Claim) error {
	query := `
		INSERT INTO claim (
			id, policy_id, claimant, claim_amount, status, evidence_ref,
			submitted_at, decided_at, created_at, updated_at
		) VALUES (
			:id, :policy_id, :claimant, :claim_amount, :status, :evidence_ref,
			:submitted_at, :decided_at, :created_at, :updated_at
		)`

	_, err := r.db.NamedExecContext(ctx, query, claim)
	if err != nil {
		return fmt.Errorf("failed to create claim: %w", err)
	}

	return nil
}

// UpdateClaim rewrites the mutable columns of a claim row.
func (r *ClaimRepository) UpdateClaim(ctx context.Context, claim *models.Claim) error {
	query := `
		UPDATE claim SET
			status = :status,
			decided_at = :decided_at,
			updated_at = :updated_at
		WHERE id = :id`

	result, err := r.db.NamedExecContext(ctx, query, claim)
	if err != nil {
		return fmt.Errorf("failed to update claim: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return models.WrapDomain(models.ErrNotFound, fmt.Errorf("claim %s", claim.ID))
	}

	return nil
}

// ListClaimsByPolicy retrieves all claims against one policy.
func (r *ClaimRepository) ListClaimsByPolicy(ctx context.Context, policyID uuid.UUID) ([]models.Claim, error) {
	var claims []models.Claim
	query := `
		SELECT id, policy_id, claimant, claim_amount, status, evidence_ref,
		       submitted_at, decided_at, created_at, updated_at
		FROM claim
		WHERE policy_id = $1
		ORDER BY created_at DESC
	`

	err := r.db.SelectContext(ctx, &claims, query, policyID)
	if err != nil {
		return nil, fmt.Errorf("failed to get claims by policy id: %w", err)
	}

	return claims, nil
}

// ListClaimsByStatus retrieves all claims in one lifecycle state, oldest
// first so sweeps retry the longest-waiting claims before fresh ones.
func (r *ClaimRepository) ListClaimsByStatus(ctx context.Context, status models.ClaimStatus) ([]models.Claim, error) {
	var claims []models.Claim
	query := `
		SELECT id, policy_id, claimant, claim_amount, status, evidence_ref,
		       submitted_at, decided_at, created_at, updated_at
		FROM claim
		WHERE status = $1
		ORDER BY submitted_at ASC
	`

	err := r.db.SelectContext(ctx, &claims, query, status)
	if err != nil {
		return nil, fmt.Errorf("failed to get claims by status: %w", err)
	}

	return claims, nil
}
