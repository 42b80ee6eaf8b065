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

type PayoutRepository struct {
	db *sqlx.DB
}

func NewPayoutRepository(db *sqlx.DB) *PayoutRepository {
	return &PayoutRepository{db: db}
}

// CreatePayout inserts the settlement record for a paid claim.
func (r *PayoutRepository) CreatePayout(ctx context.Context, payout *models.Payout) error {
	query := `
		INSERT INTO payout (
			id, claim_id, policy_id, policyholder, amount, currency,
			status, initiated_at, completed_at, created_at
		) VALUES (
			:id, :claim_id, :policy_id, :policyholder, :amount, :currency,
			:status, :initiated_at, :completed_at, :created_at
		)`

	_, err := r.db.NamedExecContext(ctx, query, payout)
	if err != nil {
		return fmt.Errorf("failed to create payout: %w", err)
	}

	return nil
}

// GetPayoutByClaim retrieves the payout for one claim.
func (r *PayoutRepository) GetPayoutByClaim(ctx context.Context, claimID uuid.UUID) (*models.Payout, error) {
	var payout models.Payout
	query := `
		SELECT id, claim_id, policy_id, policyholder, amount, currency,
		       status, initiated_at, completed_at, created_at
		FROM payout
		WHERE claim_id = $1
	`

	err := r.db.GetContext(ctx, &payout, query, claimID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.WrapDomain(models.ErrNotFound, fmt.Errorf("payout for claim %s", claimID))
		}
		return nil, fmt.Errorf("failed to get payout by claim id: %w", err)
	}

	return &payout, nil
}
