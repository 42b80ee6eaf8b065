package repository

import (
	"context"
	"fmt"

	"parametric-insurance/internal/models"

	"github.com/jmoiron/sqlx"
)

// PoolRepository manages the single shared liquidity row. The debit is a
// guarded single statement so two concurrent settlements can never both pass
// the balance check and over-draw the pool.
type PoolRepository struct {
	db *sqlx.DB
}

func NewPoolRepository(db *sqlx.DB) *PoolRepository {
	return &PoolRepository{db: db}
}

// CreditPremium adds a collected premium to the pool balance.
func (r *PoolRepository) CreditPremium(ctx context.Context, amount int64) error {
	query := `
		UPDATE pool SET
			balance = balance + $1,
			premium_collected = premium_collected + $1
		WHERE id = 1`

	_, err := r.db.ExecContext(ctx, query, amount)
	if err != nil {
		return fmt.Errorf("failed to credit premium: %w", err)
	}

	return nil
}

// DebitPayout withdraws a payout from the pool. The WHERE guard makes the
// check-then-debit atomic; zero rows affected means the balance could not
// cover the amount.
func (r *PoolRepository) DebitPayout(ctx context.Context, amount int64) error {
	query := `
		UPDATE pool SET
			balance = balance - $1,
			claims_paid = claims_paid + $1
		WHERE id = 1 AND balance >= $1`

	result, err := r.db.ExecContext(ctx, query, amount)
	if err != nil {
		return fmt.Errorf("failed to debit payout: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return models.DomainMsg(models.ErrInsufficientPoolFunds,
			fmt.Sprintf("pool balance cannot cover payout of %d", amount))
	}

	return nil
}

// Stats returns the aggregate ledger view backing the contract-style stats
// endpoint of the original deployment.
func (r *PoolRepository) Stats(ctx context.Context) (*models.PoolStats, error) {
	var stats models.PoolStats
	query := `
		SELECT
			(SELECT COUNT(*) FROM policy)     AS total_policies,
			(SELECT COUNT(*) FROM claim)      AS total_claims,
			p.balance                         AS pool_balance,
			p.premium_collected               AS premium_collected,
			p.claims_paid                     AS claims_paid
		FROM pool p
		WHERE p.id = 1
	`

	err := r.db.GetContext(ctx, &stats, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get pool stats: %w", err)
	}

	return &stats, nil
}
