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

type PolicyRepository struct {
	db *sqlx.DB
}

func NewPolicyRepository(db *sqlx.DB) *PolicyRepository {
	return &PolicyRepository{db: db}
}

// GetPolicy retrieves a policy by its ID.
func (r *PolicyRepository) GetPolicy(ctx context.Context, id uuid.UUID) (*models.Policy, error) {
	var policy models.Policy
	query := `
		SELECT id, policyholder, coverage_amount, premium, duration_days,
		       start_time, end_time, event_type, trigger_ref, status, claimed,
		       created_at, updated_at
		FROM policy
		WHERE id = $1
	`

	err := r.db.GetContext(ctx, &policy, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.WrapDomain(models.ErrNotFound, fmt.Errorf("policy %s", id))
		}
		return nil, fmt.Errorf("failed to get policy by id: %w", err)
	}

	return &policy, nil
}

// CreatePolicy inserts a new policy row.
func (r *PolicyRepository) CreatePolicy(ctx context.Context, policy *models.Policy) error {
	query := `
		INSERT INTO policy (
			id, policyholder, coverage_amount, premium, duration_days,
			start_time, end_time, event_type, trigger_ref, status, claimed,
			created_at, updated_at
		) VALUES (
			:id, :policyholder, :coverage_amount, :premium, :duration_days,
			:start_time, :end_time, :event_type, :trigger_ref, :status, :claimed,
			:created_at, :updated_at
		)`

	_, err := r.db.NamedExecContext(ctx, query, policy)
	if err != nil {
		return fmt.Errorf("failed to create policy: %w", err)
	}

	return nil
}

// UpdatePolicy rewrites the mutable columns of a policy row.
func (r *PolicyRepository) UpdatePolicy(ctx context.Context, policy *models.Policy) error {
	query := `
		UPDATE policy SET
			start_time = :start_time,
			end_time = :end_time,
			status = :status,
			claimed = :claimed,
			updated_at = :updated_at
		WHERE id = :id`

	result, err := r.db.NamedExecContext(ctx, query, policy)
	if err != nil {
		return fmt.Errorf("failed to update policy: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return models.WrapDomain(models.ErrNotFound, fmt.Errorf("policy %s", policy.ID))
	}

	return nil
}

// ListPoliciesByHolder retrieves all policies owned by one policyholder.
func (r *PolicyRepository) ListPoliciesByHolder(ctx context.Context, holder string) ([]models.Policy, error) {
	var policies []models.Policy
	query := `
		SELECT id, policyholder, coverage_amount, premium, duration_days,
		       start_time, end_time, event_type, trigger_ref, status, claimed,
		       created_at, updated_at
		FROM policy
		WHERE policyholder = $1
		ORDER BY created_at DESC
	`

	err := r.db.SelectContext(ctx, &policies, query, holder)
	if err != nil {
		return nil, fmt.Errorf("failed to get policies by holder: %w", err)
	}

	return policies, nil
}

// ListActivePolicies retrieves all policies currently in the active state.
func (r *PolicyRepository) ListActivePolicies(ctx context.Context) ([]models.Policy, error) {
	var policies []models.Policy
	query := `
		SELECT id, policyholder, coverage_amount, premium, duration_days,
		       start_time, end_time, event_type, trigger_ref, status, claimed,
		       created_at, updated_at
		FROM policy
		WHERE status = $1
		ORDER BY end_time ASC
	`

	err := r.db.SelectContext(ctx, &policies, query, models.PolicyActive)
	if err != nil {
		return nil, fmt.Errorf("failed to get active policies: %w", err)
	}

	return policies, nil
}
