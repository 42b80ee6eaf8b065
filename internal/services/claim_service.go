package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"parametric-insurance/internal/models"

	"github.com/google/uuid"
)

type ClaimService struct {
	claims   ClaimStore
	policies PolicyStore
	content  ContentStore
	events   LifecyclePublisher
	locks    *EntityLocks
	now      func() time.Time
}

func NewClaimService(
	claims ClaimStore,
	policies PolicyStore,
	content ContentStore,
	events LifecyclePublisher,
	locks *EntityLocks,
) *ClaimService {
	return &ClaimService{
		claims:   claims,
		policies: policies,
		content:  content,
		events:   events,
		locks:    locks,
		now:      time.Now,
	}
}

// SubmitClaim opens a Pending claim against an active, unclaimed policy
// inside its coverage window. The claimant must be the policyholder and the
// amount must fit inside the coverage. Evidence goes to the content store;
// a store outage degrades to an empty evidence ref rather than blocking the
// claim.
func (s *ClaimService) SubmitClaim(
	ctx context.Context,
	policyID uuid.UUID,
	claimant string,
	requestedAmount int64,
	evidence []byte,
) (*models.Claim, error) {
	if requestedAmount <= 0 {
		return nil, models.DomainMsg(models.ErrInvalidInput, "claim amount must be positive")
	}

	unlock := s.locks.LockPolicy(policyID)
	defer unlock()

	policy, err := s.policies.GetPolicy(ctx, policyID)
	if err != nil {
		return nil, err
	}
	if policy.Policyholder != claimant {
		return nil, models.DomainMsg(models.ErrUnauthorized, "claimant is not the policyholder")
	}
	if policy.Claimed {
		return nil, models.ErrPolicyAlreadyClaimed
	}

	now := s.now()
	if policy.Status != models.PolicyActive {
		return nil, models.DomainMsg(models.ErrPolicyNotActive,
			fmt.Sprintf("policy is in state %s", policy.Status))
	}
	if policy.WindowEnded(now) {
		return nil, models.ErrPolicyExpired
	}
	if !policy.IsActive(now) {
		return nil, models.ErrPolicyNotActive
	}
	if requestedAmount > policy.CoverageAmount {
		return nil, models.DomainMsg(models.ErrAmountExceedsCoverage,
			fmt.Sprintf("requested %d, coverage is %d", requestedAmount, policy.CoverageAmount))
	}

	evidenceRef := ""
	if len(evidence) > 0 {
		ref, err := s.content.Put(ctx, evidence)
		if err != nil {
			slog.Warn("failed to store claim evidence, continuing without it",
				"policy_id", policyID, "error", err)
		} else {
			evidenceRef = ref
		}
	}

	claim := &models.Claim{
		ID:          uuid.New(),
		PolicyID:    policyID,
		Claimant:    claimant,
		ClaimAmount: requestedAmount,
		Status:      models.ClaimPending,
		EvidenceRef: evidenceRef,
		SubmittedAt: now.Unix(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.claims.CreateClaim(ctx, claim); err != nil {
		return nil, fmt.Errorf("failed to create claim: %w", err)
	}

	s.publish(ctx, "claim.submitted", claim)
	slog.Info("claim submitted",
		"claim_id", claim.ID,
		"policy_id", policyID,
		"claimant", claimant,
		"amount", requestedAmount)

	return claim, nil
}

// GetClaim retrieves a claim by ID.
func (s *ClaimService) GetClaim(ctx context.Context, claimID uuid.UUID) (*models.Claim, error) {
	return s.claims.GetClaim(ctx, claimID)
}

// GetClaimForHolder retrieves a claim by ID, checking the caller owns the
// policy the claim is written against.
func (s *ClaimService) GetClaimForHolder(ctx context.Context, claimID uuid.UUID, holder string) (*models.Claim, error) {
	claim, err := s.claims.GetClaim(ctx, claimID)
	if err != nil {
		return nil, err
	}

	policy, err := s.policies.GetPolicy(ctx, claim.PolicyID)
	if err != nil {
		return nil, fmt.Errorf("failed to get policy for claim: %w", err)
	}
	if policy.Policyholder != holder {
		return nil, models.DomainMsg(models.ErrUnauthorized, "claim does not belong to this policyholder")
	}

	return claim, nil
}

// GetClaimsByPolicy retrieves all claims against one policy.
func (s *ClaimService) GetClaimsByPolicy(ctx context.Context, policyID uuid.UUID) ([]models.Claim, error) {
	claims, err := s.claims.ListClaimsByPolicy(ctx, policyID)
	if err != nil {
		return nil, fmt.Errorf("failed to get claims for policy: %w", err)
	}
	return claims, nil
}

// PendingClaims lists all claims awaiting verification or settlement.
func (s *ClaimService) PendingClaims(ctx context.Context) ([]models.Claim, error) {
	claims, err := s.claims.ListClaimsByStatus(ctx, models.ClaimPending)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending claims: %w", err)
	}
	return claims, nil
}

// RejectClaim applies a Rejected verdict. Only a Pending claim can be
// rejected; rejection is terminal.
func (s *ClaimService) RejectClaim(ctx context.Context, claimID uuid.UUID) error {
	unlock := s.locks.LockClaim(claimID)
	defer unlock()
	return s.rejectLocked(ctx, claimID)
}

// rejectLocked performs the rejection with the claim lock already held.
func (s *ClaimService) rejectLocked(ctx context.Context, claimID uuid.UUID) error {
	claim, err := s.claims.GetClaim(ctx, claimID)
	if err != nil {
		return err
	}
	if claim.Status != models.ClaimPending {
		return models.DomainMsg(models.ErrClaimNotPending,
			fmt.Sprintf("claim is in state %s", claim.Status))
	}

	now := s.now()
	decided := now.Unix()
	claim.Status = models.ClaimRejected
	claim.DecidedAt = &decided
	claim.UpdatedAt = now

	if err := s.claims.UpdateClaim(ctx, claim); err != nil {
		return fmt.Errorf("failed to reject claim: %w", err)
	}

	s.publish(ctx, "claim.rejected", claim)
	slog.Info("claim rejected", "claim_id", claimID)

	return nil
}

func (s *ClaimService) publish(ctx context.Context, eventType string, payload any) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishLifecycle(ctx, eventType, payload); err != nil {
		slog.Warn("failed to publish lifecycle event", "event_type", eventType, "error", err)
	}
}
