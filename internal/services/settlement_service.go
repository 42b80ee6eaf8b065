package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"parametric-insurance/internal/models"

	"github.com/google/uuid"
)

// SettlementService applies oracle verdicts to the ledger. Settlement is the
// only writer of Paid claims and the only debitor of the pool.
type SettlementService struct {
	claims   ClaimStore
	policies PolicyStore
	payouts  PayoutStore
	pool     PoolStore
	events   LifecyclePublisher
	locks    *EntityLocks
	currency string
	now      func() time.Time
}

func NewSettlementService(
	claims ClaimStore,
	policies PolicyStore,
	payouts PayoutStore,
	pool PoolStore,
	events LifecyclePublisher,
	locks *EntityLocks,
) *SettlementService {
	return &SettlementService{
		claims:   claims,
		policies: policies,
		payouts:  payouts,
		pool:     pool,
		events:   events,
		locks:    locks,
		currency: "USD",
		now:      time.Now,
	}
}

// Settle applies a verdict to a pending claim.
//
// An invalid verdict rejects the claim (terminal). A valid verdict pays it:
// the pool debit is the commit point, so a liquidity shortfall fails with
// InsufficientPoolFunds and leaves the claim Pending for retry once the pool
// is funded. Settling an already-decided claim is a state error, never a
// second debit. The per-claim and per-policy locks serialize concurrent
// settlement attempts; the first one to pay wins and later ones fail with
// PolicyAlreadyClaimed.
func (s *SettlementService) Settle(ctx context.Context, claimID uuid.UUID, verdict *models.OracleVerdict) error {
	if verdict == nil {
		return models.DomainMsg(models.ErrInvalidInput, "verdict is required")
	}

	unlockClaim := s.locks.LockClaim(claimID)
	defer unlockClaim()

	claim, err := s.claims.GetClaim(ctx, claimID)
	if err != nil {
		return err
	}
	if claim.Status != models.ClaimPending {
		return models.DomainMsg(models.ErrClaimNotPending,
			fmt.Sprintf("claim already settled with state %s", claim.Status))
	}

	now := s.now()
	if !verdict.IsValid {
		decided := now.Unix()
		claim.Status = models.ClaimRejected
		claim.DecidedAt = &decided
		claim.UpdatedAt = now
		if err := s.claims.UpdateClaim(ctx, claim); err != nil {
			return fmt.Errorf("failed to reject claim: %w", err)
		}
		s.publish(ctx, "claim.rejected", claim)
		slog.Info("claim rejected by oracle verdict", "claim_id", claimID, "event_type", verdict.EventType)
		return nil
	}

	unlockPolicy := s.locks.LockPolicy(claim.PolicyID)
	defer unlockPolicy()

	policy, err := s.policies.GetPolicy(ctx, claim.PolicyID)
	if err != nil {
		return fmt.Errorf("failed to get policy for settlement: %w", err)
	}
	if policy.Claimed {
		return models.ErrPolicyAlreadyClaimed
	}

	s.publish(ctx, "claim.approved", claim)

	// Commit point: a guarded debit that cannot take the balance negative.
	// Nothing is persisted before this, so a shortfall leaves the claim
	// Pending exactly as submitted.
	if err := s.pool.DebitPayout(ctx, claim.ClaimAmount); err != nil {
		return err
	}

	decided := now.Unix()
	claim.Status = models.ClaimPaid
	claim.DecidedAt = &decided
	claim.UpdatedAt = now
	if err := s.claims.UpdateClaim(ctx, claim); err != nil {
		return fmt.Errorf("failed to mark claim paid: %w", err)
	}

	policy.Claimed = true
	policy.Status = models.PolicyClaimed
	policy.UpdatedAt = now
	if err := s.policies.UpdatePolicy(ctx, policy); err != nil {
		return fmt.Errorf("failed to mark policy claimed: %w", err)
	}

	completed := now.Unix()
	payout := &models.Payout{
		ID:           uuid.New(),
		ClaimID:      claim.ID,
		PolicyID:     policy.ID,
		Policyholder: policy.Policyholder,
		Amount:       claim.ClaimAmount,
		Currency:     s.currency,
		Status:       models.PayoutCompleted,
		InitiatedAt:  &decided,
		CompletedAt:  &completed,
		CreatedAt:    now,
	}
	if err := s.payouts.CreatePayout(ctx, payout); err != nil {
		slog.Error("failed to record payout for paid claim", "claim_id", claim.ID, "error", err)
	}

	s.publish(ctx, "claim.paid", payout)
	slog.Info("claim settled and paid",
		"claim_id", claim.ID,
		"policy_id", policy.ID,
		"amount", claim.ClaimAmount)

	return nil
}

func (s *SettlementService) publish(ctx context.Context, eventType string, payload any) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishLifecycle(ctx, eventType, payload); err != nil {
		slog.Warn("failed to publish lifecycle event", "event_type", eventType, "error", err)
	}
}
