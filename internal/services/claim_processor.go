package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"parametric-insurance/internal/models"

	"github.com/google/uuid"
)

// ClaimVerifier produces a verdict for one claim's trigger parameters.
// Implemented by oracle.Verifier.
type ClaimVerifier interface {
	Verify(ctx context.Context, claimID uuid.UUID, params *models.TriggerParameters) (*models.OracleVerdict, error)
}

// ClaimProcessor drives pending claims through verification and settlement.
// It runs on demand (a claim was just submitted) and on a schedule (retry of
// claims that were blocked by source outages or pool liquidity).
type ClaimProcessor struct {
	claims     *ClaimService
	policies   *PolicyService
	settlement *SettlementService
	verifier   ClaimVerifier
}

func NewClaimProcessor(
	claims *ClaimService,
	policies *PolicyService,
	settlement *SettlementService,
	verifier ClaimVerifier,
) *ClaimProcessor {
	return &ClaimProcessor{
		claims:     claims,
		policies:   policies,
		settlement: settlement,
		verifier:   verifier,
	}
}

// ProcessClaim verifies one claim and settles it. External-data failures
// leave the claim Pending and propagate so the caller can retry or escalate;
// they are never converted into a rejection.
func (p *ClaimProcessor) ProcessClaim(ctx context.Context, claimID uuid.UUID) error {
	claim, err := p.claims.GetClaim(ctx, claimID)
	if err != nil {
		return err
	}
	if claim.Status != models.ClaimPending {
		return models.DomainMsg(models.ErrClaimNotPending,
			fmt.Sprintf("claim is in state %s", claim.Status))
	}

	policy, err := p.policies.GetPolicy(ctx, claim.PolicyID)
	if err != nil {
		return fmt.Errorf("failed to get policy for claim: %w", err)
	}

	params, err := p.policies.TriggerParameters(ctx, policy)
	if err != nil {
		return err
	}

	// Fetch happens here, outside any ledger lock. Only the settlement
	// below takes entity locks.
	verdict, err := p.verifier.Verify(ctx, claimID, params)
	if err != nil {
		return err
	}

	return p.settlement.Settle(ctx, claimID, verdict)
}

// ProcessPendingClaims sweeps all pending claims. Individual failures are
// logged and skipped; a source outage on one claim must not starve the rest.
func (p *ClaimProcessor) ProcessPendingClaims(ctx context.Context) error {
	pending, err := p.claims.PendingClaims(ctx)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		return nil
	}

	slog.Info("processing pending claims", "count", len(pending))

	var processed, skipped int
	for _, claim := range pending {
		if err := p.ProcessClaim(ctx, claim.ID); err != nil {
			skipped++
			switch models.KindOf(err) {
			case models.KindExternalData:
				slog.Warn("claim verification deferred, data source unavailable",
					"claim_id", claim.ID, "error", err)
			case models.KindResource:
				slog.Warn("claim settlement deferred, pool underfunded",
					"claim_id", claim.ID, "error", err)
			default:
				if errors.Is(err, context.Canceled) {
					return err
				}
				slog.Error("failed to process pending claim", "claim_id", claim.ID, "error", err)
			}
			continue
		}
		processed++
	}

	slog.Info("pending claim sweep complete", "processed", processed, "skipped", skipped)
	return nil
}
