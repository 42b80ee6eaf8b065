package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"parametric-insurance/internal/models"

	"github.com/google/uuid"
)

// verifiableEventTypes are the event types with a registered oracle path.
// Policies of other event types can be written but their claims wait for
// manual adjudication.
var verifiableEventTypes = map[models.EventType]bool{
	models.EventFlightDelay: true,
	models.EventWeather:     true,
	models.EventEarthquake:  true,
}

type PolicyService struct {
	policies PolicyStore
	pool     PoolStore
	content  ContentStore
	events   LifecyclePublisher
	locks    *EntityLocks
	now      func() time.Time
}

func NewPolicyService(
	policies PolicyStore,
	pool PoolStore,
	content ContentStore,
	events LifecyclePublisher,
	locks *EntityLocks,
) *PolicyService {
	return &PolicyService{
		policies: policies,
		pool:     pool,
		content:  content,
		events:   events,
		locks:    locks,
		now:      time.Now,
	}
}

// CreatePolicy writes a new policy in Created state. Trigger parameters for
// verifiable event types must parse; the raw blob goes to the content store
// and only its ref is kept on the ledger. The coverage window stays unset
// until the premium is paid.
func (s *PolicyService) CreatePolicy(
	ctx context.Context,
	holder string,
	coverageAmount, premium int64,
	durationDays int,
	eventType models.EventType,
	triggerParams []byte,
) (*models.Policy, error) {
	if holder == "" {
		return nil, models.DomainMsg(models.ErrInvalidInput, "policyholder is required")
	}
	if coverageAmount <= 0 {
		return nil, models.DomainMsg(models.ErrInvalidInput, "coverage amount must be positive")
	}
	if premium <= 0 {
		return nil, models.DomainMsg(models.ErrInvalidInput, "premium must be positive")
	}
	if durationDays < 1 || durationDays > 365 {
		return nil, models.DomainMsg(models.ErrInvalidInput, "duration must be between 1 and 365 days")
	}
	if !models.IsValidEventType(eventType) {
		return nil, models.DomainMsg(models.ErrInvalidInput, fmt.Sprintf("unknown event type %q", eventType))
	}

	if verifiableEventTypes[eventType] {
		if _, err := models.ParseTriggerParameters(eventType, triggerParams); err != nil {
			return nil, err
		}
	}

	triggerRef, err := s.content.Put(ctx, triggerParams)
	if err != nil {
		return nil, fmt.Errorf("failed to store trigger parameters: %w", err)
	}

	now := s.now()
	policy := &models.Policy{
		ID:             uuid.New(),
		Policyholder:   holder,
		CoverageAmount: coverageAmount,
		Premium:        premium,
		DurationDays:   durationDays,
		EventType:      eventType,
		TriggerRef:     triggerRef,
		Status:         models.PolicyCreated,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.policies.CreatePolicy(ctx, policy); err != nil {
		return nil, fmt.Errorf("failed to create policy: %w", err)
	}

	s.publish(ctx, "policy.created", policy)
	slog.Info("policy created",
		"policy_id", policy.ID,
		"policyholder", holder,
		"event_type", eventType,
		"coverage_amount", coverageAmount)

	return policy, nil
}

// ActivatePolicy applies the premium payment: the paid amount must match the
// premium exactly, the coverage window opens now, and the premium is
// credited to the pool.
func (s *PolicyService) ActivatePolicy(ctx context.Context, policyID uuid.UUID, paidAmount int64) error {
	unlock := s.locks.LockPolicy(policyID)
	defer unlock()

	policy, err := s.policies.GetPolicy(ctx, policyID)
	if err != nil {
		return err
	}

	switch policy.Status {
	case models.PolicyCreated:
	case models.PolicyActive:
		return models.ErrAlreadyActive
	default:
		return models.DomainMsg(models.ErrPolicyNotActive,
			fmt.Sprintf("policy in state %s cannot be activated", policy.Status))
	}

	if paidAmount != policy.Premium {
		return models.DomainMsg(models.ErrPremiumMismatch,
			fmt.Sprintf("paid %d, premium is %d", paidAmount, policy.Premium))
	}

	now := s.now()
	start := now.Unix()
	end := now.AddDate(0, 0, policy.DurationDays).Unix()
	policy.StartTime = &start
	policy.EndTime = &end
	policy.Status = models.PolicyActive
	policy.UpdatedAt = now

	if err := s.policies.UpdatePolicy(ctx, policy); err != nil {
		return fmt.Errorf("failed to activate policy: %w", err)
	}
	if err := s.pool.CreditPremium(ctx, policy.Premium); err != nil {
		return fmt.Errorf("failed to credit premium to pool: %w", err)
	}

	s.publish(ctx, "policy.activated", policy)
	slog.Info("policy activated",
		"policy_id", policy.ID,
		"premium", policy.Premium,
		"coverage_end", end)

	return nil
}

// CancelPolicy is allowed to the policyholder while the policy has not been
// claimed. Claimed, expired and already-cancelled policies are terminal.
func (s *PolicyService) CancelPolicy(ctx context.Context, policyID uuid.UUID, requester string) error {
	unlock := s.locks.LockPolicy(policyID)
	defer unlock()

	policy, err := s.policies.GetPolicy(ctx, policyID)
	if err != nil {
		return err
	}
	if policy.Policyholder != requester {
		return models.DomainMsg(models.ErrUnauthorized, "only the policyholder can cancel")
	}
	if policy.Claimed {
		return models.ErrPolicyAlreadyClaimed
	}
	if policy.Status != models.PolicyCreated && policy.Status != models.PolicyActive {
		return models.DomainMsg(models.ErrPolicyNotActive,
			fmt.Sprintf("policy in state %s cannot be cancelled", policy.Status))
	}

	policy.Status = models.PolicyCancelled
	policy.UpdatedAt = s.now()
	if err := s.policies.UpdatePolicy(ctx, policy); err != nil {
		return fmt.Errorf("failed to cancel policy: %w", err)
	}

	s.publish(ctx, "policy.cancelled", policy)
	slog.Info("policy cancelled", "policy_id", policy.ID, "requester", requester)

	return nil
}

// ExpirePolicies transitions active policies whose coverage window has ended.
// Claimed policies are already terminal and are left alone.
func (s *PolicyService) ExpirePolicies(ctx context.Context) (int, error) {
	policies, err := s.policies.ListActivePolicies(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list active policies: %w", err)
	}

	now := s.now()
	expired := 0
	for i := range policies {
		policy := &policies[i]
		if !policy.WindowEnded(now) {
			continue
		}

		unlock := s.locks.LockPolicy(policy.ID)
		current, err := s.policies.GetPolicy(ctx, policy.ID)
		if err != nil {
			unlock()
			slog.Warn("failed to reload policy for expiration", "policy_id", policy.ID, "error", err)
			continue
		}
		if current.Status == models.PolicyActive && current.WindowEnded(now) {
			current.Status = models.PolicyExpired
			current.UpdatedAt = now
			if err := s.policies.UpdatePolicy(ctx, current); err != nil {
				unlock()
				slog.Error("failed to expire policy", "policy_id", current.ID, "error", err)
				continue
			}
			s.publish(ctx, "policy.expired", current)
			expired++
		}
		unlock()
	}

	if expired > 0 {
		slog.Info("expired policies past coverage window", "count", expired)
	}
	return expired, nil
}

// GetPolicy retrieves a policy by ID.
func (s *PolicyService) GetPolicy(ctx context.Context, policyID uuid.UUID) (*models.Policy, error) {
	return s.policies.GetPolicy(ctx, policyID)
}

// GetPoliciesByHolder retrieves all policies owned by a policyholder.
func (s *PolicyService) GetPoliciesByHolder(ctx context.Context, holder string) ([]models.Policy, error) {
	policies, err := s.policies.ListPoliciesByHolder(ctx, holder)
	if err != nil {
		return nil, fmt.Errorf("failed to get policies for holder: %w", err)
	}
	return policies, nil
}

// GetPoolStats returns the aggregate ledger view: totals plus the current
// pool balance.
func (s *PolicyService) GetPoolStats(ctx context.Context) (*models.PoolStats, error) {
	stats, err := s.pool.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get pool stats: %w", err)
	}
	return stats, nil
}

// TriggerParameters resolves and parses the policy's stored trigger blob.
func (s *PolicyService) TriggerParameters(ctx context.Context, policy *models.Policy) (*models.TriggerParameters, error) {
	blob, err := s.content.Get(ctx, policy.TriggerRef)
	if err != nil {
		return nil, models.WrapDomain(models.ErrSourceUnavailable,
			fmt.Errorf("trigger parameters unresolvable for policy %s: %w", policy.ID, err))
	}
	return models.ParseTriggerParameters(policy.EventType, blob)
}

func (s *PolicyService) publish(ctx context.Context, eventType string, payload any) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishLifecycle(ctx, eventType, payload); err != nil {
		slog.Warn("failed to publish lifecycle event", "event_type", eventType, "error", err)
	}
}
