package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"parametric-insurance/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// In-memory stores standing in for the sqlx repositories. They copy on read
// and write like a database would, and the pool debit is atomic under its
// mutex, matching the guarded UPDATE of the Postgres implementation.

type memPolicyStore struct {
	mu       sync.Mutex
	policies map[uuid.UUID]models.Policy
}

func newMemPolicyStore() *memPolicyStore {
	return &memPolicyStore{policies: make(map[uuid.UUID]models.Policy)}
}

func (s *memPolicyStore) GetPolicy(_ context.Context, id uuid.UUID) (*models.Policy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.policies[id]
	if !ok {
		return nil, models.WrapDomain(models.ErrNotFound, fmt.Errorf("policy %s", id))
	}
	return &p, nil
}

func (s *memPolicyStore) CreatePolicy(_ context.Context, policy *models.Policy) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.policies[policy.ID] = *policy
	return nil
}

func (s *memPolicyStore) UpdatePolicy(_ context.Context, policy *models.Policy) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.policies[policy.ID]; !ok {
		return models.WrapDomain(models.ErrNotFound, fmt.Errorf("policy %s", policy.ID))
	}
	s.policies[policy.ID] = *policy
	return nil
}

func (s *memPolicyStore) ListPoliciesByHolder(_ context.Context, holder string) ([]models.Policy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Policy
	for _, p := range s.policies {
		if p.Policyholder == holder {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *memPolicyStore) ListActivePolicies(_ context.Context) ([]models.Policy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Policy
	for _, p := range s.policies {
		if p.Status == models.PolicyActive {
			out = append(out, p)
		}
	}
	return out, nil
}

type memClaimStore struct {
	mu     sync.Mutex
	claims map[uuid.UUID]models.Claim
}

func newMemClaimStore() *memClaimStore {
	return &memClaimStore{claims: make(map[uuid.UUID]models.Claim)}
}

func (s *memClaimStore) GetClaim(_ context.Context, id uuid.UUID) (*models.Claim, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.claims[id]
	if !ok {
		return nil, models.WrapDomain(models.ErrNotFound, fmt.Errorf("claim %s", id))
	}
	return &c, nil
}

func (s *memClaimStore) CreateClaim(_ context.Context, claim *models.Claim) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.claims[claim.ID] = *claim
	return nil
}

func (s *memClaimStore) UpdateClaim(_ context.Context, claim *models.Claim) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.claims[claim.ID]; !ok {
		return models.WrapDomain(models.ErrNotFound, fmt.Errorf("claim %s", claim.ID))
	}
	s.claims[claim.ID] = *claim
	return nil
}

func (s *memClaimStore) ListClaimsByPolicy(_ context.Context, policyID uuid.UUID) ([]models.Claim, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Claim
	for _, c := range s.claims {
		if c.PolicyID == policyID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *memClaimStore) ListClaimsByStatus(_ context.Context, status models.ClaimStatus) ([]models.Claim, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Claim
	for _, c := range s.claims {
		if c.Status == status {
			out = append(out, c)
		}
	}
	return out, nil
}

type memPayoutStore struct {
	mu      sync.Mutex
	payouts map[uuid.UUID]models.Payout
}

func newMemPayoutStore() *memPayoutStore {
	return &memPayoutStore{payouts: make(map[uuid.UUID]models.Payout)}
}

func (s *memPayoutStore) CreatePayout(_ context.Context, payout *models.Payout) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payouts[payout.ClaimID] = *payout
	return nil
}

func (s *memPayoutStore) GetPayoutByClaim(_ context.Context, claimID uuid.UUID) (*models.Payout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payouts[claimID]
	if !ok {
		return nil, models.WrapDomain(models.ErrNotFound, fmt.Errorf("payout for claim %s", claimID))
	}
	return &p, nil
}

type memPool struct {
	mu               sync.Mutex
	balance          int64
	premiumCollected int64
	claimsPaid       int64
}

func (p *memPool) CreditPremium(_ context.Context, amount int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.balance += amount
	p.premiumCollected += amount
	return nil
}

func (p *memPool) DebitPayout(_ context.Context, amount int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.balance < amount {
		return models.DomainMsg(models.ErrInsufficientPoolFunds,
			fmt.Sprintf("pool balance cannot cover payout of %d", amount))
	}
	p.balance -= amount
	p.claimsPaid += amount
	return nil
}

func (p *memPool) Stats(_ context.Context) (*models.PoolStats, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return &models.PoolStats{
		PoolBalance:      p.balance,
		PremiumCollected: p.premiumCollected,
		ClaimsPaid:       p.claimsPaid,
	}, nil
}

type memContentStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
	next  int
}

func newMemContentStore() *memContentStore {
	return &memContentStore{blobs: make(map[string][]byte)}
}

func (s *memContentStore) Put(_ context.Context, blob []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	ref := fmt.Sprintf("mem/%d", s.next)
	s.blobs[ref] = blob
	return ref, nil
}

func (s *memContentStore) Get(_ context.Context, ref string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	blob, ok := s.blobs[ref]
	if !ok {
		return nil, fmt.Errorf("no blob at ref %s", ref)
	}
	return blob, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) PublishLifecycle(_ context.Context, eventType string, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, eventType)
	return nil
}

func (p *recordingPublisher) published() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.events...)
}

type testEngine struct {
	policies   *memPolicyStore
	claims     *memClaimStore
	payouts    *memPayoutStore
	pool       *memPool
	content    *memContentStore
	events     *recordingPublisher
	policy     *PolicyService
	claim      *ClaimService
	settlement *SettlementService
}

func newTestEngine() *testEngine {
	e := &testEngine{
		policies: newMemPolicyStore(),
		claims:   newMemClaimStore(),
		payouts:  newMemPayoutStore(),
		pool:     &memPool{},
		content:  newMemContentStore(),
		events:   &recordingPublisher{},
	}
	locks := NewEntityLocks()
	e.policy = NewPolicyService(e.policies, e.pool, e.content, e.events, locks)
	e.claim = NewClaimService(e.claims, e.policies, e.content, e.events, locks)
	e.settlement = NewSettlementService(e.claims, e.policies, e.payouts, e.pool, e.events, locks)
	return e
}

var rainTrigger = []byte(`{"condition":"rainfall","location":"Hanoi","threshold":5.0}`)

func (e *testEngine) activePolicy(t *testing.T, holder string, coverage, premium int64) *models.Policy {
	t.Helper()
	policy, err := e.policy.CreatePolicy(context.Background(), holder, coverage, premium, 30,
		models.EventWeather, rainTrigger)
	require.NoError(t, err)
	require.NoError(t, e.policy.ActivatePolicy(context.Background(), policy.ID, premium))
	policy, err = e.policy.GetPolicy(context.Background(), policy.ID)
	require.NoError(t, err)
	return policy
}

func validVerdict(claimID uuid.UUID) *models.OracleVerdict {
	return &models.OracleVerdict{
		ClaimID:     claimID,
		EventType:   models.EventWeather,
		IsValid:     true,
		EvaluatedAt: time.Now(),
	}
}

func invalidVerdict(claimID uuid.UUID) *models.OracleVerdict {
	v := validVerdict(claimID)
	v.IsValid = false
	return v
}

func TestCreatePolicy_Validation(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()

	cases := []struct {
		name      string
		holder    string
		coverage  int64
		premium   int64
		duration  int
		eventType models.EventType
		trigger   []byte
		wantErr   error
	}{
		{"missing holder", "", 1000, 100, 30, models.EventWeather, rainTrigger, models.ErrInvalidInput},
		{"zero coverage", "alice", 0, 100, 30, models.EventWeather, rainTrigger, models.ErrInvalidInput},
		{"zero premium", "alice", 1000, 0, 30, models.EventWeather, rainTrigger, models.ErrInvalidInput},
		{"duration too short", "alice", 1000, 100, 0, models.EventWeather, rainTrigger, models.ErrInvalidInput},
		{"duration too long", "alice", 1000, 100, 366, models.EventWeather, rainTrigger, models.ErrInvalidInput},
		{"unknown event type", "alice", 1000, 100, 30, "VOLCANO", rainTrigger, models.ErrInvalidInput},
		{"bad trigger params", "alice", 1000, 100, 30, models.EventWeather, []byte(`{}`), models.ErrMalformedParameters},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := e.policy.CreatePolicy(ctx, tc.holder, tc.coverage, tc.premium, tc.duration, tc.eventType, tc.trigger)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestCreatePolicy_StartsUnactivated(t *testing.T) {
	e := newTestEngine()
	policy, err := e.policy.CreatePolicy(context.Background(), "alice", 1000, 100, 30,
		models.EventWeather, rainTrigger)
	require.NoError(t, err)

	assert.Equal(t, models.PolicyCreated, policy.Status)
	assert.Nil(t, policy.StartTime, "coverage window opens on activation, not creation")
	assert.Nil(t, policy.EndTime)
	assert.NotEmpty(t, policy.TriggerRef)

	// The trigger blob is retrievable through the stored ref.
	params, err := e.policy.TriggerParameters(context.Background(), policy)
	require.NoError(t, err)
	assert.Equal(t, 5.0, params.Rainfall.ThresholdMm)
}

func TestCreatePolicy_UnverifiableEventTypeAllowed(t *testing.T) {
	e := newTestEngine()
	policy, err := e.policy.CreatePolicy(context.Background(), "alice", 1000, 100, 30,
		models.EventCropFailure, []byte(`{"notes":"manual adjudication"}`))
	require.NoError(t, err)
	assert.Equal(t, models.EventCropFailure, policy.EventType)
}

func TestActivatePolicy(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()
	e.policy.now = func() time.Time { return time.Unix(1756000000, 0).UTC() }
	policy, err := e.policy.CreatePolicy(ctx, "alice", 1000, 100, 30, models.EventWeather, rainTrigger)
	require.NoError(t, err)

	err = e.policy.ActivatePolicy(ctx, policy.ID, 99)
	assert.ErrorIs(t, err, models.ErrPremiumMismatch, "underpayment")
	err = e.policy.ActivatePolicy(ctx, policy.ID, 101)
	assert.ErrorIs(t, err, models.ErrPremiumMismatch, "overpayment")

	require.NoError(t, e.policy.ActivatePolicy(ctx, policy.ID, 100))

	activated, err := e.policy.GetPolicy(ctx, policy.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PolicyActive, activated.Status)
	require.NotNil(t, activated.StartTime)
	require.NotNil(t, activated.EndTime)
	assert.Equal(t, *activated.StartTime+30*24*60*60, *activated.EndTime)

	stats, err := e.policy.GetPoolStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(100), stats.PoolBalance, "premium credited to pool")

	err = e.policy.ActivatePolicy(ctx, policy.ID, 100)
	assert.ErrorIs(t, err, models.ErrAlreadyActive)

	stats, err = e.policy.GetPoolStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(100), stats.PoolBalance, "double activation must not double-credit")
}

func TestCancelPolicy(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()
	policy := e.activePolicy(t, "alice", 1000, 100)

	err := e.policy.CancelPolicy(ctx, policy.ID, "mallory")
	assert.ErrorIs(t, err, models.ErrUnauthorized)

	require.NoError(t, e.policy.CancelPolicy(ctx, policy.ID, "alice"))

	cancelled, err := e.policy.GetPolicy(ctx, policy.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PolicyCancelled, cancelled.Status)

	err = e.policy.CancelPolicy(ctx, policy.ID, "alice")
	assert.ErrorIs(t, err, models.ErrPolicyNotActive, "cancellation is terminal")
}

func TestSubmitClaim_Validation(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()
	policy := e.activePolicy(t, "alice", 1000, 100)

	_, err := e.claim.SubmitClaim(ctx, policy.ID, "alice", 0, nil)
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	_, err = e.claim.SubmitClaim(ctx, policy.ID, "mallory", 500, nil)
	assert.ErrorIs(t, err, models.ErrUnauthorized)

	_, err = e.claim.SubmitClaim(ctx, policy.ID, "alice", 1001, nil)
	assert.ErrorIs(t, err, models.ErrAmountExceedsCoverage)

	_, err = e.claim.SubmitClaim(ctx, uuid.New(), "alice", 500, nil)
	assert.ErrorIs(t, err, models.ErrNotFound)

	claim, err := e.claim.SubmitClaim(ctx, policy.ID, "alice", 1000, []byte(`{"photo":"ref"}`))
	require.NoError(t, err)
	assert.Equal(t, models.ClaimPending, claim.Status)
	assert.NotEmpty(t, claim.EvidenceRef)
}

func TestSubmitClaim_RequiresActivePolicy(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()

	policy, err := e.policy.CreatePolicy(ctx, "alice", 1000, 100, 30, models.EventWeather, rainTrigger)
	require.NoError(t, err)

	_, err = e.claim.SubmitClaim(ctx, policy.ID, "alice", 500, nil)
	assert.ErrorIs(t, err, models.ErrPolicyNotActive, "unactivated policy takes no claims")
}

func TestSubmitClaim_RejectedOutsideWindow(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()
	policy := e.activePolicy(t, "alice", 1000, 100)

	e.claim.now = func() time.Time { return time.Now().AddDate(0, 0, 31) }
	_, err := e.claim.SubmitClaim(ctx, policy.ID, "alice", 500, nil)
	assert.ErrorIs(t, err, models.ErrPolicyExpired)
}

func TestSettle_ValidVerdictPaysClaim(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()
	policy := e.activePolicy(t, "alice", 100, 100)

	claim, err := e.claim.SubmitClaim(ctx, policy.ID, "alice", 100, nil)
	require.NoError(t, err)

	require.NoError(t, e.settlement.Settle(ctx, claim.ID, validVerdict(claim.ID)))

	paid, err := e.claim.GetClaim(ctx, claim.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ClaimPaid, paid.Status)
	require.NotNil(t, paid.DecidedAt)

	claimedPolicy, err := e.policy.GetPolicy(ctx, policy.ID)
	require.NoError(t, err)
	assert.True(t, claimedPolicy.Claimed)
	assert.Equal(t, models.PolicyClaimed, claimedPolicy.Status)

	payout, err := e.payouts.GetPayoutByClaim(ctx, claim.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), payout.Amount)
	assert.Equal(t, "alice", payout.Policyholder)
	assert.Equal(t, models.PayoutCompleted, payout.Status)

	stats, err := e.policy.GetPoolStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.PoolBalance)
	assert.Equal(t, int64(100), stats.ClaimsPaid)

	assert.Equal(t,
		[]string{"policy.created", "policy.activated", "claim.submitted", "claim.approved", "claim.paid"},
		e.events.published())
}

func TestSettle_InvalidVerdictRejects(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()
	policy := e.activePolicy(t, "alice", 1000, 100)

	claim, err := e.claim.SubmitClaim(ctx, policy.ID, "alice", 500, nil)
	require.NoError(t, err)

	require.NoError(t, e.settlement.Settle(ctx, claim.ID, invalidVerdict(claim.ID)))

	rejected, err := e.claim.GetClaim(ctx, claim.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ClaimRejected, rejected.Status)

	// Rejection never touches the pool or the policy.
	stats, err := e.policy.GetPoolStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(100), stats.PoolBalance)

	p, err := e.policy.GetPolicy(ctx, policy.ID)
	require.NoError(t, err)
	assert.False(t, p.Claimed)
}

func TestSettle_IsIdempotentGuarded(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()
	policy := e.activePolicy(t, "alice", 100, 100)

	claim, err := e.claim.SubmitClaim(ctx, policy.ID, "alice", 100, nil)
	require.NoError(t, err)
	require.NoError(t, e.settlement.Settle(ctx, claim.ID, validVerdict(claim.ID)))

	err = e.settlement.Settle(ctx, claim.ID, validVerdict(claim.ID))
	assert.ErrorIs(t, err, models.ErrClaimNotPending, "re-settling a decided claim is a state error")

	stats, err := e.policy.GetPoolStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(100), stats.ClaimsPaid, "no second debit")
}

func TestSettle_InsufficientFundsLeavesClaimPending(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()
	// Coverage far above the only premium ever collected.
	policy := e.activePolicy(t, "alice", 10000, 100)

	claim, err := e.claim.SubmitClaim(ctx, policy.ID, "alice", 10000, nil)
	require.NoError(t, err)

	err = e.settlement.Settle(ctx, claim.ID, validVerdict(claim.ID))
	assert.ErrorIs(t, err, models.ErrInsufficientPoolFunds)

	pending, err := e.claim.GetClaim(ctx, claim.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ClaimPending, pending.Status, "shortfall must not decide the claim")

	p, err := e.policy.GetPolicy(ctx, policy.ID)
	require.NoError(t, err)
	assert.False(t, p.Claimed)

	// Once the pool is funded the same claim settles cleanly.
	require.NoError(t, e.pool.CreditPremium(ctx, 9900))
	require.NoError(t, e.settlement.Settle(ctx, claim.ID, validVerdict(claim.ID)))

	paid, err := e.claim.GetClaim(ctx, claim.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ClaimPaid, paid.Status)
}

func TestSettle_ConcurrentClaimsPayExactlyOnce(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()
	policy := e.activePolicy(t, "alice", 100, 200)

	first, err := e.claim.SubmitClaim(ctx, policy.ID, "alice", 100, nil)
	require.NoError(t, err)
	second, err := e.claim.SubmitClaim(ctx, policy.ID, "alice", 100, nil)
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, id := range []uuid.UUID{first.ID, second.ID} {
		wg.Add(1)
		go func(i int, id uuid.UUID) {
			defer wg.Done()
			errs[i] = e.settlement.Settle(ctx, id, validVerdict(id))
		}(i, id)
	}
	wg.Wait()

	paidCount := 0
	for _, id := range []uuid.UUID{first.ID, second.ID} {
		c, err := e.claim.GetClaim(ctx, id)
		require.NoError(t, err)
		if c.Status == models.ClaimPaid {
			paidCount++
		}
	}
	assert.Equal(t, 1, paidCount, "exactly one claim pays out")

	failures := 0
	for _, err := range errs {
		if err != nil {
			assert.ErrorIs(t, err, models.ErrPolicyAlreadyClaimed)
			failures++
		}
	}
	assert.Equal(t, 1, failures)

	stats, err := e.policy.GetPoolStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(100), stats.ClaimsPaid, "pool debited once")
}

func TestRejectClaim(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()
	policy := e.activePolicy(t, "alice", 1000, 100)

	claim, err := e.claim.SubmitClaim(ctx, policy.ID, "alice", 500, nil)
	require.NoError(t, err)

	require.NoError(t, e.claim.RejectClaim(ctx, claim.ID))

	err = e.claim.RejectClaim(ctx, claim.ID)
	assert.ErrorIs(t, err, models.ErrClaimNotPending)
}

func TestGetClaimForHolder(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()
	policy := e.activePolicy(t, "alice", 1000, 100)

	claim, err := e.claim.SubmitClaim(ctx, policy.ID, "alice", 500, nil)
	require.NoError(t, err)

	got, err := e.claim.GetClaimForHolder(ctx, claim.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, claim.ID, got.ID)

	_, err = e.claim.GetClaimForHolder(ctx, claim.ID, "mallory")
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestExpirePolicies(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()
	expiringSoon := e.activePolicy(t, "alice", 1000, 100)
	fresh := e.activePolicy(t, "bob", 1000, 100)

	// Age only the first policy's window.
	past := time.Now().AddDate(0, 0, -1).Unix()
	p, err := e.policies.GetPolicy(ctx, expiringSoon.ID)
	require.NoError(t, err)
	p.EndTime = &past
	require.NoError(t, e.policies.UpdatePolicy(ctx, p))

	expired, err := e.policy.ExpirePolicies(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, expired)

	p1, err := e.policy.GetPolicy(ctx, expiringSoon.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PolicyExpired, p1.Status)

	p2, err := e.policy.GetPolicy(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PolicyActive, p2.Status)

	// Expiration is terminal for claims too.
	_, err = e.claim.SubmitClaim(ctx, expiringSoon.ID, "alice", 500, nil)
	assert.ErrorIs(t, err, models.ErrPolicyNotActive)
}

// fakeVerifier drives the processor without external sources.
type fakeVerifier struct {
	verdict *models.OracleVerdict
	err     error
}

func (f *fakeVerifier) Verify(_ context.Context, claimID uuid.UUID, _ *models.TriggerParameters) (*models.OracleVerdict, error) {
	if f.err != nil {
		return nil, f.err
	}
	v := *f.verdict
	v.ClaimID = claimID
	return &v, nil
}

func TestProcessClaim_EndToEnd(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()
	policy := e.activePolicy(t, "alice", 100, 100)

	claim, err := e.claim.SubmitClaim(ctx, policy.ID, "alice", 100, nil)
	require.NoError(t, err)

	verifier := &fakeVerifier{verdict: validVerdict(claim.ID)}
	processor := NewClaimProcessor(e.claim, e.policy, e.settlement, verifier)

	require.NoError(t, processor.ProcessClaim(ctx, claim.ID))

	paid, err := e.claim.GetClaim(ctx, claim.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ClaimPaid, paid.Status)
}

func TestProcessClaim_SourceFailureLeavesPending(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()
	policy := e.activePolicy(t, "alice", 100, 100)

	claim, err := e.claim.SubmitClaim(ctx, policy.ID, "alice", 100, nil)
	require.NoError(t, err)

	verifier := &fakeVerifier{err: models.ErrSourceUnavailable}
	processor := NewClaimProcessor(e.claim, e.policy, e.settlement, verifier)

	err = processor.ProcessClaim(ctx, claim.ID)
	assert.ErrorIs(t, err, models.ErrSourceUnavailable)

	pending, err := e.claim.GetClaim(ctx, claim.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ClaimPending, pending.Status,
		"a dead provider must never reject or pay a claim")
}

func TestProcessPendingClaims_SweepSettlesBacklog(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()
	policyA := e.activePolicy(t, "alice", 100, 100)
	policyB := e.activePolicy(t, "bob", 100, 100)

	claimA, err := e.claim.SubmitClaim(ctx, policyA.ID, "alice", 100, nil)
	require.NoError(t, err)
	claimB, err := e.claim.SubmitClaim(ctx, policyB.ID, "bob", 100, nil)
	require.NoError(t, err)

	verifier := &fakeVerifier{verdict: validVerdict(uuid.Nil)}
	processor := NewClaimProcessor(e.claim, e.policy, e.settlement, verifier)

	require.NoError(t, processor.ProcessPendingClaims(ctx))

	for _, id := range []uuid.UUID{claimA.ID, claimB.ID} {
		c, err := e.claim.GetClaim(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, models.ClaimPaid, c.Status)
	}
}
