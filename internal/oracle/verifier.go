package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"parametric-insurance/internal/config"
	"parametric-insurance/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Verifier resolves a claim's event type to a data source, fetches an
// observation with bounded retries, and evaluates the trigger predicate.
// It never mutates ledger state; it only produces verdicts.
type Verifier struct {
	sources  map[models.EventType]DataSource
	cache    *redis.Client
	cacheTTL time.Duration
	timeout  time.Duration
	retries  int
	backoff  time.Duration
}

// NewVerifier wires data sources per event type. In sandbox mode every event
// type resolves to the sandbox source; the cache is bypassed so fabricated
// observations never leak into live verification.
func NewVerifier(cfg config.OracleConfig, cache *redis.Client) *Verifier {
	v := &Verifier{
		sources:  make(map[models.EventType]DataSource),
		cacheTTL: cfg.CacheTTL,
		timeout:  cfg.FetchTimeout,
		retries:  cfg.FetchRetries,
		backoff:  time.Second,
	}

	if cfg.SandboxMode {
		sandbox := NewSandboxSource()
		v.sources[models.EventFlightDelay] = sandbox
		v.sources[models.EventWeather] = sandbox
		v.sources[models.EventEarthquake] = sandbox
		return v
	}

	v.cache = cache
	v.sources[models.EventFlightDelay] = NewFlightSource(cfg)
	v.sources[models.EventWeather] = NewWeatherSource(cfg)
	return v
}

// RegisterSource installs or replaces the data source for an event type.
func (v *Verifier) RegisterSource(eventType models.EventType, src DataSource) {
	v.sources[eventType] = src
}

// Verify fetches data for the claim's trigger and evaluates the predicate.
// Fetch failures propagate after retries exhaust: the caller keeps the claim
// Pending and may re-trigger, since absence of data is not evidence of an
// invalid claim.
func (v *Verifier) Verify(ctx context.Context, claimID uuid.UUID, params *models.TriggerParameters) (*models.OracleVerdict, error) {
	if params == nil {
		return nil, models.DomainMsg(models.ErrMalformedParameters, "nil trigger parameters")
	}

	src, ok := v.sources[params.EventType]
	if !ok {
		return nil, models.DomainMsg(models.ErrSourceUnavailable,
			fmt.Sprintf("no data source registered for event type %s", params.EventType))
	}

	obs, err := v.fetchWithRetry(ctx, src, params)
	if err != nil {
		return nil, err
	}

	isValid, err := Evaluate(params, obs)
	if err != nil {
		return nil, err
	}

	verdict := &models.OracleVerdict{
		ClaimID:          claimID,
		EventType:        params.EventType,
		IsValid:          isValid,
		EvidenceSnapshot: snapshotOf(obs),
		EvaluatedAt:      time.Now(),
	}

	slog.Info("claim verification complete",
		"claim_id", claimID,
		"event_type", params.EventType,
		"is_valid", isValid,
		"source", obs.Source,
		"sandbox", obs.Sandbox)

	return verdict, nil
}

// fetchWithRetry runs bounded fetch attempts with exponential backoff.
// Only external-data failures are retried; malformed parameters fail fast.
func (v *Verifier) fetchWithRetry(ctx context.Context, src DataSource, params *models.TriggerParameters) (*models.Observation, error) {
	if obs := v.cachedObservation(ctx, params); obs != nil {
		return obs, nil
	}

	attempts := v.retries
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			wait := v.backoff << (attempt - 1)
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return nil, models.WrapDomain(models.ErrSourceTimeout, ctx.Err())
			}
		}

		fetchCtx, cancel := context.WithTimeout(ctx, v.timeout)
		obs, err := src.Fetch(fetchCtx, params)
		cancel()
		if err == nil {
			v.storeObservation(ctx, params, obs)
			return obs, nil
		}

		if models.KindOf(err) != models.KindExternalData || errors.Is(err, models.ErrMalformedParameters) {
			return nil, err
		}

		lastErr = err
		slog.Warn("oracle fetch attempt failed",
			"event_type", params.EventType,
			"attempt", attempt+1,
			"error", err)
	}

	return nil, lastErr
}

func (v *Verifier) cachedObservation(ctx context.Context, params *models.TriggerParameters) *models.Observation {
	if v.cache == nil {
		return nil
	}

	raw, err := v.cache.Get(ctx, observationCacheKey(params)).Bytes()
	if err != nil {
		return nil
	}

	var obs models.Observation
	if err := json.Unmarshal(raw, &obs); err != nil {
		return nil
	}
	if obs.Sandbox {
		return nil
	}
	return &obs
}

func (v *Verifier) storeObservation(ctx context.Context, params *models.TriggerParameters, obs *models.Observation) {
	if v.cache == nil || obs == nil || obs.Sandbox {
		return
	}

	raw, err := json.Marshal(obs)
	if err != nil {
		return
	}
	if err := v.cache.Set(ctx, observationCacheKey(params), raw, v.cacheTTL).Err(); err != nil {
		slog.Warn("failed to cache observation", "event_type", params.EventType, "error", err)
	}
}

// observationCacheKey identifies one external query, so claims sharing a
// flight or location within the TTL window reuse the same observation.
func observationCacheKey(params *models.TriggerParameters) string {
	switch {
	case params.FlightDelay != nil:
		return fmt.Sprintf("oracle:flight:%s", params.FlightDelay.FlightNumber)
	case params.Rainfall != nil:
		return fmt.Sprintf("oracle:weather:%s", params.Rainfall.Location)
	case params.Temperature != nil:
		return fmt.Sprintf("oracle:weather:%s", params.Temperature.Location)
	case params.Earthquake != nil:
		return fmt.Sprintf("oracle:quake:%s", params.Earthquake.Region)
	default:
		return fmt.Sprintf("oracle:%s", params.EventType)
	}
}

func snapshotOf(obs *models.Observation) map[string]any {
	raw, err := json.Marshal(obs)
	if err != nil {
		return nil
	}
	var snapshot map[string]any
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return nil
	}
	return snapshot
}
