package oracle

import (
	"fmt"

	"parametric-insurance/internal/models"
)

// Pure trigger predicates. No I/O here: each function compares one
// observation against one parsed parameter set. Absence of usable data is an
// IndeterminateState error, never a false verdict.

const kelvinOffset = 273.15

// VerifyFlightDelay checks whether a flight departed at least the threshold
// number of minutes late. The threshold is inclusive. A flight that has not
// departed (cancelled, still scheduled) cannot be delay-verified.
func VerifyFlightDelay(params *models.FlightDelayParams, obs *models.FlightObservation) (bool, error) {
	if obs == nil {
		return false, models.DomainMsg(models.ErrIndeterminateState, "no flight observation")
	}
	if !obs.Departed() {
		return false, models.DomainMsg(models.ErrIndeterminateState,
			fmt.Sprintf("flight %s in status %q has no measurable delay", obs.FlightNumber, obs.FlightStatus))
	}
	if obs.ScheduledDeparture == nil || obs.ActualDeparture == nil {
		return false, models.DomainMsg(models.ErrIndeterminateState, "departure times missing from observation")
	}

	delayMinutes := obs.ActualDeparture.Sub(*obs.ScheduledDeparture).Minutes()
	return delayMinutes >= float64(params.DelayMinutes), nil
}

// VerifyRainfall checks observed rainfall against the millimetre threshold
// (inclusive).
func VerifyRainfall(params *models.RainfallParams, obs *models.WeatherObservation) (bool, error) {
	if obs == nil {
		return false, models.DomainMsg(models.ErrIndeterminateState, "no weather observation")
	}
	return obs.RainfallMm >= params.ThresholdMm, nil
}

// VerifyTemperature converts the provider's Kelvin reading to Celsius and
// compares per the configured operator.
func VerifyTemperature(params *models.TemperatureParams, obs *models.WeatherObservation) (bool, error) {
	if obs == nil {
		return false, models.DomainMsg(models.ErrIndeterminateState, "no weather observation")
	}
	celsius := obs.TemperatureKelvin - kelvinOffset
	switch params.Operator {
	case models.TemperatureBelow:
		return celsius <= params.ThresholdC, nil
	case models.TemperatureAtOrAbove:
		return celsius >= params.ThresholdC, nil
	default:
		return false, models.DomainMsg(models.ErrMalformedParameters,
			fmt.Sprintf("unknown temperature operator %q", params.Operator))
	}
}

// VerifyEarthquake checks the reported magnitude against the threshold
// (inclusive).
func VerifyEarthquake(params *models.EarthquakeParams, obs *models.QuakeObservation) (bool, error) {
	if obs == nil {
		return false, models.DomainMsg(models.ErrIndeterminateState, "no earthquake observation")
	}
	return obs.Magnitude >= params.MagnitudeThreshold, nil
}

// Evaluate dispatches an observation to the predicate matching the trigger
// variant.
func Evaluate(params *models.TriggerParameters, obs *models.Observation) (bool, error) {
	if params == nil {
		return false, models.DomainMsg(models.ErrMalformedParameters, "nil trigger parameters")
	}
	if obs == nil {
		return false, models.DomainMsg(models.ErrIndeterminateState, "nil observation")
	}

	switch {
	case params.FlightDelay != nil:
		return VerifyFlightDelay(params.FlightDelay, obs.Flight)
	case params.Rainfall != nil:
		return VerifyRainfall(params.Rainfall, obs.Weather)
	case params.Temperature != nil:
		return VerifyTemperature(params.Temperature, obs.Weather)
	case params.Earthquake != nil:
		return VerifyEarthquake(params.Earthquake, obs.Quake)
	default:
		return false, models.DomainMsg(models.ErrMalformedParameters,
			fmt.Sprintf("no predicate for event type %s", params.EventType))
	}
}
