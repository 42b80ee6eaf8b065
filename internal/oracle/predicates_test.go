package oracle

import (
	"errors"
	"testing"
	"time"

	"parametric-insurance/internal/models"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func flightObs(status string, delayMinutes int) *models.FlightObservation {
	scheduled := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	actual := scheduled.Add(time.Duration(delayMinutes) * time.Minute)
	return &models.FlightObservation{
		FlightNumber:       "VN123",
		FlightStatus:       status,
		ScheduledDeparture: &scheduled,
		ActualDeparture:    &actual,
	}
}

func TestVerifyFlightDelay_ThresholdIsInclusive(t *testing.T) {
	params := &models.FlightDelayParams{FlightNumber: "VN123", DelayMinutes: 120}

	valid, err := VerifyFlightDelay(params, flightObs("active", 119))
	require.NoError(t, err)
	assert.False(t, valid, "119 minute delay must not meet a 120 minute threshold")

	valid, err = VerifyFlightDelay(params, flightObs("active", 120))
	require.NoError(t, err)
	assert.True(t, valid, "delay exactly at the threshold triggers")

	valid, err = VerifyFlightDelay(params, flightObs("landed", 240))
	require.NoError(t, err)
	assert.True(t, valid)
}

func TestVerifyFlightDelay_NotDepartedIsIndeterminate(t *testing.T) {
	params := &models.FlightDelayParams{FlightNumber: "VN123", DelayMinutes: 120}

	for _, status := range []string{"scheduled", "cancelled", "diverted", "incident"} {
		_, err := VerifyFlightDelay(params, flightObs(status, 500))
		assert.ErrorIs(t, err, models.ErrIndeterminateState, "status %s has no measurable delay", status)
	}
}

func TestVerifyFlightDelay_MissingTimesIsIndeterminate(t *testing.T) {
	params := &models.FlightDelayParams{FlightNumber: "VN123", DelayMinutes: 120}
	obs := &models.FlightObservation{FlightNumber: "VN123", FlightStatus: "active"}

	_, err := VerifyFlightDelay(params, obs)
	assert.ErrorIs(t, err, models.ErrIndeterminateState)

	_, err = VerifyFlightDelay(params, nil)
	assert.ErrorIs(t, err, models.ErrIndeterminateState)
}

func TestVerifyRainfall_ThresholdIsInclusive(t *testing.T) {
	params := &models.RainfallParams{Location: "Hanoi", ThresholdMm: 5.5}

	valid, err := VerifyRainfall(params, &models.WeatherObservation{RainfallMm: 5.4})
	require.NoError(t, err)
	assert.False(t, valid)

	valid, err = VerifyRainfall(params, &models.WeatherObservation{RainfallMm: 5.5})
	require.NoError(t, err)
	assert.True(t, valid)

	_, err = VerifyRainfall(params, nil)
	assert.ErrorIs(t, err, models.ErrIndeterminateState)
}

func TestVerifyTemperature_ConvertsKelvin(t *testing.T) {
	// 298.15 K is exactly 25 C.
	obs := &models.WeatherObservation{TemperatureKelvin: 298.15}

	valid, err := VerifyTemperature(&models.TemperatureParams{
		ThresholdC: 25, Operator: models.TemperatureAtOrAbove,
	}, obs)
	require.NoError(t, err)
	assert.True(t, valid, "25 C meets an at_or_above threshold of 25")

	valid, err = VerifyTemperature(&models.TemperatureParams{
		ThresholdC: 30, Operator: models.TemperatureAtOrAbove,
	}, obs)
	require.NoError(t, err)
	assert.False(t, valid)

	valid, err = VerifyTemperature(&models.TemperatureParams{
		ThresholdC: 25, Operator: models.TemperatureBelow,
	}, obs)
	require.NoError(t, err)
	assert.True(t, valid, "25 C meets a below threshold of 25")

	valid, err = VerifyTemperature(&models.TemperatureParams{
		ThresholdC: 20, Operator: models.TemperatureBelow,
	}, obs)
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestVerifyTemperature_OperatorDirection(t *testing.T) {
	// 300.15 K is 27 C: hot enough for at_or_above 25, not cold enough for below 25.
	obs := &models.WeatherObservation{TemperatureKelvin: 300.15}

	valid, err := VerifyTemperature(&models.TemperatureParams{
		ThresholdC: 25, Operator: models.TemperatureAtOrAbove,
	}, obs)
	require.NoError(t, err)
	assert.True(t, valid)

	valid, err = VerifyTemperature(&models.TemperatureParams{
		ThresholdC: 25, Operator: models.TemperatureBelow,
	}, obs)
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestVerifyTemperature_UnknownOperator(t *testing.T) {
	_, err := VerifyTemperature(&models.TemperatureParams{
		ThresholdC: 25, Operator: "between",
	}, &models.WeatherObservation{TemperatureKelvin: 300})
	assert.ErrorIs(t, err, models.ErrMalformedParameters)
}

func TestVerifyEarthquake_ThresholdIsInclusive(t *testing.T) {
	params := &models.EarthquakeParams{Region: "Tokyo", MagnitudeThreshold: 6.0}

	valid, err := VerifyEarthquake(params, &models.QuakeObservation{Magnitude: 5.9})
	require.NoError(t, err)
	assert.False(t, valid)

	valid, err = VerifyEarthquake(params, &models.QuakeObservation{Magnitude: 6.0})
	require.NoError(t, err)
	assert.True(t, valid)
}

func TestEvaluate_DispatchesByVariant(t *testing.T) {
	params := &models.TriggerParameters{
		EventType: models.EventWeather,
		Rainfall:  &models.RainfallParams{Location: "Hanoi", ThresholdMm: 5.0},
	}
	obs := &models.Observation{
		EventType: models.EventWeather,
		Weather:   &models.WeatherObservation{RainfallMm: 7.2},
	}

	valid, err := Evaluate(params, obs)
	require.NoError(t, err)
	assert.True(t, valid)
}

func TestEvaluate_NilInputs(t *testing.T) {
	_, err := Evaluate(nil, &models.Observation{})
	assert.ErrorIs(t, err, models.ErrMalformedParameters)

	_, err = Evaluate(&models.TriggerParameters{EventType: models.EventWeather}, nil)
	assert.ErrorIs(t, err, models.ErrIndeterminateState)

	// A parsed parameter set always has a variant; a bare one does not.
	_, err = Evaluate(&models.TriggerParameters{EventType: models.EventCropFailure}, &models.Observation{})
	assert.ErrorIs(t, err, models.ErrMalformedParameters)
}

func TestFlightDelayProperty_VerdictMatchesArithmetic(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("delay verdict agrees with delay >= threshold", prop.ForAll(
		func(delay int, threshold int) bool {
			params := &models.FlightDelayParams{FlightNumber: "VN123", DelayMinutes: threshold}
			valid, err := VerifyFlightDelay(params, flightObs("landed", delay))
			if err != nil {
				return false
			}
			return valid == (delay >= threshold)
		},
		gen.IntRange(0, 2000),
		gen.IntRange(1, 2000),
	))

	properties.TestingRun(t)
}

func TestTemperatureProperty_OperatorsCoverTheLine(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("below and at_or_above disagree except at the threshold", prop.ForAll(
		func(kelvin float64, threshold float64) bool {
			obs := &models.WeatherObservation{TemperatureKelvin: kelvin}
			below, err := VerifyTemperature(&models.TemperatureParams{
				ThresholdC: threshold, Operator: models.TemperatureBelow,
			}, obs)
			if err != nil {
				return false
			}
			above, err := VerifyTemperature(&models.TemperatureParams{
				ThresholdC: threshold, Operator: models.TemperatureAtOrAbove,
			}, obs)
			if err != nil {
				return false
			}

			celsius := kelvin - 273.15
			if celsius == threshold {
				return below && above
			}
			return below != above
		},
		gen.Float64Range(200, 350),
		gen.Float64Range(-50, 60),
	))

	properties.TestingRun(t)
}

func TestIndeterminateIsNeverRejection(t *testing.T) {
	params := &models.TriggerParameters{
		EventType:   models.EventFlightDelay,
		FlightDelay: &models.FlightDelayParams{FlightNumber: "VN123", DelayMinutes: 120},
	}
	obs := &models.Observation{
		EventType: models.EventFlightDelay,
		Flight:    &models.FlightObservation{FlightNumber: "VN123", FlightStatus: "cancelled"},
	}

	valid, err := Evaluate(params, obs)
	require.Error(t, err)
	assert.False(t, valid)

	var domainErr *models.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, models.KindExternalData, domainErr.Kind)
}
