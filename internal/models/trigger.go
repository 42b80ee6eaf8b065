package models

import (
	"encoding/json"
	"fmt"
)

// TriggerParameters is the parsed form of a policy's trigger condition.
// Exactly one variant is set, matching the policy event type. The raw JSON
// lives in the content store; the ledger only holds an opaque reference.
type TriggerParameters struct {
	EventType   EventType
	FlightDelay *FlightDelayParams
	Rainfall    *RainfallParams
	Temperature *TemperatureParams
	Earthquake  *EarthquakeParams
}

type FlightDelayParams struct {
	FlightNumber string `json:"flightNumber"`
	DelayMinutes int    `json:"delayMinutes"`
}

type RainfallParams struct {
	Location    string  `json:"location"`
	ThresholdMm float64 `json:"threshold"`
}

type TemperatureParams struct {
	Location   string              `json:"location"`
	ThresholdC float64             `json:"threshold"`
	Operator   TemperatureOperator `json:"operator"`
}

type EarthquakeParams struct {
	Region             string  `json:"region"`
	MagnitudeThreshold float64 `json:"magnitudeThreshold"`
}

// rawTriggerParams is the wire shape stored in the content store. The
// "condition" field disambiguates the two weather variants.
type rawTriggerParams struct {
	FlightNumber       string   `json:"flightNumber"`
	DelayMinutes       *int     `json:"delayMinutes"`
	Condition          string   `json:"condition"`
	Location           string   `json:"location"`
	Threshold          *float64 `json:"threshold"`
	Operator           string   `json:"operator"`
	Region             string   `json:"region"`
	MagnitudeThreshold *float64 `json:"magnitudeThreshold"`
}

const defaultDelayMinutes = 120

// ParseTriggerParameters validates a raw parameter blob against the policy
// event type. Unparsable or incomplete input fails with MalformedParameters;
// it is never folded into a "condition not met" result.
func ParseTriggerParameters(eventType EventType, blob []byte) (*TriggerParameters, error) {
	if len(blob) == 0 {
		return nil, DomainMsg(ErrMalformedParameters, "empty trigger parameters")
	}

	var raw rawTriggerParams
	if err := json.Unmarshal(blob, &raw); err != nil {
		return nil, WrapDomain(ErrMalformedParameters, err)
	}

	out := &TriggerParameters{EventType: eventType}
	switch eventType {
	case EventFlightDelay:
		if raw.FlightNumber == "" {
			return nil, DomainMsg(ErrMalformedParameters, "flight delay trigger requires flightNumber")
		}
		delay := defaultDelayMinutes
		if raw.DelayMinutes != nil {
			if *raw.DelayMinutes <= 0 {
				return nil, DomainMsg(ErrMalformedParameters, "delayMinutes must be positive")
			}
			delay = *raw.DelayMinutes
		}
		out.FlightDelay = &FlightDelayParams{FlightNumber: raw.FlightNumber, DelayMinutes: delay}

	case EventWeather:
		if raw.Threshold == nil {
			return nil, DomainMsg(ErrMalformedParameters, "weather trigger requires threshold")
		}
		switch WeatherCondition(raw.Condition) {
		case ConditionRainfall:
			out.Rainfall = &RainfallParams{Location: raw.Location, ThresholdMm: *raw.Threshold}
		case ConditionTemperature:
			op := TemperatureOperator(raw.Operator)
			if op == "" {
				op = TemperatureAtOrAbove
			}
			if !IsValidTemperatureOperator(op) {
				return nil, DomainMsg(ErrMalformedParameters, fmt.Sprintf("unknown temperature operator %q", raw.Operator))
			}
			out.Temperature = &TemperatureParams{Location: raw.Location, ThresholdC: *raw.Threshold, Operator: op}
		default:
			return nil, DomainMsg(ErrMalformedParameters, fmt.Sprintf("unknown weather condition %q", raw.Condition))
		}

	case EventEarthquake:
		if raw.MagnitudeThreshold == nil {
			return nil, DomainMsg(ErrMalformedParameters, "earthquake trigger requires magnitudeThreshold")
		}
		out.Earthquake = &EarthquakeParams{Region: raw.Region, MagnitudeThreshold: *raw.MagnitudeThreshold}

	case EventCropFailure, EventHurricane:
		return nil, DomainMsg(ErrMalformedParameters, fmt.Sprintf("no verifier registered for event type %s", eventType))

	default:
		return nil, DomainMsg(ErrMalformedParameters, fmt.Sprintf("unknown event type %q", eventType))
	}

	return out, nil
}
