package models

type EventType string

const (
	EventFlightDelay EventType = "FLIGHT_DELAY"
	EventWeather     EventType = "WEATHER"
	EventEarthquake  EventType = "EARTHQUAKE"
	EventCropFailure EventType = "CROP_FAILURE"
	EventHurricane   EventType = "HURRICANE"
)

func IsValidEventType(t EventType) bool {
	switch t {
	case EventFlightDelay, EventWeather, EventEarthquake, EventCropFailure, EventHurricane:
		return true
	default:
		return false
	}
}

type PolicyStatus string

const (
	PolicyCreated   PolicyStatus = "created"
	PolicyActive    PolicyStatus = "active"
	PolicyExpired   PolicyStatus = "expired"
	PolicyClaimed   PolicyStatus = "claimed"
	PolicyCancelled PolicyStatus = "cancelled"
)

// IsTerminal reports whether no further transitions are allowed from status.
func (s PolicyStatus) IsTerminal() bool {
	switch s {
	case PolicyExpired, PolicyClaimed, PolicyCancelled:
		return true
	default:
		return false
	}
}

type ClaimStatus string

const (
	ClaimPending  ClaimStatus = "pending"
	ClaimApproved ClaimStatus = "approved"
	ClaimRejected ClaimStatus = "rejected"
	ClaimPaid     ClaimStatus = "paid"
)

func (s ClaimStatus) IsTerminal() bool {
	return s == ClaimRejected || s == ClaimPaid
}

type PayoutStatus string

const (
	PayoutProcessing PayoutStatus = "processing"
	PayoutCompleted  PayoutStatus = "completed"
	PayoutFailed     PayoutStatus = "failed"
)

// WeatherCondition selects which weather predicate a trigger evaluates.
type WeatherCondition string

const (
	ConditionRainfall    WeatherCondition = "rainfall"
	ConditionTemperature WeatherCondition = "temperature"
)

// TemperatureOperator selects the comparison direction for temperature
// triggers. "below" pays when it is cold enough, "at_or_above" when it is
// hot enough.
type TemperatureOperator string

const (
	TemperatureBelow     TemperatureOperator = "below"
	TemperatureAtOrAbove TemperatureOperator = "at_or_above"
)

func IsValidTemperatureOperator(op TemperatureOperator) bool {
	return op == TemperatureBelow || op == TemperatureAtOrAbove
}
