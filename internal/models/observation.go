package models

import "time"

// FlightObservation is the subset of a flight-status provider response the
// predicates consume. Departure times are absent until the provider reports
// them.
type FlightObservation struct {
	FlightNumber       string     `json:"flight_number"`
	FlightStatus       string     `json:"flight_status"`
	ScheduledDeparture *time.Time `json:"scheduled_departure,omitempty"`
	ActualDeparture    *time.Time `json:"actual_departure,omitempty"`
}

// Departed reports whether the flight is in a state where a delay can be
// measured. A cancelled or still-scheduled flight has no delay to verify.
func (f *FlightObservation) Departed() bool {
	switch f.FlightStatus {
	case "active", "landed":
		return true
	default:
		return false
	}
}

// WeatherObservation carries current conditions for one location. The
// provider reports temperature in Kelvin; predicates convert to Celsius.
type WeatherObservation struct {
	Location          string  `json:"location"`
	TemperatureKelvin float64 `json:"temperature_kelvin"`
	Humidity          float64 `json:"humidity"`
	RainfallMm        float64 `json:"rainfall_mm"`
	Description       string  `json:"description"`
}

// QuakeObservation is a single seismic event report.
type QuakeObservation struct {
	Region    string  `json:"region"`
	Magnitude float64 `json:"magnitude"`
}

// Observation is what a data source fetch returns: at most one of the typed
// payloads, plus provenance. Sandbox marks fabricated observations so they
// can never be mistaken for live data.
type Observation struct {
	EventType EventType           `json:"event_type"`
	Flight    *FlightObservation  `json:"flight,omitempty"`
	Weather   *WeatherObservation `json:"weather,omitempty"`
	Quake     *QuakeObservation   `json:"quake,omitempty"`
	Source    string              `json:"source"`
	Sandbox   bool                `json:"sandbox"`
	FetchedAt time.Time           `json:"fetched_at"`
}
