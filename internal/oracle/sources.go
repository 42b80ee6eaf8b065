package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"parametric-insurance/internal/config"
	"parametric-insurance/internal/models"
)

// DataSource fetches a raw observation for one trigger parameter set.
// Implementations must return tagged failures: callers distinguish
// SourceUnavailable from a valid "condition not met" observation.
type DataSource interface {
	Fetch(ctx context.Context, params *models.TriggerParameters) (*models.Observation, error)
}

// WeatherSource queries an OpenWeatherMap-style current-conditions endpoint.
type WeatherSource struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewWeatherSource(cfg config.OracleConfig) *WeatherSource {
	return &WeatherSource{
		baseURL: cfg.WeatherBaseURL,
		apiKey:  cfg.WeatherAPIKey,
		client:  &http.Client{},
	}
}

// openWeatherResponse is the subset of the provider payload we read.
type openWeatherResponse struct {
	Main struct {
		Temp     float64 `json:"temp"`
		Humidity float64 `json:"humidity"`
	} `json:"main"`
	Rain struct {
		OneHour float64 `json:"1h"`
	} `json:"rain"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
	Name string `json:"name"`
}

func (s *WeatherSource) Fetch(ctx context.Context, params *models.TriggerParameters) (*models.Observation, error) {
	location := weatherLocation(params)
	if location == "" {
		return nil, models.DomainMsg(models.ErrMalformedParameters, "weather trigger has no location")
	}
	if s.apiKey == "" {
		return nil, models.DomainMsg(models.ErrSourceUnavailable, "weather API key not configured")
	}

	reqURL := fmt.Sprintf("%s?q=%s&appid=%s", s.baseURL, url.QueryEscape(location), s.apiKey)
	body, err := getJSON(ctx, s.client, reqURL)
	if err != nil {
		return nil, err
	}

	var resp openWeatherResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		slog.Error("failed to parse weather provider response", "location", location, "error", err)
		return nil, models.WrapDomain(models.ErrSourceUnavailable, err)
	}

	description := ""
	if len(resp.Weather) > 0 {
		description = resp.Weather[0].Description
	}

	return &models.Observation{
		EventType: params.EventType,
		Weather: &models.WeatherObservation{
			Location:          resp.Name,
			TemperatureKelvin: resp.Main.Temp,
			Humidity:          resp.Main.Humidity,
			RainfallMm:        resp.Rain.OneHour,
			Description:       description,
		},
		Source:    "openweathermap",
		FetchedAt: time.Now(),
	}, nil
}

func weatherLocation(params *models.TriggerParameters) string {
	switch {
	case params.Rainfall != nil:
		return params.Rainfall.Location
	case params.Temperature != nil:
		return params.Temperature.Location
	default:
		return ""
	}
}

// FlightSource queries an AviationStack-style flight status endpoint.
type FlightSource struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewFlightSource(cfg config.OracleConfig) *FlightSource {
	return &FlightSource{
		baseURL: cfg.FlightBaseURL,
		apiKey:  cfg.FlightAPIKey,
		client:  &http.Client{},
	}
}

type aviationStackResponse struct {
	Data []struct {
		FlightStatus string `json:"flight_status"`
		Departure    struct {
			Scheduled string `json:"scheduled"`
			Actual    string `json:"actual"`
		} `json:"departure"`
		Flight struct {
			IATA string `json:"iata"`
		} `json:"flight"`
	} `json:"data"`
}

func (s *FlightSource) Fetch(ctx context.Context, params *models.TriggerParameters) (*models.Observation, error) {
	if params.FlightDelay == nil {
		return nil, models.DomainMsg(models.ErrMalformedParameters, "flight source requires flight delay parameters")
	}
	if s.apiKey == "" {
		return nil, models.DomainMsg(models.ErrSourceUnavailable, "flight API key not configured")
	}

	reqURL := fmt.Sprintf("%s?access_key=%s&flight_iata=%s",
		s.baseURL, s.apiKey, url.QueryEscape(params.FlightDelay.FlightNumber))
	body, err := getJSON(ctx, s.client, reqURL)
	if err != nil {
		return nil, err
	}

	var resp aviationStackResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		slog.Error("failed to parse flight provider response", "flight", params.FlightDelay.FlightNumber, "error", err)
		return nil, models.WrapDomain(models.ErrSourceUnavailable, err)
	}
	if len(resp.Data) == 0 {
		return nil, models.DomainMsg(models.ErrSourceUnavailable,
			fmt.Sprintf("no status reported for flight %s", params.FlightDelay.FlightNumber))
	}

	record := resp.Data[0]
	obs := &models.FlightObservation{
		FlightNumber: record.Flight.IATA,
		FlightStatus: record.FlightStatus,
	}
	if t, err := time.Parse(time.RFC3339, record.Departure.Scheduled); err == nil {
		obs.ScheduledDeparture = &t
	}
	if t, err := time.Parse(time.RFC3339, record.Departure.Actual); err == nil {
		obs.ActualDeparture = &t
	}

	return &models.Observation{
		EventType: params.EventType,
		Flight:    obs,
		Source:    "aviationstack",
		FetchedAt: time.Now(),
	}, nil
}

// getJSON performs one bounded GET and maps transport failures onto the
// external-data error taxonomy.
func getJSON(ctx context.Context, client *http.Client, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, models.WrapDomain(models.ErrSourceUnavailable, err)
	}

	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, models.WrapDomain(models.ErrSourceTimeout, err)
		}
		return nil, models.WrapDomain(models.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, models.WrapDomain(models.ErrSourceUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		slog.Error("data provider returned non-200 status", "status", resp.StatusCode, "body", string(body))
		return nil, models.DomainMsg(models.ErrSourceUnavailable,
			fmt.Sprintf("provider returned status %d", resp.StatusCode))
	}

	return body, nil
}

// SandboxSource fabricates observations for test and demo configurations.
// Every observation it returns is flagged Sandbox so downstream consumers
// can tell it apart from live data. It is selected explicitly by
// configuration, never as a fallback for a failed live fetch.
type SandboxSource struct {
	now func() time.Time
}

func NewSandboxSource() *SandboxSource {
	return &SandboxSource{now: time.Now}
}

func (s *SandboxSource) Fetch(_ context.Context, params *models.TriggerParameters) (*models.Observation, error) {
	obs := &models.Observation{
		EventType: params.EventType,
		Source:    "sandbox",
		Sandbox:   true,
		FetchedAt: s.now(),
	}

	switch {
	case params.FlightDelay != nil:
		scheduled := s.now().Add(-3 * time.Hour)
		actual := s.now().Add(-1 * time.Hour)
		obs.Flight = &models.FlightObservation{
			FlightNumber:       params.FlightDelay.FlightNumber,
			FlightStatus:       "active",
			ScheduledDeparture: &scheduled,
			ActualDeparture:    &actual,
		}
	case params.Rainfall != nil, params.Temperature != nil:
		obs.Weather = &models.WeatherObservation{
			Location:          weatherLocation(params),
			TemperatureKelvin: 298.15,
			Humidity:          65,
			RainfallMm:        5.5,
			Description:       "moderate rain",
		}
	case params.Earthquake != nil:
		obs.Quake = &models.QuakeObservation{
			Region:    params.Earthquake.Region,
			Magnitude: 5.8,
		}
	default:
		return nil, models.DomainMsg(models.ErrMalformedParameters,
			fmt.Sprintf("no sandbox data for event type %s", params.EventType))
	}

	return obs, nil
}
