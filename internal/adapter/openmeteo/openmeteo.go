// Package openmeteo implements forecasts and geocoding on the Open-Meteo APIs.
package openmeteo

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"astroplanner/internal/domain"
	"astroplanner/internal/tz"
)

const (
	// DefaultForecastURL is the public forecast endpoint.
	DefaultForecastURL = "https://api.open-meteo.com/v1/forecast"
	// DefaultGeocodeURL is the public geocoding endpoint.
	DefaultGeocodeURL = "https://geocoding-api.open-meteo.com/v1/search"
	// DefaultTimeout bounds each request.
	DefaultTimeout = 10 * time.Second
)

var hourlyFields = []string{
	"temperature_2m",
	"cloud_cover",
	"wind_speed_10m",
	"wind_direction_10m",
	"is_day",
	"weather_code",
}

// Client talks to Open-Meteo. It implements domain.WeatherProvider and
// domain.Geocoder.
type Client struct {
	httpClient  *http.Client
	forecastURL string
	geocodeURL  string
	logger      *zap.Logger
}

var (
	_ domain.WeatherProvider = (*Client)(nil)
	_ domain.Geocoder        = (*Client)(nil)
)

// NewClient creates a Client. Empty URLs select the public endpoints and a
// non-positive timeout selects DefaultTimeout.
func NewClient(forecastURL, geocodeURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if forecastURL == "" {
		forecastURL = DefaultForecastURL
	}
	if geocodeURL == "" {
		geocodeURL = DefaultGeocodeURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		forecastURL: forecastURL,
		geocodeURL:  geocodeURL,
		logger:      logger.Named("openmeteo"),
	}
}

type forecastResponse struct {
	Hourly struct {
		Time          []string   `json:"time"`
		Temperature   []*float64 `json:"temperature_2m"`
		CloudCover    []*float64 `json:"cloud_cover"`
		WindSpeed     []*float64 `json:"wind_speed_10m"`
		WindDirection []*float64 `json:"wind_direction_10m"`
		IsDay         []*float64 `json:"is_day"`
		WeatherCode   []*float64 `json:"weather_code"`
	} `json:"hourly"`
}

// Forecast returns the hourly sample closest to at, fetched for at's UTC date.
func (c *Client) Forecast(ctx context.Context, latitude, longitude float64, at time.Time) (*domain.WeatherSnapshot, error) {
	at = at.UTC()
	day := at.Format(time.DateOnly)
	params := url.Values{
		"latitude":   {strconv.FormatFloat(latitude, 'f', -1, 64)},
		"longitude":  {strconv.FormatFloat(longitude, 'f', -1, 64)},
		"hourly":     {strings.Join(hourlyFields, ",")},
		"start_date": {day},
		"end_date":   {day},
		"timezone":   {"UTC"},
	}

	var data forecastResponse
	if err := c.get(ctx, c.forecastURL, params, "Weather", &data); err != nil {
		return nil, err
	}

	h := data.Hourly
	if len(h.Time) == 0 {
		return nil, fmt.Errorf("No hourly data returned")
	}

	best, bestDiff := 0, time.Duration(math.MaxInt64)
	for i, raw := range h.Time {
		t, err := tz.ParseServerTime(raw)
		if err != nil {
			continue
		}
		diff := t.Sub(at).Abs()
		if diff < bestDiff {
			best, bestDiff = i, diff
		}
	}

	snap := &domain.WeatherSnapshot{
		Description:   "forecast",
		Temperature:   pick(h.Temperature, best),
		CloudCover:    pick(h.CloudCover, best),
		WindSpeed:     pick(h.WindSpeed, best),
		WindDirection: pick(h.WindDirection, best),
	}
	if v := pick(h.IsDay, best); v != nil {
		isDay := *v != 0
		snap.IsDay = &isDay
	}
	if v := pick(h.WeatherCode, best); v != nil {
		code := int(*v)
		snap.WeatherCode = &code
	}
	return snap, nil
}

func pick(values []*float64, i int) *float64 {
	if i >= len(values) {
		return nil
	}
	return values[i]
}

type geocodeResponse struct {
	Results []struct {
		Name      string  `json:"name"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
		Country   string  `json:"country"`
		Timezone  string  `json:"timezone"`
	} `json:"results"`
}

// Geocode returns the first match for name.
func (c *Client) Geocode(ctx context.Context, name string) (*domain.GeocodeResult, error) {
	params := url.Values{
		"name":     {name},
		"count":    {"1"},
		"language": {"en"},
		"format":   {"json"},
	}

	var data geocodeResponse
	if err := c.get(ctx, c.geocodeURL, params, "Geocoding", &data); err != nil {
		return nil, err
	}
	if len(data.Results) == 0 {
		return nil, domain.ErrNoPlace
	}

	r := data.Results[0]
	res := &domain.GeocodeResult{
		Name:      r.Name,
		Latitude:  r.Latitude,
		Longitude: r.Longitude,
		Country:   r.Country,
		Timezone:  r.Timezone,
	}
	if res.Name == "" {
		res.Name = name
	}
	return res, nil
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values, api string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call %s API: %w", strings.ToLower(api), err)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("Open-Meteo returned error",
			zap.String("api", api),
			zap.Int("status", resp.StatusCode))
		return fmt.Errorf("%s API error: %d %s", api, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
