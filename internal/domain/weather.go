package domain

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// WeatherSnapshot is the forecast for one session's place and time.
type WeatherSnapshot struct {
	Description   string   `json:"description,omitempty"`
	Temperature   *float64 `json:"temperature,omitempty"`
	WindSpeed     *float64 `json:"wind_speed,omitempty"`
	WindDirection *float64 `json:"wind_direction,omitempty"`
	IsDay         *bool    `json:"is_day,omitempty"`
	CloudCover    *float64 `json:"cloud_cover,omitempty"`
	WeatherCode   *int     `json:"weather_code,omitempty"`
}

// Label is a short human description, falling back to the weather code.
func (w *WeatherSnapshot) Label() string {
	if w == nil {
		return "-"
	}
	if d := strings.TrimSpace(w.Description); d != "" {
		return d
	}
	if w.WeatherCode != nil {
		return fmt.Sprintf("Code %d", *w.WeatherCode)
	}
	return "-"
}

var compassPoints = [16]string{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
}

// Compass maps a bearing in degrees to a 16-point rose. It returns "" for a
// missing or NaN bearing.
func Compass(deg *float64) string {
	if deg == nil || math.IsNaN(*deg) {
		return ""
	}
	d := math.Mod(*deg, 360)
	if d < 0 {
		d += 360
	}
	idx := int(math.Round(d/22.5)) % 16
	return compassPoints[idx]
}

// WeatherProvider returns the forecast nearest to an instant.
type WeatherProvider interface {
	Forecast(ctx context.Context, latitude, longitude float64, at time.Time) (*WeatherSnapshot, error)
}

// GeocodeResult is a resolved place name.
type GeocodeResult struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Country   string  `json:"country,omitempty"`
	Timezone  string  `json:"timezone,omitempty"`
}

// DisplayName joins name and country.
func (g GeocodeResult) DisplayName() string {
	if g.Country != "" {
		return g.Name + ", " + g.Country
	}
	return g.Name
}

// ErrNoPlace is returned by a Geocoder that found nothing.
var ErrNoPlace = errors.New("no results found for this place name")

// Geocoder resolves a place name to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (*GeocodeResult, error)
}
