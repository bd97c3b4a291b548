package app

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"astroplanner/internal/domain"
)

// VisibilityService answers "what can I see from here at that time".
type VisibilityService struct {
	locations domain.LocationRepository
	sky       domain.SkyProvider
	logger    *zap.Logger
}

// NewVisibilityService creates a VisibilityService.
func NewVisibilityService(locations domain.LocationRepository, sky domain.SkyProvider, logger *zap.Logger) *VisibilityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VisibilityService{locations: locations, sky: sky, logger: logger.Named("visibility")}
}

// Visible evaluates every target for a location at a local wall time and
// returns them visible first, best score first. zone falls back to the
// location's own zone.
func (s *VisibilityService) Visible(ctx context.Context, userID, locationID int64, whenLocal, zone string) ([]domain.VisibleTarget, error) {
	loc, err := s.locations.GetLocation(ctx, userID, locationID)
	if err != nil {
		return nil, err
	}
	if loc == nil {
		return nil, ErrLocationNotFound
	}
	if strings.TrimSpace(whenLocal) == "" {
		return nil, domain.Invalid("Provide when_local")
	}
	at, err := parseWallTime(whenLocal, zone, loc.Timezone, "Invalid when_local format")
	if err != nil {
		return nil, err
	}

	targets, err := s.sky.Targets(ctx, loc.Latitude, loc.Longitude, at)
	if err != nil {
		s.logger.Warn("Sky provider failed",
			zap.Int64("location_id", loc.ID),
			zap.Error(err))
		return nil, &UpstreamError{Service: "sky", Err: err}
	}
	domain.RankTargets(targets)
	return targets, nil
}

// ForecastService looks up the weather for a session's place and time.
type ForecastService struct {
	sessions  domain.SessionRepository
	locations domain.LocationRepository
	weather   domain.WeatherProvider
	logger    *zap.Logger
}

// NewForecastService creates a ForecastService.
func NewForecastService(sessions domain.SessionRepository, locations domain.LocationRepository, weather domain.WeatherProvider, logger *zap.Logger) *ForecastService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ForecastService{sessions: sessions, locations: locations, weather: weather, logger: logger.Named("forecast")}
}

// SessionWeather returns the forecast nearest to the session's start.
func (s *ForecastService) SessionWeather(ctx context.Context, userID, sessionID int64) (*domain.WeatherSnapshot, error) {
	sess, err := s.sessions.GetSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrSessionNotFound
	}
	loc, err := s.locations.GetLocation(ctx, userID, sess.LocationID)
	if err != nil {
		return nil, err
	}
	if loc == nil {
		return nil, domain.Invalid("Session has no location")
	}

	snap, err := s.weather.Forecast(ctx, loc.Latitude, loc.Longitude, sess.ScheduledStart)
	if err != nil {
		s.logger.Warn("Weather provider failed",
			zap.Int64("session_id", sess.ID),
			zap.Error(err))
		return nil, &UpstreamError{Service: "weather", Err: err}
	}
	return snap, nil
}

// GeocodeService resolves place names.
type GeocodeService struct {
	geocoder domain.Geocoder
}

// NewGeocodeService creates a GeocodeService.
func NewGeocodeService(geocoder domain.Geocoder) *GeocodeService {
	return &GeocodeService{geocoder: geocoder}
}

// Lookup returns the best match for query.
func (s *GeocodeService) Lookup(ctx context.Context, query string) (*domain.GeocodeResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.Invalid("q is required")
	}
	res, err := s.geocoder.Geocode(ctx, query)
	if errors.Is(err, domain.ErrNoPlace) || (err == nil && res == nil) {
		return nil, domain.Invalid("No results found for this place name")
	}
	if err != nil {
		return nil, domain.Invalid(err.Error())
	}
	return res, nil
}
