package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	adapthttp "astroplanner/internal/adapter/http"
	"astroplanner/internal/adapter/ics"
	"astroplanner/internal/adapter/memory"
	"astroplanner/internal/app"
	"astroplanner/internal/domain"
)

type fixedSky struct{}

func (fixedSky) Targets(context.Context, float64, float64, time.Time) ([]domain.VisibleTarget, error) {
	return []domain.VisibleTarget{
		{Name: "Saturn", Kind: domain.KindPlanet, AltitudeDeg: 30, Visible: true, Score: 70},
		{Name: "Jupiter", Kind: domain.KindPlanet, AltitudeDeg: 20, Visible: true, Score: 40},
		{Name: "Mars", Kind: domain.KindPlanet, AltitudeDeg: -8, Reason: "Below horizon"},
	}, nil
}

type fixedWeather struct{}

func (fixedWeather) Forecast(context.Context, float64, float64, time.Time) (*domain.WeatherSnapshot, error) {
	temp, dir := 18.0, 225.0
	return &domain.WeatherSnapshot{Description: "forecast", Temperature: &temp, WindDirection: &dir}, nil
}

func (fixedWeather) Geocode(_ context.Context, q string) (*domain.GeocodeResult, error) {
	return &domain.GeocodeResult{Name: q, Country: "Canada", Latitude: 43.65, Longitude: -79.38, Timezone: "America/Toronto"}, nil
}

type harness struct {
	t   *testing.T
	url string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := memory.New()
	svc := adapthttp.Services{
		Auth:       app.NewAuthService(db, db.NewTokenRepo(), "test-secret", time.Hour, nil),
		Locations:  app.NewLocationService(db),
		Sessions:   app.NewSessionService(db, db),
		Logs:       app.NewLogService(db, db),
		Visibility: app.NewVisibilityService(db, fixedSky{}, nil),
		Forecast:   app.NewForecastService(db, db, fixedWeather{}, nil),
		Calendar:   app.NewCalendarService(db, db, ics.Encoder{}),
		Geocode:    app.NewGeocodeService(fixedWeather{}),
	}
	srv := httptest.NewServer(adapthttp.New(svc, nil).Handler())
	t.Cleanup(srv.Close)

	t.Setenv("ASTRO_TOKEN_FILE", filepath.Join(t.TempDir(), "token"))
	t.Setenv("ASTRO_TOKEN", "")
	t.Setenv("ASTRO_TZ", "UTC")
	t.Setenv("ASTRO_CONFIG", "")
	return &harness{t: t, url: srv.URL}
}

func (h *harness) run(args ...string) (string, error) {
	var out bytes.Buffer
	full := append([]string{"astroplanner", "--api-url", h.url}, args...)
	err := newRoot(&out).Run(context.Background(), full)
	return out.String(), err
}

func (h *harness) mustRun(args ...string) string {
	h.t.Helper()
	out, err := h.run(args...)
	require.NoError(h.t, err, "astroplanner %s", strings.Join(args, " "))
	return out
}

func (h *harness) loggedIn() {
	h.t.Helper()
	h.mustRun("register", "--email", "astro@example.com", "--password", "pw")
	out := h.mustRun("login", "--email", "astro@example.com", "--password", "pw")
	assert.Contains(h.t, out, "logged in as astro@example.com")
}

func TestCLI_PlanSessionEndToEnd(t *testing.T) {
	h := newHarness(t)
	h.loggedIn()

	out := h.mustRun("-o", "json", "locations", "add", "--place", "Toronto")
	var locs []domain.Location
	require.NoError(t, json.Unmarshal([]byte(out), &locs))
	require.Len(t, locs, 1)
	assert.Equal(t, "Toronto, Canada", locs[0].Name)
	assert.Equal(t, "America/Toronto", locs[0].Timezone)
	locID := id(locs[0].ID)

	out = h.mustRun("targets", "-l", locID, "--at", "2024-06-01T23:00")
	assert.Contains(t, out, "Below horizon")

	_, err := h.run("plan", "-l", locID, "--at", "2024-06-01T23:00", "--target", "Mars")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Mars is not visible at that time")
	assert.Contains(t, err.Error(), "visible: Saturn, Jupiter")

	out = h.mustRun("-o", "json", "plan", "-l", locID, "--at", "2024-06-01T23:00")
	var planned []domain.Session
	require.NoError(t, json.Unmarshal([]byte(out), &planned))
	require.Len(t, planned, 1)
	assert.Equal(t, "Saturn", planned[0].TargetName, "the first visible target is the default")
	assert.Equal(t, time.Date(2024, 6, 2, 3, 0, 0, 0, time.UTC), planned[0].ScheduledStart.UTC())
	sid := id(planned[0].ID)

	out = h.mustRun("sessions", "list")
	assert.Contains(t, out, "Jun 01, 2024 11:00 PM EDT", "start shown in the location's zone")

	out = h.mustRun("edit", sid, "--custom", "ISS pass", "--status", "completed")
	assert.Contains(t, out, "ISS pass")
	assert.Contains(t, out, "completed")

	out = h.mustRun("weather", sid)
	assert.Contains(t, out, "18.0 °C")
	assert.Contains(t, out, "SW")

	h.mustRun("logs", "add", sid, "--notes", "steady air", "--rating", "4")
	_, err = h.run("logs", "add", sid, "--notes", "bad", "--rating", "9")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rating must be an integer from 1 to 5")

	out = h.mustRun("-o", "yaml", "logs", "list", sid)
	var logs []map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &logs))
	require.Len(t, logs, 1)
	assert.Equal(t, "steady air", logs[0]["notes"])

	out = h.mustRun("sessions", "stats", "-l", locID)
	assert.Contains(t, out, "completed  1")

	out = h.mustRun("export", "--status", "all")
	assert.Contains(t, out, "BEGIN:VCALENDAR")
	assert.Contains(t, out, "Observe: ISS pass")

	h.mustRun("locations", "rm", locID)
	out = h.mustRun("sessions", "list")
	assert.Contains(t, out, "no results")
}

func TestCLI_LogoutForgetsToken(t *testing.T) {
	h := newHarness(t)
	h.loggedIn()

	path := os.Getenv("ASTRO_TOKEN_FILE")
	_, err := os.Stat(path)
	require.NoError(t, err)

	out := h.mustRun("whoami")
	assert.Contains(t, out, "astro@example.com")

	h.mustRun("logout")
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	_, err = h.run("whoami")
	var apiErr *domain.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 401, apiErr.StatusCode)
}

func TestCLI_RejectsUnknownOutputFormat(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("-o", "xml", "locations", "list")
	assert.ErrorContains(t, err, `unknown output format "xml"`)
}
