package planner

import (
	"context"

	"go.uber.org/zap"

	"astroplanner/internal/domain"
	"astroplanner/internal/fetch"
)

// SessionKey identifies the selected session together with the inputs its
// weather depends on, so a rescheduled session refetches.
type SessionKey struct {
	SessionID int64
	// Start is the scheduled start in Unix nanoseconds; time.Time does not
	// compare reliably with ==.
	Start    int64
	Timezone string
}

// Complete reports whether a session is selected.
func (k SessionKey) Complete() bool { return k.SessionID != 0 }

func keyForSession(s domain.Session, zone string) SessionKey {
	return SessionKey{SessionID: s.ID, Start: s.ScheduledStart.UnixNano(), Timezone: zone}
}

// WeatherResolver holds the forecast for the selected session.
type WeatherResolver struct {
	c *fetch.Coordinator[SessionKey, *domain.WeatherSnapshot]
}

// NewWeatherResolver wires a resolver to the weather API.
func NewWeatherResolver(api WeatherAPI, errs *ErrorSlot, logger *zap.Logger) *WeatherResolver {
	load := func(ctx context.Context, k SessionKey) (*domain.WeatherSnapshot, error) {
		return api.SessionWeather(ctx, k.SessionID, k.Timezone)
	}
	settle := func(_ SessionKey, _ *domain.WeatherSnapshot, err error) {
		if err != nil {
			errs.Fail("Failed to load weather for this session", err)
		}
	}
	return &WeatherResolver{
		c: fetch.New(load, fetch.Options[SessionKey, *domain.WeatherSnapshot]{
			Complete: SessionKey.Complete,
			OnSettle: settle,
			Logger:   logger,
			Name:     "weather",
		}),
	}
}

// Set moves the resolver to k.
func (r *WeatherResolver) Set(k SessionKey) bool { return r.c.Set(k) }

// Refresh refetches for the current key.
func (r *WeatherResolver) Refresh() { r.c.Refresh() }

// Snapshot returns the forecast, or nil while loading or after a failure.
func (r *WeatherResolver) Snapshot() (*domain.WeatherSnapshot, bool) {
	st := r.c.State()
	return st.Result, st.Loading
}

// Key returns the session key the resolver currently tracks.
func (r *WeatherResolver) Key() SessionKey {
	k, _ := r.c.Key()
	return k
}

// Wait blocks until in-flight forecast fetches have finished.
func (r *WeatherResolver) Wait() { r.c.Wait() }

// Close drops in-flight forecasts and ignores later keys.
func (r *WeatherResolver) Close() { r.c.Close() }

// logsResolver fetches the logs of the selected session into the store.
type logsResolver struct {
	c *fetch.Coordinator[SessionKey, []domain.ObservationLog]
}

func newLogsResolver(api LogAPI, store *Store, errs *ErrorSlot, logger *zap.Logger) *logsResolver {
	load := func(ctx context.Context, k SessionKey) ([]domain.ObservationLog, error) {
		return api.ListLogs(ctx, k.SessionID)
	}
	settle := func(k SessionKey, logs []domain.ObservationLog, err error) {
		if err != nil {
			errs.Fail("Failed to load logs for this session", err)
			return
		}
		if k.Complete() {
			store.ReplaceLogs(k.SessionID, logs)
		}
	}
	return &logsResolver{
		c: fetch.New(load, fetch.Options[SessionKey, []domain.ObservationLog]{
			Complete: SessionKey.Complete,
			OnSettle: settle,
			Logger:   logger,
			Name:     "logs",
		}),
	}
}
