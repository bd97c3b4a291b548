package app

import (
	"context"
	"time"

	"astroplanner/internal/domain"
)

type mockUserRepo struct {
	getByEmailFn func(ctx context.Context, email string) (*domain.User, error)
	getByIDFn    func(ctx context.Context, id int64) (*domain.User, error)
	createFn     func(ctx context.Context, email, passwordHash string) (*domain.User, error)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if m.getByEmailFn != nil {
		return m.getByEmailFn(ctx, email)
	}
	return nil, nil
}

func (m *mockUserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockUserRepo) Create(ctx context.Context, email, passwordHash string) (*domain.User, error) {
	if m.createFn != nil {
		return m.createFn(ctx, email, passwordHash)
	}
	return &domain.User{ID: 1, Email: email, PasswordHash: passwordHash}, nil
}

// memTokens is a working token repository; the auth tests need round trips.
type memTokens struct {
	byID map[string]domain.AccessToken
}

func newMemTokens() *memTokens { return &memTokens{byID: map[string]domain.AccessToken{}} }

func (m *memTokens) Create(_ context.Context, t domain.AccessToken) error {
	m.byID[t.ID] = t
	return nil
}

func (m *memTokens) Get(_ context.Context, id string) (*domain.AccessToken, error) {
	t, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (m *memTokens) Delete(_ context.Context, id string) error {
	delete(m.byID, id)
	return nil
}

func (m *memTokens) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	var n int64
	for id, t := range m.byID {
		if !now.Before(t.ExpiresAt) {
			delete(m.byID, id)
			n++
		}
	}
	return n, nil
}

type mockLocationRepo struct {
	listFn   func(ctx context.Context, userID int64) ([]domain.Location, error)
	getFn    func(ctx context.Context, userID, id int64) (*domain.Location, error)
	createFn func(ctx context.Context, userID int64, in domain.LocationInput) (*domain.Location, error)
	updateFn func(ctx context.Context, userID, id int64, in domain.LocationInput) (*domain.Location, error)
	deleteFn func(ctx context.Context, userID, id int64) (bool, error)
}

func (m *mockLocationRepo) ListLocations(ctx context.Context, userID int64) ([]domain.Location, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockLocationRepo) GetLocation(ctx context.Context, userID, id int64) (*domain.Location, error) {
	if m.getFn != nil {
		return m.getFn(ctx, userID, id)
	}
	return nil, nil
}

func (m *mockLocationRepo) CreateLocation(ctx context.Context, userID int64, in domain.LocationInput) (*domain.Location, error) {
	if m.createFn != nil {
		return m.createFn(ctx, userID, in)
	}
	return &domain.Location{ID: 1, Name: in.Name, Latitude: in.Latitude, Longitude: in.Longitude, Timezone: in.Timezone}, nil
}

func (m *mockLocationRepo) UpdateLocation(ctx context.Context, userID, id int64, in domain.LocationInput) (*domain.Location, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, userID, id, in)
	}
	return nil, nil
}

func (m *mockLocationRepo) DeleteLocation(ctx context.Context, userID, id int64) (bool, error) {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, userID, id)
	}
	return false, nil
}

type mockSessionRepo struct {
	listFn   func(ctx context.Context, userID int64, f domain.SessionFilter) ([]domain.Session, error)
	getFn    func(ctx context.Context, userID, id int64) (*domain.Session, error)
	createFn func(ctx context.Context, userID int64, s domain.Session) (*domain.Session, error)
	updateFn func(ctx context.Context, userID int64, s domain.Session) (*domain.Session, error)
	deleteFn func(ctx context.Context, userID, id int64) (bool, error)
}

func (m *mockSessionRepo) ListSessions(ctx context.Context, userID int64, f domain.SessionFilter) ([]domain.Session, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID, f)
	}
	return nil, nil
}

func (m *mockSessionRepo) GetSession(ctx context.Context, userID, id int64) (*domain.Session, error) {
	if m.getFn != nil {
		return m.getFn(ctx, userID, id)
	}
	return nil, nil
}

func (m *mockSessionRepo) CreateSession(ctx context.Context, userID int64, s domain.Session) (*domain.Session, error) {
	if m.createFn != nil {
		return m.createFn(ctx, userID, s)
	}
	s.ID = 1
	return &s, nil
}

func (m *mockSessionRepo) UpdateSession(ctx context.Context, userID int64, s domain.Session) (*domain.Session, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, userID, s)
	}
	return &s, nil
}

func (m *mockSessionRepo) DeleteSession(ctx context.Context, userID, id int64) (bool, error) {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, userID, id)
	}
	return false, nil
}

type mockLogRepo struct {
	listFn   func(ctx context.Context, sessionID int64) ([]domain.ObservationLog, error)
	createFn func(ctx context.Context, sessionID int64, in domain.LogInput) (*domain.ObservationLog, error)
	updateFn func(ctx context.Context, sessionID, id int64, in domain.LogInput) (*domain.ObservationLog, error)
	deleteFn func(ctx context.Context, sessionID, id int64) (bool, error)
}

func (m *mockLogRepo) ListLogs(ctx context.Context, sessionID int64) ([]domain.ObservationLog, error) {
	if m.listFn != nil {
		return m.listFn(ctx, sessionID)
	}
	return nil, nil
}

func (m *mockLogRepo) CreateLog(ctx context.Context, sessionID int64, in domain.LogInput) (*domain.ObservationLog, error) {
	if m.createFn != nil {
		return m.createFn(ctx, sessionID, in)
	}
	return &domain.ObservationLog{ID: 1, SessionID: sessionID, Notes: in.Notes, Rating: in.Rating}, nil
}

func (m *mockLogRepo) UpdateLog(ctx context.Context, sessionID, id int64, in domain.LogInput) (*domain.ObservationLog, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, sessionID, id, in)
	}
	return nil, nil
}

func (m *mockLogRepo) DeleteLog(ctx context.Context, sessionID, id int64) (bool, error) {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, sessionID, id)
	}
	return false, nil
}

type skyFunc func(ctx context.Context, lat, lon float64, at time.Time) ([]domain.VisibleTarget, error)

func (f skyFunc) Targets(ctx context.Context, lat, lon float64, at time.Time) ([]domain.VisibleTarget, error) {
	return f(ctx, lat, lon, at)
}

type weatherFunc func(ctx context.Context, lat, lon float64, at time.Time) (*domain.WeatherSnapshot, error)

func (f weatherFunc) Forecast(ctx context.Context, lat, lon float64, at time.Time) (*domain.WeatherSnapshot, error) {
	return f(ctx, lat, lon, at)
}

type geocodeFunc func(ctx context.Context, q string) (*domain.GeocodeResult, error)

func (f geocodeFunc) Geocode(ctx context.Context, q string) (*domain.GeocodeResult, error) {
	return f(ctx, q)
}

type captureEncoder struct {
	entries  []domain.CalendarEntry
	duration time.Duration
}

func (c *captureEncoder) Encode(entries []domain.CalendarEntry, d time.Duration, _ time.Time) ([]byte, error) {
	c.entries, c.duration = entries, d
	return []byte("BEGIN:VCALENDAR"), nil
}

// ownedLocation returns a getFn that only knows one location.
func ownedLocation(loc domain.Location) func(context.Context, int64, int64) (*domain.Location, error) {
	return func(_ context.Context, _ int64, id int64) (*domain.Location, error) {
		if id != loc.ID {
			return nil, nil
		}
		l := loc
		return &l, nil
	}
}
