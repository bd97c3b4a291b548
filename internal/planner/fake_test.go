package planner

import (
	"context"
	"slices"
	"sync"
	"time"

	"astroplanner/internal/domain"
	"astroplanner/internal/tz"
)

// fakeAPI is an in-memory server. Function fields override individual calls.
type fakeAPI struct {
	mu        sync.Mutex
	nextID    int64
	locations []domain.Location
	sessions  []domain.Session
	logs      map[int64][]domain.ObservationLog
	calls     map[string]int

	lastSessionInput domain.SessionInput
	lastPatch        domain.SessionPatch

	visibleFn       func(locationID int64, whenLocal, zone string) ([]domain.VisibleTarget, error)
	weatherFn       func(sessionID int64, zone string) (*domain.WeatherSnapshot, error)
	createSessionFn func(in domain.SessionInput) (*domain.Session, error)
	listLocationsFn func() ([]domain.Location, error)
	listLogsFn      func(sessionID int64) ([]domain.ObservationLog, error)
}

var _ API = (*fakeAPI)(nil)

func newFakeAPI() *fakeAPI {
	return &fakeAPI{nextID: 100, logs: map[int64][]domain.ObservationLog{}, calls: map[string]int{}}
}

func (f *fakeAPI) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeAPI) hit(name string) {
	f.mu.Lock()
	f.calls[name]++
	f.mu.Unlock()
}

func (f *fakeAPI) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *fakeAPI) ListLocations(context.Context) ([]domain.Location, error) {
	f.hit("ListLocations")
	if f.listLocationsFn != nil {
		return f.listLocationsFn()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.locations), nil
}

func (f *fakeAPI) CreateLocation(_ context.Context, in domain.LocationInput) (*domain.Location, error) {
	f.hit("CreateLocation")
	f.mu.Lock()
	defer f.mu.Unlock()
	loc := domain.Location{ID: f.id(), Name: in.Name, Latitude: in.Latitude, Longitude: in.Longitude, Timezone: in.Timezone, Notes: in.Notes}
	f.locations = append(f.locations, loc)
	return &loc, nil
}

func (f *fakeAPI) UpdateLocation(_ context.Context, id int64, in domain.LocationInput) (*domain.Location, error) {
	f.hit("UpdateLocation")
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.locations {
		if f.locations[i].ID == id {
			f.locations[i] = domain.Location{ID: id, Name: in.Name, Latitude: in.Latitude, Longitude: in.Longitude, Timezone: in.Timezone, Notes: in.Notes}
			loc := f.locations[i]
			return &loc, nil
		}
	}
	return nil, &domain.APIError{StatusCode: 404, Detail: "Location not found"}
}

func (f *fakeAPI) DeleteLocation(_ context.Context, id int64) error {
	f.hit("DeleteLocation")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.locations = slices.DeleteFunc(f.locations, func(l domain.Location) bool { return l.ID == id })
	f.sessions = slices.DeleteFunc(f.sessions, func(s domain.Session) bool { return s.LocationID == id })
	return nil
}

func (f *fakeAPI) ListSessions(context.Context) ([]domain.Session, error) {
	f.hit("ListSessions")
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.sessions), nil
}

func (f *fakeAPI) CreateSession(_ context.Context, in domain.SessionInput) (*domain.Session, error) {
	f.hit("CreateSession")
	f.mu.Lock()
	f.lastSessionInput = in
	f.mu.Unlock()
	if f.createSessionFn != nil {
		return f.createSessionFn(in)
	}
	start, err := tz.ParseLocal(in.ScheduledStartLocal, in.Timezone)
	if err != nil {
		return nil, &domain.APIError{StatusCode: 400, Detail: err.Error()}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	s := domain.Session{ID: f.id(), TargetName: in.TargetName, ScheduledStart: start, LocationID: in.LocationID, Status: in.Status}
	f.sessions = append(f.sessions, s)
	return &s, nil
}

func (f *fakeAPI) UpdateSession(_ context.Context, id int64, patch domain.SessionPatch) (*domain.Session, error) {
	f.hit("UpdateSession")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastPatch = patch
	for i := range f.sessions {
		if f.sessions[i].ID != id {
			continue
		}
		s := &f.sessions[i]
		if patch.TargetName != nil {
			s.TargetName = *patch.TargetName
		}
		if patch.ScheduledStartLocal != nil && patch.Timezone != nil {
			start, err := tz.ParseLocal(*patch.ScheduledStartLocal, *patch.Timezone)
			if err != nil {
				return nil, &domain.APIError{StatusCode: 400, Detail: err.Error()}
			}
			s.ScheduledStart = start
		}
		if patch.Status != nil {
			s.Status = *patch.Status
		}
		out := *s
		return &out, nil
	}
	return nil, &domain.APIError{StatusCode: 404, Detail: "Session not found"}
}

func (f *fakeAPI) DeleteSession(_ context.Context, id int64) error {
	f.hit("DeleteSession")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions = slices.DeleteFunc(f.sessions, func(s domain.Session) bool { return s.ID == id })
	delete(f.logs, id)
	return nil
}

func (f *fakeAPI) ListLogs(_ context.Context, sessionID int64) ([]domain.ObservationLog, error) {
	f.hit("ListLogs")
	if f.listLogsFn != nil {
		return f.listLogsFn(sessionID)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.logs[sessionID]), nil
}

func (f *fakeAPI) CreateLog(_ context.Context, sessionID int64, in domain.LogInput) (*domain.ObservationLog, error) {
	f.hit("CreateLog")
	f.mu.Lock()
	defer f.mu.Unlock()
	l := domain.ObservationLog{ID: f.id(), SessionID: sessionID, Notes: in.Notes, Seeing: in.Seeing, Transparency: in.Transparency, Rating: in.Rating, CreatedAt: time.Now().UTC()}
	f.logs[sessionID] = append([]domain.ObservationLog{l}, f.logs[sessionID]...)
	return &l, nil
}

func (f *fakeAPI) UpdateLog(_ context.Context, sessionID, logID int64, in domain.LogInput) (*domain.ObservationLog, error) {
	f.hit("UpdateLog")
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, l := range f.logs[sessionID] {
		if l.ID == logID {
			l.Notes, l.Seeing, l.Transparency, l.Rating = in.Notes, in.Seeing, in.Transparency, in.Rating
			f.logs[sessionID][i] = l
			return &l, nil
		}
	}
	return nil, &domain.APIError{StatusCode: 404, Detail: "Log not found"}
}

func (f *fakeAPI) DeleteLog(_ context.Context, sessionID, logID int64) error {
	f.hit("DeleteLog")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logs[sessionID] = slices.DeleteFunc(f.logs[sessionID], func(l domain.ObservationLog) bool { return l.ID == logID })
	return nil
}

func (f *fakeAPI) SessionWeather(_ context.Context, sessionID int64, zone string) (*domain.WeatherSnapshot, error) {
	f.hit("SessionWeather")
	if f.weatherFn != nil {
		return f.weatherFn(sessionID, zone)
	}
	return &domain.WeatherSnapshot{Description: "forecast"}, nil
}

func (f *fakeAPI) VisibleTargets(_ context.Context, locationID int64, whenLocal, zone string) ([]domain.VisibleTarget, error) {
	f.hit("VisibleTargets")
	if f.visibleFn != nil {
		return f.visibleFn(locationID, whenLocal, zone)
	}
	return nil, nil
}

func (f *fakeAPI) logsSnapshot(sessionID int64) []domain.ObservationLog {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.logs[sessionID])
}

func visible(name string) domain.VisibleTarget {
	return domain.VisibleTarget{Name: name, Kind: domain.KindPlanet, AltitudeDeg: 30, Visible: true, Score: 50}
}

func hidden(name, reason string) domain.VisibleTarget {
	return domain.VisibleTarget{Name: name, Kind: domain.KindPlanet, AltitudeDeg: -5, Visible: false, Reason: reason}
}
