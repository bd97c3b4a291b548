package planner

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"astroplanner/internal/domain"
)

// Store is the client's authoritative copy of locations, sessions and logs.
// It only changes after the server confirms a write, and it replaces whole
// records with the server's canonical version. Reads return copies.
type Store struct {
	api StoreAPI

	mu        sync.RWMutex
	locations []domain.Location
	sessions  []domain.Session
	logs      map[int64][]domain.ObservationLog
}

// NewStore creates an empty store writing through to api.
func NewStore(api StoreAPI) *Store {
	return &Store{api: api, logs: map[int64][]domain.ObservationLog{}}
}

// Load replaces locations and sessions with the server's lists. Nothing
// changes unless both requests succeed.
func (s *Store) Load(ctx context.Context) error {
	locs, err := s.api.ListLocations(ctx)
	if err != nil {
		return fmt.Errorf("list locations: %w", err)
	}
	sessions, err := s.api.ListSessions(ctx)
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.locations = slices.Clone(locs)
	s.sessions = slices.Clone(sessions)
	known := make(map[int64]bool, len(sessions))
	for _, sess := range sessions {
		known[sess.ID] = true
	}
	for id := range s.logs {
		if !known[id] {
			delete(s.logs, id)
		}
	}
	return nil
}

// Locations returns a snapshot of all locations.
func (s *Store) Locations() []domain.Location {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.locations)
}

// Location looks up one location.
func (s *Store) Location(id int64) (domain.Location, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.locationIndex(id)
	if i < 0 {
		return domain.Location{}, false
	}
	return s.locations[i], true
}

// Sessions returns a snapshot of all sessions.
func (s *Store) Sessions() []domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.sessions)
}

// SessionsAt returns the sessions planned at one location.
func (s *Store) SessionsAt(locationID int64) []domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Session
	for _, sess := range s.sessions {
		if sess.LocationID == locationID {
			out = append(out, sess)
		}
	}
	return out
}

// Session looks up one session.
func (s *Store) Session(id int64) (domain.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.sessionIndex(id)
	if i < 0 {
		return domain.Session{}, false
	}
	return s.sessions[i], true
}

// Logs returns the logs held for a session, newest first.
func (s *Store) Logs(sessionID int64) []domain.ObservationLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.logs[sessionID])
}

// CreateLocation creates a location on the server and appends the result.
func (s *Store) CreateLocation(ctx context.Context, in domain.LocationInput) (*domain.Location, error) {
	loc, err := s.api.CreateLocation(ctx, in)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.locationIndex(loc.ID); i >= 0 {
		s.locations[i] = *loc
	} else {
		s.locations = append(s.locations, *loc)
	}
	out := *loc
	return &out, nil
}

// UpdateLocation replaces a location with the server's canonical record.
func (s *Store) UpdateLocation(ctx context.Context, id int64, in domain.LocationInput) (*domain.Location, error) {
	loc, err := s.api.UpdateLocation(ctx, id, in)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.locationIndex(loc.ID); i >= 0 {
		s.locations[i] = *loc
	} else {
		s.locations = append(s.locations, *loc)
	}
	out := *loc
	return &out, nil
}

// DeleteLocation deletes a location and, in the same update, every session
// at it and their logs. It returns the ids of the removed sessions.
func (s *Store) DeleteLocation(ctx context.Context, id int64) ([]int64, error) {
	if err := s.api.DeleteLocation(ctx, id); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locations = slices.DeleteFunc(s.locations, func(l domain.Location) bool { return l.ID == id })

	var removed []int64
	s.sessions = slices.DeleteFunc(s.sessions, func(sess domain.Session) bool {
		if sess.LocationID != id {
			return false
		}
		removed = append(removed, sess.ID)
		delete(s.logs, sess.ID)
		return true
	})
	return removed, nil
}

// CreateSession creates a session on the server and appends the result.
func (s *Store) CreateSession(ctx context.Context, in domain.SessionInput) (*domain.Session, error) {
	sess, err := s.api.CreateSession(ctx, in)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.putSessionLocked(*sess)
	out := *sess
	return &out, nil
}

// UpdateSession patches a session and replaces it with the server's record.
func (s *Store) UpdateSession(ctx context.Context, id int64, patch domain.SessionPatch) (*domain.Session, error) {
	sess, err := s.api.UpdateSession(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.putSessionLocked(*sess)
	out := *sess
	return &out, nil
}

// DeleteSession deletes a session and its logs.
func (s *Store) DeleteSession(ctx context.Context, id int64) error {
	if err := s.api.DeleteSession(ctx, id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = slices.DeleteFunc(s.sessions, func(sess domain.Session) bool { return sess.ID == id })
	delete(s.logs, id)
	return nil
}

// ReplaceLogs installs a freshly fetched log list. Logs for a session the
// store no longer holds are dropped.
func (s *Store) ReplaceLogs(sessionID int64, logs []domain.ObservationLog) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sessionIndex(sessionID) < 0 {
		return
	}
	s.logs[sessionID] = slices.Clone(logs)
}

// CreateLog creates a log and puts it first.
func (s *Store) CreateLog(ctx context.Context, sessionID int64, in domain.LogInput) (*domain.ObservationLog, error) {
	l, err := s.api.CreateLog(ctx, sessionID, in)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sessionIndex(sessionID) >= 0 {
		s.logs[sessionID] = append([]domain.ObservationLog{*l}, s.logs[sessionID]...)
	}
	out := *l
	return &out, nil
}

// UpdateLog replaces a log with the server's record.
func (s *Store) UpdateLog(ctx context.Context, sessionID, logID int64, in domain.LogInput) (*domain.ObservationLog, error) {
	l, err := s.api.UpdateLog(ctx, sessionID, logID, in)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	logs := s.logs[sessionID]
	for i := range logs {
		if logs[i].ID == l.ID {
			logs[i] = *l
		}
	}
	out := *l
	return &out, nil
}

// DeleteLog removes one log.
func (s *Store) DeleteLog(ctx context.Context, sessionID, logID int64) error {
	if err := s.api.DeleteLog(ctx, sessionID, logID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if logs, ok := s.logs[sessionID]; ok {
		s.logs[sessionID] = slices.DeleteFunc(logs, func(l domain.ObservationLog) bool { return l.ID == logID })
	}
	return nil
}

func (s *Store) putSessionLocked(sess domain.Session) {
	if i := s.sessionIndex(sess.ID); i >= 0 {
		s.sessions[i] = sess
		return
	}
	s.sessions = append(s.sessions, sess)
}

func (s *Store) locationIndex(id int64) int {
	return slices.IndexFunc(s.locations, func(l domain.Location) bool { return l.ID == id })
}

func (s *Store) sessionIndex(id int64) int {
	return slices.IndexFunc(s.sessions, func(sess domain.Session) bool { return sess.ID == id })
}
