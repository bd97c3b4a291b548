// Package memory implements an in-memory repository for development and testing.
package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"astroplanner/internal/domain"
)

type ownedLocation struct {
	ownerID int64
	domain.Location
}

type ownedSession struct {
	ownerID int64
	domain.Session
}

// DB implements an in-memory database storage. Every method takes the one
// mutex, so cascading deletes are atomic.
type DB struct {
	mu        sync.Mutex
	users     []*domain.User
	tokens    map[string]domain.AccessToken
	locations []ownedLocation
	sessions  []ownedSession
	logs      []domain.ObservationLog

	userIDCounter     int64
	locationIDCounter int64
	sessionIDCounter  int64
	logIDCounter      int64

	now func() time.Time
}

// New creates a new in-memory database.
func New() *DB {
	return &DB{
		tokens: make(map[string]domain.AccessToken),
		now:    time.Now,
	}
}

// Ensure interfaces are met.
var _ domain.UserRepository = (*DB)(nil)
var _ domain.LocationRepository = (*DB)(nil)
var _ domain.SessionRepository = (*DB)(nil)
var _ domain.LogRepository = (*DB)(nil)
var _ domain.TokenRepository = (*TokenRepo)(nil)

// --- UserRepository ---

// GetByEmail retrieves a user by email.
func (db *DB) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if strings.EqualFold(u.Email, email) {
			c := *u
			return &c, nil
		}
	}
	// Return nil if not found
	return nil, nil
}

// GetByID retrieves a user by ID.
func (db *DB) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.ID == id {
			c := *u
			return &c, nil
		}
	}
	return nil, nil
}

// Create creates a new user.
func (db *DB) Create(ctx context.Context, email, passwordHash string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if strings.EqualFold(u.Email, email) {
			return nil, errors.New("user already exists")
		}
	}

	db.userIDCounter++
	u := &domain.User{
		ID:           db.userIDCounter,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    db.now().UTC(),
	}
	db.users = append(db.users, u)
	c := *u
	return &c, nil
}

// --- LocationRepository ---

// ListLocations lists a user's locations, newest first.
func (db *DB) ListLocations(ctx context.Context, userID int64) ([]domain.Location, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	result := []domain.Location{}
	for _, l := range db.locations {
		if l.ownerID == userID {
			result = append(result, l.Location)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID > result[j].ID
	})
	return result, nil
}

// GetLocation returns one of a user's locations.
func (db *DB) GetLocation(ctx context.Context, userID, id int64) (*domain.Location, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if i := db.locationIndex(userID, id); i >= 0 {
		l := db.locations[i].Location
		return &l, nil
	}
	return nil, nil
}

// CreateLocation adds a location.
func (db *DB) CreateLocation(ctx context.Context, userID int64, in domain.LocationInput) (*domain.Location, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.locationIDCounter++
	l := locationFromInput(db.locationIDCounter, in)
	db.locations = append(db.locations, ownedLocation{ownerID: userID, Location: l})
	return &l, nil
}

// UpdateLocation replaces a location's fields.
func (db *DB) UpdateLocation(ctx context.Context, userID, id int64, in domain.LocationInput) (*domain.Location, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	i := db.locationIndex(userID, id)
	if i < 0 {
		return nil, nil
	}
	l := locationFromInput(id, in)
	db.locations[i].Location = l
	return &l, nil
}

// DeleteLocation removes a location, its sessions and their logs.
func (db *DB) DeleteLocation(ctx context.Context, userID, id int64) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	i := db.locationIndex(userID, id)
	if i < 0 {
		return false, nil
	}
	db.locations = append(db.locations[:i], db.locations[i+1:]...)

	kept := db.sessions[:0]
	for _, s := range db.sessions {
		if s.LocationID == id {
			db.deleteLogsLocked(s.ID)
			continue
		}
		kept = append(kept, s)
	}
	db.sessions = kept
	return true, nil
}

func (db *DB) locationIndex(userID, id int64) int {
	for i, l := range db.locations {
		if l.ID == id && l.ownerID == userID {
			return i
		}
	}
	return -1
}

func locationFromInput(id int64, in domain.LocationInput) domain.Location {
	return domain.Location{
		ID:        id,
		Name:      in.Name,
		Latitude:  in.Latitude,
		Longitude: in.Longitude,
		Timezone:  in.Timezone,
		Notes:     in.Notes,
	}
}

// --- SessionRepository ---

// ListSessions lists a user's sessions matching f, latest start first.
func (db *DB) ListSessions(ctx context.Context, userID int64, f domain.SessionFilter) ([]domain.Session, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	result := []domain.Session{}
	for _, s := range db.sessions {
		if s.ownerID == userID && f.Match(s.Session) {
			result = append(result, s.Session)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].ScheduledStart.After(result[j].ScheduledStart)
	})
	return result, nil
}

// GetSession returns one of a user's sessions.
func (db *DB) GetSession(ctx context.Context, userID, id int64) (*domain.Session, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if i := db.sessionIndex(userID, id); i >= 0 {
		s := db.sessions[i].Session
		return &s, nil
	}
	return nil, nil
}

// CreateSession adds a session. The ID of s is ignored.
func (db *DB) CreateSession(ctx context.Context, userID int64, s domain.Session) (*domain.Session, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.locationIndex(userID, s.LocationID) < 0 {
		return nil, errors.New("location does not exist")
	}
	db.sessionIDCounter++
	s.ID = db.sessionIDCounter
	s.ScheduledStart = s.ScheduledStart.UTC()
	db.sessions = append(db.sessions, ownedSession{ownerID: userID, Session: s})
	return &s, nil
}

// UpdateSession replaces a session's fields.
func (db *DB) UpdateSession(ctx context.Context, userID int64, s domain.Session) (*domain.Session, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	i := db.sessionIndex(userID, s.ID)
	if i < 0 {
		return nil, nil
	}
	s.ScheduledStart = s.ScheduledStart.UTC()
	db.sessions[i].Session = s
	return &s, nil
}

// DeleteSession removes a session and its logs.
func (db *DB) DeleteSession(ctx context.Context, userID, id int64) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	i := db.sessionIndex(userID, id)
	if i < 0 {
		return false, nil
	}
	db.sessions = append(db.sessions[:i], db.sessions[i+1:]...)
	db.deleteLogsLocked(id)
	return true, nil
}

func (db *DB) sessionIndex(userID, id int64) int {
	for i, s := range db.sessions {
		if s.ID == id && s.ownerID == userID {
			return i
		}
	}
	return -1
}

// --- LogRepository ---

// ListLogs lists a session's logs, newest first.
func (db *DB) ListLogs(ctx context.Context, sessionID int64) ([]domain.ObservationLog, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	result := []domain.ObservationLog{}
	for _, l := range db.logs {
		if l.SessionID == sessionID {
			result = append(result, l)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID > result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

// CreateLog adds a log to a session.
func (db *DB) CreateLog(ctx context.Context, sessionID int64, in domain.LogInput) (*domain.ObservationLog, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.logIDCounter++
	l := domain.ObservationLog{
		ID:        db.logIDCounter,
		SessionID: sessionID,
		CreatedAt: db.now().UTC(),
	}
	applyLogInput(&l, in)
	db.logs = append(db.logs, l)
	return &l, nil
}

// UpdateLog replaces a log's fields.
func (db *DB) UpdateLog(ctx context.Context, sessionID, id int64, in domain.LogInput) (*domain.ObservationLog, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for i := range db.logs {
		if db.logs[i].ID == id && db.logs[i].SessionID == sessionID {
			applyLogInput(&db.logs[i], in)
			l := db.logs[i]
			return &l, nil
		}
	}
	return nil, nil
}

// DeleteLog removes a log.
func (db *DB) DeleteLog(ctx context.Context, sessionID, id int64) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for i, l := range db.logs {
		if l.ID == id && l.SessionID == sessionID {
			db.logs = append(db.logs[:i], db.logs[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (db *DB) deleteLogsLocked(sessionID int64) {
	kept := db.logs[:0]
	for _, l := range db.logs {
		if l.SessionID != sessionID {
			kept = append(kept, l)
		}
	}
	db.logs = kept
}

func applyLogInput(l *domain.ObservationLog, in domain.LogInput) {
	l.Notes = in.Notes
	l.Seeing = in.Seeing
	l.Transparency = in.Transparency
	if in.Rating != nil {
		r := *in.Rating
		l.Rating = &r
	} else {
		l.Rating = nil
	}
}

// --- TokenRepository ---

// TokenRepo implements access token bookkeeping.
type TokenRepo struct {
	db *DB
}

// NewTokenRepo creates a new token repository.
func (db *DB) NewTokenRepo() *TokenRepo {
	return &TokenRepo{db: db}
}

// Create records an issued token.
func (r *TokenRepo) Create(ctx context.Context, t domain.AccessToken) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.tokens[t.ID] = t
	return nil
}

// Get retrieves a token record by its ID.
func (r *TokenRepo) Get(ctx context.Context, id string) (*domain.AccessToken, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if t, ok := r.db.tokens[id]; ok {
		return &t, nil
	}
	return nil, nil
}

// Delete revokes a token.
func (r *TokenRepo) Delete(ctx context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.tokens, id)
	return nil
}

// DeleteExpired deletes all tokens expired at now.
func (r *TokenRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var n int64
	for k, v := range r.db.tokens {
		if !now.Before(v.ExpiresAt) {
			delete(r.db.tokens, k)
			n++
		}
	}
	return n, nil
}
