package app

import (
	"context"
	"strings"
	"time"

	"astroplanner/internal/domain"
	"astroplanner/internal/tz"
)

// SessionService encapsulates observing session use cases. Start times
// arrive as local wall time plus a zone and are stored as UTC instants.
type SessionService struct {
	sessions  domain.SessionRepository
	locations domain.LocationRepository
}

// NewSessionService creates a SessionService.
func NewSessionService(sessions domain.SessionRepository, locations domain.LocationRepository) *SessionService {
	return &SessionService{sessions: sessions, locations: locations}
}

// List returns the user's sessions matching f, newest first.
func (s *SessionService) List(ctx context.Context, userID int64, f domain.SessionFilter) ([]domain.Session, error) {
	return s.sessions.ListSessions(ctx, userID, f)
}

// Get returns one session.
func (s *SessionService) Get(ctx context.Context, userID, id int64) (*domain.Session, error) {
	sess, err := s.sessions.GetSession(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// Create stores a session at a location the user owns.
func (s *SessionService) Create(ctx context.Context, userID int64, in domain.SessionInput) (*domain.Session, error) {
	loc, err := s.locations.GetLocation(ctx, userID, in.LocationID)
	if err != nil {
		return nil, err
	}
	if loc == nil {
		return nil, ErrLocationNotFound
	}

	target := strings.TrimSpace(in.TargetName)
	if target == "" {
		return nil, domain.Invalid("target_name is required")
	}
	status, err := domain.ParseStatus(string(in.Status))
	if err != nil {
		return nil, domain.Invalid(err.Error())
	}
	start, err := parseLocalStart(in.ScheduledStartLocal, in.Timezone, loc.Timezone)
	if err != nil {
		return nil, err
	}

	return s.sessions.CreateSession(ctx, userID, domain.Session{
		TargetName:     target,
		ScheduledStart: start,
		LocationID:     loc.ID,
		Status:         status,
	})
}

// Update applies the non-nil fields of patch.
func (s *SessionService) Update(ctx context.Context, userID, id int64, patch domain.SessionPatch) (*domain.Session, error) {
	sess, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if patch.TargetName != nil {
		target := strings.TrimSpace(*patch.TargetName)
		if target == "" {
			return nil, domain.Invalid("target_name is required")
		}
		sess.TargetName = target
	}
	if patch.Status != nil {
		status, err := domain.ParseStatus(string(*patch.Status))
		if err != nil {
			return nil, domain.Invalid(err.Error())
		}
		sess.Status = status
	}
	if patch.ScheduledStartLocal != nil {
		var zone, locZone string
		if patch.Timezone != nil {
			zone = *patch.Timezone
		}
		loc, err := s.locations.GetLocation(ctx, userID, sess.LocationID)
		if err != nil {
			return nil, err
		}
		if loc != nil {
			locZone = loc.Timezone
		}
		start, err := parseLocalStart(*patch.ScheduledStartLocal, zone, locZone)
		if err != nil {
			return nil, err
		}
		sess.ScheduledStart = start
	}

	updated, err := s.sessions.UpdateSession(ctx, userID, *sess)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrSessionNotFound
	}
	return updated, nil
}

// Delete removes a session and its logs.
func (s *SessionService) Delete(ctx context.Context, userID, id int64) error {
	ok, err := s.sessions.DeleteSession(ctx, userID, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrSessionNotFound
	}
	return nil
}

// parseLocalStart converts wall time to UTC using the request zone, falling
// back to the location's zone.
func parseLocalStart(value, zone, locationZone string) (time.Time, error) {
	return parseWallTime(value, zone, locationZone, "Invalid scheduled_start_local format")
}

func parseWallTime(value, zone, locationZone, badFormat string) (time.Time, error) {
	zone = strings.TrimSpace(zone)
	if zone == "" {
		zone = strings.TrimSpace(locationZone)
	}
	if zone == "" {
		return time.Time{}, domain.Invalid("Timezone required")
	}
	if _, ok := tz.Load(zone); !ok {
		return time.Time{}, domain.Invalid("Invalid timezone")
	}
	t, err := tz.ParseLocal(value, zone)
	if err != nil {
		return time.Time{}, domain.Invalid(badFormat)
	}
	return t, nil
}
