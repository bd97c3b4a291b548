package app

import (
	"context"

	"astroplanner/internal/domain"
)

// LogService encapsulates observation log use cases. Every call first checks
// that the session belongs to the user.
type LogService struct {
	logs     domain.LogRepository
	sessions domain.SessionRepository
}

// NewLogService creates a LogService.
func NewLogService(logs domain.LogRepository, sessions domain.SessionRepository) *LogService {
	return &LogService{logs: logs, sessions: sessions}
}

func (s *LogService) ownSession(ctx context.Context, userID, sessionID int64) error {
	sess, err := s.sessions.GetSession(ctx, userID, sessionID)
	if err != nil {
		return err
	}
	if sess == nil {
		return ErrSessionNotFound
	}
	return nil
}

// List returns a session's logs, newest first.
func (s *LogService) List(ctx context.Context, userID, sessionID int64) ([]domain.ObservationLog, error) {
	if err := s.ownSession(ctx, userID, sessionID); err != nil {
		return nil, err
	}
	return s.logs.ListLogs(ctx, sessionID)
}

// Create records a log against a session.
func (s *LogService) Create(ctx context.Context, userID, sessionID int64, in domain.LogInput) (*domain.ObservationLog, error) {
	if err := in.Validate(); err != nil {
		return nil, domain.Invalid(err.Error())
	}
	if err := s.ownSession(ctx, userID, sessionID); err != nil {
		return nil, err
	}
	return s.logs.CreateLog(ctx, sessionID, in)
}

// Update replaces a log's fields.
func (s *LogService) Update(ctx context.Context, userID, sessionID, id int64, in domain.LogInput) (*domain.ObservationLog, error) {
	if err := in.Validate(); err != nil {
		return nil, domain.Invalid(err.Error())
	}
	if err := s.ownSession(ctx, userID, sessionID); err != nil {
		return nil, err
	}
	l, err := s.logs.UpdateLog(ctx, sessionID, id, in)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, ErrLogNotFound
	}
	return l, nil
}

// Delete removes a log.
func (s *LogService) Delete(ctx context.Context, userID, sessionID, id int64) error {
	if err := s.ownSession(ctx, userID, sessionID); err != nil {
		return err
	}
	ok, err := s.logs.DeleteLog(ctx, sessionID, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrLogNotFound
	}
	return nil
}
