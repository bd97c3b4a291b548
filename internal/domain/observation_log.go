package domain

import (
	"context"
	"errors"
	"time"
)

// ObservationLog is a note recorded against one session.
type ObservationLog struct {
	ID           int64     `json:"id"`
	SessionID    int64     `json:"session_id"`
	Notes        string    `json:"notes"`
	Seeing       string    `json:"seeing,omitempty"`
	Transparency string    `json:"transparency,omitempty"`
	Rating       *int      `json:"rating,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// LogInput is the create and update request body.
type LogInput struct {
	Notes        string `json:"notes"`
	Seeing       string `json:"seeing,omitempty"`
	Transparency string `json:"transparency,omitempty"`
	Rating       *int   `json:"rating,omitempty"`
}

// ErrRatingRange is returned for a rating outside 1..5.
var ErrRatingRange = errors.New("rating must be an integer from 1 to 5")

// Validate checks the rating range.
func (in LogInput) Validate() error {
	if in.Rating != nil && (*in.Rating < 1 || *in.Rating > 5) {
		return ErrRatingRange
	}
	return nil
}

// LogRepository is the port for observation log persistence. Listing is
// ordered by creation time, newest first.
type LogRepository interface {
	ListLogs(ctx context.Context, sessionID int64) ([]ObservationLog, error)
	CreateLog(ctx context.Context, sessionID int64, in LogInput) (*ObservationLog, error)
	UpdateLog(ctx context.Context, sessionID, id int64, in LogInput) (*ObservationLog, error)
	DeleteLog(ctx context.Context, sessionID, id int64) (bool, error)
}
