package domain

import (
	"context"
	"fmt"
	"time"
)

// Status is the lifecycle state of an observing session.
type Status string

const (
	StatusPlanned   Status = "planned"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Statuses lists every valid status in display order.
var Statuses = []Status{StatusPlanned, StatusCompleted, StatusCancelled}

// ParseStatus validates s. An empty string means planned.
func ParseStatus(s string) (Status, error) {
	if s == "" {
		return StatusPlanned, nil
	}
	for _, st := range Statuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("status must be one of planned, completed, cancelled; got %q", s)
}

// Session is a planned observation of one target from one location.
type Session struct {
	ID         int64  `json:"id"`
	TargetName string `json:"target_name"`
	// ScheduledStart is a UTC instant.
	ScheduledStart time.Time `json:"scheduled_start"`
	LocationID     int64     `json:"location_id"`
	Status         Status    `json:"status"`
}

// SessionInput is the create request body. The start is a local wall time
// ("2006-01-02T15:04") interpreted in Timezone.
type SessionInput struct {
	TargetName          string `json:"target_name"`
	ScheduledStartLocal string `json:"scheduled_start_local"`
	Timezone            string `json:"tz"`
	LocationID          int64  `json:"location_id"`
	Status              Status `json:"status,omitempty"`
}

// SessionPatch is the partial update request body; nil fields are unchanged.
type SessionPatch struct {
	TargetName          *string `json:"target_name,omitempty"`
	ScheduledStartLocal *string `json:"scheduled_start_local,omitempty"`
	Timezone            *string `json:"tz,omitempty"`
	Status              *Status `json:"status,omitempty"`
}

// SessionFilter narrows a session listing. Zero values match everything.
type SessionFilter struct {
	LocationID int64
	Status     Status
	From       time.Time
	To         time.Time
}

// Match reports whether s passes the filter.
func (f SessionFilter) Match(s Session) bool {
	if f.LocationID != 0 && s.LocationID != f.LocationID {
		return false
	}
	if f.Status != "" && s.Status != f.Status {
		return false
	}
	if !f.From.IsZero() && s.ScheduledStart.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && s.ScheduledStart.After(f.To) {
		return false
	}
	return true
}

// SessionStats counts sessions by status.
type SessionStats struct {
	Planned   int `json:"planned"`
	Completed int `json:"completed"`
	Cancelled int `json:"cancelled"`
}

// CountByStatus tallies sessions by status.
func CountByStatus(sessions []Session) SessionStats {
	var st SessionStats
	for _, s := range sessions {
		switch s.Status {
		case StatusPlanned:
			st.Planned++
		case StatusCompleted:
			st.Completed++
		case StatusCancelled:
			st.Cancelled++
		}
	}
	return st
}

// SessionRepository is the port for session persistence. Listing is ordered
// by scheduled start, newest first. Deleting a session deletes its logs.
type SessionRepository interface {
	ListSessions(ctx context.Context, userID int64, f SessionFilter) ([]Session, error)
	GetSession(ctx context.Context, userID, id int64) (*Session, error)
	CreateSession(ctx context.Context, userID int64, s Session) (*Session, error)
	UpdateSession(ctx context.Context, userID int64, s Session) (*Session, error)
	DeleteSession(ctx context.Context, userID, id int64) (bool, error)
}
