package app

import (
	"context"
	"slices"
	"time"

	"astroplanner/internal/domain"
)

const (
	// DefaultEventMinutes is the exported event length when none is given.
	DefaultEventMinutes = 90
	minEventMinutes     = 15
	maxEventMinutes     = 720
)

// CalendarQuery selects the sessions to export. An empty Status means
// planned; "all" disables the status filter.
type CalendarQuery struct {
	LocationID      int64
	Status          string
	From            time.Time
	To              time.Time
	DurationMinutes int
}

// CalendarService exports sessions as iCalendar.
type CalendarService struct {
	sessions  domain.SessionRepository
	locations domain.LocationRepository
	encoder   domain.CalendarEncoder
	now       func() time.Time
}

// NewCalendarService creates a CalendarService.
func NewCalendarService(sessions domain.SessionRepository, locations domain.LocationRepository, encoder domain.CalendarEncoder) *CalendarService {
	return &CalendarService{sessions: sessions, locations: locations, encoder: encoder, now: time.Now}
}

// Export renders the matching sessions, earliest first.
func (s *CalendarService) Export(ctx context.Context, userID int64, q CalendarQuery) ([]byte, error) {
	minutes := q.DurationMinutes
	if minutes == 0 {
		minutes = DefaultEventMinutes
	}
	if minutes < minEventMinutes || minutes > maxEventMinutes {
		return nil, domain.Invalid("duration_minutes must be between 15 and 720")
	}

	f := domain.SessionFilter{LocationID: q.LocationID, From: q.From, To: q.To}
	if q.Status != "all" {
		st, err := domain.ParseStatus(q.Status)
		if err != nil {
			return nil, domain.Invalid(err.Error())
		}
		f.Status = st
	}

	sessions, err := s.sessions.ListSessions(ctx, userID, f)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(sessions, func(a, b domain.Session) int {
		return a.ScheduledStart.Compare(b.ScheduledStart)
	})

	locs, err := s.locations.ListLocations(ctx, userID)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]domain.Location, len(locs))
	for _, l := range locs {
		byID[l.ID] = l
	}

	entries := make([]domain.CalendarEntry, 0, len(sessions))
	for _, sess := range sessions {
		e := domain.CalendarEntry{Session: sess}
		if l, ok := byID[sess.LocationID]; ok {
			e.Location = &l
		}
		entries = append(entries, e)
	}
	return s.encoder.Encode(entries, time.Duration(minutes)*time.Minute, s.now().UTC())
}
