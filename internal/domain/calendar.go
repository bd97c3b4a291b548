package domain

import "time"

// CalendarEntry is one session prepared for calendar export.
type CalendarEntry struct {
	Session  Session
	Location *Location
}

// CalendarEncoder renders sessions as an iCalendar document.
type CalendarEncoder interface {
	Encode(entries []CalendarEntry, duration time.Duration, now time.Time) ([]byte, error)
}
