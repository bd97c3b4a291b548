// Package ics renders observing sessions as an iCalendar feed.
package ics

import (
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"

	"astroplanner/internal/domain"
)

const (
	productID    = "-//AstroPlanner//EN"
	calendarName = "AstroPlanner Sessions"
)

// Encoder implements domain.CalendarEncoder.
type Encoder struct{}

var _ domain.CalendarEncoder = Encoder{}

// Encode writes one VEVENT per entry, each lasting duration.
func (Encoder) Encode(entries []domain.CalendarEntry, duration time.Duration, now time.Time) ([]byte, error) {
	if duration <= 0 {
		return nil, fmt.Errorf("event duration must be positive, got %s", duration)
	}

	cal := ical.NewCalendar()
	cal.SetProductId(productID)
	cal.SetCalscale("GREGORIAN")
	cal.SetMethod(ical.MethodPublish)
	cal.SetXWRCalName(calendarName)

	for _, e := range entries {
		s := e.Session
		ev := cal.AddEvent(fmt.Sprintf("session-%d@astroplanner", s.ID))
		ev.SetDtStampTime(now.UTC())
		ev.SetStartAt(s.ScheduledStart.UTC())
		ev.SetEndAt(s.ScheduledStart.UTC().Add(duration))
		ev.SetSummary("Observe: " + s.TargetName)

		desc := "Status: " + string(s.Status)
		if e.Location != nil {
			desc += fmt.Sprintf("\nCoords: %g,%g", e.Location.Latitude, e.Location.Longitude)
			ev.SetLocation(e.Location.Name)
		}
		ev.SetDescription(desc)
		ev.SetStatus(eventStatus(s.Status))
	}

	return []byte(cal.Serialize()), nil
}

func eventStatus(s domain.Status) ical.ObjectStatus {
	switch s {
	case domain.StatusCancelled:
		return ical.ObjectStatusCancelled
	case domain.StatusCompleted:
		return ical.ObjectStatusConfirmed
	}
	return ical.ObjectStatusTentative
}
