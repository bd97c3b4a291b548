// Package tz resolves the effective time zone for a location and converts
// between server instants and local wall-clock input.
package tz

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// UTC is the zone of last resort.
const UTC = "UTC"

// LocalInputLayout is the wall-clock format exchanged with the server as
// scheduled_start_local and when_local.
const LocalInputLayout = "2006-01-02T15:04"

// DisplayLayout is used for human-facing timestamps.
const DisplayLayout = "Jan 02, 2006 3:04 PM MST"

// Effective picks the zone used for every local-time interpretation of a
// location: the location's own zone if set, else the ambient zone, else UTC.
func Effective(locationTZ, ambientTZ string) string {
	if z := strings.TrimSpace(locationTZ); z != "" {
		return z
	}
	if z := strings.TrimSpace(ambientTZ); z != "" {
		return z
	}
	return UTC
}

// Ambient returns the process's own IANA zone name, or "" when it has none.
// The TZ variable wins over the system zone.
func Ambient() string {
	if z := strings.TrimSpace(os.Getenv("TZ")); z != "" {
		return strings.TrimPrefix(z, ":")
	}
	return systemZone()
}

// readLocaltime returns the target of the system zone link.
var readLocaltime = func() (string, error) { return os.Readlink("/etc/localtime") }

// systemZone names the zone /etc/localtime links to, e.g.
// /usr/share/zoneinfo/Europe/Paris is Europe/Paris.
func systemZone() string {
	target, err := readLocaltime()
	if err != nil {
		return ""
	}
	_, name, ok := strings.Cut(target, "zoneinfo/")
	if !ok || name == "" {
		return ""
	}
	if _, err := time.LoadLocation(name); err != nil {
		return ""
	}
	return name
}

// Resolver binds an ambient zone so callers only pass the location's zone.
type Resolver struct {
	ambient string
}

// NewResolver creates a Resolver. An empty ambient falls through to UTC.
func NewResolver(ambient string) *Resolver {
	return &Resolver{ambient: ambient}
}

// Effective applies the fallback chain to a location zone.
func (r *Resolver) Effective(locationTZ string) string {
	if r == nil {
		return Effective(locationTZ, "")
	}
	return Effective(locationTZ, r.ambient)
}

// Load returns the named zone, or UTC with ok=false when the name is unknown.
func Load(name string) (loc *time.Location, ok bool) {
	loc, err := time.LoadLocation(name)
	if err != nil || name == "" {
		return time.UTC, false
	}
	return loc, true
}

var serverLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
}

// ParseServerTime parses an ISO-8601 timestamp from the server. A value with
// no "Z" or numeric offset is a UTC wall time.
func ParseServerTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("empty timestamp")
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	for _, layout := range serverLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

// ParseLocal interprets a wall-clock value in the named zone and returns the
// UTC instant. Unlike formatting, an unknown zone is an error here.
func ParseLocal(value, zone string) (time.Time, error) {
	loc, err := time.LoadLocation(zone)
	if err != nil || zone == "" {
		return time.Time{}, fmt.Errorf("invalid timezone %q", zone)
	}
	value = strings.TrimSpace(value)
	for _, layout := range []string{LocalInputLayout, "2006-01-02T15:04:05"} {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid local time %q, want YYYY-MM-DDTHH:MM", value)
}

// FormatLocalInput renders an instant as wall-clock input in the named zone.
func FormatLocalInput(t time.Time, zone string) string {
	loc, _ := Load(zone)
	return t.In(loc).Format(LocalInputLayout)
}

// FormatDisplay renders an instant for people in the named zone.
func FormatDisplay(t time.Time, zone string) string {
	loc, _ := Load(zone)
	return t.In(loc).Format(DisplayLayout)
}
