package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"astroplanner/internal/domain"
	"astroplanner/internal/tz"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

type printer struct {
	w      io.Writer
	format string
}

func newPrinter(w io.Writer, format string) (*printer, error) {
	switch format {
	case formatTable, formatJSON, formatYAML:
		return &printer{w: w, format: format}, nil
	}
	return nil, fmt.Errorf("unknown output format %q (want table, json or yaml)", format)
}

// structured writes v as JSON or YAML and reports whether it did.
func (p *printer) structured(v any) (bool, error) {
	switch p.format {
	case formatJSON:
		b, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return true, err
		}
		_, err = fmt.Fprintln(p.w, string(b))
		return true, err
	case formatYAML:
		// Round-trip through JSON so field names follow the json tags.
		b, err := json.Marshal(v)
		if err != nil {
			return true, err
		}
		var generic any
		if err := yaml.Unmarshal(b, &generic); err != nil {
			return true, err
		}
		out, err := yaml.Marshal(generic)
		if err != nil {
			return true, err
		}
		_, err = p.w.Write(out)
		return true, err
	}
	return false, nil
}

func (p *printer) table(v any, headers []string, rows [][]string) error {
	if done, err := p.structured(v); done {
		return err
	}
	if len(rows) == 0 {
		_, err := fmt.Fprintln(p.w, "no results")
		return err
	}
	w := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, strings.Join(headers, "\t"))
	for _, row := range rows {
		_, _ = fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	return w.Flush()
}

func (p *printer) kv(v any, rows [][2]string) error {
	if done, err := p.structured(v); done {
		return err
	}
	w := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	for _, row := range rows {
		_, _ = fmt.Fprintf(w, "%s\t%s\n", row[0], row[1])
	}
	return w.Flush()
}

func (p *printer) line(format string, args ...any) error {
	if p.format != formatTable {
		return nil
	}
	_, err := fmt.Fprintf(p.w, format+"\n", args...)
	return err
}

func id(v int64) string { return strconv.FormatInt(v, 10) }

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func floatOrDash(v *float64, unit string) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', 1, 64) + unit
}

func (p *printer) locations(locs []domain.Location) error {
	rows := make([][]string, 0, len(locs))
	for _, l := range locs {
		rows = append(rows, []string{
			id(l.ID),
			l.Name,
			strconv.FormatFloat(l.Latitude, 'f', 4, 64),
			strconv.FormatFloat(l.Longitude, 'f', 4, 64),
			orDash(l.Timezone),
			orDash(l.Notes),
		})
	}
	return p.table(locs, []string{"ID", "NAME", "LAT", "LON", "TIMEZONE", "NOTES"}, rows)
}

// sessions shows start times in each session's location zone.
func (p *printer) sessions(list []domain.Session, zoneFor func(int64) string) error {
	rows := make([][]string, 0, len(list))
	for _, s := range list {
		rows = append(rows, []string{
			id(s.ID),
			s.TargetName,
			tz.FormatDisplay(s.ScheduledStart, zoneFor(s.LocationID)),
			id(s.LocationID),
			string(s.Status),
		})
	}
	return p.table(list, []string{"ID", "TARGET", "START", "LOCATION", "STATUS"}, rows)
}

func (p *printer) targets(list []domain.VisibleTarget) error {
	rows := make([][]string, 0, len(list))
	for _, t := range list {
		visible := "no"
		if t.Visible {
			visible = "yes"
		}
		rows = append(rows, []string{
			t.Name,
			string(t.Kind),
			strconv.FormatFloat(t.AltitudeDeg, 'f', 1, 64),
			strconv.FormatFloat(t.AzimuthDeg, 'f', 1, 64),
			visible,
			strconv.FormatFloat(t.Score, 'f', 1, 64),
			orDash(t.Reason),
		})
	}
	return p.table(list, []string{"NAME", "KIND", "ALT", "AZ", "VISIBLE", "SCORE", "REASON"}, rows)
}

func (p *printer) weather(w *domain.WeatherSnapshot) error {
	wind := floatOrDash(w.WindSpeed, " km/h")
	if c := domain.Compass(w.WindDirection); c != "" {
		wind += " " + c
	}
	daylight := "-"
	if w.IsDay != nil {
		daylight = "night"
		if *w.IsDay {
			daylight = "day"
		}
	}
	return p.kv(w, [][2]string{
		{"conditions", w.Label()},
		{"temperature", floatOrDash(w.Temperature, " °C")},
		{"cloud cover", floatOrDash(w.CloudCover, "%")},
		{"wind", wind},
		{"daylight", daylight},
	})
}

func (p *printer) logs(list []domain.ObservationLog, zone string) error {
	rows := make([][]string, 0, len(list))
	for _, l := range list {
		rating := "-"
		if l.Rating != nil {
			rating = strconv.Itoa(*l.Rating)
		}
		rows = append(rows, []string{
			id(l.ID),
			tz.FormatDisplay(l.CreatedAt, zone),
			rating,
			orDash(l.Seeing),
			orDash(l.Transparency),
			l.Notes,
		})
	}
	return p.table(list, []string{"ID", "CREATED", "RATING", "SEEING", "TRANSPARENCY", "NOTES"}, rows)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(time.RFC3339)
}
