package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"astroplanner/internal/domain"
	"astroplanner/internal/tz"
)

func locationPath(id int64) string { return fmt.Sprintf("/locations/%d", id) }
func sessionPath(id int64) string  { return fmt.Sprintf("/sessions/%d", id) }

// ListLocations returns the user's locations.
func (c *Client) ListLocations(ctx context.Context) ([]domain.Location, error) {
	var out []domain.Location
	if err := c.request(ctx, http.MethodGet, "/locations/", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetLocation returns one location.
func (c *Client) GetLocation(ctx context.Context, id int64) (*domain.Location, error) {
	var out domain.Location
	if err := c.request(ctx, http.MethodGet, locationPath(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateLocation(ctx context.Context, in domain.LocationInput) (*domain.Location, error) {
	var out domain.Location
	if err := c.request(ctx, http.MethodPost, "/locations/", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateLocation(ctx context.Context, id int64, in domain.LocationInput) (*domain.Location, error) {
	var out domain.Location
	if err := c.request(ctx, http.MethodPut, locationPath(id), nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteLocation(ctx context.Context, id int64) error {
	return c.request(ctx, http.MethodDelete, locationPath(id), nil, nil, nil)
}

// wireSession mirrors domain.Session with the start kept as text, so
// timestamps without an offset can be read as UTC.
type wireSession struct {
	ID             int64         `json:"id"`
	TargetName     string        `json:"target_name"`
	ScheduledStart string        `json:"scheduled_start"`
	LocationID     int64         `json:"location_id"`
	Status         domain.Status `json:"status"`
}

func (w wireSession) session() (domain.Session, error) {
	start, err := tz.ParseServerTime(w.ScheduledStart)
	if err != nil {
		return domain.Session{}, fmt.Errorf("session %d: %w", w.ID, err)
	}
	return domain.Session{
		ID:             w.ID,
		TargetName:     w.TargetName,
		ScheduledStart: start,
		LocationID:     w.LocationID,
		Status:         w.Status,
	}, nil
}

func (c *Client) sessionRequest(ctx context.Context, method, path string, in any) (*domain.Session, error) {
	var w wireSession
	if err := c.request(ctx, method, path, nil, in, &w); err != nil {
		return nil, err
	}
	s, err := w.session()
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// SessionQuery narrows ListSessionsFiltered. Zero values are omitted.
type SessionQuery struct {
	LocationID int64
	Status     domain.Status
}

func (c *Client) ListSessions(ctx context.Context) ([]domain.Session, error) {
	return c.ListSessionsFiltered(ctx, SessionQuery{})
}

// ListSessionsFiltered lists sessions with server-side filters.
func (c *Client) ListSessionsFiltered(ctx context.Context, q SessionQuery) ([]domain.Session, error) {
	query := url.Values{}
	if q.LocationID != 0 {
		query.Set("location_id", strconv.FormatInt(q.LocationID, 10))
	}
	if q.Status != "" {
		query.Set("status", string(q.Status))
	}

	var wire []wireSession
	if err := c.request(ctx, http.MethodGet, "/sessions/", query, nil, &wire); err != nil {
		return nil, err
	}
	out := make([]domain.Session, 0, len(wire))
	for _, w := range wire {
		s, err := w.session()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// GetSession returns one session.
func (c *Client) GetSession(ctx context.Context, id int64) (*domain.Session, error) {
	return c.sessionRequest(ctx, http.MethodGet, sessionPath(id), nil)
}

func (c *Client) CreateSession(ctx context.Context, in domain.SessionInput) (*domain.Session, error) {
	return c.sessionRequest(ctx, http.MethodPost, "/sessions/", in)
}

func (c *Client) UpdateSession(ctx context.Context, id int64, patch domain.SessionPatch) (*domain.Session, error) {
	return c.sessionRequest(ctx, http.MethodPatch, sessionPath(id), patch)
}

func (c *Client) DeleteSession(ctx context.Context, id int64) error {
	return c.request(ctx, http.MethodDelete, sessionPath(id), nil, nil, nil)
}

type wireLog struct {
	ID           int64  `json:"id"`
	SessionID    int64  `json:"session_id"`
	Notes        string `json:"notes"`
	Seeing       string `json:"seeing"`
	Transparency string `json:"transparency"`
	Rating       *int   `json:"rating"`
	CreatedAt    string `json:"created_at"`
}

func (w wireLog) log() (domain.ObservationLog, error) {
	created, err := tz.ParseServerTime(w.CreatedAt)
	if err != nil {
		return domain.ObservationLog{}, fmt.Errorf("log %d: %w", w.ID, err)
	}
	return domain.ObservationLog{
		ID:           w.ID,
		SessionID:    w.SessionID,
		Notes:        w.Notes,
		Seeing:       w.Seeing,
		Transparency: w.Transparency,
		Rating:       w.Rating,
		CreatedAt:    created,
	}, nil
}

func logsPath(sessionID int64) string { return sessionPath(sessionID) + "/logs/" }

func (c *Client) ListLogs(ctx context.Context, sessionID int64) ([]domain.ObservationLog, error) {
	var wire []wireLog
	if err := c.request(ctx, http.MethodGet, logsPath(sessionID), nil, nil, &wire); err != nil {
		return nil, err
	}
	out := make([]domain.ObservationLog, 0, len(wire))
	for _, w := range wire {
		l, err := w.log()
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, nil
}

func (c *Client) logRequest(ctx context.Context, method, path string, in any) (*domain.ObservationLog, error) {
	var w wireLog
	if err := c.request(ctx, method, path, nil, in, &w); err != nil {
		return nil, err
	}
	l, err := w.log()
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (c *Client) CreateLog(ctx context.Context, sessionID int64, in domain.LogInput) (*domain.ObservationLog, error) {
	return c.logRequest(ctx, http.MethodPost, logsPath(sessionID), in)
}

func (c *Client) UpdateLog(ctx context.Context, sessionID, logID int64, in domain.LogInput) (*domain.ObservationLog, error) {
	return c.logRequest(ctx, http.MethodPatch, fmt.Sprintf("%s%d", logsPath(sessionID), logID), in)
}

func (c *Client) DeleteLog(ctx context.Context, sessionID, logID int64) error {
	return c.request(ctx, http.MethodDelete, fmt.Sprintf("%s%d", logsPath(sessionID), logID), nil, nil, nil)
}

// SessionWeather fetches the forecast for a session. zone is sent along for
// display purposes only.
func (c *Client) SessionWeather(ctx context.Context, sessionID int64, zone string) (*domain.WeatherSnapshot, error) {
	query := url.Values{}
	if zone != "" {
		query.Set("tz", zone)
	}
	var out domain.WeatherSnapshot
	if err := c.request(ctx, http.MethodGet, sessionPath(sessionID)+"/weather/", query, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) VisibleTargets(ctx context.Context, locationID int64, whenLocal, zone string) ([]domain.VisibleTarget, error) {
	query := url.Values{
		"location_id": {strconv.FormatInt(locationID, 10)},
		"when_local":  {whenLocal},
		"tz":          {zone},
	}
	var out []domain.VisibleTarget
	if err := c.request(ctx, http.MethodGet, "/targets/visible", query, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Geocode resolves a place name on the server.
func (c *Client) Geocode(ctx context.Context, q string) (*domain.GeocodeResult, error) {
	var out domain.GeocodeResult
	if err := c.request(ctx, http.MethodGet, "/geocode/", url.Values{"q": {q}}, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ICSQuery filters the calendar export. Zero values are omitted; the server
// then exports planned sessions with 90-minute events.
type ICSQuery struct {
	LocationID      int64
	Status          string
	From            time.Time
	To              time.Time
	DurationMinutes int
}

func (q ICSQuery) values() url.Values {
	v := url.Values{}
	if q.LocationID != 0 {
		v.Set("location_id", strconv.FormatInt(q.LocationID, 10))
	}
	if q.Status != "" {
		v.Set("status", q.Status)
	}
	if !q.From.IsZero() {
		v.Set("start_from", q.From.UTC().Format(time.RFC3339))
	}
	if !q.To.IsZero() {
		v.Set("start_to", q.To.UTC().Format(time.RFC3339))
	}
	if q.DurationMinutes != 0 {
		v.Set("duration_minutes", strconv.Itoa(q.DurationMinutes))
	}
	return v
}

// ExportICS downloads the calendar file.
func (c *Client) ExportICS(ctx context.Context, q ICSQuery) ([]byte, error) {
	var out []byte
	if err := c.request(ctx, http.MethodGet, "/planner/ics", q.values(), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
