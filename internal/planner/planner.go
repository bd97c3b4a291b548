// Package planner keeps locations, sessions, visibility, weather and logs
// consistent on the client while the user moves between selections.
package planner

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"astroplanner/internal/domain"
	"astroplanner/internal/tz"
)

// Options configures a Planner.
type Options struct {
	Logger *zap.Logger
	// AmbientTZ is the zone used for locations without one. Empty falls
	// back to UTC.
	AmbientTZ string
}

// Planner owns the selection state and ties the store, the editor and the
// resolvers together. Every failure lands in one error slot.
type Planner struct {
	store   *Store
	errs    *ErrorSlot
	zones   *tz.Resolver
	editor  *Editor
	weather *WeatherResolver
	logs    *logsResolver
	logger  *zap.Logger

	// mu guards the selection only.
	mu               sync.Mutex
	selectedLocation int64
	selectedSession  int64
}

// New creates a Planner on top of the server API.
func New(api API, opts Options) *Planner {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("planner")

	p := &Planner{
		errs:   NewErrorSlot(logger),
		zones:  tz.NewResolver(opts.AmbientTZ),
		logger: logger,
	}
	p.store = NewStore(api)
	p.weather = NewWeatherResolver(api, p.errs, logger)
	p.logs = newLogsResolver(api, p.store, p.errs, logger)
	p.editor = newEditor(api, p.store, p.errs, p.ZoneFor, logger)
	p.editor.onSaved = p.sessionSaved
	return p
}

// Store exposes read access to the entity store.
func (p *Planner) Store() *Store { return p.store }

// Editor returns the session editor.
func (p *Planner) Editor() *Editor { return p.editor }

// Err returns the current error message, or "".
func (p *Planner) Err() string { return p.errs.Message() }

// ClearErr empties the error slot.
func (p *Planner) ClearErr() { p.errs.Clear() }

// Load fetches locations and sessions and selects the first location when
// nothing valid is selected.
func (p *Planner) Load(ctx context.Context) error {
	p.errs.Clear()
	if err := p.store.Load(ctx); err != nil {
		p.errs.Fail("Failed to load locations/sessions", err)
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.store.Location(p.selectedLocation); !ok {
		p.selectedLocation = 0
		if locs := p.store.Locations(); len(locs) > 0 {
			p.selectedLocation = locs[0].ID
		}
	}
	if _, ok := p.store.Session(p.selectedSession); !ok {
		p.selectedSession = 0
	}
	p.editor.SetLocation(p.selectedLocation)
	p.editor.Resync()
	p.syncSessionDataLocked(false)
	p.logger.Debug("Loaded",
		zap.Int("locations", len(p.store.Locations())),
		zap.Int("sessions", len(p.store.Sessions())))
	return nil
}

// ZoneFor returns the effective zone of a location.
func (p *Planner) ZoneFor(locationID int64) string {
	loc, _ := p.store.Location(locationID)
	return p.zones.Effective(loc.Timezone)
}

// Timezone returns the effective zone of the selected location.
func (p *Planner) Timezone() string {
	p.mu.Lock()
	id := p.selectedLocation
	p.mu.Unlock()
	return p.ZoneFor(id)
}

// SelectedLocation returns the selected location, if any.
func (p *Planner) SelectedLocation() (domain.Location, bool) {
	p.mu.Lock()
	id := p.selectedLocation
	p.mu.Unlock()
	return p.store.Location(id)
}

// SelectLocation changes the selected location. Zero clears it. A selected
// session at another location is deselected.
func (p *Planner) SelectLocation(id int64) error {
	if id != 0 {
		if _, ok := p.store.Location(id); !ok {
			err := domain.Invalid("Unknown location.")
			p.errs.Fail("", err)
			return err
		}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.selectedLocation = id
	if s, ok := p.store.Session(p.selectedSession); ok && s.LocationID != id {
		p.selectedSession = 0
	}
	p.editor.SetLocation(id)
	p.syncSessionDataLocked(false)
	return nil
}

// SelectedSession returns the selected session, if any.
func (p *Planner) SelectedSession() (domain.Session, bool) {
	p.mu.Lock()
	id := p.selectedSession
	p.mu.Unlock()
	return p.store.Session(id)
}

// SelectSession selects a session and loads its weather and logs. Zero
// clears the selection. Selecting a session at another location selects
// that location too.
func (p *Planner) SelectSession(id int64) error {
	var sess domain.Session
	if id != 0 {
		s, ok := p.store.Session(id)
		if !ok {
			err := domain.Invalid("Unknown session.")
			p.errs.Fail("", err)
			return err
		}
		sess = s
	}
	p.errs.Clear()

	p.mu.Lock()
	defer p.mu.Unlock()
	p.selectedSession = id
	if id != 0 && sess.LocationID != p.selectedLocation {
		p.selectedLocation = sess.LocationID
		p.editor.SetLocation(sess.LocationID)
	}
	p.syncSessionDataLocked(false)
	return nil
}

// SessionsAtSelectedLocation lists the sessions of the selected location.
func (p *Planner) SessionsAtSelectedLocation() []domain.Session {
	p.mu.Lock()
	id := p.selectedLocation
	p.mu.Unlock()
	if id == 0 {
		return nil
	}
	return p.store.SessionsAt(id)
}

// Stats counts the selected location's sessions by status.
func (p *Planner) Stats() domain.SessionStats {
	return domain.CountByStatus(p.SessionsAtSelectedLocation())
}

// Weather returns the selected session's forecast and whether it is still
// loading.
func (p *Planner) Weather() (*domain.WeatherSnapshot, bool) {
	p.mu.Lock()
	id := p.selectedSession
	p.mu.Unlock()
	if id == 0 {
		return nil, false
	}
	return p.weather.Snapshot()
}

// Logs returns the selected session's logs, newest first.
func (p *Planner) Logs() []domain.ObservationLog {
	p.mu.Lock()
	id := p.selectedSession
	p.mu.Unlock()
	if id == 0 {
		return nil
	}
	return p.store.Logs(id)
}

// CreateLocation creates a location and selects it.
func (p *Planner) CreateLocation(ctx context.Context, in domain.LocationInput) (*domain.Location, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		verr := domain.Invalid(err.Error())
		p.errs.Fail("", verr)
		return nil, verr
	}
	p.errs.Clear()
	loc, err := p.store.CreateLocation(ctx, in)
	if err != nil {
		p.errs.Fail("Failed to create location", err)
		return nil, err
	}
	if err := p.SelectLocation(loc.ID); err != nil {
		return nil, err
	}
	return loc, nil
}

// UpdateLocation replaces a location. A changed zone moves the draft and
// the selected session's weather to the new zone.
func (p *Planner) UpdateLocation(ctx context.Context, id int64, in domain.LocationInput) (*domain.Location, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		verr := domain.Invalid(err.Error())
		p.errs.Fail("", verr)
		return nil, verr
	}
	p.errs.Clear()
	loc, err := p.store.UpdateLocation(ctx, id, in)
	if err != nil {
		p.errs.Fail("Failed to update location", err)
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.editor.Resync()
	p.syncSessionDataLocked(false)
	return loc, nil
}

// DeleteLocation deletes a location with its sessions and logs. When it was
// selected the selection, logs and weather are cleared.
func (p *Planner) DeleteLocation(ctx context.Context, id int64) error {
	p.errs.Clear()
	removed, err := p.store.DeleteLocation(ctx, id)
	if err != nil {
		p.errs.Fail("Failed to delete location", err)
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.selectedLocation == id {
		p.selectedLocation = 0
		p.selectedSession = 0
	}
	for _, sid := range removed {
		if sid == p.selectedSession {
			p.selectedSession = 0
		}
	}
	p.editor.Resync()
	p.syncSessionDataLocked(false)
	p.logger.Debug("Location deleted",
		zap.Int64("location_id", id),
		zap.Int("sessions_removed", len(removed)))
	return nil
}

// BeginCreateSession opens a new-session draft at the selected location.
func (p *Planner) BeginCreateSession(localStart string) error {
	p.mu.Lock()
	id := p.selectedLocation
	p.mu.Unlock()
	return p.editor.BeginCreate(id, localStart)
}

// DeleteSession deletes a session and its logs.
func (p *Planner) DeleteSession(ctx context.Context, id int64) error {
	p.errs.Clear()
	if err := p.store.DeleteSession(ctx, id); err != nil {
		p.errs.Fail("Failed to delete session", err)
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.selectedSession == id {
		p.selectedSession = 0
		p.syncSessionDataLocked(false)
	}
	p.editor.Resync()
	return nil
}

// CreateLog records a log under the selected session. Log writes refetch
// the list so one requested before the write cannot overwrite it.
func (p *Planner) CreateLog(ctx context.Context, in domain.LogInput) (*domain.ObservationLog, error) {
	sid, err := p.requireSession(in)
	if err != nil {
		return nil, err
	}
	l, err := p.store.CreateLog(ctx, sid, in)
	if err != nil {
		p.errs.Fail("Failed to create log", err)
		return nil, err
	}
	p.logs.c.Refresh()
	return l, nil
}

// UpdateLog replaces a log of the selected session.
func (p *Planner) UpdateLog(ctx context.Context, logID int64, in domain.LogInput) (*domain.ObservationLog, error) {
	sid, err := p.requireSession(in)
	if err != nil {
		return nil, err
	}
	l, err := p.store.UpdateLog(ctx, sid, logID, in)
	if err != nil {
		p.errs.Fail("Failed to update log", err)
		return nil, err
	}
	p.logs.c.Refresh()
	return l, nil
}

// DeleteLog removes a log of the selected session.
func (p *Planner) DeleteLog(ctx context.Context, logID int64) error {
	sid, err := p.requireSession(domain.LogInput{})
	if err != nil {
		return err
	}
	if err := p.store.DeleteLog(ctx, sid, logID); err != nil {
		p.errs.Fail("Failed to delete log", err)
		return err
	}
	p.logs.c.Refresh()
	return nil
}

func (p *Planner) requireSession(in domain.LogInput) (int64, error) {
	p.mu.Lock()
	sid := p.selectedSession
	p.mu.Unlock()
	if sid == 0 {
		err := domain.Invalid("Select a session first.")
		p.errs.Fail("", err)
		return 0, err
	}
	if err := in.Validate(); err != nil {
		verr := domain.Invalid(err.Error())
		p.errs.Fail("", verr)
		return 0, verr
	}
	p.errs.Clear()
	return sid, nil
}

// Wait blocks until every in-flight fetch has settled.
func (p *Planner) Wait() {
	p.editor.vis.Wait()
	p.weather.Wait()
	p.logs.c.Wait()
}

// Close tears the planner down. Results of fetches still in flight are
// dropped.
func (p *Planner) Close() {
	p.editor.vis.Close()
	p.weather.Close()
	p.logs.c.Close()
}

// sessionSaved runs after the editor stored a session. A new session
// becomes selected; an update to the selected one refetches its weather
// and logs.
func (p *Planner) sessionSaved(s domain.Session, created bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if created {
		p.selectedSession = s.ID
		if s.LocationID != p.selectedLocation {
			p.selectedLocation = s.LocationID
		}
		p.syncSessionDataLocked(false)
		return
	}
	if s.ID == p.selectedSession {
		p.syncSessionDataLocked(true)
	}
}

// syncSessionDataLocked points the weather and logs resolvers at the
// selected session. force refetches even when the key did not change.
func (p *Planner) syncSessionDataLocked(force bool) {
	var key SessionKey
	if s, ok := p.store.Session(p.selectedSession); ok {
		key = keyForSession(s, p.ZoneFor(s.LocationID))
	}
	if !p.weather.Set(key) && force {
		p.weather.Refresh()
	}
	if !p.logs.c.Set(key) && force {
		p.logs.c.Refresh()
	}
}
