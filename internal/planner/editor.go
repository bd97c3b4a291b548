package planner

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"go.uber.org/zap"

	"astroplanner/internal/domain"
	"astroplanner/internal/tz"
)

// EditorState is the phase of the session editor.
type EditorState int

const (
	Idle EditorState = iota
	Drafting
	Submitting
)

func (s EditorState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Drafting:
		return "drafting"
	case Submitting:
		return "submitting"
	}
	return fmt.Sprintf("EditorState(%d)", int(s))
}

// Draft is the editable copy of a session.
type Draft struct {
	// SessionID is zero for a session that does not exist yet.
	SessionID  int64
	LocationID int64
	LocalStart string
	Target     domain.TargetSelection
	Status     domain.Status
}

// IsNew reports whether the draft creates a session.
func (d Draft) IsNew() bool { return d.SessionID == 0 }

// ErrNotDrafting is returned by edits made while no draft is open.
var ErrNotDrafting = errors.New("no session is being edited")

// Editor drafts a new or existing session and only lets it through when the
// target is visible at the drafted time or is custom.
type Editor struct {
	store   *Store
	vis     *VisibilityResolver
	errs    *ErrorSlot
	zoneFor func(locationID int64) string
	onSaved func(s domain.Session, created bool)
	logger  *zap.Logger

	mu    sync.Mutex
	state EditorState
	draft Draft
	key   VisibilityKey
	// auto is set while the target is a default the user has not touched.
	auto bool
	// customText survives switching away from Custom and back.
	customText string
}

func newEditor(api TargetAPI, store *Store, errs *ErrorSlot, zoneFor func(int64) string, logger *zap.Logger) *Editor {
	e := &Editor{
		store:   store,
		errs:    errs,
		zoneFor: zoneFor,
		logger:  logger.Named("editor"),
	}
	e.vis = NewVisibilityResolver(api, errs, logger, e.applyVisibility)
	return e
}

// State returns the editor phase.
func (e *Editor) State() EditorState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Draft returns a copy of the current draft.
func (e *Editor) Draft() Draft {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.draft
}

// Visibility returns the resolver snapshot backing the draft.
func (e *Editor) Visibility() VisibilityState {
	return e.vis.State()
}

// Choices lists what the target picker offers: the visible names followed
// by the custom category.
func (e *Editor) Choices() []string {
	names := e.vis.State().VisibleNames()
	return append(names, domain.CustomCategory)
}

// BeginCreate opens a draft for a new planned session at a location.
// localStart may be empty; the target defaults to the first visible one.
func (e *Editor) BeginCreate(locationID int64, localStart string) error {
	if locationID == 0 {
		return e.reject("Select a location first.")
	}
	if _, ok := e.store.Location(locationID); !ok {
		return e.reject("Select a location first.")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = Drafting
	e.draft = Draft{
		LocationID: locationID,
		LocalStart: strings.TrimSpace(localStart),
		Target:     domain.Custom(""),
		Status:     domain.StatusPlanned,
	}
	e.auto = true
	e.customText = ""
	e.resyncLocked()
	return nil
}

// BeginEdit opens a draft seeded from a stored session. The persisted UTC
// start becomes local wall time in the location's zone, and a target outside
// the preset catalog is drafted as custom text.
func (e *Editor) BeginEdit(sessionID int64) error {
	s, ok := e.store.Session(sessionID)
	if !ok {
		return e.reject("Session not found.")
	}
	zone := e.zoneFor(s.LocationID)
	target := domain.SelectionFor(s.TargetName)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = Drafting
	e.draft = Draft{
		SessionID:  s.ID,
		LocationID: s.LocationID,
		LocalStart: tz.FormatLocalInput(s.ScheduledStart, zone),
		Target:     target,
		Status:     s.Status,
	}
	e.auto = false
	e.customText = ""
	if target.IsCustom() {
		e.customText = s.TargetName
	}
	e.resyncLocked()
	return nil
}

// SetLocalStart changes the drafted start and refetches visibility.
func (e *Editor) SetLocalStart(value string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != Drafting {
		return ErrNotDrafting
	}
	e.draft.LocalStart = strings.TrimSpace(value)
	e.resyncLocked()
	return nil
}

// SetLocation moves a new-session draft to another location. Drafts of
// existing sessions keep their location.
func (e *Editor) SetLocation(locationID int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != Drafting || !e.draft.IsNew() || e.draft.LocationID == locationID {
		return
	}
	if locationID == 0 {
		e.cancelLocked()
		return
	}
	e.draft.LocationID = locationID
	e.resyncLocked()
}

// SelectPreset picks a named target. It is checked against the visible set
// on submit.
func (e *Editor) SelectPreset(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != Drafting {
		return ErrNotDrafting
	}
	e.draft.Target = domain.Preset(name)
	e.auto = false
	return nil
}

// SelectCustom switches to the custom category with free text.
func (e *Editor) SelectCustom(text string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != Drafting {
		return ErrNotDrafting
	}
	e.customText = text
	e.draft.Target = domain.Custom(text)
	e.auto = false
	return nil
}

// SetStatus changes the drafted status.
func (e *Editor) SetStatus(status string) error {
	st, err := domain.ParseStatus(status)
	if err != nil {
		return e.reject(err.Error())
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != Drafting {
		return ErrNotDrafting
	}
	e.draft.Status = st
	return nil
}

// Cancel abandons the draft. A visibility fetch still in flight is ignored
// when it lands.
func (e *Editor) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancelLocked()
}

// Resync recomputes the visibility key after the draft's location changed
// on the server, and abandons drafts whose location or session is gone.
func (e *Editor) Resync() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != Drafting {
		return
	}
	if _, ok := e.store.Location(e.draft.LocationID); !ok {
		e.cancelLocked()
		return
	}
	if !e.draft.IsNew() {
		if _, ok := e.store.Session(e.draft.SessionID); !ok {
			e.cancelLocked()
			return
		}
	}
	e.resyncLocked()
}

// Submit validates the draft and sends it. Validation failures leave the
// editor drafting and make no request. On success the server's session is
// in the store and the editor is idle.
func (e *Editor) Submit(ctx context.Context) (*domain.Session, error) {
	e.mu.Lock()
	switch e.state {
	case Idle:
		e.mu.Unlock()
		return nil, ErrNotDrafting
	case Submitting:
		e.mu.Unlock()
		return nil, e.reject("This session is already being saved.")
	}
	targetName, zone, err := e.validateLocked()
	if err != nil {
		e.mu.Unlock()
		e.errs.Fail("Invalid session", err)
		return nil, err
	}
	d := e.draft
	e.state = Submitting
	e.mu.Unlock()

	e.errs.Clear()
	var saved *domain.Session
	if d.IsNew() {
		saved, err = e.store.CreateSession(ctx, domain.SessionInput{
			TargetName:          targetName,
			ScheduledStartLocal: d.LocalStart,
			Timezone:            zone,
			LocationID:          d.LocationID,
			Status:              d.Status,
		})
	} else {
		saved, err = e.store.UpdateSession(ctx, d.SessionID, domain.SessionPatch{
			TargetName:          &targetName,
			ScheduledStartLocal: &d.LocalStart,
			Timezone:            &zone,
			Status:              &d.Status,
		})
	}

	e.mu.Lock()
	if err != nil {
		if e.state == Submitting {
			e.state = Drafting
		}
		e.mu.Unlock()
		if d.IsNew() {
			e.errs.Fail("Failed to create session", err)
		} else {
			e.errs.Fail("Failed to update session", err)
		}
		return nil, err
	}
	if e.state == Submitting {
		e.cancelLocked()
	}
	onSaved := e.onSaved
	e.mu.Unlock()

	e.logger.Debug("Session saved",
		zap.Int64("session_id", saved.ID),
		zap.Bool("created", d.IsNew()))
	if onSaved != nil {
		onSaved(*saved, d.IsNew())
	}
	return saved, nil
}

// validateLocked returns the final target name and the zone the start time
// is expressed in.
func (e *Editor) validateLocked() (string, string, error) {
	d := e.draft
	if d.LocationID == 0 {
		return "", "", domain.Invalid("Select a location first.")
	}
	if d.LocalStart == "" {
		return "", "", domain.Invalid("Pick a start time.")
	}
	if d.Target.IsZero() {
		return "", "", domain.Invalid("Pick a target.")
	}
	if d.Target.IsCustom() {
		name := d.Target.Name()
		if name == "" {
			return "", "", domain.Invalid("Enter a custom target name.")
		}
		return name, e.key.Timezone, nil
	}

	vs := e.vis.State()
	if vs.Key != e.key || vs.Loading {
		return "", "", domain.Invalid("Target visibility is still loading. Try again in a moment.")
	}
	visible := vs.VisibleNames()
	if len(visible) == 0 {
		return "", "", domain.Invalid("No preset targets are visible at that time. Pick a different time or use Custom.")
	}
	if !slices.Contains(visible, d.Target.Name()) {
		return "", "", domain.Invalid(fmt.Sprintf("%s is not visible at that time. Pick a different time or use Custom.", d.Target.Name()))
	}
	return d.Target.Name(), vs.Key.Timezone, nil
}

func (e *Editor) resyncLocked() {
	e.key = VisibilityKey{
		LocationID: e.draft.LocationID,
		LocalStart: e.draft.LocalStart,
		Timezone:   e.zoneFor(e.draft.LocationID),
	}
	if !e.vis.Set(e.key) {
		// Same key: the held result, if settled, still applies.
		if vs := e.vis.State(); !vs.Loading {
			e.reconcileLocked(vs.Targets)
		}
	}
}

func (e *Editor) cancelLocked() {
	e.state = Idle
	e.draft = Draft{}
	e.key = VisibilityKey{}
	e.auto = false
	e.customText = ""
	e.vis.Set(VisibilityKey{})
}

// applyVisibility runs whenever the resolver applies a result.
func (e *Editor) applyVisibility(k VisibilityKey, targets []domain.VisibleTarget) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != Drafting || k != e.key {
		return
	}
	e.reconcileLocked(targets)
}

// reconcileLocked keeps the selected target valid for a visibility result:
// an untouched default follows the first visible target, and a preset that
// is no longer visible is replaced by the first visible one, or by Custom
// when nothing is visible.
func (e *Editor) reconcileLocked(targets []domain.VisibleTarget) {
	visible := domain.VisibleNames(targets)
	before := e.draft.Target
	switch {
	case len(visible) == 0:
		if !e.draft.Target.IsCustom() || e.auto {
			e.draft.Target = domain.Custom(e.customText)
		}
	case e.auto:
		e.draft.Target = domain.Preset(visible[0])
	case !e.draft.Target.IsCustom() && !slices.Contains(visible, e.draft.Target.Name()):
		e.draft.Target = domain.Preset(visible[0])
	}
	if e.draft.Target != before {
		e.logger.Debug("Target reselected",
			zap.Stringer("from", before),
			zap.Stringer("to", e.draft.Target))
	}
}

func (e *Editor) reject(msg string) error {
	err := domain.Invalid(msg)
	e.errs.Set(msg)
	return err
}
