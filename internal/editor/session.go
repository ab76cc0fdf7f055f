// Package editor implements the vehicle record editor: a fetched vehicle
// aggregate split into sections, one of which at a time can be edited in a
// local draft with live total cost and profit, then saved through the
// section's own endpoint or cancelled back to the pre-edit snapshot.
package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"vehicle-admin/internal/costing"
	"vehicle-admin/internal/models"
	"vehicle-admin/internal/permission"
)

var (
	ErrNotLoaded      = errors.New("vehicle not loaded")
	ErrForbidden      = errors.New("missing permission")
	ErrAlreadyEditing = errors.New("another section is being edited")
	ErrNotEditing     = errors.New("no section is being edited")
	ErrSectionLocked  = errors.New("section is not in edit mode")
	ErrBusy           = errors.New("a request is still in flight")
	ErrUnknownSection = errors.New("unknown section")
	ErrUnknownField   = errors.New("unknown field")
	ErrReadOnlyField  = errors.New("field is derived and cannot be edited")
	ErrInvalidValue   = errors.New("invalid value")
	ErrFileTooLarge   = errors.New("file exceeds the 10 MiB upload limit")
	ErrNotDocuments   = errors.New("documents section is not in edit mode")
)

// State is Viewing when Editing is false, otherwise Editing(Section).
type State struct {
	Editing bool
	Section Section
}

func (s State) String() string {
	if !s.Editing {
		return "Viewing"
	}
	return fmt.Sprintf("Editing(%s)", s.Section.Title())
}

var viewing = State{}

type Option func(*Session)

func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

func WithNotifier(n Notifier) Option {
	return func(s *Session) { s.notifier = n }
}

// Session is one open editor for one vehicle. Its methods are safe for
// concurrent use, but network calls never run under the lock: while one is in
// flight every state-changing call returns ErrBusy.
type Session struct {
	backend   Backend
	notifier  Notifier
	logger    *slog.Logger
	vehicleID uint
	routes    map[Section]saveFunc

	caps      map[Section]bool
	canImages bool

	mu       sync.Mutex
	loaded   bool
	busy     bool
	state    State
	current  Section
	draft    models.VehicleAggregate
	snapshot models.VehicleAggregate
}

// NewSession resolves the caller's capabilities once from permissions.
func NewSession(backend Backend, vehicleID uint, permissions []string, opts ...Option) *Session {
	s := &Session{
		backend:   backend,
		vehicleID: vehicleID,
		routes:    defaultRoutes(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.notifier == nil {
		s.notifier = logNotifier{logger: s.logger}
	}

	required := make([]string, 0, len(sectionTable)+1)
	for _, sec := range Sections() {
		required = append(required, sec.Permission())
	}
	required = append(required, permission.ImagesManage)
	resolved := permission.Resolve(permissions, required...)

	s.caps = make(map[Section]bool, len(sectionTable))
	for _, sec := range Sections() {
		s.caps[sec] = resolved[sec.Permission()]
	}
	s.canImages = resolved[permission.ImagesManage]
	return s
}

func (s *Session) VehicleID() uint { return s.vehicleID }

// Capabilities reports, per section, whether the edit action is offered.
func (s *Session) Capabilities() map[Section]bool {
	out := make(map[Section]bool, len(s.caps))
	for k, v := range s.caps {
		out[k] = v
	}
	return out
}

func (s *Session) CanManageImages() bool { return s.canImages }

// Load fetches the aggregate and resets the editor to Viewing on the first section.
func (s *Session) Load(ctx context.Context) error {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return ErrBusy
	}
	s.busy = true
	s.mu.Unlock()

	agg, err := s.backend.FetchVehicle(ctx, s.vehicleID)

	s.mu.Lock()
	s.busy = false
	if err != nil {
		s.mu.Unlock()
		s.logger.Error("vehicle fetch failed", "vehicle_id", s.vehicleID, "error", err)
		s.notifier.Notify(NotifyError, "Load failed", reason(err))
		return fmt.Errorf("fetch vehicle %d: %w", s.vehicleID, err)
	}
	s.draft = agg
	s.snapshot = agg.Clone()
	s.state = viewing
	s.current = SectionVehicle
	s.loaded = true
	s.mu.Unlock()
	return nil
}

// Aggregate returns a copy of the record as currently displayed (draft included).
func (s *Session) Aggregate() models.VehicleAggregate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft.Clone()
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) IsEditing(sec Section) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Editing && s.state.Section == sec
}

// Busy reports whether a network call is in flight; views hide edit controls meanwhile.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// Current is the displayed section.
func (s *Session) Current() Section {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Next, Previous and JumpTo move the displayed section. They are no-ops
// (returning false) while a section is being edited.
func (s *Session) Next() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.moveLocked(int(s.current) + 1)
}

func (s *Session) Previous() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.moveLocked(int(s.current) - 1)
}

func (s *Session) JumpTo(index int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.moveLocked(index)
}

func (s *Session) moveLocked(index int) bool {
	if s.state.Editing || s.busy {
		return false
	}
	target := Section(index)
	if !target.valid() || target == s.current {
		return false
	}
	s.current = target
	return true
}

// BeginEdit puts the displayed section into edit mode, snapshotting the
// whole aggregate for Cancel.
func (s *Session) BeginEdit() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case !s.loaded:
		return ErrNotLoaded
	case s.busy:
		return ErrBusy
	case s.state.Editing:
		return ErrAlreadyEditing
	case !s.caps[s.current]:
		return fmt.Errorf("%w: %s", ErrForbidden, s.current.Permission())
	}

	s.snapshot = s.draft.Clone()
	s.state = State{Editing: true, Section: s.current}
	return nil
}

// Update applies one field edit to the draft of the section being edited and
// recomputes the derived totals. A rejected edit leaves the draft unchanged.
func (s *Session) Update(sec Section, field string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.busy:
		return ErrBusy
	case !s.state.Editing:
		return ErrNotEditing
	case s.state.Section != sec:
		return fmt.Errorf("%w: %s", ErrSectionLocked, sec.Title())
	}

	next := s.draft.Clone()
	if err := setField(&next, sec, field, value); err != nil {
		return err
	}
	s.draft = costing.Recompute(next)
	return nil
}

// Cancel discards the draft and restores every section to the snapshot taken
// by BeginEdit, whichever section is active.
func (s *Session) Cancel() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.busy:
		return ErrBusy
	case !s.state.Editing:
		return ErrNotEditing
	}
	s.draft = s.snapshot.Clone()
	s.state = viewing
	return nil
}

// Done leaves the Documents section. Uploads and deletes are already
// persisted, so nothing is submitted.
func (s *Session) Done() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.busy:
		return ErrBusy
	case !s.state.Editing || s.state.Section != SectionDocuments:
		return ErrNotDocuments
	}
	s.state = viewing
	return nil
}

// Save submits the active section's draft through its endpoint. On success
// the saved values become the new snapshot and the editor returns to
// Viewing. On failure the editor stays in edit mode with the draft intact.
func (s *Session) Save(ctx context.Context) error {
	s.mu.Lock()
	switch {
	case s.busy:
		s.mu.Unlock()
		return ErrBusy
	case !s.state.Editing:
		s.mu.Unlock()
		return ErrNotEditing
	}

	sec := s.state.Section
	if sec == SectionDocuments {
		s.state = viewing
		s.mu.Unlock()
		return nil
	}

	save, ok := s.routes[sec]
	if !ok {
		s.mu.Unlock()
		s.logger.Error("no save route for section", "section", sec.Title(), "vehicle_id", s.vehicleID)
		s.notifier.Notify(NotifyError, "Save failed", fmt.Sprintf("%s cannot be saved", sec.Title()))
		return fmt.Errorf("%w: %s", ErrUnknownSection, sec.Title())
	}

	draft := s.draft.Clone()
	s.busy = true
	s.mu.Unlock()

	applied, err := save(ctx, s.backend, s.vehicleID, draft)

	s.mu.Lock()
	s.busy = false
	if err != nil {
		// requests that did go through are on the server now; keep them on Cancel too
		for _, apply := range applied {
			apply(&s.draft)
			apply(&s.snapshot)
		}
		s.mu.Unlock()

		s.logger.Warn("section save failed", "section", sec.Title(), "vehicle_id", s.vehicleID, "error", err)
		s.notifier.Notify(NotifyError, "Save failed", fmt.Sprintf("%s: %s", sec.Title(), reason(err)))
		return fmt.Errorf("save %s: %w", sec.Title(), err)
	}

	for _, apply := range applied {
		apply(&s.draft)
	}
	s.draft = costing.Recompute(s.draft)
	s.snapshot = s.draft.Clone()
	s.state = viewing
	s.mu.Unlock()

	s.notifier.Notify(NotifySuccess, "Saved", fmt.Sprintf("%s updated successfully", sec.Title()))
	return nil
}

func reason(err error) string {
	if err == nil || err.Error() == "" {
		return "Something went wrong, please try again"
	}
	return err.Error()
}
