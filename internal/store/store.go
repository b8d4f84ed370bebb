// Package store owns the route collection and the editing state machine.
package store

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/trailmark/routeplanner/internal/engine"
	"github.com/trailmark/routeplanner/internal/routing"
	"github.com/trailmark/routeplanner/pkg/core"
)

// State is the editing state of the store.
type State int

const (
	Browsing State = iota
	Editing
	ViewingDetail
)

func (s State) String() string {
	switch s {
	case Browsing:
		return "browsing"
	case Editing:
		return "editing"
	case ViewingDetail:
		return "viewing-detail"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

var (
	// ErrInvalidState is returned for transitions not allowed from the
	// current state.
	ErrInvalidState = errors.New("operation not allowed in current state")
	// ErrRouteNotFound is returned for unknown route ids.
	ErrRouteNotFound = errors.New("route not found")
	// ErrNoValidSegments is returned when saving a route without any segment
	// of two or more waypoints.
	ErrNoValidSegments = errors.New("route needs at least one valid segment to save")
)

// changeEpsilon is the coordinate tolerance in degrees for HasChanges.
const changeEpsilon = 1e-6

// Option configures a Store.
type Option func(*options)

type options struct {
	log          *slog.Logger
	maxWaypoints int
	eventBuffer  int
}

// WithLogger sets the logger used by the store and its engine.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.log = l
	}
}

// WithMaxWaypoints sets the routing waypoint ceiling.
func WithMaxWaypoints(n int) Option {
	return func(o *options) {
		o.maxWaypoints = n
	}
}

// WithEventBuffer sets the per-subscriber channel capacity.
func WithEventBuffer(n int) Option {
	return func(o *options) {
		o.eventBuffer = n
	}
}

// Store holds the routes and the selection state. All methods are safe for
// concurrent use; the lock is released only while a routing request is in
// flight.
type Store struct {
	mu     sync.Mutex
	engine *engine.Engine
	log    *slog.Logger
	events *broker

	routes        []*core.Route
	nextID        int
	state         State
	activeRouteID int
	activeSegment int
	backup        *core.Route

	status atomic.Pointer[Status]
}

// Status is a snapshot of the selection. It can be read without the store
// lock, e.g. from log handlers running inside a store call.
type Status struct {
	State   State
	RouteID int
}

// New creates an empty store in the Browsing state.
func New(router routing.Router, opts ...Option) *Store {
	o := options{
		log:          slog.Default(),
		maxWaypoints: routing.MaxWaypoints,
		eventBuffer:  16,
	}
	for _, opt := range opts {
		opt(&o)
	}

	s := &Store{
		log:           o.log,
		events:        newBroker(o.eventBuffer),
		state:         Browsing,
		activeSegment: -1,
	}
	s.storeStatus()
	s.engine = engine.New(router,
		engine.WithLocker(&s.mu),
		engine.WithMaxWaypoints(o.maxWaypoints),
		engine.WithLogger(o.log),
	)
	return s
}

// Close releases subscribers. The store must not be used afterwards.
func (s *Store) Close() {
	s.events.close()
}

// Subscribe returns a channel of store events and a function to stop the
// subscription.
func (s *Store) Subscribe() (<-chan Event, func()) {
	ch := s.events.subscribe()
	return ch, func() { s.events.unsubscribe(ch) }
}

func (s *Store) publish(t EventType, routeID int) {
	s.events.publish(Event{Type: t, RouteID: routeID, State: s.state})
}

func (s *Store) setState(st State) {
	if s.state == st {
		return
	}
	s.log.Debug("store state change", "from", s.state, "to", st, "route", s.activeRouteID)
	s.state = st
	s.storeStatus()
	s.publish(StateChanged, s.activeRouteID)
}

func (s *Store) setActive(id int) {
	s.activeRouteID = id
	s.storeStatus()
}

func (s *Store) storeStatus() {
	s.status.Store(&Status{State: s.state, RouteID: s.activeRouteID})
}

// Status returns the latest selection snapshot without taking the lock.
func (s *Store) Status() Status {
	return *s.status.Load()
}

// State returns the current editing state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// ActiveRouteID returns the active route id, or false when none is active.
func (s *Store) ActiveRouteID() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeRouteID, s.activeRouteID != 0
}

// ActiveSegmentIndex returns the active segment index while editing.
func (s *Store) ActiveSegmentIndex() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Editing {
		return 0, false
	}
	return s.activeSegment, true
}

// Routes returns copies of all routes in insertion order.
func (s *Store) Routes() []*core.Route {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*core.Route, len(s.routes))
	for i, r := range s.routes {
		out[i] = r.Clone()
	}
	return out
}

// Route returns a copy of the route with the given id.
func (s *Store) Route(id int) (*core.Route, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, _ := s.find(id)
	if r == nil {
		return nil, fmt.Errorf("%w: %d", ErrRouteNotFound, id)
	}
	return r.Clone(), nil
}

func (s *Store) find(id int) (*core.Route, int) {
	for i, r := range s.routes {
		if r.ID == id {
			return r, i
		}
	}
	return nil, -1
}

func (s *Store) active() *core.Route {
	r, _ := s.find(s.activeRouteID)
	return r
}

func (s *Store) requireState(allowed ...State) error {
	if slices.Contains(allowed, s.state) {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalidState, s.state)
}

// normalize removes invalid segments from r. When only is non-nil, just
// that segment is considered. If ensureSegment is set and r ends up with no
// segments, a fresh empty routing segment is added. This is the single place
// where segments are discarded implicitly.
func normalize(r *core.Route, only *core.Segment, ensureSegment bool) {
	r.Segments = slices.DeleteFunc(r.Segments, func(seg *core.Segment) bool {
		if only != nil && seg != only {
			return false
		}
		return !seg.IsValid()
	})
	if ensureSegment && len(r.Segments) == 0 {
		r.Segments = append(r.Segments, core.NewSegment(core.ModeRouting))
	}
	engine.FixContinuity(r)
}

// beginEditing snapshots r and enters Editing.
func (s *Store) beginEditing(r *core.Route) {
	s.backup = r.Clone()
	if len(r.Segments) == 0 {
		r.Segments = append(r.Segments, core.NewSegment(core.ModeRouting))
	}
	s.setActive(r.ID)
	s.activeSegment = 0
	s.setState(Editing)
}

// CreateRoute creates a route with one empty routing segment and starts
// editing it.
func (s *Store) CreateRoute() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireState(Browsing); err != nil {
		return 0, err
	}

	s.nextID++
	r := core.NewRoute(s.nextID)
	s.routes = append(s.routes, r)
	s.log.Info("route created", "route", r.ID)
	s.publish(RouteCreated, r.ID)

	s.beginEditing(r)
	return r.ID, nil
}

// ActivateRoute starts editing an existing route.
func (s *Store) ActivateRoute(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireState(Browsing, ViewingDetail); err != nil {
		return err
	}
	r, _ := s.find(id)
	if r == nil {
		return fmt.Errorf("%w: %d", ErrRouteNotFound, id)
	}
	s.beginEditing(r)
	return nil
}

// StartEditingFromDetail starts editing the route shown in detail view.
func (s *Store) StartEditingFromDetail() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireState(ViewingDetail); err != nil {
		return err
	}
	r := s.active()
	if r == nil {
		return fmt.Errorf("%w: %d", ErrRouteNotFound, s.activeRouteID)
	}
	s.beginEditing(r)
	return nil
}

// SetActiveSegment selects the segment to edit. An invalid segment that is
// being left is discarded first.
func (s *Store) SetActiveSegment(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireState(Editing); err != nil {
		return err
	}
	r := s.active()
	if index == s.activeSegment {
		return nil
	}

	target := r.Segment(index)
	if cur := r.Segment(s.activeSegment); cur != nil {
		normalize(r, cur, true)
	}

	if i := r.IndexOf(target); target != nil && i >= 0 {
		s.activeSegment = i
	} else {
		s.activeSegment = max(0, min(index, len(r.Segments)-1))
	}
	s.publish(RouteUpdated, r.ID)
	return nil
}

// AddNewSegment appends an empty segment of the given mode and selects it.
func (s *Store) AddNewSegment(mode core.Mode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireState(Editing); err != nil {
		return err
	}
	r := s.active()
	if cur := r.Segment(s.activeSegment); cur != nil {
		normalize(r, cur, false)
	}

	r.Segments = append(r.Segments, core.NewSegment(mode))
	s.activeSegment = len(r.Segments) - 1
	s.publish(RouteUpdated, r.ID)
	return nil
}

// DeleteSegment removes a segment. A route is never left without a segment
// while editing.
func (s *Store) DeleteSegment(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireState(Editing); err != nil {
		return err
	}
	r := s.active()
	if r.Segment(index) == nil {
		return fmt.Errorf("%w: segment %d of %d", engine.ErrIndexOutOfRange, index, len(r.Segments))
	}

	active := r.Segment(s.activeSegment)
	r.Segments = slices.Delete(r.Segments, index, index+1)
	if len(r.Segments) == 0 {
		r.Segments = append(r.Segments, core.NewSegment(core.ModeRouting))
	}
	engine.FixContinuity(r)

	if i := r.IndexOf(active); active != nil && i >= 0 {
		s.activeSegment = i
	} else {
		s.activeSegment = max(0, min(index, len(r.Segments)-1))
	}
	s.publish(RouteUpdated, r.ID)
	return nil
}

// SaveEditing strips invalid segments and switches to the detail view. It
// fails, leaving the route untouched, if no valid segment exists.
func (s *Store) SaveEditing() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireState(Editing); err != nil {
		return err
	}
	r := s.active()
	if !r.HasValidSegment() {
		return ErrNoValidSegments
	}

	normalize(r, nil, false)
	s.backup = nil
	s.activeSegment = -1
	s.log.Info("route saved", "route", r.ID, "title", r.Title(), "segments", len(r.Segments))
	s.publish(RouteUpdated, r.ID)
	s.setState(ViewingDetail)
	return nil
}

// CancelEditing abandons the edit session. A route that had no valid segment
// when editing began is deleted; otherwise the snapshot is restored.
func (s *Store) CancelEditing() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireState(Editing); err != nil {
		return err
	}
	r := s.active()
	backup := s.backup
	s.backup = nil
	s.activeSegment = -1

	if backup == nil || !backup.HasValidSegment() {
		s.remove(r)
		s.setActive(0)
		s.log.Info("new route discarded", "route", r.ID)
		s.setState(Browsing)
		return nil
	}

	restored := backup.Clone()
	r.Attributes = restored.Attributes
	r.Segments = restored.Segments
	s.publish(RouteUpdated, r.ID)
	s.setState(ViewingDetail)
	return nil
}

// HasChanges reports whether the route being edited differs from its
// snapshot in attributes or in any segment's mode, waypoint count or
// waypoint coordinates.
func (s *Store) HasChanges() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Editing || s.backup == nil {
		return false
	}
	return s.active().ChangedFrom(s.backup, changeEpsilon)
}

// OpenDetail shows a route read-only.
func (s *Store) OpenDetail(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireState(Browsing, ViewingDetail); err != nil {
		return err
	}
	if r, _ := s.find(id); r == nil {
		return fmt.Errorf("%w: %d", ErrRouteNotFound, id)
	}
	s.setActive(id)
	if s.state == ViewingDetail {
		s.publish(StateChanged, id)
		return nil
	}
	s.setState(ViewingDetail)
	return nil
}

// CloseDetail returns to browsing.
func (s *Store) CloseDetail() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireState(ViewingDetail); err != nil {
		return err
	}
	s.setActive(0)
	s.setState(Browsing)
	return nil
}

// DeleteRoute removes a route. It is not allowed while editing.
func (s *Store) DeleteRoute(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireState(Browsing, ViewingDetail); err != nil {
		return err
	}
	r, _ := s.find(id)
	if r == nil {
		return fmt.Errorf("%w: %d", ErrRouteNotFound, id)
	}
	s.remove(r)
	if s.activeRouteID == id {
		s.setActive(0)
		s.setState(Browsing)
	}
	return nil
}

// remove drops r from the collection. Its segments are detached so that
// routing results still in flight for it are discarded.
func (s *Store) remove(r *core.Route) {
	s.routes = slices.DeleteFunc(s.routes, func(x *core.Route) bool { return x == r })
	r.Segments = nil
	s.publish(RouteDeleted, r.ID)
}
