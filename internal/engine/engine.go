// Package engine keeps segment geometry consistent with segment waypoints and
// with the neighbouring segments of a route.
//
// Geometry of manual segments is computed locally. Geometry of routing
// segments comes from a routing.Router, which is the only place an operation
// can block. Every recompute stamps the segment with a new generation; a
// routing result is applied only if the segment still belongs to the route
// and no newer recompute started in the meantime.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/trailmark/routeplanner/internal/routing"
	"github.com/trailmark/routeplanner/pkg/core"
)

var (
	// ErrWaypointLimit is returned when an edit would push a routing segment
	// past the routing service's waypoint ceiling.
	ErrWaypointLimit = errors.New("waypoint limit exceeded")
	// ErrIndexOutOfRange is returned for segment or waypoint indices outside
	// the valid range.
	ErrIndexOutOfRange = errors.New("index out of range")
	// ErrSegmentNotFound is returned when the target segment does not exist.
	ErrSegmentNotFound = errors.New("segment not found")
	// ErrStaleResult is returned when a routing result was dropped because
	// the segment was edited again or removed while the request was in flight.
	ErrStaleResult = errors.New("segment changed during routing, result discarded")
	// ErrConversionSuperseded is returned when a switch to routing mode is
	// abandoned because the segment changed before the route arrived. The
	// segment stays manual.
	ErrConversionSuperseded = errors.New("segment changed before routing completed")
	// ErrRoutingFailed is the routing client's failure sentinel.
	ErrRoutingFailed = routing.ErrRoutingFailed
)

// Option configures an Engine.
type Option func(*Engine)

// WithMaxWaypoints sets the waypoint ceiling for routing segments.
func WithMaxWaypoints(n int) Option {
	return func(e *Engine) {
		if n >= 2 {
			e.maxWaypoints = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.log = l
	}
}

// WithLocker makes the engine release l for the duration of each routing
// call. Callers that guard routes with a mutex pass it here so other edits
// can proceed while a request is in flight.
func WithLocker(l sync.Locker) Option {
	return func(e *Engine) {
		e.locker = l
	}
}

// Engine applies edit operations to routes.
type Engine struct {
	router       routing.Router
	maxWaypoints int
	log          *slog.Logger
	locker       sync.Locker
}

// New creates an engine using router for routing segments.
func New(router routing.Router, opts ...Option) *Engine {
	e := &Engine{
		router:       router,
		maxWaypoints: routing.MaxWaypoints,
		log:          slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// MaxWaypoints returns the waypoint ceiling for routing segments.
func (e *Engine) MaxWaypoints() int {
	return e.maxWaypoints
}

func segmentAt(route *core.Route, index int) (*core.Segment, error) {
	if route == nil {
		return nil, ErrSegmentNotFound
	}
	seg := route.Segment(index)
	if seg == nil {
		return nil, fmt.Errorf("%w: index %d of %d", ErrSegmentNotFound, index, len(route.Segments))
	}
	return seg, nil
}

func (e *Engine) checkLimit(seg *core.Segment, count int) error {
	if seg.Mode == core.ModeRouting && count > e.maxWaypoints {
		return fmt.Errorf("%w: %d waypoints, maximum is %d", ErrWaypointLimit, count, e.maxWaypoints)
	}
	return nil
}

// computeRoute calls the router with the locker released.
func (e *Engine) computeRoute(ctx context.Context, waypoints []core.Point) ([]core.Point, error) {
	if e.locker != nil {
		e.locker.Unlock()
		defer e.locker.Lock()
	}
	return e.router.ComputeRoute(ctx, waypoints)
}

// recompute rebuilds the geometry of one segment from its waypoints.
// Invalid segments get empty geometry. On routing failure the previous
// geometry is kept.
func (e *Engine) recompute(ctx context.Context, route *core.Route, seg *core.Segment) error {
	gen := seg.NextGeneration()

	if !seg.IsValid() {
		seg.Geometry = nil
		return nil
	}
	if seg.Mode == core.ModeManual {
		seg.Geometry = slices.Clone(seg.Waypoints)
		return nil
	}
	if err := e.checkLimit(seg, len(seg.Waypoints)); err != nil {
		return err
	}

	path, err := e.computeRoute(ctx, slices.Clone(seg.Waypoints))

	if seg.Generation() != gen || route.IndexOf(seg) < 0 {
		e.log.Debug("discarding stale routing result", "route", route.ID, "generation", gen)
		return ErrStaleResult
	}
	if err != nil {
		e.log.Warn("segment recompute failed, keeping previous geometry",
			"route", route.ID,
			"segment", route.IndexOf(seg),
			"error", err)
		return err
	}
	seg.Geometry = path
	return nil
}

// recomputeAndFix recomputes the given segments in route order and then
// applies the continuity pass.
func (e *Engine) recomputeAndFix(ctx context.Context, route *core.Route, segs ...*core.Segment) error {
	var errs []error
	for _, seg := range segs {
		if route.IndexOf(seg) < 0 {
			continue
		}
		if err := e.recompute(ctx, route, seg); err != nil {
			errs = append(errs, err)
		}
	}
	FixContinuity(route)
	return errors.Join(errs...)
}
