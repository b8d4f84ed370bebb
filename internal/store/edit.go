package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/trailmark/routeplanner/internal/engine"
	"github.com/trailmark/routeplanner/internal/format"
	"github.com/trailmark/routeplanner/internal/geo"
	"github.com/trailmark/routeplanner/pkg/core"
)

// edit runs fn against the route being edited and publishes an update. A
// result discarded as stale is not reported to the caller.
func (s *Store) edit(fn func(r *core.Route) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireState(Editing); err != nil {
		return err
	}
	r := s.active()
	if r == nil {
		return fmt.Errorf("%w: %d", ErrRouteNotFound, s.activeRouteID)
	}

	err := fn(r)
	if errors.Is(err, engine.ErrStaleResult) {
		s.log.Debug("discarded stale routing result", "route", r.ID)
		err = dropStale(err)
	}
	s.publish(RouteUpdated, r.ID)
	return err
}

// dropStale removes ErrStaleResult from err, keeping any other joined errors.
func dropStale(err error) error {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var rest []error
		for _, e := range joined.Unwrap() {
			if e = dropStale(e); e != nil {
				rest = append(rest, e)
			}
		}
		return errors.Join(rest...)
	}
	if errors.Is(err, engine.ErrStaleResult) {
		return nil
	}
	return err
}

// AddWaypoint appends p to the active segment.
func (s *Store) AddWaypoint(ctx context.Context, p core.Point) error {
	return s.edit(func(r *core.Route) error {
		return s.engine.AddWaypoint(ctx, r, s.activeSegment, p)
	})
}

// InsertWaypoint inserts p into the active segment at position at.
func (s *Store) InsertWaypoint(ctx context.Context, at int, p core.Point) error {
	return s.edit(func(r *core.Route) error {
		return s.engine.InsertWaypoint(ctx, r, s.activeSegment, at, p)
	})
}

// InsertWaypointNear inserts a waypoint into the active segment where the
// segment's line passes closest to p.
func (s *Store) InsertWaypointNear(ctx context.Context, p core.Point) error {
	return s.edit(func(r *core.Route) error {
		seg := r.Segment(s.activeSegment)
		if seg == nil {
			return fmt.Errorf("%w: segment %d", engine.ErrIndexOutOfRange, s.activeSegment)
		}
		hit, ok := geo.FindClosestPointOnSegment(p, seg)
		if !ok {
			return s.engine.AddWaypoint(ctx, r, s.activeSegment, p)
		}
		return s.engine.InsertWaypoint(ctx, r, s.activeSegment, hit.InsertIndex, hit.Point)
	})
}

// MoveWaypoint moves waypoint at of segment index to p.
func (s *Store) MoveWaypoint(ctx context.Context, index, at int, p core.Point) error {
	return s.edit(func(r *core.Route) error {
		return s.engine.MoveWaypoint(ctx, r, index, at, p)
	})
}

// DeleteWaypoint removes waypoint at of segment index.
func (s *Store) DeleteWaypoint(ctx context.Context, index, at int) error {
	return s.edit(func(r *core.Route) error {
		return s.engine.DeleteWaypoint(ctx, r, index, at)
	})
}

// SetSegmentMode switches a segment between routing and manual.
func (s *Store) SetSegmentMode(ctx context.Context, index int, mode core.Mode) error {
	return s.edit(func(r *core.Route) error {
		switch mode {
		case core.ModeRouting:
			return s.engine.ChangeToRouting(ctx, r, index)
		case core.ModeManual:
			return s.engine.ChangeToManual(ctx, r, index)
		default:
			return fmt.Errorf("%w: %q", core.ErrUnknownMode, mode)
		}
	})
}

// ReverseSegment reverses the waypoint order of a segment.
func (s *Store) ReverseSegment(ctx context.Context, index int) error {
	return s.edit(func(r *core.Route) error {
		return s.engine.ReverseSegmentWaypoints(ctx, r, index)
	})
}

// RecalculateSegment recomputes the geometry of a segment.
func (s *Store) RecalculateSegment(ctx context.Context, index int) error {
	return s.edit(func(r *core.Route) error {
		return s.engine.RecalculateSegment(ctx, r, index)
	})
}

// SplitSegment splits a segment at waypoint at. The active segment stays the
// same segment object, or the first half when it was the one split.
func (s *Store) SplitSegment(ctx context.Context, index, at int) error {
	return s.edit(func(r *core.Route) error {
		if err := s.engine.SplitSegment(ctx, r, index, at); err != nil {
			return err
		}
		if s.activeSegment > index {
			s.activeSegment++
		}
		return nil
	})
}

// SetAttributes replaces the descriptive attributes of the route being
// edited.
func (s *Store) SetAttributes(attrs core.Attributes) error {
	return s.edit(func(r *core.Route) error {
		r.Attributes = attrs.WithDefaults()
		return nil
	})
}

// Import adds decoded routes to the collection and computes their geometry.
// Routes are added even when routing fails for some of their segments; the
// errors are joined in the result.
func (s *Store) Import(ctx context.Context, routes []format.ImportedRoute) ([]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireState(Browsing, ViewingDetail); err != nil {
		return nil, err
	}

	var ids []int
	var errs []error
	for _, imp := range routes {
		s.nextID++
		r := core.NewRoute(s.nextID)
		r.Attributes = imp.Attributes.WithDefaults()

		var err error
		if imp.Flat != nil {
			err = s.engine.SmartRecalculate(ctx, r, imp.Flat)
		} else {
			r.Segments = imp.Segments
			err = s.engine.RecalculateRoute(ctx, r)
		}
		if err = dropStale(err); err != nil {
			errs = append(errs, fmt.Errorf("route %q: %w", r.Title(), err))
		}

		normalize(r, nil, false)
		if len(r.Segments) == 0 {
			s.log.Warn("skipping imported route without valid segments", "title", r.Title())
			continue
		}
		s.routes = append(s.routes, r)
		ids = append(ids, r.ID)
		s.log.Info("route imported", "route", r.ID, "title", r.Title(), "segments", len(r.Segments))
		s.publish(RouteCreated, r.ID)
	}
	return ids, errors.Join(errs...)
}
