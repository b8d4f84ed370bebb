package engine

import (
	"context"
	"fmt"
	"slices"

	"github.com/trailmark/routeplanner/pkg/core"
)

// AddWaypoint appends p to the segment at index.
func (e *Engine) AddWaypoint(ctx context.Context, route *core.Route, index int, p core.Point) error {
	seg, err := segmentAt(route, index)
	if err != nil {
		return err
	}
	if err := e.checkLimit(seg, len(seg.Waypoints)+1); err != nil {
		return err
	}
	seg.Waypoints = append(seg.Waypoints, p)
	e.log.Debug("waypoint added", "route", route.ID, "segment", index, "waypoints", len(seg.Waypoints))
	return e.recomputeAndFix(ctx, route, seg)
}

// InsertWaypoint inserts p at position at, 0 <= at <= len(waypoints).
func (e *Engine) InsertWaypoint(ctx context.Context, route *core.Route, index, at int, p core.Point) error {
	seg, err := segmentAt(route, index)
	if err != nil {
		return err
	}
	if at < 0 || at > len(seg.Waypoints) {
		return fmt.Errorf("%w: insert at %d, segment has %d waypoints", ErrIndexOutOfRange, at, len(seg.Waypoints))
	}
	if err := e.checkLimit(seg, len(seg.Waypoints)+1); err != nil {
		return err
	}
	seg.Waypoints = slices.Insert(seg.Waypoints, at, p)
	e.log.Debug("waypoint inserted", "route", route.ID, "segment", index, "at", at)
	return e.recomputeAndFix(ctx, route, seg)
}

// DeleteWaypoint removes the waypoint at position at. The segment may become
// invalid, in which case its geometry is cleared.
func (e *Engine) DeleteWaypoint(ctx context.Context, route *core.Route, index, at int) error {
	seg, err := segmentAt(route, index)
	if err != nil {
		return err
	}
	if at < 0 || at >= len(seg.Waypoints) {
		return fmt.Errorf("%w: delete at %d, segment has %d waypoints", ErrIndexOutOfRange, at, len(seg.Waypoints))
	}
	seg.Waypoints = slices.Delete(seg.Waypoints, at, at+1)
	e.log.Debug("waypoint deleted", "route", route.ID, "segment", index, "at", at)
	return e.recomputeAndFix(ctx, route, seg)
}

// MoveWaypoint moves the waypoint at position at to p. When the waypoint is
// the boundary shared with a neighbouring segment, the neighbour's matching
// endpoint moves too and both segments are recomputed.
func (e *Engine) MoveWaypoint(ctx context.Context, route *core.Route, index, at int, p core.Point) error {
	seg, err := segmentAt(route, index)
	if err != nil {
		return err
	}
	n := len(seg.Waypoints)
	if at < 0 || at >= n {
		return fmt.Errorf("%w: move %d, segment has %d waypoints", ErrIndexOutOfRange, at, n)
	}

	old := seg.Waypoints[at]
	seg.Waypoints[at] = p
	touched := []*core.Segment{seg}

	if at == 0 && index > 0 {
		prev := route.Segments[index-1]
		if k := len(prev.Waypoints) - 1; k >= 0 && prev.Waypoints[k] == old {
			prev.Waypoints[k] = p
			touched = append([]*core.Segment{prev}, touched...)
		}
	}
	if at == n-1 && index+1 < len(route.Segments) {
		next := route.Segments[index+1]
		if len(next.Waypoints) > 0 && next.Waypoints[0] == old {
			next.Waypoints[0] = p
			touched = append(touched, next)
		}
	}

	e.log.Debug("waypoint moved", "route", route.ID, "segment", index, "at", at, "segments", len(touched))
	return e.recomputeAndFix(ctx, route, touched...)
}

// ChangeToRouting switches a manual segment to routing mode. The mode only
// changes once the routing service has produced geometry; on failure the
// segment stays manual and unchanged. A conversion overtaken by another edit
// fails with ErrConversionSuperseded.
func (e *Engine) ChangeToRouting(ctx context.Context, route *core.Route, index int) error {
	seg, err := segmentAt(route, index)
	if err != nil {
		return err
	}
	if seg.Mode == core.ModeRouting {
		return nil
	}
	if len(seg.Waypoints) > e.maxWaypoints {
		return fmt.Errorf("%w: %d waypoints, maximum is %d", ErrWaypointLimit, len(seg.Waypoints), e.maxWaypoints)
	}

	gen := seg.NextGeneration()
	if !seg.IsValid() {
		seg.Mode = core.ModeRouting
		seg.Geometry = nil
		return nil
	}

	path, err := e.computeRoute(ctx, slices.Clone(seg.Waypoints))
	if seg.Generation() != gen || route.IndexOf(seg) < 0 {
		return fmt.Errorf("could not convert segment to routing: %w", ErrConversionSuperseded)
	}
	if err != nil {
		return fmt.Errorf("could not convert segment to routing: %w", err)
	}

	seg.Mode = core.ModeRouting
	seg.Geometry = path
	FixContinuity(route)
	e.log.Debug("segment converted to routing", "route", route.ID, "segment", index, "points", len(path))
	return nil
}

// ChangeToManual switches a segment to manual mode. Geometry becomes a copy of
// the waypoints. Any routing request in flight for the segment is abandoned.
func (e *Engine) ChangeToManual(ctx context.Context, route *core.Route, index int) error {
	seg, err := segmentAt(route, index)
	if err != nil {
		return err
	}
	seg.Mode = core.ModeManual
	return e.recomputeAndFix(ctx, route, seg)
}

// ReverseSegmentWaypoints reverses the waypoint order and recomputes.
func (e *Engine) ReverseSegmentWaypoints(ctx context.Context, route *core.Route, index int) error {
	seg, err := segmentAt(route, index)
	if err != nil {
		return err
	}
	slices.Reverse(seg.Waypoints)
	return e.recomputeAndFix(ctx, route, seg)
}

// RecalculateSegment recomputes one segment from its current waypoints.
func (e *Engine) RecalculateSegment(ctx context.Context, route *core.Route, index int) error {
	seg, err := segmentAt(route, index)
	if err != nil {
		return err
	}
	return e.recomputeAndFix(ctx, route, seg)
}

// SplitSegment splits the segment at an interior waypoint. Both halves keep
// the mode and share the split waypoint.
func (e *Engine) SplitSegment(ctx context.Context, route *core.Route, index, at int) error {
	seg, err := segmentAt(route, index)
	if err != nil {
		return err
	}
	if at < 1 || at > len(seg.Waypoints)-2 {
		return fmt.Errorf("%w: split at %d, segment has %d waypoints", ErrIndexOutOfRange, at, len(seg.Waypoints))
	}

	tail := &core.Segment{
		Mode:      seg.Mode,
		Waypoints: slices.Clone(seg.Waypoints[at:]),
	}
	seg.Waypoints = slices.Clone(seg.Waypoints[:at+1])
	route.Segments = slices.Insert(route.Segments, index+1, tail)

	e.log.Debug("segment split", "route", route.ID, "segment", index, "at", at)
	return e.recomputeAndFix(ctx, route, seg, tail)
}
