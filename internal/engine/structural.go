package engine

import (
	"context"
	"errors"
	"slices"

	"github.com/trailmark/routeplanner/pkg/core"
)

// BuildSegments groups a flat list of moded waypoints into segments. Each run
// of equal mode becomes a segment that starts with the last waypoint of the
// previous run. Routing runs longer than the waypoint ceiling are chunked,
// consecutive chunks sharing one waypoint. The returned segments carry no
// geometry.
func (e *Engine) BuildSegments(flat []core.ModedPoint) []*core.Segment {
	var segs []*core.Segment
	var run []core.Point
	var mode core.Mode

	flush := func() {
		if len(run) < 2 {
			return
		}
		if mode == core.ModeRouting && len(run) > e.maxWaypoints {
			for _, chunk := range chunkWaypoints(run, e.maxWaypoints) {
				segs = append(segs, &core.Segment{Mode: mode, Waypoints: chunk})
			}
			return
		}
		segs = append(segs, &core.Segment{Mode: mode, Waypoints: slices.Clone(run)})
	}

	for i, mp := range flat {
		if i == 0 {
			mode = mp.Mode
		} else if mp.Mode != mode {
			flush()
			run = []core.Point{flat[i-1].Point}
			mode = mp.Mode
		}
		run = append(run, mp.Point)
	}
	flush()

	return segs
}

// chunkWaypoints splits pts into pieces of at most size points where each
// piece starts with the last point of the previous one.
func chunkWaypoints(pts []core.Point, size int) [][]core.Point {
	var chunks [][]core.Point
	for start := 0; start < len(pts)-1; {
		end := min(start+size-1, len(pts)-1)
		chunks = append(chunks, slices.Clone(pts[start:end+1]))
		start = end
	}
	return chunks
}

// equivalent reports whether prev can stand in for def without recompute.
func equivalent(prev, def *core.Segment) bool {
	return prev.Mode == def.Mode &&
		slices.Equal(prev.Waypoints, def.Waypoints) &&
		len(prev.Geometry) >= 2
}

// SmartRecalculate rebuilds the segment list of route from a flat list of
// moded waypoints. Leading segments equivalent to the current ones are kept
// as they are, geometry included. Every segment from the first difference
// onwards is recomputed in route order, followed by one continuity pass.
func (e *Engine) SmartRecalculate(ctx context.Context, route *core.Route, flat []core.ModedPoint) error {
	defs := e.BuildSegments(flat)
	prev := route.Segments

	diverge := len(defs)
	for i, def := range defs {
		if i >= len(prev) || !equivalent(prev[i], def) {
			diverge = i
			break
		}
	}

	next := make([]*core.Segment, len(defs))
	copy(next, prev[:min(diverge, len(prev))])
	copy(next[diverge:], defs[diverge:])
	route.Segments = next

	e.log.Debug("structural recompute",
		"route", route.ID,
		"segments", len(next),
		"reused", diverge,
		"recompute", len(next)-diverge)

	var errs []error
	for _, seg := range next[diverge:] {
		if route.IndexOf(seg) < 0 {
			// the list was replaced while a request was in flight
			errs = append(errs, ErrStaleResult)
			break
		}
		if err := e.recompute(ctx, route, seg); err != nil {
			errs = append(errs, err)
		}
	}
	FixContinuity(route)
	return errors.Join(errs...)
}

// RecalculateRoute fills in geometry that is missing or out of date, as after
// loading a route from a file. Manual geometry is always rebuilt from
// waypoints. Routing segments above the waypoint ceiling cause a structural
// recompute so they get chunked.
func (e *Engine) RecalculateRoute(ctx context.Context, route *core.Route) error {
	for _, seg := range route.Segments {
		if seg.Mode == core.ModeRouting && len(seg.Waypoints) > e.maxWaypoints {
			return e.SmartRecalculate(ctx, route, route.Flatten())
		}
	}

	var stale []*core.Segment
	for _, seg := range route.Segments {
		if seg.Mode == core.ModeManual || !seg.IsValid() || len(seg.Geometry) < 2 {
			stale = append(stale, seg)
		}
	}
	return e.recomputeAndFix(ctx, route, stale...)
}
