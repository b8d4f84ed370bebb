package engine

import (
	"slices"

	"github.com/trailmark/routeplanner/pkg/core"
)

// FixContinuity snaps manual geometry onto its neighbours so adjacent
// segments meet without a gap. Each valid manual segment is first rebuilt
// from its waypoints, so a snap made for a neighbour that has since been
// deleted or switched to manual does not linger. Then:
//
//   - the first point of a manual segment takes the last geometry point of
//     the previous segment (the route's first segment is left alone);
//   - the last point of a manual segment followed by a routing segment takes
//     that segment's first geometry point.
//
// Routing geometry is never modified. The pass is idempotent.
func FixContinuity(route *core.Route) {
	segs := route.Segments
	for _, seg := range segs {
		if seg.Mode == core.ModeManual && seg.IsValid() {
			seg.Geometry = slices.Clone(seg.Waypoints)
		}
	}
	for i, seg := range segs {
		if seg.Mode != core.ModeManual || len(seg.Geometry) == 0 {
			continue
		}
		if i > 0 {
			if prev := segs[i-1].Geometry; len(prev) > 0 {
				seg.Geometry[0] = prev[len(prev)-1]
			}
		}
		if i+1 < len(segs) && segs[i+1].Mode == core.ModeRouting {
			if next := segs[i+1].Geometry; len(next) > 0 {
				seg.Geometry[len(seg.Geometry)-1] = next[0]
			}
		}
	}
}
