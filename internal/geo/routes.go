package geo

import (
	"math"
	"sort"

	"github.com/trailmark/routeplanner/pkg/core"
)

// PixelProjector maps a coordinate to screen pixels.
type PixelProjector interface {
	Project(p core.Point) (x, y float64)
}

// RouteHit is a route found near a query point.
type RouteHit struct {
	Route *core.Route
	// Distance is the planar distance in degrees.
	Distance float64
	// PixelDistance approximates Distance on screen.
	PixelDistance float64
}

// FindRoutesAtPoint returns the routes whose geometry passes within
// tolerancePx pixels of p, closest first.
func FindRoutesAtPoint(p core.Point, routes []*core.Route, tolerancePx float64, proj PixelProjector) []RouteHit {
	var hits []RouteHit
	for _, r := range routes {
		d, ok := routeDistance(p, r)
		if !ok {
			continue
		}
		px := pixelDistance(p, d, proj)
		if px <= tolerancePx {
			hits = append(hits, RouteHit{Route: r, Distance: d, PixelDistance: px})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Distance < hits[j].Distance
	})
	return hits
}

func routeDistance(p core.Point, r *core.Route) (float64, bool) {
	best := math.Inf(1)
	found := false
	for _, s := range r.Segments {
		hit, ok := FindClosestPointOnPolyline(p, s.Geometry)
		if !ok {
			continue
		}
		found = true
		best = min(best, hit.Distance)
	}
	return best, found
}

// pixelDistance converts a degree distance at p into pixels by projecting a
// test point offset d degrees east.
func pixelDistance(p core.Point, d float64, proj PixelProjector) float64 {
	x0, y0 := proj.Project(p)
	x1, y1 := proj.Project(core.Point{Lat: p.Lat, Lon: p.Lon + d})
	return math.Hypot(x1-x0, y1-y0)
}
