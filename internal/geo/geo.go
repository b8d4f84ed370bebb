package geo

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/trailmark/routeplanner/pkg/core"
	"github.com/wroge/wgs84"
)

// All distance math in this file is planar in degree space. Routes are city to
// country scale, so earth curvature is ignored.

// ErrInvalidCoordinates is returned when the coordinates are invalid
var ErrInvalidCoordinates = errors.New("invalid coordinates provided")

// ParsePoint parses a string in the format "lat,lon" into a point.
func ParsePoint(coords string) (core.Point, error) {
	parts := strings.Split(coords, ",")
	if len(parts) != 2 {
		return core.Point{}, ErrInvalidCoordinates
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return core.Point{}, ErrInvalidCoordinates
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return core.Point{}, ErrInvalidCoordinates
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return core.Point{}, ErrInvalidCoordinates
	}
	return core.Point{Lat: lat, Lon: lon}, nil
}

// DistanceSquared is the squared planar distance between two points.
func DistanceSquared(p1, p2 core.Point) float64 {
	dLat := p1.Lat - p2.Lat
	dLon := p1.Lon - p2.Lon
	return dLat*dLat + dLon*dLon
}

// Distance is the planar distance between two points in degrees.
func Distance(p1, p2 core.Point) float64 {
	return math.Sqrt(DistanceSquared(p1, p2))
}

// ProjectPointOnSegment returns the point on segment a-b closest to p.
// A degenerate segment returns a.
func ProjectPointOnSegment(p, a, b core.Point) core.Point {
	dLat := b.Lat - a.Lat
	dLon := b.Lon - a.Lon
	lenSq := dLat*dLat + dLon*dLon
	if lenSq == 0 {
		return a
	}
	t := ((p.Lat-a.Lat)*dLat + (p.Lon-a.Lon)*dLon) / lenSq
	t = max(0, min(1, t))
	return core.Point{Lat: a.Lat + t*dLat, Lon: a.Lon + t*dLon}
}

// PolylineHit is the closest projection of a point onto a polyline.
type PolylineHit struct {
	Point core.Point
	// Index is the index of the first vertex of the closest line piece.
	Index    int
	Distance float64
}

// FindClosestPointOnPolyline scans every consecutive pair of vertices and
// returns the globally closest projection. Ties go to the lowest index.
// The second return value is false for polylines with fewer than two points.
func FindClosestPointOnPolyline(p core.Point, line []core.Point) (PolylineHit, bool) {
	if len(line) < 2 {
		return PolylineHit{}, false
	}
	best := PolylineHit{Index: -1}
	bestSq := math.Inf(1)
	for i := 0; i < len(line)-1; i++ {
		proj := ProjectPointOnSegment(p, line[i], line[i+1])
		d := DistanceSquared(p, proj)
		if d < bestSq {
			bestSq = d
			best.Point = proj
			best.Index = i
		}
	}
	best.Distance = math.Sqrt(bestSq)
	return best, true
}

// SegmentHit describes where a point falls on a segment's geometry and at
// which waypoint index a new control point would be inserted.
type SegmentHit struct {
	Point         core.Point
	GeometryIndex int
	InsertIndex   int
	Distance      float64
}

// FindClosestPointOnSegment locates p on the segment's geometry.
//
// Manual geometry is index-aligned with the waypoints, so the insertion index
// follows directly from the geometry index. Routing geometry is not, so the
// nearest waypoint to the projection is found and the new point goes on the
// side of whichever neighbour is closer. The first and last waypoints are
// anchors: insertion never happens before the start or after the end.
func FindClosestPointOnSegment(p core.Point, seg *core.Segment) (SegmentHit, bool) {
	hit, ok := FindClosestPointOnPolyline(p, seg.Geometry)
	if !ok {
		return SegmentHit{}, false
	}
	out := SegmentHit{
		Point:         hit.Point,
		GeometryIndex: hit.Index,
		Distance:      hit.Distance,
	}
	if seg.Mode == core.ModeManual {
		out.InsertIndex = hit.Index + 1
		return out, true
	}
	out.InsertIndex = routingInsertIndex(hit.Point, seg.Waypoints)
	return out, true
}

func routingInsertIndex(proj core.Point, wps []core.Point) int {
	n := len(wps)
	if n < 2 {
		return n
	}
	nearest := 0
	nearestSq := math.Inf(1)
	for i, w := range wps {
		if d := DistanceSquared(proj, w); d < nearestSq {
			nearestSq = d
			nearest = i
		}
	}
	switch nearest {
	case 0:
		return 1
	case n - 1:
		return n - 1
	}
	if DistanceSquared(proj, wps[nearest-1]) < DistanceSquared(proj, wps[nearest+1]) {
		return nearest
	}
	return nearest + 1
}

// webMercatorHalf is half the EPSG:3857 world width in metres.
const webMercatorHalf = math.Pi * 6378137

// ToWebMercator converts a point to EPSG:3857 metres.
func ToWebMercator(p core.Point) (x, y float64) {
	epsg := wgs84.EPSG()
	f := epsg.Transform(4326, 3857)
	x, y, _ = f(p.Lon, p.Lat, 0)
	return x, y
}

// MercatorProjector projects points to slippy-map pixel coordinates at a
// fixed zoom level with 256 pixel tiles.
type MercatorProjector struct {
	Zoom float64
}

// Project implements PixelProjector.
func (m MercatorProjector) Project(p core.Point) (float64, float64) {
	x, y := ToWebMercator(p)
	res := 2 * webMercatorHalf / (256 * math.Pow(2, m.Zoom))
	return (x + webMercatorHalf) / res, (webMercatorHalf - y) / res
}
