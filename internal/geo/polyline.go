package geo

import (
	"fmt"
	"math"

	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/trailmark/routeplanner/pkg/core"
	"github.com/twpayne/go-polyline"
)

// PolylinePrecision is the number of decimal digits routing services use
// in encoded polylines.
const PolylinePrecision = 5

// DecodePolyline decodes a Google encoded polyline (precision 5) as returned
// by routing services.
func DecodePolyline(encoded string) ([]core.Point, error) {
	return DecodePolylinePrecision(encoded, PolylinePrecision)
}

// DecodePolylinePrecision decodes a polyline encoded with the given number
// of decimal digits.
func DecodePolylinePrecision(encoded string, precision int) ([]core.Point, error) {
	coords, _, err := polylineCodec(precision).DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, fmt.Errorf("failed to decode polyline: %w", err)
	}
	points := make([]core.Point, 0, len(coords))
	for i, c := range coords {
		if len(c) < 2 {
			return nil, fmt.Errorf("coordinate %d has insufficient values", i)
		}
		points = append(points, core.Point{Lat: c[0], Lon: c[1]})
	}
	return points, nil
}

// EncodePolyline encodes points as a Google encoded polyline.
func EncodePolyline(points []core.Point) string {
	return EncodePolylinePrecision(points, PolylinePrecision)
}

// EncodePolylinePrecision encodes points keeping the given number of
// decimal digits.
func EncodePolylinePrecision(points []core.Point, precision int) string {
	coords := make([][]float64, len(points))
	for i, p := range points {
		coords[i] = []float64{p.Lat, p.Lon}
	}
	return string(polylineCodec(precision).EncodeCoords(nil, coords))
}

func polylineCodec(precision int) polyline.Codec {
	if precision <= 0 {
		precision = PolylinePrecision
	}
	return polyline.Codec{Dim: 2, Scale: math.Pow10(precision)}
}

// LineString converts points into a lon/lat LineString.
func LineString(points []core.Point) (geom.LineString, error) {
	if len(points) < 2 {
		return geom.LineString{}, fmt.Errorf("polyline must have at least 2 points, got %d", len(points))
	}
	flatCoords := make([]float64, 0, len(points)*2)
	for _, p := range points {
		flatCoords = append(flatCoords, p.Lon, p.Lat)
	}
	seq := geom.NewSequence(flatCoords, geom.DimXY)
	return geom.NewLineString(seq), nil
}

// LengthMeters approximates the ground length of a polyline. The web
// mercator length is scaled by the cosine of the mean latitude.
func LengthMeters(points []core.Point) float64 {
	if len(points) < 2 {
		return 0
	}
	flatCoords := make([]float64, 0, len(points)*2)
	var latSum float64
	for _, p := range points {
		x, y := ToWebMercator(p)
		flatCoords = append(flatCoords, x, y)
		latSum += p.Lat
	}
	ls := geom.NewLineString(geom.NewSequence(flatCoords, geom.DimXY))
	meanLat := latSum / float64(len(points))
	return ls.Length() * math.Cos(meanLat*math.Pi/180)
}

// RouteLengthMeters sums the geometry length of all valid segments.
func RouteLengthMeters(r *core.Route) float64 {
	var total float64
	for _, s := range r.ValidSegments() {
		total += LengthMeters(s.Geometry)
	}
	return total
}
