package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trailmark/routeplanner/pkg/core"
)

func TestDecodePolyline(t *testing.T) {
	points, err := DecodePolyline("_p~iF~ps|U_ulLnnqC_mqNvxq`@")
	require.NoError(t, err)
	require.Len(t, points, 3)

	want := []core.Point{pt(38.5, -120.2), pt(40.7, -120.95), pt(43.252, -126.453)}
	for i := range want {
		assert.InDelta(t, want[i].Lat, points[i].Lat, 1e-5)
		assert.InDelta(t, want[i].Lon, points[i].Lon, 1e-5)
	}
}

func TestDecodePolyline_Invalid(t *testing.T) {
	_, err := DecodePolyline("_p~iF~ps|U_")
	assert.Error(t, err)
}

func TestEncodePolyline(t *testing.T) {
	in := []core.Point{pt(38.5, -120.2), pt(40.7, -120.95), pt(43.252, -126.453)}
	assert.Equal(t, "_p~iF~ps|U_ulLnnqC_mqNvxq`@", EncodePolyline(in))
}

func TestPolylinePrecision(t *testing.T) {
	in := []core.Point{pt(48.123456, 8.654321), pt(48.123457, 8.654322)}

	coarse, err := DecodePolyline(EncodePolyline(in))
	require.NoError(t, err)
	assert.Equal(t, coarse[0], coarse[1], "precision 5 merges microdegree steps")

	fine, err := DecodePolylinePrecision(EncodePolylinePrecision(in, 6), 6)
	require.NoError(t, err)
	for i := range in {
		assert.InDelta(t, in[i].Lat, fine[i].Lat, 1e-6)
		assert.InDelta(t, in[i].Lon, fine[i].Lon, 1e-6)
	}
	assert.NotEqual(t, fine[0], fine[1])
}

func TestLineString(t *testing.T) {
	ls, err := LineString([]core.Point{pt(1, 2), pt(3, 4)})
	require.NoError(t, err)
	assert.Equal(t, 2, ls.Coordinates().Length())

	start, ok := ls.StartPoint().XY()
	require.True(t, ok)
	assert.Equal(t, 2.0, start.X, "x is longitude")
	assert.Equal(t, 1.0, start.Y, "y is latitude")

	_, err = LineString([]core.Point{pt(1, 2)})
	assert.Error(t, err)
}

func TestLengthMeters(t *testing.T) {
	// one degree of longitude along the equator
	got := LengthMeters([]core.Point{pt(0, 0), pt(0, 1)})
	assert.InDelta(t, 111319.49, got, 1)

	// parallels shrink with the cosine of latitude
	got = LengthMeters([]core.Point{pt(60, 0), pt(60, 1)})
	assert.InDelta(t, 111319.49*math.Cos(math.Pi/3), got, 1)

	assert.Zero(t, LengthMeters(nil))
}

func TestRouteLengthMeters(t *testing.T) {
	r := &core.Route{Segments: []*core.Segment{
		{Waypoints: []core.Point{pt(0, 0), pt(0, 1)}, Geometry: []core.Point{pt(0, 0), pt(0, 1)}},
		{Waypoints: []core.Point{pt(0, 1)}, Geometry: []core.Point{pt(0, 1), pt(0, 50)}},
	}}
	assert.InDelta(t, 111319.49, RouteLengthMeters(r), 1)
}
