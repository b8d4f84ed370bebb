// Package v2 contains the segmented route file format. Each route owns an
// ordered list of segments; each segment owns its waypoints and mode and
// optionally carries its computed geometry as an encoded polyline.
package v2

import (
	"time"

	"github.com/trailmark/routeplanner/pkg/core"
)

// Version is the value of the version field in v2 documents.
const Version = 2

// Document is the root JSON structure for the v2 format.
type Document struct {
	Version    int       `json:"version"`
	ID         string    `json:"id"`
	Generator  string    `json:"generator,omitempty"`
	ExportedAt time.Time `json:"exportedAt"`
	Routes     []Route   `json:"routes"`
}

// Route is a route with its attributes and segments.
type Route struct {
	ID         string          `json:"id"`
	Title      string          `json:"title,omitempty"`
	Attributes core.Attributes `json:"attributes"`
	Segments   []Segment       `json:"segments"`
}

// GeometryPrecision is the polyline precision Build writes. Documents
// without a precision field were written at precision 5.
const GeometryPrecision = 6

// Segment is one segment. Geometry is a Google encoded polyline and may be
// empty, in which case it is recomputed on import.
type Segment struct {
	Mode      core.Mode    `json:"mode"`
	Waypoints []core.Point `json:"waypoints"`
	Geometry  string       `json:"geometry,omitempty"`
	Precision int          `json:"precision,omitempty"`
}
