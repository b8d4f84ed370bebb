// pkg/core/route.go
package core

import (
	"math"
	"slices"
	"strings"
)

// Point is a position in unprojected WGS84 degrees. Waypoints and geometry
// vertices share this type.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// ModedPoint is a waypoint tagged with the mode of the segment it belongs to.
// It is the flat representation used by legacy files and structural recompute.
type ModedPoint struct {
	Point
	Mode Mode `json:"mode"`
}

// Segment is the atomic reconciliation unit of a route.
type Segment struct {
	Mode      Mode
	Waypoints []Point
	Geometry  []Point

	// generation is bumped on every recompute so that a routing result which
	// arrives after a newer edit can be recognised and dropped.
	generation uint64
}

// NewSegment returns an empty segment in the given mode.
func NewSegment(mode Mode) *Segment {
	return &Segment{Mode: mode}
}

// IsValid reports whether the segment has enough waypoints to be kept.
func (s *Segment) IsValid() bool {
	return len(s.Waypoints) >= 2
}

// Generation returns the current recompute generation.
func (s *Segment) Generation() uint64 {
	return s.generation
}

// NextGeneration bumps and returns the recompute generation.
func (s *Segment) NextGeneration() uint64 {
	s.generation++
	return s.generation
}

// Clone returns a deep copy. The clone starts a fresh generation.
func (s *Segment) Clone() *Segment {
	return &Segment{
		Mode:      s.Mode,
		Waypoints: slices.Clone(s.Waypoints),
		Geometry:  slices.Clone(s.Geometry),
	}
}

// Attributes are the descriptive fields of a route.
type Attributes struct {
	RouteType   RouteType `json:"routeType"`
	Color       Color     `json:"color,omitempty"`
	CustomColor string    `json:"customColor,omitempty"`
	Symbol      string    `json:"symbol,omitempty"`
	Name        string    `json:"name,omitempty"`
	Ref         string    `json:"ref,omitempty"`
	Network     Network   `json:"network"`
	Wikidata    string    `json:"wikidata,omitempty"`
	CustomData  string    `json:"customData,omitempty"`
}

// DefaultAttributes returns attributes with the required defaults filled in.
func DefaultAttributes() Attributes {
	return Attributes{
		RouteType: RouteTypeHiking,
		Network:   NetworkNwn,
	}
}

// WithDefaults fills empty required fields.
func (a Attributes) WithDefaults() Attributes {
	if a.RouteType == "" {
		a.RouteType = RouteTypeHiking
	}
	if a.Network == "" {
		a.Network = NetworkNwn
	}
	return a
}

// Route is an ordered list of segments plus descriptive attributes.
type Route struct {
	ID         int
	Attributes Attributes
	Segments   []*Segment
}

// NewRoute returns a route holding a single empty routing segment.
func NewRoute(id int) *Route {
	return &Route{
		ID:         id,
		Attributes: DefaultAttributes(),
		Segments:   []*Segment{NewSegment(ModeRouting)},
	}
}

// Title combines ref and name for display.
func (r *Route) Title() string {
	ref := strings.TrimSpace(r.Attributes.Ref)
	name := strings.TrimSpace(r.Attributes.Name)
	switch {
	case ref != "" && name != "":
		return ref + " - " + name
	case ref != "":
		return ref
	case name != "":
		return name
	default:
		return "noname"
	}
}

// DisplayColor resolves the color used to draw the route.
func (r *Route) DisplayColor() string {
	return r.Attributes.Color.Hex(r.Attributes.CustomColor)
}

// Clone returns a deep copy of the route including all segment data.
func (r *Route) Clone() *Route {
	c := &Route{
		ID:         r.ID,
		Attributes: r.Attributes,
		Segments:   make([]*Segment, len(r.Segments)),
	}
	for i, s := range r.Segments {
		c.Segments[i] = s.Clone()
	}
	return c
}

// Segment returns the segment at index i, or nil when out of range.
func (r *Route) Segment(i int) *Segment {
	if i < 0 || i >= len(r.Segments) {
		return nil
	}
	return r.Segments[i]
}

// IndexOf returns the position of seg in the route by identity, or -1.
func (r *Route) IndexOf(seg *Segment) int {
	for i, s := range r.Segments {
		if s == seg {
			return i
		}
	}
	return -1
}

// ValidSegments returns the segments with at least two waypoints.
func (r *Route) ValidSegments() []*Segment {
	out := make([]*Segment, 0, len(r.Segments))
	for _, s := range r.Segments {
		if s.IsValid() {
			out = append(out, s)
		}
	}
	return out
}

// HasValidSegment reports whether at least one segment is valid.
func (r *Route) HasValidSegment() bool {
	for _, s := range r.Segments {
		if s.IsValid() {
			return true
		}
	}
	return false
}

// Flatten turns the segment list into a flat list of moded waypoints.
// A boundary waypoint shared by consecutive segments appears once, tagged with
// the mode of the earlier segment.
func (r *Route) Flatten() []ModedPoint {
	var out []ModedPoint
	var prev *Segment
	for _, s := range r.Segments {
		wps := s.Waypoints
		if prev != nil && len(prev.Waypoints) > 0 && len(wps) > 0 &&
			wps[0] == prev.Waypoints[len(prev.Waypoints)-1] {
			wps = wps[1:]
		}
		for _, p := range wps {
			out = append(out, ModedPoint{Point: p, Mode: s.Mode})
		}
		if len(s.Waypoints) > 0 {
			prev = s
		}
	}
	return out
}

// ChangedFrom reports whether the route differs from backup in any attribute,
// segment mode, waypoint count or waypoint position beyond eps degrees.
func (r *Route) ChangedFrom(backup *Route, eps float64) bool {
	if backup == nil {
		return true
	}
	if r.Attributes != backup.Attributes {
		return true
	}
	if len(r.Segments) != len(backup.Segments) {
		return true
	}
	for i, s := range r.Segments {
		b := backup.Segments[i]
		if s.Mode != b.Mode || len(s.Waypoints) != len(b.Waypoints) {
			return true
		}
		for j, p := range s.Waypoints {
			q := b.Waypoints[j]
			if math.Abs(p.Lat-q.Lat) > eps || math.Abs(p.Lon-q.Lon) > eps {
				return true
			}
		}
	}
	return false
}
