package v2

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/trailmark/routeplanner/internal/geo"
	"github.com/trailmark/routeplanner/pkg/core"
)

// BuildOptions controls document metadata.
type BuildOptions struct {
	Generator string
	// Now is used as the export time. Zero means time.Now.
	Now time.Time
}

// Build creates a Document from routes. Invalid segments are not written and
// routes left without segments are skipped.
func Build(routes []*core.Route, opts BuildOptions) Document {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	doc := Document{
		Version:    Version,
		ID:         uuid.NewString(),
		Generator:  opts.Generator,
		ExportedAt: now.UTC(),
		Routes:     make([]Route, 0, len(routes)),
	}

	for _, r := range routes {
		segs := r.ValidSegments()
		if len(segs) == 0 {
			continue
		}
		out := Route{
			ID:         uuid.NewString(),
			Title:      r.Title(),
			Attributes: r.Attributes,
			Segments:   make([]Segment, 0, len(segs)),
		}
		for _, s := range segs {
			seg := Segment{
				Mode:      s.Mode,
				Waypoints: slices.Clone(s.Waypoints),
			}
			if s.Mode == core.ModeRouting && len(s.Geometry) >= 2 {
				seg.Geometry = geo.EncodePolylinePrecision(s.Geometry, GeometryPrecision)
				seg.Precision = GeometryPrecision
			}
			out.Segments = append(out.Segments, seg)
		}
		doc.Routes = append(doc.Routes, out)
	}

	return doc
}

// ToCore converts the stored segments back into the model. Manual
// geometry is not stored separately and is left for recompute.
func (r Route) ToCore() ([]*core.Segment, error) {
	out := make([]*core.Segment, 0, len(r.Segments))
	for i, s := range r.Segments {
		mode, err := core.ParseMode(string(s.Mode))
		if err != nil {
			return nil, fmt.Errorf("segment %d: %w", i, err)
		}
		seg := &core.Segment{
			Mode:      mode,
			Waypoints: slices.Clone(s.Waypoints),
		}
		if s.Geometry != "" && mode == core.ModeRouting {
			path, err := geo.DecodePolylinePrecision(s.Geometry, cmp.Or(s.Precision, geo.PolylinePrecision))
			if err != nil {
				return nil, fmt.Errorf("segment %d: %w", i, err)
			}
			seg.Geometry = path
		}
		out = append(out, seg)
	}
	return out, nil
}
