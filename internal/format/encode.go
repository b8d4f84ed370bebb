package format

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"image/color"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	geom "github.com/peterstace/simplefeatures/geom"
	v2 "github.com/trailmark/routeplanner/internal/format/v2"
	"github.com/trailmark/routeplanner/internal/geo"
	"github.com/trailmark/routeplanner/pkg/core"
	kml "github.com/twpayne/go-kml"
)

// JSONOptions controls EncodeJSON.
type JSONOptions struct {
	Gzip      bool
	Indent    bool
	Generator string
	Now       time.Time
}

// EncodeJSON writes routes as a segmented v2 document.
func EncodeJSON(w io.Writer, routes []*core.Route, opts JSONOptions) error {
	doc := v2.Build(routes, v2.BuildOptions{Generator: opts.Generator, Now: opts.Now})

	if opts.Gzip {
		gz := gzip.NewWriter(w)
		if err := writeJSON(gz, doc, opts.Indent); err != nil {
			gz.Close()
			return err
		}
		return gz.Close()
	}
	return writeJSON(w, doc, opts.Indent)
}

func writeJSON(w io.Writer, v any, indent bool) error {
	enc := json.NewEncoder(w)
	if indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	return nil
}

// EncodeGeoJSON writes routes as a FeatureCollection with one MultiLineString
// feature per route.
func EncodeGeoJSON(w io.Writer, routes []*core.Route) error {
	fc := geom.GeoJSONFeatureCollection{}
	for _, r := range routes {
		segs := r.ValidSegments()
		lines := make([]geom.LineString, 0, len(segs))
		for i, s := range segs {
			ls, err := geo.LineString(lineOf(s))
			if err != nil {
				return fmt.Errorf("route %d segment %d: %w", r.ID, i, err)
			}
			lines = append(lines, ls)
		}
		if len(lines) == 0 {
			continue
		}

		fc = append(fc, geom.GeoJSONFeature{
			ID:         uuid.NewString(),
			Geometry:   geom.NewMultiLineString(lines).AsGeometry(),
			Properties: properties(r),
		})
	}
	return writeJSON(w, fc, false)
}

func properties(r *core.Route) map[string]any {
	a := r.Attributes
	props := map[string]any{
		"title":   r.Title(),
		"type":    string(a.RouteType),
		"network": string(a.Network),
		"stroke":  r.DisplayColor(),
		"length":  geo.RouteLengthMeters(r),
	}
	for k, v := range map[string]string{
		"name":       a.Name,
		"ref":        a.Ref,
		"symbol":     a.Symbol,
		"wikidata":   a.Wikidata,
		"customData": a.CustomData,
		"color":      string(a.Color),
	} {
		if v != "" {
			props[k] = v
		}
	}
	return props
}

// lineOf returns the geometry of s, or its waypoints when no geometry has
// been computed.
func lineOf(s *core.Segment) []core.Point {
	if len(s.Geometry) >= 2 {
		return s.Geometry
	}
	return s.Waypoints
}

// EncodeKML writes routes as a KML document with one placemark per route.
func EncodeKML(w io.Writer, name string, routes []*core.Route) error {
	children := []kml.Element{kml.Name(name)}
	for _, r := range routes {
		segs := r.ValidSegments()
		if len(segs) == 0 {
			continue
		}

		styleID := fmt.Sprintf("route-%d", r.ID)
		children = append(children, kml.SharedStyle(styleID,
			kml.LineStyle(
				kml.Color(hexColor(r.DisplayColor())),
				kml.Width(3),
			),
		))

		lines := make([]kml.Element, 0, len(segs))
		for _, s := range segs {
			pts := lineOf(s)
			coords := make([]kml.Coordinate, len(pts))
			for i, p := range pts {
				coords[i] = kml.Coordinate{Lon: p.Lon, Lat: p.Lat}
			}
			lines = append(lines, kml.LineString(kml.Coordinates(coords...)))
		}

		children = append(children, kml.Placemark(
			kml.Name(r.Title()),
			kml.Description(string(r.Attributes.RouteType)),
			kml.StyleURL("#"+styleID),
			kml.MultiGeometry(lines...),
		))
	}

	if err := kml.KML(kml.Document(children...)).WriteIndent(w, "", "  "); err != nil {
		return fmt.Errorf("failed to encode kml: %w", err)
	}
	return nil
}

// hexColor parses #rrggbb. Anything else is drawn gray.
func hexColor(s string) color.Color {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) == 6 {
		if v, err := strconv.ParseUint(s, 16, 32); err == nil {
			return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}
		}
	}
	return color.RGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xff}
}
