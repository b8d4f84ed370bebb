package store

import (
	"strings"

	"github.com/trailmark/routeplanner/internal/geo"
	"github.com/trailmark/routeplanner/pkg/core"
)

// Filter narrows Search results. Zero fields match everything.
type Filter struct {
	Query     string
	RouteType core.RouteType
}

func (f Filter) match(r *core.Route) bool {
	if f.RouteType != "" && r.Attributes.RouteType != f.RouteType {
		return false
	}
	q := strings.ToLower(strings.TrimSpace(f.Query))
	if q == "" {
		return true
	}
	for _, field := range []string{r.Title(), r.Attributes.Name, r.Attributes.Ref, r.Attributes.Wikidata} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

// Search returns copies of the routes matching f in insertion order.
func (s *Store) Search(f Filter) []*core.Route {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*core.Route
	for _, r := range s.routes {
		if f.match(r) {
			out = append(out, r.Clone())
		}
	}
	return out
}

// RoutesAt returns the routes whose line passes within tolerancePx pixels of
// p, closest first.
func (s *Store) RoutesAt(p core.Point, tolerancePx float64, proj geo.PixelProjector) []geo.RouteHit {
	s.mu.Lock()
	defer s.mu.Unlock()
	routes := make([]*core.Route, len(s.routes))
	for i, r := range s.routes {
		routes[i] = r.Clone()
	}
	return geo.FindRoutesAtPoint(p, routes, tolerancePx, proj)
}
