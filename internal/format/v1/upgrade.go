package v1

import (
	"fmt"

	"github.com/trailmark/routeplanner/pkg/core"
)

// Attributes lifts the legacy fields into the current attribute model.
// Unknown route types and networks fall back to the defaults; free-text
// colors are mapped by core.ParseColor.
func (r Route) Attributes() core.Attributes {
	attrs := core.Attributes{
		Symbol:     r.Symbol,
		Name:       r.Name,
		Ref:        r.Ref,
		Wikidata:   r.Wikidata,
		CustomData: r.CustomData,
	}
	if rt, err := core.ParseRouteType(r.Type); err == nil {
		attrs.RouteType = rt
	}
	if n, err := core.ParseNetwork(r.Network); err == nil {
		attrs.Network = n
	}
	attrs.Color, attrs.CustomColor = core.ParseColor(r.Color)
	return attrs.WithDefaults()
}

// Flat returns the waypoints tagged with their effective mode. A route
// without a mode is treated as routing.
func (r Route) Flat() ([]core.ModedPoint, error) {
	routeMode := core.ModeRouting
	if r.Mode != "" {
		m, err := core.ParseMode(r.Mode)
		if err != nil {
			return nil, fmt.Errorf("route %q: %w", r.Name, err)
		}
		routeMode = m
	}

	flat := make([]core.ModedPoint, 0, len(r.Waypoints))
	for i, wp := range r.Waypoints {
		mode := routeMode
		if wp.Mode != "" {
			m, err := core.ParseMode(wp.Mode)
			if err != nil {
				return nil, fmt.Errorf("route %q waypoint %d: %w", r.Name, i, err)
			}
			mode = m
		}
		flat = append(flat, core.ModedPoint{
			Point: core.Point{Lat: wp.Lat, Lon: wp.Lon},
			Mode:  mode,
		})
	}
	return flat, nil
}
