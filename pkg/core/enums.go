// pkg/core/enums.go
package core

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownMode is returned when a segment mode string is not recognised.
	ErrUnknownMode = errors.New("unknown segment mode")
	// ErrUnknownRouteType is returned when a route type string is not recognised.
	ErrUnknownRouteType = errors.New("unknown route type")
	// ErrUnknownNetwork is returned when a network string is not recognised.
	ErrUnknownNetwork = errors.New("unknown network")
)

// Mode selects how a segment's geometry is produced.
type Mode string

const (
	// ModeRouting geometry comes from the routing service.
	ModeRouting Mode = "routing"
	// ModeManual geometry is the waypoints joined by straight lines.
	ModeManual Mode = "manual"
)

// ParseMode parses a mode name. Matching is case-insensitive.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeRouting:
		return ModeRouting, nil
	case ModeManual:
		return ModeManual, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// RouteType is the OSM route=* value.
type RouteType string

const (
	RouteTypeHiking  RouteType = "hiking"
	RouteTypeFoot    RouteType = "foot"
	RouteTypeBicycle RouteType = "bicycle"
	RouteTypeMTB     RouteType = "mtb"
	RouteTypeHorse   RouteType = "horse"
	RouteTypeRunning RouteType = "running"
	RouteTypeCanoe   RouteType = "canoe"
)

var routeTypes = []RouteType{
	RouteTypeHiking, RouteTypeFoot, RouteTypeBicycle, RouteTypeMTB,
	RouteTypeHorse, RouteTypeRunning, RouteTypeCanoe,
}

// ParseRouteType parses a route type. An empty string yields the default.
func ParseRouteType(s string) (RouteType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return RouteTypeHiking, nil
	}
	for _, rt := range routeTypes {
		if string(rt) == s {
			return rt, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRouteType, s)
}

// Network is the OSM network=* scope of a walking route.
type Network string

const (
	NetworkIwn Network = "iwn"
	NetworkNwn Network = "nwn"
	NetworkRwn Network = "rwn"
	NetworkLwn Network = "lwn"
)

// ParseNetwork parses a network. An empty string yields the default.
func ParseNetwork(s string) (Network, error) {
	switch n := Network(strings.ToLower(strings.TrimSpace(s))); n {
	case "":
		return NetworkNwn, nil
	case NetworkIwn, NetworkNwn, NetworkRwn, NetworkLwn:
		return n, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownNetwork, s)
}

// Color is the symbolic route color. The zero value means no color is set.
type Color string

const (
	ColorNone   Color = ""
	ColorRed    Color = "red"
	ColorBlue   Color = "blue"
	ColorGreen  Color = "green"
	ColorYellow Color = "yellow"
	ColorOrange Color = "orange"
	ColorPurple Color = "purple"
	ColorBrown  Color = "brown"
	ColorBlack  Color = "black"
	ColorWhite  Color = "white"
	ColorOther  Color = "other"
)

// FallbackColor is drawn when a route has no color.
const FallbackColor = "#808080"

var colorHex = map[Color]string{
	ColorRed:    "#e53935",
	ColorBlue:   "#1e88e5",
	ColorGreen:  "#43a047",
	ColorYellow: "#fdd835",
	ColorOrange: "#fb8c00",
	ColorPurple: "#8e24aa",
	ColorBrown:  "#6d4c41",
	ColorBlack:  "#212121",
	ColorWhite:  "#fafafa",
}

// Hex resolves the color to a CSS color string. custom is used for
// ColorOther and the gray fallback for an unset color.
func (c Color) Hex(custom string) string {
	if c == ColorOther {
		if custom = strings.TrimSpace(custom); custom != "" {
			return custom
		}
		return FallbackColor
	}
	if h, ok := colorHex[c]; ok {
		return h
	}
	return FallbackColor
}

// ParseColor maps a free-text color from older files onto the enum. Text
// that is not an enum member becomes ColorOther with the raw value as the
// custom color.
func ParseColor(raw string) (Color, string) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return ColorNone, ""
	}
	c := Color(s)
	if _, ok := colorHex[c]; ok {
		return c, ""
	}
	return ColorOther, strings.TrimSpace(raw)
}
