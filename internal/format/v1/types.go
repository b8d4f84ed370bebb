// Package v1 reads the legacy flat route file format. A route carries a
// single mode and an ordered waypoint list; individual waypoints may
// override the mode. Colors are free text.
package v1

// Document is the root JSON structure of a legacy file. Version is 1 or
// absent.
type Document struct {
	Version int     `json:"version,omitempty"`
	Routes  []Route `json:"routes"`
}

// Route is a legacy route.
type Route struct {
	Name       string     `json:"name"`
	Ref        string     `json:"ref"`
	Type       string     `json:"type"`
	Color      string     `json:"color"`
	Symbol     string     `json:"symbol"`
	Network    string     `json:"network"`
	Wikidata   string     `json:"wikidata"`
	CustomData string     `json:"customData"`
	Mode       string     `json:"mode"`
	Waypoints  []Waypoint `json:"waypoints"`
}

// Waypoint is a legacy waypoint. Mode is empty when it inherits the route
// mode.
type Waypoint struct {
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
	Mode string  `json:"mode,omitempty"`
}
