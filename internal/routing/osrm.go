package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/trailmark/routeplanner/internal/geo"
	"github.com/trailmark/routeplanner/pkg/core"
)

const (
	defaultOSRMURL     = "https://router.project-osrm.org"
	defaultOSRMProfile = "foot"
)

// OSRMProvider queries an OSRM route service.
type OSRMProvider struct {
	baseURL    string
	profile    string
	httpClient HTTPDoer
}

// NewOSRMProvider creates an OSRM provider.
func NewOSRMProvider(baseURL, profile string) *OSRMProvider {
	return NewOSRMProviderWithDoer(baseURL, profile, &http.Client{Timeout: 30 * time.Second})
}

// NewOSRMProviderWithDoer creates an OSRM provider using doer for HTTP
// requests.
func NewOSRMProviderWithDoer(baseURL, profile string, doer HTTPDoer) *OSRMProvider {
	if baseURL == "" {
		baseURL = defaultOSRMURL
	}
	if profile == "" {
		profile = defaultOSRMProfile
	}
	return &OSRMProvider{
		baseURL:    strings.TrimRight(baseURL, "/"),
		profile:    profile,
		httpClient: doer,
	}
}

// Name implements Provider.
func (p *OSRMProvider) Name() string { return "osrm" }

// Profile implements Provider.
func (p *OSRMProvider) Profile() string { return p.profile }

type osrmResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Routes  []struct {
		Geometry string  `json:"geometry"`
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
	} `json:"routes"`
}

// Route implements Provider.
func (p *OSRMProvider) Route(ctx context.Context, waypoints []core.Point) ([]core.Point, error) {
	coords := make([]string, len(waypoints))
	for i, w := range waypoints {
		coords[i] = strconv.FormatFloat(w.Lon, 'f', 6, 64) + "," + strconv.FormatFloat(w.Lat, 'f', 6, 64)
	}
	url := fmt.Sprintf("%s/route/v1/%s/%s?overview=full&geometries=polyline&steps=false",
		p.baseURL, p.profile, strings.Join(coords, ";"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if err := checkResponse(resp); err != nil {
		return nil, err
	}

	var response osrmResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if response.Code != "Ok" {
		return nil, fmt.Errorf("osrm returned %s: %s", response.Code, response.Message)
	}
	if len(response.Routes) == 0 {
		return nil, fmt.Errorf("no routes found in response")
	}

	return geo.DecodePolyline(response.Routes[0].Geometry)
}
