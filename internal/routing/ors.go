package routing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/trailmark/routeplanner/internal/geo"
	"github.com/trailmark/routeplanner/pkg/core"
)

const (
	defaultORSURL     = "https://api.openrouteservice.org"
	defaultORSProfile = "foot-hiking"
)

// ORSProvider queries the openrouteservice directions API.
type ORSProvider struct {
	baseURL    string
	apiKey     string
	profile    string
	httpClient HTTPDoer
}

// NewORSProvider creates an openrouteservice provider.
func NewORSProvider(baseURL, apiKey, profile string) *ORSProvider {
	return NewORSProviderWithDoer(baseURL, apiKey, profile, &http.Client{Timeout: 30 * time.Second})
}

// NewORSProviderWithDoer creates an openrouteservice provider using doer for
// HTTP requests.
func NewORSProviderWithDoer(baseURL, apiKey, profile string, doer HTTPDoer) *ORSProvider {
	if baseURL == "" {
		baseURL = defaultORSURL
	}
	if profile == "" {
		profile = defaultORSProfile
	}
	return &ORSProvider{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		profile:    profile,
		httpClient: doer,
	}
}

// Name implements Provider.
func (p *ORSProvider) Name() string { return "ors" }

// Profile implements Provider.
func (p *ORSProvider) Profile() string { return p.profile }

type orsRequest struct {
	Coordinates  [][2]float64 `json:"coordinates"`
	Instructions bool         `json:"instructions"`
}

type orsResponse struct {
	Routes []orsRoute `json:"routes"`
}

type orsRoute struct {
	Geometry string `json:"geometry"`
	Summary  struct {
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
	} `json:"summary"`
}

// Route implements Provider.
func (p *ORSProvider) Route(ctx context.Context, waypoints []core.Point) ([]core.Point, error) {
	body := orsRequest{Coordinates: make([][2]float64, len(waypoints))}
	for i, w := range waypoints {
		body.Coordinates[i] = [2]float64{w.Lon, w.Lat}
	}
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := p.baseURL + "/v2/directions/" + p.profile
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", p.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if err := checkResponse(resp); err != nil {
		return nil, err
	}

	var response orsResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(response.Routes) == 0 {
		return nil, fmt.Errorf("no routes found in response")
	}

	return geo.DecodePolyline(response.Routes[0].Geometry)
}
