package routing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/trailmark/routeplanner/pkg/core"
)

// ErrUnknownProvider is returned by NewProvider for unsupported names.
var ErrUnknownProvider = errors.New("unknown routing provider")

// Provider talks to one routing service.
type Provider interface {
	Name() string
	Profile() string
	Route(ctx context.Context, waypoints []core.Point) ([]core.Point, error)
}

// HTTPDoer is the subset of *http.Client used by providers.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ProviderConfig selects and configures a provider.
type ProviderConfig struct {
	Name    string
	BaseURL string
	APIKey  string
	Profile string
	Timeout time.Duration
}

// NewProvider creates the provider named in cfg.
func NewProvider(cfg ProviderConfig) (Provider, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	doer := &http.Client{Timeout: timeout}

	switch strings.ToLower(cfg.Name) {
	case "ors", "openrouteservice":
		return NewORSProviderWithDoer(cfg.BaseURL, cfg.APIKey, cfg.Profile, doer), nil
	case "osrm":
		return NewOSRMProviderWithDoer(cfg.BaseURL, cfg.Profile, doer), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Name)
	}
}

// checkResponse converts non-success responses into errors.
func checkResponse(resp *http.Response) error {
	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("rate limit exceeded")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("API error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}
