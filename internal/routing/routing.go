// Package routing computes road-network geometry between control waypoints
// through an external routing service.
package routing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/trailmark/routeplanner/pkg/core"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/time/rate"
)

// MaxWaypoints is the default number of waypoints, endpoints included, that
// a single routing request may carry.
const MaxWaypoints = 15

var (
	// ErrRoutingFailed wraps every network, service or payload failure.
	ErrRoutingFailed = errors.New("routing failed")
	// ErrTooManyWaypoints is returned when a request exceeds the ceiling.
	// The client never subdivides requests.
	ErrTooManyWaypoints = errors.New("too many waypoints for a routing request")
	// ErrTooFewWaypoints is returned for requests with fewer than two waypoints.
	ErrTooFewWaypoints = errors.New("routing needs at least two waypoints")
)

// Router computes a detailed path through ordered waypoints.
type Router interface {
	ComputeRoute(ctx context.Context, waypoints []core.Point) ([]core.Point, error)
}

// Cache stores computed paths keyed by profile and waypoints.
type Cache interface {
	Get(ctx context.Context, key string) ([]core.Point, bool, error)
	Put(ctx context.Context, key string, path []core.Point) error
}

// Option configures a Client.
type Option func(*Client)

// WithCache enables response caching.
func WithCache(cache Cache) Option {
	return func(c *Client) {
		c.cache = cache
	}
}

// WithRateLimit limits requests to the provider. A non-positive rps disables
// limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), max(burst, 1))
	}
}

// WithMaxWaypoints overrides the waypoint ceiling.
func WithMaxWaypoints(n int) Option {
	return func(c *Client) {
		if n >= 2 {
			c.maxWaypoints = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.log = l
	}
}

// Client is the Router used by the engine. It enforces the waypoint ceiling,
// consults the cache, rate-limits requests and exposes a loading flag.
type Client struct {
	provider     Provider
	cache        Cache
	limiter      *rate.Limiter
	maxWaypoints int
	log          *slog.Logger

	mu        sync.Mutex
	inflight  int
	observers map[int]func(bool)
	nextObs   int

	requests  metric.Int64Counter
	failures  metric.Int64Counter
	cacheHits metric.Int64Counter
	duration  metric.Float64Histogram
}

// NewClient creates a Client backed by the given provider.
// Uses the global OTel meter for metrics (no-op if not configured).
func NewClient(p Provider, opts ...Option) (*Client, error) {
	c := &Client{
		provider:     p,
		maxWaypoints: MaxWaypoints,
		log:          slog.Default(),
		observers:    make(map[int]func(bool)),
	}
	for _, opt := range opts {
		opt(c)
	}

	m := meter()
	var err error

	c.requests, err = m.Int64Counter(
		"routing.requests",
		metric.WithDescription("Routing requests sent to the provider"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating requests counter: %w", err)
	}

	c.failures, err = m.Int64Counter(
		"routing.failures",
		metric.WithDescription("Routing requests that failed"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating failures counter: %w", err)
	}

	c.cacheHits, err = m.Int64Counter(
		"routing.cache.hits",
		metric.WithDescription("Routing requests answered from cache"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating cache hits counter: %w", err)
	}

	c.duration, err = m.Float64Histogram(
		"routing.duration",
		metric.WithDescription("Provider round-trip time"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating duration histogram: %w", err)
	}

	return c, nil
}

// MaxWaypoints returns the configured ceiling.
func (c *Client) MaxWaypoints() int {
	return c.maxWaypoints
}

// Loading reports whether a provider request is in flight.
func (c *Client) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inflight > 0
}

// OnLoadingChange registers fn to be called whenever the loading flag flips.
// The returned function removes the observer.
func (c *Client) OnLoadingChange(fn func(loading bool)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextObs
	c.nextObs++
	c.observers[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.observers, id)
	}
}

func (c *Client) setLoading(delta int) {
	c.mu.Lock()
	was := c.inflight > 0
	c.inflight += delta
	now := c.inflight > 0
	var notify []func(bool)
	if was != now {
		for _, fn := range c.observers {
			notify = append(notify, fn)
		}
	}
	c.mu.Unlock()

	for _, fn := range notify {
		fn(now)
	}
}

// ComputeRoute returns the provider's path through waypoints. Any failure is
// returned wrapped in ErrRoutingFailed and is never retried.
func (c *Client) ComputeRoute(ctx context.Context, waypoints []core.Point) ([]core.Point, error) {
	if len(waypoints) < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrTooFewWaypoints, len(waypoints))
	}
	if len(waypoints) > c.maxWaypoints {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyWaypoints, len(waypoints), c.maxWaypoints)
	}

	attrs := metric.WithAttributes(attribute.String("provider", c.provider.Name()))

	var key string
	if c.cache != nil {
		key = Key(c.provider.Profile(), waypoints)
		path, ok, err := c.cache.Get(ctx, key)
		if err != nil {
			c.log.Warn("routing cache read failed", "error", err)
		} else if ok {
			c.cacheHits.Add(ctx, 1, attrs)
			return slices.Clone(path), nil
		}
	}

	c.setLoading(1)
	defer c.setLoading(-1)

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrRoutingFailed, err)
		}
	}

	c.requests.Add(ctx, 1, attrs)
	start := time.Now()
	path, err := c.provider.Route(ctx, waypoints)
	c.duration.Record(ctx, time.Since(start).Seconds(), attrs)

	if err == nil && len(path) < 2 {
		err = fmt.Errorf("provider returned %d points", len(path))
	}
	if err != nil {
		c.failures.Add(ctx, 1, attrs)
		c.log.Warn("routing request failed",
			"provider", c.provider.Name(),
			"waypoints", len(waypoints),
			"duration", time.Since(start),
			"error", err)
		return nil, fmt.Errorf("%w: %w", ErrRoutingFailed, err)
	}

	c.log.Debug("routing request complete",
		"provider", c.provider.Name(),
		"waypoints", len(waypoints),
		"points", len(path),
		"duration", time.Since(start))

	if c.cache != nil {
		if err := c.cache.Put(ctx, key, path); err != nil {
			c.log.Warn("routing cache write failed", "error", err)
		}
	}

	return path, nil
}
