package main

import (
	"fmt"
	"strings"

	"github.com/trailmark/routeplanner/internal/config"
	"github.com/trailmark/routeplanner/internal/database"
	"github.com/trailmark/routeplanner/internal/routing"
	"github.com/trailmark/routeplanner/internal/routing/cache"
	"github.com/trailmark/routeplanner/internal/store"
)

// newStore builds the routing client and an empty store on top of it.
func newStore() (*store.Store, func(), error) {
	client, closeCache, err := newRoutingClient(config.GetRoutingConfig(), config.GetCacheConfig())
	if err != nil {
		return nil, nil, err
	}
	st := store.New(client,
		store.WithLogger(Logger),
		store.WithMaxWaypoints(client.MaxWaypoints()),
	)
	activeStore.Store(st)
	return st, func() {
		activeStore.Store(nil)
		st.Close()
		if err := closeCache(); err != nil {
			Logger.Warn("Failed to close routing cache", "error", err)
		}
	}, nil
}

func newRoutingClient(rc config.RoutingConfig, cc config.CacheConfig) (*routing.Client, func() error, error) {
	provider, err := routing.NewProvider(routing.ProviderConfig{
		Name:    rc.Provider,
		BaseURL: rc.BaseURL,
		APIKey:  rc.APIKey,
		Profile: rc.Profile,
		Timeout: rc.Timeout,
	})
	if err != nil {
		return nil, nil, err
	}

	opts := []routing.Option{
		routing.WithMaxWaypoints(rc.MaxWaypoints),
		routing.WithLogger(Logger),
	}
	if rc.RateLimit > 0 {
		opts = append(opts, routing.WithRateLimit(rc.RateLimit, rc.Burst))
	}

	c, closeCache, err := createCache(cc)
	if err != nil {
		return nil, nil, err
	}
	if c != nil {
		opts = append(opts, routing.WithCache(c))
	}

	client, err := routing.NewClient(provider, opts...)
	if err != nil {
		_ = closeCache()
		return nil, nil, fmt.Errorf("failed to create routing client: %w", err)
	}
	Logger.Info("Routing client initialized", "provider", provider.Name(), "profile", provider.Profile())
	return client, closeCache, nil
}

func createCache(cc config.CacheConfig) (routing.Cache, func() error, error) {
	noop := func() error { return nil }

	switch strings.ToLower(cc.Type) {
	case "", "none":
		Logger.Info("Routing cache disabled")
		return nil, noop, nil

	case "sqlite":
		m := database.NewManager(zeroLogger("database"))
		if err := m.Open(AppName + "-cache"); err != nil {
			return nil, nil, err
		}
		c, err := cache.NewSQL(m, cc.MaxEntries)
		if err != nil {
			_ = m.Close()
			return nil, nil, fmt.Errorf("failed to create SQLite cache: %w", err)
		}
		Logger.Info("SQLite routing cache initialized", "maxEntries", cc.MaxEntries)
		return c, m.Close, nil

	case "memory":
		Logger.Info("Memory routing cache initialized", "maxEntries", cc.MaxEntries)
		return cache.NewMemory(cc.MaxEntries), noop, nil

	default:
		return nil, nil, fmt.Errorf("unknown cache type %q", cc.Type)
	}
}
