package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// FileName is the config file looked up in the config directory.
const FileName = "routeplanner.cfg.json"

// EnvPrefix prefixes environment overrides, e.g. ROUTEPLANNER_ROUTING_APIKEY.
const EnvPrefix = "ROUTEPLANNER"

// RoutingConfig holds routing service settings
type RoutingConfig struct {
	Provider     string        `json:"provider" mapstructure:"provider"`
	BaseURL      string        `json:"baseUrl" mapstructure:"baseUrl"`
	APIKey       string        `json:"apiKey" mapstructure:"apiKey"`
	Profile      string        `json:"profile" mapstructure:"profile"`
	MaxWaypoints int           `json:"maxWaypoints" mapstructure:"maxWaypoints"`
	Timeout      time.Duration `json:"timeout" mapstructure:"timeout"`
	RateLimit    float64       `json:"rateLimit" mapstructure:"rateLimit"`
	Burst        int           `json:"burst" mapstructure:"burst"`
}

// CacheConfig holds routing response cache settings
type CacheConfig struct {
	Type       string `json:"type" mapstructure:"type"`
	MaxEntries int    `json:"maxEntries" mapstructure:"maxEntries"`
}

// OTelConfig holds OpenTelemetry settings
type OTelConfig struct {
	Enabled      bool          `json:"enabled" mapstructure:"enabled"`
	ServiceName  string        `json:"serviceName" mapstructure:"serviceName"`
	BatchTimeout time.Duration `json:"batchTimeout" mapstructure:"batchTimeout"`
	Endpoint     string        `json:"endpoint" mapstructure:"endpoint"`
	Insecure     bool          `json:"insecure" mapstructure:"insecure"`
}

// GeoConfig holds map interaction settings
type GeoConfig struct {
	HitTolerancePx float64 `json:"hitTolerancePx" mapstructure:"hitTolerancePx"`
	Zoom           float64 `json:"zoom" mapstructure:"zoom"`
}

func setDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./logs")

	viper.SetDefault("routing.provider", "ors")
	viper.SetDefault("routing.baseUrl", "")
	viper.SetDefault("routing.apiKey", "")
	viper.SetDefault("routing.profile", "")
	viper.SetDefault("routing.maxWaypoints", 15)
	viper.SetDefault("routing.timeout", "15s")
	viper.SetDefault("routing.rateLimit", 2.0)
	viper.SetDefault("routing.burst", 4)

	viper.SetDefault("cache.type", "memory")
	viper.SetDefault("cache.maxEntries", 512)

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "routeplanner")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)

	viper.SetDefault("geo.hitTolerancePx", 10.0)
	viper.SetDefault("geo.zoom", 14.0)
}

// Load sets default values, applies a .env file and environment overrides,
// and reads the JSON config file from configDir. A missing config file is not
// an error; a malformed one is.
func Load(configDir string) error {
	setDefaults()

	envFile := filepath.Join(configDir, ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("error reading env file: %w", err)
	}
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("error reading config file: %w", err)
	}

	return nil
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetDuration returns a duration config value.
func GetDuration(key string) time.Duration {
	return viper.GetDuration(key)
}

// GetFloat64 returns a float config value.
func GetFloat64(key string) float64 {
	return viper.GetFloat64(key)
}

// GetRoutingConfig returns the routing service settings.
func GetRoutingConfig() RoutingConfig {
	return RoutingConfig{
		Provider:     viper.GetString("routing.provider"),
		BaseURL:      viper.GetString("routing.baseUrl"),
		APIKey:       viper.GetString("routing.apiKey"),
		Profile:      viper.GetString("routing.profile"),
		MaxWaypoints: viper.GetInt("routing.maxWaypoints"),
		Timeout:      viper.GetDuration("routing.timeout"),
		RateLimit:    viper.GetFloat64("routing.rateLimit"),
		Burst:        viper.GetInt("routing.burst"),
	}
}

// GetCacheConfig returns the routing cache settings.
func GetCacheConfig() CacheConfig {
	return CacheConfig{
		Type:       viper.GetString("cache.type"),
		MaxEntries: viper.GetInt("cache.maxEntries"),
	}
}

// GetOTelConfig returns the OpenTelemetry settings.
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:      viper.GetBool("otel.enabled"),
		ServiceName:  viper.GetString("otel.serviceName"),
		BatchTimeout: viper.GetDuration("otel.batchTimeout"),
		Endpoint:     viper.GetString("otel.endpoint"),
		Insecure:     viper.GetBool("otel.insecure"),
	}
}

// GetGeoConfig returns the map interaction settings.
func GetGeoConfig() GeoConfig {
	return GeoConfig{
		HitTolerancePx: viper.GetFloat64("geo.hitTolerancePx"),
		Zoom:           viper.GetFloat64("geo.zoom"),
	}
}
