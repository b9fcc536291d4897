// Package config provides configuration loading and management using koanf.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Default configuration values.
const (
	// DefaultServerPort is the default HTTP server port.
	DefaultServerPort = 8080

	// DefaultMaxRequestSize is the default maximum request body size (1MB).
	DefaultMaxRequestSize = 1 << 20 // 1048576 bytes

	// DefaultTransportMaxIdleConns is the default max idle connections.
	DefaultTransportMaxIdleConns = 100

	// DefaultTransportMaxIdleConnsPerHost is the default max idle connections per host.
	DefaultTransportMaxIdleConnsPerHost = 10

	// DefaultLogFileMaxSizeMB is the default max log file size in megabytes.
	DefaultLogFileMaxSizeMB = 100

	// DefaultLogFileMaxBackups is the default number of old log files to retain.
	DefaultLogFileMaxBackups = 3

	// DefaultLogFileMaxAgeDays is the default max days to retain old log files.
	DefaultLogFileMaxAgeDays = 28

	// DefaultRedisPort is the Redis port used when none is configured.
	DefaultRedisPort = 6379

	// DefaultCacheConnectAttempts bounds the startup connection loop.
	DefaultCacheConnectAttempts = 10

	// DefaultMetricsPort is the standalone metrics listener port.
	DefaultMetricsPort = 9100
)

// envPrefix marks environment variables that override configuration keys.
const envPrefix = "APP_"

// Config is the root configuration structure.
type Config struct {
	App       AppConfig       `koanf:"app"       validate:"required"`
	Server    ServerConfig    `koanf:"server"    validate:"required"`
	Log       LogConfig       `koanf:"log"       validate:"required"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
	Client    ClientConfig    `koanf:"client"    validate:"required"`
	Services  ServicesConfig  `koanf:"services"  validate:"required"`
	Cache     CacheConfig     `koanf:"cache"`
	Metrics   MetricsConfig   `koanf:"metrics"`
	CORS      CORSConfig      `koanf:"cors"`
}

// AppConfig contains application-level settings.
type AppConfig struct {
	Name        string `koanf:"name"        validate:"required"`
	Version     string `koanf:"version"     validate:"required"`
	Environment string `koanf:"environment" validate:"required,oneof=local dev qa prod test"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port            int           `koanf:"port"             validate:"required,min=1,max=65535"`
	Host            string        `koanf:"host"             validate:"required"`
	ReadTimeout     time.Duration `koanf:"read_timeout"     validate:"required,min=1s"`
	WriteTimeout    time.Duration `koanf:"write_timeout"    validate:"required,min=1s"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"     validate:"required,min=1s"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"required,min=1s"`
	MaxRequestSize  int64         `koanf:"max_request_size" validate:"required,min=1"`

	// RequestTimeout is the deadline ceiling for /api requests. It must sit
	// above the longest upstream call timeout.
	RequestTimeout time.Duration `koanf:"request_timeout" validate:"required,min=1s"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string        `koanf:"level"  validate:"required,oneof=trace debug info warn error"`
	Format string        `koanf:"format" validate:"required,oneof=json text pretty"`
	File   LogFileConfig `koanf:"file"`
}

// LogFileConfig contains rolling log file settings.
type LogFileConfig struct {
	Enabled    bool   `koanf:"enabled"`
	Path       string `koanf:"path"        validate:"required_if=Enabled true"`
	MaxSizeMB  int    `koanf:"max_size"    validate:"omitempty,min=1,max=1024"`
	MaxBackups int    `koanf:"max_backups" validate:"omitempty,min=0,max=100"`
	MaxAgeDays int    `koanf:"max_age"     validate:"omitempty,min=0,max=365"`
	Compress   bool   `koanf:"compress"`
}

// TelemetryConfig contains OpenTelemetry settings.
type TelemetryConfig struct {
	Enabled      bool    `koanf:"enabled"`
	Endpoint     string  `koanf:"endpoint"      validate:"required_if=Enabled true,omitempty,url"`
	ServiceName  string  `koanf:"service_name"  validate:"required_if=Enabled true"`
	SamplingRate float64 `koanf:"sampling_rate" validate:"min=0,max=1"`
}

// ClientConfig contains HTTP client settings for upstream services.
type ClientConfig struct {
	// Timeout is the per-call budget for calls that do not set their own.
	Timeout   time.Duration   `koanf:"timeout"    validate:"required,min=100ms"`
	UserAgent string          `koanf:"user_agent"`
	Transport TransportConfig `koanf:"transport"  validate:"required"`
}

// TransportConfig contains HTTP transport pool settings.
type TransportConfig struct {
	MaxIdleConns        int           `koanf:"max_idle_conns"          validate:"required,min=1"`
	MaxIdleConnsPerHost int           `koanf:"max_idle_conns_per_host" validate:"required,min=1"`
	IdleConnTimeout     time.Duration `koanf:"idle_conn_timeout"       validate:"required,min=1s"`
}

// ServicesConfig contains configuration for upstream services.
type ServicesConfig struct {
	PriceFetcher PriceFetcherConfig `koanf:"price_fetcher" validate:"required"`
}

// PriceFetcherConfig locates the price-fetcher service and bounds its calls.
type PriceFetcherConfig struct {
	BaseURL       string        `koanf:"base_url"       validate:"required,url"`
	Name          string        `koanf:"name"           validate:"required"`
	SearchTimeout time.Duration `koanf:"search_timeout" validate:"required,min=100ms"`
	PricesTimeout time.Duration `koanf:"prices_timeout" validate:"required,min=100ms"`
}

// CacheConfig contains the search cache settings.
type CacheConfig struct {
	// Enabled selects the Redis store; when false a no-op store is used.
	Enabled  bool          `koanf:"enabled"`
	Host     string        `koanf:"host"     validate:"required_if=Enabled true"`
	Port     int           `koanf:"port"     validate:"omitempty,min=1,max=65535"`
	Password string        `koanf:"password"`
	DB       int           `koanf:"db"       validate:"min=0,max=15"`
	TTL      time.Duration `koanf:"ttl"      validate:"required_if=Enabled true,omitempty,min=1s"`

	DialTimeout  time.Duration `koanf:"dial_timeout"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`

	ConnectAttempts int           `koanf:"connect_attempts" validate:"omitempty,min=1,max=100"`
	ConnectBackoff  time.Duration `koanf:"connect_backoff"`

	// Required makes exhausting the connect attempts fatal at startup.
	Required bool `koanf:"required"`
}

// Addr returns the host:port of the cache store.
func (c CacheConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// MetricsConfig contains the standalone Prometheus listener settings.
type MetricsConfig struct {
	Enabled bool `koanf:"enabled"`
	Port    int  `koanf:"port"    validate:"required_if=Enabled true,omitempty,min=1,max=65535"`
}

// CORSConfig contains cross-origin settings.
type CORSConfig struct {
	AllowedOrigins []string `koanf:"allowed_origins"`
}

// AllowAll reports whether every origin is allowed.
func (c CORSConfig) AllowAll() bool {
	if len(c.AllowedOrigins) == 0 {
		return true
	}

	for _, o := range c.AllowedOrigins {
		if o == "*" {
			return true
		}
	}

	return false
}

// defaults returns the default configuration values.
func defaults() map[string]any {
	return map[string]any{
		"app.name":        "api-gateway",
		"app.version":     "dev",
		"app.environment": "local",

		"server.port":             DefaultServerPort,
		"server.host":             "0.0.0.0",
		"server.read_timeout":     "30s",
		"server.write_timeout":    "35s",
		"server.idle_timeout":     "120s",
		"server.shutdown_timeout": "10s",
		"server.max_request_size": DefaultMaxRequestSize,
		"server.request_timeout":  "30s",

		"log.level":            "info",
		"log.format":           "json",
		"log.file.enabled":     false,
		"log.file.path":        "./logs/gateway.log",
		"log.file.max_size":    DefaultLogFileMaxSizeMB,
		"log.file.max_backups": DefaultLogFileMaxBackups,
		"log.file.max_age":     DefaultLogFileMaxAgeDays,
		"log.file.compress":    true,

		"telemetry.enabled":       false,
		"telemetry.endpoint":      "",
		"telemetry.service_name":  "api-gateway",
		"telemetry.sampling_rate": 1.0,

		"client.timeout":                           "10s",
		"client.user_agent":                        "",
		"client.transport.max_idle_conns":          DefaultTransportMaxIdleConns,
		"client.transport.max_idle_conns_per_host": DefaultTransportMaxIdleConnsPerHost,
		"client.transport.idle_conn_timeout":       "90s",

		"services.price_fetcher.base_url":       "http://price-fetcher:8000",
		"services.price_fetcher.name":           "price-fetcher",
		"services.price_fetcher.search_timeout": "15s",
		"services.price_fetcher.prices_timeout": "20s",

		"cache.enabled":          true,
		"cache.host":             "localhost",
		"cache.port":             DefaultRedisPort,
		"cache.password":         "",
		"cache.db":               0,
		"cache.ttl":              "300s",
		"cache.dial_timeout":     "2s",
		"cache.read_timeout":     "1s",
		"cache.write_timeout":    "1s",
		"cache.connect_attempts": DefaultCacheConnectAttempts,
		"cache.connect_backoff":  "2s",
		"cache.required":         true,

		"metrics.enabled": true,
		"metrics.port":    DefaultMetricsPort,

		"cors.allowed_origins": []string{"*"},
	}
}

// Load loads configuration with the following precedence (highest to lowest):
//  1. Environment variables (APP_ prefix)
//  2. Legacy deployment variables (PORT, PRICE_FETCHER_SERVICE_URL, REDIS_*)
//  3. Profile config file (configs/{profile}.yaml)
//  4. Base config file (configs/base.yaml)
//  5. Default values
func Load(profile string) (*Config, error) {
	k := koanf.New(".")

	// 1. Load defaults
	err := k.Load(confmap.Provider(defaults(), "."), nil)
	if err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	// 2. Load base config file if it exists
	err = loadFileIfExists(k, "configs/base.yaml")
	if err != nil {
		return nil, fmt.Errorf("loading base config: %w", err)
	}

	// 3. Load profile config file if it exists
	if profile != "" {
		profilePath := fmt.Sprintf("configs/%s.yaml", profile)

		err := loadFileIfExists(k, profilePath)
		if err != nil {
			return nil, fmt.Errorf("loading profile config %q: %w", profile, err)
		}
	}

	// 4. Load the variable names the gateway was historically deployed with
	err = k.Load(confmap.Provider(legacyEnv(os.LookupEnv), "."), nil)
	if err != nil {
		return nil, fmt.Errorf("loading legacy env vars: %w", err)
	}

	// 5. Load environment variables with APP_ prefix
	keys := envKeyIndex(k.Keys())

	err = k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return envKey(keys, s)
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("loading env vars: %w", err)
	}

	// Unmarshal into Config struct
	var cfg Config

	err = k.Unmarshal("", &cfg)
	if err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return &cfg, nil
}

// legacyEnv maps the pre-koanf deployment variables onto config keys.
// REDIS_OFF=true disables the cache.
func legacyEnv(lookup func(string) (string, bool)) map[string]any {
	out := make(map[string]any)

	mapping := map[string]string{
		"PORT":                      "server.port",
		"PRICE_FETCHER_SERVICE_URL": "services.price_fetcher.base_url",
		"REDIS_HOST":                "cache.host",
		"REDIS_PASSWORD":            "cache.password",
	}

	for name, key := range mapping {
		if v, ok := lookup(name); ok && v != "" {
			out[key] = v
		}
	}

	if v, ok := lookup("REDIS_OFF"); ok {
		out["cache.enabled"] = v != "true"
	}

	return out
}

// envKeyIndex maps the underscore form of every known key back to its dotted
// form, so APP_SERVER_READ_TIMEOUT resolves to server.read_timeout.
func envKeyIndex(known []string) map[string]string {
	index := make(map[string]string, len(known))
	for _, key := range known {
		index[strings.ReplaceAll(key, ".", "_")] = key
	}

	return index
}

// envKey converts an APP_ variable name into a config key. Unknown names fall
// back to treating every underscore as a level separator.
func envKey(index map[string]string, name string) string {
	flat := strings.ToLower(strings.TrimPrefix(name, envPrefix))
	if key, ok := index[flat]; ok {
		return key
	}

	return strings.ReplaceAll(flat, "_", ".")
}

// loadFileIfExists loads a YAML config file if it exists.
// Returns nil if the file doesn't exist, error only for parse/read failures.
func loadFileIfExists(k *koanf.Koanf, path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil // File doesn't exist, that's fine
	}

	return k.Load(file.Provider(path), yaml.Parser())
}
