package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config aggregates runtime configuration used across the service.
type Config struct {
	HTTP          HTTPConfig          `yaml:"http" envconfig:"HTTP"`
	Scanner       ScannerConfig       `yaml:"scanner" envconfig:"SCANNER"`
	Geolocation   GeolocationConfig   `yaml:"geolocation" envconfig:"GEOLOCATION"`
	LocationCache LocationCacheConfig `yaml:"locationCache" envconfig:"LOCATION_CACHE"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address      string          `yaml:"address" envconfig:"ADDRESS"`
	ReadTimeout  time.Duration   `yaml:"readTimeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout time.Duration   `yaml:"writeTimeout" envconfig:"WRITE_TIMEOUT"`
	RateLimit    RateLimitConfig `yaml:"rateLimit" envconfig:"RATE_LIMIT"`
	Retry        RetryConfig     `yaml:"retry" envconfig:"RETRY"`
	CORS         CORSConfig      `yaml:"cors" envconfig:"CORS"`
}

// RateLimitConfig drives the request limiting middleware.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled" envconfig:"ENABLED"`
	RequestsPerMinute int  `yaml:"requestsPerMinute" envconfig:"RPM"`
	Burst             int  `yaml:"burst" envconfig:"BURST"`
}

// RetryConfig configures best-effort retries of requests that failed upstream.
type RetryConfig struct {
	Enabled     bool          `yaml:"enabled" envconfig:"ENABLED"`
	MaxAttempts int           `yaml:"maxAttempts" envconfig:"MAX_ATTEMPTS"`
	BaseBackoff time.Duration `yaml:"baseBackoff" envconfig:"BASE_BACKOFF"`
	Exclude     []string      `yaml:"exclude" envconfig:"EXCLUDE"`
}

// CORSConfig lists the browser origins allowed to call the API.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowedOrigins" envconfig:"ALLOWED_ORIGINS"`
}

// ScannerConfig bounds the date range scanner.
type ScannerConfig struct {
	MaxDays     int           `yaml:"maxDays" envconfig:"MAX_DAYS"`
	DefaultDays int           `yaml:"defaultDays" envconfig:"DEFAULT_DAYS"`
	Workers     int           `yaml:"workers" envconfig:"WORKERS"`
	Timeout     time.Duration `yaml:"timeout" envconfig:"TIMEOUT"`
}

// GeolocationConfig holds the ipgeolocation.io client settings.
type GeolocationConfig struct {
	APIKey          string        `yaml:"apiKey" envconfig:"API_KEY"`
	BaseURL         string        `yaml:"baseUrl" envconfig:"BASE_URL"`
	Timeout         time.Duration `yaml:"timeout" envconfig:"TIMEOUT"`
	BreakerFailures uint32        `yaml:"breakerFailures" envconfig:"BREAKER_FAILURES"`
	BreakerCooldown time.Duration `yaml:"breakerCooldown" envconfig:"BREAKER_COOLDOWN"`
}

// LocationCacheConfig controls how long resolved locations are reused.
type LocationCacheConfig struct {
	TTL    time.Duration `yaml:"ttl" envconfig:"TTL"`
	Valkey ValkeyConfig  `yaml:"valkey" envconfig:"VALKEY"`
}

// ValkeyConfig contains connection information for the shared cache.
type ValkeyConfig struct {
	Enabled bool   `yaml:"enabled" envconfig:"ENABLED"`
	Addr    string `yaml:"addr" envconfig:"ADDR"`
	Prefix  string `yaml:"prefix" envconfig:"PREFIX"`
}

// Load reads configuration from .env, a YAML file and environment variables, in
// that order of increasing precedence.
func Load() (*Config, error) {
	// a missing .env is normal outside local development
	_ = godotenv.Load()

	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) error {
	if err := envconfig.Process("", cfg); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}
	// names used by existing deployments
	if v := os.Getenv("IPGEOLOCATION_API_KEY"); v != "" && cfg.Geolocation.APIKey == "" {
		cfg.Geolocation.APIKey = v
	}
	if v := os.Getenv("PORT"); v != "" && os.Getenv("HTTP_ADDRESS") == "" {
		cfg.HTTP.Address = ":" + strings.TrimPrefix(v, ":")
	}
	return nil
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:      ":8080",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 60 * time.Second,
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 60,
				Burst:             20,
			},
			Retry: RetryConfig{
				Enabled:     true,
				MaxAttempts: 2,
				BaseBackoff: 150 * time.Millisecond,
				Exclude: []string{
					"/health",
					"/api/v1/health",
				},
			},
		},
		Scanner: ScannerConfig{
			MaxDays:     1095,
			DefaultDays: 30,
			Workers:     4,
			Timeout:     45 * time.Second,
		},
		Geolocation: GeolocationConfig{
			BaseURL:         "https://api.ipgeolocation.io/v2/astronomy",
			Timeout:         10 * time.Second,
			BreakerFailures: 5,
			BreakerCooldown: 30 * time.Second,
		},
		LocationCache: LocationCacheConfig{
			TTL: 24 * time.Hour,
			Valkey: ValkeyConfig{
				Enabled: false,
				Prefix:  "moonwatch",
			},
		},
	}
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	if c.HTTP.RateLimit.Enabled {
		if c.HTTP.RateLimit.RequestsPerMinute <= 0 {
			return errors.New("http.rateLimit.requestsPerMinute must be positive")
		}
		if c.HTTP.RateLimit.Burst <= 0 {
			return errors.New("http.rateLimit.burst must be positive")
		}
	}
	if c.HTTP.Retry.Enabled {
		if c.HTTP.Retry.MaxAttempts <= 0 {
			return errors.New("http.retry.maxAttempts must be positive")
		}
		if c.HTTP.Retry.BaseBackoff <= 0 {
			return errors.New("http.retry.baseBackoff must be positive")
		}
	}
	if c.Scanner.MaxDays <= 0 {
		return errors.New("scanner.maxDays must be positive")
	}
	if c.Scanner.DefaultDays <= 0 || c.Scanner.DefaultDays > c.Scanner.MaxDays {
		return errors.New("scanner.defaultDays must be between 1 and scanner.maxDays")
	}
	if c.Scanner.Workers <= 0 {
		return errors.New("scanner.workers must be positive")
	}
	if c.Scanner.Timeout < 0 {
		return errors.New("scanner.timeout cannot be negative")
	}
	if strings.TrimSpace(c.Geolocation.BaseURL) == "" {
		return errors.New("geolocation.baseUrl cannot be empty")
	}
	if c.Geolocation.Timeout <= 0 {
		return errors.New("geolocation.timeout must be positive")
	}
	if c.LocationCache.TTL < 0 {
		return errors.New("locationCache.ttl cannot be negative")
	}
	if c.LocationCache.Valkey.Enabled && strings.TrimSpace(c.LocationCache.Valkey.Addr) == "" {
		return errors.New("locationCache.valkey.addr cannot be empty when valkey cache is enabled")
	}
	return nil
}
