// Package config loads qrfetch settings from a TOML file and the
// environment.
//
// Missing files and missing keys fall back to [Default]. Environment
// variables override the file:
//
//	QRFETCH_API_BASE     endpoints.api
//	QRFETCH_SCRAPE_BASE  endpoints.scrape
//	QRFETCH_CACHE_DIR    cache.dir
//
// Example file:
//
//	[http]
//	timeout = "5s"
//	retries = 1
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/qrfetch/pkg/errors"
	"github.com/matzehuels/qrfetch/pkg/fetch"
	"github.com/matzehuels/qrfetch/pkg/remote"
)

// =============================================================================
// Defaults
// =============================================================================

const (
	// AppName names the cache and config directories.
	AppName = "qrfetch"

	DefaultTimeout    = fetch.DefaultTimeout
	DefaultUserAgent  = fetch.DefaultUserAgent
	DefaultAPIBase    = remote.DefaultAPIBase
	DefaultScrapeBase = remote.DefaultScrapeBase
	DefaultRecovery   = "medium"
	DefaultParser     = "marker"
	DefaultRedisAddr  = "localhost:6379"
)

// Cache backends.
const (
	BackendDisk  = "disk"
	BackendRedis = "redis"
	BackendS3    = "s3"
	BackendNone  = "none"
)

// Environment variables that override file settings.
const (
	EnvAPIBase    = "QRFETCH_API_BASE"
	EnvScrapeBase = "QRFETCH_SCRAPE_BASE"
	EnvCacheDir   = "QRFETCH_CACHE_DIR"
)

var validBackends = map[string]bool{
	BackendDisk:  true,
	BackendRedis: true,
	BackendS3:    true,
	BackendNone:  true,
}

var validRecovery = map[string]bool{"low": true, "medium": true, "high": true, "highest": true}

var validParsers = map[string]bool{"marker": true, "html": true}

// =============================================================================
// Config
// =============================================================================

// Config is the full qrfetch configuration.
type Config struct {
	HTTP      HTTP      `toml:"http"`
	Endpoints Endpoints `toml:"endpoints"`
	Cache     Cache     `toml:"cache"`
	Encoder   Encoder   `toml:"encoder"`
	Scrape    Scrape    `toml:"scrape"`
	Acquire   Acquire   `toml:"acquire"`
}

// HTTP configures the network fetcher.
type HTTP struct {
	Timeout   Duration `toml:"timeout"`
	Retries   int      `toml:"retries"`
	UserAgent string   `toml:"user_agent"`
}

// Endpoints are the remote tier base URLs.
type Endpoints struct {
	API    string `toml:"api"`
	Scrape string `toml:"scrape"`
}

// Cache selects and configures the image cache backend.
type Cache struct {
	Backend     string   `toml:"backend"`
	Dir         string   `toml:"dir"`
	RedisAddr   string   `toml:"redis_addr"`
	RedisPrefix string   `toml:"redis_prefix"`
	RedisTTL    Duration `toml:"redis_ttl"`
	S3Bucket    string   `toml:"s3_bucket"`
	S3Region    string   `toml:"s3_region"`
	S3Prefix    string   `toml:"s3_prefix"`
	S3Endpoint  string   `toml:"s3_endpoint"`
}

// Encoder configures the local tier.
type Encoder struct {
	Enabled  bool   `toml:"enabled"`
	Recovery string `toml:"recovery"`
}

// Scrape configures the page scrape tier.
type Scrape struct {
	Parser string `toml:"parser"`
}

// Acquire configures the orchestrator.
type Acquire struct {
	Fit bool `toml:"fit"`
}

// Duration is a time.Duration that decodes from TOML strings like "5s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		HTTP: HTTP{
			Timeout:   Duration{DefaultTimeout},
			UserAgent: DefaultUserAgent,
		},
		Endpoints: Endpoints{
			API:    DefaultAPIBase,
			Scrape: DefaultScrapeBase,
		},
		Cache: Cache{
			Backend:     BackendDisk,
			Dir:         DefaultCacheDir(),
			RedisAddr:   DefaultRedisAddr,
			RedisPrefix: AppName + ":",
		},
		Encoder: Encoder{
			Enabled:  true,
			Recovery: DefaultRecovery,
		},
		Scrape: Scrape{Parser: DefaultParser},
	}
}

// Load reads path on top of Default and applies environment overrides.
// An empty path or a missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return cfg, fmt.Errorf("read config: %w", err)
		default:
			if err := Parse(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Parse decodes TOML into cfg. Keys absent from data keep cfg's values.
func Parse(data []byte, cfg *Config) error {
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return err
	}
	if undec := md.Undecoded(); len(undec) > 0 {
		keys := make([]string, len(undec))
		for i, k := range undec {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	return nil
}

// ApplyEnv overrides settings from QRFETCH_* environment variables.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvAPIBase); v != "" {
		c.Endpoints.API = v
	}
	if v := os.Getenv(EnvScrapeBase); v != "" {
		c.Endpoints.Scrape = v
	}
	if v := os.Getenv(EnvCacheDir); v != "" {
		c.Cache.Dir = v
	}
}

// Validate checks the configuration and clamps retries to 0..1.
func (c *Config) Validate() error {
	if c.HTTP.Timeout.Duration <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "http.timeout must be positive, got %s", c.HTTP.Timeout)
	}
	c.HTTP.Retries = min(max(c.HTTP.Retries, 0), 1)

	if c.Endpoints.API == "" || c.Endpoints.Scrape == "" {
		return errors.New(errors.ErrCodeInvalidInput, "endpoints.api and endpoints.scrape must be set")
	}

	c.Cache.Backend = strings.ToLower(c.Cache.Backend)
	if !validBackends[c.Cache.Backend] {
		return errors.New(errors.ErrCodeInvalidInput, "unknown cache backend %q", c.Cache.Backend)
	}
	switch c.Cache.Backend {
	case BackendDisk:
		if c.Cache.Dir == "" {
			return errors.New(errors.ErrCodeInvalidInput, "cache.dir must be set for the disk backend")
		}
	case BackendRedis:
		if c.Cache.RedisAddr == "" {
			return errors.New(errors.ErrCodeInvalidInput, "cache.redis_addr must be set for the redis backend")
		}
	case BackendS3:
		if c.Cache.S3Bucket == "" {
			return errors.New(errors.ErrCodeInvalidInput, "cache.s3_bucket must be set for the s3 backend")
		}
	}

	c.Encoder.Recovery = strings.ToLower(c.Encoder.Recovery)
	if !validRecovery[c.Encoder.Recovery] {
		return errors.New(errors.ErrCodeInvalidInput, "unknown encoder.recovery %q", c.Encoder.Recovery)
	}
	c.Scrape.Parser = strings.ToLower(c.Scrape.Parser)
	if !validParsers[c.Scrape.Parser] {
		return errors.New(errors.ErrCodeInvalidInput, "unknown scrape.parser %q", c.Scrape.Parser)
	}
	return nil
}

// DefaultCacheDir returns $XDG_CACHE_HOME/qrfetch, falling back to
// ~/.cache/qrfetch. It returns "" when neither can be determined.
func DefaultCacheDir() string {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".cache", AppName)
}
