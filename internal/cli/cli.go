// Package cli implements the qrfetch command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/qrfetch/pkg/acquire"
	"github.com/matzehuels/qrfetch/pkg/buildinfo"
	"github.com/matzehuels/qrfetch/pkg/cache"
	"github.com/matzehuels/qrfetch/pkg/config"
	"github.com/matzehuels/qrfetch/pkg/encoder"
	"github.com/matzehuels/qrfetch/pkg/fetch"
	"github.com/matzehuels/qrfetch/pkg/imagefetch"
	"github.com/matzehuels/qrfetch/pkg/metrics"
	"github.com/matzehuels/qrfetch/pkg/remote"
)

// =============================================================================
// Constants
// =============================================================================

const (
	appName = config.AppName

	defaultSize = 256
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// ConfigPath is set by the --config flag.
	ConfigPath string

	// Metrics collects latencies for --stats and the serve /stats endpoint.
	Metrics *metrics.LatencyTracker
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger:  newLogger(w, level),
		Metrics: metrics.NewLatencyTracker(0.01),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "qrfetch produces QR code images, locally or from remote services",
		Long:         `qrfetch encodes text as a QR code image. It encodes locally when it can and otherwise asks a QR generation API, then falls back to scraping a QR web page. Downloaded images are cached on disk.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.ConfigPath, "config", "", "path to a TOML config file")

	root.AddCommand(c.getCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.resizeCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Acquirer Factory
// =============================================================================

// pipelineFlags are command-line overrides shared by get and serve.
type pipelineFlags struct {
	noLocal bool
	noCache bool
	fit     bool
}

func (f pipelineFlags) apply(cfg *config.Config) {
	if f.noLocal {
		cfg.Encoder.Enabled = false
	}
	if f.noCache {
		cfg.Cache.Backend = config.BackendNone
	}
	if f.fit {
		cfg.Acquire.Fit = true
	}
}

func (c *CLI) loadConfig() (config.Config, error) {
	cfg, err := config.Load(c.ConfigPath)
	if err != nil {
		return cfg, err
	}
	c.Logger.Debug("loaded config", "path", c.ConfigPath, "cache", cfg.Cache.Backend, "api", cfg.Endpoints.API)
	return cfg, nil
}

// newCache opens the cache backend selected by cfg.
func newCache(ctx context.Context, cfg config.Config) (cache.Cache, error) {
	switch cfg.Cache.Backend {
	case config.BackendNone:
		return cache.NewNullCache(), nil
	case config.BackendRedis:
		return cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:   cfg.Cache.RedisAddr,
			Prefix: cfg.Cache.RedisPrefix,
			TTL:    cfg.Cache.RedisTTL.Duration,
		})
	case config.BackendS3:
		return cache.NewS3Cache(ctx, cache.S3Config{
			Bucket:   cfg.Cache.S3Bucket,
			Region:   cfg.Cache.S3Region,
			Prefix:   cfg.Cache.S3Prefix,
			Endpoint: cfg.Cache.S3Endpoint,
		})
	default:
		return cache.NewDiskCache(cfg.Cache.Dir)
	}
}

// newAcquirer wires the three tiers from cfg on top of store.
func (c *CLI) newAcquirer(cfg config.Config, store cache.Cache) (*acquire.Acquirer, error) {
	ua := cfg.HTTP.UserAgent
	if ua == config.DefaultUserAgent {
		ua = buildinfo.UserAgent()
	}
	fetcher := fetch.New(fetch.Options{
		Timeout:   cfg.HTTP.Timeout.Duration,
		Retries:   cfg.HTTP.Retries,
		UserAgent: ua,
	})
	images := imagefetch.New(fetcher, store, c.Logger)

	extractor, err := remote.ParseExtractor(cfg.Scrape.Parser)
	if err != nil {
		return nil, err
	}
	scrape := remote.NewScrapeTier(cfg.Endpoints.Scrape, fetcher, images, extractor)
	scrape.Logger = c.Logger

	var local encoder.Encoder = encoder.Unavailable{Reason: "disabled by configuration"}
	if cfg.Encoder.Enabled {
		level, err := encoder.ParseRecovery(cfg.Encoder.Recovery)
		if err != nil {
			return nil, err
		}
		local = encoder.New(level)
	}

	return &acquire.Acquirer{
		Local:  local,
		API:    remote.NewAPITier(cfg.Endpoints.API, images),
		Scrape: scrape,
		Fit:    cfg.Acquire.Fit,
		Logger: c.Logger,
	}, nil
}

// openPipeline loads config, applies flags and returns an acquirer along
// with the cache it writes to. The caller closes the cache.
func (c *CLI) openPipeline(ctx context.Context, flags pipelineFlags) (*acquire.Acquirer, cache.Cache, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	flags.apply(&cfg)

	store, err := newCache(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s cache: %w", cfg.Cache.Backend, err)
	}
	a, err := c.newAcquirer(cfg, store)
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	return a, store, nil
}
