package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/qrfetch/pkg/cache"
	"github.com/matzehuels/qrfetch/pkg/config"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the on-disk image cache",
	}

	cmd.AddCommand(c.cachePathCommand())
	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cacheStatsCommand())

	return cmd
}

// openDiskCache opens the disk cache named by the config. Other backends
// are managed by their own tooling.
func (c *CLI) openDiskCache() (*cache.DiskCache, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Cache.Backend != config.BackendDisk {
		printWarning("Configured backend is %q; showing the disk cache at %s", cfg.Cache.Backend, cfg.Cache.Dir)
	}
	if cfg.Cache.Dir == "" {
		return nil, fmt.Errorf("no cache directory configured")
	}
	return cache.NewDiskCache(cfg.Cache.Dir)
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dc, err := c.openDiskCache()
			if err != nil {
				return err
			}
			fmt.Fprintln(out, dc.Dir())
			return nil
		},
	}
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete all cached images",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dc, err := c.openDiskCache()
			if err != nil {
				return err
			}
			n, err := dc.Clear(cmd.Context())
			if err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}
			if n == 0 {
				printInfo("Cache is empty")
				return nil
			}
			printSuccess("Cleared %d cached images", n)
			printDetail("Directory: %s", dc.Dir())
			return nil
		},
	}
}

// cacheStatsCommand creates the "cache stats" subcommand.
func (c *CLI) cacheStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show the number and total size of cached images",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dc, err := c.openDiskCache()
			if err != nil {
				return err
			}
			st, err := dc.Stats()
			if err != nil {
				return fmt.Errorf("cache stats: %w", err)
			}
			printKeyValue("Directory", dc.Dir())
			printKeyValue("Entries", fmt.Sprint(st.Entries))
			printKeyValue("Size", humanBytes(st.Bytes))
			return nil
		},
	}
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
