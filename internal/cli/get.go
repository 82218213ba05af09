package cli

import (
	"context"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"sync/atomic"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/qrfetch/pkg/acquire"
	"github.com/matzehuels/qrfetch/pkg/async"
	"github.com/matzehuels/qrfetch/pkg/pixel"
	"github.com/matzehuels/qrfetch/pkg/resample"
)

// getOptions holds flags for the get command.
type getOptions struct {
	pipelineFlags
	width  int
	height int
	output string
	scale  float64
	stats  bool
	jobs   int
}

// getResult is the outcome for one payload.
type getResult struct {
	text string
	path string
	tier acquire.Tier
	size string
	err  error
}

// getCommand creates the get command.
func (c *CLI) getCommand() *cobra.Command {
	opts := getOptions{width: defaultSize, height: defaultSize}

	cmd := &cobra.Command{
		Use:   "get TEXT...",
		Short: "Produce QR code images for one or more texts",
		Long: `Produce a PNG QR code for each TEXT.

With a single TEXT, -o names the output file (default qrcode.png). With
several, -o names a directory and files are written as qrcode-1.png,
qrcode-2.png, and so on.`,
		Example: `  qrfetch get "https://example.com"
  qrfetch get -W 512 -H 512 -o ticket.png "TICKET-42"
  qrfetch get --no-local --stats -j 8 one two three`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runGet(cmd.Context(), args, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.width, "width", "W", opts.width, "image width in pixels")
	cmd.Flags().IntVarP(&opts.height, "height", "H", opts.height, "image height in pixels")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (one TEXT) or directory (several)")
	cmd.Flags().Float64Var(&opts.scale, "scale", 0, "resample the result by this factor before writing")
	cmd.Flags().BoolVar(&opts.noLocal, "no-local", false, "skip the local encoder")
	cmd.Flags().BoolVar(&opts.fit, "fit", false, "resample remote results to exactly WxH")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "do not read or write the image cache")
	cmd.Flags().BoolVar(&opts.stats, "stats", false, "print tier latency statistics")
	cmd.Flags().IntVarP(&opts.jobs, "jobs", "j", runtime.NumCPU(), "parallel acquisitions")

	return cmd
}

func (c *CLI) runGet(ctx context.Context, texts []string, opts getOptions) error {
	if opts.scale < 0 {
		return fmt.Errorf("--scale must be positive, got %g", opts.scale)
	}

	a, store, err := c.openPipeline(ctx, opts.pipelineFlags)
	if err != nil {
		return err
	}
	defer store.Close()

	if opts.stats {
		c.Metrics.Hooks().Register()
	}

	paths, err := outputPaths(opts.output, len(texts))
	if err != nil {
		return err
	}

	prog := newProgress(c.Logger)
	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Acquiring %d QR code(s)...", len(texts)))
	spinner.Start()

	results := make([]getResult, len(texts))
	var finished atomic.Int32

	var g errgroup.Group
	g.SetLimit(max(opts.jobs, 1))
	for i, text := range texts {
		g.Go(func() error {
			results[i] = c.getOne(ctx, a, text, paths[i], opts)
			spinner.SetMessage("Acquired %d/%d", finished.Add(1), len(texts))
			return nil
		})
	}
	_ = g.Wait()
	spinner.Stop()

	if spinner.Cancelled() {
		return ctx.Err()
	}

	failed := 0
	for _, r := range results {
		if r.err != nil {
			failed++
			printError("%q: %v", r.text, r.err)
			continue
		}
		printFile(r.path, string(r.tier))
		printDetail("%s", r.size)
	}
	prog.done("acquisition finished", "ok", len(texts)-failed, "failed", failed)

	if opts.stats {
		c.printStats()
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d acquisitions failed", failed, len(texts))
	}
	return nil
}

func (c *CLI) getOne(ctx context.Context, a *acquire.Acquirer, text, path string, opts getOptions) getResult {
	res := getResult{text: text, path: path}

	out, err := async.Await(ctx, a.Acquire(ctx, acquire.NewRequest(text, opts.width, opts.height)))
	if err != nil {
		res.err = err
		return res
	}
	res.tier = out.Tier

	buf := out.Buffer
	if opts.scale > 0 && opts.scale != 1 {
		if buf, err = resample.Scale(buf, opts.scale); err != nil {
			res.err = err
			return res
		}
	}
	res.size = fmt.Sprintf("%dx%d", buf.Width, buf.Height)
	res.err = writePNG(path, buf)
	return res
}

// outputPaths returns one output file per payload.
func outputPaths(output string, n int) ([]string, error) {
	if n == 1 {
		if output == "" {
			output = "qrcode.png"
		}
		return []string{output}, nil
	}

	dir := output
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	paths := make([]string, n)
	for i := range paths {
		paths[i] = filepath.Join(dir, fmt.Sprintf("qrcode-%d.png", i+1))
	}
	return paths, nil
}

func writePNG(path string, buf *pixel.Buffer) error {
	data, err := buf.EncodePNG()
	if err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// printStats prints tier latencies and cache counters collected so far.
func (c *CLI) printStats() {
	stats := c.Metrics.GetAllStats()
	if len(stats) == 0 {
		printInfo("No statistics recorded")
		return
	}
	printInfo("Latency")
	for _, s := range stats {
		printDetail("%s", s.String())
	}
	printInfo("Counters")
	counters := c.Metrics.Counters()
	for _, name := range slices.Sorted(maps.Keys(counters)) {
		printKeyValue("  "+name, fmt.Sprint(counters[name]))
	}
}
