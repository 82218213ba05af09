package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/qrfetch/pkg/pixel"
	"github.com/matzehuels/qrfetch/pkg/resample"
)

type resizeOptions struct {
	scale float64
	size  string
}

// resizeCommand creates the resize command.
func (c *CLI) resizeCommand() *cobra.Command {
	var opts resizeOptions

	cmd := &cobra.Command{
		Use:   "resize IN OUT",
		Short: "Bilinearly resample an image and write it as PNG",
		Example: `  qrfetch resize qrcode.png big.png --scale 2
  qrfetch resize qrcode.png thumb.png --size 64x64`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runResize(args[0], args[1], opts)
		},
	}

	cmd.Flags().Float64Var(&opts.scale, "scale", 0, "scale factor")
	cmd.Flags().StringVar(&opts.size, "size", "", "target size as WxH")
	cmd.MarkFlagsMutuallyExclusive("scale", "size")
	cmd.MarkFlagsOneRequired("scale", "size")

	return cmd
}

func (c *CLI) runResize(in, outPath string, opts resizeOptions) error {
	data, err := os.ReadFile(in)
	if err != nil {
		return err
	}
	src, err := pixel.Decode(data)
	if err != nil {
		return fmt.Errorf("%s: %w", in, err)
	}

	var dst *pixel.Buffer
	if opts.size != "" {
		w, h, err := parseSize(opts.size)
		if err != nil {
			return err
		}
		dst, err = resample.Resize(src, w, h)
		if err != nil {
			return err
		}
	} else {
		dst, err = resample.Scale(src, opts.scale)
		if err != nil {
			return err
		}
	}

	if err := writePNG(outPath, dst); err != nil {
		return err
	}
	c.Logger.Debug("resized", "from", fmt.Sprintf("%dx%d", src.Width, src.Height), "to", fmt.Sprintf("%dx%d", dst.Width, dst.Height))
	printSuccess("Wrote %s", outPath)
	printDetail("%dx%d → %dx%d", src.Width, src.Height, dst.Width, dst.Height)
	return nil
}

// parseSize parses "WxH".
func parseSize(s string) (int, int, error) {
	ws, hs, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return 0, 0, fmt.Errorf("invalid size %q (want WxH)", s)
	}
	w, err := strconv.Atoi(strings.TrimSpace(ws))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid width in %q", s)
	}
	h, err := strconv.Atoi(strings.TrimSpace(hs))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid height in %q", s)
	}
	if w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("size must be positive, got %q", s)
	}
	return w, h, nil
}
