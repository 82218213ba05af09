package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"maps"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/matzehuels/qrfetch/pkg/acquire"
	"github.com/matzehuels/qrfetch/pkg/async"
	"github.com/matzehuels/qrfetch/pkg/errors"
	"github.com/matzehuels/qrfetch/pkg/metrics"
)

const (
	headerRequestID = "X-Request-ID"

	// maxServeSize bounds w and h on /qr.
	maxServeSize = 4096

	shutdownTimeout = 5 * time.Second
)

type serveOptions struct {
	pipelineFlags
	addr string
}

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	opts := serveOptions{addr: ":8080"}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve QR code images over HTTP",
		Long: `Start an HTTP server with the following routes:

  GET /qr?text=TEXT&w=256&h=256   PNG image
  GET /healthz                    liveness probe
  GET /stats                      latency and cache statistics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", opts.addr, "listen address")
	cmd.Flags().BoolVar(&opts.noLocal, "no-local", false, "skip the local encoder")
	cmd.Flags().BoolVar(&opts.fit, "fit", false, "resample remote results to the requested size")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "do not read or write the image cache")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, opts serveOptions) error {
	a, store, err := c.openPipeline(ctx, opts.pipelineFlags)
	if err != nil {
		return err
	}
	defer store.Close()

	c.Metrics.Hooks().Register()

	srv := &http.Server{
		Addr:              opts.addr,
		Handler:           c.newRouter(a),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	c.Logger.Info("listening", "addr", opts.addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	c.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return ctx.Err()
}

// newRouter builds the HTTP routes around a.
func (c *CLI) newRouter(a *acquire.Acquirer) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(c.requestID)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprintln(w, "ok")
	})
	r.Get("/stats", statsHandler(c.Metrics))
	r.Get("/qr", qrHandler(a))

	return r
}

// requestID tags each request with a UUID, reusing a valid incoming
// X-Request-ID, and attaches a logger carrying it.
func (c *CLI) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(headerRequestID)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(headerRequestID, id)

		logger := c.Logger.With("req", id)
		logger.Debug("request", "method", r.Method, "path", r.URL.Path)
		next.ServeHTTP(w, r.WithContext(withLogger(r.Context(), logger)))
	})
}

func qrHandler(a *acquire.Acquirer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := loggerFromContext(r.Context())
		q := r.URL.Query()

		width, err := sizeParam(q.Get("w"))
		if err != nil {
			http.Error(w, "w: "+err.Error(), http.StatusBadRequest)
			return
		}
		height, err := sizeParam(q.Get("h"))
		if err != nil {
			http.Error(w, "h: "+err.Error(), http.StatusBadRequest)
			return
		}

		text := q.Get("text")
		if err := errors.ValidateText(text); err != nil {
			http.Error(w, errors.UserMessage(err), http.StatusBadRequest)
			return
		}

		req := acquire.Request{
			Text:   text,
			Width:  width,
			Height: height,
			ID:     w.Header().Get(headerRequestID),
		}
		out, err := async.Await(r.Context(), a.Acquire(r.Context(), req))
		switch {
		case err == nil:
		case errors.Is(err, errors.ErrCodeInvalidInput):
			http.Error(w, errors.UserMessage(err), http.StatusBadRequest)
			return
		case stderrors.Is(err, acquire.ErrNoResult):
			logger.Warn("no tier produced an image", "text_len", len(req.Text))
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		default:
			logger.Warn("acquire aborted", "err", err)
			http.Error(w, "request aborted", http.StatusServiceUnavailable)
			return
		}

		data, err := out.Buffer.EncodePNG()
		if err != nil {
			logger.Error("encode png", "err", err)
			http.Error(w, "encode failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		w.Header().Set("X-QR-Tier", string(out.Tier))
		_, _ = w.Write(data)
	}
}

func statsHandler(tracker *metrics.LatencyTracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		for _, s := range tracker.GetAllStats() {
			fmt.Fprintln(w, s.String())
		}
		counters := tracker.Counters()
		for _, name := range slices.Sorted(maps.Keys(counters)) {
			fmt.Fprintf(w, "%s %d\n", name, counters[name])
		}
	}
}

// sizeParam parses a dimension query parameter. Empty means defaultSize.
func sizeParam(s string) (int, error) {
	if s == "" {
		return defaultSize, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	if n <= 0 || n > maxServeSize {
		return 0, fmt.Errorf("must be between 1 and %d", maxServeSize)
	}
	return n, nil
}
