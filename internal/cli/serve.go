package cli

import (
	"fmt"
	"net"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/sluicewatch/internal/api"
	"github.com/roach88/sluicewatch/internal/worker"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Addr       string
	Database   string
	WithWorker bool
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the HTTP API over the SQLite store.

The API accepts sensor readings and verdicts, serves the latest reading to
decision workers and the joined snapshot to dashboards. With --worker a
decision worker runs in the same process against the store directly.

Example:
  sluicewatch serve --addr :8000 --db ./water_system.db
  sluicewatch serve --worker --verbose`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (default from config, 127.0.0.1:8000)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from config)")
	cmd.Flags().BoolVar(&opts.WithWorker, "worker", false, "also run a decision worker in-process")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	logger := setupLogging(opts.RootOptions, cmd.ErrOrStderr())

	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}
	if opts.Addr != "" {
		cfg.Server.Addr = opts.Addr
	}
	if opts.Database != "" {
		cfg.DB.Path = opts.Database
	}

	m := newMetrics(cfg)
	pipeline, _, cleanup, err := localPipeline(cfg, m, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	ln, err := net.Listen("tcp", cfg.Server.Addr)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to listen", err)
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	handler := api.NewRouter(api.NewHandler(pipeline, logger), api.RouterOptions{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AllowedHeaders: cfg.Server.AllowedHeaders,
		Metrics:        m,
		Logger:         logger,
	})
	srv := api.NewServer(cfg.Server.Addr, handler, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.ServeListener(gctx, ln) })

	if opts.WithWorker {
		w, err := worker.New(pipeline, pipeline, worker.Config{
			Interval:   cfg.Worker.Interval.Std(),
			Classifier: classifierFrom(cfg),
			Logger:     logger,
			Metrics:    m,
		})
		if err != nil {
			cancel()
			_ = g.Wait()
			return WrapExitError(ExitCommandError, "failed to create worker", err)
		}
		g.Go(func() error { return w.Run(gctx) })
	}

	fmt.Fprintf(cmd.OutOrStdout(), "API listening on http://%s\n", ln.Addr())
	fmt.Fprintln(cmd.OutOrStdout(), "Press Ctrl-C to stop.")

	if err := g.Wait(); !isShutdown(err) {
		return WrapExitError(ExitFailure, "server error", err)
	}

	logger.Info("server stopped gracefully")
	return nil
}
