package cli

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/sluicewatch/internal/api"
	"github.com/roach88/sluicewatch/internal/client"
	"github.com/roach88/sluicewatch/internal/feed"
	"github.com/roach88/sluicewatch/internal/worker"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Addr     string
	Database string
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run API, sensor feed and decision worker together",
		Long: `Run the whole pipeline in one process.

The API starts first. Once it answers /health, the sensor feed and the
decision worker start and talk to it over HTTP exactly as they would from
separate machines.

Example:
  sluicewatch run --db ./water_system.db
  sluicewatch run --addr 127.0.0.1:0 --verbose`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAll(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (default from config, 127.0.0.1:8000)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from config)")

	return cmd
}

func runAll(opts *RunOptions, cmd *cobra.Command) error {
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
	baseURL := "http://" + ln.Addr().String()

	handler := api.NewRouter(api.NewHandler(pipeline, logger), api.RouterOptions{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AllowedHeaders: cfg.Server.AllowedHeaders,
		Metrics:        m,
		Logger:         logger,
	})
	srv := api.NewServer(cfg.Server.Addr, handler, logger)

	c := client.New(baseURL, client.Options{
		Timeout: cfg.Client.Timeout.Std(),
		Logger:  logger,
	})
	sensor, err := feed.New(c, feed.Config{
		Interval:            cfg.Feed.Interval.Std(),
		DeviceID:            cfg.Feed.DeviceID,
		PollutedProbability: cfg.Feed.PollutedProbability,
		Logger:              logger,
	})
	if err != nil {
		ln.Close()
		return WrapExitError(ExitCommandError, "failed to create feed", err)
	}
	w, err := worker.New(c, c, worker.Config{
		Interval:   cfg.Worker.Interval.Std(),
		Classifier: classifierFrom(cfg),
		Logger:     logger,
		Metrics:    m,
	})
	if err != nil {
		ln.Close()
		return WrapExitError(ExitCommandError, "failed to create worker", err)
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.ServeListener(gctx, ln) })

	healthCtx, healthCancel := context.WithTimeout(gctx, 10*time.Second)
	err = c.WaitHealthy(healthCtx, 100*time.Millisecond)
	healthCancel()
	if err != nil {
		stopped := ctx.Err() != nil
		cancel()
		if werr := g.Wait(); !isShutdown(werr) {
			return WrapExitError(ExitFailure, "server error", werr)
		}
		if stopped {
			return nil
		}
		return WrapExitError(ExitFailure, "API did not become healthy", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Pipeline running. API at %s, dashboard at %s%s\n", baseURL, baseURL, api.PathDashboard)
	fmt.Fprintln(cmd.OutOrStdout(), "Press Ctrl-C to stop.")

	g.Go(func() error { return sensor.Run(gctx) })
	g.Go(func() error { return w.Run(gctx) })

	if err := g.Wait(); !isShutdown(err) {
		return WrapExitError(ExitFailure, "pipeline error", err)
	}

	logger.Info("pipeline stopped gracefully", "last_processed_id", w.LastProcessedID())
	return nil
}
