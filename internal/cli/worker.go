package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/sluicewatch/internal/client"
	"github.com/roach88/sluicewatch/internal/config"
	"github.com/roach88/sluicewatch/internal/worker"
)

// WorkerOptions holds flags for the worker command.
type WorkerOptions struct {
	*RootOptions
	Server   string
	Database string
	Interval time.Duration
}

// NewWorkerCommand creates the worker command.
func NewWorkerCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WorkerOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Run the decision worker",
		Long: `Run the decision worker.

Every interval the worker fetches the latest reading, skips it if it was
already classified, and otherwise commits a verdict: polluted when
COD > cod_threshold or pH < ph_threshold, with the sluice gate opened for
polluted water.

By default the worker talks to the API at --server. With --db it reads and
writes the SQLite store directly instead.

Example:
  sluicewatch worker --server http://127.0.0.1:8000
  sluicewatch worker --db ./water_system.db --interval 500ms`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorker(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Server, "server", "", "API base URL (default from config)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "use this SQLite database directly instead of the API")
	cmd.Flags().DurationVar(&opts.Interval, "interval", 0, "poll interval (default from config, 1s)")

	return cmd
}

func runWorker(opts *WorkerOptions, cmd *cobra.Command) error {
	logger := setupLogging(opts.RootOptions, cmd.ErrOrStderr())

	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}
	if opts.Server != "" {
		cfg.Client.BaseURL = opts.Server
	}
	if opts.Interval > 0 {
		cfg.Worker.Interval = config.Duration(opts.Interval)
	}

	wcfg := worker.Config{
		Interval:   cfg.Worker.Interval.Std(),
		Classifier: classifierFrom(cfg),
		Logger:     logger,
	}

	var w *worker.Worker
	if opts.Database != "" {
		cfg.DB.Path = opts.Database
		pipeline, _, cleanup, err := localPipeline(cfg, nil, logger)
		if err != nil {
			return err
		}
		defer cleanup()
		w, err = worker.New(pipeline, pipeline, wcfg)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to create worker", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Decision worker started on %s\n", cfg.DB.Path)
	} else {
		c := client.New(cfg.Client.BaseURL, client.Options{
			Timeout: cfg.Client.Timeout.Std(),
			Logger:  logger,
		})
		w, err = worker.New(c, c, wcfg)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to create worker", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Decision worker started against %s\n", cfg.Client.BaseURL)
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	if err := w.Run(ctx); !isShutdown(err) {
		return WrapExitError(ExitFailure, "worker error", err)
	}

	logger.Info("worker stopped gracefully", "last_processed_id", w.LastProcessedID())
	return nil
}
