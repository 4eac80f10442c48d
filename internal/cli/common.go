package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/sluicewatch/internal/config"
	"github.com/roach88/sluicewatch/internal/metrics"
	"github.com/roach88/sluicewatch/internal/mirror"
	"github.com/roach88/sluicewatch/internal/service"
	"github.com/roach88/sluicewatch/internal/store"
	"github.com/roach88/sluicewatch/internal/telemetry"
)

// setupLogging installs a text slog handler on w as the default logger.
// --verbose lowers the level to debug.
func setupLogging(opts *RootOptions, w io.Writer) *slog.Logger {
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: logLevel,
	})
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// loadConfig reads --config plus environment overrides.
func loadConfig(opts *RootOptions) (config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return config.Config{}, WrapExitError(ExitCommandError, "failed to load configuration", err)
	}
	return cfg, nil
}

// signalContext returns a context cancelled on SIGINT/SIGTERM or when the
// command's own context ends.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan) // Prevent signal handler leak
		select {
		case sig := <-sigChan:
			slog.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// isShutdown reports whether err only signals a cancelled context.
func isShutdown(err error) bool {
	return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// localPipeline opens the SQLite store and, when configured, the InfluxDB
// mirror, and returns a pipeline over them. The returned cleanup closes
// everything that was opened.
func localPipeline(cfg config.Config, m *metrics.Metrics, logger *slog.Logger) (*service.Pipeline, *store.Store, func(), error) {
	logger.Info("opening database", "path", cfg.DB.Path)
	st, err := store.Open(cfg.DB.Path)
	if err != nil {
		return nil, nil, nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	opts := service.Options{Metrics: m, Logger: logger}
	var mir *mirror.Influx
	if cfg.Influx.Enabled() {
		mir, err = mirror.NewInflux(mirror.Config{
			URL:    cfg.Influx.URL,
			Token:  cfg.Influx.Token,
			Org:    cfg.Influx.Org,
			Bucket: cfg.Influx.Bucket,
		})
		if err != nil {
			st.Close()
			return nil, nil, nil, WrapExitError(ExitCommandError, "failed to configure influx mirror", err)
		}
		opts.Mirror = mir
		logger.Info("influx mirror enabled", "url", cfg.Influx.URL, "bucket", cfg.Influx.Bucket)
	}

	cleanup := func() {
		if mir != nil {
			mir.Close()
		}
		if closeErr := st.Close(); closeErr != nil {
			logger.Error("error closing database", "error", closeErr)
		}
	}
	return service.NewPipeline(st, opts), st, cleanup, nil
}

// classifierFrom builds the worker's classifier from configured thresholds.
func classifierFrom(cfg config.Config) telemetry.Classifier {
	return telemetry.ThresholdClassifier{
		CODThreshold: cfg.Worker.CODThreshold,
		PHThreshold:  cfg.Worker.PHThreshold,
	}
}

// newMetrics returns a registry when metrics are enabled, else nil.
func newMetrics(cfg config.Config) *metrics.Metrics {
	if !cfg.Server.Metrics {
		return nil
	}
	return metrics.New()
}
