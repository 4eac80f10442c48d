package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/sluicewatch/internal/client"
	"github.com/roach88/sluicewatch/internal/config"
	"github.com/roach88/sluicewatch/internal/feed"
)

// FeedOptions holds flags for the feed command.
type FeedOptions struct {
	*RootOptions
	Server   string
	Interval time.Duration
	DeviceID string
	Count    int
}

// NewFeedCommand creates the feed command.
func NewFeedCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FeedOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "feed",
		Short: "Simulate the field sensor",
		Long: `Simulate the field sensor by posting synthetic readings to the API.

Each reading is polluted with probability polluted_probability (pH 3-5,
COD 120-200), otherwise normal (pH 6.5-8.5, COD 20-60). Upload failures are
logged and the feed keeps going.

Example:
  sluicewatch feed --server http://127.0.0.1:8000
  sluicewatch feed --interval 1s --count 10`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFeed(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Server, "server", "", "API base URL (default from config)")
	cmd.Flags().DurationVar(&opts.Interval, "interval", 0, "time between readings (default from config, 5s)")
	cmd.Flags().StringVar(&opts.DeviceID, "device", "", "device id (default from config, Station_A)")
	cmd.Flags().IntVarP(&opts.Count, "count", "n", 0, "send this many readings then exit (0 = run until stopped)")

	return cmd
}

func runFeed(opts *FeedOptions, cmd *cobra.Command) error {
	logger := setupLogging(opts.RootOptions, cmd.ErrOrStderr())

	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}
	if opts.Server != "" {
		cfg.Client.BaseURL = opts.Server
	}
	if opts.Interval > 0 {
		cfg.Feed.Interval = config.Duration(opts.Interval)
	}
	if opts.DeviceID != "" {
		cfg.Feed.DeviceID = opts.DeviceID
	}
	if opts.Count < 0 {
		return NewExitError(ExitCommandError, "--count must not be negative")
	}

	c := client.New(cfg.Client.BaseURL, client.Options{
		Timeout: cfg.Client.Timeout.Std(),
		Logger:  logger,
	})
	f, err := feed.New(c, feed.Config{
		Interval:            cfg.Feed.Interval.Std(),
		DeviceID:            cfg.Feed.DeviceID,
		PollutedProbability: cfg.Feed.PollutedProbability,
		Logger:              logger,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create feed", err)
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	if opts.Count > 0 {
		return emitCount(ctx, f, opts, cmd, cfg.Feed.Interval.Std())
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Sensor feed posting to %s\n", cfg.Client.BaseURL)
	if err := f.Run(ctx); !isShutdown(err) {
		return WrapExitError(ExitFailure, "feed error", err)
	}
	return nil
}

// emitCount sends exactly opts.Count readings and reports how many failed.
func emitCount(ctx context.Context, f *feed.Feed, opts *FeedOptions, cmd *cobra.Command, interval time.Duration) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	sent, failed := 0, 0
	for i := 0; i < opts.Count; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(interval):
			}
		}
		r, err := f.Emit(ctx)
		if err != nil {
			failed++
			continue
		}
		sent++
		formatter.VerboseLog("sent %s ph=%.2f cod=%.1f", r.Timestamp, r.PH, r.COD)
	}

	summary := FeedSummary{Sent: sent, Failed: failed}
	if opts.Format == "json" {
		if err := formatter.Success(summary); err != nil {
			return err
		}
	} else {
		if err := formatter.Success(fmt.Sprintf("Sent %d readings (%d failed)", sent, failed)); err != nil {
			return err
		}
	}

	if failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d uploads failed", failed, opts.Count))
	}
	return nil
}

// FeedSummary is the JSON result of a bounded feed run.
type FeedSummary struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}
