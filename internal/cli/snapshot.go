package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/sluicewatch/internal/client"
	"github.com/roach88/sluicewatch/internal/config"
	"github.com/roach88/sluicewatch/internal/service"
	"github.com/roach88/sluicewatch/internal/store"
	"github.com/roach88/sluicewatch/internal/telemetry"
)

// QueryOptions holds flags shared by the read-only query commands.
type QueryOptions struct {
	*RootOptions
	Server   string
	Database string
}

func (o *QueryOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.Server, "server", "", "API base URL (default from config)")
	cmd.Flags().StringVar(&o.Database, "db", "", "read this SQLite database directly instead of the API")
}

// NewSnapshotCommand creates the snapshot command.
func NewSnapshotCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Print the dashboard snapshot",
		Long: `Print the dashboard snapshot: the latest verdict joined with the
reading it classified.

Before any verdict exists the snapshot is the "no data yet" sentinel.

Example:
  sluicewatch snapshot
  sluicewatch snapshot --db ./water_system.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSnapshot(opts, cmd)
		},
	}
	opts.bind(cmd)

	return cmd
}

func runSnapshot(opts *QueryOptions, cmd *cobra.Command) error {
	var snap telemetry.Snapshot
	err := withQuerySource(opts, cmd, func(ctx context.Context, src querySource) error {
		var err error
		snap, err = src.Dashboard(ctx)
		return err
	})
	if err != nil {
		return err
	}

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
	if opts.Format == "json" {
		return formatter.Success(snap)
	}
	return formatter.Success(formatSnapshot(snap))
}

func formatSnapshot(s telemetry.Snapshot) string {
	if s.IsEmpty() {
		return "No data yet."
	}
	gate := "closed"
	if s.Gate {
		gate = "OPEN"
	}
	status := "normal"
	if s.Alert {
		status = "POLLUTION"
	}
	return fmt.Sprintf("[%s] pH %.2f  COD %.1f  status %s  gate %s", s.Timestamp, s.PH, s.COD, status, gate)
}

// querySource is what the read-only commands need, served either by the
// API client or by a local pipeline.
type querySource interface {
	Dashboard(ctx context.Context) (telemetry.Snapshot, error)
	LatestReading(ctx context.Context) (telemetry.Reading, bool, error)
}

// localSource adapts a pipeline to querySource.
type localSource struct {
	*service.Pipeline
}

func (l localSource) Dashboard(ctx context.Context) (telemetry.Snapshot, error) {
	return l.Pipeline.Dashboard(ctx), nil
}

// withQuerySource resolves --db / --server and runs fn against the chosen
// source.
func withQuerySource(opts *QueryOptions, cmd *cobra.Command, fn func(context.Context, querySource) error) error {
	logger := setupLogging(opts.RootOptions, cmd.ErrOrStderr())

	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithTimeout(parent, 30*time.Second)
	defer cancel()

	var src querySource
	if opts.Database != "" {
		// Read-only commands must not create an empty database on a typo.
		if _, err := os.Stat(opts.Database); err != nil {
			return WrapExitError(ExitCommandError, "database not found", err)
		}
		st, err := store.Open(opts.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer st.Close()
		src = localSource{service.NewPipeline(st, service.Options{Logger: logger})}
	} else {
		src = newQueryClient(cfg, opts, logger)
	}

	if err := fn(ctx, src); err != nil {
		return WrapExitError(ExitFailure, "query failed", err)
	}
	return nil
}

func newQueryClient(cfg config.Config, opts *QueryOptions, logger *slog.Logger) *client.Client {
	baseURL := cfg.Client.BaseURL
	if opts.Server != "" {
		baseURL = opts.Server
	}
	return client.New(baseURL, client.Options{
		Timeout: cfg.Client.Timeout.Std(),
		Logger:  logger,
	})
}
