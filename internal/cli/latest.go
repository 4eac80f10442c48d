package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/sluicewatch/internal/telemetry"
)

// LatestResult is the JSON result of the latest command.
type LatestResult struct {
	Found   bool               `json:"found"`
	Reading *telemetry.Reading `json:"reading,omitempty"`
}

// NewLatestCommand creates the latest command.
func NewLatestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "latest",
		Short: "Print the most recent raw reading",
		Long: `Print the most recent raw reading, classified or not.

Example:
  sluicewatch latest
  sluicewatch latest --db ./water_system.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLatest(opts, cmd)
		},
	}
	opts.bind(cmd)

	return cmd
}

func runLatest(opts *QueryOptions, cmd *cobra.Command) error {
	var result LatestResult
	err := withQuerySource(opts, cmd, func(ctx context.Context, src querySource) error {
		r, ok, err := src.LatestReading(ctx)
		if err != nil {
			return err
		}
		if ok {
			result = LatestResult{Found: true, Reading: &r}
		}
		return nil
	})
	if err != nil {
		return err
	}

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
	if opts.Format == "json" {
		return formatter.Success(result)
	}
	if !result.Found {
		return formatter.Success("No readings yet.")
	}
	r := result.Reading
	return formatter.Success(fmt.Sprintf("#%d [%s] %s pH %.2f  COD %.1f", r.ID, r.Timestamp, r.DeviceID, r.PH, r.COD))
}
