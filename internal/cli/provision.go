package cli

import (
	"github.com/spf13/cobra"

	"ballotbox/internal/platform/config"
	perr "ballotbox/internal/platform/errors"
	"ballotbox/internal/platform/logger"
	"ballotbox/internal/services/provision/domain"
	"ballotbox/internal/services/provision/module"
)

// ProvisionOptions holds the provision command flags
type ProvisionOptions struct {
	backendFlags
	DryRun    bool
	Workers   int
	BatchSize int
}

// NewProvisionCommand creates the provision command
func NewProvisionCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ProvisionOptions{}

	cmd := &cobra.Command{
		Use:   "provision <csv>",
		Short: "Create auth accounts and profile documents from a CSV",
		Long: `Read email/password rows from a CSV, look up or create one auth account
per unique email, then merge a profile document per account into the store.

A header row naming "email" and "password" maps columns by name; without one
the first two columns are used. Repeated emails keep the first row.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProvision(cmd, opts, args[0])
		},
	}

	opts.bind(cmd)
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "look accounts up and report, write nothing")
	cmd.Flags().IntVar(&opts.Workers, "workers", 0, "concurrent directory calls (default PROVISION_WORKERS or 8)")
	cmd.Flags().IntVar(&opts.BatchSize, "batch-size", 0, "profile writes per commit (default PROVISION_BATCH_SIZE or 450)")

	return cmd
}

func runProvision(cmd *cobra.Command, opts *ProvisionOptions, path string) error {
	if !config.IsFile(path) {
		return perr.WithField(perr.Configf("CSV file not found: %s", path), "csv")
	}
	if opts.Workers < 0 || opts.BatchSize < 0 {
		return perr.Configf("--workers and --batch-size must be positive")
	}

	s, err := newSession(cmd.Context(), "provision", opts.backendFlags, module.Options{
		Workers:   opts.Workers,
		BatchSize: opts.BatchSize,
	})
	if err != nil {
		return err
	}
	defer s.Close()

	sum, err := s.mod.Runner().RunFile(s.ctx, path, domain.RunOptions{
		DryRun: opts.DryRun,
		Out:    cmd.OutOrStdout(),
	})
	logger.C(s.ctx).Info().
		Int("rows", sum.RowsRead).
		Int("entries", sum.Entries).
		Int("skipped", sum.Skipped).
		Int("failed", sum.Failed).
		Int("written", sum.RecordsWritten).
		Err(err).
		Msg("provision finished")
	return err
}
