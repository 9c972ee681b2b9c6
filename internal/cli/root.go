// Package cli holds the cobra commands of the ballotbox binary
package cli

import (
	"github.com/spf13/cobra"

	"ballotbox/internal/core/version"
	"ballotbox/internal/platform/logger"
)

// RootOptions holds global flags for all commands
type RootOptions struct {
	Verbose bool
}

// NewRootCommand creates the root command for the ballotbox CLI
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:     "ballotbox",
		Short:   "ballotbox - voter account tooling",
		Long:    "Admin tooling for the voting app: provision Firebase accounts and profile documents from a CSV, generate passwords, grant admin.",
		Version: version.Info().String(),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			lo := logger.FromEnv()
			if opts.Verbose {
				lo.Level = "debug"
			}
			logger.Init(lo)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetVersionTemplate("{{.Version}}\n")

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "debug level structured logs on stderr")

	cmd.AddCommand(NewProvisionCommand(opts))
	cmd.AddCommand(NewPasswordsCommand(opts))
	cmd.AddCommand(NewPromoteCommand(opts))

	return cmd
}
