package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"ballotbox/internal/platform/config"
	perr "ballotbox/internal/platform/errors"
	"ballotbox/internal/platform/validate"
	"ballotbox/internal/services/passgen"
)

// newGenerator is swapped in tests for a seeded reader
var newGenerator = passgen.New

// NewPasswordsCommand creates the passgen command
func NewPasswordsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "passgen",
		Short: "Write a random password for every row of the users CSV",
		Long: `Fill a "password" column in the users CSV (CORE_PASSGEN_FILE, default users.csv)
with a fresh alphanumeric password per row. The header must have the
CORE_PASSGEN_COLUMN column (default email). The file is overwritten in place.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPasswords(cmd)
		},
	}
	return cmd
}

func runPasswords(cmd *cobra.Command) error {
	o := passgen.FromConfig(config.New())
	if err := validate.Struct(o); err != nil {
		return perr.Wrap(err, perr.ErrorCodeConfig, "passgen options")
	}
	if !config.IsFile(o.File) {
		return perr.WithField(perr.Configf("CSV file not found: %s", o.File), "file")
	}

	res, err := newGenerator().AddPasswords(o.File, o.Column, o.Length)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Passwords generated and added to %s\n", res.Path)
	return nil
}
