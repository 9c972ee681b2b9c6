package cli

import (
	"strings"

	"github.com/spf13/cobra"

	perr "ballotbox/internal/platform/errors"
	"ballotbox/internal/services/provision/module"
)

// NewPromoteCommand creates the promote command
func NewPromoteCommand(rootOpts *RootOptions) *cobra.Command {
	flags := &backendFlags{}

	cmd := &cobra.Command{
		Use:   "promote <email>",
		Short: "Grant the admin role to an existing account",
		Long: `Set the {"admin": true} custom claim on the account registered for email
and mark its profile document with role=admin. The account must already exist.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPromote(cmd, *flags, args[0])
		},
	}

	flags.bind(cmd)
	return cmd
}

func runPromote(cmd *cobra.Command, flags backendFlags, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return perr.WithField(perr.Configf("email is required"), "email")
	}

	s, err := newSession(cmd.Context(), "promote", flags, module.Options{})
	if err != nil {
		return err
	}
	defer s.Close()

	p := s.mod.Promoter()
	if p == nil {
		return perr.Configf("the configured directory cannot set custom claims")
	}
	_, err = p.Promote(s.ctx, email, cmd.OutOrStdout())
	return err
}
