package service

import (
	"context"
	"fmt"
	"io"

	perr "ballotbox/internal/platform/errors"
	"ballotbox/internal/platform/logger"
	"ballotbox/internal/services/provision/domain"
)

// Promoter grants the admin claim and role to an existing account
type Promoter struct {
	Dir      domain.AdminDirectory
	Profiles domain.ProfileWriter
}

var _ domain.PromoterPort = (*Promoter)(nil)

// NewPromoter constructs a Promoter
func NewPromoter(dir domain.AdminDirectory, profiles domain.ProfileWriter) *Promoter {
	if dir == nil || profiles == nil {
		panic("provision.Promoter requires a directory and a profile writer")
	}
	return &Promoter{Dir: dir, Profiles: profiles}
}

// Promote looks up identifier, merges {"admin": true} into its claims and
// sets role=admin on its profile; an unknown identifier is an error
func (p *Promoter) Promote(ctx context.Context, identifier string, out io.Writer) (domain.Account, error) {
	if out == nil {
		out = io.Discard
	}
	acct, err := p.Dir.LookupAccount(ctx, identifier)
	if err != nil {
		if perr.IsCode(err, perr.ErrorCodeNotFound) {
			return acct, perr.Wrapf(err, perr.ErrorCodeNotFound, "no account for %s", identifier)
		}
		return acct, perr.WithOp(err, "lookup")
	}
	if err := p.Dir.MergeClaims(ctx, acct.UID, map[string]any{"admin": true}); err != nil {
		return acct, perr.WithOp(err, "claims")
	}
	if err := p.Profiles.SetRole(ctx, acct.UID, identifier, domain.RoleAdmin); err != nil {
		return acct, perr.WithOp(err, "set_role")
	}

	logger.C(ctx).Info().Str("uid", acct.UID).Msg("promote: admin claim set")
	fmt.Fprintf(out, "Granted admin to %s (uid=%s).\n", identifier, acct.UID)
	fmt.Fprintln(out, "The user needs to sign out and sign back in for the change to take effect.")
	return acct, nil
}
