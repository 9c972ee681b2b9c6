package service

import (
	"context"

	perr "ballotbox/internal/platform/errors"
	"ballotbox/internal/platform/logger"
	"ballotbox/internal/services/provision/domain"
)

// resolve ensures an account exists for e
// lookup first; create on not found; a create that loses a race falls back
// to one compensating lookup and reports the original create error if that fails
func (s *Service) resolve(ctx context.Context, e domain.Entry, dry bool) (domain.ResolvedAccount, error) {
	out := domain.ResolvedAccount{Identifier: e.Identifier, Row: e.Row}

	acct, err := s.lookup(ctx, e.Identifier)
	if err == nil {
		out.UID, out.Path = acct.UID, domain.PathExisting
		return out, nil
	}
	if !perr.IsCode(err, perr.ErrorCodeNotFound) {
		return out, perr.WithOp(err, "lookup")
	}

	if dry {
		out.Path = domain.PathWouldCreate
		return out, nil
	}

	acct, cerr := s.create(ctx, e.Identifier, e.Secret)
	if cerr == nil {
		out.UID, out.WasCreated, out.Path = acct.UID, true, domain.PathCreated
		return out, nil
	}
	if !perr.IsCode(cerr, perr.ErrorCodeAlreadyExists) {
		return out, perr.WithOp(cerr, "create")
	}

	acct, lerr := s.lookup(ctx, e.Identifier)
	if lerr != nil {
		logger.C(ctx).Debug().Err(lerr).Int("row", e.Row).Msg("provision: compensating lookup failed")
		return out, perr.WithOp(cerr, "create")
	}
	out.UID, out.Path = acct.UID, domain.PathRaceRecovered
	return out, nil
}

func (s *Service) lookup(ctx context.Context, identifier string) (domain.Account, error) {
	ctx, cancel := s.callCtx(ctx)
	defer cancel()
	return s.Dir.LookupAccount(ctx, identifier)
}

func (s *Service) create(ctx context.Context, identifier, secret string) (domain.Account, error) {
	ctx, cancel := s.callCtx(ctx)
	defer cancel()
	return s.Dir.CreateAccount(ctx, identifier, secret)
}

// callCtx bounds one directory call when CallTimeout is set
func (s *Service) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.Cfg.CallTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.Cfg.CallTimeout)
}
