package service

import (
	"context"

	perr "ballotbox/internal/platform/errors"
	"ballotbox/internal/platform/logger"
	"ballotbox/internal/services/provision/domain"
)

// batchSize is the effective per commit size, capped by the writer
func (s *Service) batchSize() int {
	n := s.Cfg.BatchSize
	if n <= 0 {
		n = DefaultBatchSize
	}
	if m := s.Profiles.MaxBatch(); m > 0 && n > m {
		n = m
	}
	return n
}

// project commits one profile per resolved account, batches in order
// a failed commit is not retried; earlier batches stay applied
func (s *Service) project(ctx context.Context, resolved []domain.ResolvedAccount, sum *domain.Summary, rep *reporter) error {
	size := s.batchSize()
	log := logger.C(ctx)

	for start := 0; start < len(resolved); start += size {
		end := min(start+size, len(resolved))
		chunk := resolved[start:end]

		records := make([]domain.ProfileRecord, len(chunk))
		for i, r := range chunk {
			records[i] = domain.NewProfile(r)
		}

		if err := s.Profiles.CommitBatch(ctx, records); err != nil {
			log.Error().Err(err).Int("batch", sum.Batches+1).Int("size", len(records)).Msg("provision: commit failed")
			code := perr.CodeOf(err)
			if code == perr.ErrorCodeUnknown {
				code = perr.ErrorCodeDB
			}
			return perr.WithOp(perr.Wrapf(err, code, "commit profile batch %d", sum.Batches+1), "project")
		}
		sum.Batches++
		sum.RecordsWritten += len(records)

		for _, r := range records {
			if r.WasCreated {
				sum.Created++
				rep.Printf("Created user %s (uid=%s) and added user doc.", r.Identifier, r.UID)
			} else {
				sum.Existing++
				rep.Printf("User %s already existed (uid=%s) - updated user doc.", r.Identifier, r.UID)
			}
		}
		log.Debug().Int("batch", sum.Batches).Int("size", len(records)).Msg("provision: batch committed")
	}
	return nil
}
