// Package service runs the provision pipeline: ingest, resolve accounts with
// a bounded worker pool, then project profiles in batches
package service

import (
	"context"
	"errors"
	"sync"
	"time"

	perr "ballotbox/internal/platform/errors"
	"ballotbox/internal/platform/logger"
	"ballotbox/internal/services/provision/domain"
	"ballotbox/internal/services/provision/ingest"
)

// DefaultWorkers is the resolution pool size when Config.Workers is unset
const DefaultWorkers = 8

// DefaultBatchSize keeps commits under the Firestore 500 write cap with headroom
const DefaultBatchSize = 450

// Config holds the pipeline knobs
type Config struct {
	Workers     int           // resolution pool size; <=0 -> DefaultWorkers
	BatchSize   int           // records per commit; <=0 -> DefaultBatchSize
	CallTimeout time.Duration // bound per directory call; 0 = none
}

// Service implements domain.RunnerPort
type Service struct {
	Dir      domain.Directory
	Profiles domain.ProfileWriter
	Cfg      Config
}

var _ domain.RunnerPort = (*Service)(nil)

// New constructs the service
func New(dir domain.Directory, profiles domain.ProfileWriter, cfg Config) *Service {
	if dir == nil {
		panic("provision.Service requires a non nil Directory")
	}
	if profiles == nil {
		panic("provision.Service requires a non nil ProfileWriter")
	}
	return &Service{Dir: dir, Profiles: profiles, Cfg: cfg}
}

// RunFile ingests path and runs the pipeline over it
// a file with no rows is a no-op reported as "CSV is empty"
func (s *Service) RunFile(ctx context.Context, path string, opt domain.RunOptions) (domain.Summary, error) {
	res, err := ingest.ReadFile(path)
	if errors.Is(err, ingest.ErrEmptyInput) {
		newReporter(opt.Out).Printf("CSV is empty")
		logger.C(ctx).Info().Str("path", path).Msg("provision: csv is empty, nothing to do")
		return domain.Summary{DryRun: opt.DryRun}, nil
	}
	if err != nil {
		return domain.Summary{DryRun: opt.DryRun}, err
	}
	return s.Run(ctx, res, opt)
}

// outcome is the per entry slot a worker fills
type outcome struct {
	acct domain.ResolvedAccount
	err  error
	done bool
}

// Run resolves and projects an ingested CSV
// resolution failures are isolated per entry; a commit failure aborts the run
func (s *Service) Run(ctx context.Context, res ingest.Result, opt domain.RunOptions) (domain.Summary, error) {
	rep := newReporter(opt.Out)
	log := logger.C(ctx)

	sum := domain.Summary{
		DryRun:   opt.DryRun,
		RowsRead: res.RowsRead,
		Entries:  len(res.Entries),
		Skipped:  len(res.Skipped),
	}
	for _, sk := range res.Skipped {
		rep.Printf("%s", sk.String())
	}
	log.Info().
		Int("rows", res.RowsRead).
		Int("entries", len(res.Entries)).
		Int("skipped", len(res.Skipped)).
		Bool("dry_run", opt.DryRun).
		Msg("provision: ingested csv")

	outs, err := s.resolveAll(ctx, res.Entries, opt.DryRun, rep)

	resolved := make([]domain.ResolvedAccount, 0, len(outs))
	for i, o := range outs {
		if !o.done {
			continue
		}
		if o.err != nil {
			sum.Failed++
			f := domain.Failure{Identifier: res.Entries[i].Identifier, Row: res.Entries[i].Row, Err: o.err}
			sum.Failures = append(sum.Failures, f)
			log.Warn().Err(f.Err).Int("row", f.Row).Str("code", perr.CodeOf(f.Err).String()).Msg("provision: resolve failed")
			continue
		}
		sum.Resolved++
		switch o.acct.Path {
		case domain.PathExisting:
			sum.Existing++
		case domain.PathRaceRecovered:
			sum.Existing++
			sum.RaceRecovered++
		case domain.PathWouldCreate:
			sum.WouldCreate++
		}
		resolved = append(resolved, o.acct)
	}
	if err != nil {
		return sum, err
	}

	if opt.DryRun {
		rep.Printf("Dry run finished. Would create: %d, Would exist: %d", sum.WouldCreate, sum.Existing)
		// nothing was written
		rep.Printf("Finished. Created: 0, Updated: 0")
		log.Info().Int("would_create", sum.WouldCreate).Int("would_exist", sum.Existing).Int("failed", sum.Failed).Msg("provision: dry run done")
		return sum, nil
	}

	// created/updated counts come from committed batches only
	sum.Existing = 0
	if err := s.project(ctx, resolved, &sum, rep); err != nil {
		rep.Printf("Stopped after %d committed batches. Created: %d, Updated: %d", sum.Batches, sum.Created, sum.Existing)
		return sum, err
	}

	rep.Printf("Finished. Created: %d, Updated: %d", sum.Created, sum.Existing)
	log.Info().
		Int("created", sum.Created).
		Int("updated", sum.Existing).
		Int("failed", sum.Failed).
		Int("batches", sum.Batches).
		Msg("provision: done")
	return sum, nil
}

// resolveAll runs lookup-or-create over entries with a fixed size pool
// each worker writes only its own slot; dispatch stops when ctx is done
func (s *Service) resolveAll(ctx context.Context, entries []domain.Entry, dry bool, rep *reporter) ([]outcome, error) {
	w := s.Cfg.Workers
	if w <= 0 {
		w = DefaultWorkers
	}
	outs := make([]outcome, len(entries))

	var wg sync.WaitGroup
	sem := make(chan struct{}, w)

	worker := func(i int) {
		defer func() { <-sem; wg.Done() }()
		e := entries[i]
		rep.Printf("Processing row %d: %s", e.Row, e.Identifier)

		acct, err := s.resolve(ctx, e, dry)
		outs[i] = outcome{acct: acct, err: err, done: true}
		switch {
		case err != nil:
			rep.Printf("Error processing %s: %v", e.Identifier, err)
		case acct.Path == domain.PathWouldCreate:
			rep.Printf("Dry run - would create user: %s", e.Identifier)
		case dry:
			rep.Printf("Dry run - would use existing user: %s (uid=%s)", e.Identifier, acct.UID)
		}
	}

	canceled := func() ([]outcome, error) {
		wg.Wait()
		return outs, perr.Wrap(ctx.Err(), perr.ErrorCodeUnavailable, "provision: run canceled")
	}
	for i := range entries {
		if ctx.Err() != nil {
			return canceled()
		}
		select {
		case <-ctx.Done():
			return canceled()
		case sem <- struct{}{}:
		}
		wg.Add(1)
		go worker(i)
	}
	wg.Wait()
	return outs, nil
}
