// Package store provides a unified interface to the optional SQL backends
// the profile writers can target
package store

import (
	"context"
	"errors"
	"fmt"

	"ballotbox/internal/platform/logger"
)

// Store is the facade for optional backends
// zero value is safe but does nothing
type Store struct {
	// Log is the logger used by subclients
	Log logger.Logger

	// PG is the postgres seam, nil when disabled
	PG TxRunner

	// SQLite is the sqlite seam, nil when disabled
	SQLite TxRunner
}

// Row exposes the minimal scan contract a single row needs
type Row interface {
	Scan(dest ...any) error
}

// Rows exposes the minimal iteration and scan for a result set
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
	Columns() []string
}

// CommandTag is a tiny interface to inspect command results
type CommandTag interface {
	String() string
	RowsAffected() int64
}

// RowQuerier is the read and write surface repos use for sql
type RowQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) Row
}

// TxRunner wraps transaction execution around a function
type TxRunner interface {
	RowQuerier
	Tx(ctx context.Context, fn func(q RowQuerier) error) error
}

// Pinger is any seam that can report readiness
type Pinger interface{ Ping(context.Context) error }

// Open constructs a Store with the requested backends
// backends not enabled in cfg remain nil on the Store
func Open(ctx context.Context, cfg Config, opts ...Option) (*Store, error) {
	s := &Store{}
	for _, o := range opts {
		if err := o(s); err != nil {
			return nil, err
		}
	}
	s.Log = s.Log.With().Str("component", "store").Logger()

	if cfg.PG.Enabled {
		c, err := openPG(ctx, cfg, s)
		if err != nil {
			return nil, err
		}
		s.PG = c
	}

	if cfg.SQLite.Enabled {
		c, err := openSQLite(ctx, cfg, s)
		if err != nil {
			_ = s.Close(ctx)
			return nil, err
		}
		s.SQLite = c
	}

	return s, nil
}

// Guard pings every configured seam
func (s *Store) Guard(ctx context.Context) error {
	if s == nil {
		return errors.New("nil store")
	}
	var errs []error
	if p, ok := s.PG.(Pinger); ok {
		if err := p.Ping(ctx); err != nil {
			errs = append(errs, fmt.Errorf("pg: %w", err))
		}
	}
	if p, ok := s.SQLite.(Pinger); ok {
		if err := p.Ping(ctx); err != nil {
			errs = append(errs, fmt.Errorf("sqlite: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Close closes all initialized backends
// nil backends are ignored
func (s *Store) Close(_ context.Context) error {
	if s == nil {
		return nil
	}
	var errs []error
	for _, b := range []TxRunner{s.PG, s.SQLite} {
		if c, ok := b.(interface{ Close() error }); ok {
			if e := c.Close(); e != nil {
				errs = append(errs, e)
			}
		}
	}
	return errors.Join(errs...)
}
