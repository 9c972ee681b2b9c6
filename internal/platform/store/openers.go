package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"ballotbox/internal/platform/store/pg"

	// registers the "sqlite3" database/sql driver
	_ "github.com/mattn/go-sqlite3"
)

var sqlOpen = sql.Open

// openPG opens pg, pings it with backoff, and wraps it with our adapter
func openPG(ctx context.Context, cfg Config, s *Store) (TxRunner, error) {
	var tracer QueryTracer
	if cfg.PG.LogSQL {
		tracer = Tracer(s.Log)
	}

	p, err := pg.Open(ctx, pg.Config{URL: cfg.PG.URL, MaxConns: cfg.PG.MaxConns}, nil)
	if err != nil {
		return nil, err
	}

	const (
		pingTimeout    = 3 * time.Second
		backoffStart   = 150 * time.Millisecond
		backoffCeiling = 2 * time.Second
	)
	attempts := cfg.PG.ConnectRetries
	if attempts <= 0 {
		attempts = 6
	}

	var lastErr error
	backoff := backoffStart
	for i := 0; i < attempts; i++ {
		toCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		lastErr = p.Pool.Ping(toCtx)
		cancel()

		if lastErr == nil {
			return newPGAdapter(p, tracer, cfg.PG.SlowQueryMs), nil
		}
		s.Log.Warn().Err(lastErr).Int("attempt", i+1).Msg("postgres not ready")

		select {
		case <-ctx.Done():
			p.Close()
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, backoffCeiling)
	}

	p.Close()
	return nil, fmt.Errorf("postgres ping failed after %d attempts: %w", attempts, lastErr)
}

// openSQLite opens the sqlite file; ":memory:" pins a single connection so
// every statement sees the same database
func openSQLite(ctx context.Context, cfg Config, s *Store) (TxRunner, error) {
	path := cfg.SQLite.Path
	if path == "" {
		path = ":memory:"
	}
	db, err := sqlOpen("sqlite3", path+"?_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, err
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite open %s: %w", path, err)
	}

	var tracer QueryTracer
	if cfg.SQLite.LogSQL {
		tracer = Tracer(s.Log)
	}
	return newSQLiteAdapter(db, tracer), nil
}
