// Package pg provides a Postgres client using pgxpool
package pg

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Config configures pgxpool for pg
type Config struct {
	URL      string
	MaxConns int32
}

// PG is a postgres client around a pool
type PG struct {
	Pool *pgxpool.Pool
}

var newPool = pgxpool.NewWithConfig

// Open creates a new PG client with the given config and optional pool config mutator
// The pool connects lazily; callers ping to confirm readiness
func Open(ctx context.Context, cfg Config, poolCfgMut func(*pgxpool.Config)) (*PG, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, err
	}
	if cfg.MaxConns > 0 {
		pcfg.MaxConns = cfg.MaxConns
	}
	if poolCfgMut != nil {
		poolCfgMut(pcfg)
	}
	pool, err := newPool(ctx, pcfg)
	if err != nil {
		return nil, err
	}
	return &PG{Pool: pool}, nil
}

// Close closes the pool
func (p *PG) Close() {
	if p != nil && p.Pool != nil {
		p.Pool.Close()
	}
}
