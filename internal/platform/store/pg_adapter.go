package store

import (
	"context"
	"errors"
	"time"

	"ballotbox/internal/platform/store/pg"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// pgxQuerier is what *pgxpool.Pool and pgx.Tx have in common
type pgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// pgAdapter wraps pg.PG and implements TxRunner
// it emits query trace events when a tracer is configured
type pgAdapter struct {
	pgQuerier
	p *pg.PG
}

// pgQuerier runs statements on either the pool or a tx
type pgQuerier struct {
	q      pgxQuerier
	tracer QueryTracer
	slowUS int64
}

func newPGAdapter(p *pg.PG, tracer QueryTracer, slowMs int) *pgAdapter {
	return &pgAdapter{
		p:         p,
		pgQuerier: pgQuerier{q: p.Pool, tracer: tracer, slowUS: int64(slowMs) * 1000},
	}
}

func (a *pgAdapter) Ping(ctx context.Context) error {
	if a == nil || a.p == nil {
		return errors.New("pg: nil adapter")
	}
	return a.p.Pool.Ping(ctx)
}

func (a *pgAdapter) Close() error { a.p.Close(); return nil }

func (a *pgAdapter) Tx(ctx context.Context, fn func(q RowQuerier) error) error {
	tx, err := a.p.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	if err := fn(pgQuerier{q: tx, tracer: a.tracer, slowUS: a.slowUS}); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

func (x pgQuerier) Exec(ctx context.Context, sql string, args ...any) (CommandTag, error) {
	start := time.Now()
	ct, err := x.q.Exec(ctx, sql, args...)
	x.emit(ctx, sql, args, start, err)
	return ct, err
}

func (x pgQuerier) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	start := time.Now()
	rs, err := x.q.Query(ctx, sql, args...)
	x.emit(ctx, sql, args, start, err)
	if err != nil {
		return nil, err
	}
	return pgRows{r: rs}, nil
}

func (x pgQuerier) QueryRow(ctx context.Context, sql string, args ...any) Row {
	start := time.Now()
	r := x.q.QueryRow(ctx, sql, args...)
	return tracedRow{
		r:     r,
		after: func(scanErr error) { x.emit(ctx, sql, args, start, scanErr) },
	}
}

func (x pgQuerier) emit(ctx context.Context, sql string, args []any, start time.Time, err error) {
	emit(ctx, x.tracer, "pg", x.slowUS, sql, args, start, err)
}

// emit sends a query event to tracer when one is configured
func emit(ctx context.Context, tracer QueryTracer, backend string, slowUS int64, sql string, args []any, start time.Time, err error) {
	if tracer == nil {
		return
	}
	elapsedUS := time.Since(start).Microseconds()
	tracer.OnQuery(ctx, QueryEvent{
		Backend:   backend,
		SQL:       sql,
		Args:      args,
		ElapsedUS: elapsedUS,
		Err:       err,
		Slow:      slowUS > 0 && elapsedUS >= slowUS,
	})
}

// tracedRow emits after Scan so the event carries the scan error
type tracedRow struct {
	r     Row
	after func(error)
}

func (x tracedRow) Scan(dst ...any) error {
	err := x.r.Scan(dst...)
	if x.after != nil {
		x.after(err)
	}
	return err
}

type pgRows struct{ r pgx.Rows }

func (x pgRows) Next() bool            { return x.r.Next() }
func (x pgRows) Scan(dst ...any) error { return x.r.Scan(dst...) }
func (x pgRows) Err() error            { return x.r.Err() }
func (x pgRows) Close()                { x.r.Close() }
func (x pgRows) Columns() []string {
	f := x.r.FieldDescriptions()
	out := make([]string, len(f))
	for i := range f {
		out[i] = f[i].Name
	}
	return out
}
