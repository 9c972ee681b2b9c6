package store

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"
)

// sqlQuerier is what *sql.DB and *sql.Tx have in common
type sqlQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// sqliteAdapter wraps *sql.DB (mattn/go-sqlite3) and implements TxRunner
type sqliteAdapter struct {
	sqliteQuerier
	db *sql.DB
}

type sqliteQuerier struct {
	q      sqlQuerier
	tracer QueryTracer
}

func newSQLiteAdapter(db *sql.DB, tracer QueryTracer) *sqliteAdapter {
	return &sqliteAdapter{db: db, sqliteQuerier: sqliteQuerier{q: db, tracer: tracer}}
}

func (a *sqliteAdapter) Ping(ctx context.Context) error {
	if a == nil || a.db == nil {
		return errors.New("sqlite: nil adapter")
	}
	return a.db.PingContext(ctx)
}

func (a *sqliteAdapter) Close() error { return a.db.Close() }

func (a *sqliteAdapter) Tx(ctx context.Context, fn func(q RowQuerier) error) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(sqliteQuerier{q: tx, tracer: a.tracer}); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (x sqliteQuerier) Exec(ctx context.Context, query string, args ...any) (CommandTag, error) {
	start := time.Now()
	res, err := x.q.ExecContext(ctx, query, args...)
	emit(ctx, x.tracer, "sqlite", 0, query, args, start, err)
	if err != nil {
		return nil, err
	}
	return sqlTag{res: res}, nil
}

func (x sqliteQuerier) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	start := time.Now()
	rs, err := x.q.QueryContext(ctx, query, args...)
	emit(ctx, x.tracer, "sqlite", 0, query, args, start, err)
	if err != nil {
		return nil, err
	}
	return sqlRows{r: rs}, nil
}

func (x sqliteQuerier) QueryRow(ctx context.Context, query string, args ...any) Row {
	start := time.Now()
	r := x.q.QueryRowContext(ctx, query, args...)
	return tracedRow{
		r:     r,
		after: func(scanErr error) { emit(ctx, x.tracer, "sqlite", 0, query, args, start, scanErr) },
	}
}

type sqlRows struct{ r *sql.Rows }

func (x sqlRows) Next() bool            { return x.r.Next() }
func (x sqlRows) Scan(dst ...any) error { return x.r.Scan(dst...) }
func (x sqlRows) Err() error            { return x.r.Err() }
func (x sqlRows) Close()                { _ = x.r.Close() }
func (x sqlRows) Columns() []string {
	cols, _ := x.r.Columns()
	return cols
}

// sqlTag adapts sql.Result to CommandTag
type sqlTag struct{ res sql.Result }

func (t sqlTag) RowsAffected() int64 {
	n, _ := t.res.RowsAffected()
	return n
}

func (t sqlTag) String() string { return "rows affected: " + strconv.FormatInt(t.RowsAffected(), 10) }
