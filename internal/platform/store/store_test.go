package store

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func openMem(t *testing.T, opts ...Option) *Store {
	t.Helper()
	s, err := Open(context.Background(), Config{SQLite: SQLiteConfig{Enabled: true, Path: ":memory:"}}, opts...)
	if err != nil {
		t.Fatalf("Open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

func TestOpen_NothingEnabled(t *testing.T) {
	t.Parallel()

	s, err := Open(context.Background(), Config{})
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	if s.PG != nil || s.SQLite != nil {
		t.Fatalf("unexpected seams PG=%T SQLite=%T", s.PG, s.SQLite)
	}
	if err := s.Close(context.Background()); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
}

func TestOpen_PGEnabled_BadURL_BubblesError(t *testing.T) {
	t.Parallel()

	cfg := Config{PG: PGConfig{Enabled: true, URL: "://bad", MaxConns: 1}}
	s, err := Open(context.Background(), cfg)
	if err == nil {
		t.Fatalf("expected error for bad pg url")
	}
	if s != nil {
		t.Fatalf("expected nil store on error, got %#v", s)
	}
}

func TestOpenPG_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// 127.0.0.1:1 is closed everywhere, so ping fails fast
	cfg := Config{PG: PGConfig{Enabled: true, URL: "postgres://u:p@127.0.0.1:1/db?sslmode=disable", ConnectRetries: 3}}
	_, err := openPG(ctx, cfg, &Store{Log: zerolog.Nop()})
	if err == nil {
		t.Fatalf("expected error with canceled context")
	}
}

func TestSQLite_ExecScalarMany(t *testing.T) {
	t.Parallel()

	s := openMem(t)
	ctx := context.Background()

	if _, err := Exec(ctx, s.SQLite, `CREATE TABLE t (id INTEGER PRIMARY KEY, name TEXT NOT NULL)`); err != nil {
		t.Fatalf("create: %v", err)
	}
	tag, err := Exec(ctx, s.SQLite, `INSERT INTO t (name) VALUES (?), (?)`, "ada", "grace")
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if tag.RowsAffected() != 2 {
		t.Fatalf("rows affected = %d, want 2", tag.RowsAffected())
	}
	if tag.String() != "rows affected: 2" {
		t.Fatalf("tag string = %q", tag.String())
	}

	n, err := Scalar[int](ctx, s.SQLite, `SELECT COUNT(*) FROM t`)
	if err != nil || n != 2 {
		t.Fatalf("count = %d, %v", n, err)
	}

	names, err := Many(ctx, s.SQLite, func(r Row) (string, error) {
		var v string
		return v, r.Scan(&v)
	}, `SELECT name FROM t ORDER BY id`)
	if err != nil {
		t.Fatalf("many: %v", err)
	}
	if strings.Join(names, ",") != "ada,grace" {
		t.Fatalf("names = %v", names)
	}
}

func TestSQLite_TxRollsBackOnError(t *testing.T) {
	t.Parallel()

	s := openMem(t)
	ctx := context.Background()
	if _, err := s.SQLite.Exec(ctx, `CREATE TABLE t (v TEXT)`); err != nil {
		t.Fatalf("create: %v", err)
	}

	boom := errors.New("boom")
	err := s.SQLite.Tx(ctx, func(q RowQuerier) error {
		if _, err := q.Exec(ctx, `INSERT INTO t (v) VALUES ('x')`); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Tx err = %v, want boom", err)
	}

	n, err := Scalar[int](ctx, s.SQLite, `SELECT COUNT(*) FROM t`)
	if err != nil || n != 0 {
		t.Fatalf("after rollback count = %d, %v", n, err)
	}

	if err := s.SQLite.Tx(ctx, func(q RowQuerier) error {
		_, err := q.Exec(ctx, `INSERT INTO t (v) VALUES ('y')`)
		return err
	}); err != nil {
		t.Fatalf("commit tx: %v", err)
	}
	n, _ = Scalar[int](ctx, s.SQLite, `SELECT COUNT(*) FROM t`)
	if n != 1 {
		t.Fatalf("after commit count = %d, want 1", n)
	}
}

func TestSQLite_GuardPings(t *testing.T) {
	t.Parallel()

	s := openMem(t)
	if err := s.Guard(context.Background()); err != nil {
		t.Fatalf("Guard: %v", err)
	}
}

func TestSQLite_TracerLogsStatements(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	cfg := Config{SQLite: SQLiteConfig{Enabled: true, Path: ":memory:", LogSQL: true}}
	s, err := Open(context.Background(), cfg, WithLogger(zerolog.New(&buf).Level(zerolog.InfoLevel)))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close(context.Background())

	if _, err := s.SQLite.Exec(context.Background(), "SELECT\n  1"); err != nil {
		t.Fatalf("exec: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, `"sql":"SELECT 1"`) {
		t.Fatalf("expected compacted sql in log, got %q", out)
	}
	if !strings.Contains(out, `"backend":"sqlite"`) {
		t.Fatalf("expected backend field, got %q", out)
	}
}

type recTracer struct{ evs []QueryEvent }

func (r *recTracer) OnQuery(_ context.Context, ev QueryEvent) { r.evs = append(r.evs, ev) }

func TestEmit_SlowFlag(t *testing.T) {
	t.Parallel()

	rt := &recTracer{}
	emit(context.Background(), rt, "pg", 1, "SELECT 1", nil, timeLongAgo(), nil)
	emit(context.Background(), rt, "pg", 0, "SELECT 1", nil, timeLongAgo(), nil)
	emit(context.Background(), nil, "pg", 0, "SELECT 1", nil, timeLongAgo(), nil)

	if len(rt.evs) != 2 {
		t.Fatalf("events = %d, want 2", len(rt.evs))
	}
	if !rt.evs[0].Slow {
		t.Fatalf("expected first event slow")
	}
	if rt.evs[1].Slow {
		t.Fatalf("slow threshold 0 disables the flag")
	}
}

func TestCompact(t *testing.T) {
	t.Parallel()

	if got := compact("SELECT  a,\n\tb\r\nFROM t"); got != "SELECT a, b FROM t" {
		t.Fatalf("compact = %q", got)
	}
}

func timeLongAgo() time.Time { return time.Now().Add(-time.Second) }
