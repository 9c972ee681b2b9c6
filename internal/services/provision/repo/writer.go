package repo

import (
	"context"
	"sync"

	"ballotbox/internal/modkit/repokit"
	perr "ballotbox/internal/platform/errors"
	"ballotbox/internal/services/provision/domain"
)

// SQLWriter is a domain.ProfileWriter over a sql TxRunner
// each batch is one transaction; the schema is ensured on first use
type SQLWriter struct {
	db     repokit.TxRunner
	binder repokit.Binder[Repo]
	max    int

	mu      sync.Mutex
	ensured bool
}

var _ domain.ProfileWriter = (*SQLWriter)(nil)

// NewSQLWriter binds repos from binder against db
func NewSQLWriter(db repokit.TxRunner, binder repokit.Binder[Repo], maxBatch int) *SQLWriter {
	if db == nil {
		panic("repo.SQLWriter requires a non nil TxRunner")
	}
	if binder == nil {
		panic("repo.SQLWriter requires a non nil Repo binder")
	}
	return &SQLWriter{db: db, binder: binder, max: maxBatch}
}

// MaxBatch is the per commit ceiling
func (w *SQLWriter) MaxBatch() int { return w.max }

// CommitBatch upserts records in a single transaction
func (w *SQLWriter) CommitBatch(ctx context.Context, records []domain.ProfileRecord) error {
	if len(records) == 0 {
		return nil
	}
	if len(records) > w.max {
		return perr.InvalidArgf("batch of %d exceeds the %d write cap", len(records), w.max)
	}
	if err := w.ensure(ctx); err != nil {
		return err
	}
	return repokit.WithTx(ctx, w.db, w.binder, func(r Repo) error {
		for _, rec := range records {
			if err := r.Upsert(ctx, rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// SetRole merges the role into one profile
func (w *SQLWriter) SetRole(ctx context.Context, uid, email string, role domain.Role) error {
	if err := w.ensure(ctx); err != nil {
		return err
	}
	return repokit.MustBind(w.binder, w.db).SetRole(ctx, uid, email, role)
}

// Doc reads back one stored profile
func (w *SQLWriter) Doc(ctx context.Context, uid string) (map[string]any, error) {
	return repokit.MustBind(w.binder, w.db).Doc(ctx, uid)
}

func (w *SQLWriter) ensure(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.ensured {
		return nil
	}
	if err := repokit.MustBind(w.binder, w.db).EnsureSchema(ctx); err != nil {
		return err
	}
	w.ensured = true
	return nil
}
