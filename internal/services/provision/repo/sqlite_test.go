package repo

import (
	"context"
	"testing"

	perr "ballotbox/internal/platform/errors"
	"ballotbox/internal/platform/store"
	"ballotbox/internal/services/provision/domain"
)

func openLite(t *testing.T) *SQLWriter {
	t.Helper()
	st, err := store.Open(context.Background(), store.Config{SQLite: store.SQLiteConfig{Enabled: true, Path: ":memory:"}})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = st.Close(context.Background()) })
	return NewSQLWriter(st.SQLite, NewSQLite(), SQLiteMaxBatch)
}

func rec(uid, email string, created bool) domain.ProfileRecord {
	return domain.NewProfile(domain.ResolvedAccount{UID: uid, Identifier: email, WasCreated: created})
}

func TestSQLWriter_CommitAndMerge(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	w := openLite(t)

	if err := w.CommitBatch(ctx, []domain.ProfileRecord{rec("u1", "a@x.com", true), rec("u2", "b@x.com", false)}); err != nil {
		t.Fatalf("commit: %v", err)
	}
	doc, err := w.Doc(ctx, "u1")
	if err != nil {
		t.Fatalf("doc: %v", err)
	}
	if doc["uid"] != "u1" || doc["email"] != "a@x.com" || doc["role"] != "user" || doc["hasVoted"] != false {
		t.Fatalf("doc = %v", doc)
	}

	// promote then re-provision: role is reset, nothing else is dropped
	if err := w.SetRole(ctx, "u1", "a@x.com", domain.RoleAdmin); err != nil {
		t.Fatalf("set role: %v", err)
	}
	if doc, _ = w.Doc(ctx, "u1"); doc["role"] != "admin" || doc["hasVoted"] != false {
		t.Fatalf("after promote doc = %v", doc)
	}
	if err := w.CommitBatch(ctx, []domain.ProfileRecord{rec("u1", "a@x.com", false)}); err != nil {
		t.Fatalf("recommit: %v", err)
	}
	if doc, _ = w.Doc(ctx, "u1"); doc["role"] != "user" {
		t.Fatalf("after recommit doc = %v", doc)
	}
}

func TestSQLWriter_MergeKeepsUnknownFields(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	w := openLite(t)
	if err := w.SetRole(ctx, "u9", "z@x.com", domain.RoleAdmin); err != nil {
		t.Fatalf("set role: %v", err)
	}
	if _, err := w.db.Exec(ctx, `UPDATE user_profiles SET doc = json_set(doc, '$.displayName', 'Zed') WHERE uid = ?`, "u9"); err != nil {
		t.Fatalf("seed extra field: %v", err)
	}
	if err := w.CommitBatch(ctx, []domain.ProfileRecord{rec("u9", "z@x.com", false)}); err != nil {
		t.Fatalf("commit: %v", err)
	}
	doc, _ := w.Doc(ctx, "u9")
	if doc["displayName"] != "Zed" || doc["role"] != "user" {
		t.Fatalf("doc = %v", doc)
	}
}

func TestSQLWriter_RejectsOversizedBatch(t *testing.T) {
	t.Parallel()

	w := openLite(t)
	recs := make([]domain.ProfileRecord, SQLiteMaxBatch+1)
	err := w.CommitBatch(context.Background(), recs)
	if !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("err = %v, want invalid argument", err)
	}
}

func TestSQLWriter_DocMissing(t *testing.T) {
	t.Parallel()

	w := openLite(t)
	if err := w.CommitBatch(context.Background(), nil); err != nil {
		t.Fatalf("empty commit: %v", err)
	}
	_ = w.ensure(context.Background())
	if _, err := w.Doc(context.Background(), "ghost"); !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
}
