package repo

import (
	"context"
	"errors"
	"testing"

	perr "ballotbox/internal/platform/errors"
	"ballotbox/internal/services/provision/domain"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type fakeBatch struct {
	st     *fakeStore
	staged map[string]map[string]any
}

func (b *fakeBatch) Merge(uid string, fields map[string]any) { b.staged[uid] = fields }

func (b *fakeBatch) Commit(context.Context) error {
	if b.st.commitErr != nil {
		return b.st.commitErr
	}
	b.st.commits = append(b.st.commits, len(b.staged))
	for k, v := range b.staged {
		b.st.docs[k] = v
	}
	return nil
}

type fakeStore struct {
	docs      map[string]map[string]any
	commits   []int
	commitErr error
}

func (s *fakeStore) Batch() docBatch {
	return &fakeBatch{st: s, staged: map[string]map[string]any{}}
}

func (s *fakeStore) Merge(_ context.Context, uid string, fields map[string]any) error {
	s.docs[uid] = fields
	return nil
}

func newFakeFirestore() (*Firestore, *fakeStore) {
	st := &fakeStore{docs: map[string]map[string]any{}}
	return &Firestore{store: st, coll: DefaultCollection}, st
}

func TestFirestore_CommitBatch(t *testing.T) {
	t.Parallel()

	f, st := newFakeFirestore()
	err := f.CommitBatch(context.Background(), []domain.ProfileRecord{rec("u1", "a@x.com", true), rec("u2", "b@x.com", false)})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if len(st.commits) != 1 || st.commits[0] != 2 {
		t.Fatalf("commits = %v", st.commits)
	}
	if st.docs["u2"]["email"] != "b@x.com" || st.docs["u2"]["hasVoted"] != false {
		t.Fatalf("doc = %v", st.docs["u2"])
	}
	if f.MaxBatch() != 500 {
		t.Fatalf("MaxBatch = %d", f.MaxBatch())
	}
}

func TestFirestore_CommitErrorsClassified(t *testing.T) {
	t.Parallel()

	f, st := newFakeFirestore()
	st.commitErr = status.Error(codes.Unavailable, "backend down")
	err := f.CommitBatch(context.Background(), []domain.ProfileRecord{rec("u1", "a@x.com", true)})
	if !perr.IsCode(err, perr.ErrorCodeUnavailable) {
		t.Fatalf("err = %v, want unavailable", err)
	}

	st.commitErr = errors.New("opaque")
	err = f.CommitBatch(context.Background(), []domain.ProfileRecord{rec("u1", "a@x.com", true)})
	if !perr.IsCode(err, perr.ErrorCodeDB) {
		t.Fatalf("err = %v, want db", err)
	}
}

func TestFirestore_BatchCap(t *testing.T) {
	t.Parallel()

	f, st := newFakeFirestore()
	if err := f.CommitBatch(context.Background(), make([]domain.ProfileRecord, 501)); !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("err = %v", err)
	}
	if err := f.CommitBatch(context.Background(), nil); err != nil || len(st.commits) != 0 {
		t.Fatalf("empty batch should be a no-op, err = %v commits = %v", err, st.commits)
	}
}

func TestFirestore_SetRole(t *testing.T) {
	t.Parallel()

	f, st := newFakeFirestore()
	if err := f.SetRole(context.Background(), "u1", "a@x.com", domain.RoleAdmin); err != nil {
		t.Fatalf("set role: %v", err)
	}
	d := st.docs["u1"]
	if d["role"] != "admin" || d["uid"] != "u1" {
		t.Fatalf("doc = %v", d)
	}
	if _, ok := d["hasVoted"]; ok {
		t.Fatalf("SetRole must not touch hasVoted")
	}
}
