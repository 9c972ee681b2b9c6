package repo

import (
	"context"

	perr "ballotbox/internal/platform/errors"
	"ballotbox/internal/services/provision/domain"

	"cloud.google.com/go/firestore"
)

// DefaultCollection is where the voting app reads user profiles
const DefaultCollection = "users"

// docBatch is the slice of *firestore.WriteBatch the writer uses
type docBatch interface {
	Merge(uid string, fields map[string]any)
	Commit(ctx context.Context) error
}

// docStore is the slice of *firestore.Client the writer uses
type docStore interface {
	Batch() docBatch
	Merge(ctx context.Context, uid string, fields map[string]any) error
}

// Firestore merge-upserts profiles as documents keyed by uid
type Firestore struct {
	store docStore
	coll  string
}

var _ domain.ProfileWriter = (*Firestore)(nil)

// NewFirestore writes into collection on client
func NewFirestore(client *firestore.Client, collection string) *Firestore {
	if client == nil {
		panic("repo.Firestore requires a non nil client")
	}
	if collection == "" {
		collection = DefaultCollection
	}
	return &Firestore{store: clientStore{c: client, coll: collection}, coll: collection}
}

// MaxBatch is the Firestore per commit write cap
func (f *Firestore) MaxBatch() int { return FirestoreMaxBatch }

// CommitBatch writes records in one atomic WriteBatch
func (f *Firestore) CommitBatch(ctx context.Context, records []domain.ProfileRecord) error {
	if len(records) == 0 {
		return nil
	}
	if len(records) > FirestoreMaxBatch {
		return perr.InvalidArgf("batch of %d exceeds the %d write cap", len(records), FirestoreMaxBatch)
	}
	b := f.store.Batch()
	for _, r := range records {
		b.Merge(r.UID, r.Fields())
	}
	return perr.FromFirestore(b.Commit(ctx), "commit "+f.coll+" batch")
}

// SetRole merges the role into users/{uid}
func (f *Firestore) SetRole(ctx context.Context, uid, email string, role domain.Role) error {
	return perr.FromFirestore(f.store.Merge(ctx, uid, roleFields(uid, email, role)), "set role on "+f.coll+"/"+uid)
}

type clientStore struct {
	c    *firestore.Client
	coll string
}

func (s clientStore) Batch() docBatch {
	return &writeBatch{b: s.c.Batch(), col: s.c.Collection(s.coll)}
}

func (s clientStore) Merge(ctx context.Context, uid string, fields map[string]any) error {
	_, err := s.c.Collection(s.coll).Doc(uid).Set(ctx, fields, firestore.MergeAll)
	return err
}

type writeBatch struct {
	b   *firestore.WriteBatch
	col *firestore.CollectionRef
}

func (w *writeBatch) Merge(uid string, fields map[string]any) {
	w.b.Set(w.col.Doc(uid), fields, firestore.MergeAll)
}

func (w *writeBatch) Commit(ctx context.Context) error {
	_, err := w.b.Commit(ctx)
	return err
}
