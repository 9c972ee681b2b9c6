// Package repo provides the profile stores the projection stage writes to
package repo

import (
	"context"

	"ballotbox/internal/modkit/repokit"
	"ballotbox/internal/services/provision/domain"
)

// Ceilings on writes per commit, per backend
const (
	FirestoreMaxBatch = 500
	PostgresMaxBatch  = 5000
	SQLiteMaxBatch    = 500
)

// Table holds one document per uid
const Table = "user_profiles"

// Repo is the sql persistence surface for profile documents
type Repo interface {
	// EnsureSchema creates the profile table when missing
	EnsureSchema(ctx context.Context) error
	// Upsert merges rec's fields into the stored document
	Upsert(ctx context.Context, rec domain.ProfileRecord) error
	// SetRole merges uid, email and role into the stored document
	SetRole(ctx context.Context, uid, email string, role domain.Role) error
	// Doc returns the stored document for uid
	Doc(ctx context.Context, uid string) (map[string]any, error)
}

// PG binds the postgres implementation
type PG struct{}

// NewPG returns a binder for postgres
func NewPG() repokit.Binder[Repo] { return PG{} }

// Bind attaches a Queryer to the Postgres implementation
func (PG) Bind(q repokit.Queryer) Repo { return &pgQueries{q: q} }

// SQLite binds the sqlite implementation
type SQLite struct{}

// NewSQLite returns a binder for sqlite
func NewSQLite() repokit.Binder[Repo] { return SQLite{} }

// Bind attaches a Queryer to the sqlite implementation
func (SQLite) Bind(q repokit.Queryer) Repo { return &liteQueries{q: q} }

func roleFields(uid, email string, role domain.Role) map[string]any {
	return map[string]any{"uid": uid, "email": email, "role": string(role)}
}
