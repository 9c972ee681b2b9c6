package repo

import (
	"context"
	"encoding/json"

	"ballotbox/internal/modkit/repokit"
	perr "ballotbox/internal/platform/errors"
	"ballotbox/internal/services/provision/domain"
)

type pgQueries struct{ q repokit.Queryer }

func (r *pgQueries) EnsureSchema(ctx context.Context) error {
	const sql = `
        CREATE TABLE IF NOT EXISTS user_profiles (
            uid        text PRIMARY KEY,
            doc        jsonb NOT NULL DEFAULT '{}'::jsonb,
            created_at timestamptz NOT NULL DEFAULT now(),
            updated_at timestamptz NOT NULL DEFAULT now()
        )
    `
	_, err := r.q.Exec(ctx, sql)
	return perr.FromPostgres(err, "ensure user_profiles")
}

// upsert merges top level keys; keys absent from doc are left alone
func (r *pgQueries) upsert(ctx context.Context, uid string, doc map[string]any) error {
	const sql = `
        INSERT INTO user_profiles (uid, doc)
        VALUES ($1, $2::jsonb)
        ON CONFLICT (uid)
        DO UPDATE SET doc = user_profiles.doc || EXCLUDED.doc,
                      updated_at = now()
    `
	_, err := r.q.Exec(ctx, sql, uid, doc)
	return perr.FromPostgresf(err, "upsert profile %s", uid)
}

func (r *pgQueries) Upsert(ctx context.Context, rec domain.ProfileRecord) error {
	return r.upsert(ctx, rec.UID, rec.Fields())
}

func (r *pgQueries) SetRole(ctx context.Context, uid, email string, role domain.Role) error {
	return r.upsert(ctx, uid, roleFields(uid, email, role))
}

func (r *pgQueries) Doc(ctx context.Context, uid string) (map[string]any, error) {
	const sql = `SELECT doc FROM user_profiles WHERE uid = $1`
	var raw []byte
	if err := r.q.QueryRow(ctx, sql, uid).Scan(&raw); err != nil {
		if perr.IsNoRows(err) {
			return nil, perr.NotFoundf("no profile for %s", uid)
		}
		return nil, perr.FromPostgresf(err, "read profile %s", uid)
	}
	out := map[string]any{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeDB, "decode profile %s", uid)
	}
	return out, nil
}
