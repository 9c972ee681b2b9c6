package repo

import (
	"context"
	"encoding/json"

	"ballotbox/internal/modkit/repokit"
	perr "ballotbox/internal/platform/errors"
	"ballotbox/internal/services/provision/domain"
)

type liteQueries struct{ q repokit.Queryer }

func (r *liteQueries) EnsureSchema(ctx context.Context) error {
	const sql = `
        CREATE TABLE IF NOT EXISTS user_profiles (
            uid        TEXT PRIMARY KEY,
            doc        TEXT NOT NULL DEFAULT '{}',
            created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now')),
            updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
        )
    `
	if _, err := r.q.Exec(ctx, sql); err != nil {
		return perr.Wrap(err, perr.ErrorCodeDB, "ensure user_profiles")
	}
	return nil
}

// upsert merges top level keys with json_patch
func (r *liteQueries) upsert(ctx context.Context, uid string, doc map[string]any) error {
	const sql = `
        INSERT INTO user_profiles (uid, doc)
        VALUES (?, json(?))
        ON CONFLICT (uid)
        DO UPDATE SET doc = json_patch(user_profiles.doc, excluded.doc),
                      updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')
    `
	b, err := json.Marshal(doc)
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "encode profile %s", uid)
	}
	if _, err := r.q.Exec(ctx, sql, uid, string(b)); err != nil {
		code := perr.ErrorCodeDB
		if perr.IsRetryable(err) {
			code = perr.ErrorCodeUnavailable
		}
		return perr.Wrapf(err, code, "upsert profile %s", uid)
	}
	return nil
}

func (r *liteQueries) Upsert(ctx context.Context, rec domain.ProfileRecord) error {
	return r.upsert(ctx, rec.UID, rec.Fields())
}

func (r *liteQueries) SetRole(ctx context.Context, uid, email string, role domain.Role) error {
	return r.upsert(ctx, uid, roleFields(uid, email, role))
}

func (r *liteQueries) Doc(ctx context.Context, uid string) (map[string]any, error) {
	const sql = `SELECT doc FROM user_profiles WHERE uid = ?`
	var raw string
	if err := r.q.QueryRow(ctx, sql, uid).Scan(&raw); err != nil {
		if perr.IsNoRows(err) {
			return nil, perr.NotFoundf("no profile for %s", uid)
		}
		return nil, perr.Wrapf(err, perr.ErrorCodeDB, "read profile %s", uid)
	}
	out := map[string]any{}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeDB, "decode profile %s", uid)
	}
	return out, nil
}
