package cli

import (
	"context"
	"errors"

	"ballotbox/internal/adapters/firebase"
	"ballotbox/internal/modkit"
	"ballotbox/internal/modkit/repokit"
	"ballotbox/internal/platform/config"
	perr "ballotbox/internal/platform/errors"
	"ballotbox/internal/platform/logger"
	"ballotbox/internal/platform/store"
	"ballotbox/internal/services/provision/module"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// backendFlags are the flags every command that reaches Firebase shares
type backendFlags struct {
	Key   string
	Store string
}

func (f *backendFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.Key, "key", "", "service account key file (falls back to GOOGLE_APPLICATION_CREDENTIALS, ./src/lib/firebase_key.json, FIREBASE_* env)")
	cmd.Flags().StringVar(&f.Store, "store", "", "profile store: firestore|postgres|sqlite (default PROVISION_STORE or firestore)")
}

// openBackends opens the auth directory and, when asked, the document store
// swapped in tests to avoid the network
var openBackends = func(ctx context.Context, creds firebase.Credentials, withFirestore bool) (module.Backends, func() error, error) {
	app, err := firebase.Open(ctx, creds, firebase.Options{Firestore: withFirestore})
	if err != nil {
		return module.Backends{}, nil, err
	}
	return module.Backends{Dir: app.Directory(), Firestore: app.Firestore}, app.Close, nil
}

// session is one command run with its opened dependencies
type session struct {
	ctx     context.Context
	mod     *module.Module
	closers []func() error
}

// newSession resolves credentials, opens backends and builds the provision module
// overrides carries the command's flag values; zero fields keep env defaults
func newSession(ctx context.Context, op string, flags backendFlags, overrides module.Options) (*session, error) {
	cfg := config.New()
	ctx = logger.WithRun(ctx, uuid.NewString(), op)
	log := logger.C(ctx)

	creds, err := firebase.ResolveCredentials(flags.Key, cfg)
	if err != nil {
		return nil, err
	}

	storeName := module.FromConfig(cfg).Store
	if flags.Store != "" {
		storeName = flags.Store
	}
	if storeName, err = config.OneOf("store", storeName, module.StoreFirestore, module.StorePostgres, module.StoreSQLite); err != nil {
		return nil, perr.WithField(err, "store")
	}
	overrides.Store = storeName

	s := &session{ctx: ctx}
	deps := modkit.Deps{Log: *log, Cfg: cfg}

	if storeName != module.StoreFirestore {
		sc, err := storeConfig(cfg, storeName)
		if err != nil {
			return nil, err
		}
		st, err := store.Open(ctx, sc, store.WithLogger(*log))
		if err != nil {
			return nil, perr.Wrap(err, perr.ErrorCodeUnavailable, "open profile store")
		}
		s.closers = append(s.closers, func() error { return st.Close(context.Background()) })
		deps.PG, deps.SQLite = st.PG, st.SQLite
		if err := repokit.PingAny(ctx, storeName, deps.SQL(storeName)); err != nil {
			s.Close()
			return nil, err
		}
	}

	be, closeApp, err := openBackends(ctx, creds, storeName == module.StoreFirestore)
	if err != nil {
		s.Close()
		return nil, err
	}
	if closeApp != nil {
		s.closers = append(s.closers, closeApp)
	}

	s.mod, err = module.New(deps, overrides, modkit.WithPorts(be))
	if err != nil {
		s.Close()
		return nil, err
	}
	log.Debug().
		Str("store", storeName).
		Str("credentials", string(creds.Source)).
		Int("workers", s.mod.Options().Workers).
		Int("batch_size", s.mod.Options().BatchSize).
		Msg("session ready")
	return s, nil
}

// Close releases whatever the session opened, newest first
func (s *session) Close() {
	if s == nil {
		return
	}
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	if err := errors.Join(errs...); err != nil {
		logger.C(s.ctx).Warn().Err(err).Msg("close failed")
	}
}

// storeConfig builds the sql store config for the postgres or sqlite profile store
func storeConfig(cfg config.Conf, name string) (store.Config, error) {
	var sc store.Config
	switch name {
	case module.StorePostgres:
		pg := cfg.Prefix("SERVICE_PGSQL_")
		sc.PG = store.PGConfig{
			Enabled:     true,
			URL:         pg.MayString("DBURL", ""),
			MaxConns:    int32(pg.MayInt("MAX_CONNS", 4)),
			SlowQueryMs: pg.MayInt("SLOW_MS", 500),
			LogSQL:      pg.MayBool("LOG_SQL", false),
		}
		if sc.PG.URL == "" {
			return sc, perr.WithField(perr.Configf("store %q needs %s", name, pg.Key("DBURL")), "store")
		}
	case module.StoreSQLite:
		lite := cfg.Prefix("SERVICE_SQLITE_")
		sc.SQLite = store.SQLiteConfig{
			Enabled: true,
			Path:    lite.MayString("PATH", "ballotbox.db"),
			LogSQL:  lite.MayBool("LOG_SQL", false),
		}
	}
	return sc, nil
}
