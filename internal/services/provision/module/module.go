// Package module wires the provision service and exposes its ports
package module

import (
	"ballotbox/internal/modkit"
	perr "ballotbox/internal/platform/errors"
	"ballotbox/internal/platform/validate"
	"ballotbox/internal/services/provision/domain"
	"ballotbox/internal/services/provision/repo"
	"ballotbox/internal/services/provision/service"

	"cloud.google.com/go/firestore"
)

// Backends are the external handles the module needs, injected with modkit.WithPorts
type Backends struct {
	Dir       domain.Directory
	Firestore *firestore.Client

	// Profiles overrides store selection when set
	Profiles domain.ProfileWriter
}

// Ports holds the ports exposed by the provision module
type Ports struct {
	Runner   domain.RunnerPort
	Promoter domain.PromoterPort // nil when the directory cannot set claims
}

// Module defines the provision module
type Module struct {
	deps  modkit.Deps
	name  string
	opts  Options
	ports Ports
}

var _ modkit.Module = (*Module)(nil)

// New constructs the provision module
// defaults come from deps.Cfg, then non zero overrides apply
func New(deps modkit.Deps, overrides Options, opts ...modkit.Option) (*Module, error) {
	b := modkit.Build(opts...)
	be, ok := modkit.PortsAs[Backends](b)
	if !ok || be.Dir == nil {
		return nil, perr.Configf("provision: no account directory configured")
	}

	o := FromConfig(deps.Cfg).merge(overrides)
	if err := validate.Struct(o); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeConfig, "provision options")
	}

	profiles, err := selectWriter(deps, o, be)
	if err != nil {
		return nil, err
	}
	if ceiling := profiles.MaxBatch(); o.BatchSize > ceiling {
		return nil, perr.WithField(perr.Configf("batch-size %d exceeds the %s write cap of %d", o.BatchSize, o.Store, ceiling), "batch-size")
	}

	svc := service.New(be.Dir, profiles, service.Config{
		Workers:     o.Workers,
		BatchSize:   o.BatchSize,
		CallTimeout: o.CallTimeout,
	})

	m := &Module{deps: deps, name: b.Name, opts: o}
	if m.name == "" {
		m.name = "provision"
	}
	m.ports = Ports{Runner: svc}
	if ad, ok := be.Dir.(domain.AdminDirectory); ok {
		m.ports.Promoter = service.NewPromoter(ad, profiles)
	}
	return m, nil
}

func selectWriter(deps modkit.Deps, o Options, be Backends) (domain.ProfileWriter, error) {
	if be.Profiles != nil {
		return be.Profiles, nil
	}
	switch o.Store {
	case StoreFirestore:
		if be.Firestore == nil {
			return nil, perr.Configf("store %q needs a firestore client", o.Store)
		}
		return repo.NewFirestore(be.Firestore, o.Collection), nil
	case StorePostgres:
		if deps.PG == nil {
			return nil, perr.Configf("store %q needs SERVICE_PGSQL_DBURL", o.Store)
		}
		return repo.NewSQLWriter(deps.PG, repo.NewPG(), repo.PostgresMaxBatch), nil
	case StoreSQLite:
		if deps.SQLite == nil {
			return nil, perr.Configf("store %q needs SERVICE_SQLITE_PATH", o.Store)
		}
		return repo.NewSQLWriter(deps.SQLite, repo.NewSQLite(), repo.SQLiteMaxBatch), nil
	}
	return nil, perr.Configf("unknown store %q", o.Store)
}

// Ports returns the module ports (Runner, Promoter)
func (m *Module) Ports() any { return m.ports }

// Runner is a typed shortcut for Ports().Runner
func (m *Module) Runner() domain.RunnerPort { return m.ports.Runner }

// Promoter is a typed shortcut for Ports().Promoter
func (m *Module) Promoter() domain.PromoterPort { return m.ports.Promoter }

// Options returns the effective options after defaults and overrides
func (m *Module) Options() Options { return m.opts }

// Name returns the module name
func (m *Module) Name() string { return m.name }
