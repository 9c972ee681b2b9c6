// Package modkit provides module wiring and core deps
package modkit

import (
	"ballotbox/internal/modkit/repokit"
	"ballotbox/internal/platform/config"
	"ballotbox/internal/platform/logger"
)

// Deps holds core dependencies passed to modules
// this is wiring only and does not introduce new abstractions
type Deps struct {
	Log logger.Logger
	Cfg config.Conf

	// optional sql backends for profile storage, nil when not opened
	PG     repokit.TxRunner
	SQLite repokit.TxRunner
}

// SQL returns the sql backend registered under name, nil when absent
func (d Deps) SQL(name string) repokit.TxRunner {
	switch name {
	case "postgres":
		return d.PG
	case "sqlite":
		return d.SQLite
	}
	return nil
}
