package module

import (
	"time"

	"ballotbox/internal/platform/config"
	"ballotbox/internal/services/provision/repo"
	"ballotbox/internal/services/provision/service"
)

// Store names accepted by --store and PROVISION_STORE
const (
	StoreFirestore = "firestore"
	StorePostgres  = "postgres"
	StoreSQLite    = "sqlite"
)

// Options controls the provision pipeline
type Options struct {
	Workers     int           `name:"workers" validate:"gte=1,lte=64"`
	BatchSize   int           `name:"batch-size" validate:"gte=1"`
	Store       string        `name:"store" validate:"oneof=firestore postgres sqlite"`
	Collection  string        `name:"collection" validate:"required"`
	CallTimeout time.Duration `name:"call-timeout" validate:"gte=0"`
}

// FromConfig reads the provision options with the PROVISION_ prefix
func FromConfig(cfg config.Conf) Options {
	c := cfg.Prefix("PROVISION_")
	return Options{
		Workers:     c.MayInt("WORKERS", service.DefaultWorkers),
		BatchSize:   c.MayInt("BATCH_SIZE", service.DefaultBatchSize),
		Store:       c.MayString("STORE", StoreFirestore),
		Collection:  c.MayString("COLLECTION", repo.DefaultCollection),
		CallTimeout: c.MayDuration("CALL_TIMEOUT", 0),
	}
}

// merge applies non zero overrides on top of o
func (o Options) merge(over Options) Options {
	if over.Workers != 0 {
		o.Workers = over.Workers
	}
	if over.BatchSize != 0 {
		o.BatchSize = over.BatchSize
	}
	if over.Store != "" {
		o.Store = over.Store
	}
	if over.Collection != "" {
		o.Collection = over.Collection
	}
	if over.CallTimeout != 0 {
		o.CallTimeout = over.CallTimeout
	}
	return o
}
