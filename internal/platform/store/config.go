package store

// Config aggregates per backend configuration
type Config struct {
	PG     PGConfig
	SQLite SQLiteConfig
}

// PGConfig configures postgres connectivity and tracing
type PGConfig struct {
	Enabled     bool
	URL         string
	MaxConns    int32
	LogSQL      bool
	SlowQueryMs int

	// boot knobs, zero picks the defaults in openPG
	ConnectRetries int
}

// SQLiteConfig configures the local sqlite file
type SQLiteConfig struct {
	Enabled bool
	Path    string // file path or ":memory:"
	LogSQL  bool
}
