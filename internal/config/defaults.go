package config

// Default values for optional configuration fields.
const (
	DefaultMaxOpen      = 64
	MinMaxOpen          = 2
	DefaultMergeWorkers = 1
	DefaultGroupWorkers = 4
	DefaultLogLevel     = "info"
	DefaultDBPort       = 5432
	DefaultDBSSLMode    = "prefer"
	DefaultMaxConns     = 4
	DefaultMinConns     = 1
)

func (c *MergerConfig) applyDefaults() {
	if c.MaxOpen == 0 {
		c.MaxOpen = DefaultMaxOpen
	}
	// Enforced minimum: a k-way merge needs at least two open handles.
	if c.MaxOpen < MinMaxOpen {
		c.MaxOpen = MinMaxOpen
	}
	if c.MergeWorkers == 0 {
		c.MergeWorkers = DefaultMergeWorkers
	}
	if c.GroupWorkers == 0 {
		c.GroupWorkers = DefaultGroupWorkers
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.Database != nil {
		applyDBDefaults(c.Database)
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
