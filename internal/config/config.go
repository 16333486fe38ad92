package config

// MergerConfig is the root configuration for one merge run.
type MergerConfig struct {
	// Input archives, one per source family.
	OrderArchive string `yaml:"order_archive"`
	TickArchive  string `yaml:"tick_archive"`

	Output OutputConfig `yaml:"output"`

	// WorkDir holds intermediate per-source event files and merge-round
	// temporaries. Empty means a run-unique directory under the system
	// temp dir, removed after a successful run unless KeepTemp is set.
	// A caller-supplied WorkDir is never removed.
	WorkDir  string `yaml:"work_dir"`
	KeepTemp bool   `yaml:"keep_temp"`

	// MaxOpen is the open-handle budget for one k-way merge (floor 2).
	MaxOpen int `yaml:"max_open"`

	// MergeWorkers bounds concurrent batch merges within one merge round.
	// 1 keeps the handle budget strict; higher values trade handles for
	// throughput (peak handles = MergeWorkers * MaxOpen).
	MergeWorkers int `yaml:"merge_workers"`

	// GroupWorkers bounds concurrent per-channel merge groups.
	GroupWorkers int `yaml:"group_workers"`

	// Optional input narrowing.
	LimitFiles  int    `yaml:"limit_files"`  // per family, 0 = no cap
	SymbolRegex string `yaml:"symbol_regex"` // RE2, matched against symbol names
	Channel     *int64 `yaml:"channel"`      // keep only this ChannelNo

	LogLevel string `yaml:"log_level"` // debug | info | warn | error

	// Database, when present, enables loading the merged log into a
	// TimescaleDB events table after a successful merge.
	Database *DBConfig `yaml:"database"`
}

// OutputConfig selects exactly one output mode.
type OutputConfig struct {
	Path string `yaml:"path"` // single combined file, all channels interleaved
	Dir  string `yaml:"dir"`  // one file per channel: channel_<n>.csv
}

// PerChannel reports whether per-channel output mode is selected.
func (o OutputConfig) PerChannel() bool {
	return o.Dir != ""
}

// DBConfig holds a single database connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}
