// pkg/config/types.go
package config

// Config is the root configuration structure for KAST.
type Config struct {
	Log  LogConfig  `description:"Logging configuration" koanf:"log"`
	Scan ScanConfig `description:"Scan run configuration" koanf:"scan"`

	// Units holds per-unit option maps keyed by unit name, overlaying the
	// scan-level defaults. Recognized options include at minimum timeout,
	// niceness and verbose; adapters may read additional keys.
	Units map[string]map[string]interface{} `description:"Per-unit options" koanf:"units"`
}

// LogConfig holds logging related configuration.
type LogConfig struct {
	Level string `description:"Log level (debug, info, warn, error)" koanf:"level"`
}

// ScanConfig holds defaults applied to every unit in a run.
type ScanConfig struct {
	OutputDir   string `description:"Directory scan results are written to" koanf:"output_dir" validate:"required"`
	Concurrency int    `description:"Worker pool size for unit execution" koanf:"concurrency" validate:"min=1"`
	Timeout     int    `description:"Per-unit timeout in seconds" koanf:"timeout" validate:"min=1"`
	Niceness    int    `description:"Scheduling priority hint for tool processes" koanf:"niceness" validate:"min=0,max=19"`
	Verbose     bool   `description:"Run tools in verbose mode" koanf:"verbose"`
}
