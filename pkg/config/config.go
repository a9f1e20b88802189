// pkg/config/config.go
package config

import (
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/kastsec/kast/pkg/unit"
)

// flagKeys maps CLI flag names onto their configuration keys. Flags not
// listed here (cobra plumbing like --config itself) never reach koanf.
var flagKeys = map[string]string{
	"output-dir":  "scan.output_dir",
	"concurrency": "scan.concurrency",
	"timeout":     "scan.timeout",
	"niceness":    "scan.niceness",
	"verbose":     "scan.verbose",
	"log-level":   "log.level",
}

// Manager handles loading and accessing application configuration. The core
// only reads from it; nothing in the engine writes configuration back.
type Manager struct {
	koanfInstance *koanf.Koanf
	currentConfig Config
	mu            sync.RWMutex
}

// NewManager creates a ConfigManager with an empty koanf instance.
func NewManager() *Manager {
	return &Manager{
		koanfInstance: koanf.New("."),
	}
}

// DefaultConfig returns the baseline configuration used when no other source
// overrides it.
func DefaultConfig() Config {
	return Config{
		Log: LogConfig{
			Level: "error",
		},
		Scan: ScanConfig{
			OutputDir:   "./kast_output",
			Concurrency: 3,
			Timeout:     300,
			Niceness:    10,
		},
		Units: map[string]map[string]interface{}{},
	}
}

// DefaultConfigAsMap flattens DefaultConfig for the confmap provider.
func DefaultConfigAsMap() map[string]interface{} {
	def := DefaultConfig()
	return map[string]interface{}{
		"log.level":        def.Log.Level,
		"scan.output_dir":  def.Scan.OutputDir,
		"scan.concurrency": def.Scan.Concurrency,
		"scan.timeout":     def.Scan.Timeout,
		"scan.niceness":    def.Scan.Niceness,
		"scan.verbose":     def.Scan.Verbose,
	}
}

// Load layers configuration sources by precedence: hardcoded defaults, then
// an optional YAML file, then command-line flags. The merged result is
// validated before it becomes current.
func (m *Manager) Load(flags *pflag.FlagSet, configFilePath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.koanfInstance.Load(confmap.Provider(DefaultConfigAsMap(), "."), nil); err != nil {
		return fmt.Errorf("error loading hardcoded defaults into koanf: %w", err)
	}

	if configFilePath != "" {
		if err := m.koanfInstance.Load(file.Provider(configFilePath), yaml.Parser()); err != nil {
			return fmt.Errorf("error loading config file %s: %w", configFilePath, err)
		}
	}

	if flags != nil {
		provider := posflag.ProviderWithFlag(flags, ".", m.koanfInstance, func(f *pflag.Flag) (string, interface{}) {
			key, known := flagKeys[f.Name]
			if !known || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		})
		if err := m.koanfInstance.Load(provider, nil); err != nil {
			return fmt.Errorf("error loading command-line flags: %w", err)
		}
	}

	var cfg Config
	if err := m.koanfInstance.Unmarshal("", &cfg); err != nil {
		return fmt.Errorf("error unmarshalling config: %w", err)
	}
	if cfg.Units == nil {
		cfg.Units = map[string]map[string]interface{}{}
	}

	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	m.currentConfig = cfg
	return nil
}

// Config returns a copy of the current configuration.
func (m *Manager) Config() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.currentConfig
}

// UnitOptions resolves the flat option map for one unit: scan-level defaults
// overlaid with the unit's own section from the units map.
func (m *Manager) UnitOptions(name string) unit.Options {
	m.mu.RLock()
	defer m.mu.RUnlock()

	opts := unit.Options{
		"timeout":  m.currentConfig.Scan.Timeout,
		"niceness": m.currentConfig.Scan.Niceness,
		"verbose":  m.currentConfig.Scan.Verbose,
	}
	for k, v := range m.currentConfig.Units[name] {
		opts[k] = v
	}
	return opts
}
