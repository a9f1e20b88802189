// pkg/registry/registry.go
// Package registry is the registration table for scan units. Adapters
// register a factory at startup (typically from init or explicit wiring in
// the CLI); discovery is a validated, deterministic snapshot of the table.
// There is no runtime code loading.
package registry

import (
	"sort"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/kastsec/kast/pkg/unit"
)

// Factory creates a fresh unit instance. The orchestrator calls it once per
// scan so no instance state is shared across runs.
type Factory func() unit.Unit

// Descriptor is the type-level view of one registered unit, captured from a
// probe instance at discovery time.
type Descriptor struct {
	Name         string
	Description  string
	ScanType     unit.ScanType
	OutputMethod unit.OutputMethod
	Factory      Factory
}

var (
	mu       sync.RWMutex
	registry = make(map[string]Factory)
)

// Register adds a unit factory under the given name. Duplicate names are
// last-write-wins, with a logged warning.
func Register(name string, factory Factory) {
	mu.Lock()
	defer mu.Unlock()
	if _, exists := registry[name]; exists {
		log.Warn().Str("unit", name).Msg("Unit factory is being overwritten")
	}
	registry[name] = factory
}

// Discover returns descriptors for every well-formed registered unit, sorted
// by name so the result is deterministic. A factory that returns nil, panics,
// or yields a unit whose Name disagrees with its registration key is skipped
// with a diagnostic; one malformed adapter never aborts discovery of the
// others.
func Discover() []Descriptor {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)

	descriptors := make([]Descriptor, 0, len(names))
	for _, name := range names {
		if desc, ok := probe(name, registry[name]); ok {
			descriptors = append(descriptors, desc)
		}
	}
	return descriptors
}

// Lookup returns the factory registered under name.
func Lookup(name string) (Factory, bool) {
	mu.RLock()
	defer mu.RUnlock()
	factory, ok := registry[name]
	return factory, ok
}

// Names returns the sorted names of all registered units, without probing.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// probe instantiates a unit once to capture its metadata, containing any
// misbehavior of the factory itself.
func probe(name string, factory Factory) (desc Descriptor, ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Str("unit", name).Interface("panic", rec).Msg("Skipping unit: factory panicked")
			ok = false
		}
	}()

	u := factory()
	if u == nil {
		log.Error().Str("unit", name).Msg("Skipping unit: factory returned nil")
		return Descriptor{}, false
	}
	if u.Name() != name {
		log.Error().Str("unit", name).Str("reported", u.Name()).Msg("Skipping unit: name mismatch with registration key")
		return Descriptor{}, false
	}
	return Descriptor{
		Name:         name,
		Description:  u.Description(),
		ScanType:     u.ScanType(),
		OutputMethod: u.OutputMethod(),
		Factory:      factory,
	}, true
}

// reset clears the table; tests only.
func reset() {
	mu.Lock()
	defer mu.Unlock()
	registry = make(map[string]Factory)
}
