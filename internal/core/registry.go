package core

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrUnknownSource is returned when an import names an unregistered source.
var ErrUnknownSource = errors.New("unknown import source")

// SourceDefinition describes one export format: the header vocabulary it uses
// and how its files are laid out.
type SourceDefinition struct {
	Key         string    `json:"key" yaml:"key"`
	Label       string    `json:"label" yaml:"label"`
	Description string    `json:"description,omitempty" yaml:"description"`
	Headers     HeaderMap `json:"headers" yaml:"headers"`
	// Delimiter forces the CSV field separator. Zero means sniff it.
	Delimiter rune `json:"-" yaml:"-"`
}

var (
	registry   = make(map[string]SourceDefinition)
	registryMu sync.RWMutex
)

// RegisterSource adds a source definition to the registry.
// Panics if a source with the same key is already registered.
func RegisterSource(def SourceDefinition) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[def.Key]; exists {
		panic(fmt.Sprintf("source already registered: %s", def.Key))
	}
	if def.Label == "" {
		def.Label = def.Key
	}
	registry[def.Key] = def
}

// GetSource returns a source definition by key.
// Returns false if not found.
func GetSource(key string) (SourceDefinition, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	def, ok := registry[key]
	return def, ok
}

// MergeHeaders adds header aliases to a registered source, replacing any
// existing alias with the same header. Unknown sources are registered with
// just these headers.
func MergeHeaders(key string, headers HeaderMap) {
	registryMu.Lock()
	defer registryMu.Unlock()

	def, ok := registry[key]
	if !ok {
		def = SourceDefinition{Key: key, Label: key}
	}

	merged := make(HeaderMap, len(def.Headers)+len(headers))
	for h, f := range def.Headers {
		merged[h] = f
	}
	for h, f := range headers {
		merged[h] = f
	}
	def.Headers = merged
	registry[key] = def
}

// AllSources returns all registered source definitions sorted by key.
func AllSources() []SourceDefinition {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]SourceDefinition, 0, len(registry))
	for _, def := range registry {
		result = append(result, def)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Key < result[j].Key
	})

	return result
}

// SourceCount returns the number of registered sources.
func SourceCount() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}

// ClearSources removes all registered sources.
// Primarily useful for testing.
func ClearSources() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[string]SourceDefinition)
}

// IsKnownField reports whether f is a canonical field name.
func IsKnownField(f Field) bool {
	for _, c := range canonicalFields {
		if c == f {
			return true
		}
	}
	return false
}
