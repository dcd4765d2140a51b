package core

import (
	"fmt"
	"sort"
	"sync"
)

var (
	registry   = make(map[string]TableDefinition)
	views      = make(map[string]ViewDefinition)
	registryMu sync.RWMutex
)

// Register adds a table definition to the registry.
// Panics if the key is already registered or the definition is incomplete.
func Register(def TableDefinition) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[def.Key]; exists {
		panic(fmt.Sprintf("table already registered: %s", def.Key))
	}
	if def.Table.Name == "" || def.Table.IDField == "" {
		panic(fmt.Sprintf("table %s: sheet name and id field are required", def.Key))
	}
	if def.Label == "" {
		def.Label = def.Table.Name
	}

	registry[def.Key] = def
}

// RegisterView adds a view definition to the registry.
// Panics if a view with the same name is already registered.
func RegisterView(v ViewDefinition) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := views[v.Name]; exists {
		panic(fmt.Sprintf("view already registered: %s", v.Name))
	}
	views[v.Name] = v
}

// Get returns a table definition by key.
// Returns false if not found.
func Get(key string) (TableDefinition, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	def, ok := registry[key]
	return def, ok
}

// GetView returns a view definition by name.
func GetView(name string) (ViewDefinition, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	v, ok := views[name]
	return v, ok
}

// All returns all registered table definitions.
// Sorted by group then by key for consistent ordering.
func All() []TableDefinition {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]TableDefinition, 0, len(registry))
	for _, def := range registry {
		result = append(result, def)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Group != result[j].Group {
			return result[i].Group < result[j].Group
		}
		return result[i].Key < result[j].Key
	})

	return result
}

// Views returns all registered views sorted by name.
func Views() []ViewDefinition {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]ViewDefinition, 0, len(views))
	for _, v := range views {
		result = append(result, v)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// Groups returns all unique group names.
// Sorted alphabetically.
func Groups() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	seen := make(map[string]bool)
	for _, def := range registry {
		seen[def.Group] = true
	}

	groups := make([]string, 0, len(seen))
	for g := range seen {
		groups = append(groups, g)
	}

	sort.Strings(groups)
	return groups
}

// TableCount returns the number of registered tables.
func TableCount() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}

// Clear removes all registered tables and views.
// Primarily useful for testing.
func Clear() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[string]TableDefinition)
	views = make(map[string]ViewDefinition)
}

// lookup resolves a table key, wrapping ErrUnknownTable on failure.
func lookup(key string) (TableDefinition, error) {
	def, ok := Get(key)
	if !ok {
		return TableDefinition{}, fmt.Errorf("%w: %s", ErrUnknownTable, key)
	}
	return def, nil
}
