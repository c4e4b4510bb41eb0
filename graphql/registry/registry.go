// Package registry holds the named resolvers behind the _extension query.
package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"launcher.GO/core/registry"
)

// ResolverFunc answers an _extension call. args is the JSON-decoded args string.
type ResolverFunc func(ctx context.Context, args map[string]interface{}) (interface{}, error)

var (
	mu     sync.Mutex
	sealed sync.Once
)

func entries() map[string]ResolverFunc {
	if v, ok := registry.GlobalRegistry.GetGlobal(registry.KeyRegistryGraphQL); ok && v != nil {
		return v.(map[string]ResolverFunc)
	}
	return make(map[string]ResolverFunc)
}

// Register adds a resolver under a unique name. Panics once the first query has run.
func Register(name string, resolve ResolverFunc) {
	mu.Lock()
	defer mu.Unlock()
	if registry.GlobalRegistry.IsLocked(registry.KeyRegistryGraphQL) {
		panic("graphql/registry: locked (register only during init before first request)")
	}
	m := entries()
	if _, ok := m[name]; ok {
		panic("graphql/registry: duplicate " + name)
	}
	m[name] = resolve
	registry.GlobalRegistry.SetGlobal(registry.KeyRegistryGraphQL, m)
}

// Unregister removes a registration (for tests).
func Unregister(name string) {
	mu.Lock()
	defer mu.Unlock()
	registry.GlobalRegistry.UnlockForTesting(registry.KeyRegistryGraphQL)
	m := entries()
	delete(m, name)
	registry.GlobalRegistry.SetGlobal(registry.KeyRegistryGraphQL, m)
}

// Resolve runs the named resolver. The first call seals the registry.
func Resolve(ctx context.Context, name string, args map[string]interface{}) (interface{}, error) {
	sealed.Do(func() { registry.GlobalRegistry.Lock(registry.KeyRegistryGraphQL) })
	// read-only once sealed
	resolve, ok := entries()[name]
	if !ok {
		return nil, fmt.Errorf("unknown extension: %s", name)
	}
	return resolve(ctx, args)
}

// Names returns the registered names, sorted.
func Names() []string {
	mu.Lock()
	defer mu.Unlock()
	m := entries()
	names := make([]string, 0, len(m))
	for n := range m {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
