// Package registry is the process-wide name -> Definition table used by two
// otherwise unrelated consumers: the CLI's flow resolution by name
// (cmd/dagflow) and the process-mode worker entry point (internal/pipeline),
// both of which need to find a Definition without importing the root
// dagflow package (which would create an import cycle back into them).
package registry

import (
	"fmt"
	"sync"

	"github.com/dagflow/dagflow/internal/task"
)

var (
	mu    sync.RWMutex
	tasks = map[string]*task.Definition{}
	flows = map[string]any{} // flow name -> *dagflow.Flow, typed any to avoid an import cycle
)

// RegisterTask records def under its name. Redeclaring the same name panics.
func RegisterTask(def *task.Definition) {
	mu.Lock()
	defer mu.Unlock()
	if _, exists := tasks[def.Name]; exists {
		panic(fmt.Sprintf("registry: task %q already declared", def.Name))
	}
	tasks[def.Name] = def
}

// LookupTask finds a previously registered task.Definition by name.
func LookupTask(name string) (*task.Definition, bool) {
	mu.RLock()
	defer mu.RUnlock()
	d, ok := tasks[name]
	return d, ok
}

// RegisterFlow records a named flow factory for CLI resolution. Redeclaring
// the same name panics.
func RegisterFlow(name string, factory any) {
	mu.Lock()
	defer mu.Unlock()
	if _, exists := flows[name]; exists {
		panic(fmt.Sprintf("registry: flow %q already declared", name))
	}
	flows[name] = factory
}

// LookupFlow finds a previously registered flow factory by name.
func LookupFlow(name string) (any, bool) {
	mu.RLock()
	defer mu.RUnlock()
	f, ok := flows[name]
	return f, ok
}

// FlowNames returns every registered flow name, for `dagflow list`.
func FlowNames() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(flows))
	for name := range flows {
		names = append(names, name)
	}
	return names
}
