// Package workload provides deterministic, profiler-instrumented workloads
// used by the CLI and benchmarks.
package workload

import (
	"context"
	"fmt"
	"sort"

	"github.com/danpilch/perfkit/pkg/counters"
)

// Workload is a named, repeatable unit of work.
type Workload interface {
	// Name returns the registry name (e.g., "fib").
	Name() string

	// Run executes the work once. Instrumented functions report to the
	// profiler carried by ctx, if any.
	Run(ctx context.Context) error
}

// Registry holds all registered workloads.
type Registry struct {
	workloads []Workload
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		workloads: make([]Workload, 0),
	}
}

// Default returns a registry with the built-in workloads, recording into c.
func Default(c *counters.Counters) *Registry {
	r := NewRegistry()
	r.Register(&Fib{N: 20, Counters: c})
	r.Register(&Sort{Size: 5000, Counters: c})
	r.Register(&Encode{Records: 500, Counters: c})
	r.Register(&Alloc{Blocks: 256, BlockSize: 4096, Counters: c})
	return r
}

// Register adds a workload to the registry.
func (r *Registry) Register(w Workload) {
	r.workloads = append(r.workloads, w)
}

// Workloads returns all registered workloads.
func (r *Registry) Workloads() []Workload {
	return r.workloads
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.workloads))
	for _, w := range r.workloads {
		names = append(names, w.Name())
	}
	sort.Strings(names)
	return names
}

// GetByName returns a workload by name, or nil if not found.
func (r *Registry) GetByName(name string) Workload {
	for _, w := range r.workloads {
		if w.Name() == name {
			return w
		}
	}
	return nil
}

// Lookup is GetByName with an error for unknown names.
func (r *Registry) Lookup(name string) (Workload, error) {
	if w := r.GetByName(name); w != nil {
		return w, nil
	}
	return nil, fmt.Errorf("unknown workload %q (available: %v)", name, r.Names())
}

func addOps(c *counters.Counters, n int64) {
	if c != nil {
		c.GlobalOps += n
	}
}

func addMem(c *counters.Counters, n int64) {
	if c != nil {
		c.GlobalMem += n
	}
}
