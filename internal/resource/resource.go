package resource

import (
	"fmt"
	"os"
	"sort"
)

// Kind identifies what a declared resource manages
type Kind string

const (
	KindFile    Kind = "file"
	KindPackage Kind = "package"
	KindService Kind = "service"
	KindExec    Kind = "exec"
)

// Ensure declares whether the managed thing should exist
type Ensure string

const (
	EnsurePresent Ensure = "present"
	EnsureAbsent  Ensure = "absent"
)

// Resource is one node in the declared-state graph handed to the
// convergence engine. Only the fields matching Kind are meaningful.
type Resource struct {
	Kind   Kind   `json:"kind"`
	ID     string `json:"id"`
	Ensure Ensure `json:"ensure"`

	// KindFile
	Path    string      `json:"path,omitempty"`
	Content string      `json:"content,omitempty"`
	Mode    os.FileMode `json:"mode,omitempty"`
	Owner   string      `json:"owner,omitempty"`
	Group   string      `json:"group,omitempty"`

	// KindPackage
	Package string `json:"package,omitempty"`

	// KindService
	Service string `json:"service,omitempty"`
	Running bool   `json:"running,omitempty"`
	Enabled bool   `json:"enabled,omitempty"`

	// KindExec
	Command []string `json:"command,omitempty"`
	// RefreshOnly execs run only when a notifying resource changed,
	// never on an ordinary converge.
	RefreshOnly bool `json:"refresh_only,omitempty"`

	// Requires lists resource IDs that must converge before this one.
	// Notifies lists resource IDs to refresh when this one changes.
	Requires []string `json:"requires,omitempty"`
	Notifies []string `json:"notifies,omitempty"`
}

// ID constructors keep references between resources typo-proof.

func FileID(path string) string    { return "file:" + path }
func PackageID(name string) string { return "package:" + name }
func ServiceID(name string) string { return "service:" + name }
func ExecID(name string) string    { return "exec:" + name }

// Graph accumulates declared resources for one convergence run and
// preserves their dependency edges. Shared resources (the logrotate
// package) deduplicate across instances through AddShared.
type Graph struct {
	resources []*Resource
	index     map[string]*Resource
}

// NewGraph creates an empty resource graph
func NewGraph() *Graph {
	return &Graph{index: make(map[string]*Resource)}
}

// Add appends a resource, failing on duplicate IDs. Two instances
// declaring the same file path is a configuration error, not something to
// silently merge.
func (g *Graph) Add(r *Resource) error {
	if _, exists := g.index[r.ID]; exists {
		return fmt.Errorf("duplicate resource declaration: %s", r.ID)
	}
	g.resources = append(g.resources, r)
	g.index[r.ID] = r
	return nil
}

// AddShared registers a run-wide shared resource at most once and returns
// the canonical instance. Later registrations with the same ID are merged
// into the first.
func (g *Graph) AddShared(r *Resource) *Resource {
	if existing, exists := g.index[r.ID]; exists {
		return existing
	}
	g.resources = append(g.resources, r)
	g.index[r.ID] = r
	return r
}

// Get returns a declared resource by ID
func (g *Graph) Get(id string) (*Resource, bool) {
	r, ok := g.index[id]
	return r, ok
}

// Resources returns all resources in declaration order
func (g *Graph) Resources() []*Resource {
	return g.resources
}

// Sorted returns the resources in a topological order that honors every
// Requires edge, breaking ties by declaration order so output is
// deterministic. A cycle is a configuration error.
func (g *Graph) Sorted() ([]*Resource, error) {
	position := make(map[string]int, len(g.resources))
	for i, r := range g.resources {
		position[r.ID] = i
	}

	indegree := make(map[string]int, len(g.resources))
	dependents := make(map[string][]string)
	for _, r := range g.resources {
		for _, dep := range r.Requires {
			if _, known := g.index[dep]; !known {
				return nil, fmt.Errorf("resource %s requires undeclared resource %s", r.ID, dep)
			}
			indegree[r.ID]++
			dependents[dep] = append(dependents[dep], r.ID)
		}
	}

	var ready []string
	for _, r := range g.resources {
		if indegree[r.ID] == 0 {
			ready = append(ready, r.ID)
		}
	}

	var order []*Resource
	for len(ready) > 0 {
		sort.Slice(ready, func(i, j int) bool {
			return position[ready[i]] < position[ready[j]]
		})
		id := ready[0]
		ready = ready[1:]
		order = append(order, g.index[id])

		for _, dep := range dependents[id] {
			indegree[dep]--
			if indegree[dep] == 0 {
				ready = append(ready, dep)
			}
		}
	}

	if len(order) != len(g.resources) {
		return nil, fmt.Errorf("dependency cycle among declared resources")
	}
	return order, nil
}
