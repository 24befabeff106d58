// Package hierarchy analyses the inheritance relationships of an extracted
// class model: which types are roots, how deep the inheritance chains go and
// which declared relationships would form a cycle.
package hierarchy

import (
	"errors"
	"fmt"
	"sort"

	"github.com/dominikbraun/graph"

	"github.com/mvp-joe/classmap/internal/model"
)

// Edge is one inheritance relationship, base to derived.
type Edge struct {
	Base    string `yaml:"base" json:"base"`
	Derived string `yaml:"derived" json:"derived"`
}

// Summary is the result of Analyze.
type Summary struct {
	Classes  int      `yaml:"classes" json:"classes"`
	Edges    int      `yaml:"edges" json:"edges"`
	Roots    []string `yaml:"roots" json:"roots"`
	External []string `yaml:"external,omitempty" json:"external,omitempty"` // bases never declared
	MaxDepth int      `yaml:"max_depth" json:"max_depth"`
	Cycles   []Edge   `yaml:"cycles,omitempty" json:"cycles,omitempty"` // edges rejected as cyclic

	// Subtypes maps every type with at least one direct subtype to those
	// subtypes, sorted.
	Subtypes map[string][]string `yaml:"subtypes,omitempty" json:"subtypes,omitempty"`
}

// HasCycles reports whether any declared relationship was cyclic.
func (s *Summary) HasCycles() bool {
	return len(s.Cycles) > 0
}

// Hierarchy is a directed acyclic graph of base → derived names.
type Hierarchy struct {
	g        graph.Graph[string, string]
	declared map[string]bool
	cycles   []Edge
	edges    int
}

// Build creates the inheritance graph for classes. Edges that would close a
// cycle are not added and are reported by Summary instead. The universal root
// "object" and empty base names are ignored.
func Build(classes []model.ClassEntity) (*Hierarchy, error) {
	h := &Hierarchy{
		g:        graph.New(graph.StringHash, graph.Directed(), graph.PreventCycles()),
		declared: make(map[string]bool),
	}

	for _, class := range classes {
		h.declared[class.Name] = true
		if err := h.addVertex(class.Name); err != nil {
			return nil, err
		}
	}

	for _, class := range classes {
		for _, base := range class.BaseNames {
			if base == "" || base == model.RootBase {
				continue
			}
			if err := h.addVertex(base); err != nil {
				return nil, err
			}
			if err := h.addEdge(base, class.Name); err != nil {
				return nil, err
			}
		}
	}

	return h, nil
}

func (h *Hierarchy) addVertex(name string) error {
	err := h.g.AddVertex(name)
	if err != nil && !errors.Is(err, graph.ErrVertexAlreadyExists) {
		return fmt.Errorf("failed to add %s: %w", name, err)
	}
	return nil
}

func (h *Hierarchy) addEdge(base, derived string) error {
	err := h.g.AddEdge(base, derived)
	switch {
	case err == nil:
		h.edges++
		return nil
	case errors.Is(err, graph.ErrEdgeAlreadyExists):
		return nil
	case errors.Is(err, graph.ErrEdgeCreatesCycle):
		h.cycles = append(h.cycles, Edge{Base: base, Derived: derived})
		return nil
	}
	return fmt.Errorf("failed to add edge %s -> %s: %w", base, derived, err)
}

// Children returns the direct subtypes of name, sorted.
func (h *Hierarchy) Children(name string) ([]string, error) {
	adjacency, err := h.g.AdjacencyMap()
	if err != nil {
		return nil, fmt.Errorf("failed to read adjacency map: %w", err)
	}
	children := make([]string, 0, len(adjacency[name]))
	for child := range adjacency[name] {
		children = append(children, child)
	}
	sort.Strings(children)
	return children, nil
}

// Summary computes roots, external bases, direct subtypes, the longest
// inheritance chain and rejected cyclic edges.
func (h *Hierarchy) Summary() (*Summary, error) {
	predecessors, err := h.g.PredecessorMap()
	if err != nil {
		return nil, fmt.Errorf("failed to read predecessor map: %w", err)
	}

	order, err := graph.StableTopologicalSort(h.g, func(a, b string) bool { return a < b })
	if err != nil {
		return nil, fmt.Errorf("failed to sort hierarchy: %w", err)
	}

	summary := &Summary{
		Classes: len(h.declared),
		Edges:   h.edges,
		Roots:   []string{},
		Cycles:  h.cycles,
	}

	depth := make(map[string]int, len(order))
	for _, name := range order {
		if !h.declared[name] {
			summary.External = append(summary.External, name)
		}

		children, err := h.Children(name)
		if err != nil {
			return nil, err
		}
		if len(children) > 0 {
			if summary.Subtypes == nil {
				summary.Subtypes = make(map[string][]string)
			}
			summary.Subtypes[name] = children
		}
		if len(predecessors[name]) == 0 {
			summary.Roots = append(summary.Roots, name)
			continue
		}
		d := 0
		for base := range predecessors[name] {
			if depth[base]+1 > d {
				d = depth[base] + 1
			}
		}
		depth[name] = d
		if d > summary.MaxDepth {
			summary.MaxDepth = d
		}
	}

	sort.Strings(summary.Roots)
	sort.Strings(summary.External)
	return summary, nil
}

// Analyze builds the hierarchy for classes and summarises it.
func Analyze(classes []model.ClassEntity) (*Summary, error) {
	h, err := Build(classes)
	if err != nil {
		return nil, err
	}
	return h.Summary()
}
