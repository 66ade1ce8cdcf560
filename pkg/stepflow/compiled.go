package stepflow

import (
	"sort"

	"github.com/randalmurphal/stepflow/pkg/stepflow/node"
)

// CompiledGraph is the validated, immutable, executable form of a
// WorkflowDefinition. One compiled graph is shared read-only across
// every concurrent run of that workflow version.
type CompiledGraph struct {
	workflowID string
	name       string
	version    int
	entry      string
	defaults   map[string]any
	nodes      map[string]*compiledNode
}

// compiledNode pairs a validated executable with its resolved outgoing
// edges. The type handler is looked up once at compile time; execution
// never dispatches on the type tag again.
type compiledNode struct {
	id          string
	typeName    string
	interactive bool
	exec        node.Exec

	// next maps branch label -> target node id. The empty label is the
	// default edge followed by linear node types.
	next map[string]string
}

// WorkflowID returns the source workflow id.
func (g *CompiledGraph) WorkflowID() string { return g.workflowID }

// Name returns the workflow name.
func (g *CompiledGraph) Name() string { return g.name }

// Version returns the compiled workflow version.
func (g *CompiledGraph) Version() int { return g.version }

// Entry returns the entry node id.
func (g *CompiledGraph) Entry() string { return g.entry }

// NodeIDs returns every node id, sorted.
func (g *CompiledGraph) NodeIDs() []string {
	ids := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Defaults returns a copy of the variable defaults.
func (g *CompiledGraph) Defaults() map[string]any {
	out := make(map[string]any, len(g.defaults))
	for k, v := range g.defaults {
		out[k] = v
	}
	return out
}

func (g *CompiledGraph) nodeByID(id string) (*compiledNode, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// successor resolves an outgoing edge. The empty label asks for the
// default edge.
func (n *compiledNode) successor(label string) (string, bool) {
	target, ok := n.next[label]
	return target, ok
}

// terminal reports whether this node has no outgoing edges at all.
func (n *compiledNode) terminal() bool {
	return len(n.next) == 0
}
