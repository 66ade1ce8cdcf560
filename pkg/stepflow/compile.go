package stepflow

import (
	"fmt"

	"github.com/randalmurphal/stepflow/pkg/stepflow/config"
	"github.com/randalmurphal/stepflow/pkg/stepflow/node"
)

// Compile validates a WorkflowDefinition against the registry and
// produces an immutable CompiledGraph.
//
// Validation enumerates every violation, not just the first; on failure
// the returned error is a *ValidationError listing all of them. A
// definition that fails validation never yields a graph.
//
// Checks:
//  1. Node ids non-empty and unique
//  2. Every type tag registered; per-type config valid
//  3. Edge endpoints reference existing nodes; labels unique per source
//  4. Exactly one entry node (explicit start, or the unique node with
//     no incoming edges)
//  5. Every node reachable from the entry
//  6. Branch labels covered by edges, no undeclared fallthrough; linear
//     nodes have a default edge; only terminal types may have none
//
// Compilation is deterministic and pure: the same definition always
// compiles to a structurally identical graph.
func Compile(def WorkflowDefinition, reg *node.Registry) (*CompiledGraph, error) {
	var issues []error

	// 1. Node id uniqueness.
	nodeSet := make(map[string]bool, len(def.Nodes))
	for i, nd := range def.Nodes {
		if nd.ID == "" {
			issues = append(issues, fmt.Errorf("%w: node at index %d", ErrEmptyNodeID, i))
			continue
		}
		if nodeSet[nd.ID] {
			issues = append(issues, fmt.Errorf("%w: %q", ErrDuplicateNodeID, nd.ID))
			continue
		}
		nodeSet[nd.ID] = true
	}

	// 2. Type resolution and per-type config validation.
	types := make(map[string]node.Type, len(def.Nodes))
	compiled := make(map[string]*compiledNode, len(def.Nodes))
	for _, nd := range def.Nodes {
		if nd.ID == "" || compiled[nd.ID] != nil {
			continue
		}
		typ, ok := reg.Get(nd.Type)
		if !ok {
			issues = append(issues, fmt.Errorf("%w: node %q has type %q", ErrUnknownNodeType, nd.ID, nd.Type))
			continue
		}
		exec, err := typ.Compile(nd.ID, config.New(nd.Config))
		if err != nil {
			issues = append(issues, err)
			continue
		}
		types[nd.ID] = typ
		compiled[nd.ID] = &compiledNode{
			id:          nd.ID,
			typeName:    nd.Type,
			interactive: typ.Interactive(),
			exec:        exec,
			next:        make(map[string]string),
		}
	}

	// 3. Edge endpoints and label uniqueness.
	incoming := make(map[string]int)
	for _, e := range def.edges() {
		ok := true
		if !nodeSet[e.Source] {
			issues = append(issues, fmt.Errorf("%w: edge source %q", ErrDanglingEdge, e.Source))
			ok = false
		}
		if !nodeSet[e.Target] {
			issues = append(issues, fmt.Errorf("%w: edge target %q", ErrDanglingEdge, e.Target))
			ok = false
		}
		if !ok {
			continue
		}
		incoming[e.Target]++
		cn := compiled[e.Source]
		if cn == nil {
			continue
		}
		if _, dup := cn.next[e.Label]; dup {
			if e.Label == "" {
				issues = append(issues, fmt.Errorf("%w: node %q has two default edges", ErrDuplicateEdgeLabel, e.Source))
			} else {
				issues = append(issues, fmt.Errorf("%w: node %q label %q", ErrDuplicateEdgeLabel, e.Source, e.Label))
			}
			continue
		}
		cn.next[e.Label] = e.Target
	}

	// 4. Entry point.
	entry := ""
	if def.Start != "" {
		if nodeSet[def.Start] {
			entry = def.Start
		} else {
			issues = append(issues, fmt.Errorf("%w: declared start %q does not exist", ErrNoEntryPoint, def.Start))
		}
	} else {
		var candidates []string
		for _, nd := range def.Nodes {
			if nd.ID != "" && nodeSet[nd.ID] && incoming[nd.ID] == 0 {
				candidates = append(candidates, nd.ID)
			}
		}
		switch len(candidates) {
		case 0:
			if len(def.Nodes) > 0 {
				issues = append(issues, fmt.Errorf("%w: every node has incoming edges", ErrNoEntryPoint))
			} else {
				issues = append(issues, fmt.Errorf("%w: workflow has no nodes", ErrNoEntryPoint))
			}
		case 1:
			entry = candidates[0]
		default:
			issues = append(issues, fmt.Errorf("%w: candidates %v", ErrAmbiguousEntryPoint, candidates))
		}
	}

	// 5. Reachability from the entry.
	if entry != "" {
		reachable := map[string]bool{entry: true}
		queue := []string{entry}
		for len(queue) > 0 {
			current := queue[0]
			queue = queue[1:]
			cn := compiled[current]
			if cn == nil {
				continue
			}
			for _, target := range cn.next {
				if !reachable[target] {
					reachable[target] = true
					queue = append(queue, target)
				}
			}
		}
		for _, nd := range def.Nodes {
			if nd.ID != "" && nodeSet[nd.ID] && !reachable[nd.ID] {
				issues = append(issues, fmt.Errorf("%w: %q", ErrUnreachableNode, nd.ID))
			}
		}
	}

	// 6. Edge cover per node type.
	covered := make(map[string]bool, len(compiled))
	for _, nd := range def.Nodes {
		cn := compiled[nd.ID]
		if cn == nil || covered[nd.ID] {
			continue
		}
		covered[nd.ID] = true
		if labeled, ok := cn.exec.(node.Labeled); ok {
			for _, label := range labeled.Labels() {
				if _, covered := cn.next[label]; !covered {
					issues = append(issues, fmt.Errorf("%w: node %q label %q", ErrMissingBranchEdge, nd.ID, label))
				}
			}
			if _, fallthru := cn.next[""]; fallthru {
				issues = append(issues, fmt.Errorf("%w: node %q", ErrUnlabeledBranchEdge, nd.ID))
			}
			continue
		}
		if len(cn.next) == 0 {
			if !types[nd.ID].Terminal() {
				issues = append(issues, fmt.Errorf("%w: node %q (type %s)", ErrMissingEdge, nd.ID, nd.Type))
			}
			continue
		}
		if _, hasDefault := cn.next[""]; !hasDefault {
			issues = append(issues, fmt.Errorf("%w: node %q has only labeled edges", ErrMissingEdge, nd.ID))
		}
	}

	if len(issues) > 0 {
		return nil, &ValidationError{WorkflowID: def.ID, Version: def.Version, Issues: issues}
	}

	defaults := make(map[string]any, len(def.Variables))
	for k, v := range def.Variables {
		defaults[k] = v
	}

	return &CompiledGraph{
		workflowID: def.ID,
		name:       def.Name,
		version:    def.Version,
		entry:      entry,
		defaults:   defaults,
		nodes:      compiled,
	}, nil
}
