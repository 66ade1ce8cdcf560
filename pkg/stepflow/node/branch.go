package node

import (
	"fmt"

	"github.com/randalmurphal/stepflow/pkg/stepflow/config"
	"github.com/randalmurphal/stepflow/pkg/stepflow/expr"
)

// BranchType evaluates ordered conditions against the variable
// environment and selects the first matching label. With no match and
// no default the execution fails rather than guessing an edge.
//
// Config:
//
//	branches: required; ordered list of {label, when} entries
//	default:  optional; label selected when no condition matches
type BranchType struct{}

func (BranchType) Name() string { return TypeBranch }

func (BranchType) Interactive() bool { return false }

func (BranchType) Terminal() bool { return false }

func (BranchType) Compile(nodeID string, cfg config.Config) (Exec, error) {
	raw := cfg.List("branches")
	if raw == nil {
		return nil, &ConfigError{NodeID: nodeID, Field: "branches", Reason: "required; must be a list of {label, when} entries"}
	}
	if len(raw) == 0 {
		return nil, &ConfigError{NodeID: nodeID, Field: "branches", Reason: "must declare at least one branch"}
	}

	e := &branchExec{
		nodeID:       nodeID,
		defaultLabel: cfg.String("default", ""),
	}
	for i, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, &ConfigError{NodeID: nodeID, Field: "branches", Reason: fmt.Sprintf("entry %d is not a mapping", i)}
		}
		entry := config.New(m)
		label := entry.String("label", "")
		if label == "" {
			return nil, &ConfigError{NodeID: nodeID, Field: "branches", Reason: fmt.Sprintf("entry %d missing label", i)}
		}
		when := entry.String("when", "")
		if when == "" {
			return nil, &ConfigError{NodeID: nodeID, Field: "branches", Reason: fmt.Sprintf("entry %d missing when condition", i)}
		}
		e.branches = append(e.branches, branchArm{label: label, when: when})
	}
	return e, nil
}

type branchArm struct {
	label string
	when  string
}

type branchExec struct {
	nodeID       string
	branches     []branchArm
	defaultLabel string
}

// Labels returns every label this node can select, for edge-cover
// validation at compile time.
func (e *branchExec) Labels() []string {
	labels := make([]string, 0, len(e.branches)+1)
	for _, b := range e.branches {
		labels = append(labels, b.label)
	}
	if e.defaultLabel != "" {
		labels = append(labels, e.defaultLabel)
	}
	return labels
}

func (e *branchExec) Execute(ctx Context, req Request) (*Result, error) {
	for _, b := range e.branches {
		match, err := expr.Eval(b.when, req.Vars)
		if err != nil {
			return nil, fmt.Errorf("branch %q: %w", b.label, err)
		}
		if match {
			return &Result{Outcome: OutcomeBranch, Branch: b.label}, nil
		}
	}
	if e.defaultLabel != "" {
		return &Result{Outcome: OutcomeBranch, Branch: e.defaultLabel}, nil
	}
	return nil, &UnresolvedBranchError{NodeID: e.nodeID, Labels: e.Labels()}
}
