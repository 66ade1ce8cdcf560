// Package node defines the executable node contract and the built-in
// node types (Prompt, Output, LLM, Branch, SetVar).
//
// A Type validates raw configuration at compile time and produces an
// Exec. An Exec runs against the current variable environment and
// reports one of four outcomes: emit output and continue, suspend for
// external input, invoke an external provider, or select a labeled
// edge.
package node

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/randalmurphal/stepflow/pkg/stepflow/config"
	"github.com/randalmurphal/stepflow/pkg/stepflow/llm"
)

// Built-in type tags.
const (
	TypePrompt = "Prompt"
	TypeOutput = "Output"
	TypeLLM    = "LLM"
	TypeBranch = "Branch"
	TypeSetVar = "SetVar"
)

// Outcome classifies what a node execution produced.
type Outcome int

const (
	// OutcomeEmit is textual output plus variable updates; execution
	// continues to the node's successor without suspending.
	OutcomeEmit Outcome = iota

	// OutcomeRequestInput suspends the run; the same node is re-entered
	// once external input arrives.
	OutcomeRequestInput

	// OutcomeInvoke is an external side-effecting call whose result has
	// been applied as variable updates; execution continues.
	OutcomeInvoke

	// OutcomeBranch selected exactly one outgoing edge by label.
	OutcomeBranch
)

// String returns the outcome name used in logs and step records.
func (o Outcome) String() string {
	switch o {
	case OutcomeEmit:
		return "emit"
	case OutcomeRequestInput:
		return "request_input"
	case OutcomeInvoke:
		return "invoke"
	case OutcomeBranch:
		return "branch"
	default:
		return "unknown"
	}
}

// Context provides execution services to nodes.
// It extends context.Context with engine services and run metadata.
type Context interface {
	context.Context

	// Logger returns the configured logger, enriched with run and node
	// context. Never returns nil.
	Logger() *slog.Logger

	// LLM returns the completion client, or nil if not configured.
	// Nodes should check for nil before using.
	LLM() llm.Client

	// RunID returns the unique identifier for this run.
	RunID() string

	// NodeID returns the node currently executing.
	NodeID() string

	// Attempt returns the retry attempt number (1 = first attempt).
	Attempt() int
}

// Request carries the inputs for one node execution.
type Request struct {
	// Vars is the current variable environment. Nodes must treat it as
	// read-only; updates go in Result.Vars.
	Vars map[string]any

	// Input is external input addressed to this node, nil when none is
	// pending. Only interactive types consume it.
	Input *string
}

// Result is the product of one node execution.
type Result struct {
	Outcome Outcome

	// Output is the assistant message emitted, empty when the node
	// produced none.
	Output string

	// Vars holds variable updates to merge into the run environment.
	Vars map[string]any

	// Branch is the selected edge label, set only for OutcomeBranch.
	Branch string
}

// Exec is a compiled, executable node instance. Implementations must be
// safe for concurrent use; execs are shared across runs of the same
// compiled workflow.
type Exec interface {
	Execute(ctx Context, req Request) (*Result, error)
}

// Type is a registered node kind. Compile validates raw configuration
// and returns the executable form, or a *ConfigError naming the node
// and the offending field.
type Type interface {
	// Name returns the type tag used in workflow definitions.
	Name() string

	// Interactive reports whether this type can suspend for external
	// input. The interpreter stops the step loop before re-entering an
	// interactive node.
	Interactive() bool

	// Terminal reports whether a node of this type may have no outgoing
	// edges. A terminal node with no successor completes the run; a
	// non-terminal node without an edge is a validation error.
	Terminal() bool

	// Compile validates cfg and returns an executable instance.
	Compile(nodeID string, cfg config.Config) (Exec, error)
}

// Labeled is implemented by execs that select among labeled outgoing
// edges. The compiler verifies each declared label has a matching edge.
type Labeled interface {
	Labels() []string
}

// ConfigError reports an invalid or missing node configuration field.
type ConfigError struct {
	NodeID string
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("node %q: config field %q: %s", e.NodeID, e.Field, e.Reason)
}

// UnresolvedBranchError reports a branch node where no condition
// matched and no default edge exists.
type UnresolvedBranchError struct {
	NodeID string
	Labels []string
}

func (e *UnresolvedBranchError) Error() string {
	return fmt.Sprintf("node %q: no branch condition matched and no default declared (labels: %v)", e.NodeID, e.Labels)
}
