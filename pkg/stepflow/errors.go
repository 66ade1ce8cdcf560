package stepflow

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for compilation.
var (
	// ErrNoEntryPoint indicates no node qualifies as the entry point.
	ErrNoEntryPoint = errors.New("no entry point")

	// ErrAmbiguousEntryPoint indicates more than one node has no incoming
	// edges and no explicit start was declared.
	ErrAmbiguousEntryPoint = errors.New("ambiguous entry point")

	// ErrEmptyNodeID indicates a node with an empty id.
	ErrEmptyNodeID = errors.New("empty node id")

	// ErrDuplicateNodeID indicates two nodes share an id.
	ErrDuplicateNodeID = errors.New("duplicate node id")

	// ErrUnknownNodeType indicates a type tag with no registered handler.
	ErrUnknownNodeType = errors.New("unknown node type")

	// ErrDanglingEdge indicates an edge endpoint references no node.
	ErrDanglingEdge = errors.New("edge references unknown node")

	// ErrDuplicateEdgeLabel indicates two outgoing edges of one node
	// carry the same label (or are both unlabeled).
	ErrDuplicateEdgeLabel = errors.New("duplicate edge label")

	// ErrUnreachableNode indicates a node the entry point cannot reach.
	ErrUnreachableNode = errors.New("node unreachable from entry")

	// ErrMissingBranchEdge indicates a declared branch label without a
	// matching outgoing edge.
	ErrMissingBranchEdge = errors.New("branch label has no matching edge")

	// ErrMissingEdge indicates a non-terminal node with no outgoing edge.
	ErrMissingEdge = errors.New("non-terminal node has no outgoing edge")

	// ErrUnlabeledBranchEdge indicates an undeclared fallthrough edge on
	// a branch node.
	ErrUnlabeledBranchEdge = errors.New("branch node has an unlabeled edge")
)

// Sentinel errors for the advance protocol.
var (
	// ErrRunNotActive indicates the run is completed or failed.
	ErrRunNotActive = errors.New("run is not active")

	// ErrInputNotExpected indicates input was supplied while the run is
	// not waiting for any.
	ErrInputNotExpected = errors.New("input not expected")

	// ErrInputRequired indicates the run is waiting for input and none
	// was supplied.
	ErrInputRequired = errors.New("input required")

	// ErrStepInFlight indicates another advance call holds the run.
	ErrStepInFlight = errors.New("another step is in flight for this run")

	// ErrUnknownWorkflow indicates the workflow was never registered.
	ErrUnknownWorkflow = errors.New("workflow not registered")

	// ErrStepBudgetExceeded indicates the step loop hit its iteration cap.
	ErrStepBudgetExceeded = errors.New("step budget exceeded")
)

// ValidationError reports every invariant a WorkflowDefinition violates.
// Compilation never stops at the first problem; authors see all of them
// in one pass.
type ValidationError struct {
	WorkflowID string
	Version    int
	Issues     []error
}

// Error lists every issue, one per line.
func (e *ValidationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "workflow %q version %d failed validation (%d issues):", e.WorkflowID, e.Version, len(e.Issues))
	for _, issue := range e.Issues {
		b.WriteString("\n  - ")
		b.WriteString(issue.Error())
	}
	return b.String()
}

// Unwrap exposes every issue for errors.Is / errors.As.
func (e *ValidationError) Unwrap() []error {
	return e.Issues
}

// NodeError wraps an execution error with node context.
type NodeError struct {
	// NodeID is the node that failed.
	NodeID string
	// Op is the operation that failed (e.g., "execute").
	Op string
	// Err is the underlying error.
	Err error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("node %s: %s: %v", e.NodeID, e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *NodeError) Unwrap() error {
	return e.Err
}

// PanicError captures panic information from node execution.
type PanicError struct {
	// NodeID is the node that panicked.
	NodeID string
	// Value is the value passed to panic().
	Value any
	// Stack is the stack trace at the point of panic.
	Stack string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("node %s panicked: %v", e.NodeID, e.Value)
}

// StepBudgetError reports a step that exceeded its iteration cap.
// Guards against cyclic graphs that validation could not reject.
type StepBudgetError struct {
	// Max is the configured iteration limit.
	Max int
	// NodeID is the node that would have executed next.
	NodeID string
}

func (e *StepBudgetError) Error() string {
	return fmt.Sprintf("step budget exceeded (%d iterations) at node %s", e.Max, e.NodeID)
}

// Unwrap returns ErrStepBudgetExceeded for errors.Is support.
func (e *StepBudgetError) Unwrap() error {
	return ErrStepBudgetExceeded
}
