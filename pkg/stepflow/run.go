package stepflow

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a run.
type Status string

const (
	// StatusPending: created, no step executed yet.
	StatusPending Status = "pending"

	// StatusRunning: mid-execution, or failed retryably and awaiting the
	// next advance call.
	StatusRunning Status = "running"

	// StatusWaitingForInput: suspended until external input arrives.
	StatusWaitingForInput Status = "waiting_for_input"

	// StatusCompleted: terminal; the run reached a terminal node.
	StatusCompleted Status = "completed"

	// StatusFailed: terminal; error detail is in RunState.Error.
	StatusFailed Status = "failed"
)

// Active reports whether the run still accepts advance calls.
func (s Status) Active() bool {
	switch s {
	case StatusPending, StatusRunning, StatusWaitingForInput:
		return true
	}
	return false
}

// Message is one conversation entry. Roles are "user" and "assistant".
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	NodeID    string    `json:"node_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// StepRecord is the append-only audit entry for one node execution.
// Never mutated after creation.
type StepRecord struct {
	ID      string `json:"id"`
	NodeID  string `json:"node_id"`
	Outcome string `json:"outcome"`

	// Input consumed by this node, nil when none.
	Input *string `json:"input,omitempty"`

	// Output emitted by this node, empty when none.
	Output string `json:"output,omitempty"`

	// Vars is the variable environment snapshot after this node.
	Vars map[string]any `json:"vars"`

	// Branch label selected, for branch outcomes.
	Branch string `json:"branch,omitempty"`

	LatencyMs float64   `json:"latency_ms"`
	Timestamp time.Time `json:"timestamp"`
}

// RunState is the persistable record of one execution. The interpreter
// exclusively mutates it in memory during a step; the store is the sole
// durable owner between steps.
type RunState struct {
	ID              string `json:"id"`
	WorkflowID      string `json:"workflow_id"`
	WorkflowVersion int    `json:"workflow_version"`

	Status Status `json:"status"`

	// CurrentNode is the node the next step starts at. Empty once the
	// run completes.
	CurrentNode string `json:"current_node,omitempty"`

	// Vars grows monotonically: keys are added or overwritten, never
	// removed.
	Vars map[string]any `json:"vars"`

	// Messages is the ordered conversation history.
	Messages []Message `json:"messages,omitempty"`

	// Attempt counts consecutive tries of the current node (1 = first).
	Attempt int `json:"attempt"`

	// Steps is the ordered history of executed nodes.
	Steps []StepRecord `json:"steps,omitempty"`

	// Error holds the failure detail, set only when Status is failed.
	Error string `json:"error,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewRun creates a pending run for a compiled graph, seeded with the
// workflow's variable defaults.
func NewRun(g *CompiledGraph) *RunState {
	now := time.Now().UTC()
	return &RunState{
		ID:              uuid.New().String(),
		WorkflowID:      g.WorkflowID(),
		WorkflowVersion: g.Version(),
		Status:          StatusPending,
		CurrentNode:     g.Entry(),
		Vars:            g.Defaults(),
		Attempt:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// Marshal serializes the run for persistence.
func (r *RunState) Marshal() ([]byte, error) {
	return json.Marshal(r)
}

// UnmarshalRun deserializes a persisted run.
func UnmarshalRun(data []byte) (*RunState, error) {
	var r RunState
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// snapshotVars returns a copy of the variable environment, so step
// records stay stable as the run mutates.
func snapshotVars(vars map[string]any) map[string]any {
	out := make(map[string]any, len(vars))
	for k, v := range vars {
		out[k] = v
	}
	return out
}

// StepResult summarizes one advance call for the caller to relay.
type StepResult struct {
	RunID string `json:"run_id"`

	// Status after the step.
	Status Status `json:"status"`

	// Records appended during this call, in execution order.
	Records []StepRecord `json:"records"`

	// AwaitingNode names the node waiting for input, when suspended.
	AwaitingNode string `json:"awaiting_node,omitempty"`
}

// Outputs returns the non-empty outputs of this step's records, in
// order. Convenience for callers relaying messages to a user.
func (r *StepResult) Outputs() []string {
	var out []string
	for _, rec := range r.Records {
		if rec.Output != "" {
			out = append(out, rec.Output)
		}
	}
	return out
}
