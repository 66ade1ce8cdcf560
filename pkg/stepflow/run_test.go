package stepflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestStatus_Active tests which lifecycle states accept steps.
func TestStatus_Active(t *testing.T) {
	assert.True(t, StatusPending.Active())
	assert.True(t, StatusRunning.Active())
	assert.True(t, StatusWaitingForInput.Active())
	assert.False(t, StatusCompleted.Active())
	assert.False(t, StatusFailed.Active())
}

// TestNewRun tests fresh-run initialization.
func TestNewRun(t *testing.T) {
	def := greetingDef()
	def.Variables = map[string]any{"tone": "warm"}
	g := mustCompile(t, def)

	run := NewRun(g)

	assert.NotEmpty(t, run.ID)
	assert.Equal(t, "greeting", run.WorkflowID)
	assert.Equal(t, 1, run.WorkflowVersion)
	assert.Equal(t, StatusPending, run.Status)
	assert.Equal(t, "ask_name", run.CurrentNode)
	assert.Equal(t, 1, run.Attempt)
	assert.Equal(t, "warm", run.Vars["tone"])

	// Each run gets its own copy of the defaults.
	run.Vars["tone"] = "curt"
	other := NewRun(g)
	assert.Equal(t, "warm", other.Vars["tone"])
}

// TestRunState_MarshalRoundTrip tests that a suspended run survives
// serialization with its position, vars, and history intact.
func TestRunState_MarshalRoundTrip(t *testing.T) {
	g := mustCompile(t, greetingDef())
	run := NewRun(g)
	run.Status = StatusWaitingForInput
	run.Vars["name"] = "Ada"
	run.Messages = append(run.Messages, Message{Role: "assistant", Content: "What is your name?", NodeID: "ask_name"})
	run.Steps = append(run.Steps, StepRecord{ID: "s1", NodeID: "ask_name", Outcome: "request_input", Vars: map[string]any{"name": "Ada"}})

	data, err := run.Marshal()
	require.NoError(t, err)

	loaded, err := UnmarshalRun(data)
	require.NoError(t, err)
	assert.Equal(t, run.ID, loaded.ID)
	assert.Equal(t, StatusWaitingForInput, loaded.Status)
	assert.Equal(t, "ask_name", loaded.CurrentNode)
	assert.Equal(t, "Ada", loaded.Vars["name"])
	require.Len(t, loaded.Steps, 1)
	assert.Equal(t, "request_input", loaded.Steps[0].Outcome)
}

// TestStepResult_Outputs tests that only non-empty outputs are
// relayed, in order.
func TestStepResult_Outputs(t *testing.T) {
	r := &StepResult{Records: []StepRecord{
		{Output: "first"},
		{Output: ""},
		{Output: "second"},
	}}

	assert.Equal(t, []string{"first", "second"}, r.Outputs())
	assert.Nil(t, (&StepResult{}).Outputs())
}
