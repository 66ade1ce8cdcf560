package stepflow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/stepflow/pkg/stepflow/config"
	"github.com/randalmurphal/stepflow/pkg/stepflow/llm"
	"github.com/randalmurphal/stepflow/pkg/stepflow/node"
)

// TestAdvance_PromptSuspendAndResume tests the full suspend/resume
// cycle: first step renders the prompt and waits, second consumes the
// reply and runs to completion.
func TestAdvance_PromptSuspendAndResume(t *testing.T) {
	g := mustCompile(t, greetingDef())
	it := newTestInterpreter(g, nil)
	run := NewRun(g)

	result, err := it.advance(context.Background(), run, nil)

	require.NoError(t, err)
	assert.Equal(t, StatusWaitingForInput, run.Status)
	assert.Equal(t, "ask_name", run.CurrentNode)
	assert.Equal(t, "ask_name", result.AwaitingNode)
	assert.Equal(t, []string{"What is your name?"}, result.Outputs())
	require.Len(t, result.Records, 1)
	assert.Equal(t, "request_input", result.Records[0].Outcome)

	result, err = it.advance(context.Background(), run, strPtr("Alice"))

	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, run.Status)
	assert.Empty(t, run.CurrentNode)
	assert.Equal(t, "Alice", run.Vars["name"])
	assert.Equal(t, []string{"Thanks, Alice!"}, result.Outputs())

	// Resume step: prompt consumed the input, then the output node ran.
	require.Len(t, result.Records, 2)
	assert.Equal(t, "ask_name", result.Records[0].NodeID)
	assert.Equal(t, "Alice", *result.Records[0].Input)
	assert.Equal(t, "emit", result.Records[0].Outcome)
	assert.Equal(t, "thanks", result.Records[1].NodeID)
	assert.Nil(t, result.Records[1].Input)
}

// TestAdvance_MessageHistory tests conversation ordering: assistant
// prompt, user reply, assistant farewell.
func TestAdvance_MessageHistory(t *testing.T) {
	g := mustCompile(t, greetingDef())
	it := newTestInterpreter(g, nil)
	run := NewRun(g)

	_, err := it.advance(context.Background(), run, nil)
	require.NoError(t, err)
	_, err = it.advance(context.Background(), run, strPtr("Bob"))
	require.NoError(t, err)

	require.Len(t, run.Messages, 3)
	assert.Equal(t, "assistant", run.Messages[0].Role)
	assert.Equal(t, "What is your name?", run.Messages[0].Content)
	assert.Equal(t, "user", run.Messages[1].Role)
	assert.Equal(t, "Bob", run.Messages[1].Content)
	assert.Equal(t, "assistant", run.Messages[2].Role)
	assert.Equal(t, "Thanks, Bob!", run.Messages[2].Content)
}

// TestAdvance_InputRequired tests that a waiting run rejects a step
// without input.
func TestAdvance_InputRequired(t *testing.T) {
	g := mustCompile(t, greetingDef())
	it := newTestInterpreter(g, nil)
	run := NewRun(g)

	_, err := it.advance(context.Background(), run, nil)
	require.NoError(t, err)
	require.Equal(t, StatusWaitingForInput, run.Status)

	_, err = it.advance(context.Background(), run, nil)

	assert.ErrorIs(t, err, ErrInputRequired)
	assert.Equal(t, StatusWaitingForInput, run.Status)
	assert.Len(t, run.Steps, 1)
}

// TestAdvance_InputNotExpected tests that a run not waiting for input
// rejects supplied input.
func TestAdvance_InputNotExpected(t *testing.T) {
	g := mustCompile(t, greetingDef())
	it := newTestInterpreter(g, nil)
	run := NewRun(g)

	_, err := it.advance(context.Background(), run, strPtr("unsolicited"))

	assert.ErrorIs(t, err, ErrInputNotExpected)
	assert.Equal(t, StatusPending, run.Status)
	assert.Empty(t, run.Steps)
}

// TestAdvance_RunNotActive tests that completed and failed runs reject
// further steps.
func TestAdvance_RunNotActive(t *testing.T) {
	g := mustCompile(t, greetingDef())
	it := newTestInterpreter(g, nil)
	run := NewRun(g)

	_, err := it.advance(context.Background(), run, nil)
	require.NoError(t, err)
	_, err = it.advance(context.Background(), run, strPtr("Alice"))
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, run.Status)

	_, err = it.advance(context.Background(), run, nil)

	assert.ErrorIs(t, err, ErrRunNotActive)
}

// TestAdvance_BranchRouting tests label-selected edges end to end.
func TestAdvance_BranchRouting(t *testing.T) {
	def := approvalDef()
	def.Variables = map[string]any{"approved": true}
	g := mustCompile(t, def)
	it := newTestInterpreter(g, nil)
	run := NewRun(g)

	result, err := it.advance(context.Background(), run, nil)

	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, run.Status)
	assert.Equal(t, []string{"Accepted."}, result.Outputs())
	require.Len(t, result.Records, 2)
	assert.Equal(t, "branch", result.Records[0].Outcome)
	assert.Equal(t, "yes", result.Records[0].Branch)
}

// TestAdvance_UnresolvedBranch tests that no matching arm and no
// default fails the run, naming the node.
func TestAdvance_UnresolvedBranch(t *testing.T) {
	g := mustCompile(t, approvalDef())
	it := newTestInterpreter(g, nil)
	run := NewRun(g) // "approved" never set

	_, err := it.advance(context.Background(), run, nil)

	require.Error(t, err)
	assert.Equal(t, StatusFailed, run.Status)
	var branchErr *node.UnresolvedBranchError
	require.ErrorAs(t, err, &branchErr)
	assert.Equal(t, "check", branchErr.NodeID)
	assert.Contains(t, run.Error, "check")
}

// TestAdvance_TransientRetry tests that a transiently failing node is
// retried across steps until the attempt budget runs out.
func TestAdvance_TransientRetry(t *testing.T) {
	def := WorkflowDefinition{
		ID:      "flaky",
		Version: 1,
		Nodes: []NodeDefinition{
			{ID: "gen", Type: node.TypeLLM, Config: map[string]any{"prompt": "Say hello."}, Next: "done"},
			{ID: "done", Type: node.TypeOutput, Config: map[string]any{"text": "All good."}},
		},
	}
	g := mustCompile(t, def)
	client := llm.NewMock(
		llm.MockReply{Err: llm.NewError("complete", errors.New("rate limited"), true)},
		llm.MockReply{Err: llm.NewError("complete", errors.New("rate limited"), true)},
		llm.MockReply{Content: "Hello!"},
	)
	it := newTestInterpreter(g, client)
	run := NewRun(g)

	// Attempt 1 fails transiently: the run stays re-attemptable.
	_, err := it.advance(context.Background(), run, nil)
	require.Error(t, err)
	assert.Equal(t, StatusRunning, run.Status)
	assert.Equal(t, 2, run.Attempt)
	assert.Equal(t, "gen", run.CurrentNode)

	// Attempt 2 fails the same way.
	_, err = it.advance(context.Background(), run, nil)
	require.Error(t, err)
	assert.Equal(t, StatusRunning, run.Status)
	assert.Equal(t, 3, run.Attempt)

	// Attempt 3 succeeds and the run finishes.
	result, err := it.advance(context.Background(), run, nil)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, run.Status)
	assert.Equal(t, []string{"Hello!", "All good."}, result.Outputs())
	assert.Len(t, client.Calls(), 3)
}

// TestAdvance_TransientBudgetExhausted tests that the final allowed
// attempt failing transiently fails the run.
func TestAdvance_TransientBudgetExhausted(t *testing.T) {
	def := WorkflowDefinition{
		ID:      "flaky",
		Version: 1,
		Nodes: []NodeDefinition{
			{ID: "gen", Type: node.TypeLLM, Config: map[string]any{"prompt": "Say hello."}, Next: "done"},
			{ID: "done", Type: node.TypeOutput, Config: map[string]any{"text": "All good."}},
		},
	}
	g := mustCompile(t, def)
	client := llm.NewMock(llm.MockReply{Err: llm.NewError("complete", errors.New("overloaded"), true)})
	it := newTestInterpreter(g, client)
	it.retryBudget = 2
	run := NewRun(g)

	_, err := it.advance(context.Background(), run, nil)
	require.Error(t, err)
	require.Equal(t, StatusRunning, run.Status)

	_, err = it.advance(context.Background(), run, nil)

	require.Error(t, err)
	assert.Equal(t, StatusFailed, run.Status)
	assert.NotEmpty(t, run.Error)
}

// TestAdvance_PermanentFailure tests that a non-retryable provider
// error fails the run on the first attempt.
func TestAdvance_PermanentFailure(t *testing.T) {
	def := WorkflowDefinition{
		ID:      "doomed",
		Version: 1,
		Nodes: []NodeDefinition{
			{ID: "gen", Type: node.TypeLLM, Config: map[string]any{"prompt": "Say hello."}, Next: "done"},
			{ID: "done", Type: node.TypeOutput, Config: map[string]any{"text": "Never."}},
		},
	}
	g := mustCompile(t, def)
	client := llm.NewMock(llm.MockReply{Err: llm.NewError("complete", errors.New("invalid api key"), false)})
	it := newTestInterpreter(g, client)
	run := NewRun(g)

	_, err := it.advance(context.Background(), run, nil)

	require.Error(t, err)
	assert.Equal(t, StatusFailed, run.Status)
	var nodeErr *NodeError
	require.ErrorAs(t, err, &nodeErr)
	assert.Equal(t, "gen", nodeErr.NodeID)
	assert.Len(t, client.Calls(), 1)
}

// TestAdvance_LLMExtraction tests JSON field extraction into the
// variable environment and the response field as user-facing output.
func TestAdvance_LLMExtraction(t *testing.T) {
	def := WorkflowDefinition{
		ID:      "classify",
		Version: 1,
		Nodes: []NodeDefinition{
			{
				ID:   "gen",
				Type: node.TypeLLM,
				Config: map[string]any{
					"prompt":  "Classify: {{text}}",
					"extract": []any{"sentiment", "response"},
				},
				Next: "done",
			},
			{ID: "done", Type: node.TypeOutput, Config: map[string]any{"text": "Sentiment: {{sentiment}}"}},
		},
		Variables: map[string]any{"text": "great stuff"},
	}
	g := mustCompile(t, def)
	client := llm.NewMock(llm.MockReply{Content: `{"sentiment": "positive", "response": "Sounds upbeat!"}`})
	it := newTestInterpreter(g, client)
	run := NewRun(g)

	result, err := it.advance(context.Background(), run, nil)

	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, run.Status)
	assert.Equal(t, "positive", run.Vars["sentiment"])
	assert.Equal(t, []string{"Sounds upbeat!", "Sentiment: positive"}, result.Outputs())

	calls := client.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "Classify: great stuff", calls[0].Prompt)
	assert.True(t, calls[0].JSONMode)
}

// TestAdvance_StepBudget tests that a cyclic chain of non-interactive
// nodes fails the run instead of spinning forever.
func TestAdvance_StepBudget(t *testing.T) {
	def := WorkflowDefinition{
		ID:      "loop",
		Version: 1,
		Start:   "a",
		Nodes: []NodeDefinition{
			{ID: "a", Type: node.TypeSetVar, Config: map[string]any{"variables": map[string]any{"x": 1}}, Next: "b"},
			{ID: "b", Type: node.TypeSetVar, Config: map[string]any{"variables": map[string]any{"y": 2}}, Next: "a"},
		},
	}
	g := mustCompile(t, def)
	it := newTestInterpreter(g, nil)
	it.stepBudget = 10
	run := NewRun(g)

	_, err := it.advance(context.Background(), run, nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStepBudgetExceeded)
	var budgetErr *StepBudgetError
	require.ErrorAs(t, err, &budgetErr)
	assert.Equal(t, 10, budgetErr.Max)
	assert.Equal(t, StatusFailed, run.Status)
	assert.Len(t, run.Steps, 10)
}

// TestAdvance_Cancellation tests that a cancelled context stops the
// step without failing the run.
func TestAdvance_Cancellation(t *testing.T) {
	g := mustCompile(t, greetingDef())
	it := newTestInterpreter(g, nil)
	run := NewRun(g)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := it.advance(ctx, run, nil)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StatusRunning, run.Status)
	assert.Equal(t, "ask_name", run.CurrentNode)
	assert.Empty(t, run.Steps)
}

// TestAdvance_PanicRecovery tests that a panicking node fails the run
// with the panic captured, not the process.
func TestAdvance_PanicRecovery(t *testing.T) {
	reg := node.Builtin()
	reg.Register(panicType{})
	def := WorkflowDefinition{
		ID:      "boom",
		Version: 1,
		Nodes: []NodeDefinition{
			{ID: "explode", Type: "Explode", Next: "done"},
			{ID: "done", Type: node.TypeOutput, Config: map[string]any{"text": "unreached"}},
		},
	}
	g, err := Compile(def, reg)
	require.NoError(t, err)
	it := newTestInterpreter(g, nil)
	run := NewRun(g)

	_, err = it.advance(context.Background(), run, nil)

	require.Error(t, err)
	assert.Equal(t, StatusFailed, run.Status)
	var panicErr *PanicError
	require.ErrorAs(t, err, &panicErr)
	assert.Equal(t, "explode", panicErr.NodeID)
	assert.NotEmpty(t, panicErr.Stack)
}

// TestAdvance_SetVarChain tests sequential variable evaluation with
// templating against earlier values.
func TestAdvance_SetVarChain(t *testing.T) {
	def := WorkflowDefinition{
		ID:      "vars",
		Version: 1,
		Nodes: []NodeDefinition{
			{
				ID:   "set",
				Type: node.TypeSetVar,
				Config: map[string]any{
					"variables": map[string]any{
						"greeting": "Hello, {{who}}!",
						"count":    2,
					},
				},
				Next: "done",
			},
			{ID: "done", Type: node.TypeOutput, Config: map[string]any{"text": "{{greeting}}"}},
		},
		Variables: map[string]any{"who": "world"},
	}
	g := mustCompile(t, def)
	it := newTestInterpreter(g, nil)
	run := NewRun(g)

	result, err := it.advance(context.Background(), run, nil)

	require.NoError(t, err)
	assert.Equal(t, "Hello, world!", run.Vars["greeting"])
	assert.Equal(t, 2, run.Vars["count"])
	assert.Equal(t, []string{"Hello, world!"}, result.Outputs())
}

// TestAdvance_RecordSnapshots tests that step records keep the
// environment as of their node, unaffected by later mutation.
func TestAdvance_RecordSnapshots(t *testing.T) {
	def := WorkflowDefinition{
		ID:      "snap",
		Version: 1,
		Nodes: []NodeDefinition{
			{ID: "first", Type: node.TypeSetVar, Config: map[string]any{"variables": map[string]any{"x": "one"}}, Next: "second"},
			{ID: "second", Type: node.TypeSetVar, Config: map[string]any{"variables": map[string]any{"x": "two"}}, Next: "done"},
			{ID: "done", Type: node.TypeOutput, Config: map[string]any{"text": "x is {{x}}"}},
		},
	}
	g := mustCompile(t, def)
	it := newTestInterpreter(g, nil)
	run := NewRun(g)

	_, err := it.advance(context.Background(), run, nil)

	require.NoError(t, err)
	require.Len(t, run.Steps, 3)
	assert.Equal(t, "one", run.Steps[0].Vars["x"])
	assert.Equal(t, "two", run.Steps[1].Vars["x"])
	assert.Equal(t, "x is two", run.Steps[2].Output)
}

// panicType is a test-only node type whose executions always panic.
type panicType struct{}

func (panicType) Name() string      { return "Explode" }
func (panicType) Interactive() bool { return false }
func (panicType) Terminal() bool    { return false }
func (panicType) Compile(_ string, _ config.Config) (node.Exec, error) {
	return panicExec{}, nil
}

type panicExec struct{}

func (panicExec) Execute(node.Context, node.Request) (*node.Result, error) {
	panic("kaboom")
}
