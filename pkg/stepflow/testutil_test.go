package stepflow

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/stepflow/pkg/stepflow/llm"
	"github.com/randalmurphal/stepflow/pkg/stepflow/node"
	"github.com/randalmurphal/stepflow/pkg/stepflow/observability"
)

// Shared helpers for graph and interpreter tests.

func strPtr(s string) *string { return &s }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mustCompile compiles against the built-in registry and fails the test
// on any validation issue.
func mustCompile(t *testing.T, def WorkflowDefinition) *CompiledGraph {
	t.Helper()
	g, err := Compile(def, node.Builtin())
	require.NoError(t, err)
	return g
}

// newTestInterpreter wires an interpreter with noop observability.
func newTestInterpreter(g *CompiledGraph, client llm.Client) *interpreter {
	return &interpreter{
		graph:       g,
		logger:      testLogger(),
		client:      client,
		metrics:     observability.NoopMetrics{},
		spans:       observability.NoopSpanManager{},
		stepBudget:  1000,
		retryBudget: 3,
	}
}

// greetingDef is a prompt-then-output workflow: ask for a name, thank
// the user by name, done.
func greetingDef() WorkflowDefinition {
	return WorkflowDefinition{
		ID:      "greeting",
		Version: 1,
		Nodes: []NodeDefinition{
			{
				ID:   "ask_name",
				Type: node.TypePrompt,
				Config: map[string]any{
					"text":    "What is your name?",
					"save_as": "name",
				},
				Next: "thanks",
			},
			{
				ID:   "thanks",
				Type: node.TypeOutput,
				Config: map[string]any{
					"text": "Thanks, {{name}}!",
				},
			},
		},
	}
}

// approvalDef branches on an "approved" flag set by an earlier node.
func approvalDef() WorkflowDefinition {
	return WorkflowDefinition{
		ID:      "approval",
		Version: 1,
		Nodes: []NodeDefinition{
			{
				ID:   "check",
				Type: node.TypeBranch,
				Config: map[string]any{
					"branches": []any{
						map[string]any{"label": "yes", "when": "approved == true"},
						map[string]any{"label": "no", "when": "approved == false"},
					},
				},
			},
			{ID: "accepted", Type: node.TypeOutput, Config: map[string]any{"text": "Accepted."}},
			{ID: "rejected", Type: node.TypeOutput, Config: map[string]any{"text": "Rejected."}},
		},
		Edges: []EdgeDefinition{
			{Source: "check", Target: "accepted", Label: "yes"},
			{Source: "check", Target: "rejected", Label: "no"},
		},
	}
}
