package node

import (
	"github.com/randalmurphal/stepflow/pkg/stepflow/config"
	"github.com/randalmurphal/stepflow/pkg/stepflow/template"
)

// OutputType emits a templated message and continues immediately. An
// Output node with no outgoing edge is the usual way to terminate a
// workflow.
//
// Config:
//
//	text: required; message template, {{var}} placeholders allowed
type OutputType struct{}

func (OutputType) Name() string { return TypeOutput }

func (OutputType) Interactive() bool { return false }

func (OutputType) Terminal() bool { return true }

func (OutputType) Compile(nodeID string, cfg config.Config) (Exec, error) {
	text := cfg.String("text", "")
	if text == "" {
		return nil, &ConfigError{NodeID: nodeID, Field: "text", Reason: "required"}
	}
	return &outputExec{text: text}, nil
}

type outputExec struct {
	text string
}

func (e *outputExec) Execute(ctx Context, req Request) (*Result, error) {
	rendered, err := template.Resolve(e.text, req.Vars)
	if err != nil {
		return nil, err
	}
	return &Result{Outcome: OutcomeEmit, Output: rendered}, nil
}
