package node

import (
	"github.com/randalmurphal/stepflow/pkg/stepflow/config"
	"github.com/randalmurphal/stepflow/pkg/stepflow/template"
)

// PromptType sends a templated message to the user and suspends the run
// until external input arrives. The reply is stored under the variable
// named by "save_as" (default "user_input").
//
// Config:
//
//	text:    required; message template, {{var}} placeholders allowed
//	save_as: optional; variable name for the user's reply
type PromptType struct{}

func (PromptType) Name() string { return TypePrompt }

func (PromptType) Interactive() bool { return true }

func (PromptType) Terminal() bool { return false }

func (PromptType) Compile(nodeID string, cfg config.Config) (Exec, error) {
	text := cfg.String("text", "")
	if text == "" {
		return nil, &ConfigError{NodeID: nodeID, Field: "text", Reason: "required"}
	}
	saveAs := cfg.String("save_as", "user_input")
	return &promptExec{text: text, saveAs: saveAs}, nil
}

type promptExec struct {
	text   string
	saveAs string
}

func (e *promptExec) Execute(ctx Context, req Request) (*Result, error) {
	// Resuming with input: consume it and continue to the successor.
	if req.Input != nil {
		return &Result{
			Outcome: OutcomeEmit,
			Vars:    map[string]any{e.saveAs: *req.Input},
		}, nil
	}

	rendered, err := template.Resolve(e.text, req.Vars)
	if err != nil {
		return nil, err
	}
	return &Result{Outcome: OutcomeRequestInput, Output: rendered}, nil
}
