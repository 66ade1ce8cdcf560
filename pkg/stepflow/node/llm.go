package node

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/randalmurphal/stepflow/pkg/stepflow/config"
	"github.com/randalmurphal/stepflow/pkg/stepflow/llm"
	"github.com/randalmurphal/stepflow/pkg/stepflow/template"
)

// LLMType renders a prompt template, invokes the completion client, and
// optionally extracts named fields from a JSON response into the
// variable environment.
//
// Config:
//
//	prompt:      required; prompt template, {{var}} placeholders allowed
//	system:      optional; system prompt
//	model:       optional; model override
//	max_tokens:  optional; response length cap
//	temperature: optional; sampling temperature
//	extract:     optional; list of fields to copy from a JSON response
//	json:        optional; force JSON mode (implied by extract)
//	save_as:     optional; variable name for the raw response text
type LLMType struct{}

func (LLMType) Name() string { return TypeLLM }

func (LLMType) Interactive() bool { return false }

func (LLMType) Terminal() bool { return false }

func (LLMType) Compile(nodeID string, cfg config.Config) (Exec, error) {
	prompt := cfg.String("prompt", "")
	if prompt == "" {
		return nil, &ConfigError{NodeID: nodeID, Field: "prompt", Reason: "required"}
	}

	extract := cfg.StringSlice("extract")
	if cfg.Has("extract") && extract == nil {
		return nil, &ConfigError{NodeID: nodeID, Field: "extract", Reason: "must be a list of field names"}
	}

	e := &llmExec{
		nodeID:    nodeID,
		prompt:    prompt,
		system:    cfg.String("system", ""),
		model:     cfg.String("model", ""),
		maxTokens: cfg.Int("max_tokens", 0),
		extract:   extract,
		jsonMode:  cfg.Bool("json", len(extract) > 0),
		saveAs:    cfg.String("save_as", ""),
	}
	if cfg.Has("temperature") {
		temp := cfg.Float("temperature", 0)
		e.temperature = &temp
	}
	return e, nil
}

type llmExec struct {
	nodeID      string
	prompt      string
	system      string
	model       string
	maxTokens   int
	temperature *float64
	extract     []string
	jsonMode    bool
	saveAs      string
}

func (e *llmExec) Execute(ctx Context, req Request) (*Result, error) {
	client := ctx.LLM()
	if client == nil {
		return nil, errors.New("no completion client configured")
	}

	prompt, err := template.Resolve(e.prompt, req.Vars)
	if err != nil {
		return nil, err
	}

	resp, err := client.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: e.system,
		Prompt:       prompt,
		Model:        e.model,
		MaxTokens:    e.maxTokens,
		Temperature:  e.temperature,
		JSONMode:     e.jsonMode,
	})
	if err != nil {
		return nil, err
	}

	result := &Result{Outcome: OutcomeInvoke, Output: resp.Content}
	updates := map[string]any{}

	if e.jsonMode && len(e.extract) > 0 {
		fields, perr := parseJSONObject(resp.Content)
		if perr != nil {
			return nil, perr
		}
		for _, name := range e.extract {
			if v, ok := fields[name]; ok {
				updates[name] = v
			}
		}
		// A "response" field, when present, is the user-facing text.
		if msg, ok := fields["response"].(string); ok {
			result.Output = msg
		}
	}

	if e.saveAs != "" {
		updates[e.saveAs] = resp.Content
	}
	if len(updates) > 0 {
		result.Vars = updates
	}
	return result, nil
}

// parseJSONObject decodes a completion as a JSON object, tolerating a
// markdown code fence around the payload.
func parseJSONObject(content string) (map[string]any, error) {
	s := strings.TrimSpace(content)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
		s = strings.TrimSpace(s)
	}

	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()

	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, errors.New("completion is not a JSON object: " + err.Error())
	}
	return fields, nil
}
