package llm

import "time"

// CompletionRequest configures one completion call.
type CompletionRequest struct {
	// SystemPrompt steers the model; optional.
	SystemPrompt string `json:"system_prompt,omitempty"`

	// Prompt is the user-facing prompt text.
	Prompt string `json:"prompt"`

	// Model overrides the client's default model.
	Model string `json:"model,omitempty"`

	// MaxTokens caps the response length; 0 means provider default.
	MaxTokens int `json:"max_tokens,omitempty"`

	// Temperature in provider units; nil means provider default.
	Temperature *float64 `json:"temperature,omitempty"`

	// JSONMode asks the provider for a single JSON object response.
	// Used by LLM nodes that extract variables from the completion.
	JSONMode bool `json:"json_mode,omitempty"`
}

// CompletionResponse is the result of a completion call.
type CompletionResponse struct {
	// Content is the raw completion text. In JSONMode this should be a
	// single JSON object, though callers must still parse defensively.
	Content string `json:"content"`

	// Model that actually served the request, when known.
	Model string `json:"model,omitempty"`

	// Usage token counts, when the provider reports them.
	Usage *TokenUsage `json:"usage,omitempty"`

	// Duration of the provider call.
	Duration time.Duration `json:"duration,omitempty"`
}

// TokenUsage reports token counts for a call.
type TokenUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}
