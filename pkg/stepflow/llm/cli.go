package llm

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// CLI implements Client by shelling out to a local completion binary such
// as the claude CLI. It is the default production client in environments
// where the binary holds the provider credentials.
type CLI struct {
	path    string
	model   string
	workdir string
	timeout time.Duration
}

// CLIOption configures a CLI client.
type CLIOption func(*CLI)

// WithPath sets the binary path. Default: "claude" on PATH.
func WithPath(path string) CLIOption {
	return func(c *CLI) { c.path = path }
}

// WithModel sets the default model flag.
func WithModel(model string) CLIOption {
	return func(c *CLI) { c.model = model }
}

// WithWorkdir sets the working directory for invocations.
func WithWorkdir(dir string) CLIOption {
	return func(c *CLI) { c.workdir = dir }
}

// WithTimeout bounds each invocation. Default: 2 minutes.
func WithTimeout(d time.Duration) CLIOption {
	return func(c *CLI) { c.timeout = d }
}

// NewCLI creates a CLI-backed client.
func NewCLI(opts ...CLIOption) *CLI {
	c := &CLI{
		path:    "claude",
		timeout: 2 * time.Minute,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Complete implements Client.
func (c *CLI) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	start := time.Now()

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, c.path, c.buildArgs(req)...)
	if c.workdir != "" {
		cmd.Dir = c.workdir
	}
	cmd.Stdin = strings.NewReader(req.Prompt)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			// Timeouts are retryable, caller cancellation is not.
			return nil, NewError("complete", ctx.Err(), ctx.Err() == context.DeadlineExceeded)
		}
		msg := strings.TrimSpace(stderr.String())
		return nil, NewError("complete", fmt.Errorf("%w: %s", err, msg), isTransientMessage(msg))
	}

	model := req.Model
	if model == "" {
		model = c.model
	}

	return &CompletionResponse{
		Content:  strings.TrimSpace(stdout.String()),
		Model:    model,
		Duration: time.Since(start),
	}, nil
}

// buildArgs constructs CLI flags; the prompt itself goes over stdin.
func (c *CLI) buildArgs(req CompletionRequest) []string {
	args := []string{"--print"}

	system := req.SystemPrompt
	if req.JSONMode {
		directive := "Respond with a single JSON object and nothing else."
		if system == "" {
			system = directive
		} else {
			system = system + "\n" + directive
		}
	}
	if system != "" {
		args = append(args, "--system-prompt", system)
	}

	model := req.Model
	if model == "" {
		model = c.model
	}
	if model != "" {
		args = append(args, "--model", model)
	}

	if req.MaxTokens > 0 {
		args = append(args, "--max-tokens", fmt.Sprintf("%d", req.MaxTokens))
	}

	return args
}

// isTransientMessage guesses retryability from provider stderr.
func isTransientMessage(msg string) bool {
	lower := strings.ToLower(msg)
	for _, marker := range []string{
		"rate limit",
		"overloaded",
		"timeout",
		"timed out",
		"connection refused",
		"temporarily unavailable",
		"429",
		"503",
		"529",
	} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
