package stepflow

import (
	"context"
	"log/slog"

	"github.com/randalmurphal/stepflow/pkg/stepflow/llm"
)

// executionContext implements node.Context. The interpreter creates one
// per advance call and derives per-node copies with an enriched logger.
type executionContext struct {
	context.Context

	logger  *slog.Logger
	client  llm.Client
	runID   string
	nodeID  string
	attempt int
}

func (c *executionContext) Logger() *slog.Logger { return c.logger }
func (c *executionContext) LLM() llm.Client      { return c.client }
func (c *executionContext) RunID() string        { return c.runID }
func (c *executionContext) NodeID() string       { return c.nodeID }
func (c *executionContext) Attempt() int         { return c.attempt }

// withNode returns a copy scoped to one node execution.
func (c *executionContext) withNode(nodeID string, attempt int) *executionContext {
	return &executionContext{
		Context: c.Context,
		logger:  c.logger.With("run_id", c.runID, "node_id", nodeID, "attempt", attempt),
		client:  c.client,
		runID:   c.runID,
		nodeID:  nodeID,
		attempt: attempt,
	}
}
