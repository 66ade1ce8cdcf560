package stepflow

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/randalmurphal/stepflow/pkg/stepflow/llm"
	"github.com/randalmurphal/stepflow/pkg/stepflow/node"
	"github.com/randalmurphal/stepflow/pkg/stepflow/observability"
	"github.com/randalmurphal/stepflow/pkg/stepflow/registry"
	"github.com/randalmurphal/stepflow/pkg/stepflow/store"
)

// graphKey identifies one compiled workflow version in the cache.
type graphKey struct {
	id      string
	version int
}

// Engine compiles workflows, starts runs, and advances them one step at
// a time. It owns the persistence round-trip: every Advance call loads
// the run, executes until it suspends or finishes, and saves it back.
//
// An Engine is safe for concurrent use. Distinct runs advance in
// parallel; concurrent Advance calls on the same run are rejected with
// ErrStepInFlight rather than queued, so callers never block behind
// each other.
type Engine struct {
	store   store.Store
	nodes   *node.Registry
	client  llm.Client
	logger  *slog.Logger
	metrics observability.MetricsRecorder
	spans   observability.SpanManager
	tracing bool

	stepBudget  int
	retryBudget int

	graphs *registry.Registry[graphKey, *CompiledGraph]
	locks  *registry.Registry[string, *sync.Mutex]
}

// New creates an Engine. With no options it keeps runs in memory, uses
// the built-in node types, and logs via slog.Default().
func New(opts ...Option) *Engine {
	e := &Engine{
		store:       store.NewMemory(),
		nodes:       node.Builtin(),
		logger:      slog.Default(),
		metrics:     observability.NoopMetrics{},
		spans:       observability.NoopSpanManager{},
		stepBudget:  1000,
		retryBudget: 3,
		graphs:      registry.New[graphKey, *CompiledGraph](),
		locks:       registry.New[string, *sync.Mutex](),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RegisterWorkflow compiles the definition and caches the result under
// its (ID, Version) pair. Registering the same pair again replaces the
// cached graph; in-flight runs keep the graph they resolved at load
// time, so replacement only affects later Advance calls.
func (e *Engine) RegisterWorkflow(def *WorkflowDefinition) (*CompiledGraph, error) {
	g, err := Compile(*def, e.nodes)
	if err != nil {
		return nil, err
	}
	e.graphs.Register(graphKey{id: g.WorkflowID(), version: g.Version()}, g)
	return g, nil
}

// Graph returns the cached compiled graph for a workflow version.
func (e *Engine) Graph(workflowID string, version int) (*CompiledGraph, bool) {
	return e.graphs.Get(graphKey{id: workflowID, version: version})
}

// StartRun creates and persists a fresh run of a registered workflow.
// The run starts in StatusPending at the graph's entry node with the
// definition's default variables; no node executes until the first
// Advance call.
func (e *Engine) StartRun(ctx context.Context, workflowID string, version int) (*RunState, error) {
	g, ok := e.Graph(workflowID, version)
	if !ok {
		return nil, fmt.Errorf("%w: %s version %d", ErrUnknownWorkflow, workflowID, version)
	}
	run := NewRun(g)
	if err := e.saveRun(ctx, run); err != nil {
		return nil, err
	}
	e.logger.InfoContext(ctx, "run started",
		slog.String("run_id", run.ID),
		slog.String("workflow_id", workflowID),
		slog.Int("workflow_version", version))
	return run, nil
}

// Run loads a persisted run by ID.
// Returns store.ErrNotFound for unknown runs.
func (e *Engine) Run(ctx context.Context, runID string) (*RunState, error) {
	data, err := e.store.LoadRun(runID)
	if err != nil {
		return nil, err
	}
	return UnmarshalRun(data)
}

// Advance executes one step of the run: from its current position,
// nodes execute until the run suspends for input, completes, fails, or
// exhausts the step budget. The returned RunState is the persisted
// post-step state; the StepResult describes what this call did.
//
// A run suspended at an interactive node requires input; a run that is
// not suspended rejects it. Concurrent calls on the same run return
// ErrStepInFlight. Failed saves return the save error with the
// in-memory state, so callers can retry Advance after the store
// recovers.
func (e *Engine) Advance(ctx context.Context, runID string, input *string) (*RunState, *StepResult, error) {
	mu := e.locks.GetOrCreate(runID, func() *sync.Mutex { return &sync.Mutex{} })
	if !mu.TryLock() {
		return nil, nil, fmt.Errorf("%w: run %s", ErrStepInFlight, runID)
	}
	defer mu.Unlock()

	run, err := e.Run(ctx, runID)
	if err != nil {
		return nil, nil, err
	}
	g, ok := e.Graph(run.WorkflowID, run.WorkflowVersion)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s version %d", ErrUnknownWorkflow, run.WorkflowID, run.WorkflowVersion)
	}

	it := &interpreter{
		graph:       g,
		logger:      e.logger,
		client:      e.client,
		metrics:     e.metrics,
		spans:       e.spans,
		tracing:     e.tracing,
		stepBudget:  e.stepBudget,
		retryBudget: e.retryBudget,
	}

	seqBase := len(run.Steps)
	result, stepErr := it.advance(ctx, run, input)
	if result == nil {
		// Protocol error: the run was not touched, nothing to persist.
		return run, nil, stepErr
	}

	if err := e.saveRun(ctx, run); err != nil {
		return run, result, err
	}
	for i, rec := range result.Records {
		data, err := json.Marshal(rec)
		if err != nil {
			return run, result, fmt.Errorf("marshal step record: %w", err)
		}
		if err := e.store.AppendStep(run.ID, seqBase+i, data); err != nil {
			observability.LogPersistError(e.logger, run.ID, "append_step", err)
			return run, result, err
		}
	}
	return run, result, stepErr
}

// DeleteRun removes a run and its step history from the store.
func (e *Engine) DeleteRun(ctx context.Context, runID string) error {
	if err := e.store.DeleteRun(runID); err != nil {
		return err
	}
	e.locks.Delete(runID)
	return nil
}

// Close releases the engine's store.
func (e *Engine) Close() error {
	return e.store.Close()
}

func (e *Engine) saveRun(ctx context.Context, run *RunState) error {
	run.UpdatedAt = time.Now().UTC()
	data, err := run.Marshal()
	if err != nil {
		return fmt.Errorf("marshal run %s: %w", run.ID, err)
	}
	meta := store.RunMeta{
		WorkflowID: run.WorkflowID,
		Version:    run.WorkflowVersion,
		Status:     string(run.Status),
		UpdatedAt:  run.UpdatedAt,
	}
	if err := e.store.SaveRun(run.ID, data, meta); err != nil {
		observability.LogPersistError(e.logger, run.ID, "save_run", err)
		return err
	}
	e.metrics.RecordPersistedSize(ctx, int64(len(data)))
	return nil
}
