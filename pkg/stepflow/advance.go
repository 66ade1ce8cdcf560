package stepflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/randalmurphal/stepflow/pkg/stepflow/fault"
	"github.com/randalmurphal/stepflow/pkg/stepflow/llm"
	"github.com/randalmurphal/stepflow/pkg/stepflow/node"
	"github.com/randalmurphal/stepflow/pkg/stepflow/observability"
)

// interpreter drives one run through compiled-graph steps. It is
// configured by the engine and holds no per-run state of its own.
type interpreter struct {
	graph   *CompiledGraph
	logger  *slog.Logger
	client  llm.Client
	metrics observability.MetricsRecorder
	spans   observability.SpanManager
	tracing bool

	// stepBudget caps node executions per advance call.
	stepBudget int

	// retryBudget caps consecutive attempts of a transiently failing
	// node before the run is marked failed.
	retryBudget int
}

// advance executes exactly one step: starting at the run's current
// node, it executes nodes until the run suspends for input, completes,
// fails, or exhausts the step budget.
//
// Protocol errors (run not active, unexpected or missing input) leave
// the run untouched. Execution errors mark the run failed, except
// transient failures within the retry budget, which leave the run
// re-attemptable at the same node.
func (it *interpreter) advance(ctx context.Context, run *RunState, input *string) (result *StepResult, err error) {
	if !run.Status.Active() {
		return nil, fmt.Errorf("%w: run %s is %s", ErrRunNotActive, run.ID, run.Status)
	}
	if input != nil && run.Status != StatusWaitingForInput {
		return nil, fmt.Errorf("%w: run %s is %s", ErrInputNotExpected, run.ID, run.Status)
	}
	if input == nil && run.Status == StatusWaitingForInput {
		return nil, fmt.Errorf("%w: run %s is waiting at node %s", ErrInputRequired, run.ID, run.CurrentNode)
	}

	execCtx := &executionContext{
		Context: ctx,
		logger:  it.logger,
		client:  it.client,
		runID:   run.ID,
		attempt: run.Attempt,
	}

	var stepSpan trace.Span
	spanCtx := ctx
	if it.tracing {
		spanCtx, stepSpan = it.spans.StartStepSpan(ctx, run.WorkflowID, run.ID)
		execCtx.Context = spanCtx
		defer func() {
			it.spans.EndSpanWithError(stepSpan, err)
		}()
	}

	observability.LogStepStart(it.logger, run.ID, run.CurrentNode)
	stepDone := observability.TimedOperation()
	result = &StepResult{RunID: run.ID}

	defer func() {
		run.UpdatedAt = time.Now().UTC()
		result.Status = run.Status
		durationMs := stepDone()
		it.metrics.RecordStep(spanCtx, string(run.Status), time.Duration(durationMs*float64(time.Millisecond)))
		if err != nil {
			observability.LogStepError(it.logger, run.ID, run.CurrentNode, err)
		} else {
			observability.LogStepComplete(it.logger, run.ID, string(run.Status), durationMs, len(result.Records))
		}
	}()

	if run.Status == StatusPending && run.CurrentNode == "" {
		run.CurrentNode = it.graph.Entry()
	}
	if run.Status == StatusWaitingForInput {
		run.Messages = append(run.Messages, Message{
			Role:      "user",
			Content:   *input,
			NodeID:    run.CurrentNode,
			Timestamp: time.Now().UTC(),
		})
	}
	run.Status = StatusRunning

	pending := input
	for iterations := 0; ; iterations++ {
		if iterations >= it.stepBudget {
			budgetErr := &StepBudgetError{Max: it.stepBudget, NodeID: run.CurrentNode}
			it.fail(run, budgetErr)
			return result, budgetErr
		}

		select {
		case <-ctx.Done():
			// The run stays re-attemptable; the caller simply did not
			// get this step durably finished.
			return result, ctx.Err()
		default:
		}

		cn, ok := it.graph.nodeByID(run.CurrentNode)
		if !ok {
			lookupErr := &NodeError{NodeID: run.CurrentNode, Op: "lookup", Err: errors.New("node not in compiled graph")}
			it.fail(run, lookupErr)
			return result, lookupErr
		}

		nodeDone := observability.TimedOperation()
		res, nodeErr := it.executeNode(execCtx, run, cn, pending)
		latencyMs := nodeDone()

		if nodeErr != nil {
			if fault.Categorize(nodeErr) == fault.Transient && run.Attempt < it.retryBudget {
				run.Attempt++
				return result, nodeErr
			}
			it.fail(run, nodeErr)
			return result, nodeErr
		}
		run.Attempt = 1

		for k, v := range res.Vars {
			run.Vars[k] = v
		}
		if res.Output != "" {
			run.Messages = append(run.Messages, Message{
				Role:      "assistant",
				Content:   res.Output,
				NodeID:    cn.id,
				Timestamp: time.Now().UTC(),
			})
		}

		record := StepRecord{
			ID:        uuid.New().String(),
			NodeID:    cn.id,
			Outcome:   res.Outcome.String(),
			Input:     pending,
			Output:    res.Output,
			Vars:      snapshotVars(run.Vars),
			Branch:    res.Branch,
			LatencyMs: latencyMs,
			Timestamp: time.Now().UTC(),
		}
		run.Steps = append(run.Steps, record)
		result.Records = append(result.Records, record)
		pending = nil

		switch res.Outcome {
		case node.OutcomeRequestInput:
			run.Status = StatusWaitingForInput
			result.AwaitingNode = cn.id
			observability.LogRunSuspended(it.logger, run.ID, cn.id)
			return result, nil

		case node.OutcomeBranch:
			target, ok := cn.successor(res.Branch)
			if !ok {
				routeErr := &NodeError{NodeID: cn.id, Op: "route", Err: fmt.Errorf("no edge for label %q", res.Branch)}
				it.fail(run, routeErr)
				return result, routeErr
			}
			run.CurrentNode = target

		default: // OutcomeEmit, OutcomeInvoke
			if cn.terminal() {
				run.Status = StatusCompleted
				run.CurrentNode = ""
				return result, nil
			}
			target, ok := cn.successor("")
			if !ok {
				routeErr := &NodeError{NodeID: cn.id, Op: "route", Err: errors.New("no default edge")}
				it.fail(run, routeErr)
				return result, routeErr
			}
			run.CurrentNode = target
		}
	}
}

// executeNode runs one node with panic recovery, per-node logging,
// tracing, and metrics.
func (it *interpreter) executeNode(base *executionContext, run *RunState, cn *compiledNode, pending *string) (result *node.Result, err error) {
	nodeCtx := base.withNode(cn.id, run.Attempt)
	observability.LogNodeStart(nodeCtx.logger, cn.id, cn.typeName)

	var span trace.Span
	if it.tracing {
		_, span = it.spans.StartNodeSpan(base.Context, cn.id, cn.typeName)
	}

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = &PanicError{NodeID: cn.id, Value: r, Stack: string(debug.Stack())}
		}

		duration := time.Since(start)
		it.metrics.RecordNodeExecution(base.Context, cn.id, cn.typeName, duration, err)

		var provErr *llm.ProviderError
		if (result != nil && result.Outcome == node.OutcomeInvoke) || errors.As(err, &provErr) {
			it.metrics.RecordLLMCall(base.Context, duration, err)
		}

		if it.tracing {
			it.spans.EndSpanWithError(span, err)
		}

		if err != nil {
			retryable := fault.Categorize(err) == fault.Transient
			observability.LogNodeError(nodeCtx.logger, cn.id, err, retryable)
		} else {
			observability.LogNodeComplete(nodeCtx.logger, cn.id, result.Outcome.String(), float64(duration.Microseconds())/1000.0)
		}
	}()

	res, execErr := cn.exec.Execute(nodeCtx, node.Request{Vars: run.Vars, Input: pending})
	if execErr != nil {
		return nil, &NodeError{NodeID: cn.id, Op: "execute", Err: execErr}
	}
	if res == nil {
		return nil, &NodeError{NodeID: cn.id, Op: "execute", Err: errors.New("node returned no result")}
	}
	return res, nil
}

// fail marks the run terminally failed with the cause attached.
func (it *interpreter) fail(run *RunState, err error) {
	run.Status = StatusFailed
	run.Error = err.Error()
}
