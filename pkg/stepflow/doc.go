/*
Package stepflow compiles conversational workflow definitions into
executable graphs and runs them one resumable step at a time.

# Overview

stepflow is a Go library for turn-based workflows: directed graphs of
typed nodes (prompts, LLM calls, branches, outputs) that execute until
they need user input, suspend, and resume later from persisted state.
A suspended run survives process restarts; any process with the same
workflow registered can pick it up.

The library provides:
  - Compile-time validation that reports every defect at once
  - Stepwise execution with an explicit suspend/resume protocol
  - Pluggable persistence (in-memory and SQLite stores included)
  - Retry classification for transient provider failures
  - OpenTelemetry integration for observability

# Basic Usage

Define a workflow, register it with an engine, start a run, and
advance it until it completes:

	def, err := stepflow.ParseDefinition(yamlSource)
	if err != nil {
	    log.Fatal(err)
	}

	engine := stepflow.New()
	if _, err := engine.RegisterWorkflow(def); err != nil {
	    log.Fatal(err)
	}

	run, err := engine.StartRun(ctx, def.ID, def.Version)
	if err != nil {
	    log.Fatal(err)
	}

	run, step, err := engine.Advance(ctx, run.ID, nil)
	if err != nil {
	    log.Fatal(err)
	}
	if run.Status == stepflow.StatusWaitingForInput {
	    // show step.Outputs() to the user, collect a reply,
	    // then call Advance again with the reply.
	}

# The Step Protocol

Advance executes nodes from the run's current position until one of
four things happens: an interactive node requests input, a terminal
node completes the run, a node fails permanently, or the step budget
is exhausted. Non-interactive chains run to completion within a single
Advance call.

Input is part of the protocol, not a free-form argument. A run waiting
at a prompt rejects Advance(ctx, id, nil) with ErrInputRequired; a run
that is not waiting rejects supplied input with ErrInputNotExpected.

# Validation

Compile checks the whole definition before anything executes: node
IDs, type tags, node configuration, edge targets, entry-point
uniqueness, reachability, and branch label cover. All violations are
collected into one ValidationError rather than stopping at the first:

	_, err := stepflow.Compile(def, node.Builtin())
	var verr *stepflow.ValidationError
	if errors.As(err, &verr) {
	    for _, issue := range verr.Issues {
	        fmt.Println(issue)
	    }
	}

# Custom Node Types

Register implementations of node.Type to extend the vocabulary
available to workflow definitions:

	reg := node.Builtin()
	reg.Register(&WebhookType{})
	engine := stepflow.New(stepflow.WithNodeRegistry(reg))
*/
package stepflow
