// Package store is the persistence port for runs. The engine serializes
// RunState and StepRecords itself; stores only move opaque bytes plus
// enough metadata to index them. Implementations must be safe for
// concurrent use across distinct runs — per-run write serialization is the
// engine's job, not the store's.
package store

import (
	"errors"
	"time"
)

// RunMeta indexes a saved run without deserializing it.
type RunMeta struct {
	WorkflowID string
	Version    int
	Status     string
	UpdatedAt  time.Time
}

// Store persists run state and append-only step records.
type Store interface {
	// SaveRun stores the serialized run, replacing any previous save.
	SaveRun(runID string, data []byte, meta RunMeta) error

	// LoadRun retrieves the latest serialized run.
	// Returns ErrNotFound for unknown runs.
	LoadRun(runID string) ([]byte, error)

	// AppendStep stores one serialized step record at the given sequence
	// number. Sequences are assigned by the engine and strictly increase
	// within a run; appending the same sequence twice replaces the record
	// (a step re-persisted after a crash must not duplicate).
	AppendStep(runID string, seq int, data []byte) error

	// ListSteps returns every step record for a run, ordered by sequence.
	// A run with no steps yields an empty slice, not an error.
	ListSteps(runID string) ([][]byte, error)

	// DeleteRun removes the run and its step records.
	// Deleting an unknown run is a no-op.
	DeleteRun(runID string) error

	// Close releases resources. Operations after Close return ErrClosed.
	Close() error
}

// Sentinel errors shared by implementations.
var (
	// ErrNotFound indicates the run does not exist.
	ErrNotFound = errors.New("run not found")

	// ErrClosed indicates the store has been closed.
	ErrClosed = errors.New("store closed")
)
