package store

import (
	"sort"
	"sync"
)

// Memory is an in-memory Store for tests and ephemeral runs.
type Memory struct {
	mu     sync.RWMutex
	runs   map[string]memoryRun
	closed bool
}

type memoryRun struct {
	data  []byte
	meta  RunMeta
	steps map[int][]byte
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{runs: make(map[string]memoryRun)}
}

// SaveRun implements Store.
func (m *Memory) SaveRun(runID string, data []byte, meta RunMeta) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	r, ok := m.runs[runID]
	if !ok {
		r = memoryRun{steps: make(map[int][]byte)}
	}
	r.data = cloneBytes(data)
	r.meta = meta
	m.runs[runID] = r
	return nil
}

// LoadRun implements Store.
func (m *Memory) LoadRun(runID string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrClosed
	}

	r, ok := m.runs[runID]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneBytes(r.data), nil
}

// AppendStep implements Store.
func (m *Memory) AppendStep(runID string, seq int, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	r, ok := m.runs[runID]
	if !ok {
		r = memoryRun{steps: make(map[int][]byte)}
		m.runs[runID] = r
	}
	r.steps[seq] = cloneBytes(data)
	return nil
}

// ListSteps implements Store.
func (m *Memory) ListSteps(runID string) ([][]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrClosed
	}

	r, ok := m.runs[runID]
	if !ok {
		return [][]byte{}, nil
	}

	seqs := make([]int, 0, len(r.steps))
	for seq := range r.steps {
		seqs = append(seqs, seq)
	}
	sort.Ints(seqs)

	out := make([][]byte, 0, len(seqs))
	for _, seq := range seqs {
		out = append(out, cloneBytes(r.steps[seq]))
	}
	return out, nil
}

// DeleteRun implements Store.
func (m *Memory) DeleteRun(runID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	delete(m.runs, runID)
	return nil
}

// Close implements Store.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.runs = nil
	return nil
}

// Len returns the number of stored runs. Useful in tests.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.runs)
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
