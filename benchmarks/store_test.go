package benchmarks

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/randalmurphal/stepflow/pkg/stepflow/store"
)

// benchState is a representative run payload.
type benchState struct {
	ID       string
	Vars     map[string]any
	Messages []string
}

func benchPayload() []byte {
	s := benchState{
		ID:   "run-1",
		Vars: map[string]any{"name": "Ada", "count": 42, "topic": "engines"},
		Messages: []string{
			"What is your name?",
			"Ada",
			"Thanks, Ada!",
		},
	}
	data, _ := json.Marshal(s)
	return data
}

// BenchmarkMemoryStore_SaveRun measures in-memory run persistence.
func BenchmarkMemoryStore_SaveRun(b *testing.B) {
	st := store.NewMemory()
	data := benchPayload()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = st.SaveRun("run-1", data, store.RunMeta{WorkflowID: "bench", Version: 1, Status: "running"})
	}
}

// BenchmarkMemoryStore_LoadRun measures in-memory run retrieval.
func BenchmarkMemoryStore_LoadRun(b *testing.B) {
	st := store.NewMemory()
	data := benchPayload()
	_ = st.SaveRun("run-1", data, store.RunMeta{WorkflowID: "bench", Version: 1, Status: "running"})
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = st.LoadRun("run-1")
	}
}

// BenchmarkSQLiteStore_SaveRun measures SQLite run persistence.
func BenchmarkSQLiteStore_SaveRun(b *testing.B) {
	st, err := store.NewSQLite(filepath.Join(b.TempDir(), "bench.db"))
	if err != nil {
		b.Fatal(err)
	}
	defer st.Close()
	data := benchPayload()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = st.SaveRun("run-1", data, store.RunMeta{WorkflowID: "bench", Version: 1, Status: "running"})
	}
}

// BenchmarkSQLiteStore_AppendStep measures step record appends.
func BenchmarkSQLiteStore_AppendStep(b *testing.B) {
	st, err := store.NewSQLite(filepath.Join(b.TempDir(), "bench.db"))
	if err != nil {
		b.Fatal(err)
	}
	defer st.Close()
	data := benchPayload()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = st.AppendStep("run-1", i, data)
	}
}
