package benchmarks

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/randalmurphal/nodeflow/pkg/nodeflow"
	"github.com/randalmurphal/nodeflow/pkg/nodeflow/runlog"
)

func benchmarkRecord(b *testing.B, store runlog.Store) {
	b.Helper()
	defer store.Close()
	data := []byte(`{"version":1,"kind":"output","output":"hello world"}`)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := store.Record("bench", fmt.Sprintf("node-%d", i), data); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkMemoryStore_Record measures in-memory writes.
func BenchmarkMemoryStore_Record(b *testing.B) {
	benchmarkRecord(b, runlog.NewMemoryStore())
}

// BenchmarkSQLiteStore_Record measures SQLite file writes.
func BenchmarkSQLiteStore_Record(b *testing.B) {
	store, err := runlog.NewSQLiteStore(filepath.Join(b.TempDir(), "bench.db"))
	if err != nil {
		b.Fatal(err)
	}
	benchmarkRecord(b, store)
}

// BenchmarkExecute_Recorded runs a 20-node chain with a recorder attached.
func BenchmarkExecute_Recorded(b *testing.B) {
	nodes, edges := buildLinear(20)
	plan := nodeflow.BuildExecutionPlan(nodes, edges)
	engine := nodeflow.NewEngine()
	store := runlog.NewMemoryStore()
	defer store.Close()
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rec := runlog.NewRecorder(store, nil)
		if _, err := engine.ExecuteFlow(ctx, plan, nodeflow.WithObserver(rec)); err != nil {
			b.Fatal(err)
		}
	}
}
