package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestStageWindowSnapshot(t *testing.T) {
	w := newStageWindow(8)
	for _, ms := range []float64{10, 20, 30, 40} {
		w.Observe("embed", ms)
	}
	w.Observe("generate", 500)

	snap := w.Snapshot()
	if snap.WindowSize != 8 {
		t.Fatalf("WindowSize = %d, want 8", snap.WindowSize)
	}
	if len(snap.Stages) != 2 {
		t.Fatalf("len(Stages) = %d, want 2", len(snap.Stages))
	}

	embedStats := snap.Stages[0]
	if embedStats.Stage != "embed" {
		t.Fatalf("stages not sorted: first = %q", embedStats.Stage)
	}
	if embedStats.Samples != 4 {
		t.Fatalf("embed samples = %d, want 4", embedStats.Samples)
	}
	if embedStats.AvgMS != 25 {
		t.Fatalf("embed avg = %v, want 25", embedStats.AvgMS)
	}
	if embedStats.LastMS != 40 {
		t.Fatalf("embed last = %v, want 40", embedStats.LastMS)
	}
}

func TestStageWindowWraps(t *testing.T) {
	w := newStageWindow(4)
	for i := 0; i < 10; i++ {
		w.Observe("search", float64(i))
	}

	snap := w.Snapshot()
	if len(snap.Stages) != 1 {
		t.Fatalf("len(Stages) = %d, want 1", len(snap.Stages))
	}
	if snap.Stages[0].Samples != 4 {
		t.Fatalf("samples = %d, want window size 4", snap.Stages[0].Samples)
	}
	if snap.Stages[0].LastMS != 9 {
		t.Fatalf("last = %v, want 9", snap.Stages[0].LastMS)
	}
}

func TestStageWindowRejectsBadInput(t *testing.T) {
	w := newStageWindow(4)
	w.Observe("", 10)
	w.Observe("embed", -1)

	if snap := w.Snapshot(); len(snap.Stages) != 0 {
		t.Fatalf("bad observations were recorded: %+v", snap.Stages)
	}
}

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics
	m.CountMessage(OutcomeRetrieval)
	m.ObserveGateSimilarity(0.9)
	m.ObserveStage("embed", time.Millisecond)
	if snap := m.SnapshotStages(); len(snap.Stages) != 0 {
		t.Fatalf("nil metrics snapshot should be empty")
	}
}

func TestMetricsStageSnapshotThroughMetrics(t *testing.T) {
	m := NewMetricsWith("solace_test", prometheus.NewRegistry())
	m.ObserveStage("generate", 250*time.Millisecond)

	snap := m.SnapshotStages()
	if len(snap.Stages) != 1 || snap.Stages[0].Stage != "generate" {
		t.Fatalf("snapshot = %+v, want one generate stage", snap.Stages)
	}
	if snap.Stages[0].LastMS != 250 {
		t.Fatalf("last = %v, want 250", snap.Stages[0].LastMS)
	}
}
