package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/san-kum/glucosim/internal/dynamo"
)

func TestObserveRunRecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewCollector(reg)
	if err != nil {
		t.Fatalf("NewCollector: %v", err)
	}

	res := &dynamo.Result{
		Status: dynamo.StatusComplete,
		Stats:  dynamo.Stats{Evaluations: 120, Accepted: 18, Rejected: 2},
	}
	c.ObserveRun("dallaman", "RK45", res, 15*time.Millisecond)
	c.ObserveRun("dallaman", "RK45", res, 5*time.Millisecond)

	if got := testutil.ToFloat64(c.Runs.WithLabelValues("dallaman", "RK45", "complete")); got != 2 {
		t.Fatalf("glucosim_runs_total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.Evaluations.WithLabelValues("dallaman", "RK45")); got != 240 {
		t.Fatalf("glucosim_rhs_evaluations_total = %v, want 240", got)
	}
	if got := testutil.ToFloat64(c.Steps.WithLabelValues("dallaman", "RK45", "rejected")); got != 4 {
		t.Fatalf("glucosim_steps_total{rejected} = %v, want 4", got)
	}
	if got := testutil.CollectAndCount(c.Durations); got != 1 {
		t.Fatalf("duration series = %d, want 1", got)
	}
}

func TestObserveRunWithoutResult(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewCollector(reg)
	if err != nil {
		t.Fatalf("NewCollector: %v", err)
	}

	c.ObserveRun("dallaman", "RK23", nil, time.Millisecond)

	if got := testutil.ToFloat64(c.Runs.WithLabelValues("dallaman", "RK23", "error")); got != 1 {
		t.Fatalf("glucosim_runs_total{error} = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(c.Evaluations); got != 0 {
		t.Fatalf("evaluation series = %d, want 0", got)
	}
}

func TestNilCollectorIsNoop(t *testing.T) {
	var c *Collector
	c.ObserveRun("dallaman", "RK45", &dynamo.Result{}, time.Second)
	if err := c.WriteTextfile(filepath.Join(t.TempDir(), "m.prom")); err != nil {
		t.Fatalf("nil WriteTextfile: %v", err)
	}
}

func TestRegisterTwiceReusesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	a, err := NewCollector(reg)
	if err != nil {
		t.Fatalf("first NewCollector: %v", err)
	}
	b, err := NewCollector(reg)
	if err != nil {
		t.Fatalf("second NewCollector: %v", err)
	}

	a.ObserveRun("dallaman", "RK4", &dynamo.Result{Status: dynamo.StatusFailed}, time.Millisecond)
	if got := testutil.ToFloat64(b.Runs.WithLabelValues("dallaman", "RK4", "failed")); got != 1 {
		t.Fatalf("shared counter = %v, want 1", got)
	}
}

func TestWriteTextfile(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewCollector(reg)
	if err != nil {
		t.Fatalf("NewCollector: %v", err)
	}
	c.ObserveRun("dallaman", "RK45", &dynamo.Result{Status: dynamo.StatusComplete}, time.Millisecond)

	path := filepath.Join(t.TempDir(), "glucosim.prom")
	if err := c.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	if !strings.Contains(string(data), `glucosim_runs_total{method="RK45",model="dallaman",status="complete"} 1`) {
		t.Fatalf("textfile missing run counter:\n%s", data)
	}
}
