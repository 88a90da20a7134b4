// Package telemetry exports simulation counters in Prometheus form.
package telemetry

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/san-kum/glucosim/internal/dynamo"
)

// Collector bundles the per-run metrics. A nil *Collector is valid and
// records nothing.
type Collector struct {
	gatherer prometheus.Gatherer

	Runs        *prometheus.CounterVec
	Evaluations *prometheus.CounterVec
	Steps       *prometheus.CounterVec
	Durations   *prometheus.HistogramVec
}

// NewCollector registers the simulation metrics against reg, defaulting to
// the global Prometheus registry when nil. Registering twice against the
// same registry returns collectors bound to the existing metrics.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	runs, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "glucosim_runs_total",
		Help: "Simulation runs, labeled by model, method and final status.",
	}, []string{"model", "method", "status"}), "glucosim_runs_total")
	if err != nil {
		return nil, err
	}

	evals, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "glucosim_rhs_evaluations_total",
		Help: "Derivative evaluations performed by the integrator.",
	}, []string{"model", "method"}), "glucosim_rhs_evaluations_total")
	if err != nil {
		return nil, err
	}

	steps, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "glucosim_steps_total",
		Help: "Integrator steps, labeled by outcome (accepted or rejected).",
	}, []string{"model", "method", "outcome"}), "glucosim_steps_total")
	if err != nil {
		return nil, err
	}

	durations, err := registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "glucosim_run_duration_seconds",
		Help:    "Wall time of one simulation run in seconds.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 10},
	}, []string{"model", "method"}), "glucosim_run_duration_seconds")
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:    gatherer,
		Runs:        runs,
		Evaluations: evals,
		Steps:       steps,
		Durations:   durations,
	}, nil
}

// ObserveRun records one finished run. A nil result counts as a run that
// failed before integration started.
func (c *Collector) ObserveRun(model, method string, res *dynamo.Result, elapsed time.Duration) {
	if c == nil {
		return
	}

	status := "error"
	if res != nil {
		status = string(res.Status)
	}
	c.Runs.WithLabelValues(model, method, status).Inc()
	c.Durations.WithLabelValues(model, method).Observe(elapsed.Seconds())

	if res == nil {
		return
	}
	c.Evaluations.WithLabelValues(model, method).Add(float64(res.Stats.Evaluations))
	c.Steps.WithLabelValues(model, method, "accepted").Add(float64(res.Stats.Accepted))
	c.Steps.WithLabelValues(model, method, "rejected").Add(float64(res.Stats.Rejected))
}

// WriteTextfile dumps every gathered metric in the node-exporter textfile
// format.
func (c *Collector) WriteTextfile(path string) error {
	if c == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, c.gatherer); err != nil {
		return fmt.Errorf("write metrics %s: %w", path, err)
	}
	return nil
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}
