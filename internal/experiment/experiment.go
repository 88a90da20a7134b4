package experiment

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/san-kum/glucosim/internal/dynamo"
	"github.com/san-kum/glucosim/internal/physiology"
	"github.com/san-kum/glucosim/internal/telemetry"
	"github.com/sirupsen/logrus"
)

// Request describes one simulation. Zero Model, Method, Dt, RTol and
// MaxSteps take their defaults. Meal, TSpan and ATol are used as given: a
// zero span is rejected and ATol 0 means a purely relative tolerance, so
// start from DefaultRequest for the standard scenario.
type Request struct {
	Model     string
	Params    map[string]float64
	Strict    bool
	Meal      float64
	TSpan     [2]float64
	Dt        float64
	Method    string
	RTol      float64
	ATol      float64
	MaxSteps  int
	FixedStep float64
}

func DefaultRequest() Request {
	cfg := dynamo.DefaultConfig()
	return Request{
		Model:    "dallaman",
		Meal:     physiology.DefaultMeal,
		TSpan:    [2]float64{cfg.T0, cfg.T1},
		Dt:       cfg.Dt,
		Method:   "RK45",
		RTol:     cfg.RTol,
		ATol:     cfg.ATol,
		MaxSteps: cfg.MaxSteps,
	}
}

func (r Request) withDefaults() Request {
	def := DefaultRequest()
	if r.Model == "" {
		r.Model = def.Model
	}
	if r.Method == "" {
		r.Method = def.Method
	}
	if r.Dt == 0 {
		r.Dt = def.Dt
	}
	if r.RTol == 0 {
		r.RTol = def.RTol
	}
	if r.MaxSteps == 0 {
		r.MaxSteps = def.MaxSteps
	}
	return r
}

func (r Request) config() dynamo.Config {
	return dynamo.Config{
		T0:        r.TSpan[0],
		T1:        r.TSpan[1],
		Dt:        r.Dt,
		RTol:      r.RTol,
		ATol:      r.ATol,
		MaxSteps:  r.MaxSteps,
		FixedStep: r.FixedStep,
	}
}

// Outcome is a finished or failed run.
type Outcome struct {
	Request    Request
	Params     physiology.Params
	Method     string
	Trajectory *physiology.Trajectory
	Elapsed    time.Duration
}

type Runner struct {
	registry  *Registry
	telemetry *telemetry.Collector
}

// NewRunner builds a runner. collector may be nil.
func NewRunner(registry *Registry, collector *telemetry.Collector) *Runner {
	if registry == nil {
		registry = NewRegistry()
	}
	return &Runner{registry: registry, telemetry: collector}
}

func (r *Runner) Registry() *Registry { return r.registry }

// Resolve merges the request overrides into the default parameter table and
// builds the typed record. Nothing is integrated.
func (r *Runner) Resolve(req Request) (physiology.Params, error) {
	base := physiology.DefaultParamSet()

	var ps physiology.ParamSet
	if req.Strict {
		var err error
		if ps, err = base.MergeStrict(req.Params); err != nil {
			return physiology.Params{}, err
		}
	} else {
		ps = base.Merge(req.Params)
		if unknown := ps.Unknown(); len(unknown) > 0 {
			logrus.Warnf("ignoring unknown parameters: %v", unknown)
		}
	}

	p, err := physiology.ParamsFromSet(ps)
	if err != nil {
		return physiology.Params{}, err
	}
	if err := p.Validate(); err != nil {
		return physiology.Params{}, err
	}
	return p, nil
}

// Simulate runs one request. On an integration failure the partial Outcome
// is returned together with the error.
func (r *Runner) Simulate(ctx context.Context, req Request) (*Outcome, error) {
	req = req.withDefaults()

	if req.Meal < 0 || math.IsNaN(req.Meal) || math.IsInf(req.Meal, 0) {
		return nil, fmt.Errorf("invalid meal size %v: must be a finite non-negative mass", req.Meal)
	}

	params, err := r.Resolve(req)
	if err != nil {
		return nil, fmt.Errorf("resolve parameters: %w", err)
	}

	model, err := r.registry.GetModel(req.Model, params)
	if err != nil {
		return nil, err
	}
	stepper, err := r.registry.GetMethod(req.Method)
	if err != nil {
		return nil, err
	}

	logrus.Debugf("simulate %s/%s meal=%.0f span=[%g, %g] dt=%g", model.Name(), stepper.Name(), req.Meal, req.TSpan[0], req.TSpan[1], req.Dt)

	start := time.Now()
	sim := dynamo.New(model, stepper)
	res, runErr := sim.Run(ctx, model.InitialState(req.Meal), req.config())
	elapsed := time.Since(start)

	r.telemetry.ObserveRun(model.Name(), stepper.Name(), res, elapsed)

	if res == nil {
		return nil, runErr
	}

	out := &Outcome{
		Request:    req,
		Params:     params,
		Method:     stepper.Name(),
		Trajectory: physiology.NewTrajectory(res, params),
		Elapsed:    elapsed,
	}
	if runErr != nil {
		return out, fmt.Errorf("simulate %s/%s: %w", model.Name(), stepper.Name(), runErr)
	}

	logrus.Debugf("simulate %s/%s done: %d samples, %d steps (%d rejected), %d evaluations in %v",
		model.Name(), stepper.Name(), res.Len(), res.Stats.Accepted, res.Stats.Rejected, res.Stats.Evaluations, elapsed)
	return out, nil
}

// Run pairs an Outcome with its error for batch execution.
type Run struct {
	Outcome *Outcome
	Err     error
}

// SimulateAll runs independent requests on up to workers goroutines
// (GOMAXPROCS when workers <= 0). Results keep the request order.
func (r *Runner) SimulateAll(ctx context.Context, reqs []Request, workers int) []Run {
	runs := make([]Run, len(reqs))
	dynamo.ParallelFor(len(reqs), workers, func(start, end int) {
		for i := start; i < end; i++ {
			runs[i].Outcome, runs[i].Err = r.Simulate(ctx, reqs[i])
		}
	})
	return runs
}

// Simulate runs req with the default registry and no telemetry.
func Simulate(ctx context.Context, req Request) (*Outcome, error) {
	return NewRunner(nil, nil).Simulate(ctx, req)
}
