package dynamo

import (
	"context"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
)

// Step size controller constants.
const (
	safety    = 0.9
	minFactor = 0.2
	maxFactor = 10.0
)

type Simulator struct {
	dyn       System
	stepper   Stepper
	observers []Observer
}

func New(dyn System, stepper Stepper) *Simulator {
	return &Simulator{
		dyn:       dyn,
		stepper:   stepper,
		observers: make([]Observer, 0),
	}
}

func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) Stepper() Stepper { return s.stepper }

// countingSystem tracks right-hand-side evaluations for one run.
type countingSystem struct {
	System
	n int
}

func (c *countingSystem) Derive(x State, t float64) State {
	c.n++
	return c.System.Derive(x, t)
}

// OutputGrid returns t0, t0+dt, ... covering [t0, t1]. It holds
// floor((t1-t0)/dt)+1 samples; a last sample landing within rounding of t1
// is placed exactly on t1.
func OutputGrid(t0, t1, dt float64) []float64 {
	n := int(math.Floor((t1-t0)/dt+1e-9)) + 1
	grid := make([]float64, n)
	for i := range grid {
		t := t0 + float64(i)*dt
		if t > t1 {
			t = t1
		}
		grid[i] = t
	}
	return grid
}

// Run integrates from cfg.T0 to cfg.T1 and samples the solution on
// OutputGrid(cfg.T0, cfg.T1, cfg.Dt). On failure the partial result is
// returned together with an *IntegrationError.
func (s *Simulator) Run(ctx context.Context, x0 State, cfg Config) (*Result, error) {
	if err := s.validateConfig(cfg); err != nil {
		return nil, err
	}
	if len(x0) != s.dyn.StateDim() {
		return nil, fmt.Errorf("%w: got %d values, system has %d", ErrDimensionMismatch, len(x0), s.dyn.StateDim())
	}
	if !x0.IsValid() {
		return nil, ErrInvalidState
	}

	grid := OutputGrid(cfg.T0, cfg.T1, cfg.Dt)
	result := &Result{
		Times:  make([]float64, 0, len(grid)),
		States: make([]State, 0, len(grid)),
		Status: StatusComplete,
	}
	sys := &countingSystem{System: s.dyn}

	x := x0.Clone()
	t := cfg.T0
	fx := sys.Derive(x, t)

	s.record(result, x.Clone(), t)
	next := 1

	order := s.stepper.ErrorOrder()
	adaptive := order > 0
	exponent := -1.0 / float64(order+1)

	var h float64
	if adaptive {
		h = initialStep(sys, t, x, fx, cfg, order)
	} else {
		h = cfg.FixedStep
		if h <= 0 {
			h = cfg.Dt
		}
	}

	fail := func(attempt int, at float64, state State, cause error) (*Result, error) {
		result.Status = StatusFailed
		result.Stats.Evaluations = sys.n
		ierr := &IntegrationError{Step: attempt, Time: at, State: state.Clone(), Wrapped: cause}
		result.Err = ierr
		logrus.Warnf("%s integration failed: %v (%d samples kept)", s.stepper.Name(), ierr, len(result.Times))
		return result, ierr
	}

	rejected := false
	attempts := 0

	for t < cfg.T1 {
		select {
		case <-ctx.Done():
			return fail(attempts, t, x, fmt.Errorf("%w: %v", ErrContextCanceled, ctx.Err()))
		default:
		}

		if attempts >= cfg.MaxSteps {
			return fail(attempts, t, x, ErrStepLimit)
		}

		if adaptive {
			if cfg.MaxStep > 0 && h > cfg.MaxStep {
				h = cfg.MaxStep
			}
			minStep := 10 * (math.Nextafter(t, math.Inf(1)) - t)
			if h < minStep {
				return fail(attempts, t, x, ErrStepTooSmall)
			}
		}

		hStep := h
		tNew := t + hStep
		if tNew > cfg.T1 {
			tNew = cfg.T1
			hStep = tNew - t
		}

		attempts++
		step := s.stepper.Step(sys, t, x, fx, hStep)

		if adaptive {
			errNorm := errorNorm(step.Err, x, step.X, cfg)
			if errNorm < 1 {
				factor := maxFactor
				if errNorm > 0 {
					factor = math.Min(maxFactor, safety*math.Pow(errNorm, exponent))
				}
				if rejected {
					factor = math.Min(1, factor)
				}
				h = hStep * factor
				rejected = false
			} else {
				factor := minFactor
				if !math.IsNaN(errNorm) {
					factor = math.Max(minFactor, safety*math.Pow(errNorm, exponent))
				}
				h = hStep * factor
				rejected = true
				result.Stats.Rejected++
				logrus.Tracef("%s rejected step at t=%.6f h=%.3e err=%.3e", s.stepper.Name(), t, hStep, errNorm)
				continue
			}
		}

		if !step.X.IsValid() {
			return fail(attempts, tNew, step.X, ErrInvalidState)
		}

		result.Stats.Accepted++
		result.Stats.LastStep = hStep

		for next < len(grid) && grid[next] <= tNew {
			tg := grid[next]
			if tg == tNew {
				s.record(result, step.X.Clone(), tg)
			} else {
				s.record(result, step.Dense.At(tg), tg)
			}
			next++
		}

		t, x, fx = tNew, step.X, step.F
	}

	result.Stats.Evaluations = sys.n
	return result, nil
}

func (s *Simulator) record(result *Result, x State, t float64) {
	result.Times = append(result.Times, t)
	result.States = append(result.States, x)
	for _, obs := range s.observers {
		obs.OnSample(x, t)
	}
}

func (s *Simulator) validateConfig(cfg Config) error {
	if cfg.Dt <= 0 || math.IsNaN(cfg.Dt) || math.IsInf(cfg.Dt, 0) {
		return fmt.Errorf("%w: dt must be positive, got %f", ErrInvalidConfig, cfg.Dt)
	}
	if !(cfg.T1 > cfg.T0) || math.IsInf(cfg.T0, 0) || math.IsInf(cfg.T1, 0) {
		return fmt.Errorf("%w: time span must satisfy t0 < t1, got (%f, %f)", ErrInvalidConfig, cfg.T0, cfg.T1)
	}
	if cfg.MaxSteps <= 0 {
		return fmt.Errorf("%w: max steps must be positive, got %d", ErrInvalidConfig, cfg.MaxSteps)
	}
	if s.stepper.ErrorOrder() > 0 {
		if cfg.RTol <= 0 || cfg.ATol < 0 {
			return fmt.Errorf("%w: tolerances must be positive for adaptive stepping (rtol=%g, atol=%g)", ErrInvalidConfig, cfg.RTol, cfg.ATol)
		}
	}
	return nil
}

// errorNorm is the RMS of the local error scaled by atol + rtol*max(|x|, |xNew|).
func errorNorm(errEst, x, xNew State, cfg Config) float64 {
	if len(errEst) == 0 {
		return 0
	}
	sum := 0.0
	for i := range errEst {
		sc := cfg.ATol + math.Max(math.Abs(x[i]), math.Abs(xNew[i]))*cfg.RTol
		if sc == 0 {
			// exact zero with atol 0: only an exact zero error is acceptable
			if errEst[i] == 0 {
				continue
			}
			return math.Inf(1)
		}
		r := errEst[i] / sc
		sum += r * r
	}
	return math.Sqrt(sum / float64(len(errEst)))
}

// initialStep picks the first adaptive step from the size of the state and
// of its first two derivatives (Hairer, Norsett & Wanner, II.4).
func initialStep(sys System, t0 float64, x0, f0 State, cfg Config, order int) float64 {
	span := cfg.T1 - t0
	scaled := func(v State) float64 {
		sum := 0.0
		for i := range v {
			sc := cfg.ATol + math.Abs(x0[i])*cfg.RTol
			if sc == 0 {
				sc = cfg.RTol
			}
			r := v[i] / sc
			sum += r * r
		}
		return math.Sqrt(sum / float64(len(v)))
	}

	d0 := scaled(x0)
	d1 := scaled(f0)

	h0 := 1e-6
	if d0 >= 1e-5 && d1 >= 1e-5 {
		h0 = 0.01 * d0 / d1
	}
	h0 = math.Min(h0, span)

	x1 := x0.AddScaled(h0, f0)
	f1 := sys.Derive(x1, t0+h0)
	d2 := scaled(f1.Sub(f0)) / h0

	var h1 float64
	if d1 <= 1e-15 && d2 <= 1e-15 {
		h1 = math.Max(1e-6, h0*1e-3)
	} else {
		h1 = math.Pow(0.01/math.Max(d1, d2), 1.0/float64(order+1))
	}

	h := math.Min(100*h0, h1)
	if cfg.MaxStep > 0 {
		h = math.Min(h, cfg.MaxStep)
	}
	return math.Min(h, span)
}
