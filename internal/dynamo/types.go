package dynamo

import "math"

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

// RMSNorm is the root-mean-square norm used for step error control.
func (s State) RMSNorm() float64 {
	if len(s) == 0 {
		return 0
	}
	return s.Norm() / math.Sqrt(float64(len(s)))
}

func (s State) Add(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] + other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

func (s State) Scale(factor float64) State {
	result := make(State, len(s))
	for i := range s {
		result[i] = s[i] * factor
	}
	return result
}

func (s State) Sub(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] - other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

// AddScaled returns s + h*other.
func (s State) AddScaled(h float64, other State) State {
	result := make(State, len(s))
	for i := range s {
		result[i] = s[i] + h*other[i]
	}
	return result
}

// System is an autonomous or time-dependent ODE right-hand side dX/dt = f(X, t).
type System interface {
	Derive(x State, t float64) State
	StateDim() int
}

// Interpolant evaluates the solution anywhere inside one accepted step.
type Interpolant interface {
	At(t float64) State
}

// Step is the outcome of a single stepper attempt from t to t+h.
type Step struct {
	X     State // solution at t+h
	F     State // derivative at t+h
	Err   State // local error estimate, nil for fixed-step methods
	Dense Interpolant
}

// Stepper performs one Runge-Kutta step. fx is the derivative at (t, x),
// which the stepper may reuse (first-same-as-last).
type Stepper interface {
	Name() string
	// ErrorOrder is the order of the embedded error estimator, or 0 when
	// the method has none and runs at a fixed step.
	ErrorOrder() int
	Step(sys System, t float64, x, fx State, h float64) Step
}

type Observer interface {
	OnSample(x State, t float64)
}

type Config struct {
	T0        float64
	T1        float64
	Dt        float64 // output sampling step
	RTol      float64
	ATol      float64
	MaxSteps  int     // ceiling on attempted steps
	FixedStep float64 // internal step for fixed-step methods, Dt when zero
	MaxStep   float64 // upper bound on the adaptive step, unbounded when zero
}

func DefaultConfig() Config {
	return Config{
		T0:       0,
		T1:       600,
		Dt:       0.1,
		RTol:     1e-6,
		ATol:     1e-6,
		MaxSteps: 500000,
	}
}

type Status string

const (
	StatusComplete Status = "complete"
	StatusFailed   Status = "failed"
)

type Stats struct {
	Evaluations int
	Accepted    int
	Rejected    int
	LastStep    float64
}

// Result is a trajectory sampled on the output grid. A failed run keeps the
// samples produced before the failure and is marked StatusFailed.
type Result struct {
	Times  []float64
	States []State
	Status Status
	Stats  Stats
	Err    error
}

func (r *Result) Len() int { return len(r.Times) }

func (r *Result) Complete() bool { return r.Status == StatusComplete }

// Component returns the time series of state index i.
func (r *Result) Component(i int) []float64 {
	out := make([]float64, len(r.States))
	for k, s := range r.States {
		if i < len(s) {
			out[k] = s[i]
		}
	}
	return out
}
