package integrators

import "github.com/san-kum/glucosim/internal/dynamo"

// RK4 is the classic fixed-step fourth-order method. It has no error
// estimate, so tolerances do not apply.
type RK4 struct{}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) Name() string { return "RK4" }

func (r *RK4) ErrorOrder() int { return 0 }

func (r *RK4) Step(dyn dynamo.System, t float64, x, fx dynamo.State, h float64) dynamo.Step {
	n := len(x)
	scratch := make(dynamo.State, n)

	k1 := fx

	for i := 0; i < n; i++ {
		scratch[i] = x[i] + h*0.5*k1[i]
	}
	k2 := dyn.Derive(scratch, t+h*0.5)

	for i := 0; i < n; i++ {
		scratch[i] = x[i] + h*0.5*k2[i]
	}
	k3 := dyn.Derive(scratch, t+h*0.5)

	for i := 0; i < n; i++ {
		scratch[i] = x[i] + h*k3[i]
	}
	k4 := dyn.Derive(scratch, t+h)

	result := make(dynamo.State, n)
	h6 := h / 6.0
	for i := 0; i < n; i++ {
		result[i] = x[i] + h6*(k1[i]+2*k2[i]+2*k3[i]+k4[i])
	}

	fNew := dyn.Derive(result, t+h)

	return dynamo.Step{
		X:     result,
		F:     fNew,
		Dense: &hermiteDense{t0: t, h: h, x0: x, f0: fx, x1: result, f1: fNew},
	}
}
