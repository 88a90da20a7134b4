package integrators

import "github.com/san-kum/glucosim/internal/dynamo"

// Bogacki-Shampine coefficients (RK23)
var (
	bsC2 = 1.0 / 2.0
	bsC3 = 3.0 / 4.0

	bsB1 = 2.0 / 9.0
	bsB2 = 1.0 / 3.0
	bsB3 = 4.0 / 9.0

	bsE1 = 5.0 / 72.0
	bsE2 = -1.0 / 12.0
	bsE3 = -1.0 / 9.0
	bsE4 = 1.0 / 8.0
)

var rk23Dense = [][]float64{
	{1, -4.0 / 3.0, 5.0 / 9.0},
	{0, 1, -2.0 / 3.0},
	{0, 4.0 / 3.0, -8.0 / 9.0},
	{0, -1, 1},
}

// RK23 is the Bogacki-Shampine 3(2) pair, cheaper per step than RK45 for
// loose tolerances.
type RK23 struct{}

func NewRK23() *RK23 {
	return &RK23{}
}

func (r *RK23) Name() string { return "RK23" }

func (r *RK23) ErrorOrder() int { return 2 }

func (r *RK23) Step(dyn dynamo.System, t float64, x, fx dynamo.State, h float64) dynamo.Step {
	n := len(x)

	k1 := fx

	x2 := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		x2[i] = x[i] + h*bsC2*k1[i]
	}
	k2 := dyn.Derive(x2, t+bsC2*h)

	x3 := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		x3[i] = x[i] + h*bsC3*k2[i]
	}
	k3 := dyn.Derive(x3, t+bsC3*h)

	xNew := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		xNew[i] = x[i] + h*(bsB1*k1[i]+bsB2*k2[i]+bsB3*k3[i])
	}
	k4 := dyn.Derive(xNew, t+h)

	errEst := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		errEst[i] = h * (bsE1*k1[i] + bsE2*k2[i] + bsE3*k3[i] + bsE4*k4[i])
	}

	return dynamo.Step{
		X:   xNew,
		F:   k4,
		Err: errEst,
		Dense: &polynomialDense{
			t0:     t,
			h:      h,
			x0:     x,
			stages: []dynamo.State{k1, k2, k3, k4},
			coeffs: rk23Dense,
		},
	}
}
