package physiology

import (
	"math"

	"github.com/san-kum/glucosim/internal/dynamo"
)

// heSingular is the distance from HE = 1 at which hepatic clearance m3 is
// replaced by a large finite rate.
const heSingular = 1e-8

// Model is a compartmental model the experiment layer can build and run.
type Model interface {
	dynamo.System
	Name() string
	InitialState(meal float64) dynamo.State
}

// DallaMan is the oral-meal glucose-insulin model. The zero value is not
// usable; construct with NewDallaMan.
type DallaMan struct {
	params Params
}

// NewDallaMan copies p, so later changes to the caller's record do not leak
// into a running simulation.
func NewDallaMan(p Params) *DallaMan {
	return &DallaMan{params: p}
}

func (m *DallaMan) Name() string   { return "dallaman" }
func (m *DallaMan) StateDim() int  { return StateDim }
func (m *DallaMan) Params() Params { return m.params }

// InitialState is the fasting baseline with meal mg in the first stomach
// compartment.
func (m *DallaMan) InitialState(meal float64) dynamo.State {
	return InitialState(meal)
}

// Derive evaluates the model equations with the bound parameters.
func (m *DallaMan) Derive(x dynamo.State, t float64) dynamo.State {
	return Derivative(t, x, m.params)
}

// Flux holds the intermediate rates of one derivative evaluation.
type Flux struct {
	KEmpt float64 // gastric emptying rate, 1/min
	Ra    float64 // glucose rate of appearance, mg/kg/min
	EGP   float64 // endogenous glucose production, mg/kg/min
	VMMax float64
	UId   float64 // insulin-dependent utilization, mg/kg/min
	S     float64 // insulin secretion
	HE    float64 // hepatic extraction fraction
	M3    float64 // hepatic clearance rate
	I     float64 // plasma insulin concentration, pmol/l
	G     float64 // plasma glucose concentration, mg/dl
	SPo   float64 // portal insulin secretion
}

// Fluxes evaluates the intermediate rates at x. EGP may go negative.
func Fluxes(x dynamo.State, p Params) Flux {
	gp, gt, id, ipo := x[Gp], x[Gt], x[Id], x[Ipo]

	var fl Flux

	qSto := x[Qsto1] + x[Qsto2]
	aa := 5.0 / 2.0 / (1 - p.BFrac) / p.Dose
	cc := 5.0 / 2.0 / p.DFrac / p.Dose
	fl.KEmpt = p.KMin + (p.KMax-p.KMin)/2.0*
		(math.Tanh(aa*(qSto-p.BFrac*p.Dose))-math.Tanh(cc*(qSto-p.DFrac*p.Dose))+2.0)

	fl.Ra = p.F * p.KAbs * x[Qgut] / p.BW
	fl.EGP = p.KP1 - p.KP2*gp - p.KP3*id - p.KP4*ipo

	fl.VMMax = (1 - p.Part) * (p.Vm0 + p.VmX*x[X])
	if den := p.Km0 + gt; den != 0 {
		fl.UId = fl.VMMax * gt / den
	}

	fl.S = p.Gamma * ipo
	if p.VI != 0 {
		fl.I = x[Ip] / p.VI
	}
	if p.VG != 0 {
		fl.G = gp / p.VG
	}

	fl.HE = -p.M5*fl.S + p.M6
	if math.Abs(1-fl.HE) < heSingular {
		fl.M3 = p.M1 * 1e6
	} else {
		fl.M3 = fl.HE * p.M1 / (1 - fl.HE)
	}

	// exercise uptake E is fixed at zero in this variant
	const e = 0.0
	fl.SPo = x[Y] + p.Sb
	if p.VG != 0 {
		fl.SPo += p.K * (fl.EGP + fl.Ra - e - p.Uii - p.K1*gp + p.K2*gt) / p.VG
	}
	return fl
}

// Derivative returns dx/dt at (t, x). The model is autonomous; t is
// accepted for the integrator's signature.
func Derivative(t float64, x dynamo.State, p Params) dynamo.State {
	fl := Fluxes(x, p)
	dx := make(dynamo.State, StateDim)

	dx[Gp] = fl.EGP + fl.Ra - p.Uii - p.K1*x[Gp] + p.K2*x[Gt]
	dx[Gt] = -fl.UId + p.K1*x[Gp] - p.K2*x[Gt]
	dx[Il] = -p.M1*x[Il] - fl.M3*x[Il] + p.M2*x[Ip] + fl.S
	dx[Ip] = -p.M2*x[Ip] - p.M4*x[Ip] + p.M1*x[Il]
	dx[Qsto1] = -p.KGri * x[Qsto1]
	dx[Qsto2] = -fl.KEmpt*x[Qsto2] + p.KGri*x[Qsto1]
	dx[Qgut] = -p.KAbs*x[Qgut] + fl.KEmpt*x[Qsto2]
	dx[I1] = -p.KI * (x[I1] - fl.I)
	dx[Id] = -p.KI * (x[Id] - x[I1])
	dx[X] = -p.P2U*x[X] + p.P2U*(fl.I-p.Ib)
	dx[Ipo] = -p.Gamma*x[Ipo] + fl.SPo
	dx[Y] = -p.Alpha * (x[Y] - p.Beta*(fl.G-p.Gb))

	return dx
}
