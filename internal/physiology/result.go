package physiology

import "github.com/san-kum/glucosim/internal/dynamo"

// Trajectory gives named access to a Dalla Man run.
type Trajectory struct {
	*dynamo.Result
	Params Params
}

func NewTrajectory(r *dynamo.Result, p Params) *Trajectory {
	return &Trajectory{Result: r, Params: p}
}

func (tr *Trajectory) Gp() []float64    { return tr.Component(Gp) }
func (tr *Trajectory) Gt() []float64    { return tr.Component(Gt) }
func (tr *Trajectory) Il() []float64    { return tr.Component(Il) }
func (tr *Trajectory) Ip() []float64    { return tr.Component(Ip) }
func (tr *Trajectory) Qsto1() []float64 { return tr.Component(Qsto1) }
func (tr *Trajectory) Qsto2() []float64 { return tr.Component(Qsto2) }
func (tr *Trajectory) Qgut() []float64  { return tr.Component(Qgut) }
func (tr *Trajectory) I1() []float64    { return tr.Component(I1) }
func (tr *Trajectory) Id() []float64    { return tr.Component(Id) }
func (tr *Trajectory) X() []float64     { return tr.Component(X) }
func (tr *Trajectory) Ipo() []float64   { return tr.Component(Ipo) }
func (tr *Trajectory) Y() []float64     { return tr.Component(Y) }

// Series returns the named compartment over time.
func (tr *Trajectory) Series(name string) ([]float64, error) {
	i, err := StateIndex(name)
	if err != nil {
		return nil, err
	}
	return tr.Component(i), nil
}

// Glucose returns plasma glucose concentration G = Gp/V_G in mg/dl.
func (tr *Trajectory) Glucose() []float64 {
	return tr.derived(func(fl Flux) float64 { return fl.G })
}

// Insulin returns plasma insulin concentration I = Ip/V_I in pmol/l.
func (tr *Trajectory) Insulin() []float64 {
	return tr.derived(func(fl Flux) float64 { return fl.I })
}

// Appearance returns the glucose rate of appearance Ra in mg/kg/min.
func (tr *Trajectory) Appearance() []float64 {
	return tr.derived(func(fl Flux) float64 { return fl.Ra })
}

func (tr *Trajectory) derived(pick func(Flux) float64) []float64 {
	out := make([]float64, len(tr.States))
	for i, x := range tr.States {
		out[i] = pick(Fluxes(x, tr.Params))
	}
	return out
}
