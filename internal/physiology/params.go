package physiology

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrMissingParameter indicates a parameter the model reads is absent.
	ErrMissingParameter = errors.New("physiology: missing required parameter")

	// ErrUnknownParameter indicates a name outside the model vocabulary (strict merge only).
	ErrUnknownParameter = errors.New("physiology: unknown parameter")

	// ErrParameterBounds indicates a value that makes the model equations undefined.
	ErrParameterBounds = errors.New("physiology: parameter out of valid bounds")
)

// ConfigError reports every offending parameter name at once.
type ConfigError struct {
	Names   []string
	Wrapped error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%v: %s", e.Wrapped, strings.Join(e.Names, ", "))
}

func (e *ConfigError) Unwrap() error {
	return e.Wrapped
}

// ParamSet is the loose name -> value form used by config files, CLI
// overrides and storage.
type ParamSet map[string]float64

// Params is the typed parameter record read by the derivative.
type Params struct {
	VG      float64 // glucose distribution volume, dl/kg
	K1      float64
	K2      float64
	Gb      float64 // basal plasma glucose, mg/dl
	VI      float64 // insulin distribution volume, l/kg
	M1      float64
	M2      float64
	M4      float64
	M5      float64
	M6      float64
	HEb     float64
	Ib      float64 // basal plasma insulin, pmol/l
	Sb      float64
	SbMinus float64
	KMax    float64
	KMin    float64
	KAbs    float64
	KGri    float64
	F       float64 // fraction of the meal that appears in plasma
	BFrac   float64 // b: Qsto/D at which emptying drops to half speed
	DFrac   float64 // d: Qsto/D at which emptying recovers half speed
	BW      float64 // body weight, kg
	KP1     float64
	KP2     float64
	KP3     float64
	KP4     float64
	KI      float64
	Uii     float64
	Vm0     float64
	VmX     float64
	Km0     float64
	P2U     float64
	Part    float64
	K       float64
	Alpha   float64
	Beta    float64
	Gamma   float64
	Ke1     float64
	Ke2     float64
	Dose    float64 // D: meal dose the emptying curve is shaped for, mg
}

type paramField struct {
	name     string
	value    float64
	required bool
	ref      func(p *Params) *float64
}

// HE_b, S_b_minus and the renal pair are part of the published set but the
// oral-meal equations never read them.
var paramFields = []paramField{
	{"V_G", 1.88, true, func(p *Params) *float64 { return &p.VG }},
	{"k_1", 0.065, true, func(p *Params) *float64 { return &p.K1 }},
	{"k_2", 0.079, true, func(p *Params) *float64 { return &p.K2 }},
	{"G_b", 95.0, true, func(p *Params) *float64 { return &p.Gb }},
	{"V_I", 0.05, true, func(p *Params) *float64 { return &p.VI }},
	{"m_1", 0.19, true, func(p *Params) *float64 { return &p.M1 }},
	{"m_2", 0.484, true, func(p *Params) *float64 { return &p.M2 }},
	{"m_4", 0.194, true, func(p *Params) *float64 { return &p.M4 }},
	{"m_5", 0.0304, true, func(p *Params) *float64 { return &p.M5 }},
	{"m_6", 0.6471, true, func(p *Params) *float64 { return &p.M6 }},
	{"HE_b", 0.6, true, func(p *Params) *float64 { return &p.HEb }},
	{"I_b", 25.0, true, func(p *Params) *float64 { return &p.Ib }},
	{"S_b", 1.8, true, func(p *Params) *float64 { return &p.Sb }},
	{"S_b_minus", -1.8, false, func(p *Params) *float64 { return &p.SbMinus }},
	{"k_max", 0.0558, true, func(p *Params) *float64 { return &p.KMax }},
	{"k_min", 0.008, true, func(p *Params) *float64 { return &p.KMin }},
	{"k_abs", 0.057, true, func(p *Params) *float64 { return &p.KAbs }},
	{"k_gri", 0.0558, true, func(p *Params) *float64 { return &p.KGri }},
	{"f", 0.9, true, func(p *Params) *float64 { return &p.F }},
	{"b", 0.82, true, func(p *Params) *float64 { return &p.BFrac }},
	{"d", 0.01, true, func(p *Params) *float64 { return &p.DFrac }},
	{"BW", 78.0, true, func(p *Params) *float64 { return &p.BW }},
	{"k_p1", 2.7, true, func(p *Params) *float64 { return &p.KP1 }},
	{"k_p2", 0.0021, true, func(p *Params) *float64 { return &p.KP2 }},
	{"k_p3", 0.009, true, func(p *Params) *float64 { return &p.KP3 }},
	{"k_p4", 0.0618, true, func(p *Params) *float64 { return &p.KP4 }},
	{"k_i", 0.0079, true, func(p *Params) *float64 { return &p.KI }},
	{"U_ii", 1.0, true, func(p *Params) *float64 { return &p.Uii }},
	{"V_m0", 2.5, true, func(p *Params) *float64 { return &p.Vm0 }},
	{"V_mX", 0.047, true, func(p *Params) *float64 { return &p.VmX }},
	{"K_m0", 225.59, true, func(p *Params) *float64 { return &p.Km0 }},
	{"p_2U", 0.0331, true, func(p *Params) *float64 { return &p.P2U }},
	{"part", 0.2, true, func(p *Params) *float64 { return &p.Part }},
	{"K", 2.3, true, func(p *Params) *float64 { return &p.K }},
	{"alpha", 0.05, true, func(p *Params) *float64 { return &p.Alpha }},
	{"beta", 0.11, true, func(p *Params) *float64 { return &p.Beta }},
	{"gamma", 0.5, true, func(p *Params) *float64 { return &p.Gamma }},
	{"k_e1", 5.0e-4, false, func(p *Params) *float64 { return &p.Ke1 }},
	{"k_e2", 339.0, false, func(p *Params) *float64 { return &p.Ke2 }},
	{"D", 78000.0, true, func(p *Params) *float64 { return &p.Dose }},
}

var fieldIndex = func() map[string]int {
	idx := make(map[string]int, len(paramFields))
	for i, f := range paramFields {
		idx[f.name] = i
	}
	return idx
}()

// Names returns the parameter vocabulary in table order.
func Names() []string {
	names := make([]string, len(paramFields))
	for i, f := range paramFields {
		names[i] = f.name
	}
	return names
}

// RequiredNames returns the parameters that must be present in a set.
func RequiredNames() []string {
	names := make([]string, 0, len(paramFields))
	for _, f := range paramFields {
		if f.required {
			names = append(names, f.name)
		}
	}
	return names
}

func IsKnown(name string) bool {
	_, ok := fieldIndex[name]
	return ok
}

// DefaultParamSet returns a fresh copy of the published default table.
func DefaultParamSet() ParamSet {
	ps := make(ParamSet, len(paramFields))
	for _, f := range paramFields {
		ps[f.name] = f.value
	}
	return ps
}

func DefaultParams() Params {
	p, _ := ParamsFromSet(DefaultParamSet())
	return p
}

func (ps ParamSet) Clone() ParamSet {
	c := make(ParamSet, len(ps))
	for k, v := range ps {
		c[k] = v
	}
	return c
}

// Merge returns a copy of ps with overrides applied. Unknown names are
// carried through unchanged.
func (ps ParamSet) Merge(overrides map[string]float64) ParamSet {
	merged := ps.Clone()
	for k, v := range overrides {
		merged[k] = v
	}
	return merged
}

// MergeStrict is Merge but rejects names outside the vocabulary.
func (ps ParamSet) MergeStrict(overrides map[string]float64) (ParamSet, error) {
	var unknown []string
	for k := range overrides {
		if !IsKnown(k) {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, &ConfigError{Names: unknown, Wrapped: ErrUnknownParameter}
	}
	return ps.Merge(overrides), nil
}

// Unknown lists the names in ps outside the vocabulary, sorted.
func (ps ParamSet) Unknown() []string {
	var unknown []string
	for k := range ps {
		if !IsKnown(k) {
			unknown = append(unknown, k)
		}
	}
	sort.Strings(unknown)
	return unknown
}

// ParamsFromSet builds the typed record. Every required name must be present.
// Optional names missing from ps keep their published default.
func ParamsFromSet(ps ParamSet) (Params, error) {
	var p Params
	var missing []string
	for _, f := range paramFields {
		v, ok := ps[f.name]
		if !ok {
			if f.required {
				missing = append(missing, f.name)
				continue
			}
			v = f.value
		}
		*f.ref(&p) = v
	}
	if len(missing) > 0 {
		return Params{}, &ConfigError{Names: missing, Wrapped: ErrMissingParameter}
	}
	return p, nil
}

// Set converts p back to its loose form.
func (p Params) Set() ParamSet {
	ps := make(ParamSet, len(paramFields))
	for _, f := range paramFields {
		ps[f.name] = *f.ref(&p)
	}
	return ps
}

// Validate rejects values for which the gastric emptying curve or the rate
// of appearance is undefined. Zero volumes are allowed; the derivative
// guards them.
func (p Params) Validate() error {
	var bad []string
	if p.Dose <= 0 {
		bad = append(bad, "D")
	}
	if p.BW <= 0 {
		bad = append(bad, "BW")
	}
	if p.BFrac >= 1 {
		bad = append(bad, "b")
	}
	if p.DFrac <= 0 {
		bad = append(bad, "d")
	}
	if len(bad) > 0 {
		return &ConfigError{Names: bad, Wrapped: ErrParameterBounds}
	}
	return nil
}
