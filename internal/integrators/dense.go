package integrators

import "github.com/san-kum/glucosim/internal/dynamo"

// polynomialDense evaluates x0 + h * sum_j k_j * sum_m coeffs[j][m] * theta^(m+1)
// with theta = (t - t0) / h.
type polynomialDense struct {
	t0     float64
	h      float64
	x0     dynamo.State
	stages []dynamo.State
	coeffs [][]float64
}

func (p *polynomialDense) At(t float64) dynamo.State {
	theta := (t - p.t0) / p.h

	weights := make([]float64, len(p.stages))
	for j, row := range p.coeffs {
		w := 0.0
		pow := theta
		for _, c := range row {
			w += c * pow
			pow *= theta
		}
		weights[j] = w
	}

	out := p.x0.Clone()
	for j, k := range p.stages {
		if weights[j] == 0 {
			continue
		}
		for i := range out {
			out[i] += p.h * weights[j] * k[i]
		}
	}
	return out
}

// hermiteDense is the cubic Hermite interpolant through both step ends and
// their derivatives.
type hermiteDense struct {
	t0     float64
	h      float64
	x0, f0 dynamo.State
	x1, f1 dynamo.State
}

func (d *hermiteDense) At(t float64) dynamo.State {
	s := (t - d.t0) / d.h
	s2 := s * s
	s3 := s2 * s

	h00 := 2*s3 - 3*s2 + 1
	h10 := s3 - 2*s2 + s
	h01 := -2*s3 + 3*s2
	h11 := s3 - s2

	out := make(dynamo.State, len(d.x0))
	for i := range out {
		out[i] = h00*d.x0[i] + h10*d.h*d.f0[i] + h01*d.x1[i] + h11*d.h*d.f1[i]
	}
	return out
}
