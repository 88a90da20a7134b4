// Package sweep runs a simulation over a cartesian grid of parameter values.
package sweep

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/glucosim/internal/analysis"
	"github.com/san-kum/glucosim/internal/experiment"
)

// Axis is one swept parameter.
type Axis struct {
	Name   string
	Values []float64
}

// ParseAxis reads "name=v1,v2,..." or "name=lo:hi:n" (n evenly spaced
// values, both ends included).
func ParseAxis(text string) (Axis, error) {
	name, values, ok := strings.Cut(text, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" || strings.TrimSpace(values) == "" {
		return Axis{}, fmt.Errorf("invalid sweep axis %q: want name=v1,v2 or name=lo:hi:n", text)
	}

	if parts := strings.Split(values, ":"); len(parts) == 3 {
		lo, err1 := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		hi, err2 := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		n, err3 := strconv.Atoi(strings.TrimSpace(parts[2]))
		if err1 != nil || err2 != nil || err3 != nil || n < 2 {
			return Axis{}, fmt.Errorf("invalid sweep range %q: want lo:hi:n with n >= 2", values)
		}
		return Axis{Name: name, Values: floats.Span(make([]float64, n), lo, hi)}, nil
	}

	var vals []float64
	for _, field := range strings.Split(values, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			return Axis{}, fmt.Errorf("invalid sweep value %q for %s: %w", field, name, err)
		}
		vals = append(vals, v)
	}
	return Axis{Name: name, Values: vals}, nil
}

// Grid is the cartesian product of its axes.
type Grid struct {
	axes []Axis
}

func NewGrid(axes ...Axis) (*Grid, error) {
	if len(axes) == 0 {
		return nil, fmt.Errorf("sweep needs at least one axis")
	}
	seen := make(map[string]bool, len(axes))
	for _, a := range axes {
		if len(a.Values) == 0 {
			return nil, fmt.Errorf("sweep axis %s has no values", a.Name)
		}
		if seen[a.Name] {
			return nil, fmt.Errorf("sweep axis %s given twice", a.Name)
		}
		seen[a.Name] = true
	}
	return &Grid{axes: axes}, nil
}

func (g *Grid) Axes() []Axis { return g.axes }

func (g *Grid) Size() int {
	n := 1
	for _, a := range g.axes {
		n *= len(a.Values)
	}
	return n
}

// Points enumerates every combination. The last axis varies fastest.
func (g *Grid) Points() []map[string]float64 {
	points := make([]map[string]float64, 0, g.Size())
	g.enumerate(0, make(map[string]float64), &points)
	return points
}

func (g *Grid) enumerate(depth int, current map[string]float64, out *[]map[string]float64) {
	if depth == len(g.axes) {
		*out = append(*out, current)
		return
	}

	axis := g.axes[depth]
	for _, val := range axis.Values {
		next := make(map[string]float64, len(current)+1)
		for k, v := range current {
			next[k] = v
		}
		next[axis.Name] = val

		g.enumerate(depth+1, next, out)
	}
}

// Point is the outcome of one grid combination.
type Point struct {
	Values  map[string]float64
	Outcome *experiment.Outcome
	Summary analysis.Summary
	Err     error
}

// Run simulates base once per grid point, with the point's values layered
// over base.Params. Points come back in Points order.
func Run(ctx context.Context, runner *experiment.Runner, base experiment.Request, g *Grid, workers int) []Point {
	combos := g.Points()
	reqs := make([]experiment.Request, len(combos))
	for i, combo := range combos {
		req := base
		req.Params = make(map[string]float64, len(base.Params)+len(combo))
		for k, v := range base.Params {
			req.Params[k] = v
		}
		for k, v := range combo {
			req.Params[k] = v
		}
		reqs[i] = req
	}

	runs := runner.SimulateAll(ctx, reqs, workers)

	points := make([]Point, len(runs))
	for i, run := range runs {
		points[i] = Point{Values: combos[i], Outcome: run.Outcome, Err: run.Err}
		if run.Err == nil && run.Outcome != nil {
			points[i].Summary = analysis.Summarize(run.Outcome.Trajectory)
		}
	}
	return points
}
