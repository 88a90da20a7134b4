package automation

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/glucosim/internal/experiment"
	"github.com/san-kum/glucosim/internal/physiology"
)

const twoMeals = `
name: breakfast-and-lunch
description: two meals of different size
steps:
  - name: breakfast
    t_end: 60
    dt: 1
  - preset: large-meal
    t_end: 60
    dt: 1
    params:
      k_abs: 0.05
`

func TestParseScenario(t *testing.T) {
	sc, err := ParseScenario([]byte(twoMeals))
	require.NoError(t, err)

	assert.Equal(t, "breakfast-and-lunch", sc.Name)
	require.Len(t, sc.Steps, 2)
	assert.Equal(t, "breakfast", sc.Steps[0].Name)
	assert.Equal(t, "step-2", sc.Steps[1].Name)

	first, err := sc.Steps[0].Config()
	require.NoError(t, err)
	assert.Equal(t, physiology.DefaultMeal, first.Meal)
	assert.Equal(t, 60.0, first.TEnd)
	assert.Equal(t, "RK45", first.Method)

	second, err := sc.Steps[1].Config()
	require.NoError(t, err)
	assert.Equal(t, 120000.0, second.Meal)
	assert.Equal(t, 120000.0, second.Params["D"])
	assert.Equal(t, 0.05, second.Params["k_abs"])
}

func TestParseScenarioErrors(t *testing.T) {
	_, err := ParseScenario([]byte("name: empty\n"))
	assert.ErrorContains(t, err, "no steps")

	_, err = ParseScenario([]byte("steps: [unterminated"))
	assert.Error(t, err)

	_, err = LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(twoMeals), 0644))

	sc, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Len(t, sc.Steps, 2)
}

func TestRunScenario(t *testing.T) {
	sc, err := ParseScenario([]byte(twoMeals))
	require.NoError(t, err)

	results, err := RunScenario(context.Background(), experiment.NewRunner(nil, nil), sc)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "breakfast", results[0].Name)
	assert.Equal(t, 61, results[0].Outcome.Trajectory.Len())
	assert.Greater(t, results[1].Summary.PeakGlucose, results[0].Summary.PeakGlucose)
}

func TestRunScenarioStopsOnFailure(t *testing.T) {
	sc, err := ParseScenario([]byte(`
steps:
  - name: ok
    t_end: 30
    dt: 1
  - name: bad
    preset: no-such-preset
  - name: never
    t_end: 30
`))
	require.NoError(t, err)

	results, err := RunScenario(context.Background(), experiment.NewRunner(nil, nil), sc)
	assert.ErrorContains(t, err, "step 2 (bad)")
	assert.Len(t, results, 1)
}

func shortRequest() experiment.Request {
	req := experiment.DefaultRequest()
	req.TSpan = [2]float64{0, 120}
	req.Dt = 1
	return req
}

func TestRunMonteCarloReproducible(t *testing.T) {
	cfg := MonteCarloConfig{
		Base:    shortRequest(),
		Params:  []string{"k_abs", "V_mX"},
		Spread:  0.2,
		Trials:  4,
		Seed:    7,
		Workers: 2,
	}
	runner := experiment.NewRunner(nil, nil)

	a, err := RunMonteCarlo(context.Background(), runner, cfg)
	require.NoError(t, err)
	cfg.Workers = 1
	b, err := RunMonteCarlo(context.Background(), runner, cfg)
	require.NoError(t, err)

	require.Len(t, a, 4)
	nominal := physiology.DefaultParamSet()
	for i := range a {
		require.NoError(t, a[i].Err)
		assert.Equal(t, a[i].Params, b[i].Params)
		assert.Equal(t, a[i].Summary, b[i].Summary)
		for name, v := range a[i].Params {
			assert.InDelta(t, nominal[name], v, 0.2*nominal[name]+1e-15)
		}
	}
	assert.NotEqual(t, a[0].Params, a[1].Params)
}

func TestRunMonteCarloZeroSpread(t *testing.T) {
	trials, err := RunMonteCarlo(context.Background(), experiment.NewRunner(nil, nil), MonteCarloConfig{
		Base:   shortRequest(),
		Params: []string{"k_abs"},
		Trials: 3,
		Seed:   1,
	})
	require.NoError(t, err)

	st := Stats(trials)
	assert.Equal(t, 3, st.Completed)
	assert.Equal(t, 0, st.Failed)
	peak := st.Metrics["peak_glucose"]
	assert.Equal(t, peak.Min, peak.Max)
	assert.InDelta(t, 0, peak.Std, 1e-12)
}

func TestRunMonteCarloValidation(t *testing.T) {
	runner := experiment.NewRunner(nil, nil)
	base := shortRequest()

	tests := []struct {
		name string
		cfg  MonteCarloConfig
	}{
		{"no trials", MonteCarloConfig{Base: base, Params: []string{"k_abs"}}},
		{"negative spread", MonteCarloConfig{Base: base, Params: []string{"k_abs"}, Trials: 1, Spread: -0.1}},
		{"spread of one", MonteCarloConfig{Base: base, Params: []string{"k_abs"}, Trials: 1, Spread: 1}},
		{"no params", MonteCarloConfig{Base: base, Trials: 1}},
		{"unknown param", MonteCarloConfig{Base: base, Params: []string{"nope"}, Trials: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := RunMonteCarlo(context.Background(), runner, tt.cfg)
			assert.Error(t, err)
		})
	}
}

func TestStats(t *testing.T) {
	st := Stats(nil)
	assert.Equal(t, 0, st.Completed)
	assert.Empty(t, st.Metrics)

	trials := []Trial{{ID: 0}, {ID: 1}, {ID: 2, Err: assert.AnError}}
	trials[0].Summary.PeakGlucose = 200
	trials[1].Summary.PeakGlucose = 220

	st = Stats(trials)
	assert.Equal(t, 2, st.Completed)
	assert.Equal(t, 1, st.Failed)
	peak := st.Metrics["peak_glucose"]
	assert.InDelta(t, 210, peak.Mean, 1e-12)
	assert.Equal(t, 200.0, peak.Min)
	assert.Equal(t, 220.0, peak.Max)
	assert.InDelta(t, 14.142135623730951, peak.Std, 1e-9)
}
