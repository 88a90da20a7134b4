package automation

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/glucosim/internal/analysis"
	"github.com/san-kum/glucosim/internal/config"
	"github.com/san-kum/glucosim/internal/experiment"
	"github.com/san-kum/glucosim/internal/physiology"
)

// Scenario is a scripted sequence of simulations.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Steps       []Step `yaml:"steps"`
}

// Step is one simulation in a scenario. Any config key may appear next to
// name and preset and is layered over the preset, or the defaults.
type Step struct {
	Name   string
	Preset string
	node   yaml.Node
}

func (s *Step) UnmarshalYAML(n *yaml.Node) error {
	var head struct {
		Name   string `yaml:"name"`
		Preset string `yaml:"preset"`
	}
	if err := n.Decode(&head); err != nil {
		return err
	}
	s.Name, s.Preset, s.node = head.Name, head.Preset, *n
	return nil
}

// Config resolves the step's scenario configuration.
func (s *Step) Config() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if s.Preset != "" {
		cfg = config.GetPreset(config.DefaultModel, s.Preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s", s.Preset)
		}
	}
	if s.node.Kind == 0 {
		return cfg, nil
	}
	if err := s.node.Decode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	sc, err := ParseScenario(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return sc, nil
}

func ParseScenario(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	if len(sc.Steps) == 0 {
		return nil, fmt.Errorf("scenario %q has no steps", sc.Name)
	}
	for i := range sc.Steps {
		if sc.Steps[i].Name == "" {
			sc.Steps[i].Name = fmt.Sprintf("step-%d", i+1)
		}
	}
	return &sc, nil
}

// StepResult is the outcome of one scenario step.
type StepResult struct {
	Name    string
	Outcome *experiment.Outcome
	Summary analysis.Summary
}

// RunScenario executes the steps in order and stops at the first failure,
// returning the results gathered so far.
func RunScenario(ctx context.Context, runner *experiment.Runner, sc *Scenario) ([]StepResult, error) {
	results := make([]StepResult, 0, len(sc.Steps))

	for i := range sc.Steps {
		step := &sc.Steps[i]
		logrus.Infof("running step %d/%d: %s", i+1, len(sc.Steps), step.Name)

		cfg, err := step.Config()
		if err != nil {
			return results, fmt.Errorf("step %d (%s): %w", i+1, step.Name, err)
		}

		out, err := runner.Simulate(ctx, cfg.Request())
		if err != nil {
			return results, fmt.Errorf("step %d (%s): %w", i+1, step.Name, err)
		}

		results = append(results, StepResult{
			Name:    step.Name,
			Outcome: out,
			Summary: analysis.Summarize(out.Trajectory),
		})
	}

	return results, nil
}

// MonteCarloConfig perturbs the named parameters of Base by a uniform
// relative factor in [1-Spread, 1+Spread] for each trial.
type MonteCarloConfig struct {
	Base    experiment.Request
	Params  []string
	Spread  float64
	Trials  int
	Seed    int64
	Workers int
}

// Trial is one perturbed run.
type Trial struct {
	ID      int
	Params  map[string]float64
	Summary analysis.Summary
	Err     error
}

// RunMonteCarlo draws every perturbation up front from a single seeded
// source, so a fixed seed reproduces the same trials regardless of Workers.
func RunMonteCarlo(ctx context.Context, runner *experiment.Runner, cfg MonteCarloConfig) ([]Trial, error) {
	if cfg.Trials <= 0 {
		return nil, fmt.Errorf("monte carlo: trials must be positive, got %d", cfg.Trials)
	}
	if cfg.Spread < 0 || cfg.Spread >= 1 {
		return nil, fmt.Errorf("monte carlo: spread must be in [0, 1), got %g", cfg.Spread)
	}
	if len(cfg.Params) == 0 {
		return nil, fmt.Errorf("monte carlo: no parameters to perturb")
	}
	for _, name := range cfg.Params {
		if !physiology.IsKnown(name) {
			return nil, fmt.Errorf("monte carlo: %w: %s", physiology.ErrUnknownParameter, name)
		}
	}

	nominal := physiology.DefaultParamSet().Merge(cfg.Base.Params)

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	trials := make([]Trial, cfg.Trials)
	reqs := make([]experiment.Request, cfg.Trials)
	for i := range trials {
		perturbed := make(map[string]float64, len(cfg.Params))
		for _, name := range cfg.Params {
			perturbed[name] = nominal[name] * (1 + (rng.Float64()*2-1)*cfg.Spread)
		}

		req := cfg.Base
		req.Params = make(map[string]float64, len(cfg.Base.Params)+len(perturbed))
		for k, v := range cfg.Base.Params {
			req.Params[k] = v
		}
		for k, v := range perturbed {
			req.Params[k] = v
		}

		trials[i] = Trial{ID: i, Params: perturbed}
		reqs[i] = req
	}

	runs := runner.SimulateAll(ctx, reqs, cfg.Workers)
	for i, run := range runs {
		trials[i].Err = run.Err
		if run.Err == nil {
			trials[i].Summary = analysis.Summarize(run.Outcome.Trajectory)
		}
	}
	return trials, nil
}

// Spread describes the distribution of one summary metric across trials.
type Spread struct {
	Mean, Std, Min, Max float64
}

type MonteCarloStats struct {
	Completed int
	Failed    int
	Metrics   map[string]Spread
}

// Stats aggregates every summary metric over the completed trials.
func Stats(trials []Trial) MonteCarloStats {
	st := MonteCarloStats{Metrics: make(map[string]Spread)}

	var maps []map[string]float64
	for _, t := range trials {
		if t.Err != nil {
			st.Failed++
			continue
		}
		st.Completed++
		maps = append(maps, t.Summary.Map())
	}
	if len(maps) == 0 {
		return st
	}

	values := make([]float64, len(maps))
	for _, key := range analysis.SummaryKeys {
		for i, m := range maps {
			values[i] = m[key]
		}
		mean, std := stat.MeanStdDev(values, nil)
		if len(values) < 2 {
			std = 0
		}
		st.Metrics[key] = Spread{Mean: mean, Std: std, Min: floats.Min(values), Max: floats.Max(values)}
	}
	return st
}
