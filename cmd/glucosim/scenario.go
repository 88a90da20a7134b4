package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/san-kum/glucosim/internal/config"
	"github.com/san-kum/glucosim/internal/experiment"
	"github.com/san-kum/glucosim/internal/telemetry"
)

// scenario resolves the run configuration. Later layers win: defaults,
// preset, config file, then flags set on the command line.
func scenario(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		cfg = config.GetPreset(cfg.Model, preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(config.DefaultModel))
		}
	}

	if configFile != "" {
		loaded, err := config.LoadInto(configFile, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("method") {
		cfg.Method = method
	}
	if flags.Changed("meal") {
		cfg.Meal = meal
	}
	if flags.Changed("t-start") {
		cfg.TStart = tStart
	}
	if flags.Changed("t-end") {
		cfg.TEnd = tEnd
	}
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("rtol") {
		cfg.RTol = rtol
	}
	if flags.Changed("atol") {
		cfg.ATol = atol
	}
	if flags.Changed("max-steps") {
		cfg.MaxSteps = maxSteps
	}
	if flags.Changed("fixed-step") {
		cfg.FixedStep = fixedStep
	}
	if flags.Changed("strict") {
		cfg.Strict = strict
	}

	for _, o := range overrides {
		name, value, err := parseOverride(o)
		if err != nil {
			return nil, err
		}
		cfg.SetParam(name, value)
	}
	return cfg, nil
}

func parseOverride(s string) (string, float64, error) {
	name, raw, ok := strings.Cut(s, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return "", 0, fmt.Errorf("invalid override %q: want name=value", s)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return "", 0, fmt.Errorf("invalid override %q: %w", s, err)
	}
	return name, v, nil
}

// newRunner wires a runner to a private metrics registry so that
// --metrics-out only reports this invocation.
func newRunner() (*experiment.Runner, *telemetry.Collector, error) {
	collector, err := telemetry.NewCollector(prometheus.NewRegistry())
	if err != nil {
		return nil, nil, err
	}
	return experiment.NewRunner(experiment.NewRegistry(), collector), collector, nil
}

func writeMetrics(collector *telemetry.Collector) {
	if metricsOut == "" {
		return
	}
	if err := collector.WriteTextfile(metricsOut); err != nil {
		logrus.Warn(err)
		return
	}
	logrus.Debugf("metrics written to %s", metricsOut)
}
