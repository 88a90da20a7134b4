package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/san-kum/glucosim/internal/analysis"
	"github.com/san-kum/glucosim/internal/automation"
	"github.com/san-kum/glucosim/internal/report"
	"github.com/san-kum/glucosim/internal/storage"
)

func runScript(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	runner, collector, err := newRunner()
	if err != nil {
		return err
	}
	defer writeMetrics(collector)

	if sc.Description != "" {
		fmt.Println(report.Subtle.Render(sc.Description))
	}

	results, runErr := automation.RunScenario(cmd.Context(), runner, sc)

	rows := make([][]string, 0, len(results))
	for _, r := range results {
		id, err := saveOutcome(st, r.Outcome, r.Summary)
		if err != nil {
			return err
		}
		rows = append(rows, []string{
			r.Name,
			id,
			fmt.Sprintf("%.0f", r.Outcome.Request.Meal),
			fmt.Sprintf("%.2f", r.Summary.PeakGlucose),
			fmt.Sprintf("%.1f", r.Summary.TimeAbove),
			report.Sparkline(r.Outcome.Trajectory.Glucose(), 30),
		})
	}
	if len(rows) > 0 {
		fmt.Println(report.Table([]string{"STEP", "RUN ID", "MEAL", "PEAK G", "TIME >180", "GLUCOSE"}, rows))
	}
	return runErr
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	cfg, err := scenario(cmd)
	if err != nil {
		return err
	}

	runner, collector, err := newRunner()
	if err != nil {
		return err
	}
	defer writeMetrics(collector)

	trials, err := automation.RunMonteCarlo(cmd.Context(), runner, automation.MonteCarloConfig{
		Base:    cfg.Request(),
		Params:  perturb,
		Spread:  spread,
		Trials:  trialCount,
		Seed:    seed,
		Workers: workers,
	})
	if err != nil {
		return err
	}

	st := automation.Stats(trials)
	fmt.Printf("%d trials, %d completed, %d failed (±%.0f%% on %v)\n\n", len(trials), st.Completed, st.Failed, spread*100, perturb)
	if st.Completed == 0 {
		return fmt.Errorf("every trial failed: %w", trials[0].Err)
	}

	rows := make([][]string, 0, len(analysis.SummaryKeys))
	for _, key := range analysis.SummaryKeys {
		m, ok := st.Metrics[key]
		if !ok {
			continue
		}
		rows = append(rows, []string{key, fmt.Sprintf("%.3f", m.Mean), fmt.Sprintf("%.3f", m.Std), fmt.Sprintf("%.3f", m.Min), fmt.Sprintf("%.3f", m.Max)})
	}
	fmt.Println(report.Table([]string{"METRIC", "MEAN", "STD", "MIN", "MAX"}, rows))
	return nil
}
