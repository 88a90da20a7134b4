package main

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/san-kum/glucosim/internal/analysis"
	"github.com/san-kum/glucosim/internal/experiment"
	"github.com/san-kum/glucosim/internal/report"
	"github.com/san-kum/glucosim/internal/sweep"
)

func compareMethods(cmd *cobra.Command, args []string) error {
	cfg, err := scenario(cmd)
	if err != nil {
		return err
	}

	runner, collector, err := newRunner()
	if err != nil {
		return err
	}
	defer writeMetrics(collector)

	reqs := make([]experiment.Request, len(args))
	for i, m := range args {
		cfg.Method = m
		reqs[i] = cfg.Request()
	}

	fmt.Printf("comparing %d methods on %s, meal %.0f mg\n\n", len(args), cfg.Model, cfg.Meal)

	runs := runner.SimulateAll(cmd.Context(), reqs, len(reqs))

	var reference []float64
	rows := make([][]string, 0, len(runs))
	for i, run := range runs {
		if run.Outcome == nil {
			rows = append(rows, []string{args[i], report.Status("error"), "-", "-", "-", "-", "-", run.Err.Error()})
			continue
		}
		res := run.Outcome.Trajectory.Result
		s := analysis.Summarize(run.Outcome.Trajectory)
		g := run.Outcome.Trajectory.Glucose()

		diff := "-"
		if reference == nil {
			reference = g
		} else if len(g) == len(reference) {
			diff = fmt.Sprintf("%.2e", maxAbsDiff(g, reference))
		}

		note := ""
		if run.Err != nil {
			note = run.Err.Error()
		}
		rows = append(rows, []string{
			run.Outcome.Method,
			report.Status(string(res.Status)),
			fmt.Sprintf("%d", res.Stats.Evaluations),
			fmt.Sprintf("%d/%d", res.Stats.Accepted, res.Stats.Rejected),
			run.Outcome.Elapsed.String(),
			fmt.Sprintf("%.3f", s.PeakGlucose),
			diff,
			note,
		})
	}

	fmt.Println(report.Table([]string{"METHOD", "STATUS", "EVALS", "STEPS ACC/REJ", "ELAPSED", "PEAK G", "MAX |ΔG|", "ERROR"}, rows))
	return nil
}

func maxAbsDiff(a, b []float64) float64 {
	d := 0.0
	for i := range a {
		v := a[i] - b[i]
		if v < 0 {
			v = -v
		}
		d = max(d, v)
	}
	return d
}

func runSweep(cmd *cobra.Command, args []string) error {
	if len(vary) == 0 {
		return fmt.Errorf("at least one --vary axis is required")
	}

	cfg, err := scenario(cmd)
	if err != nil {
		return err
	}

	axes := make([]sweep.Axis, 0, len(vary))
	for _, v := range vary {
		axis, err := sweep.ParseAxis(v)
		if err != nil {
			return err
		}
		axes = append(axes, axis)
	}
	grid, err := sweep.NewGrid(axes...)
	if err != nil {
		return err
	}

	runner, collector, err := newRunner()
	if err != nil {
		return err
	}
	defer writeMetrics(collector)

	logrus.Infof("sweeping %d points", grid.Size())
	points := sweep.Run(cmd.Context(), runner, cfg.Request(), grid, workers)

	headers := make([]string, 0, len(axes)+5)
	for _, a := range axes {
		headers = append(headers, a.Name)
	}
	headers = append(headers, "PEAK G", "T PEAK", "TIME >180", "PEAK I", "GLUCOSE")

	rows := make([][]string, 0, len(points))
	failed := 0
	for _, pt := range points {
		row := make([]string, 0, len(headers))
		for _, a := range axes {
			row = append(row, fmt.Sprintf("%g", pt.Values[a.Name]))
		}
		if pt.Err != nil {
			failed++
			row = append(row, "-", "-", "-", "-", report.StatusFailed.Render(firstLine(pt.Err.Error())))
			rows = append(rows, row)
			continue
		}
		s := pt.Summary
		row = append(row,
			fmt.Sprintf("%.2f", s.PeakGlucose),
			fmt.Sprintf("%.1f", s.PeakGlucoseTime),
			fmt.Sprintf("%.1f", s.TimeAbove),
			fmt.Sprintf("%.2f", s.PeakInsulin),
			report.Sparkline(pt.Outcome.Trajectory.Glucose(), 30),
		)
		rows = append(rows, row)
	}

	fmt.Println(report.Table(headers, rows))
	if failed > 0 {
		fmt.Printf("%d of %d points failed\n", failed, len(points))
	}
	return nil
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
