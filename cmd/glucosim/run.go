package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/san-kum/glucosim/internal/analysis"
	"github.com/san-kum/glucosim/internal/dynamo"
	"github.com/san-kum/glucosim/internal/experiment"
	"github.com/san-kum/glucosim/internal/physiology"
	"github.com/san-kum/glucosim/internal/report"
	"github.com/san-kum/glucosim/internal/storage"
)

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := scenario(cmd)
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

	fmt.Printf("running %s with %s, meal %.0f mg...\n", cfg.Model, cfg.Method, cfg.Meal)

	out, simErr := runner.Simulate(cmd.Context(), cfg.Request())
	if out == nil {
		return simErr
	}

	summary := analysis.Summarize(out.Trajectory)
	runID, err := saveOutcome(st, out, summary)
	if err != nil {
		return err
	}

	res := out.Trajectory.Result
	fmt.Printf("completed in %v: %s\n", out.Elapsed, report.Status(string(res.Status)))
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d accepted, %d rejected, %d evaluations\n\n", res.Stats.Accepted, res.Stats.Rejected, res.Stats.Evaluations)
	fmt.Println(report.SummaryPanel(out.Request.Model+" / "+out.Method, summary))
	fmt.Println(report.Subtle.Render("glucose ") + report.Sparkline(out.Trajectory.Glucose(), 60))

	return simErr
}

// saveOutcome stores a run, including a partial trajectory after a failure.
func saveOutcome(st *storage.Store, out *experiment.Outcome, summary analysis.Summary) (string, error) {
	res := out.Trajectory.Result
	req := out.Request

	meta := storage.RunMetadata{
		Model:    req.Model,
		Method:   out.Method,
		Meal:     req.Meal,
		TStart:   req.TSpan[0],
		TEnd:     req.TSpan[1],
		Dt:       req.Dt,
		RTol:     req.RTol,
		ATol:     req.ATol,
		MaxSteps: req.MaxSteps,
		Status:   string(res.Status),
		Elapsed:  out.Elapsed.Seconds(),
		Stats: storage.RunStats{
			Evaluations: res.Stats.Evaluations,
			Accepted:    res.Stats.Accepted,
			Rejected:    res.Stats.Rejected,
		},
		Columns: physiology.StateNames[:],
		Params:  out.Params.Set(),
		Summary: summary.Map(),
	}
	if res.Err != nil {
		meta.Error = res.Err.Error()
	}
	return st.Save(meta, res.Times, rows(res.States))
}

func rows(states []dynamo.State) [][]float64 {
	out := make([][]float64, len(states))
	for i, s := range states {
		out[i] = s
	}
	return out
}
