package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/san-kum/glucosim/internal/analysis"
	"github.com/san-kum/glucosim/internal/config"
	"github.com/san-kum/glucosim/internal/dynamo"
	"github.com/san-kum/glucosim/internal/physiology"
	"github.com/san-kum/glucosim/internal/report"
	"github.com/san-kum/glucosim/internal/storage"
)

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Method,
			fmt.Sprintf("%.0f", run.Meal),
			fmt.Sprintf("%g-%g", run.TStart, run.TEnd),
			run.Status,
			fmt.Sprintf("%.1f", run.Summary["peak_glucose"]),
		})
	}
	fmt.Println(report.Table([]string{"ID", "TIME", "METHOD", "MEAL", "SPAN", "STATUS", "PEAK G"}, rows))
	return nil
}

// loadTrajectory rebuilds a stored run with the parameters it was made with.
func loadTrajectory(st *storage.Store, runID string) (*storage.RunMetadata, *physiology.Trajectory, error) {
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	states, times, err := st.LoadStates(runID)
	if err != nil {
		return nil, nil, err
	}

	p, err := physiology.ParamsFromSet(physiology.DefaultParamSet().Merge(meta.Params))
	if err != nil {
		return nil, nil, fmt.Errorf("run %s: %w", runID, err)
	}

	res := &dynamo.Result{Times: times, Status: dynamo.Status(meta.Status)}
	for _, s := range states {
		res.States = append(res.States, dynamo.State(s))
	}
	return meta, physiology.NewTrajectory(res, p), nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, tr, err := loadTrajectory(st, args[0])
	if err != nil {
		return err
	}
	if tr.Len() == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("method: %s  meal: %.0f mg  samples: %d\n\n", meta.Method, meta.Meal, tr.Len())

	fmt.Println(report.Chart(tr.Glucose(), width, 12, "plasma glucose G (mg/dl) vs time"))
	fmt.Println()
	fmt.Println(report.Chart(tr.Insulin(), width, 10, "plasma insulin I (pmol/l) vs time"))
	fmt.Println()
	fmt.Println(report.Chart(tr.Appearance(), width, 8, "rate of appearance Ra (mg/kg/min) vs time"))

	if phase {
		p := analysis.GlucoseInsulinPortrait(tr)
		fmt.Println()
		fmt.Println(report.Title.Render(p.XLabel + " vs " + p.YLabel))
		fmt.Print(p.ASCII(width, 20))
	}
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	return storage.ExportJSON(os.Stdout, *meta, nil, nil)
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	states, times, err := st.LoadStates(args[0])
	if err != nil {
		return err
	}
	return storage.WriteCSV(os.Stdout, meta.Columns, times, states)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	states, times, err := st.LoadStates(args[0])
	if err != nil {
		return err
	}
	return storage.ExportJSON(os.Stdout, *meta, times, states)
}

func deleteRun(cmd *cobra.Command, args []string) error {
	if err := storage.New(dataDir).Delete(args[0]); err != nil {
		return err
	}
	fmt.Printf("deleted %s\n", args[0])
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	model := config.DefaultModel
	if len(args) > 0 {
		model = args[0]
	}
	presets := config.ListPresets(model)
	if len(presets) == 0 {
		fmt.Printf("no presets for model: %s\n", model)
		return nil
	}

	rows := make([][]string, 0, len(presets))
	for _, name := range presets {
		p := config.GetPreset(model, name)
		rows = append(rows, []string{name, fmt.Sprintf("%.0f", p.Meal), fmt.Sprintf("%g-%g", p.TStart, p.TEnd), formatOverrides(p.Params)})
	}
	fmt.Println(report.Title.Render("presets for " + model))
	fmt.Println(report.Table([]string{"NAME", "MEAL", "SPAN", "OVERRIDES"}, rows))
	return nil
}

func formatOverrides(params map[string]float64) string {
	if len(params) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(params))
	for _, name := range physiology.Names() {
		if v, ok := params[name]; ok {
			parts = append(parts, fmt.Sprintf("%s=%g", name, v))
		}
	}
	for name, v := range params {
		if !physiology.IsKnown(name) {
			parts = append(parts, fmt.Sprintf("%s=%g", name, v))
		}
	}
	return strings.Join(parts, " ")
}

func showParams(cmd *cobra.Command, args []string) error {
	cfg, err := scenario(cmd)
	if err != nil {
		return err
	}

	runner, _, err := newRunner()
	if err != nil {
		return err
	}
	p, err := runner.Resolve(cfg.Request())
	if err != nil {
		return err
	}

	defaults := physiology.DefaultParamSet()
	resolved := p.Set()
	required := make(map[string]bool)
	for _, name := range physiology.RequiredNames() {
		required[name] = true
	}

	rows := make([][]string, 0, len(resolved))
	for _, name := range physiology.Names() {
		mark := ""
		if resolved[name] != defaults[name] {
			mark = "*"
		}
		kind := "optional"
		if required[name] {
			kind = "required"
		}
		rows = append(rows, []string{name, fmt.Sprintf("%g", resolved[name]), fmt.Sprintf("%g", defaults[name]), kind, mark})
	}
	fmt.Println(report.Table([]string{"NAME", "VALUE", "DEFAULT", "KIND", ""}, rows))
	return nil
}
