package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	dataDir  string
	logLevel string

	// scenario flags shared by run, compare, sweep and params
	preset     string
	configFile string
	method     string
	meal       float64
	tStart     float64
	tEnd       float64
	dt         float64
	rtol       float64
	atol       float64
	maxSteps   int
	fixedStep  float64
	strict     bool
	overrides  []string
	metricsOut string

	// plot
	phase bool
	width int

	// sweep and montecarlo
	vary       []string
	workers    int
	perturb    []string
	spread     float64
	trialCount int
	seed       int64
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "glucosim",
		Short:         "glucose-insulin meal response simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := logrus.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			logrus.SetLevel(level)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".glucosim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "simulate one meal response and store it",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addScenarioFlags(runCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot plasma glucose and insulin of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().BoolVar(&phase, "phase", false, "also draw the glucose-insulin phase portrait")
	plotCmd.Flags().IntVar(&width, "width", 80, "chart width in columns")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "print run metadata as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "write the sampled states of a run as CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "write metadata and samples of a run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	deleteCmd := &cobra.Command{
		Use:   "delete [run_id]",
		Short: "remove a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  deleteRun,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [model]",
		Short: "list scenario presets",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listPresets,
	}

	paramsCmd := &cobra.Command{
		Use:   "params",
		Short: "show the resolved parameter table",
		Args:  cobra.NoArgs,
		RunE:  showParams,
	}
	addScenarioFlags(paramsCmd)

	compareCmd := &cobra.Command{
		Use:   "compare [method1] [method2] ...",
		Short: "run the same scenario with several integration methods",
		Args:  cobra.MinimumNArgs(1),
		RunE:  compareMethods,
	}
	addScenarioFlags(compareCmd)

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "simulate a grid of parameter values",
		Args:  cobra.NoArgs,
		RunE:  runSweep,
	}
	addScenarioFlags(sweepCmd)
	sweepCmd.Flags().StringArrayVar(&vary, "vary", nil, "axis as name=v1,v2,... or name=lo:hi:n (repeatable)")
	sweepCmd.Flags().IntVar(&workers, "workers", 0, "parallel runs, GOMAXPROCS when 0")

	scriptCmd := &cobra.Command{
		Use:   "script [file]",
		Short: "run every step of a scenario file and store the results",
		Args:  cobra.ExactArgs(1),
		RunE:  runScript,
	}
	scriptCmd.Flags().StringVar(&metricsOut, "metrics-out", "", "write Prometheus metrics to this textfile")

	monteCarloCmd := &cobra.Command{
		Use:   "montecarlo",
		Short: "spread of outcomes under random parameter perturbations",
		Args:  cobra.NoArgs,
		RunE:  runMonteCarlo,
	}
	addScenarioFlags(monteCarloCmd)
	monteCarloCmd.Flags().StringSliceVar(&perturb, "perturb", []string{"k_abs", "V_mX", "k_p3"}, "parameters to perturb")
	monteCarloCmd.Flags().Float64Var(&spread, "spread", 0.1, "relative half-width of the uniform perturbation")
	monteCarloCmd.Flags().IntVar(&trialCount, "trials", 50, "number of trials")
	monteCarloCmd.Flags().Int64Var(&seed, "seed", 1, "random seed, time based when 0")
	monteCarloCmd.Flags().IntVar(&workers, "workers", 0, "parallel runs, GOMAXPROCS when 0")

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, exportCmd, exportCSVCmd, exportJSONCmd, deleteCmd, presetsCmd, paramsCmd, compareCmd, sweepCmd, scriptCmd, monteCarloCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func addScenarioFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&preset, "preset", "", "start from a named preset")
	f.StringVar(&configFile, "config", "", "scenario file (yaml), applied over the preset")
	f.StringVar(&method, "method", "RK45", "integration method (RK45, RK23, RK4)")
	f.Float64Var(&meal, "meal", 78000, "ingested glucose in mg")
	f.Float64Var(&tStart, "t-start", 0, "start time in minutes")
	f.Float64Var(&tEnd, "t-end", 600, "end time in minutes")
	f.Float64Var(&dt, "dt", 0.1, "output sampling step in minutes")
	f.Float64Var(&rtol, "rtol", 1e-6, "relative tolerance")
	f.Float64Var(&atol, "atol", 1e-6, "absolute tolerance")
	f.IntVar(&maxSteps, "max-steps", 500000, "ceiling on attempted steps")
	f.Float64Var(&fixedStep, "fixed-step", 0, "internal step for RK4, dt when 0")
	f.BoolVar(&strict, "strict", false, "reject unknown parameter names")
	f.StringArrayVar(&overrides, "set", nil, "parameter override name=value (repeatable)")
	f.StringVar(&metricsOut, "metrics-out", "", "write Prometheus metrics to this textfile")
}
