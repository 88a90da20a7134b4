package analysis

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/glucosim/internal/physiology"
)

// Hyperglycaemia threshold used for TimeAbove, mg/dl.
const HyperThreshold = 180.0

// Summary condenses one trajectory. Glucose values are plasma
// concentrations G = Gp/V_G (mg/dl), insulin I = Ip/V_I (pmol/l).
type Summary struct {
	Samples int `json:"samples"`

	PeakGlucose     float64 `json:"peak_glucose"`
	PeakGlucoseTime float64 `json:"peak_glucose_time"`
	MinGlucose      float64 `json:"min_glucose"`
	MeanGlucose     float64 `json:"mean_glucose"`
	FinalGlucose    float64 `json:"final_glucose"`
	GlucoseAUC      float64 `json:"glucose_auc"`
	IncrementalAUC  float64 `json:"incremental_auc"`
	TimeAbove       float64 `json:"time_above_180"`

	PeakInsulin     float64 `json:"peak_insulin"`
	PeakInsulinTime float64 `json:"peak_insulin_time"`
	InsulinAUC      float64 `json:"insulin_auc"`

	// Absorbed is the glucose that reached plasma from the gut, mg.
	Absorbed float64 `json:"absorbed"`
}

// Summarize computes the summary of tr. An empty trajectory yields the zero
// Summary.
func Summarize(tr *physiology.Trajectory) Summary {
	n := tr.Len()
	if n == 0 {
		return Summary{}
	}

	times := tr.Times
	g := tr.Glucose()
	ins := tr.Insulin()

	s := Summary{Samples: n}

	gi := floats.MaxIdx(g)
	s.PeakGlucose, s.PeakGlucoseTime = g[gi], times[gi]
	s.MinGlucose = floats.Min(g)
	s.MeanGlucose = stat.Mean(g, nil)
	s.FinalGlucose = g[n-1]

	ii := floats.MaxIdx(ins)
	s.PeakInsulin, s.PeakInsulinTime = ins[ii], times[ii]

	if n < 2 {
		return s
	}

	s.GlucoseAUC = integrate.Trapezoidal(times, g)
	s.InsulinAUC = integrate.Trapezoidal(times, ins)

	excess := make([]float64, n)
	for i, v := range g {
		if d := v - g[0]; d > 0 {
			excess[i] = d
		}
	}
	s.IncrementalAUC = integrate.Trapezoidal(times, excess)
	s.TimeAbove = TimeAbove(times, g, HyperThreshold)

	ra := tr.Appearance()
	floats.Scale(tr.Params.BW, ra)
	s.Absorbed = integrate.Trapezoidal(times, ra)

	return s
}

// Map flattens s for metadata files and tables.
func (s Summary) Map() map[string]float64 {
	return map[string]float64{
		"peak_glucose":      s.PeakGlucose,
		"peak_glucose_time": s.PeakGlucoseTime,
		"min_glucose":       s.MinGlucose,
		"mean_glucose":      s.MeanGlucose,
		"final_glucose":     s.FinalGlucose,
		"glucose_auc":       s.GlucoseAUC,
		"incremental_auc":   s.IncrementalAUC,
		"time_above_180":    s.TimeAbove,
		"peak_insulin":      s.PeakInsulin,
		"peak_insulin_time": s.PeakInsulinTime,
		"insulin_auc":       s.InsulinAUC,
		"absorbed":          s.Absorbed,
	}
}

// SummaryKeys lists the Map keys in display order.
var SummaryKeys = []string{
	"peak_glucose", "peak_glucose_time", "min_glucose", "mean_glucose", "final_glucose",
	"glucose_auc", "incremental_auc", "time_above_180",
	"peak_insulin", "peak_insulin_time", "insulin_auc", "absorbed",
}
