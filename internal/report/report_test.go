package report

import (
	"strings"
	"testing"

	"github.com/san-kum/glucosim/internal/analysis"
	"github.com/stretchr/testify/assert"
)

func TestDownsample(t *testing.T) {
	values := []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10}

	assert.Equal(t, []float64{0, 5, 10}, Downsample(values, 3))
	assert.Equal(t, values, Downsample(values, 20))
	assert.Equal(t, values, Downsample(values, 0))

	out := Downsample(values, 4)
	assert.Len(t, out, 4)
	assert.Equal(t, 10.0, out[3])
}

func TestSparkline(t *testing.T) {
	assert.Equal(t, "", Sparkline([]float64{1, 2}, 0))
	assert.Equal(t, strings.Repeat("─", 5), Sparkline(nil, 5))

	s := Sparkline([]float64{1, 2, 3, 4, 5, 6, 7, 8}, 8)
	assert.Contains(t, s, "▁")
	assert.Contains(t, s, "█")
}

func TestTable(t *testing.T) {
	out := Table([]string{"method", "peak"}, [][]string{{"RK45", "201.3"}, {"RK4", "201.2"}})
	for _, want := range []string{"method", "peak", "RK45", "201.3", "RK4"} {
		assert.Contains(t, out, want)
	}
}

func TestSummaryPanel(t *testing.T) {
	out := SummaryPanel("run", analysis.Summary{Samples: 11, PeakGlucose: 201.5, PeakGlucoseTime: 42})
	assert.Contains(t, out, "run")
	assert.Contains(t, out, "201.50 mg/dl at 42.0 min")
	assert.Contains(t, out, "samples")
}

func TestCharts(t *testing.T) {
	assert.Empty(t, Chart(nil, 40, 8, "G"))
	assert.Empty(t, Overlay([][]float64{nil}, 40, 8, "G"))

	ys := []float64{1, 3, 2, 5, 4}
	assert.Contains(t, Chart(ys, 40, 8, "glucose"), "glucose")
	assert.Contains(t, Overlay([][]float64{ys, ys}, 40, 8, "both"), "both")
}

func TestStatus(t *testing.T) {
	assert.Contains(t, Status("complete"), "complete")
	assert.Contains(t, Status("failed"), "failed")
}
