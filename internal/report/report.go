package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/glucosim/internal/analysis"
)

// Table renders rows under a bold header with a muted border.
func Table(headers []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(Subtle).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return Title.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
	for _, r := range rows {
		t.Row(r...)
	}
	return t.String()
}

// KeyValues lays out label/value pairs in two aligned columns.
func KeyValues(pairs [][2]string) string {
	width := 0
	for _, p := range pairs {
		width = max(width, lipgloss.Width(p[0]))
	}
	var sb strings.Builder
	for i, p := range pairs {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(Label.Render(fmt.Sprintf("%-*s", width, p[0])))
		sb.WriteString("  ")
		sb.WriteString(Value.Render(p[1]))
	}
	return sb.String()
}

// SummaryPanel boxes the headline numbers of a run.
func SummaryPanel(title string, s analysis.Summary) string {
	body := KeyValues([][2]string{
		{"samples", fmt.Sprintf("%d", s.Samples)},
		{"peak G", fmt.Sprintf("%.2f mg/dl at %.1f min", s.PeakGlucose, s.PeakGlucoseTime)},
		{"min / mean G", fmt.Sprintf("%.2f / %.2f mg/dl", s.MinGlucose, s.MeanGlucose)},
		{"final G", fmt.Sprintf("%.2f mg/dl", s.FinalGlucose)},
		{"G AUC", fmt.Sprintf("%.1f", s.GlucoseAUC)},
		{"incremental AUC", fmt.Sprintf("%.1f", s.IncrementalAUC)},
		{fmt.Sprintf("time > %.0f", analysis.HyperThreshold), fmt.Sprintf("%.1f min", s.TimeAbove)},
		{"peak I", fmt.Sprintf("%.2f pmol/l at %.1f min", s.PeakInsulin, s.PeakInsulinTime)},
		{"I AUC", fmt.Sprintf("%.1f", s.InsulinAUC)},
		{"absorbed", fmt.Sprintf("%.0f mg", s.Absorbed)},
	})
	return Panel.Render(Title.Render(title) + "\n" + Separator(lipgloss.Width(body)) + "\n" + body)
}

// Chart plots one series with asciigraph, downsampling to width points.
func Chart(values []float64, width, height int, caption string) string {
	if len(values) == 0 {
		return ""
	}
	return asciigraph.Plot(Downsample(values, width),
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	)
}

// Overlay plots several series on shared axes.
func Overlay(series [][]float64, width, height int, caption string) string {
	data := make([][]float64, 0, len(series))
	for _, s := range series {
		if len(s) > 0 {
			data = append(data, Downsample(s, width))
		}
	}
	if len(data) == 0 {
		return ""
	}
	return asciigraph.PlotMany(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
		asciigraph.SeriesColors(asciigraph.Red, asciigraph.Green, asciigraph.Blue, asciigraph.Yellow),
	)
}

// Downsample keeps at most n evenly spaced samples, always including the
// last one.
func Downsample(values []float64, n int) []float64 {
	if n <= 0 || len(values) <= n {
		return values
	}
	out := make([]float64, n)
	last := len(values) - 1
	for i := range out {
		out[i] = values[i*last/(n-1)]
	}
	return out
}
