package analysis

import (
	"strings"

	"github.com/san-kum/glucosim/internal/physiology"
)

// Point is one sample in a phase plane.
type Point struct{ X, Y float64 }

// Portrait is a trajectory projected onto two series.
type Portrait struct {
	XLabel, YLabel string
	Points         []Point
}

// NewPortrait pairs xs and ys sample by sample. Extra samples on the longer
// side are dropped.
func NewPortrait(xLabel string, xs []float64, yLabel string, ys []float64) *Portrait {
	n := min(len(xs), len(ys))
	p := &Portrait{XLabel: xLabel, YLabel: yLabel, Points: make([]Point, n)}
	for i := 0; i < n; i++ {
		p.Points[i] = Point{xs[i], ys[i]}
	}
	return p
}

// GlucoseInsulinPortrait plots plasma glucose against plasma insulin.
func GlucoseInsulinPortrait(tr *physiology.Trajectory) *Portrait {
	return NewPortrait("G (mg/dl)", tr.Glucose(), "I (pmol/l)", tr.Insulin())
}

// Bounds returns the extent of the portrait.
func (p *Portrait) Bounds() (minX, maxX, minY, maxY float64) {
	if len(p.Points) == 0 {
		return 0, 0, 0, 0
	}
	minX, maxX = p.Points[0].X, p.Points[0].X
	minY, maxY = p.Points[0].Y, p.Points[0].Y
	for _, pt := range p.Points[1:] {
		minX, maxX = min(minX, pt.X), max(maxX, pt.X)
		minY, maxY = min(minY, pt.Y), max(maxY, pt.Y)
	}
	return minX, maxX, minY, maxY
}

// ASCII rasterizes the portrait onto a width x height character grid. The
// first sample is drawn as 'o' and the last as 'x'.
func (p *Portrait) ASCII(width, height int) string {
	if p == nil || len(p.Points) == 0 || width < 2 || height < 2 {
		return ""
	}

	minX, maxX, minY, maxY := p.Bounds()
	rangeX, rangeY := maxX-minX, maxY-minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.05
	minY -= rangeY * 0.05
	rangeX *= 1.1
	rangeY *= 1.1

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = []rune(strings.Repeat(" ", width))
	}

	cell := func(pt Point) (row, col int) {
		col = int((pt.X - minX) / rangeX * float64(width-1))
		row = height - 1 - int((pt.Y-minY)/rangeY*float64(height-1))
		return row, col
	}

	for _, pt := range p.Points {
		row, col := cell(pt)
		if row >= 0 && row < height && col >= 0 && col < width {
			canvas[row][col] = '•'
		}
	}
	if row, col := cell(p.Points[0]); row >= 0 && row < height && col >= 0 && col < width {
		canvas[row][col] = 'o'
	}
	if row, col := cell(p.Points[len(p.Points)-1]); row >= 0 && row < height && col >= 0 && col < width {
		canvas[row][col] = 'x'
	}

	var sb strings.Builder
	for _, row := range canvas {
		sb.WriteString(strings.TrimRight(string(row), " "))
		sb.WriteRune('\n')
	}
	return sb.String()
}
