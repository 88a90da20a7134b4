package analysis

// Direction of a threshold crossing.
type Direction int

const (
	Rising Direction = iota
	Falling
)

func (d Direction) String() string {
	if d == Rising {
		return "rising"
	}
	return "falling"
}

// Crossing is the linearly interpolated time at which a series passes a
// threshold.
type Crossing struct {
	Time      float64
	Direction Direction
}

// Crossings scans ys sampled at times and reports every pass through
// threshold. A sample exactly on the threshold counts once, on the side it
// leaves toward.
func Crossings(times, ys []float64, threshold float64) []Crossing {
	var out []Crossing
	n := min(len(times), len(ys))
	for i := 1; i < n; i++ {
		prev, curr := ys[i-1], ys[i]
		switch {
		case prev < threshold && curr >= threshold:
			out = append(out, Crossing{Time: interpolate(times[i-1], times[i], prev, curr, threshold), Direction: Rising})
		case prev >= threshold && curr < threshold:
			out = append(out, Crossing{Time: interpolate(times[i-1], times[i], prev, curr, threshold), Direction: Falling})
		}
	}
	return out
}

// TimeAbove measures how long ys stays at or above threshold, treating the
// series as piecewise linear.
func TimeAbove(times, ys []float64, threshold float64) float64 {
	total := 0.0
	n := min(len(times), len(ys))
	for i := 1; i < n; i++ {
		t0, t1 := times[i-1], times[i]
		a, b := ys[i-1], ys[i]
		switch {
		case a >= threshold && b >= threshold:
			total += t1 - t0
		case a < threshold && b >= threshold:
			total += t1 - interpolate(t0, t1, a, b, threshold)
		case a >= threshold && b < threshold:
			total += interpolate(t0, t1, a, b, threshold) - t0
		}
	}
	return total
}

func interpolate(t0, t1, y0, y1, level float64) float64 {
	if y1 == y0 {
		return t0
	}
	return t0 + (level-y0)/(y1-y0)*(t1-t0)
}
