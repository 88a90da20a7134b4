// Package analysis summarizes simulated glucose-insulin trajectories.
//
//   - [Summarize]: peaks, means and areas under the glucose and insulin curves
//   - [Crossings]: times at which a series crosses a threshold
//   - [NewPortrait]: glucose-insulin phase portrait, renderable as text
//
// Areas are trapezoidal over the sample grid and carry the grid's time unit
// (minutes for the Dalla Man model).
//
//	s := analysis.Summarize(outcome.Trajectory)
//	fmt.Printf("peak %.1f mg/dl at %.0f min\n", s.PeakGlucose, s.PeakGlucoseTime)
package analysis
