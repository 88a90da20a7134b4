// Package report renders simulation output for the terminal: lipgloss
// panels and tables plus asciigraph line charts.
package report
