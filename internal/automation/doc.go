// Package automation runs scripted scenario files and Monte Carlo
// perturbation studies on top of the experiment runner.
package automation
