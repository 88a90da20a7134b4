package dynamo

import (
	"math"
	"testing"
)

func TestState_IsValid(t *testing.T) {
	tests := []struct {
		name  string
		state State
		valid bool
	}{
		{"empty", State{}, true},
		{"normal", State{1.0, 2.0, 3.0}, true},
		{"zeros", State{0.0, 0.0}, true},
		{"with NaN", State{1.0, math.NaN()}, false},
		{"with +Inf", State{1.0, math.Inf(1)}, false},
		{"with -Inf", State{1.0, math.Inf(-1)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsValid(); got != tt.valid {
				t.Errorf("IsValid() = %v, want %v", got, tt.valid)
			}
		})
	}
}

func TestState_Norm(t *testing.T) {
	tests := []struct {
		state    State
		expected float64
		rms      float64
	}{
		{State{3, 4}, 5.0, 5.0 / math.Sqrt2},
		{State{1, 0}, 1.0, 1.0 / math.Sqrt2},
		{State{0, 0}, 0.0, 0.0},
		{State{1, 1, 1, 1}, 2.0, 1.0},
		{State{}, 0.0, 0.0},
	}

	for _, tt := range tests {
		if got := tt.state.Norm(); math.Abs(got-tt.expected) > 1e-10 {
			t.Errorf("Norm(%v) = %v, want %v", tt.state, got, tt.expected)
		}
		if got := tt.state.RMSNorm(); math.Abs(got-tt.rms) > 1e-10 {
			t.Errorf("RMSNorm(%v) = %v, want %v", tt.state, got, tt.rms)
		}
	}
}

func TestState_Arithmetic(t *testing.T) {
	a := State{1, 2, 3}
	b := State{4, 5, 6}

	sum := a.Add(b)
	if sum[0] != 5 || sum[1] != 7 || sum[2] != 9 {
		t.Errorf("Add failed: got %v", sum)
	}

	diff := b.Sub(a)
	if diff[0] != 3 || diff[1] != 3 || diff[2] != 3 {
		t.Errorf("Sub failed: got %v", diff)
	}

	scaled := a.Scale(2)
	if scaled[0] != 2 || scaled[1] != 4 || scaled[2] != 6 {
		t.Errorf("Scale failed: got %v", scaled)
	}

	axpy := a.AddScaled(0.5, b)
	if axpy[0] != 3 || axpy[1] != 4.5 || axpy[2] != 6 {
		t.Errorf("AddScaled failed: got %v", axpy)
	}

	if a[0] != 1 || b[0] != 4 {
		t.Error("arithmetic mutated its operands")
	}
}

func TestState_Clone(t *testing.T) {
	src := State{1, 2, 3}
	c := src.Clone()
	c[0] = 99
	if src[0] == 99 {
		t.Error("Clone did not create independent copy")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Dt != 0.1 {
		t.Errorf("DefaultConfig Dt = %v, want 0.1", cfg.Dt)
	}
	if cfg.T0 != 0 || cfg.T1 != 600 {
		t.Errorf("DefaultConfig span = (%v, %v), want (0, 600)", cfg.T0, cfg.T1)
	}
	if cfg.RTol != 1e-6 || cfg.ATol != 1e-6 {
		t.Errorf("DefaultConfig tolerances = (%v, %v), want 1e-6", cfg.RTol, cfg.ATol)
	}
	if cfg.MaxSteps <= 0 {
		t.Error("DefaultConfig has no step ceiling")
	}
}

func TestResultComponent(t *testing.T) {
	r := &Result{
		Times:  []float64{0, 1},
		States: []State{{1, 2}, {3, 4}},
		Status: StatusComplete,
	}

	got := r.Component(1)
	if len(got) != 2 || got[0] != 2 || got[1] != 4 {
		t.Errorf("Component(1) = %v, want [2 4]", got)
	}
	if r.Len() != 2 || !r.Complete() {
		t.Errorf("Len() = %d, Complete() = %v", r.Len(), r.Complete())
	}
}

func TestIntegrationError(t *testing.T) {
	err := &IntegrationError{Time: 1.5, Step: 150, Wrapped: ErrStepLimit}
	expected := "step 150 (t=1.5000): dynamo: step limit exceeded"
	if err.Error() != expected {
		t.Errorf("IntegrationError.Error() = %q, want %q", err.Error(), expected)
	}
	if err.Unwrap() != ErrStepLimit {
		t.Error("Unwrap did not return the wrapped error")
	}
}

func TestOutputGrid(t *testing.T) {
	tests := []struct {
		name   string
		t0, t1 float64
		dt     float64
		n      int
		last   float64
	}{
		{"default span", 0, 600, 0.1, 6001, 600},
		{"unit", 0, 1, 0.25, 5, 1},
		{"not a multiple", 0, 1, 0.3, 4, 0.9},
		{"offset start", 10, 11, 0.1, 11, 11},
		{"dt larger than span", 0, 1, 2, 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			grid := OutputGrid(tt.t0, tt.t1, tt.dt)
			if len(grid) != tt.n {
				t.Fatalf("len = %d, want %d", len(grid), tt.n)
			}
			if grid[0] != tt.t0 {
				t.Errorf("first = %v, want %v", grid[0], tt.t0)
			}
			if math.Abs(grid[len(grid)-1]-tt.last) > 1e-12 {
				t.Errorf("last = %v, want %v", grid[len(grid)-1], tt.last)
			}
			for i := 1; i < len(grid); i++ {
				if grid[i] <= grid[i-1] {
					t.Fatalf("grid not strictly increasing at %d: %v <= %v", i, grid[i], grid[i-1])
				}
				if grid[i] > tt.t1 {
					t.Fatalf("grid[%d] = %v beyond t1 = %v", i, grid[i], tt.t1)
				}
			}
		})
	}
}

func TestParallelFor(t *testing.T) {
	for _, workers := range []int{0, 1, 3, 64} {
		seen := make([]int, 10)
		ParallelFor(len(seen), workers, func(start, end int) {
			for i := start; i < end; i++ {
				seen[i]++
			}
		})
		for i, c := range seen {
			if c != 1 {
				t.Errorf("workers=%d: index %d visited %d times", workers, i, c)
			}
		}
	}
}
