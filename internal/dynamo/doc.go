// Package dynamo provides core simulation primitives for ODE systems.
//
// The package defines the fundamental interfaces and types for numerical
// integration of ordinary differential equations:
//
//   - [State]: vector representing system state
//   - [System]: interface for ODE systems (dX/dt = f(X, t))
//   - [Stepper]: single-step Runge-Kutta method with dense output
//   - [Simulator]: adaptive driver producing a [Result] on a fixed output grid
//   - [ParallelFor]: chunked fan-out for independent runs
//
// # Example
//
//	dyn := physiology.NewDallaMan(params)
//	s := dynamo.New(dyn, integrators.NewRK45())
//	result, err := s.Run(ctx, dyn.InitialState(78000), dynamo.DefaultConfig())
//
// # Failure
//
// A run that cannot finish (step budget, vanishing step, non-finite state,
// cancellation) returns an [*IntegrationError] together with the partial
// [Result], whose Status is [StatusFailed].
//
// # Thread Safety
//
// Simulator instances hold no per-run state and steppers are stateless, so
// one Simulator may serve concurrent Run calls with independent inputs.
package dynamo
