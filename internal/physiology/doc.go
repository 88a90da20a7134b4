// Package physiology implements the Dalla Man oral-meal glucose-insulin model.
//
// The model has twelve compartments laid out as
//
//	[Gp Gt Il Ip Qsto1 Qsto2 Qgut I1 Id X Ipo Y]
//
// covering plasma and tissue glucose, liver and plasma insulin, the
// two-stage stomach and the gut, two delayed-insulin filters, insulin action
// on utilization, portal insulin and the delayed glucose feedback on
// secretion.
//
// Parameters travel in two forms. ParamSet is the loose map read from config
// files and flags. Params is the typed record the derivative reads;
// ParamsFromSet converts and fails with ErrMissingParameter, naming every
// absent key, before any integration starts.
//
//	params, err := physiology.ParamsFromSet(physiology.DefaultParamSet().Merge(overrides))
//	if err != nil {
//		return err
//	}
//	model := physiology.NewDallaMan(params)
//	x0 := model.InitialState(physiology.DefaultMeal)
//
// Derivative is a pure function. The quotients by V_I, V_G and K_m0+Gt are
// guarded to zero and hepatic clearance is capped when HE approaches one, so
// a valid parameter set never produces a division fault inside a step.
package physiology
