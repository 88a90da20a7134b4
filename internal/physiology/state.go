package physiology

import (
	"fmt"

	"github.com/san-kum/glucosim/internal/dynamo"
)

// State vector layout. The derivative unpacks positionally in this order.
const (
	Gp    = iota // plasma glucose mass, mg/kg
	Gt           // tissue glucose mass, mg/kg
	Il           // liver insulin, pmol/kg
	Ip           // plasma insulin, pmol/kg
	Qsto1        // solid stomach content, mg
	Qsto2        // liquid stomach content, mg
	Qgut         // gut glucose mass, mg
	I1           // delayed insulin, first compartment
	Id           // delayed insulin, second compartment
	X            // insulin action on glucose utilization
	Ipo          // portal vein insulin
	Y            // delayed glucose feedback on secretion

	StateDim = 12
)

// DefaultMeal is the glucose bolus of the standard mixed meal, mg.
const DefaultMeal = 78000.0

var StateNames = [StateDim]string{"Gp", "Gt", "Il", "Ip", "Qsto1", "Qsto2", "Qgut", "I1", "Id", "X", "Ipo", "Y"}

var baseline = [StateDim]float64{178.0, 135.0, 4.5, 1.25, 0, 0.0, 0.0, 25.0, 25.0, 0.0, 3.6, 0.0}

// InitialState returns the fasting baseline with the meal placed in the
// first stomach compartment.
func InitialState(meal float64) dynamo.State {
	x := make(dynamo.State, StateDim)
	copy(x, baseline[:])
	x[Qsto1] = meal
	return x
}

// StateIndex maps a compartment name to its position.
func StateIndex(name string) (int, error) {
	for i, n := range StateNames {
		if n == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown state %q (want one of %v)", name, StateNames)
}
