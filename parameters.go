package vocab

import "fmt"

// NumParameters is the number of tunable memory-model weights.
const NumParameters = 8

// DefaultParameters are the memory-model weights used when a SchedulerConfig
// leaves Parameters zero.
var DefaultParameters = [NumParameters]float64{
	0.01, 4.93, // w[0..1] initial stability, initial difficulty
	0.1,        // w[2]    stability after the second review
	0.1, 0.02,  // w[3..4] difficulty rate, difficulty damping
	19, 0.5,    // w[5..6] stability growth base, elapsed-days exponent
	0.1,        // w[7]    steady-state stability floor
}

// LowerBounds defines the minimum allowed value for each parameter.
var LowerBounds = [NumParameters]float64{
	0.001, 1.0,
	0.001,
	0.0, 0.0,
	1.01, 0.0,
	0.001,
}

// UpperBounds defines the maximum allowed value for each parameter.
var UpperBounds = [NumParameters]float64{
	1.0, 10.0,
	10.0,
	1.0, 0.1,
	100.0, 2.0,
	10.0,
}

// ValidateParameters checks that every parameter is within [LowerBounds, UpperBounds].
func ValidateParameters(p [NumParameters]float64) error {
	for i := 0; i < NumParameters; i++ {
		if p[i] < LowerBounds[i] || p[i] > UpperBounds[i] {
			return fmt.Errorf("%w: w[%d] = %f, bounds [%f, %f]",
				ErrInvalidParameters, i, p[i], LowerBounds[i], UpperBounds[i])
		}
	}
	return nil
}
