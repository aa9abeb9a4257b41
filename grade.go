package vocab

import (
	"fmt"
	"math"
)

// Grade maps an answer to a quality in [0, 1].
// A correct answer is worth its confidence; an incorrect answer is always 0.
func Grade(correct bool, confidence float64) float64 {
	if !correct {
		return 0
	}
	return clampUnit(confidence)
}

// ValidateQuality returns an error wrapping ErrInvalidQuality if q is not in [0, 1].
// Update clamps instead; this is for callers that prefer to reject input.
func ValidateQuality(q float64) error {
	if math.IsNaN(q) || q < 0 || q > 1 {
		return fmt.Errorf("%w: %f", ErrInvalidQuality, q)
	}
	return nil
}

// clampUnit clamps x to [0, 1]. NaN maps to 0.
func clampUnit(x float64) float64 {
	if math.IsNaN(x) {
		return 0
	}
	return math.Min(math.Max(x, 0), 1)
}
