package vocab

import "errors"

// Sentinel errors for the vocab package.
// Use errors.Is to check: errors.Is(err, vocab.ErrMalformedState)
//
// Grade, Update and Select never return these; they clamp or self-heal.
// Validating callers use ValidateQuality and Validate to reject input upstream.
var (
	ErrInvalidQuality    = errors.New("vocab: quality out of range [0, 1]")
	ErrMalformedState    = errors.New("vocab: malformed review state")
	ErrInvalidParameters = errors.New("vocab: parameters out of bounds")
	ErrItemIDMismatch    = errors.New("vocab: item ID mismatch in review log")
)
