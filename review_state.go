package vocab

import (
	"fmt"
	"math"
	"time"
)

// ReviewState is the per-item memory state maintained by the scheduler.
type ReviewState struct {
	LastReviewedAt *time.Time `json:"last_reviewed_at" yaml:"last_reviewed_at,omitempty"` // nil before first review.
	Stability      float64    `json:"stability" yaml:"stability"`                         // days until recall decays to 90%.
	Difficulty     float64    `json:"difficulty" yaml:"difficulty"`                       // [1, 10].
	Retrievability float64    `json:"retrievability" yaml:"retrievability"`               // expected recall at NextReviewAt.
	NextReviewAt   time.Time  `json:"next_review_at" yaml:"next_review_at"`
	TotalReviews   int        `json:"total_reviews" yaml:"total_reviews"`
	SuccessCount   int        `json:"success_count" yaml:"success_count"`
	LastGrade      float64    `json:"last_grade" yaml:"last_grade"` // audit only; not a scheduler input.
}

// Item pairs an opaque item identifier with its review state.
type Item struct {
	ID    string      `json:"id"`
	State ReviewState `json:"state"`
}

// NewReviewState returns the state of an item that has never been reviewed.
// NextReviewAt is set to now (immediately reviewable).
func NewReviewState(now time.Time) ReviewState {
	return ReviewState{
		Stability:    DefaultParameters[0],
		Difficulty:   DefaultParameters[1],
		NextReviewAt: now.Truncate(time.Millisecond),
	}
}

// Validate reports whether s satisfies the review-state invariants.
// The returned error wraps ErrMalformedState.
func Validate(s ReviewState) error {
	switch {
	case math.IsNaN(s.Stability) || s.Stability <= 0:
		return fmt.Errorf("%w: stability %f must be positive", ErrMalformedState, s.Stability)
	case math.IsNaN(s.Difficulty) || s.Difficulty < 1 || s.Difficulty > 10:
		return fmt.Errorf("%w: difficulty %f out of range [1, 10]", ErrMalformedState, s.Difficulty)
	case math.IsNaN(s.Retrievability) || s.Retrievability < 0 || s.Retrievability > 1:
		return fmt.Errorf("%w: retrievability %f out of range [0, 1]", ErrMalformedState, s.Retrievability)
	case s.TotalReviews < 0 || s.SuccessCount < 0:
		return fmt.Errorf("%w: negative review counters", ErrMalformedState)
	case s.SuccessCount > s.TotalReviews:
		return fmt.Errorf("%w: success count %d exceeds total reviews %d",
			ErrMalformedState, s.SuccessCount, s.TotalReviews)
	case s.TotalReviews > 0 && s.LastReviewedAt == nil:
		return fmt.Errorf("%w: %d reviews without a last review time", ErrMalformedState, s.TotalReviews)
	case s.LastReviewedAt != nil && s.NextReviewAt.Before(*s.LastReviewedAt):
		return fmt.Errorf("%w: next review precedes last review", ErrMalformedState)
	}
	return nil
}

// malformed reports whether the memory model must reset s to the initial
// defaults. Counter and timestamp inconsistencies that the model can repair
// on its own are not considered here.
func (s ReviewState) malformed() bool {
	if math.IsNaN(s.Stability) || s.Stability <= 0 {
		return true
	}
	if math.IsNaN(s.Difficulty) || s.Difficulty < 1 || s.Difficulty > 10 {
		return true
	}
	return s.TotalReviews > 0 && s.LastReviewedAt == nil
}

// clone returns a deep copy of the state.
func (s ReviewState) clone() ReviewState {
	out := s
	if s.LastReviewedAt != nil {
		v := *s.LastReviewedAt
		out.LastReviewedAt = &v
	}
	return out
}

// repairCounters restores the counter invariants before they are incremented.
func (s *ReviewState) repairCounters() {
	s.TotalReviews = max(s.TotalReviews, 0)
	s.SuccessCount = min(max(s.SuccessCount, 0), s.TotalReviews)
}

// Accuracy returns SuccessCount / TotalReviews, or 0 before any review.
func (s ReviewState) Accuracy() float64 {
	if s.TotalReviews <= 0 {
		return 0
	}
	return float64(s.SuccessCount) / float64(s.TotalReviews)
}
