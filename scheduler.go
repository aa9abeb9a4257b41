package vocab

import (
	"encoding/json"
	"fmt"
	"time"
)

// SchedulerConfig configures a Scheduler.
// Zero values produce sensible defaults; see field comments.
type SchedulerConfig struct {
	Parameters      [NumParameters]float64 `json:"parameters"`       // zero → DefaultParameters
	GraceWindow     time.Duration          `json:"grace_window"`     // zero → 5m
	DefaultLimit    int                    `json:"default_limit"`    // zero → 10
	MaximumInterval int                    `json:"maximum_interval"` // days; zero → 365
	DisableRounding bool                   `json:"disable_rounding"` // zero false → stored reals rounded to 2 decimals
}

// Scheduler decides when items are next shown and which items are due.
// A Scheduler is immutable after construction and safe for concurrent use.
type Scheduler struct {
	model           model
	graceWindow     time.Duration
	defaultLimit    int
	maximumInterval int
	disableRounding bool
}

// NewScheduler creates a Scheduler from the given config.
// Zero-value fields are filled with defaults; invalid values return an error.
func NewScheduler(cfg SchedulerConfig) (*Scheduler, error) {
	params := cfg.Parameters
	if params == [NumParameters]float64{} {
		params = DefaultParameters
	}
	if err := ValidateParameters(params); err != nil {
		return nil, err
	}

	grace := cfg.GraceWindow
	if grace == 0 {
		grace = 5 * time.Minute
	}
	if grace < 0 {
		return nil, fmt.Errorf("vocab: grace window %v must not be negative", grace)
	}

	limit := cfg.DefaultLimit
	if limit == 0 {
		limit = 10
	}
	if limit < 0 {
		return nil, fmt.Errorf("vocab: default limit %d must be positive", limit)
	}

	maxIvl := cfg.MaximumInterval
	if maxIvl == 0 {
		maxIvl = 365
	}
	if maxIvl < 0 {
		return nil, fmt.Errorf("vocab: maximum interval %d must be positive", maxIvl)
	}

	return &Scheduler{
		model:           newModel(params, maxIvl),
		graceWindow:     grace,
		defaultLimit:    limit,
		maximumInterval: maxIvl,
		disableRounding: cfg.DisableRounding,
	}, nil
}

// Update computes the state that follows a review of the given quality at now.
// The prior state is not mutated. Quality is clamped to [0, 1] and a malformed
// prior is reset as if the item had never been reviewed.
//
// TotalReviews is incremented exactly once; SuccessCount is incremented when
// quality is positive.
func (s *Scheduler) Update(quality float64, prior ReviewState, now time.Time) ReviewState {
	now = now.Truncate(time.Millisecond)
	q := clampUnit(quality)

	next := prior.clone()
	next.repairCounters()

	switch StageOf(prior) {
	case NeverReviewed:
		s.model.initial(&next, now)
	case SecondReview:
		s.model.second(&next, now)
	case Steady:
		s.model.steady(&next, q, now)
	}

	next.LastGrade = q
	if !s.disableRounding {
		next.Stability = round2(next.Stability)
		next.Difficulty = round2(next.Difficulty)
		next.Retrievability = round2(next.Retrievability)
		next.LastGrade = round2(q)
	}
	next.LastReviewedAt = &now
	next.TotalReviews++
	if q > 0 {
		next.SuccessCount++
	}
	return next
}

// ReviewItem grades an answer and applies it to the item at the given time.
// It returns the updated item and a review log. The input item is not mutated.
func (s *Scheduler) ReviewItem(item Item, correct bool, confidence float64, now time.Time) (Item, ReviewLog) {
	out := Item{
		ID:    item.ID,
		State: s.Update(Grade(correct, confidence), item.State, now),
	}
	log := ReviewLog{
		ItemID:     item.ID,
		Correct:    correct,
		Confidence: clampUnit(confidence),
		ReviewedAt: now,
	}
	return out, log
}

// PreviewItem returns the state that would follow a fully confident correct
// answer (key true) and an incorrect answer (key false).
func (s *Scheduler) PreviewItem(state ReviewState, now time.Time) map[bool]ReviewState {
	return map[bool]ReviewState{
		true:  s.Update(Grade(true, 1), state, now),
		false: s.Update(Grade(false, 0), state, now),
	}
}

// RescheduleItem replays the given review logs on top of the item's state.
// Returns ErrItemIDMismatch if any log's ItemID does not match the item's ID.
func (s *Scheduler) RescheduleItem(item Item, logs []ReviewLog) (Item, error) {
	out := Item{ID: item.ID, State: item.State.clone()}
	for _, log := range logs {
		if log.ItemID != out.ID {
			return Item{}, fmt.Errorf("%w: item %q, log %q", ErrItemIDMismatch, out.ID, log.ItemID)
		}
		out, _ = s.ReviewItem(out, log.Correct, log.Confidence, log.ReviewedAt)
	}
	return out, nil
}

// Retrievability returns the probability of recall for the state at the given time.
// Returns 0 if the item has never been reviewed or its state is malformed.
func (s *Scheduler) Retrievability(state ReviewState, now time.Time) float64 {
	if state.LastReviewedAt == nil || state.malformed() {
		return 0
	}
	elapsed := max(float64(now.Sub(*state.LastReviewedAt))/float64(day), 0)
	return forgettingCurve(elapsed, state.Stability)
}

// GraceWindow returns how long before NextReviewAt an item becomes due.
func (s *Scheduler) GraceWindow() time.Duration { return s.graceWindow }

// DefaultLimit returns the due-set size used when Select is given no limit.
func (s *Scheduler) DefaultLimit() int { return s.defaultLimit }

// schedulerJSON is the serialized form of a Scheduler.
type schedulerJSON struct {
	Parameters      [NumParameters]float64 `json:"parameters"`
	GraceWindow     int64                  `json:"grace_window"` // nanoseconds
	DefaultLimit    int                    `json:"default_limit"`
	MaximumInterval int                    `json:"maximum_interval"`
	DisableRounding bool                   `json:"disable_rounding"`
}

// MarshalJSON implements json.Marshaler.
func (s *Scheduler) MarshalJSON() ([]byte, error) {
	return json.Marshal(schedulerJSON{
		Parameters:      s.model.w,
		GraceWindow:     int64(s.graceWindow),
		DefaultLimit:    s.defaultLimit,
		MaximumInterval: s.maximumInterval,
		DisableRounding: s.disableRounding,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
// It rebuilds the scheduler from the serialized config.
func (s *Scheduler) UnmarshalJSON(data []byte) error {
	var j schedulerJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	rebuilt, err := NewScheduler(SchedulerConfig{
		Parameters:      j.Parameters,
		GraceWindow:     time.Duration(j.GraceWindow),
		DefaultLimit:    j.DefaultLimit,
		MaximumInterval: j.MaximumInterval,
		DisableRounding: j.DisableRounding,
	})
	if err != nil {
		return err
	}
	*s = *rebuilt
	return nil
}
