package vocab

import (
	"math"
	"sort"
	"time"
)

// idlePoll is the poll hint returned when nothing is due.
const idlePoll = 5 * time.Minute

// Selection is the result of a due-set query.
type Selection struct {
	IDs []string `json:"ids"` // ascending stability, insertion order among ties.

	// NextPoll is the earliest NextReviewAt among the returned items, or
	// now + 5m when none are returned. It is advisory only.
	NextPoll time.Time `json:"next_poll"`
}

// Select returns up to limit due items, least stable first.
// A limit of zero or less selects up to DefaultLimit items. Items are read
// from the given snapshot only; the slice is not modified.
func (s *Scheduler) Select(items []Item, now time.Time, limit int) Selection {
	if limit <= 0 {
		limit = s.defaultLimit
	}

	due := make([]Item, 0, len(items))
	for _, it := range items {
		if s.IsDue(it.State, now) {
			due = append(due, it)
		}
	}
	sort.SliceStable(due, func(i, j int) bool {
		return lessStable(due[i].State.Stability, due[j].State.Stability)
	})
	if len(due) > limit {
		due = due[:limit]
	}

	sel := Selection{
		IDs:      make([]string, len(due)),
		NextPoll: now.Add(idlePoll),
	}
	for i, it := range due {
		sel.IDs[i] = it.ID
		at := it.State.NextReviewAt
		if at.IsZero() {
			at = now
		}
		if i == 0 || at.Before(sel.NextPoll) {
			sel.NextPoll = at
		}
	}
	return sel
}

// lessStable orders stabilities ascending with NaN first, so a corrupt
// state sorts as the least stable.
func lessStable(a, b float64) bool {
	if math.IsNaN(a) {
		return !math.IsNaN(b)
	}
	return a < b
}

// IsDue reports whether the state is eligible for review at now: it has never
// been reviewed, or now is within the grace window of NextReviewAt or later.
func (s *Scheduler) IsDue(state ReviewState, now time.Time) bool {
	if state.TotalReviews <= 0 || state.LastReviewedAt == nil {
		return true
	}
	return !now.Before(state.NextReviewAt.Add(-s.graceWindow))
}
