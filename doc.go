// Package vocab implements the review-scheduling engine of a vocabulary
// trainer: a memory model that updates an item's stability, difficulty and
// next review time after each answer, and a due-set selector that picks
// which items to show now.
//
// The package owns no storage and performs no I/O. Callers load a
// ReviewState, apply a review, persist the result, and pass a snapshot of
// all items to Select.
//
// Basic usage:
//
//	s, err := vocab.NewScheduler(vocab.SchedulerConfig{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	state := vocab.NewReviewState(time.Now())
//	state = s.Update(vocab.Grade(true, 0.8), state, time.Now())
//	due := s.Select(items, time.Now(), 10)
//
// Items move through three stages keyed on their review count
// (see Stage): the first two reviews re-show the item after five minutes,
// later reviews follow an exponential forgetting curve anchored at 90%
// recall.
package vocab
