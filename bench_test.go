package vocab_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/sky-flux/vocab"
)

// BenchmarkUpdate measures a steady-state review.
func BenchmarkUpdate(b *testing.B) {
	s, err := vocab.NewScheduler(vocab.SchedulerConfig{})
	if err != nil {
		b.Fatal(err)
	}
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	state := vocab.NewReviewState(now)
	state = s.Update(1, state, now)
	state = s.Update(1, state, now.Add(5*time.Minute))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		now = now.Add(24 * time.Hour)
		state = s.Update(0.8, state, now)
	}
}

// BenchmarkSelect measures due-set selection over 10k items.
func BenchmarkSelect(b *testing.B) {
	s, err := vocab.NewScheduler(vocab.SchedulerConfig{})
	if err != nil {
		b.Fatal(err)
	}
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	items := make([]vocab.Item, 10000)
	for i := range items {
		st := vocab.NewReviewState(now)
		for j := 0; j < i%5; j++ {
			st = s.Update(float64(i%3)/2, st, now.Add(time.Duration(j)*time.Hour))
		}
		items[i] = vocab.Item{ID: fmt.Sprintf("w%d", i), State: st}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Select(items, now.Add(48*time.Hour), 10)
	}
}
