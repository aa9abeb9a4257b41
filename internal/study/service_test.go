package study

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sky-flux/vocab"
	"github.com/sky-flux/vocab/optimizer"
	"github.com/sky-flux/vocab/store"
	"github.com/sky-flux/vocab/store/memstore"
)

var t0 = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

// clock is a settable test clock.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestService(t *testing.T) (*Service, *clock, store.Store) {
	t.Helper()
	sched, err := vocab.NewScheduler(vocab.SchedulerConfig{})
	require.NoError(t, err)
	st := memstore.New()
	c := &clock{now: t0}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(st, sched, WithClock(c.Now), WithLogger(logger)), c, st
}

func TestAddWord(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	w, err := svc.AddWord(ctx, " lucid ", "clear")
	require.NoError(t, err)
	assert.NotEmpty(t, w.ID)
	assert.Equal(t, "lucid", w.Term)
	assert.True(t, w.CreatedAt.Equal(t0))
	assert.Equal(t, vocab.NeverReviewed, vocab.StageOf(w.State))

	_, err = svc.AddWord(ctx, "lucid", "again")
	assert.ErrorIs(t, err, store.ErrDuplicate)

	_, err = svc.AddWord(ctx, "", "x")
	assert.ErrorIs(t, err, store.ErrInvalidWord)
}

func TestReviewStages(t *testing.T) {
	svc, c, _ := newTestService(t)
	ctx := context.Background()
	w, err := svc.AddWord(ctx, "lucid", "clear")
	require.NoError(t, err)

	st, err := svc.Review(ctx, w.ID, true, 0.8)
	require.NoError(t, err)
	assert.Equal(t, 1, st.TotalReviews)
	assert.Equal(t, 1, st.SuccessCount)
	assert.Equal(t, 0.01, st.Stability)
	assert.True(t, st.NextReviewAt.Equal(t0.Add(5*time.Minute)))

	c.Advance(5 * time.Minute)
	st, err = svc.Review(ctx, w.ID, false, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, st.TotalReviews)
	assert.Equal(t, 1, st.SuccessCount)
	assert.Equal(t, 0.1, st.Stability)

	c.Advance(2 * 24 * time.Hour)
	st, err = svc.Review(ctx, w.ID, true, 1)
	require.NoError(t, err)
	assert.Equal(t, vocab.Steady, vocab.StageOf(st))
	assert.Equal(t, 3, st.TotalReviews)

	logs, err := svc.Logs(ctx)
	require.NoError(t, err)
	require.Len(t, logs, 3)
	assert.False(t, logs[1].Correct)
	assert.True(t, logs[2].ReviewedAt.Equal(c.Now()))
}

func TestReviewNotFound(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Review(context.Background(), "missing", true, 1)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestReviewConcurrentSameWord(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	w, err := svc.AddWord(ctx, "lucid", "clear")
	require.NoError(t, err)

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Review(ctx, w.ID, true, 1)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// No update is lost.
	got, err := svc.Word(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, n, got.State.TotalReviews)
	assert.Equal(t, n, got.State.SuccessCount)
	assert.Zero(t, svc.locks.size())
}

func TestDue(t *testing.T) {
	svc, c, _ := newTestService(t)
	ctx := context.Background()

	a, err := svc.AddWord(ctx, "alpha", "")
	require.NoError(t, err)
	b, err := svc.AddWord(ctx, "beta", "")
	require.NoError(t, err)
	g, err := svc.AddWord(ctx, "gamma", "")
	require.NoError(t, err)

	// Ties on stability keep insertion order.
	_, err = svc.Review(ctx, a.ID, true, 1)
	require.NoError(t, err)

	due, err := svc.Due(ctx, 0)
	require.NoError(t, err)
	require.Len(t, due.Words, 3, "within the grace window alpha is still due")
	assert.Equal(t, a.ID, due.Words[0].ID)

	c.Advance(5 * time.Minute)
	_, err = svc.Review(ctx, a.ID, true, 1)
	require.NoError(t, err)

	// The second review raises alpha's stability to 0.1, so it sorts last.
	due, err = svc.Due(ctx, 0)
	require.NoError(t, err)
	ids := make([]string, len(due.Words))
	for i, w := range due.Words {
		ids[i] = w.ID
	}
	assert.Equal(t, []string{b.ID, g.ID, a.ID}, ids)
	assert.True(t, due.NextPoll.Equal(t0), "new words are due from creation")

	limited, err := svc.Due(ctx, 1)
	require.NoError(t, err)
	require.Len(t, limited.Words, 1)
	assert.Equal(t, b.ID, limited.Words[0].ID)
	assert.Equal(t, "beta", limited.Words[0].Term)
}

func TestDueEmpty(t *testing.T) {
	svc, _, _ := newTestService(t)
	due, err := svc.Due(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, due.Words)
	assert.NotNil(t, due.Words)
	assert.True(t, due.NextPoll.Equal(t0.Add(5*time.Minute)))
}

func TestDueCountAndStats(t *testing.T) {
	svc, c, _ := newTestService(t)
	ctx := context.Background()

	a, err := svc.AddWord(ctx, "alpha", "")
	require.NoError(t, err)
	_, err = svc.AddWord(ctx, "beta", "")
	require.NoError(t, err)

	_, err = svc.Review(ctx, a.ID, true, 1)
	require.NoError(t, err)
	c.Advance(5 * time.Minute)
	_, err = svc.Review(ctx, a.ID, false, 0)
	require.NoError(t, err)

	n, err := svc.DueCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n, "alpha is within the grace window of its next review")

	c.Advance(time.Minute)
	n, err = svc.DueCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{
		Words:        2,
		Reviews:      2,
		Successes:    1,
		Accuracy:     0.5,
		DueNow:       2,
		ReviewsToday: 2,
	}, stats)

	// The next day, yesterday's reviews no longer count.
	c.Advance(24 * time.Hour)
	stats, err = svc.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.ReviewsToday)
}

func TestRenameAndDelete(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	w, err := svc.AddWord(ctx, "alpha", "")
	require.NoError(t, err)

	got, err := svc.RenameWord(ctx, w.ID, "alef", "first letter")
	require.NoError(t, err)
	assert.Equal(t, "alef", got.Term)
	assert.Equal(t, "first letter", got.Meaning)

	require.NoError(t, svc.DeleteWord(ctx, w.ID))
	_, err = svc.Word(ctx, w.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, svc.DeleteWord(ctx, w.ID), store.ErrNotFound)
}

func TestReschedule(t *testing.T) {
	svc, c, _ := newTestService(t)
	ctx := context.Background()
	w, err := svc.AddWord(ctx, "alpha", "")
	require.NoError(t, err)

	var last vocab.ReviewState
	for _, step := range []time.Duration{0, 5 * time.Minute, 2 * 24 * time.Hour, 3 * 24 * time.Hour} {
		c.Advance(step)
		last, err = svc.Review(ctx, w.ID, true, 0.9)
		require.NoError(t, err)
	}

	replayed, err := svc.Reschedule(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, last.TotalReviews, replayed.TotalReviews)
	assert.Equal(t, last.Stability, replayed.Stability)
	assert.Equal(t, last.Difficulty, replayed.Difficulty)
	assert.True(t, last.NextReviewAt.Equal(replayed.NextReviewAt))

	_, err = svc.Reschedule(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRescheduleImportedWord(t *testing.T) {
	svc, c, _ := newTestService(t)
	ctx := context.Background()

	last := t0.Add(-3 * 24 * time.Hour)
	imported := vocab.ReviewState{
		LastReviewedAt: &last,
		Stability:      4,
		Difficulty:     5,
		Retrievability: 0.9,
		NextReviewAt:   t0,
		TotalReviews:   12,
		SuccessCount:   10,
	}
	_, _, err := svc.Import(ctx, []ImportEntry{{Term: "alpha", State: &imported}})
	require.NoError(t, err)
	words, err := svc.Words(ctx)
	require.NoError(t, err)
	id := words[0].ID

	c.Advance(time.Hour)
	reviewed, err := svc.Review(ctx, id, true, 1)
	require.NoError(t, err)
	require.Equal(t, 13, reviewed.TotalReviews)

	replayed, err := svc.Reschedule(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 13, replayed.TotalReviews)
	assert.Equal(t, 11, replayed.SuccessCount)
	assert.Equal(t, reviewed.Stability, replayed.Stability)
	assert.Equal(t, reviewed.Difficulty, replayed.Difficulty)
	assert.True(t, reviewed.NextReviewAt.Equal(replayed.NextReviewAt))
}

func TestRescheduleIncompleteHistory(t *testing.T) {
	svc, _, st := newTestService(t)
	ctx := context.Background()
	w, err := svc.AddWord(ctx, "alpha", "")
	require.NoError(t, err)

	// Counters recorded without logs, as after a lost history.
	last := t0
	orphan := vocab.ReviewState{
		LastReviewedAt: &last,
		Stability:      2,
		Difficulty:     5,
		NextReviewAt:   t0.Add(48 * time.Hour),
		TotalReviews:   3,
		SuccessCount:   3,
	}
	require.NoError(t, st.Save(ctx, w.ID, orphan))

	_, err = svc.Reschedule(ctx, w.ID)
	assert.ErrorIs(t, err, ErrIncompleteHistory)

	got, err := st.Load(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.TotalReviews)
	assert.Equal(t, 2.0, got.Stability)
}

// failingRecords is a store whose review writes always fail.
type failingRecords struct {
	store.Store
}

func (failingRecords) Record(context.Context, vocab.ReviewState, vocab.ReviewLog) error {
	return errors.New("disk full")
}

func TestReviewRecordFailure(t *testing.T) {
	sched, err := vocab.NewScheduler(vocab.SchedulerConfig{})
	require.NoError(t, err)
	mem := memstore.New()
	svc := New(failingRecords{mem}, sched,
		WithClock(func() time.Time { return t0 }),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	ctx := context.Background()

	w, err := svc.AddWord(ctx, "alpha", "")
	require.NoError(t, err)

	_, err = svc.Review(ctx, w.ID, true, 1)
	assert.ErrorContains(t, err, "disk full")

	got, err := mem.Load(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.TotalReviews)
	logs, err := mem.Logs(ctx)
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestOptimizeInsufficientData(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Optimize(ctx, optimizer.OptimizerConfig{})
	assert.ErrorIs(t, err, optimizer.ErrEmptyLogs)

	w, err := svc.AddWord(ctx, "alpha", "")
	require.NoError(t, err)
	_, err = svc.Review(ctx, w.ID, true, 1)
	require.NoError(t, err)

	params, err := svc.Optimize(ctx, optimizer.OptimizerConfig{})
	assert.ErrorIs(t, err, optimizer.ErrInsufficientData)
	assert.Equal(t, vocab.DefaultParameters, params)
}

func TestImport(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.AddWord(ctx, "alpha", "")
	require.NoError(t, err)

	last := t0.Add(-24 * time.Hour)
	kept := vocab.ReviewState{
		LastReviewedAt: &last,
		Stability:      3,
		Difficulty:     5,
		Retrievability: 0.8,
		NextReviewAt:   t0.Add(5 * 24 * time.Hour),
		TotalReviews:   4,
		SuccessCount:   4,
	}
	broken := vocab.ReviewState{Stability: -1}

	added, skipped, err := svc.Import(ctx, []ImportEntry{
		{Term: "alpha"},
		{Term: "beta", Meaning: "second", State: &kept},
		{Term: "gamma", State: &broken},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, added)
	assert.Equal(t, 1, skipped)

	words, err := svc.Words(ctx)
	require.NoError(t, err)
	require.Len(t, words, 3)
	assert.Equal(t, 4, words[1].State.TotalReviews)
	assert.Equal(t, vocab.NeverReviewed, vocab.StageOf(words[2].State))

	_, _, err = svc.Import(ctx, []ImportEntry{{Term: " "}})
	assert.ErrorIs(t, err, store.ErrInvalidWord)
}

func TestKeyedMutexSerializes(t *testing.T) {
	var k keyedMutex
	unlock := k.Lock("a")

	acquired := make(chan struct{})
	go func() {
		u := k.Lock("a")
		close(acquired)
		u()
	}()

	// A different key is not blocked.
	k.Lock("b")()

	select {
	case <-acquired:
		t.Fatal("second Lock(a) acquired while held")
	case <-time.After(20 * time.Millisecond):
	}
	unlock()
	<-acquired
	assert.Zero(t, k.size())
}
