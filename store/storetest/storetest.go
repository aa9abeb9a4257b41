// Package storetest provides a conformance suite for store.Store implementations.
package storetest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sky-flux/vocab"
	"github.com/sky-flux/vocab/store"
)

var t0 = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

// Run exercises every store.Store operation against fresh stores from open.
func Run(t *testing.T, open func(t *testing.T) store.Store) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s store.Store)
	}{
		{"CreateGet", testCreateGet},
		{"CreateDuplicate", testCreateDuplicate},
		{"CreateInvalid", testCreateInvalid},
		{"ListInsertionOrder", testListInsertionOrder},
		{"LoadSave", testLoadSave},
		{"NotFound", testNotFound},
		{"Snapshot", testSnapshot},
		{"Rename", testRename},
		{"Delete", testDelete},
		{"Logs", testLogs},
		{"LogRejectsBadConfidence", testLogRejectsBadConfidence},
		{"Record", testRecord},
		{"RecordIsAtomic", testRecordIsAtomic},
		{"InitialState", testInitialState},
		{"TermFoldsASCIIOnly", testTermFoldsASCIIOnly},
		{"ConcurrentSaves", testConcurrentSaves},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := open(t)
			t.Cleanup(func() { _ = s.Close() })
			tt.fn(t, s)
		})
	}
}

func mustWord(t *testing.T, s store.Store, term string) store.Word {
	t.Helper()
	w, err := store.NewWord(term, "meaning of "+term, t0)
	require.NoError(t, err)
	require.NoError(t, s.Create(context.Background(), w))
	return w
}

func reviewed() vocab.ReviewState {
	last := t0.Add(time.Hour)
	return vocab.ReviewState{
		LastReviewedAt: &last,
		Stability:      2.5,
		Difficulty:     5.25,
		Retrievability: 0.81,
		NextReviewAt:   t0.Add(5*24*time.Hour + 123*time.Millisecond),
		TotalReviews:   4,
		SuccessCount:   3,
		LastGrade:      0.75,
	}
}

func assertState(t *testing.T, want, got vocab.ReviewState) {
	t.Helper()
	if want.LastReviewedAt == nil {
		assert.Nil(t, got.LastReviewedAt)
	} else if assert.NotNil(t, got.LastReviewedAt) {
		assert.True(t, want.LastReviewedAt.Equal(*got.LastReviewedAt), "LastReviewedAt %v != %v", *want.LastReviewedAt, *got.LastReviewedAt)
	}
	assert.True(t, want.NextReviewAt.Equal(got.NextReviewAt), "NextReviewAt %v != %v", want.NextReviewAt, got.NextReviewAt)
	assert.Equal(t, want.Stability, got.Stability)
	assert.Equal(t, want.Difficulty, got.Difficulty)
	assert.Equal(t, want.Retrievability, got.Retrievability)
	assert.Equal(t, want.TotalReviews, got.TotalReviews)
	assert.Equal(t, want.SuccessCount, got.SuccessCount)
	assert.Equal(t, want.LastGrade, got.LastGrade)
}

func testCreateGet(t *testing.T, s store.Store) {
	ctx := context.Background()
	w := mustWord(t, s, "lucid")

	got, err := s.Get(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, w.ID, got.ID)
	assert.Equal(t, "lucid", got.Term)
	assert.Equal(t, "meaning of lucid", got.Meaning)
	assert.True(t, w.CreatedAt.Equal(got.CreatedAt))
	assertState(t, w.State, got.State)
	assert.Equal(t, vocab.NeverReviewed, vocab.StageOf(got.State))
}

func testCreateDuplicate(t *testing.T, s store.Store) {
	ctx := context.Background()
	w := mustWord(t, s, "lucid")

	again, err := store.NewWord("LUCID", "", t0)
	require.NoError(t, err)
	assert.ErrorIs(t, s.Create(ctx, again), store.ErrDuplicate)

	sameID := w
	sameID.Term = "limpid"
	assert.ErrorIs(t, s.Create(ctx, sameID), store.ErrDuplicate)

	words, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, words, 1)
}

func testCreateInvalid(t *testing.T, s store.Store) {
	w := store.Word{ID: store.NewID(), Term: "  ", State: vocab.NewReviewState(t0)}
	assert.ErrorIs(t, s.Create(context.Background(), w), store.ErrInvalidWord)
}

func testListInsertionOrder(t *testing.T, s store.Store) {
	ctx := context.Background()
	terms := []string{"zephyr", "apple", "mango", "kiwi"}
	for _, term := range terms {
		mustWord(t, s, term)
	}

	words, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, words, len(terms))
	for i, w := range words {
		assert.Equal(t, terms[i], w.Term)
	}
}

func testLoadSave(t *testing.T, s store.Store) {
	ctx := context.Background()
	w := mustWord(t, s, "lucid")

	st, err := s.Load(ctx, w.ID)
	require.NoError(t, err)
	assertState(t, w.State, st)

	want := reviewed()
	require.NoError(t, s.Save(ctx, w.ID, want))

	got, err := s.Load(ctx, w.ID)
	require.NoError(t, err)
	assertState(t, want, got)

	// Mutating the caller's value after Save must not leak into the store.
	*want.LastReviewedAt = t0.Add(99 * time.Hour)
	got, err = s.Load(ctx, w.ID)
	require.NoError(t, err)
	assert.True(t, got.LastReviewedAt.Equal(t0.Add(time.Hour)))
}

func testNotFound(t *testing.T, s store.Store) {
	ctx := context.Background()
	id := store.NewID()

	_, err := s.Load(ctx, id)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, s.Save(ctx, id, reviewed()), store.ErrNotFound)
	_, err = s.Get(ctx, id)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, s.Rename(ctx, id, "x", "y"), store.ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, id), store.ErrNotFound)
	assert.ErrorIs(t, s.AppendLog(ctx, vocab.ReviewLog{ItemID: id, ReviewedAt: t0}), store.ErrNotFound)
}

func testSnapshot(t *testing.T, s store.Store) {
	ctx := context.Background()

	items, err := s.Snapshot(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)

	a := mustWord(t, s, "alpha")
	b := mustWord(t, s, "beta")
	require.NoError(t, s.Save(ctx, b.ID, reviewed()))

	items, err = s.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, a.ID, items[0].ID)
	assert.Equal(t, b.ID, items[1].ID)
	assertState(t, a.State, items[0].State)
	assertState(t, reviewed(), items[1].State)
}

func testRename(t *testing.T, s store.Store) {
	ctx := context.Background()
	a := mustWord(t, s, "alpha")
	mustWord(t, s, "beta")

	require.NoError(t, s.Rename(ctx, a.ID, " gamma ", "third letter"))
	got, err := s.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "gamma", got.Term)
	assert.Equal(t, "third letter", got.Meaning)

	// Renaming to its own term is allowed; taking another word's term is not.
	assert.NoError(t, s.Rename(ctx, a.ID, "Gamma", "third letter"))
	assert.ErrorIs(t, s.Rename(ctx, a.ID, "beta", ""), store.ErrDuplicate)
	assert.ErrorIs(t, s.Rename(ctx, a.ID, "", ""), store.ErrInvalidWord)
}

func testDelete(t *testing.T, s store.Store) {
	ctx := context.Background()
	a := mustWord(t, s, "alpha")
	b := mustWord(t, s, "beta")
	require.NoError(t, s.AppendLog(ctx, vocab.ReviewLog{ItemID: a.ID, Correct: true, Confidence: 1, ReviewedAt: t0}))
	require.NoError(t, s.AppendLog(ctx, vocab.ReviewLog{ItemID: b.ID, Correct: false, ReviewedAt: t0}))

	require.NoError(t, s.Delete(ctx, a.ID))

	_, err := s.Get(ctx, a.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	words, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, words, 1)
	assert.Equal(t, b.ID, words[0].ID)

	logs, err := s.Logs(ctx)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, b.ID, logs[0].ItemID)

	// The term is free again.
	mustWord(t, s, "alpha")
}

func testLogs(t *testing.T, s store.Store) {
	ctx := context.Background()
	w := mustWord(t, s, "alpha")
	dur := 1500

	in := []vocab.ReviewLog{
		{ItemID: w.ID, Correct: true, Confidence: 0.8, ReviewedAt: t0, ReviewDuration: &dur},
		{ItemID: w.ID, Correct: false, Confidence: 0, ReviewedAt: t0.Add(5 * time.Minute)},
	}
	for _, l := range in {
		require.NoError(t, s.AppendLog(ctx, l))
	}

	logs, err := s.Logs(ctx)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	for i := range in {
		assert.Equal(t, in[i].ItemID, logs[i].ItemID)
		assert.Equal(t, in[i].Correct, logs[i].Correct)
		assert.Equal(t, in[i].Confidence, logs[i].Confidence)
		assert.True(t, in[i].ReviewedAt.Equal(logs[i].ReviewedAt))
	}
	require.NotNil(t, logs[0].ReviewDuration)
	assert.Equal(t, 1500, *logs[0].ReviewDuration)
	assert.Nil(t, logs[1].ReviewDuration)
}

func testConcurrentSaves(t *testing.T, s store.Store) {
	ctx := context.Background()
	ids := make([]string, 8)
	for i := range ids {
		ids[i] = mustWord(t, s, fmt.Sprintf("word-%d", i)).ID
	}

	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			st := reviewed()
			st.TotalReviews = i + 10
			assert.NoError(t, s.Save(ctx, id, st))
		}()
	}
	wg.Wait()

	for i, id := range ids {
		st, err := s.Load(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, i+10, st.TotalReviews)
	}
}

func testLogRejectsBadConfidence(t *testing.T, s store.Store) {
	ctx := context.Background()
	w := mustWord(t, s, "alpha")

	err := s.AppendLog(ctx, vocab.ReviewLog{ItemID: w.ID, Correct: true, Confidence: 1.5, ReviewedAt: t0})
	assert.ErrorIs(t, err, store.ErrInvalidLog)

	logs, err := s.Logs(ctx)
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func testRecord(t *testing.T, s store.Store) {
	ctx := context.Background()
	w := mustWord(t, s, "alpha")
	want := reviewed()

	require.NoError(t, s.Record(ctx, want, vocab.ReviewLog{ItemID: w.ID, Correct: true, Confidence: 0.75, ReviewedAt: t0.Add(time.Hour)}))

	got, err := s.Load(ctx, w.ID)
	require.NoError(t, err)
	assertState(t, want, got)

	logs, err := s.Logs(ctx)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, w.ID, logs[0].ItemID)

	err = s.Record(ctx, want, vocab.ReviewLog{ItemID: "missing", Confidence: 1, ReviewedAt: t0})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

// testRecordIsAtomic stores a state whose log write then fails; the state
// must not be kept.
func testRecordIsAtomic(t *testing.T, s store.Store) {
	ctx := context.Background()
	w := mustWord(t, s, "alpha")

	err := s.Record(ctx, reviewed(), vocab.ReviewLog{ItemID: w.ID, Correct: true, Confidence: 1.5, ReviewedAt: t0})
	require.ErrorIs(t, err, store.ErrInvalidLog)

	got, err := s.Load(ctx, w.ID)
	require.NoError(t, err)
	assertState(t, w.State, got)

	logs, err := s.Logs(ctx)
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func testInitialState(t *testing.T, s store.Store) {
	ctx := context.Background()

	fresh := mustWord(t, s, "alpha")
	got, err := s.Get(ctx, fresh.ID)
	require.NoError(t, err)
	assertState(t, fresh.InitialState, got.InitialState)

	imported, err := store.NewWord("beta", "", t0)
	require.NoError(t, err)
	imported.State = reviewed()
	imported.InitialState = reviewed()
	require.NoError(t, s.Create(ctx, imported))

	// Later saves leave the initial state alone.
	next := reviewed()
	next.TotalReviews++
	require.NoError(t, s.Save(ctx, imported.ID, next))

	got, err = s.Get(ctx, imported.ID)
	require.NoError(t, err)
	assertState(t, reviewed(), got.InitialState)
	assert.Equal(t, next.TotalReviews, got.State.TotalReviews)
}

func testTermFoldsASCIIOnly(t *testing.T, s store.Store) {
	ctx := context.Background()
	mustWord(t, s, "Äpfel")
	mustWord(t, s, "äpfel")

	again, err := store.NewWord("äPFEL", "", t0)
	require.NoError(t, err)
	assert.ErrorIs(t, s.Create(ctx, again), store.ErrDuplicate)

	words, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, words, 2)
}
