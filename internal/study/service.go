// Package study orchestrates reviews: it grades answers, runs the scheduler
// and persists the result, one review per word at a time.
package study

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sky-flux/vocab"
	"github.com/sky-flux/vocab/optimizer"
	"github.com/sky-flux/vocab/store"
)

// ErrIncompleteHistory is returned by Reschedule when the stored review logs
// account for fewer reviews than the word's state records.
var ErrIncompleteHistory = errors.New("study: review history is incomplete")

// Service is safe for concurrent use.
type Service struct {
	store store.Store
	sched *vocab.Scheduler
	now   func() time.Time
	log   *slog.Logger
	locks keyedMutex
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.log = l }
}

// New returns a Service over st using sched.
func New(st store.Store, sched *vocab.Scheduler, opts ...Option) *Service {
	s := &Service{
		store: st,
		sched: sched,
		now:   time.Now,
		log:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scheduler returns the scheduler in use.
func (s *Service) Scheduler() *vocab.Scheduler { return s.sched }

// Now returns the service clock reading.
func (s *Service) Now() time.Time { return s.now() }

// AddWord creates a never-reviewed word that is due immediately.
func (s *Service) AddWord(ctx context.Context, term, meaning string) (store.Word, error) {
	w, err := store.NewWord(term, meaning, s.now())
	if err != nil {
		return store.Word{}, err
	}
	if err := s.store.Create(ctx, w); err != nil {
		return store.Word{}, err
	}
	s.log.Debug("word added", "id", w.ID, "term", w.Term)
	return w, nil
}

// Word returns one word.
func (s *Service) Word(ctx context.Context, id string) (store.Word, error) {
	return s.store.Get(ctx, id)
}

// Words returns all words in insertion order.
func (s *Service) Words(ctx context.Context) ([]store.Word, error) {
	return s.store.List(ctx)
}

// RenameWord changes a word's term and meaning.
func (s *Service) RenameWord(ctx context.Context, id, term, meaning string) (store.Word, error) {
	if err := s.store.Rename(ctx, id, term, meaning); err != nil {
		return store.Word{}, err
	}
	return s.store.Get(ctx, id)
}

// DeleteWord removes a word and its history. It waits for an in-flight review
// of the same word to finish.
func (s *Service) DeleteWord(ctx context.Context, id string) error {
	unlock := s.locks.Lock(id)
	defer unlock()
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Debug("word deleted", "id", id)
	return nil
}

// Review grades an answer to word id and stores the resulting state and log.
// Reviews of the same word are serialized; reviews of different words run
// concurrently.
func (s *Service) Review(ctx context.Context, id string, correct bool, confidence float64) (vocab.ReviewState, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	prior, err := s.store.Load(ctx, id)
	if err != nil {
		return vocab.ReviewState{}, err
	}
	if err := vocab.Validate(prior); err != nil {
		s.log.Warn("reviewing malformed state", "id", id, "err", err)
	}

	item, log := s.sched.ReviewItem(vocab.Item{ID: id, State: prior}, correct, confidence, s.now())
	if err := s.store.Record(ctx, item.State, log); err != nil {
		s.log.Error("record review", "id", id, "err", err)
		return vocab.ReviewState{}, fmt.Errorf("record review of %s: %w", id, err)
	}

	s.log.Debug("word reviewed",
		"id", id,
		"correct", correct,
		"quality", item.State.LastGrade,
		"stage", vocab.StageOf(item.State),
		"stability", item.State.Stability,
		"next_review_at", item.State.NextReviewAt,
	)
	return item.State, nil
}

// DueSet is the ordered due subset of the catalog.
type DueSet struct {
	Words    []store.Word `json:"words"`
	NextPoll time.Time    `json:"next_poll"`
}

// Due returns up to limit due words, least stable first. A limit of zero or
// less uses the scheduler's default.
func (s *Service) Due(ctx context.Context, limit int) (DueSet, error) {
	words, err := s.store.List(ctx)
	if err != nil {
		return DueSet{}, err
	}

	items := make([]vocab.Item, len(words))
	byID := make(map[string]store.Word, len(words))
	for i, w := range words {
		items[i] = w.Item()
		byID[w.ID] = w
	}

	sel := s.sched.Select(items, s.now(), limit)
	due := DueSet{Words: make([]store.Word, len(sel.IDs)), NextPoll: sel.NextPoll}
	for i, id := range sel.IDs {
		due.Words[i] = byID[id]
	}
	return due, nil
}

// DueCount returns how many words are due now, without a limit.
func (s *Service) DueCount(ctx context.Context) (int, error) {
	items, err := s.store.Snapshot(ctx)
	if err != nil {
		return 0, err
	}
	now := s.now()
	n := 0
	for _, it := range items {
		if s.sched.IsDue(it.State, now) {
			n++
		}
	}
	return n, nil
}

// Stats summarizes the catalog.
type Stats struct {
	Words        int     `json:"words"`
	Reviews      int     `json:"reviews"`
	Successes    int     `json:"successes"`
	Accuracy     float64 `json:"accuracy"`
	DueNow       int     `json:"due_now"`
	ReviewsToday int     `json:"reviews_today"`
}

// Stats computes catalog totals. "Today" starts at midnight in the clock's location.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	items, err := s.store.Snapshot(ctx)
	if err != nil {
		return Stats{}, err
	}
	logs, err := s.store.Logs(ctx)
	if err != nil {
		return Stats{}, err
	}

	now := s.now()
	var st Stats
	st.Words = len(items)
	for _, it := range items {
		st.Reviews += it.State.TotalReviews
		st.Successes += it.State.SuccessCount
		if s.sched.IsDue(it.State, now) {
			st.DueNow++
		}
	}
	if st.Reviews > 0 {
		st.Accuracy = float64(st.Successes) / float64(st.Reviews)
	}

	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	for _, l := range logs {
		if !l.ReviewedAt.Before(midnight) && !l.ReviewedAt.After(now) {
			st.ReviewsToday++
		}
	}
	return st, nil
}

// Logs returns the full review history.
func (s *Service) Logs(ctx context.Context) ([]vocab.ReviewLog, error) {
	return s.store.Logs(ctx)
}

// Reschedule rebuilds a word's state by replaying its review history with
// the current scheduler, starting from the state it entered the catalog with.
// It refuses with ErrIncompleteHistory rather than lower the review counters.
func (s *Service) Reschedule(ctx context.Context, id string) (vocab.ReviewState, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	w, err := s.store.Get(ctx, id)
	if err != nil {
		return vocab.ReviewState{}, err
	}
	all, err := s.store.Logs(ctx)
	if err != nil {
		return vocab.ReviewState{}, err
	}
	var logs []vocab.ReviewLog
	for _, l := range all {
		if l.ItemID == id {
			logs = append(logs, l)
		}
	}

	item, err := s.sched.RescheduleItem(vocab.Item{ID: id, State: w.InitialState}, logs)
	if err != nil {
		return vocab.ReviewState{}, err
	}
	if item.State.TotalReviews < w.State.TotalReviews || item.State.SuccessCount < w.State.SuccessCount {
		s.log.Warn("reschedule refused", "id", id, "logs", len(logs), "total_reviews", w.State.TotalReviews)
		return vocab.ReviewState{}, fmt.Errorf("%w: %s has %d reviews, replay yields %d",
			ErrIncompleteHistory, id, w.State.TotalReviews, item.State.TotalReviews)
	}
	if err := s.store.Save(ctx, id, item.State); err != nil {
		return vocab.ReviewState{}, fmt.Errorf("save rescheduled %s: %w", id, err)
	}
	s.log.Debug("word rescheduled", "id", id, "reviews", len(logs))
	return item.State, nil
}

// Optimize fits model weights to the stored review history.
// With too little history it returns vocab.DefaultParameters and
// optimizer.ErrInsufficientData.
func (s *Service) Optimize(ctx context.Context, cfg optimizer.OptimizerConfig) ([vocab.NumParameters]float64, error) {
	logs, err := s.store.Logs(ctx)
	if err != nil {
		return [vocab.NumParameters]float64{}, err
	}
	start := time.Now()
	params, err := optimizer.NewOptimizer(cfg).ComputeOptimalParameters(ctx, logs)
	if err != nil && !errors.Is(err, optimizer.ErrInsufficientData) {
		s.log.Error("optimize", "logs", len(logs), "err", err)
		return params, err
	}
	s.log.Info("optimize finished", "logs", len(logs), "elapsed", time.Since(start), "err", err)
	return params, err
}

// ImportEntry is a word to import, optionally with a prior state.
type ImportEntry struct {
	Term    string
	Meaning string
	State   *vocab.ReviewState
}

// Import adds entries, skipping terms that already exist. Entries whose state
// is set keep it; malformed states are replaced with a fresh one.
func (s *Service) Import(ctx context.Context, entries []ImportEntry) (added, skipped int, err error) {
	for _, e := range entries {
		w, err := store.NewWord(e.Term, e.Meaning, s.now())
		if err != nil {
			return added, skipped, err
		}
		if e.State != nil {
			if verr := vocab.Validate(*e.State); verr != nil {
				s.log.Warn("import: resetting state", "term", w.Term, "err", verr)
			} else {
				w.State = *e.State
				w.InitialState = *e.State
			}
		}
		switch err := s.store.Create(ctx, w); {
		case errors.Is(err, store.ErrDuplicate):
			skipped++
		case err != nil:
			return added, skipped, err
		default:
			added++
		}
	}
	s.log.Info("import finished", "added", added, "skipped", skipped)
	return added, skipped, nil
}
