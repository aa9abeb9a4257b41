// Package memstore implements store.Store in memory.
package memstore

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/sky-flux/vocab"
	"github.com/sky-flux/vocab/store"
)

// Store keeps words in insertion order behind a RWMutex.
type Store struct {
	mu    sync.RWMutex
	order []string
	words map[string]store.Word
	logs  []vocab.ReviewLog
}

var _ store.Store = (*Store)(nil)

// New returns an empty Store.
func New() *Store {
	return &Store{words: make(map[string]store.Word)}
}

// copyState detaches the LastReviewedAt pointer from the caller's value.
func copyState(s vocab.ReviewState) vocab.ReviewState {
	if s.LastReviewedAt != nil {
		t := *s.LastReviewedAt
		s.LastReviewedAt = &t
	}
	return s
}

func copyWord(w store.Word) store.Word {
	w.State = copyState(w.State)
	w.InitialState = copyState(w.InitialState)
	return w
}

func (s *Store) termTaken(term, exceptID string) bool {
	for id, w := range s.words {
		if id != exceptID && store.SameTerm(w.Term, term) {
			return true
		}
	}
	return false
}

func (s *Store) Load(_ context.Context, id string) (vocab.ReviewState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.words[id]
	if !ok {
		return vocab.ReviewState{}, fmt.Errorf("%w: %s", store.ErrNotFound, id)
	}
	return copyState(w.State), nil
}

func (s *Store) Save(_ context.Context, id string, state vocab.ReviewState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.words[id]
	if !ok {
		return fmt.Errorf("%w: %s", store.ErrNotFound, id)
	}
	w.State = copyState(state)
	s.words[id] = w
	return nil
}

func (s *Store) Snapshot(_ context.Context) ([]vocab.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]vocab.Item, 0, len(s.order))
	for _, id := range s.order {
		items = append(items, vocab.Item{ID: id, State: copyState(s.words[id].State)})
	}
	return items, nil
}

func (s *Store) Create(_ context.Context, w store.Word) error {
	if strings.TrimSpace(w.Term) == "" {
		return fmt.Errorf("%w: empty term", store.ErrInvalidWord)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.words[w.ID]; ok {
		return fmt.Errorf("%w: id %s", store.ErrDuplicate, w.ID)
	}
	if s.termTaken(w.Term, "") {
		return fmt.Errorf("%w: term %q", store.ErrDuplicate, w.Term)
	}
	s.words[w.ID] = copyWord(w)
	s.order = append(s.order, w.ID)
	return nil
}

func (s *Store) Get(_ context.Context, id string) (store.Word, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.words[id]
	if !ok {
		return store.Word{}, fmt.Errorf("%w: %s", store.ErrNotFound, id)
	}
	return copyWord(w), nil
}

func (s *Store) List(_ context.Context) ([]store.Word, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	words := make([]store.Word, 0, len(s.order))
	for _, id := range s.order {
		words = append(words, copyWord(s.words[id]))
	}
	return words, nil
}

func (s *Store) Rename(_ context.Context, id, term, meaning string) error {
	term, meaning = strings.TrimSpace(term), strings.TrimSpace(meaning)
	if term == "" {
		return fmt.Errorf("%w: empty term", store.ErrInvalidWord)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.words[id]
	if !ok {
		return fmt.Errorf("%w: %s", store.ErrNotFound, id)
	}
	if s.termTaken(term, id) {
		return fmt.Errorf("%w: term %q", store.ErrDuplicate, term)
	}
	w.Term, w.Meaning = term, meaning
	s.words[id] = w
	return nil
}

// Delete removes the word and its review history.
func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.words[id]; !ok {
		return fmt.Errorf("%w: %s", store.ErrNotFound, id)
	}
	delete(s.words, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	kept := s.logs[:0]
	for _, l := range s.logs {
		if l.ItemID != id {
			kept = append(kept, l)
		}
	}
	s.logs = kept
	return nil
}

func (s *Store) AppendLog(_ context.Context, log vocab.ReviewLog) error {
	if err := store.ValidLog(log); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.words[log.ItemID]; !ok {
		return fmt.Errorf("%w: %s", store.ErrNotFound, log.ItemID)
	}
	s.appendLog(log)
	return nil
}

// Record saves the state and appends the log under one lock.
func (s *Store) Record(_ context.Context, state vocab.ReviewState, log vocab.ReviewLog) error {
	if err := store.ValidLog(log); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.words[log.ItemID]
	if !ok {
		return fmt.Errorf("%w: %s", store.ErrNotFound, log.ItemID)
	}
	w.State = copyState(state)
	s.words[log.ItemID] = w
	s.appendLog(log)
	return nil
}

func (s *Store) appendLog(log vocab.ReviewLog) {
	if log.ReviewDuration != nil {
		d := *log.ReviewDuration
		log.ReviewDuration = &d
	}
	s.logs = append(s.logs, log)
}

// Logs returns all review logs in append order.
func (s *Store) Logs(_ context.Context) ([]vocab.ReviewLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]vocab.ReviewLog, len(s.logs))
	copy(out, s.logs)
	return out, nil
}

func (s *Store) Close() error { return nil }
