// Package store defines persistence for vocabulary words, their memory
// states and their review history.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sky-flux/vocab"
)

var (
	// ErrNotFound is returned when no word has the requested ID.
	ErrNotFound = errors.New("store: word not found")

	// ErrDuplicate is returned when a word ID or term already exists.
	ErrDuplicate = errors.New("store: duplicate word")

	// ErrInvalidWord is returned when a word has an empty term.
	ErrInvalidWord = errors.New("store: invalid word")

	// ErrInvalidLog is returned when a review log's confidence is outside [0, 1].
	ErrInvalidLog = errors.New("store: invalid review log")
)

// Word is a catalog entry together with its memory state.
type Word struct {
	ID        string            `json:"id" yaml:"id"`
	Term      string            `json:"term" yaml:"term"`
	Meaning   string            `json:"meaning" yaml:"meaning"`
	CreatedAt time.Time         `json:"created_at" yaml:"created_at"`
	State     vocab.ReviewState `json:"state" yaml:"state"`

	// InitialState is the state the word entered the catalog with: the
	// never-reviewed default, or an imported state. Review history is
	// replayed on top of it.
	InitialState vocab.ReviewState `json:"initial_state" yaml:"initial_state"`
}

// Item returns the word as a scheduler item.
func (w Word) Item() vocab.Item {
	return vocab.Item{ID: w.ID, State: w.State}
}

// NewWord returns a never-reviewed word with a fresh ID, due at now.
// Term and meaning are trimmed; an empty term is rejected.
func NewWord(term, meaning string, now time.Time) (Word, error) {
	term, meaning = strings.TrimSpace(term), strings.TrimSpace(meaning)
	if term == "" {
		return Word{}, fmt.Errorf("%w: empty term", ErrInvalidWord)
	}
	st := vocab.NewReviewState(now)
	return Word{
		ID:           NewID(),
		Term:         term,
		Meaning:      meaning,
		CreatedAt:    now.Truncate(time.Millisecond),
		State:        st,
		InitialState: st,
	}, nil
}

// SameTerm reports whether two terms collide. Only ASCII letters fold, the
// same rule as SQLite's NOCASE collation.
func SameTerm(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		if lowerASCII(a[i]) != lowerASCII(b[i]) {
			return false
		}
	}
	return true
}

func lowerASCII(c byte) byte {
	if 'A' <= c && c <= 'Z' {
		return c + 'a' - 'A'
	}
	return c
}

// ValidLog reports whether a review log can be stored.
func ValidLog(log vocab.ReviewLog) error {
	if !(log.Confidence >= 0 && log.Confidence <= 1) {
		return fmt.Errorf("%w: confidence %v", ErrInvalidLog, log.Confidence)
	}
	return nil
}

// NewID returns a random word ID.
func NewID() string {
	return uuid.NewString()
}

// Store persists words and review logs.
//
// Snapshot and List return words in insertion order. Load and Save address
// only the memory state of a word; Save never creates a word.
// Implementations must be safe for concurrent use.
type Store interface {
	Load(ctx context.Context, id string) (vocab.ReviewState, error)
	Save(ctx context.Context, id string, state vocab.ReviewState) error
	Snapshot(ctx context.Context) ([]vocab.Item, error)

	Create(ctx context.Context, w Word) error
	Get(ctx context.Context, id string) (Word, error)
	List(ctx context.Context) ([]Word, error)
	Rename(ctx context.Context, id, term, meaning string) error
	Delete(ctx context.Context, id string) error

	AppendLog(ctx context.Context, log vocab.ReviewLog) error
	// Record saves state for log.ItemID and appends log as one write:
	// either both are stored or neither is.
	Record(ctx context.Context, state vocab.ReviewState, log vocab.ReviewLog) error
	Logs(ctx context.Context) ([]vocab.ReviewLog, error)

	Close() error
}
