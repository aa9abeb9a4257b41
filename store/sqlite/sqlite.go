// Package sqlite implements store.Store on an embedded SQLite database.
//
// The schema is managed by goose migrations embedded in the binary. Times are
// stored as Unix milliseconds in UTC.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/sky-flux/vocab"
	"github.com/sky-flux/vocab/store"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Store is a store.Store backed by SQLite.
type Store struct {
	conn *sql.DB
}

var _ store.Store = (*Store)(nil)

// Open opens (or creates) the database at path and applies pending migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	conn, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// One connection serializes writers and keeps reads consistent.
	conn.SetMaxOpenConns(1)

	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	migrations, err := fs.Sub(migrationFS, "migrations")
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("migrations sub-fs: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectSQLite3, conn, migrations)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("create migration provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}

	return &Store{conn: conn}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

const (
	stateColumns = `last_reviewed_at, stability, difficulty, retrievability, next_review_at, total_reviews, success_count, last_grade`
	wordColumns  = `id, term, meaning, created_at, initial_state, ` + stateColumns
)

type scanner interface{ Scan(...any) error }

func toMillis(t time.Time) int64 { return t.UnixMilli() }

func fromMillis(ms int64) time.Time { return time.UnixMilli(ms).UTC() }

func scanState(row scanner, dest ...any) (vocab.ReviewState, error) {
	var (
		st   vocab.ReviewState
		last sql.NullInt64
		next int64
	)
	dest = append(dest, &last, &st.Stability, &st.Difficulty, &st.Retrievability, &next, &st.TotalReviews, &st.SuccessCount, &st.LastGrade)
	if err := row.Scan(dest...); err != nil {
		return vocab.ReviewState{}, err
	}
	if last.Valid {
		t := fromMillis(last.Int64)
		st.LastReviewedAt = &t
	}
	st.NextReviewAt = fromMillis(next)
	return st, nil
}

func scanWord(row scanner) (store.Word, error) {
	var (
		w       store.Word
		created int64
		initial string
	)
	st, err := scanState(row, &w.ID, &w.Term, &w.Meaning, &created, &initial)
	if err != nil {
		return store.Word{}, err
	}
	w.CreatedAt = fromMillis(created)
	w.State = st
	// Rows from before initial_state existed start from the default.
	w.InitialState = vocab.NewReviewState(w.CreatedAt)
	if initial != "" {
		if err := json.Unmarshal([]byte(initial), &w.InitialState); err != nil {
			return store.Word{}, fmt.Errorf("decode initial state of %s: %w", w.ID, err)
		}
	}
	return w, nil
}

func stateArgs(st vocab.ReviewState) []any {
	var last sql.NullInt64
	if st.LastReviewedAt != nil {
		last = sql.NullInt64{Int64: toMillis(*st.LastReviewedAt), Valid: true}
	}
	return []any{last, st.Stability, st.Difficulty, st.Retrievability, toMillis(st.NextReviewAt), st.TotalReviews, st.SuccessCount, st.LastGrade}
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func isCheckViolation(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "CHECK constraint failed") ||
		strings.Contains(err.Error(), "NOT NULL constraint failed"))
}

func notFound(id string) error {
	return fmt.Errorf("%w: %s", store.ErrNotFound, id)
}

// Load returns the memory state of a word.
func (s *Store) Load(ctx context.Context, id string) (vocab.ReviewState, error) {
	row := s.conn.QueryRowContext(ctx, `SELECT `+stateColumns+` FROM words WHERE id = ?`, id)
	st, err := scanState(row)
	if errors.Is(err, sql.ErrNoRows) {
		return vocab.ReviewState{}, notFound(id)
	}
	if err != nil {
		return vocab.ReviewState{}, fmt.Errorf("load word %s: %w", id, err)
	}
	return st, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Save replaces the memory state of an existing word.
func (s *Store) Save(ctx context.Context, id string, state vocab.ReviewState) error {
	return saveState(ctx, s.conn, id, state)
}

func saveState(ctx context.Context, db execer, id string, state vocab.ReviewState) error {
	args := append(stateArgs(state), id)
	res, err := db.ExecContext(ctx,
		`UPDATE words SET last_reviewed_at = ?, stability = ?, difficulty = ?, retrievability = ?,
		 next_review_at = ?, total_reviews = ?, success_count = ?, last_grade = ? WHERE id = ?`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("save word %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("save word %s: %w", id, err)
	} else if n == 0 {
		return notFound(id)
	}
	return nil
}

// Snapshot returns every word's state in insertion order, read in one query.
func (s *Store) Snapshot(ctx context.Context) ([]vocab.Item, error) {
	rows, err := s.conn.QueryContext(ctx, `SELECT id, `+stateColumns+` FROM words ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	items := []vocab.Item{}
	for rows.Next() {
		var id string
		st, err := scanState(rows, &id)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, vocab.Item{ID: id, State: st})
	}
	return items, rows.Err()
}

// Create inserts a new word.
func (s *Store) Create(ctx context.Context, w store.Word) error {
	if strings.TrimSpace(w.Term) == "" {
		return fmt.Errorf("%w: empty term", store.ErrInvalidWord)
	}
	initial, err := json.Marshal(w.InitialState)
	if err != nil {
		return fmt.Errorf("encode initial state: %w", err)
	}
	args := append([]any{w.ID, w.Term, w.Meaning, toMillis(w.CreatedAt), string(initial)}, stateArgs(w.State)...)
	_, err = s.conn.ExecContext(ctx,
		`INSERT INTO words (`+wordColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		args...,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %q", store.ErrDuplicate, w.Term)
	}
	if err != nil {
		return fmt.Errorf("insert word: %w", err)
	}
	return nil
}

// Get returns one word.
func (s *Store) Get(ctx context.Context, id string) (store.Word, error) {
	row := s.conn.QueryRowContext(ctx, `SELECT `+wordColumns+` FROM words WHERE id = ?`, id)
	w, err := scanWord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Word{}, notFound(id)
	}
	if err != nil {
		return store.Word{}, fmt.Errorf("get word %s: %w", id, err)
	}
	return w, nil
}

// List returns all words in insertion order.
func (s *Store) List(ctx context.Context) ([]store.Word, error) {
	rows, err := s.conn.QueryContext(ctx, `SELECT `+wordColumns+` FROM words ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list words: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	words := []store.Word{}
	for rows.Next() {
		w, err := scanWord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan word: %w", err)
		}
		words = append(words, w)
	}
	return words, rows.Err()
}

// Rename changes a word's term and meaning.
func (s *Store) Rename(ctx context.Context, id, term, meaning string) error {
	term, meaning = strings.TrimSpace(term), strings.TrimSpace(meaning)
	if term == "" {
		return fmt.Errorf("%w: empty term", store.ErrInvalidWord)
	}
	res, err := s.conn.ExecContext(ctx, `UPDATE words SET term = ?, meaning = ? WHERE id = ?`, term, meaning, id)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %q", store.ErrDuplicate, term)
	}
	if err != nil {
		return fmt.Errorf("rename word %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("rename word %s: %w", id, err)
	} else if n == 0 {
		return notFound(id)
	}
	return nil
}

// Delete removes a word and its review history in one transaction.
func (s *Store) Delete(ctx context.Context, id string) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx, `DELETE FROM words WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete word %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("delete word %s: %w", id, err)
	} else if n == 0 {
		return notFound(id)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM review_logs WHERE item_id = ?`, id); err != nil {
		return fmt.Errorf("delete logs of %s: %w", id, err)
	}
	return tx.Commit()
}

// AppendLog records a review of an existing word.
func (s *Store) AppendLog(ctx context.Context, log vocab.ReviewLog) error {
	return appendLog(ctx, s.conn, log)
}

// Record saves a word's state and appends its review log in one transaction.
func (s *Store) Record(ctx context.Context, state vocab.ReviewState, log vocab.ReviewLog) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin record: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := saveState(ctx, tx, log.ItemID, state); err != nil {
		return err
	}
	if err := appendLog(ctx, tx, log); err != nil {
		return err
	}
	return tx.Commit()
}

func appendLog(ctx context.Context, db execer, log vocab.ReviewLog) error {
	var duration sql.NullInt64
	if log.ReviewDuration != nil {
		duration = sql.NullInt64{Int64: int64(*log.ReviewDuration), Valid: true}
	}
	res, err := db.ExecContext(ctx,
		`INSERT INTO review_logs (item_id, correct, confidence, reviewed_at, review_duration)
		 SELECT id, ?, ?, ?, ? FROM words WHERE id = ?`,
		log.Correct, log.Confidence, toMillis(log.ReviewedAt), duration, log.ItemID,
	)
	if isCheckViolation(err) {
		return fmt.Errorf("%w: confidence %v", store.ErrInvalidLog, log.Confidence)
	}
	if err != nil {
		return fmt.Errorf("append log: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("append log: %w", err)
	} else if n == 0 {
		return notFound(log.ItemID)
	}
	return nil
}

// Logs returns all review logs in append order.
func (s *Store) Logs(ctx context.Context) ([]vocab.ReviewLog, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT item_id, correct, confidence, reviewed_at, review_duration FROM review_logs ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list logs: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	logs := []vocab.ReviewLog{}
	for rows.Next() {
		var (
			l        vocab.ReviewLog
			at       int64
			duration sql.NullInt64
		)
		if err := rows.Scan(&l.ItemID, &l.Correct, &l.Confidence, &at, &duration); err != nil {
			return nil, fmt.Errorf("scan log: %w", err)
		}
		l.ReviewedAt = fromMillis(at)
		if duration.Valid {
			d := int(duration.Int64)
			l.ReviewDuration = &d
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
