// Package store persists the word catalogue, the append-only test
// ledger, and the denormalized per-word performance records in SQLite.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/parole-app/parole/internal/model"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS words (
		id TEXT PRIMARY KEY,
		english TEXT NOT NULL,
		italian TEXT NOT NULL,
		chapter TEXT NOT NULL DEFAULT '',
		grp TEXT NOT NULL DEFAULT '',
		learned INTEGER NOT NULL DEFAULT 0,
		difficult INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS tests (
		id TEXT PRIMARY KEY,
		timestamp DATETIME NOT NULL,
		percentage REAL NOT NULL DEFAULT 0,
		total_time_ms INTEGER NOT NULL DEFAULT 0,
		hints_used INTEGER NOT NULL DEFAULT 0,
		difficulty TEXT NOT NULL DEFAULT 'medium',
		rationale TEXT NOT NULL DEFAULT '',
		test_type TEXT NOT NULL DEFAULT 'complete',
		chapter_stats TEXT NOT NULL DEFAULT '{}'
	);

	CREATE TABLE IF NOT EXISTS responses (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		test_id TEXT NOT NULL,
		word_id TEXT NOT NULL,
		correct INTEGER NOT NULL,
		hints_used INTEGER NOT NULL DEFAULT 0,
		time_ms INTEGER NOT NULL DEFAULT 0,
		timestamp DATETIME NOT NULL,
		FOREIGN KEY (test_id) REFERENCES tests(id)
	);

	CREATE TABLE IF NOT EXISTS performance (
		word_id TEXT PRIMARY KEY,
		english TEXT NOT NULL DEFAULT '',
		italian TEXT NOT NULL DEFAULT '',
		chapter TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS attempts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		word_id TEXT NOT NULL,
		timestamp DATETIME NOT NULL,
		correct INTEGER NOT NULL,
		used_hint INTEGER NOT NULL DEFAULT 0,
		time_ms INTEGER NOT NULL DEFAULT 0,
		FOREIGN KEY (word_id) REFERENCES performance(word_id)
	);

	CREATE INDEX IF NOT EXISTS idx_responses_test ON responses(test_id);
	CREATE INDEX IF NOT EXISTS idx_attempts_word ON attempts(word_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// InsertWord stores a catalogue word.
func (s *Store) InsertWord(w model.Word) error {
	_, err := s.db.Exec(
		`INSERT INTO words (id, english, italian, chapter, grp, learned, difficult)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		w.ID, w.English, w.Italian, w.Chapter, w.Group, w.Learned, w.Difficult,
	)
	return err
}

// UpdateWord replaces a catalogue word's fields.
func (s *Store) UpdateWord(w model.Word) error {
	res, err := s.db.Exec(
		`UPDATE words SET english = ?, italian = ?, chapter = ?, grp = ?, learned = ?, difficult = ? WHERE id = ?`,
		w.English, w.Italian, w.Chapter, w.Group, w.Learned, w.Difficult, w.ID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetWord returns a word by ID.
func (s *Store) GetWord(id string) (model.Word, error) {
	var w model.Word
	err := s.db.QueryRow(
		`SELECT id, english, italian, chapter, grp, learned, difficult FROM words WHERE id = ?`, id,
	).Scan(&w.ID, &w.English, &w.Italian, &w.Chapter, &w.Group, &w.Learned, &w.Difficult)
	if err == sql.ErrNoRows {
		return model.Word{}, ErrNotFound
	}
	return w, err
}

// Words returns the full catalogue.
func (s *Store) Words() ([]model.Word, error) {
	rows, err := s.db.Query(`SELECT id, english, italian, chapter, grp, learned, difficult FROM words ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var words []model.Word
	for rows.Next() {
		var w model.Word
		if err := rows.Scan(&w.ID, &w.English, &w.Italian, &w.Chapter, &w.Group, &w.Learned, &w.Difficult); err != nil {
			return nil, err
		}
		words = append(words, w)
	}
	return words, rows.Err()
}

// WordCount returns the number of catalogue words.
func (s *Store) WordCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM words`).Scan(&count)
	return count, err
}

// AppendTest stores one completed test with all its responses. The
// ledger is append-only; there is no update path.
func (s *Store) AppendTest(t model.TestResult) error {
	chapterStats, err := json.Marshal(t.ChapterStats)
	if err != nil {
		return fmt.Errorf("marshal chapter stats: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO tests (id, timestamp, percentage, total_time_ms, hints_used, difficulty, rationale, test_type, chapter_stats)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Timestamp, t.Percentage, t.TotalTimeMs, t.HintsUsed, t.Difficulty, t.Rationale, t.TestType, string(chapterStats),
	)
	if err != nil {
		return err
	}

	insert := func(r model.WordResponse) error {
		_, err := tx.Exec(
			`INSERT INTO responses (test_id, word_id, correct, hints_used, time_ms, timestamp)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			t.ID, r.WordID, r.Correct, r.HintsUsed, r.TimeMs, r.Timestamp,
		)
		return err
	}
	for _, r := range t.RightWords {
		if err := insert(r); err != nil {
			return err
		}
	}
	for _, r := range t.WrongWords {
		if err := insert(r); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Tests returns the full ledger, chronologically ascending, with the
// detailed responses of each test.
func (s *Store) Tests() ([]model.TestResult, error) {
	rows, err := s.db.Query(
		`SELECT id, timestamp, percentage, total_time_ms, hints_used, difficulty, rationale, test_type, chapter_stats
		 FROM tests ORDER BY timestamp, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tests []model.TestResult
	for rows.Next() {
		var t model.TestResult
		var chapterStats string
		if err := rows.Scan(&t.ID, &t.Timestamp, &t.Percentage, &t.TotalTimeMs, &t.HintsUsed,
			&t.Difficulty, &t.Rationale, &t.TestType, &chapterStats); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(chapterStats), &t.ChapterStats); err != nil {
			return nil, fmt.Errorf("unmarshal chapter stats for test %s: %w", t.ID, err)
		}
		tests = append(tests, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range tests {
		if err := s.loadResponses(&tests[i]); err != nil {
			return nil, err
		}
	}
	return tests, nil
}

func (s *Store) loadResponses(t *model.TestResult) error {
	rows, err := s.db.Query(
		`SELECT word_id, correct, hints_used, time_ms, timestamp FROM responses WHERE test_id = ? ORDER BY id`, t.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var r model.WordResponse
		if err := rows.Scan(&r.WordID, &r.Correct, &r.HintsUsed, &r.TimeMs, &r.Timestamp); err != nil {
			return err
		}
		if r.Correct {
			t.RightWords = append(t.RightWords, r)
		} else {
			t.WrongWords = append(t.WrongWords, r)
		}
	}
	return rows.Err()
}

// TestCount returns the number of recorded tests.
func (s *Store) TestCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM tests`).Scan(&count)
	return count, err
}

// WordPerformance returns every per-word performance record, attempts
// in chronological order.
func (s *Store) WordPerformance() (map[string]model.WordPerformance, error) {
	perf := make(map[string]model.WordPerformance)

	rows, err := s.db.Query(`SELECT word_id, english, italian, chapter FROM performance`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ids := make([]string, 0)
	for rows.Next() {
		var id string
		var p model.WordPerformance
		if err := rows.Scan(&id, &p.English, &p.Italian, &p.Chapter); err != nil {
			return nil, err
		}
		perf[id] = p
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, id := range ids {
		attempts, err := s.loadAttempts(id)
		if err != nil {
			return nil, err
		}
		p := perf[id]
		p.Attempts = attempts
		perf[id] = p
	}
	return perf, nil
}

func (s *Store) loadAttempts(wordID string) ([]model.Attempt, error) {
	rows, err := s.db.Query(
		`SELECT timestamp, correct, used_hint, time_ms FROM attempts WHERE word_id = ? ORDER BY timestamp, id`, wordID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var attempts []model.Attempt
	for rows.Next() {
		var a model.Attempt
		if err := rows.Scan(&a.Timestamp, &a.Correct, &a.UsedHint, &a.TimeMs); err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

// SetWordPerformance replaces one word's performance record, snapshot
// fields and attempt history included.
func (s *Store) SetWordPerformance(wordID string, p model.WordPerformance) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO performance (word_id, english, italian, chapter)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(word_id) DO UPDATE SET english = ?, italian = ?, chapter = ?`,
		wordID, p.English, p.Italian, p.Chapter, p.English, p.Italian, p.Chapter,
	)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM attempts WHERE word_id = ?`, wordID); err != nil {
		return err
	}
	for _, a := range p.Attempts {
		_, err := tx.Exec(
			`INSERT INTO attempts (word_id, timestamp, correct, used_hint, time_ms) VALUES (?, ?, ?, ?, ?)`,
			wordID, a.Timestamp, a.Correct, a.UsedHint, a.TimeMs,
		)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}
