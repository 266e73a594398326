// Package tracker owns the in-memory attempt ledger and word catalogue
// snapshot, and is the single writer for both. Aggregation is delegated
// to the pure stats engine; derived views are memoized per ledger
// version and recomputed only after a mutation.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/parole-app/parole/internal/model"
	"github.com/parole-app/parole/internal/stats"
)

// ErrUnknownWord is returned when an operation references a word ID
// missing from the catalogue.
var ErrUnknownWord = errors.New("unknown word")

// ErrEmptySession is returned when a test completes with no words.
var ErrEmptySession = errors.New("no words in session")

// Catalogue provides the word catalogue. The tracker never mutates it.
type Catalogue interface {
	Words() ([]model.Word, error)
}

// Ledger persists the append-only test log and the denormalized
// per-word performance records.
type Ledger interface {
	Tests() ([]model.TestResult, error)
	AppendTest(model.TestResult) error
	WordPerformance() (map[string]model.WordPerformance, error)
	SetWordPerformance(wordID string, perf model.WordPerformance) error
}

// Tracker is the stats facade. All mutation goes through RecordAttempt
// and CompleteTest; aggregators only ever see ledger snapshots.
type Tracker struct {
	mu        sync.Mutex
	engine    *stats.Engine
	catalogue Catalogue
	ledger    Ledger

	words []model.Word
	tests []model.TestResult
	perf  map[string]model.WordPerformance

	version   uint64
	memo      derived
	memoValid bool
}

// derived caches the expensive full-ledger views for one version.
type derived struct {
	version  uint64
	global   model.GlobalStats
	chapters []model.ChapterStats
}

// New loads the catalogue and ledger into memory and returns a tracker.
func New(engine *stats.Engine, catalogue Catalogue, ledger Ledger) (*Tracker, error) {
	t := &Tracker{
		engine:    engine,
		catalogue: catalogue,
		ledger:    ledger,
	}
	if err := t.reload(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Tracker) reload() error {
	words, err := t.catalogue.Words()
	if err != nil {
		return fmt.Errorf("load catalogue: %w", err)
	}
	tests, err := t.ledger.Tests()
	if err != nil {
		return fmt.Errorf("load tests: %w", err)
	}
	perf, err := t.ledger.WordPerformance()
	if err != nil {
		return fmt.Errorf("load word performance: %w", err)
	}
	if perf == nil {
		perf = make(map[string]model.WordPerformance)
	}
	t.words = words
	t.tests = tests
	t.perf = perf
	t.version++
	t.memoValid = false
	return nil
}

// ReloadCatalogue re-reads the word list, picking up catalogue CRUD
// done outside the tracker.
func (t *Tracker) ReloadCatalogue() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	words, err := t.catalogue.Words()
	if err != nil {
		return fmt.Errorf("load catalogue: %w", err)
	}
	t.words = words
	t.version++
	t.memoValid = false
	return nil
}

// Words returns a copy of the current catalogue snapshot.
func (t *Tracker) Words() []model.Word {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]model.Word, len(t.words))
	copy(out, t.words)
	return out
}

// Tests returns a copy of the current test ledger.
func (t *Tracker) Tests() []model.TestResult {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]model.TestResult, len(t.tests))
	copy(out, t.tests)
	return out
}

func (t *Tracker) findWord(wordID string) (model.Word, bool) {
	for _, w := range t.words {
		if w.ID == wordID {
			return w, true
		}
	}
	return model.Word{}, false
}

// RecordAttempt appends one attempt to the word's performance record
// and persists it. The catalogue snapshot fields are refreshed on every
// write so the history stays labeled even if the word changes later.
func (t *Tracker) RecordAttempt(wordID string, correct, usedHint bool, timeMs int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	w, ok := t.findWord(wordID)
	if !ok {
		return fmt.Errorf("record attempt for %q: %w", wordID, ErrUnknownWord)
	}
	if timeMs < 0 {
		timeMs = 0
	}

	perf := t.perf[wordID]
	perf.English = w.English
	perf.Italian = w.Italian
	perf.Chapter = w.Chapter
	perf.Attempts = append(perf.Attempts, model.Attempt{
		Timestamp: time.Now(),
		Correct:   correct,
		UsedHint:  usedHint,
		TimeMs:    timeMs,
	})
	if err := t.ledger.SetWordPerformance(wordID, perf); err != nil {
		return fmt.Errorf("persist attempt for %q: %w", wordID, err)
	}
	t.perf[wordID] = perf
	t.version++
	t.memoValid = false
	return nil
}

// CompleteTest turns a session summary into a TestResult: it builds the
// detailed responses, partitions them by correctness, runs the
// difficulty classifier over the words that were used, and appends the
// frozen record to the ledger. The classification is never recalculated
// for a completed test.
//
// CompleteTest writes only the test ledger. The per-word performance
// records are the host's responsibility: it calls RecordAttempt for
// each answer as the session runs, so completing the test must not
// append those attempts a second time.
func (t *Tracker) CompleteTest(ctx context.Context, sum model.SessionSummary, wordsUsed []model.Word, wrongIDs []string) (model.TestResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(wordsUsed) == 0 {
		return model.TestResult{}, fmt.Errorf("complete test: %w", ErrEmptySession)
	}

	ts := sum.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	wrong := make(map[string]bool, len(wrongIDs))
	for _, id := range wrongIDs {
		wrong[id] = true
	}

	// Difficulty is decided from the ledger as it stood when the test
	// began, i.e. without the session being recorded.
	classification := t.engine.ClassifyTestDifficulty(ctx, wordsUsed, t.analyzeFn())

	result := model.TestResult{
		ID:           uuid.NewString(),
		Timestamp:    ts,
		Difficulty:   classification.Difficulty,
		Rationale:    classification.Rationale,
		ChapterStats: make(map[string]model.SessionChapterStats),
	}

	chapters := make(map[string]struct{})
	var hints int
	var timeMs int64
	for _, w := range wordsUsed {
		r := model.WordResponse{
			WordID:    w.ID,
			Correct:   !wrong[w.ID],
			HintsUsed: sum.WordHints[w.ID],
			TimeMs:    sum.WordTimes[w.ID],
			Timestamp: ts,
		}.Normalize()
		if r.Correct {
			result.RightWords = append(result.RightWords, r)
		} else {
			result.WrongWords = append(result.WrongWords, r)
		}
		hints += r.HintsUsed
		timeMs += r.TimeMs

		chapters[w.Chapter] = struct{}{}
		label := stats.ChapterLabel(w.Chapter)
		cs := result.ChapterStats[label]
		cs.Total++
		if r.Correct {
			cs.Correct++
		}
		result.ChapterStats[label] = cs
	}

	result.Percentage = percentage(len(result.RightWords), len(wordsUsed))
	result.HintsUsed = sum.Hints
	if result.HintsUsed <= 0 {
		result.HintsUsed = hints
	}
	result.TotalTimeMs = sum.TotalTimeMs
	if result.TotalTimeMs <= 0 {
		result.TotalTimeMs = timeMs
	}
	result.TestType = model.TestTypeComplete
	if len(chapters) == 1 {
		result.TestType = model.TestTypeSelective
	}

	if err := t.ledger.AppendTest(result); err != nil {
		return model.TestResult{}, fmt.Errorf("append test: %w", err)
	}
	t.tests = append(t.tests, result)
	t.version++
	t.memoValid = false
	return result, nil
}

func percentage(correct, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(correct)/float64(total)*1000) / 10
}

// analyzeFn adapts the engine's word analyzer to the classifier's
// lookup shape. Words with no recorded response resolve to nil.
// Caller must hold the lock.
func (t *Tracker) analyzeFn() stats.AnalyzeFunc {
	return func(wordID string) *model.WordAnalysis {
		w, ok := t.findWord(wordID)
		if !ok {
			return nil
		}
		a := t.engine.ComputeWordAnalysis(w, t.tests)
		if a.TotalAttempts == 0 {
			return nil
		}
		return &a
	}
}

// GlobalStats returns the memoized global snapshot, recomputing it only
// when the ledger version moved since the last derivation.
func (t *Tracker) GlobalStats() model.GlobalStats {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.derive()
	return t.memo.global
}

// ChapterStats returns the memoized per-chapter view.
func (t *Tracker) ChapterStats() []model.ChapterStats {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.derive()
	out := make([]model.ChapterStats, len(t.memo.chapters))
	copy(out, t.memo.chapters)
	return out
}

// derive refreshes the memo. Caller must hold the lock.
func (t *Tracker) derive() {
	if t.memoValid && t.memo.version == t.version {
		return
	}
	t.memo = derived{
		version:  t.version,
		global:   t.engine.ComputeGlobalStats(t.tests),
		chapters: t.engine.ComputeChapterStats(t.tests, t.words),
	}
	t.memoValid = true
}

// WordAnalysis computes the profile of one catalogue word. This is a
// cheap single-word pass and is not memoized.
func (t *Tracker) WordAnalysis(wordID string) (model.WordAnalysis, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	w, ok := t.findWord(wordID)
	if !ok {
		return model.WordAnalysis{}, fmt.Errorf("analyze %q: %w", wordID, ErrUnknownWord)
	}
	return t.engine.ComputeWordAnalysis(w, t.tests), nil
}

// Classify previews the smart difficulty of a candidate word set
// without recording anything.
func (t *Tracker) Classify(ctx context.Context, wordIDs []string) (model.Classification, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	words := make([]model.Word, 0, len(wordIDs))
	for _, id := range wordIDs {
		w, ok := t.findWord(id)
		if !ok {
			return model.Classification{}, fmt.Errorf("classify %q: %w", id, ErrUnknownWord)
		}
		words = append(words, w)
	}
	return t.engine.ClassifyTestDifficulty(ctx, words, t.analyzeFn()), nil
}

// Performance returns the denormalized history of one word.
func (t *Tracker) Performance(wordID string) (model.WordPerformance, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	perf, ok := t.perf[wordID]
	return perf, ok
}

// WeakestWords ranks tested words by accuracy ascending and returns up
// to limit analyses, a shortlist for review screens.
func (t *Tracker) WeakestWords(limit int) []model.WordAnalysis {
	t.mu.Lock()
	defer t.mu.Unlock()
	var analyses []model.WordAnalysis
	for _, w := range t.words {
		a := t.engine.ComputeWordAnalysis(w, t.tests)
		if a.TotalAttempts == 0 {
			continue
		}
		analyses = append(analyses, a)
	}
	sort.SliceStable(analyses, func(i, j int) bool {
		return analyses[i].Accuracy < analyses[j].Accuracy
	})
	if limit > 0 && len(analyses) > limit {
		analyses = analyses[:limit]
	}
	return analyses
}
