package stats

import (
	"log/slog"
	"sort"

	"github.com/parole-app/parole/internal/model"
)

// ChapterNone is the bucket for catalogue words without a chapter
// label, so every resolvable response lands in exactly one chapter.
const ChapterNone = "uncategorized"

// ChapterLabel maps a word's chapter field to its aggregation bucket.
func ChapterLabel(chapter string) string {
	if chapter == "" {
		return ChapterNone
	}
	return chapter
}

type chapterAccum struct {
	stats       model.ChapterStats
	tested      map[string]struct{}
	totalTimeMs int64
	// accuracy per test the chapter participated in, chronological
	testSeries []float64
}

// ComputeChapterStats groups the ledger's responses by the chapter of
// the word being tested. Chapters are discovered from the catalogue, so
// untested chapters still appear with zero metrics. Responses whose
// word no longer resolves are skipped; catalogue drift must not abort
// analytics.
func (e *Engine) ComputeChapterStats(tests []model.TestResult, words []model.Word) []model.ChapterStats {
	byID := make(map[string]model.Word, len(words))
	accums := make(map[string]*chapterAccum)
	var order []string
	for _, w := range words {
		byID[w.ID] = w
		label := ChapterLabel(w.Chapter)
		acc, ok := accums[label]
		if !ok {
			acc = &chapterAccum{
				stats:  model.ChapterStats{Chapter: label},
				tested: make(map[string]struct{}),
			}
			accums[label] = acc
			order = append(order, label)
		}
		acc.stats.TotalWords++
	}

	for _, t := range sortedByTime(tests) {
		// chapter -> {answered, correct} contribution of this test
		contrib := make(map[string][2]int)
		for _, r := range t.Responses() {
			w, ok := byID[r.WordID]
			if !ok {
				slog.Warn("skipping response for unknown word", "word_id", r.WordID, "test_id", t.ID)
				continue
			}
			label := ChapterLabel(w.Chapter)
			acc := accums[label]
			acc.stats.TotalAttempts++
			if r.Correct {
				acc.stats.CorrectAttempts++
			}
			acc.stats.HintsUsed += r.HintsUsed
			acc.totalTimeMs += r.TimeMs
			acc.tested[r.WordID] = struct{}{}
			if acc.stats.FirstTestDate.IsZero() || r.Timestamp.Before(acc.stats.FirstTestDate) {
				acc.stats.FirstTestDate = r.Timestamp
			}
			if r.Timestamp.After(acc.stats.LastTestDate) {
				acc.stats.LastTestDate = r.Timestamp
			}
			c := contrib[label]
			c[0]++
			if r.Correct {
				c[1]++
			}
			contrib[label] = c
		}
		for label, c := range contrib {
			acc := accums[label]
			acc.stats.TestsParticipated++
			// A zero-answer contribution counts as 0%, never NaN.
			acc.testSeries = append(acc.testSeries, pct(float64(c[1]), float64(c[0])))
		}
	}

	sort.Strings(order)
	out := make([]model.ChapterStats, 0, len(order))
	for _, label := range order {
		acc := accums[label]
		cs := acc.stats
		cs.TestedWords = len(acc.tested)
		cs.Accuracy = round1(pct(float64(cs.CorrectAttempts), float64(cs.TotalAttempts)))
		if cs.TotalAttempts > 0 {
			cs.AvgTimePerWordMs = round1(float64(acc.totalTimeMs) / float64(cs.TotalAttempts))
			cs.HintsPerWord = round1(float64(cs.HintsUsed) / float64(cs.TotalAttempts))
			cs.HintsEfficiency = round1(clamp100(100 - cs.HintsPerWord*100))
		}
		cs.ImprovementTrend = e.chapterTrend(acc.testSeries)
		out = append(out, cs)
	}
	return out
}

// chapterTrend compares mean per-chapter accuracy over the most recent
// ChapterTrendWindow participating tests against the window before.
func (e *Engine) chapterTrend(series []float64) float64 {
	n := len(series)
	w := e.cfg.ChapterTrendWindow
	if n < e.cfg.ChapterTrendMinTests {
		return 0
	}
	prevStart := n - 2*w
	if prevStart < 0 {
		prevStart = 0
	}
	return round1(mean(series[n-w:]) - mean(series[prevStart:n-w]))
}
