package stats

import (
	"sort"

	"github.com/parole-app/parole/internal/model"
)

// ComputeGlobalStats reduces the full test ledger into one snapshot.
// An empty ledger yields the explicit zero state, never an error.
func (e *Engine) ComputeGlobalStats(tests []model.TestResult) model.GlobalStats {
	gs := model.GlobalStats{
		ByDifficulty: map[model.Difficulty]model.GroupStats{},
		ByTestType:   map[model.TestType]model.GroupStats{},
	}
	if len(tests) == 0 {
		return gs
	}

	gs.TestCount = len(tests)

	// Hints and time are summed from the detailed responses rather
	// than the top-level session fields; the responses are the source
	// of truth and the session totals may be stale.
	var percentages []float64
	for _, t := range tests {
		gs.TotalCorrect += len(t.RightWords)
		gs.TotalIncorrect += len(t.WrongWords)
		for _, r := range t.Responses() {
			gs.TotalHints += r.HintsUsed
			gs.TotalTimeMs += r.TimeMs
		}
		percentages = append(percentages, t.Percentage)
	}
	gs.TotalAnswered = gs.TotalCorrect + gs.TotalIncorrect
	gs.GlobalAccuracy = round(pct(float64(gs.TotalCorrect), float64(gs.TotalAnswered)))
	gs.AvgTestAccuracy = round1(mean(percentages))
	if gs.TotalAnswered > 0 {
		gs.AvgTimePerWordMs = round1(float64(gs.TotalTimeMs) / float64(gs.TotalAnswered))
		gs.HintsPerWord = round1(float64(gs.TotalHints) / float64(gs.TotalAnswered))
	}

	sorted := sortedByTime(tests)
	gs.BestStreak, gs.CurrentStreak = e.testStreaks(sorted)
	gs.StudyFrequency = studyFrequency(sorted)
	gs.ImprovementTrend = e.improvementTrend(sorted)

	for _, t := range tests {
		grp := gs.ByDifficulty[t.Difficulty]
		accumulateGroup(&grp, t)
		gs.ByDifficulty[t.Difficulty] = grp
	}
	for _, t := range tests {
		grp := gs.ByTestType[t.TestType]
		accumulateGroup(&grp, t)
		gs.ByTestType[t.TestType] = grp
	}
	finishGroups(gs.ByDifficulty)
	finishGroups(gs.ByTestType)

	return gs
}

// sortedByTime returns a chronologically ascending copy of the ledger.
// The input slice is never reordered in place.
func sortedByTime(tests []model.TestResult) []model.TestResult {
	sorted := make([]model.TestResult, len(tests))
	copy(sorted, tests)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})
	return sorted
}

// testStreaks finds the longest and the trailing run of tests scoring
// at or above the streak threshold.
func (e *Engine) testStreaks(sorted []model.TestResult) (best, current int) {
	run := 0
	for _, t := range sorted {
		if t.Percentage >= e.cfg.StreakThreshold {
			run++
			if run > best {
				best = run
			}
		} else {
			run = 0
		}
	}
	current = run
	return best, current
}

// studyFrequency is tests per week over the recorded span; zero with
// fewer than two tests or a zero span.
func studyFrequency(sorted []model.TestResult) float64 {
	if len(sorted) < 2 {
		return 0
	}
	span := sorted[len(sorted)-1].Timestamp.Sub(sorted[0].Timestamp)
	weeks := span.Hours() / (24 * 7)
	if weeks <= 0 {
		return 0
	}
	return round1(float64(len(sorted)) / weeks)
}

// improvementTrend compares the mean percentage of the most recent
// TrendWindow tests against the tests immediately preceding them.
func (e *Engine) improvementTrend(sorted []model.TestResult) float64 {
	n := len(sorted)
	w := e.cfg.TrendWindow
	if n < e.cfg.TrendMinTests {
		return 0
	}
	var recent, previous []float64
	for _, t := range sorted[n-w:] {
		recent = append(recent, t.Percentage)
	}
	prevStart := n - 2*w
	if prevStart < 0 {
		prevStart = 0
	}
	for _, t := range sorted[prevStart : n-w] {
		previous = append(previous, t.Percentage)
	}
	return round1(mean(recent) - mean(previous))
}

// accumulateGroup folds one test into a distribution bucket. The
// averages are finished by finishGroups once all tests are in.
func accumulateGroup(grp *model.GroupStats, t model.TestResult) {
	grp.Count++
	grp.AvgAccuracy += t.Percentage
	var timeMs int64
	for _, r := range t.Responses() {
		timeMs += r.TimeMs
	}
	grp.AvgTimeMs += float64(timeMs)
}

func finishGroups[K comparable](groups map[K]model.GroupStats) {
	for k, grp := range groups {
		if grp.Count > 0 {
			grp.AvgAccuracy = round1(grp.AvgAccuracy / float64(grp.Count))
			grp.AvgTimeMs = round1(grp.AvgTimeMs / float64(grp.Count))
		}
		groups[k] = grp
	}
}
