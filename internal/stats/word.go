package stats

import (
	"math"
	"sort"

	"github.com/parole-app/parole/internal/model"
)

// ComputeWordAnalysis builds the proficiency profile of one word from
// every response matching it across the ledger. A word with no attempts
// gets the fully zeroed profile: status new, proficiency beginner,
// needs work. That is a valid answer for a fresh word, not an error.
func (e *Engine) ComputeWordAnalysis(word model.Word, tests []model.TestResult) model.WordAnalysis {
	wa := model.WordAnalysis{
		WordID:  word.ID,
		English: word.English,
		Italian: word.Italian,
		Chapter: word.Chapter,
	}

	var responses []model.WordResponse
	for _, t := range tests {
		for _, r := range t.Responses() {
			if r.WordID == word.ID {
				responses = append(responses, r)
			}
		}
	}
	sort.SliceStable(responses, func(i, j int) bool {
		return responses[i].Timestamp.Before(responses[j].Timestamp)
	})

	if len(responses) == 0 {
		wa.Status = model.StatusNew
		wa.Proficiency = model.ProficiencyBeginner
		wa.NeedsWork = true
		wa.Action = model.ActionStudyMore
		return wa
	}

	wa.TotalAttempts = len(responses)
	wa.FirstAttempt = responses[0].Timestamp
	wa.LastAttempt = responses[len(responses)-1].Timestamp
	for _, r := range responses {
		if r.Correct {
			wa.CorrectAttempts++
		}
		wa.HintsUsed += r.HintsUsed
	}
	wa.Accuracy = round1(pct(float64(wa.CorrectAttempts), float64(wa.TotalAttempts)))
	wa.BestStreak, wa.CurrentStreak = correctStreaks(responses)
	wa.Status = e.classifyStatus(wa.TotalAttempts, wa.CurrentStreak, float64(wa.CorrectAttempts)/float64(wa.TotalAttempts))
	wa.Consistency = e.consistency(responses)
	wa.RecentAccuracy = e.recentAccuracy(responses)

	e.timingMetrics(&wa, responses)
	e.hintMetrics(&wa, responses)
	wa.LearningVelocity = e.learningVelocity(responses)
	wa.Retention = e.retention(responses)

	wa.Proficiency = e.proficiency(wa.Accuracy, wa.CurrentStreak)
	wa.Mastered = wa.Accuracy >= e.cfg.MasteryThreshold &&
		wa.CurrentStreak >= e.cfg.MasteryStreak &&
		wa.Independence >= e.cfg.MasteryIndependence
	wa.Action = e.recommendedAction(wa)
	wa.NeedsWork = wa.Status == model.StatusCritical ||
		wa.Status == model.StatusStruggling ||
		wa.Status == model.StatusInconsistent

	return wa
}

// correctStreaks finds the longest and the trailing run of correct
// answers. Per-word correctness is binary, so no threshold applies.
func correctStreaks(responses []model.WordResponse) (best, current int) {
	run := 0
	for _, r := range responses {
		if r.Correct {
			run++
			if run > best {
				best = run
			}
		} else {
			run = 0
		}
	}
	return best, run
}

// classifyStatus is the ordered decision table over attempt count,
// current streak, and lifetime correct ratio. First match wins.
func (e *Engine) classifyStatus(attempts, streak int, ratio float64) model.WordStatus {
	switch {
	case attempts >= 3 && streak >= 3:
		return model.StatusConsolidated
	case attempts >= 3 && ratio >= 0.7:
		return model.StatusImproving
	case attempts >= 3 && ratio <= 0.3:
		return model.StatusCritical
	case attempts >= 3:
		return model.StatusInconsistent
	case attempts > 0 && streak > 0:
		return model.StatusPromising
	case attempts > 0:
		return model.StatusStruggling
	default:
		return model.StatusNew
	}
}

// consistency scores the dispersion of recent outcomes: 100 for a word
// answered the same way every time, near 0 for one flipping between
// right and wrong.
func (e *Engine) consistency(responses []model.WordResponse) float64 {
	window := responses
	if len(window) > e.cfg.ConsistencyWindow {
		window = window[len(window)-e.cfg.ConsistencyWindow:]
	}
	values := make([]float64, len(window))
	for i, r := range window {
		if r.Correct {
			values[i] = 100
		}
	}
	score := 100 - math.Sqrt(popVariance(values))
	if score < 0 {
		score = 0
	}
	return round1(score)
}

// recentAccuracy is the correct ratio over the trailing RecentWindow
// attempts, independent of older history.
func (e *Engine) recentAccuracy(responses []model.WordResponse) float64 {
	window := responses
	if len(window) > e.cfg.RecentWindow {
		window = window[len(window)-e.cfg.RecentWindow:]
	}
	correct := 0
	for _, r := range window {
		if r.Correct {
			correct++
		}
	}
	return round1(pct(float64(correct), float64(len(window))))
}

// timingMetrics fills the response-time statistics, ignoring attempts
// without a positive recorded time.
func (e *Engine) timingMetrics(wa *model.WordAnalysis, responses []model.WordResponse) {
	var timed []float64
	for _, r := range responses {
		if r.TimeMs > 0 {
			timed = append(timed, float64(r.TimeMs))
			if wa.FastestTimeMs == 0 || r.TimeMs < wa.FastestTimeMs {
				wa.FastestTimeMs = r.TimeMs
			}
			if r.TimeMs > wa.SlowestTimeMs {
				wa.SlowestTimeMs = r.TimeMs
			}
		}
	}
	wa.AvgTimeMs = round1(mean(timed))
	wa.TimeImprovement = e.halfComparison(timed)
}

// hintMetrics fills hint usage and the hints-decreasing trend.
func (e *Engine) hintMetrics(wa *model.WordAnalysis, responses []model.WordResponse) {
	wa.HintsPerAttempt = round1(float64(wa.HintsUsed) / float64(len(responses)))
	independence := 100 - wa.HintsPerAttempt*100
	if independence < 0 {
		independence = 0
	}
	wa.Independence = round1(independence)

	hints := make([]float64, len(responses))
	for i, r := range responses {
		hints[i] = float64(r.HintsUsed)
	}
	wa.HintsTrend = e.halfComparison(hints)
}

// halfComparison is the percentage change between the mean of the first
// half of a series and the second; positive means the values dropped
// (faster answers, fewer hints). Needs TimedMinAttempts data points.
func (e *Engine) halfComparison(values []float64) float64 {
	if len(values) < e.cfg.TimedMinAttempts {
		return 0
	}
	half := len(values) / 2
	first := mean(values[:half])
	second := mean(values[half:])
	if first == 0 {
		return 0
	}
	return round1((first - second) / first * 100)
}

// learningVelocity compares accuracy of the first third of the history
// against the last third, in percentage points.
func (e *Engine) learningVelocity(responses []model.WordResponse) float64 {
	if len(responses) < e.cfg.VelocityMinAttempts {
		return 0
	}
	third := len(responses) / 3
	return round1(accuracyOf(responses[len(responses)-third:]) - accuracyOf(responses[:third]))
}

func accuracyOf(responses []model.WordResponse) float64 {
	correct := 0
	for _, r := range responses {
		if r.Correct {
			correct++
		}
	}
	return pct(float64(correct), float64(len(responses)))
}

// retention averages accuracy over a window of RetentionWindow attempts
// advanced by RetentionStep, rewarding sustained correctness over
// one-off runs. Zero with fewer attempts than one window.
func (e *Engine) retention(responses []model.WordResponse) float64 {
	w, step := e.cfg.RetentionWindow, e.cfg.RetentionStep
	if len(responses) < w {
		return 0
	}
	var windows []float64
	for start := 0; start+w <= len(responses); start += step {
		windows = append(windows, accuracyOf(responses[start:start+w]))
	}
	return round1(mean(windows))
}

// proficiency picks the first matching tier, highest first.
func (e *Engine) proficiency(accuracy float64, streak int) model.Proficiency {
	switch {
	case accuracy >= e.cfg.ExpertAccuracy && streak >= e.cfg.ExpertStreak:
		return model.ProficiencyExpert
	case accuracy >= e.cfg.AdvancedAccuracy && streak >= e.cfg.AdvancedStreak:
		return model.ProficiencyAdvanced
	case accuracy >= e.cfg.IntermediateAccuracy:
		return model.ProficiencyIntermediate
	default:
		return model.ProficiencyBeginner
	}
}

// recommendedAction is an ordered ladder; the first true branch wins.
func (e *Engine) recommendedAction(wa model.WordAnalysis) model.Action {
	switch {
	case wa.Mastered:
		return model.ActionMaintain
	case wa.Accuracy >= e.cfg.SpeedAccuracy && wa.AvgTimeMs > float64(e.cfg.SlowTimeMs):
		return model.ActionPracticeSpeed
	case wa.Accuracy >= e.cfg.ReviewAccuracy:
		return model.ActionReviewOccasionally
	default:
		return model.ActionStudyMore
	}
}
