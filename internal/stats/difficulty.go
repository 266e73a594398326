package stats

import (
	"context"
	"fmt"

	"github.com/parole-app/parole/internal/i18n"
	"github.com/parole-app/parole/internal/model"
)

// AnalyzeFunc resolves a word ID to its current analysis, or nil when
// the word has no recorded history.
type AnalyzeFunc func(wordID string) *model.WordAnalysis

// ClassifyTestDifficulty scores a candidate word set before a test
// starts. Words are bucketed by their current status, the buckets are
// weighted into a score, and the score is adjusted for test size. The
// rationale string is shown to the learner and always embeds the counts
// and percentages the decision was made on; it is localized through the
// context's localizer.
func (e *Engine) ClassifyTestDifficulty(ctx context.Context, candidates []model.Word, analyze AnalyzeFunc) model.Classification {
	c := model.Classification{
		Difficulty: model.DifficultyMedium,
		TotalWords: len(candidates),
	}
	if len(candidates) == 0 {
		c.Rationale = i18n.T(ctx, "RationaleEmpty")
		return c
	}

	for _, w := range candidates {
		status := model.StatusNew
		if a := analyze(w.ID); a != nil {
			status = a.Status
		}
		switch status {
		case model.StatusCritical, model.StatusInconsistent, model.StatusStruggling:
			c.HardCount++
		case model.StatusImproving, model.StatusConsolidated:
			c.EasyCount++
		default:
			c.MediumCount++
		}
	}

	total := float64(c.TotalWords)
	c.HardPct = round1(pct(float64(c.HardCount), total))
	c.MediumPct = round1(pct(float64(c.MediumCount), total))
	c.EasyPct = round1(pct(float64(c.EasyCount), total))

	c.Score = (float64(c.HardCount)*e.cfg.HardWeight +
		float64(c.MediumCount)*e.cfg.MediumWeight +
		float64(c.EasyCount)*e.cfg.EasyWeight) / total
	c.AdjustedScore = c.Score
	if c.TotalWords > e.cfg.LargeTestSize {
		c.AdjustedScore += e.cfg.LargeTestAdjust
	} else if c.TotalWords < e.cfg.SmallTestSize {
		c.AdjustedScore += e.cfg.SmallTestAdjust
	}

	data := map[string]any{
		"Total":     c.TotalWords,
		"Hard":      c.HardCount,
		"Medium":    c.MediumCount,
		"Easy":      c.EasyCount,
		"HardPct":   fmt.Sprintf("%.1f", c.HardPct),
		"MediumPct": fmt.Sprintf("%.1f", c.MediumPct),
		"EasyPct":   fmt.Sprintf("%.1f", c.EasyPct),
		"Score":     fmt.Sprintf("%.2f", c.AdjustedScore),
	}
	switch {
	case c.HardPct >= e.cfg.HardPctThreshold || c.AdjustedScore >= e.cfg.HardScoreThreshold:
		c.Difficulty = model.DifficultyHard
		c.Rationale = i18n.Td(ctx, "RationaleHard", data)
	case c.EasyPct >= e.cfg.EasyPctThreshold || c.AdjustedScore <= e.cfg.EasyScoreThreshold:
		c.Difficulty = model.DifficultyEasy
		c.Rationale = i18n.Td(ctx, "RationaleEasy", data)
	default:
		c.Difficulty = model.DifficultyMedium
		c.Rationale = i18n.Td(ctx, "RationaleMedium", data)
	}
	return c
}
