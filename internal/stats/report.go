package stats

import (
	"fmt"
	"io"

	"github.com/parole-app/parole/internal/model"
)

// RenderReport prints a plain-text summary of the global and chapter
// views, for the CLI stats command.
func RenderReport(w io.Writer, gs model.GlobalStats, chapters []model.ChapterStats) error {
	if gs.TestCount == 0 {
		_, err := fmt.Fprintln(w, "No tests recorded yet.")
		return err
	}

	fmt.Fprintln(w, "Summary")
	fmt.Fprintf(w, "Tests: %d\n", gs.TestCount)
	fmt.Fprintf(w, "Words answered: %d (%d correct, %d wrong)\n", gs.TotalAnswered, gs.TotalCorrect, gs.TotalIncorrect)
	fmt.Fprintf(w, "Accuracy: %.0f%% by word, %.1f%% by test\n", gs.GlobalAccuracy, gs.AvgTestAccuracy)
	fmt.Fprintf(w, "Streak: %d current, %d best\n", gs.CurrentStreak, gs.BestStreak)
	fmt.Fprintf(w, "Hints per word: %.1f\n", gs.HintsPerWord)
	fmt.Fprintf(w, "Avg time per word: %.1fs\n", gs.AvgTimePerWordMs/1000)
	if gs.StudyFrequency > 0 {
		fmt.Fprintf(w, "Tests per week: %.1f\n", gs.StudyFrequency)
	}
	if gs.ImprovementTrend != 0 {
		fmt.Fprintf(w, "Trend: %+.1f%%\n", gs.ImprovementTrend)
	}
	fmt.Fprintln(w)

	if len(chapters) == 0 {
		return nil
	}
	fmt.Fprintln(w, "Chapters")
	for _, c := range chapters {
		if c.TotalAttempts == 0 {
			fmt.Fprintf(w, "  %-20s %d words, not tested yet\n", c.Chapter, c.TotalWords)
			continue
		}
		fmt.Fprintf(w, "  %-20s %d/%d words tested, %.1f%% accuracy, %d attempts",
			c.Chapter, c.TestedWords, c.TotalWords, c.Accuracy, c.TotalAttempts)
		if c.ImprovementTrend != 0 {
			fmt.Fprintf(w, ", trend %+.1f%%", c.ImprovementTrend)
		}
		fmt.Fprintln(w)
	}
	_, err := fmt.Fprintln(w)
	return err
}
