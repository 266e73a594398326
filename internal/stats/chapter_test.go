package stats

import (
	"fmt"
	"testing"

	"github.com/parole-app/parole/internal/model"
)

func chapterWords() []model.Word {
	return []model.Word{
		{ID: "w1", English: "dog", Italian: "cane", Chapter: "1"},
		{ID: "w2", English: "cat", Italian: "gatto", Chapter: "1"},
		{ID: "w3", English: "house", Italian: "casa", Chapter: "2"},
		{ID: "w4", English: "bread", Italian: "pane"},
		{ID: "w5", English: "water", Italian: "acqua", Chapter: "3"},
	}
}

func responseAt(wordID string, correct bool, day int) model.WordResponse {
	return model.WordResponse{
		WordID:    wordID,
		Correct:   correct,
		HintsUsed: 1,
		TimeMs:    2000,
		Timestamp: baseTime.AddDate(0, 0, day),
	}
}

func testWith(id string, day int, responses ...model.WordResponse) model.TestResult {
	tr := model.TestResult{ID: id, Timestamp: baseTime.AddDate(0, 0, day)}
	for _, r := range responses {
		if r.Correct {
			tr.RightWords = append(tr.RightWords, r)
		} else {
			tr.WrongWords = append(tr.WrongWords, r)
		}
	}
	return tr
}

func chapterByName(t *testing.T, chapters []model.ChapterStats, name string) model.ChapterStats {
	t.Helper()
	for _, c := range chapters {
		if c.Chapter == name {
			return c
		}
	}
	t.Fatalf("chapter %q not found in %v", name, chapters)
	return model.ChapterStats{}
}

func TestChapterStatsFromCatalogue(t *testing.T) {
	e := New(DefaultConfig())
	tests := []model.TestResult{
		testWith("t1", 0,
			responseAt("w1", true, 0),
			responseAt("w2", false, 0),
			responseAt("w3", true, 0),
			responseAt("w4", true, 0),
		),
	}

	chapters := e.ComputeChapterStats(tests, chapterWords())
	if len(chapters) != 4 {
		t.Fatalf("expected 4 chapters, got %d: %v", len(chapters), chapters)
	}

	ch1 := chapterByName(t, chapters, "1")
	if ch1.TotalWords != 2 || ch1.TestedWords != 2 || ch1.TotalAttempts != 2 || ch1.CorrectAttempts != 1 {
		t.Errorf("chapter 1 = %+v", ch1)
	}
	if ch1.Accuracy != 50 {
		t.Errorf("chapter 1 accuracy = %v, want 50", ch1.Accuracy)
	}
	if ch1.AvgTimePerWordMs != 2000 || ch1.HintsPerWord != 1 {
		t.Errorf("chapter 1 timing = %+v", ch1)
	}

	// Untested chapter still appears with zero attempt metrics.
	ch3 := chapterByName(t, chapters, "3")
	if ch3.TotalWords != 1 || ch3.TotalAttempts != 0 || ch3.Accuracy != 0 {
		t.Errorf("chapter 3 = %+v", ch3)
	}
	if !ch3.FirstTestDate.IsZero() || !ch3.LastTestDate.IsZero() {
		t.Errorf("chapter 3 dates should be zero: %+v", ch3)
	}

	// Chapterless words aggregate under the uncategorized bucket.
	un := chapterByName(t, chapters, ChapterNone)
	if un.TotalWords != 1 || un.TotalAttempts != 1 || un.CorrectAttempts != 1 {
		t.Errorf("uncategorized = %+v", un)
	}
}

func TestChapterPartition(t *testing.T) {
	// Every resolvable response lands in exactly one chapter;
	// unresolvable ones are skipped without failing the computation.
	e := New(DefaultConfig())
	tests := []model.TestResult{
		testWith("t1", 0,
			responseAt("w1", true, 0),
			responseAt("w3", false, 0),
			responseAt("ghost", false, 0),
		),
		testWith("t2", 1,
			responseAt("w1", false, 1),
			responseAt("w1", true, 1),
			responseAt("w4", true, 1),
		),
	}

	chapters := e.ComputeChapterStats(tests, chapterWords())
	sum := 0
	for _, c := range chapters {
		sum += c.TotalAttempts
	}
	if sum != 5 {
		t.Errorf("attempts across chapters = %d, want 5 resolvable responses", sum)
	}

	// Repeated attempts on one word count once in TestedWords.
	ch1 := chapterByName(t, chapters, "1")
	if ch1.TestedWords != 1 || ch1.TotalAttempts != 3 {
		t.Errorf("chapter 1 = %+v", ch1)
	}
	if ch1.TestsParticipated != 2 {
		t.Errorf("chapter 1 participated = %d, want 2", ch1.TestsParticipated)
	}
}

func TestChapterDates(t *testing.T) {
	e := New(DefaultConfig())
	tests := []model.TestResult{
		testWith("t1", 3, responseAt("w1", true, 3)),
		testWith("t2", 1, responseAt("w1", false, 1)),
		testWith("t3", 7, responseAt("w2", true, 7)),
	}

	ch1 := chapterByName(t, e.ComputeChapterStats(tests, chapterWords()), "1")
	wantFirst := baseTime.AddDate(0, 0, 1)
	wantLast := baseTime.AddDate(0, 0, 7)
	if !ch1.FirstTestDate.Equal(wantFirst) {
		t.Errorf("FirstTestDate = %v, want %v", ch1.FirstTestDate, wantFirst)
	}
	if !ch1.LastTestDate.Equal(wantLast) {
		t.Errorf("LastTestDate = %v, want %v", ch1.LastTestDate, wantLast)
	}
}

func TestChapterImprovementTrend(t *testing.T) {
	e := New(DefaultConfig())

	// Five participating tests: below the minimum, no trend.
	var tests []model.TestResult
	for i := 0; i < 5; i++ {
		tests = append(tests, testWith(fmt.Sprintf("t%d", i), i, responseAt("w1", true, i)))
	}
	ch1 := chapterByName(t, e.ComputeChapterStats(tests, chapterWords()), "1")
	if ch1.ImprovementTrend != 0 {
		t.Errorf("trend with 5 tests = %v, want 0", ch1.ImprovementTrend)
	}

	// Six participating tests: three all-wrong, then three all-right.
	tests = nil
	for i := 0; i < 6; i++ {
		tests = append(tests, testWith(fmt.Sprintf("t%d", i), i, responseAt("w1", i >= 3, i)))
	}
	ch1 = chapterByName(t, e.ComputeChapterStats(tests, chapterWords()), "1")
	if ch1.ImprovementTrend != 100 {
		t.Errorf("trend = %v, want 100", ch1.ImprovementTrend)
	}
}
