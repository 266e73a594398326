package tracker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"reflect"
	"testing"
	"time"

	"github.com/parole-app/parole/internal/i18n"
	"github.com/parole-app/parole/internal/model"
	"github.com/parole-app/parole/internal/stats"
)

func TestMain(m *testing.M) {
	if err := i18n.Init("en"); err != nil {
		fmt.Fprintln(os.Stderr, "i18n init:", err)
		os.Exit(1)
	}
	os.Exit(m.Run())
}

var trackerBase = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

// fakeStore backs the tracker with in-memory slices, standing in for
// the sqlite store.
type fakeStore struct {
	words     []model.Word
	tests     []model.TestResult
	perf      map[string]model.WordPerformance
	appendErr error
}

func (f *fakeStore) Words() ([]model.Word, error) {
	return append([]model.Word(nil), f.words...), nil
}

func (f *fakeStore) Tests() ([]model.TestResult, error) {
	return append([]model.TestResult(nil), f.tests...), nil
}

func (f *fakeStore) AppendTest(t model.TestResult) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.tests = append(f.tests, t)
	return nil
}

func (f *fakeStore) WordPerformance() (map[string]model.WordPerformance, error) {
	out := make(map[string]model.WordPerformance, len(f.perf))
	for k, v := range f.perf {
		out[k] = v
	}
	return out, nil
}

func (f *fakeStore) SetWordPerformance(wordID string, perf model.WordPerformance) error {
	if f.perf == nil {
		f.perf = make(map[string]model.WordPerformance)
	}
	f.perf[wordID] = perf
	return nil
}

func defaultWords() []model.Word {
	return []model.Word{
		{ID: "w1", English: "dog", Italian: "cane", Chapter: "1"},
		{ID: "w2", English: "cat", Italian: "gatto", Chapter: "1"},
		{ID: "w3", English: "house", Italian: "casa", Chapter: "2"},
	}
}

func newTracker(t *testing.T, f *fakeStore) *Tracker {
	t.Helper()
	tr, err := New(stats.New(stats.DefaultConfig()), f, f)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return tr
}

func TestCompleteTestPartitionsResponses(t *testing.T) {
	f := &fakeStore{words: defaultWords()}
	tr := newTracker(t, f)

	sum := model.SessionSummary{
		Timestamp: trackerBase,
		WordTimes: map[string]int64{"w1": 2000, "w2": 3000, "w3": 4000},
		WordHints: map[string]int{"w2": 1},
	}
	result, err := tr.CompleteTest(context.Background(), sum, defaultWords(), []string{"w2"})
	if err != nil {
		t.Fatalf("CompleteTest: %v", err)
	}

	if result.ID == "" {
		t.Error("result has no ID")
	}
	if len(result.RightWords) != 2 || len(result.WrongWords) != 1 {
		t.Fatalf("partition = %d right / %d wrong, want 2/1", len(result.RightWords), len(result.WrongWords))
	}
	if result.WrongWords[0].WordID != "w2" || result.WrongWords[0].HintsUsed != 1 {
		t.Errorf("wrong response = %+v", result.WrongWords[0])
	}
	if result.Percentage != 66.7 {
		t.Errorf("Percentage = %v, want 66.7", result.Percentage)
	}
	// Session-level totals fall back to the per-word sums.
	if result.HintsUsed != 1 || result.TotalTimeMs != 9000 {
		t.Errorf("totals = %d hints / %d ms, want 1/9000", result.HintsUsed, result.TotalTimeMs)
	}
	// Two chapters took part, so the test counts as complete.
	if result.TestType != model.TestTypeComplete {
		t.Errorf("TestType = %v, want complete", result.TestType)
	}
	want := map[string]model.SessionChapterStats{
		"1": {Total: 2, Correct: 1},
		"2": {Total: 1, Correct: 1},
	}
	if !reflect.DeepEqual(result.ChapterStats, want) {
		t.Errorf("ChapterStats = %v, want %v", result.ChapterStats, want)
	}

	if len(f.tests) != 1 {
		t.Fatalf("ledger has %d tests, want 1", len(f.tests))
	}
	if got := tr.Tests(); len(got) != 1 || got[0].ID != result.ID {
		t.Errorf("Tests() = %v", got)
	}
}

func TestCompleteTestSingleChapterIsSelective(t *testing.T) {
	f := &fakeStore{words: defaultWords()}
	tr := newTracker(t, f)

	words := defaultWords()[:2]
	result, err := tr.CompleteTest(context.Background(), model.SessionSummary{Timestamp: trackerBase}, words, nil)
	if err != nil {
		t.Fatalf("CompleteTest: %v", err)
	}
	if result.TestType != model.TestTypeSelective {
		t.Errorf("TestType = %v, want selective", result.TestType)
	}
	if result.Percentage != 100 {
		t.Errorf("Percentage = %v, want 100", result.Percentage)
	}
}

func TestCompleteTestNoWords(t *testing.T) {
	tr := newTracker(t, &fakeStore{words: defaultWords()})
	_, err := tr.CompleteTest(context.Background(), model.SessionSummary{}, nil, nil)
	if !errors.Is(err, ErrEmptySession) {
		t.Fatalf("err = %v, want ErrEmptySession", err)
	}
}

func TestCompleteTestFreezesDifficulty(t *testing.T) {
	// First test over unpracticed words: the classifier sees an empty
	// ledger and calls it medium, no matter how the session went.
	f := &fakeStore{words: defaultWords()}
	tr := newTracker(t, f)

	result, err := tr.CompleteTest(context.Background(), model.SessionSummary{Timestamp: trackerBase},
		defaultWords(), []string{"w1", "w2", "w3"})
	if err != nil {
		t.Fatalf("CompleteTest: %v", err)
	}
	if result.Difficulty != model.DifficultyMedium {
		t.Errorf("Difficulty = %v, want medium for all-new words", result.Difficulty)
	}
	if result.Rationale == "" {
		t.Error("Rationale is empty")
	}
}

func TestCompleteTestAppendFailure(t *testing.T) {
	f := &fakeStore{words: defaultWords(), appendErr: errors.New("disk full")}
	tr := newTracker(t, f)

	before := tr.GlobalStats()
	_, err := tr.CompleteTest(context.Background(), model.SessionSummary{Timestamp: trackerBase}, defaultWords(), nil)
	if err == nil {
		t.Fatal("expected persistence error")
	}
	// A failed append leaves the in-memory ledger untouched.
	if after := tr.GlobalStats(); after.TestCount != before.TestCount {
		t.Errorf("TestCount moved from %d to %d on a failed append", before.TestCount, after.TestCount)
	}
}

func TestRecordAttempt(t *testing.T) {
	f := &fakeStore{words: defaultWords()}
	tr := newTracker(t, f)

	if err := tr.RecordAttempt("nope", true, false, 1000); !errors.Is(err, ErrUnknownWord) {
		t.Fatalf("err = %v, want ErrUnknownWord", err)
	}

	if err := tr.RecordAttempt("w1", true, true, 2500); err != nil {
		t.Fatalf("RecordAttempt: %v", err)
	}
	perf, ok := tr.Performance("w1")
	if !ok {
		t.Fatal("no performance record for w1")
	}
	if perf.English != "dog" || perf.Italian != "cane" || perf.Chapter != "1" {
		t.Errorf("snapshot fields = %+v", perf)
	}
	if len(perf.Attempts) != 1 {
		t.Fatalf("attempts = %d, want 1", len(perf.Attempts))
	}
	a := perf.Attempts[0]
	if !a.Correct || !a.UsedHint || a.TimeMs != 2500 {
		t.Errorf("attempt = %+v", a)
	}
	// The write reached the ledger, not just the snapshot.
	if len(f.perf["w1"].Attempts) != 1 {
		t.Errorf("ledger attempts = %d, want 1", len(f.perf["w1"].Attempts))
	}
}

func TestDerivedViewsMemoized(t *testing.T) {
	f := &fakeStore{words: defaultWords()}
	tr := newTracker(t, f)

	if _, err := tr.CompleteTest(context.Background(), model.SessionSummary{Timestamp: trackerBase},
		defaultWords(), []string{"w2"}); err != nil {
		t.Fatalf("CompleteTest: %v", err)
	}

	first := tr.GlobalStats()
	second := tr.GlobalStats()
	if !reflect.DeepEqual(first, second) {
		t.Errorf("memoized view differs from itself:\n%+v\n%+v", first, second)
	}
	if first.TestCount != 1 || first.TotalAnswered != 3 {
		t.Errorf("global = %+v", first)
	}

	chapters := tr.ChapterStats()
	if len(chapters) != 2 {
		t.Fatalf("chapters = %v", chapters)
	}

	// A new test invalidates the memo.
	if _, err := tr.CompleteTest(context.Background(), model.SessionSummary{Timestamp: trackerBase.AddDate(0, 0, 1)},
		defaultWords(), nil); err != nil {
		t.Fatalf("CompleteTest: %v", err)
	}
	if gs := tr.GlobalStats(); gs.TestCount != 2 {
		t.Errorf("TestCount = %d, want 2 after second test", gs.TestCount)
	}
}

func TestWordAnalysisThroughTracker(t *testing.T) {
	f := &fakeStore{words: defaultWords()}
	tr := newTracker(t, f)

	if _, err := tr.WordAnalysis("nope"); !errors.Is(err, ErrUnknownWord) {
		t.Fatalf("err = %v, want ErrUnknownWord", err)
	}

	wa, err := tr.WordAnalysis("w1")
	if err != nil {
		t.Fatalf("WordAnalysis: %v", err)
	}
	if wa.Status != model.StatusNew || wa.TotalAttempts != 0 {
		t.Errorf("fresh word analysis = %+v", wa)
	}

	if _, err := tr.CompleteTest(context.Background(), model.SessionSummary{Timestamp: trackerBase},
		defaultWords(), []string{"w2"}); err != nil {
		t.Fatalf("CompleteTest: %v", err)
	}
	wa, err = tr.WordAnalysis("w1")
	if err != nil {
		t.Fatalf("WordAnalysis: %v", err)
	}
	if wa.TotalAttempts != 1 || wa.Status != model.StatusPromising {
		t.Errorf("analysis after one correct answer = %+v", wa)
	}
}

func TestClassifyPreview(t *testing.T) {
	f := &fakeStore{words: defaultWords()}
	tr := newTracker(t, f)

	if _, err := tr.Classify(context.Background(), []string{"w1", "nope"}); !errors.Is(err, ErrUnknownWord) {
		t.Fatalf("err = %v, want ErrUnknownWord", err)
	}

	c, err := tr.Classify(context.Background(), []string{"w1", "w2"})
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if c.Difficulty != model.DifficultyMedium || c.MediumCount != 2 {
		t.Errorf("classification = %+v", c)
	}
	// Previewing records nothing.
	if len(f.tests) != 0 {
		t.Errorf("ledger has %d tests after a preview", len(f.tests))
	}
}

func TestWeakestWords(t *testing.T) {
	f := &fakeStore{words: defaultWords()}
	tr := newTracker(t, f)

	// w1 always right, w2 always wrong, w3 never tested.
	for day := 0; day < 3; day++ {
		sum := model.SessionSummary{Timestamp: trackerBase.AddDate(0, 0, day)}
		if _, err := tr.CompleteTest(context.Background(), sum, defaultWords()[:2], []string{"w2"}); err != nil {
			t.Fatalf("CompleteTest: %v", err)
		}
	}

	weakest := tr.WeakestWords(1)
	if len(weakest) != 1 {
		t.Fatalf("weakest = %v", weakest)
	}
	if weakest[0].WordID != "w2" || weakest[0].Accuracy != 0 {
		t.Errorf("weakest word = %+v", weakest[0])
	}

	all := tr.WeakestWords(0)
	if len(all) != 2 {
		t.Errorf("tested words = %d, want 2 (untested excluded)", len(all))
	}
}

func TestReloadCatalogue(t *testing.T) {
	f := &fakeStore{words: defaultWords()}
	tr := newTracker(t, f)

	f.words = append(f.words, model.Word{ID: "w4", English: "bread", Italian: "pane", Chapter: "3"})
	if err := tr.ReloadCatalogue(); err != nil {
		t.Fatalf("ReloadCatalogue: %v", err)
	}
	if got := tr.Words(); len(got) != 4 {
		t.Fatalf("words = %d, want 4", len(got))
	}
	chapters := tr.ChapterStats()
	if len(chapters) != 3 {
		t.Errorf("chapters = %v, want the new chapter included", chapters)
	}
}
