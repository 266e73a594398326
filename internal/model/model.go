package model

import (
	"time"
)

// Difficulty represents the smart difficulty assigned to a test session.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// TestType distinguishes single-chapter tests from mixed ones.
type TestType string

const (
	// TestTypeSelective means every tested word belongs to one chapter.
	TestTypeSelective TestType = "selective"
	// TestTypeComplete means the test mixed words from several chapters.
	TestTypeComplete TestType = "complete"
)

// WordStatus classifies a word's learning state from its attempt history.
type WordStatus string

const (
	StatusNew          WordStatus = "new"
	StatusStruggling   WordStatus = "struggling"
	StatusPromising    WordStatus = "promising"
	StatusInconsistent WordStatus = "inconsistent"
	StatusCritical     WordStatus = "critical"
	StatusImproving    WordStatus = "improving"
	StatusConsolidated WordStatus = "consolidated"
)

// Proficiency is the discrete mastery classification of a word.
type Proficiency string

const (
	ProficiencyBeginner     Proficiency = "beginner"
	ProficiencyIntermediate Proficiency = "intermediate"
	ProficiencyAdvanced     Proficiency = "advanced"
	ProficiencyExpert       Proficiency = "expert"
)

// Action is the recommended next step for a word.
type Action string

const (
	ActionMaintain           Action = "maintain"
	ActionPracticeSpeed      Action = "practice_speed"
	ActionReviewOccasionally Action = "review_occasionally"
	ActionStudyMore          Action = "study_more"
)

// Word is a vocabulary catalogue entry. The analytics engine treats it
// as read-only; catalogue CRUD lives elsewhere.
type Word struct {
	ID        string `json:"id"`
	English   string `json:"english"`
	Italian   string `json:"italian"`
	Chapter   string `json:"chapter,omitempty"`
	Group     string `json:"group,omitempty"`
	Learned   bool   `json:"learned"`
	Difficult bool   `json:"difficult"`
}

// WordResponse is one answer to one word within one test. Immutable
// once created; the attempt log is a ledger, never edited.
type WordResponse struct {
	WordID    string    `json:"word_id"`
	Correct   bool      `json:"correct"`
	HintsUsed int       `json:"hints_used"`
	TimeMs    int64     `json:"time_ms"`
	Timestamp time.Time `json:"timestamp"`
}

// Normalize clamps negative optional numeric fields to zero so that
// aggregators can assume fully populated records.
func (r WordResponse) Normalize() WordResponse {
	if r.HintsUsed < 0 {
		r.HintsUsed = 0
	}
	if r.TimeMs < 0 {
		r.TimeMs = 0
	}
	return r
}

// SessionChapterStats is the mini per-chapter summary recorded for a
// single test session.
type SessionChapterStats struct {
	Total   int `json:"total"`
	Correct int `json:"correct"`
}

// TestResult is one completed test session. Created exactly once at
// test completion and never mutated; a misrecorded test is corrected by
// recording a new one.
type TestResult struct {
	ID           string                         `json:"id"`
	Timestamp    time.Time                      `json:"timestamp"`
	RightWords   []WordResponse                 `json:"right_words"`
	WrongWords   []WordResponse                 `json:"wrong_words"`
	Percentage   float64                        `json:"percentage"`
	TotalTimeMs  int64                          `json:"total_time_ms"`
	HintsUsed    int                            `json:"hints_used"`
	Difficulty   Difficulty                     `json:"difficulty"`
	Rationale    string                         `json:"rationale"`
	TestType     TestType                       `json:"test_type"`
	ChapterStats map[string]SessionChapterStats `json:"chapter_stats,omitempty"`
}

// Responses returns all detailed responses of the test, right then wrong.
func (t TestResult) Responses() []WordResponse {
	out := make([]WordResponse, 0, len(t.RightWords)+len(t.WrongWords))
	out = append(out, t.RightWords...)
	out = append(out, t.WrongWords...)
	return out
}

// Attempt is one entry in a word's denormalized performance history.
type Attempt struct {
	Timestamp time.Time `json:"timestamp"`
	Correct   bool      `json:"correct"`
	UsedHint  bool      `json:"used_hint"`
	TimeMs    int64     `json:"time_ms"`
}

// WordPerformance is the denormalized per-word history used for fast
// lookup. English/Italian/Chapter are snapshots taken at last write so
// the UI can still label the history if the catalogue entry changes.
type WordPerformance struct {
	English  string    `json:"english"`
	Italian  string    `json:"italian"`
	Chapter  string    `json:"chapter,omitempty"`
	Attempts []Attempt `json:"attempts"`
}

// GroupStats aggregates tests sharing a difficulty or test type.
type GroupStats struct {
	Count       int     `json:"count"`
	AvgAccuracy float64 `json:"avg_accuracy"`
	AvgTimeMs   float64 `json:"avg_time_ms"`
}

// GlobalStats is the single statistics snapshot derived from the full
// attempt log. Purely derived; recomputed, never authoritative.
type GlobalStats struct {
	TestCount      int `json:"test_count"`
	TotalAnswered  int `json:"total_answered"`
	TotalCorrect   int `json:"total_correct"`
	TotalIncorrect int `json:"total_incorrect"`
	// GlobalAccuracy is word-weighted: correct answers over all answers.
	GlobalAccuracy float64 `json:"global_accuracy"`
	// AvgTestAccuracy is test-weighted: the mean of each test's own
	// percentage. Deliberately kept distinct from GlobalAccuracy.
	AvgTestAccuracy  float64 `json:"avg_test_accuracy"`
	TotalHints       int     `json:"total_hints"`
	TotalTimeMs      int64   `json:"total_time_ms"`
	AvgTimePerWordMs float64 `json:"avg_time_per_word_ms"`
	HintsPerWord     float64 `json:"hints_per_word"`
	BestStreak       int     `json:"best_streak"`
	CurrentStreak    int     `json:"current_streak"`
	// StudyFrequency is tests per week over the span of recorded history.
	StudyFrequency   float64 `json:"study_frequency"`
	ImprovementTrend float64 `json:"improvement_trend"`

	ByDifficulty map[Difficulty]GroupStats `json:"by_difficulty"`
	ByTestType   map[TestType]GroupStats   `json:"by_test_type"`
}

// ChapterStats aggregates attempts for one chapter of the catalogue.
// Chapters with no test activity still get an entry with zero metrics.
type ChapterStats struct {
	Chapter           string    `json:"chapter"`
	TotalWords        int       `json:"total_words"`
	TestedWords       int       `json:"tested_words"`
	TotalAttempts     int       `json:"total_attempts"`
	CorrectAttempts   int       `json:"correct_attempts"`
	Accuracy          float64   `json:"accuracy"`
	AvgTimePerWordMs  float64   `json:"avg_time_per_word_ms"`
	HintsUsed         int       `json:"hints_used"`
	HintsPerWord      float64   `json:"hints_per_word"`
	HintsEfficiency   float64   `json:"hints_efficiency"`
	TestsParticipated int       `json:"tests_participated"`
	ImprovementTrend  float64   `json:"improvement_trend"`
	FirstTestDate     time.Time `json:"first_test_date,omitzero"`
	LastTestDate      time.Time `json:"last_test_date,omitzero"`
}

// WordAnalysis is the per-word proficiency profile. The zero-attempt
// case is a first-class output, not an error.
type WordAnalysis struct {
	WordID  string `json:"word_id"`
	English string `json:"english"`
	Italian string `json:"italian"`
	Chapter string `json:"chapter,omitempty"`

	TotalAttempts   int     `json:"total_attempts"`
	CorrectAttempts int     `json:"correct_attempts"`
	Accuracy        float64 `json:"accuracy"`
	RecentAccuracy  float64 `json:"recent_accuracy"`

	CurrentStreak int        `json:"current_streak"`
	BestStreak    int        `json:"best_streak"`
	Status        WordStatus `json:"status"`
	Consistency   float64    `json:"consistency"`

	AvgTimeMs       float64 `json:"avg_time_ms"`
	FastestTimeMs   int64   `json:"fastest_time_ms"`
	SlowestTimeMs   int64   `json:"slowest_time_ms"`
	TimeImprovement float64 `json:"time_improvement"`

	HintsUsed       int     `json:"hints_used"`
	HintsPerAttempt float64 `json:"hints_per_attempt"`
	// HintsTrend is positive when hint usage is falling off.
	HintsTrend   float64 `json:"hints_trend"`
	Independence float64 `json:"independence"`

	LearningVelocity float64 `json:"learning_velocity"`
	Retention        float64 `json:"retention"`

	Proficiency Proficiency `json:"proficiency"`
	Mastered    bool        `json:"mastered"`
	NeedsWork   bool        `json:"needs_work"`
	Action      Action      `json:"action"`

	FirstAttempt time.Time `json:"first_attempt,omitzero"`
	LastAttempt  time.Time `json:"last_attempt,omitzero"`
}

// RecommendationID returns the i18n message ID for the analysis'
// recommended action. Untested words get their own fixed message.
func (a WordAnalysis) RecommendationID() string {
	if a.TotalAttempts == 0 {
		return "RecommendNew"
	}
	switch a.Action {
	case ActionMaintain:
		return "RecommendMaintain"
	case ActionPracticeSpeed:
		return "RecommendPracticeSpeed"
	case ActionReviewOccasionally:
		return "RecommendReview"
	default:
		return "RecommendStudyMore"
	}
}

// Classification is the smart difficulty verdict for a candidate word
// set, computed once at test start and frozen onto the TestResult.
type Classification struct {
	Difficulty    Difficulty `json:"difficulty"`
	Rationale     string     `json:"rationale"`
	TotalWords    int        `json:"total_words"`
	HardCount     int        `json:"hard_count"`
	MediumCount   int        `json:"medium_count"`
	EasyCount     int        `json:"easy_count"`
	HardPct       float64    `json:"hard_pct"`
	MediumPct     float64    `json:"medium_pct"`
	EasyPct       float64    `json:"easy_pct"`
	Score         float64    `json:"score"`
	AdjustedScore float64    `json:"adjusted_score"`
}

// SessionSummary is what the test-taking collaborator hands over when a
// session finishes. WordTimes and WordHints are keyed by word ID; words
// missing from either map default to zero.
type SessionSummary struct {
	Timestamp   time.Time        `json:"timestamp"`
	TotalTimeMs int64            `json:"total_time_ms"`
	Hints       int              `json:"hints"`
	WordTimes   map[string]int64 `json:"word_times,omitempty"`
	WordHints   map[string]int   `json:"word_hints,omitempty"`
}

// DaysSince reports whole days between then and now. It is the only
// "now"-relative display value and is never baked into derived stats.
func DaysSince(then, now time.Time) int {
	if then.IsZero() || now.Before(then) {
		return 0
	}
	return int(now.Sub(then).Hours() / 24)
}
