// Package stats is the learning analytics engine: pure functions that
// turn the append-only test ledger into global, per-chapter, and
// per-word derived views, plus the smart test-difficulty classifier.
package stats

// Config collects the tuning constants of the engine. They are
// hand-calibrated values, kept here so they can be adjusted without
// touching aggregator logic.
type Config struct {
	// StreakThreshold is the minimum test percentage for a test to
	// count toward the global streak.
	StreakThreshold float64

	// TrendMinTests is the minimum ledger size before the global
	// improvement trend is computed; TrendWindow is the size of the
	// recent window compared against the tests preceding it.
	TrendMinTests int
	TrendWindow   int

	// ChapterTrendMinTests / ChapterTrendWindow are the per-chapter
	// equivalents, counted over tests the chapter participated in.
	ChapterTrendMinTests int
	ChapterTrendWindow   int

	// ConsistencyWindow caps how many trailing attempts feed the
	// consistency score.
	ConsistencyWindow int

	// RecentWindow is the number of trailing attempts used for a
	// word's recent accuracy.
	RecentWindow int

	// TimedMinAttempts gates the first-half/second-half comparisons
	// for time improvement and the hints trend.
	TimedMinAttempts int

	// VelocityMinAttempts gates the first-third/last-third learning
	// velocity comparison.
	VelocityMinAttempts int

	// RetentionWindow/RetentionStep control the sliding window used
	// for the retention score.
	RetentionWindow int
	RetentionStep   int

	// MasteryThreshold, MasteryStreak, and MasteryIndependence must
	// all be met for a word to count as mastered.
	MasteryThreshold    float64
	MasteryStreak       int
	MasteryIndependence float64

	// Proficiency tiers, highest first: expert and advanced need an
	// accuracy floor and a streak, intermediate accuracy alone.
	ExpertAccuracy       float64
	ExpertStreak         int
	AdvancedAccuracy     float64
	AdvancedStreak       int
	IntermediateAccuracy float64

	// SpeedAccuracy and ReviewAccuracy are the action-ladder cutoffs
	// for practice_speed and review_occasionally.
	SpeedAccuracy  float64
	ReviewAccuracy float64

	// SlowTimeMs is the average response time above which an accurate
	// word still earns a practice_speed recommendation.
	SlowTimeMs int64

	// Classifier weights and thresholds.
	HardWeight   float64
	MediumWeight float64
	EasyWeight   float64
	// Large candidate sets regress toward the mean, so the score is
	// nudged toward easy; small sets amplify outliers, so toward hard.
	LargeTestSize      int
	LargeTestAdjust    float64
	SmallTestSize      int
	SmallTestAdjust    float64
	HardPctThreshold   float64
	EasyPctThreshold   float64
	HardScoreThreshold float64
	EasyScoreThreshold float64
}

// DefaultConfig returns the calibrated defaults.
func DefaultConfig() Config {
	return Config{
		StreakThreshold:      75,
		TrendMinTests:        6,
		TrendWindow:          5,
		ChapterTrendMinTests: 6,
		ChapterTrendWindow:   3,
		ConsistencyWindow:    10,
		RecentWindow:         5,
		TimedMinAttempts:     4,
		VelocityMinAttempts:  6,
		RetentionWindow:      3,
		RetentionStep:        2,
		MasteryThreshold:     90,
		MasteryStreak:        3,
		MasteryIndependence:  90,
		ExpertAccuracy:       90,
		ExpertStreak:         5,
		AdvancedAccuracy:     80,
		AdvancedStreak:       3,
		IntermediateAccuracy: 60,
		SpeedAccuracy:        80,
		ReviewAccuracy:       70,
		SlowTimeMs:           10000,
		HardWeight:           3,
		MediumWeight:         1,
		EasyWeight:           -1,
		LargeTestSize:        50,
		LargeTestAdjust:      -0.3,
		SmallTestSize:        15,
		SmallTestAdjust:      0.2,
		HardPctThreshold:     50,
		EasyPctThreshold:     70,
		HardScoreThreshold:   1.5,
		EasyScoreThreshold:   -0.5,
	}
}

// Engine computes derived statistics from ledger snapshots. All methods
// are pure: same input, same output, no mutation of arguments.
type Engine struct {
	cfg Config
}

// New creates an engine with the given configuration.
func New(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// Config returns the engine's configuration.
func (e *Engine) Config() Config {
	return e.cfg
}
