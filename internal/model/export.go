package model

import "time"

// ExportVersion is the current version of the export envelope.
const ExportVersion = 1

// Export is the top-level JSON structure for data export and import.
type Export struct {
	Version     int                        `json:"version"`
	ExportedAt  time.Time                  `json:"exported_at"`
	Words       []Word                     `json:"words"`
	Tests       []TestResult               `json:"tests"`
	Performance map[string]WordPerformance `json:"performance,omitempty"`
}
