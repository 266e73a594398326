package store

import (
	"fmt"
	"time"

	"github.com/parole-app/parole/internal/model"
)

// ExportAll collects the catalogue, the test ledger, and the per-word
// performance records into one export envelope.
func (s *Store) ExportAll() (model.Export, error) {
	words, err := s.Words()
	if err != nil {
		return model.Export{}, fmt.Errorf("export words: %w", err)
	}
	tests, err := s.Tests()
	if err != nil {
		return model.Export{}, fmt.Errorf("export tests: %w", err)
	}
	perf, err := s.WordPerformance()
	if err != nil {
		return model.Export{}, fmt.Errorf("export performance: %w", err)
	}
	return model.Export{
		Version:     model.ExportVersion,
		ExportedAt:  time.Now(),
		Words:       words,
		Tests:       tests,
		Performance: perf,
	}, nil
}

// ImportAll loads an export envelope into the store. Words already
// present are left untouched; tests are appended only when their ID is
// new, so re-importing the same file is harmless.
func (s *Store) ImportAll(e model.Export) error {
	if e.Version > model.ExportVersion {
		return fmt.Errorf("unsupported export version %d", e.Version)
	}

	for _, w := range e.Words {
		if _, err := s.GetWord(w.ID); err == nil {
			continue
		} else if err != ErrNotFound {
			return fmt.Errorf("check word %s: %w", w.ID, err)
		}
		if err := s.InsertWord(w); err != nil {
			return fmt.Errorf("import word %s: %w", w.ID, err)
		}
	}

	existing, err := s.Tests()
	if err != nil {
		return fmt.Errorf("list tests: %w", err)
	}
	seen := make(map[string]bool, len(existing))
	for _, t := range existing {
		seen[t.ID] = true
	}
	for _, t := range e.Tests {
		if seen[t.ID] {
			continue
		}
		if err := s.AppendTest(t); err != nil {
			return fmt.Errorf("import test %s: %w", t.ID, err)
		}
	}

	for id, p := range e.Performance {
		if err := s.SetWordPerformance(id, p); err != nil {
			return fmt.Errorf("import performance for %s: %w", id, err)
		}
	}
	return nil
}
