package store

import (
	"errors"
	"os"

	"github.com/karliky/turrero-pipeline/internal/types"
)

// The category, summary and exam datasets are independent side files keyed
// by thread ID, each maintained by a different actor (human curator or AI
// pass). They stay separate on disk so those actors never contend on one
// file; the facade joins them for readers.

// LoadCategories reads the per-thread category assignments.
func LoadCategories(path string) ([]types.CategoryEntry, error) {
	return loadSidecar[types.CategoryEntry](path)
}

// LoadSummaries reads the per-thread summaries.
func LoadSummaries(path string) ([]types.SummaryEntry, error) {
	return loadSidecar[types.SummaryEntry](path)
}

// LoadExams reads the per-thread comprehension exams.
func LoadExams(path string) ([]types.ExamEntry, error) {
	return loadSidecar[types.ExamEntry](path)
}

func loadSidecar[T any](path string) ([]T, error) {
	entries, err := ReadJSON[[]T](path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return entries, nil
}

// UpsertSummary replaces or appends a thread's summary entry and returns the
// updated slice.
func UpsertSummary(entries []types.SummaryEntry, e types.SummaryEntry) []types.SummaryEntry {
	for i := range entries {
		if entries[i].ID == e.ID {
			entries[i] = e
			return entries
		}
	}
	return append(entries, e)
}

// UpsertCategories replaces or appends a thread's category entry and returns
// the updated slice.
func UpsertCategories(entries []types.CategoryEntry, e types.CategoryEntry) []types.CategoryEntry {
	for i := range entries {
		if entries[i].ID == e.ID {
			entries[i] = e
			return entries
		}
	}
	return append(entries, e)
}

// UpsertExam replaces or appends a thread's exam entry and returns the
// updated slice.
func UpsertExam(entries []types.ExamEntry, e types.ExamEntry) []types.ExamEntry {
	for i := range entries {
		if entries[i].ID == e.ID {
			entries[i] = e
			return entries
		}
	}
	return append(entries, e)
}
