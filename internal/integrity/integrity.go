package integrity

import (
	"sort"

	"github.com/karliky/turrero-pipeline/internal/types"
)

// Report lists every cross-dataset inconsistency found. The check never
// mutates anything: it is run output for the operator, who curates the side
// files by hand.
type Report struct {
	// MissingByFile maps a dataset name to the thread IDs that exist in the
	// raw thread store but are absent from that dataset.
	MissingByFile map[string][]string
	// BrokenBooks lists book record IDs whose threadId references no thread.
	BrokenBooks []string
	// BrokenRelations maps graph node IDs to related-thread entries that
	// reference no node.
	BrokenRelations map[string][]string
}

// OK reports whether the datasets are fully consistent.
func (r Report) OK() bool {
	return len(r.MissingByFile) == 0 && len(r.BrokenBooks) == 0 && len(r.BrokenRelations) == 0
}

// Check verifies that every thread is covered by each side file and that the
// book and graph datasets are referentially closed over the thread store.
func Check(threads []types.Thread, categories []types.CategoryEntry, summaries []types.SummaryEntry, exams []types.ExamEntry, books []types.BookRecord, nodes []types.GraphNode) Report {
	report := Report{
		MissingByFile:   make(map[string][]string),
		BrokenRelations: make(map[string][]string),
	}

	threadIDs := make(map[string]bool, len(threads))
	for _, t := range threads {
		threadIDs[t.ID()] = true
	}

	record := func(name string, present map[string]bool) {
		var missing []string
		for id := range threadIDs {
			if !present[id] {
				missing = append(missing, id)
			}
		}
		if len(missing) > 0 {
			sort.Strings(missing)
			report.MissingByFile[name] = missing
		}
	}

	present := func(ids []string) map[string]bool {
		m := make(map[string]bool, len(ids))
		for _, id := range ids {
			m[id] = true
		}
		return m
	}

	var catIDs, sumIDs, examIDs []string
	for _, c := range categories {
		catIDs = append(catIDs, c.ID)
	}
	for _, s := range summaries {
		sumIDs = append(sumIDs, s.ID)
	}
	for _, e := range exams {
		examIDs = append(examIDs, e.ID)
	}

	record("categories", present(catIDs))
	record("summaries", present(sumIDs))
	record("exams", present(examIDs))

	for _, b := range books {
		if !threadIDs[b.ThreadID] {
			report.BrokenBooks = append(report.BrokenBooks, b.ID)
		}
	}
	sort.Strings(report.BrokenBooks)

	nodeIDs := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		nodeIDs[n.ID] = true
	}
	for _, n := range nodes {
		for _, rid := range n.RelatedThreads {
			if !nodeIDs[rid] {
				report.BrokenRelations[n.ID] = append(report.BrokenRelations[n.ID], rid)
			}
		}
	}

	return report
}
