package integrity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karliky/turrero-pipeline/internal/types"
)

func thread(id string) types.Thread {
	return types.Thread{{ID: id}}
}

func TestCheck_ConsistentDatasets(t *testing.T) {
	threads := []types.Thread{thread("1"), thread("2")}

	report := Check(threads,
		[]types.CategoryEntry{{ID: "1"}, {ID: "2"}},
		[]types.SummaryEntry{{ID: "1"}, {ID: "2"}},
		[]types.ExamEntry{{ID: "1"}, {ID: "2"}},
		[]types.BookRecord{{EnrichedRecord: types.EnrichedRecord{ID: "b1"}, ThreadID: "1"}},
		[]types.GraphNode{
			{ID: "1", RelatedThreads: []string{"2"}},
			{ID: "2", RelatedThreads: []string{}},
		})

	assert.True(t, report.OK())
}

func TestCheck_ReportsMissingSidecarEntries(t *testing.T) {
	threads := []types.Thread{thread("1"), thread("2"), thread("3")}

	report := Check(threads,
		[]types.CategoryEntry{{ID: "1"}},
		[]types.SummaryEntry{{ID: "1"}, {ID: "2"}, {ID: "3"}},
		[]types.ExamEntry{},
		nil, nil)

	assert.False(t, report.OK())
	assert.Equal(t, []string{"2", "3"}, report.MissingByFile["categories"])
	assert.NotContains(t, report.MissingByFile, "summaries")
	assert.Equal(t, []string{"1", "2", "3"}, report.MissingByFile["exams"])
}

func TestCheck_ReportsBrokenBookForeignKeys(t *testing.T) {
	threads := []types.Thread{thread("1")}

	report := Check(threads, nil, nil, nil,
		[]types.BookRecord{
			{EnrichedRecord: types.EnrichedRecord{ID: "b2"}, ThreadID: "999"},
			{EnrichedRecord: types.EnrichedRecord{ID: "b1"}, ThreadID: "1"},
		}, nil)

	require.Len(t, report.BrokenBooks, 1)
	assert.Equal(t, "b2", report.BrokenBooks[0])
}

func TestCheck_ReportsBrokenGraphRelations(t *testing.T) {
	threads := []types.Thread{thread("1"), thread("2")}

	report := Check(threads, nil, nil, nil, nil,
		[]types.GraphNode{
			{ID: "1", RelatedThreads: []string{"2", "404"}},
			{ID: "2"},
		})

	assert.Equal(t, []string{"404"}, report.BrokenRelations["1"])
	assert.NotContains(t, report.BrokenRelations, "2")
}
