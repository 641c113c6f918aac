package graph

import (
	"sort"

	"github.com/karliky/turrero-pipeline/internal/types"
)

// Input is everything a similarity policy may consider.
type Input struct {
	Threads    []types.Thread
	Enriched   []types.EnrichedRecord
	Categories map[string][]string // thread ID -> category slugs
	MaxRelated int
}

// Policy computes the related-threads relation. Implementations must be
// deterministic given the same Input; the relation may be asymmetric (a
// citation points one way) but every returned ID must be an existing thread
// ID and never the thread itself.
type Policy interface {
	Related(in Input) map[string][]string
}

// CitationCategoryPolicy relates threads two ways, in priority order:
// threads that cite this one through an embedded reference, then threads
// sharing the most categories. Ties break on ascending thread ID so output
// is reproducible run to run.
type CitationCategoryPolicy struct{}

func (CitationCategoryPolicy) Related(in Input) map[string][]string {
	exists := make(map[string]bool, len(in.Threads))
	owner := make(map[string]string) // post ID -> owning thread ID
	for _, t := range in.Threads {
		exists[t.ID()] = true
		for _, p := range t {
			owner[p.ID] = t.ID()
		}
	}

	// A thread embedding a reference to post X cites X's thread.
	citers := make(map[string][]string)
	for _, rec := range in.Enriched {
		if rec.Type != types.TypeEmbeddedReference {
			continue
		}
		citing, ok := owner[rec.ID]
		if !ok {
			continue
		}
		cited, ok := owner[rec.EmbeddedTweetID]
		if !ok {
			// Reference to a post outside the archive: no edge.
			continue
		}
		if cited != citing {
			citers[cited] = append(citers[cited], citing)
		}
	}

	out := make(map[string][]string, len(in.Threads))
	for _, t := range in.Threads {
		id := t.ID()
		related := uniqueSorted(citers[id])

		if len(related) < in.MaxRelated {
			related = fillByCategoryOverlap(id, related, in)
		}
		if in.MaxRelated > 0 && len(related) > in.MaxRelated {
			related = related[:in.MaxRelated]
		}

		out[id] = related
	}

	return out
}

// fillByCategoryOverlap appends threads ranked by shared category count,
// skipping self and already-related IDs.
func fillByCategoryOverlap(id string, related []string, in Input) []string {
	mine := make(map[string]bool)
	for _, c := range in.Categories[id] {
		mine[c] = true
	}
	if len(mine) == 0 {
		return related
	}

	seen := make(map[string]bool, len(related))
	for _, r := range related {
		seen[r] = true
	}

	type scored struct {
		id      string
		overlap int
	}
	var candidates []scored
	for _, t := range in.Threads {
		other := t.ID()
		if other == id || seen[other] {
			continue
		}
		overlap := 0
		for _, c := range in.Categories[other] {
			if mine[c] {
				overlap++
			}
		}
		if overlap > 0 {
			candidates = append(candidates, scored{other, overlap})
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].overlap != candidates[j].overlap {
			return candidates[i].overlap > candidates[j].overlap
		}
		return candidates[i].id < candidates[j].id
	})

	for _, c := range candidates {
		if in.MaxRelated > 0 && len(related) >= in.MaxRelated {
			break
		}
		related = append(related, c.id)
	}

	return related
}

func uniqueSorted(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}
