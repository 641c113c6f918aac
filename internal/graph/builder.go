package graph

import (
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/karliky/turrero-pipeline/internal/types"
)

// Builder assembles one GraphNode per thread from engagement stats, the
// summary and category side files, and the related-threads relation. The
// graph is rebuilt wholesale every run.
type Builder struct {
	policy    Policy
	authorURL string
	logger    *zap.Logger
}

func NewBuilder(policy Policy, authorURL string, logger *zap.Logger) *Builder {
	if policy == nil {
		policy = CitationCategoryPolicy{}
	}
	return &Builder{policy: policy, authorURL: authorURL, logger: logger}
}

// Build produces exactly one node per thread, in ascending thread-ID order.
// Missing summaries become "", missing categories an empty slice; stat
// coercion failures become 0. Nothing here throws: the graph always covers
// every thread.
func (b *Builder) Build(threads []types.Thread, summaries []types.SummaryEntry, categories []types.CategoryEntry, enriched []types.EnrichedRecord, maxRelated int) []types.GraphNode {
	summaryByID := make(map[string]string, len(summaries))
	for _, s := range summaries {
		summaryByID[s.ID] = s.Summary
	}

	slugsByID := make(map[string][]string, len(categories))
	for _, c := range categories {
		slugsByID[c.ID] = c.Slugs()
	}

	related := b.policy.Related(Input{
		Threads:    threads,
		Enriched:   enriched,
		Categories: slugsByID,
		MaxRelated: maxRelated,
	})

	exists := make(map[string]bool, len(threads))
	for _, t := range threads {
		exists[t.ID()] = true
	}

	nodes := make([]types.GraphNode, 0, len(threads))
	for _, t := range threads {
		id := t.ID()

		var replies, likes, bookmarks, views int
		for _, p := range t {
			replies += ParseStat(p.Stats.Replies)
			likes += ParseStat(p.Stats.Likes)
			bookmarks += ParseStat(p.Stats.Bookmarks)
			views += ParseStat(p.Stats.Views)
		}

		slugs := slugsByID[id]
		if slugs == nil {
			slugs = []string{}
		}

		rel := make([]string, 0, len(related[id]))
		for _, rid := range related[id] {
			if !exists[rid] || rid == id {
				// Broken relation from the policy: drop the entry, keep the node.
				b.logger.Error("related thread does not exist, dropping relation",
					zap.String("thread_id", id),
					zap.String("related_id", rid))
				continue
			}
			rel = append(rel, rid)
		}

		nodes = append(nodes, types.GraphNode{
			ID:             id,
			URL:            b.authorURL + "/status/" + id,
			Replies:        replies,
			Likes:          likes,
			Bookmarks:      bookmarks,
			Views:          views,
			Summary:        summaryByID[id],
			Categories:     slugs,
			RelatedThreads: rel,
		})
	}

	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
	return nodes
}

// ParseStat coerces a display-string counter ("1.2K", "3M", "1,234") to an
// integer. Anything unparseable is 0.
func ParseStat(value string) int {
	v := strings.ReplaceAll(strings.TrimSpace(value), ",", "")
	if v == "" {
		return 0
	}

	multiplier := 1.0
	switch {
	case strings.HasSuffix(v, "K"), strings.HasSuffix(v, "k"):
		multiplier = 1_000
		v = v[:len(v)-1]
	case strings.HasSuffix(v, "M"), strings.HasSuffix(v, "m"):
		multiplier = 1_000_000
		v = v[:len(v)-1]
	}

	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0
	}
	return int(f * multiplier)
}
