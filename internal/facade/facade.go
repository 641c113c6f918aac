package facade

import (
	"sort"

	"github.com/karliky/turrero-pipeline/internal/config"
	"github.com/karliky/turrero-pipeline/internal/graph"
	"github.com/karliky/turrero-pipeline/internal/store"
	"github.com/karliky/turrero-pipeline/internal/types"
)

// Facade is the single read path consumers use over the datasets. It loads
// every store once at construction and serves pure in-memory lookups from
// then on: no hot reload, no I/O after New returns, safe for concurrent
// readers. Construct it once at process start and inject it; there is no
// package-level instance on purpose.
type Facade struct {
	threads    []types.Thread
	byID       map[string]types.Thread
	byCategory map[string][]types.Thread
	summaries  map[string]string
	exams      map[string]types.ExamEntry
	engagement map[string]int
}

// New loads all datasets into memory. Any unreadable dataset file is fatal:
// a facade over partial data would silently serve wrong answers.
func New(cfg config.DataConfig) (*Facade, error) {
	threads, err := store.LoadThreads(cfg.Threads, cfg.AuthorURL)
	if err != nil {
		return nil, err
	}

	categories, err := store.LoadCategories(cfg.Categories)
	if err != nil {
		return nil, err
	}

	summaries, err := store.LoadSummaries(cfg.Summaries)
	if err != nil {
		return nil, err
	}

	exams, err := store.LoadExams(cfg.Exams)
	if err != nil {
		return nil, err
	}

	f := &Facade{
		threads:    threads,
		byID:       store.ThreadIndex(threads),
		byCategory: make(map[string][]types.Thread),
		summaries:  make(map[string]string, len(summaries)),
		exams:      make(map[string]types.ExamEntry, len(exams)),
		engagement: make(map[string]int, len(threads)),
	}

	for _, t := range threads {
		score := 0
		for _, p := range t {
			score += graph.ParseStat(p.Stats.Likes)
			score += graph.ParseStat(p.Stats.Retweets)
			score += graph.ParseStat(p.Stats.Quotes)
		}
		f.engagement[t.ID()] = score
	}

	for _, c := range categories {
		t, ok := f.byID[c.ID]
		if !ok {
			continue
		}
		for _, slug := range c.Slugs() {
			f.byCategory[slug] = append(f.byCategory[slug], t)
		}
	}

	for _, s := range summaries {
		f.summaries[s.ID] = s.Summary
	}
	for _, e := range exams {
		f.exams[e.ID] = e
	}

	return f, nil
}

// Threads returns all loaded threads in store order.
func (f *Facade) Threads() []types.Thread {
	return f.threads
}

// Thread returns the thread with the given ID.
func (f *Facade) Thread(id string) (types.Thread, bool) {
	t, ok := f.byID[id]
	return t, ok
}

// ThreadsByCategory returns every thread whose category assignment includes
// the given slug. Order is unspecified; callers sort as they need.
func (f *Facade) ThreadsByCategory(slug string) []types.Thread {
	return f.byCategory[slug]
}

// SummaryByThreadID returns the thread's one-line summary, or "" when none
// exists.
func (f *Facade) SummaryByThreadID(id string) string {
	return f.summaries[id]
}

// ExamByThreadID returns the thread's exam. The second return value
// distinguishes "no exam recorded" from an exam with zero questions.
func (f *Facade) ExamByThreadID(id string) (types.ExamEntry, bool) {
	e, ok := f.exams[id]
	return e, ok
}

// Engagement returns a thread's engagement score: likes plus retweets plus
// quote counts, summed over its posts. Views are deliberately excluded.
func (f *Facade) Engagement(id string) int {
	return f.engagement[id]
}

// TopByEngagement returns the n highest-engagement threads. The ranking is
// reproducible: equal scores order by ascending thread ID.
func (f *Facade) TopByEngagement(n int) []types.Thread {
	ranked := make([]types.Thread, len(f.threads))
	copy(ranked, f.threads)

	sort.Slice(ranked, func(i, j int) bool {
		si, sj := f.engagement[ranked[i].ID()], f.engagement[ranked[j].ID()]
		if si != sj {
			return si > sj
		}
		return ranked[i].ID() < ranked[j].ID()
	})

	if n >= 0 && n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked
}
