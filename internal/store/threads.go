package store

import (
	"fmt"
	"os"

	"github.com/karliky/turrero-pipeline/internal/types"
)

// LoadThreads reads the raw thread store. The file is produced by the
// upstream scraper and is never written by the pipeline.
//
// Normalization applied on load: empty threads are dropped, and posts that
// predate the author field get authorURL backfilled.
func LoadThreads(path, authorURL string) ([]types.Thread, error) {
	raw, err := ReadJSON[[]types.Thread](path)
	if err != nil {
		return nil, err
	}

	threads := make([]types.Thread, 0, len(raw))
	for _, t := range raw {
		if len(t) == 0 {
			continue
		}
		for i := range t {
			if t[i].Author == "" {
				t[i].Author = authorURL
			}
		}
		threads = append(threads, t)
	}

	return threads, nil
}

// ThreadIndex maps thread IDs to threads for join lookups.
func ThreadIndex(threads []types.Thread) map[string]types.Thread {
	idx := make(map[string]types.Thread, len(threads))
	for _, t := range threads {
		idx[t.ID()] = t
	}
	return idx
}

// OwningThread returns the thread containing the post with the given ID.
// Enriched records are keyed by post ID, which for non-first posts differs
// from the thread ID, so this scans post membership.
func OwningThread(threads []types.Thread, postID string) (types.Thread, bool) {
	for _, t := range threads {
		for _, p := range t {
			if p.ID == postID {
				return t, true
			}
		}
	}
	return nil, false
}

// EnsureReadable fails fast when a dataset file cannot be opened at all.
// This is the batch-level fatal case: everything else degrades per record.
func EnsureReadable(paths ...string) error {
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			return fmt.Errorf("dataset not readable: %w", err)
		}
		f.Close()
	}
	return nil
}
