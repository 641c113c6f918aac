package types

import (
	"encoding/json"
	"strings"
)

// Post is one scraped unit of a thread, as emitted by the upstream scraper.
// Metadata carries the raw inline blob (link card or embedded post) untouched;
// classification happens downstream and never mutates the post.
type Post struct {
	ID       string          `json:"id"`
	Text     string          `json:"tweet"`
	Time     string          `json:"time,omitempty"`
	Author   string          `json:"author,omitempty"`
	Stats    Stats           `json:"stats"`
	Metadata json.RawMessage `json:"metadata,omitempty"`
}

// Stats holds engagement counters as the platform displays them ("1.2K", "3M").
// Coercion to integers is the graph builder's job.
type Stats struct {
	Views     string `json:"views,omitempty"`
	Likes     string `json:"likes,omitempty"`
	Retweets  string `json:"retweets,omitempty"`
	Quotes    string `json:"quotetweets,omitempty"`
	Replies   string `json:"replies,omitempty"`
	Bookmarks string `json:"bookmarks,omitempty"`
}

// Thread is an ordered, non-empty sequence of posts sharing one conversational
// lineage. Its identity is the first post's ID, which is the join key for
// every derived dataset.
type Thread []Post

// ID returns the thread's identity (the first post's ID), or "" for an empty
// thread.
func (t Thread) ID() string {
	if len(t) == 0 {
		return ""
	}
	return t[0].ID
}

// Text concatenates the thread's post texts in scrape order, separated by
// newlines. This is the input handed to the AI service for categorization,
// summaries and exams.
func (t Thread) Text() string {
	var out string
	for i, p := range t {
		if i > 0 {
			out += "\n"
		}
		out += p.Text
	}
	return out
}

// Enriched record types.
const (
	TypeCard              = "card"
	TypeMedia             = "media"
	TypeEmbeddedReference = "embedded-reference"
)

// Media classifications for recognized destination domains.
const (
	MediaYouTube   = "youtube"
	MediaVimeo     = "vimeo"
	MediaGoodreads = "goodreads"
	MediaLinkedIn  = "linkedin"
)

// EnrichedRecord is the durable output of the enricher: one record per post
// whose inline metadata was successfully processed. Its presence in the
// enriched store is the idempotence marker that makes re-runs skip the post.
type EnrichedRecord struct {
	ID   string `json:"id"`
	Type string `json:"type"`

	// Card/media fields.
	URL         string `json:"url,omitempty"`
	Image       string `json:"img,omitempty"`
	Media       string `json:"media,omitempty"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`

	// Embedded-reference fields.
	EmbeddedTweetID string `json:"embeddedTweetId,omitempty"`
	Author          string `json:"author,omitempty"`
	Text            string `json:"tweet,omitempty"`
}

// BookRecord is a goodreads-classified enriched record joined to its owning
// thread and tagged by the categorization service.
type BookRecord struct {
	EnrichedRecord
	ThreadID   string   `json:"threadId"`
	Categories []string `json:"categories,omitempty"`
}

// CategoryEntry assigns category slugs to a thread. Categories are stored as
// a comma-delimited string on disk (historic format); use Slugs to split.
type CategoryEntry struct {
	ID         string `json:"id"`
	Categories string `json:"categories"`
}

// Slugs splits the delimited category string into trimmed slugs, dropping
// empties.
func (c CategoryEntry) Slugs() []string {
	parts := strings.Split(c.Categories, ",")
	slugs := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			slugs = append(slugs, s)
		}
	}
	return slugs
}

// SummaryEntry holds a thread's one-line summary.
type SummaryEntry struct {
	ID      string `json:"id"`
	Summary string `json:"summary"`
}

// ExamQuestion is one multiple-choice comprehension question. Answer is the
// index into Options.
type ExamQuestion struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Answer   int      `json:"answer"`
}

// ExamEntry holds a thread's comprehension exam.
type ExamEntry struct {
	ID        string         `json:"id"`
	Questions []ExamQuestion `json:"questions"`
}

// GraphNode is the per-thread aggregate consumed by the relationship graph.
// Stats are integers here, already coerced from display strings.
type GraphNode struct {
	ID             string   `json:"id"`
	URL            string   `json:"url"`
	Replies        int      `json:"replies"`
	Likes          int      `json:"likes"`
	Bookmarks      int      `json:"bookmarks"`
	Views          int      `json:"views"`
	Summary        string   `json:"summary"`
	Categories     []string `json:"categories"`
	RelatedThreads []string `json:"related_threads"`
}
