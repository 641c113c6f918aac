package extractor

import (
	"encoding/json"

	"go.uber.org/zap"

	"github.com/karliky/turrero-pipeline/internal/types"
)

// Kind is the classification of a post's inline metadata blob.
type Kind int

const (
	// KindNone means no usable metadata: absent, malformed, or an unknown
	// shape. Classification failure always degrades here, never errors.
	KindNone Kind = iota
	// KindCard is a link-preview card: destination URL plus preview image.
	KindCard
	// KindEmbed is a reference to another post being quoted.
	KindEmbed
	// KindMedia is an attached media image with no destination link.
	KindMedia
)

// Card holds the fields the enricher needs from a link card.
type Card struct {
	URL   string
	Image string
}

// Embed holds the fields extracted from an embedded-post reference.
type Embed struct {
	ID     string
	Author string
	Text   string
}

// Classification is the extractor's verdict for one post.
type Classification struct {
	Kind  Kind
	Card  Card
	Embed Embed
}

// rawMetadata mirrors the scraper's inline blob. Cards carry img/url at the
// top level; quoted posts arrive under an "embed" key.
type rawMetadata struct {
	Img   string    `json:"img"`
	URL   string    `json:"url"`
	Embed *rawEmbed `json:"embed"`
}

type rawEmbed struct {
	Type   string `json:"type"`
	ID     string `json:"id"`
	Author string `json:"author"`
	Text   string `json:"tweet"`
}

// Extractor classifies inline metadata blobs.
type Extractor struct {
	logger *zap.Logger
}

func New(logger *zap.Logger) *Extractor {
	return &Extractor{logger: logger}
}

// Classify inspects a post's raw inline metadata and classifies it as card,
// embedded reference, or none. It never fails: a blob the extractor cannot
// make sense of is logged and classified as none so the pipeline moves on.
func (e *Extractor) Classify(post types.Post) Classification {
	if len(post.Metadata) == 0 {
		return Classification{Kind: KindNone}
	}

	var raw rawMetadata
	if err := json.Unmarshal(post.Metadata, &raw); err != nil {
		e.logger.Warn("malformed inline metadata, skipping enrichment",
			zap.String("post_id", post.ID),
			zap.Error(err))
		return Classification{Kind: KindNone}
	}

	if raw.Embed != nil && raw.Embed.ID != "" {
		return Classification{
			Kind: KindEmbed,
			Embed: Embed{
				ID:     raw.Embed.ID,
				Author: raw.Embed.Author,
				Text:   raw.Embed.Text,
			},
		}
	}

	if raw.URL != "" {
		return Classification{
			Kind: KindCard,
			Card: Card{URL: raw.URL, Image: raw.Img},
		}
	}

	if raw.Img != "" {
		return Classification{
			Kind: KindMedia,
			Card: Card{Image: raw.Img},
		}
	}

	e.logger.Warn("unrecognized inline metadata shape",
		zap.String("post_id", post.ID))
	return Classification{Kind: KindNone}
}
