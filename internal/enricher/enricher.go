package enricher

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/karliky/turrero-pipeline/internal/config"
	"github.com/karliky/turrero-pipeline/internal/extractor"
	"github.com/karliky/turrero-pipeline/internal/store"
	"github.com/karliky/turrero-pipeline/internal/types"
)

// Enricher resolves link cards into enriched records. It is the only
// component in the pipeline with network and filesystem side effects;
// everything downstream is a pure transform over its output.
type Enricher struct {
	client    *http.Client
	cache     *ResolveCache
	extractor *extractor.Extractor
	imageDir  string
	userAgent string
	limit     int
	logger    *zap.Logger
}

// New creates an Enricher. cache may be nil to disable resolution caching.
func New(cfg config.EnrichConfig, imageDir string, cache *ResolveCache, logger *zap.Logger) *Enricher {
	limit := cfg.Concurrency
	if limit < 1 {
		limit = 1
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &Enricher{
		client:    &http.Client{Timeout: timeout},
		cache:     cache,
		extractor: extractor.New(logger),
		imageDir:  imageDir,
		userAgent: cfg.UserAgent,
		limit:     limit,
		logger:    logger,
	}
}

// Report summarizes one enrichment pass.
type Report struct {
	Enriched int64
	Skipped  int64
	Failed   int64
}

// EnrichThreads processes every post of every thread: posts already present
// in the enriched store are skipped (idempotence), embedded references are
// persisted directly with no network traffic, and cards fan out to a bounded
// number of concurrent network tasks. Per-post failures never abort the
// batch; the only fatal error is failing to persist the store itself.
func (e *Enricher) EnrichThreads(ctx context.Context, threads []types.Thread, st *store.EnrichedStore) (Report, error) {
	var report Report

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.limit)

	for _, thread := range threads {
		for _, post := range thread {
			if st.Has(post.ID) {
				atomic.AddInt64(&report.Skipped, 1)
				continue
			}

			c := e.extractor.Classify(post)
			switch c.Kind {
			case extractor.KindNone:
				continue

			case extractor.KindEmbed:
				// No network needed: persist straight from the blob.
				st.Append(types.EnrichedRecord{
					ID:              post.ID,
					Type:            types.TypeEmbeddedReference,
					EmbeddedTweetID: c.Embed.ID,
					Author:          c.Embed.Author,
					Text:            c.Embed.Text,
				})
				atomic.AddInt64(&report.Enriched, 1)

			case extractor.KindCard, extractor.KindMedia:
				post, c := post, c
				g.Go(func() error {
					rec, ok := e.enrich(ctx, post, c)
					if !ok {
						atomic.AddInt64(&report.Failed, 1)
						return nil
					}
					st.Append(rec)
					atomic.AddInt64(&report.Enriched, 1)
					return nil
				})
			}
		}
	}

	if err := g.Wait(); err != nil {
		return report, err
	}

	if err := st.Save(); err != nil {
		return report, err
	}

	return report, nil
}

// enrich builds the enriched record for one card or media post. Each step
// fails soft to a partial record; only a transient destination fetch skips
// the record entirely, leaving it unmarked so the next run retries it.
func (e *Enricher) enrich(ctx context.Context, post types.Post, c extractor.Classification) (types.EnrichedRecord, bool) {
	rec := types.EnrichedRecord{ID: post.ID}

	if c.Kind == extractor.KindMedia {
		rec.Type = types.TypeMedia
	} else {
		rec.Type = types.TypeCard
		rec.URL = e.resolve(ctx, c.Card.URL)

		if media, ok := ClassifyDomain(rec.URL); ok {
			rec.Media = media

			meta, err := e.fetchPageMeta(ctx, rec.URL)
			if err != nil {
				var transient errTransient
				if errors.As(err, &transient) {
					e.logger.Warn("transient fetch failure, will retry next run",
						zap.String("post_id", post.ID),
						zap.String("url", rec.URL),
						zap.Error(err))
					return types.EnrichedRecord{}, false
				}
				e.logger.Warn("page metadata unavailable",
					zap.String("post_id", post.ID),
					zap.String("url", rec.URL),
					zap.Error(err))
			}

			rec.Title = meta.Title
			rec.Description = meta.Description
			if media == types.MediaGoodreads && meta.Heading != "" {
				// The catalog page's h1 is the canonical book title.
				rec.Title = meta.Heading
			}
		}
	}

	if c.Card.Image != "" {
		img, err := e.downloadImage(ctx, post.ID, c.Card.Image)
		if err != nil {
			e.logger.Warn("preview image download failed, continuing without",
				zap.String("post_id", post.ID),
				zap.Error(err))
		} else {
			rec.Image = img
		}
	}

	return rec, true
}

// resolve follows a possibly shortened URL to its final destination. Any
// failure keeps the original URL: an unresolved link is still a valid card.
func (e *Enricher) resolve(ctx context.Context, rawURL string) string {
	if resolved, ok := e.cache.Get(rawURL); ok {
		return resolved
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return rawURL
	}
	req.Header.Set("User-Agent", e.userAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		e.logger.Warn("URL resolution failed, keeping original",
			zap.String("url", rawURL),
			zap.Error(err))
		return rawURL
	}
	resp.Body.Close()

	resolved := resp.Request.URL.String()
	e.cache.Put(rawURL, resolved)
	return resolved
}
