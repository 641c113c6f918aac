package books

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/karliky/turrero-pipeline/internal/ai"
	"github.com/karliky/turrero-pipeline/internal/store"
	"github.com/karliky/turrero-pipeline/internal/types"
)

// Builder derives the book dataset from the enriched store: every record
// classified as the book catalog, joined to its owning thread and tagged by
// the categorization service.
type Builder struct {
	svc    ai.Service
	logger *zap.Logger
}

func NewBuilder(svc ai.Service, logger *zap.Logger) *Builder {
	return &Builder{svc: svc, logger: logger}
}

// Build selects book-catalog records, joins each to its owning thread, and
// categorizes books that aren't already categorized in existing (matched by
// record ID). A record with no owning thread is a broken foreign key: fatal
// for that record, logged and skipped, never for the batch. A categorization
// failure keeps whatever categories the book already had.
func (b *Builder) Build(ctx context.Context, records []types.EnrichedRecord, threads []types.Thread, existing []types.BookRecord) []types.BookRecord {
	prior := make(map[string][]string, len(existing))
	for _, book := range existing {
		prior[book.ID] = book.Categories
	}

	var out []types.BookRecord
	for _, rec := range records {
		if rec.Media != types.MediaGoodreads {
			continue
		}

		thread, ok := store.OwningThread(threads, rec.ID)
		if !ok {
			b.logger.Error("book record has no owning thread, skipping",
				zap.String("record_id", rec.ID))
			continue
		}

		book := types.BookRecord{
			EnrichedRecord: rec,
			ThreadID:       thread.ID(),
			Categories:     prior[rec.ID],
		}

		if len(book.Categories) == 0 {
			categories, err := b.svc.BookCategories(ctx, rec.Title, rec.Description)
			if err != nil {
				b.logger.Warn("book categorization failed, leaving uncategorized",
					zap.String("record_id", rec.ID),
					zap.String("title", rec.Title),
					zap.Error(err))
			} else {
				book.Categories = categories
			}
		}

		out = append(out, book)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
