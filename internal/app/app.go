package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/karliky/turrero-pipeline/internal/ai"
	"github.com/karliky/turrero-pipeline/internal/books"
	"github.com/karliky/turrero-pipeline/internal/config"
	"github.com/karliky/turrero-pipeline/internal/enricher"
	"github.com/karliky/turrero-pipeline/internal/graph"
	"github.com/karliky/turrero-pipeline/internal/integrity"
	"github.com/karliky/turrero-pipeline/internal/store"
	"github.com/karliky/turrero-pipeline/internal/types"
)

// App wires the pipeline stages together. Each stage is independently
// runnable and safe to re-run: enrichment skips already-enriched posts, the
// AI pass only fills missing side-file entries, books re-categorize nothing
// that already has categories, and the graph is rebuilt wholesale.
type App struct {
	cfg    *config.Config
	svc    ai.Service
	logger *zap.Logger
}

func New(cfg *config.Config, svc ai.Service, logger *zap.Logger) *App {
	return &App{cfg: cfg, svc: svc, logger: logger}
}

// Enrich runs the metadata extraction and link enrichment stage.
func (a *App) Enrich(ctx context.Context) error {
	threads, err := store.LoadThreads(a.cfg.Data.Threads, a.cfg.Data.AuthorURL)
	if err != nil {
		return err
	}

	st, err := store.OpenEnriched(a.cfg.Data.Enriched)
	if err != nil {
		return err
	}

	cache, err := enricher.OpenResolveCache(a.cfg.Enrich.ResolveCache)
	if err != nil {
		a.logger.Warn("resolve cache unavailable, resolving without cache", zap.Error(err))
		cache = nil
	}
	defer cache.Close()

	e := enricher.New(a.cfg.Enrich, a.cfg.Data.ImageDir, cache, a.logger)
	report, err := e.EnrichThreads(ctx, threads, st)
	if err != nil {
		return fmt.Errorf("enrichment failed: %w", err)
	}

	a.logger.Info("enrichment complete",
		zap.Int64("enriched", report.Enriched),
		zap.Int64("skipped", report.Skipped),
		zap.Int64("failed", report.Failed),
		zap.Int("store_size", st.Len()))
	return nil
}

// Sidecars fills in missing category, summary and exam entries via the AI
// service. Existing entries are never regenerated: the side files are
// slow-changing reference data curated by humans as much as by this pass. A
// service failure for one thread leaves that thread's entries untouched.
func (a *App) Sidecars(ctx context.Context) error {
	threads, err := store.LoadThreads(a.cfg.Data.Threads, a.cfg.Data.AuthorURL)
	if err != nil {
		return err
	}

	categories, err := store.LoadCategories(a.cfg.Data.Categories)
	if err != nil {
		return err
	}
	summaries, err := store.LoadSummaries(a.cfg.Data.Summaries)
	if err != nil {
		return err
	}
	exams, err := store.LoadExams(a.cfg.Data.Exams)
	if err != nil {
		return err
	}

	hasCategory := make(map[string]bool, len(categories))
	for _, c := range categories {
		hasCategory[c.ID] = true
	}
	hasSummary := make(map[string]bool, len(summaries))
	for _, s := range summaries {
		hasSummary[s.ID] = true
	}
	hasExam := make(map[string]bool, len(exams))
	for _, e := range exams {
		hasExam[e.ID] = true
	}

	var filled, failed int
	for _, t := range threads {
		id, text := t.ID(), t.Text()

		if !hasCategory[id] {
			slugs, err := a.svc.Categories(ctx, text)
			if err != nil {
				a.logger.Warn("categorization failed, entry left absent",
					zap.String("thread_id", id), zap.Error(err))
				failed++
			} else {
				categories = store.UpsertCategories(categories, types.CategoryEntry{
					ID:         id,
					Categories: strings.Join(slugs, ","),
				})
				filled++
			}
		}

		if !hasSummary[id] {
			summary, err := a.svc.Summary(ctx, text)
			if err != nil {
				a.logger.Warn("summary generation failed, entry left absent",
					zap.String("thread_id", id), zap.Error(err))
				failed++
			} else {
				summaries = store.UpsertSummary(summaries, types.SummaryEntry{ID: id, Summary: summary})
				filled++
			}
		}

		if !hasExam[id] {
			questions, err := a.svc.Exam(ctx, text)
			if err != nil {
				a.logger.Warn("exam generation failed, entry left absent",
					zap.String("thread_id", id), zap.Error(err))
				failed++
			} else {
				exams = store.UpsertExam(exams, types.ExamEntry{ID: id, Questions: questions})
				filled++
			}
		}
	}

	if err := store.WriteJSON(a.cfg.Data.Categories, categories); err != nil {
		return err
	}
	if err := store.WriteJSON(a.cfg.Data.Summaries, summaries); err != nil {
		return err
	}
	if err := store.WriteJSON(a.cfg.Data.Exams, exams); err != nil {
		return err
	}

	a.logger.Info("sidecar pass complete",
		zap.Int("filled", filled),
		zap.Int("failed", failed))
	return nil
}

// Books rebuilds the book dataset from book-catalog enrichments.
func (a *App) Books(ctx context.Context) error {
	threads, err := store.LoadThreads(a.cfg.Data.Threads, a.cfg.Data.AuthorURL)
	if err != nil {
		return err
	}

	st, err := store.OpenEnriched(a.cfg.Data.Enriched)
	if err != nil {
		return err
	}

	existing, err := store.LoadBooks(a.cfg.Data.Books)
	if err != nil {
		return err
	}

	builder := books.NewBuilder(a.svc, a.logger)
	updated := builder.Build(ctx, st.Records(), threads, existing)

	if err := store.SaveBooks(a.cfg.Data.Books, updated); err != nil {
		return err
	}

	a.logger.Info("book extraction complete", zap.Int("books", len(updated)))
	return nil
}

// Graph rebuilds the relationship graph dataset.
func (a *App) Graph(ctx context.Context) error {
	threads, err := store.LoadThreads(a.cfg.Data.Threads, a.cfg.Data.AuthorURL)
	if err != nil {
		return err
	}

	summaries, err := store.LoadSummaries(a.cfg.Data.Summaries)
	if err != nil {
		return err
	}
	categories, err := store.LoadCategories(a.cfg.Data.Categories)
	if err != nil {
		return err
	}

	st, err := store.OpenEnriched(a.cfg.Data.Enriched)
	if err != nil {
		return err
	}

	builder := graph.NewBuilder(graph.CitationCategoryPolicy{}, a.cfg.Data.AuthorURL, a.logger)
	nodes := builder.Build(threads, summaries, categories, st.Records(), a.cfg.Graph.MaxRelated)

	if err := store.SaveGraph(a.cfg.Data.Graph, nodes); err != nil {
		return err
	}

	a.logger.Info("graph rebuild complete", zap.Int("nodes", len(nodes)))
	return nil
}

// Check runs the cross-dataset integrity report.
func (a *App) Check(ctx context.Context) (integrity.Report, error) {
	threads, err := store.LoadThreads(a.cfg.Data.Threads, a.cfg.Data.AuthorURL)
	if err != nil {
		return integrity.Report{}, err
	}

	categories, err := store.LoadCategories(a.cfg.Data.Categories)
	if err != nil {
		return integrity.Report{}, err
	}
	summaries, err := store.LoadSummaries(a.cfg.Data.Summaries)
	if err != nil {
		return integrity.Report{}, err
	}
	exams, err := store.LoadExams(a.cfg.Data.Exams)
	if err != nil {
		return integrity.Report{}, err
	}
	bookRecords, err := store.LoadBooks(a.cfg.Data.Books)
	if err != nil {
		return integrity.Report{}, err
	}
	nodes, err := store.ReadJSON[[]types.GraphNode](a.cfg.Data.Graph)
	if err != nil {
		nodes = nil
	}

	report := integrity.Check(threads, categories, summaries, exams, bookRecords, nodes)

	if report.OK() {
		a.logger.Info("integrity check passed", zap.Int("threads", len(threads)))
	} else {
		for file, ids := range report.MissingByFile {
			a.logger.Warn("dataset missing thread IDs",
				zap.String("dataset", file),
				zap.Strings("missing", ids))
		}
		for _, id := range report.BrokenBooks {
			a.logger.Error("book references nonexistent thread", zap.String("record_id", id))
		}
		for node, ids := range report.BrokenRelations {
			a.logger.Error("graph node has broken relations",
				zap.String("node_id", node),
				zap.Strings("related", ids))
		}
	}

	return report, nil
}

// RunAll executes the full pipeline in stage order.
func (a *App) RunAll(ctx context.Context) error {
	runID := uuid.NewString()
	logger := a.logger.With(zap.String("run_id", runID))
	logger.Info("pipeline run starting")

	// The thread store is the pipeline's one hard input; fail fast if it
	// cannot be opened rather than part-way through a stage.
	if err := store.EnsureReadable(a.cfg.Data.Threads); err != nil {
		return err
	}

	run := *a
	run.logger = logger

	if err := run.Enrich(ctx); err != nil {
		return err
	}
	if err := run.Sidecars(ctx); err != nil {
		return err
	}
	if err := run.Books(ctx); err != nil {
		return err
	}
	if err := run.Graph(ctx); err != nil {
		return err
	}
	if _, err := run.Check(ctx); err != nil {
		return err
	}

	logger.Info("pipeline run finished")
	return nil
}
