// Command turrero is a dev CLI for running individual pipeline stages and
// maintenance checks.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"

	"go.uber.org/zap"

	"github.com/karliky/turrero-pipeline/internal/ai"
	"github.com/karliky/turrero-pipeline/internal/app"
	"github.com/karliky/turrero-pipeline/internal/config"
	"github.com/karliky/turrero-pipeline/internal/facade"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	cfg, err := config.Load("turrero.toml")
	if err != nil {
		logger.Warn("could not load config, using defaults", zap.Error(err))
		cfg = config.Default()
	}

	svc := ai.NewOpenAIService(cfg.AI, logger)
	a := app.New(cfg, svc, logger)
	ctx := context.Background()

	switch os.Args[1] {
	case "enrich":
		fail(a.Enrich(ctx), logger)
	case "sidecars":
		fail(a.Sidecars(ctx), logger)
	case "books":
		fail(a.Books(ctx), logger)
	case "graph":
		fail(a.Graph(ctx), logger)
	case "check":
		runCheck(ctx, a, logger)
	case "top":
		runTop(cfg, logger)
	case "all":
		fail(a.RunAll(ctx), logger)
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: turrero <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  enrich     Extract metadata and enrich links for new posts")
	fmt.Println("  sidecars   Fill missing category/summary/exam entries via the AI service")
	fmt.Println("  books      Rebuild the book dataset")
	fmt.Println("  graph      Rebuild the relationship graph")
	fmt.Println("  check      Run the cross-dataset integrity check")
	fmt.Println("  top [n]    Print the n highest-engagement threads (default 10)")
	fmt.Println("  all        Run the whole pipeline once")
}

func fail(err error, logger *zap.Logger) {
	if err != nil {
		logger.Fatal("command failed", zap.Error(err))
	}
}

func runCheck(ctx context.Context, a *app.App, logger *zap.Logger) {
	report, err := a.Check(ctx)
	fail(err, logger)

	if report.OK() {
		fmt.Println("All datasets consistent.")
		return
	}

	for file, ids := range report.MissingByFile {
		fmt.Printf("%s: %d missing thread IDs\n", file, len(ids))
		for _, id := range ids {
			fmt.Printf("  %s\n", id)
		}
	}
	for _, id := range report.BrokenBooks {
		fmt.Printf("book %s references a nonexistent thread\n", id)
	}
	for node, ids := range report.BrokenRelations {
		fmt.Printf("graph node %s has broken relations: %v\n", node, ids)
	}
	os.Exit(1)
}

func runTop(cfg *config.Config, logger *zap.Logger) {
	n := 10
	if len(os.Args) > 2 {
		parsed, err := strconv.Atoi(os.Args[2])
		if err != nil || parsed < 1 {
			fmt.Printf("invalid count: %s\n", os.Args[2])
			os.Exit(1)
		}
		n = parsed
	}

	f, err := facade.New(cfg.Data)
	fail(err, logger)

	for i, t := range f.TopByEngagement(n) {
		summary := f.SummaryByThreadID(t.ID())
		if summary == "" {
			summary = "(no summary)"
		}
		fmt.Printf("%2d. %s  engagement=%d  %s\n", i+1, t.ID(), f.Engagement(t.ID()), summary)
	}
}
