package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/karliky/turrero-pipeline/internal/ai"
	"github.com/karliky/turrero-pipeline/internal/app"
	"github.com/karliky/turrero-pipeline/internal/config"
	"github.com/karliky/turrero-pipeline/internal/scheduler"
)

func main() {
	configPath := flag.String("config", "turrero.toml", "path to config file")
	scheduled := flag.Bool("schedule", false, "run on the configured cron schedule instead of once")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Load or create configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		if os.IsNotExist(err) {
			// First run: write the defaults so the operator has a file to edit.
			cfg = config.Default()
			if err := cfg.Save(*configPath); err != nil {
				logger.Warn("could not save default config", zap.Error(err))
			} else {
				logger.Info("created default config", zap.String("path", *configPath))
			}
		} else {
			logger.Warn("could not load config, using defaults", zap.Error(err))
			cfg = config.Default()
		}
	}

	svc := ai.NewOpenAIService(cfg.AI, logger)
	a := app.New(cfg, svc, logger)

	if !*scheduled {
		if err := a.RunAll(context.Background()); err != nil {
			logger.Fatal("pipeline run failed", zap.Error(err))
		}
		return
	}

	sched, err := scheduler.New(cfg.Schedule.Timezone, logger)
	if err != nil {
		logger.Fatal("failed to create scheduler", zap.Error(err))
	}

	if err := sched.AddJob("pipeline", cfg.Schedule.Cron, a.RunAll); err != nil {
		logger.Fatal("failed to schedule pipeline", zap.Error(err))
	}

	sched.Start()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	<-sched.Stop().Done()
	logger.Info("shutdown complete")
}
