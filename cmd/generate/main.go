package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/timmy/memeforge/internal/config"
	"github.com/timmy/memeforge/internal/domain"
	"github.com/timmy/memeforge/internal/logger"
	"github.com/timmy/memeforge/internal/service"
	"github.com/timmy/memeforge/internal/storage"
)

func main() {
	// Parse command line flags
	theme := flag.String("theme", "", "Theme for the meme (e.g., \"cats\", \"programming\")")
	number := flag.Int("number", 1, "Number of memes to generate")
	humorType := flag.String("humor-type", domain.DefaultHumorType, "Type of humor (e.g., \"absurd\", \"witty\", \"wholesome\")")
	restrictions := flag.String("restrictions", "", "Content restrictions (e.g., \"no profanity\")")
	outputDir := flag.String("output-dir", "", "Directory to save generated memes (default: output)")
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	if *theme == "" {
		fmt.Fprintln(os.Stderr, "error: --theme is required")
		flag.Usage()
		os.Exit(2)
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *outputDir != "" {
		cfg.Output.Dir = *outputDir
	}

	// Initialize logger
	appLogger := logger.New(&logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		File:        cfg.Log.File,
		ServiceName: "memeforge",
	})
	logger.SetDefaultLogger(appLogger)
	appLogger = appLogger.WithField(logger.FieldRunID, uuid.NewString())

	// Credentials are checked before any client is built: a missing key
	// must abort the run without a single network call.
	if err := cfg.Validate(); err != nil {
		appLogger.WithError(err).Fatal("Configuration invalid")
	}

	req := domain.NewMemeRequest(*theme, *humorType, *restrictions, *number)
	appLogger.WithFields(logger.Fields{
		"theme":        req.Theme,
		"number":       req.Count,
		"humor_type":   req.HumorType,
		"restrictions": req.Restrictions,
		"output_dir":   cfg.Output.Dir,
	}).Info("Starting meme generation pipeline")

	// Handle graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		appLogger.Info("Received shutdown signal, canceling...")
		cancel()
	}()

	// Initialize services
	store, err := storage.NewLocalStore(cfg.Output.Dir, appLogger)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize output directory")
	}

	gemini, err := service.NewGeminiService(ctx, &service.GeminiConfig{
		APIKey:      cfg.Gemini.APIKey,
		PlanModel:   cfg.Gemini.PlanModel,
		VisionModel: cfg.Gemini.VisionModel,
		ImageModel:  cfg.Gemini.ImageModel,
	}, appLogger)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize Gemini client")
	}

	replicate := service.NewReplicateService(&service.ReplicateConfig{
		APIToken:        cfg.Replicate.APIToken,
		BaseURL:         cfg.Replicate.BaseURL,
		Model:           cfg.Replicate.Model,
		FallbackVersion: cfg.Replicate.FallbackVersion,
		Timeout:         cfg.Pipeline.Timeout(),
		PollInterval:    cfg.Replicate.PollInterval(),
		MaxWait:         cfg.Replicate.MaxWait(),
	}, appLogger)

	pipeline := service.NewPipelineService(
		gemini,
		replicate,
		gemini,
		gemini,
		gemini,
		store,
		service.RetryPolicy{
			MaxAttempts: cfg.Pipeline.MaxAttempts,
			Backoff:     cfg.Pipeline.RetryBackoff(),
		},
		appLogger,
	)

	// Run generation
	outcomes := pipeline.Generate(ctx, req)

	succeeded := 0
	for _, outcome := range outcomes {
		if outcome.Succeeded() {
			succeeded++
			continue
		}
		appLogger.WithFields(logger.Fields{
			logger.FieldMemeIndex: outcome.Index,
			logger.FieldStage:     string(outcome.Stage),
		}).WithError(outcome.Err).Error("Meme failed")
	}

	appLogger.WithFields(logger.Fields{
		"succeeded": succeeded,
		"failed":    len(outcomes) - succeeded,
	}).Infof("Meme generation complete! Successfully generated %d/%d memes", succeeded, len(outcomes))

	if succeeded == 0 {
		appLogger.Error("No memes were generated successfully")
		os.Exit(1)
	}
}
