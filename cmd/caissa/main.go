package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/antoniostano/caissa/internal/cache"
	"github.com/antoniostano/caissa/internal/config"
	"github.com/antoniostano/caissa/internal/engine"
	"github.com/antoniostano/caissa/internal/explain"
	"github.com/antoniostano/caissa/internal/game"
	"github.com/antoniostano/caissa/internal/httpapi"
	"github.com/antoniostano/caissa/internal/observability"
	"github.com/antoniostano/caissa/internal/policy"
	"github.com/antoniostano/caissa/internal/puzzle"
	"github.com/antoniostano/caissa/internal/trainer"
	"github.com/antoniostano/caissa/internal/tutor"
)

func main() {
	// Optional .env for local development; variables already set win.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	metrics := observability.NewMetrics(cfg.MetricsNamespace)
	window := observability.NewRewardWindow(512)

	ctx := context.Background()
	gameStore, err := game.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("game store init failed: %v", err)
	}
	defer gameStore.Close()

	responseCache, err := cache.New(cfg.CacheDir)
	if err != nil {
		log.Fatalf("cache init failed: %v", err)
	}
	defer responseCache.Close()

	var (
		validator  engine.Validator
		oracle     engine.Oracle
		engineName string
	)
	if path, err := engine.FindBinary(cfg.StockfishPath); err == nil {
		uci, err := engine.NewUCI(path, cfg.EngineMoveTime)
		if err != nil {
			log.Fatalf("engine init failed: %v", err)
		}
		defer uci.Close()
		validator = uci
		oracle = uci
		engineName = "uci"
		log.Printf("engine: %s", path)
	} else {
		mock := engine.NewMock()
		validator = mock
		oracle = mock
		engineName = "mock"
		log.Printf("engine unavailable, using scripted mock: %v", err)
	}

	var explainer tutor.Explainer
	if cfg.ExplainBaseURL != "" {
		explainer = explain.NewLLM(cfg.ExplainBaseURL, cfg.ExplainAPIKey, cfg.ExplainModel, responseCache, cfg.ExplainTTL, metrics)
		log.Printf("explanations: %s via %s", cfg.ExplainModel, cfg.ExplainBaseURL)
	} else {
		explainer = explain.NewStatic()
		log.Printf("explanations: static templates (no model configured)")
	}

	tutorSvc := tutor.NewService(tutor.ServiceParams{
		Tracker:       tutor.NewTracker(nil),
		Policy:        policy.NewNetwork(time.Now().UnixNano()),
		Validator:     validator,
		Oracle:        oracle,
		Explainer:     explainer,
		Metrics:       metrics,
		Window:        window,
		EpisodeLength: cfg.EpisodeLength,
		AnalysisDepth: cfg.AnalysisDepth,
	})

	puzzleRepo, err := puzzle.NewRepository(cfg.PuzzleDBPath)
	if err != nil {
		log.Fatalf("puzzle repository init failed: %v", err)
	}
	defer puzzleRepo.Close()
	generator := puzzle.NewGenerator(puzzleRepo, oracle, cfg.PuzzleMaxAttempts)

	orchestrator := game.NewOrchestrator(validator, oracle, gameStore, metrics)

	episodeTrainer := trainer.New(tutorSvc, cfg.TrainerInterval, cfg.EpisodeMaxAge)
	episodeTrainer.Start()
	defer episodeTrainer.Stop()

	api := httpapi.New(httpapi.Params{
		Config:       cfg,
		Orchestrator: orchestrator,
		Tutor:        tutorSvc,
		Oracle:       oracle,
		Puzzles:      puzzleRepo,
		Generator:    generator,
		Metrics:      metrics,
		Window:       window,
		EngineName:   engineName,
	})
	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: api.Router(),
	}

	go func() {
		log.Printf("server listening on %s", cfg.BindAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Printf("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
		_ = httpServer.Close()
	}

	log.Printf("shutdown complete")
}
