package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/lorebound/adventure-engine/internal/config"
	"github.com/lorebound/adventure-engine/internal/engine"
	"github.com/lorebound/adventure-engine/internal/handlers"
	"github.com/lorebound/adventure-engine/internal/logger"
	"github.com/lorebound/adventure-engine/internal/middleware"
	"github.com/lorebound/adventure-engine/internal/services"
	"github.com/lorebound/adventure-engine/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logg := logger.Setup(cfg)

	logg.Info("Starting Adventure Engine API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"llm_provider", cfg.LLMProvider,
		"story_model", cfg.StoryModel,
		"voice_model", cfg.VoiceModel)

	var llmService services.LLMService
	switch strings.ToLower(cfg.LLMProvider) {
	case "anthropic":
		if cfg.AnthropicAPIKey == "" {
			logg.Error("Anthropic API key is required when using anthropic provider")
			os.Exit(1)
		}
		llmService = services.NewAnthropicService(cfg.AnthropicAPIKey, cfg.StoryModel, cfg.VoiceModel)
		logg.Info("Using Anthropic LLM provider")
	case "openai":
		if cfg.OpenAIAPIKey == "" && strings.Contains(cfg.OpenAIBaseURL, "api.openai.com") {
			logg.Error("OpenAI API key is required when using the hosted openai provider")
			os.Exit(1)
		}
		llmService = services.NewOpenAIService(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.StoryModel, cfg.VoiceModel)
		logg.Info("Using OpenAI-compatible LLM provider", "base_url", cfg.OpenAIBaseURL)
	default:
		logg.Error("Invalid LLM provider specified", "provider", cfg.LLMProvider, "supported", []string{"anthropic", "openai"})
		os.Exit(1)
	}

	store := storage.NewRedisStorage(cfg.RedisURL, logg)
	storageCtx, storageCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer storageCancel()

	if err := store.Ping(storageCtx); err != nil {
		logg.Error("Failed to connect to storage", "error", err)
		os.Exit(1)
	}
	logg.Info("Storage connection established successfully")

	if cfg.ScenarioDir != "" {
		loaded, err := storage.SeedScenarios(storageCtx, store, cfg.ScenarioDir, logg)
		if err != nil {
			logg.Warn("Failed to seed scenarios", "dir", cfg.ScenarioDir, "error", err)
		} else {
			logg.Info("Scenarios loaded", "dir", cfg.ScenarioDir, "count", loaded)
		}
	}

	initCtx, initCancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer initCancel()
	if err := llmService.InitModel(initCtx, cfg.StoryModel); err != nil {
		logg.Error("Failed to initialize LLM model", "error", err, "model", cfg.StoryModel)
		os.Exit(1)
	}

	eng := engine.New(llmService, store, logg).
		WithHistoryLimit(cfg.HistoryLimit).
		WithTurnTimeout(cfg.TurnTimeout).
		WithVoiceTimeout(cfg.VoiceTimeout).
		WithDraftScenarios(cfg.AllowDraftScenarios())

	mux := http.NewServeMux()

	healthHandler := handlers.NewHealthHandler(store, logg)
	mux.Handle("/health", healthHandler)

	scenarioHandler := handlers.NewScenarioHandler(logg, store, eng)
	mux.Handle("/v1/scenarios", scenarioHandler)
	mux.Handle("/v1/scenarios/", scenarioHandler)

	adventureHandler := handlers.NewAdventureHandler(logg, eng, store)
	mux.Handle("/v1/adventures", adventureHandler)
	mux.Handle("/v1/adventures/", adventureHandler)

	handler := middleware.Logging(logg, mux)
	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		logg.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logg.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logg.Info("Server is shutting down...")

	if err := store.Close(); err != nil {
		logg.Error("Error closing storage connection", "error", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logg.Info("Server exited")
}
