package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"
	"golang.org/x/sync/errgroup"

	"github.com/DavidSilveraGabriel/MewAI/internal/adapters/duckdb"
	"github.com/DavidSilveraGabriel/MewAI/internal/adapters/imagegen"
	"github.com/DavidSilveraGabriel/MewAI/internal/adapters/llm"
	appconfig "github.com/DavidSilveraGabriel/MewAI/internal/config"
	"github.com/DavidSilveraGabriel/MewAI/internal/core/domain"
	"github.com/DavidSilveraGabriel/MewAI/internal/core/ports"
	"github.com/DavidSilveraGabriel/MewAI/internal/core/services"
	"github.com/DavidSilveraGabriel/MewAI/pkg/api"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger.Info("starting mewai server")

	if err := run(logger); err != nil {
		logger.Error("server startup failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		logger.Info("shutting down")
		cancel()
	}()

	// Fail fast on missing model id or credential, before accepting any job.
	llmConfig := appconfig.LLMConfigFromEnv()
	if err := llmConfig.Validate(); err != nil {
		return err
	}

	specStore := appconfig.NewSpecStore(logger, os.Getenv("MEWAI_CONFIG_DIR"))

	// History archive. Optional: a failure to open leaves the service running
	// on the in-memory registry alone.
	var history ports.HistoryRepository
	dbPath := os.Getenv("MEWAI_DB_PATH")
	if dbPath == "" {
		dbPath = "mewai.db"
	}
	if repo, err := duckdb.NewRepository(dbPath); err != nil {
		logger.Warn("history repository unavailable, running without archive", "error", err)
	} else {
		history = repo
		defer repo.Close()
	}

	imageTool := imagegen.NewFluxImageTool(logger, os.Getenv("FLUX_API_URL"))

	// One LLM client per pipeline run; the provider is not assumed
	// thread-safe across concurrent jobs.
	providerFactory := func() (domain.LLMProvider, error) {
		return llm.NewGeminiProvider(llmConfig)
	}

	eventBus := services.NewEventBus(logger)
	registry := services.NewJobRegistry(logger)
	bridge := services.NewProgressBridge(logger, registry, eventBus)
	scheduler := services.NewJobScheduler(logger, services.SchedulerConfig{MaxConcurrentJobs: 4})

	generator := services.NewGenerationService(
		logger, registry, bridge, scheduler, eventBus,
		specStore, providerFactory, imageTool, history,
	)

	apiServer := api.NewServer(logger, generator, registry, eventBus)

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	addr := os.Getenv("MEWAI_ADDR")
	if addr == "" {
		addr = ":8000"
	}
	httpServer := &http.Server{
		Addr:    addr,
		Handler: c.Handler(apiServer.Handler()),
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return bridge.Run(gCtx)
	})

	g.Go(func() error {
		return generator.Run(gCtx)
	})

	g.Go(func() error {
		logger.Info("starting api server", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("api server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
