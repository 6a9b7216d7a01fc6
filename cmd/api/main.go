package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"studymate/internal/adapter/repo"
	"studymate/internal/http/handlers"
	httpapi "studymate/internal/http/httpapi"
	"studymate/internal/infra"
	"studymate/internal/ingest"
	"studymate/internal/learningtool"
	"studymate/internal/middleware"
	"studymate/internal/providers/openrouter"
	"studymate/internal/storage"
	"studymate/internal/toolgen"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()

	store, err := storage.NewFileStore(cfg.StoragePath, cfg.StorageBaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init file storage")
	}

	users := repo.NewUserRepository(dbpool)
	subjects := repo.NewSubjectRepository(dbpool)
	notes := repo.NewNoteRepository(dbpool)
	tools := repo.NewLearningToolRepository(dbpool)

	client := openrouter.NewClient(openrouter.Options{
		APIKey:         cfg.OpenRouterAPIKey,
		BaseURL:        cfg.OpenRouterBaseURL,
		Model:          cfg.OpenRouterModel,
		VisionModel:    cfg.OpenRouterVision,
		HTTPClient:     &http.Client{Timeout: cfg.GenerateTimeout + 5*time.Second},
		Logger:         &logger,
		RequestTimeout: cfg.GenerateTimeout,
	})
	if !client.HasCredentials() {
		logger.Warn().Msg("OPENROUTER_API_KEY is not set, generation endpoints will fail")
	}
	generator := toolgen.NewGenerator(client, &logger)

	toolService := learningtool.NewService(
		learningtool.NewAggregator(notes, subjects),
		learningtool.NewQuotaGuard(users),
		generator,
		tools,
		cfg.GenerateTimeout,
		&logger,
	)
	ingestService := ingest.NewService(notes, store, generator, generator, cfg.GenerateTimeout, &logger)

	app := handlers.NewApp(toolService, ingestService, notes, logger)
	limiter := middleware.NewRateLimiter(cfg.RateLimitPerMin, time.Minute)
	router := httpapi.NewRouter(app, cfg, logger, limiter)

	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
