package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"favourflix.com/favourflix-api/internal/api"
	"favourflix.com/favourflix-api/internal/config"
	"favourflix.com/favourflix-api/internal/core"
	"favourflix.com/favourflix-api/internal/logging"
	"favourflix.com/favourflix-api/internal/store"
	"favourflix.com/favourflix-api/internal/tmdb"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Setup logging
	logLevel := cfg.Logging.Level
	if cfg.Server.Debug {
		logLevel = "debug"
	}
	logging.Init(logging.Config{
		Level:  logLevel,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logging.Debug().Msg("Service starting in DEBUG mode")

	// Initialize database store
	dbStore, err := store.NewSQLiteStore(cfg.Database.URL)
	if err != nil {
		logging.Fatal().Err(err).Str("database", cfg.Database.URL).Msg("Failed to initialize database")
	}
	defer dbStore.Close()

	// Initialize LLM service
	llmService, err := core.NewLLMService(context.Background(), cfg.Gemini)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize Gemini client")
	}
	defer llmService.Close()

	tmdbClient := tmdb.NewClient(cfg.TMDB)
	defer tmdbClient.Close()

	genreService := core.NewGenreService(llmService, cfg.Gemini.Timeout)
	recommendationService := core.NewRecommendationService(genreService, tmdbClient, dbStore)
	libraryService := core.NewLibraryService(dbStore)

	// Initialize API Handler and Router
	apiHandler := api.NewAPIHandler(recommendationService, libraryService, dbStore)
	router := api.NewRouter(apiHandler, cfg.Server.CORSOrigins)

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout, // inference plus discover
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Graceful shutdown handling
	serverErr := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", srv.Addr).Msg("Starting server. Press Ctrl+C to quit.")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logging.Info().Str("signal", sig.String()).Msg("Shutting down server...")
	case err := <-serverErr:
		logging.Error().Err(err).Str("addr", srv.Addr).Msg("Could not listen")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logging.Error().Err(err).Msg("Server forced to shutdown")
		return
	}

	// tmdbClient, llmService and dbStore are closed by their defers.
	logging.Info().Msg("Server exiting gracefully")
}
