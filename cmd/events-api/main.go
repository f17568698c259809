package main

import (
	"context"
	"os"

	"github.com/rs/zerolog"

	"github.com/trackline/pipeline/internal/config"
	"github.com/trackline/pipeline/internal/httpserver"
	"github.com/trackline/pipeline/internal/store"
)

// main boots the query service: config → store pool → HTTP server.
func main() {
	log := zerolog.New(os.Stdout).With().Timestamp().Str("service", "events-api").Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	db, err := store.NewPostgresStore(context.Background(), cfg.DatabaseURL())
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer db.Close()

	router := httpserver.NewEventsRouter(db, log)

	log.Info().Str("addr", cfg.EventsAddr).Msg("events API listening")
	if err := router.Run(cfg.EventsAddr); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
