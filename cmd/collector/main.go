package main

import (
	"os"

	"github.com/rs/zerolog"

	"github.com/trackline/pipeline/internal/config"
	"github.com/trackline/pipeline/internal/httpserver"
	"github.com/trackline/pipeline/internal/queue"
)

// main boots the ingestion service: config → producer → HTTP server.
func main() {
	log := zerolog.New(os.Stdout).With().Timestamp().Str("service", "collector").Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	// One long-lived producer shared by all in-flight requests.
	producer, err := queue.NewProducer(cfg.KafkaBrokerURL, cfg.Topic, log)
	if err != nil {
		log.Fatal().Err(err).Msg("producer setup failed")
	}
	defer producer.Close()

	router := httpserver.NewCollectorRouter(producer, log)

	log.Info().Str("addr", cfg.CollectorAddr).Str("topic", cfg.Topic).Msg("collector listening")
	if err := router.Run(cfg.CollectorAddr); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
