package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/trackline/pipeline/internal/config"
	"github.com/trackline/pipeline/internal/processor"
	"github.com/trackline/pipeline/internal/queue"
	"github.com/trackline/pipeline/internal/retry"
	"github.com/trackline/pipeline/internal/store"
)

// main boots the persistence consumer:
// store (bounded retry, fatal on exhaustion) → schema → queue
// (unbounded retry) → consume loop → graceful shutdown on signal.
func main() {
	log := zerolog.New(os.Stdout).With().Timestamp().Str("service", "processor").Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Bounded retry tolerates a database that is still booting while
	// refusing to crash-loop forever on broken configuration.
	var db *store.PostgresStore
	dbPolicy := retry.Bounded(cfg.DBConnectMaxAttempts, cfg.DBConnectBackoff)
	err = retry.Do(ctx, dbPolicy, log, func() error {
		var err error
		db, err = store.NewPostgresStore(ctx, cfg.DatabaseURL())
		return err
	})
	if err != nil {
		log.Fatal().Err(err).Int("max_attempts", cfg.DBConnectMaxAttempts).
			Msg("database connection failed")
	}
	defer db.Close()
	log.Info().Msg("connected to postgres")

	if err := db.EnsureSchema(ctx); err != nil {
		log.Fatal().Err(err).Msg("schema bootstrap failed")
	}

	// A consumer is disposable: it waits for its broker as long as it
	// takes.
	var consumer *queue.Consumer
	err = retry.Do(ctx, retry.Unbounded(cfg.DBConnectBackoff), log, func() error {
		var err error
		consumer, err = queue.NewConsumer(cfg.KafkaBrokerURL, cfg.Topic, cfg.GroupID, log)
		return err
	})
	if err != nil {
		log.Fatal().Err(err).Msg("consumer setup failed")
	}
	defer func() {
		if err := consumer.Close(); err != nil {
			log.Error().Err(err).Msg("consumer close failed")
		}
	}()
	log.Info().Str("topic", cfg.Topic).Str("group", cfg.GroupID).Msg("consuming")

	skip := cfg.OnMessageError == config.OnErrorSkip
	proc := processor.New(consumer, db, skip, log)
	if err := proc.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("processor stopped")
	}

	log.Info().Msg("shutting down")
}
