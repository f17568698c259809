package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Per-message failure policies for the processor (see Config.OnMessageError).
const (
	OnErrorCrash = "crash"
	OnErrorSkip  = "skip"
)

// Config contains runtime configuration shared by the collector,
// processor and events API binaries.
type Config struct {
	KafkaBrokerURL string
	Topic          string
	GroupID        string

	PostgresHost     string
	PostgresPort     string
	PostgresDB       string
	PostgresUser     string
	PostgresPassword string

	// Store connect policy for the processor: bounded retry, then fatal.
	DBConnectMaxAttempts int
	DBConnectBackoff     time.Duration

	CollectorAddr string
	EventsAddr    string

	// OnErrorCrash exits on a per-message failure and relies on
	// redelivery; OnErrorSkip logs, commits and moves on.
	OnMessageError string
}

// Load reads configuration from the environment. A .env file in the
// working directory is applied first when present, so `go run` works
// without exporting anything.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		KafkaBrokerURL:   getenv("KAFKA_BROKER_URL", "kafka:9092"),
		Topic:            getenv("TOPIC_NAME", "user-tracking-events"),
		GroupID:          getenv("GROUP_ID", "tracking-processor"),
		PostgresHost:     getenv("POSTGRES_HOST", "postgres"),
		PostgresPort:     getenv("POSTGRES_PORT", "5432"),
		PostgresDB:       getenv("POSTGRES_DB", "tracking_db"),
		PostgresUser:     getenv("POSTGRES_USER", "user"),
		PostgresPassword: getenv("POSTGRES_PASSWORD", "password"),
		CollectorAddr:    getenv("COLLECTOR_ADDR", ":8000"),
		EventsAddr:       getenv("EVENTS_ADDR", ":8001"),
		OnMessageError:   getenv("PROCESSOR_ON_ERROR", OnErrorCrash),
	}

	maxAttempts, err := getenvInt("DB_CONNECT_MAX_ATTEMPTS", 60)
	if err != nil {
		return Config{}, err
	}
	cfg.DBConnectMaxAttempts = maxAttempts

	backoffSec, err := getenvFloat("DB_CONNECT_BACKOFF_SEC", 2.0)
	if err != nil {
		return Config{}, err
	}
	cfg.DBConnectBackoff = time.Duration(backoffSec * float64(time.Second))

	if cfg.OnMessageError != OnErrorCrash && cfg.OnMessageError != OnErrorSkip {
		return Config{}, fmt.Errorf(`PROCESSOR_ON_ERROR must be %q or %q, got %q`,
			OnErrorCrash, OnErrorSkip, cfg.OnMessageError)
	}

	return cfg, nil
}

// DatabaseURL assembles a pgx-compatible connection URL, escaping
// credentials so passwords with special characters survive.
func (c Config) DatabaseURL() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.PostgresUser, c.PostgresPassword),
		Host:   c.PostgresHost + ":" + c.PostgresPort,
		Path:   "/" + c.PostgresDB,
	}
	return u.String()
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func getenvFloat(key string, fallback float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number: %w", key, err)
	}
	return f, nil
}
