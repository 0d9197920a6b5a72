package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config aggregates application configuration values loaded from environment variables.
type Config struct {
	Env      string
	HTTPAddr string

	MongoURI string
	MongoDB  string

	KafkaBrokers       []string
	KafkaTopicPrefix   string
	NotifyTopic        string
	NotifyGroup        string
	OutboxPollInterval time.Duration
	RetryBackoff       []time.Duration

	ChapaSecretKey string
	ChapaBaseURL   string
	ChapaTimeout   time.Duration
	Currency       string
	PublicBaseURL  string

	SessionTTL time.Duration

	SMTPAddr string
	SMTPFrom string

	// SeedDemoData populates a few demo hosts and listings at startup.
	SeedDemoData bool
}

// Load parses configuration from the current environment.
func Load() (Config, error) {
	cfg := Config{
		Env:              getEnv("APP_ENV", "dev"),
		HTTPAddr:         getEnv("HTTP_ADDR", ":8080"),
		MongoURI:         os.Getenv("MONGO_URI"),
		MongoDB:          getEnv("MONGO_DB", "stayhub"),
		KafkaTopicPrefix: getEnv("KAFKA_TOPIC_PREFIX", ""),
		NotifyTopic:      getEnv("NOTIFY_TOPIC", "notifications.jobs.v1"),
		NotifyGroup:      getEnv("NOTIFY_GROUP", "stayhub-mailer"),
		ChapaSecretKey:   os.Getenv("CHAPA_SECRET_KEY"),
		ChapaBaseURL:     getEnv("CHAPA_BASE_URL", "https://api.chapa.co/v1"),
		Currency:         getEnv("PAYMENT_CURRENCY", "ETB"),
		PublicBaseURL:    getEnv("PUBLIC_BASE_URL", "http://localhost:8080"),
		SMTPAddr:         getEnv("SMTP_ADDR", "localhost:25"),
		SMTPFrom:         getEnv("SMTP_FROM", "no-reply@stayhub.local"),
	}
	brokers := getEnv("KAFKA_BROKERS", "")
	if brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}

	timeout, err := parseDurationEnv("CHAPA_TIMEOUT", 30*time.Second)
	if err != nil {
		return Config{}, err
	}
	cfg.ChapaTimeout = timeout

	poll, err := parseDurationEnv("OUTBOX_POLL_INTERVAL", 500*time.Millisecond)
	if err != nil {
		return Config{}, err
	}
	cfg.OutboxPollInterval = poll

	sessionTTL, err := parseDurationEnv("SESSION_TTL", 24*time.Hour)
	if err != nil {
		return Config{}, err
	}
	cfg.SessionTTL = sessionTTL

	retryStr := getEnv("RETRY_BACKOFF", "1s,5s,30s")
	for _, raw := range strings.Split(retryStr, ",") {
		val := strings.TrimSpace(raw)
		if val == "" {
			continue
		}
		d, err := time.ParseDuration(val)
		if err != nil {
			return Config{}, fmt.Errorf("invalid RETRY_BACKOFF component %q: %w", raw, err)
		}
		cfg.RetryBackoff = append(cfg.RetryBackoff, d)
	}

	seed, err := parseBoolEnv("SEED_DEMO_DATA", false)
	if err != nil {
		return Config{}, err
	}
	cfg.SeedDemoData = seed

	if cfg.ChapaSecretKey == "" {
		return Config{}, fmt.Errorf("CHAPA_SECRET_KEY is required")
	}
	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseBoolEnv(key string, def bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
