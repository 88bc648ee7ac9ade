package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type AppConfig struct {
	HTTPAddr string
	LogLevel string

	DatabaseURL   string // empty selects the in-memory store
	DBPoolSize    int
	DBMaxOverflow int
	DBPoolTimeout time.Duration

	EventsSink       string // kafka, redis or none
	EventsTopic      string
	EventsBuffer     int
	EventsTimeout    time.Duration
	KafkaBrokers     []string
	KafkaCompression string
	RedisAddr        string
	RedisPass        string

	SealInterval time.Duration // 0 disables scheduled sealing
}

func Load() (AppConfig, error) {
	cfg := AppConfig{
		HTTPAddr:         getEnv("HTTP_ADDR", ":8000"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		EventsSink:       strings.ToLower(getEnv("EVENTS_SINK", "kafka")),
		EventsTopic:      getEnv("EVENTS_TOPIC", "transactions"),
		KafkaBrokers:     getEnvSlice("KAFKA_BROKERS", []string{"localhost:9092"}),
		KafkaCompression: getEnv("KAFKA_COMPRESSION", ""),
		RedisAddr:        getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPass:        getEnv("REDIS_PASS", ""),
	}

	var err error
	if cfg.DBPoolSize, err = getEnvInt("DB_POOL_SIZE", 50); err != nil {
		return AppConfig{}, err
	}
	if cfg.DBMaxOverflow, err = getEnvInt("DB_MAX_OVERFLOW", 100); err != nil {
		return AppConfig{}, err
	}
	if cfg.DBPoolTimeout, err = getEnvDuration("DB_POOL_TIMEOUT", 60*time.Second); err != nil {
		return AppConfig{}, err
	}
	if cfg.EventsBuffer, err = getEnvInt("EVENTS_BUFFER", 1024); err != nil {
		return AppConfig{}, err
	}
	if cfg.EventsTimeout, err = getEnvDuration("EVENTS_TIMEOUT", 5*time.Second); err != nil {
		return AppConfig{}, err
	}
	if cfg.SealInterval, err = getEnvDuration("SEAL_INTERVAL", 0); err != nil {
		return AppConfig{}, err
	}

	switch cfg.EventsSink {
	case "kafka", "redis", "none":
	default:
		return AppConfig{}, fmt.Errorf("EVENTS_SINK: unknown sink %q", cfg.EventsSink)
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

// getEnvDuration accepts Go durations ("90s") or plain seconds ("90").
func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
