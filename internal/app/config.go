package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// StorageDriver задаёт бэкенд хранилища приложения.
type StorageDriver string

const (
	StorageDriverMemory   StorageDriver = "memory"
	StorageDriverPostgres StorageDriver = "postgres"
)

// Config описывает настройки запуска приложения.
type Config struct {
	HTTPAddr    string
	MetricsAddr string

	StorageDriver       StorageDriver
	PostgresDSN         string
	PostgresAutoMigrate bool

	// AdminKey — секрет заголовка x-admin-key. Пустое значение отключает
	// admin-эндпоинты.
	AdminKey string
	// StaticDir — каталог изображений товаров, отдаётся под /static.
	StaticDir string

	KafkaBrokers string

	OutboxPollInterval time.Duration
	OutboxBatchSize    int
	OutboxMaxAttempts  int
	OutboxRetryDelay   time.Duration
}

// DefaultConfig возвращает базовые настройки для локального запуска.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:            ":8000",
		MetricsAddr:         ":9090",
		StorageDriver:       StorageDriverMemory,
		PostgresAutoMigrate: true,
		StaticDir:           "static",
		OutboxPollInterval:  2 * time.Second,
		OutboxBatchSize:     100,
		OutboxMaxAttempts:   3,
		OutboxRetryDelay:    100 * time.Millisecond,
	}
}

// ConfigFromEnv строит конфигурацию из переменных окружения поверх
// значений по умолчанию.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	cfg.HTTPAddr = envOr("PRODHUB_HTTP_ADDR", cfg.HTTPAddr)
	cfg.MetricsAddr = envOr("PRODHUB_METRICS_ADDR", cfg.MetricsAddr)
	if driver := strings.TrimSpace(os.Getenv("PRODHUB_STORAGE_DRIVER")); driver != "" {
		cfg.StorageDriver = StorageDriver(driver)
	}
	cfg.PostgresDSN = envOr("PRODHUB_POSTGRES_DSN", os.Getenv("DATABASE_URL"))
	if raw := os.Getenv("PRODHUB_POSTGRES_AUTO_MIGRATE"); raw != "" {
		if parsed, err := strconv.ParseBool(raw); err == nil {
			cfg.PostgresAutoMigrate = parsed
		}
	}
	cfg.AdminKey = envOr("PRODHUB_ADMIN_KEY", cfg.AdminKey)
	cfg.StaticDir = envOr("PRODHUB_STATIC_DIR", cfg.StaticDir)
	cfg.KafkaBrokers = envOr("KAFKA_BROKERS", cfg.KafkaBrokers)

	if raw := os.Getenv("PRODHUB_OUTBOX_POLL_INTERVAL"); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil && parsed > 0 {
			cfg.OutboxPollInterval = parsed
		}
	}
	if raw := os.Getenv("PRODHUB_OUTBOX_BATCH_SIZE"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			cfg.OutboxBatchSize = parsed
		}
	}

	return cfg
}

func envOr(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}
