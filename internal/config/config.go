// Package config загружает конфигурацию воркера из переменных окружения.
//
// Все обязательные параметры (RabbitMQ, S3) проверяются при старте:
// отсутствие любого из них — фатальная ошибка процесса, а не ошибка
// обработки отдельного сообщения.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// RabbitMQConfig — параметры подключения к RabbitMQ.
type RabbitMQConfig struct {
	User     string
	Password string
	Host     string
	Port     int
}

// URL возвращает AMQP URL для подключения.
func (c RabbitMQConfig) URL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%d/", c.User, c.Password, c.Host, c.Port)
}

// S3Config — параметры S3-совместимого хранилища видео.
type S3Config struct {
	Endpoint        string // host:port, без схемы
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	UseSSL          bool
}

// WorkerConfig — параметры самого воркера.
type WorkerConfig struct {
	// JobTimeout — предельное время обработки одного сообщения.
	// Браузерная автоматизация медленная, поэтому default щедрый.
	JobTimeout time.Duration

	// Prefetch — сколько сообщений воркер держит в обработке одновременно.
	Prefetch int

	// CookieDir — каталог для сохранённых куки-файлов.
	CookieDir string

	// AutomationBin — путь к внешнему инструменту автоматизации.
	AutomationBin string
}

// Config — полная конфигурация процесса.
type Config struct {
	RabbitMQ RabbitMQConfig
	S3       S3Config
	Worker   WorkerConfig
}

// Значения по умолчанию для необязательных параметров.
const (
	defaultJobTimeout    = 30 * time.Minute
	defaultPrefetch      = 4
	defaultCookieDir     = "cookies"
	defaultAutomationBin = "tiktok-uploader"
)

// Load читает конфигурацию из окружения.
//
// Если рядом есть .env файл — он подхватывается автоматически
// (как python-dotenv у исходного бота). Возвращает ошибку со списком
// всех отсутствующих обязательных переменных.
func Load() (*Config, error) {
	// .env необязателен, ошибку игнорируем
	_ = godotenv.Load()

	var missing []string

	require := func(key string) string {
		v := os.Getenv(key)
		if v == "" {
			missing = append(missing, key)
		}
		return v
	}

	endpoint, useSSL := parseEndpoint(require("S3_ENDPOINT_URL"))

	cfg := &Config{
		RabbitMQ: RabbitMQConfig{
			User:     require("RABBITMQ_USER"),
			Password: require("RABBITMQ_PASS"),
			Host:     require("RABBITMQ_HOST"),
			Port:     envIntOr("RABBITMQ_PORT", 0),
		},
		S3: S3Config{
			Endpoint:        endpoint,
			AccessKeyID:     require("S3_ACCESS_KEY_ID"),
			SecretAccessKey: require("S3_SECRET_ACCESS_KEY"),
			Bucket:          require("S3_BUCKET_NAME"),
			UseSSL:          useSSL,
		},
		Worker: WorkerConfig{
			JobTimeout:    envDurationOr("JOB_TIMEOUT", defaultJobTimeout),
			Prefetch:      envIntOr("PREFETCH", defaultPrefetch),
			CookieDir:     envOr("COOKIE_DIR", defaultCookieDir),
			AutomationBin: envOr("AUTOMATION_BIN", defaultAutomationBin),
		},
	}

	if cfg.RabbitMQ.Port == 0 {
		missing = append(missing, "RABBITMQ_PORT")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	return cfg, nil
}

// parseEndpoint разбирает S3_ENDPOINT_URL: отделяет схему от host:port.
// minio-клиент принимает endpoint без схемы, SSL задаётся флагом.
func parseEndpoint(raw string) (endpoint string, useSSL bool) {
	switch {
	case strings.HasPrefix(raw, "https://"):
		return strings.TrimPrefix(raw, "https://"), true
	case strings.HasPrefix(raw, "http://"):
		return strings.TrimPrefix(raw, "http://"), false
	default:
		return raw, false
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
