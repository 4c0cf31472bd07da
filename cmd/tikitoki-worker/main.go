// Tikitoki Worker — обрабатывает задачи TikTok-автоматизации.
//
// Worker:
//   - Получает задачи из RabbitMQ (вход, импорт куков, публикация видео)
//   - Скачивает видео из S3-совместимого хранилища
//   - Делегирует вход и публикацию внешней браузерной автоматизации
//   - Публикует ровно один статус-ответ на каждую принятую задачу
//
// Workers масштабируются горизонтально.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Leo0rg/tikitoki/internal/automation"
	"github.com/Leo0rg/tikitoki/internal/config"
	"github.com/Leo0rg/tikitoki/internal/cookies"
	"github.com/Leo0rg/tikitoki/internal/mq"
	"github.com/Leo0rg/tikitoki/internal/s3"
	"github.com/Leo0rg/tikitoki/internal/telemetry"
	"github.com/Leo0rg/tikitoki/internal/worker"
)

func main() {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger()
	logger.Info("starting tikitoki-worker")

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Конфигурация обязательна целиком: без брокера и хранилища
	// воркеру нечего делать
	cfg, err := config.Load()
	if err != nil {
		logger.Error("configuration error", "error", err)
		os.Exit(1)
	}
	logger.Info("configuration loaded",
		"rabbitmq_host", cfg.RabbitMQ.Host,
		"s3_endpoint", cfg.S3.Endpoint,
		"s3_bucket", cfg.S3.Bucket,
	)

	// RabbitMQ
	mqConn, err := mq.NewConnection(cfg.RabbitMQ.URL(), logger)
	if err != nil {
		logger.Error("failed to connect to RabbitMQ", "error", err)
		os.Exit(1)
	}
	defer mqConn.Close()

	if err := mq.SetupTopology(mqConn); err != nil {
		logger.Error("failed to declare queues", "error", err)
		os.Exit(1)
	}

	publisher := mq.NewPublisher(mqConn, logger)

	// S3
	blobs, err := s3.New(cfg.S3)
	if err != nil {
		logger.Error("failed to create S3 client", "error", err)
		os.Exit(1)
	}

	// Хранилище куков
	cookieStore, err := cookies.NewStore(cfg.Worker.CookieDir)
	if err != nil {
		logger.Error("failed to create cookie store", "error", err)
		os.Exit(1)
	}

	// Внешняя автоматизация
	auto := automation.NewRunner(cfg.Worker.AutomationBin, logger)

	// Создаём и запускаем worker
	w := worker.New(worker.Config{
		Conn:       mqConn,
		Publisher:  publisher,
		Blobs:      blobs,
		Cookies:    cookieStore,
		Auto:       auto,
		JobTimeout: cfg.Worker.JobTimeout,
		Prefetch:   cfg.Worker.Prefetch,
		Logger:     logger,
	})

	if err := w.Start(ctx); err != nil {
		logger.Error("failed to start worker", "error", err)
		os.Exit(1)
	}

	// HTTP mux: /healthz + /metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, _ *http.Request) {
		if !mqConn.IsConnected() {
			rw.WriteHeader(http.StatusServiceUnavailable)
			rw.Write([]byte("broker disconnected"))
			return
		}
		rw.WriteHeader(http.StatusOK)
		rw.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	port := ":8082"
	if v := os.Getenv("WORKER_PORT"); v != "" {
		port = ":" + v
	}

	go func() {
		logger.Info("listening", "addr", port)
		if err := http.ListenAndServe(port, mux); err != nil {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	// Ожидаем сигнал завершения
	<-ctx.Done()

	// Даём обработчикам дойти до освобождения ресурсов
	w.Stop()
	logger.Info("tikitoki-worker stopped")
}
