package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/Leo0rg/tikitoki/internal/automation"
	"github.com/Leo0rg/tikitoki/internal/domain"
	"github.com/Leo0rg/tikitoki/internal/mq"
)

// Значения по умолчанию.
const (
	defaultJobTimeout = 30 * time.Minute
	defaultPrefetch   = 4
)

// Publisher публикует статус-ответы. Реализуется mq.Publisher.
type Publisher interface {
	PublishLoginStatus(ctx context.Context, status domain.LoginStatus) error
	PublishCookieStatus(ctx context.Context, status domain.CookieStatus) error
	PublishUploadStatus(ctx context.Context, status domain.UploadStatus) error
	PublishQRCode(ctx context.Context, code domain.QRCode) error
}

// BlobFetcher скачивает объект хранилища в локальный файл.
// Реализуется s3.Client.
type BlobFetcher interface {
	Download(ctx context.Context, key, localPath string) error
}

// CookieStore — приёмник нормализованных куков.
// Реализуется cookies.Store.
type CookieStore interface {
	Save(account string, cookies []domain.Cookie) error
	Path(account string) string
}

// Worker подписывает обработчики на очереди задач и живёт до
// завершения процесса.
//
// Worker — stateless: всё состояние задачи живёт внутри одного
// вызова обработчика. Несколько экземпляров воркера могут
// потреблять из одних очередей.
type Worker struct {
	conn      *mq.Connection
	publisher Publisher
	blobs     BlobFetcher
	cookies   CookieStore
	auto      automation.Automation

	jobTimeout time.Duration
	prefetch   int

	logger     *slog.Logger
	consumers  []*mq.Consumer
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// Config — конфигурация Worker.
type Config struct {
	Conn      *mq.Connection
	Publisher Publisher
	Blobs     BlobFetcher
	Cookies   CookieStore
	Auto      automation.Automation

	// JobTimeout — предельное время обработки одного сообщения
	// (default: 30m).
	JobTimeout time.Duration

	// Prefetch — сколько сообщений каждой очереди обрабатывается
	// одновременно (default: 4).
	Prefetch int

	Logger *slog.Logger
}

// New создаёт новый Worker.
func New(cfg Config) *Worker {
	jobTimeout := cfg.JobTimeout
	if jobTimeout <= 0 {
		jobTimeout = defaultJobTimeout
	}

	prefetch := cfg.Prefetch
	if prefetch <= 0 {
		prefetch = defaultPrefetch
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Worker{
		conn:       cfg.Conn,
		publisher:  cfg.Publisher,
		blobs:      cfg.Blobs,
		cookies:    cfg.Cookies,
		auto:       cfg.Auto,
		jobTimeout: jobTimeout,
		prefetch:   prefetch,
		logger:     logger,
	}
}

// Start подписывает обработчики на очереди и запускает потребление.
func (w *Worker) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	w.cancelFunc = cancel

	subscriptions := []struct {
		queue   mq.Queue
		handler mq.Handler
	}{
		{mq.QueueLoginTasks, w.handleLogin},
		{mq.QueueCookieTasks, w.handleCookies},
		{mq.QueueVideoTasks, w.handleUpload},
	}

	for _, sub := range subscriptions {
		consumer := mq.NewConsumer(w.conn, w.logger, mq.ConsumerConfig{
			Queue:    sub.queue,
			Handler:  sub.handler,
			Prefetch: w.prefetch,
		})
		w.consumers = append(w.consumers, consumer)

		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				w.logger.Error("consumer error", "error", err)
			}
		}()
	}

	w.logger.Info("worker started",
		"job_timeout", w.jobTimeout,
		"prefetch", w.prefetch,
	)
	return nil
}

// Stop останавливает приём новых сообщений и дожидается, пока
// обработчики, уже взявшие задачи, дойдут до освобождения ресурсов.
func (w *Worker) Stop() {
	w.logger.Info("stopping worker...")

	if w.cancelFunc != nil {
		w.cancelFunc()
	}

	for _, c := range w.consumers {
		c.Stop()
	}

	w.wg.Wait()

	w.logger.Info("worker stopped")
}
