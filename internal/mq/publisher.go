package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Leo0rg/tikitoki/internal/domain"
	"github.com/Leo0rg/tikitoki/internal/telemetry"
)

// Publisher публикует статус-ответы и задачи в RabbitMQ.
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
}

// NewPublisher создаёт новый Publisher.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	return &Publisher{
		conn:   conn,
		logger: logger,
	}
}

// Publish сериализует payload в JSON и публикует в очередь
// через default exchange.
func (p *Publisher) Publish(ctx context.Context, queue Queue, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	return p.conn.WithChannel(func(ch *amqp.Channel) error {
		err := ch.PublishWithContext(
			ctx,
			"",            // default exchange
			string(queue), // routing key = имя очереди
			false,
			false,
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent, // сообщение переживёт рестарт RabbitMQ
				MessageId:    uuid.New().String(),
				Timestamp:    time.Now(),
				Body:         body,
			},
		)
		if err != nil {
			return fmt.Errorf("publish to %s: %w", queue, err)
		}

		telemetry.RepliesTotal.WithLabelValues(string(queue)).Inc()

		p.logger.Debug("published message", "queue", queue)

		return nil
	})
}

// PublishLoginStatus публикует итог задачи входа.
func (p *Publisher) PublishLoginStatus(ctx context.Context, status domain.LoginStatus) error {
	return p.Publish(ctx, QueueLoginStatus, status)
}

// PublishCookieStatus публикует итог импорта куков.
func (p *Publisher) PublishCookieStatus(ctx context.Context, status domain.CookieStatus) error {
	return p.Publish(ctx, QueueCookieStatus, status)
}

// PublishUploadStatus публикует итог публикации видео.
func (p *Publisher) PublishUploadStatus(ctx context.Context, status domain.UploadStatus) error {
	return p.Publish(ctx, QueueUploadStatus, status)
}

// PublishQRCode пересылает промежуточный QR-код входа.
// Это не финальный статус: LoginStatus за ним последует отдельно.
func (p *Publisher) PublishQRCode(ctx context.Context, code domain.QRCode) error {
	return p.Publish(ctx, QueueQRCodes, code)
}
