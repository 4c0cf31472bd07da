package mq

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Leo0rg/tikitoki/internal/telemetry"
)

// Decision — решение обработчика по доставленному сообщению.
type Decision int

const (
	// Ack — сообщение обработано: статус-ответ отправлен
	// (или сознательно не предусмотрен). Повторной доставки не будет.
	Ack Decision = iota

	// Drop — сообщение не прошло валидацию. Nack без requeue:
	// повторная доставка битого сообщения бессмысленна.
	Drop

	// Requeue — инфраструктурный сбой до того, как обработчик взял
	// задачу в работу. Единственный случай повторной доставки.
	Requeue
)

// Handler — функция обработки сырого тела сообщения.
//
// Обработчик сам разбирает и валидирует payload своей очереди
// и возвращает решение об ack/nack. Любая ошибка обработки уже
// принятой задачи конвертируется в статус-ответ внутри обработчика,
// наружу она не выходит.
type Handler func(ctx context.Context, body []byte) Decision

// Consumer потребляет сообщения из одной очереди RabbitMQ.
//
// Каждая доставка обрабатывается в собственной горутине: делегация
// браузерной автоматизации — медленный блокирующий вызов, и он не
// должен задерживать доставку остальных сообщений. Параллелизм
// ограничен prefetch: ack уходит после обработки, поэтому брокер
// не выдаст больше prefetch сообщений одновременно.
type Consumer struct {
	conn     *Connection
	logger   *slog.Logger
	queue    Queue
	handler  Handler
	prefetch int

	wg         sync.WaitGroup
	cancelFunc context.CancelFunc
}

// ConsumerConfig — конфигурация consumer.
type ConsumerConfig struct {
	// Queue — имя очереди.
	Queue Queue

	// Handler — обработчик сообщений.
	Handler Handler

	// Prefetch — сколько сообщений обрабатывается одновременно.
	Prefetch int
}

// NewConsumer создаёт новый Consumer.
func NewConsumer(conn *Connection, logger *slog.Logger, cfg ConsumerConfig) *Consumer {
	prefetch := cfg.Prefetch
	if prefetch <= 0 {
		prefetch = 1
	}

	return &Consumer{
		conn:     conn,
		logger:   telemetry.WithQueue(logger, string(cfg.Queue)),
		queue:    cfg.Queue,
		handler:  cfg.Handler,
		prefetch: prefetch,
	}
}

// Start запускает потребление сообщений.
// Блокируется до отмены контекста или остановки.
func (c *Consumer) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	c.cancelFunc = cancel

	return c.consume(ctx)
}

// consume — основной цикл потребления с восстановлением после разрыва.
func (c *Consumer) consume(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		deliveries, err := c.setupConsume()
		if err != nil {
			c.logger.Error("failed to setup consume", "error", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-c.conn.ReconnectNotify():
				c.logger.Info("reconnected, restarting consumer")
				continue
			}
		}

		c.logger.Info("consumer started")

		if err := c.processDeliveries(ctx, deliveries); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Warn("deliveries channel closed, waiting for reconnect")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-c.conn.ReconnectNotify():
				continue
			}
		}
	}
}

// setupConsume настраивает канал и начинает потребление.
func (c *Consumer) setupConsume() (<-chan amqp.Delivery, error) {
	ch := c.conn.Channel()
	if ch == nil {
		return nil, fmt.Errorf("no channel available")
	}

	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		return nil, fmt.Errorf("set qos: %w", err)
	}

	deliveries, err := ch.Consume(
		string(c.queue), // queue
		"",              // consumer tag (auto-generated)
		false,           // auto-ack (мы ack вручную)
		false,           // exclusive
		false,           // no-local
		false,           // no-wait
		nil,             // args
	)
	if err != nil {
		return nil, fmt.Errorf("consume: %w", err)
	}

	return deliveries, nil
}

// processDeliveries раздаёт сообщения обработчикам.
func (c *Consumer) processDeliveries(ctx context.Context, deliveries <-chan amqp.Delivery) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case raw, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("deliveries channel closed")
			}

			c.wg.Add(1)
			go c.handleDelivery(ctx, raw)
		}
	}
}

// handleDelivery обрабатывает одно сообщение и подтверждает его
// согласно решению обработчика.
func (c *Consumer) handleDelivery(ctx context.Context, raw amqp.Delivery) {
	defer c.wg.Done()

	c.logger.Debug("received message", "message_id", raw.MessageId)

	switch c.handler(ctx, raw.Body) {
	case Ack:
		if err := raw.Ack(false); err != nil {
			c.logger.Warn("failed to ack message", "message_id", raw.MessageId, "error", err)
		}
	case Drop:
		// тело в лог не пишем: в задачах бывают учётные данные
		c.logger.Warn("dropping message", "message_id", raw.MessageId)
		if err := raw.Nack(false, false); err != nil {
			c.logger.Warn("failed to nack message", "message_id", raw.MessageId, "error", err)
		}
	case Requeue:
		if err := raw.Nack(false, true); err != nil {
			c.logger.Warn("failed to requeue message", "message_id", raw.MessageId, "error", err)
		}
	}
}

// Stop останавливает приём новых сообщений и дожидается завершения
// всех обработчиков, уже взявших задачи в работу.
func (c *Consumer) Stop() {
	if c.cancelFunc != nil {
		c.cancelFunc()
	}
	c.wg.Wait()
}
