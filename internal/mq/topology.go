package mq

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Queue — тип для имени очереди.
type Queue string

// Очереди задач.
const (
	QueueLoginTasks  Queue = "login_tasks"
	QueueCookieTasks Queue = "cookies_tasks"
	QueueVideoTasks  Queue = "video_tasks"
)

// Очереди статусов и побочных событий.
const (
	QueueLoginStatus  Queue = "login_status"
	QueueCookieStatus Queue = "cookie_status"
	QueueUploadStatus Queue = "upload_status"
	QueueQRCodes      Queue = "qr_codes"
)

// allQueues — все очереди, которые объявляет воркер.
var allQueues = []Queue{
	QueueLoginTasks,
	QueueCookieTasks,
	QueueVideoTasks,
	QueueLoginStatus,
	QueueCookieStatus,
	QueueUploadStatus,
	QueueQRCodes,
}

// SetupTopology объявляет все очереди воркера.
//
// Очереди durable, маршрутизация через default exchange по имени
// очереди — отдельных exchanges и bindings нет. Объявление
// идемпотентно, его безопасно выполнять при каждом старте.
func SetupTopology(conn *Connection) error {
	return conn.WithChannel(func(ch *amqp.Channel) error {
		for _, q := range allQueues {
			_, err := ch.QueueDeclare(
				string(q), // name
				true,      // durable
				false,     // delete when unused
				false,     // exclusive
				false,     // no-wait
				nil,       // arguments
			)
			if err != nil {
				return fmt.Errorf("declare queue %s: %w", q, err)
			}
		}
		return nil
	})
}
