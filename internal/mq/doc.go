// Package mq предоставляет инфраструктуру для работы с RabbitMQ.
//
// Структура:
//   - connection.go — управление соединением (reconnect, graceful shutdown)
//   - topology.go   — объявление очередей задач и статусов
//   - publisher.go  — публикация статус-ответов
//   - consumer.go   — потребление задач из очередей
//
// Очереди задач:
//   - login_tasks   — вход в аккаунт
//   - cookies_tasks — импорт куков
//   - video_tasks   — публикация видео
//
// Очереди статусов:
//   - login_status, cookie_status, upload_status — по одному ответу
//     на каждую принятую задачу
//   - qr_codes — промежуточные QR-коды при входе без пароля
//
// Все очереди объявляются durable на default exchange: маршрутизация
// идёт напрямую по имени очереди, как у исходного бота.
package mq
