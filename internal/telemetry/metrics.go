package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Метрики воркера. Экспортируются на /metrics.
var (
	// TasksTotal — количество обработанных задач по очереди и исходу.
	// outcome: "success", "failure", "rejected".
	TasksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tikitoki_tasks_total",
			Help: "Processed tasks by queue and outcome.",
		},
		[]string{"queue", "outcome"},
	)

	// RepliesTotal — количество опубликованных статус-ответов по очереди.
	RepliesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tikitoki_replies_total",
			Help: "Published status replies by queue.",
		},
		[]string{"queue"},
	)

	// TaskDuration — длительность обработки задачи.
	// Корзины широкие: браузерная автоматизация занимает минуты.
	TaskDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tikitoki_task_duration_seconds",
			Help:    "Task handling duration in seconds.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		},
		[]string{"queue"},
	)
)

// Возможные значения outcome для TasksTotal.
const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeRejected = "rejected"
)
