package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MessagesTotal считает обработанные сообщения по намерению и источнику
	MessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "budget_bot_messages_total",
			Help: "Total number of classified messages",
		},
		[]string{"intent", "source"},
	)

	// CollaboratorFailures считает сбои внешних сервисов
	CollaboratorFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "budget_bot_collaborator_failures_total",
			Help: "Total number of failed calls to external collaborators",
		},
		[]string{"collaborator"},
	)

	// SinkDropped считает записи журнала, отброшенные из-за переполнения очереди
	SinkDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "budget_bot_log_sink_dropped_total",
			Help: "Log records dropped because the sink queue was full",
		},
	)

	// SinkErrors считает ошибки записи в приемник журнала
	SinkErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "budget_bot_log_sink_errors_total",
			Help: "Log records the sink failed to append",
		},
		[]string{"sink"},
	)

	// RequestDuration измеряет время обработки входящего запроса
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "budget_bot_request_duration_seconds",
			Help:    "Inbound request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"route", "status"},
	)
)
