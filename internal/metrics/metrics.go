// Package metrics - счетчики prometheus, отдаются на /metrics через promhttp.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "directory"

var (
	// SignupsTotal - регистрации по результату (ok/failed)
	SignupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "signups_total",
		Help:      "Registrations by result.",
	}, []string{"result"})

	// ProofsTotal - загруженные подтверждения оплаты
	ProofsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "payment_proofs_total",
		Help:      "Payment proof submissions by result.",
	}, []string{"result"})

	// ModerationDecisionsTotal - действия администраторов
	ModerationDecisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "moderation_decisions_total",
		Help:      "Moderation actions by action and result.",
	}, []string{"action", "result"})

	// HTTPRequestDuration - латентность запросов
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	// RealtimeClients - подключенные websocket-клиенты
	RealtimeClients = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "realtime_clients",
		Help:      "Connected websocket clients.",
	})
)

// Result - метка результата операции
func Result(err error) string {
	if err != nil {
		return "failed"
	}
	return "ok"
}
