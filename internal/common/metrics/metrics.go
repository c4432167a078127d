// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RecordsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nsa_records_processed_total",
			Help: "Total number of service records processed, by terminal outcome",
		},
		[]string{"dealer", "outcome"},
	)

	AppointmentsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nsa_appointments_created_total",
			Help: "Total number of follow-up appointments created",
		},
		[]string{"dealer"},
	)

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nsa_notifications_sent_total",
			Help: "Total number of notifications dispatched, by channel and status",
		},
		[]string{"channel", "status"},
	)

	SlotSearchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "nsa_slot_search_duration_seconds",
			Help: "Duration of slot search per record in seconds",
		},
		[]string{"dealer"},
	)

	ProviderRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nsa_provider_retries_total",
			Help: "Total number of provider call retries",
		},
		[]string{"operation"},
	)
)
