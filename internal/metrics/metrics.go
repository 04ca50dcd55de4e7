package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ReadingsIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "riverwatch_readings_ingested_total",
		Help: "Readings accepted, by ingestion source.",
	}, []string{"source"})

	ReadingsClassified = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "riverwatch_readings_classified_total",
		Help: "Classification outcomes, by alert level.",
	}, []string{"level"})

	NotificationsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "riverwatch_notifications_total",
		Help: "Notification delivery attempts, by channel and final status.",
	}, []string{"channel", "status"})
)
