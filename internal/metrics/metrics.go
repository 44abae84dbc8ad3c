package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Pipeline metrics
	MeasurementsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waterguard_measurements_processed_total",
			Help: "Total number of measurements run through the evaluator",
		},
		[]string{"station"},
	)

	AlertsRaised = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waterguard_alerts_raised_total",
			Help: "Total number of alert records created",
		},
		[]string{"type"},
	)

	AlertsSuppressed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waterguard_alerts_suppressed_total",
			Help: "Breaches skipped by the dedup_open alert policy",
		},
		[]string{"type"},
	)

	// Intake metrics
	IngestMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waterguard_ingest_messages_total",
			Help: "MQTT measurement messages received",
		},
		[]string{"status"}, // accepted, rejected
	)

	StationsOffline = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "waterguard_stations_offline",
			Help: "Stations currently considered offline by the liveness monitor",
		},
	)

	// Sync queue metrics
	SyncQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "waterguard_sync_queue_depth",
			Help: "Operations waiting for backend sync",
		},
	)

	SyncPushes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waterguard_sync_pushes_total",
			Help: "Backend push attempts from the sync queue",
		},
		[]string{"status"}, // ok, failed
	)
)
