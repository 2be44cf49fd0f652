// Package metrics holds the Prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	lifecycleOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "steelguardian_lifecycle_operations_total",
			Help: "Completed lifecycle operations by entity kind and operation",
		},
		[]string{"kind", "operation"},
	)
	idCollisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "steelguardian_id_collisions_total",
			Help: "Generated identifiers rejected by the store as duplicates",
		},
		[]string{"prefix"},
	)
	versionConflicts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "steelguardian_version_conflicts_total",
			Help: "Saves retried because the document changed concurrently",
		},
		[]string{"kind"},
	)
	sensorReadings = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "steelguardian_sensor_readings_total",
			Help: "Sensor readings by resulting classification",
		},
		[]string{"status"},
	)
	telemetryMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "steelguardian_telemetry_messages_total",
			Help: "Inbound MQTT telemetry messages by outcome",
		},
		[]string{"outcome"},
	)
)

func RecordOperation(kind, operation string) {
	lifecycleOperations.WithLabelValues(kind, operation).Inc()
}

func RecordIDCollision(prefix string) {
	idCollisions.WithLabelValues(prefix).Inc()
}

func RecordVersionConflict(kind string) {
	versionConflicts.WithLabelValues(kind).Inc()
}

func RecordSensorReading(status string) {
	sensorReadings.WithLabelValues(status).Inc()
}

func RecordTelemetryMessage(outcome string) {
	telemetryMessages.WithLabelValues(outcome).Inc()
}
