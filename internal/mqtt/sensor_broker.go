// Package mqtt ingests machine sensor telemetry from the plant broker.
package mqtt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	mqttcommon "github.com/SaloniGupta6/Steel-Guardian/common/mqtt"
	"github.com/SaloniGupta6/Steel-Guardian/internal/domain"
	"github.com/SaloniGupta6/Steel-Guardian/internal/metrics"
	"github.com/SaloniGupta6/Steel-Guardian/internal/service"

	"github.com/heptiolabs/healthcheck"
	"go.uber.org/zap"
)

// SensorTopic matches steelguardian/machines/{machineId}/sensors.
const SensorTopic = "steelguardian/machines/+/sensors"

const handleTimeout = 10 * time.Second

// Subscriber is the part of the broker client the ingester uses.
type Subscriber interface {
	Subscribe(topic string, qos byte, handler mqttcommon.MessageHandler) error
	IsConnected() bool
}

// sensorMessage is the telemetry payload. A bare array of readings is also accepted.
type sensorMessage struct {
	SensorData []service.SensorReading `json:"sensorData"`
}

// SensorBroker feeds telemetry into MachineService.UpdateSensors.
type SensorBroker struct {
	subscriber Subscriber
	machines   service.MachineService
	actor      domain.Actor
	qos        byte
	logger     *zap.Logger
}

func NewSensorBroker(subscriber Subscriber, machines service.MachineService, qos byte, logger *zap.Logger) *SensorBroker {
	return &SensorBroker{
		subscriber: subscriber,
		machines:   machines,
		actor:      domain.SystemActor("mqtt-telemetry"),
		qos:        qos,
		logger:     logger,
	}
}

// Start subscribes to SensorTopic.
func (b *SensorBroker) Start() error {
	if err := b.subscriber.Subscribe(SensorTopic, b.qos, b.HandleMessage); err != nil {
		return err
	}
	b.logger.Info("Subscribed to sensor telemetry", zap.String("topic", SensorTopic))
	return nil
}

// HandleMessage applies one telemetry message.
func (b *SensorBroker) HandleMessage(topic string, payload []byte) error {
	machineID, err := machineIDFromTopic(topic)
	if err != nil {
		metrics.RecordTelemetryMessage("invalid")
		return err
	}
	readings, err := decodeReadings(payload)
	if err != nil {
		metrics.RecordTelemetryMessage("invalid")
		return fmt.Errorf("failed to decode telemetry for %s: %w", machineID, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
	defer cancel()
	sensors, err := b.machines.UpdateSensors(ctx, b.actor, machineID, readings)
	if err != nil {
		metrics.RecordTelemetryMessage("rejected")
		return fmt.Errorf("failed to update sensors of %s: %w", machineID, err)
	}
	metrics.RecordTelemetryMessage("applied")
	b.logger.Debug("Applied sensor telemetry",
		zap.String("machine_id", machineID),
		zap.Int("readings", len(readings)),
		zap.Int("sensors", len(sensors)),
	)
	return nil
}

func machineIDFromTopic(topic string) (string, error) {
	parts := strings.Split(topic, "/")
	if len(parts) != 4 || parts[0] != "steelguardian" || parts[1] != "machines" || parts[3] != "sensors" || parts[2] == "" {
		return "", fmt.Errorf("unexpected telemetry topic %q", topic)
	}
	return parts[2], nil
}

func decodeReadings(payload []byte) ([]service.SensorReading, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty payload")
	}
	if trimmed[0] == '[' {
		var readings []service.SensorReading
		if err := json.Unmarshal(trimmed, &readings); err != nil {
			return nil, err
		}
		return readings, nil
	}
	var msg sensorMessage
	if err := json.Unmarshal(trimmed, &msg); err != nil {
		return nil, err
	}
	return msg.SensorData, nil
}

// ConnectedCheck is a readiness check on the broker connection.
func ConnectedCheck(s Subscriber) healthcheck.Check {
	return func() error {
		if s.IsConnected() {
			return nil
		}
		return fmt.Errorf("not connected")
	}
}
