package mqtt

import (
	"context"
	"crypto/rand"
	"testing"
	"time"

	mqttcommon "github.com/SaloniGupta6/Steel-Guardian/common/mqtt"
	"github.com/SaloniGupta6/Steel-Guardian/internal/clock"
	"github.com/SaloniGupta6/Steel-Guardian/internal/domain"
	"github.com/SaloniGupta6/Steel-Guardian/internal/idgen"
	"github.com/SaloniGupta6/Steel-Guardian/internal/repository"
	"github.com/SaloniGupta6/Steel-Guardian/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSubscriber struct {
	topic     string
	qos       byte
	handler   mqttcommon.MessageHandler
	connected bool
}

func (f *fakeSubscriber) Subscribe(topic string, qos byte, handler mqttcommon.MessageHandler) error {
	f.topic, f.qos, f.handler = topic, qos, handler
	return nil
}

func (f *fakeSubscriber) IsConnected() bool { return f.connected }

func setupBroker(t *testing.T) (*fakeSubscriber, service.MachineService, string) {
	t.Helper()
	clk := clock.NewManual(time.Date(2026, 10, 15, 8, 0, 0, 0, time.UTC))
	machines := service.NewMachineService(repository.NewMemoryMachinesRepository(), service.Deps{
		Clock:  clk,
		IDs:    idgen.New(clk, rand.Reader),
		Logger: zap.NewNop(),
	})
	m, err := machines.CreateMachine(context.Background(),
		domain.Actor{UserID: "e1", Role: domain.RoleEngineer},
		service.CreateMachineRequest{
			MachineName: "Caster 2",
			MachineType: domain.MachineOther,
			Location:    domain.Location{Area: "Caster bay"},
			Sensors: []service.SensorInput{{
				SensorType:     domain.SensorVibration,
				NormalRange:    domain.NewRange(0, 5),
				AlertThreshold: domain.NewRange(0, 10),
			}},
		})
	require.NoError(t, err)

	sub := &fakeSubscriber{connected: true}
	broker := NewSensorBroker(sub, machines, 1, zap.NewNop())
	require.NoError(t, broker.Start())
	return sub, machines, m.MachineID
}

func TestSensorBroker_Subscribes(t *testing.T) {
	sub, _, _ := setupBroker(t)
	assert.Equal(t, SensorTopic, sub.topic)
	assert.Equal(t, byte(1), sub.qos)
	assert.NotNil(t, sub.handler)
}

func TestSensorBroker_AppliesReadings(t *testing.T) {
	sub, machines, id := setupBroker(t)

	payload := []byte(`{"sensorData":[{"sensorType":"vibration","currentValue":7.5}]}`)
	require.NoError(t, sub.handler("steelguardian/machines/"+id+"/sensors", payload))

	m, err := machines.GetMachine(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, m.Sensors, 1)
	assert.Equal(t, domain.SensorWarning, m.Sensors[0].Status)
	require.NotNil(t, m.Sensors[0].CurrentValue)
	assert.Equal(t, 7.5, *m.Sensors[0].CurrentValue)
}

func TestSensorBroker_AcceptsBareArray(t *testing.T) {
	sub, machines, id := setupBroker(t)

	payload := []byte(`[{"sensorType":"vibration","currentValue":12}]`)
	require.NoError(t, sub.handler("steelguardian/machines/"+id+"/sensors", payload))

	m, err := machines.GetMachine(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, domain.SensorCritical, m.Sensors[0].Status)
}

func TestSensorBroker_Rejects(t *testing.T) {
	sub, _, id := setupBroker(t)

	assert.Error(t, sub.handler("steelguardian/machines/sensors", []byte(`[]`)))
	assert.Error(t, sub.handler("steelguardian/machines/"+id+"/sensors", []byte(`not json`)))
	assert.Error(t, sub.handler("steelguardian/machines/"+id+"/sensors", nil))

	err := sub.handler("steelguardian/machines/"+id+"/sensors", []byte(`[{"sensorType":"vibration"}]`))
	assert.ErrorIs(t, err, domain.ErrValidation)

	err = sub.handler("steelguardian/machines/MCH-20261015-MISSING/sensors",
		[]byte(`[{"sensorType":"vibration","currentValue":1}]`))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMachineIDFromTopic(t *testing.T) {
	id, err := machineIDFromTopic("steelguardian/machines/MCH-20261015-000001/sensors")
	require.NoError(t, err)
	assert.Equal(t, "MCH-20261015-000001", id)

	_, err = machineIDFromTopic("other/machines/x/sensors")
	assert.Error(t, err)
}

func TestConnectedCheck(t *testing.T) {
	sub := &fakeSubscriber{connected: false}
	check := ConnectedCheck(sub)
	assert.Error(t, check())
	sub.connected = true
	assert.NoError(t, check())
}
