package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/SaloniGupta6/Steel-Guardian/internal/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestStreamPublisher_Publish(t *testing.T) {
	_, client := setupTestRedis(t)
	pub := NewStreamPublisher(client, "steelguardian:events", 0, zap.NewNop())

	event := domain.Event{
		Type:       "incident.reported",
		EntityKind: domain.KindIncident,
		EntityID:   "SI-20261015-ABC123",
		ActorID:    "w1",
		OccurredAt: time.Date(2026, 10, 15, 8, 0, 0, 0, time.UTC),
	}
	require.NoError(t, pub.Publish(context.Background(), event))

	msgs, err := client.XRange(context.Background(), "steelguardian:events", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	var got domain.Event
	require.NoError(t, json.Unmarshal([]byte(msgs[0].Values["data"].(string)), &got))
	assert.Equal(t, event.Type, got.Type)
	assert.Equal(t, event.EntityID, got.EntityID)
	assert.True(t, event.OccurredAt.Equal(got.OccurredAt))
	assert.NotEmpty(t, msgs[0].Values["timestamp"])
}

func TestStreamPublisher_ServerDown(t *testing.T) {
	mr, client := setupTestRedis(t)
	pub := NewStreamPublisher(client, "steelguardian:events", 100, zap.NewNop())
	mr.Close()

	err := pub.Publish(context.Background(), domain.Event{Type: "machine.created"})
	assert.Error(t, err)
}

func TestNopPublisher(t *testing.T) {
	assert.NoError(t, NopPublisher{}.Publish(context.Background(), domain.Event{}))
}
