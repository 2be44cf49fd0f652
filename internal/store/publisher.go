// Package store publishes lifecycle events to Redis Streams.
package store

import (
	"context"
	"fmt"

	rediscommon "github.com/SaloniGupta6/Steel-Guardian/common/redis"
	"github.com/SaloniGupta6/Steel-Guardian/internal/domain"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// StreamPublisher XADDs every event to one stream as a JSON "data" field.
type StreamPublisher struct {
	client *redis.Client
	stream string
	maxLen int64
	logger *zap.Logger
}

// NewStreamPublisher creates a publisher. maxLen <= 0 leaves the stream untrimmed.
func NewStreamPublisher(client *redis.Client, stream string, maxLen int64, logger *zap.Logger) *StreamPublisher {
	return &StreamPublisher{client: client, stream: stream, maxLen: maxLen, logger: logger}
}

func (p *StreamPublisher) Publish(ctx context.Context, event domain.Event) error {
	streamID, err := rediscommon.PublishJSONToStream(ctx, p.client, p.stream, p.maxLen, event)
	if err != nil {
		return fmt.Errorf("failed to publish to stream: %w", err)
	}
	p.logger.Debug("Published lifecycle event",
		zap.String("stream", p.stream),
		zap.String("stream_id", streamID),
		zap.String("type", event.Type),
		zap.String("entity_id", event.EntityID),
	)
	return nil
}

// NopPublisher drops events. It is used when no stream is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, domain.Event) error { return nil }
