package audit

import (
	"context"
	"fmt"

	commonredis "carconnect/common/redis"

	"github.com/go-redis/redis/v8"
)

// StreamSink appends events to the Redis stream "<prefix>:<kind>"
type StreamSink struct {
	client *redis.Client
	prefix string
	maxLen int64
}

func NewStreamSink(client *redis.Client, prefix string, maxLen int64) *StreamSink {
	return &StreamSink{client: client, prefix: prefix, maxLen: maxLen}
}

// Stream returns the stream key for kind
func (s *StreamSink) Stream(kind Kind) string {
	return s.prefix + ":" + string(kind)
}

func (s *StreamSink) Record(ctx context.Context, e Event) error {
	if _, err := commonredis.PublishJSONToStream(ctx, s.client, s.Stream(e.Kind), s.maxLen, e); err != nil {
		return fmt.Errorf("failed to publish audit event: %w", err)
	}
	return nil
}
