package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/alejandrodnm/parimutuel/internal/domain"
	"github.com/alejandrodnm/parimutuel/internal/ports"
)

// defaultStreamMaxLen es el largo aproximado del stream, aplicado con XADD MAXLEN ~.
const defaultStreamMaxLen int64 = 10000

// RedisStream appends every event to a Redis stream so external observers can
// follow the escrow with XREAD.
type RedisStream struct {
	rdb    redis.UniversalClient
	stream string
	maxLen int64
}

// NewRedisStream crea el sink. maxLen <= 0 usa defaultStreamMaxLen.
func NewRedisStream(rdb redis.UniversalClient, stream string, maxLen int64) *RedisStream {
	if maxLen <= 0 {
		maxLen = defaultStreamMaxLen
	}
	return &RedisStream{rdb: rdb, stream: stream, maxLen: maxLen}
}

// Emit appends ev with XADD. The kind and market are kept as their own fields
// so consumers can filter without decoding the payload.
func (r *RedisStream) Emit(ctx context.Context, ev domain.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("notify.RedisStream: marshal: %w", err)
	}
	args := &redis.XAddArgs{
		Stream: r.stream,
		MaxLen: r.maxLen,
		Approx: true,
		Values: map[string]interface{}{
			"kind":    string(ev.Kind),
			"market":  ev.MarketID,
			"payload": payload,
		},
	}
	if err := r.rdb.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("notify.RedisStream: xadd %s: %w", r.stream, err)
	}
	return nil
}

var _ ports.AuditSink = (*RedisStream)(nil)
