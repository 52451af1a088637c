package notify_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/parimutuel/internal/adapters/notify"
	"github.com/alejandrodnm/parimutuel/internal/domain"
)

func TestRedisStream_Emit(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	ctx := context.Background()

	sink := notify.NewRedisStream(rdb, "escrow:audit", 0)
	m := makeMarket()
	placed := domain.NewEvent(domain.EventBetPlaced, m, alice, time.Now())
	placed.Amount = 250

	require.NoError(t, sink.Emit(ctx, domain.NewEvent(domain.EventMarketCreated, m, authority, time.Now())))
	require.NoError(t, sink.Emit(ctx, placed))

	msgs, err := rdb.XRange(ctx, "escrow:audit", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "market_created", msgs[0].Values["kind"])
	assert.Equal(t, "4", msgs[1].Values["market"])

	var got domain.Event
	require.NoError(t, json.Unmarshal([]byte(msgs[1].Values["payload"].(string)), &got))
	assert.Equal(t, domain.EventBetPlaced, got.Kind)
	assert.Equal(t, uint64(250), got.Amount)
	assert.Equal(t, alice.Hex(), got.Actor)
}

func TestRedisStream_ServerDown(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer rdb.Close()
	mr.Close()

	sink := notify.NewRedisStream(rdb, "escrow:audit", 100)
	err := sink.Emit(context.Background(), domain.NewEvent(domain.EventMarketCreated, makeMarket(), authority, time.Now()))
	assert.Error(t, err)
}
