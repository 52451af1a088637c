package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/alejandrodnm/parimutuel/internal/domain"
	"github.com/alejandrodnm/parimutuel/internal/ports"
)

// unlockLua borra la clave solo si todavía guarda nuestro token, para no
// liberar un lock que expiró y tomó otro proceso.
const unlockLua = `
if redis.call('GET', KEYS[1]) == ARGV[1] then
    return redis.call('DEL', KEYS[1])
end
return 0
`

const (
	defaultTTL     = 10 * time.Second
	defaultWait    = 5 * time.Second
	retriesPerSec  = 20
	unlockDeadline = 5 * time.Second
)

// RedisConfig ajusta el comportamiento del lock distribuido.
type RedisConfig struct {
	Prefix string        // default "escrow:lock:"
	TTL    time.Duration // vida máxima de un lock huérfano
	Wait   time.Duration // cuánto esperar un lock ocupado antes de ErrLockHeld
}

// Redis is a distributed Locker built on SET NX PX with a conditional unlock.
// A held key is retried at a fixed pace until Wait elapses.
type Redis struct {
	rdb      redis.UniversalClient
	cfg      RedisConfig
	unlockSc *redis.Script
	pace     *rate.Limiter
}

// NewRedis crea un Redis locker sobre un cliente existente.
func NewRedis(rdb redis.UniversalClient, cfg RedisConfig) *Redis {
	if cfg.Prefix == "" {
		cfg.Prefix = "escrow:lock:"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = defaultTTL
	}
	if cfg.Wait <= 0 {
		cfg.Wait = defaultWait
	}
	return &Redis{
		rdb:      rdb,
		cfg:      cfg,
		unlockSc: redis.NewScript(unlockLua),
		pace:     rate.NewLimiter(rate.Limit(retriesPerSec), 1),
	}
}

// Lock acquires key, retrying until cfg.Wait elapses. It returns
// domain.ErrLockHeld if the key stayed taken for the whole wait.
func (r *Redis) Lock(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()
	lk := r.cfg.Prefix + key

	waitCtx, cancel := context.WithTimeout(ctx, r.cfg.Wait)
	defer cancel()

	for {
		ok, err := r.rdb.SetNX(ctx, lk, token, r.cfg.TTL).Result()
		if err != nil {
			return nil, fmt.Errorf("lock.Redis %s: setnx: %w", key, err)
		}
		if ok {
			break
		}
		if err := r.pace.Wait(waitCtx); err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("lock.Redis %s: %w", key, ctx.Err())
			}
			return nil, fmt.Errorf("lock.Redis %s: %w", key, domain.ErrLockHeld)
		}
	}

	released := false
	return func() {
		if released {
			return
		}
		released = true

		// Contexto propio: el del caller puede estar ya cancelado.
		unlockCtx, cancel := context.WithTimeout(context.Background(), unlockDeadline)
		defer cancel()
		_ = r.unlockSc.Run(unlockCtx, r.rdb, []string{lk}, token).Err()
	}, nil
}

var _ ports.Locker = (*Redis)(nil)
