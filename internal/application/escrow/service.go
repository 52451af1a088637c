// Package escrow runs the market lifecycle, position admission and settlement
// of the pari-mutuel escrow. Every operation holds the market's lock for its
// whole duration, so no caller observes a half-applied change.
package escrow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alejandrodnm/parimutuel/internal/domain"
	"github.com/alejandrodnm/parimutuel/internal/ports"
)

// DefaultBettingHorizon is how long a deadline market accepts stakes after creation.
const DefaultBettingHorizon = 24 * time.Hour

// Config contiene la configuración del servicio.
type Config struct {
	BettingHorizon time.Duration // 0 = DefaultBettingHorizon
}

// Service es el orquestador del escrow.
type Service struct {
	cfg     Config
	store   ports.EscrowStore
	vaults  ports.Vaults
	deriver ports.Deriver
	locker  ports.Locker
	sink    ports.AuditSink
	clock   ports.Clock
	newID   func() string
}

// Option ajusta un Service en New.
type Option func(*Service)

// WithClock reemplaza el reloj del sistema (tests, replays).
func WithClock(c ports.Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithIDGenerator reemplaza el generador de IDs de posición.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) { s.newID = fn }
}

// New crea un Service con todas las dependencias inyectadas.
// sink puede ser nil: en ese caso no se emiten registros.
func New(
	cfg Config,
	store ports.EscrowStore,
	vaults ports.Vaults,
	deriver ports.Deriver,
	locker ports.Locker,
	sink ports.AuditSink,
	opts ...Option,
) *Service {
	if cfg.BettingHorizon <= 0 {
		cfg.BettingHorizon = DefaultBettingHorizon
	}
	s := &Service{
		cfg:     cfg,
		store:   store,
		vaults:  vaults,
		deriver: deriver,
		locker:  locker,
		sink:    sink,
		clock:   systemClock{},
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

func marketKey(id uint64) string {
	return fmt.Sprintf("market:%d", id)
}

// lock takes the exclusive lock of one market.
func (s *Service) lock(ctx context.Context, marketID uint64) (func(), error) {
	unlock, err := s.locker.Lock(ctx, marketKey(marketID))
	if err != nil {
		return nil, fmt.Errorf("lock market %d: %w", marketID, err)
	}
	return unlock, nil
}

func (s *Service) vaultOf(m domain.Market) ports.Vault {
	return s.vaults.Vault(m.Asset, m.VaultAddress)
}

// emit hands ev to the sink. Delivery is the sink's concern: a failure is
// logged and the operation still succeeds.
func (s *Service) emit(ctx context.Context, ev domain.Event) {
	if s.sink == nil {
		return
	}
	if err := s.sink.Emit(ctx, ev); err != nil {
		slog.Warn("audit sink error", "kind", ev.Kind, "market", ev.MarketID, "err", err)
	}
}

func authorize(want, caller domain.Address) error {
	if want != caller {
		return domain.ErrUnauthorized
	}
	return nil
}
