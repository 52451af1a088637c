package escrow_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/parimutuel/internal/adapters/derive"
	"github.com/alejandrodnm/parimutuel/internal/adapters/lock"
	"github.com/alejandrodnm/parimutuel/internal/adapters/storage"
	"github.com/alejandrodnm/parimutuel/internal/adapters/vault"
	"github.com/alejandrodnm/parimutuel/internal/application/escrow"
	"github.com/alejandrodnm/parimutuel/internal/domain"
	"github.com/alejandrodnm/parimutuel/internal/ports"
)

var (
	program   = common.HexToAddress("0x7100000000000000000000000000000000000001")
	authority = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	alice     = common.HexToAddress("0x00000000000000000000000000000000000000b1")
	bob       = common.HexToAddress("0x00000000000000000000000000000000000000b2")
	carol     = common.HexToAddress("0x00000000000000000000000000000000000000b3")
	feeTo     = common.HexToAddress("0x00000000000000000000000000000000000000f1")
	devTo     = common.HexToAddress("0x00000000000000000000000000000000000000f2")
	mint      = common.HexToAddress("0x00000000000000000000000000000000000000c1")

	start = time.Date(2026, 5, 1, 18, 0, 0, 0, time.UTC)
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingSink struct {
	mu     sync.Mutex
	events []domain.Event
	fail   bool
}

func (s *recordingSink) Emit(_ context.Context, ev domain.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("sink down")
	}
	s.events = append(s.events, ev)
	return nil
}

func (s *recordingSink) kinds() []domain.EventKind {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.EventKind, len(s.events))
	for i, ev := range s.events {
		out[i] = ev.Kind
	}
	return out
}

func (s *recordingSink) last() domain.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.events[len(s.events)-1]
}

// flakyVaults wraps the real vaults and fails withdrawals while failWithdraw is set.
type flakyVaults struct {
	inner        ports.Vaults
	failWithdraw bool
}

func (f *flakyVaults) Vault(asset domain.AssetKind, addr domain.Address) ports.Vault {
	return &flakyVault{Vault: f.inner.Vault(asset, addr), parent: f}
}

type flakyVault struct {
	ports.Vault
	parent *flakyVaults
}

func (v *flakyVault) Withdraw(ctx context.Context, to domain.Address, amount uint64) error {
	if v.parent.failWithdraw {
		return errors.New("transfer rejected")
	}
	return v.Vault.Withdraw(ctx, to, amount)
}

// brokenBets fails RecordBet after the deposit already happened.
type brokenBets struct {
	*storage.SQLiteStorage
}

func (brokenBets) RecordBet(context.Context, domain.Market, domain.Position) error {
	return errors.New("disk full")
}

type harness struct {
	svc    *escrow.Service
	db     *storage.SQLiteStorage
	vaults *flakyVaults
	sink   *recordingSink
	clock  *fakeClock
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return buildHarness(db, db)
}

func buildHarness(db *storage.SQLiteStorage, store ports.EscrowStore) *harness {
	h := &harness{
		db:     db,
		vaults: &flakyVaults{inner: vault.NewFactory(db)},
		sink:   &recordingSink{},
		clock:  &fakeClock{now: start},
	}
	seq := 0
	h.svc = escrow.New(
		escrow.Config{BettingHorizon: 2 * time.Hour},
		store,
		h.vaults,
		derive.NewKeccak(program),
		lock.NewLocal(),
		h.sink,
		escrow.WithClock(h.clock),
		escrow.WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("pos-%03d", seq)
		}),
	)
	return h
}

func manualRequest(id uint64) escrow.CreateMarketRequest {
	return escrow.CreateMarketRequest{
		ID:        id,
		Authority: authority,
		OpponentA: "Lions",
		OpponentB: "Tigers",
		FeeBps:    300,
		Asset:     domain.NativeAsset(),
		Window:    domain.WindowManual,
	}
}

func (h *harness) create(t *testing.T, req escrow.CreateMarketRequest) domain.Market {
	t.Helper()
	m, err := h.svc.CreateMarket(context.Background(), req)
	require.NoError(t, err)
	return m
}

func (h *harness) fund(t *testing.T, asset domain.AssetKind, who domain.Address, amount uint64) {
	t.Helper()
	require.NoError(t, h.db.Credit(context.Background(), asset, who, amount))
}

func (h *harness) bet(t *testing.T, marketID uint64, who domain.Address, side domain.Outcome, amount uint64) domain.Position {
	t.Helper()
	h.fund(t, domain.NativeAsset(), who, amount)
	p, err := h.svc.PlaceBet(context.Background(), marketID, who, side, amount)
	require.NoError(t, err)
	return p
}

func (h *harness) balance(t *testing.T, asset domain.AssetKind, who domain.Address) uint64 {
	t.Helper()
	bal, err := h.db.Balance(context.Background(), asset, who)
	require.NoError(t, err)
	return bal
}

func (h *harness) vaultBalance(t *testing.T, marketID uint64) uint64 {
	t.Helper()
	bal, err := h.svc.VaultBalance(context.Background(), marketID)
	require.NoError(t, err)
	return bal
}
