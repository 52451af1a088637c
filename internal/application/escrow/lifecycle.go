package escrow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/alejandrodnm/parimutuel/internal/domain"
)

// CreateMarketRequest carries the terms fixed at creation.
type CreateMarketRequest struct {
	ID        uint64
	Authority domain.Address

	OpponentA string
	OpponentB string

	FeeBps                uint32
	DeveloperFeeBps       uint32
	FeeRecipient          domain.Address
	DeveloperFeeRecipient domain.Address

	Asset  domain.AssetKind
	Window domain.WindowKind // "" = WindowManual
}

// CreateMarket registers a new market with empty pools and an undrawn outcome.
// A deadline market closes BettingHorizon after now.
func (s *Service) CreateMarket(ctx context.Context, req CreateMarketRequest) (domain.Market, error) {
	if err := domain.ValidateTerms(req.OpponentA, req.OpponentB, req.FeeBps, req.DeveloperFeeBps); err != nil {
		return domain.Market{}, fmt.Errorf("escrow.CreateMarket: %w", err)
	}
	if err := req.Asset.Validate(); err != nil {
		return domain.Market{}, fmt.Errorf("escrow.CreateMarket: %w", err)
	}

	now := s.clock.Now()
	var window domain.WindowPolicy
	switch req.Window {
	case "", domain.WindowManual:
		window = domain.ManualWindow()
	case domain.WindowDeadline:
		window = domain.DeadlineWindow(now.Add(s.cfg.BettingHorizon))
	default:
		return domain.Market{}, fmt.Errorf("escrow.CreateMarket: window %q: %w", req.Window, domain.ErrWindowPolicy)
	}

	unlock, err := s.lock(ctx, req.ID)
	if err != nil {
		return domain.Market{}, fmt.Errorf("escrow.CreateMarket: %w", err)
	}
	defer unlock()

	m := domain.Market{
		ID:                    req.ID,
		Authority:             req.Authority,
		Address:               s.deriver.MarketAddress(req.ID),
		VaultAddress:          s.deriver.VaultAddress(req.ID, req.Asset),
		OpponentA:             req.OpponentA,
		OpponentB:             req.OpponentB,
		FeeBps:                req.FeeBps,
		DeveloperFeeBps:       req.DeveloperFeeBps,
		FeeRecipient:          req.FeeRecipient,
		DeveloperFeeRecipient: req.DeveloperFeeRecipient,
		Window:                window,
		Outcome:               domain.OutcomeUndrawn,
		Asset:                 req.Asset,
		CreatedAt:             now.UTC(),
	}
	if err := s.store.CreateMarket(ctx, m); err != nil {
		return domain.Market{}, fmt.Errorf("escrow.CreateMarket: %w", err)
	}

	slog.Info("market created",
		"market", m.ID,
		"a", m.OpponentA,
		"b", m.OpponentB,
		"asset", m.Asset,
		"window", m.Window.Kind,
	)
	ev := domain.NewEvent(domain.EventMarketCreated, m, req.Authority, now)
	ev.Detail = fmt.Sprintf("%s vs %s", m.OpponentA, m.OpponentB)
	s.emit(ctx, ev)
	return m, nil
}

// CloseBetting shuts a manual betting window. It cannot be reopened.
func (s *Service) CloseBetting(ctx context.Context, marketID uint64, caller domain.Address) error {
	unlock, err := s.lock(ctx, marketID)
	if err != nil {
		return fmt.Errorf("escrow.CloseBetting: %w", err)
	}
	defer unlock()

	m, err := s.store.GetMarket(ctx, marketID)
	if err != nil {
		return fmt.Errorf("escrow.CloseBetting: %w", err)
	}
	if err := authorize(m.Authority, caller); err != nil {
		return fmt.Errorf("escrow.CloseBetting %d: %w", marketID, err)
	}
	if m.Closed {
		return fmt.Errorf("escrow.CloseBetting %d: %w", marketID, domain.ErrMarketClosed)
	}
	if err := m.Window.Close(); err != nil {
		return fmt.Errorf("escrow.CloseBetting %d: %w", marketID, err)
	}
	if err := s.store.UpdateMarket(ctx, m); err != nil {
		return fmt.Errorf("escrow.CloseBetting: %w", err)
	}

	slog.Info("betting closed", "market", m.ID, "bets", m.TotalBets())
	ev := domain.NewEvent(domain.EventBettingClosed, m, caller, s.clock.Now())
	ev.TotalBets = m.TotalBets()
	s.emit(ctx, ev)
	return nil
}

// AnnounceOutcome resolves the market. The outcome is write-once.
func (s *Service) AnnounceOutcome(ctx context.Context, marketID uint64, caller domain.Address, winner domain.Outcome) error {
	unlock, err := s.lock(ctx, marketID)
	if err != nil {
		return fmt.Errorf("escrow.AnnounceOutcome: %w", err)
	}
	defer unlock()

	m, err := s.store.GetMarket(ctx, marketID)
	if err != nil {
		return fmt.Errorf("escrow.AnnounceOutcome: %w", err)
	}
	if err := authorize(m.Authority, caller); err != nil {
		return fmt.Errorf("escrow.AnnounceOutcome %d: %w", marketID, err)
	}
	now := s.clock.Now()
	if err := m.Resolve(winner, now); err != nil {
		return fmt.Errorf("escrow.AnnounceOutcome %d: %w", marketID, err)
	}
	if err := s.store.UpdateMarket(ctx, m); err != nil {
		return fmt.Errorf("escrow.AnnounceOutcome: %w", err)
	}

	slog.Info("outcome announced",
		"market", m.ID,
		"winner", winner,
		"label", winner.Label(m),
		"pool_a", m.PoolA.Dec(),
		"pool_b", m.PoolB.Dec(),
	)
	ev := domain.NewEvent(domain.EventOutcomeAnnounced, m, caller, now)
	ev.TotalBets = m.TotalBets()
	ev.Detail = winner.Label(m)
	s.emit(ctx, ev)
	return nil
}

// CloseMarket retires a resolved market. Outstanding fees go to their
// recipients first, then the vault's residual goes to caller. It returns the
// residual released.
func (s *Service) CloseMarket(ctx context.Context, marketID uint64, caller domain.Address) (uint64, error) {
	unlock, err := s.lock(ctx, marketID)
	if err != nil {
		return 0, fmt.Errorf("escrow.CloseMarket: %w", err)
	}
	defer unlock()

	m, err := s.store.GetMarket(ctx, marketID)
	if err != nil {
		return 0, fmt.Errorf("escrow.CloseMarket: %w", err)
	}
	if !m.IsResolved() {
		return 0, fmt.Errorf("escrow.CloseMarket %d: %w", marketID, domain.ErrEventNotSettled)
	}
	if err := authorize(m.Authority, caller); err != nil {
		return 0, fmt.Errorf("escrow.CloseMarket %d: %w", marketID, err)
	}
	if m.Closed {
		return 0, fmt.Errorf("escrow.CloseMarket %d: %w", marketID, domain.ErrMarketClosed)
	}

	prev := m
	now := s.clock.Now()
	sweep := planSweep(&m)
	m.Closed = true
	closedAt := now.UTC()
	m.ClosedAt = &closedAt

	// El estado se persiste antes de mover valor; si algo falla se restaura.
	if err := s.store.UpdateMarket(ctx, m); err != nil {
		return 0, fmt.Errorf("escrow.CloseMarket: %w", err)
	}
	v := s.vaultOf(m)
	if err := payFees(ctx, v, sweep); err != nil {
		return 0, fmt.Errorf("escrow.CloseMarket %d: %w", marketID, s.restore(ctx, prev, err))
	}
	residual, err := v.Close(ctx, caller)
	if err != nil {
		if rerr := refundFees(ctx, v, sweep); rerr != nil {
			err = errors.Join(err, rerr)
		}
		return 0, fmt.Errorf("escrow.CloseMarket %d: %w", marketID, s.restore(ctx, prev, err))
	}

	slog.Info("market closed",
		"market", m.ID,
		"residual", residual,
		"fee", sweep.Fee,
		"developer_fee", sweep.DeveloperFee,
	)
	ev := domain.NewEvent(domain.EventMarketClosed, m, caller, now)
	ev.Amount = residual
	ev.Fee = sweep.Fee
	ev.DevFee = sweep.DeveloperFee
	ev.TotalBets = m.TotalBets()
	s.emit(ctx, ev)
	return residual, nil
}

// restore writes prev back after a failed value movement and returns cause,
// joined with the restore failure if there was one.
func (s *Service) restore(ctx context.Context, prev domain.Market, cause error) error {
	if err := s.store.UpdateMarket(ctx, prev); err != nil {
		slog.Error("market restore failed", "market", prev.ID, "err", err)
		return errors.Join(cause, err)
	}
	return cause
}
