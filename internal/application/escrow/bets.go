package escrow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/alejandrodnm/parimutuel/internal/domain"
)

// PlaceBet admits a stake of amount on side for bettor. The value moves into
// the vault before anything is persisted; if persisting fails the deposit is
// returned. A bettor holds at most one position per market.
func (s *Service) PlaceBet(ctx context.Context, marketID uint64, bettor domain.Address, side domain.Outcome, amount uint64) (domain.Position, error) {
	if amount == 0 {
		return domain.Position{}, fmt.Errorf("escrow.PlaceBet: %w", domain.ErrZeroAmount)
	}
	if !side.IsSide() {
		return domain.Position{}, fmt.Errorf("escrow.PlaceBet: side %q: %w", side, domain.ErrInvalidOutcome)
	}

	unlock, err := s.lock(ctx, marketID)
	if err != nil {
		return domain.Position{}, fmt.Errorf("escrow.PlaceBet: %w", err)
	}
	defer unlock()

	m, err := s.store.GetMarket(ctx, marketID)
	if err != nil {
		return domain.Position{}, fmt.Errorf("escrow.PlaceBet: %w", err)
	}
	now := s.clock.Now()
	if err := m.AcceptsBets(now); err != nil {
		return domain.Position{}, fmt.Errorf("escrow.PlaceBet %d: %w", marketID, err)
	}

	if err := m.AddStake(side, amount); err != nil {
		return domain.Position{}, fmt.Errorf("escrow.PlaceBet %d: %w", marketID, err)
	}

	_, err = s.store.PositionFor(ctx, marketID, bettor)
	switch {
	case err == nil:
		return domain.Position{}, fmt.Errorf("escrow.PlaceBet %d: %s: %w", marketID, bettor.Hex(), domain.ErrPositionExists)
	case !errors.Is(err, domain.ErrPositionNotFound):
		return domain.Position{}, fmt.Errorf("escrow.PlaceBet: %w", err)
	}

	p := domain.Position{
		ID:       s.newID(),
		MarketID: m.ID,
		Owner:    bettor,
		Side:     side,
		Amount:   amount,
		PlacedAt: now.UTC(),
	}

	v := s.vaultOf(m)
	if err := v.Deposit(ctx, bettor, amount); err != nil {
		return domain.Position{}, fmt.Errorf("escrow.PlaceBet %d: %w", marketID, err)
	}
	if err := s.store.RecordBet(ctx, m, p); err != nil {
		if rerr := v.Withdraw(ctx, bettor, amount); rerr != nil {
			slog.Error("bet refund failed", "market", m.ID, "bettor", bettor.Hex(), "amount", amount, "err", rerr)
			err = errors.Join(err, fmt.Errorf("refund: %w", rerr))
		}
		return domain.Position{}, fmt.Errorf("escrow.PlaceBet %d: %w", marketID, err)
	}

	slog.Info("bet placed",
		"market", m.ID,
		"position", p.ID,
		"side", side,
		"amount", amount,
		"pool_a", m.PoolA.Dec(),
		"pool_b", m.PoolB.Dec(),
	)
	ev := domain.NewEvent(domain.EventBetPlaced, m, bettor, now)
	ev.PositionID = p.ID
	ev.Side = side
	ev.Amount = amount
	ev.TotalBets = m.TotalBets()
	s.emit(ctx, ev)
	return p, nil
}
