package escrow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/alejandrodnm/parimutuel/internal/domain"
)

// Settle pays out one position of a resolved market and returns the payout.
// Losing positions settle with a zero payout. The settled flag is persisted
// before the withdrawal, so a successful transfer is never followed by an
// unsettled position.
func (s *Service) Settle(ctx context.Context, positionID string, marketID uint64, caller domain.Address) (uint64, error) {
	unlock, err := s.lock(ctx, marketID)
	if err != nil {
		return 0, fmt.Errorf("escrow.Settle: %w", err)
	}
	defer unlock()

	p, err := s.store.GetPosition(ctx, positionID)
	if err != nil {
		return 0, fmt.Errorf("escrow.Settle: %w", err)
	}
	if p.Settled {
		return 0, fmt.Errorf("escrow.Settle %s: %w", positionID, domain.ErrBetSettled)
	}
	m, err := s.store.GetMarket(ctx, marketID)
	if err != nil {
		return 0, fmt.Errorf("escrow.Settle: %w", err)
	}
	if !m.IsResolved() {
		return 0, fmt.Errorf("escrow.Settle %s: %w", positionID, domain.ErrEventNotSettled)
	}
	if p.MarketID != m.ID {
		return 0, fmt.Errorf("escrow.Settle %s: position of market %d: %w", positionID, p.MarketID, domain.ErrInvalidEvent)
	}
	if err := authorize(p.Owner, caller); err != nil {
		return 0, fmt.Errorf("escrow.Settle %s: %w", positionID, err)
	}
	if m.Closed {
		return 0, fmt.Errorf("escrow.Settle %s: %w", positionID, domain.ErrMarketClosed)
	}

	payout, err := domain.ComputePayout(m, p)
	if err != nil {
		return 0, fmt.Errorf("escrow.Settle %s: %w", positionID, err)
	}

	prevMarket, prevPosition := m, p
	now := s.clock.Now()
	if err := m.AccrueFees(payout.Fee, payout.DeveloperFee); err != nil {
		return 0, fmt.Errorf("escrow.Settle %s: %w", positionID, err)
	}
	if err := p.MarkSettled(payout.Amount, now); err != nil {
		return 0, fmt.Errorf("escrow.Settle %s: %w", positionID, err)
	}
	if err := s.store.RecordSettlement(ctx, m, p); err != nil {
		return 0, fmt.Errorf("escrow.Settle: %w", err)
	}

	if payout.Amount > 0 {
		if err := s.vaultOf(m).Withdraw(ctx, p.Owner, payout.Amount); err != nil {
			if rerr := s.store.RevertSettlement(ctx, prevMarket, prevPosition); rerr != nil {
				slog.Error("settlement revert failed", "position", p.ID, "err", rerr)
				err = errors.Join(err, rerr)
			}
			return 0, fmt.Errorf("escrow.Settle %s: %w", positionID, err)
		}
	}

	slog.Info("bet settled",
		"market", m.ID,
		"position", p.ID,
		"won", payout.Won,
		"stake", p.Amount,
		"payout", payout.Amount,
		"fee", payout.Fee,
		"developer_fee", payout.DeveloperFee,
	)
	ev := domain.NewEvent(domain.EventBetSettled, m, caller, now)
	ev.PositionID = p.ID
	ev.Side = p.Side
	ev.Amount = p.Amount
	ev.Payout = payout.Amount
	ev.Won = payout.Won
	ev.Fee = payout.Fee
	ev.DevFee = payout.DeveloperFee
	s.emit(ctx, ev)
	return payout.Amount, nil
}
