package escrow

import (
	"context"
	"fmt"

	"github.com/alejandrodnm/parimutuel/internal/domain"
)

// Market returns the current state of one market.
func (s *Service) Market(ctx context.Context, id uint64) (domain.Market, error) {
	m, err := s.store.GetMarket(ctx, id)
	if err != nil {
		return domain.Market{}, fmt.Errorf("escrow.Market: %w", err)
	}
	return m, nil
}

// Markets lists every market, newest first.
func (s *Service) Markets(ctx context.Context) ([]domain.Market, error) {
	markets, err := s.store.ListMarkets(ctx)
	if err != nil {
		return nil, fmt.Errorf("escrow.Markets: %w", err)
	}
	return markets, nil
}

func (s *Service) Position(ctx context.Context, id string) (domain.Position, error) {
	p, err := s.store.GetPosition(ctx, id)
	if err != nil {
		return domain.Position{}, fmt.Errorf("escrow.Position: %w", err)
	}
	return p, nil
}

func (s *Service) Positions(ctx context.Context, marketID uint64) ([]domain.Position, error) {
	positions, err := s.store.ListPositions(ctx, marketID)
	if err != nil {
		return nil, fmt.Errorf("escrow.Positions: %w", err)
	}
	return positions, nil
}

// AcceptsBets reports whether the market admits a stake right now. When it
// does not, the error names the reason (ErrBettingClosed, ErrEventSettled...).
func (s *Service) AcceptsBets(ctx context.Context, marketID uint64) (bool, error) {
	m, err := s.store.GetMarket(ctx, marketID)
	if err != nil {
		return false, fmt.Errorf("escrow.AcceptsBets: %w", err)
	}
	if reason := m.AcceptsBets(s.clock.Now()); reason != nil {
		return false, reason
	}
	return true, nil
}

// VaultBalance is the value currently escrowed for a market.
func (s *Service) VaultBalance(ctx context.Context, marketID uint64) (uint64, error) {
	m, err := s.store.GetMarket(ctx, marketID)
	if err != nil {
		return 0, fmt.Errorf("escrow.VaultBalance: %w", err)
	}
	bal, err := s.vaultOf(m).Balance(ctx)
	if err != nil {
		return 0, fmt.Errorf("escrow.VaultBalance: %w", err)
	}
	return bal, nil
}
