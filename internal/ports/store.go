package ports

import (
	"context"

	"github.com/alejandrodnm/parimutuel/internal/domain"
)

// EscrowStore persists markets and positions. Each method is atomic.
type EscrowStore interface {
	// CreateMarket inserts a new market. Returns domain.ErrMarketExists on a duplicate ID.
	CreateMarket(ctx context.Context, m domain.Market) error
	// GetMarket returns domain.ErrMarketNotFound if the ID is unknown.
	GetMarket(ctx context.Context, id uint64) (domain.Market, error)
	ListMarkets(ctx context.Context) ([]domain.Market, error)
	// UpdateMarket replaces the mutable state of an existing market.
	UpdateMarket(ctx context.Context, m domain.Market) error

	GetPosition(ctx context.Context, id string) (domain.Position, error)
	// PositionFor returns the position owner holds on a market, or domain.ErrPositionNotFound.
	PositionFor(ctx context.Context, marketID uint64, owner domain.Address) (domain.Position, error)
	ListPositions(ctx context.Context, marketID uint64) ([]domain.Position, error)

	// RecordBet inserts p and stores the updated pools of m in one transaction.
	// Returns domain.ErrPositionExists if the owner already holds a position on m.
	RecordBet(ctx context.Context, m domain.Market, p domain.Position) error

	// RecordSettlement flips p to settled (only if it is still unsettled, else
	// domain.ErrBetSettled) and stores m's fee accrual in one transaction.
	RecordSettlement(ctx context.Context, m domain.Market, p domain.Position) error

	// RevertSettlement restores the pre-settlement snapshots of m and p.
	RevertSettlement(ctx context.Context, m domain.Market, p domain.Position) error
}
