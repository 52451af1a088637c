package ports

import (
	"context"

	"github.com/alejandrodnm/parimutuel/internal/domain"
)

// Ledger is the hosting platform's atomic value-transfer primitive, keyed by
// asset and account.
type Ledger interface {
	Balance(ctx context.Context, asset domain.AssetKind, account domain.Address) (uint64, error)

	// Transfer moves amount from one account to another. It fails with
	// domain.ErrInsufficientFunds if from holds less than amount.
	Transfer(ctx context.Context, asset domain.AssetKind, from, to domain.Address, amount uint64) error

	// Credit mints amount into account (operator funding).
	Credit(ctx context.Context, asset domain.AssetKind, account domain.Address, amount uint64) error

	// CloseAccount retires an empty account so its storage can be reclaimed.
	CloseAccount(ctx context.Context, asset domain.AssetKind, account domain.Address) error
}
