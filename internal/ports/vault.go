package ports

import (
	"context"

	"github.com/alejandrodnm/parimutuel/internal/domain"
)

// Vault holds the escrowed value of one market. Only logic acting for that
// market moves value out of it.
type Vault interface {
	Address() domain.Address
	Balance(ctx context.Context) (uint64, error)

	// Deposit moves amount from the bettor into custody.
	Deposit(ctx context.Context, from domain.Address, amount uint64) error

	// Withdraw moves amount out of custody to to.
	Withdraw(ctx context.Context, to domain.Address, amount uint64) error

	// Close releases the residual balance to to, retires the vault and returns
	// the amount released.
	Close(ctx context.Context, to domain.Address) (uint64, error)
}

// Vaults opens the custody account of a market for its asset. The caller never
// branches on the asset kind.
type Vaults interface {
	Vault(asset domain.AssetKind, addr domain.Address) Vault
}
