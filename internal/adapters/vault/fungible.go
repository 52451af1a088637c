package vault

import (
	"context"
	"fmt"

	"github.com/alejandrodnm/parimutuel/internal/domain"
	"github.com/alejandrodnm/parimutuel/internal/ports"
)

// Fungible holds a token in a dedicated account derived from the market and
// the mint. Balance checks are left to the ledger's token transfer.
type Fungible struct {
	custody
}

func (v *Fungible) Deposit(ctx context.Context, from domain.Address, amount uint64) error {
	if from == (domain.Address{}) {
		return fmt.Errorf("vault.Deposit %s: %w", v.addr.Hex(), domain.ErrInvalidTokenAccount)
	}
	return v.deposit(ctx, from, amount)
}

func (v *Fungible) Withdraw(ctx context.Context, to domain.Address, amount uint64) error {
	if to == (domain.Address{}) || to == v.addr {
		return fmt.Errorf("vault.Withdraw %s: %w", v.addr.Hex(), domain.ErrInvalidTokenAccount)
	}
	return v.withdraw(ctx, to, amount)
}

// Close releases the residual tokens and closes the token account, which is
// what reclaims its storage.
func (v *Fungible) Close(ctx context.Context, to domain.Address) (uint64, error) {
	if to == (domain.Address{}) {
		return 0, fmt.Errorf("vault.Close %s: %w", v.addr.Hex(), domain.ErrInvalidTokenAccount)
	}
	return v.drain(ctx, to)
}

var _ ports.Vault = (*Fungible)(nil)
