package vault

import (
	"context"
	"fmt"

	"github.com/alejandrodnm/parimutuel/internal/domain"
	"github.com/alejandrodnm/parimutuel/internal/ports"
)

// Native keeps the ledger's native unit in the market account itself.
type Native struct {
	custody
}

func (v *Native) Deposit(ctx context.Context, from domain.Address, amount uint64) error {
	return v.deposit(ctx, from, amount)
}

// Withdraw checks the vault balance before moving anything.
func (v *Native) Withdraw(ctx context.Context, to domain.Address, amount uint64) error {
	bal, err := v.Balance(ctx)
	if err != nil {
		return err
	}
	if bal < amount {
		return fmt.Errorf("vault.Withdraw %s: have %d, need %d: %w",
			v.addr.Hex(), bal, amount, domain.ErrInsufficientFunds)
	}
	return v.withdraw(ctx, to, amount)
}

func (v *Native) Close(ctx context.Context, to domain.Address) (uint64, error) {
	return v.drain(ctx, to)
}

var _ ports.Vault = (*Native)(nil)
