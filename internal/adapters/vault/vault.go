// Package vault implements market custody over the hosting ledger, one
// variant per asset kind behind the same ports.Vault contract.
package vault

import (
	"context"
	"fmt"

	"github.com/alejandrodnm/parimutuel/internal/domain"
	"github.com/alejandrodnm/parimutuel/internal/ports"
)

// Open returns the vault variant for asset at addr. Callers never branch on
// the asset kind themselves.
func Open(asset domain.AssetKind, addr domain.Address, ledger ports.Ledger) ports.Vault {
	base := custody{asset: asset, addr: addr, ledger: ledger}
	if asset.IsNative() {
		return &Native{custody: base}
	}
	return &Fungible{custody: base}
}

// Factory opens vaults over one ledger.
type Factory struct {
	ledger ports.Ledger
}

// NewFactory crea un Factory sobre el ledger dado.
func NewFactory(ledger ports.Ledger) *Factory {
	return &Factory{ledger: ledger}
}

// Vault implements ports.Vaults.
func (f *Factory) Vault(asset domain.AssetKind, addr domain.Address) ports.Vault {
	return Open(asset, addr, f.ledger)
}

var _ ports.Vaults = (*Factory)(nil)

// custody is the part both variants share: an account on the ledger.
type custody struct {
	asset  domain.AssetKind
	addr   domain.Address
	ledger ports.Ledger
}

func (c *custody) Address() domain.Address {
	return c.addr
}

func (c *custody) Balance(ctx context.Context) (uint64, error) {
	bal, err := c.ledger.Balance(ctx, c.asset, c.addr)
	if err != nil {
		return 0, fmt.Errorf("vault.Balance %s: %w", c.addr.Hex(), err)
	}
	return bal, nil
}

func (c *custody) deposit(ctx context.Context, from domain.Address, amount uint64) error {
	if err := c.ledger.Transfer(ctx, c.asset, from, c.addr, amount); err != nil {
		return fmt.Errorf("vault.Deposit %s: %w", c.addr.Hex(), err)
	}
	return nil
}

func (c *custody) withdraw(ctx context.Context, to domain.Address, amount uint64) error {
	if err := c.ledger.Transfer(ctx, c.asset, c.addr, to, amount); err != nil {
		return fmt.Errorf("vault.Withdraw %s: %w", c.addr.Hex(), err)
	}
	return nil
}

// drain moves the whole balance to to and closes the account.
func (c *custody) drain(ctx context.Context, to domain.Address) (uint64, error) {
	bal, err := c.Balance(ctx)
	if err != nil {
		return 0, err
	}
	if bal > 0 {
		if err := c.withdraw(ctx, to, bal); err != nil {
			return 0, err
		}
	}
	if err := c.ledger.CloseAccount(ctx, c.asset, c.addr); err != nil {
		return 0, fmt.Errorf("vault.Close %s: %w", c.addr.Hex(), err)
	}
	return bal, nil
}
