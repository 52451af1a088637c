package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alejandrodnm/parimutuel/internal/domain"
	"github.com/alejandrodnm/parimutuel/internal/ports"
)

// ledgerSchema: saldos por (asset, cuenta). Una cuenta sin fila tiene saldo 0.
const ledgerSchema = `
CREATE TABLE IF NOT EXISTS balances (
    asset    TEXT NOT NULL,
    account  TEXT NOT NULL,
    amount   TEXT NOT NULL DEFAULT '0',
    PRIMARY KEY (asset, account)
);
`

// Balance returns the balance of account in asset.
func (s *SQLiteStorage) Balance(ctx context.Context, asset domain.AssetKind, account domain.Address) (uint64, error) {
	bal, err := balanceOf(ctx, s.db, asset, account)
	if err != nil {
		return 0, fmt.Errorf("storage.Balance: %w", err)
	}
	return bal, nil
}

// Transfer moves amount between two accounts atomically.
func (s *SQLiteStorage) Transfer(ctx context.Context, asset domain.AssetKind, from, to domain.Address, amount uint64) error {
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		fromBal, err := balanceOf(ctx, tx, asset, from)
		if err != nil {
			return err
		}
		if fromBal < amount {
			return fmt.Errorf("%s has %d, needs %d: %w", from.Hex(), fromBal, amount, domain.ErrInsufficientFunds)
		}
		if from == to || amount == 0 {
			return nil
		}
		toBal, err := balanceOf(ctx, tx, asset, to)
		if err != nil {
			return err
		}
		if toBal+amount < toBal {
			return domain.ErrOverflow
		}
		if err := setBalance(ctx, tx, asset, from, fromBal-amount); err != nil {
			return err
		}
		return setBalance(ctx, tx, asset, to, toBal+amount)
	})
	if err != nil {
		return fmt.Errorf("storage.Transfer %s: %w", asset, err)
	}
	return nil
}

// Credit mints amount into account.
func (s *SQLiteStorage) Credit(ctx context.Context, asset domain.AssetKind, account domain.Address, amount uint64) error {
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		bal, err := balanceOf(ctx, tx, asset, account)
		if err != nil {
			return err
		}
		if bal+amount < bal {
			return domain.ErrOverflow
		}
		return setBalance(ctx, tx, asset, account, bal+amount)
	})
	if err != nil {
		return fmt.Errorf("storage.Credit %s: %w", asset, err)
	}
	return nil
}

// CloseAccount removes an empty account.
func (s *SQLiteStorage) CloseAccount(ctx context.Context, asset domain.AssetKind, account domain.Address) error {
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		bal, err := balanceOf(ctx, tx, asset, account)
		if err != nil {
			return err
		}
		if bal != 0 {
			return fmt.Errorf("account %s still holds %d", account.Hex(), bal)
		}
		_, err = tx.ExecContext(ctx, `DELETE FROM balances WHERE asset = ? AND account = ?`, asset.Key(), addr(account))
		return err
	})
	if err != nil {
		return fmt.Errorf("storage.CloseAccount %s: %w", asset, err)
	}
	return nil
}

func balanceOf(ctx context.Context, db execer, asset domain.AssetKind, account domain.Address) (uint64, error) {
	var amount string
	err := db.QueryRowContext(ctx,
		`SELECT amount FROM balances WHERE asset = ? AND account = ?`,
		asset.Key(), addr(account),
	).Scan(&amount)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read balance %s: %w", account.Hex(), err)
	}
	return parseU64(amount)
}

func setBalance(ctx context.Context, db execer, asset domain.AssetKind, account domain.Address, amount uint64) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO balances (asset, account, amount) VALUES (?, ?, ?)
		ON CONFLICT(asset, account) DO UPDATE SET amount = excluded.amount`,
		asset.Key(), addr(account), u64(amount),
	)
	if err != nil {
		return fmt.Errorf("write balance %s: %w", account.Hex(), err)
	}
	return nil
}

var _ ports.Ledger = (*SQLiteStorage)(nil)
