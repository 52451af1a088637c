package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/alejandrodnm/parimutuel/internal/domain"
	"github.com/alejandrodnm/parimutuel/internal/ports"
)

const positionCols = `id, market_id, owner, side, amount, settled, payout, placed_at, settled_at`

// GetPosition loads one position by ID.
func (s *SQLiteStorage) GetPosition(ctx context.Context, id string) (domain.Position, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+positionCols+` FROM positions WHERE id = ?`, id)
	p, err := scanPosition(row)
	if err != nil {
		return domain.Position{}, fmt.Errorf("storage.GetPosition %s: %w", id, notFound(err, domain.ErrPositionNotFound))
	}
	return p, nil
}

// PositionFor returns the position owner holds on marketID.
func (s *SQLiteStorage) PositionFor(ctx context.Context, marketID uint64, owner domain.Address) (domain.Position, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+positionCols+` FROM positions WHERE market_id = ? AND owner = ?`,
		u64(marketID), addr(owner),
	)
	p, err := scanPosition(row)
	if err != nil {
		return domain.Position{}, fmt.Errorf("storage.PositionFor %d/%s: %w",
			marketID, owner.Hex(), notFound(err, domain.ErrPositionNotFound))
	}
	return p, nil
}

// ListPositions returns the positions of a market in placement order.
func (s *SQLiteStorage) ListPositions(ctx context.Context, marketID uint64) ([]domain.Position, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+positionCols+` FROM positions WHERE market_id = ? ORDER BY placed_at, id`,
		u64(marketID),
	)
	if err != nil {
		return nil, fmt.Errorf("storage.ListPositions: query: %w", err)
	}
	defer rows.Close()

	var positions []domain.Position
	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			return nil, fmt.Errorf("storage.ListPositions: scan row: %w", err)
		}
		positions = append(positions, p)
	}
	return positions, rows.Err()
}

// RecordBet inserts the position and the grown pools together.
func (s *SQLiteStorage) RecordBet(ctx context.Context, m domain.Market, p domain.Position) error {
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO positions (`+positionCols+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, u64(p.MarketID), addr(p.Owner), string(p.Side), u64(p.Amount),
			boolInt(p.Settled), u64(p.Payout), ts(p.PlacedAt), nullTS(p.SettledAt),
		); err != nil {
			if isUniqueViolation(err) {
				return domain.ErrPositionExists
			}
			return fmt.Errorf("insert position: %w", err)
		}
		if err := updateMarket(ctx, tx, m); err != nil {
			return fmt.Errorf("update market: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("storage.RecordBet %s: %w", p.ID, err)
	}
	return nil
}

// RecordSettlement flips the settled flag only if it is still clear, so two
// settlements of the same position can never both succeed.
func (s *SQLiteStorage) RecordSettlement(ctx context.Context, m domain.Market, p domain.Position) error {
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE positions SET settled = 1, payout = ?, settled_at = ?
			WHERE id = ? AND settled = 0`,
			u64(p.Payout), nullTS(p.SettledAt), p.ID,
		)
		if err != nil {
			return fmt.Errorf("mark settled: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("mark settled: %w", err)
		}
		if n == 0 {
			return domain.ErrBetSettled
		}
		if err := updateMarket(ctx, tx, m); err != nil {
			return fmt.Errorf("update market: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("storage.RecordSettlement %s: %w", p.ID, err)
	}
	return nil
}

// RevertSettlement writes back the snapshots taken before RecordSettlement.
func (s *SQLiteStorage) RevertSettlement(ctx context.Context, m domain.Market, p domain.Position) error {
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			UPDATE positions SET settled = ?, payout = ?, settled_at = ?
			WHERE id = ?`,
			boolInt(p.Settled), u64(p.Payout), nullTS(p.SettledAt), p.ID,
		); err != nil {
			return fmt.Errorf("restore position: %w", err)
		}
		if err := updateMarket(ctx, tx, m); err != nil {
			return fmt.Errorf("restore market: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("storage.RevertSettlement %s: %w", p.ID, err)
	}
	return nil
}

func scanPosition(row rowScanner) (domain.Position, error) {
	var p domain.Position
	var marketID, owner, side, amount, payout, placedAt string
	var settledAt sql.NullString
	var settled int
	if err := row.Scan(&p.ID, &marketID, &owner, &side, &amount, &settled, &payout, &placedAt, &settledAt); err != nil {
		return domain.Position{}, err
	}

	var err error
	if p.MarketID, err = parseU64(marketID); err != nil {
		return domain.Position{}, err
	}
	if p.Owner, err = parseAddr(owner); err != nil {
		return domain.Position{}, err
	}
	if p.Amount, err = parseU64(amount); err != nil {
		return domain.Position{}, err
	}
	if p.Payout, err = parseU64(payout); err != nil {
		return domain.Position{}, err
	}
	if p.PlacedAt, err = parseTS(placedAt); err != nil {
		return domain.Position{}, err
	}
	if p.SettledAt, err = parseNullTS(settledAt); err != nil {
		return domain.Position{}, err
	}
	p.Side = domain.Outcome(side)
	p.Settled = settled == 1
	return p, nil
}

var _ ports.EscrowStore = (*SQLiteStorage)(nil)
