package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/alejandrodnm/parimutuel/internal/domain"
)

const marketCols = `id, authority, address, vault_address, opponent_a, opponent_b,
	fee_bps, developer_fee_bps, fee_recipient, developer_fee_recipient,
	window_kind, betting_open, deadline, outcome, asset,
	pool_a, pool_b, count_a, count_b,
	fees_accrued, developer_fees_accrued, fees_paid, developer_fees_paid,
	closed, created_at, resolved_at, closed_at`

// CreateMarket inserts a new market row.
func (s *SQLiteStorage) CreateMarket(ctx context.Context, m domain.Market) error {
	var deadline *string
	if m.Window.Kind == domain.WindowDeadline {
		d := ts(m.Window.Deadline)
		deadline = &d
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO markets (`+marketCols+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u64(m.ID), addr(m.Authority), addr(m.Address), addr(m.VaultAddress),
		m.OpponentA, m.OpponentB,
		m.FeeBps, m.DeveloperFeeBps, addr(m.FeeRecipient), addr(m.DeveloperFeeRecipient),
		string(m.Window.Kind), boolInt(m.Window.Open), deadline, string(m.Outcome), m.Asset.Key(),
		m.PoolA.Dec(), m.PoolB.Dec(), m.CountA, m.CountB,
		u64(m.FeesAccrued), u64(m.DeveloperFeesAccrued), u64(m.FeesPaid), u64(m.DeveloperFeesPaid),
		boolInt(m.Closed), ts(m.CreatedAt), nullTS(m.ResolvedAt), nullTS(m.ClosedAt),
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("storage.CreateMarket %d: %w", m.ID, domain.ErrMarketExists)
	}
	if err != nil {
		return fmt.Errorf("storage.CreateMarket %d: %w", m.ID, err)
	}
	return nil
}

// GetMarket loads one market by ID.
func (s *SQLiteStorage) GetMarket(ctx context.Context, id uint64) (domain.Market, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+marketCols+` FROM markets WHERE id = ?`, u64(id))
	m, err := scanMarket(row)
	if err != nil {
		return domain.Market{}, fmt.Errorf("storage.GetMarket %d: %w", id, notFound(err, domain.ErrMarketNotFound))
	}
	return m, nil
}

// ListMarkets returns every market, newest first.
func (s *SQLiteStorage) ListMarkets(ctx context.Context) ([]domain.Market, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+marketCols+` FROM markets ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("storage.ListMarkets: query: %w", err)
	}
	defer rows.Close()

	var markets []domain.Market
	for rows.Next() {
		m, err := scanMarket(rows)
		if err != nil {
			return nil, fmt.Errorf("storage.ListMarkets: scan row: %w", err)
		}
		markets = append(markets, m)
	}
	return markets, rows.Err()
}

// UpdateMarket stores the mutable state of m. Terms fixed at creation are not touched.
func (s *SQLiteStorage) UpdateMarket(ctx context.Context, m domain.Market) error {
	if err := updateMarket(ctx, s.db, m); err != nil {
		return fmt.Errorf("storage.UpdateMarket %d: %w", m.ID, err)
	}
	return nil
}

func updateMarket(ctx context.Context, db execer, m domain.Market) error {
	res, err := db.ExecContext(ctx, `
		UPDATE markets SET
			betting_open           = ?,
			outcome                = ?,
			pool_a                 = ?,
			pool_b                 = ?,
			count_a                = ?,
			count_b                = ?,
			fees_accrued           = ?,
			developer_fees_accrued = ?,
			fees_paid              = ?,
			developer_fees_paid    = ?,
			closed                 = ?,
			resolved_at            = ?,
			closed_at              = ?
		WHERE id = ?`,
		boolInt(m.Window.Open), string(m.Outcome),
		m.PoolA.Dec(), m.PoolB.Dec(), m.CountA, m.CountB,
		u64(m.FeesAccrued), u64(m.DeveloperFeesAccrued), u64(m.FeesPaid), u64(m.DeveloperFeesPaid),
		boolInt(m.Closed), nullTS(m.ResolvedAt), nullTS(m.ClosedAt),
		u64(m.ID),
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrMarketNotFound
	}
	return nil
}

// rowScanner es lo que comparten *sql.Row y *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanMarket(row rowScanner) (domain.Market, error) {
	var m domain.Market
	var id, authority, address, vault, feeTo, devFeeTo string
	var windowKind, outcome, asset, poolA, poolB, createdAt string
	var feesAccrued, devAccrued, feesPaid, devPaid string
	var deadline, resolvedAt, closedAt sql.NullString
	var open, closed int
	if err := row.Scan(
		&id, &authority, &address, &vault, &m.OpponentA, &m.OpponentB,
		&m.FeeBps, &m.DeveloperFeeBps, &feeTo, &devFeeTo,
		&windowKind, &open, &deadline, &outcome, &asset,
		&poolA, &poolB, &m.CountA, &m.CountB,
		&feesAccrued, &devAccrued, &feesPaid, &devPaid,
		&closed, &createdAt, &resolvedAt, &closedAt,
	); err != nil {
		return domain.Market{}, err
	}

	var err error
	if m.ID, err = parseU64(id); err != nil {
		return domain.Market{}, err
	}
	for dst, src := range map[*domain.Address]string{
		&m.Authority: authority, &m.Address: address, &m.VaultAddress: vault,
		&m.FeeRecipient: feeTo, &m.DeveloperFeeRecipient: devFeeTo,
	} {
		if *dst, err = parseAddr(src); err != nil {
			return domain.Market{}, err
		}
	}
	for dst, src := range map[*uint64]string{
		&m.FeesAccrued: feesAccrued, &m.DeveloperFeesAccrued: devAccrued,
		&m.FeesPaid: feesPaid, &m.DeveloperFeesPaid: devPaid,
	} {
		if *dst, err = parseU64(src); err != nil {
			return domain.Market{}, err
		}
	}
	if err := setPool(&m.PoolA, poolA); err != nil {
		return domain.Market{}, err
	}
	if err := setPool(&m.PoolB, poolB); err != nil {
		return domain.Market{}, err
	}
	if m.Asset, err = domain.ParseAssetKey(asset); err != nil {
		return domain.Market{}, err
	}

	m.Outcome = domain.Outcome(outcome)
	m.Window = domain.WindowPolicy{Kind: domain.WindowKind(windowKind), Open: open == 1}
	if deadline.Valid {
		if m.Window.Deadline, err = parseTS(deadline.String); err != nil {
			return domain.Market{}, err
		}
	}
	m.Closed = closed == 1
	if m.CreatedAt, err = parseTS(createdAt); err != nil {
		return domain.Market{}, err
	}
	if m.ResolvedAt, err = parseNullTS(resolvedAt); err != nil {
		return domain.Market{}, err
	}
	if m.ClosedAt, err = parseNullTS(closedAt); err != nil {
		return domain.Market{}, err
	}
	return m, nil
}

func setPool(dst *uint256.Int, dec string) error {
	if err := dst.SetFromDecimal(dec); err != nil {
		return fmt.Errorf("parse pool %q: %w", dec, err)
	}
	return nil
}
