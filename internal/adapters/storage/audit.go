package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/alejandrodnm/parimutuel/internal/domain"
	"github.com/alejandrodnm/parimutuel/internal/ports"
)

// auditSchema: log append-only; nunca se actualiza ni se borra una fila.
const auditSchema = `
CREATE TABLE IF NOT EXISTS audit_log (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    kind         TEXT NOT NULL,
    market_id    TEXT NOT NULL,
    position_id  TEXT,
    actor        TEXT NOT NULL,
    payload      TEXT NOT NULL,
    at           TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_audit_market ON audit_log(market_id, id);
`

// Emit appends ev to the audit log.
func (s *SQLiteStorage) Emit(ctx context.Context, ev domain.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("storage.Emit: marshal: %w", err)
	}
	var positionID *string
	if ev.PositionID != "" {
		positionID = &ev.PositionID
	}
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_log (kind, market_id, position_id, actor, payload, at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		string(ev.Kind), u64(ev.MarketID), positionID, ev.Actor, string(payload), ts(ev.At),
	); err != nil {
		return fmt.Errorf("storage.Emit %s: %w", ev.Kind, err)
	}
	return nil
}

// AuditTrail returns the records of one market in emission order.
func (s *SQLiteStorage) AuditTrail(ctx context.Context, marketID uint64) ([]domain.Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM audit_log WHERE market_id = ? ORDER BY id`, u64(marketID))
	if err != nil {
		return nil, fmt.Errorf("storage.AuditTrail: query: %w", err)
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("storage.AuditTrail: scan row: %w", err)
		}
		var ev domain.Event
		if err := json.Unmarshal([]byte(payload), &ev); err != nil {
			return nil, fmt.Errorf("storage.AuditTrail: decode: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

var _ ports.AuditSink = (*SQLiteStorage)(nil)
