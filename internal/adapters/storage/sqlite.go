package storage

// sqlite.go: persistencia del escrow en un solo archivo SQLite.
//
// Estrategia:
//   - `markets` y `positions`: estado del ciclo de vida. Los montos u64/u128
//     se guardan como TEXT decimal (INTEGER de SQLite es int64 con signo).
//   - `balances`: el ledger de valor (native + tokens), usado por los vaults.
//   - `audit_log`: registro append-only, una fila por operación exitosa.
//   - Un único writer: cada operación compuesta corre en una transacción.

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/alejandrodnm/parimutuel/internal/domain"
	"github.com/ethereum/go-ethereum/common"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS markets (
    id                      TEXT PRIMARY KEY,
    authority               TEXT    NOT NULL,
    address                 TEXT    NOT NULL,
    vault_address           TEXT    NOT NULL,
    opponent_a              TEXT    NOT NULL,
    opponent_b              TEXT    NOT NULL,
    fee_bps                 INTEGER NOT NULL DEFAULT 0,
    developer_fee_bps       INTEGER NOT NULL DEFAULT 0,
    fee_recipient           TEXT    NOT NULL,
    developer_fee_recipient TEXT    NOT NULL,
    window_kind             TEXT    NOT NULL,
    betting_open            INTEGER NOT NULL DEFAULT 0,
    deadline                TEXT,
    outcome                 TEXT    NOT NULL DEFAULT 'UNDRAWN',
    asset                   TEXT    NOT NULL,
    pool_a                  TEXT    NOT NULL DEFAULT '0',
    pool_b                  TEXT    NOT NULL DEFAULT '0',
    count_a                 INTEGER NOT NULL DEFAULT 0,
    count_b                 INTEGER NOT NULL DEFAULT 0,
    fees_accrued            TEXT    NOT NULL DEFAULT '0',
    developer_fees_accrued  TEXT    NOT NULL DEFAULT '0',
    fees_paid               TEXT    NOT NULL DEFAULT '0',
    developer_fees_paid     TEXT    NOT NULL DEFAULT '0',
    closed                  INTEGER NOT NULL DEFAULT 0,
    created_at              TEXT    NOT NULL,
    resolved_at             TEXT,
    closed_at               TEXT
);

CREATE TABLE IF NOT EXISTS positions (
    id          TEXT PRIMARY KEY,
    market_id   TEXT    NOT NULL,
    owner       TEXT    NOT NULL,
    side        TEXT    NOT NULL CHECK (side IN ('WIN_A', 'WIN_B')),
    amount      TEXT    NOT NULL,
    settled     INTEGER NOT NULL DEFAULT 0,
    payout      TEXT    NOT NULL DEFAULT '0',
    placed_at   TEXT    NOT NULL,
    settled_at  TEXT,
    UNIQUE (market_id, owner)
);

CREATE INDEX IF NOT EXISTS idx_positions_market ON positions(market_id);
`

// SQLiteStorage implementa ports.EscrowStore, ports.Ledger y ports.AuditSink
// usando SQLite (pure Go, sin CGo).
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage abre (o crea) la base de datos en la ruta dada y aplica
// todos los schemas.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	for _, stmt := range []string{schema, ledgerSchema, auditSchema} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("storage.NewSQLiteStorage: apply schema: %w", err)
		}
	}
	return &SQLiteStorage{db: db}, nil
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// --- helpers internos ---

// execer es lo que comparten *sql.DB y *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// inTx ejecuta fn en una transacción y hace commit si no hubo error.
func (s *SQLiteStorage) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func u64(v uint64) string {
	return strconv.FormatUint(v, 10)
}

func parseU64(s string) (uint64, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return v, nil
}

func addr(a domain.Address) string {
	return a.Hex()
}

func parseAddr(s string) (domain.Address, error) {
	if !common.IsHexAddress(s) {
		return domain.Address{}, fmt.Errorf("parse address %q: invalid hex", s)
	}
	return common.HexToAddress(s), nil
}

// tsLayout tiene ancho fijo para que ORDER BY sobre TEXT respete el orden temporal.
const tsLayout = "2006-01-02T15:04:05.000000000Z07:00"

func ts(t time.Time) string {
	return t.UTC().Format(tsLayout)
}

func nullTS(t *time.Time) *string {
	if t == nil || t.IsZero() {
		return nil
	}
	v := ts(*t)
	return &v
}

func parseTS(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}

func parseNullTS(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	t, err := parseTS(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// notFound traduce sql.ErrNoRows al error de dominio correspondiente.
func notFound(err, domainErr error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domainErr
	}
	return err
}
