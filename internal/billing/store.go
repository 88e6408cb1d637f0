package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-pos/internal/db"
)

// InvoiceStore persists invoices. Create allocates the invoice number.
type InvoiceStore interface {
	Create(ctx context.Context, inv Invoice) (Invoice, error)
	Get(ctx context.Context, storeID, id string) (Invoice, error)
	List(ctx context.Context, storeID string, limit, offset int32) ([]Invoice, int, error)
}

// Pool is the subset of *pgxpool.Pool the invoice store needs.
type Pool interface {
	db.DBTX
	db.TxBeginner
}

const nextInvoiceSeq = `
INSERT INTO invoice_counters (store_id, day, last_seq)
VALUES ($1, $2, 1)
ON CONFLICT (store_id, day) DO UPDATE
SET last_seq = invoice_counters.last_seq + 1
RETURNING last_seq`

const insertInvoice = `
INSERT INTO invoices (
    id, store_id, number, jurisdiction, currency, subtotal, total,
    config_version, lines, breakdown, override, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

const selectInvoiceColumns = `
SELECT id::text, store_id, number, jurisdiction, currency, subtotal::text, total::text,
       config_version, lines, breakdown, override, created_at
FROM invoices`

const getInvoice = selectInvoiceColumns + `
WHERE store_id = $1 AND id = $2`

const listInvoices = selectInvoiceColumns + `
WHERE store_id = $1
ORDER BY created_at DESC, number DESC
LIMIT $2 OFFSET $3`

const countInvoices = `SELECT count(*) FROM invoices WHERE store_id = $1`

// PostgresInvoiceStore keeps invoices in Postgres.
type PostgresInvoiceStore struct {
	DB Pool
}

// Create implements InvoiceStore. The counter bump and the insert share a transaction.
func (s PostgresInvoiceStore) Create(ctx context.Context, inv Invoice) (Invoice, error) {
	lines, err := json.Marshal(inv.Lines)
	if err != nil {
		return Invoice{}, fmt.Errorf("encode lines: %w", err)
	}
	breakdown, err := json.Marshal(inv.Breakdown)
	if err != nil {
		return Invoice{}, fmt.Errorf("encode breakdown: %w", err)
	}
	override, err := json.Marshal(inv.Override)
	if err != nil {
		return Invoice{}, fmt.Errorf("encode override: %w", err)
	}
	day := time.Date(inv.CreatedAt.UTC().Year(), inv.CreatedAt.UTC().Month(), inv.CreatedAt.UTC().Day(), 0, 0, 0, 0, time.UTC)

	err = db.WithTx(ctx, s.DB, func(tx pgx.Tx) error {
		var seq int64
		if err := tx.QueryRow(ctx, nextInvoiceSeq, inv.StoreID, day).Scan(&seq); err != nil {
			return fmt.Errorf("allocate invoice number: %w", err)
		}
		inv.Number = FormatNumber(day, seq)
		_, err := tx.Exec(ctx, insertInvoice,
			inv.ID, inv.StoreID, inv.Number, inv.Jurisdiction, inv.Currency,
			inv.Subtotal.String(), inv.Total.String(), inv.ConfigVersion,
			lines, breakdown, override, inv.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert invoice: %w", err)
		}
		return nil
	})
	if err != nil {
		return Invoice{}, err
	}
	return inv, nil
}

// Get implements InvoiceStore.
func (s PostgresInvoiceStore) Get(ctx context.Context, storeID, id string) (Invoice, error) {
	inv, err := scanInvoice(s.DB.QueryRow(ctx, getInvoice, storeID, id))
	if err != nil {
		if db.IsNoRows(err) {
			return Invoice{}, ErrInvoiceNotFound
		}
		return Invoice{}, fmt.Errorf("get invoice: %w", err)
	}
	return inv, nil
}

// List implements InvoiceStore.
func (s PostgresInvoiceStore) List(ctx context.Context, storeID string, limit, offset int32) ([]Invoice, int, error) {
	var total int
	if err := s.DB.QueryRow(ctx, countInvoices, storeID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count invoices: %w", err)
	}
	rows, err := s.DB.Query(ctx, listInvoices, storeID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list invoices: %w", err)
	}
	invoices, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Invoice, error) {
		return scanInvoice(row)
	})
	if err != nil {
		return nil, 0, fmt.Errorf("scan invoices: %w", err)
	}
	return invoices, total, nil
}

func scanInvoice(row pgx.Row) (Invoice, error) {
	var (
		inv                        Invoice
		subtotal, total            string
		lines, breakdown, override []byte
	)
	err := row.Scan(&inv.ID, &inv.StoreID, &inv.Number, &inv.Jurisdiction, &inv.Currency,
		&subtotal, &total, &inv.ConfigVersion, &lines, &breakdown, &override, &inv.CreatedAt)
	if err != nil {
		return Invoice{}, err
	}
	if inv.Subtotal, err = decimal.NewFromString(subtotal); err != nil {
		return Invoice{}, fmt.Errorf("decode subtotal: %w", err)
	}
	if inv.Total, err = decimal.NewFromString(total); err != nil {
		return Invoice{}, fmt.Errorf("decode total: %w", err)
	}
	if len(lines) > 0 {
		if err := json.Unmarshal(lines, &inv.Lines); err != nil {
			return Invoice{}, fmt.Errorf("decode lines: %w", err)
		}
	}
	if err := json.Unmarshal(breakdown, &inv.Breakdown); err != nil {
		return Invoice{}, fmt.Errorf("decode breakdown: %w", err)
	}
	if len(override) > 0 {
		if err := json.Unmarshal(override, &inv.Override); err != nil {
			return Invoice{}, fmt.Errorf("decode override: %w", err)
		}
	}
	return inv, nil
}
