package retention

import (
	"context"
	"time"

	"github.com/noah-isme/backend-pos/internal/db"
)

const purgeAuditLogs = `DELETE FROM audit_logs WHERE created_at < $1`

// Counters for past days are never touched again once the day has rolled over.
const purgeInvoiceCounters = `DELETE FROM invoice_counters WHERE day < $1::date`

// PostgresStore deletes expired rows through pgx.
type PostgresStore struct {
	DB db.DBTX
}

// PurgeAuditLogs implements Store.
func (s PostgresStore) PurgeAuditLogs(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.DB.Exec(ctx, purgeAuditLogs, before)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// PurgeInvoiceCounters implements Store.
func (s PostgresStore) PurgeInvoiceCounters(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.DB.Exec(ctx, purgeInvoiceCounters, before.UTC().Format("2006-01-02"))
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
