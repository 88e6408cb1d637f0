package audit

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/noah-isme/backend-pos/internal/db"
)

const insertAuditLog = `
INSERT INTO audit_logs (
    store_id, actor_kind, actor_id, action, resource_type, resource_id,
    method, path, route, status, ip, user_agent, request_id, metadata
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

const listAuditLogs = `
SELECT id, store_id, actor_kind, actor_id, action, resource_type, resource_id,
       method, path, status, metadata, created_at
FROM audit_logs
WHERE store_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2 OFFSET $3`

// PostgresStore writes audit rows through pgx.
type PostgresStore struct {
	DB db.DBTX
}

// InsertAuditLog implements Store.
func (s PostgresStore) InsertAuditLog(ctx context.Context, e Entry) error {
	_, err := s.DB.Exec(ctx, insertAuditLog,
		e.StoreID, e.ActorKind, e.ActorID, e.Action, e.ResourceType, e.ResourceID,
		e.Method, e.Path, e.Route, e.Status, e.IP, e.UserAgent, e.RequestID, e.Metadata,
	)
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

// ListAuditLogs implements Store.
func (s PostgresStore) ListAuditLogs(ctx context.Context, arg ListParams) ([]Log, error) {
	rows, err := s.DB.Query(ctx, listAuditLogs, arg.StoreID, arg.Limit, arg.Offset)
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	logs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Log, error) {
		var (
			l          Log
			actorID    pgtype.Text
			resourceID pgtype.Text
		)
		err := row.Scan(&l.ID, &l.StoreID, &l.ActorKind, &actorID, &l.Action, &l.ResourceType,
			&resourceID, &l.Method, &l.Path, &l.Status, &l.Metadata, &l.CreatedAt)
		if actorID.Valid {
			l.ActorID = &actorID.String
		}
		if resourceID.Valid {
			l.ResourceID = &resourceID.String
		}
		return l, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan audit logs: %w", err)
	}
	return logs, nil
}
