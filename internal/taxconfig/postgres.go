package taxconfig

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/noah-isme/backend-pos/internal/db"
	"github.com/noah-isme/backend-pos/internal/tax"
)

const getStoreTaxConfig = `
SELECT store_id, config, version, updated_at
FROM store_tax_configs
WHERE store_id = $1`

const upsertStoreTaxConfig = `
INSERT INTO store_tax_configs (store_id, country, config, version, updated_at)
VALUES ($1, $2, $3, 1, now())
ON CONFLICT (store_id) DO UPDATE
SET country = EXCLUDED.country,
    config = EXCLUDED.config,
    version = store_tax_configs.version + 1,
    updated_at = now()
WHERE $4::bigint = 0 OR store_tax_configs.version = $4::bigint
RETURNING version, updated_at`

// PostgresStore keeps configurations in the store_tax_configs table.
type PostgresStore struct {
	DB db.DBTX
}

// Get implements Store.
func (s PostgresStore) Get(ctx context.Context, storeID string) (Record, error) {
	var (
		rec Record
		raw []byte
	)
	err := s.DB.QueryRow(ctx, getStoreTaxConfig, storeID).Scan(&rec.StoreID, &raw, &rec.Version, &rec.UpdatedAt)
	if err != nil {
		if db.IsNoRows(err) {
			return Record{}, ErrNotFound
		}
		return Record{}, fmt.Errorf("get tax config: %w", err)
	}
	if err := json.Unmarshal(raw, &rec.Config); err != nil {
		return Record{}, fmt.Errorf("decode tax config: %w", err)
	}
	return rec, nil
}

// Upsert implements Store.
func (s PostgresStore) Upsert(ctx context.Context, storeID string, cfg tax.Configuration, expectedVersion int64) (Record, error) {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return Record{}, fmt.Errorf("encode tax config: %w", err)
	}
	rec := Record{StoreID: storeID, Config: cfg}
	country := strings.ToUpper(strings.TrimSpace(cfg.Country))
	err = s.DB.QueryRow(ctx, upsertStoreTaxConfig, storeID, country, raw, expectedVersion).Scan(&rec.Version, &rec.UpdatedAt)
	if err != nil {
		// the conditional update matched no row
		if db.IsNoRows(err) {
			return Record{}, ErrVersionConflict
		}
		return Record{}, fmt.Errorf("upsert tax config: %w", err)
	}
	return rec, nil
}
