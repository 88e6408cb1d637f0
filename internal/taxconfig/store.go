// Package taxconfig persists each store's tax configuration and serves it
// through a Redis read-through cache.
package taxconfig

import (
	"context"
	"errors"
	"time"

	"github.com/noah-isme/backend-pos/internal/tax"
)

var (
	// ErrNotFound is returned when a store has no tax configuration yet.
	ErrNotFound = errors.New("taxconfig: not found")
	// ErrVersionConflict is returned when an update names a stale version.
	ErrVersionConflict = errors.New("taxconfig: version conflict")
)

// Record is a stored configuration together with its revision metadata.
type Record struct {
	StoreID   string            `json:"storeId"`
	Config    tax.Configuration `json:"config"`
	Version   int64             `json:"version"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// Store is the persistence contract for store tax configurations.
type Store interface {
	Get(ctx context.Context, storeID string) (Record, error)
	// Upsert writes cfg and bumps the version. A positive expectedVersion
	// makes the write conditional on the current version.
	Upsert(ctx context.Context, storeID string, cfg tax.Configuration, expectedVersion int64) (Record, error)
}
