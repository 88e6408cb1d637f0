package taxconfig_test

import (
	"context"
	"sync"
	"time"

	"github.com/noah-isme/backend-pos/internal/tax"
	"github.com/noah-isme/backend-pos/internal/taxconfig"
)

type fakeStore struct {
	mu      sync.Mutex
	records map[string]taxconfig.Record
	gets    int
	now     time.Time
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		records: map[string]taxconfig.Record{},
		now:     time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func (f *fakeStore) Get(_ context.Context, storeID string) (taxconfig.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	rec, ok := f.records[storeID]
	if !ok {
		return taxconfig.Record{}, taxconfig.ErrNotFound
	}
	return rec, nil
}

func (f *fakeStore) Upsert(_ context.Context, storeID string, cfg tax.Configuration, expectedVersion int64) (taxconfig.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	current, exists := f.records[storeID]
	if exists && expectedVersion > 0 && current.Version != expectedVersion {
		return taxconfig.Record{}, taxconfig.ErrVersionConflict
	}
	rec := taxconfig.Record{StoreID: storeID, Config: cfg, Version: current.Version + 1, UpdatedAt: f.now}
	f.records[storeID] = rec
	return rec, nil
}
