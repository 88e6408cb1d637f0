package taxconfig

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-pos/internal/common"
	"github.com/noah-isme/backend-pos/internal/obs"
	"github.com/noah-isme/backend-pos/internal/resilience"
	"github.com/noah-isme/backend-pos/internal/tax"
)

// Service reads and replaces store tax configurations.
type Service struct {
	store   Store
	cache   *Cache
	metrics *obs.DomainMetrics
	logger  zerolog.Logger
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Store   Store
	Cache   *Cache
	Metrics *obs.DomainMetrics
	Logger  *zerolog.Logger
}

// NewService constructs a Service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Store == nil {
		return nil, errors.New("taxconfig: store is required")
	}
	logger := obs.NopLogger()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}
	return &Service{store: cfg.Store, cache: cfg.Cache, metrics: cfg.Metrics, logger: logger}, nil
}

// Get returns the configuration for storeID, preferring the cache.
func (s *Service) Get(ctx context.Context, storeID string) (Record, error) {
	rec, ok, err := s.cache.Get(ctx, storeID)
	switch {
	case errors.Is(err, resilience.ErrOpenCircuit):
		s.metrics.CacheLookup("bypass")
	case err != nil:
		s.metrics.CacheLookup("error")
		s.logger.Warn().Err(err).Str("store_id", storeID).Msg("tax config cache read failed")
	case ok:
		s.metrics.CacheLookup("hit")
		return rec, nil
	default:
		s.metrics.CacheLookup("miss")
	}

	rec, err = s.store.Get(ctx, storeID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Record{}, common.NotFound("tax configuration not found", err)
		}
		return Record{}, err
	}
	if err := s.cache.Set(ctx, rec); err != nil && !errors.Is(err, resilience.ErrOpenCircuit) {
		s.logger.Warn().Err(err).Str("store_id", storeID).Msg("tax config cache write failed")
	}
	return rec, nil
}

// Put validates cfg and replaces the stored configuration.
func (s *Service) Put(ctx context.Context, storeID string, cfg tax.Configuration, expectedVersion int64) (Record, error) {
	cfg.Country = strings.ToUpper(strings.TrimSpace(cfg.Country))
	if err := tax.ValidateConfiguration(cfg); err != nil {
		return Record{}, err
	}
	rec, err := s.store.Upsert(ctx, storeID, cfg, expectedVersion)
	if err != nil {
		if errors.Is(err, ErrVersionConflict) {
			appErr := common.Conflict("VERSION_CONFLICT", "tax configuration was modified concurrently", err)
			appErr.Details = map[string]any{"expectedVersion": expectedVersion}
			return Record{}, appErr
		}
		return Record{}, err
	}
	if err := s.cache.Refresh(ctx, rec); err != nil {
		s.logger.Warn().Err(err).Str("store_id", storeID).Msg("tax config cache refresh failed")
		if err := s.cache.Delete(ctx, storeID); err != nil {
			s.logger.Warn().Err(err).Str("store_id", storeID).Msg("tax config cache invalidation failed")
		}
	}
	s.metrics.ConfigUpdated()
	s.logger.Info().
		Str("store_id", storeID).
		Str("country", cfg.Country).
		Int64("version", rec.Version).
		Msg("tax config updated")
	return rec, nil
}
