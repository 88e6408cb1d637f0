package app

import (
	"context"
	"fmt"
	"os"

	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-pos/internal/audit"
	"github.com/noah-isme/backend-pos/internal/billing"
	"github.com/noah-isme/backend-pos/internal/health"
	"github.com/noah-isme/backend-pos/internal/obs"
	"github.com/noah-isme/backend-pos/internal/tax"
	"github.com/noah-isme/backend-pos/internal/taxconfig"
)

// Dependencies enumerates the shared clients the HTTP surface is built from.
// The store fields are optional; when nil they are backed by DB.
type Dependencies struct {
	DB          billing.Pool
	Redis       *redis.Client
	Checker     health.Checker
	Metrics     *obs.DomainMetrics
	HTTPMetrics *obs.HTTPMetrics
	Policies    tax.Policies
	Logger      zerolog.Logger

	ConfigStore  taxconfig.Store
	InvoiceStore billing.InvoiceStore
	AuditStore   audit.Store
}

func (d Dependencies) configStore() taxconfig.Store {
	if d.ConfigStore != nil {
		return d.ConfigStore
	}
	return taxconfig.PostgresStore{DB: d.DB}
}

func (d Dependencies) invoiceStore() billing.InvoiceStore {
	if d.InvoiceStore != nil {
		return d.InvoiceStore
	}
	return billing.PostgresInvoiceStore{DB: d.DB}
}

func (d Dependencies) auditStore() audit.Store {
	if d.AuditStore != nil {
		return d.AuditStore
	}
	return audit.PostgresStore{DB: d.DB}
}

// LoadPolicies returns the built-in jurisdiction table extended by the YAML
// file at path. An empty path yields the built-in table.
func LoadPolicies(path string) (tax.Policies, error) {
	policies := tax.DefaultPolicies()
	if path == "" {
		return policies, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open jurisdiction policies: %w", err)
	}
	defer f.Close()

	loaded, err := tax.LoadPolicies(f)
	if err != nil {
		return nil, fmt.Errorf("load jurisdiction policies %s: %w", path, err)
	}
	return policies.Merge(loaded), nil
}

// NewRedis parses url, instruments the client and verifies connectivity.
func NewRedis(ctx context.Context, url string, instrumentMetrics bool, logger zerolog.Logger) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := redisotel.InstrumentTracing(client); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if instrumentMetrics {
		if err := redisotel.InstrumentMetrics(client); err != nil {
			logger.Error().Err(err).Msg("instrument redis metrics")
		}
	}
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}
