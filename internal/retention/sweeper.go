// Package retention removes audit rows and invoice counters that have aged
// out. Invoices themselves are never purged.
package retention

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-pos/internal/lock"
	"github.com/noah-isme/backend-pos/internal/obs"
)

// LockKey serialises sweeps across worker replicas.
const LockKey = "lock:retention-sweep"

// Store deletes rows older than a cutoff and reports how many went.
type Store interface {
	PurgeAuditLogs(ctx context.Context, before time.Time) (int64, error)
	PurgeInvoiceCounters(ctx context.Context, before time.Time) (int64, error)
}

// Locker runs fn under an exclusive lease.
type Locker interface {
	TryWithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error
}

// Result summarises one sweep.
type Result struct {
	AuditLogs       int64
	InvoiceCounters int64
	Skipped         bool
}

// Sweeper periodically purges expired rows.
type Sweeper struct {
	Store            Store
	Locker           Locker
	LockTTL          time.Duration
	AuditRetention   time.Duration
	CounterRetention time.Duration
	Interval         time.Duration
	Metrics          *obs.DomainMetrics
	Logger           *zerolog.Logger
	Now              func() time.Time
}

func (s Sweeper) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s Sweeper) logger() *zerolog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	nop := zerolog.Nop()
	return &nop
}

// RunOnce performs a single sweep. When another replica holds the lease the
// sweep is skipped. A zero retention disables that table.
func (s Sweeper) RunOnce(ctx context.Context) (Result, error) {
	if s.Store == nil {
		return Result{}, errors.New("retention: store not configured")
	}
	var res Result
	sweep := func(ctx context.Context) error {
		now := s.now().UTC()
		if s.AuditRetention > 0 {
			n, err := s.Store.PurgeAuditLogs(ctx, now.Add(-s.AuditRetention))
			if err != nil {
				return fmt.Errorf("purge audit logs: %w", err)
			}
			res.AuditLogs = n
			s.Metrics.Purged("audit_logs", n)
		}
		if s.CounterRetention > 0 {
			n, err := s.Store.PurgeInvoiceCounters(ctx, now.Add(-s.CounterRetention))
			if err != nil {
				return fmt.Errorf("purge invoice counters: %w", err)
			}
			res.InvoiceCounters = n
			s.Metrics.Purged("invoice_counters", n)
		}
		return nil
	}

	var err error
	if s.Locker == nil {
		err = sweep(ctx)
	} else {
		err = s.Locker.TryWithLock(ctx, LockKey, s.LockTTL, sweep)
	}
	if errors.Is(err, lock.ErrNotAcquired) {
		return Result{Skipped: true}, nil
	}
	return res, err
}

// Run sweeps immediately and then on every Interval until ctx is done.
func (s Sweeper) Run(ctx context.Context) error {
	interval := s.Interval
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		res, err := s.RunOnce(ctx)
		switch {
		case err != nil && ctx.Err() == nil:
			s.logger().Error().Err(err).Msg("retention sweep failed")
		case res.Skipped:
			s.logger().Debug().Msg("retention sweep held by another worker")
		case err == nil:
			s.logger().Info().
				Int64("audit_logs", res.AuditLogs).
				Int64("invoice_counters", res.InvoiceCounters).
				Msg("retention sweep completed")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
