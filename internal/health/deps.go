package health

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	redis "github.com/redis/go-redis/v9"
)

// Deps probes the Postgres pool and Redis client used for tax configuration
// and invoices. Either may be nil when the API runs without it.
type Deps struct {
	Pool  *pgxpool.Pool
	Redis *redis.Client
}

// ErrNotConfigured is returned by a probe whose client is absent. Ready reports
// such a dependency as skipped instead of failing.
var ErrNotConfigured = errors.New("not configured")

// PingDB implements Checker.
func (d Deps) PingDB(ctx context.Context, timeout time.Duration) error {
	if d.Pool == nil {
		return ErrNotConfigured
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return d.Pool.Ping(ctx)
}

// PingRedis implements Checker.
func (d Deps) PingRedis(ctx context.Context, timeout time.Duration) error {
	if d.Redis == nil {
		return ErrNotConfigured
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return d.Redis.Ping(ctx).Err()
}
