package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/backend-pos/internal/health"
)

// ServeOptions controls how Serve drains the server once ctx is cancelled.
type ServeOptions struct {
	// DrainDelay is how long readiness reports draining before the listener closes.
	DrainDelay      time.Duration
	ShutdownTimeout time.Duration
	Logger          zerolog.Logger
}

// Serve runs srv until ctx is cancelled, then flips readiness to draining,
// waits DrainDelay and shuts down within ShutdownTimeout. It returns only once
// in-flight requests have finished or the timeout expired, so callers may
// close shared clients afterwards. A nil ln makes srv listen on srv.Addr.
func Serve(ctx context.Context, srv *http.Server, ln net.Listener, opts ServeOptions) error {
	timeout := opts.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	logger := opts.Logger

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if ln != nil {
			err = srv.Serve(ln)
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		health.SetReady(false)
		if ctx.Err() != nil {
			logger.Info().Dur("drain_delay", opts.DrainDelay).Msg("shutdown requested")
			if opts.DrainDelay > 0 {
				t := time.NewTimer(opts.DrainDelay)
				<-t.C
			}
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		return nil
	})
	return g.Wait()
}
