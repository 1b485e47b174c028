// Package pool holds the checkout logic shared by the relational and cache
// pools: a hard acquire deadline, slow-acquire logging and translation of
// acquisition failures into the error registry.
package pool

import (
	"context"
	"time"

	"github.com/deppfellow/restcore/internal/errs"
	"github.com/deppfellow/restcore/internal/sqlerr"
	"github.com/rs/zerolog"
)

// Options describes how a pool's checkouts are bounded and reported.
type Options struct {
	// Name labels log lines ("relational", "cache").
	Name string

	// AcquireTimeout is the hard upper bound on waiting for a connection.
	// Zero leaves the bound to the caller's context.
	AcquireTimeout time.Duration

	// SlowThreshold marks acquisitions that took longer as slow. Zero
	// disables slow-acquire logging.
	SlowThreshold time.Duration

	SlowLevel    zerolog.Level
	TimeoutLevel zerolog.Level
}

// AcquireFunc borrows one connection from a native pool. It must honour ctx.
type AcquireFunc[C any] func(ctx context.Context) (C, error)

// Checkout borrows a connection through acquire within opts.AcquireTimeout.
//
// Failure mapping:
//   - the acquire deadline passed, or the caller gave up: errs.ErrDbPoolTimeout
//   - everything else: sqlerr.Translate (pool closed, I/O, ...)
//
// The returned error is always an errs.Condition. A slow but successful
// acquisition is logged at opts.SlowLevel and does not fail the call.
func Checkout[C any](ctx context.Context, opts Options, acquire AcquireFunc[C]) (C, error) {
	log := zerolog.Ctx(ctx)

	acquireCtx := ctx
	if opts.AcquireTimeout > 0 {
		var cancel context.CancelFunc
		acquireCtx, cancel = context.WithTimeout(ctx, opts.AcquireTimeout)
		defer cancel()
	}

	start := time.Now()
	conn, err := acquire(acquireCtx)
	elapsed := time.Since(start)

	if err != nil {
		var zero C

		if acquireCtx.Err() != nil {
			reason := "acquire timeout"
			if ctx.Err() != nil {
				reason = "caller canceled"
			}
			log.WithLevel(opts.TimeoutLevel).
				Err(err).
				Str("pool", opts.Name).
				Str("reason", reason).
				Dur("waited", elapsed).
				Dur("acquire_timeout", opts.AcquireTimeout).
				Msg("connection checkout abandoned")
			return zero, errs.ErrDbPoolTimeout
		}

		return zero, sqlerr.Translate(ctx, err)
	}

	if opts.SlowThreshold > 0 && elapsed > opts.SlowThreshold {
		log.WithLevel(opts.SlowLevel).
			Str("pool", opts.Name).
			Dur("waited", elapsed).
			Dur("slow_threshold", opts.SlowThreshold).
			Msg("slow connection checkout")
	}

	return conn, nil
}
