// Package database owns the relational connection pool.
//
// It handles:
//   - validating the pool configuration before anything is dialed
//   - creating a pgx connection pool (pgxpool)
//   - wiring query tracing/logging (pgx tracelog, New Relic nrpgx5)
//   - bounded checkouts that fail with registry conditions, never driver errors
package database

import (
	"context"
	"math"
	"runtime/debug"

	"github.com/deppfellow/restcore/internal/config"
	"github.com/deppfellow/restcore/internal/errs"
	loggerConfig "github.com/deppfellow/restcore/internal/logger"
	"github.com/deppfellow/restcore/internal/pool"
	"github.com/deppfellow/restcore/internal/sqlerr"
	pgxzero "github.com/jackc/pgx-zerolog"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/tracelog"
	"github.com/newrelic/go-agent/v3/integrations/nrpgx5"
	"github.com/rs/zerolog"
)

const poolName = "relational"

// Database wraps the pgx connection pool.
//
// Pool is shared by every request; it is the only synchronization point.
// Callers that need the registry's failure vocabulary go through Acquire,
// WithConn or WithTx rather than Pool directly.
type Database struct {
	Pool     *pgxpool.Pool
	log      *zerolog.Logger
	checkout pool.Options
}

// multiTracer lets the New Relic tracer and the local SQL logger share the
// single Tracer slot pgx offers.
type multiTracer struct {
	tracers []any
}

func (mt *multiTracer) TraceQueryStart(ctx context.Context, conn *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	for _, tracer := range mt.tracers {
		if t, ok := tracer.(interface {
			TraceQueryStart(context.Context, *pgx.Conn, pgx.TraceQueryStartData) context.Context
		}); ok {
			ctx = t.TraceQueryStart(ctx, conn, data)
		}
	}
	return ctx
}

func (mt *multiTracer) TraceQueryEnd(ctx context.Context, conn *pgx.Conn, data pgx.TraceQueryEndData) {
	for _, tracer := range mt.tracers {
		if t, ok := tracer.(interface {
			TraceQueryEnd(context.Context, *pgx.Conn, pgx.TraceQueryEndData)
		}); ok {
			t.TraceQueryEnd(ctx, conn, data)
		}
	}
}

// parseConfig validates cfg and turns it into a pgxpool config.
//
// Every rejection is a *sqlerr.ConfigError naming the field only: the DSN
// carries credentials, so neither it nor the parser's message is kept.
func parseConfig(cfg config.DatabaseConfig) (*pgxpool.Config, error) {
	invalid := func(field, reason string) error {
		return &sqlerr.ConfigError{Pool: poolName, Field: field, Reason: reason}
	}

	switch {
	case cfg.DSN == "":
		return nil, invalid("dsn", "must not be empty")
	case cfg.MaxConnections < 1:
		return nil, invalid("max_connections", "must be at least 1")
	case cfg.MaxConnections > math.MaxInt32:
		return nil, invalid("max_connections", "is out of range")
	case cfg.LifetimeSec < 0:
		return nil, invalid("lifetime_sec", "must not be negative")
	case cfg.IdleSec < 0:
		return nil, invalid("idle_sec", "must not be negative")
	case cfg.AcquireTimeoutSec < 0:
		return nil, invalid("acquire_timeout_sec", "must not be negative")
	case cfg.SlowThresholdMills < 0:
		return nil, invalid("slow_threshold_mills", "must not be negative")
	}

	pgxPoolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, invalid("dsn", "is not a valid connection string")
	}

	pgxPoolConfig.MaxConns = int32(cfg.MaxConnections)
	if cfg.LifetimeSec > 0 {
		pgxPoolConfig.MaxConnLifetime = cfg.Lifetime()
	}
	if cfg.IdleSec > 0 {
		pgxPoolConfig.MaxConnIdleTime = cfg.IdleTimeout()
	}

	return pgxPoolConfig, nil
}

// New validates cfg, creates the pool and pings it once.
//
// There is no retry. Any failure is returned as a registry condition
// (db_configuration for a rejected config) and is meant to abort startup.
func New(
	ctx context.Context,
	cfg config.DatabaseConfig,
	env string,
	logger *zerolog.Logger,
	loggerService *loggerConfig.LoggerService,
) (*Database, error) {
	ctx = logger.WithContext(ctx)

	pgxPoolConfig, err := parseConfig(cfg)
	if err != nil {
		return nil, sqlerr.TranslateErr(ctx, err)
	}

	if loggerService != nil && loggerService.GetApplication() != nil {
		pgxPoolConfig.ConnConfig.Tracer = nrpgx5.NewTracer()
	}

	// SQL query logging is noisy, so it only runs locally.
	if env == "local" {
		globalLevel := logger.GetLevel()
		localTracer := &tracelog.TraceLog{
			Logger:   pgxzero.NewLogger(loggerConfig.NewPgxLogger(globalLevel)),
			LogLevel: tracelog.LogLevel(loggerConfig.GetPgxTraceLogLevel(globalLevel)),
		}

		if pgxPoolConfig.ConnConfig.Tracer != nil {
			pgxPoolConfig.ConnConfig.Tracer = &multiTracer{
				tracers: []any{pgxPoolConfig.ConnConfig.Tracer, localTracer},
			}
		} else {
			pgxPoolConfig.ConnConfig.Tracer = localTracer
		}
	}

	pgxPool, err := pgxpool.NewWithConfig(ctx, pgxPoolConfig)
	if err != nil {
		return nil, sqlerr.TranslateErr(ctx, err)
	}

	database := &Database{
		Pool: pgxPool,
		log:  logger,
		checkout: pool.Options{
			Name:           poolName,
			AcquireTimeout: cfg.AcquireTimeout(),
			SlowThreshold:  cfg.SlowThreshold(),
			SlowLevel:      loggerConfig.ParseLevel(cfg.SlowLevel, zerolog.InfoLevel),
			TimeoutLevel:   loggerConfig.ParseLevel(cfg.TimeoutLevel, zerolog.WarnLevel),
		},
	}

	// Fail fast if the database is down. The ping borrows a connection, so it
	// is bounded like any other checkout.
	if err := database.Ping(ctx); err != nil {
		pgxPool.Close()
		return nil, err
	}

	logger.Info().Object("database", cfg).Msg("connected to the database")

	return database, nil
}

// Acquire borrows a connection within the configured acquire timeout.
// The caller must Release it; WithConn does that on every path.
func (db *Database) Acquire(ctx context.Context) (*pgxpool.Conn, error) {
	return pool.Checkout(ctx, db.checkout, db.Pool.Acquire)
}

// WithConn runs fn on a borrowed connection and releases it afterwards, even
// when fn panics. A panic surfaces as db_worker_crashed; any other failure
// from fn is translated once.
func (db *Database) WithConn(ctx context.Context, fn func(ctx context.Context, conn *pgxpool.Conn) error) (err error) {
	conn, err := db.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	defer func() {
		if r := recover(); r != nil {
			zerolog.Ctx(ctx).Error().
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Str("pool", poolName).
				Msg("panic while holding a connection")
			err = errs.ErrDbWorkerCrashed
		}
	}()

	return sqlerr.TranslateErr(ctx, fn(ctx, conn))
}

// WithTx runs fn inside a transaction. The transaction commits when fn
// returns nil and rolls back otherwise.
func (db *Database) WithTx(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	return db.WithConn(ctx, func(ctx context.Context, conn *pgxpool.Conn) error {
		tx, err := conn.Begin(ctx)
		if err != nil {
			return sqlerr.Mark(sqlerr.KindBeginFailed, err)
		}
		// A no-op after Commit. Detached from ctx so a canceled request still
		// rolls back instead of leaving the connection mid-transaction.
		defer func() { _ = tx.Rollback(context.WithoutCancel(ctx)) }()

		if err := fn(ctx, tx); err != nil {
			return err
		}
		return tx.Commit(ctx)
	})
}

// Ping checks that a connection can be borrowed and used.
func (db *Database) Ping(ctx context.Context) error {
	return db.WithConn(ctx, func(ctx context.Context, conn *pgxpool.Conn) error {
		return conn.Ping(ctx)
	})
}

// Close closes the pool. Later checkouts fail with db_pool_closed.
func (db *Database) Close() error {
	db.log.Info().Msg("closing database connection pool")
	db.Pool.Close()
	return nil
}
