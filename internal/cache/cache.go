// Package cache owns the Redis connection pool.
//
// go-redis manages its own pool; this package bounds checkouts from it,
// speaks the error registry on failure and stores values as msgpack.
package cache

import (
	"context"
	"errors"
	"runtime/debug"
	"time"

	"github.com/deppfellow/restcore/internal/config"
	"github.com/deppfellow/restcore/internal/errs"
	loggerConfig "github.com/deppfellow/restcore/internal/logger"
	"github.com/deppfellow/restcore/internal/pool"
	"github.com/deppfellow/restcore/internal/sqlerr"
	"github.com/newrelic/go-agent/v3/integrations/nrredis-v9"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

const poolName = "cache"

// poolTimeoutMargin keeps go-redis's own wait limit behind the checkout
// deadline, so the context fires first and the outcome does not depend on
// which of the two timers wins.
const poolTimeoutMargin = time.Second

// Cache wraps the Redis client and its pool.
type Cache struct {
	Client   *redis.Client
	log      *zerolog.Logger
	checkout pool.Options
}

// parseOptions validates cfg and turns it into client options. Rejections
// name the field only; the URL may carry a password.
func parseOptions(cfg config.RedisConfig) (*redis.Options, error) {
	invalid := func(field, reason string) error {
		return &sqlerr.ConfigError{Pool: poolName, Field: field, Reason: reason}
	}

	switch {
	case cfg.URL == "":
		return nil, invalid("url", "must not be empty")
	case cfg.MaxSize < 1:
		return nil, invalid("max_size", "must be at least 1")
	case cfg.MinIdle < 0:
		return nil, invalid("min_idle", "must not be negative")
	case cfg.MinIdle > cfg.MaxSize:
		return nil, invalid("min_idle", "must not exceed max_size")
	case cfg.LifetimeSecs < 0:
		return nil, invalid("lifetime_secs", "must not be negative")
	case cfg.AcquireTimeoutMills < 0:
		return nil, invalid("acquire_timeout_mills", "must not be negative")
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, invalid("url", "is not a valid redis url")
	}

	opts.PoolSize = cfg.MaxSize
	opts.MinIdleConns = cfg.MinIdle
	if cfg.LifetimeSecs > 0 {
		opts.ConnMaxLifetime = cfg.Lifetime()
	}
	if cfg.AcquireTimeout() > 0 {
		opts.PoolTimeout = cfg.AcquireTimeout() + poolTimeoutMargin
	}

	return opts, nil
}

// New validates cfg, creates the client and pings it once. Like the
// relational pool it does not retry, and a failure should abort startup.
func New(
	ctx context.Context,
	cfg config.RedisConfig,
	logger *zerolog.Logger,
	loggerService *loggerConfig.LoggerService,
) (*Cache, error) {
	ctx = logger.WithContext(ctx)

	opts, err := parseOptions(cfg)
	if err != nil {
		return nil, sqlerr.TranslateErr(ctx, err)
	}

	client := redis.NewClient(opts)

	if loggerService != nil && loggerService.GetApplication() != nil {
		client.AddHook(nrredis.NewHook(client.Options()))
	}

	c := &Cache{
		Client: client,
		log:    logger,
		checkout: pool.Options{
			Name:           poolName,
			AcquireTimeout: cfg.AcquireTimeout(),
			SlowLevel:      zerolog.InfoLevel,
			TimeoutLevel:   zerolog.WarnLevel,
		},
	}

	if err := c.Ping(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}

	logger.Info().Object("redis", cfg).Msg("connected to redis")

	return c, nil
}

// Checkout borrows one pooled connection within the acquire timeout. The
// connection stays out of the pool until it is closed.
func (c *Cache) Checkout(ctx context.Context) (*redis.Conn, error) {
	return pool.Checkout(ctx, c.checkout, func(ctx context.Context) (*redis.Conn, error) {
		// Conn is lazy; the first command is what takes a slot from the pool.
		conn := c.Client.Conn()
		if err := conn.Ping(ctx).Err(); err != nil {
			_ = conn.Close()
			return nil, err
		}
		return conn, nil
	})
}

// WithConn runs fn on a borrowed connection and returns it to the pool on
// every path. A panic in fn surfaces as db_worker_crashed.
func (c *Cache) WithConn(ctx context.Context, fn func(ctx context.Context, conn *redis.Conn) error) (err error) {
	conn, err := c.Checkout(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

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

// Ping checks that a connection can be borrowed and used.
func (c *Cache) Ping(ctx context.Context) error {
	return c.WithConn(ctx, func(context.Context, *redis.Conn) error {
		return nil
	})
}

// GetObject decodes the msgpack value at key into v. A missing key reports
// false with a nil error.
func (c *Cache) GetObject(ctx context.Context, key string, v any) (bool, error) {
	found := false
	err := c.WithConn(ctx, func(ctx context.Context, conn *redis.Conn) error {
		raw, err := conn.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := msgpack.Unmarshal(raw, v); err != nil {
			return sqlerr.Mark(sqlerr.KindDecode, err)
		}
		found = true
		return nil
	})
	return found, err
}

// SetObject stores v at key as msgpack. A zero ttl keeps the key forever.
func (c *Cache) SetObject(ctx context.Context, key string, v any, ttl time.Duration) error {
	raw, err := msgpack.Marshal(v)
	if err != nil {
		return sqlerr.TranslateErr(ctx, sqlerr.Mark(sqlerr.KindEncode, err))
	}

	return c.WithConn(ctx, func(ctx context.Context, conn *redis.Conn) error {
		return conn.Set(ctx, key, raw, ttl).Err()
	})
}

func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.WithConn(ctx, func(ctx context.Context, conn *redis.Conn) error {
		return conn.Del(ctx, keys...).Err()
	})
}

// Close closes the client and its pool. Later checkouts fail with
// db_pool_closed.
func (c *Cache) Close() error {
	c.log.Info().Msg("closing redis connection pool")
	return c.Client.Close()
}
