package server

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// RelationalPool returns the shared pgx pool. The pool exists for the whole
// life of a started Server, so this never fails.
func (s *Server) RelationalPool() *pgxpool.Pool {
	return s.DB.Pool
}

// CachePool borrows one Redis connection. Failures are always registry
// conditions (service unavailable on timeout or a closed pool); the caller
// must Close the connection to return it.
func (s *Server) CachePool(ctx context.Context) (*redis.Conn, error) {
	return s.Cache.Checkout(ctx)
}
