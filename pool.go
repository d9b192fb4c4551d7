package sam

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Pool holds handshaken control connections to one bridge.
type Pool interface {
	// Acquire returns an idle connection or creates one, waiting when the
	// pool is at its maximum size.
	Acquire(ctx context.Context) (Resource, error)

	// AcquireAllIdle acquires every idle connection, for health checks.
	AcquireAllIdle() []Resource

	// Stats returns a snapshot of pool statistics.
	Stats() PoolStats

	// Close destroys idle connections and waits for acquired ones to be
	// released.
	Close()
}

// Resource is a connection checked out of a Pool.
// Exactly one of Release, ReleaseUnused or Destroy must be called.
type Resource interface {
	Value() *Connection
	Release()
	ReleaseUnused()
	Destroy()
	CreationTime() time.Time
	IdleDuration() time.Duration
}

// PoolConfig describes the pool of one bridge.
type PoolConfig struct {
	// Addr is the bridge address, used in logs.
	Addr string

	// MaxSize is the maximum number of connections.
	MaxSize int32

	// Connect dials the bridge and runs the handshake.
	Connect func(ctx context.Context) (*Connection, error)

	// Logger receives pool events. If nil, nothing is logged.
	Logger *zerolog.Logger
}

func (cfg PoolConfig) logger() zerolog.Logger {
	if cfg.Logger == nil {
		return zerolog.Nop()
	}
	return cfg.Logger.With().Str("bridge", cfg.Addr).Logger()
}

// PoolFactory creates the pool of one bridge.
type PoolFactory func(cfg PoolConfig) (Pool, error)

// logDestroyed logs a pooled connection being closed.
func logDestroyed(logger zerolog.Logger, conn *Connection) {
	logger.Debug().
		Str("version", conn.Version()).
		Dur("age", time.Since(conn.createdAt)).
		Msg("pooled connection destroyed")
}
