package sam

import (
	"context"

	"github.com/jackc/puddle/v2"
	"github.com/rs/zerolog"
)

// NewPuddlePool creates a puddle-based connection pool.
// This is the default pool implementation.
func NewPuddlePool(cfg PoolConfig) (Pool, error) {
	p := &puddlePool{logger: cfg.logger()}

	pool, err := puddle.NewPool(&puddle.Config[*Connection]{
		Constructor: func(ctx context.Context) (*Connection, error) {
			conn, err := cfg.Connect(ctx)
			if err != nil {
				p.stats.recordConnectError()
				return nil, err
			}
			p.stats.recordCreate()
			return conn, nil
		},
		Destructor: func(conn *Connection) {
			p.stats.recordDestroy()
			logDestroyed(p.logger, conn)
			_ = conn.Close()
		},
		MaxSize: cfg.MaxSize,
	})
	if err != nil {
		return nil, err
	}
	p.pool = pool
	return p, nil
}

// puddlePool adapts puddle.Pool to Pool. Acquire counts and gauges come
// from puddle; connection lifecycle counts from stats.
type puddlePool struct {
	pool   *puddle.Pool[*Connection]
	logger zerolog.Logger
	stats  poolStatsCollector
}

func (p *puddlePool) Acquire(ctx context.Context) (Resource, error) {
	res, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (p *puddlePool) AcquireAllIdle() []Resource {
	idle := p.pool.AcquireAllIdle()
	resources := make([]Resource, 0, len(idle))
	for _, res := range idle {
		resources = append(resources, res)
	}
	return resources
}

func (p *puddlePool) Close() {
	p.pool.Close()
}

func (p *puddlePool) Stats() PoolStats {
	s := p.pool.Stat()
	stats := p.stats.snapshot()

	stats.TotalConns = s.TotalResources()
	stats.IdleConns = s.IdleResources()
	stats.ActiveConns = s.AcquiredResources()
	stats.AcquireCount = uint64(s.AcquireCount())
	// EmptyAcquireCount includes acquires that constructed a connection.
	stats.AcquireWaitCount = uint64(s.EmptyAcquireCount())
	stats.AcquireWaitTimeNs = uint64(s.EmptyAcquireWaitTime().Nanoseconds())
	stats.AcquireErrors = uint64(s.CanceledAcquireCount())
	return stats
}
