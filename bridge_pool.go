package sam

import (
	"context"

	"github.com/pior/sam/reply"
	"github.com/sony/gobreaker/v2"
)

// bridgePool wraps a pool and a circuit breaker with its bridge address.
type bridgePool struct {
	addr           string
	pool           Pool
	circuitBreaker *CircuitBreaker // nil if not configured
}

// BridgePoolStats contains stats for a single bridge pool
type BridgePoolStats struct {
	Addr                 string
	PoolStats            PoolStats
	CircuitBreakerState  gobreaker.State
	CircuitBreakerCounts gobreaker.Counts
}

func (bp *bridgePool) stats() BridgePoolStats {
	stats := BridgePoolStats{
		Addr:      bp.addr,
		PoolStats: bp.pool.Stats(),
	}
	if bp.circuitBreaker != nil {
		stats.CircuitBreakerState = bp.circuitBreaker.State()
		stats.CircuitBreakerCounts = bp.circuitBreaker.Counts()
	}
	return stats
}

// execute runs a single request-response cycle on a pooled connection,
// wrapped with the bridge's circuit breaker if one is configured.
func (bp *bridgePool) execute(ctx context.Context, req *reply.Request) (*reply.Reply, error) {
	if bp.circuitBreaker == nil {
		return bp.executeDirect(ctx, req)
	}

	return bp.circuitBreaker.Execute(func() (*reply.Reply, error) {
		return bp.executeDirect(ctx, req)
	})
}

// executeDirect acquires a connection, sends the request, and releases or
// destroys the connection depending on the error.
func (bp *bridgePool) executeDirect(ctx context.Context, req *reply.Request) (*reply.Reply, error) {
	resource, err := bp.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	rep, err := resource.Value().Send(ctx, req)
	if err != nil {
		if reply.ShouldCloseConnection(err) {
			resource.Destroy()
		} else {
			resource.Release()
		}
		return nil, err
	}

	resource.Release()
	return rep, nil
}
