package sam

import (
	"context"
	"sync"
	"time"

	"github.com/pior/sam/internal/coarsetime"
	"github.com/rs/zerolog"
)

// NewChannelPool creates a channel-based connection pool.
// This is an alternative to NewPuddlePool with no background goroutines.
func NewChannelPool(cfg PoolConfig) (Pool, error) {
	return &channelPool{
		connect: cfg.Connect,
		logger:  cfg.logger(),
		idle:    make(chan *channelResource, cfg.MaxSize),
		slots:   make(chan struct{}, cfg.MaxSize),
	}, nil
}

// channelResource implements Resource for channel pool.
type channelResource struct {
	conn         *Connection
	pool         *channelPool
	creationTime time.Time
	lastUsedTime time.Time
}

func (r *channelResource) Value() *Connection {
	return r.conn
}

func (r *channelResource) Release() {
	r.lastUsedTime = coarsetime.Now()
	r.pool.put(r)
}

func (r *channelResource) ReleaseUnused() {
	// Health checks don't count as use
	r.pool.put(r)
}

func (r *channelResource) Destroy() {
	r.pool.destroy(r)
}

func (r *channelResource) CreationTime() time.Time {
	return r.creationTime
}

func (r *channelResource) IdleDuration() time.Duration {
	return coarsetime.Since(r.lastUsedTime)
}

// channelPool holds one token in slots per live connection; idle
// connections wait in idle. Both channels have capacity maxSize.
type channelPool struct {
	connect func(ctx context.Context) (*Connection, error)
	logger  zerolog.Logger

	idle  chan *channelResource
	slots chan struct{}

	mu     sync.Mutex // guards closed and sends on idle
	closed bool

	stats poolStatsCollector
}

func (p *channelPool) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *channelPool) Acquire(ctx context.Context) (Resource, error) {
	p.stats.recordAcquire()

	if p.isClosed() {
		p.stats.recordAcquireError()
		return nil, ErrPoolClosed
	}

	// Idle connections always win over dialing.
	select {
	case res := <-p.idle:
		return res, nil
	default:
	}

	select {
	case p.slots <- struct{}{}:
		return p.createOrReuse(ctx)
	default:
	}

	waitStart := coarsetime.Now()
	select {
	case res := <-p.idle:
		p.stats.recordAcquireWait(coarsetime.Since(waitStart))
		return res, nil
	case p.slots <- struct{}{}:
		p.stats.recordAcquireWait(coarsetime.Since(waitStart))
		return p.createOrReuse(ctx)
	case <-ctx.Done():
		p.stats.recordAcquireError()
		return nil, ctx.Err()
	}
}

// createOrReuse is called holding a new slot. A connection released in the
// meantime is taken instead and the slot given back.
func (p *channelPool) createOrReuse(ctx context.Context) (Resource, error) {
	select {
	case res := <-p.idle:
		<-p.slots
		return res, nil
	default:
		return p.create(ctx)
	}
}

// create dials a connection for a slot already taken.
func (p *channelPool) create(ctx context.Context) (Resource, error) {
	conn, err := p.connect(ctx)
	if err != nil {
		<-p.slots
		p.stats.recordConnectError()
		return nil, err
	}
	p.stats.recordCreate()

	now := coarsetime.Now()
	return &channelResource{
		conn:         conn,
		pool:         p,
		creationTime: now,
		lastUsedTime: now,
	}, nil
}

func (p *channelPool) put(res *channelResource) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.destroy(res)
		return
	}
	// Never blocks: there are at most maxSize live connections.
	p.idle <- res
	p.mu.Unlock()
}

func (p *channelPool) destroy(res *channelResource) {
	_ = res.conn.Close()
	<-p.slots
	p.stats.recordDestroy()
	logDestroyed(p.logger, res.conn)
}

func (p *channelPool) AcquireAllIdle() []Resource {
	var idle []Resource
	for {
		select {
		case res := <-p.idle:
			idle = append(idle, res)
		default:
			return idle
		}
	}
}

// Close destroys idle connections. Acquired connections are destroyed when
// released.
func (p *channelPool) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	for _, res := range p.AcquireAllIdle() {
		p.destroy(res.(*channelResource))
	}
}

func (p *channelPool) Stats() PoolStats {
	stats := p.stats.snapshot()
	stats.TotalConns = int32(len(p.slots))
	stats.IdleConns = int32(len(p.idle))
	stats.ActiveConns = stats.TotalConns - stats.IdleConns
	return stats
}
