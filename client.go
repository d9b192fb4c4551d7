package sam

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pior/sam/reply"
	"github.com/rs/zerolog"
)

// Default configuration values.
const (
	DefaultMaxSize       = 4
	DefaultSignatureType = 7 // Ed25519
)

// Resolver resolves names to base64 destinations.
type Resolver interface {
	Lookup(ctx context.Context, name string) (NameLookup, error)
}

// NameLookup is the result of a NAMING LOOKUP.
type NameLookup struct {
	Name        string
	Destination string // base64 destination, empty when not found
	Found       bool
}

// Destination is a generated key pair.
type Destination struct {
	Public  string // base64 public destination, shareable
	Private string // base64 private key, usable as SESSION CREATE DESTINATION
}

// Config holds configuration for the SAM client.
type Config struct {
	// MaxSize is the maximum number of control connections per bridge.
	// Zero means DefaultMaxSize.
	MaxSize int32

	// MaxConnLifetime is the maximum duration a pooled connection is reused.
	// Zero means no limit.
	MaxConnLifetime time.Duration

	// MaxConnIdleTime is the maximum duration a pooled connection can be
	// idle before being closed. Zero means no limit.
	MaxConnIdleTime time.Duration

	// HealthCheckInterval is how often idle connections are checked against
	// the lifetime limits. Zero disables the check.
	HealthCheckInterval time.Duration

	// Dialer is used to connect to bridges. If nil, a zero net.Dialer is used.
	Dialer *net.Dialer

	// MinVersion and MaxVersion bound the HELLO VERSION negotiation.
	// Defaults: reply.MinVersion and reply.MaxVersion.
	MinVersion string
	MaxVersion string

	// Pool creates the per-bridge connection pool. Default: NewPuddlePool.
	Pool PoolFactory

	// SelectBridge picks the bridge for a key. Default: DefaultBridgeSelector.
	SelectBridge BridgeSelector

	// NewCircuitBreaker creates a circuit breaker for a bridge.
	// If nil, no circuit breaker is used.
	NewCircuitBreaker func(bridgeAddr string) *CircuitBreaker

	// Logger receives connection lifecycle events. If nil, nothing is logged.
	Logger *zerolog.Logger

	// for testing purposes only
	dial func(ctx context.Context, addr string) (net.Conn, error)
}

// Client talks to one or more SAM bridges.
//
// Stateless commands (NAMING LOOKUP, DEST GENERATE) run on pooled control
// connections. Sessions and streams use dedicated connections since the
// bridge ties them to their socket.
type Client struct {
	bridges      Bridges
	selectBridge BridgeSelector
	config       Config
	logger       zerolog.Logger

	mu     sync.RWMutex
	pools  map[string]*bridgePool
	closed bool

	stopHealthCheck chan struct{}

	stats *clientStatsCollector
}

var _ Resolver = (*Client)(nil)

// NewClient creates a client for the given bridges.
// For a single bridge, use: NewClient(NewStaticBridges("127.0.0.1:7656"), Config{})
func NewClient(bridges Bridges, config Config) (*Client, error) {
	if len(bridges.List()) == 0 {
		return nil, ErrNoBridges
	}

	if config.MaxSize <= 0 {
		config.MaxSize = DefaultMaxSize
	}
	if config.Dialer == nil {
		config.Dialer = &net.Dialer{}
	}
	if config.MinVersion == "" {
		config.MinVersion = reply.MinVersion
	}
	if config.MaxVersion == "" {
		config.MaxVersion = reply.MaxVersion
	}
	if config.Pool == nil {
		config.Pool = NewPuddlePool
	}
	if config.SelectBridge == nil {
		config.SelectBridge = DefaultBridgeSelector
	}

	logger := zerolog.Nop()
	if config.Logger != nil {
		logger = *config.Logger
	}

	client := &Client{
		bridges:         bridges,
		selectBridge:    config.SelectBridge,
		config:          config,
		logger:          logger,
		pools:           make(map[string]*bridgePool),
		stopHealthCheck: make(chan struct{}),
		stats:           newClientStatsCollector(),
	}

	if config.HealthCheckInterval > 0 {
		go client.healthCheckLoop()
	}

	return client, nil
}

// Close closes all pools. Sessions created by the client are not closed.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true

	if c.config.HealthCheckInterval > 0 {
		close(c.stopHealthCheck)
	}

	for _, bp := range c.pools {
		bp.pool.Close()
	}
}

// selectBridgeForKey picks the bridge address for a key.
func (c *Client) selectBridgeForKey(key string) (string, error) {
	addrs := c.bridges.List()
	if len(addrs) == 0 {
		return "", ErrNoBridges
	}
	return addrs[c.selectBridge(key, len(addrs))], nil
}

// getPoolForKey returns the pool of the bridge for a key, creating it lazily.
func (c *Client) getPoolForKey(key string) (*bridgePool, error) {
	addr, err := c.selectBridgeForKey(key)
	if err != nil {
		return nil, err
	}
	return c.getOrCreatePool(addr)
}

func (c *Client) getOrCreatePool(addr string) (*bridgePool, error) {
	c.mu.RLock()
	bp, exists := c.pools[addr]
	closed := c.closed
	c.mu.RUnlock()
	if closed {
		return nil, ErrClientClosed
	}
	if exists {
		return bp, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrClientClosed
	}
	if bp, exists := c.pools[addr]; exists {
		return bp, nil
	}

	pool, err := c.config.Pool(PoolConfig{
		Addr:    addr,
		MaxSize: c.config.MaxSize,
		Connect: func(ctx context.Context) (*Connection, error) {
			return c.connect(ctx, addr)
		},
		Logger: &c.logger,
	})
	if err != nil {
		return nil, err
	}

	bp = &bridgePool{addr: addr, pool: pool}
	if c.config.NewCircuitBreaker != nil {
		bp.circuitBreaker = c.config.NewCircuitBreaker(addr)
	}
	c.pools[addr] = bp
	return bp, nil
}

// connect dials a bridge and runs the version handshake.
func (c *Client) connect(ctx context.Context, addr string) (*Connection, error) {
	var netConn net.Conn
	var err error
	if c.config.dial != nil {
		netConn, err = c.config.dial(ctx, addr)
	} else {
		netConn, err = c.config.Dialer.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		c.logger.Warn().Err(err).Str("bridge", addr).Msg("dial failed")
		return nil, err
	}

	conn := NewConnection(netConn)
	version, err := conn.Handshake(ctx, c.config.MinVersion, c.config.MaxVersion)
	if err != nil {
		_ = conn.Close()
		c.logger.Warn().Err(err).Str("bridge", addr).Msg("handshake failed")
		return nil, err
	}

	c.logger.Debug().Str("bridge", addr).Str("version", version).Msg("connected")
	return conn, nil
}

// Lookup resolves a name with NAMING LOOKUP.
// A KEY_NOT_FOUND reply returns Found=false and no error.
func (c *Client) Lookup(ctx context.Context, name string) (NameLookup, error) {
	bp, err := c.getPoolForKey(name)
	if err != nil {
		c.stats.recordError()
		return NameLookup{}, err
	}

	rep, err := bp.execute(ctx, reply.NewNamingLookupRequest(name))
	if err != nil {
		c.stats.recordError()
		return NameLookup{}, err
	}

	switch rep.Result() {
	case reply.ResultOK:
		dest, ok := rep.Pairs.Lookup(reply.KeyValue)
		if !ok || dest == "" {
			c.stats.recordError()
			return NameLookup{}, fmt.Errorf("sam: NAMING REPLY for %q has no VALUE", name)
		}
		c.stats.recordLookup(true)
		return NameLookup{Name: name, Destination: dest, Found: true}, nil
	case reply.ResultKeyNotFound:
		c.stats.recordLookup(false)
		return NameLookup{Name: name, Found: false}, nil
	default:
		c.stats.recordError()
		return NameLookup{}, newResultError(rep)
	}
}

// GenerateDestination creates a new key pair with DEST GENERATE.
// A negative sigType lets the bridge choose its default.
func (c *Client) GenerateDestination(ctx context.Context, sigType int) (Destination, error) {
	// Any bridge can generate keys; spread the load.
	bp, err := c.getPoolForKey(uuid.NewString())
	if err != nil {
		c.stats.recordError()
		return Destination{}, err
	}

	rep, err := bp.execute(ctx, reply.NewDestGenerateRequest(sigType))
	if err != nil {
		c.stats.recordError()
		return Destination{}, err
	}

	if !rep.IsOK() {
		c.stats.recordError()
		return Destination{}, newResultError(rep)
	}

	pub, priv := rep.Get(reply.KeyPub), rep.Get(reply.KeyPriv)
	if pub == "" || priv == "" {
		c.stats.recordError()
		return Destination{}, fmt.Errorf("sam: DEST REPLY is missing PUB or PRIV")
	}

	c.stats.recordGenerate()
	return Destination{Public: pub, Private: priv}, nil
}

// Ping dials every bridge and runs the handshake on a fresh connection.
// It returns the negotiated version per bridge and the last error seen.
func (c *Client) Ping(ctx context.Context) (map[string]string, error) {
	versions := make(map[string]string)

	var lastErr error
	for _, addr := range c.bridges.List() {
		conn, err := c.connect(ctx, addr)
		if err != nil {
			lastErr = err
			continue
		}
		versions[addr] = conn.Version()
		_ = conn.Close()
	}
	return versions, lastErr
}

// Stats returns a snapshot of client statistics.
func (c *Client) Stats() ClientStats {
	return c.stats.snapshot()
}

// AllPoolStats returns stats for all bridge pools created so far.
func (c *Client) AllPoolStats() []BridgePoolStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := make([]BridgePoolStats, 0, len(c.pools))
	for _, bp := range c.pools {
		stats = append(stats, bp.stats())
	}
	return stats
}

// healthCheckLoop periodically destroys idle connections past their limits.
func (c *Client) healthCheckLoop() {
	ticker := time.NewTicker(c.config.HealthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopHealthCheck:
			return
		case <-ticker.C:
			c.checkAllPools()
		}
	}
}

func (c *Client) checkAllPools() {
	c.mu.RLock()
	pools := make([]*bridgePool, 0, len(c.pools))
	for _, bp := range c.pools {
		pools = append(pools, bp)
	}
	c.mu.RUnlock()

	for _, bp := range pools {
		c.checkPoolConnections(bp)
	}
}

// checkPoolConnections destroys idle connections that are too old or idle
// for too long. A SAM bridge accepts no second HELLO on a connection, so
// there is no cheap liveness probe; broken connections are caught by
// the next Send.
func (c *Client) checkPoolConnections(bp *bridgePool) {
	now := time.Now()

	for _, res := range bp.pool.AcquireAllIdle() {
		if c.config.MaxConnLifetime > 0 && now.Sub(res.CreationTime()) > c.config.MaxConnLifetime {
			c.logger.Debug().Str("bridge", bp.addr).Msg("destroying connection past max lifetime")
			res.Destroy()
			continue
		}

		if c.config.MaxConnIdleTime > 0 && res.IdleDuration() > c.config.MaxConnIdleTime {
			c.logger.Debug().Str("bridge", bp.addr).Msg("destroying idle connection")
			res.Destroy()
			continue
		}

		res.ReleaseUnused()
	}
}
