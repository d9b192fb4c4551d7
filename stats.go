package sam

import (
	"sync/atomic"
	"time"
)

// PoolStats contains statistics about a connection pool.
//
// For Prometheus integration, expose these as:
//   - Gauges: TotalConns, IdleConns, ActiveConns
//   - Counters: AcquireCount, AcquireWaitCount, CreatedConns, DestroyedConns, AcquireErrors, ConnectErrors
type PoolStats struct {
	AcquireCount      uint64 // Total acquire attempts
	AcquireWaitCount  uint64 // Acquires that had to wait
	CreatedConns      uint64 // Total connections created (dialed and handshaken)
	DestroyedConns    uint64 // Total connections destroyed
	AcquireErrors     uint64 // Canceled acquire attempts
	ConnectErrors     uint64 // Failed dials or handshakes
	AcquireWaitTimeNs uint64 // Total nanoseconds spent waiting

	TotalConns  int32 // Total connections in pool (active + idle)
	IdleConns   int32 // Idle connections available
	ActiveConns int32 // Connections currently in use
}

// poolStatsCollector counts pool events atomically.
// Connection gauges are computed by each pool.
type poolStatsCollector struct {
	acquireCount      atomic.Uint64
	acquireWaitCount  atomic.Uint64
	acquireWaitTimeNs atomic.Uint64
	acquireErrors     atomic.Uint64
	createdConns      atomic.Uint64
	destroyedConns    atomic.Uint64
	connectErrors     atomic.Uint64
}

func (s *poolStatsCollector) recordAcquire() {
	s.acquireCount.Add(1)
}

func (s *poolStatsCollector) recordAcquireWait(d time.Duration) {
	s.acquireWaitCount.Add(1)
	s.acquireWaitTimeNs.Add(uint64(d.Nanoseconds()))
}

func (s *poolStatsCollector) recordAcquireError() {
	s.acquireErrors.Add(1)
}

func (s *poolStatsCollector) recordConnectError() {
	s.connectErrors.Add(1)
}

func (s *poolStatsCollector) recordCreate() {
	s.createdConns.Add(1)
}

func (s *poolStatsCollector) recordDestroy() {
	s.destroyedConns.Add(1)
}

func (s *poolStatsCollector) snapshot() PoolStats {
	return PoolStats{
		AcquireCount:      s.acquireCount.Load(),
		AcquireWaitCount:  s.acquireWaitCount.Load(),
		AcquireWaitTimeNs: s.acquireWaitTimeNs.Load(),
		AcquireErrors:     s.acquireErrors.Load(),
		CreatedConns:      s.createdConns.Load(),
		DestroyedConns:    s.destroyedConns.Load(),
		ConnectErrors:     s.connectErrors.Load(),
	}
}

// ClientStats contains statistics about client operations.
//
// For Prometheus integration, expose these as counters; the lookup hit rate
// is LookupHits/Lookups.
type ClientStats struct {
	Lookups    uint64 // NAMING LOOKUP operations
	LookupHits uint64 // Lookups that resolved to a destination
	Generates  uint64 // DEST GENERATE operations
	Sessions   uint64 // Sessions created
	Streams    uint64 // Streams connected or accepted
	Errors     uint64 // Failed operations of any kind
}

// clientStatsCollector updates ClientStats atomically.
// Not exported - the client updates its own stats.
type clientStatsCollector struct {
	lookups    atomic.Uint64
	lookupHits atomic.Uint64
	generates  atomic.Uint64
	sessions   atomic.Uint64
	streams    atomic.Uint64
	errors     atomic.Uint64
}

func newClientStatsCollector() *clientStatsCollector {
	return &clientStatsCollector{}
}

func (c *clientStatsCollector) recordLookup(found bool) {
	c.lookups.Add(1)
	if found {
		c.lookupHits.Add(1)
	}
}

func (c *clientStatsCollector) recordGenerate() {
	c.generates.Add(1)
}

func (c *clientStatsCollector) recordSession() {
	c.sessions.Add(1)
}

func (c *clientStatsCollector) recordStream() {
	c.streams.Add(1)
}

func (c *clientStatsCollector) recordError() {
	c.errors.Add(1)
}

func (c *clientStatsCollector) snapshot() ClientStats {
	return ClientStats{
		Lookups:    c.lookups.Load(),
		LookupHits: c.lookupHits.Load(),
		Generates:  c.generates.Load(),
		Sessions:   c.sessions.Load(),
		Streams:    c.streams.Load(),
		Errors:     c.errors.Load(),
	}
}
