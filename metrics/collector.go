package metrics

import (
	"github.com/pior/sam"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker/v2"
)

// Source is the part of *sam.Client the collector reads on each scrape.
type Source interface {
	Stats() sam.ClientStats
	AllPoolStats() []sam.BridgePoolStats
}

var _ Source = (*sam.Client)(nil)

// Collector exports client and per-bridge pool statistics.
// Values are read from the source at scrape time.
type Collector struct {
	source Source

	operations *prometheus.Desc
	lookupHits *prometheus.Desc
	errors     *prometheus.Desc

	poolConnections *prometheus.Desc
	poolCreated     *prometheus.Desc
	poolDestroyed   *prometheus.Desc
	poolAcquires    *prometheus.Desc
	poolWaits       *prometheus.Desc
	poolErrors      *prometheus.Desc
	poolConnectErrs *prometheus.Desc

	circuitState    *prometheus.Desc
	circuitRequests *prometheus.Desc
	circuitFailures *prometheus.Desc
}

var _ prometheus.Collector = (*Collector)(nil)

// NewCollector creates a collector for source.
func NewCollector(source Source) *Collector {
	return &Collector{
		source: source,

		operations: prometheus.NewDesc(
			"sam_operations_total",
			"Total number of successful SAM operations",
			[]string{"op"}, nil, // lookup, generate, session, stream
		),
		lookupHits: prometheus.NewDesc(
			"sam_lookup_hits_total",
			"Name lookups that resolved to a destination",
			nil, nil,
		),
		errors: prometheus.NewDesc(
			"sam_errors_total",
			"Total number of failed SAM operations",
			nil, nil,
		),

		poolConnections: prometheus.NewDesc(
			"sam_pool_connections",
			"Control connections in the bridge pool",
			[]string{"bridge", "state"}, nil, // total, active, idle
		),
		poolCreated: prometheus.NewDesc(
			"sam_pool_connections_created_total",
			"Control connections dialed and handshaken",
			[]string{"bridge"}, nil,
		),
		poolDestroyed: prometheus.NewDesc(
			"sam_pool_connections_destroyed_total",
			"Control connections closed by the pool",
			[]string{"bridge"}, nil,
		),
		poolAcquires: prometheus.NewDesc(
			"sam_pool_acquires_total",
			"Connection acquire attempts",
			[]string{"bridge"}, nil,
		),
		poolWaits: prometheus.NewDesc(
			"sam_pool_acquire_waits_total",
			"Acquires that had to wait for a connection",
			[]string{"bridge"}, nil,
		),
		poolErrors: prometheus.NewDesc(
			"sam_pool_acquire_errors_total",
			"Canceled acquire attempts",
			[]string{"bridge"}, nil,
		),
		poolConnectErrs: prometheus.NewDesc(
			"sam_pool_connect_errors_total",
			"Failed dials or handshakes when growing the pool",
			[]string{"bridge"}, nil,
		),

		circuitState: prometheus.NewDesc(
			"sam_circuit_breaker_state",
			"Circuit breaker state (0=closed, 1=half-open, 2=open)",
			[]string{"bridge"}, nil,
		),
		circuitRequests: prometheus.NewDesc(
			"sam_circuit_breaker_requests",
			"Number of requests tracked by circuit breaker",
			[]string{"bridge"}, nil,
		),
		circuitFailures: prometheus.NewDesc(
			"sam_circuit_breaker_failures",
			"Circuit breaker failure counts",
			[]string{"bridge", "type"}, nil, // total, consecutive
		),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.operations
	ch <- c.lookupHits
	ch <- c.errors
	ch <- c.poolConnections
	ch <- c.poolCreated
	ch <- c.poolDestroyed
	ch <- c.poolAcquires
	ch <- c.poolWaits
	ch <- c.poolErrors
	ch <- c.poolConnectErrs
	ch <- c.circuitState
	ch <- c.circuitRequests
	ch <- c.circuitFailures
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	stats := c.source.Stats()

	counter := func(desc *prometheus.Desc, value uint64, labels ...string) {
		ch <- prometheus.MustNewConstMetric(desc, prometheus.CounterValue, float64(value), labels...)
	}
	gauge := func(desc *prometheus.Desc, value float64, labels ...string) {
		ch <- prometheus.MustNewConstMetric(desc, prometheus.GaugeValue, value, labels...)
	}

	counter(c.operations, stats.Lookups, "lookup")
	counter(c.operations, stats.Generates, "generate")
	counter(c.operations, stats.Sessions, "session")
	counter(c.operations, stats.Streams, "stream")
	counter(c.lookupHits, stats.LookupHits)
	counter(c.errors, stats.Errors)

	for _, bs := range c.source.AllPoolStats() {
		ps := bs.PoolStats
		gauge(c.poolConnections, float64(ps.TotalConns), bs.Addr, "total")
		gauge(c.poolConnections, float64(ps.ActiveConns), bs.Addr, "active")
		gauge(c.poolConnections, float64(ps.IdleConns), bs.Addr, "idle")
		counter(c.poolCreated, ps.CreatedConns, bs.Addr)
		counter(c.poolDestroyed, ps.DestroyedConns, bs.Addr)
		counter(c.poolAcquires, ps.AcquireCount, bs.Addr)
		counter(c.poolWaits, ps.AcquireWaitCount, bs.Addr)
		counter(c.poolErrors, ps.AcquireErrors, bs.Addr)
		counter(c.poolConnectErrs, ps.ConnectErrors, bs.Addr)

		gauge(c.circuitState, stateValue(bs.CircuitBreakerState), bs.Addr)
		gauge(c.circuitRequests, float64(bs.CircuitBreakerCounts.Requests), bs.Addr)
		gauge(c.circuitFailures, float64(bs.CircuitBreakerCounts.TotalFailures), bs.Addr, "total")
		gauge(c.circuitFailures, float64(bs.CircuitBreakerCounts.ConsecutiveFailures), bs.Addr, "consecutive")
	}
}

func stateValue(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
