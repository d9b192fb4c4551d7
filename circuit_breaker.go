package sam

import (
	"time"

	"github.com/pior/sam/reply"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

// CircuitBreaker guards the control connections of one bridge.
type CircuitBreaker = gobreaker.CircuitBreaker[*reply.Reply]

// NewCircuitBreakerConfig returns a function that creates circuit breakers for bridges.
//
// The breaker trips when at least 3 requests were seen in the interval and
// 60% of them failed. Only failures that break the connection count: a
// reply with RESULT other than OK is a success from the breaker's view.
func NewCircuitBreakerConfig(maxRequests uint32, interval, timeout time.Duration) func(string) *CircuitBreaker {
	return newCircuitBreakerConfig(maxRequests, interval, timeout, zerolog.Nop())
}

// NewLoggingCircuitBreakerConfig is NewCircuitBreakerConfig with state
// transitions logged at warn level.
func NewLoggingCircuitBreakerConfig(maxRequests uint32, interval, timeout time.Duration, logger zerolog.Logger) func(string) *CircuitBreaker {
	return newCircuitBreakerConfig(maxRequests, interval, timeout, logger)
}

func newCircuitBreakerConfig(maxRequests uint32, interval, timeout time.Duration, logger zerolog.Logger) func(string) *CircuitBreaker {
	return func(bridgeAddr string) *CircuitBreaker {
		settings := gobreaker.Settings{
			Name:        bridgeAddr,
			MaxRequests: maxRequests,
			Interval:    interval,
			Timeout:     timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
				return counts.Requests >= 3 && failureRatio >= 0.6
			},
			IsSuccessful: func(err error) bool {
				return !reply.ShouldCloseConnection(err)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn().
					Str("bridge", name).
					Str("from", from.String()).
					Str("to", to.String()).
					Msg("circuit breaker state changed")
			},
		}
		return gobreaker.NewCircuitBreaker[*reply.Reply](settings)
	}
}
