package sam

import (
	"context"
	"testing"

	"github.com/pior/sam/internal/testutils"
	"github.com/pior/sam/reply"
)

var ctx = context.Background()

func newBenchmarkClient(b *testing.B, response string) *Client {
	b.Helper()

	dialer := testutils.NewDialerMock(testutils.NewRepeatingBridgeMock(response))
	client, err := NewClient(NewStaticBridges(testBridge), Config{MaxSize: 1, dial: dialer.Dial})
	if err != nil {
		b.Fatal(err)
	}
	b.Cleanup(client.Close)
	return client
}

// BenchmarkClient_Lookup benchmarks a name lookup on a pooled connection
func BenchmarkClient_Lookup(b *testing.B) {
	client := newBenchmarkClient(b, "NAMING REPLY RESULT=OK NAME=test.i2p VALUE=dest1\n")

	for b.Loop() {
		_, _ = client.Lookup(ctx, "test.i2p")
	}
}

// BenchmarkClient_Lookup_NotFound benchmarks a lookup miss
func BenchmarkClient_Lookup_NotFound(b *testing.B) {
	client := newBenchmarkClient(b, "NAMING REPLY RESULT=KEY_NOT_FOUND NAME=nope.i2p\n")

	for b.Loop() {
		_, _ = client.Lookup(ctx, "nope.i2p")
	}
}

// BenchmarkClient_Lookup_CircuitBreaker benchmarks the breaker overhead
func BenchmarkClient_Lookup_CircuitBreaker(b *testing.B) {
	dialer := testutils.NewDialerMock(testutils.NewRepeatingBridgeMock("NAMING REPLY RESULT=OK NAME=test.i2p VALUE=dest1\n"))
	client, err := NewClient(NewStaticBridges(testBridge), Config{
		MaxSize:           1,
		NewCircuitBreaker: NewCircuitBreakerConfig(1, 0, 0),
		dial:              dialer.Dial,
	})
	if err != nil {
		b.Fatal(err)
	}
	defer client.Close()

	for b.Loop() {
		_, _ = client.Lookup(ctx, "test.i2p")
	}
}

// BenchmarkConnection_Send benchmarks a request-reply cycle without a pool
func BenchmarkConnection_Send(b *testing.B) {
	conn := NewConnection(testutils.NewRepeatingBridgeMock("NAMING REPLY RESULT=OK NAME=test.i2p VALUE=dest1\n"))
	if _, err := conn.Handshake(ctx, reply.MinVersion, reply.MaxVersion); err != nil {
		b.Fatal(err)
	}
	req := reply.NewNamingLookupRequest("test.i2p")

	for b.Loop() {
		_, _ = conn.Send(ctx, req)
	}
}
