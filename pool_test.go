package sam

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pior/sam/internal/testutils"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var poolFactories = map[string]PoolFactory{
	"puddle":  NewPuddlePool,
	"channel": NewChannelPool,
}

func newMockConnection(ctx context.Context) (*Connection, error) {
	return NewConnection(testutils.NewConnectionMock()), nil
}

func testPoolConfig(connect func(ctx context.Context) (*Connection, error), maxSize int32) PoolConfig {
	return PoolConfig{Addr: testBridge, MaxSize: maxSize, Connect: connect}
}

// syncBuffer is a log sink safe for destructors running in the background.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestPool(t *testing.T) {
	for name, factory := range poolFactories {
		t.Run(name, func(t *testing.T) {
			pool, err := factory(testPoolConfig(newMockConnection, 2))
			require.NoError(t, err)
			defer pool.Close()

			ctx := context.Background()

			stats := pool.Stats()
			assert.Equal(t, int32(0), stats.TotalConns)
			assert.Equal(t, uint64(0), stats.AcquireCount)

			res, err := pool.Acquire(ctx)
			require.NoError(t, err)
			require.NotNil(t, res.Value())

			stats = pool.Stats()
			assert.Equal(t, int32(1), stats.TotalConns)
			assert.Equal(t, int32(1), stats.ActiveConns)
			assert.Equal(t, uint64(1), stats.AcquireCount)
			assert.Equal(t, uint64(1), stats.CreatedConns)

			res.Release()

			stats = pool.Stats()
			assert.Equal(t, int32(1), stats.IdleConns)
			assert.Equal(t, int32(0), stats.ActiveConns)

			// The idle connection is reused
			res, err = pool.Acquire(ctx)
			require.NoError(t, err)
			res.Release()
			assert.Equal(t, uint64(1), pool.Stats().CreatedConns)
		})
	}
}

func TestPoolReusesIdleConnection(t *testing.T) {
	for name, factory := range poolFactories {
		t.Run(name, func(t *testing.T) {
			pool, err := factory(testPoolConfig(newMockConnection, 4))
			require.NoError(t, err)
			defer pool.Close()

			ctx := context.Background()
			for range 200 {
				res, err := pool.Acquire(ctx)
				require.NoError(t, err)
				res.Release()
			}

			stats := pool.Stats()
			assert.Equal(t, uint64(1), stats.CreatedConns)
			assert.Equal(t, int32(1), stats.TotalConns)
		})
	}
}

func TestPoolLogsDestroyedConnection(t *testing.T) {
	for name, factory := range poolFactories {
		t.Run(name, func(t *testing.T) {
			var buf syncBuffer
			logger := zerolog.New(&buf).Level(zerolog.DebugLevel)

			cfg := testPoolConfig(newMockConnection, 1)
			cfg.Logger = &logger
			pool, err := factory(cfg)
			require.NoError(t, err)
			defer pool.Close()

			res, err := pool.Acquire(context.Background())
			require.NoError(t, err)
			res.Destroy()

			assert.Eventually(t, func() bool {
				out := buf.String()
				return strings.Contains(out, `"bridge":"`+testBridge+`"`) &&
					strings.Contains(out, "pooled connection destroyed")
			}, time.Second, time.Millisecond)
		})
	}
}

func TestPoolAcquireAllIdle(t *testing.T) {
	for name, factory := range poolFactories {
		t.Run(name, func(t *testing.T) {
			pool, err := factory(testPoolConfig(newMockConnection, 2))
			require.NoError(t, err)
			defer pool.Close()

			ctx := context.Background()
			first, err := pool.Acquire(ctx)
			require.NoError(t, err)
			second, err := pool.Acquire(ctx)
			require.NoError(t, err)
			first.Release()
			second.Release()

			idle := pool.AcquireAllIdle()
			require.Len(t, idle, 2)
			for _, res := range idle {
				res.ReleaseUnused()
			}
			assert.Equal(t, int32(2), pool.Stats().IdleConns)
		})
	}
}

func TestPoolConstructorError(t *testing.T) {
	dialErr := errors.New("connection refused")

	for name, factory := range poolFactories {
		t.Run(name, func(t *testing.T) {
			pool, err := factory(testPoolConfig(func(ctx context.Context) (*Connection, error) {
				return nil, dialErr
			}, 1))
			require.NoError(t, err)
			defer pool.Close()

			res, err := pool.Acquire(context.Background())
			require.ErrorIs(t, err, dialErr)
			assert.Nil(t, res)

			stats := pool.Stats()
			assert.Equal(t, uint64(0), stats.CreatedConns)
			assert.Equal(t, uint64(1), stats.ConnectErrors)
			assert.Equal(t, int32(0), stats.TotalConns)
		})
	}
}

func TestPoolAcquireCanceled(t *testing.T) {
	for name, factory := range poolFactories {
		t.Run(name, func(t *testing.T) {
			pool, err := factory(testPoolConfig(newMockConnection, 1))
			require.NoError(t, err)
			defer pool.Close()

			held, err := pool.Acquire(context.Background())
			require.NoError(t, err)
			defer held.Release()

			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			_, err = pool.Acquire(ctx)
			require.ErrorIs(t, err, context.Canceled)
		})
	}
}

func TestPoolAcquireWaitsForRelease(t *testing.T) {
	for name, factory := range poolFactories {
		t.Run(name, func(t *testing.T) {
			pool, err := factory(testPoolConfig(newMockConnection, 1))
			require.NoError(t, err)
			defer pool.Close()

			held, err := pool.Acquire(context.Background())
			require.NoError(t, err)

			go func() {
				time.Sleep(10 * time.Millisecond)
				held.Release()
			}()

			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()

			res, err := pool.Acquire(ctx)
			require.NoError(t, err)
			assert.Same(t, held.Value(), res.Value())
			res.Release()

			// puddle also counts acquires that constructed a connection
			assert.GreaterOrEqual(t, pool.Stats().AcquireWaitCount, uint64(1))
		})
	}
}

func TestPoolDestroy(t *testing.T) {
	for name, factory := range poolFactories {
		t.Run(name, func(t *testing.T) {
			mock := testutils.NewConnectionMock()
			pool, err := factory(testPoolConfig(func(ctx context.Context) (*Connection, error) {
				return NewConnection(mock), nil
			}, 1))
			require.NoError(t, err)
			defer pool.Close()

			res, err := pool.Acquire(context.Background())
			require.NoError(t, err)
			res.Destroy()

			assert.Eventually(t, func() bool {
				return mock.IsClosed() && pool.Stats().DestroyedConns == 1
			}, time.Second, time.Millisecond)
		})
	}
}

func TestChannelPoolClose(t *testing.T) {
	idleMock := testutils.NewConnectionMock()
	activeMock := testutils.NewConnectionMock()
	mocks := []*testutils.ConnectionMock{idleMock, activeMock}

	pool, err := NewChannelPool(testPoolConfig(func(ctx context.Context) (*Connection, error) {
		mock := mocks[0]
		mocks = mocks[1:]
		return NewConnection(mock), nil
	}, 2))
	require.NoError(t, err)

	ctx := context.Background()
	idle, err := pool.Acquire(ctx)
	require.NoError(t, err)
	active, err := pool.Acquire(ctx)
	require.NoError(t, err)
	idle.Release()

	pool.Close()
	assert.True(t, idleMock.IsClosed())
	assert.False(t, activeMock.IsClosed())

	// Released after close: destroyed
	active.Release()
	assert.True(t, activeMock.IsClosed())
	assert.Equal(t, int32(0), pool.Stats().TotalConns)

	_, err = pool.Acquire(ctx)
	require.ErrorIs(t, err, ErrPoolClosed)
}
