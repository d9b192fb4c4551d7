package testutils

import (
	"bytes"
	"context"
	"errors"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// HelloOK is the handshake reply of a bridge speaking version 3.1.
const HelloOK = "HELLO REPLY RESULT=OK VERSION=3.1\n"

// ConnectionMock is a mock implementation of net.Conn for testing
type ConnectionMock struct {
	readBuf  *bytes.Buffer
	writeBuf *bytes.Buffer
	closed   atomic.Bool
	repeat   string
}

// NewConnectionMock creates a new mock connection with pre-configured response data
func NewConnectionMock(responseData ...string) *ConnectionMock {
	readBuf := bytes.NewBufferString(strings.Join(responseData, ""))
	return &ConnectionMock{
		readBuf:  readBuf,
		writeBuf: &bytes.Buffer{},
	}
}

// NewBridgeMock creates a mock connection that accepts the handshake and
// then answers with responses.
func NewBridgeMock(responses ...string) *ConnectionMock {
	return NewConnectionMock(append([]string{HelloOK}, responses...)...)
}

// NewRepeatingBridgeMock creates a mock connection that accepts the
// handshake and then answers every read with response. Written data is
// discarded.
func NewRepeatingBridgeMock(response string) *ConnectionMock {
	m := NewConnectionMock(HelloOK)
	m.repeat = response
	return m
}

func (m *ConnectionMock) Read(b []byte) (n int, err error) {
	if m.repeat != "" && m.readBuf.Len() == 0 {
		m.readBuf.WriteString(m.repeat)
	}
	return m.readBuf.Read(b)
}

func (m *ConnectionMock) Write(b []byte) (n int, err error) {
	if m.repeat != "" {
		return len(b), nil
	}
	return m.writeBuf.Write(b)
}

func (m *ConnectionMock) Close() error {
	m.closed.Store(true)
	return nil
}

// IsClosed reports whether Close was called.
func (m *ConnectionMock) IsClosed() bool {
	return m.closed.Load()
}

func (m *ConnectionMock) LocalAddr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 0}
}

func (m *ConnectionMock) RemoteAddr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 7656}
}

func (m *ConnectionMock) SetDeadline(t time.Time) error      { return nil }
func (m *ConnectionMock) SetReadDeadline(t time.Time) error  { return nil }
func (m *ConnectionMock) SetWriteDeadline(t time.Time) error { return nil }

// GetWrittenRequest returns the raw request bytes written to the mock connection
func (m *ConnectionMock) GetWrittenRequest() string {
	return m.writeBuf.String()
}

// ErrNoMoreConnections is returned by DialerMock once its mocks are used up.
var ErrNoMoreConnections = errors.New("testutils: no more mock connections")

// DialerMock hands out its connection mocks in order, one per dial.
type DialerMock struct {
	mu    sync.Mutex
	conns []*ConnectionMock
	addrs []string
}

func NewDialerMock(conns ...*ConnectionMock) *DialerMock {
	return &DialerMock{conns: conns}
}

func (d *DialerMock) Dial(ctx context.Context, addr string) (net.Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.addrs) >= len(d.conns) {
		return nil, ErrNoMoreConnections
	}
	conn := d.conns[len(d.addrs)]
	d.addrs = append(d.addrs, addr)
	return conn, nil
}

// Addrs returns the dialed addresses in order.
func (d *DialerMock) Addrs() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.addrs...)
}
