package sam

import (
	"bufio"
	"context"
	"net"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"github.com/pior/sam/reply"
)

// SessionConfig describes a session to create on a bridge.
type SessionConfig struct {
	// ID is the session nickname, unique per bridge.
	// Default: "sam-" followed by a random UUID.
	ID string

	// Style is reply.StyleStream, reply.StyleDatagram or reply.StyleRaw.
	// Default: reply.StyleStream.
	Style string

	// Destination is a base64 private key, or reply.DestinationTransient
	// (the default) for a throwaway destination.
	Destination string

	// SignatureType is used for transient destinations only.
	// Zero means DefaultSignatureType; negative lets the bridge choose.
	SignatureType int

	// Options are appended to SESSION CREATE as-is (tunnel settings,
	// i2cp.* options).
	Options reply.Pairs
}

func (cfg *SessionConfig) applyDefaults() {
	if cfg.ID == "" {
		cfg.ID = "sam-" + uuid.NewString()
	}
	if cfg.Style == "" {
		cfg.Style = reply.StyleStream
	}
	if cfg.Destination == "" {
		cfg.Destination = reply.DestinationTransient
	}
	if cfg.SignatureType == 0 {
		cfg.SignatureType = DefaultSignatureType
	}
}

func (cfg *SessionConfig) request() *reply.Request {
	req := reply.NewSessionCreateRequest(cfg.Style, cfg.ID, cfg.Destination)
	if cfg.Destination == reply.DestinationTransient && cfg.SignatureType > 0 {
		req.Add(reply.KeySignatureType, strconv.Itoa(cfg.SignatureType))
	}
	req.Options = append(req.Options, cfg.Options...)
	return req
}

// Session is a SAM session bound to one bridge.
//
// The session lives as long as its control connection: Close tears down
// the session and, on the bridge side, every stream opened through it.
type Session struct {
	ID         string
	Style      string
	PrivateKey string // base64 private key returned by the bridge

	client *Client
	addr   string

	mu     sync.Mutex
	conn   *Connection
	closed bool
}

// CreateSession opens a dedicated control connection and runs SESSION CREATE.
// The bridge is selected by session ID.
func (c *Client) CreateSession(ctx context.Context, cfg SessionConfig) (*Session, error) {
	cfg.applyDefaults()

	c.mu.RLock()
	closed := c.closed
	c.mu.RUnlock()
	if closed {
		return nil, ErrClientClosed
	}

	addr, err := c.selectBridgeForKey(cfg.ID)
	if err != nil {
		c.stats.recordError()
		return nil, err
	}

	conn, err := c.connect(ctx, addr)
	if err != nil {
		c.stats.recordError()
		return nil, err
	}

	rep, err := conn.Send(ctx, cfg.request())
	if err != nil {
		_ = conn.Close()
		c.stats.recordError()
		return nil, err
	}
	if !rep.IsOK() {
		_ = conn.Close()
		c.stats.recordError()
		c.logger.Warn().Str("bridge", addr).Str("session", cfg.ID).Str("result", rep.Result()).Msg("session rejected")
		return nil, newResultError(rep)
	}

	c.stats.recordSession()
	c.logger.Debug().Str("bridge", addr).Str("session", cfg.ID).Str("style", cfg.Style).Msg("session created")

	return &Session{
		ID:         cfg.ID,
		Style:      cfg.Style,
		PrivateKey: rep.Get(reply.KeyDestination),
		client:     c,
		addr:       addr,
		conn:       conn,
	}, nil
}

// Bridge returns the address of the bridge holding the session.
func (s *Session) Bridge() string {
	return s.addr
}

// Close ends the session. It is safe to call more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	s.client.logger.Debug().Str("bridge", s.addr).Str("session", s.ID).Msg("session closed")
	return s.conn.Close()
}

func (s *Session) checkStream() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	if s.Style != reply.StyleStream {
		return ErrNotStream
	}
	return nil
}

// Dial opens a stream to destination, a base64 destination or a name the
// bridge can resolve.
func (s *Session) Dial(ctx context.Context, destination string) (*StreamConn, error) {
	conn, err := s.streamCommand(ctx, reply.NewStreamConnectRequest(s.ID, destination, false))
	if err != nil {
		return nil, err
	}

	s.client.stats.recordStream()
	return newStreamConn(conn, destination), nil
}

// Accept waits for the next incoming stream on the session.
//
// After STREAM STATUS the bridge holds the connection until a peer
// connects, then writes the peer destination line. ctx bounds the whole
// wait.
func (s *Session) Accept(ctx context.Context) (*StreamConn, error) {
	conn, err := s.streamCommand(ctx, reply.NewStreamAcceptRequest(s.ID, false))
	if err != nil {
		return nil, err
	}

	remote, err := readPeer(ctx, conn)
	if err != nil {
		_ = conn.Close()
		s.client.stats.recordError()
		return nil, err
	}

	s.client.stats.recordStream()
	s.client.logger.Debug().Str("session", s.ID).Msg("stream accepted")
	return newStreamConn(conn, remote), nil
}

// streamCommand runs a STREAM command on a fresh handshaken connection.
// The connection is returned only if the bridge answered RESULT=OK.
func (s *Session) streamCommand(ctx context.Context, req *reply.Request) (*Connection, error) {
	if err := s.checkStream(); err != nil {
		return nil, err
	}

	conn, err := s.client.connect(ctx, s.addr)
	if err != nil {
		s.client.stats.recordError()
		return nil, err
	}

	rep, err := conn.Send(ctx, req)
	if err != nil {
		_ = conn.Close()
		s.client.stats.recordError()
		return nil, err
	}
	if !rep.IsOK() {
		_ = conn.Close()
		s.client.stats.recordError()
		return nil, newResultError(rep)
	}
	return conn, nil
}

func readPeer(ctx context.Context, conn *Connection) (string, error) {
	defer conn.watch(ctx)()

	line, err := reply.ReadLine(conn.Reader)
	if err != nil {
		return "", conn.contextError(ctx, err)
	}

	dest, _, _, err := reply.ParsePeerLine(line)
	if err != nil {
		return "", err
	}
	return dest, nil
}

// StreamConn is an established stream to a peer.
//
// Reads go through the control connection's buffer, which may already hold
// peer data received with the last reply.
type StreamConn struct {
	net.Conn
	reader *bufio.Reader
	remote string
}

func newStreamConn(conn *Connection, remote string) *StreamConn {
	return &StreamConn{
		Conn:   conn.Conn,
		reader: conn.Reader,
		remote: remote,
	}
}

func (c *StreamConn) Read(p []byte) (int, error) {
	return c.reader.Read(p)
}

// RemoteDestination returns the peer destination: the dialed one for Dial,
// the one announced by the bridge for Accept.
func (c *StreamConn) RemoteDestination() string {
	return c.remote
}
