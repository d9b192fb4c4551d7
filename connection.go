package sam

import (
	"bufio"
	"context"
	"net"
	"time"

	"github.com/pior/sam/reply"
)

// Connection is a control connection to a SAM bridge.
//
// It is not safe for concurrent use; the pool hands it to one goroutine at
// a time.
type Connection struct {
	net.Conn
	Reader *bufio.Reader
	Writer *bufio.Writer

	version   string
	createdAt time.Time
}

// NewConnection wraps an established network connection.
// Handshake must run before any other command.
func NewConnection(netConn net.Conn) *Connection {
	return &Connection{
		Conn:      netConn,
		Reader:    bufio.NewReader(netConn),
		Writer:    bufio.NewWriter(netConn),
		createdAt: time.Now(),
	}
}

// Version returns the protocol version negotiated by Handshake.
func (c *Connection) Version() string {
	return c.version
}

// Send writes req and reads the reply the bridge sends for its command.
//
// The context deadline applies to both the write and the read; cancelling
// the context interrupts a blocked read. A reply with a RESULT other than
// OK is returned as-is, without error.
func (c *Connection) Send(ctx context.Context, req *reply.Request) (*reply.Reply, error) {
	verb := req.Command.Reply()
	if verb == "" {
		return nil, ErrUnknownCommand
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	defer c.watch(ctx)()

	if err := reply.WriteRequest(c.Writer, req); err != nil {
		return nil, c.contextError(ctx, err)
	}

	rep, err := reply.ReadReply(c.Reader, verb)
	if err != nil {
		return nil, c.contextError(ctx, err)
	}
	return rep, nil
}

// Handshake runs HELLO VERSION and returns the version picked by the bridge.
func (c *Connection) Handshake(ctx context.Context, minVersion, maxVersion string) (string, error) {
	rep, err := c.Send(ctx, reply.NewHelloRequest(minVersion, maxVersion))
	if err != nil {
		return "", err
	}
	if !rep.IsOK() {
		return "", newResultError(rep)
	}

	c.version = rep.Get(reply.KeyVersion)
	return c.version, nil
}

// watch applies the context deadline to the connection and interrupts it
// when the context is cancelled. The returned func restores a blocking
// connection.
func (c *Connection) watch(ctx context.Context) func() {
	if deadline, ok := ctx.Deadline(); ok {
		c.Conn.SetDeadline(deadline)
	} else {
		c.Conn.SetDeadline(time.Time{})
	}

	stop := context.AfterFunc(ctx, func() {
		c.Conn.SetDeadline(time.Now())
	})

	return func() {
		stop()
		c.Conn.SetDeadline(time.Time{})
	}
}

// contextError prefers the context error when the context caused err.
func (c *Connection) contextError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return &reply.ConnectionError{Op: "send", Err: ctxErr}
	}
	return err
}
