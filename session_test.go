package sam

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/pior/sam/internal/testutils"
	"github.com/pior/sam/reply"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestSession(t *testing.T, streams ...*testutils.ConnectionMock) (*Session, *testutils.ConnectionMock) {
	t.Helper()

	control := testutils.NewBridgeMock("SESSION STATUS RESULT=OK DESTINATION=privkey\n")
	dialer := testutils.NewDialerMock(append([]*testutils.ConnectionMock{control}, streams...)...)
	client := newTestClient(t, dialer, Config{})

	session, err := client.CreateSession(context.Background(), SessionConfig{ID: "test"})
	require.NoError(t, err)
	t.Cleanup(func() { session.Close() })
	return session, control
}

func TestCreateSession(t *testing.T) {
	session, control := createTestSession(t)

	assert.Equal(t, "test", session.ID)
	assert.Equal(t, reply.StyleStream, session.Style)
	assert.Equal(t, "privkey", session.PrivateKey)
	assert.Equal(t, testBridge, session.Bridge())
	assert.Equal(t,
		"HELLO VERSION MIN=3.0 MAX=3.3\nSESSION CREATE STYLE=STREAM ID=test DESTINATION=TRANSIENT SIGNATURE_TYPE=7\n",
		control.GetWrittenRequest())
	assert.Equal(t, uint64(1), session.client.Stats().Sessions)

	require.NoError(t, session.Close())
	require.NoError(t, session.Close())
	assert.True(t, control.IsClosed())
}

func TestCreateSessionDefaults(t *testing.T) {
	control := testutils.NewBridgeMock("SESSION STATUS RESULT=OK DESTINATION=privkey\n")
	client := newTestClient(t, testutils.NewDialerMock(control), Config{})

	session, err := client.CreateSession(context.Background(), SessionConfig{})
	require.NoError(t, err)
	defer session.Close()

	assert.True(t, strings.HasPrefix(session.ID, "sam-"))
	assert.Contains(t, control.GetWrittenRequest(), "ID="+session.ID+" ")
}

func TestCreateSessionWithKeyAndOptions(t *testing.T) {
	control := testutils.NewBridgeMock("SESSION STATUS RESULT=OK DESTINATION=mykey\n")
	client := newTestClient(t, testutils.NewDialerMock(control), Config{})

	session, err := client.CreateSession(context.Background(), SessionConfig{
		ID:          "persistent",
		Destination: "mykey",
		Options:     reply.Pairs{{Key: "inbound.length", Value: "1"}},
	})
	require.NoError(t, err)
	defer session.Close()

	// SIGNATURE_TYPE only applies to transient destinations
	assert.Equal(t,
		"HELLO VERSION MIN=3.0 MAX=3.3\nSESSION CREATE STYLE=STREAM ID=persistent DESTINATION=mykey inbound.length=1\n",
		control.GetWrittenRequest())
}

func TestCreateSessionDuplicatedID(t *testing.T) {
	control := testutils.NewBridgeMock("SESSION STATUS RESULT=DUPLICATED_ID\n")
	client := newTestClient(t, testutils.NewDialerMock(control), Config{})

	_, err := client.CreateSession(context.Background(), SessionConfig{ID: "taken"})
	require.Error(t, err)
	assert.True(t, IsResult(err, reply.ResultDuplicatedID))
	assert.True(t, control.IsClosed())
	assert.Equal(t, uint64(1), client.Stats().Errors)
}

func TestSessionDial(t *testing.T) {
	stream := testutils.NewBridgeMock("STREAM STATUS RESULT=OK\n", "hello from peer")
	session, _ := createTestSession(t, stream)

	conn, err := session.Dial(context.Background(), "peer.i2p")
	require.NoError(t, err)
	defer conn.Close()

	assert.Equal(t, "peer.i2p", conn.RemoteDestination())

	data, err := io.ReadAll(conn)
	require.NoError(t, err)
	assert.Equal(t, "hello from peer", string(data))

	_, err = conn.Write([]byte("ping"))
	require.NoError(t, err)

	assert.Equal(t,
		"HELLO VERSION MIN=3.0 MAX=3.3\nSTREAM CONNECT ID=test DESTINATION=peer.i2p SILENT=false\nping",
		stream.GetWrittenRequest())
	assert.Equal(t, uint64(1), session.client.Stats().Streams)
}

func TestSessionDialCantReachPeer(t *testing.T) {
	stream := testutils.NewBridgeMock("STREAM STATUS RESULT=CANT_REACH_PEER MESSAGE=\"Connection timed out\"\n")
	session, _ := createTestSession(t, stream)

	_, err := session.Dial(context.Background(), "peer.i2p")
	require.Error(t, err)
	assert.True(t, IsResult(err, reply.ResultCantReachPeer))
	assert.True(t, stream.IsClosed())
}

func TestSessionAccept(t *testing.T) {
	stream := testutils.NewBridgeMock(
		"STREAM STATUS RESULT=OK\n",
		"peerdest FROM_PORT=0 TO_PORT=0\n",
		"request data",
	)
	session, _ := createTestSession(t, stream)

	conn, err := session.Accept(context.Background())
	require.NoError(t, err)
	defer conn.Close()

	assert.Equal(t, "peerdest", conn.RemoteDestination())

	data, err := io.ReadAll(conn)
	require.NoError(t, err)
	assert.Equal(t, "request data", string(data))
	assert.Contains(t, stream.GetWrittenRequest(), "STREAM ACCEPT ID=test SILENT=false\n")
}

func TestSessionAcceptMalformedPeerLine(t *testing.T) {
	stream := testutils.NewBridgeMock("STREAM STATUS RESULT=OK\n", "\n")
	session, _ := createTestSession(t, stream)

	_, err := session.Accept(context.Background())
	require.ErrorIs(t, err, reply.ErrEmptyDestination)
	assert.True(t, stream.IsClosed())
}

func TestSessionAcceptBridgeClosed(t *testing.T) {
	stream := testutils.NewBridgeMock("STREAM STATUS RESULT=OK\n")
	session, _ := createTestSession(t, stream)

	_, err := session.Accept(context.Background())
	require.ErrorIs(t, err, io.EOF)
	assert.True(t, stream.IsClosed())
}

func TestSessionClosed(t *testing.T) {
	session, _ := createTestSession(t)
	require.NoError(t, session.Close())

	_, err := session.Dial(context.Background(), "peer.i2p")
	require.ErrorIs(t, err, ErrSessionClosed)

	_, err = session.Accept(context.Background())
	require.ErrorIs(t, err, ErrSessionClosed)
}

func TestSessionNotStream(t *testing.T) {
	control := testutils.NewBridgeMock("SESSION STATUS RESULT=OK DESTINATION=privkey\n")
	client := newTestClient(t, testutils.NewDialerMock(control), Config{})

	session, err := client.CreateSession(context.Background(), SessionConfig{Style: reply.StyleDatagram})
	require.NoError(t, err)
	defer session.Close()

	_, err = session.Dial(context.Background(), "peer.i2p")
	require.ErrorIs(t, err, ErrNotStream)
}
