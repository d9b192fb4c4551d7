// Package reply implements the line grammar of the SAM v3 application bridge
// protocol used by I2P clients.
//
// The bridge answers every command with one line: a fixed verb phrase, one
// or more key=value pairs, and a newline:
//
//	HELLO REPLY RESULT=OK VERSION=3.1
//	SESSION STATUS RESULT=I2P_ERROR MESSAGE="Something failed"
//	DEST REPLY PUB=<destination> PRIV=<privkey>
//
// This package parses those lines and serializes the matching requests. It
// has no connection management and does not interpret keys; a RESULT other
// than OK is a successful parse.
//
// # Parsing
//
// One entry point exists per verb phrase:
//
//	rest, pairs, err := reply.ParseHelloReply("HELLO REPLY RESULT=OK VERSION=3.1\n")
//	// rest == "", pairs == [{RESULT OK} {VERSION 3.1}]
//
// Parse takes the verb as an argument, ParseReply detects it, and ReadReply
// reads a line from a bufio.Reader first. ParsePeerLine handles the
// destination line a bridge writes on an accepted stream.
//
// The verb phrase must match byte for byte, including its single trailing
// space. Pairs are separated by any run of spaces, tabs or newlines. Values
// are either a run of non-blank bytes (possibly empty) or double-quoted
// text that may contain spaces; there is no escape for a quote inside a
// quoted value.
//
// Keys and values are substrings of the input line. Pairs.Clone copies them
// out when only a few values must outlive a large buffer.
//
// # Errors
//
// Parse failures are *ParseError values carrying the byte offset and one of
// ErrPrefixMismatch, ErrMalformedPair, ErrUnterminatedQuote,
// ErrEmptyPairList or ErrMissingNewline:
//
//	_, _, err := reply.ParseNamingReply("NAMING  REPLY RESULT=OK\n")
//	errors.Is(err, reply.ErrPrefixMismatch) // true
//
// ShouldCloseConnection tells whether an error leaves the control socket
// unusable.
//
// # Requests
//
//	req := reply.NewNamingLookupRequest("example.i2p")
//	err := reply.WriteRequest(conn, req)
//	rep, err := reply.ReadReply(bufio.NewReader(conn), req.Command.Reply())
//
// # Thread Safety
//
// All functions are safe for concurrent use as long as each goroutine uses
// its own reader and writer.
package reply
