package reply

import (
	"errors"
	"fmt"
)

// Reasons a reply line fails to parse. They are always wrapped in a
// *ParseError; match them with errors.Is.
var (
	// ErrPrefixMismatch means the line does not start with the expected verb
	// phrase, including phrases with extra or missing internal spaces.
	ErrPrefixMismatch = errors.New("verb phrase mismatch")

	// ErrMalformedPair means the key is empty or the '=' is missing.
	ErrMalformedPair = errors.New("malformed key/value pair")

	// ErrUnterminatedQuote means a quoted value has no closing quote.
	ErrUnterminatedQuote = errors.New("unterminated quoted value")

	// ErrEmptyPairList means the verb phrase is not followed by any pair.
	ErrEmptyPairList = errors.New("expected at least one key/value pair")

	// ErrMissingNewline means the pairs are not followed by '\n'.
	ErrMissingNewline = errors.New("missing trailing newline")

	// ErrUnknownVerb means ParseReply found none of the known verb phrases.
	ErrUnknownVerb = errors.New("unknown reply verb")

	// ErrLineTooLong means a line exceeded MaxLineLength before its newline.
	ErrLineTooLong = errors.New("reply line too long")

	// ErrEmptyDestination means a peer line does not start with a destination.
	ErrEmptyDestination = errors.New("missing peer destination")
)

// ParseError reports a reply line that does not match the reply grammar.
//
// Offset is the byte offset into the line where the failing rule started.
// Err is one of the sentinel reasons above.
//
// Connection handling: CLOSE, the control socket is out of sync.
type ParseError struct {
	Verb    Verb   // Expected verb phrase, empty when dispatching on any verb
	Offset  int    // Byte offset into the line
	Message string // Optional detail
	Err     error  // Reason sentinel
}

func (e *ParseError) Error() string {
	msg := "parse error"
	if e.Verb != "" {
		msg += " in " + string(e.Verb)
	}
	msg += fmt.Sprintf(" at offset %d: %v", e.Offset, e.Err)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// Unwrap returns the reason sentinel.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// ShouldCloseConnection returns true - the stream position is unknown
func (e *ParseError) ShouldCloseConnection() bool {
	return true
}

// InvalidOptionError is returned by WriteRequest when an option cannot be
// represented on the wire (whitespace in a key, newline or quote in a value).
//
// Connection handling: nothing was written, the connection is still valid.
type InvalidOptionError struct {
	Key     string
	Message string
}

func (e *InvalidOptionError) Error() string {
	return fmt.Sprintf("invalid option %q: %s", e.Key, e.Message)
}

// ShouldCloseConnection returns false - the request was rejected before writing
func (e *InvalidOptionError) ShouldCloseConnection() bool {
	return false
}

// ConnectionError wraps I/O errors from reading or writing a control socket.
//
// Connection handling: the connection is already broken, CLOSE it.
type ConnectionError struct {
	Op  string // read or write
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection error during %s: %v", e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

func (e *ConnectionError) ShouldCloseConnection() bool {
	return true
}

// ErrorWithConnectionState is implemented by errors that know whether the
// connection they happened on can be reused.
type ErrorWithConnectionState interface {
	error
	ShouldCloseConnection() bool
}

// ShouldCloseConnection reports whether err leaves the connection unusable.
//
// Returns false for nil and for errors that say so (InvalidOptionError, the
// client's ResultError). Unknown errors are treated as fatal.
func ShouldCloseConnection(err error) bool {
	if err == nil {
		return false
	}

	var e ErrorWithConnectionState
	if errors.As(err, &e) {
		return e.ShouldCloseConnection()
	}

	return true
}
