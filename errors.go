package sam

import (
	"errors"
	"fmt"

	"github.com/pior/sam/reply"
)

var (
	ErrClientClosed   = errors.New("sam: client closed")
	ErrPoolClosed     = errors.New("sam: pool closed")
	ErrNoBridges      = errors.New("sam: no bridges available")
	ErrUnknownCommand = errors.New("sam: command has no reply verb")
	ErrSessionClosed  = errors.New("sam: session closed")
	ErrNotStream      = errors.New("sam: session style is not STREAM")
)

// ResultError is returned when the bridge answers with a RESULT other than OK.
// The reply itself was well-formed.
//
// Connection handling: the control connection stays in sync and can be REUSED.
type ResultError struct {
	Verb    reply.Verb
	Result  string
	Message string
}

func (e *ResultError) Error() string {
	msg := fmt.Sprintf("sam: %s RESULT=%s", e.Verb, e.Result)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// ShouldCloseConnection returns false - the bridge answered in protocol
func (e *ResultError) ShouldCloseConnection() bool {
	return false
}

// newResultError builds a ResultError from a non-OK reply.
func newResultError(rep *reply.Reply) *ResultError {
	return &ResultError{
		Verb:    rep.Verb,
		Result:  rep.Result(),
		Message: rep.Message(),
	}
}

// IsResult reports whether err is a ResultError with the given RESULT code.
func IsResult(err error, result string) bool {
	var re *ResultError
	return errors.As(err, &re) && re.Result == result
}
