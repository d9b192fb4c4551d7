package reply

import (
	"bufio"
	"io"
)

// ReadLine reads one line from r, including its trailing newline.
//
// Lines longer than MaxLineLength return a *ParseError wrapping
// ErrLineTooLong. io.EOF is returned unchanged when the bridge closed the
// connection between lines; any other read failure is a *ConnectionError.
func ReadLine(r *bufio.Reader) (string, error) {
	// ReadSlice avoids an intermediate allocation for lines that fit the
	// buffer; the string conversion is the only copy.
	line, err := r.ReadSlice('\n')
	if err == nil {
		return string(line), nil
	}
	if err != bufio.ErrBufferFull {
		return "", readError(line, err)
	}

	buf := append([]byte(nil), line...)
	for {
		if len(buf) > MaxLineLength {
			return "", &ParseError{Offset: MaxLineLength, Err: ErrLineTooLong}
		}
		line, err = r.ReadSlice('\n')
		buf = append(buf, line...)
		if err == nil {
			if len(buf) > MaxLineLength {
				return "", &ParseError{Offset: MaxLineLength, Err: ErrLineTooLong}
			}
			return string(buf), nil
		}
		if err != bufio.ErrBufferFull {
			return "", readError(buf, err)
		}
	}
}

func readError(partial []byte, err error) error {
	if err == io.EOF && len(partial) == 0 {
		return io.EOF
	}
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return &ConnectionError{Op: "read", Err: err}
}

// ReadReply reads one line from r and parses it as a verb reply.
func ReadReply(r *bufio.Reader, verb Verb) (*Reply, error) {
	line, err := ReadLine(r)
	if err != nil {
		return nil, err
	}

	_, pairs, err := Parse(verb, line)
	if err != nil {
		return nil, err
	}
	return &Reply{Verb: verb, Pairs: pairs}, nil
}

// ReadAnyReply reads one line from r and parses it with whichever verb
// phrase it starts with.
func ReadAnyReply(r *bufio.Reader) (*Reply, error) {
	line, err := ReadLine(r)
	if err != nil {
		return nil, err
	}

	rep, _, err := ParseReply(line)
	return rep, err
}
