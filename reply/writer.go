package reply

import (
	"bufio"
	"bytes"
	"io"
	"strings"
	"sync"
)

// Buffer pool for building requests
var bufferPool = sync.Pool{
	New: func() any {
		// SESSION CREATE with a persistent private key is the largest
		// request, around 1 KiB.
		return bytes.NewBuffer(make([]byte, 0, 1024))
	},
}

func getBuffer() *bytes.Buffer {
	return bufferPool.Get().(*bytes.Buffer)
}

func putBuffer(buf *bytes.Buffer) {
	if buf.Cap() > MaxLineLength {
		return
	}
	buf.Reset()
	bufferPool.Put(buf)
}

// ValidateOption checks that an option can be written on a request line.
//
// Keys must be non-empty and contain no whitespace, '=' or '"'. Values may
// contain spaces (they are quoted) but no newline, and no '"' since the
// protocol has no escape for it.
func ValidateOption(p Pair) error {
	if p.Key == "" {
		return &InvalidOptionError{Key: p.Key, Message: "key is empty"}
	}
	if strings.ContainsAny(p.Key, " \t\r\n=\"") {
		return &InvalidOptionError{Key: p.Key, Message: "key contains whitespace, '=' or '\"'"}
	}
	if strings.ContainsAny(p.Value, "\r\n") {
		return &InvalidOptionError{Key: p.Key, Message: "value contains a line break"}
	}
	if strings.ContainsRune(p.Value, '"') {
		return &InvalidOptionError{Key: p.Key, Message: "value contains a double quote"}
	}
	return nil
}

func needsQuoting(value string) bool {
	return strings.ContainsAny(value, " \t")
}

// WriteRequest serializes req and writes it to w.
// Format: <command> [<key>=<value>]*\n
//
// Values containing spaces or tabs are written in double quotes. Options are
// validated before anything is written, so an *InvalidOptionError leaves the
// connection untouched.
//
// If w is a *bufio.Writer it is flushed.
func WriteRequest(w io.Writer, req *Request) error {
	for _, opt := range req.Options {
		if err := ValidateOption(opt); err != nil {
			return err
		}
	}

	if bw, ok := w.(*bufio.Writer); ok {
		return writeRequestBuffered(bw, req)
	}
	return writeRequestUnbuffered(w, req)
}

type stringWriter interface {
	WriteString(s string) (int, error)
	WriteByte(c byte) error
}

func appendRequest(w stringWriter, req *Request) {
	w.WriteString(string(req.Command))
	for _, opt := range req.Options {
		w.WriteByte(' ')
		w.WriteString(opt.Key)
		w.WriteByte('=')
		if needsQuoting(opt.Value) {
			w.WriteByte('"')
			w.WriteString(opt.Value)
			w.WriteByte('"')
		} else {
			w.WriteString(opt.Value)
		}
	}
	w.WriteByte('\n')
}

// writeRequestBuffered writes using the connection's bufio.Writer.
func writeRequestBuffered(bw *bufio.Writer, req *Request) error {
	appendRequest(bw, req)
	if err := bw.Flush(); err != nil {
		return &ConnectionError{Op: "write", Err: err}
	}
	return nil
}

// writeRequestUnbuffered builds the line in a pooled buffer and writes it
// with a single call.
func writeRequestUnbuffered(w io.Writer, req *Request) error {
	buf := getBuffer()
	defer putBuffer(buf)

	appendRequest(buf, req)
	if _, err := w.Write(buf.Bytes()); err != nil {
		return &ConnectionError{Op: "write", Err: err}
	}
	return nil
}

// FormatRequest returns the wire form of req, without validation.
func FormatRequest(req *Request) string {
	var sb strings.Builder
	appendRequest(&sb, req)
	return sb.String()
}
