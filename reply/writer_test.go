package reply

import (
	"bufio"
	"bytes"
	"errors"
	"testing"
)

func TestWriteRequest(t *testing.T) {
	tests := []struct {
		name     string
		req      *Request
		expected string
	}{
		{
			name:     "hello",
			req:      NewHelloRequest(MinVersion, MaxVersion),
			expected: "HELLO VERSION MIN=3.0 MAX=3.3\n",
		},
		{
			name:     "session create transient",
			req:      NewSessionCreateRequest(StyleStream, "app1", DestinationTransient),
			expected: "SESSION CREATE STYLE=STREAM ID=app1 DESTINATION=TRANSIENT\n",
		},
		{
			name: "session create with options",
			req: NewSessionCreateRequest(StyleStream, "app1", DestinationTransient,
				Pair{Key: KeySignatureType, Value: "7"},
				Pair{Key: "inbound.length", Value: "2"},
			),
			expected: "SESSION CREATE STYLE=STREAM ID=app1 DESTINATION=TRANSIENT SIGNATURE_TYPE=7 inbound.length=2\n",
		},
		{
			name:     "stream connect",
			req:      NewStreamConnectRequest("app1", "abc.b32.i2p", false),
			expected: "STREAM CONNECT ID=app1 DESTINATION=abc.b32.i2p SILENT=false\n",
		},
		{
			name:     "stream accept silent",
			req:      NewStreamAcceptRequest("app1", true),
			expected: "STREAM ACCEPT ID=app1 SILENT=true\n",
		},
		{
			name:     "naming lookup",
			req:      NewNamingLookupRequest("example.i2p"),
			expected: "NAMING LOOKUP NAME=example.i2p\n",
		},
		{
			name:     "dest generate",
			req:      NewDestGenerateRequest(7),
			expected: "DEST GENERATE SIGNATURE_TYPE=7\n",
		},
		{
			name:     "dest generate default type",
			req:      NewDestGenerateRequest(-1),
			expected: "DEST GENERATE\n",
		},
		{
			name:     "value with spaces is quoted",
			req:      NewRequest(CmdSessionCreate, Pair{Key: "MESSAGE", Value: "hello world"}),
			expected: "SESSION CREATE MESSAGE=\"hello world\"\n",
		},
		{
			name:     "empty value",
			req:      NewRequest(CmdNamingLookup, Pair{Key: "NAME", Value: ""}),
			expected: "NAMING LOOKUP NAME=\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := WriteRequest(&buf, tt.req); err != nil {
				t.Fatalf("WriteRequest failed: %v", err)
			}
			if got := buf.String(); got != tt.expected {
				t.Errorf("WriteRequest() = %q, want %q", got, tt.expected)
			}

			// Same bytes through the buffered path
			var out bytes.Buffer
			bw := bufio.NewWriter(&out)
			if err := WriteRequest(bw, tt.req); err != nil {
				t.Fatalf("WriteRequest (buffered) failed: %v", err)
			}
			if got := out.String(); got != tt.expected {
				t.Errorf("WriteRequest (buffered) = %q, want %q", got, tt.expected)
			}

			if got := FormatRequest(tt.req); got != tt.expected {
				t.Errorf("FormatRequest() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestWriteRequestInvalidOption(t *testing.T) {
	tests := []struct {
		name string
		opt  Pair
	}{
		{"empty key", Pair{Key: "", Value: "x"}},
		{"space in key", Pair{Key: "A B", Value: "x"}},
		{"equals in key", Pair{Key: "A=B", Value: "x"}},
		{"newline in value", Pair{Key: "NAME", Value: "a\nb"}},
		{"carriage return in value", Pair{Key: "NAME", Value: "a\rb"}},
		{"quote in value", Pair{Key: "NAME", Value: "a\"b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := WriteRequest(&buf, NewRequest(CmdNamingLookup, tt.opt))

			var ioe *InvalidOptionError
			if !errors.As(err, &ioe) {
				t.Fatalf("err = %v, want *InvalidOptionError", err)
			}
			if ShouldCloseConnection(err) {
				t.Error("invalid options must not close the connection")
			}
			if buf.Len() != 0 {
				t.Errorf("wrote %q before rejecting the request", buf.String())
			}
		})
	}
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) {
	return 0, errors.New("broken pipe")
}

func TestWriteRequestWriteError(t *testing.T) {
	err := WriteRequest(failingWriter{}, NewHelloRequest(MinVersion, MaxVersion))

	var ce *ConnectionError
	if !errors.As(err, &ce) || ce.Op != "write" {
		t.Fatalf("err = %v, want write *ConnectionError", err)
	}
}

func TestRequestRoundTripThroughParser(t *testing.T) {
	// A request's option list uses the same pair grammar as replies.
	req := NewRequest(CmdNamingLookup,
		Pair{Key: "NAME", Value: "example.i2p"},
		Pair{Key: "MESSAGE", Value: "with spaces"},
	)
	line := FormatRequest(req)

	_, pairs, err := Parse(Verb(CmdNamingLookup), line)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if pairs.Get("NAME") != "example.i2p" || pairs.Get("MESSAGE") != "with spaces" {
		t.Errorf("pairs = %v", pairs)
	}
}
