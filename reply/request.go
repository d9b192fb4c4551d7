package reply

import "strconv"

// Request is a command line sent to the bridge.
// Options are written in order after the command phrase.
type Request struct {
	Command Command
	Options Pairs
}

// NewRequest creates a request with the given options.
func NewRequest(cmd Command, opts ...Pair) *Request {
	return &Request{Command: cmd, Options: opts}
}

// Add appends an option.
func (r *Request) Add(key, value string) {
	r.Options = append(r.Options, Pair{Key: key, Value: value})
}

// NewHelloRequest creates the version handshake request.
//
// Wire format: HELLO VERSION MIN=<min> MAX=<max>\n
func NewHelloRequest(minVersion, maxVersion string) *Request {
	return NewRequest(CmdHelloVersion,
		Pair{Key: KeyMin, Value: minVersion},
		Pair{Key: KeyMax, Value: maxVersion},
	)
}

// NewSessionCreateRequest creates a session.
// destination is a private key or DestinationTransient.
//
// Wire format: SESSION CREATE STYLE=<style> ID=<id> DESTINATION=<dest> [opts]\n
func NewSessionCreateRequest(style, id, destination string, opts ...Pair) *Request {
	req := NewRequest(CmdSessionCreate,
		Pair{Key: KeyStyle, Value: style},
		Pair{Key: KeyID, Value: id},
		Pair{Key: KeyDestination, Value: destination},
	)
	req.Options = append(req.Options, opts...)
	return req
}

// NewStreamConnectRequest opens a stream to destination on the session id.
//
// Wire format: STREAM CONNECT ID=<id> DESTINATION=<dest> SILENT=<bool>\n
func NewStreamConnectRequest(id, destination string, silent bool) *Request {
	return NewRequest(CmdStreamConnect,
		Pair{Key: KeyID, Value: id},
		Pair{Key: KeyDestination, Value: destination},
		Pair{Key: KeySilent, Value: strconv.FormatBool(silent)},
	)
}

// NewStreamAcceptRequest waits for an incoming stream on the session id.
//
// Wire format: STREAM ACCEPT ID=<id> SILENT=<bool>\n
func NewStreamAcceptRequest(id string, silent bool) *Request {
	return NewRequest(CmdStreamAccept,
		Pair{Key: KeyID, Value: id},
		Pair{Key: KeySilent, Value: strconv.FormatBool(silent)},
	)
}

// NewNamingLookupRequest resolves a name (host.i2p, b32 address or "ME").
//
// Wire format: NAMING LOOKUP NAME=<name>\n
func NewNamingLookupRequest(name string) *Request {
	return NewRequest(CmdNamingLookup, Pair{Key: KeyName, Value: name})
}

// NewDestGenerateRequest generates a new destination key pair.
// A negative sigType omits SIGNATURE_TYPE and lets the bridge pick.
//
// Wire format: DEST GENERATE [SIGNATURE_TYPE=<n>]\n
func NewDestGenerateRequest(sigType int) *Request {
	req := NewRequest(CmdDestGenerate)
	if sigType >= 0 {
		req.Add(KeySignatureType, strconv.Itoa(sigType))
	}
	return req
}
