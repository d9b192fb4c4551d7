package reply

// Verb is the fixed phrase that starts a reply line, without its trailing space.
//
// On the wire the phrase is always followed by exactly one space and then the
// key/value list, e.g. "HELLO REPLY RESULT=OK VERSION=3.1\n".
type Verb string

// Reply verb phrases sent by the bridge.
const (
	// VerbHelloReply answers HELLO VERSION.
	//
	// Wire format: HELLO REPLY RESULT=OK VERSION=<version>\n
	//
	// Results: OK, NOVERSION, I2P_ERROR (with MESSAGE)
	VerbHelloReply Verb = "HELLO REPLY"

	// VerbSessionStatus answers SESSION CREATE.
	//
	// Wire format: SESSION STATUS RESULT=OK DESTINATION=<privkey>\n
	//
	// Results: OK, DUPLICATED_ID, DUPLICATED_DEST, INVALID_ID, INVALID_KEY,
	// I2P_ERROR (with MESSAGE)
	VerbSessionStatus Verb = "SESSION STATUS"

	// VerbStreamStatus answers STREAM CONNECT, STREAM ACCEPT and STREAM FORWARD.
	//
	// Wire format: STREAM STATUS RESULT=OK\n
	//
	// Results: OK, CANT_REACH_PEER, I2P_ERROR, INVALID_KEY, INVALID_ID,
	// TIMEOUT, ALREADY_ACCEPTING
	VerbStreamStatus Verb = "STREAM STATUS"

	// VerbNamingReply answers NAMING LOOKUP.
	//
	// Wire format: NAMING REPLY RESULT=OK NAME=<name> VALUE=<destination>\n
	//
	// Results: OK, INVALID_KEY, KEY_NOT_FOUND
	VerbNamingReply Verb = "NAMING REPLY"

	// VerbDestReply answers DEST GENERATE.
	//
	// Wire format: DEST REPLY PUB=<destination> PRIV=<privkey>\n
	VerbDestReply Verb = "DEST REPLY"
)

// Verbs lists every reply verb phrase understood by ParseReply.
var Verbs = []Verb{
	VerbHelloReply,
	VerbSessionStatus,
	VerbStreamStatus,
	VerbNamingReply,
	VerbDestReply,
}

// Command is the verb phrase that starts a request line.
type Command string

// Request commands sent to the bridge.
const (
	CmdHelloVersion  Command = "HELLO VERSION"
	CmdSessionCreate Command = "SESSION CREATE"
	CmdStreamConnect Command = "STREAM CONNECT"
	CmdStreamAccept  Command = "STREAM ACCEPT"
	CmdNamingLookup  Command = "NAMING LOOKUP"
	CmdDestGenerate  Command = "DEST GENERATE"
)

// Reply returns the verb phrase of the reply the bridge sends for c.
func (c Command) Reply() Verb {
	switch c {
	case CmdHelloVersion:
		return VerbHelloReply
	case CmdSessionCreate:
		return VerbSessionStatus
	case CmdStreamConnect, CmdStreamAccept:
		return VerbStreamStatus
	case CmdNamingLookup:
		return VerbNamingReply
	case CmdDestGenerate:
		return VerbDestReply
	default:
		return ""
	}
}

// Well-known keys.
const (
	KeyResult      = "RESULT"
	KeyMessage     = "MESSAGE"
	KeyVersion     = "VERSION"
	KeyDestination = "DESTINATION"
	KeyName        = "NAME"
	KeyValue       = "VALUE"
	KeyPub         = "PUB"
	KeyPriv        = "PRIV"
	KeyMin         = "MIN"
	KeyMax         = "MAX"
	KeyStyle       = "STYLE"
	KeyID          = "ID"
	KeySilent      = "SILENT"

	KeySignatureType = "SIGNATURE_TYPE"
	KeyFromPort      = "FROM_PORT"
	KeyToPort        = "TO_PORT"
)

// RESULT codes.
const (
	ResultOK               = "OK"
	ResultAlreadyAccepting = "ALREADY_ACCEPTING"
	ResultCantReachPeer    = "CANT_REACH_PEER"
	ResultDuplicatedDest   = "DUPLICATED_DEST"
	ResultDuplicatedID     = "DUPLICATED_ID"
	ResultI2PError         = "I2P_ERROR"
	ResultInvalidKey       = "INVALID_KEY"
	ResultInvalidID        = "INVALID_ID"
	ResultKeyNotFound      = "KEY_NOT_FOUND"
	ResultPeerNotFound     = "PEER_NOT_FOUND"
	ResultTimeout          = "TIMEOUT"
	ResultNoVersion        = "NOVERSION"
)

// Session styles for SESSION CREATE.
const (
	StyleStream   = "STREAM"
	StyleDatagram = "DATAGRAM"
	StyleRaw      = "RAW"
)

// DestinationTransient asks the bridge to generate a throwaway destination
// for SESSION CREATE.
const DestinationTransient = "TRANSIENT"

// Protocol versions and ports
const (
	MinVersion = "3.0"
	MaxVersion = "3.3"

	DefaultPort = 7656
)

// MaxLineLength bounds a single reply line. Private keys in DEST REPLY and
// SESSION STATUS lines are well under 1 KiB; anything near this limit is not
// a SAM reply.
const MaxLineLength = 64 * 1024
