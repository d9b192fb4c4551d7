package reply

import "strings"

// The reply grammar:
//
//	line   = verb " " pairs "\n"
//	pairs  = pair *( sep pair )
//	sep    = 1*( " " / "\t" / "\n" )
//	pair   = key "=" value
//	key    = 1*( ALPHA / DIGIT )
//	value  = DQUOTE *( not DQUOTE ) DQUOTE / *( not sep )
//
// Every rule works on the original line and an offset. Keys and values are
// substrings of the line; no characters are copied.

func isSpace(c byte) bool {
	return c == ' ' || c == '\t'
}

func isNextLine(c byte) bool {
	return c == '\n'
}

func isSpaceOrNextLine(c byte) bool {
	return isSpace(c) || isNextLine(c)
}

func isDoubleQuote(c byte) bool {
	return c == '"'
}

func isAlphanumeric(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9')
}

// isOptionKey also accepts '_', as in FROM_PORT.
func isOptionKey(c byte) bool {
	return isAlphanumeric(c) || c == '_'
}

// takeWhile returns the offset of the first byte at or after pos that does
// not satisfy pred.
func takeWhile(s string, pos int, pred func(byte) bool) int {
	for pos < len(s) && pred(s[pos]) {
		pos++
	}
	return pos
}

// takeTill returns the offset of the first byte at or after pos that
// satisfies stop.
func takeTill(s string, pos int, stop func(byte) bool) int {
	for pos < len(s) && !stop(s[pos]) {
		pos++
	}
	return pos
}

// parser holds the state of one line being parsed.
type parser struct {
	line string
	verb Verb

	// key matches key bytes. Nil means isAlphanumeric.
	key func(byte) bool

	// softErr is the last pair failure after a separator. The list ends
	// before such a separator; if the line then cannot be completed this is
	// the innermost failure to report.
	softErr *ParseError
}

func (p *parser) fail(pos int, reason error, msg string) *ParseError {
	return &ParseError{Verb: p.verb, Offset: pos, Message: msg, Err: reason}
}

// quotedValue parses a value enclosed in double quotes. ok is false when
// there is no opening quote at pos.
func (p *parser) quotedValue(pos int) (value string, next int, ok bool, err error) {
	if pos >= len(p.line) || !isDoubleQuote(p.line[pos]) {
		return "", pos, false, nil
	}

	start := pos + 1
	end := takeTill(p.line, start, isDoubleQuote)
	if end >= len(p.line) {
		return "", pos, true, p.fail(pos, ErrUnterminatedQuote, "")
	}
	return p.line[start:end], end + 1, true, nil
}

// unquotedValue never fails; an empty value is a valid match.
func (p *parser) unquotedValue(pos int) (string, int) {
	end := takeTill(p.line, pos, isSpaceOrNextLine)
	return p.line[pos:end], end
}

func (p *parser) value(pos int) (string, int, error) {
	v, next, ok, err := p.quotedValue(pos)
	if ok {
		return v, next, err
	}
	v, next = p.unquotedValue(pos)
	return v, next, nil
}

func (p *parser) isKey(c byte) bool {
	if p.key != nil {
		return p.key(c)
	}
	return isAlphanumeric(c)
}

func (p *parser) pair(pos int) (Pair, int, error) {
	keyEnd := takeWhile(p.line, pos, p.isKey)
	if keyEnd == pos {
		return Pair{}, pos, p.fail(pos, ErrMalformedPair, "empty key")
	}
	if keyEnd >= len(p.line) || p.line[keyEnd] != '=' {
		return Pair{}, pos, p.fail(keyEnd, ErrMalformedPair, "missing '='")
	}

	v, next, err := p.value(keyEnd + 1)
	if err != nil {
		return Pair{}, pos, err
	}
	return Pair{Key: p.line[pos:keyEnd], Value: v}, next, nil
}

func (p *parser) pairs(pos int) (Pairs, int, error) {
	if end := takeWhile(p.line, pos, isSpace); end >= len(p.line) || isNextLine(p.line[end]) {
		return nil, pos, p.fail(pos, ErrEmptyPairList, "")
	}

	first, next, err := p.pair(pos)
	if err != nil {
		return nil, pos, err
	}

	pairs := Pairs{first}
	pos = next
	for {
		sepEnd := takeWhile(p.line, pos, isSpaceOrNextLine)
		if sepEnd == pos {
			return pairs, pos, nil
		}

		pair, next, err := p.pair(sepEnd)
		if err != nil {
			pe, _ := err.(*ParseError)
			if pe == nil || pe.Err == ErrUnterminatedQuote {
				return nil, pos, err
			}
			if sepEnd < len(p.line) {
				p.softErr = pe
			}
			return pairs, pos, nil
		}

		pairs = append(pairs, pair)
		pos = next
	}
}

func (p *parser) newline(pos int) (int, error) {
	if pos < len(p.line) && isNextLine(p.line[pos]) {
		return pos + 1, nil
	}
	if p.softErr != nil {
		return pos, p.softErr
	}
	return pos, p.fail(pos, ErrMissingNewline, "")
}

func (p *parser) reply() (string, Pairs, error) {
	pos, err := p.prefix()
	if err != nil {
		return p.line, nil, err
	}

	pairs, pos, err := p.pairs(pos)
	if err != nil {
		return p.line, nil, err
	}

	pos, err = p.newline(pos)
	if err != nil {
		return p.line, nil, err
	}

	return p.line[pos:], pairs, nil
}

// prefix matches the verb phrase and its single trailing space.
func (p *parser) prefix() (int, error) {
	n := len(p.verb)
	if !strings.HasPrefix(p.line, string(p.verb)) || len(p.line) <= n || p.line[n] != ' ' {
		return 0, p.fail(0, ErrPrefixMismatch, "expected "+string(p.verb))
	}
	return n + 1, nil
}

// Parse parses one reply line that must start with verb.
//
// line must include its trailing newline. On success rest is the input left
// after that newline (empty for a single line) and pairs holds the key/value
// pairs in wire order. Keys and values are substrings of line.
//
// On failure the error is a *ParseError wrapping ErrPrefixMismatch,
// ErrMalformedPair, ErrUnterminatedQuote, ErrEmptyPairList or
// ErrMissingNewline, and rest is line unchanged.
func Parse(verb Verb, line string) (rest string, pairs Pairs, err error) {
	p := parser{line: line, verb: verb}
	return p.reply()
}

// ParseHelloReply parses a "HELLO REPLY " line.
func ParseHelloReply(line string) (string, Pairs, error) {
	return Parse(VerbHelloReply, line)
}

// ParseSessionStatus parses a "SESSION STATUS " line.
func ParseSessionStatus(line string) (string, Pairs, error) {
	return Parse(VerbSessionStatus, line)
}

// ParseStreamStatus parses a "STREAM STATUS " line.
func ParseStreamStatus(line string) (string, Pairs, error) {
	return Parse(VerbStreamStatus, line)
}

// ParseNamingReply parses a "NAMING REPLY " line.
func ParseNamingReply(line string) (string, Pairs, error) {
	return Parse(VerbNamingReply, line)
}

// ParseDestReply parses a "DEST REPLY " line.
func ParseDestReply(line string) (string, Pairs, error) {
	return Parse(VerbDestReply, line)
}
