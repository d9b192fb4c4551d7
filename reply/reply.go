package reply

import "strings"

// Pair is one key=value token of a reply line.
// Both fields are substrings of the parsed line.
type Pair struct {
	Key   string
	Value string
}

// Pairs is the ordered key/value list of a reply line.
// Duplicate keys are kept in wire order.
type Pairs []Pair

// Lookup returns the value of the first pair with the given key.
//
// ok reports whether the key is present, which is the only way to tell an
// empty value (KEY=) from a missing key.
func (ps Pairs) Lookup(key string) (value string, ok bool) {
	for _, p := range ps {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

// Get returns the value of the first pair with the given key, or "".
func (ps Pairs) Get(key string) string {
	v, _ := ps.Lookup(key)
	return v
}

// Has reports whether a pair with the given key is present.
func (ps Pairs) Has(key string) bool {
	_, ok := ps.Lookup(key)
	return ok
}

// Clone returns a copy whose keys and values no longer share memory with
// the parsed line. Use it to keep a few values from a large buffer.
func (ps Pairs) Clone() Pairs {
	if ps == nil {
		return nil
	}
	out := make(Pairs, len(ps))
	for i, p := range ps {
		out[i] = Pair{Key: strings.Clone(p.Key), Value: strings.Clone(p.Value)}
	}
	return out
}

// Map returns the pairs as a map. For duplicate keys the first one wins,
// matching Lookup.
func (ps Pairs) Map() map[string]string {
	m := make(map[string]string, len(ps))
	for _, p := range ps {
		if _, exists := m[p.Key]; !exists {
			m[p.Key] = p.Value
		}
	}
	return m
}

// Reply is a parsed reply line.
type Reply struct {
	Verb  Verb
	Pairs Pairs
}

// Result returns the RESULT value. Some replies, like DEST REPLY, carry no
// RESULT at all.
func (r *Reply) Result() string {
	return r.Pairs.Get(KeyResult)
}

// Message returns the optional human-readable MESSAGE value.
func (r *Reply) Message() string {
	return r.Pairs.Get(KeyMessage)
}

// IsOK returns true if the reply has RESULT=OK, or has no RESULT key.
func (r *Reply) IsOK() bool {
	result, ok := r.Pairs.Lookup(KeyResult)
	return !ok || result == ResultOK
}

// Get returns the value for key, or "".
func (r *Reply) Get(key string) string {
	return r.Pairs.Get(key)
}

// DetectVerb returns the verb phrase line starts with.
// ok is false if the line starts with none of Verbs.
func DetectVerb(line string) (verb Verb, ok bool) {
	for _, v := range Verbs {
		n := len(v)
		if len(line) > n && line[n] == ' ' && strings.HasPrefix(line, string(v)) {
			return v, true
		}
	}
	return "", false
}

// ParseReply peeks at the verb phrase of line and parses it with the
// matching entry point. rest is the input left after the line's newline.
func ParseReply(line string) (*Reply, string, error) {
	verb, ok := DetectVerb(line)
	if !ok {
		return nil, line, &ParseError{Offset: 0, Err: ErrUnknownVerb}
	}

	rest, pairs, err := Parse(verb, line)
	if err != nil {
		return nil, line, err
	}
	return &Reply{Verb: verb, Pairs: pairs}, rest, nil
}
