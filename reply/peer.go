package reply

// ParsePeerLine parses the line a bridge writes on an accepted stream before
// the peer's data:
//
//	<destination>[ FROM_PORT=<n> TO_PORT=<n>]\n
//
// Bridges before 3.2 send the destination alone. Option keys may contain
// '_', unlike reply keys. The destination and pairs
// are substrings of line; rest is the input after the newline, which is
// already stream data.
func ParsePeerLine(line string) (destination string, pairs Pairs, rest string, err error) {
	p := parser{line: line, key: isOptionKey}

	end := takeTill(line, 0, isSpaceOrNextLine)
	if end == 0 {
		return "", nil, line, p.fail(0, ErrEmptyDestination, "")
	}
	destination = line[:end]

	// Ports are optional; trailing blanks alone are accepted.
	pos := takeWhile(line, end, isSpace)
	if pos > end && pos < len(line) && !isNextLine(line[pos]) {
		pairs, pos, err = p.pairs(end + 1)
		if err != nil {
			return "", nil, line, err
		}
	}

	pos, err = p.newline(pos)
	if err != nil {
		return "", nil, line, err
	}
	return destination, pairs, line[pos:], nil
}
