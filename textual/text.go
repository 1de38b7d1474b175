package textual

import (
	"strings"

	"github.com/robinvdvleuten/ledger/journal"
)

// splitWord returns the first whitespace-delimited word of s and the
// trimmed remainder.
func splitWord(s string) (string, string) {
	s = strings.TrimSpace(s)
	i := strings.IndexAny(s, " \t")
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimSpace(s[i:])
}

// splitNote separates text from a trailing "; note". The semicolon must
// start the string or follow whitespace.
func splitNote(s string) (string, string) {
	for i := 0; i < len(s); i++ {
		if s[i] == ';' && (i == 0 || s[i-1] == ' ' || s[i-1] == '\t') {
			return strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+1:])
		}
	}
	return strings.TrimSpace(s), ""
}

// splitAccount cuts a posting line after its account name, which ends at a
// tab or at two consecutive spaces.
func splitAccount(s string) (string, string) {
	for i := 0; i < len(s); i++ {
		if s[i] == '\t' || (s[i] == ' ' && i+1 < len(s) && s[i+1] == ' ') {
			return s[:i], strings.TrimSpace(s[i:])
		}
	}
	// a lone note after a single space still ends the name
	if i := strings.Index(s, " ;"); i >= 0 {
		return s[:i], strings.TrimSpace(s[i:])
	}
	return s, ""
}

// splitCost separates "10 AAPL @ $50" into amount and cost text. perUnit is
// false for "@@", which gives the total cost.
func splitCost(s string) (amt, cost string, perUnit bool) {
	start := 0
	if strings.HasPrefix(s, "(") {
		start = matchParen(s)
	}
	i := strings.IndexByte(s[start:], '@')
	if i < 0 {
		return stripLot(s), "", false
	}
	i += start
	amt = stripLot(s[:i])
	if strings.HasPrefix(s[i:], "@@") {
		return amt, strings.TrimSpace(s[i+2:]), false
	}
	return amt, strings.TrimSpace(s[i+1:]), true
}

// stripLot drops a "{lot price}" annotation.
func stripLot(s string) string {
	if i := strings.IndexByte(s, '{'); i >= 0 {
		if j := strings.IndexByte(s[i:], '}'); j >= 0 {
			s = s[:i] + s[i+j+1:]
		}
	}
	if i := strings.IndexByte(s, '='); i >= 0 && !strings.HasPrefix(s, "(") {
		// balance assertions are not checked
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

func matchParen(s string) int {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return len(s)
}

func parseState(s string) (journal.State, string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return journal.Uncleared, s
	}
	switch s[0] {
	case '*':
		return journal.Cleared, strings.TrimSpace(s[1:])
	case '!':
		return journal.Pending, strings.TrimSpace(s[1:])
	}
	return journal.Uncleared, s
}

// parseMetadata reads ":tag1:tag2:" words and a leading "key: value" pair
// from a note.
func parseMetadata(note string, meta journal.Metadata) journal.Metadata {
	fields := strings.Fields(note)
	if len(fields) == 0 {
		return meta
	}
	if meta == nil {
		meta = make(journal.Metadata)
	}

	first := fields[0]
	if len(first) > 1 && first[0] != ':' && strings.HasSuffix(first, ":") {
		key := strings.TrimSuffix(first, ":")
		meta[key] = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(note), first))
		return meta
	}

	for _, f := range fields {
		if len(f) < 3 || f[0] != ':' || f[len(f)-1] != ':' {
			continue
		}
		for _, tag := range strings.Split(f[1:len(f)-1], ":") {
			if tag != "" {
				meta[tag] = ""
			}
		}
	}
	return meta
}

// applyTag adds an "apply tag" value, either "tag" or "key: value".
func applyTag(meta journal.Metadata, tag string) journal.Metadata {
	if meta == nil {
		meta = make(journal.Metadata)
	}
	if key, value, ok := strings.Cut(tag, ":"); ok && key != "" {
		meta[strings.TrimSpace(key)] = strings.TrimSpace(value)
		return meta
	}
	meta[strings.Trim(tag, ":")] = ""
	return meta
}

func joinNote(note, more string) string {
	if note == "" {
		return more
	}
	return note + "\n" + more
}
