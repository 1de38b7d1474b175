package session

import (
	"strings"
	"unicode"

	"github.com/robinvdvleuten/ledger/errors"
)

// SplitArguments breaks a command line into words. Single and double quotes
// group words; a backslash outside single quotes takes the next character
// literally. Empty words are dropped, so an empty quoted pair yields nothing.
func SplitArguments(line string) ([]string, error) {
	var args []string
	var buf strings.Builder
	var quote rune

	runes := []rune(line)
	for p := 0; p < len(runes); p++ {
		ch := runes[p]
		switch {
		case quote == 0 && unicode.IsSpace(ch):
			if buf.Len() > 0 {
				args = append(args, buf.String())
				buf.Reset()
			}
		case quote != '\'' && ch == '\\':
			p++
			if p == len(runes) {
				return nil, errors.NewLogicError("Invalid use of backslash")
			}
			buf.WriteRune(runes[p])
		case quote != '"' && ch == '\'':
			if quote == '\'' {
				quote = 0
			} else {
				quote = '\''
			}
		case quote != '\'' && ch == '"':
			if quote == '"' {
				quote = 0
			} else {
				quote = '"'
			}
		default:
			buf.WriteRune(ch)
		}
	}

	if quote != 0 {
		return nil, errors.NewLogicError("Unterminated string, expected '%c'", quote)
	}
	if buf.Len() > 0 {
		args = append(args, buf.String())
	}
	return args, nil
}
