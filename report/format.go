package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/robinvdvleuten/ledger/expr"
)

// Format is a compiled report format string. Literal text is copied and
// every %(EXPR) is evaluated in the scope of the record being printed.
//
//	%(expr)      value of expr
//	%20(expr)    right aligned in at least 20 columns
//	%-20(expr)   left aligned
//	%.20(expr)   cut to at most 20 columns
//	%%           a percent sign
//
// Literal text understands the escapes \n, \t and \\.
type Format struct {
	Text     string
	elements []element
}

type element struct {
	literal string
	expr    *expr.Expr
	min     int
	max     int
	left    bool
}

// ParseFormat compiles text.
func ParseFormat(text string, opts ...expr.ParseOption) (*Format, error) {
	f := &Format{Text: text}
	var lit strings.Builder

	flush := func() {
		if lit.Len() > 0 {
			f.elements = append(f.elements, element{literal: lit.String()})
			lit.Reset()
		}
	}

	for i := 0; i < len(text); i++ {
		ch := text[i]
		switch {
		case ch == '\\' && i+1 < len(text):
			i++
			switch text[i] {
			case 'n':
				lit.WriteByte('\n')
			case 't':
				lit.WriteByte('\t')
			default:
				lit.WriteByte(text[i])
			}

		case ch == '%' && i+1 < len(text) && text[i+1] == '%':
			lit.WriteByte('%')
			i++

		case ch == '%':
			el, next, err := parseDirective(text, i+1, opts)
			if err != nil {
				return nil, err
			}
			flush()
			f.elements = append(f.elements, el)
			i = next - 1

		default:
			lit.WriteByte(ch)
		}
	}
	flush()
	return f, nil
}

func parseDirective(text string, i int, opts []expr.ParseOption) (element, int, error) {
	var el element
	if i < len(text) && text[i] == '-' {
		el.left = true
		i++
	}
	start := i
	for i < len(text) && text[i] >= '0' && text[i] <= '9' {
		i++
	}
	if i > start {
		el.min, _ = strconv.Atoi(text[start:i])
	}
	if i < len(text) && text[i] == '.' {
		i++
		start = i
		for i < len(text) && text[i] >= '0' && text[i] <= '9' {
			i++
		}
		el.max, _ = strconv.Atoi(text[start:i])
	}

	if i >= len(text) || text[i] != '(' {
		return el, i, fmt.Errorf("Unrecognized formatting character: %q", strings.TrimSpace(text[start-1:min(i+1, len(text))]))
	}
	end, err := matchingParen(text, i)
	if err != nil {
		return el, i, err
	}
	e, err := expr.Parse(text[i+1:end], opts...)
	if err != nil {
		return el, i, err
	}
	el.expr = e
	return el, end + 1, nil
}

// matchingParen finds the parenthesis closing the one at open, skipping
// quoted strings.
func matchingParen(text string, open int) (int, error) {
	depth := 0
	var quote byte
	for i := open; i < len(text); i++ {
		ch := text[i]
		switch {
		case quote != 0:
			if ch == '\\' {
				i++
			} else if ch == quote {
				quote = 0
			}
		case ch == '"' || ch == '\'':
			quote = ch
		case ch == '(':
			depth++
		case ch == ')':
			depth--
			if depth == 0 {
				return i, nil
			}
		}
	}
	return 0, fmt.Errorf("Missing ')' in format string: %s", text[open:])
}

// Calc renders the format against scope.
func (f *Format) Calc(scope expr.Scope) (string, error) {
	var b strings.Builder
	for _, el := range f.elements {
		if el.expr == nil {
			b.WriteString(el.literal)
			continue
		}
		v, err := el.expr.Calc(scope)
		if err != nil {
			return "", err
		}
		b.WriteString(el.pad(v.AsString()))
	}
	return b.String(), nil
}

func (el element) pad(s string) string {
	if el.max > 0 && runewidth.StringWidth(s) > el.max {
		s = runewidth.Truncate(s, el.max, "")
	}
	if w := runewidth.StringWidth(s); el.min > w {
		if el.left {
			return s + strings.Repeat(" ", el.min-w)
		}
		return strings.Repeat(" ", el.min-w) + s
	}
	return s
}

// SplitFormat divides a format at "%/" into the part used for the first
// record of a group and the part used for the rest. Without "%/" both parts
// are the whole format.
func SplitFormat(text string) (first, rest string) {
	if i := strings.Index(text, "%/"); i >= 0 {
		return text[:i], text[i+2:]
	}
	return text, text
}
