// Package query compiles select statements such as
//
//	select date, payee, amount from posts where account =~ /Food/
//
// into report options and a column format, then runs the matching report.
package query

import (
	"strings"
	"unicode"
)

// Clause is one keyword of a statement with its argument text.
type Clause struct {
	Keyword string
	Arg     string
}

var clauseKeywords = []string{"select", "from", "where", "display", "collect", "group", "style"}

// Tokenize splits a statement into clauses. A clause starts at a keyword
// followed by whitespace; its argument runs to the next keyword other than
// "select" that is surrounded by whitespace, or to the end of the text.
// Text that does not start a clause is skipped.
func Tokenize(text string) []Clause {
	var clauses []Clause
	for i := 0; i < len(text); {
		kw, start, ok := keywordAt(text, i, true)
		if !ok || start >= len(text) {
			i++
			continue
		}

		end := len(text)
		for j := start + 1; j < len(text); j++ {
			if isTerminator(text, j) {
				end = j
				break
			}
		}
		clauses = append(clauses, Clause{Keyword: kw, Arg: text[start:end]})
		i = end
	}
	return clauses
}

// keywordAt matches a clause keyword plus trailing whitespace at i and
// returns the keyword and where its argument starts. "group by" may be
// split by any whitespace and is returned as "group by".
func keywordAt(text string, i int, allowSelect bool) (string, int, bool) {
	for _, kw := range clauseKeywords {
		if kw == "select" && !allowSelect {
			continue
		}
		if !strings.HasPrefix(text[i:], kw) {
			continue
		}
		j := skipSpace(text, i+len(kw))
		if j == i+len(kw) {
			continue
		}
		if kw == "group" {
			if !strings.HasPrefix(text[j:], "by") {
				continue
			}
			k := skipSpace(text, j+2)
			if k == j+2 {
				continue
			}
			return "group by", k, true
		}
		return kw, j, true
	}
	return "", 0, false
}

// isTerminator reports whether whitespace at j introduces the next clause.
func isTerminator(text string, j int) bool {
	k := skipSpace(text, j)
	if k == j || k >= len(text) {
		return false
	}
	_, _, ok := keywordAt(text, k, false)
	return ok
}

func skipSpace(text string, i int) int {
	for i < len(text) && unicode.IsSpace(rune(text[i])) {
		i++
	}
	return i
}

// SelectsAccounts reports whether the statement selects from accounts.
func SelectsAccounts(text string) bool {
	for i := 0; i < len(text); i++ {
		if !strings.HasPrefix(text[i:], "from") {
			continue
		}
		j := skipSpace(text, i+4)
		if j == i+4 || !strings.HasPrefix(text[j:], "accounts") {
			continue
		}
		k := j + len("accounts")
		if k == len(text) || !isWordChar(text[k]) {
			return true
		}
	}
	return false
}

func isWordChar(c byte) bool {
	return c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}
