package interval

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

var periodWords = map[string]Duration{
	"daily":     {Days, 1},
	"weekly":    {Weeks, 1},
	"biweekly":  {Weeks, 2},
	"monthly":   {Months, 1},
	"bimonthly": {Months, 2},
	"quarterly": {Quarters, 1},
	"yearly":    {Years, 1},
	"annually":  {Years, 1},
}

var quantumWords = map[string]Quantum{
	"day": Days, "days": Days,
	"week": Weeks, "weeks": Weeks,
	"month": Months, "months": Months,
	"quarter": Quarters, "quarters": Quarters,
	"year": Years, "years": Years,
}

// Parse reads a period expression such as "monthly", "every 2 weeks from
// 2024/01/01", "quarterly in 2024" or "yearly since 2020 until 2025".
func Parse(text string) (*Interval, error) {
	words := strings.Fields(strings.ToLower(text))
	if len(words) == 0 {
		return nil, fmt.Errorf("empty period expression")
	}

	iv := &Interval{}
	p := &periodParser{words: words}

	for !p.done() {
		word := p.next()
		switch {
		case word == "every":
			d, err := p.parseEvery()
			if err != nil {
				return nil, err
			}
			iv.Duration = &d

		case isPeriodWord(word):
			d := periodWords[word]
			iv.Duration = &d

		case word == "from" || word == "since":
			begin, _, err := p.parseDateArg(word)
			if err != nil {
				return nil, err
			}
			iv.rangeOf().Begin = &begin

		case word == "to" || word == "until":
			// the end bound is exclusive: "to 2024/04" stops before April
			end, _, err := p.parseDateArg(word)
			if err != nil {
				return nil, err
			}
			iv.rangeOf().End = &end

		case word == "in":
			begin, end, err := p.parseDateArg(word)
			if err != nil {
				return nil, err
			}
			r := iv.rangeOf()
			r.Begin, r.End = &begin, &end

		default:
			begin, end, err := ParseDateSpec(word)
			if err != nil {
				return nil, fmt.Errorf("unexpected %q in period expression %q", word, text)
			}
			r := iv.rangeOf()
			r.Begin, r.End = &begin, &end
		}
	}

	return iv, nil
}

func isPeriodWord(w string) bool {
	_, ok := periodWords[w]
	return ok
}

func (i *Interval) rangeOf() *Range {
	if i.Range == nil {
		i.Range = &Range{}
	}
	return i.Range
}

type periodParser struct {
	words []string
	pos   int
}

func (p *periodParser) done() bool {
	return p.pos >= len(p.words)
}

func (p *periodParser) next() string {
	w := p.words[p.pos]
	p.pos++
	return w
}

func (p *periodParser) parseEvery() (Duration, error) {
	if p.done() {
		return Duration{}, fmt.Errorf("expected a period after 'every'")
	}
	length := 1
	word := p.next()
	if n, err := strconv.Atoi(word); err == nil {
		if n <= 0 {
			return Duration{}, fmt.Errorf("invalid period length %d", n)
		}
		length = n
		if p.done() {
			return Duration{}, fmt.Errorf("expected a unit after 'every %d'", n)
		}
		word = p.next()
	}
	q, ok := quantumWords[word]
	if !ok {
		return Duration{}, fmt.Errorf("unknown period unit %q", word)
	}
	return Duration{Quantum: q, Length: length}, nil
}

func (p *periodParser) parseDateArg(keyword string) (time.Time, time.Time, error) {
	if p.done() {
		return time.Time{}, time.Time{}, fmt.Errorf("expected a date after '%s'", keyword)
	}
	return ParseDateSpec(p.next())
}

// ParseDateSpec reads "2024", "2024/03" or "2024/03/15" (also with '-' or
// '.' separators) and returns the covered range [begin, end).
func ParseDateSpec(s string) (time.Time, time.Time, error) {
	parts := splitDate(s)
	nums := make([]int, len(parts))
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid date %q", s)
		}
		nums[i] = n
	}

	switch len(nums) {
	case 1:
		if nums[0] < 1000 {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid year %q", s)
		}
		begin := Date(nums[0], time.January, 1)
		return begin, begin.AddDate(1, 0, 0), nil
	case 2:
		if err := checkMonth(nums[1], s); err != nil {
			return time.Time{}, time.Time{}, err
		}
		begin := Date(nums[0], time.Month(nums[1]), 1)
		return begin, begin.AddDate(0, 1, 0), nil
	case 3:
		begin, err := buildDate(nums[0], nums[1], nums[2], s)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		return begin, begin.AddDate(0, 0, 1), nil
	default:
		return time.Time{}, time.Time{}, fmt.Errorf("invalid date %q", s)
	}
}

// ParseDate reads a transaction date. "MM/DD" uses the supplied default year.
func ParseDate(s string, defaultYear int) (time.Time, error) {
	parts := splitDate(s)
	nums := make([]int, len(parts))
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid date %q", s)
		}
		nums[i] = n
	}

	switch len(nums) {
	case 3:
		return buildDate(nums[0], nums[1], nums[2], s)
	case 2:
		if defaultYear == 0 {
			return time.Time{}, fmt.Errorf("date %q lacks a year", s)
		}
		return buildDate(defaultYear, nums[0], nums[1], s)
	default:
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
}

func splitDate(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == '/' || r == '-' || r == '.'
	})
}

func checkMonth(m int, s string) error {
	if m < 1 || m > 12 {
		return fmt.Errorf("invalid month in date %q", s)
	}
	return nil
}

func buildDate(y, m, d int, s string) (time.Time, error) {
	if err := checkMonth(m, s); err != nil {
		return time.Time{}, err
	}
	t := Date(y, time.Month(m), d)
	if t.Day() != d {
		return time.Time{}, fmt.Errorf("invalid day in date %q", s)
	}
	return t, nil
}
