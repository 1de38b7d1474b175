package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/robinvdvleuten/ledger/amount"
	"github.com/robinvdvleuten/ledger/expr"
)

func (r *Report) registerFunctions() {
	r.functions = map[string]*expr.Op{
		"int":         expr.WrapFunctor(fnInt),
		"str":         expr.WrapFunctor(fnStr),
		"abs":         expr.WrapFunctor(fnAbs),
		"quantity":    expr.WrapFunctor(fnQuantity),
		"commodity":   expr.WrapFunctor(fnCommodity),
		"scrub":       expr.WrapFunctor(fnScrub),
		"round":       expr.WrapFunctor(fnScrub),
		"roundto":     expr.WrapFunctor(fnRoundTo),
		"truncated":   expr.WrapFunctor(fnTruncated),
		"justify":     expr.WrapFunctor(r.fnJustify),
		"ansify_if":   expr.WrapFunctor(r.fnAnsifyIf),
		"format_date": expr.WrapFunctor(r.fnFormatDate),
		"today":       expr.WrapFunctor(r.fnToday),
		"now":         expr.WrapFunctor(r.fnNow),
		"options":     expr.WrapValue(expr.ScopeValue(optionsScope{r.Options})),
	}
}

func fnInt(call *expr.CallScope) (expr.Value, error) {
	n, err := call.Arg(0).AsInt()
	if err != nil {
		return expr.Null, err
	}
	return expr.IntValue(n), nil
}

func fnStr(call *expr.CallScope) (expr.Value, error) {
	return expr.StringValue(call.Arg(0).AsString()), nil
}

func fnAbs(call *expr.CallScope) (expr.Value, error) {
	v := call.Arg(0)
	switch v.Kind() {
	case expr.Integer:
		if n, _ := v.AsInt(); n < 0 {
			return expr.IntValue(-n), nil
		}
		return v, nil
	case expr.AmountKind:
		a, _ := v.AsAmount()
		return expr.AmountValue(a.Abs()), nil
	case expr.BalanceKind:
		b, _ := v.AsBalance()
		out := amount.NewBalance()
		for _, a := range b.Amounts() {
			out.Add(a.Abs())
		}
		return expr.BalanceValue(out), nil
	}
	return v, nil
}

func fnQuantity(call *expr.CallScope) (expr.Value, error) {
	a, err := call.Arg(0).AsAmount()
	if err != nil {
		return expr.Null, err
	}
	return expr.AmountValue(a.Number()), nil
}

func fnCommodity(call *expr.CallScope) (expr.Value, error) {
	a, err := call.Arg(0).AsAmount()
	if err != nil {
		return expr.Null, err
	}
	return expr.StringValue(a.Symbol()), nil
}

// fnScrub rounds to display precision.
func fnScrub(call *expr.CallScope) (expr.Value, error) {
	return call.Arg(0).Rounded(), nil
}

func fnRoundTo(call *expr.CallScope) (expr.Value, error) {
	places, err := call.Arg(1).AsInt()
	if err != nil {
		return expr.Null, err
	}
	a, err := call.Arg(0).AsAmount()
	if err != nil {
		return expr.Null, err
	}
	return expr.AmountValue(a.RoundTo(int32(places))), nil
}

// fnTruncated is truncated(text, width [, abbrev_len]).
func fnTruncated(call *expr.CallScope) (expr.Value, error) {
	width, err := call.Arg(1).AsInt()
	if err != nil {
		return expr.Null, err
	}
	abbrev, err := call.Arg(2).AsInt()
	if err != nil {
		return expr.Null, err
	}
	return expr.StringValue(Truncate(call.Arg(0).AsString(), int(width), int(abbrev))), nil
}

// Truncate shortens text to width display columns. Account names are first
// abbreviated segment by segment to abbrevLen characters, leaving the last
// segment whole; whatever still does not fit is cut and marked with "..".
func Truncate(text string, width, abbrevLen int) string {
	if width <= 0 || runewidth.StringWidth(text) <= width {
		return text
	}
	if abbrevLen > 0 && strings.Contains(text, ":") {
		parts := strings.Split(text, ":")
		for i := 0; i < len(parts)-1; i++ {
			parts[i] = runewidth.Truncate(parts[i], abbrevLen, "")
			if runewidth.StringWidth(strings.Join(parts, ":")) <= width {
				return strings.Join(parts, ":")
			}
		}
		text = strings.Join(parts, ":")
		if runewidth.StringWidth(text) <= width {
			return text
		}
	}
	return runewidth.Truncate(text, width, "..")
}

type line struct {
	text     string
	negative bool
}

func valueLines(v expr.Value) []line {
	switch v.Kind() {
	case expr.AmountKind:
		a, _ := v.AsAmount()
		return []line{{a.String(), a.Sign() < 0}}
	case expr.BalanceKind:
		b, _ := v.AsBalance()
		amounts := b.Amounts()
		if len(amounts) == 0 {
			return []line{{text: "0"}}
		}
		lines := make([]line, len(amounts))
		for i, a := range amounts {
			lines[i] = line{a.String(), a.Sign() < 0}
		}
		return lines
	case expr.Integer:
		n, _ := v.AsInt()
		return []line{{v.String(), n < 0}}
	case expr.Sequence:
		var lines []line
		for _, item := range v.AsSequence() {
			lines = append(lines, valueLines(item)...)
		}
		return lines
	}
	var lines []line
	for _, s := range strings.Split(v.AsString(), "\n") {
		lines = append(lines, line{text: s})
	}
	return lines
}

// fnJustify is justify(value, first_width [, latter_width, right, colorize]).
// Each line of a multi-line value is padded on its own; lines after the
// first use latter_width when it is not negative.
func (r *Report) fnJustify(call *expr.CallScope) (expr.Value, error) {
	first, err := call.Arg(1).AsInt()
	if err != nil {
		return expr.Null, err
	}
	latter := int64(-1)
	if call.Has(2) {
		if latter, err = call.Arg(2).AsInt(); err != nil {
			return expr.Null, err
		}
	}
	right := call.Arg(3).Truthy()
	colorize := call.Arg(4).Truthy()

	lines := valueLines(call.Arg(0))
	out := make([]string, len(lines))
	for i, l := range lines {
		width := int(first)
		if i > 0 && latter >= 0 {
			width = int(latter)
		}
		text := Justify(l.text, width, right)
		if colorize && l.negative {
			text = r.ansi.Colorize(text, "red")
		}
		out[i] = text
	}
	return expr.StringValue(strings.Join(out, "\n")), nil
}

// Justify pads text to width display columns.
func Justify(text string, width int, right bool) string {
	pad := width - runewidth.StringWidth(text)
	if pad <= 0 {
		return text
	}
	if right {
		return strings.Repeat(" ", pad) + text
	}
	return text + strings.Repeat(" ", pad)
}

// fnAnsifyIf is ansify_if(value, color). A null or empty colour returns
// the value untouched.
func (r *Report) fnAnsifyIf(call *expr.CallScope) (expr.Value, error) {
	v := call.Arg(0)
	color := call.Arg(1)
	if !color.Truthy() || color.Kind() != expr.String {
		return v, nil
	}
	return expr.StringValue(r.ansi.Colorize(v.AsString(), color.AsString())), nil
}

func (r *Report) fnFormatDate(call *expr.CallScope) (expr.Value, error) {
	t, err := call.Arg(0).AsDate()
	if err != nil {
		return expr.Null, err
	}
	layout := r.Options.MustGet("date_format").Str()
	if call.Has(1) {
		layout = call.Arg(1).AsString()
	}
	return expr.StringValue(FormatDate(t, layout)), nil
}

func (r *Report) fnToday(*expr.CallScope) (expr.Value, error) {
	return expr.DateValue(r.today()), nil
}

func (r *Report) fnNow(*expr.CallScope) (expr.Value, error) {
	return expr.DateValue(r.now()), nil
}

func (r *Report) today() time.Time {
	t := r.now()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DefaultDateFormat is used when --date-format is not given.
const DefaultDateFormat = "%Y/%m/%d"

var strftime = map[byte]string{
	'Y': "2006",
	'y': "06",
	'm': "01",
	'd': "02",
	'e': "_2",
	'b': "Jan",
	'h': "Jan",
	'B': "January",
	'a': "Mon",
	'A': "Monday",
	'H': "15",
	'M': "04",
	'S': "05",
	'F': "2006-01-02",
	'D': "01/02/06",
}

// FormatDate renders t with a strftime-style layout such as "%Y-%m-%d".
func FormatDate(t time.Time, layout string) string {
	if layout == "" {
		layout = DefaultDateFormat
	}
	var b strings.Builder
	for i := 0; i < len(layout); i++ {
		if layout[i] != '%' || i+1 == len(layout) {
			b.WriteByte(layout[i])
			continue
		}
		i++
		switch c := layout[i]; c {
		case '%':
			b.WriteByte('%')
		case 'j':
			fmt.Fprintf(&b, "%03d", t.YearDay())
		default:
			if goLayout, ok := strftime[c]; ok {
				b.WriteString(t.Format(goLayout))
			} else {
				b.WriteByte('%')
				b.WriteByte(c)
			}
		}
	}
	return b.String()
}
