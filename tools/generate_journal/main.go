// Large Journal Generator
//
// This tool generates a large ledger journal for performance testing and
// profiling. It writes realistic transactions that exercise costs, notes,
// tags, metadata and periodic budgets, so the reader and the report
// pipeline are stressed the way real journals stress them.
//
// Usage:
//
//	go run ./tools/generate_journal > large.ledger
//	go run ./tools/generate_journal 20000000 > large.ledger  # Specify target size in bytes
package main

import (
	"bufio"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

const defaultTargetSize = 10 * 1024 * 1024

var (
	expenses = []string{
		"Expenses:Food:Groceries",
		"Expenses:Food:Restaurant",
		"Expenses:Housing:Utilities",
		"Expenses:Transport:Gas",
		"Expenses:Transport:Transit",
		"Expenses:Shopping:Clothing",
		"Expenses:Shopping:Electronics",
		"Expenses:Entertainment:Movies",
		"Expenses:Healthcare:Medical",
	}

	funding = []string{
		"Assets:Bank:Checking",
		"Liabilities:CreditCard:Visa",
		"Liabilities:CreditCard:Amex",
	}

	payees = []string{
		"Whole Foods", "Safeway", "Trader Joe's", "Costco",
		"Shell Gas", "Chevron", "BART", "Uber",
		"PG&E", "Comcast", "Amazon", "Target",
		"Best Buy", "Netflix", "AMC Theaters",
	}

	tags       = []string{"personal", "business", "vacation", "reimbursable"}
	currencies = []string{"EUR", "GBP", "CAD"}
	stocks     = []string{"AAPL", "MSFT", "GOOGL", "VTI", "VXUS"}
)

// stats counts what generate wrote.
type stats struct {
	Bytes int
	Xacts int
}

// writer tracks the bytes written to the journal.
type writer struct {
	w *bufio.Writer
	n int
}

func (w *writer) printf(format string, args ...any) {
	n, _ := fmt.Fprintf(w.w, format, args...)
	w.n += n
}

func main() {
	targetSize := defaultTargetSize
	if len(os.Args) > 1 {
		if size, err := strconv.Atoi(os.Args[1]); err == nil {
			targetSize = size
		}
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	st, err := generate(os.Stdout, rng, targetSize)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "\nGenerated %d bytes with %d transactions\n", st.Bytes, st.Xacts)
}

// generate writes transactions to out until at least target bytes were
// written.
func generate(out io.Writer, rng *rand.Rand, target int) (stats, error) {
	w := &writer{w: bufio.NewWriter(out)}
	g := &generator{rng: rng, w: w}

	g.header()

	date := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	xacts := 0
	for w.n < target {
		switch rng.Intn(10) {
		case 0, 1, 2:
			g.simple(date)
		case 3, 4:
			g.withMetadata(date)
		case 5, 6:
			g.investment(date)
		case 7:
			g.exchange(date)
		case 8:
			g.split(date)
		case 9:
			g.salary(date)
		}
		xacts++
		date = date.AddDate(0, 0, rng.Intn(5)+1)
	}

	if err := w.w.Flush(); err != nil {
		return stats{}, err
	}
	return stats{Bytes: w.n, Xacts: xacts}, nil
}

type generator struct {
	rng *rand.Rand
	w   *writer
}

func (g *generator) header() {
	g.w.printf("; Large journal for performance testing\n\n")
	for _, c := range append([]string{"$"}, stocks...) {
		g.w.printf("commodity %s\n", c)
	}
	g.w.printf("\n~ Monthly\n")
	g.w.printf("    Expenses:Food:Groceries    $400.00\n")
	g.w.printf("    Expenses:Transport:Gas     $120.00\n")
	g.w.printf("    Assets:Bank:Checking\n\n")
}

func (g *generator) pick(xs []string) string {
	return xs[g.rng.Intn(len(xs))]
}

// amount returns a random quantity between lo and hi with two decimals.
func (g *generator) amount(lo, hi int64) decimal.Decimal {
	cents := lo*100 + g.rng.Int63n((hi-lo)*100)
	return decimal.New(cents, -2)
}

func dollars(d decimal.Decimal) string {
	if d.IsNegative() {
		return "$-" + d.Neg().StringFixed(2)
	}
	return "$" + d.StringFixed(2)
}

func day(t time.Time) string {
	return t.Format("2006/01/02")
}

func (g *generator) simple(date time.Time) {
	g.w.printf("%s * %s\n", day(date), g.pick(payees))
	g.w.printf("    %-36s  %s\n", g.pick(expenses), dollars(g.amount(10, 500)))
	g.w.printf("    %s\n\n", g.pick(funding))
}

func (g *generator) withMetadata(date time.Time) {
	g.w.printf("%s (%d) %s  ; :%s:\n", day(date), g.rng.Intn(10000), g.pick(payees), g.pick(tags))
	g.w.printf("    ; Invoice: INV-%d\n", g.rng.Intn(10000))
	g.w.printf("    %-36s  %s  ; Purchase from vendor\n", g.pick(expenses), dollars(g.amount(50, 1000)))
	g.w.printf("    %s\n\n", g.pick(funding))
}

func (g *generator) investment(date time.Time) {
	stock := g.pick(stocks)
	shares := decimal.NewFromInt(g.rng.Int63n(50) + 1)
	price := g.amount(50, 500)
	commission := decimal.New(999, -2)
	total := shares.Mul(price).Add(commission)

	g.w.printf("%s * Buy %s\n", day(date), stock)
	g.w.printf("    Assets:Brokerage:%-18s  %s %s @ %s\n", stock, shares, stock, dollars(price))
	g.w.printf("    %-36s  %s\n", "Expenses:Commissions", dollars(commission))
	g.w.printf("    %-36s  %s\n\n", "Assets:Brokerage:Cash", dollars(total.Neg()))
}

func (g *generator) exchange(date time.Time) {
	currency := g.pick(currencies)
	units := g.amount(100, 2000)
	rate := g.amount(1, 2)

	g.w.printf("%s * Currency exchange\n", day(date))
	g.w.printf("    %-36s  %s %s @@ %s\n", "Assets:Bank:"+currency, units.StringFixed(2), currency, dollars(units.Mul(rate).Round(2)))
	g.w.printf("    Assets:Bank:Checking\n\n")
}

func (g *generator) split(date time.Time) {
	g.w.printf("%s ! %s\n", day(date), g.pick(payees))
	g.w.printf("    ; :%s:\n", g.pick(tags))
	for i := 0; i < 3; i++ {
		g.w.printf("    %-36s  %s\n", g.pick(expenses), dollars(g.amount(20, 200)))
	}
	g.w.printf("    (Budget:Tracked)  %s\n", dollars(g.amount(1, 10)))
	g.w.printf("    Assets:Bank:Checking\n\n")
}

func (g *generator) salary(date time.Time) {
	gross := g.amount(3000, 6000)
	tax := gross.Mul(decimal.New(25, -2)).Round(2)

	g.w.printf("%s * Employer Inc\n", day(date))
	g.w.printf("    %-36s  %s\n", "Assets:Bank:Checking", dollars(gross.Sub(tax)))
	g.w.printf("    %-36s  %s\n", "Expenses:Taxes:Federal", dollars(tax))
	g.w.printf("    Income:Salary\n\n")
}
