package journal

import (
	"fmt"
	"strings"

	"github.com/robinvdvleuten/ledger/amount"
)

// Journal owns everything read from the input files.
type Journal struct {
	Master      *Account
	Pool        *amount.Pool
	Xacts       []*Xact
	PeriodXacts []*PeriodXact
	Sources     []string

	aliases map[string]*Account
	payees  map[string]struct{}
	tags    map[string]struct{}
}

// New creates an empty journal whose amounts live in pool.
func New(pool *amount.Pool) *Journal {
	if pool == nil {
		pool = amount.NewPool()
	}
	return &Journal{
		Master:  NewRoot(),
		Pool:    pool,
		aliases: make(map[string]*Account),
		payees:  make(map[string]struct{}),
		tags:    make(map[string]struct{}),
	}
}

// FindAccount resolves a full account name, honouring aliases.
func (j *Journal) FindAccount(name string, create bool) *Account {
	if acct, ok := j.aliases[name]; ok {
		return acct
	}
	// an alias may stand for the first segment only
	if i := strings.Index(name, Separator); i > 0 {
		if acct, ok := j.aliases[name[:i]]; ok {
			return acct.FindAccount(name[i+1:], create)
		}
	}
	return j.Master.FindAccount(name, create)
}

// Alias returns the account an alias stands for.
func (j *Journal) Alias(name string) (*Account, bool) {
	acct, ok := j.aliases[name]
	return acct, ok
}

// AddAlias makes name resolve to the account at target.
func (j *Journal) AddAlias(name, target string) {
	j.aliases[name] = j.Master.FindAccount(target, true)
}

// RemoveAlias drops an alias; an empty name drops them all.
func (j *Journal) RemoveAlias(name string) {
	if name == "" {
		clear(j.aliases)
		return
	}
	delete(j.aliases, name)
}

// RegisterPayee records a declared payee.
func (j *Journal) RegisterPayee(name string) {
	j.payees[name] = struct{}{}
}

// RegisterTag records a declared tag.
func (j *Journal) RegisterTag(name string) {
	j.tags[name] = struct{}{}
}

// KnownPayee reports whether the payee was declared or used.
func (j *Journal) KnownPayee(name string) bool {
	_, ok := j.payees[name]
	return ok
}

// AddXact finalizes x and appends it. A transaction whose balancing
// postings do not sum to zero is rejected.
func (j *Journal) AddXact(x *Xact) error {
	if err := Finalize(x); err != nil {
		return err
	}
	for _, p := range x.Posts {
		p.Account.posts = append(p.Account.posts, p)
	}
	j.payees[x.Payee] = struct{}{}
	j.Xacts = append(j.Xacts, x)
	return nil
}

// AddPeriodXact appends a periodic transaction template.
func (j *Journal) AddPeriodXact(px *PeriodXact) {
	j.PeriodXacts = append(j.PeriodXacts, px)
}

// Posts returns every posting in journal order.
func (j *Journal) Posts() []*Post {
	var posts []*Post
	for _, x := range j.Xacts {
		posts = append(posts, x.Posts...)
	}
	return posts
}

// ClearXData resets all report state so the journal can be reported again.
func (j *Journal) ClearXData() {
	for _, x := range j.Xacts {
		for _, p := range x.Posts {
			p.XData = nil
			p.ReportedAccount = p.Account
		}
	}
	j.Master.ClearXData()
}

// Finalize balances a transaction. A single posting without an amount
// receives the negated remainder, split per commodity when needed. Without
// one, a remainder in exactly two commodities implies a price between them.
func Finalize(x *Xact) error {
	if len(x.Posts) == 0 {
		return fmt.Errorf("Transaction has no postings")
	}

	sum := amount.NewBalance()
	var null, top *Post
	sawCost := false
	for _, p := range x.Posts {
		if !p.MustBalance {
			if !p.HasAmount {
				p.Amount = amount.FromInt(0)
				p.HasAmount = true
			}
			continue
		}
		if !p.HasAmount {
			if null != nil {
				return fmt.Errorf("Only one posting with null amount allowed per transaction")
			}
			null = p
			continue
		}
		if top == nil {
			top = p
		}
		if p.Cost != nil {
			sawCost = true
			sum.Add(*p.Cost)
		} else {
			sum.Add(p.Amount)
		}
	}

	if null == nil && !sawCost && top != nil && sum.Len() == 2 {
		inferCost(x, top, sum)
	}

	if null != nil {
		null.HasAmount = true
		null.Calculated = true
		remainder := sum.Negate().Amounts()
		if len(remainder) == 0 {
			null.Amount = amount.FromInt(0)
			return nil
		}
		null.Amount = remainder[0]
		for _, a := range remainder[1:] {
			extra := *null
			extra.Amount = a
			x.AddPost(&extra)
		}
		return nil
	}

	if !sum.Rounded().IsZero() {
		return &UnbalancedError{Remainder: sum}
	}
	return nil
}

// inferCost prices the postings in the first posting's commodity at the
// ratio between the two commodities left in sum, and rebalances sum.
func inferCost(x *Xact, top *Post, sum *amount.Balance) {
	amounts := sum.Amounts()
	a, b := amounts[0], amounts[1]
	if a.Commodity != top.Amount.Commodity {
		a, b = b, a
	}
	if a.IsZero() || b.IsZero() {
		return
	}
	perUnit := b.Quantity.Div(a.Quantity).Abs()
	for _, p := range x.Posts {
		if !p.MustBalance || !p.HasAmount || p.Amount.Commodity != a.Commodity {
			continue
		}
		cost := amount.New(p.Amount.Quantity.Mul(perUnit), b.Commodity)
		p.Cost = &cost
		p.CostCalculated = true
		sum.Add(p.Amount.Negate())
		sum.Add(cost)
	}
}

// UnbalancedError reports a transaction whose postings do not sum to zero.
type UnbalancedError struct {
	Remainder *amount.Balance
}

func (e *UnbalancedError) Error() string {
	return "Transaction does not balance: remainder is " + strings.Join(e.Remainder.Lines(), ", ")
}
