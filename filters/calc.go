package filters

import (
	"github.com/robinvdvleuten/ledger/amount"
	"github.com/robinvdvleuten/ledger/expr"
	"github.com/robinvdvleuten/ledger/journal"
)

// PostAmount is the default amount expression: the posting's own amount.
func PostAmount(post *journal.Post) (expr.Value, error) {
	return expr.AmountValue(post.Amount), nil
}

// CalcPosts stamps each posting with its visited value, a running count and
// a running total.
type CalcPosts struct {
	forward
	amount ValueFunc
	last   *journal.Post
}

// NewCalcPosts creates the stage. A nil amount uses PostAmount.
func NewCalcPosts(next PostHandler, amount ValueFunc) *CalcPosts {
	if amount == nil {
		amount = PostAmount
	}
	return &CalcPosts{forward: forward{next}, amount: amount}
}

func (c *CalcPosts) Handle(post *journal.Post) error {
	xd := post.EnsureXData()

	visited, err := c.visited(post)
	if err != nil {
		return err
	}
	xd.VisitedValue = visited

	if c.last != nil {
		prev := c.last.EnsureXData()
		xd.Count = prev.Count + 1
		if xd.Total, err = addValues(prev.Total, visited); err != nil {
			return err
		}
	} else {
		xd.Count = 1
		xd.Total = visited
	}
	c.last = post

	post.Reported().XData.Visited = true
	return c.next.Handle(post)
}

func (c *CalcPosts) visited(post *journal.Post) (expr.Value, error) {
	if post.XData != nil && post.XData.Compound {
		return post.XData.CompoundValue, nil
	}
	return c.amount(post)
}

// addValues sums two values. Sequences of equal length add element-wise,
// which keeps wrapped budget values in their columns.
func addValues(a, b expr.Value) (expr.Value, error) {
	if a.Kind() == expr.Sequence && b.Kind() == expr.Sequence {
		as, bs := a.AsSequence(), b.AsSequence()
		if len(as) == len(bs) {
			out := make([]expr.Value, len(as))
			for i := range as {
				v, err := as[i].Add(bs[i])
				if err != nil {
					return expr.Null, err
				}
				out[i] = v
			}
			return expr.SequenceValue(out...), nil
		}
	}
	if a.Kind() == expr.Sequence {
		// a plain value joins the last column
		as := append([]expr.Value{}, a.AsSequence()...)
		if len(as) > 0 {
			v, err := as[len(as)-1].Add(b)
			if err != nil {
				return expr.Null, err
			}
			as[len(as)-1] = v
			return expr.SequenceValue(as...), nil
		}
	}
	return a.Add(b)
}

// AccountTotals accumulates each posting's visited value into its reported
// account. Accounts are reported afterwards by walking the tree.
type AccountTotals struct {
	forward
}

// NewAccountTotals creates the stage; next may be nil.
func NewAccountTotals(next PostHandler) *AccountTotals {
	return &AccountTotals{forward: forward{next}}
}

func (a *AccountTotals) Handle(post *journal.Post) error {
	acct := post.Reported()
	xd := &acct.XData
	if xd.Total == nil {
		xd.Total = amount.NewBalance()
	}

	v := expr.AmountValue(post.Amount)
	if post.XData != nil && !post.XData.VisitedValue.IsNull() {
		v = post.XData.VisitedValue
	}
	b, err := v.AsBalance()
	if err != nil {
		return err
	}
	xd.Total.AddBalance(b)
	xd.Count++
	xd.Visited = true
	return a.forward.Handle(post)
}

// SumFamilyTotals fills FamilyTotal for acct and its descendants: an
// account's own total plus its children's family totals.
func SumFamilyTotals(acct *journal.Account) *amount.Balance {
	total := amount.NewBalance()
	if acct.XData.Total != nil {
		total.AddBalance(acct.XData.Total)
	}
	for _, child := range acct.Children() {
		total.AddBalance(SumFamilyTotals(child))
	}
	acct.XData.FamilyTotal = total
	return total
}
