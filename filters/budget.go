package filters

import (
	"context"
	"time"

	"github.com/robinvdvleuten/ledger/errors"
	"github.com/robinvdvleuten/ledger/expr"
	"github.com/robinvdvleuten/ledger/interval"
	"github.com/robinvdvleuten/ledger/journal"
	"github.com/robinvdvleuten/ledger/logging"
)

// BudgetFlags select what a budget report shows.
type BudgetFlags uint8

const (
	// BudgetBudgeted emits budget postings and the real postings of
	// budgeted accounts.
	BudgetBudgeted BudgetFlags = 1 << iota
	// BudgetUnbudgeted emits real postings outside every budgeted account.
	BudgetUnbudgeted
	// BudgetWrapValues presents each budget amount as the pair [0, amount].
	BudgetWrapValues
)

// Has reports whether all of f's bits are set.
func (b BudgetFlags) Has(f BudgetFlags) bool {
	return b&f == f
}

const budgetCategory = "budget.generate"

// BudgetPosts interleaves synthesized budget postings with the real posting
// stream. Postings must arrive in date order.
type BudgetPosts struct {
	*GeneratePosts
	Flags    BudgetFlags
	Terminus time.Time

	ctx context.Context
}

// NewBudgetPosts creates the stage. terminus is the date up to which
// remaining budget items are reported on Flush.
func NewBudgetPosts(ctx context.Context, next PostHandler, terminus time.Time, flags BudgetFlags) *BudgetPosts {
	return &BudgetPosts{
		GeneratePosts: NewGeneratePosts(next),
		Flags:         flags,
		Terminus:      terminus,
		ctx:           ctx,
	}
}

// ReportBudgetItems emits every budget posting due on or before date. Each
// pass may make further occurrences due, so passes repeat until one emits
// nothing; every emission advances its pair, so the loop ends.
func (b *BudgetPosts) ReportBudgetItems(date time.Time) error {
	if len(b.Pending) == 0 {
		return nil
	}

	for reported := true; reported; {
		reported = false
		var exhausted []*PendingPostsPair

		for _, pair := range b.Pending {
			iv := pair.Interval
			if iv.Start == nil {
				from := date
				if iv.Range != nil && iv.Range.Begin != nil {
					from = *iv.Range.Begin
				}
				logging.Debug(b.ctx, budgetCategory, "Finding period for pending post")
				if !iv.FindPeriod(from) {
					continue
				}
				if iv.Start == nil {
					return errors.NewLogicError("Failed to find period for periodic transaction")
				}
			}
			begin := *iv.Start

			logging.Debug(b.ctx, budgetCategory, "Checking pending post",
				"begin", interval.FormatDate(begin), "date", interval.FormatDate(date))

			if begin.After(date) || (iv.Finish != nil && !begin.Before(*iv.Finish)) {
				continue
			}

			if err := iv.Next(); err != nil {
				return err
			}
			if iv.Start == nil {
				exhausted = append(exhausted, pair)
			}

			logging.Debug(b.ctx, budgetCategory, "Reporting budget for "+pair.Post.Reported().FullName())

			x := b.newXact()
			x.Payee = "Budget transaction"
			x.Date = begin

			temp := pair.Post.CopyTo(x)
			temp.Amount = temp.Amount.Negate()
			if b.Flags.Has(BudgetWrapValues) {
				xd := temp.EnsureXData()
				xd.CompoundValue = expr.SequenceValue(expr.IntValue(0), expr.AmountValue(temp.Amount))
				xd.Compound = true
			}

			if err := b.forward.Handle(temp); err != nil {
				return err
			}
			reported = true
		}

		b.erase(exhausted)
	}
	return nil
}

func (b *BudgetPosts) erase(pairs []*PendingPostsPair) {
	for _, gone := range pairs {
		for i, pair := range b.Pending {
			if pair == gone {
				b.Pending = append(b.Pending[:i], b.Pending[i+1:]...)
				break
			}
		}
	}
}

// budgetAccount returns the budgeted account that post falls under: its
// reported account or the nearest ancestor some template posts to.
func (b *BudgetPosts) budgetAccount(post *journal.Post) *journal.Account {
	for _, pair := range b.Pending {
		for acct := post.Reported(); acct != nil; acct = acct.Parent {
			if acct == pair.Post.Reported() {
				return acct
			}
		}
	}
	return nil
}

func (b *BudgetPosts) Handle(post *journal.Post) error {
	acct := b.budgetAccount(post)
	switch {
	case acct != nil && b.Flags.Has(BudgetBudgeted):
		// report the posting as if it occurred in the budgeted account
		post.ReportedAccount = acct
		if err := b.ReportBudgetItems(post.GetDate()); err != nil {
			return err
		}
		return b.forward.Handle(post)
	case acct != nil:
		post.ReportedAccount = acct
		return nil
	case b.Flags.Has(BudgetUnbudgeted):
		return b.forward.Handle(post)
	}
	return nil
}

func (b *BudgetPosts) Flush() error {
	if b.Flags.Has(BudgetBudgeted) {
		if err := b.ReportBudgetItems(b.Terminus); err != nil {
			return err
		}
	}
	return b.forward.Flush()
}
