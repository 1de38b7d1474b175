package report

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/ledger/amount"
	"github.com/robinvdvleuten/ledger/expr"
	"github.com/robinvdvleuten/ledger/filters"
	"github.com/robinvdvleuten/ledger/journal"
	"github.com/robinvdvleuten/ledger/logging"
	"github.com/robinvdvleuten/ledger/telemetry"
)

// ChainPosts wraps handler in the stages the options ask for. Postings
// entering the result pass, in order: the --limit filter, budget expansion,
// sorting, running totals, the --display filter and --group-by splitting.
func (r *Report) ChainPosts(handler filters.PostHandler) (filters.PostHandler, error) {
	h := handler
	opts := r.Options

	if opt := opts.MustGet("group_by"); opt.Handled {
		key, err := r.postValue(opt.Value)
		if err != nil {
			return nil, err
		}
		s := filters.NewPostSplitter(h, key)
		first := true
		s.PreFlush = func(k expr.Value) error {
			if !first {
				fmt.Fprintln(r.Out)
			}
			first = false
			_, err := fmt.Fprintln(r.Out, k.AsString())
			return err
		}
		h = s
	}

	if opts.MustGet("display").Handled {
		pred, err := r.postPredicate("display")
		if err != nil {
			return nil, err
		}
		h = filters.NewFilterPosts(h, pred)
	}

	var amountFn filters.ValueFunc
	if opt := opts.MustGet("amount"); opt.Handled {
		fn, err := r.postValue(opt.Value)
		if err != nil {
			return nil, err
		}
		amountFn = fn
	}
	h = filters.NewCalcPosts(h, amountFn)

	if opt := opts.MustGet("sort"); opt.Handled {
		var keys []filters.ValueFunc
		for _, text := range strings.Split(opt.Value, ",") {
			key, err := r.postValue(strings.TrimSpace(text))
			if err != nil {
				return nil, err
			}
			keys = append(keys, key)
		}
		h = filters.NewSortPosts(h, keys...)
	}

	if r.Budgeting() {
		var flags filters.BudgetFlags
		if opts.MustGet("budget").Handled {
			flags |= filters.BudgetBudgeted
		}
		if opts.MustGet("unbudgeted").Handled {
			flags |= filters.BudgetUnbudgeted
		}
		if opts.MustGet("wrap_values").Handled {
			flags |= filters.BudgetWrapValues
		}
		b := filters.NewBudgetPosts(r.ctx, h, r.today(), flags)
		b.AddPeriodXacts(r.Journal.PeriodXacts)
		h = b
	}

	if opts.MustGet("limit").Handled {
		pred, err := r.postPredicate("limit")
		if err != nil {
			return nil, err
		}
		h = filters.NewFilterPosts(h, pred)
	}
	return h, nil
}

// PostsReport drives every journal posting through handler.
func (r *Report) PostsReport(handler filters.PostHandler) error {
	return r.passDown(handler, r.Journal.Posts())
}

func (r *Report) passDown(handler filters.PostHandler, posts []*journal.Post) error {
	r.Journal.ClearXData()

	chainTimer := telemetry.Start(r.ctx, "chain post handlers")
	chain, err := r.ChainPosts(handler)
	chainTimer.End()
	if err != nil {
		return err
	}

	logging.Debug(r.ctx, "report", "Passing down postings", "count", len(posts))
	passTimer := telemetry.Start(r.ctx, "pass down postings")
	defer passTimer.End()
	return filters.PassDownPosts(chain, posts)
}

// AccountsReport totals postings per account and drives the accounts worth
// showing through handler in tree order.
func (r *Report) AccountsReport(handler filters.AccountHandler) error {
	r.Journal.ClearXData()

	chain, err := r.ChainPosts(filters.NewAccountTotals(nil))
	if err != nil {
		return err
	}
	posts := r.Journal.Posts()
	passTimer := telemetry.Start(r.ctx, "pass down postings")
	err = filters.PassDownPosts(chain, posts)
	passTimer.End()
	if err != nil {
		return err
	}

	master := r.Journal.Master
	filters.SumFamilyTotals(master)

	depth := 0
	if opt := r.Options.MustGet("depth"); opt.Handled {
		if depth, err = opt.Int(); err != nil {
			return err
		}
	}
	r.markDisplayed(master, depth)

	var accounts []*journal.Account
	_ = master.Walk(func(acct *journal.Account) error {
		if acct != master && acct.XData.Displayed {
			accounts = append(accounts, acct)
		}
		return nil
	})

	passTimer = telemetry.Start(r.ctx, "pass down accounts")
	defer passTimer.End()
	return filters.PassDownAccounts(handler, accounts, nil)
}

// markDisplayed decides which accounts an accounts report shows. A parent
// that has no postings of its own and a single shown child is folded into
// that child, which then prints with the parent's name as prefix.
func (r *Report) markDisplayed(acct *journal.Account, depth int) int {
	shown := 0
	for _, child := range acct.Children() {
		shown += r.markDisplayed(child, depth)
	}
	if acct.IsRoot() {
		return shown
	}

	visited := acct.XData.Visited || shown > 0 || hasVisitedDescendant(acct)
	if !visited {
		return 0
	}
	if !r.Options.MustGet("empty").Handled && acct.XData.FamilyTotal.Rounded().IsZero() && shown == 0 {
		return 0
	}
	if depth > 0 && acct.Depth() > depth {
		return 0
	}
	if depth > 0 && acct.Depth() == depth {
		acct.XData.Displayed = true
		return 1
	}
	if shown == 1 && acct.XData.Count == 0 && !r.Options.MustGet("flat").Handled {
		return 1
	}
	if r.Options.MustGet("flat").Handled && acct.XData.Count == 0 {
		return shown
	}
	acct.XData.Displayed = true
	return 1
}

func hasVisitedDescendant(acct *journal.Account) bool {
	for _, child := range acct.Children() {
		if child.XData.Visited || hasVisitedDescendant(child) {
			return true
		}
	}
	return false
}

// CommoditiesReport drives one synthetic posting per commodity in use
// through handler: a single unit of the commodity, dated when it was first
// used, with the symbol as payee.
func (r *Report) CommoditiesReport(handler filters.PostHandler) error {
	root := journal.NewRoot()
	seen := make(map[*amount.Commodity]bool)
	var posts []*journal.Post

	for _, x := range r.Journal.Xacts {
		for _, p := range x.Posts {
			c := p.Amount.Commodity
			if c == nil || seen[c] {
				continue
			}
			seen[c] = true

			tx := &journal.Xact{Date: x.Date, Payee: c.QualifiedSymbol(), Temp: true}
			post := journal.NewPost(root.FindAccount("Commodities:"+c.Symbol, true), amount.New(decimal.NewFromInt(1), c))
			tx.AddPost(post)
			posts = append(posts, post)
		}
	}
	return r.passDown(handler, posts)
}
