package report

import (
	"strings"

	"github.com/robinvdvleuten/ledger/expr"
	"github.com/robinvdvleuten/ledger/journal"
)

// PostScope resolves the identifiers of one posting, then defers to the
// report.
type PostScope struct {
	report *Report
	Post   *journal.Post
}

// PostScope creates the evaluation scope for post.
func (r *Report) PostScope(post *journal.Post) *PostScope {
	return &PostScope{report: r, Post: post}
}

func (s *PostScope) Define(kind expr.SymbolKind, name string, def *expr.Op) {
	s.report.Define(kind, name, def)
}

func (s *PostScope) Description() string { return "posting" }

func (s *PostScope) ParentScope() expr.Scope { return s.report }

func (s *PostScope) Lookup(kind expr.SymbolKind, name string) *expr.Op {
	if kind != expr.Function {
		return s.report.Lookup(kind, name)
	}
	if v, ok := s.value(name); ok {
		return expr.WrapValue(v)
	}
	switch name {
	case "has_tag":
		return expr.WrapFunctor(func(call *expr.CallScope) (expr.Value, error) {
			return expr.BoolValue(s.Post.HasTag(call.Arg(0).AsString())), nil
		})
	case "tag":
		return expr.WrapFunctor(func(call *expr.CallScope) (expr.Value, error) {
			if v, ok := s.Post.Tag(call.Arg(0).AsString()); ok {
				return expr.StringValue(v), nil
			}
			return expr.Null, nil
		})
	case "partial_account":
		return expr.WrapFunctor(func(call *expr.CallScope) (expr.Value, error) {
			return expr.StringValue(s.Post.Reported().PartialName(call.Arg(0).Truthy())), nil
		})
	}
	return s.report.Lookup(kind, name)
}

func (s *PostScope) value(name string) (expr.Value, bool) {
	p := s.Post
	x := p.Xact
	switch name {
	case "date":
		return expr.DateValue(p.GetDate()), true
	case "aux_date":
		if x != nil && x.AuxDate != nil {
			return expr.DateValue(*x.AuxDate), true
		}
		return expr.Null, true
	case "payee":
		if x != nil {
			return expr.StringValue(x.Payee), true
		}
		return expr.StringValue(""), true
	case "code":
		if x != nil {
			return expr.StringValue(x.Code), true
		}
		return expr.StringValue(""), true
	case "note":
		return expr.StringValue(p.Note), true
	case "account":
		return expr.StringValue(p.Reported().FullName()), true
	case "display_account":
		name := p.Reported().FullName()
		switch {
		case p.Virtual && p.MustBalance:
			name = "[" + name + "]"
		case p.Virtual:
			name = "(" + name + ")"
		}
		return expr.StringValue(name), true
	case "amount":
		return expr.AmountValue(p.Amount), true
	case "display_amount":
		if p.XData != nil && !p.XData.VisitedValue.IsNull() {
			return p.XData.VisitedValue, true
		}
		return expr.AmountValue(p.Amount), true
	case "total", "display_total":
		if p.XData != nil && !p.XData.Total.IsNull() {
			return p.XData.Total, true
		}
		return expr.AmountValue(p.Amount), true
	case "count":
		if p.XData != nil {
			return expr.IntValue(int64(p.XData.Count)), true
		}
		return expr.IntValue(0), true
	case "cleared":
		return expr.BoolValue(p.GetState() == journal.Cleared), true
	case "pending":
		return expr.BoolValue(p.GetState() == journal.Pending), true
	case "uncleared":
		return expr.BoolValue(p.GetState() == journal.Uncleared), true
	case "actual", "real":
		return expr.BoolValue(!p.Virtual), true
	case "virtual":
		return expr.BoolValue(p.Virtual), true
	case "calculated":
		return expr.BoolValue(p.Calculated), true
	case "depth":
		return expr.IntValue(int64(p.Reported().Depth())), true
	case "depth_spacer":
		return expr.StringValue(strings.Repeat("  ", p.Reported().Depth())), true
	case "should_bold":
		return s.report.shouldBold(s), true
	case "post":
		return expr.ScopeValue(s), true
	case "xact":
		return expr.ScopeValue(&xactScope{s}), true
	}
	return expr.Null, false
}

// xactScope resolves names against the posting's transaction.
type xactScope struct {
	*PostScope
}

func (s *xactScope) Description() string { return "transaction" }

func (s *xactScope) Lookup(kind expr.SymbolKind, name string) *expr.Op {
	x := s.Post.Xact
	if kind == expr.Function && x != nil {
		switch name {
		case "date":
			return expr.WrapValue(expr.DateValue(x.Date))
		case "cleared":
			return expr.WrapValue(expr.BoolValue(x.State == journal.Cleared))
		case "pending":
			return expr.WrapValue(expr.BoolValue(x.State == journal.Pending))
		case "note":
			return expr.WrapValue(expr.StringValue(x.Note))
		case "count":
			return expr.WrapValue(expr.IntValue(int64(len(x.Posts))))
		}
	}
	return s.PostScope.Lookup(kind, name)
}

// AccountScope resolves the identifiers of one account in an accounts
// report. "amount" is the account's own total; "total" includes its
// descendants.
type AccountScope struct {
	report  *Report
	Account *journal.Account
}

// AccountScope creates the evaluation scope for acct.
func (r *Report) AccountScope(acct *journal.Account) *AccountScope {
	return &AccountScope{report: r, Account: acct}
}

func (s *AccountScope) Define(kind expr.SymbolKind, name string, def *expr.Op) {
	s.report.Define(kind, name, def)
}

func (s *AccountScope) Description() string { return "account" }

func (s *AccountScope) ParentScope() expr.Scope { return s.report }

func (s *AccountScope) Lookup(kind expr.SymbolKind, name string) *expr.Op {
	if kind != expr.Function {
		return s.report.Lookup(kind, name)
	}
	a := s.Account
	switch name {
	case "account":
		return expr.WrapValue(expr.StringValue(a.FullName()))
	case "display_account":
		return expr.WrapValue(expr.StringValue(a.PartialName(s.report.Options.MustGet("flat").Handled)))
	case "partial_account":
		return expr.WrapFunctor(func(call *expr.CallScope) (expr.Value, error) {
			return expr.StringValue(a.PartialName(call.Arg(0).Truthy())), nil
		})
	case "amount", "display_amount":
		if a.XData.Total != nil {
			return expr.WrapValue(expr.BalanceValue(a.XData.Total))
		}
		return expr.WrapValue(expr.IntValue(0))
	case "total", "display_total":
		if a.XData.FamilyTotal != nil {
			return expr.WrapValue(expr.BalanceValue(a.XData.FamilyTotal))
		}
		return expr.WrapValue(expr.IntValue(0))
	case "count":
		return expr.WrapValue(expr.IntValue(int64(a.XData.Count)))
	case "depth":
		return expr.WrapValue(expr.IntValue(int64(a.Depth())))
	case "depth_spacer":
		// indent by shown ancestors, so folded parents add nothing
		n := 0
		for p := a.Parent; p != nil; p = p.Parent {
			if p.XData.Displayed {
				n++
			}
		}
		return expr.WrapValue(expr.StringValue(strings.Repeat("  ", n)))
	case "note":
		return expr.WrapValue(expr.StringValue(a.Note))
	case "should_bold":
		return expr.WrapValue(s.report.shouldBold(s))
	}
	return s.report.Lookup(kind, name)
}
