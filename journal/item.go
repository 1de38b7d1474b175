// Package journal holds the in-memory transaction graph: the account tree,
// transactions and their postings, and periodic transactions used as budget
// templates.
package journal

import (
	"fmt"
	"strings"
	"time"

	"github.com/robinvdvleuten/ledger/amount"
	"github.com/robinvdvleuten/ledger/expr"
	"github.com/robinvdvleuten/ledger/interval"
)

// State is the clearing state of a transaction or posting.
type State uint8

const (
	Uncleared State = iota
	Pending
	Cleared
)

func (s State) String() string {
	switch s {
	case Cleared:
		return "*"
	case Pending:
		return "!"
	}
	return ""
}

// Position records where an item was read.
type Position struct {
	File string
	Line int
	Text string
}

// Metadata holds tags (empty value) and "key: value" pairs attached to an
// item through its notes.
type Metadata map[string]string

// Has reports whether the tag or key is present.
func (m Metadata) Has(tag string) bool {
	_, ok := m[tag]
	return ok
}

// Xact is a dated transaction.
type Xact struct {
	Date    time.Time
	AuxDate *time.Time
	State   State
	Code    string
	Payee   string
	Note    string
	Meta    Metadata
	Posts   []*Post
	Pos     Position

	// Temp marks transactions synthesized by report handlers.
	Temp bool
}

// AddPost appends p to the transaction.
func (x *Xact) AddPost(p *Post) {
	p.Xact = x
	x.Posts = append(x.Posts, p)
}

// Post is one line item of a transaction.
type Post struct {
	Xact            *Xact
	Account         *Account
	ReportedAccount *Account

	Amount     amount.Amount
	HasAmount  bool
	AmountExpr *expr.Expr

	// Cost is the total price paid, from "@" or "@@" annotations.
	Cost *amount.Amount

	State       State
	Note        string
	Meta        Metadata
	Date        *time.Time
	Virtual     bool
	MustBalance bool
	Calculated  bool
	Pos         Position

	// CostCalculated marks a cost inferred while balancing.
	CostCalculated bool

	XData *XData
}

// XData holds per-report state attached to a posting by handlers.
type XData struct {
	Total         expr.Value
	VisitedValue  expr.Value
	CompoundValue expr.Value
	Compound      bool
	Count         int
	Displayed     bool
	SortValues    []expr.Value
}

// NewPost creates a posting against acct.
func NewPost(acct *Account, amt amount.Amount) *Post {
	return &Post{Account: acct, ReportedAccount: acct, Amount: amt, HasAmount: true, MustBalance: true}
}

// Reported returns the account the posting is reported under.
func (p *Post) Reported() *Account {
	if p.ReportedAccount != nil {
		return p.ReportedAccount
	}
	return p.Account
}

// GetDate returns the posting's own date, or its transaction's.
func (p *Post) GetDate() time.Time {
	if p.Date != nil {
		return *p.Date
	}
	if p.Xact != nil {
		return p.Xact.Date
	}
	return time.Time{}
}

// GetState returns the effective clearing state.
func (p *Post) GetState() State {
	if p.State != Uncleared || p.Xact == nil {
		return p.State
	}
	return p.Xact.State
}

// HasTag reports whether the posting or its transaction carries tag.
func (p *Post) HasTag(tag string) bool {
	if p.Meta.Has(tag) {
		return true
	}
	return p.Xact != nil && p.Xact.Meta.Has(tag)
}

// Tag returns the value of tag from the posting or its transaction.
func (p *Post) Tag(tag string) (string, bool) {
	if v, ok := p.Meta[tag]; ok {
		return v, true
	}
	if p.Xact != nil {
		v, ok := p.Xact.Meta[tag]
		return v, ok
	}
	return "", false
}

// EnsureXData returns the posting's report state, creating it on demand.
func (p *Post) EnsureXData() *XData {
	if p.XData == nil {
		p.XData = &XData{}
	}
	return p.XData
}

// CopyTo clones the posting into xact. The clone shares accounts but has its
// own report state.
func (p *Post) CopyTo(x *Xact) *Post {
	c := *p
	c.XData = nil
	c.Meta = nil
	if len(p.Meta) > 0 {
		c.Meta = make(Metadata, len(p.Meta))
		for k, v := range p.Meta {
			c.Meta[k] = v
		}
	}
	x.AddPost(&c)
	return &c
}

func (p *Post) String() string {
	var b strings.Builder
	name := p.Account.FullName()
	switch {
	case p.Virtual && p.MustBalance:
		name = "[" + name + "]"
	case p.Virtual:
		name = "(" + name + ")"
	}
	b.WriteString(name)
	if p.HasAmount {
		b.WriteString("  ")
		b.WriteString(p.Amount.String())
	}
	return b.String()
}

// PeriodXact is a transaction template applied on a recurring interval.
type PeriodXact struct {
	Period   string
	Interval *interval.Interval
	Note     string
	Posts    []*Post
	Pos      Position
}

// AddPost appends p to the template.
func (px *PeriodXact) AddPost(p *Post) {
	px.Posts = append(px.Posts, p)
}

// ItemContext renders the standard error-context line for a posting, for
// example `While handling posting from "main.ledger", line 12:`.
func ItemContext(p *Post, desc string) string {
	pos := p.Pos
	if pos.File == "" && pos.Line == 0 && p.Xact != nil {
		pos = p.Xact.Pos
	}
	if pos.Line == 0 {
		return desc + ":"
	}
	var b strings.Builder
	if pos.File != "" {
		fmt.Fprintf(&b, "%s from \"%s\", line %d:", desc, pos.File, pos.Line)
	} else {
		fmt.Fprintf(&b, "%s from line %d:", desc, pos.Line)
	}
	if pos.Text != "" {
		b.WriteString("\n> ")
		b.WriteString(strings.TrimSpace(pos.Text))
	}
	return b.String()
}
