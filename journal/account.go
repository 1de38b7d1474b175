package journal

import (
	"strings"

	"github.com/robinvdvleuten/ledger/amount"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Separator joins account name segments.
const Separator = ":"

// Account is a node in the account tree. The root node has an empty name.
type Account struct {
	Name   string
	Parent *Account
	Note   string

	children map[string]*Account
	posts    []*Post

	XData AccountXData
}

// AccountXData holds per-report state accumulated by account handlers.
type AccountXData struct {
	Total       *amount.Balance
	FamilyTotal *amount.Balance
	Count       int
	Visited     bool
	Displayed   bool
}

// NewRoot creates the unnamed master account.
func NewRoot() *Account {
	return &Account{}
}

// IsRoot reports whether the account is the master account.
func (a *Account) IsRoot() bool {
	return a.Parent == nil
}

// FullName returns the colon-separated path from the root.
func (a *Account) FullName() string {
	if a.Parent == nil {
		return a.Name
	}
	var parts []string
	for acct := a; acct != nil && acct.Parent != nil; acct = acct.Parent {
		parts = append(parts, acct.Name)
	}
	reverse(parts)
	return strings.Join(parts, Separator)
}

// Depth returns the number of segments below the root.
func (a *Account) Depth() int {
	depth := 0
	for acct := a; acct.Parent != nil; acct = acct.Parent {
		depth++
	}
	return depth
}

// FindAccount resolves a colon-separated path below a. Missing segments are
// created when create is set; otherwise a miss returns nil.
func (a *Account) FindAccount(path string, create bool) *Account {
	if path == "" {
		return a
	}
	acct := a
	for _, name := range strings.Split(path, Separator) {
		child, ok := acct.children[name]
		if !ok {
			if !create {
				return nil
			}
			if acct.children == nil {
				acct.children = make(map[string]*Account)
			}
			child = &Account{Name: name, Parent: acct}
			acct.children[name] = child
		}
		acct = child
	}
	return acct
}

// Children returns the direct children ordered by name.
func (a *Account) Children() []*Account {
	names := maps.Keys(a.children)
	slices.Sort(names)
	result := make([]*Account, len(names))
	for i, name := range names {
		result[i] = a.children[name]
	}
	return result
}

// Walk visits a and every descendant depth first, parents before children.
func (a *Account) Walk(fn func(*Account) error) error {
	if err := fn(a); err != nil {
		return err
	}
	for _, child := range a.Children() {
		if err := child.Walk(fn); err != nil {
			return err
		}
	}
	return nil
}

// HasAncestor reports whether other is a or one of its parents.
func (a *Account) HasAncestor(other *Account) bool {
	for acct := a; acct != nil; acct = acct.Parent {
		if acct == other {
			return true
		}
	}
	return false
}

// Posts returns the postings recorded against this account.
func (a *Account) Posts() []*Post {
	return a.posts
}

// PartialName returns the name relative to the nearest displayed ancestor,
// or the full name when flat.
func (a *Account) PartialName(flat bool) string {
	if flat {
		return a.FullName()
	}
	var parts []string
	for acct := a; acct != nil && acct.Parent != nil; acct = acct.Parent {
		if acct != a && acct.XData.Displayed {
			break
		}
		parts = append(parts, acct.Name)
	}
	reverse(parts)
	return strings.Join(parts, Separator)
}

// ClearXData resets report state on a and all descendants.
func (a *Account) ClearXData() {
	_ = a.Walk(func(acct *Account) error {
		acct.XData = AccountXData{}
		return nil
	})
}

func (a *Account) String() string {
	return a.FullName()
}

func reverse(parts []string) {
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
}
