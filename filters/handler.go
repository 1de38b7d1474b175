// Package filters implements the report pipeline: a chain of handlers that
// postings (or accounts) are pushed through one at a time, each stage
// forwarding, dropping, buffering or synthesizing records for the next.
//
// Every stage emits buffered output from Flush before flushing the next
// stage. Stages are not safe for concurrent use; a chain is driven by one
// goroutine in posting order.
package filters

import (
	"github.com/robinvdvleuten/ledger/errors"
	"github.com/robinvdvleuten/ledger/expr"
	"github.com/robinvdvleuten/ledger/journal"
)

// PostHandler is one stage of a posting chain.
type PostHandler interface {
	// Handle consumes a posting.
	Handle(post *journal.Post) error

	// Flush signals the end of the stream.
	Flush() error
}

// AccountHandler is one stage of an account chain.
type AccountHandler interface {
	Handle(acct *journal.Account) error
	Flush() error
}

// ValueFunc computes a value for a posting, usually by evaluating an
// expression in the posting's scope.
type ValueFunc func(post *journal.Post) (expr.Value, error)

// Predicate decides whether a posting passes a filter.
type Predicate func(post *journal.Post) (bool, error)

// forward is embedded by stages to pass records through unchanged.
type forward struct {
	next PostHandler
}

func (f forward) Handle(post *journal.Post) error {
	if f.next == nil {
		return nil
	}
	return f.next.Handle(post)
}

func (f forward) Flush() error {
	if f.next == nil {
		return nil
	}
	return f.next.Flush()
}

// PassDownPosts drives handler with posts and then flushes it. A failure
// is returned with the offending posting attached as error context.
func PassDownPosts(handler PostHandler, posts []*journal.Post) error {
	for _, post := range posts {
		if err := handler.Handle(post); err != nil {
			return errors.AddContext(err, journal.ItemContext(post, "While handling posting"))
		}
	}
	return handler.Flush()
}

// PassDownAccounts drives handler with accounts, skipping those pred
// rejects, and then flushes it. A nil pred accepts everything.
func PassDownAccounts(handler AccountHandler, accounts []*journal.Account, pred func(*journal.Account) (bool, error)) error {
	for _, acct := range accounts {
		if pred != nil {
			ok, err := pred(acct)
			if err != nil {
				return errors.AddContext(err, "While handling account "+acct.FullName())
			}
			if !ok {
				continue
			}
		}
		if err := handler.Handle(acct); err != nil {
			return errors.AddContext(err, "While handling account "+acct.FullName())
		}
	}
	return handler.Flush()
}

// IgnorePosts drops everything.
type IgnorePosts struct{}

func (IgnorePosts) Handle(*journal.Post) error { return nil }
func (IgnorePosts) Flush() error               { return nil }

// CollectPosts records what reaches it.
type CollectPosts struct {
	Posts   []*journal.Post
	Flushed int
}

func (c *CollectPosts) Handle(post *journal.Post) error {
	c.Posts = append(c.Posts, post)
	return nil
}

func (c *CollectPosts) Flush() error {
	c.Flushed++
	return nil
}

// FilterPosts forwards the postings pred accepts.
type FilterPosts struct {
	forward
	pred Predicate
}

// NewFilterPosts creates a filter in front of next.
func NewFilterPosts(next PostHandler, pred Predicate) *FilterPosts {
	return &FilterPosts{forward: forward{next}, pred: pred}
}

func (f *FilterPosts) Handle(post *journal.Post) error {
	ok, err := f.pred(post)
	if err != nil || !ok {
		return err
	}
	return f.next.Handle(post)
}

// CollectAccounts records what reaches it.
type CollectAccounts struct {
	Accounts []*journal.Account
}

func (c *CollectAccounts) Handle(acct *journal.Account) error {
	c.Accounts = append(c.Accounts, acct)
	return nil
}

func (c *CollectAccounts) Flush() error { return nil }
