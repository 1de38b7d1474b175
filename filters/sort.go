package filters

import (
	"golang.org/x/exp/slices"

	"github.com/robinvdvleuten/ledger/expr"
	"github.com/robinvdvleuten/ledger/journal"
)

// SortPosts buffers the stream and emits it ordered by keys on Flush. The
// sort is stable, so postings with equal keys keep their input order.
type SortPosts struct {
	forward
	keys  []ValueFunc
	posts []*journal.Post
}

// NewSortPosts creates the stage. Earlier keys take precedence.
func NewSortPosts(next PostHandler, keys ...ValueFunc) *SortPosts {
	return &SortPosts{forward: forward{next}, keys: keys}
}

func (s *SortPosts) Handle(post *journal.Post) error {
	xd := post.EnsureXData()
	xd.SortValues = xd.SortValues[:0]
	for _, key := range s.keys {
		v, err := key(post)
		if err != nil {
			return err
		}
		xd.SortValues = append(xd.SortValues, v)
	}
	s.posts = append(s.posts, post)
	return nil
}

func (s *SortPosts) Flush() error {
	posts := s.posts
	s.posts = nil

	slices.SortStableFunc(posts, func(a, b *journal.Post) int {
		return compareValues(a.XData.SortValues, b.XData.SortValues)
	})
	for _, post := range posts {
		if err := s.next.Handle(post); err != nil {
			return err
		}
	}
	return s.forward.Flush()
}

func compareValues(a, b []expr.Value) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := compareValue(a[i], b[i]); c != 0 {
			return c
		}
	}
	return len(a) - len(b)
}

// compareValue orders values that cannot be compared by their text.
func compareValue(a, b expr.Value) int {
	c, err := a.Compare(b)
	if err == nil {
		return c
	}
	as, bs := a.String(), b.String()
	switch {
	case as < bs:
		return -1
	case as > bs:
		return 1
	}
	return 0
}

// PostSplitter groups the stream by a key ("group by"). On Flush each group
// is emitted in key order, bracketed by the optional hooks, and the next
// stage is flushed after every group.
type PostSplitter struct {
	forward
	key       ValueFunc
	PreFlush  func(key expr.Value) error
	PostFlush func(key expr.Value) error

	keys   []expr.Value
	groups map[string][]*journal.Post
}

// NewPostSplitter creates the stage.
func NewPostSplitter(next PostHandler, key ValueFunc) *PostSplitter {
	return &PostSplitter{forward: forward{next}, key: key, groups: make(map[string][]*journal.Post)}
}

func (s *PostSplitter) Handle(post *journal.Post) error {
	k, err := s.key(post)
	if err != nil {
		return err
	}
	id := k.String()
	if _, ok := s.groups[id]; !ok {
		s.keys = append(s.keys, k)
	}
	s.groups[id] = append(s.groups[id], post)
	return nil
}

func (s *PostSplitter) Flush() error {
	keys := s.keys
	slices.SortStableFunc(keys, compareValue)

	for _, k := range keys {
		if s.PreFlush != nil {
			if err := s.PreFlush(k); err != nil {
				return err
			}
		}
		for _, post := range s.groups[k.String()] {
			if err := s.next.Handle(post); err != nil {
				return err
			}
		}
		if err := s.next.Flush(); err != nil {
			return err
		}
		if s.PostFlush != nil {
			if err := s.PostFlush(k); err != nil {
				return err
			}
		}
	}

	s.keys = nil
	s.groups = make(map[string][]*journal.Post)
	return nil
}
