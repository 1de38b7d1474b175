package telemetry

import (
	"io"
	"sync"
	"time"

	"github.com/robinvdvleuten/ledger/output"
)

// TimingCollector builds a tree of timed phases.
type TimingCollector struct {
	mu      sync.Mutex
	now     func() time.Time
	roots   []*phase
	current *phase
}

type phase struct {
	name       string
	start, end time.Time
	parent     *phase
	children   []*phase
}

// CollectorOption configures a TimingCollector.
type CollectorOption func(*TimingCollector)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) CollectorOption {
	return func(c *TimingCollector) {
		c.now = now
	}
}

// NewTimingCollector creates an empty collector.
func NewTimingCollector(opts ...CollectorOption) *TimingCollector {
	c := &TimingCollector{now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *TimingCollector) Start(name string) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()

	p := &phase{name: name, start: c.now(), parent: c.current}
	if c.current == nil {
		c.roots = append(c.roots, p)
	} else {
		c.current.children = append(c.current.children, p)
	}
	c.current = p
	return &timer{c: c, p: p}
}

func (c *TimingCollector) Report(w io.Writer, styles *output.Styles) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, root := range c.roots {
		writeTree(w, root, styles)
	}
}

type timer struct {
	c *TimingCollector
	p *phase
}

func (t *timer) End() {
	t.c.mu.Lock()
	defer t.c.mu.Unlock()

	if !t.p.end.IsZero() {
		return
	}
	t.p.end = t.c.now()
	// closing a phase reopens its parent for Start
	if t.c.current == t.p {
		t.c.current = t.p.parent
	}
}

// Child opens a phase under t without making it current.
func (t *timer) Child(name string) Timer {
	t.c.mu.Lock()
	defer t.c.mu.Unlock()

	p := &phase{name: name, start: t.c.now(), parent: t.p}
	t.p.children = append(t.p.children, p)
	return &timer{c: t.c, p: p}
}

func (t *timer) Elapsed() time.Duration {
	t.c.mu.Lock()
	defer t.c.mu.Unlock()
	return t.p.elapsed(t.c.now)
}

func (p *phase) elapsed(now func() time.Time) time.Duration {
	if p.end.IsZero() {
		return now().Sub(p.start)
	}
	return p.end.Sub(p.start)
}
