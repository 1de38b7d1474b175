// Package amount implements commoditized quantities and multi-commodity
// balances on top of arbitrary-precision decimals.
//
// Display style (prefix or suffix symbol, separation, precision, thousands
// marks) is learned by the commodity pool from the amounts it parses, so that
// reports print amounts the way the journal wrote them.
package amount

import (
	"strings"
	"sync"
)

// Commodity describes a unit of value and how amounts of it are displayed.
type Commodity struct {
	Symbol         string
	Prefix         bool
	Separated      bool
	ThousandsMarks bool
	Precision      int32

	styled bool
}

// QualifiedSymbol returns the symbol quoted when it contains characters that
// would not survive re-parsing.
func (c *Commodity) QualifiedSymbol() string {
	if c == nil {
		return ""
	}
	if strings.ContainsFunc(c.Symbol, isInvalidSymbolRune) {
		return `"` + c.Symbol + `"`
	}
	return c.Symbol
}

func (c *Commodity) String() string {
	return c.QualifiedSymbol()
}

// Pool owns every commodity known to a session.
type Pool struct {
	mu          sync.Mutex
	commodities map[string]*Commodity
}

// NewPool creates an empty commodity pool.
func NewPool() *Pool {
	return &Pool{commodities: make(map[string]*Commodity)}
}

// Find returns the commodity with the given symbol, or nil.
func (p *Pool) Find(symbol string) *Commodity {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.commodities[symbol]
}

// FindOrCreate returns the commodity with the given symbol, registering it
// first if needed.
func (p *Pool) FindOrCreate(symbol string) *Commodity {
	p.mu.Lock()
	defer p.mu.Unlock()

	if c, ok := p.commodities[symbol]; ok {
		return c
	}
	c := &Commodity{Symbol: symbol}
	p.commodities[symbol] = c
	return c
}

// Commodities returns all registered commodities ordered by symbol.
func (p *Pool) Commodities() []*Commodity {
	p.mu.Lock()
	defer p.mu.Unlock()

	result := make([]*Commodity, 0, len(p.commodities))
	for _, c := range p.commodities {
		result = append(result, c)
	}
	sortCommodities(result)
	return result
}

// learn widens the commodity's display style with what an amount showed.
func (p *Pool) learn(c *Commodity, prefix, separated, thousands bool, precision int32) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !c.styled {
		// first sighting decides placement
		c.Prefix = prefix
		c.Separated = separated
		c.styled = true
	}
	if thousands {
		c.ThousandsMarks = true
	}
	if precision > c.Precision {
		c.Precision = precision
	}
}

func isInvalidSymbolRune(r rune) bool {
	switch {
	case r >= '0' && r <= '9':
		return true
	case r == ' ', r == '\t', r == '\r', r == '\n':
		return true
	}
	return strings.ContainsRune(".,;:?!-+*/^&|=<>{}[]()@\"", r)
}
