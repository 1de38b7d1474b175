package filters

import (
	"github.com/robinvdvleuten/ledger/interval"
	"github.com/robinvdvleuten/ledger/journal"
)

// PendingPostsPair is a template posting waiting for its next occurrence.
// Each pair owns its interval cursor.
type PendingPostsPair struct {
	Interval *interval.Interval
	Post     *journal.Post
}

// GeneratePosts holds the pending pairs of periodic transactions and the
// temporary transactions synthesized from them.
type GeneratePosts struct {
	forward
	Pending []*PendingPostsPair
	temps   []*journal.Xact
}

// NewGeneratePosts creates the stage.
func NewGeneratePosts(next PostHandler) *GeneratePosts {
	return &GeneratePosts{forward: forward{next}}
}

// AddPeriodXacts queues every posting of every periodic transaction.
func (g *GeneratePosts) AddPeriodXacts(pxs []*journal.PeriodXact) {
	for _, px := range pxs {
		for _, post := range px.Posts {
			g.AddPost(px.Interval, post)
		}
	}
}

// AddPost queues post with its own copy of iv.
func (g *GeneratePosts) AddPost(iv *interval.Interval, post *journal.Post) {
	g.Pending = append(g.Pending, &PendingPostsPair{Interval: iv.Clone(), Post: post})
}

// newXact creates a temporary transaction owned by the stage.
func (g *GeneratePosts) newXact() *journal.Xact {
	x := &journal.Xact{Temp: true}
	g.temps = append(g.temps, x)
	return x
}

// Temps returns the transactions synthesized so far.
func (g *GeneratePosts) Temps() []*journal.Xact {
	return g.temps
}
