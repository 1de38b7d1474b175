package telemetry

import (
	"fmt"
	"io"
	"time"

	"github.com/robinvdvleuten/ledger/output"
)

// slowPhase is the duration from which a phase is highlighted.
const slowPhase = 100 * time.Millisecond

// writeTree prints a root phase and its descendants:
//
//	register: 125ms
//	├─ Parse main.ledger: 85ms
//	│  └─ Include rent.ledger: 5ms
//	└─ pass down postings: 40ms
func writeTree(w io.Writer, root *phase, styles *output.Styles) {
	name := root.name
	if styles != nil {
		name = styles.Keyword(name)
	}
	_, _ = fmt.Fprintf(w, "%s: %s\n", name, formatDuration(root.end.Sub(root.start)))
	writeChildren(w, root.children, "", styles)
}

func writeChildren(w io.Writer, children []*phase, indent string, styles *output.Styles) {
	for i, p := range children {
		branch, next := "├─ ", "│  "
		if i == len(children)-1 {
			branch, next = "└─ ", "   "
		}

		d := p.end.Sub(p.start)
		lead, timing := indent+branch, formatDuration(d)
		if styles != nil {
			lead = styles.Dim(lead)
			timing = styles.Timing(timing, d >= slowPhase)
		}
		_, _ = fmt.Fprintf(w, "%s%s: %s\n", lead, p.name, timing)
		writeChildren(w, p.children, indent+next, styles)
	}
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.2fs", d.Seconds())
}
