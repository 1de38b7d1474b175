// Package interval implements recurring date intervals: a duration (such as
// "every 2 months") optionally bounded by a date range. Intervals drive
// periodic transaction expansion.
package interval

import (
	"fmt"
	"strings"
	"time"

	"github.com/robinvdvleuten/ledger/errors"
)

// Quantum is the unit of a duration.
type Quantum int

const (
	Days Quantum = iota
	Weeks
	Months
	Quarters
	Years
)

var quantumNames = map[Quantum]string{
	Days:     "day",
	Weeks:    "week",
	Months:   "month",
	Quarters: "quarter",
	Years:    "year",
}

func (q Quantum) String() string {
	return quantumNames[q]
}

// Duration is a number of quanta.
type Duration struct {
	Quantum Quantum
	Length  int
}

// Add moves t forward by the duration.
func (d Duration) Add(t time.Time) time.Time {
	switch d.Quantum {
	case Days:
		return t.AddDate(0, 0, d.Length)
	case Weeks:
		return t.AddDate(0, 0, 7*d.Length)
	case Months:
		return t.AddDate(0, d.Length, 0)
	case Quarters:
		return t.AddDate(0, 3*d.Length, 0)
	default:
		return t.AddDate(d.Length, 0, 0)
	}
}

// StartOf returns the beginning of the period of this quantum containing t.
// Weeks start on Sunday.
func (d Duration) StartOf(t time.Time) time.Time {
	y, m, day := t.Date()
	switch d.Quantum {
	case Days:
		return Date(y, m, day)
	case Weeks:
		return Date(y, m, day-int(t.Weekday()))
	case Months:
		return Date(y, m, 1)
	case Quarters:
		return Date(y, time.Month((int(m)-1)/3*3+1), 1)
	default:
		return Date(y, time.January, 1)
	}
}

func (d Duration) String() string {
	if d.Length == 1 {
		return "every " + d.Quantum.String()
	}
	return fmt.Sprintf("every %d %ss", d.Length, d.Quantum)
}

// Range bounds an interval; End is exclusive.
type Range struct {
	Begin *time.Time
	End   *time.Time
}

// Interval is a recurrence with a cursor. Start is the beginning of the
// current occurrence and is nil until resolved or after exhaustion.
type Interval struct {
	Range    *Range
	Duration *Duration

	Start         *time.Time
	Finish        *time.Time
	EndOfDuration *time.Time

	aligned bool
}

// Clone returns an independent copy of the interval and its cursor.
func (i *Interval) Clone() *Interval {
	c := *i
	return &c
}

func (i *Interval) stabilize(date time.Time) {
	if i.aligned {
		return
	}
	i.aligned = true

	if i.Range != nil {
		if i.Range.Begin != nil && i.Start == nil {
			i.Start = ptr(*i.Range.Begin)
		}
		if i.Range.End != nil {
			i.Finish = ptr(*i.Range.End)
		}
	}
	if i.Start == nil && i.Duration != nil {
		i.Start = ptr(i.Duration.StartOf(date))
	}
}

// FindPeriod positions the cursor on the occurrence containing date. It
// reports false when date falls outside the interval.
func (i *Interval) FindPeriod(date time.Time) bool {
	i.stabilize(date)

	if i.Finish != nil && !date.Before(*i.Finish) {
		return false
	}
	if i.Start == nil || date.Before(*i.Start) {
		return false
	}
	if i.Duration == nil {
		if i.Finish == nil {
			return true
		}
		i.EndOfDuration = ptr(*i.Finish)
		return true
	}

	scan := *i.Start
	end := i.Duration.Add(scan)
	for !date.Before(scan) && (i.Finish == nil || scan.Before(*i.Finish)) {
		if date.Before(end) {
			i.Start = ptr(scan)
			i.EndOfDuration = ptr(end)
			return true
		}
		scan = end
		end = i.Duration.Add(scan)
	}
	return false
}

// Next advances the cursor to the following occurrence. Start becomes nil
// once the interval is exhausted.
func (i *Interval) Next() error {
	if i.Start == nil {
		return errors.NewLogicError("Cannot increment an unstarted date interval")
	}
	if i.Duration == nil {
		return errors.NewLogicError("Cannot increment a date interval without a duration")
	}

	next := i.Duration.Add(*i.Start)
	if i.Finish != nil && !next.Before(*i.Finish) {
		i.Start = nil
		i.EndOfDuration = nil
		return nil
	}
	i.Start = ptr(next)
	i.EndOfDuration = ptr(i.Duration.Add(next))
	return nil
}

func (i *Interval) String() string {
	var parts []string
	if i.Duration != nil {
		parts = append(parts, i.Duration.String())
	}
	if i.Range != nil && i.Range.Begin != nil {
		parts = append(parts, "from "+FormatDate(*i.Range.Begin))
	}
	if i.Range != nil && i.Range.End != nil {
		parts = append(parts, "to "+FormatDate(*i.Range.End))
	}
	return strings.Join(parts, " ")
}

// Date builds a midnight UTC date.
func Date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FormatDate prints a date in the journal's canonical form.
func FormatDate(t time.Time) string {
	return t.Format("2006/01/02")
}

func ptr(t time.Time) *time.Time {
	return &t
}
