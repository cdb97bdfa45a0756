package date

import (
	"fmt"
	"iter"
)

// Range represents a range of dates.
type Range struct{ From, To Date }

// NewRange return a well known period
func NewRange(d Date, period Period) Range {
	return Range{From: d.StartOf(period), To: d.EndOf(period)}
}

// Contains return true date is included in the range (boundaries included)
func (r Range) Contains(date Date) bool { return (!date.Before(r.From) && !date.After(r.To)) }

// Days iterates over every day of the range.
func (r Range) Days() iter.Seq[Date] { return Days(r.From, r.To) }

func (r Range) String() string { return fmt.Sprintf("%s..%s", r.From, r.To) }
