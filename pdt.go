package margin

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/etnz/margin/date"
)

// PDTThreshold is the number of day trades in the rolling window at which an
// account is flagged at risk of pattern day trader status.
const PDTThreshold = 4

// PDTWindow is the number of business days of the rolling window.
const PDTWindow = 5

// IsDayTrade reports whether t closes a position (SELL or COVER) on a day where
// the same ticker was also opened on the opposite side (BUY or SHORT).
// Quantities and intraday ordering are not considered.
func IsDayTrade(t Trade, trades []Trade) bool {
	if !t.Side.Closes() {
		return false
	}
	opener := t.Side.Opposite()
	return slices.ContainsFunc(trades, func(u Trade) bool {
		return u.Date == t.Date && u.Ticker == t.Ticker && u.Side == opener
	})
}

// Last5BusinessDays returns the 5 most recent business days up to asOf
// (included when it is a business day), oldest first. Weekends are skipped, no
// holiday calendar is applied.
func Last5BusinessDays(asOf date.Date) [PDTWindow]date.Date {
	var days [PDTWindow]date.Date
	d := asOf
	for i := PDTWindow - 1; i >= 0; d = d.Add(-1) {
		if d.IsBusinessDay() {
			days[i] = d
			i--
		}
	}
	return days
}

// dayTradesInWindow returns the day trades of the window, deduplicated by id.
func dayTradesInWindow(trades []Trade, asOf date.Date) []Trade {
	window := Last5BusinessDays(asOf)
	seen := make(map[string]bool)
	var res []Trade
	for i, t := range trades {
		if !slices.Contains(window[:], t.Date) || !IsDayTrade(t, trades) {
			continue
		}
		key := t.ID
		if key == "" {
			key = "#" + strconv.Itoa(i)
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		res = append(res, t)
	}
	return res
}

// CountDayTradesLast5Days counts the day trades over the 5 business days ending on asOf.
func CountDayTradesLast5Days(trades []Trade, asOf date.Date) int {
	return len(dayTradesInWindow(trades, asOf))
}

// PDTStatus is the pattern day trader status of an account as of a given day.
// It is derived from the trades and never stored.
type PDTStatus struct {
	AsOf            date.Date
	DayTrades       int
	IsPDTRisk       bool
	Window          [PDTWindow]date.Date
	DayTradesByDate map[date.Date]int
}

// NewPDTStatus computes the PDT status as of a given day.
func NewPDTStatus(trades []Trade, asOf date.Date) PDTStatus {
	s := PDTStatus{
		AsOf:            asOf,
		Window:          Last5BusinessDays(asOf),
		DayTradesByDate: make(map[date.Date]int),
	}
	for _, d := range s.Window {
		s.DayTradesByDate[d] = 0
	}
	for _, t := range dayTradesInWindow(trades, asOf) {
		s.DayTradesByDate[t.Date]++
		s.DayTrades++
	}
	s.IsPDTRisk = s.DayTrades >= PDTThreshold
	return s
}

// Message returns the advisory text matching the number of day trades.
func (s PDTStatus) Message() string {
	switch {
	case s.DayTrades >= PDTThreshold:
		return fmt.Sprintf("PDT risk: %d day trades in the last %d business days, one more day trade will trigger pattern day trader status.", s.DayTrades, PDTWindow)
	case s.DayTrades >= 2:
		return fmt.Sprintf("Approaching the PDT limit: %d day trades in the last %d business days.", s.DayTrades, PDTWindow)
	default:
		return fmt.Sprintf("%d day trade(s) in the last %d business days.", s.DayTrades, PDTWindow)
	}
}

// WouldCreateDayTrade reports whether committing candidate would create a day
// trade: either candidate is itself one, or it is the missing opening leg of a
// closing trade already recorded that day.
func WouldCreateDayTrade(candidate Trade, existing []Trade) bool {
	all := append(slices.Clip(existing), candidate)
	if IsDayTrade(candidate, all) {
		return true
	}
	if !candidate.Side.Opens() {
		return false
	}
	return slices.ContainsFunc(existing, func(u Trade) bool {
		return u.Date == candidate.Date && u.Ticker == candidate.Ticker &&
			u.Side == candidate.Side.Opposite() && !IsDayTrade(u, existing)
	})
}
