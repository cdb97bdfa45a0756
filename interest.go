package margin

import (
	"slices"

	"github.com/etnz/margin/date"
	"github.com/shopspring/decimal"
)

// LedgerEntry is one day of the interest ledger.
//
// Amounts are expressed in debit terms: a positive CashActivity increases the
// amount owed to the broker, a negative one repays it.
type LedgerEntry struct {
	Date          date.Date `json:"date"`
	OpeningDebit  Money     `json:"openingDebit"`
	CashActivity  Money     `json:"cashActivity"`
	DailyInterest Money     `json:"dailyInterest"`
	ClosingDebit  Money     `json:"closingDebit"`
	APR           Rate      `json:"aprUsed"`
}

// InterestLedger is a chain of daily entries, one per calendar day, where each
// entry opens with the previous entry's closing debit.
type InterestLedger []LedgerEntry

// CashAdjustment is a cash movement that is not a trade (deposit, withdrawal,
// fee, correction), in debit terms.
type CashAdjustment struct {
	Date   date.Date `json:"date"`
	Amount Money     `json:"amount"`
	Memo   string    `json:"memo,omitempty"`
}

// LedgerOptions holds what drives the accrual beside trades and broker settings.
type LedgerOptions struct {
	Overrides   RateOverrides
	Adjustments []CashAdjustment
	Through     date.Date // last day to accrue, today if zero.
}

// DailyInterest returns the interest accrued in one day on balance at apr. A non
// positive balance accrues nothing.
func DailyInterest(balance Money, apr Rate, dayCountBasis int) Money {
	if !balance.IsPositive() {
		return Money{}
	}
	if dayCountBasis < 1 {
		dayCountBasis = 1
	}
	return balance.MulRate(apr).DivInt(int64(dayCountBasis))
}

// CashActivity returns the net debit effect of all trades dated on: purchases
// (BUY, COVER) add qty*price+fees, sales (SELL, SHORT) remove qty*price-fees.
func CashActivity(on date.Date, trades []Trade) Money {
	var total Money
	for _, t := range trades {
		if t.Date == on {
			total = total.Sub(t.CashEffect())
		}
	}
	return total
}

// ComputeEntry applies the daily accrual to a single day.
//
// Only the debit increasing part of the day's activity is added to the
// interest bearing balance; a repayment is applied to the closing debit after
// interest is computed.
func ComputeEntry(on date.Date, openingDebit, cashActivity Money, broker BrokerSettings, overrides RateOverrides) LedgerEntry {
	effective := openingDebit.Add(cashActivity.Max(Money{})).Max(Money{})
	apr := EffectiveAPRByDay(on, effective, broker.Tiers, overrides)
	interest := DailyInterest(effective, apr, broker.DayCountBasis)
	return LedgerEntry{
		Date:          on,
		OpeningDebit:  openingDebit,
		CashActivity:  cashActivity,
		DailyInterest: interest,
		ClosingDebit:  openingDebit.Add(cashActivity).Add(interest),
		APR:           apr,
	}
}

// dailyCash indexes the debit activity of trades and adjustments by day.
func dailyCash(trades []Trade, adjustments []CashAdjustment) map[date.Date]decimal.Decimal {
	cash := make(map[date.Date]decimal.Decimal)
	for _, t := range trades {
		cash[t.Date] = cash[t.Date].Sub(t.CashEffect().Decimal())
	}
	for _, a := range adjustments {
		cash[a.Date] = cash[a.Date].Add(a.Amount.Decimal())
	}
	return cash
}

// RecomputeLedger rebuilds the ledger from a change point.
//
// Entries strictly before from are kept unchanged, the last of them provides
// the opening debit (0 if none). Then every calendar day up to opts.Through is
// accrued, days without activity included. The input ledger is not modified, and
// the result only depends on the arguments.
func RecomputeLedger(from date.Date, trades []Trade, broker BrokerSettings, ledger InterestLedger, opts LedgerOptions) InterestLedger {
	through := opts.Through
	if through.IsZero() {
		through = date.Today()
	}

	var kept InterestLedger
	for _, e := range ledger {
		if e.Date.Before(from) {
			kept = append(kept, e)
		}
	}

	var opening Money
	start := from
	if n := len(kept); n > 0 {
		opening = kept[n-1].ClosingDebit
		start = kept[n-1].Date.Add(1)
	} else {
		// nothing retained, do not skip activity before the change point.
		for _, t := range trades {
			if t.Date.Before(start) {
				start = t.Date
			}
		}
		for _, a := range opts.Adjustments {
			if a.Date.Before(start) {
				start = a.Date
			}
		}
	}
	if start.IsZero() {
		return kept
	}

	cash := dailyCash(trades, opts.Adjustments)
	res := slices.Clip(kept)
	for day := range date.Days(start, through) {
		e := ComputeEntry(day, opening, Money{value: cash[day]}, broker, opts.Overrides)
		res = append(res, e)
		opening = e.ClosingDebit
	}
	return res
}

// ApplyCashActivity adds amount to the cash activity of a single day and
// re-chains every following entry, keeping their own activity. Prior entries are
// not touched. Missing days between the ledger and on are filled with inactive
// days so that the ledger keeps one entry per calendar day.
func ApplyCashActivity(on date.Date, amount Money, ledger InterestLedger, broker BrokerSettings, overrides RateOverrides) InterestLedger {
	res := slices.Clone(ledger)

	switch {
	case len(res) == 0:
		res = InterestLedger{{Date: on}}
	case on.Before(res[0].Date):
		var head InterestLedger
		for day := range date.Days(on, res[0].Date.Add(-1)) {
			head = append(head, LedgerEntry{Date: day})
		}
		res = append(head, res...)
	case on.After(res[len(res)-1].Date):
		for day := range date.Days(res[len(res)-1].Date.Add(1), on) {
			res = append(res, LedgerEntry{Date: day})
		}
	}

	i := slices.IndexFunc(res, func(e LedgerEntry) bool { return e.Date == on })
	var opening Money
	if i > 0 {
		opening = res[i-1].ClosingDebit
	}
	res[i] = ComputeEntry(on, opening, res[i].CashActivity.Add(amount), broker, overrides)

	for j := i + 1; j < len(res); j++ {
		res[j] = ComputeEntry(res[j].Date, res[j-1].ClosingDebit, res[j].CashActivity, broker, overrides)
	}
	return res
}

// TotalInterest sums the daily interest between start and end, both included.
func (l InterestLedger) TotalInterest(start, end date.Date) Money {
	r := date.Range{From: start, To: end}
	var total Money
	for _, e := range l {
		if r.Contains(e.Date) {
			total = total.Add(e.DailyInterest)
		}
	}
	return total
}

// CurrentDebit returns the closing debit of the latest entry, 0 for an empty ledger.
func (l InterestLedger) CurrentDebit() Money {
	if len(l) == 0 {
		return Money{}
	}
	return l[len(l)-1].ClosingDebit
}

// Entry returns the entry of a given day.
func (l InterestLedger) Entry(on date.Date) (LedgerEntry, bool) {
	i := slices.IndexFunc(l, func(e LedgerEntry) bool { return e.Date == on })
	if i < 0 {
		return LedgerEntry{}, false
	}
	return l[i], true
}

// LastDate returns the date of the latest entry, the zero date for an empty ledger.
func (l InterestLedger) LastDate() date.Date {
	if len(l) == 0 {
		return date.Date{}
	}
	return l[len(l)-1].Date
}
