package margin

import (
	"slices"

	"github.com/etnz/margin/date"
)

// DefaultMaintenanceMargin is used by position summaries when no broker
// specific percentage is supplied.
var DefaultMaintenanceMargin = R(0.30)

// Position is the state of one lot at a given date, as input of the margin
// calculations. Qty is negative for short lots. A nil MarketPrice means the
// price is unknown, and CostBasis is used instead.
type Position struct {
	Date        date.Date
	Ticker      string
	LotID       string
	Qty         Quantity
	MarketPrice *Money
	CostBasis   Money
}

// Price returns the market price, or the cost basis if it is unknown.
func (p Position) Price() Money {
	if p.MarketPrice != nil {
		return *p.MarketPrice
	}
	return p.CostBasis
}

// Positions builds one position per open lot, priced from prices when the
// ticker is known.
func Positions(on date.Date, lots []Lot, prices map[string]Money) []Position {
	res := make([]Position, 0, len(lots))
	for _, l := range lots {
		p := Position{Date: on, Ticker: l.Ticker, LotID: l.ID, Qty: l.SignedQty(), CostBasis: l.CostBasis}
		if price, ok := prices[l.Ticker]; ok {
			p.MarketPrice = &price
		}
		res = append(res, p)
	}
	return res
}

// MarketValue returns qty * price.
func MarketValue(qty Quantity, price Money) Money { return price.Mul(qty) }

// Equity returns the market value of all positions, minus the debit, plus the credit.
func Equity(positions []Position, debit, credit Money) Money {
	var total Money
	for _, p := range positions {
		total = total.Add(MarketValue(p.Qty, p.Price()))
	}
	return total.Sub(debit).Add(credit)
}

// MaintenanceRequirement returns |qty| * price * pct.
func MaintenanceRequirement(qty Quantity, price Money, pct Rate) Money {
	return price.Mul(qty.Abs()).MulRate(pct)
}

// TotalMaintenanceRequirement sums the maintenance requirement of every
// position, using the lot's own percentage when it has one and defaultPct otherwise.
func TotalMaintenanceRequirement(positions []Position, lots []Lot, defaultPct Rate) Money {
	var total Money
	for _, p := range positions {
		pct := defaultPct
		if i := slices.IndexFunc(lots, func(l Lot) bool { return l.ID == p.LotID }); i >= 0 && lots[i].MaintenanceMargin != nil {
			pct = *lots[i].MaintenanceMargin
		}
		total = total.Add(MaintenanceRequirement(p.Qty, p.Price(), pct))
	}
	return total
}

// AvailableBuyingPower returns max(0, 2 * (equity - maintenance)).
//
// This is a simplified Reg-T approximation: the initial margin percentage is
// accepted for future use but the factor is fixed to 2.
func AvailableBuyingPower(equity, maintenance Money, initialMarginPct Rate) Money {
	return equity.Sub(maintenance).MulRate(R(2)).Max(Money{})
}

// InitialMarginRequirement returns the equity needed to purchase amount.
func InitialMarginRequirement(amount Money, pct Rate) Money { return amount.MulRate(pct) }

// IsMarginCall reports whether equity is below the maintenance requirement.
func IsMarginCall(equity, maintenance Money) bool { return equity.LessThan(maintenance) }

// PositionSummary aggregates the lots of a ticker.
type PositionSummary struct {
	Ticker      string
	Quantity    Quantity // signed, negative when net short
	Price       Money
	PriceKnown  bool
	MarketValue Money
	CostBasis   Money
	Unrealized  Money
	Maintenance Money
}

// NewPositionSummary aggregates the ticker lots. A nil price falls back to each
// lot cost basis, a nil pct to DefaultMaintenanceMargin.
func NewPositionSummary(ticker string, lots []Lot, price *Money, pct *Rate) PositionSummary {
	s := PositionSummary{Ticker: ticker, PriceKnown: price != nil}
	if price != nil {
		s.Price = *price
	}
	def := DefaultMaintenanceMargin
	if pct != nil {
		def = *pct
	}
	for _, l := range lots {
		if l.Ticker != ticker {
			continue
		}
		p := l.CostBasis
		if price != nil {
			p = *price
		}
		m := def
		if l.MaintenanceMargin != nil {
			m = *l.MaintenanceMargin
		}
		s.Quantity = s.Quantity.Add(l.SignedQty())
		s.MarketValue = s.MarketValue.Add(MarketValue(l.SignedQty(), p))
		s.CostBasis = s.CostBasis.Add(l.Cost())
		s.Maintenance = s.Maintenance.Add(MaintenanceRequirement(l.QtyOpen, p, m))
	}
	s.Unrealized = s.MarketValue.Sub(s.CostBasis)
	return s
}

// AccountSummary is the margin report of an account.
type AccountSummary struct {
	Date                   date.Date
	Currency               string
	Equity                 Money
	Debit                  Money
	MarketValue            Money
	BuyingPower            Money
	Maintenance            Money
	APR                    Rate
	EstimatedDailyInterest Money
	IsMarginCall           bool
	Positions              []PositionSummary
}

// NewAccountSummary composes the margin metrics of an account. When apr is nil
// the tier schedule rate for the debit is used to estimate the daily interest.
func NewAccountSummary(positions []Position, lots []Lot, debit Money, broker BrokerSettings, apr *Rate) AccountSummary {
	s := AccountSummary{Debit: debit, Currency: broker.Currency}
	if len(positions) > 0 {
		s.Date = positions[0].Date
	}
	for _, p := range positions {
		s.MarketValue = s.MarketValue.Add(MarketValue(p.Qty, p.Price()))
	}
	s.Equity = Equity(positions, debit, Money{})
	s.Maintenance = TotalMaintenanceRequirement(positions, lots, broker.MaintenanceMargin)
	s.BuyingPower = AvailableBuyingPower(s.Equity, s.Maintenance, broker.InitialMargin)
	if apr != nil {
		s.APR = *apr
	} else {
		s.APR = PickTierAPR(debit, broker.Tiers)
	}
	s.EstimatedDailyInterest = DailyInterest(debit, s.APR, broker.DayCountBasis)
	s.IsMarginCall = IsMarginCall(s.Equity, s.Maintenance)

	// one summary per ticker, in order of first appearance.
	var tickers []string
	prices := make(map[string]*Money)
	for _, p := range positions {
		if !slices.Contains(tickers, p.Ticker) {
			tickers = append(tickers, p.Ticker)
		}
		if p.MarketPrice != nil {
			prices[p.Ticker] = p.MarketPrice
		}
	}
	pct := broker.MaintenanceMargin
	for _, t := range tickers {
		s.Positions = append(s.Positions, NewPositionSummary(t, lots, prices[t], &pct))
	}
	return s
}
