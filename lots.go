package margin

import (
	"errors"
	"slices"

	"github.com/etnz/margin/date"
)

// LotSide is the direction of an open lot.
type LotSide string

const (
	LongLot  LotSide = "LONG"
	ShortLot LotSide = "SHORT"
)

// Lot is a batch of shares opened by a single trade, tracked separately for
// cost basis and realized P&L.
//
// 0 <= QtyOpen <= QtyInit holds at all times, and a lot whose QtyOpen reaches 0
// is dropped from the active set.
type Lot struct {
	ID        string    `json:"id"`
	TradeID   string    `json:"tradeId,omitempty"`
	Ticker    string    `json:"ticker"`
	OpenDate  date.Date `json:"openDate"`
	Side      LotSide   `json:"side"`
	QtyOpen   Quantity  `json:"qtyOpen"`
	QtyInit   Quantity  `json:"qtyInit"`
	CostBasis Money     `json:"costBasisPerShare"`
	Fees      Money     `json:"feesTotal"`
	// MaintenanceMargin overrides the broker maintenance percentage for this lot.
	MaintenanceMargin *Rate `json:"maintenanceMarginPct,omitempty"`
}

// SignedQty returns the open quantity, negative for short lots.
func (l Lot) SignedQty() Quantity {
	if l.Side == ShortLot {
		return l.QtyOpen.Neg()
	}
	return l.QtyOpen
}

// Cost returns the cost basis of the open quantity, negative for short lots.
func (l Lot) Cost() Money { return l.CostBasis.Mul(l.SignedQty()) }

// Validate checks the lot invariants.
func (l Lot) Validate() error {
	var errs []error
	if l.Ticker == "" {
		errs = append(errs, invalid("ticker", "is missing"))
	}
	if l.Side != LongLot && l.Side != ShortLot {
		errs = append(errs, invalid("side", "unknown lot side %q", l.Side))
	}
	if l.QtyOpen.IsNegative() || l.QtyOpen.GreaterThan(l.QtyInit) {
		errs = append(errs, invalid("qtyOpen", "must be within [0, %v], got %v", l.QtyInit, l.QtyOpen))
	}
	if l.CostBasis.IsNegative() {
		errs = append(errs, invalid("costBasisPerShare", "must not be negative, got %v", l.CostBasis))
	}
	if m := l.MaintenanceMargin; m != nil && (m.IsNegative() || m.GreaterThan(R(1))) {
		errs = append(errs, invalid("maintenanceMarginPct", "must be within [0, 1], got %v", *m))
	}
	return errors.Join(errs...)
}

// LotSlice is the part of a lot consumed by a closing trade.
type LotSlice struct {
	LotID     string
	OpenDate  date.Date
	Quantity  Quantity
	CostBasis Money
	Realized  Money
}

// MatchResult is the outcome of applying a trade to a set of lots.
type MatchResult struct {
	Lots     []Lot      // the active set after the trade, new lots included
	NewLots  []Lot      // lots created by an opening trade
	Consumed []LotSlice // slices consumed by a closing trade, in consumption order
	Realized Money      // realized P&L of a closing trade
}

// OpenQuantity returns the sum of open quantities of ticker lots on a given side.
func OpenQuantity(lots []Lot, ticker string, side LotSide) Quantity {
	var total Quantity
	for _, l := range lots {
		if l.Ticker == ticker && l.Side == side {
			total = total.Add(l.QtyOpen)
		}
	}
	return total
}

// ValidateSellTrade checks that a closing trade does not ask for more shares
// than are open for its ticker. Opening trades are always valid.
func ValidateSellTrade(t Trade, lots []Lot) error {
	if !t.Side.Closes() {
		return nil
	}
	side := t.Side.LotSide()
	available := OpenQuantity(lots, t.Ticker, side)
	if available.LessThan(t.Quantity) {
		return &InsufficientLotQuantityError{Ticker: t.Ticker, Side: side, Requested: t.Quantity, Available: available}
	}
	return nil
}

// ApplyTrade applies a single trade to the existing lots.
//
// An opening trade (BUY, SHORT) creates exactly one lot. A closing trade (SELL,
// COVER) consumes the ticker's lots in the method order and realizes
// q*(price-cost) per consumed slice, whatever the side of the lot: covering
// below the short price gives a negative amount.
// existing is never modified; on error no result is produced.
func ApplyTrade(t Trade, existing []Lot, method CostBasisMethod) (MatchResult, error) {
	lots := slices.Clone(existing)

	if t.Side.Opens() {
		l := Lot{
			ID:        t.ID,
			TradeID:   t.ID,
			Ticker:    t.Ticker,
			OpenDate:  t.Date,
			Side:      t.Side.LotSide(),
			QtyOpen:   t.Quantity,
			QtyInit:   t.Quantity,
			CostBasis: t.Price,
			Fees:      t.Fees,
		}
		return MatchResult{Lots: append(lots, l), NewLots: []Lot{l}}, nil
	}

	if err := ValidateSellTrade(t, existing); err != nil {
		return MatchResult{}, err
	}

	side := t.Side.LotSide()
	// indexes of matching lots in consumption order.
	var order []int
	for i, l := range lots {
		if l.Ticker == t.Ticker && l.Side == side {
			order = append(order, i)
		}
	}
	slices.SortStableFunc(order, func(a, b int) int { return lots[a].OpenDate.Compare(lots[b].OpenDate) })
	if method == LIFO {
		slices.Reverse(order)
	}

	var res MatchResult
	remaining := t.Quantity
	for _, i := range order {
		if remaining.IsZero() {
			break
		}
		l := &lots[i]
		q := remaining.Min(l.QtyOpen)

		realized := t.Price.Sub(l.CostBasis).Mul(q)
		res.Realized = res.Realized.Add(realized)
		res.Consumed = append(res.Consumed, LotSlice{LotID: l.ID, OpenDate: l.OpenDate, Quantity: q, CostBasis: l.CostBasis, Realized: realized})

		l.QtyOpen = l.QtyOpen.Sub(q)
		remaining = remaining.Sub(q)
	}

	res.Lots = slices.DeleteFunc(lots, func(l Lot) bool { return l.QtyOpen.IsZero() })
	return res, nil
}

// SplitLot splits sellQty shares off a lot. The remaining lot keeps the identity
// of lot; the sold lot carries sellQty at the same cost basis and its share of
// the fees.
func SplitLot(l Lot, sellQty Quantity) (remaining, sold Lot, err error) {
	if !sellQty.IsPositive() || sellQty.GreaterThan(l.QtyOpen) {
		return l, Lot{}, invalid("qty", "split quantity must be within (0, %v], got %v", l.QtyOpen, sellQty)
	}
	soldFees := Money{}
	if l.QtyInit.IsPositive() {
		soldFees = l.Fees.Mul(sellQty).Div(l.QtyInit)
	}

	remaining = l
	remaining.QtyOpen = l.QtyOpen.Sub(sellQty)
	remaining.Fees = l.Fees.Sub(soldFees)

	sold = l
	sold.ID = l.ID + "-" + remaining.QtyOpen.String()
	sold.QtyOpen = sellQty
	sold.QtyInit = sellQty
	sold.Fees = soldFees
	return remaining, sold, nil
}
