package margin

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/etnz/margin/date"
	"github.com/oklog/ulid/v2"
)

// Side is the direction of a trade.
type Side string

// Trade sides. BUY and SHORT open a position, SELL and COVER close one.
const (
	Buy   Side = "BUY"
	Sell  Side = "SELL"
	Short Side = "SHORT"
	Cover Side = "COVER"
)

// ParseSide parses a side, case insensitive.
func ParseSide(s string) (Side, error) {
	switch side := Side(strings.ToUpper(strings.TrimSpace(s))); side {
	case Buy, Sell, Short, Cover:
		return side, nil
	default:
		return "", fmt.Errorf("unknown trade side %q want one of BUY, SELL, SHORT, COVER", s)
	}
}

// Opens reports whether the side opens a new lot.
func (s Side) Opens() bool { return s == Buy || s == Short }

// Closes reports whether the side consumes existing lots.
func (s Side) Closes() bool { return s == Sell || s == Cover }

// LotSide returns the side of the lots this trade opens or closes.
func (s Side) LotSide() LotSide {
	if s == Short || s == Cover {
		return ShortLot
	}
	return LongLot
}

// Opposite returns the side that opens what s closes, and vice versa.
func (s Side) Opposite() Side {
	switch s {
	case Buy:
		return Sell
	case Sell:
		return Buy
	case Short:
		return Cover
	case Cover:
		return Short
	}
	return ""
}

// Trade is an immutable record of an execution.
type Trade struct {
	ID       string    `json:"id"`
	Date     date.Date `json:"date"`
	Ticker   string    `json:"ticker"`
	Side     Side      `json:"side"`
	Quantity Quantity  `json:"qty"`
	Price    Money     `json:"price"`
	Fees     Money     `json:"fees"`
	Notes    string    `json:"notes,omitempty"`
}

// NewID returns a new unique, time sortable, identifier.
func NewID() string { return ulid.Make().String() }

// NewTrade creates a new trade with a fresh identifier.
func NewTrade(on date.Date, ticker string, side Side, quantity Quantity, price, fees Money) Trade {
	return Trade{
		ID:       NewID(),
		Date:     on,
		Ticker:   ticker,
		Side:     side,
		Quantity: quantity,
		Price:    price,
		Fees:     fees,
	}
}

// Amount returns quantity times price, fees excluded.
func (t Trade) Amount() Money { return t.Price.Mul(t.Quantity) }

// CashEffect is the signed effect of the trade on the cash balance: purchases
// (BUY, COVER) consume cash plus fees, sales (SELL, SHORT) bring cash minus fees.
func (t Trade) CashEffect() Money {
	switch t.Side {
	case Buy, Cover:
		return t.Amount().Add(t.Fees).Neg()
	case Sell, Short:
		return t.Amount().Sub(t.Fees)
	}
	return Money{}
}

func (t Trade) String() string {
	return fmt.Sprintf("%s %s %v %s @ %v", t.Date, t.Side, t.Quantity, t.Ticker, t.Price)
}

// Validate returns a copy of the trade with quick fixes applied (upper case
// ticker and side, missing identifier) or an error joining a *ValidationError per
// invalid field.
func (t Trade) Validate() (Trade, error) {
	var errs []error

	t.Ticker = strings.ToUpper(strings.TrimSpace(t.Ticker))
	if t.ID == "" {
		t.ID = NewID()
	}
	if t.Date.IsZero() {
		errs = append(errs, invalid("date", "is missing"))
	}
	if t.Ticker == "" {
		errs = append(errs, invalid("ticker", "is missing"))
	}
	if side, err := ParseSide(string(t.Side)); err != nil {
		errs = append(errs, invalid("side", "%v", err))
	} else {
		t.Side = side
	}
	if !t.Quantity.IsPositive() {
		errs = append(errs, invalid("qty", "must be positive, got %v", t.Quantity))
	}
	if t.Price.IsNegative() {
		errs = append(errs, invalid("price", "must not be negative, got %v", t.Price))
	}
	if t.Fees.IsNegative() {
		errs = append(errs, invalid("fees", "must not be negative, got %v", t.Fees))
	}
	return t, errors.Join(errs...)
}

// SortTrades sorts trades chronologically, keeping the insertion order of trades on the same day.
func SortTrades(trades []Trade) {
	slices.SortStableFunc(trades, func(a, b Trade) int { return a.Date.Compare(b.Date) })
}
