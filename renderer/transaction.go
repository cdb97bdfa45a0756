package renderer

import (
	"fmt"

	"github.com/etnz/margin"
)

// Trade renders a trade to a string.
func Trade(t margin.Trade, currency string) string {
	var s string
	switch t.Side {
	case margin.Buy:
		s = fmt.Sprintf("Bought %v %s at %s", t.Quantity, t.Ticker, t.Price.Format(currency))
	case margin.Sell:
		s = fmt.Sprintf("Sold %v %s at %s", t.Quantity, t.Ticker, t.Price.Format(currency))
	case margin.Short:
		s = fmt.Sprintf("Shorted %v %s at %s", t.Quantity, t.Ticker, t.Price.Format(currency))
	case margin.Cover:
		s = fmt.Sprintf("Covered %v %s at %s", t.Quantity, t.Ticker, t.Price.Format(currency))
	default:
		return t.String()
	}
	if !t.Fees.IsZero() {
		s += fmt.Sprintf(" (fees %s)", t.Fees.Format(currency))
	}
	return s
}
