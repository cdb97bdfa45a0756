package margin

import (
	"slices"

	"github.com/etnz/margin/quote"
)

// PricesFromQuotes returns the known prices of quotes. Tickers without a price
// are left out, the margin calculations then use their cost basis.
func PricesFromQuotes(quotes map[string]quote.Quote) map[string]Money {
	prices := make(map[string]Money, len(quotes))
	for t, q := range quotes {
		if q.Price != nil {
			prices[t] = M(*q.Price)
		}
	}
	return prices
}

// Tickers returns the sorted tickers of the open lots.
func (a *Account) Tickers() []string {
	var res []string
	for _, l := range a.lots {
		if !slices.Contains(res, l.Ticker) {
			res = append(res, l.Ticker)
		}
	}
	slices.Sort(res)
	return res
}
