// Package quote retrieves market quotes for the tickers of an account.
//
// A Feed never fails: a ticker that cannot be resolved gets a Quote with nil
// fields, and the margin calculations fall back to the lots cost basis.
package quote

import (
	"context"
	"maps"

	"github.com/shopspring/decimal"
)

// Quote is the latest known market data of a ticker. Nil fields are unknown.
type Quote struct {
	Price        *decimal.Decimal `json:"price"`
	Volume       *decimal.Decimal `json:"volume"`
	IsMarketOpen *bool            `json:"isMarketOpen"`
}

// Known reports whether the quote carries a price.
func (q Quote) Known() bool { return q.Price != nil }

// Feed resolves quotes for a set of tickers.
type Feed interface {
	// Quotes returns one quote per requested ticker.
	Quotes(ctx context.Context, tickers []string) map[string]Quote
}

// Static is a Feed backed by a fixed map, for tests and offline use.
type Static map[string]Quote

// Quotes implements Feed.
func (s Static) Quotes(_ context.Context, tickers []string) map[string]Quote {
	res := make(map[string]Quote, len(tickers))
	for _, t := range tickers {
		res[t] = s[t]
	}
	return res
}

// Prices returns a Static feed with only prices.
func Prices(prices map[string]float64) Static {
	s := make(Static, len(prices))
	for t, p := range prices {
		d := decimal.NewFromFloat(p)
		s[t] = Quote{Price: &d}
	}
	return s
}

// Merge returns a copy of a where b's known prices replace a's.
func Merge(a, b map[string]Quote) map[string]Quote {
	res := maps.Clone(a)
	if res == nil {
		res = make(map[string]Quote)
	}
	for t, q := range b {
		if q.Known() || !res[t].Known() {
			res[t] = q
		}
	}
	return res
}
