package margin

import (
	"testing"

	"github.com/etnz/margin/date"
	"github.com/google/go-cmp/cmp"
)

// cmpOpts compares the decimal based types by value.
var cmpOpts = cmp.Options{
	cmp.Comparer(func(a, b Money) bool { return a.Equal(b) }),
	cmp.Comparer(func(a, b Quantity) bool { return a.Equal(b) }),
	cmp.Comparer(func(a, b Rate) bool { return a.Equal(b) }),
	cmp.Comparer(func(a, b date.Date) bool { return a == b }),
}

// d is a shortcut to parse dates in tests.
func d(s string) date.Date { return date.MustParse(s) }

// trade builds a valid trade with a fixed id.
func trade(id, on, ticker string, side Side, qty, price float64) Trade {
	return Trade{ID: id, Date: d(on), Ticker: ticker, Side: side, Quantity: Q(qty), Price: M(price)}
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

// assertMoney fails if got is not want once rounded to the cent.
func assertMoney(t *testing.T, name string, got Money, want float64) {
	t.Helper()
	if !got.Round(2).Equal(M(want).Round(2)) {
		t.Errorf("%s = %v, want %v", name, got.Decimal(), want)
	}
}
