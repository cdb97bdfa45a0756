package quote

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func str(d *decimal.Decimal) string {
	if d == nil {
		return "<nil>"
	}
	return d.String()
}

func TestStatic(t *testing.T) {
	feed := Prices(map[string]float64{"AAPL": 150.25})
	got := feed.Quotes(context.Background(), []string{"AAPL", "MSFT"})

	if len(got) != 2 {
		t.Fatalf("Quotes() returned %d quotes, want 2", len(got))
	}
	if p := str(got["AAPL"].Price); p != "150.25" {
		t.Errorf("AAPL price = %s, want 150.25", p)
	}
	if got["MSFT"].Known() {
		t.Errorf("MSFT is known, want unknown")
	}
}

func TestMerge(t *testing.T) {
	old := Prices(map[string]float64{"AAPL": 150, "MSFT": 300})
	fresh := map[string]Quote{"AAPL": {}, "MSFT": Prices(map[string]float64{"MSFT": 310})["MSFT"], "TSLA": {}}

	got := Merge(old, fresh)

	for ticker, want := range map[string]string{"AAPL": "150", "MSFT": "310", "TSLA": "<nil>"} {
		if p := str(got[ticker].Price); p != want {
			t.Errorf("%s price = %s, want %s", ticker, p, want)
		}
	}
}

func TestHTTPFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/q/AAPL":
			fmt.Fprint(w, `{"quote":{"last":150.25,"volume":"1200","open":true}}`)
		case "/q/BRK.B":
			fmt.Fprint(w, `{"quote":{"last":"412,5","open":"false"}}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	feed := &HTTPFeed{
		URL:            srv.URL + "/q/{ticker}",
		PricePath:      "$.quote.last",
		VolumePath:     "$.quote.volume",
		MarketOpenPath: "$.quote.open",
		Client:         srv.Client(),
	}
	got := feed.Quotes(context.Background(), []string{"AAPL", "BRK.B", "UNKNOWN"})

	tests := []struct {
		ticker, price, volume string
		open                  *bool
	}{
		{"AAPL", "150.25", "1200", ptr(true)},
		{"BRK.B", "412.5", "<nil>", ptr(false)},
		{"UNKNOWN", "<nil>", "<nil>", nil},
	}
	for _, tt := range tests {
		t.Run(tt.ticker, func(t *testing.T) {
			q := got[tt.ticker]
			if p := str(q.Price); p != tt.price {
				t.Errorf("price = %s, want %s", p, tt.price)
			}
			if v := str(q.Volume); v != tt.volume {
				t.Errorf("volume = %s, want %s", v, tt.volume)
			}
			switch {
			case tt.open == nil && q.IsMarketOpen != nil:
				t.Errorf("market open = %v, want unknown", *q.IsMarketOpen)
			case tt.open != nil && (q.IsMarketOpen == nil || *q.IsMarketOpen != *tt.open):
				t.Errorf("market open = %v, want %v", q.IsMarketOpen, *tt.open)
			}
		})
	}
}

func ptr[T any](v T) *T { return &v }

func TestDailyCache(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		fmt.Fprint(w, `{"price":10}`)
	}))
	defer srv.Close()

	feed := &HTTPFeed{URL: srv.URL + "/{ticker}", PricePath: "$.price", Client: Daily(t.TempDir())}
	for range 3 {
		if p := str(feed.Quotes(context.Background(), []string{"X"})["X"].Price); p != "10" {
			t.Fatalf("price = %s, want 10", p)
		}
	}
	if n := hits.Load(); n != 1 {
		t.Errorf("server was hit %d times, want 1", n)
	}
}

// blockingFeed returns only once released.
type blockingFeed struct {
	calls   atomic.Int32
	release chan struct{}
}

func (f *blockingFeed) Quotes(ctx context.Context, tickers []string) map[string]Quote {
	f.calls.Add(1)
	select {
	case <-f.release:
	case <-ctx.Done():
	}
	return Prices(map[string]float64{"AAPL": 1}).Quotes(ctx, tickers)
}

func TestRefresherSkipsOverlappingRefresh(t *testing.T) {
	feed := &blockingFeed{release: make(chan struct{})}
	var delivered atomic.Int32
	r := &Refresher{
		Feed:     feed,
		Tickers:  func() []string { return []string{"AAPL"} },
		OnQuotes: func(map[string]Quote) { delivered.Add(1) },
	}

	done := make(chan bool)
	go func() { done <- r.Refresh(context.Background()) }()
	for feed.calls.Load() == 0 {
		time.Sleep(time.Millisecond)
	}

	if r.Refresh(context.Background()) {
		t.Errorf("second Refresh() = true while the first one is running, want false")
	}
	close(feed.release)
	if !<-done {
		t.Errorf("first Refresh() = false, want true")
	}
	if n := delivered.Load(); n != 1 {
		t.Errorf("quotes delivered %d times, want 1", n)
	}
	if n := feed.calls.Load(); n != 1 {
		t.Errorf("feed called %d times, want 1", n)
	}
}

func TestRefresherStop(t *testing.T) {
	var delivered atomic.Int32
	r := &Refresher{
		Feed:     Prices(map[string]float64{"AAPL": 1}),
		Period:   time.Millisecond,
		Tickers:  func() []string { return []string{"AAPL"} },
		OnQuotes: func(map[string]Quote) { delivered.Add(1) },
	}
	stop := r.Start(context.Background())
	for delivered.Load() < 2 {
		time.Sleep(time.Millisecond)
	}
	stop()

	n := delivered.Load()
	time.Sleep(10 * time.Millisecond)
	if m := delivered.Load(); m != n {
		t.Errorf("quotes delivered after stop: %d then %d", n, m)
	}
}
