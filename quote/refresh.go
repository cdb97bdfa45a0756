package quote

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// Refresher polls a Feed with a fixed period and hands the quotes to OnQuotes.
//
// A tick that happens while the previous refresh is still running is skipped,
// not queued.
type Refresher struct {
	Feed     Feed
	Period   time.Duration
	Tickers  func() []string
	OnQuotes func(map[string]Quote)

	running atomic.Bool
	wg      sync.WaitGroup
}

// Refresh runs a single refresh, unless one is already running in which case
// it returns false immediately.
func (r *Refresher) Refresh(ctx context.Context) bool {
	if !r.running.CompareAndSwap(false, true) {
		return false
	}
	defer r.running.Store(false)

	tickers := r.Tickers()
	if len(tickers) == 0 {
		return true
	}
	quotes := r.Feed.Quotes(ctx, tickers)
	if ctx.Err() != nil {
		return true
	}
	r.OnQuotes(quotes)
	return true
}

// Start refreshes once, then on every tick until ctx is done or stop is
// called. stop waits for a running refresh to return.
func (r *Refresher) Start(ctx context.Context) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	period := r.Period
	if period <= 0 {
		period = time.Minute
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ticker := time.NewTicker(period)
		defer ticker.Stop()
		r.tick(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.tick(ctx)
			}
		}
	}()
	return func() {
		cancel()
		r.wg.Wait()
	}
}

// tick refreshes in the background so that a slow feed does not delay the
// ticker.
func (r *Refresher) tick(ctx context.Context) {
	if r.running.Load() {
		log.Println("quote refresh still running, tick skipped")
		return
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.Refresh(ctx)
	}()
}
