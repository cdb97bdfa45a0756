package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/etnz/margin/quote"
	"github.com/etnz/margin/renderer"
	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
)

// Environment variables configuring the quote feed.
const (
	EnvQuoteURL        = "MARG_QUOTE_URL"
	EnvQuotePricePath  = "MARG_QUOTE_PRICE_PATH"
	EnvQuoteVolumePath = "MARG_QUOTE_VOLUME_PATH"
	EnvQuoteOpenPath   = "MARG_QUOTE_OPEN_PATH"
	EnvQuoteRate       = "MARG_QUOTE_RATE"
	EnvQuoteCache      = "MARG_QUOTE_CACHE"
)

// quoteFeed returns the HTTP quote feed configured in the environment, or nil
// when no quote URL is set.
func quoteFeed() (*quote.HTTPFeed, error) {
	url := os.Getenv(EnvQuoteURL)
	if url == "" {
		return nil, nil
	}
	if !strings.Contains(url, "{ticker}") {
		return nil, fmt.Errorf("%s must contain a {ticker} placeholder, got %q", EnvQuoteURL, url)
	}
	pricePath := os.Getenv(EnvQuotePricePath)
	if pricePath == "" {
		pricePath = "$.price"
	}
	perSecond := 5.0
	if s := os.Getenv(EnvQuoteRate); s != "" {
		var err error
		if perSecond, err = strconv.ParseFloat(s, 64); err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvQuoteRate, err)
		}
	}
	feed := quote.NewHTTPFeed(url, pricePath, perSecond)
	feed.VolumePath = os.Getenv(EnvQuoteVolumePath)
	feed.MarketOpenPath = os.Getenv(EnvQuoteOpenPath)

	cache := os.Getenv(EnvQuoteCache)
	if cache == "" {
		dir, err := os.UserCacheDir()
		if err != nil {
			return nil, fmt.Errorf("cannot locate the user cache directory: %w", err)
		}
		cache = filepath.Join(dir, "marg")
	}
	feed.Client = quote.Daily(cache)
	return feed, nil
}

// priceFlags collects TICKER=PRICE flags.
type priceFlags quote.Static

func (p priceFlags) String() string { return fmt.Sprint(map[string]quote.Quote(p)) }
func (p priceFlags) Set(s string) error {
	ticker, price, ok := strings.Cut(s, "=")
	if !ok || ticker == "" {
		return fmt.Errorf("want TICKER=PRICE, got %q", s)
	}
	d, err := decimal.NewFromString(price)
	if err != nil {
		return fmt.Errorf("invalid price for %s: %w", ticker, err)
	}
	p[strings.ToUpper(ticker)] = quote.Quote{Price: &d}
	return nil
}

// fetchQuotes resolves tickers with the configured feed, manual prices taking
// precedence.
func fetchQuotes(ctx context.Context, tickers []string, manual priceFlags, online bool) (map[string]quote.Quote, error) {
	quotes := quote.Static(manual).Quotes(ctx, tickers)
	if !online {
		return quotes, nil
	}
	feed, err := quoteFeed()
	if err != nil {
		return nil, err
	}
	if feed == nil {
		return quotes, nil
	}
	var missing []string
	for _, t := range tickers {
		if !quotes[t].Known() {
			missing = append(missing, t)
		}
	}
	return quote.Merge(feed.Quotes(ctx, missing), quotes), nil
}

// --- Quote Command ---

type quoteCmd struct {
	watch  time.Duration
	prices priceFlags
}

func (*quoteCmd) Name() string     { return "quote" }
func (*quoteCmd) Synopsis() string { return "fetch quotes of the open positions" }
func (*quoteCmd) Usage() string {
	return `quote [-watch <period>] [<ticker>...]

  Fetches quotes of the given tickers, or of the tickers of the open lots, from
  the web API configured in the environment:

    MARG_QUOTE_URL          URL with a {ticker} placeholder
    MARG_QUOTE_PRICE_PATH   JSONPath of the price ($.price by default)
    MARG_QUOTE_VOLUME_PATH  JSONPath of the volume (optional)
    MARG_QUOTE_OPEN_PATH    JSONPath of the market open flag (optional)
    MARG_QUOTE_RATE         maximum requests per second (5 by default)
    MARG_QUOTE_CACHE        directory of the daily response cache

  With -watch, quotes are refreshed periodically until interrupted.
`
}

func (c *quoteCmd) SetFlags(f *flag.FlagSet) {
	c.prices = make(priceFlags)
	f.DurationVar(&c.watch, "watch", 0, "Refresh period, quotes are fetched once when zero")
	f.Var(c.prices, "price", "Manual TICKER=PRICE quote, can be repeated")
}

func (c *quoteCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	tickers := f.Args()
	for i, t := range tickers {
		tickers[i] = strings.ToUpper(t)
	}
	if len(tickers) == 0 {
		a, err := read(ctx)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
		tickers = a.Tickers()
	}
	if len(tickers) == 0 {
		fmt.Fprintln(os.Stderr, "No ticker to quote.")
		return subcommands.ExitSuccess
	}
	feed, err := quoteFeed()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}

	if c.watch <= 0 {
		quotes, err := fetchQuotes(ctx, tickers, c.prices, true)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
		printMarkdown(renderer.QuotesMarkdown(quotes))
		return subcommands.ExitSuccess
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt)
	defer cancel()
	r := &quote.Refresher{
		Period:   c.watch,
		Tickers:  func() []string { return tickers },
		OnQuotes: func(q map[string]quote.Quote) { printMarkdown(renderer.QuotesMarkdown(quote.Merge(q, quote.Static(c.prices)))) },
	}
	if feed != nil {
		r.Feed = feed
	} else {
		r.Feed = quote.Static(c.prices)
	}
	stop := r.Start(ctx)
	<-ctx.Done()
	stop()
	return subcommands.ExitSuccess
}
