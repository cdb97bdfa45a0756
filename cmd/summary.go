package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/etnz/margin"
	"github.com/etnz/margin/renderer"
	"github.com/google/subcommands"
)

// summaryCmd holds the flags for the 'summary' subcommand.
type summaryCmd struct {
	date    string
	offline bool
	prices  priceFlags
}

func (*summaryCmd) Name() string     { return "summary" }
func (*summaryCmd) Synopsis() string { return "display the margin summary of the account" }
func (*summaryCmd) Usage() string {
	return `summary [-d <date>] [-price <ticker>=<price>]... [-offline]

  Displays equity, debit balance, maintenance requirement, buying power and the
  estimated daily interest, with a breakdown per position. Positions are valued
  at the manual prices, then at the quotes of the configured feed, and finally
  at their cost basis.
`
}

func (c *summaryCmd) SetFlags(f *flag.FlagSet) {
	c.prices = make(priceFlags)
	f.StringVar(&c.date, "d", "", "Date for the summary, defaults to today")
	f.Var(c.prices, "price", "Manual TICKER=PRICE quote, can be repeated")
	f.BoolVar(&c.offline, "offline", false, "Do not fetch quotes from the configured feed")
}

func (c *summaryCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	on, err := parseDate(c.date)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
		return subcommands.ExitUsageError
	}
	a, err := read(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	// quotes are only fetched for today, past summaries use manual prices.
	quotes, err := fetchQuotes(ctx, a.Tickers(), c.prices, !c.offline && on == today())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.SummaryMarkdown(a.Summary(on, margin.PricesFromQuotes(quotes))))
	return subcommands.ExitSuccess
}

// --- Lots Command ---

type lotsCmd struct {
	ticker string
}

func (*lotsCmd) Name() string     { return "lots" }
func (*lotsCmd) Synopsis() string { return "list the open lots" }
func (*lotsCmd) Usage() string {
	return `lots [-t <ticker>]

  Lists the open lots with their cost basis and maintenance override.
`
}

func (c *lotsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.ticker, "t", "", "Only list lots of this ticker")
}

func (c *lotsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := read(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	var lots []margin.Lot
	for _, l := range a.Lots() {
		if c.ticker == "" || strings.EqualFold(l.Ticker, c.ticker) {
			lots = append(lots, l)
		}
	}
	printMarkdown(renderer.LotsMarkdown(lots, a.Settings().Currency))
	return subcommands.ExitSuccess
}

// --- Ledger Command ---

type ledgerCmd struct {
	period string
	start  string
	date   string
}

func (*ledgerCmd) Name() string     { return "ledger" }
func (*ledgerCmd) Synopsis() string { return "display the daily interest ledger" }
func (*ledgerCmd) Usage() string {
	return `ledger [-p <period> | -s <start_date>] [-d <end_date>]

  Displays the daily entries of the interest ledger and the interest accrued
  over the range, the current month by default.
`
}

func (c *ledgerCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.period, "p", "month", "Predefined period (day, week, month, quarter, year).")
	f.StringVar(&c.start, "s", "", "The start date for a custom range. Overrides -p.")
	f.StringVar(&c.date, "d", "", "The end date for the range, defaults to today.")
}

func (c *ledgerCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	r, err := parseRange(c.period, c.start, c.date)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	a, err := read(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.LedgerMarkdown(a.Ledger(), r, a.Settings().Currency))
	return subcommands.ExitSuccess
}

// --- PDT Command ---

type pdtCmd struct {
	date string
}

func (*pdtCmd) Name() string     { return "pdt" }
func (*pdtCmd) Synopsis() string { return "display the pattern day trader status" }
func (*pdtCmd) Usage() string {
	return `pdt [-d <date>]

  Counts the day trades over the last 5 business days and tells whether one
  more day trade would flag the account as a pattern day trader.
`
}

func (c *pdtCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", "", "Date of the status, defaults to today")
}

func (c *pdtCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	on, err := parseDate(c.date)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
		return subcommands.ExitUsageError
	}
	a, err := read(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.PDTMarkdown(a.PDT(on)))
	return subcommands.ExitSuccess
}
