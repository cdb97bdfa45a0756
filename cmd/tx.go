package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/etnz/margin"
	"github.com/etnz/margin/date"
	"github.com/etnz/margin/renderer"
	"github.com/google/subcommands"
)

type tradesCmd struct {
	period   string
	start    string
	date     string
	ticker   string
	head     int
	tail     int
	realized bool
}

func (*tradesCmd) Name() string     { return "trades" }
func (*tradesCmd) Synopsis() string { return "list the recorded trades" }
func (*tradesCmd) Usage() string {
	return `trades [-p <period> | -s <start_date>] [-d <end_date>] [-t <ticker>] [-head <n>] [-tail <n>] [-realized]

  Lists trades, with options for filtering and limiting the output. With
  -realized, lists the lots consumed by each closing trade and the realized P&L.
`
}

func (p *tradesCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&p.period, "p", "", "Predefined period (day, week, month, quarter, year).")
	f.StringVar(&p.start, "s", "", "The start date for a custom range. Overrides -p.")
	f.StringVar(&p.date, "d", "", "The end date for the range.")
	f.StringVar(&p.ticker, "t", "", "Only list trades of this ticker.")
	f.IntVar(&p.head, "head", 0, "Show only the first N trades.")
	f.IntVar(&p.tail, "tail", 0, "Show only the last N trades.")
	f.BoolVar(&p.realized, "realized", false, "List closing trades with the lots they consumed.")
}

func (p *tradesCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if p.head > 0 && p.tail > 0 {
		fmt.Fprintln(os.Stderr, "Error: -head and -tail flags cannot be used together.")
		return subcommands.ExitUsageError
	}
	// If no date range flags are provided, use the full range of the account.
	useFullRange := p.start == "" && p.date == "" && p.period == ""
	var r date.Range
	if !useFullRange {
		var err error
		if r, err = parseRange(p.period, p.start, p.date); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitUsageError
		}
	}

	a, err := read(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	keep := func(t margin.Trade) bool {
		return (useFullRange || r.Contains(t.Date)) && (p.ticker == "" || strings.EqualFold(t.Ticker, p.ticker))
	}
	cur := a.Settings().Currency

	if p.realized {
		var closings []margin.Closing
		for _, c := range a.Closings() {
			if keep(c.Trade) {
				closings = append(closings, c)
			}
		}
		printMarkdown(renderer.ClosingsMarkdown(limit(closings, p.head, p.tail), cur))
		return subcommands.ExitSuccess
	}

	var trades []margin.Trade
	for _, t := range a.Trades() {
		if keep(t) {
			trades = append(trades, t)
		}
	}
	printMarkdown(renderer.TradesMarkdown(limit(trades, p.head, p.tail), cur))
	return subcommands.ExitSuccess
}

// limit keeps the head first, or the tail last, items.
func limit[T any](items []T, head, tail int) []T {
	if head > 0 && len(items) > head {
		items = items[:head]
	}
	if tail > 0 && len(items) > tail {
		items = items[len(items)-tail:]
	}
	return items
}

// parseRange resolves the range flags: an explicit start, or the period
// containing the end date. The end date defaults to today.
func parseRange(period, start, end string) (date.Range, error) {
	endDate, err := parseDate(end)
	if err != nil {
		return date.Range{}, fmt.Errorf("invalid end date: %w", err)
	}
	if start != "" {
		startDate, err := date.Parse(start)
		if err != nil {
			return date.Range{}, fmt.Errorf("invalid start date: %w", err)
		}
		return date.Range{From: startDate, To: endDate}, nil
	}
	if period == "" {
		return date.Range{To: endDate}, nil
	}
	p, err := date.ParsePeriod(period)
	if err != nil {
		return date.Range{}, fmt.Errorf("invalid period: %w", err)
	}
	return date.Range{From: endDate.StartOf(p), To: endDate}, nil
}
