package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/etnz/margin"
	"github.com/etnz/margin/renderer"
	"github.com/google/subcommands"
)

// --- Trade Commands ---

// tradeCmd records a trade on one side: buy, sell, short or cover.
type tradeCmd struct {
	side     margin.Side
	id       string
	date     string
	ticker   string
	quantity string
	price    string
	fees     string
	notes    string
}

func (c *tradeCmd) Name() string { return strings.ToLower(string(c.side)) }
func (c *tradeCmd) Synopsis() string {
	switch c.side {
	case margin.Buy:
		return "buy shares to open or add to a long position"
	case margin.Sell:
		return "sell shares to trim or close a long position"
	case margin.Short:
		return "sell borrowed shares to open or add to a short position"
	default:
		return "buy back shares to trim or close a short position"
	}
}
func (c *tradeCmd) Usage() string {
	return fmt.Sprintf(`%s [-d <date>] -t <ticker> [-q <quantity>] -p <price> [-f <fees>] [-n <notes>] [-id <id>]

  Records a %s trade. Lots are matched and the interest ledger is recomputed
  from the trade date.
`, c.Name(), c.side)
}

func (c *tradeCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", "", "Trade date (YYYY-MM-DD), defaults to today")
	f.StringVar(&c.ticker, "t", "", "Ticker symbol")
	qty := "Number of shares"
	if c.side.Closes() {
		qty += ", if missing the whole open position is closed"
	}
	f.StringVar(&c.quantity, "q", "", qty)
	f.StringVar(&c.price, "p", "", "Price per share")
	f.StringVar(&c.fees, "f", "0", "Total fees of the trade")
	f.StringVar(&c.notes, "n", "", "An optional note")
	f.StringVar(&c.id, "id", "", "Trade identifier, generated when missing")
}

func (c *tradeCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.ticker == "" || c.price == "" {
		f.Usage()
		return subcommands.ExitUsageError
	}
	var t margin.Trade
	a, status := run(ctx, func(a *margin.Account) ([]margin.Command, error) {
		var err error
		if t, err = c.trade(a); err != nil {
			return nil, err
		}
		if a.WouldCreateDayTrade(t) {
			fmt.Fprintf(os.Stderr, "Warning: this trade is a day trade. %s\n", a.PDT(t.Date).Message())
		}
		return []margin.Command{margin.AddTrade{Trade: t}}, nil
	})
	if status != subcommands.ExitSuccess {
		return status
	}
	fmt.Fprintf(out, "%s: %s (%s)\n", t.ID, renderer.Trade(t, a.Settings().Currency), t.Date)
	return subcommands.ExitSuccess
}

// trade builds the trade from the flags, in the context of the account.
func (c *tradeCmd) trade(a *margin.Account) (margin.Trade, error) {
	on, err := parseDate(c.date)
	if err != nil {
		return margin.Trade{}, err
	}
	price, err := margin.ParseMoney(c.price)
	if err != nil {
		return margin.Trade{}, fmt.Errorf("invalid price: %w", err)
	}
	fees, err := margin.ParseMoney(c.fees)
	if err != nil {
		return margin.Trade{}, fmt.Errorf("invalid fees: %w", err)
	}
	ticker := strings.ToUpper(strings.TrimSpace(c.ticker))

	var qty margin.Quantity
	switch {
	case c.quantity != "":
		if qty, err = margin.ParseQuantity(c.quantity); err != nil {
			return margin.Trade{}, fmt.Errorf("invalid quantity: %w", err)
		}
	case c.side.Closes():
		qty = margin.OpenQuantity(a.Lots(), ticker, c.side.LotSide())
		if qty.IsZero() {
			return margin.Trade{}, fmt.Errorf("no open %s position on %s", c.side.LotSide(), ticker)
		}
	default:
		return margin.Trade{}, errors.New("missing quantity")
	}

	t := margin.NewTrade(on, ticker, c.side, qty, price, fees)
	t.Notes = c.notes
	if c.id != "" {
		t.ID = c.id
	}
	return t, nil
}

// --- Edit Command ---

type editCmd struct {
	id       string
	date     string
	ticker   string
	side     string
	quantity string
	price    string
	fees     string
	notes    string
}

func (*editCmd) Name() string     { return "edit" }
func (*editCmd) Synopsis() string { return "correct a recorded trade" }
func (*editCmd) Usage() string {
	return `edit -id <id> [-d <date>] [-t <ticker>] [-s <side>] [-q <quantity>] [-p <price>] [-f <fees>] [-n <notes>]

  Replaces the fields given as flags of the trade with the given id. Lots and
  the interest ledger are recomputed from the earliest of the old and the new
  trade dates.
`
}

func (c *editCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.id, "id", "", "Identifier of the trade to edit")
	f.StringVar(&c.date, "d", "", "New trade date (YYYY-MM-DD)")
	f.StringVar(&c.ticker, "t", "", "New ticker symbol")
	f.StringVar(&c.side, "s", "", "New side (buy, sell, short, cover)")
	f.StringVar(&c.quantity, "q", "", "New number of shares")
	f.StringVar(&c.price, "p", "", "New price per share")
	f.StringVar(&c.fees, "f", "", "New total fees")
	f.StringVar(&c.notes, "n", "", "New note")
}

func (c *editCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.id == "" {
		f.Usage()
		return subcommands.ExitUsageError
	}
	var t margin.Trade
	a, status := run(ctx, func(a *margin.Account) ([]margin.Command, error) {
		old, ok := a.Trade(c.id)
		if !ok {
			return nil, fmt.Errorf("no trade %q", c.id)
		}
		var err error
		if t, err = c.edit(old); err != nil {
			return nil, err
		}
		return []margin.Command{margin.EditTrade{Trade: t}}, nil
	})
	if status != subcommands.ExitSuccess {
		return status
	}
	fmt.Fprintf(out, "%s: %s (%s)\n", t.ID, renderer.Trade(t, a.Settings().Currency), t.Date)
	return subcommands.ExitSuccess
}

// edit returns a copy of t with the flags applied.
func (c *editCmd) edit(t margin.Trade) (margin.Trade, error) {
	var errs []error
	if c.date != "" {
		on, err := parseDate(c.date)
		errs = append(errs, err)
		t.Date = on
	}
	if c.ticker != "" {
		t.Ticker = strings.ToUpper(c.ticker)
	}
	if c.side != "" {
		side, err := margin.ParseSide(c.side)
		errs = append(errs, err)
		t.Side = side
	}
	if c.quantity != "" {
		q, err := margin.ParseQuantity(c.quantity)
		errs = append(errs, err)
		t.Quantity = q
	}
	if c.price != "" {
		p, err := margin.ParseMoney(c.price)
		errs = append(errs, err)
		t.Price = p
	}
	if c.fees != "" {
		p, err := margin.ParseMoney(c.fees)
		errs = append(errs, err)
		t.Fees = p
	}
	if c.notes != "" {
		t.Notes = c.notes
	}
	return t, errors.Join(errs...)
}

// --- Remove Command ---

type rmCmd struct{}

func (*rmCmd) Name() string     { return "rm" }
func (*rmCmd) Synopsis() string { return "remove recorded trades" }
func (*rmCmd) Usage() string {
	return `rm <id>...

  Removes the trades with the given ids. A trade cannot be removed if a later
  closing trade depends on it.
`
}

func (*rmCmd) SetFlags(f *flag.FlagSet) {}

func (*rmCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	var cmds []margin.Command
	for _, id := range f.Args() {
		cmds = append(cmds, margin.RemoveTrade{ID: id})
	}
	if _, status := apply(ctx, cmds...); status != subcommands.ExitSuccess {
		return status
	}
	fmt.Fprintf(out, "Removed %d trade(s)\n", len(cmds))
	return subcommands.ExitSuccess
}
