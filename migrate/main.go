// Command migrate converts trade logs written by earlier versions of marg into
// the current JSONL trade format.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/etnz/margin"
	"github.com/etnz/margin/date"
	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
)

func main() {
	// The migrate tool needs its own set of flags, independent of the main marg tool.
	flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ExitOnError)

	commander := subcommands.NewCommander(flag.CommandLine, "migrate")
	commander.Register(commander.HelpCommand(), "")
	commander.Register(&tradesCmd{}, "")
	commander.Register(&checkCmd{}, "")
	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}

// legacyTrade is a trade as recorded by the first versions: sides were split
// in an action and a position type, and sells were sometimes recorded with a
// negative number of shares.
type legacyTrade struct {
	ID         string          `json:"id"`
	Date       date.Date       `json:"date"`
	Symbol     string          `json:"symbol"`
	Action     string          `json:"action"`
	Type       string          `json:"type"`
	Shares     decimal.Decimal `json:"shares"`
	Price      decimal.Decimal `json:"price"`
	Commission decimal.Decimal `json:"commission"`
	Note       string          `json:"note"`
}

// side returns the trade side of the action on a long or short position.
func (l legacyTrade) side() (margin.Side, error) {
	short := false
	switch strings.ToLower(l.Type) {
	case "", "long":
	case "short":
		short = true
	default:
		return "", fmt.Errorf("unknown position type %q", l.Type)
	}
	switch strings.ToLower(l.Action) {
	case "buy", "bot":
		if short {
			return margin.Cover, nil
		}
		return margin.Buy, nil
	case "sell", "sld":
		if short {
			return margin.Short, nil
		}
		return margin.Sell, nil
	default:
		// some records already carry the side in the action.
		return margin.ParseSide(l.Action)
	}
}

// convert returns the trade recorded by l.
func convert(l legacyTrade) (margin.Trade, error) {
	side, err := l.side()
	if err != nil {
		return margin.Trade{}, err
	}
	shares := l.Shares
	if shares.IsNegative() {
		log.Printf("trade %s on %s: negative shares %v recorded as %v", l.ID, l.Date, shares, shares.Abs())
		shares = shares.Abs()
	}
	t := margin.Trade{
		ID:       l.ID,
		Date:     l.Date,
		Ticker:   l.Symbol,
		Side:     side,
		Quantity: margin.Q(shares),
		Price:    margin.M(l.Price),
		Fees:     margin.M(l.Commission.Abs()),
		Notes:    l.Note,
	}
	return t.Validate()
}

// migrate reads legacy trades from r and writes them to w in chronological
// order. Every invalid line is reported.
func migrate(r io.Reader, w io.Writer) (int, error) {
	var trades []margin.Trade
	var errs []error
	scanner := bufio.NewScanner(r)
	for n := 1; scanner.Scan(); n++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var l legacyTrade
		if err := json.Unmarshal([]byte(line), &l); err != nil {
			errs = append(errs, fmt.Errorf("line %d: %w", n, err))
			continue
		}
		t, err := convert(l)
		if err != nil {
			errs = append(errs, fmt.Errorf("line %d: %w", n, err))
			continue
		}
		trades = append(trades, t)
	}
	if err := scanner.Err(); err != nil {
		return 0, err
	}
	if err := errors.Join(errs...); err != nil {
		return 0, err
	}
	return len(trades), margin.EncodeTrades(w, trades)
}

// --- tradesCmd ---

type tradesCmd struct {
	in  string
	out string
}

func (*tradesCmd) Name() string     { return "trades" }
func (*tradesCmd) Synopsis() string { return "migrates a legacy trade log to the JSONL trade format" }
func (*tradesCmd) Usage() string {
	return `migrate trades -in <legacy_file> -out <trades.jsonl>

Converts a legacy trade log, one JSON object per line with the fields symbol,
action, type, shares, price and commission, into a trade log that marg can
import. Nothing is written if any record cannot be converted.
`
}
func (c *tradesCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.in, "in", "", "The path to the legacy trade log.")
	f.StringVar(&c.out, "out", "", "The path where the migrated trade log will be written.")
}

func (c *tradesCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.in == "" || c.out == "" {
		fmt.Fprintln(os.Stderr, "Error: -in and -out flags are required.")
		return subcommands.ExitUsageError
	}
	if filepath.Clean(c.in) == filepath.Clean(c.out) {
		fmt.Fprintln(os.Stderr, "Error: -in and -out must be different files.")
		return subcommands.ExitUsageError
	}

	in, err := os.Open(c.in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening legacy trades: %v\n", err)
		return subcommands.ExitFailure
	}
	defer in.Close()

	var buf strings.Builder
	n, err := migrate(in, &buf)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error migrating %s:\n%v\n", c.in, err)
		return subcommands.ExitFailure
	}
	if err := os.WriteFile(c.out, []byte(buf.String()), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing migrated trades: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Migrated %d trade(s) to %s\n", n, c.out)
	return subcommands.ExitSuccess
}

// --- checkCmd ---

type checkCmd struct {
	in     string
	method string
}

func (*checkCmd) Name() string     { return "check" }
func (*checkCmd) Synopsis() string { return "verifies that a migrated trade log replays" }
func (*checkCmd) Usage() string {
	return `migrate check -in <trades.jsonl> [-method fifo|lifo]

Replays the trades of a migrated log on an empty account, and reports the
trades that are rejected, typically a sell without enough open shares.
`
}

func (c *checkCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.in, "in", "", "The path to the migrated trade log.")
	f.StringVar(&c.method, "method", "fifo", "The cost basis method to replay with.")
}

func (c *checkCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.in == "" {
		fmt.Fprintln(os.Stderr, "Error: -in flag is required.")
		return subcommands.ExitUsageError
	}
	method, err := margin.ParseCostBasisMethod(c.method)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	in, err := os.Open(c.in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening trades: %v\n", err)
		return subcommands.ExitFailure
	}
	defer in.Close()
	trades, err := margin.DecodeTrades(in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error decoding trades: %v\n", err)
		return subcommands.ExitFailure
	}

	a, rejected, err := replay(trades, method)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	for _, err := range rejected {
		fmt.Println(err)
	}
	fmt.Printf("%d trade(s) replayed, %d rejected, %d open lot(s)\n", len(a.Trades()), len(rejected), len(a.Lots()))
	if len(rejected) > 0 {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// replay applies trades in order on an account with default settings, and
// returns the account and the errors of the rejected trades.
func replay(trades []margin.Trade, method margin.CostBasisMethod) (*margin.Account, []error, error) {
	a, err := margin.NewAccount(margin.DefaultSettings(), method)
	if err != nil {
		return nil, nil, err
	}
	if len(trades) == 0 {
		return a, nil, nil
	}
	through := trades[len(trades)-1].Date
	var rejected []error
	for _, t := range trades {
		next, err := a.Apply(through, margin.AddTrade{Trade: t})
		if err != nil {
			rejected = append(rejected, fmt.Errorf("trade %s on %s: %w", t.ID, t.Date, err))
			continue
		}
		a = next
	}
	return a, rejected, nil
}
