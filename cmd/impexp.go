package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/etnz/margin"
	"github.com/google/subcommands"
)

// format returns the interchange format of a file, from the flag or the file extension.
func format(flagValue, file string) string {
	if flagValue != "" {
		return flagValue
	}
	if filepath.Ext(file) == ".jsonl" {
		return "jsonl"
	}
	return "csv"
}

// --- Import Command ---

type importCmd struct {
	format string
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "import trades from a CSV or JSONL file" }
func (*importCmd) Usage() string {
	return `import [-format csv|jsonl] <file>

  Imports trades from a file, or from the standard input when file is "-".
  CSV files have a header line with the columns date, ticker, side, qty, price,
  and optionally fees and notes. JSONL trades that carry the id of a recorded
  trade replace it.
`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.format, "format", "", "Input format (csv or jsonl), guessed from the file extension by default")
}

func (c *importCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	file := f.Arg(0)
	var r io.Reader = os.Stdin
	if file != "-" {
		fd, err := os.Open(file)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening %q: %v\n", file, err)
			return subcommands.ExitFailure
		}
		defer fd.Close()
		r = fd
	}

	var trades []margin.Trade
	var err error
	switch format(c.format, file) {
	case "csv":
		trades, err = margin.ImportTradesCSV(r)
	case "jsonl":
		trades, err = margin.DecodeTrades(r)
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown format %q\n", c.format)
		return subcommands.ExitUsageError
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading %q: %v\n", file, err)
		return subcommands.ExitFailure
	}

	var added, replaced int
	_, status := run(ctx, func(a *margin.Account) ([]margin.Command, error) {
		cmds := make([]margin.Command, 0, len(trades))
		for _, t := range trades {
			if _, exists := a.Trade(t.ID); exists {
				cmds = append(cmds, margin.EditTrade{Trade: t})
				replaced++
				continue
			}
			cmds = append(cmds, margin.AddTrade{Trade: t})
			added++
		}
		return cmds, nil
	})
	if status != subcommands.ExitSuccess {
		return status
	}
	fmt.Fprintf(out, "Imported %d trade(s), replaced %d trade(s)\n", added, replaced)
	return subcommands.ExitSuccess
}

// --- Export Command ---

type exportCmd struct {
	format string
	output string
	ledger bool
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "export trades or the interest ledger" }
func (*exportCmd) Usage() string {
	return `export [-format csv|jsonl] [-ledger] [-o <file>]

  Exports the trades, or the interest ledger with -ledger (CSV only), to a file
  or the standard output.
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.format, "format", "", "Output format (csv or jsonl), guessed from the file extension by default")
	f.StringVar(&c.output, "o", "", "Output file, standard output by default")
	f.BoolVar(&c.ledger, "ledger", false, "Export the interest ledger instead of the trades")
}

func (c *exportCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := read(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	w := out
	if c.output != "" {
		fd, err := os.Create(c.output)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating %q: %v\n", c.output, err)
			return subcommands.ExitFailure
		}
		defer fd.Close()
		w = fd
	}

	switch fmtName := format(c.format, c.output); {
	case c.ledger && fmtName == "csv":
		err = margin.ExportLedgerCSV(w, a.Ledger())
	case c.ledger:
		fmt.Fprintln(os.Stderr, "Error: the ledger is only exported as CSV")
		return subcommands.ExitUsageError
	case fmtName == "csv":
		err = margin.ExportTradesCSV(w, a.Trades())
	case fmtName == "jsonl":
		err = margin.EncodeTrades(w, a.Trades())
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown format %q\n", c.format)
		return subcommands.ExitUsageError
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error exporting: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
