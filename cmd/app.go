// Package cmd implements the CLI application to manage a margin account.
package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/etnz/margin"
	"github.com/etnz/margin/date"
	"github.com/etnz/margin/store"
	"github.com/google/subcommands"
)

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var storeLocation = flag.String("store", ".margin", "Location of the account state: a directory, or a SQLite database when it ends with .db")
var settingsFile = flag.String("settings", "", "Path to a broker settings file (YAML or JSON). When set, it replaces the saved settings.")
var rawOutput = flag.Bool("raw", false, "Print reports as raw markdown instead of rendering them for the terminal")

// out is where reports are printed.
var out io.Writer = os.Stdout

// EnvToday pins the current day, to replay documentation scenarios.
const EnvToday = "MARG_TODAY"

// today is the day the ledger is accrued to.
var today = func() date.Date {
	if d, err := date.Parse(os.Getenv(EnvToday)); err == nil {
		return d
	}
	return date.Today()
}

type group struct {
	name string
	cmds []subcommands.Command
}

func groups() []group {
	return []group{
		{"trades", []subcommands.Command{
			&tradeCmd{side: margin.Buy},
			&tradeCmd{side: margin.Sell},
			&tradeCmd{side: margin.Short},
			&tradeCmd{side: margin.Cover},
			&editCmd{},
			&rmCmd{},
			&tradesCmd{},
			&importCmd{},
			&exportCmd{},
		}},
		{"margin", []subcommands.Command{
			&summaryCmd{},
			&lotsCmd{},
			&ledgerCmd{},
			&pdtCmd{},
			&quoteCmd{},
		}},
		{"settings", []subcommands.Command{
			&settingsCmd{},
			&tierCmd{},
			&overrideCmd{},
			&adjustCmd{},
			&lotMarginCmd{},
		}},
		{"help", []subcommands.Command{
			&topicCmd{},
		}},
	}
}

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	for _, g := range groups() {
		for _, cmd := range g.cmds {
			c.Register(cmd, g.name)
		}
	}
}

// Commands returns every subcommand of the application.
func Commands() []subcommands.Command {
	var res []subcommands.Command
	for _, g := range groups() {
		res = append(res, g.cmds...)
	}
	return res
}

// openAccount opens the store and loads the account, accrued through today.
// The caller closes the store.
func openAccount(ctx context.Context) (store.Store, *margin.Account, error) {
	st, err := store.Open(*storeLocation)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot open store %q: %w", *storeLocation, err)
	}
	a, err := margin.LoadAccount(ctx, st, today())
	if err != nil {
		st.Close()
		return nil, nil, fmt.Errorf("cannot load account from %q: %w", *storeLocation, err)
	}
	if *settingsFile != "" {
		s, err := margin.LoadSettings(*settingsFile)
		if err != nil {
			st.Close()
			return nil, nil, err
		}
		if a, err = a.Apply(today(), margin.UpdateSettings{Settings: s}); err != nil {
			st.Close()
			return nil, nil, err
		}
	}
	return st, a, nil
}

// run loads the account, applies the commands built from it in order, and
// saves the result. Nothing is saved if any command fails.
func run(ctx context.Context, build func(a *margin.Account) ([]margin.Command, error)) (*margin.Account, subcommands.ExitStatus) {
	st, a, err := openAccount(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return nil, subcommands.ExitFailure
	}
	defer st.Close()

	cmds, err := build(a)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return nil, subcommands.ExitUsageError
	}
	for _, c := range cmds {
		if a, err = a.Apply(today(), c); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return nil, subcommands.ExitFailure
		}
	}
	if err := margin.SaveAccount(ctx, st, a); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving account to %q: %v\n", *storeLocation, err)
		return nil, subcommands.ExitFailure
	}
	return a, subcommands.ExitSuccess
}

// apply is run for commands that do not depend on the account.
func apply(ctx context.Context, cmds ...margin.Command) (*margin.Account, subcommands.ExitStatus) {
	return run(ctx, func(*margin.Account) ([]margin.Command, error) { return cmds, nil })
}

// read loads the account for a report.
func read(ctx context.Context) (*margin.Account, error) {
	st, a, err := openAccount(ctx)
	if err != nil {
		return nil, err
	}
	return a, st.Close()
}

// printMarkdown renders markdown for the terminal, or prints it raw when it cannot.
func printMarkdown(md string) {
	if *rawOutput {
		fmt.Fprint(out, md)
		return
	}
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(120))
	if err == nil {
		var rendered string
		if rendered, err = r.Render(md); err == nil {
			fmt.Fprint(out, rendered)
			return
		}
	}
	log.Printf("cannot render markdown: %v", err)
	fmt.Fprint(out, md)
}

// parseDate parses a date flag, an empty value is today.
func parseDate(s string) (date.Date, error) {
	if s == "" {
		return today(), nil
	}
	return date.Parse(s)
}
