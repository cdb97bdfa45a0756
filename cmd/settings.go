package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/margin"
	"github.com/etnz/margin/date"
	"github.com/etnz/margin/renderer"
	"github.com/google/subcommands"
)

// --- Settings Command ---

type settingsCmd struct {
	name        string
	currency    string
	basis       int
	initial     string
	maintenance string
	method      string
	save        string
}

func (*settingsCmd) Name() string     { return "settings" }
func (*settingsCmd) Synopsis() string { return "display or change the broker settings" }
func (*settingsCmd) Usage() string {
	return `settings [-name <broker>] [-currency <code>] [-basis <days>] [-initial <pct>] [-maintenance <pct>] [-method fifo|lifo] [-save <file>]

  Without flags, displays the broker settings, the rate tiers and the APR
  overrides. Percentages are fractions, 0.3 is 30%. Changing the settings
  recomputes the whole ledger, changing the method matches every closing trade
  again. With -save, writes the settings to a YAML or JSON file.
`
}

func (c *settingsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.name, "name", "", "Broker name")
	f.StringVar(&c.currency, "currency", "", "Account currency (ISO code)")
	f.IntVar(&c.basis, "basis", 0, "Day count basis of the interest (360 or 365)")
	f.StringVar(&c.initial, "initial", "", "Initial margin percentage")
	f.StringVar(&c.maintenance, "maintenance", "", "Default maintenance margin percentage")
	f.StringVar(&c.method, "method", "", "Cost basis method (fifo or lifo)")
	f.StringVar(&c.save, "save", "", "Write the settings to this file")
}

func (c *settingsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	changed := c.name != "" || c.currency != "" || c.basis != 0 || c.initial != "" || c.maintenance != "" || c.method != ""

	var a *margin.Account
	if changed {
		var status subcommands.ExitStatus
		if a, status = run(ctx, c.commands); status != subcommands.ExitSuccess {
			return status
		}
	} else {
		var err error
		if a, err = read(ctx); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
	}

	if c.save != "" {
		if err := margin.SaveSettings(c.save, a.Settings()); err != nil {
			fmt.Fprintf(os.Stderr, "Error saving settings: %v\n", err)
			return subcommands.ExitFailure
		}
	}
	printMarkdown(renderer.SettingsMarkdown(a.Settings(), a.Overrides()) + fmt.Sprintf("\nCost basis method: %s\n", a.Method()))
	return subcommands.ExitSuccess
}

func (c *settingsCmd) commands(a *margin.Account) ([]margin.Command, error) {
	var cmds []margin.Command
	s := a.Settings()
	if c.name != "" {
		s.Name = c.name
	}
	if c.currency != "" {
		s.Currency = c.currency
	}
	if c.basis != 0 {
		s.DayCountBasis = c.basis
	}
	if c.initial != "" {
		r, err := margin.ParseRate(c.initial)
		if err != nil {
			return nil, fmt.Errorf("invalid initial margin: %w", err)
		}
		s.InitialMargin = r
	}
	if c.maintenance != "" {
		r, err := margin.ParseRate(c.maintenance)
		if err != nil {
			return nil, fmt.Errorf("invalid maintenance margin: %w", err)
		}
		s.MaintenanceMargin = r
	}
	cmds = append(cmds, margin.UpdateSettings{Settings: s})
	if c.method != "" {
		m, err := margin.ParseCostBasisMethod(c.method)
		if err != nil {
			return nil, err
		}
		cmds = append(cmds, margin.SetMethod{Method: m})
	}
	return cmds, nil
}

// --- Tier Command ---

type tierCmd struct {
	min    string
	max    string
	apr    string
	remove int
}

func (*tierCmd) Name() string     { return "tier" }
func (*tierCmd) Synopsis() string { return "add or remove a tier of the margin rate schedule" }
func (*tierCmd) Usage() string {
	return `tier -min <balance> [-max <balance>] -apr <rate>
tier -rm <index>

  Adds a tier to the rate schedule, the maximum balance being exclusive and
  unbounded when missing, or removes the tier at index (as listed by the
  settings command). The last tier cannot be removed. The whole ledger is
  recomputed.
`
}

func (c *tierCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.min, "min", "", "Minimum debit balance of the tier")
	f.StringVar(&c.max, "max", "", "Exclusive maximum debit balance of the tier")
	f.StringVar(&c.apr, "apr", "", "Annual rate of the tier, as a fraction")
	f.IntVar(&c.remove, "rm", -1, "Index of the tier to remove")
}

func (c *tierCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	var cmd margin.Command
	switch {
	case c.remove >= 0:
		cmd = margin.RemoveTier{Index: c.remove}
	case c.min != "" && c.apr != "":
		tier, err := c.tier()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitUsageError
		}
		cmd = margin.AddTier{Tier: tier}
	default:
		f.Usage()
		return subcommands.ExitUsageError
	}
	a, status := apply(ctx, cmd)
	if status != subcommands.ExitSuccess {
		return status
	}
	printMarkdown(renderer.SettingsMarkdown(a.Settings(), nil))
	return subcommands.ExitSuccess
}

func (c *tierCmd) tier() (margin.RateTier, error) {
	var t margin.RateTier
	var err error
	if t.MinBalance, err = margin.ParseMoney(c.min); err != nil {
		return t, fmt.Errorf("invalid minimum balance: %w", err)
	}
	if c.max != "" {
		m, err := margin.ParseMoney(c.max)
		if err != nil {
			return t, fmt.Errorf("invalid maximum balance: %w", err)
		}
		t.MaxBalance = &m
	}
	if t.APR, err = margin.ParseRate(c.apr); err != nil {
		return t, fmt.Errorf("invalid apr: %w", err)
	}
	return t, nil
}

// --- Override Command ---

type overrideCmd struct {
	date  string
	apr   string
	clear bool
}

func (*overrideCmd) Name() string     { return "override" }
func (*overrideCmd) Synopsis() string { return "pin or clear the margin rate of a day" }
func (*overrideCmd) Usage() string {
	return `override -d <date> -apr <rate>
override -d <date> -clear

  Pins the annual rate used on a day, whatever the tier schedule says, or
  removes the pin. The ledger is recomputed from that day.
`
}

func (c *overrideCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", "", "Day of the override")
	f.StringVar(&c.apr, "apr", "", "Annual rate, as a fraction")
	f.BoolVar(&c.clear, "clear", false, "Remove the override of the day")
}

func (c *overrideCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.date == "" || (c.apr == "") == !c.clear {
		f.Usage()
		return subcommands.ExitUsageError
	}
	on, err := date.Parse(c.date)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
		return subcommands.ExitUsageError
	}
	var cmd margin.Command = margin.ClearRateOverride{Date: on}
	if !c.clear {
		apr, err := margin.ParseRate(c.apr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing apr: %v\n", err)
			return subcommands.ExitUsageError
		}
		cmd = margin.SetRateOverride{Date: on, APR: apr}
	}
	a, status := apply(ctx, cmd)
	if status != subcommands.ExitSuccess {
		return status
	}
	if e, ok := a.Ledger().Entry(on); ok {
		fmt.Fprintf(out, "%s: %s applied, interest %s\n", on, e.APR.Percent(), e.DailyInterest.Format(a.Settings().Currency))
	}
	return subcommands.ExitSuccess
}

// --- Adjust Command ---

type adjustCmd struct {
	date   string
	amount string
	memo   string
}

func (*adjustCmd) Name() string     { return "adjust" }
func (*adjustCmd) Synopsis() string { return "record a cash movement that is not a trade" }
func (*adjustCmd) Usage() string {
	return `adjust [-d <date>] -a <amount> [-m <memo>]

  Records a deposit, a withdrawal, a fee or a correction. The amount is in debit
  terms: a positive amount increases the debit (withdrawal, fee), a negative one
  repays it (deposit).
`
}

func (c *adjustCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", "", "Day of the movement, defaults to today")
	f.StringVar(&c.amount, "a", "", "Amount, positive to increase the debit")
	f.StringVar(&c.memo, "m", "", "An optional memo")
}

func (c *adjustCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.amount == "" {
		f.Usage()
		return subcommands.ExitUsageError
	}
	on, err := parseDate(c.date)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
		return subcommands.ExitUsageError
	}
	amount, err := margin.ParseMoney(c.amount)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing amount: %v\n", err)
		return subcommands.ExitUsageError
	}
	a, status := apply(ctx, margin.AdjustCash{Adjustment: margin.CashAdjustment{Date: on, Amount: amount, Memo: c.memo}})
	if status != subcommands.ExitSuccess {
		return status
	}
	fmt.Fprintf(out, "Debit balance: %s\n", a.CurrentDebit().Format(a.Settings().Currency))
	return subcommands.ExitSuccess
}

// --- Lot Margin Command ---

type lotMarginCmd struct {
	lot   string
	pct   string
	clear bool
}

func (*lotMarginCmd) Name() string     { return "lot-margin" }
func (*lotMarginCmd) Synopsis() string { return "override the maintenance margin of a lot" }
func (*lotMarginCmd) Usage() string {
	return `lot-margin -lot <id> -pct <rate>
lot-margin -lot <id> -clear

  Sets the maintenance percentage of an open lot, for volatile or concentrated
  positions, or restores the broker default.
`
}

func (c *lotMarginCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.lot, "lot", "", "Identifier of the open lot")
	f.StringVar(&c.pct, "pct", "", "Maintenance percentage, as a fraction")
	f.BoolVar(&c.clear, "clear", false, "Restore the broker default")
}

func (c *lotMarginCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.lot == "" || (c.pct == "") == !c.clear {
		f.Usage()
		return subcommands.ExitUsageError
	}
	cmd := margin.SetLotMargin{LotID: c.lot}
	if !c.clear {
		pct, err := margin.ParseRate(c.pct)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing percentage: %v\n", err)
			return subcommands.ExitUsageError
		}
		cmd.Pct = &pct
	}
	a, status := apply(ctx, cmd)
	if status != subcommands.ExitSuccess {
		return status
	}
	printMarkdown(renderer.LotsMarkdown(a.Lots(), a.Settings().Currency))
	return subcommands.ExitSuccess
}
