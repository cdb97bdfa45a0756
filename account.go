package margin

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/etnz/margin/date"
)

// Account is an immutable snapshot of a margin account: its trades, the lots
// and the interest ledger derived from them, and the broker settings.
//
// An Account is never modified, commands applied with Apply produce a new
// snapshot. The caller serializes calls to Apply, so that one command
// completes before the next begins.
type Account struct {
	settings    BrokerSettings
	method      CostBasisMethod
	trades      []Trade // sorted by date, insertion order within a day
	adjustments []CashAdjustment
	overrides   RateOverrides
	lotMargins  map[string]Rate // maintenance percentage per lot id

	lots     []Lot
	closings []Closing
	ledger   InterestLedger
	through  date.Date
}

// Closing records the lots consumed by a closing trade.
type Closing struct {
	Trade    Trade
	Consumed []LotSlice
	Realized Money
}

// NewAccount creates an empty account.
func NewAccount(settings BrokerSettings, method CostBasisMethod) (*Account, error) {
	s, err := settings.Validate()
	if err != nil {
		return nil, fmt.Errorf("invalid broker settings: %w", err)
	}
	return &Account{
		settings:   s,
		method:     method,
		overrides:  make(RateOverrides),
		lotMargins: make(map[string]Rate),
	}, nil
}

func (a *Account) Settings() BrokerSettings         { return a.settings }
func (a *Account) Method() CostBasisMethod          { return a.method }
func (a *Account) Trades() []Trade                  { return slices.Clone(a.trades) }
func (a *Account) Lots() []Lot                      { return slices.Clone(a.lots) }
func (a *Account) Closings() []Closing              { return slices.Clone(a.closings) }
func (a *Account) Ledger() InterestLedger           { return slices.Clone(a.ledger) }
func (a *Account) Adjustments() []CashAdjustment    { return slices.Clone(a.adjustments) }
func (a *Account) Overrides() RateOverrides         { return maps.Clone(a.overrides) }
func (a *Account) Through() date.Date               { return a.through }
func (a *Account) LotMargins() map[string]Rate      { return maps.Clone(a.lotMargins) }
func (a *Account) CurrentDebit() Money              { return a.ledger.CurrentDebit() }
func (a *Account) TotalInterest(r date.Range) Money { return a.ledger.TotalInterest(r.From, r.To) }

// Trade returns the trade with the given id.
func (a *Account) Trade(id string) (Trade, bool) {
	i := slices.IndexFunc(a.trades, func(t Trade) bool { return t.ID == id })
	if i < 0 {
		return Trade{}, false
	}
	return a.trades[i], true
}

// Realized returns the realized P&L per ticker.
func (a *Account) Realized() map[string]Money {
	res := make(map[string]Money)
	for _, c := range a.closings {
		res[c.Trade.Ticker] = res[c.Trade.Ticker].Add(c.Realized)
	}
	return res
}

// clone returns a shallow copy whose slices and maps can be replaced safely.
func (a *Account) clone() *Account {
	n := *a
	n.trades = slices.Clone(a.trades)
	n.adjustments = slices.Clone(a.adjustments)
	n.overrides = maps.Clone(a.overrides)
	n.lotMargins = maps.Clone(a.lotMargins)
	if n.overrides == nil {
		n.overrides = make(RateOverrides)
	}
	if n.lotMargins == nil {
		n.lotMargins = make(map[string]Rate)
	}
	return &n
}

// next returns the first day not accrued yet, or the zero date if nothing was ever accrued.
func (n *Account) next() date.Date {
	if n.through.IsZero() {
		return date.Date{}
	}
	return n.through.Add(1)
}

// Command is a named state transition of an Account.
type Command interface {
	Name() string
	// apply mutates n, a fresh clone of the current snapshot, and returns the
	// date from which the ledger must be recomputed (zero for a full recompute).
	apply(n *Account) (from date.Date, err error)
}

// Apply validates and applies cmd, then replays the lots and recomputes the
// ledger through today. On error the receiver is returned unchanged.
func (a *Account) Apply(today date.Date, cmd Command) (*Account, error) {
	n := a.clone()
	from, err := cmd.apply(n)
	if err != nil {
		return a, fmt.Errorf("%s: %w", cmd.Name(), err)
	}
	if err := n.rebuild(from, today); err != nil {
		return a, fmt.Errorf("%s: %w", cmd.Name(), err)
	}
	return n, nil
}

// rebuild replays every trade through the lot matcher, and recomputes the
// ledger from a change point.
func (n *Account) rebuild(from, today date.Date) error {
	var lots []Lot
	var closings []Closing
	for _, t := range n.trades {
		if err := ValidateSellTrade(t, lots); err != nil {
			return fmt.Errorf("on %s, trade %s: %w", t.Date, t.ID, err)
		}
		res, err := ApplyTrade(t, lots, n.method)
		if err != nil {
			return fmt.Errorf("on %s, trade %s: %w", t.Date, t.ID, err)
		}
		lots = res.Lots
		if t.Side.Closes() {
			closings = append(closings, Closing{Trade: t, Consumed: res.Consumed, Realized: res.Realized})
		}
	}
	for i := range lots {
		if m, ok := n.lotMargins[lots[i].ID]; ok {
			lots[i].MaintenanceMargin = &m
		}
	}
	n.lots, n.closings = lots, closings

	ledger := n.ledger
	switch {
	case from.IsZero():
		// full recompute, starting with the earliest activity.
		ledger, from = nil, today
	case !n.through.IsZero() && from.After(n.through):
		from = n.through.Add(1)
	}
	n.ledger = RecomputeLedger(from, n.trades, n.settings, ledger, LedgerOptions{
		Overrides:   n.overrides,
		Adjustments: n.adjustments,
		Through:     today,
	})
	n.through = today
	return nil
}

// AddTrade records a new trade.
type AddTrade struct{ Trade Trade }

func (AddTrade) Name() string { return "add trade" }
func (c AddTrade) apply(n *Account) (date.Date, error) {
	t, err := c.Trade.Validate()
	if err != nil {
		return date.Date{}, err
	}
	if _, exists := n.Trade(t.ID); exists {
		return date.Date{}, invalid("id", "trade %s already exists", t.ID)
	}
	n.trades = append(n.trades, t)
	SortTrades(n.trades)
	return t.Date, nil
}

// EditTrade replaces the trade with the same id.
type EditTrade struct{ Trade Trade }

func (EditTrade) Name() string { return "edit trade" }
func (c EditTrade) apply(n *Account) (date.Date, error) {
	t, err := c.Trade.Validate()
	if err != nil {
		return date.Date{}, err
	}
	i := slices.IndexFunc(n.trades, func(u Trade) bool { return u.ID == c.Trade.ID })
	if i < 0 {
		return date.Date{}, invalid("id", "no trade %q", c.Trade.ID)
	}
	from := n.trades[i].Date
	if t.Date.Before(from) {
		from = t.Date
	}
	n.trades[i] = t
	SortTrades(n.trades)
	return from, nil
}

// RemoveTrade deletes a trade.
type RemoveTrade struct{ ID string }

func (RemoveTrade) Name() string { return "remove trade" }
func (c RemoveTrade) apply(n *Account) (date.Date, error) {
	i := slices.IndexFunc(n.trades, func(u Trade) bool { return u.ID == c.ID })
	if i < 0 {
		return date.Date{}, invalid("id", "no trade %q", c.ID)
	}
	from := n.trades[i].Date
	n.trades = slices.Delete(n.trades, i, i+1)
	return from, nil
}

// UpdateSettings replaces the broker settings.
type UpdateSettings struct{ Settings BrokerSettings }

func (UpdateSettings) Name() string { return "update settings" }
func (c UpdateSettings) apply(n *Account) (date.Date, error) {
	s, err := c.Settings.Validate()
	if err != nil {
		return date.Date{}, err
	}
	n.settings = s
	return date.Date{}, nil
}

// SetMethod changes the cost basis method. Every closing trade is matched
// again, the ledger is unaffected.
type SetMethod struct{ Method CostBasisMethod }

func (SetMethod) Name() string { return "set method" }
func (c SetMethod) apply(n *Account) (date.Date, error) {
	if c.Method != FIFO && c.Method != LIFO {
		return date.Date{}, invalid("method", "unknown cost basis method %d", int(c.Method))
	}
	n.method = c.Method
	return n.next(), nil
}

// AddTier adds a tier to the rate schedule.
type AddTier struct{ Tier RateTier }

func (AddTier) Name() string { return "add tier" }
func (c AddTier) apply(n *Account) (date.Date, error) {
	s, err := n.settings.AddTier(c.Tier)
	if err != nil {
		return date.Date{}, err
	}
	n.settings = s
	return date.Date{}, nil
}

// RemoveTier deletes the i-th tier of the rate schedule.
type RemoveTier struct{ Index int }

func (RemoveTier) Name() string { return "remove tier" }
func (c RemoveTier) apply(n *Account) (date.Date, error) {
	s, err := n.settings.RemoveTier(c.Index)
	if err != nil {
		return date.Date{}, err
	}
	n.settings = s
	return date.Date{}, nil
}

// SetRateOverride pins the APR of a day.
type SetRateOverride struct {
	Date date.Date
	APR  Rate
}

func (SetRateOverride) Name() string { return "set rate override" }
func (c SetRateOverride) apply(n *Account) (date.Date, error) {
	var errs []error
	if c.Date.IsZero() {
		errs = append(errs, invalid("date", "is missing"))
	}
	if c.APR.IsNegative() || c.APR.GreaterThan(R(1)) {
		errs = append(errs, invalid("apr", "must be within [0, 1], got %v", c.APR))
	}
	if err := errors.Join(errs...); err != nil {
		return date.Date{}, err
	}
	n.overrides[c.Date] = c.APR
	return c.Date, nil
}

// ClearRateOverride removes the APR override of a day.
type ClearRateOverride struct{ Date date.Date }

func (ClearRateOverride) Name() string { return "clear rate override" }
func (c ClearRateOverride) apply(n *Account) (date.Date, error) {
	if _, ok := n.overrides[c.Date]; !ok {
		return date.Date{}, invalid("date", "no override on %s", c.Date)
	}
	delete(n.overrides, c.Date)
	return c.Date, nil
}

// AdjustCash records a cash movement that is not a trade.
type AdjustCash struct{ Adjustment CashAdjustment }

func (AdjustCash) Name() string { return "adjust cash" }
func (c AdjustCash) apply(n *Account) (date.Date, error) {
	if c.Adjustment.Date.IsZero() {
		return date.Date{}, invalid("date", "is missing")
	}
	if c.Adjustment.Amount.IsZero() {
		return date.Date{}, invalid("amount", "must not be zero")
	}
	n.adjustments = append(n.adjustments, c.Adjustment)
	return c.Adjustment.Date, nil
}

// SetLotMargin overrides the maintenance percentage of a lot, nil clears it.
type SetLotMargin struct {
	LotID string
	Pct   *Rate
}

func (SetLotMargin) Name() string { return "set lot margin" }
func (c SetLotMargin) apply(n *Account) (date.Date, error) {
	if !slices.ContainsFunc(n.lots, func(l Lot) bool { return l.ID == c.LotID }) {
		return date.Date{}, invalid("lotId", "no open lot %q", c.LotID)
	}
	if c.Pct == nil {
		delete(n.lotMargins, c.LotID)
		return n.next(), nil
	}
	if c.Pct.IsNegative() || c.Pct.GreaterThan(R(1)) {
		return date.Date{}, invalid("maintenanceMarginPct", "must be within [0, 1], got %v", *c.Pct)
	}
	n.lotMargins[c.LotID] = *c.Pct
	return n.next(), nil
}

// Advance accrues the ledger up to the day passed to Apply without any other change.
type Advance struct{}

func (Advance) Name() string { return "advance" }
func (Advance) apply(n *Account) (date.Date, error) {
	return n.next(), nil
}

// WouldCreateDayTrade reports whether adding candidate would create a day trade.
func (a *Account) WouldCreateDayTrade(candidate Trade) bool {
	return WouldCreateDayTrade(candidate, a.trades)
}

// PDT returns the pattern day trader status as of a day.
func (a *Account) PDT(asOf date.Date) PDTStatus { return NewPDTStatus(a.trades, asOf) }

// Summary returns the margin report of the account on a day, using prices
// where known and the lots cost basis otherwise.
func (a *Account) Summary(on date.Date, prices map[string]Money) AccountSummary {
	debit := a.CurrentDebit()
	apr := EffectiveAPRByDay(on, debit, a.settings.Tiers, a.overrides)
	s := NewAccountSummary(Positions(on, a.lots, prices), a.lots, debit, a.settings, &apr)
	s.Date = on
	return s
}
