package margin

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// BrokerSettings is the long lived configuration of an account's broker.
type BrokerSettings struct {
	Name              string     `json:"brokerName" yaml:"broker"`
	Currency          string     `json:"currency" yaml:"currency"`
	Tiers             []RateTier `json:"tiers" yaml:"tiers"`
	DayCountBasis     int        `json:"dayCountBasis" yaml:"day_count_basis"`
	InitialMargin     Rate       `json:"initialMarginPct" yaml:"initial_margin"`
	MaintenanceMargin Rate       `json:"maintenanceMarginPct" yaml:"maintenance_margin"`
}

// DefaultSettings returns a typical US retail broker configuration.
func DefaultSettings() BrokerSettings {
	m := func(v int) *Money { x := M(v); return &x }
	return BrokerSettings{
		Name:     "default",
		Currency: "USD",
		Tiers: []RateTier{
			{MinBalance: M(0), MaxBalance: m(25000), APR: R(0.119)},
			{MinBalance: M(25000), MaxBalance: m(100000), APR: R(0.111)},
			{MinBalance: M(100000), APR: R(0.091)},
		},
		DayCountBasis:     360,
		InitialMargin:     R(0.50),
		MaintenanceMargin: R(0.30),
	}
}

// Validate returns a copy of the settings with tiers sorted by MinBalance and
// a default currency, or an error. Validation errors are joined *ValidationError,
// an empty tier list is an *InvalidRateScheduleError.
func (s BrokerSettings) Validate() (BrokerSettings, error) {
	s.Name = strings.TrimSpace(s.Name)
	if s.Currency == "" {
		s.Currency = "USD"
	}
	var errs []error
	if s.Name == "" {
		errs = append(errs, invalid("brokerName", "is missing"))
	}
	if s.DayCountBasis != 360 && s.DayCountBasis != 365 {
		errs = append(errs, invalid("dayCountBasis", "must be 360 or 365, got %d", s.DayCountBasis))
	}
	if s.InitialMargin.IsNegative() || s.InitialMargin.GreaterThan(R(1)) {
		errs = append(errs, invalid("initialMarginPct", "must be within [0, 1], got %v", s.InitialMargin))
	}
	if s.MaintenanceMargin.IsNegative() || s.MaintenanceMargin.GreaterThan(R(1)) {
		errs = append(errs, invalid("maintenanceMarginPct", "must be within [0, 1], got %v", s.MaintenanceMargin))
	}
	if err := ValidateTiers(s.Tiers); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return s, err
	}
	s.Tiers = SortTiers(s.Tiers)
	return s, nil
}

// AddTier returns a copy of the settings with tier added to the schedule.
func (s BrokerSettings) AddTier(tier RateTier) (BrokerSettings, error) {
	n := s
	n.Tiers = append(slices.Clone(s.Tiers), tier)
	return n.Validate()
}

// RemoveTier returns a copy of the settings without the i-th tier (in
// ascending MinBalance order). Removing the last remaining tier is rejected.
func (s BrokerSettings) RemoveTier(i int) (BrokerSettings, error) {
	if len(s.Tiers) <= 1 {
		return s, &InvalidRateScheduleError{Reason: "cannot delete the last remaining tier"}
	}
	if i < 0 || i >= len(s.Tiers) {
		return s, invalid("tiers", "no tier at index %d", i)
	}
	n := s
	n.Tiers = slices.Delete(SortTiers(s.Tiers), i, i+1)
	return n.Validate()
}

func (s BrokerSettings) String() string {
	return fmt.Sprintf("%s (%s, %d days, initial %s, maintenance %s)", s.Name, s.Currency, s.DayCountBasis, s.InitialMargin.Percent(), s.MaintenanceMargin.Percent())
}
