package margin

import (
	"errors"
	"fmt"
	"slices"

	"github.com/etnz/margin/date"
)

// RateTier is a balance bracket of a tiered interest schedule.
// MaxBalance is exclusive, and the tier is open-ended when it is nil.
type RateTier struct {
	MinBalance Money  `json:"minBalance" yaml:"min"`
	MaxBalance *Money `json:"maxBalance,omitempty" yaml:"max,omitempty"`
	APR        Rate   `json:"apr" yaml:"apr"`
}

// Contains reports whether balance falls in the tier bracket.
func (t RateTier) Contains(balance Money) bool {
	if balance.LessThan(t.MinBalance) {
		return false
	}
	return t.MaxBalance == nil || balance.LessThan(*t.MaxBalance)
}

func (t RateTier) String() string {
	if t.MaxBalance == nil {
		return fmt.Sprintf("%v+: %s", t.MinBalance, t.APR.Percent())
	}
	return fmt.Sprintf("%v-%v: %s", t.MinBalance, *t.MaxBalance, t.APR.Percent())
}

// SortTiers returns a copy of tiers sorted by ascending MinBalance.
func SortTiers(tiers []RateTier) []RateTier {
	sorted := slices.Clone(tiers)
	slices.SortStableFunc(sorted, func(a, b RateTier) int { return a.MinBalance.Decimal().Cmp(b.MinBalance.Decimal()) })
	return sorted
}

// ValidateTiers checks a tier schedule. An empty schedule is an
// *InvalidRateScheduleError, malformed tiers are *ValidationError.
func ValidateTiers(tiers []RateTier) error {
	if len(tiers) == 0 {
		return &InvalidRateScheduleError{Reason: "at least one tier is required"}
	}
	var errs []error
	for i, t := range tiers {
		field := fmt.Sprintf("tiers[%d]", i)
		if t.MinBalance.IsNegative() {
			errs = append(errs, invalid(field+".minBalance", "must not be negative, got %v", t.MinBalance))
		}
		if t.MaxBalance != nil && !t.MaxBalance.GreaterThan(t.MinBalance) {
			errs = append(errs, invalid(field+".maxBalance", "must be greater than minBalance %v, got %v", t.MinBalance, *t.MaxBalance))
		}
		if t.APR.IsNegative() || t.APR.GreaterThan(R(1)) {
			errs = append(errs, invalid(field+".apr", "must be within [0, 1], got %v", t.APR))
		}
	}
	return errors.Join(errs...)
}

// PickTierAPR returns the APR of the first tier, by ascending MinBalance, that
// contains balance. A non positive balance, or an empty schedule, gives 0. If
// no tier matches the APR of the highest tier is used.
func PickTierAPR(balance Money, tiers []RateTier) Rate {
	if !balance.IsPositive() || len(tiers) == 0 {
		return Rate{}
	}
	sorted := SortTiers(tiers)
	for _, t := range sorted {
		if t.Contains(balance) {
			return t.APR
		}
	}
	return sorted[len(sorted)-1].APR
}

// RateOverrides pins the APR of specific days, regardless of the balance.
type RateOverrides map[date.Date]Rate

// EffectiveAPRByDay returns the overridden APR for that day if any, or the tier APR for balance.
func EffectiveAPRByDay(on date.Date, balance Money, tiers []RateTier, overrides RateOverrides) Rate {
	if apr, ok := overrides[on]; ok {
		return apr
	}
	return PickTierAPR(balance, tiers)
}
