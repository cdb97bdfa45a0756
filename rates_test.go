package margin

import (
	"errors"
	"testing"
)

func TestPickTierAPR(t *testing.T) {
	tiers := DefaultSettings().Tiers
	tests := []struct {
		balance float64
		want    float64
	}{
		{-1000, 0},
		{0, 0},
		{0.01, 0.119},
		{24999.99, 0.119},
		{25000, 0.111},
		{99999, 0.111},
		{100000, 0.091},
		{5e6, 0.091},
	}
	for _, tt := range tests {
		if got := PickTierAPR(M(tt.balance), tiers); !got.Equal(R(tt.want)) {
			t.Errorf("PickTierAPR(%v) = %v, want %v", tt.balance, got, tt.want)
		}
	}
}

func TestPickTierAPR_Degenerate(t *testing.T) {
	if got := PickTierAPR(M(1000), nil); !got.IsZero() {
		t.Errorf("PickTierAPR(empty) = %v, want 0", got)
	}

	// unsorted, and with a hole above 50000: the highest tier is the fallback.
	upper := M(50000)
	tiers := []RateTier{
		{MinBalance: M(60000), APR: R(0.05)},
		{MinBalance: M(0), MaxBalance: &upper, APR: R(0.1)},
	}
	if got := PickTierAPR(M(55000), tiers); !got.Equal(R(0.05)) {
		t.Errorf("PickTierAPR(in hole) = %v, want 0.05", got)
	}
	if got := PickTierAPR(M(100), tiers); !got.Equal(R(0.1)) {
		t.Errorf("PickTierAPR(100) = %v, want 0.1", got)
	}
}

func TestEffectiveAPRByDay(t *testing.T) {
	tiers := DefaultSettings().Tiers
	overrides := RateOverrides{d("2024-03-01"): R(0.2)}

	if got := EffectiveAPRByDay(d("2024-03-01"), M(-5), tiers, overrides); !got.Equal(R(0.2)) {
		t.Errorf("EffectiveAPRByDay(overridden) = %v, want 0.2", got)
	}
	if got := EffectiveAPRByDay(d("2024-03-02"), M(30000), tiers, overrides); !got.Equal(R(0.111)) {
		t.Errorf("EffectiveAPRByDay(not overridden) = %v, want 0.111", got)
	}
	if got := EffectiveAPRByDay(d("2024-03-02"), M(30000), tiers, nil); !got.Equal(R(0.111)) {
		t.Errorf("EffectiveAPRByDay(no overrides) = %v, want 0.111", got)
	}
}

func TestValidateTiers(t *testing.T) {
	if err := ValidateTiers(nil); !errors.Is(err, ErrInvalidRateSchedule) {
		t.Errorf("ValidateTiers(nil) error = %v, want ErrInvalidRateSchedule", err)
	}
	low := M(10)
	err := ValidateTiers([]RateTier{
		{MinBalance: M(-1), APR: R(0.1)},
		{MinBalance: M(20), MaxBalance: &low, APR: R(2)},
	})
	var fields []string
	for _, e := range ValidationErrors(err) {
		fields = append(fields, e.Field)
	}
	want := []string{"tiers[0].minBalance", "tiers[1].maxBalance", "tiers[1].apr"}
	if len(fields) != len(want) {
		t.Fatalf("ValidateTiers() fields = %v, want %v", fields, want)
	}
	for i := range want {
		if fields[i] != want[i] {
			t.Errorf("ValidateTiers() fields = %v, want %v", fields, want)
			break
		}
	}
}
