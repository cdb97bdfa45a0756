package margin

import (
	"fmt"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Rate is a ratio such as an annual percentage rate or a margin percentage,
// expressed as a fraction (0.119 is 11.9%).
type Rate struct {
	value decimal.Decimal
}

func R[T float32 | float64 | int | int32 | int64 | uint | uint32 | uint64 | decimal.Decimal](value T) Rate {
	return Rate{value: newDecimal(value)}
}

// ParseRate parses a fraction like "0.119".
func ParseRate(s string) (Rate, error) {
	v, err := decimal.NewFromString(s)
	if err != nil {
		return Rate{}, fmt.Errorf("invalid rate %q: %w", s, err)
	}
	return Rate{value: v}, nil
}

func (r Rate) Equal(p Rate) bool        { return r.value.Equal(p.value) }
func (r Rate) IsZero() bool             { return r.value.IsZero() }
func (r Rate) IsNegative() bool         { return r.value.IsNegative() }
func (r Rate) GreaterThan(p Rate) bool  { return r.value.GreaterThan(p.value) }
func (r Rate) Decimal() decimal.Decimal { return r.value }
func (r Rate) String() string           { return r.value.String() }

// Percent formats the rate as a percentage with two decimals.
func (r Rate) Percent() string {
	return r.value.Shift(2).StringFixed(2) + "%"
}

func (r Rate) MarshalJSON() ([]byte, error) { return r.value.MarshalJSON() }
func (r *Rate) UnmarshalJSON(b []byte) error { return r.value.UnmarshalJSON(b) }

// yaml support, the settings file stores rates as plain numbers.
func (r Rate) MarshalYAML() (any, error) { return decimalNode(r.value), nil }
func (r *Rate) UnmarshalYAML(n *yaml.Node) error {
	v, err := ParseRate(n.Value)
	if err != nil {
		return err
	}
	*r = v
	return nil
}

// decimalNode encodes a decimal as a plain yaml number without loosing digits.
func decimalNode(d decimal.Decimal) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Value: d.String()}
}
