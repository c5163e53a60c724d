// Package measure provides exact rational arithmetic for construction
// measurements in inches. Values are parsed from shop-floor notation
// ("24 1/2", "3/4", "24.5") and formatted back to the nearest graduation.
package measure

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultMaxDenominator matches standard fractional-inch graduations (1/16").
const DefaultMaxDenominator = 16

// Measurement is an immutable exact rational length in inches.
// The zero value is 0".
type Measurement struct {
	r *big.Rat
}

// FromInt returns the whole-inch measurement n.
func FromInt(n int64) Measurement {
	return Measurement{r: new(big.Rat).SetInt64(n)}
}

// FromFrac returns num/den inches. It panics when den is zero.
func FromFrac(num, den int64) Measurement {
	if den == 0 {
		panic("measure: zero denominator")
	}
	return Measurement{r: big.NewRat(num, den)}
}

// FromRat copies r into a new Measurement.
func FromRat(r *big.Rat) Measurement {
	if r == nil {
		return Measurement{}
	}
	return Measurement{r: new(big.Rat).Set(r)}
}

// rat returns the underlying value, never nil. Callers must not mutate it.
func (m Measurement) rat() *big.Rat {
	if m.r == nil {
		return new(big.Rat)
	}
	return m.r
}

// Rat returns a copy of the underlying rational.
func (m Measurement) Rat() *big.Rat {
	return new(big.Rat).Set(m.rat())
}

// Num returns the numerator in lowest terms.
func (m Measurement) Num() *big.Int { return new(big.Int).Set(m.rat().Num()) }

// Denom returns the positive denominator in lowest terms.
func (m Measurement) Denom() *big.Int { return new(big.Int).Set(m.rat().Denom()) }

func (m Measurement) Add(o Measurement) Measurement {
	return Measurement{r: new(big.Rat).Add(m.rat(), o.rat())}
}

func (m Measurement) Sub(o Measurement) Measurement {
	return Measurement{r: new(big.Rat).Sub(m.rat(), o.rat())}
}

func (m Measurement) Mul(o Measurement) Measurement {
	return Measurement{r: new(big.Rat).Mul(m.rat(), o.rat())}
}

// MulInt scales m by a whole number.
func (m Measurement) MulInt(n int64) Measurement {
	return Measurement{r: new(big.Rat).Mul(m.rat(), new(big.Rat).SetInt64(n))}
}

// Div returns m / o. Dividing by zero is an error rather than a panic.
func (m Measurement) Div(o Measurement) (Measurement, error) {
	if o.IsZero() {
		return Measurement{}, errors.New("measure: division by zero")
	}
	return Measurement{r: new(big.Rat).Quo(m.rat(), o.rat())}, nil
}

func (m Measurement) Neg() Measurement {
	return Measurement{r: new(big.Rat).Neg(m.rat())}
}

func (m Measurement) Abs() Measurement {
	return Measurement{r: new(big.Rat).Abs(m.rat())}
}

// Cmp compares m and o and returns -1, 0 or +1.
func (m Measurement) Cmp(o Measurement) int { return m.rat().Cmp(o.rat()) }

// Equal reports whether m and o are arithmetically equal.
func (m Measurement) Equal(o Measurement) bool { return m.Cmp(o) == 0 }

func (m Measurement) Sign() int    { return m.rat().Sign() }
func (m Measurement) IsZero() bool { return m.Sign() == 0 }

// IsWhole reports whether m has no fractional part.
func (m Measurement) IsWhole() bool { return m.rat().IsInt() }

// ToDecimal converts to float64. Precision loss is accepted here; use it only
// where the result feeds a formula that is rounded afterwards.
func ToDecimal(m Measurement) float64 {
	f, _ := m.rat().Float64()
	return f
}

// Float64 is shorthand for ToDecimal(m).
func (m Measurement) Float64() float64 { return ToDecimal(m) }

// String renders m as the nearest fraction with a denominator of at most 16.
func (m Measurement) String() string {
	return Format(m, DefaultMaxDenominator)
}

// Exact renders m as a mixed number without any rounding.
func (m Measurement) Exact() string {
	return formatRat(m.rat())
}

// MarshalJSON encodes the exact value as a mixed-number string.
func (m Measurement) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Exact())
}

// UnmarshalJSON accepts either a measurement string or a bare JSON number.
func (m *Measurement) UnmarshalJSON(data []byte) error {
	text := strings.TrimSpace(string(data))
	if text == "null" {
		*m = Measurement{}
		return nil
	}
	if strings.HasPrefix(text, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if strings.TrimSpace(s) == "" {
			*m = Measurement{}
			return nil
		}
		text = s
	}
	parsed, err := Parse(text)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// MarshalYAML encodes the exact value as a mixed-number string.
func (m Measurement) MarshalYAML() (interface{}, error) {
	return m.Exact(), nil
}

// UnmarshalYAML accepts scalar nodes in any Parse grammar.
func (m *Measurement) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("measure: expected scalar, got yaml kind %d at line %d", node.Kind, node.Line)
	}
	parsed, err := Parse(node.Value)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
