package harmonic

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// RatioKind identifies which geometric family a Ratio describes
type RatioKind int

const (
	// ThreeHalves is the fixed primary ratio 3/2
	ThreeHalves RatioKind = iota
	// Golden is (1+√5)/2
	Golden
	// Root2 is √2
	Root2
	// Custom is any other positive real
	Custom
)

var (
	ratioThreeHalves = 1.5
	ratioGolden      = (1.0 + math.Sqrt(5.0)) / 2.0
	ratioRoot2       = math.Sqrt(2.0)
)

// ErrInvalidRatio is returned for ratios that are not positive finite reals
var ErrInvalidRatio = errors.New("invalid ratio")

// namedRatios is the single keyword table consulted by ParseRatio
var namedRatios = map[string]RatioKind{
	"1.5":          ThreeHalves,
	"three_halves": ThreeHalves,
	"phi":          Golden,
	"varphi":       Golden,
	"golden":       Golden,
	"goldenratio":  Golden,
	"sqrt2":        Root2,
	"root2":        Root2,
}

var kindNames = map[RatioKind]string{
	ThreeHalves: "three_halves",
	Golden:      "golden",
	Root2:       "root2",
	Custom:      "custom",
}

// Ratio is the geometric base r of a harmonic family f_k = θ·r^k
type Ratio struct {
	Kind  RatioKind
	Value float64
}

// Named returns the ratio for one of the fixed kinds.
// Custom has no fixed value; use NewCustomRatio.
func Named(kind RatioKind) Ratio {
	switch kind {
	case ThreeHalves:
		return Ratio{Kind: ThreeHalves, Value: ratioThreeHalves}
	case Golden:
		return Ratio{Kind: Golden, Value: ratioGolden}
	case Root2:
		return Ratio{Kind: Root2, Value: ratioRoot2}
	default:
		return Ratio{Kind: Custom, Value: math.NaN()}
	}
}

// NewCustomRatio validates and wraps an arbitrary ratio value
func NewCustomRatio(value float64) (Ratio, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) || value <= 0 {
		return Ratio{}, fmt.Errorf("%w: %v must be a positive finite number", ErrInvalidRatio, value)
	}
	return Ratio{Kind: Custom, Value: value}, nil
}

// ParseRatio maps a keyword ("golden", "root2", ...) or a decimal number to a Ratio.
// A comma is accepted as the decimal separator.
func ParseRatio(s string) (Ratio, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if kind, ok := namedRatios[key]; ok {
		return Named(kind), nil
	}

	value, err := strconv.ParseFloat(strings.ReplaceAll(key, ",", "."), 64)
	if err != nil {
		return Ratio{}, fmt.Errorf("%w: %q is neither a known name nor a number", ErrInvalidRatio, s)
	}
	return NewCustomRatio(value)
}

// Validate reports whether the ratio can generate a harmonic family
func (r Ratio) Validate() error {
	if math.IsNaN(r.Value) || math.IsInf(r.Value, 0) || r.Value <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidRatio, r)
	}
	return nil
}

// Is reports whether r has the same numeric value as other within 1e-12
func (r Ratio) Is(other Ratio) bool {
	return math.Abs(r.Value-other.Value) <= 1e-12
}

// Label is a short identifier suitable for column names
func (r Ratio) Label() string {
	if r.Kind == Custom {
		return strings.ReplaceAll(strconv.FormatFloat(r.Value, 'g', 6, 64), ".", "p")
	}
	return kindNames[r.Kind]
}

func (r Ratio) String() string {
	if r.Kind == Custom {
		return strconv.FormatFloat(r.Value, 'g', -1, 64)
	}
	return fmt.Sprintf("%s(%.12g)", kindNames[r.Kind], r.Value)
}

// MarshalText renders named ratios by keyword and custom ones by value
func (r Ratio) MarshalText() ([]byte, error) {
	if r.Kind == Custom {
		return []byte(strconv.FormatFloat(r.Value, 'g', -1, 64)), nil
	}
	if r.Kind == ThreeHalves {
		return []byte("1.5"), nil
	}
	return []byte(kindNames[r.Kind]), nil
}

// UnmarshalText parses the same forms accepted by ParseRatio
func (r *Ratio) UnmarshalText(text []byte) error {
	parsed, err := ParseRatio(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// UnmarshalYAML accepts both scalars like `golden` and bare numbers like `1.5`
func (r *Ratio) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("%w: expected a scalar at line %d", ErrInvalidRatio, value.Line)
	}
	return r.UnmarshalText([]byte(value.Value))
}

// MarshalYAML mirrors MarshalText
func (r Ratio) MarshalYAML() (any, error) {
	text, err := r.MarshalText()
	if err != nil {
		return nil, err
	}
	return string(text), nil
}
