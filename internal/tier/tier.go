package tier

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Tier is an ordinal meta ranking bucket. Lower values rank higher.
type Tier int

const (
	SPlus Tier = iota
	S
	APlus
	A
	B
)

// ErrInvalidScore is returned for non-finite average placements
var ErrInvalidScore = errors.New("invalid score")

var tierNames = map[Tier]string{
	SPlus: "S+",
	S:     "S",
	APlus: "A+",
	A:     "A",
	B:     "B",
}

// String returns the display label ("S+", "S", ...)
func (t Tier) String() string {
	if name, ok := tierNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Tier(%d)", int(t))
}

// All returns every tier from best to worst
func All() []Tier {
	return []Tier{SPlus, S, APlus, A, B}
}

// Thresholds are the upper bounds (exclusive) of each tier's avgPlace interval.
// A score below SPlus is S+, below S is S, and so on; anything at or above A is B.
// The defaults were picked empirically and are meant to be tuned.
type Thresholds struct {
	SPlus float64 `yaml:"s_plus"`
	S     float64 `yaml:"s"`
	APlus float64 `yaml:"a_plus"`
	A     float64 `yaml:"a"`
}

// DefaultThresholds returns the stock avgPlace boundaries
func DefaultThresholds() Thresholds {
	return Thresholds{SPlus: 4.15, S: 4.25, APlus: 4.35, A: 4.45}
}

// Validate checks the bounds are finite and strictly increasing
func (th Thresholds) Validate() error {
	bounds := []float64{th.SPlus, th.S, th.APlus, th.A}
	for i, b := range bounds {
		if math.IsNaN(b) || math.IsInf(b, 0) {
			return fmt.Errorf("threshold %d is not finite", i)
		}
		if i > 0 && b <= bounds[i-1] {
			return fmt.Errorf("thresholds must be strictly increasing, got %v", bounds)
		}
	}
	return nil
}

// Classify maps an average placement to a tier using th.
// Intervals are closed on the lower bound: exactly 4.15 is S, not S+.
func (th Thresholds) Classify(avgPlace float64) (Tier, error) {
	if math.IsNaN(avgPlace) || math.IsInf(avgPlace, 0) {
		return B, fmt.Errorf("%w: average placement %v", ErrInvalidScore, avgPlace)
	}
	switch {
	case avgPlace < th.SPlus:
		return SPlus, nil
	case avgPlace < th.S:
		return S, nil
	case avgPlace < th.APlus:
		return APlus, nil
	case avgPlace < th.A:
		return A, nil
	default:
		return B, nil
	}
}

// Classify maps an average placement to a tier using the default thresholds
func Classify(avgPlace float64) (Tier, error) {
	return DefaultThresholds().Classify(avgPlace)
}

// Parse reads an upstream tier hint such as "S+", "A (top)" or "A-".
// Qualifiers in parentheses are ignored; "(top)" promotes A to A+ and a trailing
// minus demotes one step.
func Parse(hint string) (Tier, bool) {
	h := strings.ToUpper(strings.TrimSpace(hint))
	if h == "" {
		return B, false
	}

	top := false
	if i := strings.Index(h, "("); i >= 0 {
		top = strings.Contains(h[i:], "TOP")
		h = strings.TrimSpace(h[:i])
	}

	var t Tier
	switch h {
	case "S+", "S PLUS":
		t = SPlus
	case "S":
		t = S
	case "S-":
		t = APlus
	case "A+":
		t = APlus
	case "A":
		t = A
	case "A-", "B+", "B", "B-", "C":
		t = B
	default:
		return B, false
	}

	if top && t > SPlus {
		t--
	}
	return t, true
}
