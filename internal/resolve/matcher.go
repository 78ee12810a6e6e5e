package resolve

import (
	"github.com/pmezard/go-difflib/difflib"
)

// DefaultThreshold is the minimum similarity ratio for a fuzzy match. Tunable: lower
// values accept more spelling drift at the cost of false positives.
const DefaultThreshold = 0.88

// Matcher picks the closest candidate key by difflib similarity ratio
type Matcher struct {
	threshold float64
}

// NewMatcher creates a matcher. A threshold outside (0, 1] falls back to DefaultThreshold.
func NewMatcher(threshold float64) *Matcher {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultThreshold
	}
	return &Matcher{threshold: threshold}
}

// Threshold returns the acceptance threshold
func (m *Matcher) Threshold() float64 {
	return m.threshold
}

// Best returns the candidate with the highest ratio against key, provided it reaches the
// threshold. candidates must be sorted; on equal scores the last (largest) candidate wins,
// as difflib.get_close_matches does, so the result depends only on the inputs.
func (m *Matcher) Best(key string, candidates []string) (string, float64, bool) {
	if key == "" || len(candidates) == 0 {
		return "", 0, false
	}

	sm := difflib.NewMatcher(nil, nil)
	sm.SetSeq2(chars(key))

	best, bestScore := "", 0.0
	for _, cand := range candidates {
		sm.SetSeq1(chars(cand))
		// cheap upper bounds first, like difflib.get_close_matches
		if sm.RealQuickRatio() < m.threshold || sm.QuickRatio() < m.threshold {
			continue
		}
		score := sm.Ratio()
		if score >= m.threshold && score >= bestScore {
			best, bestScore = cand, score
		}
	}
	if best == "" {
		return "", 0, false
	}
	return best, bestScore, true
}

// Ratio returns the similarity of a and b in [0, 1]
func Ratio(a, b string) float64 {
	return difflib.NewMatcher(chars(a), chars(b)).Ratio()
}

func chars(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
