package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// apostrophes maps curly and back-tick apostrophes to a straight one
var apostrophes = strings.NewReplacer("’", "'", "‘", "'", "`", "'")

// Key canonicalizes a display name into a comparable lookup key.
// "Rabadon's Deathcap", "rabadons deathcap" and "RABADON’S DEATHCAP" all map to
// "rabadonsdeathcap". The result only contains [a-z0-9].
func Key(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	s = apostrophes.Replace(s)
	s = StripAccents(s)
	s = strings.ToLower(s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// StripAccents removes combining marks after compatibility decomposition
// ("Rédemption" -> "Redemption", fullwidth "Ａｈｒｉ" -> "Ahri", "ﬁ" -> "fi").
func StripAccents(s string) string {
	// transform chains carry state, so build one per call
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
