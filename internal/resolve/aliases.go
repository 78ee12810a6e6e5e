package resolve

import (
	"strings"

	"metagrid/internal/catalog"
)

// Aliases maps a verbatim literal to the name it should be resolved as, per catalog kind
type Aliases map[catalog.Kind]map[string]string

// DefaultAliases returns the built-in alias table: French item names and common
// shorthands found in hand-written meta notes
func DefaultAliases() Aliases {
	return Aliases{
		catalog.KindItems: {
			"Archange":          "Archangel's Staff",
			"Lame d'infini":     "Infinity Edge",
			"Pistolame Hextech": "Hextech Gunblade",
			"Cape solaire":      "Sunfire Cape",
			"Armure roncière":   "Bramble Vest",
			"Rédemption":        "TFT_Item_Redemption",
			"Redemption":        "TFT_Item_Redemption",
			"Warmog":            "Warmog's Armor",
			"Guinsoo":           "Guinsoo's Rageblade",
			"Morello":           "Morellonomicon",
			"Rabadon":           "Rabadon's Deathcap",
			"BT":                "Bloodthirster",
			"Lame funeste":      "Deathblade",
			"Guardian Angel":    "TFT_Item_GuardianAngel",
			"Thornmail":         "TFT_Item_BrambleVest",
		},
	}
}

// Merge returns a copy of a with extra layered on top. Entries in extra win.
func (a Aliases) Merge(extra Aliases) Aliases {
	out := make(Aliases, len(a)+len(extra))
	for _, src := range []Aliases{a, extra} {
		for kind, table := range src {
			if out[kind] == nil {
				out[kind] = make(map[string]string, len(table))
			}
			for from, to := range table {
				from, to = strings.TrimSpace(from), strings.TrimSpace(to)
				if from == "" || to == "" {
					continue
				}
				out[kind][from] = to
			}
		}
	}
	return out
}

// Lookup returns the alias target of a trimmed literal
func (a Aliases) Lookup(kind catalog.Kind, literal string) (string, bool) {
	to, ok := a[kind][literal]
	return to, ok
}
