package meta

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"metagrid/internal/normalize"
	"metagrid/internal/tier"
)

const (
	DefaultItemsPerChampion = 3
	defaultCost             = 1
	minStars, maxStars      = 1, 3
)

// ChampionEntry is a champion with its cost, star target and item names
type ChampionEntry struct {
	Name  string
	Cost  int
	Stars int
	Items []string
}

// EnrichedComposition is a tier-ranked composition whose champions are sorted by cost
type EnrichedComposition struct {
	Tier       tier.Tier
	Title      string
	EarlyPicks []string
	Carries    []string
	Synergies  []string
	Champions  []ChampionEntry
}

// EnrichOptions configures enrichment
type EnrichOptions struct {
	Thresholds       tier.Thresholds
	ItemsPerChampion int
}

func (o EnrichOptions) withDefaults() EnrichOptions {
	if o.Thresholds == (tier.Thresholds{}) {
		o.Thresholds = tier.DefaultThresholds()
	}
	if o.ItemsPerChampion <= 0 {
		o.ItemsPerChampion = DefaultItemsPerChampion
	}
	return o
}

// Enrich turns the document's records into enriched compositions, in document order.
// The tier comes from avg_place when present, else from the tier hint, else B.
func (d *Document) Enrich(opts EnrichOptions, log *zap.Logger) ([]EnrichedComposition, error) {
	opts = opts.withDefaults()
	if log == nil {
		log = zap.NewNop()
	}

	infos := d.championTable()

	out := make([]EnrichedComposition, 0, len(d.Compositions))
	for _, rec := range d.Compositions {
		t, err := recordTier(rec, opts.Thresholds, log)
		if err != nil {
			return nil, fmt.Errorf("composition %q: %w", rec.Title, err)
		}

		champions := make([]ChampionEntry, 0, len(rec.Champions))
		for _, ref := range rec.Champions {
			info, ok := d.Champions[ref.Name]
			if !ok {
				info = infos[normalize.Key(ref.Name)]
			}
			champions = append(champions, ChampionEntry{
				Name:  ref.Name,
				Cost:  normalizeCost(info.Cost),
				Stars: clampStars(ref.Stars),
				Items: capItems(info.Items, opts.ItemsPerChampion),
			})
		}
		SortByCost(champions)

		out = append(out, EnrichedComposition{
			Tier:       t,
			Title:      strings.TrimSpace(rec.Title),
			EarlyPicks: ParseList(rec.EarlyPicks),
			Carries:    ParseList(rec.Carries),
			Synergies:  []string(rec.Synergies),
			Champions:  champions,
		})
	}
	return out, nil
}

// championTable indexes the champion table by normalized name. Names that normalize to
// the same key are taken in sorted order and the first one wins.
func (d *Document) championTable() map[string]ChampionInfo {
	names := make([]string, 0, len(d.Champions))
	for name := range d.Champions {
		names = append(names, name)
	}
	sort.Strings(names)

	infos := make(map[string]ChampionInfo, len(names))
	for _, name := range names {
		key := normalize.Key(name)
		if _, taken := infos[key]; !taken {
			infos[key] = d.Champions[name]
		}
	}
	return infos
}

func recordTier(rec CompositionRecord, th tier.Thresholds, log *zap.Logger) (tier.Tier, error) {
	return placementTier(rec.AvgPlace, rec.Tier, rec.Title, th, log)
}

// placementTier classifies avgPlace when present, else parses hint, else falls back to B
func placementTier(avgPlace *float64, hint, title string, th tier.Thresholds, log *zap.Logger) (tier.Tier, error) {
	if avgPlace != nil {
		return th.Classify(*avgPlace)
	}
	if t, ok := tier.Parse(hint); ok {
		return t, nil
	}
	log.Warn("No placement or tier hint, defaulting to B",
		zap.String("title", title), zap.String("hint", hint))
	return tier.B, nil
}

// EnrichRaw turns scraped records into enriched compositions. Raw records carry no
// synergies or pick lists; a record without avgPlace is ranked B with a warning.
func EnrichRaw(raws []RawComposition, opts EnrichOptions, log *zap.Logger) ([]EnrichedComposition, error) {
	opts = opts.withDefaults()
	if log == nil {
		log = zap.NewNop()
	}

	out := make([]EnrichedComposition, 0, len(raws))
	for _, raw := range raws {
		t, err := placementTier(raw.AvgPlace, "", raw.Name, opts.Thresholds, log)
		if err != nil {
			return nil, fmt.Errorf("composition %q: %w", raw.Name, err)
		}

		champions := make([]ChampionEntry, 0, len(raw.Champions))
		for i, ch := range raw.Champions {
			name := strings.TrimSpace(ch.Name)
			if name == "" {
				return nil, fmt.Errorf("%w: composition %q champion %d has no name", ErrInvalidDocument, raw.Name, i+1)
			}
			if ch.Cost < 0 || ch.Cost > 5 {
				return nil, fmt.Errorf("%w: champion %q has cost %d, want 1..5", ErrInvalidDocument, name, ch.Cost)
			}
			champions = append(champions, ChampionEntry{
				Name:  name,
				Cost:  normalizeCost(ch.Cost),
				Stars: clampStars(ch.Stars),
				Items: capItems(ch.RawItems, opts.ItemsPerChampion),
			})
		}
		SortByCost(champions)

		out = append(out, EnrichedComposition{
			Tier:      t,
			Title:     strings.TrimSpace(raw.Name),
			Champions: champions,
		})
	}
	return out, nil
}

// SortByCost orders champions by ascending cost, keeping input order among equal costs
func SortByCost(champions []ChampionEntry) {
	sort.SliceStable(champions, func(i, j int) bool {
		return champions[i].Cost < champions[j].Cost
	})
}

func normalizeCost(cost int) int {
	if cost < 1 || cost > 5 {
		return defaultCost
	}
	return cost
}

func clampStars(stars int) int {
	switch {
	case stars < minStars:
		return minStars
	case stars > maxStars:
		return maxStars
	default:
		return stars
	}
}

// capItems keeps the first n non-empty item names
func capItems(items []string, n int) []string {
	out := make([]string, 0, n)
	for _, it := range items {
		if len(out) == n {
			break
		}
		if it = strings.TrimSpace(it); it != "" {
			out = append(out, it)
		}
	}
	return out
}
