package emit

import (
	sheets "google.golang.org/api/sheets/v4"

	"metagrid/internal/tier"
)

// RGB is an 8-bit colour
type RGB struct {
	R, G, B uint8
}

func (c RGB) color() *sheets.Color {
	return &sheets.Color{
		Red:   float64(c.R) / 255,
		Green: float64(c.G) / 255,
		Blue:  float64(c.B) / 255,
	}
}

func gray(v float64) *sheets.Color {
	return &sheets.Color{Red: v, Green: v, Blue: v}
}

// Style controls the look of the emitted sheet
type Style struct {
	SpreadsheetID string
	SheetName     string
	SheetID       int64

	FixedHeaderColor    RGB
	ChampionHeaderColor RGB
	TierColors          map[tier.Tier]RGB
	// CostColors is keyed by champion cost 1..5
	CostColors map[int]RGB

	// FixedColumnWidths holds the widths of the five fixed columns
	FixedColumnWidths   [5]int64
	ChampionColumnWidth int64
	PortraitRowHeight   int64
	NameRowHeight       int64
	ItemRowHeight       int64

	// BandShades alternate as block backgrounds (grey levels 0..1)
	BandShades [2]float64

	// The sheet is grown to at least this size and the whole area is unmerged
	MinRows    int64
	MinColumns int64

	// KeepSynergyRows leaves the synergy column unmerged in blocks with more than one
	// synergy, so the icons and labels below the first stay visible
	KeepSynergyRows bool
}

// DefaultStyle returns the stock palette and sizes
func DefaultStyle() Style {
	return Style{
		SheetName:           "Meta TFT",
		FixedHeaderColor:    RGB{37, 99, 235},
		ChampionHeaderColor: RGB{5, 150, 105},
		TierColors: map[tier.Tier]RGB{
			tier.SPlus: {220, 38, 38},
			tier.S:     {234, 88, 12},
			tier.APlus: {202, 138, 4},
			tier.A:     {22, 163, 74},
			tier.B:     {71, 85, 105},
		},
		CostColors: map[int]RGB{
			1: {107, 114, 128},
			2: {22, 163, 74},
			3: {37, 99, 235},
			4: {147, 51, 234},
			5: {217, 119, 6},
		},
		FixedColumnWidths:   [5]int64{140, 180, 280, 160, 200},
		ChampionColumnWidth: 120,
		PortraitRowHeight:   110,
		NameRowHeight:       28,
		ItemRowHeight:       70,
		BandShades:          [2]float64{0.98, 1.0},
		MinRows:             1000,
		MinColumns:          26,
	}
}
