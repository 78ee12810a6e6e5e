// Package grid lays out resolved compositions as a spreadsheet-like grid: one header
// row, then one variable-height block per composition stacked without gaps.
//
// Within a block, row 0 carries the composition text, the first synergy icon and the
// champion portraits; row 1 the first synergy label and the champion names; rows from 2
// down carry item icons under their champion. Synergy k >= 1 uses rows 2k and 2k+1.
package grid

import (
	"errors"
	"fmt"
	"strings"

	"metagrid/internal/tier"
)

// ErrInvalidInput is returned for structurally invalid compositions
var ErrInvalidInput = errors.New("invalid layout input")

// Fixed column indices
const (
	ColTier = iota
	ColTitle
	ColEarlyPicks
	ColCarries
	ColSynergies

	FixedColumns
)

// FirstChampionColumn is the column of the leftmost champion
const FirstChampionColumn = FixedColumns

const star = "★"

// Champion is a champion with its visuals already resolved to URLs.
// Empty URLs are allowed and render as blank cells.
type Champion struct {
	Name     string
	Cost     int
	Stars    int
	Portrait string
	// Items holds resolved item icon URLs, top to bottom
	Items []string
}

// Synergy is a trait label with its resolved icon URL
type Synergy struct {
	Name string
	Icon string
}

// Composition is the layout input for one block. Champions must already be in
// display order.
type Composition struct {
	Tier       tier.Tier
	Title      string
	EarlyPicks []string
	Carries    []string
	Synergies  []Synergy
	Champions  []Champion
}

// Header holds the header row labels
type Header struct {
	Tier       string `yaml:"tier"`
	Title      string `yaml:"title"`
	EarlyPicks string `yaml:"early_picks"`
	Carries    string `yaml:"carries"`
	Synergies  string `yaml:"synergies"`
	Champions  string `yaml:"champions"`
}

// DefaultHeader returns the stock header labels
func DefaultHeader() Header {
	return Header{
		Tier:       "Meta tier",
		Title:      "Composition",
		EarlyPicks: "Early picks",
		Carries:    "Carries",
		Synergies:  "Synergies",
		Champions:  "Champions / Best items",
	}
}

// Options tunes the layout
type Options struct {
	// MinChampionColumns is the minimum number of champion columns, at least 1
	MinChampionColumns int
	Header             Header
	// Pixel sizes passed through to Image cells; 0 fits the cell
	PortraitSize int
	ItemSize     int
	SynergySize  int
	// ListSeparator joins early picks and carries into one cell
	ListSeparator string
}

// DefaultOptions returns the stock layout options
func DefaultOptions() Options {
	return Options{
		MinChampionColumns: 1,
		Header:             DefaultHeader(),
		ListSeparator:      ", ",
	}
}

// Merge is a vertical merge of one column over rows [StartRow, EndRow)
type Merge struct {
	Column   int
	StartRow int
	EndRow   int
}

// Block is the laid out region of one composition. Rows are relative to OriginRow.
type Block struct {
	OriginRow int
	Height    int
	Tier      tier.Tier
	// Costs holds the cost of the champion in each champion column, 0 where unused
	Costs  []int
	Rows   [][]Content
	Merges []Merge
}

// Grid is the full layout
type Grid struct {
	Columns         int
	ChampionColumns int
	Header          []Content
	Blocks          []Block
}

// RowCount returns the number of rows including the header
func (g *Grid) RowCount() int {
	n := 1
	for _, b := range g.Blocks {
		n += b.Height
	}
	return n
}

// Cell returns the content at an absolute row and column
func (g *Grid) Cell(row, col int) Content {
	if col < 0 || col >= g.Columns || row < 0 {
		return Empty{}
	}
	if row == 0 {
		return g.Header[col]
	}
	for _, b := range g.Blocks {
		if row >= b.OriginRow && row < b.OriginRow+b.Height {
			return b.Rows[row-b.OriginRow][col]
		}
	}
	return Empty{}
}

// Build lays out comps. It is a pure function of its inputs.
func Build(comps []Composition, opts Options) (*Grid, error) {
	if opts.MinChampionColumns < 1 {
		opts.MinChampionColumns = 1
	}
	if opts.ListSeparator == "" {
		opts.ListSeparator = ", "
	}

	champCols := opts.MinChampionColumns
	for i, c := range comps {
		if len(c.Champions) == 0 {
			return nil, fmt.Errorf("%w: composition %d (%q) has no champions", ErrInvalidInput, i+1, c.Title)
		}
		champCols = max(champCols, len(c.Champions))
	}

	g := &Grid{
		Columns:         FixedColumns + champCols,
		ChampionColumns: champCols,
		Header:          header(opts.Header, FixedColumns+champCols),
		Blocks:          make([]Block, 0, len(comps)),
	}

	row := 1
	for _, c := range comps {
		b := buildBlock(c, row, g.Columns, opts)
		g.Blocks = append(g.Blocks, b)
		row += b.Height
	}
	return g, nil
}

func header(h Header, cols int) []Content {
	out := emptyRow(cols)
	out[ColTier] = Text(h.Tier)
	out[ColTitle] = Text(h.Title)
	out[ColEarlyPicks] = Text(h.EarlyPicks)
	out[ColCarries] = Text(h.Carries)
	out[ColSynergies] = Text(h.Synergies)
	out[FirstChampionColumn] = Text(h.Champions)
	return out
}

// BlockHeight is max(2 + most items on one champion, 2 * synergy count)
func BlockHeight(c Composition) int {
	maxItems := 0
	for _, ch := range c.Champions {
		maxItems = max(maxItems, len(nonEmpty(ch.Items)))
	}
	return max(2+maxItems, 2*len(c.Synergies))
}

func buildBlock(c Composition, origin, cols int, opts Options) Block {
	height := BlockHeight(c)

	rows := make([][]Content, height)
	for r := range rows {
		rows[r] = emptyRow(cols)
	}

	rows[0][ColTier] = Text(c.Tier.String())
	rows[0][ColTitle] = Text(c.Title)
	rows[0][ColEarlyPicks] = Text(strings.Join(c.EarlyPicks, opts.ListSeparator))
	rows[0][ColCarries] = Text(strings.Join(c.Carries, opts.ListSeparator))

	for k, syn := range c.Synergies {
		rows[2*k][ColSynergies] = image(syn.Icon, opts.SynergySize)
		rows[2*k+1][ColSynergies] = Text(syn.Name)
	}

	costs := make([]int, cols-FirstChampionColumn)
	for i, ch := range c.Champions {
		col := FirstChampionColumn + i
		costs[i] = ch.Cost
		rows[0][col] = image(ch.Portrait, opts.PortraitSize)
		rows[1][col] = Text(ch.Name + strings.Repeat(star, max(ch.Stars, 0)))
		for j, item := range nonEmpty(ch.Items) {
			rows[2+j][col] = Image{URL: item, PixelSize: opts.ItemSize}
		}
	}

	merges := make([]Merge, 0, FixedColumns)
	for col := 0; col < FixedColumns; col++ {
		merges = append(merges, Merge{Column: col, StartRow: origin, EndRow: origin + height})
	}

	return Block{
		OriginRow: origin,
		Height:    height,
		Tier:      c.Tier,
		Costs:     costs,
		Rows:      rows,
		Merges:    merges,
	}
}

func emptyRow(cols int) []Content {
	row := make([]Content, cols)
	for i := range row {
		row[i] = Empty{}
	}
	return row
}

func nonEmpty(urls []string) []string {
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if u != "" {
			out = append(out, u)
		}
	}
	return out
}
