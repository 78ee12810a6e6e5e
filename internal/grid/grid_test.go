package grid

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metagrid/internal/tier"
)

func starGuardian() Composition {
	return Composition{
		Tier:       tier.SPlus,
		Title:      "Star Guardian",
		EarlyPicks: []string{"Ahri", "Syndra"},
		Carries:    []string{"Jinx"},
		Synergies:  []Synergy{{Name: "Star Guardian", Icon: "https://img/sg.png"}},
		Champions: []Champion{
			{Name: "Jinx", Cost: 3, Stars: 2, Portrait: "https://img/jinx.png", Items: []string{"https://img/bt.png", "https://img/ie.png"}},
			{Name: "Ahri", Cost: 4, Stars: 1, Portrait: "https://img/ahri.png", Items: []string{"https://img/rab.png"}},
		},
	}
}

func TestBlockHeight(t *testing.T) {
	tests := []struct {
		name      string
		items     []int
		synergies int
		want      int
	}{
		{"items dominate", []int{3, 1, 0}, 2, 5},
		{"synergies dominate", []int{1}, 4, 8},
		{"minimum", []int{0, 0}, 0, 2},
		{"one synergy no items", []int{0}, 1, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Composition
			for i, n := range tt.items {
				ch := Champion{Name: string(rune('A' + i))}
				for j := 0; j < n; j++ {
					ch.Items = append(ch.Items, "https://img/item.png")
				}
				c.Champions = append(c.Champions, ch)
			}
			for i := 0; i < tt.synergies; i++ {
				c.Synergies = append(c.Synergies, Synergy{Name: "s"})
			}
			assert.Equal(t, tt.want, BlockHeight(c))
		})
	}
}

func TestBlockHeightIgnoresUnresolvedItems(t *testing.T) {
	c := Composition{Champions: []Champion{{Name: "A", Items: []string{"", "https://img/x.png", ""}}}}
	assert.Equal(t, 3, BlockHeight(c))
}

func TestBuildScenario(t *testing.T) {
	g, err := Build([]Composition{starGuardian()}, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, 7, g.Columns)
	assert.Equal(t, 2, g.ChampionColumns)
	require.Len(t, g.Blocks, 1)

	b := g.Blocks[0]
	assert.Equal(t, 1, b.OriginRow)
	assert.Equal(t, 4, b.Height)
	assert.Equal(t, 5, g.RowCount())
	assert.Equal(t, []int{3, 4}, b.Costs)

	jinx, ahri := FirstChampionColumn, FirstChampionColumn+1
	want := [][]Content{
		{Text("S+"), Text("Star Guardian"), Text("Ahri, Syndra"), Text("Jinx"), Image{URL: "https://img/sg.png"}, Image{URL: "https://img/jinx.png"}, Image{URL: "https://img/ahri.png"}},
		{Empty{}, Empty{}, Empty{}, Empty{}, Text("Star Guardian"), Text("Jinx★★"), Text("Ahri★")},
		{Empty{}, Empty{}, Empty{}, Empty{}, Empty{}, Image{URL: "https://img/bt.png"}, Image{URL: "https://img/rab.png"}},
		{Empty{}, Empty{}, Empty{}, Empty{}, Empty{}, Image{URL: "https://img/ie.png"}, Empty{}},
	}
	if diff := cmp.Diff(want, b.Rows); diff != "" {
		t.Errorf("block rows mismatch (-want +got):\n%s", diff)
	}

	// item rows only under their champion
	assert.Equal(t, Image{URL: "https://img/ie.png"}, g.Cell(4, jinx))
	assert.Equal(t, Empty{}, g.Cell(4, ahri))
}

func TestBuildHeader(t *testing.T) {
	opts := DefaultOptions()
	opts.MinChampionColumns = 4
	g, err := Build([]Composition{starGuardian()}, opts)
	require.NoError(t, err)

	assert.Equal(t, 9, g.Columns)
	assert.Equal(t, []Content{
		Text("Meta tier"), Text("Composition"), Text("Early picks"), Text("Carries"), Text("Synergies"),
		Text("Champions / Best items"), Empty{}, Empty{}, Empty{},
	}, g.Header)
	assert.Equal(t, []int{3, 4, 0, 0}, g.Blocks[0].Costs)
	assert.Equal(t, g.Header[0], g.Cell(0, 0))
	assert.Equal(t, Empty{}, g.Cell(99, 0))
	assert.Equal(t, Empty{}, g.Cell(1, 99))
}

func TestBuildStacksBlocksAndMerges(t *testing.T) {
	second := Composition{
		Tier:      tier.B,
		Title:     "Bruisers",
		Synergies: []Synergy{{Name: "Bruiser"}, {Name: "Rebel", Icon: "https://img/rebel.png"}, {Name: "Sniper"}},
		Champions: []Champion{{Name: "Ekko", Stars: 1}, {Name: "Vi"}, {Name: "Jinx"}},
	}
	comps := []Composition{starGuardian(), second, starGuardian()}

	g, err := Build(comps, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, g.Blocks, 3)

	// contiguous from row 1, no gaps, no overlap
	next := 1
	for i, b := range g.Blocks {
		assert.Equal(t, next, b.OriginRow, "block %d origin", i)
		assert.GreaterOrEqual(t, b.Height, 2)
		assert.Len(t, b.Rows, b.Height)
		next += b.Height
	}
	assert.Equal(t, next, g.RowCount())
	assert.Equal(t, 6, g.Blocks[1].Height)

	// each fixed column is merged over exactly its block
	for _, b := range g.Blocks {
		require.Len(t, b.Merges, FixedColumns)
		for col, m := range b.Merges {
			assert.Equal(t, Merge{Column: col, StartRow: b.OriginRow, EndRow: b.OriginRow + b.Height}, m)
		}
	}

	// synergy k at rows 2k / 2k+1, missing icon renders empty
	rows := g.Blocks[1].Rows
	assert.Equal(t, Empty{}, rows[0][ColSynergies])
	assert.Equal(t, Text("Bruiser"), rows[1][ColSynergies])
	assert.Equal(t, Image{URL: "https://img/rebel.png"}, rows[2][ColSynergies])
	assert.Equal(t, Text("Rebel"), rows[3][ColSynergies])
	assert.Equal(t, Text("Sniper"), rows[5][ColSynergies])

	// unresolved portraits are empty, names are always written; zero stars add none
	assert.Equal(t, Empty{}, rows[0][FirstChampionColumn])
	assert.Equal(t, Text("Vi"), rows[1][FirstChampionColumn+1])
}

func TestBuildNoOrphanRows(t *testing.T) {
	comps := []Composition{
		starGuardian(),
		{Title: "x", Champions: []Champion{{Name: "A", Items: []string{"", "https://img/1.png", "", "https://img/2.png"}}}},
	}
	g, err := Build(comps, DefaultOptions())
	require.NoError(t, err)

	for _, b := range g.Blocks {
		maxItems := b.Height - 2
		for r := 2; r < 2+maxItems; r++ {
			filled := false
			for col := FirstChampionColumn; col < g.Columns; col++ {
				if !IsEmpty(b.Rows[r][col]) {
					filled = true
				}
			}
			assert.True(t, filled, "block at %d: item row %d is empty", b.OriginRow, r)
		}
	}
	assert.Equal(t, 4, g.Blocks[1].Height)
}

func TestBuildDeterministic(t *testing.T) {
	comps := []Composition{starGuardian(), starGuardian()}
	a, err := Build(comps, DefaultOptions())
	require.NoError(t, err)
	b, err := Build(comps, DefaultOptions())
	require.NoError(t, err)

	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("layout not deterministic:\n%s", diff)
	}
}

func TestBuildInvalidInput(t *testing.T) {
	_, err := Build([]Composition{starGuardian(), {Title: "empty"}}, DefaultOptions())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidInput))

	g, err := Build(nil, Options{})
	require.NoError(t, err)
	assert.Equal(t, FixedColumns+1, g.Columns)
	assert.Equal(t, 1, g.RowCount())
}

func TestIsEmpty(t *testing.T) {
	assert.True(t, IsEmpty(nil))
	assert.True(t, IsEmpty(Empty{}))
	assert.True(t, IsEmpty(Text("")))
	assert.True(t, IsEmpty(Image{}))
	assert.False(t, IsEmpty(Text("x")))
	assert.False(t, IsEmpty(Image{URL: "u"}))
}
