package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"metagrid/internal/catalog"
	"metagrid/internal/emit"
	"metagrid/internal/grid"
	"metagrid/internal/meta"
	"metagrid/internal/resolve"
	"metagrid/internal/tier"
)

type stubSource struct {
	name  string
	kind  catalog.Kind
	names []string
	err   error
}

func (s *stubSource) Name() string       { return s.name }
func (s *stubSource) Kind() catalog.Kind { return s.kind }

func (s *stubSource) Fetch(ctx context.Context, version string) (catalog.Entries, error) {
	if s.err != nil {
		return nil, s.err
	}
	entries := make(catalog.Entries)
	for _, name := range s.names {
		entries.Add(name, catalog.AssetRef(strings.ReplaceAll(name, " ", "")+".png"))
	}
	return entries, nil
}

func (s *stubSource) ImageURL(version string, ref catalog.AssetRef) string {
	return "https://cdn.test/" + string(s.kind) + "/" + string(ref)
}

type stubVersions struct{}

func (stubVersions) LatestVersion(ctx context.Context) (string, error) { return "14.1.1", nil }

type captureSink struct {
	batches []*emit.Batch
	err     error
}

func (s *captureSink) Write(ctx context.Context, b *emit.Batch) error {
	s.batches = append(s.batches, b)
	return s.err
}

func sources() []catalog.Source {
	return []catalog.Source{
		&stubSource{name: "characters-all", kind: catalog.KindCharacters, names: []string{"Ahri", "Jinx"}},
		&stubSource{name: "champions", kind: catalog.KindChampions, names: []string{"Ahri", "Jinx", "Syndra"}},
		&stubSource{name: "items", kind: catalog.KindItems, names: []string{"Bloodthirster", "Infinity Edge", "Rabadon's Deathcap"}},
		&stubSource{name: "traits", kind: catalog.KindTraits, names: []string{"Star Guardian"}},
	}
}

func newPipeline(t *testing.T, srcs []catalog.Source, log *zap.Logger) *Pipeline {
	t.Helper()
	cache := catalog.NewCache(catalog.NewMemoryStore(), stubVersions{}, catalog.Options{}, log)
	return New(cache, srcs, Options{
		Grid:  grid.DefaultOptions(),
		Style: emit.DefaultStyle(),
	}, log)
}

const scenarioDocument = `
compositions:
  - title: Star Guardian
    avg_place: 4.10
    synergies: ["Star Guardian"]
    champions: [Ahri, Jinx]
champions:
  Ahri: {cost: 4, items: ["Rabadon"]}
  Jinx: {cost: 3, items: ["BT", "Infinity Edge"]}
`

func decode(t *testing.T, doc string) *meta.Document {
	t.Helper()
	d, err := meta.DecodeDocument(strings.NewReader(doc))
	require.NoError(t, err)
	return d
}

func imageURL(t *testing.T, c grid.Content) string {
	t.Helper()
	img, ok := c.(grid.Image)
	require.True(t, ok, "want image, got %#v", c)
	return img.URL
}

func TestRunScenario(t *testing.T) {
	sink := &captureSink{}
	res, err := newPipeline(t, sources(), nil).Run(context.Background(), Input{Document: decode(t, scenarioDocument)}, sink)
	require.NoError(t, err)

	require.Len(t, res.Grid.Blocks, 1)
	block := res.Grid.Blocks[0]
	assert.Equal(t, tier.SPlus, block.Tier)
	assert.Equal(t, 4, block.Height)
	assert.Equal(t, grid.Text("S+"), block.Rows[0][grid.ColTier])

	jinx, ahri := grid.FirstChampionColumn, grid.FirstChampionColumn+1
	assert.Equal(t, grid.Text("Jinx★"), block.Rows[1][jinx])
	assert.Equal(t, grid.Text("Ahri★"), block.Rows[1][ahri])
	assert.Equal(t, "https://cdn.test/characters/Jinx.png", imageURL(t, block.Rows[0][jinx]))

	assert.Equal(t, "https://cdn.test/items/Bloodthirster.png", imageURL(t, block.Rows[2][jinx]))
	assert.Equal(t, "https://cdn.test/items/InfinityEdge.png", imageURL(t, block.Rows[3][jinx]))
	assert.Equal(t, "https://cdn.test/items/Rabadon'sDeathcap.png", imageURL(t, block.Rows[2][ahri]))
	assert.True(t, grid.IsEmpty(block.Rows[3][ahri]))

	assert.Equal(t, "https://cdn.test/traits/StarGuardian.png", imageURL(t, block.Rows[0][grid.ColSynergies]))
	assert.Equal(t, grid.Text("Star Guardian"), block.Rows[1][grid.ColSynergies])

	assert.Empty(t, res.Unresolved)
	assert.Empty(t, res.Unavailable)
	assert.NotEmpty(t, res.RunID)

	require.Len(t, sink.batches, 1)
	assert.Same(t, res.Batch, sink.batches[0])
	assert.Equal(t, "Meta TFT", res.Batch.SheetName)
}

func TestRunReportsUnresolvedOnce(t *testing.T) {
	doc := decode(t, `
compositions:
  - title: Mystery
    tier: A
    synergies: [Nonexistent Trait]
    champions: [Zzyzx, Zzyzx, Syndra]
champions:
  Zzyzx: {cost: 2, items: ["Nothing Like It"]}
`)
	core, logs := observer.New(zapcore.WarnLevel)
	res, err := newPipeline(t, sources(), zap.New(core)).Run(context.Background(), Input{Document: doc}, nil)
	require.NoError(t, err)

	assert.Equal(t, []resolve.Miss{
		{Kind: catalog.KindCharacters, Name: "Zzyzx", Count: 2},
		{Kind: catalog.KindItems, Name: "Nothing Like It", Count: 2},
		{Kind: catalog.KindTraits, Name: "Nonexistent Trait", Count: 1},
	}, res.Unresolved)
	assert.Equal(t, 3, logs.FilterMessage("Unresolved name").Len())

	block := res.Grid.Blocks[0]
	assert.Equal(t, tier.A, block.Tier)
	// Syndra is not a TFT unit here but resolves through the champion catalog
	assert.Equal(t, "https://cdn.test/champions/Syndra.png", imageURL(t, block.Rows[0][grid.FirstChampionColumn+2]))
	assert.True(t, grid.IsEmpty(block.Rows[0][grid.FirstChampionColumn]))
	assert.Equal(t, 2, block.Height, "unresolved items add no rows")
}

func TestRunDegradesUnavailableCatalog(t *testing.T) {
	srcs := sources()
	srcs[3] = &stubSource{name: "traits", kind: catalog.KindTraits, err: errors.New("connection refused")}

	core, logs := observer.New(zapcore.WarnLevel)
	res, err := newPipeline(t, srcs, zap.New(core)).Run(context.Background(), Input{Document: decode(t, scenarioDocument)}, nil)
	require.NoError(t, err)

	assert.Equal(t, []catalog.Kind{catalog.KindTraits}, res.Unavailable)
	assert.Equal(t, 1, logs.FilterMessage("Catalog unavailable, names of this kind stay unresolved").Len())
	assert.Equal(t, []resolve.Miss{{Kind: catalog.KindTraits, Name: "Star Guardian", Count: 1}}, res.Unresolved)

	block := res.Grid.Blocks[0]
	assert.True(t, grid.IsEmpty(block.Rows[0][grid.ColSynergies]))
	assert.Equal(t, grid.Text("Star Guardian"), block.Rows[1][grid.ColSynergies])
}

func TestRunRawRecords(t *testing.T) {
	raws, err := meta.DecodeRaw(strings.NewReader(`[
		{"name": "Jinx Reroll", "avgPlace": 4.5, "champions": [
			{"name": "Jinx", "rawItems": ["Infinity Edge"], "cost": 3},
			{"name": "Ahri", "rawItems": []}
		]}
	]`))
	require.NoError(t, err)

	res, err := newPipeline(t, sources(), nil).Run(context.Background(), Input{Raw: raws}, nil)
	require.NoError(t, err)

	block := res.Grid.Blocks[0]
	assert.Equal(t, tier.B, block.Tier)
	assert.Equal(t, grid.Text("Jinx Reroll"), block.Rows[0][grid.ColTitle])
	assert.Equal(t, grid.Text("Ahri★"), block.Rows[1][grid.FirstChampionColumn], "cost 1 sorts first")
	assert.Equal(t, 3, block.Height)
}

func TestRunLogsRunID(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	res, err := newPipeline(t, sources(), zap.New(core)).Run(context.Background(), Input{Document: decode(t, scenarioDocument)}, nil)
	require.NoError(t, err)

	done := logs.FilterMessage("Run complete").All()
	require.Len(t, done, 1)
	assert.Equal(t, res.RunID, done[0].ContextMap()["run_id"])
	assert.EqualValues(t, 5, done[0].ContextMap()["rows"], "header plus one block of 4")
}

func TestRunErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("no input", func(t *testing.T) {
		_, err := newPipeline(t, sources(), nil).Run(ctx, Input{}, nil)
		assert.ErrorIs(t, err, ErrNoInput)
	})

	t.Run("composition without champions", func(t *testing.T) {
		doc := decode(t, "compositions:\n  - title: Empty\n    tier: S\n")
		_, err := newPipeline(t, sources(), nil).Run(ctx, Input{Document: doc}, nil)
		assert.ErrorIs(t, err, grid.ErrInvalidInput)
	})

	t.Run("sink failure", func(t *testing.T) {
		sink := &captureSink{err: emit.ErrRejected}
		_, err := newPipeline(t, sources(), nil).Run(ctx, Input{Document: decode(t, scenarioDocument)}, sink)
		assert.ErrorIs(t, err, emit.ErrRejected)
	})

	t.Run("raw champion without name", func(t *testing.T) {
		avg := 4.0
		raws := []meta.RawComposition{{Name: "Bad", AvgPlace: &avg, Champions: []meta.RawChampion{{Name: " "}}}}
		_, err := newPipeline(t, sources(), nil).Run(ctx, Input{Raw: raws}, nil)
		assert.ErrorIs(t, err, meta.ErrInvalidDocument)
	})
}
