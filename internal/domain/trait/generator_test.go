// internal/domain/trait/generator_test.go
package trait_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"critterforge/internal/domain/trait"
)

// scriptedSource replays a fixed sequence of rolls so each draw is exact.
type scriptedSource struct {
	vals []float64
	i    int
}

func (s *scriptedSource) Float64() float64 {
	v := s.vals[s.i%len(s.vals)]
	s.i++
	return v
}

func TestNewGeneratorRejectsNilInputs(t *testing.T) {
	_, err := trait.NewGenerator(nil, &scriptedSource{vals: []float64{0}})
	require.ErrorIs(t, err, trait.ErrNilCatalog)

	_, err = trait.NewGenerator(trait.DefaultCatalog(), nil)
	require.ErrorIs(t, err, trait.ErrNilRandSource)
}

func TestGenerateLowRollsSelectFirstVariants(t *testing.T) {
	cat := trait.DefaultCatalog()
	gen, err := trait.NewGenerator(cat, &scriptedSource{vals: []float64{0}})
	require.NoError(t, err)

	ts, err := gen.Generate()
	require.NoError(t, err)

	require.Equal(t, "round", ts.Head)
	require.Equal(t, "dot", ts.Eyes)
	require.Equal(t, "smile", ts.Mouth)
	require.Equal(t, "slim", ts.Body)
	require.Equal(t, "paws", ts.Feet)
	require.Equal(t, "none", ts.Accessory)
	require.Equal(t, "meadow", ts.Background)
	require.Equal(t, "moss", ts.Palette.Primary)
	require.Equal(t, "bark", ts.Palette.Accent)
	require.Equal(t, trait.PaletteTierCommon, ts.Palette.Tier)

	require.NoError(t, ts.Validate(cat))
}

func TestGenerateHighRollsSelectLastVariants(t *testing.T) {
	cat := trait.DefaultCatalog()
	gen, err := trait.NewGenerator(cat, &scriptedSource{vals: []float64{0.9999}})
	require.NoError(t, err)

	ts, err := gen.Generate()
	require.NoError(t, err)

	require.Equal(t, "prismatic", ts.Head)
	require.Equal(t, "gemstone", ts.Eyes)
	require.Equal(t, "ember", ts.Mouth)
	require.Equal(t, "translucent", ts.Body)
	require.Equal(t, "rollers", ts.Feet)
	require.Equal(t, "halo", ts.Accessory)
	require.Equal(t, "void", ts.Background)
	require.Equal(t, "aurora", ts.Palette.Primary)
	require.Equal(t, trait.PaletteTierLegendary, ts.Palette.Tier)

	require.NoError(t, ts.Validate(cat))
}

// A roll landing exactly on a cumulative weight boundary belongs to the
// earlier variant (the walk stops at remainder <= 0).
func TestGenerateBoundaryRollIsInclusive(t *testing.T) {
	cat := trait.DefaultCatalog()
	// two equal-weight heads: 0.5 * total lands exactly on the edge of the
	// first entry and must still select it
	cat.Head = []trait.Variant{{Name: "edge", Weight: 1}, {Name: "after", Weight: 1}}

	gen, err := trait.NewGenerator(cat, &scriptedSource{vals: []float64{0.5, 0, 0, 0, 0, 0, 0, 0}})
	require.NoError(t, err)

	ts, err := gen.Generate()
	require.NoError(t, err)
	require.Equal(t, "edge", ts.Head)
}

func TestGenerateIsDeterministicForAScript(t *testing.T) {
	script := []float64{0.12, 0.55, 0.80, 0.33, 0.91, 0.05, 0.47, 0.62}

	gen1, err := trait.NewGenerator(trait.DefaultCatalog(), &scriptedSource{vals: script})
	require.NoError(t, err)
	gen2, err := trait.NewGenerator(trait.DefaultCatalog(), &scriptedSource{vals: script})
	require.NoError(t, err)

	a, err := gen1.Generate()
	require.NoError(t, err)
	b, err := gen2.Generate()
	require.NoError(t, err)

	require.Equal(t, a, b)
	require.Equal(t, trait.Hash(a), trait.Hash(b))
}

func TestGenerateEmptyCategoryFails(t *testing.T) {
	cat := trait.DefaultCatalog()
	cat.Mouth = nil

	gen, err := trait.NewGenerator(cat, &scriptedSource{vals: []float64{0}})
	require.NoError(t, err)

	_, err = gen.Generate()
	require.ErrorIs(t, err, trait.ErrEmptyCategory)
}

func TestValidateRejectsUnknownAndTamperedSets(t *testing.T) {
	cat := trait.DefaultCatalog()
	gen, err := trait.NewGenerator(cat, &scriptedSource{vals: []float64{0}})
	require.NoError(t, err)
	ts, err := gen.Generate()
	require.NoError(t, err)

	unknown := ts
	unknown.Eyes = "laser"
	require.ErrorIs(t, unknown.Validate(cat), trait.ErrUnknownVariant)

	empty := ts
	empty.Body = "  "
	require.ErrorIs(t, empty.Validate(cat), trait.ErrEmptyVariant)

	badPalette := ts
	badPalette.Palette.Primary = "plaid"
	require.ErrorIs(t, badPalette.Validate(cat), trait.ErrUnknownPalette)

	// tier label must travel with its palette
	tampered := ts
	tampered.Palette.Tier = trait.PaletteTierLegendary
	require.ErrorIs(t, tampered.Validate(cat), trait.ErrUnknownPalette)
}

func TestValidateIsCaseInsensitive(t *testing.T) {
	cat := trait.DefaultCatalog()
	ts := trait.TraitSet{
		Head:       "Round",
		Eyes:       "DOT",
		Mouth:      "Smile",
		Body:       "slim",
		Feet:       "Paws",
		Accessory:  "NONE",
		Background: "Meadow",
		Palette:    trait.Palette{Primary: "Moss", Accent: "Bark", Tier: "Common"},
	}
	require.NoError(t, ts.Validate(cat))
}

func TestDefaultCatalogWeightsSumTo100(t *testing.T) {
	cat := trait.DefaultCatalog()
	for _, c := range trait.Categories {
		require.Equalf(t, 100, cat.TotalWeight(c), "category %s", c)
	}
	require.Equal(t, 100, cat.PaletteTotalWeight())
}
