// internal/domain/rarity/scorer.go
package rarity

import (
	"fmt"
	"math"

	"critterforge/internal/domain/trait"
)

// ------------------------------------------------------
// Rarity scorer
// ------------------------------------------------------
//
// score = round(1000 * mean(rarity_1..rarity_7, rarity_palette, rarity_palette))
//
// Each of the seven simple categories contributes
// rarity_i = 1 - weight_i/total_i; the palette contributes the same quantity
// twice, biasing the average toward the tier-linked palette. A pure function
// of the catalog weights: rarer (lower-weight) selections strictly increase
// the score.

const scoreTerms = 9

// Score computes the [0,1000] rarity score of a TraitSet against the given
// catalog. Unknown variants are rejected.
func Score(cat *trait.Catalog, ts trait.TraitSet) (int, error) {
	if cat == nil {
		return 0, fmt.Errorf("rarity: catalog is nil")
	}

	sum := 0.0
	for _, c := range trait.Categories {
		w, ok := cat.VariantWeight(c, ts.Variant(c))
		if !ok {
			return 0, fmt.Errorf("%w: category %s value %q", trait.ErrUnknownVariant, c, ts.Variant(c))
		}
		total := cat.TotalWeight(c)
		if total <= 0 {
			return 0, fmt.Errorf("rarity: category %s has no weight", c)
		}
		sum += 1 - float64(w)/float64(total)
	}

	pv, ok := cat.PaletteByPrimary(ts.Palette.Primary)
	if !ok {
		return 0, fmt.Errorf("%w: primary %q", trait.ErrUnknownPalette, ts.Palette.Primary)
	}
	ptotal := cat.PaletteTotalWeight()
	if ptotal <= 0 {
		return 0, fmt.Errorf("rarity: palette table has no weight")
	}
	paletteRarity := 1 - float64(pv.Weight)/float64(ptotal)
	sum += 2 * paletteRarity

	score := int(math.Round(1000 * sum / scoreTerms))
	if score < 0 {
		score = 0
	}
	if score > 1000 {
		score = 1000
	}
	return score, nil
}
