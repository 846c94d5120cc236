// internal/domain/trait/generator.go
package trait

import "errors"

// ------------------------------------------------------
// Generator: weighted random draw over the catalog
// ------------------------------------------------------
//
// Each category is drawn independently; there is no cross-category
// correlation. The random source is injected so tests can script exact
// selections (no hidden global RNG).

// RandSource yields uniform values in [0, 1). *math/rand.Rand satisfies it.
type RandSource interface {
	Float64() float64
}

var (
	ErrNilCatalog    = errors.New("trait: generator catalog is nil")
	ErrNilRandSource = errors.New("trait: generator rand source is nil")
	ErrEmptyCategory = errors.New("trait: category table is empty")
)

type Generator struct {
	catalog *Catalog
	rng     RandSource
}

func NewGenerator(catalog *Catalog, rng RandSource) (*Generator, error) {
	if catalog == nil {
		return nil, ErrNilCatalog
	}
	if rng == nil {
		return nil, ErrNilRandSource
	}
	return &Generator{catalog: catalog, rng: rng}, nil
}

// Generate draws one TraitSet. Draw order is fixed (the seven simple
// categories in canonical order, then the palette) so a scripted random
// source maps one value to one category.
func (g *Generator) Generate() (TraitSet, error) {
	var ts TraitSet
	for _, c := range Categories {
		name, err := g.drawVariant(c)
		if err != nil {
			return TraitSet{}, err
		}
		switch c {
		case CategoryHead:
			ts.Head = name
		case CategoryEyes:
			ts.Eyes = name
		case CategoryMouth:
			ts.Mouth = name
		case CategoryBody:
			ts.Body = name
		case CategoryFeet:
			ts.Feet = name
		case CategoryAccessory:
			ts.Accessory = name
		case CategoryBackground:
			ts.Background = name
		}
	}

	pv, err := g.drawPalette()
	if err != nil {
		return TraitSet{}, err
	}
	ts.Palette = Palette{Primary: pv.Primary, Accent: pv.Accent, Tier: pv.Tier}
	return ts, nil
}

// drawVariant picks a uniform point in [0, total) and walks the table
// subtracting weights until the remainder crosses zero.
func (g *Generator) drawVariant(cat Category) (string, error) {
	table := g.catalog.Variants(cat)
	if len(table) == 0 {
		return "", ErrEmptyCategory
	}
	total := g.catalog.TotalWeight(cat)

	r := g.rng.Float64() * float64(total)
	for _, v := range table {
		r -= float64(v.Weight)
		if r <= 0 {
			return v.Name, nil
		}
	}
	// Floating-point rounding can exhaust the table; fall back to the last
	// variant.
	return table[len(table)-1].Name, nil
}

func (g *Generator) drawPalette() (PaletteVariant, error) {
	if len(g.catalog.Palettes) == 0 {
		return PaletteVariant{}, ErrEmptyCategory
	}
	total := g.catalog.PaletteTotalWeight()

	r := g.rng.Float64() * float64(total)
	for _, p := range g.catalog.Palettes {
		r -= float64(p.Weight)
		if r <= 0 {
			return p, nil
		}
	}
	return g.catalog.Palettes[len(g.catalog.Palettes)-1], nil
}
