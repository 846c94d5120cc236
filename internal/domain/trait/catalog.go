// internal/domain/trait/catalog.go
package trait

import "strings"

// ------------------------------------------------------
// Catalog: weighted variant tables per category
// ------------------------------------------------------
//
// The catalog is injected into the generator and the rarity scorer instead of
// living as module-level globals, so tests can substitute their own tables.

// Variant is one (name, weight) entry of a category table.
type Variant struct {
	Name   string
	Weight int
}

// PaletteVariant is the linked (primary, accent, tier, weight) tuple, so the
// rarity tier correlates with a specific color palette.
type PaletteVariant struct {
	Primary string
	Accent  string
	Tier    string
	Weight  int
}

type Catalog struct {
	Head       []Variant
	Eyes       []Variant
	Mouth      []Variant
	Body       []Variant
	Feet       []Variant
	Accessory  []Variant
	Background []Variant
	Palettes   []PaletteVariant
}

// Variants returns the variant table for a simple category.
func (c *Catalog) Variants(cat Category) []Variant {
	switch cat {
	case CategoryHead:
		return c.Head
	case CategoryEyes:
		return c.Eyes
	case CategoryMouth:
		return c.Mouth
	case CategoryBody:
		return c.Body
	case CategoryFeet:
		return c.Feet
	case CategoryAccessory:
		return c.Accessory
	case CategoryBackground:
		return c.Background
	default:
		return nil
	}
}

// TotalWeight sums the weights of a simple category table.
func (c *Catalog) TotalWeight(cat Category) int {
	total := 0
	for _, v := range c.Variants(cat) {
		total += v.Weight
	}
	return total
}

// PaletteTotalWeight sums the palette tuple weights.
func (c *Catalog) PaletteTotalWeight() int {
	total := 0
	for _, p := range c.Palettes {
		total += p.Weight
	}
	return total
}

// VariantWeight looks up a variant by name (case-insensitive) and returns its
// weight. The second return is false when the variant is not in the table.
func (c *Catalog) VariantWeight(cat Category, name string) (int, bool) {
	name = strings.TrimSpace(name)
	for _, v := range c.Variants(cat) {
		if strings.EqualFold(v.Name, name) {
			return v.Weight, true
		}
	}
	return 0, false
}

// PaletteByPrimary looks up a palette tuple by its primary color
// (case-insensitive).
func (c *Catalog) PaletteByPrimary(primary string) (PaletteVariant, bool) {
	primary = strings.TrimSpace(primary)
	for _, p := range c.Palettes {
		if strings.EqualFold(p.Primary, primary) {
			return p, true
		}
	}
	return PaletteVariant{}, false
}

// Tier labels carried by palette tuples. The rarity package maps scores to
// the same labels via thresholds.
const (
	PaletteTierCommon    = "common"
	PaletteTierUncommon  = "uncommon"
	PaletteTierRare      = "rare"
	PaletteTierEpic      = "epic"
	PaletteTierLegendary = "legendary"
)

// DefaultCatalog returns the production trait tables. Every category sums to
// 100 so weights read as percentages.
func DefaultCatalog() *Catalog {
	return &Catalog{
		Head: []Variant{
			{Name: "round", Weight: 30},
			{Name: "square", Weight: 24},
			{Name: "wedge", Weight: 18},
			{Name: "tufted", Weight: 15},
			{Name: "crowned", Weight: 9},
			{Name: "prismatic", Weight: 4},
		},
		Eyes: []Variant{
			{Name: "dot", Weight: 32},
			{Name: "wide", Weight: 26},
			{Name: "sleepy", Weight: 18},
			{Name: "spiral", Weight: 14},
			{Name: "gemstone", Weight: 10},
		},
		Mouth: []Variant{
			{Name: "smile", Weight: 34},
			{Name: "flat", Weight: 26},
			{Name: "fangs", Weight: 20},
			{Name: "whistle", Weight: 12},
			{Name: "ember", Weight: 8},
		},
		Body: []Variant{
			{Name: "slim", Weight: 30},
			{Name: "stout", Weight: 26},
			{Name: "fuzzy", Weight: 22},
			{Name: "armored", Weight: 14},
			{Name: "translucent", Weight: 8},
		},
		Feet: []Variant{
			{Name: "paws", Weight: 36},
			{Name: "hooves", Weight: 24},
			{Name: "talons", Weight: 20},
			{Name: "springs", Weight: 12},
			{Name: "rollers", Weight: 8},
		},
		Accessory: []Variant{
			{Name: "none", Weight: 40},
			{Name: "scarf", Weight: 22},
			{Name: "satchel", Weight: 16},
			{Name: "monocle", Weight: 12},
			{Name: "halo", Weight: 10},
		},
		Background: []Variant{
			{Name: "meadow", Weight: 30},
			{Name: "dune", Weight: 24},
			{Name: "reef", Weight: 20},
			{Name: "summit", Weight: 16},
			{Name: "void", Weight: 10},
		},
		Palettes: []PaletteVariant{
			{Primary: "moss", Accent: "bark", Tier: PaletteTierCommon, Weight: 40},
			{Primary: "tide", Accent: "foam", Tier: PaletteTierUncommon, Weight: 25},
			{Primary: "ember", Accent: "ash", Tier: PaletteTierRare, Weight: 17},
			{Primary: "dusk", Accent: "neon", Tier: PaletteTierEpic, Weight: 12},
			{Primary: "aurora", Accent: "gilt", Tier: PaletteTierLegendary, Weight: 6},
		},
	}
}
