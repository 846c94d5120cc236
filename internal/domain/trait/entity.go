// internal/domain/trait/entity.go
package trait

import (
	"errors"
	"fmt"
	"strings"
)

// ------------------------------------------------------
// Entity: TraitSet (one generated critter appearance)
// ------------------------------------------------------
//
// A TraitSet is the fixed collection of categorical visual attributes
// describing one collectible. It is immutable once generated; the
// canonical hash derived from it (hash.go) is the global dedup key.

// Category identifies one of the eight independent trait categories.
type Category string

const (
	CategoryHead       Category = "head"
	CategoryEyes       Category = "eyes"
	CategoryMouth      Category = "mouth"
	CategoryBody       Category = "body"
	CategoryFeet       Category = "feet"
	CategoryAccessory  Category = "accessory"
	CategoryBackground Category = "background"
	CategoryPalette    Category = "palette"
)

// Categories lists the seven simple categories in canonical order.
// The palette is handled separately because it is a linked tuple.
var Categories = []Category{
	CategoryHead,
	CategoryEyes,
	CategoryMouth,
	CategoryBody,
	CategoryFeet,
	CategoryAccessory,
	CategoryBackground,
}

// Palette is the linked (primary, accent, tier) color tuple. Accent may be
// empty when the palette has no secondary color.
type Palette struct {
	Primary string `json:"primary"`
	Accent  string `json:"accent"`
	Tier    string `json:"tier"`
}

type TraitSet struct {
	Head       string  `json:"head"`
	Eyes       string  `json:"eyes"`
	Mouth      string  `json:"mouth"`
	Body       string  `json:"body"`
	Feet       string  `json:"feet"`
	Accessory  string  `json:"accessory"`
	Background string  `json:"background"`
	Palette    Palette `json:"palette"`
}

// ------------------------------------------------------
// Errors
// ------------------------------------------------------

var (
	ErrUnknownVariant = errors.New("trait: unknown variant")
	ErrUnknownPalette = errors.New("trait: unknown palette")
	ErrEmptyVariant   = errors.New("trait: empty variant")
)

// ------------------------------------------------------
// Accessors / validation
// ------------------------------------------------------

// Variant returns the selected variant name for a simple category.
func (t TraitSet) Variant(cat Category) string {
	switch cat {
	case CategoryHead:
		return t.Head
	case CategoryEyes:
		return t.Eyes
	case CategoryMouth:
		return t.Mouth
	case CategoryBody:
		return t.Body
	case CategoryFeet:
		return t.Feet
	case CategoryAccessory:
		return t.Accessory
	case CategoryBackground:
		return t.Background
	default:
		return ""
	}
}

// Validate checks every field against the catalog's closed variant unions.
// Unknown variants are rejected rather than silently defaulted; matching is
// case-insensitive because the canonical form lower-cases everything anyway.
func (t TraitSet) Validate(cat *Catalog) error {
	if cat == nil {
		return errors.New("trait: catalog is nil")
	}
	for _, c := range Categories {
		v := strings.TrimSpace(t.Variant(c))
		if v == "" {
			return fmt.Errorf("%w: category %s", ErrEmptyVariant, c)
		}
		if _, ok := cat.VariantWeight(c, v); !ok {
			return fmt.Errorf("%w: category %s value %q", ErrUnknownVariant, c, v)
		}
	}
	pv, ok := cat.PaletteByPrimary(t.Palette.Primary)
	if !ok {
		return fmt.Errorf("%w: primary %q", ErrUnknownPalette, t.Palette.Primary)
	}
	// The tier label travels with the palette; a mismatch means the set was
	// assembled by hand rather than drawn from the catalog.
	if !strings.EqualFold(strings.TrimSpace(t.Palette.Tier), pv.Tier) {
		return fmt.Errorf("%w: primary %q carries tier %q, want %q",
			ErrUnknownPalette, t.Palette.Primary, t.Palette.Tier, pv.Tier)
	}
	return nil
}
