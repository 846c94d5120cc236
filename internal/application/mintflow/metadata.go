// internal/application/mintflow/metadata.go
package mintflow

import (
	"encoding/json"
	"fmt"
	"strings"

	"critterforge/internal/domain/rarity"
	"critterforge/internal/domain/trait"
)

// MetadataBuilder produces the asset metadata JSON that gets uploaded to
// content storage and referenced by the issued ledger asset.
type MetadataBuilder struct{}

func NewMetadataBuilder() *MetadataBuilder {
	return &MetadataBuilder{}
}

type metadataAttribute struct {
	TraitType string `json:"trait_type"`
	Value     any    `json:"value"`
}

// Build renders the metadata document for one collectible. imageURI must be
// the already-uploaded (or placeholder) image location.
func (b *MetadataBuilder) Build(
	name, symbol string,
	ts trait.TraitSet,
	traitHash string,
	score int,
	tier rarity.Tier,
	imageURI string,
) ([]byte, error) {
	name = strings.TrimSpace(name)
	symbol = strings.TrimSpace(symbol)
	if name == "" || symbol == "" {
		return nil, fmt.Errorf("mintflow: metadata name or symbol is empty")
	}

	attrs := make([]metadataAttribute, 0, len(trait.Categories)+4)
	for _, c := range trait.Categories {
		attrs = append(attrs, metadataAttribute{TraitType: string(c), Value: ts.Variant(c)})
	}
	attrs = append(attrs,
		metadataAttribute{TraitType: "palette", Value: ts.Palette.Primary},
		metadataAttribute{TraitType: "palette_accent", Value: ts.Palette.Accent},
		metadataAttribute{TraitType: "rarity_score", Value: score},
		metadataAttribute{TraitType: "rarity_tier", Value: string(tier)},
	)

	metadata := map[string]any{
		"name":        name,
		"symbol":      symbol,
		"description": "A procedurally generated critter. Each trait combination exists exactly once.",
		"image":       imageURI,
		"attributes":  attrs,
		"properties": map[string]any{
			"traitHash": traitHash,
			"category":  "image",
		},
	}
	return json.Marshal(metadata)
}
