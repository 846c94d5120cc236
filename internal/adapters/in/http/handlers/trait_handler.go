// internal/adapters/in/http/handlers/trait_handler.go
package handlers

import (
	"net/http"

	"critterforge/internal/application/availability"
	"critterforge/internal/domain/rarity"
	"critterforge/internal/domain/trait"
)

// TraitHandler rolls candidate trait sets for the frontend preview flow.
type TraitHandler struct {
	Generator *trait.Generator
	Catalog   *trait.Catalog
	UC        *availability.Usecase
}

func NewTraitHandler(gen *trait.Generator, catalog *trait.Catalog, uc *availability.Usecase) *TraitHandler {
	return &TraitHandler{Generator: gen, Catalog: catalog, UC: uc}
}

type rollResponse struct {
	Traits    trait.TraitSet `json:"traits"`
	TraitHash string         `json:"traitHash"`
	Score     int            `json:"rarityScore"`
	Tier      rarity.Tier    `json:"rarityTier"`
	Price     int            `json:"price"`
	Available bool           `json:"available"`
}

// Roll handles POST /traits/roll: draw a weighted trait set and report its
// hash, rarity and current availability in one round trip.
func (h *TraitHandler) Roll(w http.ResponseWriter, r *http.Request) {
	ts, err := h.Generator.Generate()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "generate_error", err.Error())
		return
	}

	hash := trait.Hash(ts)
	score, err := rarity.Score(h.Catalog, ts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "score_error", err.Error())
		return
	}
	tier := rarity.TierForScore(score)

	avail, err := h.UC.Check(r.Context(), hash)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "registry_error", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, rollResponse{
		Traits:    ts,
		TraitHash: hash,
		Score:     score,
		Tier:      tier,
		Price:     h.UC.PriceFor(tier),
		Available: avail.Available,
	})
}
