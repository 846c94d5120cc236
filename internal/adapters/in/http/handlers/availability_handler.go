// internal/adapters/in/http/handlers/availability_handler.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"critterforge/internal/application/availability"
	"critterforge/internal/domain/rarity"
)

// AvailabilityHandler serves the pre-mint availability check and the tier
// price lookup.
type AvailabilityHandler struct {
	UC *availability.Usecase
}

func NewAvailabilityHandler(uc *availability.Usecase) *AvailabilityHandler {
	return &AvailabilityHandler{UC: uc}
}

// Check handles GET /mints/availability/{hash}.
func (h *AvailabilityHandler) Check(w http.ResponseWriter, r *http.Request) {
	hash := chi.URLParam(r, "hash")

	res, err := h.UC.Check(r.Context(), hash)
	if err != nil {
		if errors.Is(err, availability.ErrMalformedHash) {
			writeError(w, http.StatusBadRequest, "malformed_hash", "trait hash must be 64 lowercase hex characters")
			return
		}
		writeError(w, http.StatusInternalServerError, "registry_error", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// Price handles GET /pricing/{tier}.
func (h *AvailabilityHandler) Price(w http.ResponseWriter, r *http.Request) {
	tier, err := rarity.ParseTier(chi.URLParam(r, "tier"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown_tier", "tier must be one of common/uncommon/rare/epic/legendary")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"tier":  tier,
		"price": h.UC.PriceFor(tier),
	})
}
