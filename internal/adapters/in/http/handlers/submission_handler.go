// internal/adapters/in/http/handlers/submission_handler.go
package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"critterforge/internal/application/mintflow"
	"critterforge/internal/domain/mintrecord"
	"critterforge/internal/domain/rarity"
	"critterforge/internal/domain/trait"
)

// SubmissionHandler records mints whose ledger legs already executed: the
// production flow signs client-side, so payment and asset issuance happen
// before the backend ever sees the attempt. The server re-validates the
// record (hash format, hash-vs-traits, score range, tier) and, when a
// verifier is wired, re-checks the payment on chain.
type SubmissionHandler struct {
	Registry mintrecord.Repository

	// Verifier re-checks the reported payment transaction. Nil skips the
	// re-check; StrictVerify decides whether a failed re-check blocks the
	// record or is only logged.
	Verifier      mintflow.PaymentVerifier
	StrictVerify  bool
	TokenDecimals int
}

func NewSubmissionHandler(registry mintrecord.Repository, verifier mintflow.PaymentVerifier, strict bool, decimals int) *SubmissionHandler {
	return &SubmissionHandler{
		Registry:      registry,
		Verifier:      verifier,
		StrictVerify:  strict,
		TokenDecimals: decimals,
	}
}

type submitRequest struct {
	TraitHash          string         `json:"traitHash"`
	Traits             trait.TraitSet `json:"traits"`
	OwnerAddress       string         `json:"ownerAddress"`
	MinterAddress      string         `json:"minterAddress"`
	AssetAddress       string         `json:"assetAddress"`
	MintTxSignature    string         `json:"mintTxSignature"`
	MetadataURI        string         `json:"metadataUri"`
	ImageURI           string         `json:"imageUri"`
	ImagePlaceholder   bool           `json:"imagePlaceholder"`
	PaymentTxSignature string         `json:"paymentTxSignature"`
	PaymentAmount      int            `json:"paymentAmount"`
	RarityScore        int            `json:"rarityScore"`
	RarityTier         string         `json:"rarityTier"`
}

type submitResponse struct {
	ID        string `json:"id"`
	TraitHash string `json:"traitHash"`
}

// Submit handles POST /mints/records.
func (h *SubmissionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed_body", err.Error())
		return
	}

	tier, err := rarity.ParseTier(req.RarityTier)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid_record", err.Error())
		return
	}

	rec, err := mintrecord.NewMintRecord(
		req.TraitHash, req.Traits,
		req.OwnerAddress, req.MinterAddress,
		req.AssetAddress, req.MintTxSignature,
		req.MetadataURI, req.ImageURI, req.ImagePlaceholder,
		req.PaymentTxSignature, req.PaymentAmount,
		req.RarityScore, tier,
		time.Now().UTC(),
	)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid_record", err.Error())
		return
	}

	if h.Verifier != nil {
		amount := uint64(rec.PaymentAmount)
		for i := 0; i < h.TokenDecimals; i++ {
			amount *= 10
		}
		v, verr := h.Verifier.Verify(r.Context(), rec.PaymentTxSignature, rec.MinterAddress, amount)
		if verr != nil || !v.Valid {
			reason := ""
			if verr != nil {
				reason = verr.Error()
			} else {
				reason = v.Reason
			}
			if h.StrictVerify {
				writeError(w, http.StatusUnprocessableEntity, "payment_rejected", reason)
				return
			}
			log.Printf("[submission] WARN payment re-check failed (advisory) hash=%s reason=%s", rec.TraitHash[:8], reason)
		}
	}

	saved, err := h.Registry.Create(r.Context(), rec)
	if err != nil {
		if errors.Is(err, mintrecord.ErrConflict) {
			writeError(w, http.StatusConflict, "already_minted", "a record with this trait hash already exists")
			return
		}
		writeError(w, http.StatusInternalServerError, "registry_error", err.Error())
		return
	}

	log.Printf("[submission] recorded hash=%s tier=%s id=%s", saved.TraitHash[:8], saved.RarityTier, saved.ID)
	writeJSON(w, http.StatusCreated, submitResponse{ID: saved.ID, TraitHash: saved.TraitHash})
}
