// internal/adapters/in/http/handlers/mint_handler.go
package handlers

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"critterforge/internal/application/mintflow"
	"critterforge/internal/domain/mintrecord"
	"critterforge/internal/domain/trait"
)

// WorkflowFactory builds a fresh single-use workflow per mint request.
type WorkflowFactory func() (*mintflow.Workflow, error)

// MintHandler drives the mint workflow over HTTP and serves recorded mints.
type MintHandler struct {
	Catalog  *trait.Catalog
	Registry mintrecord.Repository
	NewFlow  WorkflowFactory
}

func NewMintHandler(catalog *trait.Catalog, registry mintrecord.Repository, factory WorkflowFactory) *MintHandler {
	return &MintHandler{Catalog: catalog, Registry: registry, NewFlow: factory}
}

type mintRequest struct {
	Traits        trait.TraitSet `json:"traits"`
	OwnerAddress  string         `json:"ownerAddress"`
	MinterAddress string         `json:"minterAddress"`
	ImageBase64   string         `json:"imageBase64,omitempty"`
	BuyerEmail    string         `json:"buyerEmail,omitempty"`
}

type mintResponse struct {
	Outcome          mintflow.Outcome       `json:"outcome"`
	FailedStage      mintflow.Stage         `json:"failedStage,omitempty"`
	Error            string                 `json:"error,omitempty"`
	ExistingTier     string                 `json:"existingTier,omitempty"`
	RegistryConflict bool                   `json:"registryConflict,omitempty"`
	Record           *mintrecord.MintRecord `json:"record,omitempty"`
	Artifacts        mintflow.Artifacts     `json:"artifacts"`
}

// Create handles POST /mints: one full mint attempt, driven synchronously.
func (h *MintHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req mintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed_body", err.Error())
		return
	}

	// Reject unknown variants before any collaborator is touched.
	if err := req.Traits.Validate(h.Catalog); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid_traits", err.Error())
		return
	}
	if strings.TrimSpace(req.OwnerAddress) == "" || strings.TrimSpace(req.MinterAddress) == "" {
		writeError(w, http.StatusUnprocessableEntity, "missing_address", "ownerAddress and minterAddress are required")
		return
	}

	var image []byte
	if s := strings.TrimSpace(req.ImageBase64); s != "" {
		b, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "malformed_image", "imageBase64 is not valid base64")
			return
		}
		image = b
	}

	flow, err := h.NewFlow()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "workflow_init", err.Error())
		return
	}

	res, err := flow.Run(r.Context(), mintflow.MintInput{
		Traits:        req.Traits,
		OwnerAddress:  req.OwnerAddress,
		MinterAddress: req.MinterAddress,
		Image:         image,
		BuyerEmail:    req.BuyerEmail,
	})
	if err != nil && res.Outcome == "" {
		writeError(w, http.StatusInternalServerError, "workflow_error", err.Error())
		return
	}

	body := mintResponse{
		Outcome:          res.Outcome,
		FailedStage:      res.FailedStage,
		Error:            res.Err,
		ExistingTier:     string(res.ExistingTier),
		RegistryConflict: res.RegistryConflict,
		Artifacts:        res.Artifacts,
	}

	switch res.Outcome {
	case mintflow.OutcomeSuccess:
		if res.Record.ID != "" || res.Record.TraitHash != "" {
			rec := res.Record
			body.Record = &rec
		}
		if res.RegistryConflict {
			log.Printf("[mint] registry conflict after ledger success hash=%s", res.Artifacts.TraitHash)
		}
		writeJSON(w, http.StatusCreated, body)
	case mintflow.OutcomeUnavailable:
		writeJSON(w, http.StatusConflict, body)
	default:
		writeJSON(w, http.StatusInternalServerError, body)
	}
}

// Get handles GET /mints/{hash}: a recorded mint looked up by trait hash.
func (h *MintHandler) Get(w http.ResponseWriter, r *http.Request) {
	hash := strings.ToLower(strings.TrimSpace(chi.URLParam(r, "hash")))
	if !trait.IsCanonicalHash(hash) {
		writeError(w, http.StatusBadRequest, "malformed_hash", "trait hash must be 64 lowercase hex characters")
		return
	}

	rec, err := h.Registry.GetByTraitHash(r.Context(), hash)
	if err != nil {
		if errors.Is(err, mintrecord.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "no mint recorded for this trait hash")
			return
		}
		writeError(w, http.StatusInternalServerError, "registry_error", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, rec)
}
