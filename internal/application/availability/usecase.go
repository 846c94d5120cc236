// internal/application/availability/usecase.go
package availability

import (
	"context"
	"errors"
	"log"
	"strings"

	"critterforge/internal/domain/mintrecord"
	"critterforge/internal/domain/rarity"
	"critterforge/internal/domain/trait"
)

// ------------------------------------------------------
// Availability Oracle
// ------------------------------------------------------
//
// Fast pre-check against persisted mints plus current tier pricing. A "yes"
// here is advisory only: the registry's unique constraint decides the race
// at persist time.

var ErrMalformedHash = errors.New("availability: malformed trait hash")

type Result struct {
	Available    bool        `json:"available"`
	ExistingTier rarity.Tier `json:"rarityTier,omitempty"`
}

type Usecase struct {
	repo   mintrecord.Repository
	prices rarity.PriceTable
}

func NewUsecase(repo mintrecord.Repository, prices rarity.PriceTable) *Usecase {
	return &Usecase{repo: repo, prices: prices}
}

// Check reports whether a trait hash is still mintable. When a record
// already exists, the result carries its tier.
func (u *Usecase) Check(ctx context.Context, traitHash string) (Result, error) {
	h := strings.ToLower(strings.TrimSpace(traitHash))
	if !trait.IsCanonicalHash(h) {
		return Result{}, ErrMalformedHash
	}

	rec, err := u.repo.GetByTraitHash(ctx, h)
	if err != nil {
		if errors.Is(err, mintrecord.ErrNotFound) {
			return Result{Available: true}, nil
		}
		return Result{}, err
	}

	log.Printf("[availability] hash already minted hash=%s tier=%s", h[:8], rec.RarityTier)
	return Result{Available: false, ExistingTier: rec.RarityTier}, nil
}

// PriceFor resolves the current whole-token price for a tier.
func (u *Usecase) PriceFor(tier rarity.Tier) int {
	return u.prices.PriceFor(tier)
}
