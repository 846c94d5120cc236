// internal/domain/mintrecord/entity.go
package mintrecord

import (
	"errors"
	"strings"
	"time"

	"critterforge/internal/domain/rarity"
	"critterforge/internal/domain/trait"
)

// ------------------------------------------------------
// Entity: MintRecord (mint_records table, 1 row per completed mint)
// ------------------------------------------------------
//
// Keyed by the canonical trait hash; at most one record per hash, enforced
// at the storage layer by a unique constraint. The record is the durable
// source of truth for what was minted, by whom, and what was paid.

type MintRecord struct {
	ID        string         `json:"id"`
	TraitHash string         `json:"traitHash"`
	Traits    trait.TraitSet `json:"traits"`

	OwnerAddress  string `json:"ownerAddress"`
	MinterAddress string `json:"minterAddress"`

	// Ledger artifacts
	AssetAddress    string `json:"assetAddress"`
	MintTxSignature string `json:"mintTxSignature"`

	// Content artifacts
	MetadataURI      string `json:"metadataUri"`
	ImageURI         string `json:"imageUri"`
	ImagePlaceholder bool   `json:"imagePlaceholder"`

	// Payment
	PaymentTxSignature string `json:"paymentTxSignature"`
	PaymentAmount      int    `json:"paymentAmount"` // whole FORGE units

	RarityScore int         `json:"rarityScore"`
	RarityTier  rarity.Tier `json:"rarityTier"`

	CreatedAt time.Time `json:"createdAt"`
}

// ------------------------------------------------------
// Errors
// ------------------------------------------------------

var (
	ErrInvalidTraitHash = errors.New("mintrecord: invalid traitHash")
	ErrInvalidOwner     = errors.New("mintrecord: invalid ownerAddress")
	ErrInvalidMinter    = errors.New("mintrecord: invalid minterAddress")
	ErrInvalidAsset     = errors.New("mintrecord: invalid assetAddress")
	ErrInvalidScore     = errors.New("mintrecord: rarityScore out of range")
	ErrInvalidTier      = errors.New("mintrecord: invalid rarityTier")
	ErrInvalidAmount    = errors.New("mintrecord: invalid paymentAmount")
	ErrInvalidCreatedAt = errors.New("mintrecord: invalid createdAt")
	ErrNotFound         = errors.New("mintrecord: not found")
	ErrConflict         = errors.New("mintrecord: trait hash already minted")
)

// ------------------------------------------------------
// Constructor
// ------------------------------------------------------

// NewMintRecord normalizes and validates a record before persistence.
// ID may be empty; the repository assigns one on create.
func NewMintRecord(
	traitHash string,
	traits trait.TraitSet,
	ownerAddress string,
	minterAddress string,
	assetAddress string,
	mintTxSignature string,
	metadataURI string,
	imageURI string,
	imagePlaceholder bool,
	paymentTxSignature string,
	paymentAmount int,
	rarityScore int,
	rarityTier rarity.Tier,
	createdAt time.Time,
) (MintRecord, error) {
	r := MintRecord{
		TraitHash:          strings.ToLower(strings.TrimSpace(traitHash)),
		Traits:             traits,
		OwnerAddress:       strings.TrimSpace(ownerAddress),
		MinterAddress:      strings.TrimSpace(minterAddress),
		AssetAddress:       strings.TrimSpace(assetAddress),
		MintTxSignature:    strings.TrimSpace(mintTxSignature),
		MetadataURI:        strings.TrimSpace(metadataURI),
		ImageURI:           strings.TrimSpace(imageURI),
		ImagePlaceholder:   imagePlaceholder,
		PaymentTxSignature: strings.TrimSpace(paymentTxSignature),
		PaymentAmount:      paymentAmount,
		RarityScore:        rarityScore,
		RarityTier:         rarityTier,
		CreatedAt:          createdAt.UTC(),
	}
	if err := r.Validate(); err != nil {
		return MintRecord{}, err
	}
	return r, nil
}

// Validate checks the record's consistency. The trait hash must be the
// canonical 64-character lowercase hex form, and it must actually match the
// carried TraitSet.
func (r MintRecord) Validate() error {
	if !trait.IsCanonicalHash(r.TraitHash) {
		return ErrInvalidTraitHash
	}
	if trait.Hash(r.Traits) != r.TraitHash {
		return ErrInvalidTraitHash
	}
	if r.OwnerAddress == "" {
		return ErrInvalidOwner
	}
	if r.MinterAddress == "" {
		return ErrInvalidMinter
	}
	if r.AssetAddress == "" {
		return ErrInvalidAsset
	}
	if r.RarityScore < 0 || r.RarityScore > 1000 {
		return ErrInvalidScore
	}
	if _, err := rarity.ParseTier(string(r.RarityTier)); err != nil {
		return ErrInvalidTier
	}
	if r.PaymentAmount < 0 {
		return ErrInvalidAmount
	}
	if r.CreatedAt.IsZero() {
		return ErrInvalidCreatedAt
	}
	return nil
}
