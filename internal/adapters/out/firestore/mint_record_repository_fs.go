// internal/adapters/out/firestore/mint_record_repository_fs.go
package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	cfs "cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"critterforge/internal/domain/mintrecord"
	"critterforge/internal/domain/rarity"
	"critterforge/internal/domain/trait"
)

const mintRecordCollection = "mint_records"

// mintRecordDoc is the Firestore shape of a mint record. The document ID is
// the trait hash, so uniqueness falls out of Create semantics.
type mintRecordDoc struct {
	ID                 string         `firestore:"id"`
	TraitHash          string         `firestore:"traitHash"`
	Traits             map[string]any `firestore:"traits"`
	OwnerAddress       string         `firestore:"ownerAddress"`
	MinterAddress      string         `firestore:"minterAddress"`
	AssetAddress       string         `firestore:"assetAddress"`
	MintTxSignature    string         `firestore:"mintTxSignature"`
	MetadataURI        string         `firestore:"metadataUri"`
	ImageURI           string         `firestore:"imageUri"`
	ImagePlaceholder   bool           `firestore:"imagePlaceholder"`
	PaymentTxSignature string         `firestore:"paymentTxSignature"`
	PaymentAmount      int            `firestore:"paymentAmount"`
	RarityScore        int            `firestore:"rarityScore"`
	RarityTier         string         `firestore:"rarityTier"`
	CreatedAt          time.Time      `firestore:"createdAt"`
}

// MintRecordRepositoryFS implements mintrecord.Repository on Cloud Firestore.
type MintRecordRepositoryFS struct {
	Client *cfs.Client
}

func NewMintRecordRepositoryFS(client *cfs.Client) *MintRecordRepositoryFS {
	return &MintRecordRepositoryFS{Client: client}
}

func (r *MintRecordRepositoryFS) Create(ctx context.Context, m mintrecord.MintRecord) (mintrecord.MintRecord, error) {
	if r.Client == nil {
		return mintrecord.MintRecord{}, errors.New("mint_record_repository_fs: client is nil")
	}

	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	if err := m.Validate(); err != nil {
		return mintrecord.MintRecord{}, err
	}

	doc := toDoc(m)
	// Create (not Set) so a concurrent writer of the same hash loses with
	// AlreadyExists instead of silently overwriting.
	_, err := r.Client.Collection(mintRecordCollection).Doc(m.TraitHash).Create(ctx, doc)
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return mintrecord.MintRecord{}, mintrecord.ErrConflict
		}
		return mintrecord.MintRecord{}, fmt.Errorf("mint_record_repository_fs: create: %w", err)
	}

	return m, nil
}

func (r *MintRecordRepositoryFS) GetByTraitHash(ctx context.Context, traitHash string) (mintrecord.MintRecord, error) {
	if r.Client == nil {
		return mintrecord.MintRecord{}, errors.New("mint_record_repository_fs: client is nil")
	}

	hash := strings.ToLower(strings.TrimSpace(traitHash))
	snap, err := r.Client.Collection(mintRecordCollection).Doc(hash).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return mintrecord.MintRecord{}, mintrecord.ErrNotFound
		}
		return mintrecord.MintRecord{}, fmt.Errorf("mint_record_repository_fs: get: %w", err)
	}

	var doc mintRecordDoc
	if err := snap.DataTo(&doc); err != nil {
		return mintrecord.MintRecord{}, fmt.Errorf("mint_record_repository_fs: decode: %w", err)
	}

	return fromDoc(doc), nil
}

func toDoc(m mintrecord.MintRecord) mintRecordDoc {
	traits := map[string]any{
		"head":           m.Traits.Head,
		"eyes":           m.Traits.Eyes,
		"mouth":          m.Traits.Mouth,
		"body":           m.Traits.Body,
		"feet":           m.Traits.Feet,
		"accessory":      m.Traits.Accessory,
		"background":     m.Traits.Background,
		"palettePrimary": m.Traits.Palette.Primary,
		"paletteAccent":  m.Traits.Palette.Accent,
		"paletteTier":    m.Traits.Palette.Tier,
	}
	return mintRecordDoc{
		ID:                 m.ID,
		TraitHash:          m.TraitHash,
		Traits:             traits,
		OwnerAddress:       m.OwnerAddress,
		MinterAddress:      m.MinterAddress,
		AssetAddress:       m.AssetAddress,
		MintTxSignature:    m.MintTxSignature,
		MetadataURI:        m.MetadataURI,
		ImageURI:           m.ImageURI,
		ImagePlaceholder:   m.ImagePlaceholder,
		PaymentTxSignature: m.PaymentTxSignature,
		PaymentAmount:      m.PaymentAmount,
		RarityScore:        m.RarityScore,
		RarityTier:         string(m.RarityTier),
		CreatedAt:          m.CreatedAt,
	}
}

func fromDoc(d mintRecordDoc) mintrecord.MintRecord {
	str := func(key string) string {
		v, _ := d.Traits[key].(string)
		return v
	}
	return mintrecord.MintRecord{
		ID:        d.ID,
		TraitHash: d.TraitHash,
		Traits: trait.TraitSet{
			Head:       str("head"),
			Eyes:       str("eyes"),
			Mouth:      str("mouth"),
			Body:       str("body"),
			Feet:       str("feet"),
			Accessory:  str("accessory"),
			Background: str("background"),
			Palette: trait.Palette{
				Primary: str("palettePrimary"),
				Accent:  str("paletteAccent"),
				Tier:    str("paletteTier"),
			},
		},
		OwnerAddress:       d.OwnerAddress,
		MinterAddress:      d.MinterAddress,
		AssetAddress:       d.AssetAddress,
		MintTxSignature:    d.MintTxSignature,
		MetadataURI:        d.MetadataURI,
		ImageURI:           d.ImageURI,
		ImagePlaceholder:   d.ImagePlaceholder,
		PaymentTxSignature: d.PaymentTxSignature,
		PaymentAmount:      d.PaymentAmount,
		RarityScore:        d.RarityScore,
		RarityTier:         rarity.Tier(d.RarityTier),
		CreatedAt:          d.CreatedAt.UTC(),
	}
}
