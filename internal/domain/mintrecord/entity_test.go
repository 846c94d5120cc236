// internal/domain/mintrecord/entity_test.go
package mintrecord_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"critterforge/internal/domain/mintrecord"
	"critterforge/internal/domain/rarity"
	"critterforge/internal/domain/trait"
)

func validTraits() trait.TraitSet {
	return trait.TraitSet{
		Head:       "round",
		Eyes:       "dot",
		Mouth:      "smile",
		Body:       "slim",
		Feet:       "paws",
		Accessory:  "none",
		Background: "meadow",
		Palette:    trait.Palette{Primary: "moss", Accent: "bark", Tier: "common"},
	}
}

func newValidRecord(t *testing.T) mintrecord.MintRecord {
	t.Helper()
	ts := validTraits()
	rec, err := mintrecord.NewMintRecord(
		trait.Hash(ts), ts,
		"OwnerAddr111", "MinterAddr222",
		"AssetAddr333", "mintsig",
		"ar://metadata", "ar://image", false,
		"paysig", 5000, 653, rarity.TierRare,
		time.Now(),
	)
	require.NoError(t, err)
	return rec
}

func TestNewMintRecordNormalizes(t *testing.T) {
	ts := validTraits()
	rec, err := mintrecord.NewMintRecord(
		"  "+trait.Hash(ts)+"  ", ts,
		"  OwnerAddr111 ", " MinterAddr222",
		" AssetAddr333 ", " mintsig ",
		" ar://metadata ", " ar://image ", false,
		" paysig ", 5000, 653, rarity.TierRare,
		time.Now(),
	)
	require.NoError(t, err)
	require.Equal(t, trait.Hash(ts), rec.TraitHash)
	require.Equal(t, "OwnerAddr111", rec.OwnerAddress)
	require.Equal(t, "AssetAddr333", rec.AssetAddress)
	require.Equal(t, time.UTC, rec.CreatedAt.Location())
}

func TestValidateRejectsHashMismatch(t *testing.T) {
	rec := newValidRecord(t)
	rec.Traits.Head = "square" // no longer matches the stored hash
	require.ErrorIs(t, rec.Validate(), mintrecord.ErrInvalidTraitHash)
}

func TestValidateRejectsMalformedHash(t *testing.T) {
	rec := newValidRecord(t)
	rec.TraitHash = "not-a-hash"
	require.ErrorIs(t, rec.Validate(), mintrecord.ErrInvalidTraitHash)
}

func TestValidateFieldChecks(t *testing.T) {
	rec := newValidRecord(t)
	rec.OwnerAddress = ""
	require.ErrorIs(t, rec.Validate(), mintrecord.ErrInvalidOwner)

	rec = newValidRecord(t)
	rec.MinterAddress = ""
	require.ErrorIs(t, rec.Validate(), mintrecord.ErrInvalidMinter)

	rec = newValidRecord(t)
	rec.AssetAddress = ""
	require.ErrorIs(t, rec.Validate(), mintrecord.ErrInvalidAsset)

	rec = newValidRecord(t)
	rec.RarityScore = 1001
	require.ErrorIs(t, rec.Validate(), mintrecord.ErrInvalidScore)

	rec = newValidRecord(t)
	rec.RarityScore = -1
	require.ErrorIs(t, rec.Validate(), mintrecord.ErrInvalidScore)

	rec = newValidRecord(t)
	rec.RarityTier = "mythic"
	require.ErrorIs(t, rec.Validate(), mintrecord.ErrInvalidTier)

	rec = newValidRecord(t)
	rec.PaymentAmount = -1
	require.ErrorIs(t, rec.Validate(), mintrecord.ErrInvalidAmount)

	rec = newValidRecord(t)
	rec.CreatedAt = time.Time{}
	require.ErrorIs(t, rec.Validate(), mintrecord.ErrInvalidCreatedAt)
}
