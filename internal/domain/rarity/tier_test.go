// internal/domain/rarity/tier_test.go
package rarity_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"critterforge/internal/domain/rarity"
)

func TestTierForScoreThresholds(t *testing.T) {
	cases := []struct {
		score int
		want  rarity.Tier
	}{
		{0, rarity.TierCommon},
		{399, rarity.TierCommon},
		{400, rarity.TierUncommon},
		{549, rarity.TierUncommon},
		{550, rarity.TierRare},
		{699, rarity.TierRare},
		{700, rarity.TierEpic},
		{849, rarity.TierEpic},
		{850, rarity.TierLegendary},
		{1000, rarity.TierLegendary},
	}
	for _, c := range cases {
		require.Equalf(t, c.want, rarity.TierForScore(c.score), "score %d", c.score)
	}
}

func TestParseTier(t *testing.T) {
	tier, err := rarity.ParseTier("legendary")
	require.NoError(t, err)
	require.Equal(t, rarity.TierLegendary, tier)

	tier, err = rarity.ParseTier(" Epic ")
	require.NoError(t, err)
	require.Equal(t, rarity.TierEpic, tier)

	_, err = rarity.ParseTier("mythic")
	require.ErrorIs(t, err, rarity.ErrUnknownTier)

	_, err = rarity.ParseTier("")
	require.ErrorIs(t, err, rarity.ErrUnknownTier)
}

func TestPriceForTier(t *testing.T) {
	p := rarity.DefaultPriceTable()

	require.Equal(t, 5000, p.PriceFor(rarity.TierCommon))
	require.Equal(t, 7500, p.PriceFor(rarity.TierUncommon))
	require.Equal(t, 10000, p.PriceFor(rarity.TierRare))
	require.Equal(t, 15000, p.PriceFor(rarity.TierEpic))
	require.Equal(t, 25000, p.PriceFor(rarity.TierLegendary))
}

func TestPriceForScalesWithBase(t *testing.T) {
	p := rarity.PriceTable{BaseUnitPrice: 1000}

	require.Equal(t, 1000, p.PriceFor(rarity.TierCommon))
	require.Equal(t, 1500, p.PriceFor(rarity.TierUncommon))
	require.Equal(t, 5000, p.PriceFor(rarity.TierLegendary))
}
