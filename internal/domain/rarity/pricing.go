// internal/domain/rarity/pricing.go
package rarity

// ------------------------------------------------------
// Tier pricing
// ------------------------------------------------------
//
// Prices are whole FORGE token units; conversion to the token's smallest
// unit happens at the payment boundary. Multipliers are kept integral
// (tenths) so the table stays exact: common 1x, uncommon 1.5x, rare 2x,
// epic 3x, legendary 5x.

type PriceTable struct {
	BaseUnitPrice int
}

const defaultBaseUnitPrice = 5000

// DefaultPriceTable returns the production price table.
func DefaultPriceTable() PriceTable {
	return PriceTable{BaseUnitPrice: defaultBaseUnitPrice}
}

var tierMultiplierTenths = map[Tier]int{
	TierCommon:    10,
	TierUncommon:  15,
	TierRare:      20,
	TierEpic:      30,
	TierLegendary: 50,
}

// PriceFor returns the whole-token price for a tier. Unknown tiers price as
// common; tier values are validated upstream by ParseTier.
func (p PriceTable) PriceFor(t Tier) int {
	m, ok := tierMultiplierTenths[t]
	if !ok {
		m = tierMultiplierTenths[TierCommon]
	}
	return p.BaseUnitPrice * m / 10
}
