// internal/domain/rarity/tier.go
package rarity

import (
	"errors"
	"fmt"
	"strings"
)

// Tier is the label derived from a rarity score.
type Tier string

const (
	TierCommon    Tier = "common"
	TierUncommon  Tier = "uncommon"
	TierRare      Tier = "rare"
	TierEpic      Tier = "epic"
	TierLegendary Tier = "legendary"
)

var ErrUnknownTier = errors.New("rarity: unknown tier")

// Score thresholds. Boundaries are inclusive on the upper tier: a score of
// exactly 850 is legendary, 849 is epic.
const (
	legendaryThreshold = 850
	epicThreshold      = 700
	rareThreshold      = 550
	uncommonThreshold  = 400
)

// TierForScore maps a [0,1000] score onto its tier by fixed thresholds.
func TierForScore(score int) Tier {
	switch {
	case score >= legendaryThreshold:
		return TierLegendary
	case score >= epicThreshold:
		return TierEpic
	case score >= rareThreshold:
		return TierRare
	case score >= uncommonThreshold:
		return TierUncommon
	default:
		return TierCommon
	}
}

// ParseTier normalizes a tier name from an API boundary.
func ParseTier(s string) (Tier, error) {
	switch Tier(strings.ToLower(strings.TrimSpace(s))) {
	case TierCommon:
		return TierCommon, nil
	case TierUncommon:
		return TierUncommon, nil
	case TierRare:
		return TierRare, nil
	case TierEpic:
		return TierEpic, nil
	case TierLegendary:
		return TierLegendary, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownTier, s)
	}
}
