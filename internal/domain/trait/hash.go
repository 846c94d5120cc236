// internal/domain/trait/hash.go
package trait

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"regexp"
	"strings"
)

// ------------------------------------------------------
// Canonical trait hash (the global uniqueness key)
// ------------------------------------------------------
//
// Canonicalization: every string field is lower-cased and trimmed, an absent
// accent color becomes the empty string, and the fields are encoded in a
// fixed key order. encoding/json marshals struct fields in declaration
// order, so the serialization is deterministic across platforms. The digest
// is SHA-256, rendered as 64 lowercase hex characters.
//
// Pure function: no I/O, equal TraitSets (case-insensitively) always hash
// identically.

type canonicalTraitSet struct {
	Head           string `json:"head"`
	Eyes           string `json:"eyes"`
	Mouth          string `json:"mouth"`
	Body           string `json:"body"`
	Feet           string `json:"feet"`
	Accessory      string `json:"accessory"`
	Background     string `json:"background"`
	PalettePrimary string `json:"palettePrimary"`
	PaletteAccent  string `json:"paletteAccent"`
	PaletteTier    string `json:"paletteTier"`
}

func canonicalize(t TraitSet) canonicalTraitSet {
	lower := func(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
	return canonicalTraitSet{
		Head:           lower(t.Head),
		Eyes:           lower(t.Eyes),
		Mouth:          lower(t.Mouth),
		Body:           lower(t.Body),
		Feet:           lower(t.Feet),
		Accessory:      lower(t.Accessory),
		Background:     lower(t.Background),
		PalettePrimary: lower(t.Palette.Primary),
		PaletteAccent:  lower(t.Palette.Accent),
		PaletteTier:    lower(t.Palette.Tier),
	}
}

// Hash digests the canonicalized TraitSet.
func Hash(t TraitSet) string {
	data, err := json.Marshal(canonicalize(t))
	if err != nil {
		// canonicalTraitSet contains only strings; Marshal cannot fail.
		panic("trait: marshal canonical trait set: " + err.Error())
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

var hashPattern = regexp.MustCompile(`^[0-9a-f]{64}$`)

// IsCanonicalHash reports whether s is a well-formed trait hash
// (64 lowercase hex characters).
func IsCanonicalHash(s string) bool {
	return hashPattern.MatchString(s)
}
