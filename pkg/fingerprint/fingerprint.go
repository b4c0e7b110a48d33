package fingerprint

import (
	"crypto/sha256"
	"encoding/binary"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripMarks = transform.Chain(
	norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC,
)

// Normalize canonicalizes a display name before fingerprinting: Unicode
// decomposition with combining marks stripped, case folding, whitespace
// collapsed to single spaces.
func Normalize(name string) string {
	stripped, _, err := transform.String(stripMarks, name)
	if err != nil {
		stripped = name
	}
	folded := cases.Fold().String(stripped)
	return strings.Join(strings.Fields(folded), " ")
}

// Fingerprint64 maps a display name to the fixed-width fingerprint used by
// watchlist records and screening queries: the first 8 bytes of the SHA-256
// of the normalized name.
func Fingerprint64(name string) uint64 {
	sum := sha256.Sum256([]byte(Normalize(name)))
	return binary.BigEndian.Uint64(sum[:8])
}
