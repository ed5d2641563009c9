package series

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks removes diacritics so "Coöperative" and "Cooperative" normalize
// to the same title.
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize produces the comparison form of a title: diacritics stripped,
// lowercased, punctuation dropped, whitespace collapsed to single spaces.
func Normalize(s string) string {
	stripped, _, err := transform.String(stripMarks, s)
	if err != nil {
		stripped = s
	}

	var b strings.Builder
	b.Grow(len(stripped))
	space := false
	for _, r := range strings.ToLower(stripped) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
		default:
			space = true
		}
	}

	return b.String()
}

// DeriveID is a pure function of jurisdiction, agency and normalized title.
// The same series seen in two source documents gets the same id, which is
// what makes deduplication and idempotent regeneration possible.
func DeriveID(jurisdiction, agency, title string) string {
	key := fmt.Sprintf("%s|%s|%s",
		Normalize(jurisdiction),
		Normalize(agency),
		Normalize(title))

	hash := sha256.Sum256([]byte(key))
	return "rs-" + hex.EncodeToString(hash[:])[:12]
}

// Slug converts a display name into a filesystem-safe artifact name.
func Slug(s string) string {
	normalized := Normalize(s)
	if normalized == "" {
		return "unnamed"
	}
	return strings.ReplaceAll(normalized, " ", "-")
}
