// Package slug derives stable, storage-safe identifiers from free-text
// entity display names. The same name always yields the same slug across
// runs; distinct names that transliterate identically share a slug, which is
// an accepted property of the scheme.
package slug

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxLen is the maximum slug length in bytes.
const MaxLen = 128

// HashPrefix marks slugs derived from a content hash because the display
// name had no usable ASCII transliteration.
const HashPrefix = "h-"

// Make maps a display name to a lowercase ASCII token of at most MaxLen
// characters drawn from [a-z0-9-]. Names with no ASCII transliteration fall
// back to HashPrefix plus the first 32 hex chars of the SHA-256 of the
// NFC-normalized name.
func Make(name string) string {
	ascii := transliterate(name)

	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(ascii) {
		isAlnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if !isAlnum {
			pendingDash = b.Len() > 0
			continue
		}
		if pendingDash {
			b.WriteByte('-')
			pendingDash = false
		}
		b.WriteRune(r)
	}

	s := b.String()
	if s != "" {
		if len(s) > MaxLen {
			s = strings.TrimRight(s[:MaxLen], "-")
		}
		return s
	}

	sum := sha256.Sum256([]byte(norm.NFC.String(name)))
	return HashPrefix + hex.EncodeToString(sum[:])[:32]
}

// transliterate decomposes to NFKD, strips combining marks, and drops any
// remaining non-ASCII runes.
func transliterate(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
	decomposed, _, err := transform.String(t, s)
	if err != nil {
		decomposed = s
	}

	var b strings.Builder
	for _, r := range decomposed {
		if r < unicode.MaxASCII {
			b.WriteRune(r)
		}
	}
	return b.String()
}
