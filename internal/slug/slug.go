// Package slug turns free text into URL-safe lowercase tokens.
//
// The same normalisation is used for usernames (which must be unique in
// normalised form) and for link slugs (cosmetic only).
package slug

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize lowercases text, strips diacritics, collapses every run of
// characters outside [a-z0-9] into a single hyphen and trims hyphens from
// both ends. The result may be empty.
//
//	Normalize("Épée & Bouclier!!") == "epee-bouclier"
//	Normalize("  Jöhn_Doe ")       == "john-doe"
//
// Normalize is idempotent: Normalize(Normalize(s)) == Normalize(s).
func Normalize(text string) string {
	folded := stripMarks(strings.ToLower(text))

	var b strings.Builder
	b.Grow(len(folded))
	pendingHyphen := false
	for _, r := range folded {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	return b.String()
}

// stripMarks decomposes s (NFD) and drops the combining marks, so "é" becomes "e".
// A transform.Chain carries state, so a fresh one is built per call.
func stripMarks(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// UsernameFromEmail returns the part of an email address before the first '@'.
// Input without an '@' is returned unchanged.
func UsernameFromEmail(email string) string {
	if i := strings.IndexByte(email, '@'); i >= 0 {
		return email[:i]
	}
	return email
}
