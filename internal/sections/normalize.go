package sections

import (
	"regexp"
	"strings"
)

var (
	bulletPrefix = regexp.MustCompile(`^[\s•\-–—*·▪●◦]+`)
	numberPrefix = regexp.MustCompile(`^\d+(?:\s*[.)\-:]\s*|\s+)`)
	romanPrefix  = regexp.MustCompile(`^([ivxlcdm]+)(\s*[.)\-:]\s*|\s+)(.*)$`)
	romanNumeral = regexp.MustCompile(`^x{0,3}(?:ix|iv|v?i{0,3})$`)
	punctuation  = regexp.MustCompile(`[^\p{L}\p{N}_\s]+`)
	whitespace   = regexp.MustCompile(`\s+`)
)

// Normalize turns a raw line into a comparable heading token: lower case,
// without leading bullet, numbering or roman-numeral markers, punctuation
// replaced by spaces and whitespace collapsed. It is idempotent.
func Normalize(raw string) string {
	h := raw
	// Each pass only removes characters or swaps punctuation for spaces, so
	// the loop settles well before the bound.
	for i := 0; i <= len(raw)+1; i++ {
		next := normalizeOnce(h)
		if next == h {
			break
		}
		h = next
	}
	return h
}

func normalizeOnce(h string) string {
	h = strings.ToLower(h)
	h = bulletPrefix.ReplaceAllString(h, "")
	h = numberPrefix.ReplaceAllString(h, "")
	h = stripRoman(h)
	h = punctuation.ReplaceAllString(h, " ")
	h = whitespace.ReplaceAllString(h, " ")
	return strings.TrimSpace(h)
}

// stripRoman drops a leading roman numeral marker such as "iv." or "ii -".
// A bare numeral followed by whitespace only counts as a marker when another
// word follows, and a word like "internships" or "civil" is never touched.
func stripRoman(h string) string {
	m := romanPrefix.FindStringSubmatch(h)
	if m == nil {
		return h
	}
	numeral, sep, rest := m[1], m[2], m[3]
	if !romanNumeral.MatchString(numeral) {
		return h
	}
	if strings.TrimSpace(rest) == "" {
		return h
	}
	if strings.TrimSpace(sep) == "" && !startsWithWord(rest) {
		return h
	}
	return rest
}

func startsWithWord(s string) bool {
	for _, r := range s {
		return r == '_' || isLetterOrDigit(r)
	}
	return false
}
