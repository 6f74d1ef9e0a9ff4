package certificate

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	defaultStem = "certificate"

	// maxStemBytes leaves room for the extension under the usual 255-byte
	// file name limit.
	maxStemBytes = 200
)

// ArtifactStem turns a free-text recipient name into a file name stem. Path
// separators and control characters are dropped, leading/trailing dots and
// spaces are trimmed, and long names are cut to maxStemBytes on a rune
// boundary.
func ArtifactStem(name string) string {
	stem := strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\' || r == ':' || r == 0:
			return '_'
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, name)
	stem = strings.Trim(truncate(strings.Trim(stem, " ."), maxStemBytes), " .")
	if stem == "" {
		return defaultStem
	}
	return stem
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
