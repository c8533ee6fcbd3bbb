package lookup

import (
	"strings"
	"unicode"
)

// maxLoggedKeyLen bounds how much of a caller-supplied key makes it into
// log output.
const maxLoggedKeyLen = 50

// sanitizeKey makes a caller-supplied lookup key safe to log: control
// characters are stripped so the key cannot inject fake log lines, and
// unreasonably long values are truncated.
func sanitizeKey(key string) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, key)

	if len(cleaned) > maxLoggedKeyLen {
		cleaned = cleaned[:maxLoggedKeyLen] + "..."
	}
	return cleaned
}
