// Package security holds input hardening helpers for values that end up in
// file system paths.
package security

import "strings"

const maxFilenameLen = 128

// SanitizeFilename makes a safe file name from an arbitrary identifier. Runs
// of characters outside [A-Za-z0-9._-] become a single underscore, and the
// result is trimmed of leading and trailing dots and underscores so that it
// can never name a parent directory. An empty result becomes "unknown".
func SanitizeFilename(s string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range s {
		if b.Len() >= maxFilenameLen {
			break
		}
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-':
			b.WriteRune(r)
			lastUnderscore = false
		case !lastUnderscore:
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		return "unknown"
	}
	return out
}
