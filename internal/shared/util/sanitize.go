package util

import (
	"strings"
	"unicode"
)

const maxFileNameRunes = 128

// SanitizeFileName reduces an uploaded file name to a single safe storage key segment.
// Directory components are dropped and anything outside letters, digits, '.', '-' and '_'
// becomes '_'. An unusable name falls back to "resume".
func SanitizeFileName(name string) string {
	s := strings.TrimSpace(name)
	if i := strings.LastIndexAny(s, `/\`); i >= 0 {
		s = s[i+1:]
	}
	var b strings.Builder
	n := 0
	for _, r := range s {
		if n == maxFileNameRunes {
			break
		}
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
		n++
	}
	out := strings.Trim(b.String(), ".")
	if out == "" || strings.Trim(out, "_") == "" {
		return "resume"
	}
	return out
}
