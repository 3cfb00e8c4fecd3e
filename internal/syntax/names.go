package syntax

import (
	"unicode"
	"unicode/utf8"
)

// IsCapitalized reports whether name looks like a component name: its first
// character is unchanged by upper-casing. An empty name is never capitalized.
// Non-letters upper-case to themselves, so "1Thing" counts as capitalized.
func IsCapitalized(name string) bool {
	if name == "" {
		return false
	}
	r, size := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError && size <= 1 {
		return false
	}
	return unicode.ToUpper(r) == r
}
