package service

import (
	"strings"
	"unicode"
)

// cleanText prepares imported free text for storage: invalid UTF-8 and
// control characters (Postgres rejects NUL in text columns) are dropped and
// whitespace runs collapse to one space.
func cleanText(s string) string {
	s = strings.ToValidUTF8(s, "")

	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			space = b.Len() > 0
			continue
		case unicode.IsControl(r):
			continue
		}
		if space {
			b.WriteByte(' ')
			space = false
		}
		b.WriteRune(r)
	}
	return b.String()
}
