package fdf

import "strings"

var parenReplacer = strings.NewReplacer("(", "{", ")", "}")

// Sanitize drops every character outside 7-bit ASCII and replaces the FDF
// string delimiters ( and ) with { and }. Accented letters are dropped, not
// transliterated. Sanitize(Sanitize(s)) == Sanitize(s).
func Sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 0x80 {
			b.WriteRune(r)
		}
	}
	return parenReplacer.Replace(b.String())
}
