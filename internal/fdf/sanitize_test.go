package fdf

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Désignation (spéciale)", "Dsignation {spciale}"},
		{"plain ascii", "plain ascii"},
		{"((nested))", "{{nested}}"},
		{"Côte-d'Or", "Cte-d'Or"},
		{"€ 12", " 12"},
		{"", ""},
		{"\xff\xfebroken", "broken"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Sanitize(tt.in))
		})
	}
}

func TestSanitize_Properties(t *testing.T) {
	inputs := []string{
		"Désignation (spéciale)",
		"Rue de l'Église (bât. B)",
		"日本語 (test)",
		"tab\tand\nnewline",
		"{already} sanitized",
		"\x7f\x80\x81",
	}
	for _, in := range inputs {
		once := Sanitize(in)
		assert.Equal(t, once, Sanitize(once), "projection for %q", in)
		assert.NotContains(t, once, "(")
		assert.NotContains(t, once, ")")
		for i := 0; i < len(once); i++ {
			assert.Less(t, once[i], byte(0x80), "byte %d of %q", i, once)
		}
		assert.False(t, strings.ContainsRune(once, '�'))
	}
}
