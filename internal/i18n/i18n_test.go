package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := map[string]string{
		"":      English,
		"en":    English,
		"EN-us": English,
		"si":    Sinhala,
		"si-LK": Sinhala,
		"ta":    English,
		"???":   English,
	}
	for in, want := range tests {
		assert.Equal(t, want, Normalize(in), in)
	}
}

func TestMatch(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"", English},
		{"si-LK,si;q=0.9,en;q=0.8", Sinhala},
		{"en-GB,en;q=0.9", English},
		{"fr-FR", English},
		{"fr;q=0.9, si;q=0.5", Sinhala},
		{"not a header;;", English},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			assert.Equal(t, tt.want, Match(tt.header))
		})
	}
}

func TestT(t *testing.T) {
	assert.Equal(t, "No Commands Found", T(English, "cheatsheet.empty"))
	assert.Equal(t, "විධාන හමු නොවීය", T(Sinhala, "cheatsheet.empty"))
	assert.Equal(t, "21 commands", T(English, "cheatsheet.count", 21))
	assert.Equal(t, "විධාන 21", T(Sinhala, "cheatsheet.count", 21))

	// unknown language falls back to English, unknown key to the key
	assert.Equal(t, "Example", T("de", "cheatsheet.example"))
	assert.Equal(t, "missing.key", T(Sinhala, "missing.key"))
}

func TestTablesHaveSameKeys(t *testing.T) {
	for key := range messages[English] {
		_, ok := messages[Sinhala][key]
		assert.True(t, ok, "sinhala table misses %q", key)
	}
	assert.Len(t, messages[Sinhala], len(messages[English]))
}

func TestTranslator(t *testing.T) {
	tr := New("si-LK")
	assert.Equal(t, Sinhala, tr.Lang)
	assert.Equal(t, "උදාහරණය", tr.T("cheatsheet.example"))
	assert.Equal(t, "සිංහල", Name("si"))
	assert.Equal(t, "English", Name(""))
}
