// Package normalize rewrites raw transcripts into canonical, tokenizable text.
package normalize

import (
	"regexp"
	"strings"
)

var (
	// encodingFixes undo artifacts left by legacy transcript editors.
	encodingFixes = strings.NewReplacer(
		"\uFEFF", "",
		"\u009A", "ž",
		"\u001F", "",
	)

	// spellingFixes are applied one at a time, in order, each on the output
	// of the previous one.
	spellingFixes = [][2]string{
		{"_centrai centrai", "centrai"},
		{"indais _dais", "indais_dais"},
		{"_is kvepimas", "_iskvepimas"},
		{"_puslpais", "_puslapis"},
		{"_dutys", "_durys"},
		{"Simono-Petro", "Simono Petro"},
		{"Achemenidu", "Achemenidų"},
	}

	markers = [][2]string{
		{"_pauze", "[PAUSE]"},
		{"_tyla", "[PAUSE]"},
		{"_ikvepimas", "[INHALE]"},
		{"_iskvepimas", "[EXHALE]"},
		{"_nurijimas", "[SWALLOW]"},
		{"_cepsejimas", "[SMACK]"},
		{"_kede", "[CHAIR]"},
		{"_pilvas", "[STOMACH]"},
		{"_garsas", "[NOISE]"},
		{"_puslapis", "[PAGE]"},
		{"_durys", "[DOOR]"},
		{"_eh", "[EH]"},
		{"-", "[MIDWORDPAUSE]"},
	}

	accentSuffix = regexp.MustCompile(`([^ ])_[^ ]+`)
	multiSpace   = regexp.MustCompile(` {2,}`)
	blanks       = strings.NewReplacer("\r", " ", "\n", " ", "\t", " ")
)

// Normalize runs every stage over raw and returns the canonical text.
// It never fails; input that matches no rule passes through unchanged.
func Normalize(raw string) string {
	s := fixEncoding(raw)
	s = fixSpelling(s)
	s = substituteMarkers(s)
	s = stripAccents(s)
	return canonicalizeWhitespace(s)
}

// Words splits normalized text into word tokens.
func Words(normalized string) []string {
	return strings.Fields(normalized)
}

func fixEncoding(s string) string {
	return encodingFixes.Replace(s)
}

func fixSpelling(s string) string {
	for _, fix := range spellingFixes {
		s = strings.ReplaceAll(s, fix[0], fix[1])
	}
	return s
}

func substituteMarkers(s string) string {
	for _, m := range markers {
		s = strings.ReplaceAll(s, m[0], m[1])
	}
	return s
}

// stripAccents drops an underscore suffix glued to the preceding character,
// then any underscore left over.
func stripAccents(s string) string {
	s = accentSuffix.ReplaceAllString(s, "$1")
	return strings.ReplaceAll(s, "_", "")
}

func canonicalizeWhitespace(s string) string {
	s = strings.TrimSpace(blanks.Replace(s))
	return multiSpace.ReplaceAllString(s, " ")
}
