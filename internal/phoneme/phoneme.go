// Package phoneme defines the closed phoneme catalog.
//
// Every valid phoneme has a stable ordinal taken from its position in the
// catalog. Ordinal 0 is the word separator, -1 marks an unrecognized symbol.
package phoneme

import "strings"

// Separator is the catalog key of the word separator.
const Separator = " "

// MidWordPause is the catalog key of the mid-word pause marker.
const MidWordPause = "[MIDWORDPAUSE]"

// InvalidOrdinal is the ordinal given to unrecognized symbols.
const InvalidOrdinal = -1

// catalog lists the catalog keys in ordinal order. Marker keys keep their
// brackets here; the stored symbol drops them.
var catalog = []string{
	Separator,
	"A", "A_", "B", "C", "C2", "CH", "D", "DZ", "DZ2",
	"E", "E_", "E3_", "F", "G", "H", "I", "I_", "IO_", "IU", "IU_",
	"J.", "K", "L", "M", "N", "O_", "P", "R", "S", "S2", "T",
	"U", "U_", "V", "Z", "Z2",
	"[PAUSE]", "[INHALE]", "[EXHALE]", "[SWALLOW]", "[SMACK]", "[CHAIR]",
	"[STOMACH]", "[PAGE]", "[DOOR]", "[EH]", MidWordPause, "[NOISE]",
}

var ordinals = func() map[string]int {
	m := make(map[string]int, len(catalog))
	for i, key := range catalog {
		m[key] = i
	}
	return m
}()

// Phoneme is an atomic pronunciation unit.
type Phoneme struct {
	Symbol   string
	Ordinal  int
	Accented bool
	Valid    bool
}

// FromSymbol looks key up in the catalog. Unknown keys produce an invalid
// phoneme with symbol "ERR-<key>".
func FromSymbol(key string, accented bool) Phoneme {
	ord, ok := ordinals[key]
	if !ok {
		return Phoneme{
			Symbol:   "ERR-" + key,
			Ordinal:  InvalidOrdinal,
			Accented: accented,
			Valid:    false,
		}
	}
	symbol := key
	if isMarker(key) {
		symbol = key[1 : len(key)-1]
	}
	return Phoneme{
		Symbol:   symbol,
		Ordinal:  ord,
		Accented: accented,
		Valid:    true,
	}
}

// Parse looks key up without an accent.
func Parse(key string) Phoneme {
	return FromSymbol(key, false)
}

// ParseCode parses a dictionary phoneme code. A code wrapped in braces, as in
// "{A}", is accented.
func ParseCode(code string) Phoneme {
	if len(code) > 2 && strings.HasPrefix(code, "{") && strings.HasSuffix(code, "}") {
		return FromSymbol(code[1:len(code)-1], true)
	}
	return FromSymbol(code, false)
}

// Known reports whether key is a catalog key.
func Known(key string) bool {
	_, ok := ordinals[key]
	return ok
}

// Keys returns the catalog keys in ordinal order.
func Keys() []string {
	return append([]string(nil), catalog...)
}

// String renders the display form: the separator as itself, accented
// phonemes in braces, everything else in brackets.
func (p Phoneme) String() string {
	switch {
	case p.Ordinal == 0:
		return p.Symbol
	case p.Accented:
		return "{" + p.Symbol + "}"
	default:
		return "[" + p.Symbol + "]"
	}
}

// Render concatenates the display forms of ps.
func Render(ps []Phoneme) string {
	var b strings.Builder
	for _, p := range ps {
		b.WriteString(p.String())
	}
	return b.String()
}

func isMarker(key string) bool {
	return len(key) > 2 && key[0] == '[' && key[len(key)-1] == ']'
}
