package resolve

import (
	"testing"
)

func TestMarker(t *testing.T) {
	tests := []struct {
		word string
		want string
		ok   bool
	}{
		{"[PAUSE]", "[PAUSE]", true},
		{"[MIDWORDPAUSE]", "[MIDWORDPAUSE]", true},
		{"[NOISE]", "[NOISE]", true},
		{"[BOGUS]", "", false},
		{"[pause]", "", false},
		{"PAUSE", "", false},
		{"A", "", false},
	}
	for _, tt := range tests {
		got, ok := Marker{}.Resolve(tt.word)
		if ok != tt.ok {
			t.Errorf("Resolve(%q) ok = %v, want %v", tt.word, ok, tt.ok)
			continue
		}
		if ok && (len(got) != 1 || got[0].String() != tt.want) {
			t.Errorf("Resolve(%q) = %v, want %q", tt.word, got, tt.want)
		}
	}
}

type recordingSuggester struct {
	asked []string
}

func (s *recordingSuggester) Suggest(word string, maxDist int) (string, bool) {
	s.asked = append(s.asked, word)
	return "labas", true
}

func TestDeadEnd(t *testing.T) {
	d := &DeadEnd{}

	got, ok := d.Resolve("xyz")
	if !ok {
		t.Fatal("DeadEnd declined")
	}
	if len(got) != 1 || got[0].Valid || got[0].Symbol != "ERR-xyz" {
		t.Errorf("Resolve(xyz) = %+v, want single invalid ERR-xyz", got)
	}

	// A word that is itself a catalog key comes back valid.
	got, _ = d.Resolve("A")
	if !got[0].Valid || got[0].String() != "[A]" {
		t.Errorf("Resolve(A) = %+v", got)
	}
}

func TestDeadEndAsksSuggester(t *testing.T) {
	s := &recordingSuggester{}
	d := &DeadEnd{Suggester: s}
	d.Resolve("labs")
	if len(s.asked) != 1 || s.asked[0] != "labs" {
		t.Errorf("suggester asked %v, want [labs]", s.asked)
	}
}
