package resolve

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/chaz8081/ttsdict/internal/phoneme"
)

const testDict = `labas L {A} B A S
rytas   R {I_} T A S
this line is fine too
broken
 leading-space A

vakaras V A K {A} R A S
labas L A B {A} S
`

func TestParseDictionary(t *testing.T) {
	d := ParseDictionary(testDict)

	tests := []struct {
		word string
		want string
		ok   bool
	}{
		// The later "labas" line overrides the first.
		{"labas", "[L][A][B]{A}[S]", true},
		{"rytas", "[R]{I_}[T][A][S]", true},
		{"vakaras", "[V][A][K]{A}[R][A][S]", true},
		{"this", "[ERR-line][ERR-is][ERR-fine][ERR-too]", true},
		{"broken", "", false},
		{"Labas", "", false},
	}
	for _, tt := range tests {
		got, ok := d.Resolve(tt.word)
		if ok != tt.ok {
			t.Errorf("Resolve(%q) ok = %v, want %v", tt.word, ok, tt.ok)
			continue
		}
		if r := phoneme.Render(got); r != tt.want {
			t.Errorf("Resolve(%q) = %q, want %q", tt.word, r, tt.want)
		}
	}

	wantWords := []string{"labas", "rytas", "this", "vakaras"}
	if !slices.Equal(d.Words(), wantWords) {
		t.Errorf("Words() = %v, want %v", d.Words(), wantWords)
	}
	if d.Len() != 4 {
		t.Errorf("Len() = %d, want 4", d.Len())
	}
}

func TestParseDictionaryCRLF(t *testing.T) {
	d := ParseDictionary("labas L A B A S\r\nrytas R I T A S\r\n")
	got, ok := d.Resolve("labas")
	if !ok || phoneme.Render(got) != "[L][A][B][A][S]" {
		t.Errorf("Resolve(labas) = %q, %v", phoneme.Render(got), ok)
	}
}

func TestDictionaryResolveReturnsCopy(t *testing.T) {
	d := ParseDictionary("labas L A B A S\n")
	got, _ := d.Resolve("labas")
	got[0] = phoneme.Parse("Z")

	again, _ := d.Resolve("labas")
	if phoneme.Render(again) != "[L][A][B][A][S]" {
		t.Errorf("dictionary mutated through returned slice: %q", phoneme.Render(again))
	}
}

func TestLoadDictionary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dict.txt")
	if err := os.WriteFile(path, []byte("žalias Z2 {A} L I A S\n"), 0644); err != nil {
		t.Fatal(err)
	}
	d, err := LoadDictionary(path)
	if err != nil {
		t.Fatalf("LoadDictionary: %v", err)
	}
	got, ok := d.Resolve("žalias")
	if !ok || phoneme.Render(got) != "[Z2]{A}[L][I][A][S]" {
		t.Errorf("Resolve(žalias) = %q, %v", phoneme.Render(got), ok)
	}
}

func TestLoadDictionaryMissing(t *testing.T) {
	if _, err := LoadDictionary(filepath.Join(t.TempDir(), "nope.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestSuggest(t *testing.T) {
	d := ParseDictionary("labas L\nlabai L\nrytas R\nvakaras V\n")

	tests := []struct {
		word string
		want string
		ok   bool
	}{
		{"labas", "labas", true},
		{"labs", "labas", true},
		{"rytass", "rytas", true},
		// labai and labas are both one edit away; labai sorts first.
		{"laba", "labai", true},
		{"zzzzzz", "", false},
	}
	for _, tt := range tests {
		got, ok := d.Suggest(tt.word, 2)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("Suggest(%q) = %q, %v, want %q, %v", tt.word, got, ok, tt.want, tt.ok)
		}
	}
}
