package resolve

import (
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"slices"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/chaz8081/ttsdict/internal/phoneme"
	"github.com/chaz8081/ttsdict/internal/textdecode"
)

var dictLineRe = regexp.MustCompile(`^([^ ]+) +(.+)$`)

// Dictionary resolves words by exact lookup in a pronunciation dictionary.
type Dictionary struct {
	entries map[string][]phoneme.Phoneme
	words   []string // sorted keys of entries
}

// LoadDictionary reads a dictionary file. Each line holds a word, one or more
// spaces, and space-separated phoneme codes. Lines that do not have that
// shape are skipped with a warning.
func LoadDictionary(path string) (*Dictionary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading dictionary: %w", err)
	}
	text, err := textdecode.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decoding dictionary %s: %w", path, err)
	}
	d := ParseDictionary(text)
	slog.Debug("resolve: dictionary loaded", "path", path, "words", len(d.words))
	return d, nil
}

// ParseDictionary parses dictionary text. Later lines override earlier ones
// for the same word.
func ParseDictionary(text string) *Dictionary {
	d := &Dictionary{entries: make(map[string][]phoneme.Phoneme)}
	for n, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		m := dictLineRe.FindStringSubmatch(line)
		if m == nil {
			slog.Warn("resolve: cannot parse dictionary line", "line", n+1, "text", line)
			continue
		}
		codes := strings.Fields(m[2])
		if len(codes) == 0 {
			slog.Warn("resolve: dictionary line has no phonemes", "line", n+1, "text", line)
			continue
		}
		ps := make([]phoneme.Phoneme, len(codes))
		for i, code := range codes {
			ps[i] = phoneme.ParseCode(code)
		}
		d.entries[m[1]] = ps
	}

	d.words = make([]string, 0, len(d.entries))
	for w := range d.entries {
		d.words = append(d.words, w)
	}
	slices.Sort(d.words)
	return d
}

// Resolve returns a copy of the dictionary's phonemes for word.
func (d *Dictionary) Resolve(word string) ([]phoneme.Phoneme, bool) {
	ps, ok := d.entries[word]
	if !ok {
		return nil, false
	}
	return slices.Clone(ps), true
}

// Len returns the number of words.
func (d *Dictionary) Len() int {
	return len(d.words)
}

// Words returns the dictionary words in sorted order.
func (d *Dictionary) Words() []string {
	return slices.Clone(d.words)
}

// Suggest returns the dictionary word closest to word by edit distance, if
// one lies within maxDist. Ties go to the word that sorts first.
func (d *Dictionary) Suggest(word string, maxDist int) (string, bool) {
	best, bestDist := "", maxDist+1
	for _, w := range d.words {
		dist := levenshtein.ComputeDistance(word, w)
		if dist < bestDist {
			best, bestDist = w, dist
			if dist == 0 {
				break
			}
		}
	}
	return best, bestDist <= maxDist
}
