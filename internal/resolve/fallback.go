package resolve

import (
	"log/slog"
	"strings"

	"github.com/chaz8081/ttsdict/internal/phoneme"
)

// Marker resolves bracketed marker tokens such as [PAUSE].
type Marker struct{}

// Resolve returns the marker phoneme, or declines if word is not a known
// bracketed marker.
func (Marker) Resolve(word string) ([]phoneme.Phoneme, bool) {
	if !strings.HasPrefix(word, "[") || !phoneme.Known(word) {
		return nil, false
	}
	return []phoneme.Phoneme{phoneme.Parse(word)}, true
}

// Suggester proposes a known spelling for an unresolved word.
type Suggester interface {
	Suggest(word string, maxDist int) (string, bool)
}

// suggestDistance is the largest edit distance reported as a suggestion.
const suggestDistance = 2

// DeadEnd always answers. The word itself becomes a single phoneme, invalid
// unless the word happens to be a catalog key, and a warning is logged.
type DeadEnd struct {
	Suggester Suggester // optional
}

// Resolve never declines.
func (d *DeadEnd) Resolve(word string) ([]phoneme.Phoneme, bool) {
	attrs := []any{"word", word}
	if d.Suggester != nil {
		if s, ok := d.Suggester.Suggest(word, suggestDistance); ok {
			attrs = append(attrs, "did_you_mean", s)
		}
	}
	slog.Warn("resolve: failed to resolve phonemes", attrs...)
	return []phoneme.Phoneme{phoneme.Parse(word)}, true
}
