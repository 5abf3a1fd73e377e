package resolve

import (
	"fmt"
	"log/slog"
	"regexp"

	"github.com/chaz8081/ttsdict/internal/phoneme"
)

var midWordPauseRe = regexp.MustCompile(`(?i)\[midwordpause\]`)

// Inferrer is the part of seq2seq.Model the model resolver needs.
type Inferrer interface {
	Accepts(tokens []string) bool
	Infer(tokens []string) ([]string, error)
	Close() error
}

// Model resolves words by running a character-level sequence model.
type Model struct {
	model Inferrer
}

// NewModel wraps m. The resolver owns m and closes it on Close.
func NewModel(m Inferrer) *Model {
	return &Model{model: m}
}

// Resolve declines words the model cannot take: characters outside the
// input vocabulary or words longer than the input bound. A word holding
// mid-word pause markers is resolved part by part with a mid-word pause
// phoneme between the parts; any failing part fails the whole word.
// Inference errors are logged and the word is declined.
func (r *Model) Resolve(word string) ([]phoneme.Phoneme, bool) {
	ps, ok, err := r.tryResolve(word)
	if err != nil {
		slog.Warn("resolve: model inference failed", "word", word, "error", err)
		return nil, false
	}
	return ps, ok
}

// tryResolve is Resolve with inference errors reported instead of folded
// into a decline.
func (r *Model) tryResolve(word string) ([]phoneme.Phoneme, bool, error) {
	if !midWordPauseRe.MatchString(word) {
		return r.resolvePart(word)
	}

	var result []phoneme.Phoneme
	for i, part := range midWordPauseRe.Split(word, -1) {
		ps, ok, err := r.resolvePart(part)
		if err != nil || !ok {
			return nil, false, err
		}
		if i != 0 {
			result = append(result, phoneme.Parse(phoneme.MidWordPause))
		}
		result = append(result, ps...)
	}
	return result, true, nil
}

func (r *Model) resolvePart(word string) ([]phoneme.Phoneme, bool, error) {
	tokens := graphemes(word)
	if !r.model.Accepts(tokens) {
		return nil, false, nil
	}

	symbols, err := r.model.Infer(tokens)
	if err != nil {
		return nil, false, fmt.Errorf("inferring %q: %w", word, err)
	}

	ps := make([]phoneme.Phoneme, len(symbols))
	for i, s := range symbols {
		ps[i] = phoneme.ParseCode(s)
	}
	return ps, true, nil
}

// Close releases the model.
func (r *Model) Close() error {
	return r.model.Close()
}

// graphemes splits word into single-character tokens.
func graphemes(word string) []string {
	tokens := make([]string, 0, len(word))
	for _, c := range word {
		tokens = append(tokens, string(c))
	}
	return tokens
}
