package seq2seq

import (
	"errors"
	"fmt"
)

// ErrUnknownToken is returned when encoding a token outside the vocabulary.
var ErrUnknownToken = errors.New("unknown token")

// IOMap maps an ordered vocabulary to one-hot positions. A token's position
// is its index in the declaration order.
type IOMap struct {
	keys  []string
	index map[string]int
}

// NewIOMap builds a map over keys.
func NewIOMap(keys []string) *IOMap {
	index := make(map[string]int, len(keys))
	for i, k := range keys {
		index[k] = i
	}
	return &IOMap{keys: append([]string(nil), keys...), index: index}
}

// Len returns the vocabulary size, which is also the width of one step.
func (m *IOMap) Len() int {
	return len(m.keys)
}

// Contains reports whether tok is in the vocabulary.
func (m *IOMap) Contains(tok string) bool {
	_, ok := m.index[tok]
	return ok
}

// Encode one-hot encodes tokens into a flat [length, Len()] buffer. Steps
// past the end of tokens stay all-zero.
func (m *IOMap) Encode(tokens []string, length int) ([]float32, error) {
	if len(tokens) > length {
		return nil, fmt.Errorf("sequence of %d tokens exceeds length %d", len(tokens), length)
	}
	width := len(m.keys)
	buf := make([]float32, length*width)
	for step, tok := range tokens {
		i, ok := m.index[tok]
		if !ok {
			return nil, fmt.Errorf("%w %q", ErrUnknownToken, tok)
		}
		buf[step*width+i] = 1
	}
	return buf, nil
}

// OneHot returns a single one-hot step for tok.
func (m *IOMap) OneHot(tok string) ([]float32, error) {
	return m.Encode([]string{tok}, 1)
}

// Decode maps each step of a flat [n, Len()] buffer to the token at its
// maximum position. All-zero steps are padding and are skipped.
func (m *IOMap) Decode(buf []float32) []string {
	width := len(m.keys)
	if width == 0 {
		return nil
	}
	var tokens []string
	for start := 0; start+width <= len(buf); start += width {
		i, max := argmax(buf[start : start+width])
		if max <= 0 {
			continue
		}
		tokens = append(tokens, m.keys[i])
	}
	return tokens
}

// DecodeStep returns the token at the maximum position of a single step,
// regardless of its value.
func (m *IOMap) DecodeStep(step []float32) (string, error) {
	if len(step) != len(m.keys) || len(step) == 0 {
		return "", fmt.Errorf("step has %d values, vocabulary has %d", len(step), len(m.keys))
	}
	i, _ := argmax(step)
	return m.keys[i], nil
}

// argmax returns the first index holding the maximum value.
func argmax(v []float32) (int, float32) {
	best := 0
	for i := 1; i < len(v); i++ {
		if v[i] > v[best] {
			best = i
		}
	}
	return best, v[best]
}
