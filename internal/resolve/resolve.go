// Package resolve maps word tokens to phoneme sequences through an ordered
// chain of resolvers.
//
// Resolvers are tried in order and the first one to return a result wins.
// The chain is built by New from config:
//   - dictionary: exact lookup in a pronunciation dictionary
//   - model: sequence-model inference, behind an LRU cache
//   - marker: bracketed markers such as [PAUSE]
//   - dead end: always answers, with an invalid phoneme if need be
package resolve

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/chaz8081/ttsdict/internal/config"
	"github.com/chaz8081/ttsdict/internal/phoneme"
	"github.com/chaz8081/ttsdict/internal/seq2seq"
)

// Resolver maps a canonical word token to phonemes. It returns false to
// decline, letting the next resolver in the chain try.
type Resolver interface {
	Resolve(word string) ([]phoneme.Phoneme, bool)
}

// Chain consults its resolvers in order with first-success semantics.
type Chain struct {
	resolvers []Resolver

	closeOnce sync.Once
	closeErr  error
}

// NewChain returns a chain over resolvers in priority order. Resolvers that
// implement io.Closer are closed by Chain.Close.
func NewChain(resolvers ...Resolver) *Chain {
	return &Chain{resolvers: resolvers}
}

// Canonical returns the form of word the resolvers see: bracketed markers
// verbatim, everything else lowercased.
func Canonical(word string) string {
	if strings.HasPrefix(word, "[") {
		return word
	}
	return strings.ToLower(word)
}

// Resolve canonicalizes word and returns the first resolver's answer. It
// returns false only when every resolver declined, which cannot happen when
// the chain ends with a DeadEnd.
func (c *Chain) Resolve(word string) ([]phoneme.Phoneme, bool) {
	word = Canonical(word)
	for _, r := range c.resolvers {
		if ps, ok := r.Resolve(word); ok {
			return ps, true
		}
	}
	return nil, false
}

// ResolveAll resolves each word in order. Unresolved words are nil.
func (c *Chain) ResolveAll(words []string) [][]phoneme.Phoneme {
	out := make([][]phoneme.Phoneme, len(words))
	for i, w := range words {
		if ps, ok := c.Resolve(w); ok {
			if ps == nil {
				ps = []phoneme.Phoneme{}
			}
			out[i] = ps
		}
	}
	return out
}

// Phonemize resolves each word and joins the results.
func (c *Chain) Phonemize(words []string) []phoneme.Phoneme {
	return Join(c.ResolveAll(words))
}

// Join concatenates per-word phonemes, placing the separator phoneme after
// every word but the last. Unresolved (nil) words contribute nothing, not
// even a separator.
func Join(words [][]phoneme.Phoneme) []phoneme.Phoneme {
	var result []phoneme.Phoneme
	for i, ps := range words {
		if ps == nil {
			continue
		}
		result = append(result, ps...)
		if i != len(words)-1 {
			result = append(result, phoneme.Parse(phoneme.Separator))
		}
	}
	return result
}

// Close releases every closable resolver exactly once.
func (c *Chain) Close() error {
	c.closeOnce.Do(func() {
		var errs []error
		for _, r := range c.resolvers {
			if closer, ok := r.(io.Closer); ok {
				if err := closer.Close(); err != nil {
					errs = append(errs, err)
				}
			}
		}
		c.closeErr = errors.Join(errs...)
	})
	return c.closeErr
}

// Built holds a chain and the members New created for it, for callers that
// need a specific member (evaluation needs the model and the dictionary).
type Built struct {
	*Chain
	Dictionary *Dictionary // nil if no dictionary is configured
	Model      *Model      // nil if no model is configured
}

// New builds the canonical chain from config. The ONNX runtime must be
// initialized if cfg.ModelDir is set.
func New(cfg *config.ResolverConfig) (*Built, error) {
	b := &Built{}
	var resolvers []Resolver

	if cfg.DictionaryPath != "" {
		dict, err := LoadDictionary(cfg.DictionaryPath)
		if err != nil {
			return nil, fmt.Errorf("resolve: %w", err)
		}
		b.Dictionary = dict
		resolvers = append(resolvers, dict)
	}

	if cfg.ModelDir != "" {
		m, err := seq2seq.Load(cfg.ModelDir)
		if err != nil {
			return nil, fmt.Errorf("resolve: %w", err)
		}
		b.Model = NewModel(m)
		if cfg.CacheSize > 0 {
			cached, err := NewCached(b.Model, cfg.CacheSize)
			if err != nil {
				b.Model.Close()
				return nil, fmt.Errorf("resolve: %w", err)
			}
			resolvers = append(resolvers, cached)
		} else {
			resolvers = append(resolvers, b.Model)
		}
	}

	resolvers = append(resolvers, Marker{})

	dead := &DeadEnd{}
	if cfg.SuggestSpelling && b.Dictionary != nil {
		dead.Suggester = b.Dictionary
	}
	resolvers = append(resolvers, dead)

	b.Chain = NewChain(resolvers...)
	return b, nil
}
