package resolve

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	lru "github.com/hashicorp/golang-lru"

	"github.com/chaz8081/ttsdict/internal/phoneme"
)

// fallible is implemented by resolvers that can tell a transient failure
// apart from a decline.
type fallible interface {
	tryResolve(word string) ([]phoneme.Phoneme, bool, error)
}

type cachedResult struct {
	phonemes []phoneme.Phoneme
	ok       bool
}

// Cached memoizes another resolver's answers, declines included, in an LRU
// cache. Failures of a fallible resolver are not cached.
type Cached struct {
	next  Resolver
	cache *lru.Cache
}

// NewCached wraps next with a cache of size entries.
func NewCached(next Resolver, size int) (*Cached, error) {
	cache, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("creating resolver cache: %w", err)
	}
	return &Cached{next: next, cache: cache}, nil
}

// Resolve answers from the cache, falling through to the wrapped resolver
// on a miss.
func (c *Cached) Resolve(word string) ([]phoneme.Phoneme, bool) {
	if v, ok := c.cache.Get(word); ok {
		r := v.(cachedResult)
		return slices.Clone(r.phonemes), r.ok
	}
	ps, ok, err := c.resolveNext(word)
	if err != nil {
		slog.Warn("resolve: model inference failed", "word", word, "error", err)
		return nil, false
	}
	c.cache.Add(word, cachedResult{phonemes: slices.Clone(ps), ok: ok})
	return ps, ok
}

func (c *Cached) resolveNext(word string) ([]phoneme.Phoneme, bool, error) {
	if f, ok := c.next.(fallible); ok {
		return f.tryResolve(word)
	}
	ps, ok := c.next.Resolve(word)
	return ps, ok, nil
}

// Close closes the wrapped resolver if it is closable.
func (c *Cached) Close() error {
	c.cache.Purge()
	if closer, ok := c.next.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
