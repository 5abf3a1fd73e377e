package resolve

import (
	"testing"

	"github.com/chaz8081/ttsdict/internal/phoneme"
)

func TestCachedMemoizes(t *testing.T) {
	inner := &fixed{answers: map[string][]phoneme.Phoneme{"labas": ps("L", "A")}}
	c, err := NewCached(inner, 8)
	if err != nil {
		t.Fatalf("NewCached: %v", err)
	}

	for i := 0; i < 3; i++ {
		got, ok := c.Resolve("labas")
		if !ok || phoneme.Render(got) != "[L][A]" {
			t.Fatalf("Resolve(labas) = %q, %v", phoneme.Render(got), ok)
		}
	}
	// Declines are cached too.
	for i := 0; i < 3; i++ {
		if _, ok := c.Resolve("nope"); ok {
			t.Fatal("Resolve(nope) accepted")
		}
	}
	if inner.calls != 2 {
		t.Errorf("inner resolver called %d times, want 2", inner.calls)
	}
}

func TestCachedEvicts(t *testing.T) {
	inner := &fixed{answers: map[string][]phoneme.Phoneme{"a": ps("A"), "b": ps("B")}}
	c, err := NewCached(inner, 1)
	if err != nil {
		t.Fatalf("NewCached: %v", err)
	}

	c.Resolve("a")
	c.Resolve("b")
	c.Resolve("a")
	if inner.calls != 3 {
		t.Errorf("inner resolver called %d times, want 3", inner.calls)
	}
}

func TestCachedReturnsCopy(t *testing.T) {
	inner := &fixed{answers: map[string][]phoneme.Phoneme{"a": ps("A", "B")}}
	c, _ := NewCached(inner, 4)

	got, _ := c.Resolve("a")
	got[0] = phoneme.Parse("Z")

	again, _ := c.Resolve("a")
	if phoneme.Render(again) != "[A][B]" {
		t.Errorf("cache mutated through returned slice: %q", phoneme.Render(again))
	}
}

func TestCachedDoesNotRememberInferenceErrors(t *testing.T) {
	fm := &fakeModel{vocab: "abls", maxIn: 10, fail: true}
	c, err := NewCached(NewModel(fm), 8)
	if err != nil {
		t.Fatalf("NewCached: %v", err)
	}

	if _, ok := c.Resolve("labas"); ok {
		t.Fatal("Resolve(labas) accepted while inference fails")
	}

	fm.fail = false
	got, ok := c.Resolve("labas")
	if !ok || phoneme.Render(got) != "[L][A][B][A][S]" {
		t.Fatalf("Resolve(labas) after recovery = %q, %v", phoneme.Render(got), ok)
	}
	c.Resolve("labas")
	if len(fm.inputs) != 2 {
		t.Errorf("model ran %d times, want 2", len(fm.inputs))
	}

	// Vocabulary declines stay cached.
	c.Resolve("xyz")
	c.Resolve("xyz")
	if len(fm.inputs) != 2 {
		t.Errorf("model ran %d times after declines, want 2", len(fm.inputs))
	}
}

func TestCachedInvalidSize(t *testing.T) {
	if _, err := NewCached(&fixed{}, 0); err == nil {
		t.Error("expected error for zero size")
	}
}

func TestCachedCloseForwards(t *testing.T) {
	inner := &fixed{}
	c, _ := NewCached(inner, 4)
	chain := NewChain(c, &DeadEnd{})
	if err := chain.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if inner.closed != 1 {
		t.Errorf("inner closed %d times, want 1", inner.closed)
	}
}
