package seq2seq

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

// scriptedBackend emits a fixed symbol sequence, one per decoder step, and
// falls back to repeating the last entry once the script runs out.
type scriptedBackend struct {
	out    *IOMap
	script []string

	encodeCalls int
	decodeCalls int
	inputShape  []int64
	fedBack     []string
	closed      int
	encodeErr   error
	decodeErr   error
}

func (b *scriptedBackend) Encode(input Tensor) ([]Tensor, error) {
	b.encodeCalls++
	b.inputShape = input.Shape
	if b.encodeErr != nil {
		return nil, b.encodeErr
	}
	return []Tensor{
		{Shape: []int64{1, 4}, Data: make([]float32, 4)},
		{Shape: []int64{1, 4}, Data: make([]float32, 4)},
	}, nil
}

func (b *scriptedBackend) Decode(step Tensor, states []Tensor) (Tensor, []Tensor, error) {
	if b.decodeErr != nil {
		return Tensor{}, nil, b.decodeErr
	}
	fed, _ := b.out.DecodeStep(step.Data)
	b.fedBack = append(b.fedBack, fed)

	i := b.decodeCalls
	if i >= len(b.script) {
		i = len(b.script) - 1
	}
	b.decodeCalls++

	res, err := b.out.OneHot(b.script[i])
	if err != nil {
		return Tensor{}, nil, err
	}
	return Tensor{Shape: []int64{1, 1, int64(len(res))}, Data: res}, states, nil
}

func (b *scriptedBackend) Close() error {
	b.closed++
	return nil
}

func testDef(t *testing.T, maxOut int) *ModelDef {
	t.Helper()
	def := &ModelDef{
		Name:         "test",
		InTokens:     []string{"a", "b", "c"},
		OutTokens:    []string{"A", "B", "C"},
		MaxInLength:  4,
		MaxOutLength: maxOut,
	}
	if err := PrepareModelDef(def); err != nil {
		t.Fatalf("PrepareModelDef: %v", err)
	}
	return def
}

func newTestModel(t *testing.T, maxOut int, script ...string) (*Model, *scriptedBackend) {
	t.Helper()
	def := testDef(t, maxOut)
	b := &scriptedBackend{out: NewIOMap(def.OutTokens), script: script}
	m, err := NewModel(def, b)
	if err != nil {
		t.Fatalf("NewModel: %v", err)
	}
	return m, b
}

func TestInferStopsAtEndToken(t *testing.T) {
	m, b := newTestModel(t, 10, "B", "A", "C", EndToken)

	got, err := m.Infer([]string{"a", "b"})
	if err != nil {
		t.Fatalf("Infer: %v", err)
	}
	want := []string{"B", "A", "C"}
	if !slices.Equal(got, want) {
		t.Errorf("Infer = %v, want %v", got, want)
	}
	if b.encodeCalls != 1 {
		t.Errorf("encoder ran %d times, want 1", b.encodeCalls)
	}
	if b.decodeCalls != 4 {
		t.Errorf("decoder ran %d times, want 4", b.decodeCalls)
	}
	wantShape := []int64{1, 4, 3}
	if !slices.Equal(b.inputShape, wantShape) {
		t.Errorf("encoder input shape = %v, want %v", b.inputShape, wantShape)
	}
	// The decoder sees the start token first, then its own previous outputs.
	wantFed := []string{StartToken, "B", "A", "C"}
	if !slices.Equal(b.fedBack, wantFed) {
		t.Errorf("fed back = %v, want %v", b.fedBack, wantFed)
	}
}

func TestInferImmediateEnd(t *testing.T) {
	m, _ := newTestModel(t, 10, EndToken)
	got, err := m.Infer([]string{"c"})
	if err != nil {
		t.Fatalf("Infer: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Infer = %v, want empty", got)
	}
}

func TestInferLengthBound(t *testing.T) {
	// Never emits the end token.
	m, b := newTestModel(t, 5, "A")

	got, err := m.Infer([]string{"a"})
	if err != nil {
		t.Fatalf("Infer: %v", err)
	}
	if len(got) != 5 {
		t.Errorf("got %d symbols, want 5", len(got))
	}
	if b.decodeCalls != 5 {
		t.Errorf("decoder ran %d times, want 5", b.decodeCalls)
	}
}

func TestInferBackendErrors(t *testing.T) {
	boom := errors.New("boom")

	m, b := newTestModel(t, 5, EndToken)
	b.encodeErr = boom
	if _, err := m.Infer([]string{"a"}); !errors.Is(err, boom) {
		t.Errorf("encoder error = %v, want boom", err)
	}

	m, b = newTestModel(t, 5, EndToken)
	b.decodeErr = boom
	if _, err := m.Infer([]string{"a"}); !errors.Is(err, boom) {
		t.Errorf("decoder error = %v, want boom", err)
	}
}

func TestInferTooLong(t *testing.T) {
	m, _ := newTestModel(t, 5, EndToken)
	if _, err := m.Infer([]string{"a", "b", "c", "a", "b"}); err == nil {
		t.Error("expected error for input longer than max_in_length")
	}
}

func TestAccepts(t *testing.T) {
	m, _ := newTestModel(t, 5, EndToken)

	tests := []struct {
		tokens []string
		want   bool
	}{
		{[]string{"a", "b"}, true},
		{[]string{"a", "b", "c", "a"}, true},
		{[]string{"a", "b", "c", "a", "b"}, false},
		{[]string{"a", "z"}, false},
		{nil, false},
	}
	for _, tt := range tests {
		if got := m.Accepts(tt.tokens); got != tt.want {
			t.Errorf("Accepts(%v) = %v, want %v", tt.tokens, got, tt.want)
		}
	}
}

func TestNewModelRequiresSyntheticTokens(t *testing.T) {
	def := &ModelDef{
		InTokens:     []string{"a"},
		OutTokens:    []string{"A"},
		MaxInLength:  1,
		MaxOutLength: 1,
	}
	if _, err := NewModel(def, &scriptedBackend{}); !errors.Is(err, ErrInvalidModelDef) {
		t.Errorf("err = %v, want ErrInvalidModelDef", err)
	}
}

func TestModelCloseOnce(t *testing.T) {
	m, b := newTestModel(t, 5, EndToken)
	if err := m.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if b.closed != 1 {
		t.Errorf("backend closed %d times, want 1", b.closed)
	}
}

func TestLoadONNX(t *testing.T) {
	dir := filepath.Join("..", "..", "testdata", "g2p")
	if _, err := os.Stat(filepath.Join(dir, ModelDefFile)); err != nil {
		t.Skipf("model not found at %s, skipping", dir)
	}
	if err := InitRuntime(os.Getenv("ONNXRUNTIME_LIB")); err != nil {
		t.Skipf("onnxruntime unavailable: %v", err)
	}

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer m.Close()

	word := []string{m.Def().InTokens[0]}
	out, err := m.Infer(word)
	if err != nil {
		t.Fatalf("Infer: %v", err)
	}
	if len(out) > m.Def().MaxOutLength {
		t.Errorf("got %d symbols, bound is %d", len(out), m.Def().MaxOutLength)
	}
	t.Logf("%v -> %v", word, out)
}
