package seq2seq

import (
	"fmt"
	"log/slog"
	"sync"
)

// Model couples a model definition with a Backend.
type Model struct {
	def     *ModelDef
	in      *IOMap
	out     *IOMap
	backend Backend

	closeOnce sync.Once
	closeErr  error
}

// NewModel wraps backend. def must come from LoadModelDef, or be prepared
// by PrepareModelDef, so the start and end tokens are already present.
func NewModel(def *ModelDef, backend Backend) (*Model, error) {
	out := NewIOMap(def.OutTokens)
	if !out.Contains(StartToken) || !out.Contains(EndToken) {
		return nil, fmt.Errorf("%w: output vocabulary lacks start/end tokens", ErrInvalidModelDef)
	}
	return &Model{
		def:     def,
		in:      NewIOMap(def.InTokens),
		out:     out,
		backend: backend,
	}, nil
}

// PrepareModelDef validates a definition built in code and appends the
// start and end tokens, as LoadModelDef does for files.
func PrepareModelDef(def *ModelDef) error {
	return def.prepare()
}

// Def returns the model definition.
func (m *Model) Def() *ModelDef {
	return m.def
}

// Accepts reports whether every token is in the input vocabulary and the
// sequence fits max_in_length.
func (m *Model) Accepts(tokens []string) bool {
	if len(tokens) == 0 || len(tokens) > m.def.MaxInLength {
		return false
	}
	for _, t := range tokens {
		if !m.in.Contains(t) {
			return false
		}
	}
	return true
}

// Infer encodes tokens once, then decodes autoregressively for at most
// max_out_length steps. The result excludes the start and end tokens.
func (m *Model) Infer(tokens []string) ([]string, error) {
	buf, err := m.in.Encode(tokens, m.def.MaxInLength)
	if err != nil {
		return nil, fmt.Errorf("seq2seq: encode input: %w", err)
	}
	input := Tensor{
		Shape: []int64{1, int64(m.def.MaxInLength), int64(m.in.Len())},
		Data:  buf,
	}

	states, err := m.backend.Encode(input)
	if err != nil {
		return nil, fmt.Errorf("seq2seq: encoder: %w", err)
	}

	symbols, finished, err := greedyDecode(m.backend, m.out, states, m.def.MaxOutLength)
	if err != nil {
		return nil, fmt.Errorf("seq2seq: decode: %w", err)
	}
	if !finished {
		slog.Warn("seq2seq: no end token within max_out_length", "model", m.def.Name, "input", tokens)
	}
	return symbols, nil
}

// Close releases the backend. It is safe to call more than once.
func (m *Model) Close() error {
	m.closeOnce.Do(func() {
		if m.backend != nil {
			m.closeErr = m.backend.Close()
		}
	})
	return m.closeErr
}
