package seq2seq

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func writeModelDef(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ModelDefFile)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadModelDef(t *testing.T) {
	path := writeModelDef(t, `{
  "name": "g2p",
  "in_tokens": ["a", "b", "c"],
  "out_tokens": ["A", "B"],
  "max_in_length": 8,
  "max_out_length": 10
}`)

	def, err := LoadModelDef(path)
	if err != nil {
		t.Fatalf("LoadModelDef: %v", err)
	}
	if def.Name != "g2p" {
		t.Errorf("Name = %q, want g2p", def.Name)
	}
	wantOut := []string{"A", "B", StartToken, EndToken}
	if !slices.Equal(def.OutTokens, wantOut) {
		t.Errorf("OutTokens = %v, want %v", def.OutTokens, wantOut)
	}
	if def.Encoder.File != "encoder.onnx" || def.Decoder.File != "decoder.onnx" {
		t.Errorf("graph defaults not applied: %+v %+v", def.Encoder, def.Decoder)
	}
	if len(def.Decoder.Inputs) != 3 {
		t.Errorf("decoder inputs = %v, want 3 names", def.Decoder.Inputs)
	}
}

func TestLoadModelDefCustomGraphs(t *testing.T) {
	path := writeModelDef(t, `{
  "in_tokens": ["a"],
  "out_tokens": ["A"],
  "max_in_length": 4,
  "max_out_length": 4,
  "encoder": {"file": "enc.onnx", "inputs": ["x"], "outputs": ["h"]},
  "decoder": {"file": "dec.onnx", "inputs": ["y", "h_in"], "outputs": ["out", "h"]}
}`)

	def, err := LoadModelDef(path)
	if err != nil {
		t.Fatalf("LoadModelDef: %v", err)
	}
	if def.Encoder.File != "enc.onnx" || def.Decoder.Outputs[0] != "out" {
		t.Errorf("custom graphs overwritten: %+v %+v", def.Encoder, def.Decoder)
	}
}

func TestLoadModelDefInvalid(t *testing.T) {
	tests := map[string]string{
		"empty in_tokens":     `{"in_tokens": [], "out_tokens": ["A"], "max_in_length": 1, "max_out_length": 1}`,
		"empty out_tokens":    `{"in_tokens": ["a"], "out_tokens": [], "max_in_length": 1, "max_out_length": 1}`,
		"zero max_in_length":  `{"in_tokens": ["a"], "out_tokens": ["A"], "max_in_length": 0, "max_out_length": 1}`,
		"zero max_out_length": `{"in_tokens": ["a"], "out_tokens": ["A"], "max_in_length": 1, "max_out_length": 0}`,
		"duplicate token":     `{"in_tokens": ["a", "a"], "out_tokens": ["A"], "max_in_length": 1, "max_out_length": 1}`,
		"reserved token":      `{"in_tokens": ["a"], "out_tokens": ["A", "</s>"], "max_in_length": 1, "max_out_length": 1}`,
		"graph outside dir": `{"in_tokens": ["a"], "out_tokens": ["A"], "max_in_length": 1, "max_out_length": 1,
			"encoder": {"file": "../e.onnx", "inputs": ["x"], "outputs": ["h"]}}`,
		"absolute graph": `{"in_tokens": ["a"], "out_tokens": ["A"], "max_in_length": 1, "max_out_length": 1,
			"decoder": {"file": "/tmp/d.onnx", "inputs": ["y", "h_in", "c_in"], "outputs": ["o", "h", "c"]}}`,
		"state mismatch": `{"in_tokens": ["a"], "out_tokens": ["A"], "max_in_length": 1, "max_out_length": 1,
			"encoder": {"file": "e.onnx", "inputs": ["x"], "outputs": ["h", "c"]},
			"decoder": {"file": "d.onnx", "inputs": ["y", "h"], "outputs": ["o", "h"]}}`,
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadModelDef(writeModelDef(t, content))
			if !errors.Is(err, ErrInvalidModelDef) {
				t.Errorf("err = %v, want ErrInvalidModelDef", err)
			}
		})
	}
}

func TestLoadModelDefMissingAndMalformed(t *testing.T) {
	if _, err := LoadModelDef(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := LoadModelDef(writeModelDef(t, "{not json")); err == nil {
		t.Error("expected error for malformed JSON")
	}
}
