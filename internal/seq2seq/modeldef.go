// Package seq2seq runs a character-level sequence-to-sequence model as a
// two-phase encode-once, decode-iteratively loop.
//
// The inference engine sits behind the Backend interface; the ONNX Runtime
// implementation is in onnx.go.
package seq2seq

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Synthetic tokens appended to the output vocabulary after loading.
const (
	StartToken = "<s>"
	EndToken   = "</s>"
)

// ModelDefFile is the model definition file name inside a model directory.
const ModelDefFile = "model.json"

// ErrInvalidModelDef is returned for a model definition that cannot drive
// inference.
var ErrInvalidModelDef = errors.New("invalid model definition")

// GraphDef names one ONNX graph file and its ordered input/output tensors.
type GraphDef struct {
	File    string   `json:"file"`
	Inputs  []string `json:"inputs"`
	Outputs []string `json:"outputs"`
}

// ModelDef describes a sequence model's vocabularies and length limits.
type ModelDef struct {
	Name         string   `json:"name"`
	InTokens     []string `json:"in_tokens"`
	OutTokens    []string `json:"out_tokens"`
	MaxInLength  int      `json:"max_in_length"`
	MaxOutLength int      `json:"max_out_length"`

	Encoder GraphDef `json:"encoder"`
	Decoder GraphDef `json:"decoder"`
}

var (
	defaultEncoder = GraphDef{
		File:    "encoder.onnx",
		Inputs:  []string{"encoder_inputs"},
		Outputs: []string{"state_h", "state_c"},
	}
	defaultDecoder = GraphDef{
		File:    "decoder.onnx",
		Inputs:  []string{"decoder_inputs", "state_h_in", "state_c_in"},
		Outputs: []string{"decoder_outputs", "state_h", "state_c"},
	}
)

// LoadModelDef reads and validates a model definition, filling in default
// graph descriptors and appending the start and end tokens.
func LoadModelDef(path string) (*ModelDef, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading model definition: %w", err)
	}

	var def ModelDef
	if err := json.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("parsing model definition: %w", err)
	}
	if err := def.prepare(); err != nil {
		return nil, err
	}
	return &def, nil
}

// prepare validates def and completes it in place. It must run exactly once.
func (d *ModelDef) prepare() error {
	if len(d.InTokens) == 0 {
		return fmt.Errorf("%w: in_tokens is empty", ErrInvalidModelDef)
	}
	if len(d.OutTokens) == 0 {
		return fmt.Errorf("%w: out_tokens is empty", ErrInvalidModelDef)
	}
	if d.MaxInLength <= 0 || d.MaxOutLength <= 0 {
		return fmt.Errorf("%w: max_in_length and max_out_length must be > 0", ErrInvalidModelDef)
	}
	if err := checkUnique("in_tokens", d.InTokens); err != nil {
		return err
	}
	for _, tok := range d.OutTokens {
		if tok == StartToken || tok == EndToken {
			return fmt.Errorf("%w: out_tokens must not contain %q", ErrInvalidModelDef, tok)
		}
	}
	if err := checkUnique("out_tokens", d.OutTokens); err != nil {
		return err
	}
	d.OutTokens = append(d.OutTokens, StartToken, EndToken)

	if d.Encoder.File == "" {
		d.Encoder = defaultEncoder
	}
	if d.Decoder.File == "" {
		d.Decoder = defaultDecoder
	}
	for _, g := range []GraphDef{d.Encoder, d.Decoder} {
		if !filepath.IsLocal(filepath.FromSlash(g.File)) {
			return fmt.Errorf("%w: graph file %q must be a relative path inside the model directory", ErrInvalidModelDef, g.File)
		}
	}
	if len(d.Encoder.Inputs) != 1 || len(d.Encoder.Outputs) == 0 {
		return fmt.Errorf("%w: encoder needs one input and at least one state output", ErrInvalidModelDef)
	}
	states := len(d.Encoder.Outputs)
	if len(d.Decoder.Inputs) != states+1 || len(d.Decoder.Outputs) != states+1 {
		return fmt.Errorf("%w: decoder must take and return the step plus %d states", ErrInvalidModelDef, states)
	}
	return nil
}

func checkUnique(field string, tokens []string) error {
	seen := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		if _, dup := seen[tok]; dup {
			return fmt.Errorf("%w: duplicate token %q in %s", ErrInvalidModelDef, tok, field)
		}
		seen[tok] = struct{}{}
	}
	return nil
}
