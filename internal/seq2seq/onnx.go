package seq2seq

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"

	ort "github.com/yalue/onnxruntime_go"
)

// InitRuntime loads the ONNX Runtime shared library and initializes the
// environment. An empty libPath uses the library's default lookup. Calling it
// again after a successful init is a no-op.
func InitRuntime(libPath string) error {
	if ort.IsInitialized() {
		return nil
	}
	if libPath != "" {
		ort.SetSharedLibraryPath(libPath)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("seq2seq: initialize onnxruntime: %w", err)
	}
	slog.Debug("seq2seq: onnxruntime initialized", "library", libPath)
	return nil
}

// ShutdownRuntime tears the ONNX Runtime environment down. Every session
// must be closed first.
func ShutdownRuntime() error {
	if !ort.IsInitialized() {
		return nil
	}
	if err := ort.DestroyEnvironment(); err != nil {
		return fmt.Errorf("seq2seq: destroy onnxruntime: %w", err)
	}
	return nil
}

// Load reads model.json from dir and opens its encoder and decoder graphs
// with ONNX Runtime. InitRuntime must have succeeded. The caller must call
// Close() when done.
func Load(dir string) (*Model, error) {
	def, err := LoadModelDef(filepath.Join(dir, ModelDefFile))
	if err != nil {
		return nil, fmt.Errorf("seq2seq: %w", err)
	}

	backend, err := newONNXBackend(dir, def)
	if err != nil {
		return nil, fmt.Errorf("seq2seq: %w", err)
	}

	m, err := NewModel(def, backend)
	if err != nil {
		backend.Close()
		return nil, err
	}
	slog.Debug("seq2seq: model loaded",
		"name", def.Name,
		"in_tokens", len(def.InTokens),
		"out_tokens", len(def.OutTokens),
		"max_in", def.MaxInLength,
		"max_out", def.MaxOutLength)
	return m, nil
}

// onnxBackend runs the encoder and decoder graphs as dynamic sessions, so
// output tensors are allocated by the runtime on every run.
type onnxBackend struct {
	encoder *ort.DynamicAdvancedSession
	decoder *ort.DynamicAdvancedSession
	states  int
}

var _ Backend = (*onnxBackend)(nil)

func newONNXBackend(dir string, def *ModelDef) (*onnxBackend, error) {
	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("session options: %w", err)
	}
	defer options.Destroy()

	options.SetGraphOptimizationLevel(ort.GraphOptimizationLevelEnableAll)
	options.SetLogSeverityLevel(ort.LoggingLevelWarning)
	// One word at a time; a couple of threads is plenty.
	threads := 2
	if runtime.NumCPU() < 2 {
		threads = 1
	}
	options.SetIntraOpNumThreads(threads)
	options.SetInterOpNumThreads(1)

	encoder, err := ort.NewDynamicAdvancedSession(
		filepath.Join(dir, def.Encoder.File), def.Encoder.Inputs, def.Encoder.Outputs, options)
	if err != nil {
		return nil, fmt.Errorf("load encoder %q: %w", def.Encoder.File, err)
	}

	decoder, err := ort.NewDynamicAdvancedSession(
		filepath.Join(dir, def.Decoder.File), def.Decoder.Inputs, def.Decoder.Outputs, options)
	if err != nil {
		encoder.Destroy()
		return nil, fmt.Errorf("load decoder %q: %w", def.Decoder.File, err)
	}

	return &onnxBackend{
		encoder: encoder,
		decoder: decoder,
		states:  len(def.Encoder.Outputs),
	}, nil
}

// Encode runs the encoder graph once.
func (b *onnxBackend) Encode(input Tensor) ([]Tensor, error) {
	in, err := ort.NewTensor(ort.NewShape(input.Shape...), input.Data)
	if err != nil {
		return nil, fmt.Errorf("create encoder input tensor: %w", err)
	}
	defer in.Destroy()

	outputs := make([]ort.Value, b.states)
	if err := b.encoder.Run([]ort.Value{in}, outputs); err != nil {
		return nil, fmt.Errorf("run encoder: %w", err)
	}
	return copyOutputs(outputs)
}

// Decode runs the decoder graph for one step.
func (b *onnxBackend) Decode(step Tensor, states []Tensor) (Tensor, []Tensor, error) {
	if len(states) != b.states {
		return Tensor{}, nil, fmt.Errorf("got %d states, decoder wants %d", len(states), b.states)
	}

	inputs := make([]ort.Value, 0, len(states)+1)
	defer func() {
		for _, v := range inputs {
			v.Destroy()
		}
	}()

	stepTensor, err := ort.NewTensor(ort.NewShape(step.Shape...), step.Data)
	if err != nil {
		return Tensor{}, nil, fmt.Errorf("create step tensor: %w", err)
	}
	inputs = append(inputs, stepTensor)
	for i, s := range states {
		t, err := ort.NewTensor(ort.NewShape(s.Shape...), s.Data)
		if err != nil {
			return Tensor{}, nil, fmt.Errorf("create state tensor %d: %w", i, err)
		}
		inputs = append(inputs, t)
	}

	outputs := make([]ort.Value, b.states+1)
	if err := b.decoder.Run(inputs, outputs); err != nil {
		return Tensor{}, nil, fmt.Errorf("run decoder: %w", err)
	}
	copied, err := copyOutputs(outputs)
	if err != nil {
		return Tensor{}, nil, err
	}
	return copied[0], copied[1:], nil
}

// Close destroys both sessions. It is safe to call more than once.
func (b *onnxBackend) Close() error {
	if b.encoder != nil {
		b.encoder.Destroy()
		b.encoder = nil
	}
	if b.decoder != nil {
		b.decoder.Destroy()
		b.decoder = nil
	}
	return nil
}

// copyOutputs copies runtime-allocated outputs into Go memory and destroys
// them.
func copyOutputs(values []ort.Value) ([]Tensor, error) {
	defer func() {
		for _, v := range values {
			if v != nil {
				v.Destroy()
			}
		}
	}()

	result := make([]Tensor, len(values))
	for i, v := range values {
		t, ok := v.(*ort.Tensor[float32])
		if !ok {
			return nil, fmt.Errorf("output %d is %T, want float32 tensor", i, v)
		}
		shape := t.GetShape()
		result[i] = Tensor{
			Shape: append([]int64(nil), shape...),
			Data:  append([]float32(nil), t.GetData()...),
		}
	}
	return result, nil
}
