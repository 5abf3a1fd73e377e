package seq2seq

import (
	"fmt"
	"log/slog"
)

// Tensor is a dense float32 tensor in row-major order.
type Tensor struct {
	Shape []int64
	Data  []float32
}

// Backend runs the encoder and decoder stages of a sequence model.
//
// Encode runs once per input sequence and returns the initial decoder
// states. Decode runs one step: it takes the previous one-hot output and the
// current states and returns the output activations plus the next states.
type Backend interface {
	Encode(input Tensor) ([]Tensor, error)
	Decode(step Tensor, states []Tensor) (Tensor, []Tensor, error)
	Close() error
}

// greedyDecode feeds the start token to the decoder and keeps feeding back
// its own argmax output until the end token appears or maxSteps decoder
// runs have happened. The returned symbols exclude the start and end tokens;
// finished is false when the length bound cut decoding short.
func greedyDecode(b Backend, out *IOMap, states []Tensor, maxSteps int) (symbols []string, finished bool, err error) {
	width := out.Len()
	last, err := out.OneHot(StartToken)
	if err != nil {
		return nil, false, fmt.Errorf("encoding start token: %w", err)
	}

	for step := 0; step < maxSteps; step++ {
		res, next, err := b.Decode(Tensor{Shape: []int64{1, 1, int64(width)}, Data: last}, states)
		if err != nil {
			return nil, false, fmt.Errorf("decoder step %d: %w", step, err)
		}
		if len(res.Data) < width {
			return nil, false, fmt.Errorf("decoder step %d: output has %d values, want %d", step, len(res.Data), width)
		}

		// Only the newest step matters when the decoder returns a sequence.
		sym, err := out.DecodeStep(res.Data[len(res.Data)-width:])
		if err != nil {
			return nil, false, fmt.Errorf("decoder step %d: %w", step, err)
		}
		if sym == EndToken {
			return symbols, true, nil
		}
		symbols = append(symbols, sym)

		if last, err = out.OneHot(sym); err != nil {
			return nil, false, fmt.Errorf("decoder step %d: %w", step, err)
		}
		states = next
	}

	slog.Debug("seq2seq: output length bound reached", "max_steps", maxSteps, "symbols", len(symbols))
	return symbols, false, nil
}
