// Package textdecode turns raw transcript bytes into text.
//
// Candidates are tried in a fixed order: strict UTF-8, then UTF-16 when a
// byte-order mark is present, then Windows-1257 over the whole buffer.
package textdecode

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	xunicode "golang.org/x/text/encoding/unicode"
)

// ErrUndecodable is returned when no candidate codec accepts the bytes.
var ErrUndecodable = errors.New("undecodable bytes")

var (
	bomLE = []byte{0xFF, 0xFE}
	bomBE = []byte{0xFE, 0xFF}
)

// Codec names reported in errors and logs.
const (
	CodecUTF8        = "UTF-8"
	CodecUTF16LE     = "UTF-16LE"
	CodecUTF16BE     = "UTF-16BE"
	CodecWindows1257 = "Windows-1257"
)

// DecodeError names the codec that failed last.
type DecodeError struct {
	Codec string
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to read bytes as %s: %v", e.Codec, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Decode converts b to a string, or returns a *DecodeError wrapping
// ErrUndecodable when the Windows-1257 fallback rejects it too.
func Decode(b []byte) (string, error) {
	if utf8.Valid(b) {
		return string(b), nil
	}
	slog.Debug("textdecode: not valid UTF-8, checking byte-order mark")

	switch {
	case bytes.HasPrefix(b, bomLE):
		s, err := decodeStrict(xunicode.UTF16(xunicode.LittleEndian, xunicode.IgnoreBOM), b[2:])
		if err == nil {
			return s, nil
		}
		slog.Debug("textdecode: UTF-16LE failed, falling back", "codec", CodecWindows1257, "err", err)
	case bytes.HasPrefix(b, bomBE):
		s, err := decodeStrict(xunicode.UTF16(xunicode.BigEndian, xunicode.IgnoreBOM), b[2:])
		if err == nil {
			return s, nil
		}
		slog.Debug("textdecode: UTF-16BE failed, falling back", "codec", CodecWindows1257, "err", err)
	default:
		slog.Debug("textdecode: no byte-order mark, falling back", "codec", CodecWindows1257)
	}

	s, err := decodeStrict(charmap.Windows1257, b)
	if err != nil {
		return "", &DecodeError{Codec: CodecWindows1257, Err: err}
	}
	return s, nil
}

// decodeStrict decodes b and rejects the result unless encoding it again
// reproduces b exactly. x/text substitutes U+FFFD for malformed input instead
// of failing, so the round trip is what makes the decode strict.
func decodeStrict(enc encoding.Encoding, b []byte) (string, error) {
	out, err := enc.NewDecoder().Bytes(b)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUndecodable, err)
	}
	back, err := enc.NewEncoder().Bytes(out)
	if err != nil || !bytes.Equal(back, b) {
		return "", fmt.Errorf("%w: malformed or unmapped input", ErrUndecodable)
	}
	return string(out), nil
}
