// Package audio reads metadata from the audio files a corpus references.
package audio

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/wav"
	"golang.org/x/crypto/blake2b"
)

// Info describes one audio file. The format fields are zero for files that
// are not PCM WAV.
type Info struct {
	DurationSec float64
	SampleRate  int
	Channels    int
	BitDepth    int
	Checksum    string // hex BLAKE2b-256 of the file contents
}

// IsWAV reports whether the format fields are populated.
func (i *Info) IsWAV() bool {
	return i.SampleRate > 0
}

// Probe checksums the file at path and, if it is a PCM WAV file, reads its
// format and duration.
func Probe(path string) (*Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("audio: open %s: %w", path, err)
	}
	defer f.Close()

	h, err := blake2b.New256(nil)
	if err != nil {
		return nil, fmt.Errorf("audio: blake2b: %w", err)
	}
	if _, err := io.Copy(h, f); err != nil {
		return nil, fmt.Errorf("audio: read %s: %w", path, err)
	}
	info := &Info{Checksum: hex.EncodeToString(h.Sum(nil))}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("audio: seek %s: %w", path, err)
	}
	if !wav.NewDecoder(f).IsValidFile() {
		return info, nil
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("audio: seek %s: %w", path, err)
	}
	dec := wav.NewDecoder(f)
	if err := dec.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("audio: read WAV data chunk %s: %w", path, err)
	}

	info.SampleRate = int(dec.SampleRate)
	info.Channels = int(dec.NumChans)
	info.BitDepth = int(dec.BitDepth)

	bytesPerSec := int64(dec.SampleRate) * int64(dec.NumChans) * int64(dec.BitDepth) / 8
	if bytesPerSec > 0 {
		info.DurationSec = float64(dec.PCMLen()) / float64(bytesPerSec)
	}
	return info, nil
}
