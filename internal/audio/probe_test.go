package audio

import (
	"encoding/hex"
	"math"
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"golang.org/x/crypto/blake2b"
)

// writeWAV writes n samples of a 440Hz tone as 16-bit mono PCM.
func writeWAV(t *testing.T, path string, sampleRate, n int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	data := make([]int, n)
	for i := range data {
		data[i] = int(math.Sin(2*math.Pi*440*float64(i)/float64(sampleRate)) * 16000)
	}

	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	buf := &goaudio.IntBuffer{
		Data:           data,
		Format:         &goaudio.Format{SampleRate: sampleRate, NumChannels: 1},
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("encode WAV: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close encoder: %v", err)
	}
}

func checksum(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func TestProbeWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")
	writeWAV(t, path, 16000, 8000)

	info, err := Probe(path)
	if err != nil {
		t.Fatalf("Probe() error = %v", err)
	}
	if !info.IsWAV() {
		t.Fatal("IsWAV() = false for a WAV file")
	}
	if info.SampleRate != 16000 {
		t.Errorf("SampleRate = %d, want 16000", info.SampleRate)
	}
	if info.Channels != 1 {
		t.Errorf("Channels = %d, want 1", info.Channels)
	}
	if info.BitDepth != 16 {
		t.Errorf("BitDepth = %d, want 16", info.BitDepth)
	}
	if math.Abs(info.DurationSec-0.5) > 0.01 {
		t.Errorf("DurationSec = %f, want ~0.5", info.DurationSec)
	}
	if want := checksum(t, path); info.Checksum != want {
		t.Errorf("Checksum = %s, want %s", info.Checksum, want)
	}
}

func TestProbeNonWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.flac")
	if err := os.WriteFile(path, []byte("fLaC not really"), 0644); err != nil {
		t.Fatal(err)
	}

	info, err := Probe(path)
	if err != nil {
		t.Fatalf("Probe() error = %v", err)
	}
	if info.IsWAV() {
		t.Errorf("IsWAV() = true for non-WAV data: %+v", info)
	}
	if want := checksum(t, path); info.Checksum != want {
		t.Errorf("Checksum = %s, want %s", info.Checksum, want)
	}
}

func TestProbeMissing(t *testing.T) {
	if _, err := Probe(filepath.Join(t.TempDir(), "missing.wav")); err == nil {
		t.Error("Probe() should fail for a missing file")
	}
}
