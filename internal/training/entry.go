// Package training turns corpus entries into TTS training records.
package training

import (
	"encoding/json"

	"github.com/chaz8081/ttsdict/internal/audio"
	"github.com/chaz8081/ttsdict/internal/corpus"
	"github.com/chaz8081/ttsdict/internal/normalize"
	"github.com/chaz8081/ttsdict/internal/phoneme"
)

// Phonemizer converts word tokens to one phoneme sequence with separators
// between the words. *resolve.Chain implements it.
type Phonemizer interface {
	Phonemize(words []string) []phoneme.Phoneme
}

// Entry is one training record.
type Entry struct {
	Transcript string
	Phonemes   []phoneme.Phoneme
	AudioPath  string
	Audio      *audio.Info // nil unless audio probing is enabled
}

// Build normalizes the entry's transcript and resolves it to phonemes.
func Build(de corpus.Entry, p Phonemizer) Entry {
	text := normalize.Normalize(de.Transcript)
	return Entry{
		Transcript: text,
		Phonemes:   p.Phonemize(normalize.Words(text)),
		AudioPath:  de.AudioPath,
	}
}

type record struct {
	Transcript  string  `json:"transcript"`
	Phonemes    string  `json:"phonemes"`
	AudioPath   string  `json:"audio_path"`
	DurationSec float64 `json:"duration_sec,omitempty"`
	SampleRate  int     `json:"sample_rate,omitempty"`
	Channels    int     `json:"channels,omitempty"`
	Checksum    string  `json:"audio_blake2b,omitempty"`
}

// MarshalJSON renders the phonemes as a single display string.
func (e Entry) MarshalJSON() ([]byte, error) {
	r := record{
		Transcript: e.Transcript,
		Phonemes:   phoneme.Render(e.Phonemes),
		AudioPath:  e.AudioPath,
	}
	if e.Audio != nil {
		r.DurationSec = e.Audio.DurationSec
		r.SampleRate = e.Audio.SampleRate
		r.Channels = e.Audio.Channels
		r.Checksum = e.Audio.Checksum
	}
	return json.Marshal(r)
}
