package training

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/chaz8081/ttsdict/internal/audio"
	"github.com/chaz8081/ttsdict/internal/corpus"
)

// Options controls BuildAll.
type Options struct {
	ProbeAudio bool
}

// BuildAll builds a record for every corpus entry. Entries are consumed in
// order; resolution is sequential.
func BuildAll(entries []corpus.Entry, p Phonemizer, opts Options) ([]Entry, error) {
	out := make([]Entry, 0, len(entries))
	for _, de := range entries {
		e := Build(de, p)
		if opts.ProbeAudio {
			info, err := audio.Probe(e.AudioPath)
			if err != nil {
				return nil, fmt.Errorf("training: %w", err)
			}
			e.Audio = info
		}
		out = append(out, e)
	}
	return out, nil
}

// Encode writes entries to w as an indented JSON array, sorted by audio path.
func Encode(w io.Writer, entries []Entry) error {
	sorted := slices.Clone(entries)
	slices.SortStableFunc(sorted, func(a, b Entry) int {
		return strings.Compare(a.AudioPath, b.AudioPath)
	})
	if sorted == nil {
		sorted = []Entry{}
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(sorted); err != nil {
		return fmt.Errorf("training: encode: %w", err)
	}
	return nil
}

// Write encodes entries to path, or to stdout when path is "-". Files are
// written to a temp file first and renamed into place.
func Write(path string, entries []Entry) error {
	if path == "-" {
		w := bufio.NewWriter(os.Stdout)
		if err := Encode(w, entries); err != nil {
			return err
		}
		return w.Flush()
	}

	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("training: creating temp file: %w", err)
	}

	w := bufio.NewWriter(f)
	err = Encode(w, entries)
	if err == nil {
		err = w.Flush()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("training: writing %s: %w", path, err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("training: moving output file: %w", err)
	}
	slog.Info("training: wrote entries", "path", filepath.Clean(path), "count", len(entries))
	return nil
}
