package corpus

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/chaz8081/ttsdict/internal/textdecode"
)

// ErrNamingCollision is returned when two audio files, or two transcript
// files, share a stem.
var ErrNamingCollision = errors.New("naming collision")

// Extensions is a case-insensitive set of file extensions without the dot.
type Extensions map[string]struct{}

// NewExtensions builds a set from names such as "wav" or ".WAV".
func NewExtensions(names ...string) Extensions {
	set := make(Extensions, len(names))
	for _, n := range names {
		n = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(n), "."))
		if n != "" {
			set[n] = struct{}{}
		}
	}
	return set
}

// Has reports whether ext is in the set, ignoring case.
func (e Extensions) Has(ext string) bool {
	_, ok := e[strings.ToLower(ext)]
	return ok
}

// Collect walks root breadth-first and pairs audio and transcript files by
// stem. A root that is a regular file is treated as a one-file tree.
// Only complete entries are returned, ordered by audio path.
func Collect(root string, audio, text Extensions) ([]Entry, error) {
	files, err := listFiles(root)
	if err != nil {
		return nil, fmt.Errorf("corpus: %w", err)
	}

	c := newCollector(audio, text)
	for _, f := range files {
		if err := c.visit(f); err != nil {
			return nil, fmt.Errorf("corpus: %w", err)
		}
	}
	return c.finish(), nil
}

// listFiles returns every non-directory path under root, visiting
// directories in breadth-first order and entries in name order. A directory
// reached a second time through a symlink is skipped.
func listFiles(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return []string{root}, nil
	}

	var files []string
	var visited []os.FileInfo
	queue := []string{root}
	for len(queue) > 0 {
		dir := queue[0]
		queue = queue[1:]

		info, err := os.Stat(dir)
		if err != nil {
			return nil, fmt.Errorf("stat directory: %w", err)
		}
		if seen(visited, info) {
			slog.Warn("corpus: directory already visited, skipping", "path", dir)
			continue
		}
		visited = append(visited, info)
		slog.Debug("corpus: visiting directory", "path", dir)

		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("reading directory: %w", err)
		}
		for _, e := range entries {
			p := filepath.Join(dir, e.Name())
			isDir := e.IsDir()
			if e.Type()&os.ModeSymlink != 0 {
				target, err := os.Stat(p)
				if err != nil {
					return nil, fmt.Errorf("resolving symlink: %w", err)
				}
				isDir = target.IsDir()
			}
			if isDir {
				queue = append(queue, p)
				continue
			}
			files = append(files, p)
		}
	}
	return files, nil
}

func seen(visited []os.FileInfo, info os.FileInfo) bool {
	for _, v := range visited {
		if os.SameFile(v, info) {
			return true
		}
	}
	return false
}

// collector accumulates entries keyed by stem. It is owned by a single
// Collect call.
type collector struct {
	audio   Extensions
	text    Extensions
	entries map[string]*Entry
}

func newCollector(audio, text Extensions) *collector {
	return &collector{
		audio:   audio,
		text:    text,
		entries: make(map[string]*Entry),
	}
}

func (c *collector) visit(path string) error {
	stem, ext := splitName(filepath.Base(path))

	e, ok := c.entries[stem]
	if !ok {
		e = &Entry{}
		c.entries[stem] = e
	}
	e.Name = stem
	e.ContainingDir = filepath.Dir(path)

	switch {
	case c.audio.Has(ext):
		if e.AudioPath != "" {
			return fmt.Errorf("%w: %q vs %q", ErrNamingCollision, e.AudioPath, path)
		}
		e.AudioPath = path
	case c.text.Has(ext):
		if e.TranscriptPath != "" {
			return fmt.Errorf("%w: %q vs %q", ErrNamingCollision, e.TranscriptPath, path)
		}
		e.TranscriptPath = path
		transcript, err := readTranscript(path)
		if err != nil {
			return err
		}
		e.Transcript = transcript
	default:
		// One unrecognized sibling invalidates the whole stem.
		slog.Warn("corpus: unknown file extension, dropping entry", "extension", ext, "path", path, "stem", stem)
		delete(c.entries, stem)
	}
	return nil
}

func (c *collector) finish() []Entry {
	result := make([]Entry, 0, len(c.entries))
	for _, e := range c.entries {
		if !e.Complete() {
			slog.Warn("corpus: incomplete entry",
				"name", e.Name,
				"dir", e.ContainingDir,
				"audio", e.AudioPath,
				"transcript", e.TranscriptPath)
			continue
		}
		result = append(result, *e)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].AudioPath < result[j].AudioPath })
	return result
}

func readTranscript(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading transcript: %w", err)
	}
	text, err := textdecode.Decode(data)
	if err != nil {
		return "", fmt.Errorf("decoding transcript %q: %w", path, err)
	}
	return text, nil
}

// splitName splits a base name into stem and extension (without the dot).
// Dot-files with no further dot have no extension.
func splitName(base string) (stem, ext string) {
	i := strings.LastIndexByte(base, '.')
	if i <= 0 {
		return base, ""
	}
	return base[:i], base[i+1:]
}
