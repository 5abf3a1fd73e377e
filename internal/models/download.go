// Package models installs sequence model bundles for the model resolver.
package models

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/chaz8081/ttsdict/internal/seq2seq"
)

// Fetch installs the model bundle at source into destDir. source is either
// an http(s) base URL serving model.json and the graph files, or a local
// directory. A destDir holding a valid model.json and every graph file it
// names is already installed and nothing is fetched. A failed fetch removes
// model.json so the next Fetch starts over.
func Fetch(source, destDir string) error {
	if installed(destDir) {
		fmt.Printf("  Model already exists: %s\n", destDir)
		return nil
	}

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return fmt.Errorf("creating model dir: %w", err)
	}

	fetch := fetchLocal
	if isURL(source) {
		fetch = fetchHTTP
	}
	if err := fetch(source, destDir); err != nil {
		os.Remove(filepath.Join(destDir, seq2seq.ModelDefFile))
		return err
	}
	return nil
}

// installed reports whether destDir holds a complete model bundle.
func installed(destDir string) bool {
	files, err := graphFiles(destDir)
	if err != nil {
		return false
	}
	for _, name := range files {
		if _, err := os.Stat(filepath.Join(destDir, filepath.FromSlash(name))); err != nil {
			return false
		}
	}
	return true
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// graphFiles reads the installed model.json and returns the graph files it
// references.
func graphFiles(destDir string) ([]string, error) {
	def, err := seq2seq.LoadModelDef(filepath.Join(destDir, seq2seq.ModelDefFile))
	if err != nil {
		return nil, err
	}
	return []string{def.Encoder.File, def.Decoder.File}, nil
}

func fetchHTTP(base, destDir string) error {
	fmt.Printf("  Downloading model from %s\n", base)
	fmt.Printf("  Destination: %s\n", destDir)

	if err := downloadFile(base, seq2seq.ModelDefFile, destDir); err != nil {
		return err
	}
	files, err := graphFiles(destDir)
	if err != nil {
		return fmt.Errorf("downloaded model definition: %w", err)
	}
	for _, name := range files {
		if err := downloadFile(base, name, destDir); err != nil {
			return err
		}
	}

	fmt.Printf("  Model installed successfully.\n")
	return nil
}

// downloadFile fetches base/name into destDir/name through a temp file.
func downloadFile(base, name, destDir string) error {
	u, err := url.Parse(base)
	if err != nil {
		return fmt.Errorf("parsing model URL: %w", err)
	}
	u.Path = path.Join(u.Path, name)

	resp, err := http.Get(u.String()) //nolint:gosec // URL comes from the operator
	if err != nil {
		return fmt.Errorf("downloading %s: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("downloading %s: HTTP %d", name, resp.StatusCode)
	}

	// Write to temp file first, then rename (atomic)
	destPath := filepath.Join(destDir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return fmt.Errorf("creating dir for %s: %w", name, err)
	}
	tmpPath := destPath + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}

	pr := &progressWriter{
		writer: f,
		total:  resp.ContentLength,
		label:  name,
	}

	written, err := io.Copy(pr, resp.Body)
	f.Close()
	if err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing %s: %w", name, err)
	}

	fmt.Printf("\n  Downloaded %s (%.1f MB)\n", name, float64(written)/(1024*1024))

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("moving %s: %w", name, err)
	}
	return nil
}

func fetchLocal(srcDir, destDir string) error {
	info, err := os.Stat(srcDir)
	if err != nil {
		return fmt.Errorf("model source: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("model source %s is not a directory or URL", srcDir)
	}

	fmt.Printf("  Copying model from %s to %s...\n", srcDir, destDir)

	if err := copyFile(filepath.Join(srcDir, seq2seq.ModelDefFile), filepath.Join(destDir, seq2seq.ModelDefFile)); err != nil {
		return fmt.Errorf("copying %s: %w", seq2seq.ModelDefFile, err)
	}
	files, err := graphFiles(destDir)
	if err != nil {
		return fmt.Errorf("model definition: %w", err)
	}
	for _, name := range files {
		name = filepath.FromSlash(name)
		if err := copyFileOrDir(filepath.Join(srcDir, name), filepath.Join(destDir, name)); err != nil {
			return fmt.Errorf("copying %s: %w", name, err)
		}
	}

	fmt.Printf("  Model installed successfully.\n")
	return nil
}

// copyFileOrDir copies a file or directory recursively.
func copyFileOrDir(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}

	if info.IsDir() {
		return copyDir(src, dst)
	}
	return copyFile(src, dst)
}

func copyDir(src, dst string) error {
	if err := os.MkdirAll(dst, 0755); err != nil {
		return err
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())
		if err := copyFileOrDir(srcPath, dstPath); err != nil {
			return err
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}

// progressWriter wraps an io.Writer and prints download progress.
type progressWriter struct {
	writer  io.Writer
	total   int64
	written int64
	label   string
}

func (pw *progressWriter) Write(p []byte) (int, error) {
	n, err := pw.writer.Write(p)
	pw.written += int64(n)
	if pw.total > 0 {
		pct := float64(pw.written) / float64(pw.total) * 100
		fmt.Printf("\r  %s: %.1f MB / %.1f MB (%.0f%%)",
			pw.label,
			float64(pw.written)/(1024*1024),
			float64(pw.total)/(1024*1024),
			pct)
	} else {
		fmt.Printf("\r  %s: %.1f MB downloaded",
			pw.label,
			float64(pw.written)/(1024*1024))
	}
	return n, err
}
