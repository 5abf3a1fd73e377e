package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Corpus    CorpusConfig   `yaml:"corpus"`
	Resolvers ResolverConfig `yaml:"resolvers"`
	Output    OutputConfig   `yaml:"output"`
	Server    ServerConfig   `yaml:"server"`
	LogLevel  string         `yaml:"log_level"`
}

// CorpusConfig describes where the audio/transcript pairs live.
type CorpusConfig struct {
	Root            string   `yaml:"root"`
	AudioExtensions []string `yaml:"audio_extensions"`
	TextExtensions  []string `yaml:"text_extensions"`
}

// ResolverConfig selects the members of the resolver chain.
type ResolverConfig struct {
	DictionaryPath  string `yaml:"dictionary_path"`  // empty disables the dictionary resolver
	ModelDir        string `yaml:"model_dir"`        // empty disables the sequence-model resolver
	ONNXLibrary     string `yaml:"onnx_library"`     // path to libonnxruntime; empty uses the default lookup
	CacheSize       int    `yaml:"cache_size"`       // LRU entries for model results; 0 disables caching
	SuggestSpelling bool   `yaml:"suggest_spelling"` // report the closest dictionary word for unresolved tokens
}

// OutputConfig controls where training entries are written.
type OutputConfig struct {
	Path       string `yaml:"path"` // "-" writes to stdout
	ProbeAudio bool   `yaml:"probe_audio"`
}

// ServerConfig holds the preview server settings.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// DefaultConfigDir returns the default config directory path.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "ttsdict")
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// DefaultModelDir returns where -fetch-model installs a model when
// resolvers.model_dir is not set.
func DefaultModelDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "share", "ttsdict", "models", "g2p")
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Corpus: CorpusConfig{
			AudioExtensions: []string{"wav"},
			TextExtensions:  []string{"txt"},
		},
		Resolvers: ResolverConfig{
			CacheSize: 4096,
		},
		Output: OutputConfig{
			Path: "-",
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8080",
		},
		LogLevel: "info",
	}
}

// Load reads and parses a YAML config file. Missing fields are filled
// with defaults. Tilde (~) in path fields is expanded to the user's home directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.ExpandPaths()

	return cfg, nil
}

// ExpandPaths expands a leading ~ in every path field. Flags that override
// paths after Load should call it again.
func (c *Config) ExpandPaths() {
	c.Corpus.Root = expandTilde(c.Corpus.Root)
	c.Resolvers.DictionaryPath = expandTilde(c.Resolvers.DictionaryPath)
	c.Resolvers.ModelDir = expandTilde(c.Resolvers.ModelDir)
	c.Resolvers.ONNXLibrary = expandTilde(c.Resolvers.ONNXLibrary)
	if c.Output.Path != "-" {
		c.Output.Path = expandTilde(c.Output.Path)
	}
}

// Validate checks the config for invalid values.
func (c *Config) Validate() error {
	if len(c.Corpus.AudioExtensions) == 0 {
		return fmt.Errorf("corpus.audio_extensions must not be empty")
	}
	if len(c.Corpus.TextExtensions) == 0 {
		return fmt.Errorf("corpus.text_extensions must not be empty")
	}

	audio := make(map[string]bool, len(c.Corpus.AudioExtensions))
	for _, ext := range c.Corpus.AudioExtensions {
		if err := checkExtension("corpus.audio_extensions", ext); err != nil {
			return err
		}
		audio[strings.ToLower(ext)] = true
	}
	for _, ext := range c.Corpus.TextExtensions {
		if err := checkExtension("corpus.text_extensions", ext); err != nil {
			return err
		}
		if audio[strings.ToLower(ext)] {
			return fmt.Errorf("extension %q is listed as both audio and text", ext)
		}
	}

	if c.Resolvers.CacheSize < 0 {
		return fmt.Errorf("resolvers.cache_size must be >= 0, got %d", c.Resolvers.CacheSize)
	}

	if c.Output.Path == "" {
		return fmt.Errorf("output.path must not be empty (use \"-\" for stdout)")
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be debug, info, warn, or error, got %q", c.LogLevel)
	}

	return nil
}

func checkExtension(field, ext string) error {
	if ext == "" {
		return fmt.Errorf("%s: empty extension", field)
	}
	if strings.ContainsAny(ext, ". \t\r\n") {
		return fmt.Errorf("%s: extension %q must not contain a dot or whitespace", field, ext)
	}
	return nil
}

// ParseLogLevel maps a config log level to a slog.Level. Unknown values map
// to info.
func ParseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

const defaultHeader = `# ttsdict configuration
#
# corpus.root:               directory (or single file) holding audio/transcript pairs
# resolvers.dictionary_path: pronunciation dictionary, one "word PHONEMES..." per line
# resolvers.model_dir:       sequence model bundle (model.json + encoder/decoder .onnx)
# output.path:               "-" for stdout, otherwise a JSON file written atomically

`

// WriteDefault writes the default config to DefaultConfigPath if no file
// exists there. It returns the path written, or "" if a file already existed.
func WriteDefault() (string, error) {
	path := DefaultConfigPath()
	if path == "config.yaml" {
		return "", fmt.Errorf("cannot determine home directory")
	}

	if _, err := os.Stat(path); err == nil {
		return "", nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("checking config file: %w", err)
	}

	body, err := yaml.Marshal(Default())
	if err != nil {
		return "", fmt.Errorf("encoding default config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("creating config dir: %w", err)
	}
	if err := os.WriteFile(path, append([]byte(defaultHeader), body...), 0644); err != nil {
		return "", fmt.Errorf("writing config file: %w", err)
	}
	return path, nil
}

// expandTilde replaces a leading ~ with the user's home directory.
func expandTilde(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
