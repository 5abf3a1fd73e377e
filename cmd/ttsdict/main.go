package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/chaz8081/ttsdict/internal/config"
	"github.com/chaz8081/ttsdict/internal/corpus"
	"github.com/chaz8081/ttsdict/internal/evaluate"
	"github.com/chaz8081/ttsdict/internal/models"
	"github.com/chaz8081/ttsdict/internal/resolve"
	"github.com/chaz8081/ttsdict/internal/seq2seq"
	"github.com/chaz8081/ttsdict/internal/server"
	"github.com/chaz8081/ttsdict/internal/training"
)

// maxMismatches is how many wrong words -eval prints.
const maxMismatches = 20

func main() {
	// CLI flags
	configPath := flag.String("config", "", "path to config file (default: ~/.config/ttsdict/config.yaml)")
	root := flag.String("root", "", "corpus root directory or file (overrides corpus.root)")
	out := flag.String("out", "", `output JSON path, "-" for stdout (overrides output.path)`)
	dict := flag.String("dict", "", "pronunciation dictionary (overrides resolvers.dictionary_path)")
	model := flag.String("model", "", "sequence model directory (overrides resolvers.model_dir)")
	initConfig := flag.Bool("init-config", false, "write the default config file and exit")
	fetchModel := flag.String("fetch-model", "", "install a model bundle from an http(s) URL or directory and exit")
	serve := flag.Bool("serve", false, "serve the phonemize preview API instead of processing a corpus")
	eval := flag.Bool("eval", false, "score the model resolver against the dictionary and exit")
	evalLimit := flag.Int("eval-limit", 0, "evaluate at most this many dictionary words (0 = all)")
	flag.Parse()

	if *initConfig {
		path, err := config.WriteDefault()
		if err != nil {
			log.Fatalf("config: %v", err)
		}
		if path == "" {
			fmt.Printf("Config already exists at %s\n", config.DefaultConfigPath())
		} else {
			fmt.Printf("Wrote default config to %s\n", path)
		}
		return
	}

	// Load configuration
	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	if *root != "" {
		cfg.Corpus.Root = *root
	}
	if *out != "" {
		cfg.Output.Path = *out
	}
	if *dict != "" {
		cfg.Resolvers.DictionaryPath = *dict
	}
	if *model != "" {
		cfg.Resolvers.ModelDir = *model
	}
	cfg.ExpandPaths()

	if err := cfg.Validate(); err != nil {
		log.Fatalf("config validation: %v", err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: config.ParseLogLevel(cfg.LogLevel),
	})))

	if *fetchModel != "" {
		dest := cfg.Resolvers.ModelDir
		if dest == "" {
			dest = config.DefaultModelDir()
		}
		if err := models.Fetch(*fetchModel, dest); err != nil {
			log.Fatalf("fetch model: %v", err)
		}
		return
	}

	var mode func(*config.Config, *resolve.Built) error
	switch {
	case *eval:
		mode = func(cfg *config.Config, b *resolve.Built) error { return runEval(b, *evalLimit) }
	case *serve:
		mode = runServer
	default:
		mode = runPipeline
	}

	if err := run(cfg, mode); err != nil {
		slog.Error("ttsdict failed", "error", err)
		os.Exit(1)
	}
}

// run builds the resolver chain, hands it to mode, and releases it.
func run(cfg *config.Config, mode func(*config.Config, *resolve.Built) error) error {
	printBanner(cfg)

	if cfg.Resolvers.ModelDir != "" {
		if err := seq2seq.InitRuntime(cfg.Resolvers.ONNXLibrary); err != nil {
			return fmt.Errorf("%w\n\nSet resolvers.onnx_library to the onnxruntime shared library", err)
		}
		defer seq2seq.ShutdownRuntime()
	}

	start := time.Now()
	built, err := resolve.New(&cfg.Resolvers)
	if err != nil {
		return err
	}
	defer built.Close()
	slog.Info("resolvers ready", "elapsed", time.Since(start).Round(time.Millisecond))

	return mode(cfg, built)
}

func runPipeline(cfg *config.Config, b *resolve.Built) error {
	if cfg.Corpus.Root == "" {
		return errors.New("no corpus root: set corpus.root or pass -root")
	}

	start := time.Now()
	entries, err := corpus.Collect(cfg.Corpus.Root,
		corpus.NewExtensions(cfg.Corpus.AudioExtensions...),
		corpus.NewExtensions(cfg.Corpus.TextExtensions...))
	if err != nil {
		return err
	}
	slog.Info("corpus collected", "entries", len(entries), "root", cfg.Corpus.Root)

	records, err := training.BuildAll(entries, b, training.Options{ProbeAudio: cfg.Output.ProbeAudio})
	if err != nil {
		return err
	}
	if err := training.Write(cfg.Output.Path, records); err != nil {
		return err
	}
	slog.Info("done", "entries", len(records), "elapsed", time.Since(start).Round(time.Millisecond))
	return nil
}

func runServer(cfg *config.Config, b *resolve.Built) error {
	// Signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	return server.New(b).Run(ctx, cfg.Server.Addr)
}

func runEval(b *resolve.Built, limit int) error {
	if b.Dictionary == nil || b.Model == nil {
		return errors.New("-eval needs both resolvers.dictionary_path and resolvers.model_dir")
	}

	start := time.Now()
	rep := evaluate.Run(b.Dictionary, b.Model, limit)

	fmt.Printf("Words:     %d\n", rep.Words)
	fmt.Printf("Exact:     %d (%.1f%%)\n", rep.Exact, rep.Accuracy()*100)
	fmt.Printf("Declined:  %d\n", rep.Declined)
	fmt.Printf("PER:       %.2f%% (S=%d I=%d D=%d over %d phonemes)\n",
		rep.PER*100, rep.Substitutions, rep.Insertions, rep.Deletions, rep.RefPhonemes)
	fmt.Printf("Elapsed:   %s\n", time.Since(start).Round(time.Millisecond))

	for i, m := range rep.Mismatches {
		if i == maxMismatches {
			fmt.Printf("  ... %d more\n", len(rep.Mismatches)-maxMismatches)
			break
		}
		got := m.Got
		if m.Declined {
			got = "(declined)"
		}
		fmt.Printf("  %-20s want %s\n  %-20s got  %s\n", m.Word, m.Want, "", got)
	}
	return nil
}

// loadConfig loads the config from the specified path, or falls back to
// the default config path, or uses built-in defaults.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}

	// Try default config path
	defaultPath := config.DefaultConfigPath()
	if _, err := os.Stat(defaultPath); err == nil {
		cfg, err := config.Load(defaultPath)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", defaultPath, err)
		}
		log.Printf("Config loaded from %s", defaultPath)
		return cfg, nil
	}

	// No config file, use defaults
	log.Println("No config file found, using defaults")
	return config.Default(), nil
}

// printBanner displays the startup configuration summary on stderr, since
// stdout may carry the JSON output.
func printBanner(cfg *config.Config) {
	or := func(s, fallback string) string {
		if s == "" {
			return fallback
		}
		return s
	}
	fmt.Fprintln(os.Stderr, "=== ttsdict ===")
	fmt.Fprintf(os.Stderr, "  Corpus:      %s\n", or(cfg.Corpus.Root, "(none)"))
	fmt.Fprintf(os.Stderr, "  Dictionary:  %s\n", or(cfg.Resolvers.DictionaryPath, "(none)"))
	fmt.Fprintf(os.Stderr, "  Model:       %s\n", or(cfg.Resolvers.ModelDir, "(none)"))
	fmt.Fprintf(os.Stderr, "  Output:      %s\n", cfg.Output.Path)
	fmt.Fprintf(os.Stderr, "  Log:         %s\n", cfg.LogLevel)
	fmt.Fprintln(os.Stderr, "===============")
}
