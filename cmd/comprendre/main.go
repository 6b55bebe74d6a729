package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"

	"comprendre/internal/chunker"
	"comprendre/internal/config"
	"comprendre/internal/domain"
	embgemini "comprendre/internal/embedding/gemini"
	"comprendre/internal/embedding/tfidf"
	gengemini "comprendre/internal/generation/gemini"
	"comprendre/internal/kb"
	"comprendre/internal/profile"
	"comprendre/internal/service"
	"comprendre/internal/tui"
	"comprendre/internal/vectorstore/memory"
)

func main() {
	_ = godotenv.Load()

	var cfgPath, domainName string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/comprendre/config.yaml if not provided)")
	flag.StringVar(&domainName, "domain", "", "Administrative domain: paie, impots, chomage, logement or caf")
	flag.Parse()

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if domainName == "" {
		domainName = cfg.Domain
	}

	prof, err := profile.Get(domainName)
	if err != nil {
		log.Fatal(err)
	}
	if cfg.Retrieval.TopK > 0 {
		prof.TopK = cfg.Retrieval.TopK
	}
	if cfg.Generation.Model != "" {
		prof.GenerationModel = cfg.Generation.Model
	}
	docsDir := filepath.Join(cfg.DocsRoot, prof.DocsSubdir)
	if args := flag.Args(); len(args) > 0 {
		docsDir = args[0]
	}

	apiKey, err := resolveAPIKey()
	if err != nil {
		log.Fatalf("%v: set GOOGLE_API_KEY or enter a key when prompted", err)
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync()

	var embedder domain.Embedder
	switch cfg.Embedder.Type {
	case "gemini", "":
		embedder, err = embgemini.NewClient(embgemini.Config{
			BaseURL:  cfg.Embedder.BaseURL,
			APIKey:   apiKey,
			Model:    cfg.Embedder.Model,
			Timeout:  time.Duration(cfg.Embedder.TimeoutSecs) * time.Second,
			Attempts: cfg.Retry.Attempts,
			Delay:    time.Duration(cfg.Retry.DelayMS) * time.Millisecond,
			MaxDelay: time.Duration(cfg.Retry.MaxDelayMS) * time.Millisecond,
		})
		if err != nil {
			log.Fatalf("embedder init failed: %v", err)
		}
	case "tfidf":
		embedder = tfidf.NewEmbedder()
	default:
		log.Fatalf("unknown embedder: %s", cfg.Embedder.Type)
	}

	generator, err := gengemini.NewClient(gengemini.Config{
		BaseURL:     cfg.Generation.BaseURL,
		APIKey:      apiKey,
		Model:       prof.GenerationModel,
		Temperature: cfg.Generation.Temperature,
		Timeout:     time.Duration(cfg.Generation.TimeoutSecs) * time.Second,
		Attempts:    cfg.Retry.Attempts,
		Delay:       time.Duration(cfg.Retry.DelayMS) * time.Millisecond,
		MaxDelay:    time.Duration(cfg.Retry.MaxDelayMS) * time.Millisecond,
	})
	if err != nil {
		log.Fatalf("generator init failed: %v", err)
	}

	store := memory.NewStore()
	ch := chunker.NewWindowChunker(cfg.Chunker.BlockSize, cfg.Chunker.Overlap, cfg.Chunker.MinChars)
	embedDelay := time.Duration(cfg.Embedder.RequestDelayMS) * time.Millisecond
	if cfg.Embedder.Type == "tfidf" {
		// Local vectorizer, no rate limit to respect.
		embedDelay = 0
	}
	builder := kb.NewBuilder(store, embedder, ch, logger).WithEmbedDelay(embedDelay)

	ctx := context.Background()
	buildFn := func(progress kb.ProgressFunc) (*service.Session, error) {
		var collection domain.Collection
		docs, err := kb.LoadDir(docsDir)
		if err == nil {
			collection, err = builder.Build(ctx, docs, prof.Collection, progress)
		}
		if err != nil {
			logger.Warn("knowledge base build failed", zap.String("domain", prof.Name), zap.Error(err))
		}
		conv := domain.NewConversation(prof.Greeting)
		responder := service.NewResponder(embedder, generator, collection, prof, logger)
		return service.NewSession(conv, responder), err
	}

	m := tui.New(ctx, prof, buildFn)
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		log.Fatal(err)
	}
}

// resolveAPIKey checks the environment first, then falls back to a no-echo
// interactive prompt. An empty key is a hard stop before any core logic runs.
func resolveAPIKey() (string, error) {
	secrets, err := config.LoadSecrets()
	if err != nil {
		return "", err
	}
	if secrets.GoogleAPIKey != "" {
		return secrets.GoogleAPIKey, nil
	}
	if !term.IsTerminal(int(syscall.Stdin)) {
		return "", domain.ErrMissingCredential
	}
	fmt.Fprint(os.Stderr, "Clé API Google : ")
	key, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	if len(key) == 0 {
		return "", domain.ErrMissingCredential
	}
	return string(key), nil
}

// newLogger builds a file-backed zap logger. The TUI owns the terminal, so
// with no log file configured logging is disabled entirely.
func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	if cfg.File == "" {
		return zap.NewNop(), nil
	}
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.OutputPaths = []string{cfg.File}
	zcfg.ErrorOutputPaths = []string{cfg.File}
	logger, err := zcfg.Build()
	if err != nil {
		return nil, err
	}
	return logger, nil
}
