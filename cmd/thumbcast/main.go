package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"thumbcast/internal/config"
	"thumbcast/internal/genclient"
	"thumbcast/internal/share"
	"thumbcast/internal/store"
	"thumbcast/internal/studio"
	"thumbcast/internal/tui"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, closeLog, err := openLogger(cfg.Log.Path)
	if err != nil {
		log.Fatalf("log: %v", err)
	}
	defer closeLog()

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		log.Fatalf("mkdir db dir: %v", err)
	}
	db, err := store.Open(cfg.Database.Path)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()
	if err := store.RunMigrations(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	st := store.New(store.NewSQLitePersister(db), logger)
	if err := st.Init(); err != nil {
		log.Fatalf("init state: %v", err)
	}

	provider, err := buildProvider(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("provider: %v", err)
	}
	client := genclient.New(provider, genclient.Options{
		Concurrency: cfg.Generation.Concurrency,
		MaxRetries:  cfg.Generation.MaxRetries,
		Timeout:     time.Duration(cfg.Generation.TimeoutSec) * time.Second,
		BaseDelay:   time.Duration(cfg.Generation.BaseDelayMs) * time.Millisecond,
	}, logger)

	orch := studio.New(st, client, logger)

	var fetcher *share.Fetcher
	if cfg.Share.BaseURL != "" {
		fetcher = share.NewFetcher(cfg.Share.BaseURL)
	}

	exportDir := filepath.Join(filepath.Dir(cfg.Database.Path), "exports")
	p := tea.NewProgram(
		tui.New(ctx, cfg, orch, fetcher, st.Snapshot(), exportDir),
		tea.WithAltScreen(),
	)

	unsubscribe := st.Subscribe(func(snap store.AppState) {
		p.Send(tui.StateMsg(snap))
	})
	defer unsubscribe()

	if _, err := p.Run(); err != nil {
		fmt.Printf("error: %v\n", err)
	}
	orch.Wait()
}

// buildProvider prefers the real service; without a key it falls back to
// local placeholder generation so the app still works end to end.
func buildProvider(ctx context.Context, cfg config.Config, logger zerolog.Logger) (genclient.Provider, error) {
	apiKey := config.ResolveAPIKey(cfg)
	if apiKey == "" {
		logger.Warn().Msg("no API key configured, using offline placeholder provider")
		return genclient.NewOfflineProvider(), nil
	}
	return genclient.NewGeminiProvider(ctx, apiKey, cfg.Gemini.MetadataModel)
}

// openLogger writes structured logs to a file; stdout belongs to the TUI.
func openLogger(path string) (zerolog.Logger, func(), error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return zerolog.Logger{}, nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return zerolog.Logger{}, nil, err
	}
	logger := zerolog.New(f).With().Timestamp().Logger()
	return logger, func() { _ = f.Close() }, nil
}
