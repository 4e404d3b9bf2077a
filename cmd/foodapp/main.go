package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"foodapp/internal/api"
	"foodapp/internal/cart"
	"foodapp/internal/catalog"
	"foodapp/internal/config"
	"foodapp/internal/order"
	"foodapp/internal/probe"
	"foodapp/internal/session"
	"foodapp/internal/tui"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, closeLog, err := openLogger(cfg.Log)
	if err != nil {
		log.Fatalf("log: %v", err)
	}
	defer closeLog()

	client, err := api.New(api.Config{
		BaseURL: cfg.Backend.BaseURL,
		AppID:   cfg.Backend.AppID,
		Timeout: cfg.Backend.RequestTimeout,
	}, logger)
	if err != nil {
		log.Fatalf("backend: %v", err)
	}

	storeDir, err := session.DefaultStoreDir()
	if err != nil {
		log.Fatalf("session dir: %v", err)
	}
	store, err := session.NewStore(storeDir)
	if err != nil {
		log.Fatalf("session store: %v", err)
	}

	deps := tui.Deps{
		Session: session.NewManager(client, store, logger),
		Browser: catalog.NewBrowser(client, logger),
		Cart:    cart.New(),
		Orders:  order.NewCoordinator(client, logger),
		Probe:   probe.New(client, cfg.Backend.ProbeTimeout, logger),
	}

	p := tea.NewProgram(tui.New(ctx, cfg, deps), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("error: %v\n", err)
	}
}

// openLogger writes structured logs to a file; stdout belongs to the TUI.
func openLogger(cfg config.LogConfig) (zerolog.Logger, func(), error) {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.Level)))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	var out io.Writer = io.Discard
	closeLog := func() {}
	if cfg.Path != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return zerolog.Logger{}, nil, err
		}
		f, err := os.OpenFile(cfg.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return zerolog.Logger{}, nil, err
		}
		out = f
		closeLog = func() { f.Close() }
	}

	logger := zerolog.New(out).Level(level).With().Timestamp().Logger()
	return logger, closeLog, nil
}
