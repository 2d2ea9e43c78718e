// tidings - a terminal client for the tidings chat server.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"

	"github.com/morganforge/tidings/internal/api"
	"github.com/morganforge/tidings/internal/config"
	"github.com/morganforge/tidings/internal/push"
	"github.com/morganforge/tidings/internal/session"
	"github.com/morganforge/tidings/internal/ui"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func main() {
	var (
		configPath  = flag.String("config", "", "path to config file (default ~/.tidings/config.toml)")
		serverURL   = flag.String("server", "", "chat server URL, overrides config")
		showVersion = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("tidings %s (%s, built %s)\n", Version, GitCommit, BuildDate)
		return
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Fprintln(os.Stderr, "tidings is an interactive client and needs a terminal")
		os.Exit(1)
	}

	if err := run(*configPath, *serverURL); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, serverURL string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if serverURL != "" {
		cfg.Server.URL = serverURL
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	log, closeLog, err := buildLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()
	log.Info("starting",
		zap.String("version", Version),
		zap.String("server", cfg.Server.URL))

	store := session.NewStore(cfg.Auth.TokenFile, log.Named("session"))
	client := api.NewClient(cfg.Server.URL, store.Token, log.Named("api")).
		WithTimeout(cfg.RequestTimeout())

	// The adapter's read goroutine injects events into the program; the
	// program does not exist yet, so deliveries go through a guarded ref.
	// Events arriving before Run are dropped, which is fine: the chat
	// screen's Init refetches everything anyway.
	adapter := push.NewAdapter(cfg.WebsocketURL(), sendToProgram, log.Named("push")).
		WithReconnect(cfg.Push.Reconnect, cfg.MaxBackoff())
	defer adapter.Close()

	// Every credential change, including the restore below, flows into the
	// push channel through this subscription.
	store.Subscribe(adapter.SetToken)

	if err := store.Restore(context.Background(), client); err != nil {
		if !errors.Is(err, session.ErrNoSession) {
			log.Warn("session restore failed", zap.Error(err))
		}
	}

	program := tea.NewProgram(
		ui.New(store, client, adapter, log.Named("ui")),
		tea.WithAltScreen(),
	)
	setProgram(program)
	defer setProgram(nil)

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("run UI: %w", err)
	}
	return nil
}

// Global program reference for async push delivery.
var (
	programRef *tea.Program
	programMu  sync.Mutex
)

func setProgram(p *tea.Program) {
	programMu.Lock()
	defer programMu.Unlock()
	programRef = p
}

func sendToProgram(event any) {
	programMu.Lock()
	p := programRef
	programMu.Unlock()
	if p != nil {
		p.Send(event)
	}
}

// buildLogger writes structured diagnostics to the configured log file. The
// terminal belongs to the UI, so nothing is ever logged to stdout/stderr.
func buildLogger(cfg config.Config) (*zap.Logger, func(), error) {
	if cfg.Log.File == "" {
		return zap.NewNop(), func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Log.File), 0o700); err != nil {
		return nil, nil, fmt.Errorf("create log directory: %w", err)
	}

	level := zapcore.InfoLevel
	if err := level.Set(cfg.Log.Level); err != nil {
		level = zapcore.InfoLevel
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.OutputPaths = []string{cfg.Log.File}
	zcfg.ErrorOutputPaths = []string{cfg.Log.File}

	log, err := zcfg.Build()
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return log, func() { _ = log.Sync() }, nil
}
