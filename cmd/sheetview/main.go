package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sheetview/internal/ai"
	"sheetview/internal/config"
	"sheetview/internal/ingest"
	"sheetview/internal/store"
	"sheetview/internal/ui"
	"sheetview/internal/util/logx"
	"sheetview/internal/version"
)

func main() {
	logx.SetLevelFromEnv()
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		os.Exit(1)
	}

	if cfg.ShowVersion {
		fmt.Println("sheetview", version.String())
		return
	}

	// Setup cancellation on SIGINT/SIGTERM
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	deps := ui.Deps{Fetch: ingest.NewFetcher(cfg.FetchTimeout)}
	if cfg.StatePath != "" {
		st, err := store.Open(cfg.StatePath)
		if err != nil {
			// run without persistence rather than refuse to start
			logx.Warnf("store: %v; state will not be saved", err)
		} else {
			deps.Store = st
		}
	}
	if !cfg.Offline {
		deps.AI = ai.NewClient(cfg.OpenAIKey(), cfg.OpenAIBase, cfg.OpenAIModel, time.Duration(cfg.OpenAITimeoutSec)*time.Second)
	}

	logx.Infof("starting sheetview %s: %s", version.String(), cfg.String())
	if err := ui.Run(ctx, cfg, deps); err != nil {
		logx.Errorf("sheetview exited with error: %v", err)
		os.Exit(1)
	}
}
