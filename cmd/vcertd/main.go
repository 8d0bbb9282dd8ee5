// Command vcertd runs the certificate workflow daemon: it long-polls the
// Telegram Bot API and drives capture, moderation, and delivery.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vcert/internal/config"
	"vcert/internal/daemon"
	"vcert/internal/engine"
	"vcert/internal/logging"
	"vcert/internal/notify"
	"vcert/internal/render"
	"vcert/internal/store"
	"vcert/internal/telegram"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, resolvedPath, found, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	if !found {
		logger.Warn("no config file found, using defaults and environment", "path", resolvedPath)
	}

	st, err := store.Open(cfg)
	if err != nil {
		logger.Error("open store failed", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	// The HTTP timeout must outlast a full long poll.
	httpClient := &http.Client{
		Timeout: time.Duration(cfg.Telegram.PollTimeout+cfg.Telegram.RequestTimeout) * time.Second,
	}
	client := telegram.New(cfg, httpClient)

	renderer := render.New(cfg.Paths.RenderDir)
	notifier := notify.NewCoordinator(client, renderer, st, logger, notify.Options{
		SubmissionFanout: cfg.Notifications.SubmissionFanout,
		Decisions:        cfg.Notifications.Decisions,
	})
	eng := engine.New(cfg, st, client, notifier, logger)

	d, err := daemon.New(cfg, client, eng, logger)
	if err != nil {
		logger.Error("create daemon failed", "error", err)
		os.Exit(1)
	}
	if err := d.Run(ctx); err != nil {
		logger.Error("daemon exited with error", "error", err)
		os.Exit(1)
	}
}
