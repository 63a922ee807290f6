package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/treefix50/playhead/internal/api"
	"github.com/treefix50/playhead/internal/config"
	"github.com/treefix50/playhead/internal/log"
	"github.com/treefix50/playhead/internal/session"
	"github.com/treefix50/playhead/internal/storage"
	"github.com/treefix50/playhead/internal/user"
)

func main() {
	var (
		configPath = flag.String("config", "playhead.json", "config file path")
		addr       = flag.String("addr", "", "listen address (overrides config)")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err == nil {
		log.Configure(log.Config{Level: cfg.LogLevel})
	}
	logger := log.WithComponent("main")
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}

	if *addr != "" {
		cfg.Addr = *addr
	}

	store, err := storage.Open(cfg.DatabasePath, storage.Options{
		BusyTimeout: 5 * time.Second,
		CacheSize:   -16000,
	})
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.DatabasePath).Msg("open database")
	}
	defer func() { _ = store.Close() }()

	users := user.NewManager(store, time.Duration(cfg.TokenTTL))
	if password, err := users.InitializeAdmin(); err != nil {
		logger.Fatal().Err(err).Msg("initialize admin account")
	} else if password != "" {
		logger.Info().Str("password", password).Msg("admin account created")
	}

	thresholds, err := config.NewFileProvider(*configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("load resume thresholds")
	}

	sessions := session.NewStore()
	notifier := session.NewNotifier()
	tracker := session.NewTracker(sessions, store)
	coordinator := session.NewCoordinator(sessions, store, thresholds, notifier)

	server := api.New(cfg.Addr, tracker, coordinator, users, store)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("addr", cfg.Addr).Msg("playhead listening")
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		if err := thresholds.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info().Msg("shutting down")
		return server.Close()
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("exited with error")
		os.Exit(1)
	}
}
