// cmd/discord/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/keshon/chat-commander/internal/commander"
	"github.com/keshon/chat-commander/internal/config"
	"github.com/keshon/chat-commander/internal/discord"
	"github.com/keshon/chat-commander/internal/logging"
	"github.com/keshon/chat-commander/internal/metrics"
	"github.com/keshon/chat-commander/internal/storage"
)

const appName = "chat-commander"

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("discord bot failed")
	}
	log.Info().Msg("discord bot exited cleanly")
}

func run() error {
	cfg, err := config.New()
	if err != nil {
		return err
	}
	_, logFile := logging.SetupWithFile(cfg.LogLevel, os.Stderr, cfg.LogFile)
	defer logFile.Close()

	log.Info().Msgf("starting %s bot...", appName)

	if err := cfg.Validate(); err != nil {
		return err
	}

	groups, err := config.LoadGroups(cfg.GroupsPath)
	if err != nil {
		return err
	}

	store, err := storage.New(cfg.StoragePath, cfg.HistoryLimit)
	if err != nil {
		return err
	}
	defer store.Close()

	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.New(prometheus.DefaultRegisterer)
	}

	bot, err := discord.New(cfg.DiscordToken)
	if err != nil {
		return err
	}

	cmdr, err := commander.New(commander.Options{
		Config:  cfg,
		Client:  bot,
		Storage: store,
		Metrics: m,
		Groups:  groups,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return bot.Run(gctx) })
	g.Go(func() error { return ignoreCanceled(cmdr.Run(gctx, bot.Messages())) })
	if m != nil {
		g.Go(func() error { return serveMetrics(gctx, cfg.MetricsAddr, m.Handler()) })
	}

	return g.Wait()
}

func serveMetrics(ctx context.Context, addr string, h http.Handler) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", h)
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", addr).Msg("serving metrics")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
