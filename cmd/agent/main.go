// The agent is a headless consumer of the sync layer: it bootstraps a
// session from the stored token pair, runs the notification poll loop
// with sound/toast alerts, and serves health and metrics endpoints.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/openclass/lms-client/internal/core/ports"
	"github.com/openclass/lms-client/internal/core/service"
	"github.com/openclass/lms-client/internal/infrastructure/alert"
	"github.com/openclass/lms-client/internal/infrastructure/config"
	"github.com/openclass/lms-client/internal/infrastructure/gateway"
	internalhttp "github.com/openclass/lms-client/internal/infrastructure/http"
	filestore "github.com/openclass/lms-client/internal/infrastructure/storage/file"
	redisstore "github.com/openclass/lms-client/internal/infrastructure/storage/redis"
	"github.com/openclass/lms-client/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "agent:", err)
		os.Exit(1)
	}

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	var tokens ports.TokenStore
	switch cfg.Tokens.Backend {
	case "redis":
		client, err := redisstore.Connect(ctx, redisstore.Config{
			Addr: cfg.Tokens.Redis.Addr,
			DB:   cfg.Tokens.Redis.DB,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("redis connect failed")
		}
		defer func() { _ = client.Close() }()
		tokens = redisstore.NewStore(client, cfg.Tokens.Redis.Prefix)
	default:
		tokens = filestore.NewStore(cfg.Tokens.Path)
	}

	gw := gateway.NewClient(cfg.BaseURL, tokens, log)

	var alerter ports.Alerter = alert.NewLogAlerter(log)
	if len(cfg.Alert.SoundCmd) > 0 || len(cfg.Alert.ToastCmd) > 0 {
		alerter = alert.NewCommandAlerter(cfg.Alert.SoundCmd, cfg.Alert.ToastCmd, log)
	}

	session := service.NewSession(gw, tokens, log)
	session.Bootstrap(ctx)
	log.Info().Str("state", string(session.State())).Msg("session bootstrapped")

	syncer := service.NewNotificationSync(session, gw, alerter, cfg.PollInterval, log)
	syncer.Start(ctx)

	router := internalhttp.NewRouter(gw, tokens, session, syncer)
	httpServer := &http.Server{
		Addr:              cfg.AgentAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.AgentAddr).Msg("introspection server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("introspection server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("introspection server shutdown failed")
	}
	syncer.Stop()
}
