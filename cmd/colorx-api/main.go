package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"colorx/internal/api"
	"colorx/internal/auth"
	"colorx/internal/config"
	"colorx/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadAPIFromEnv()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	game, err := config.LoadGame(cfg.ConfigPath)
	if err != nil {
		logger.Error("load game config", "err", err)
		os.Exit(1)
	}

	var (
		users store.UserStore
		board store.LeaderboardStore
	)
	if cfg.DatabaseURL != "" {
		pg, err := store.NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("db connect failed", "err", err)
			os.Exit(1)
		}
		defer pg.Close()
		users = pg
		board = pg.Leaderboard()
		logger.Info("using postgres store")
	} else {
		users = store.NewUserFile(filepath.Join(cfg.DataDir, "users.json"))
		board = store.NewLeaderboardFile(filepath.Join(cfg.DataDir, "leaderboard.csv"))
		logger.Info("using file store", "dir", cfg.DataDir)
	}

	authSvc := auth.NewService(users, logger)
	server := api.New(game, logger, authSvc, board)

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	logger.Info("colorx api listening", "addr", cfg.Addr, "colors", len(game.Colors), "max_trades", game.GameSettings.MaxTrades)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server failed", "err", err)
		os.Exit(1)
	}
}
