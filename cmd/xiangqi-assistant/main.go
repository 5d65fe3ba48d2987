package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/muli0525/ChineseChessAssistant/internal/builder"
	appcfg "github.com/muli0525/ChineseChessAssistant/internal/config"
	"github.com/muli0525/ChineseChessAssistant/internal/obslog"
)

func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	logger := obslog.L()
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	deps, err := builder.New(ctx, cfg, logger)
	cancel()
	if err != nil {
		logger.Fatal("wiring failed", zap.Error(err))
	}
	defer deps.Close()

	server := &fasthttp.Server{
		Handler:      deps.Handler.Handle,
		Name:         "xiangqi-assistant",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 90 * time.Second, // suggestion streams outlive normal requests
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.ListenAddr))
		errCh <- server.ListenAndServe(cfg.ListenAddr)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			logger.Error("server stopped", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Warn("server shutdown", zap.Error(err))
	}
}
