package main

import (
	"log"
	"net/http"
	"time"

	"medtimer/internal/config"
	"medtimer/internal/platform/logger"
	"medtimer/internal/router"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zlog, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	r, runner, err := router.NewRouter(router.Options{Cfg: cfg, Logger: zlog})
	if err != nil {
		zlog.Fatal("wiring error", zap.Error(err))
	}

	if err := runner.Start(); err != nil {
		zlog.Fatal("reminder runner error", zap.Error(err))
	}
	defer runner.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	zlog.Info("starting server", zap.String("addr", srv.Addr))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		zlog.Fatal("server error", zap.Error(err))
	}
}
