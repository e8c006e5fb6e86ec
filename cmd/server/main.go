package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/jkrumm/fpp-analytics/pkg/analytics"
	"github.com/jkrumm/fpp-analytics/pkg/config"
	"github.com/jkrumm/fpp-analytics/pkg/email"
	"github.com/jkrumm/fpp-analytics/pkg/heartbeat"
	"github.com/jkrumm/fpp-analytics/pkg/logging"
	"github.com/jkrumm/fpp-analytics/pkg/server"
	"github.com/jkrumm/fpp-analytics/pkg/source"
	"github.com/jkrumm/fpp-analytics/pkg/store"
	"github.com/jkrumm/fpp-analytics/pkg/syncer"
)

const (
	serverReadTimeout  = 10 * time.Second
	serverWriteTimeout = 60 * time.Second
	shutdownTimeout    = 30 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load configuration: %v", err)
	}

	logger, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("create logger: %v", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	st, err := store.New(cfg.DataDir)
	if err != nil {
		logger.Fatal("create store", zap.Error(err))
	}

	if cfg.RebuildOnStart {
		logger.Info("rebuild requested, clearing read model")
		if err := st.Reset(); err != nil {
			logger.Fatal("reset store", zap.Error(err))
		}
	}

	ctx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	src, err := source.NewPostgres(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		logger.Fatal("connect source database", zap.Error(err))
	}
	defer src.Close()

	sy := syncer.New(st, src, logger)
	engine := analytics.NewEngine(st, cfg.StartDate)
	emailClient := email.New(cfg.EmailServiceURL, cfg.EmailSecretKey, logger)
	pusher := heartbeat.New(cfg.HeartbeatPushURL, logger)

	srv := server.New(*cfg, logger, st, src, sy, engine, emailClient)

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go srv.RunSync(pusher, stop, &wg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv.Routes(),
		ReadTimeout:  serverReadTimeout,
		WriteTimeout: serverWriteTimeout,
	}

	go func() {
		logger.Info("analytics server listening", zap.String("port", cfg.Port))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	close(stop)
	wg.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", zap.Error(err))
	}

	logger.Info("shutdown complete")
}
