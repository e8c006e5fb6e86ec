// Command sync runs a single sync cycle and exits. Meant for cron or a
// container entrypoint; the exit code reflects whether every table
// synced cleanly.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/jkrumm/fpp-analytics/pkg/config"
	"github.com/jkrumm/fpp-analytics/pkg/heartbeat"
	"github.com/jkrumm/fpp-analytics/pkg/logging"
	"github.com/jkrumm/fpp-analytics/pkg/source"
	"github.com/jkrumm/fpp-analytics/pkg/store"
	"github.com/jkrumm/fpp-analytics/pkg/syncer"
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

	if err := run(cfg, logger); err != nil {
		logger.Error("sync failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.New(cfg.DataDir)
	if err != nil {
		return err
	}

	if cfg.RebuildOnStart {
		logger.Info("rebuild requested, clearing read model")
		if err := st.Reset(); err != nil {
			return err
		}
	}

	src, err := source.NewPostgres(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return err
	}
	defer src.Close()

	pusher := heartbeat.New(cfg.HeartbeatPushURL, logger)

	result, err := syncer.New(st, src, logger).Sync(ctx)
	if err != nil {
		pusher.Down(ctx, err.Error())
		return err
	}

	pusher.Up(ctx, fmt.Sprintf("synced %d rows in %s", result.RowsSynced, result.Duration.Round(time.Millisecond)))
	return nil
}
