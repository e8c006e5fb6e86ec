package server

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jkrumm/fpp-analytics/pkg/heartbeat"
	"github.com/jkrumm/fpp-analytics/pkg/syncer"
)

// RunSync keeps the read model fresh: one cycle on startup, then one
// per interval until stop closes. Overlap is handled by the syncer's
// in-flight guard; a dropped cycle is not a failure.
func (s *Server) RunSync(pusher *heartbeat.Pusher, stop chan struct{}, wg *sync.WaitGroup) {
	defer wg.Done()

	ticker := time.NewTicker(s.cfg.SyncInterval)
	defer ticker.Stop()

	s.log.Info("running initial sync")
	s.runSyncCycle(pusher)

	for {
		select {
		case <-ticker.C:
			s.runSyncCycle(pusher)
		case <-stop:
			s.log.Info("stopping sync scheduler")
			return
		}
	}
}

func (s *Server) runSyncCycle(pusher *heartbeat.Pusher) {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.SyncInterval)
	defer cancel()

	result, err := s.syncer.Sync(ctx)
	if errors.Is(err, syncer.ErrSyncInProgress) {
		return
	}
	if err != nil {
		s.syncMonitor.RecordFailure(err)
		s.log.Error("sync cycle failed", zap.Error(err))
		pusher.Down(ctx, err.Error())

		if status := s.syncMonitor.Status(); status.ConsecutiveErrors > 3 {
			s.log.Error("sync has been failing repeatedly",
				zap.Int("consecutive_errors", status.ConsecutiveErrors))
		}
		return
	}

	s.syncMonitor.RecordSuccess(result.RowsSynced)
	pusher.Up(ctx, fmt.Sprintf("synced %d rows in %s", result.RowsSynced, result.Duration.Round(time.Millisecond)))
}
