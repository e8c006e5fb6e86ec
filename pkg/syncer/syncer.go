// Package syncer brings the columnar read model up to date with the
// source database. One cycle may run at a time per process; overlapping
// invocations are dropped, not queued.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	"github.com/jkrumm/fpp-analytics/pkg/model"
	"github.com/jkrumm/fpp-analytics/pkg/source"
	"github.com/jkrumm/fpp-analytics/pkg/store"
)

// ErrSyncInProgress reports that a cycle was dropped because another
// one is in flight.
var ErrSyncInProgress = errors.New("sync already in progress")

// Syncer pulls new rows per table and merges them into the store.
type Syncer struct {
	store    *store.Store
	source   source.Source
	log      *zap.Logger
	inFlight atomic.Bool
}

// New returns a Syncer writing into st from src.
func New(st *store.Store, src source.Source, log *zap.Logger) *Syncer {
	return &Syncer{store: st, source: src, log: log}
}

// Result summarizes one full sync cycle.
type Result struct {
	RowsSynced int
	TableRows  map[string]int
	Duration   time.Duration
}

// Sync runs a full cycle over all six tables. Per-table failures are
// isolated: the remaining tables still sync and all errors are
// collected and returned together. The freshness marker is written
// whenever at least one table synced cleanly, so the response cache
// invalidates even after a partial cycle.
func (s *Syncer) Sync(ctx context.Context) (*Result, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		s.log.Info("sync already in progress, dropping cycle")
		return nil, ErrSyncInProgress
	}
	defer s.inFlight.Store(false)

	start := time.Now()
	res := &Result{TableRows: make(map[string]int)}
	var errs *multierror.Error
	tablesOK := 0

	step := func(table string, fn func() (int, error)) {
		n, err := fn()
		if err != nil {
			s.log.Error("table sync failed",
				zap.String("table", table),
				zap.Error(err))
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", table, err))
			return
		}
		res.TableRows[table] = n
		res.RowsSynced += n
		tablesOK++
	}

	step(model.TableEstimations, func() (int, error) {
		return syncTable(ctx, s, model.TableEstimations, s.source.Estimations)
	})
	step(model.TableEvents, func() (int, error) {
		return syncTable(ctx, s, model.TableEvents, s.source.Events)
	})
	step(model.TablePageViews, func() (int, error) {
		return syncTable(ctx, s, model.TablePageViews, s.source.PageViews)
	})
	step(model.TableRooms, func() (int, error) {
		return syncTable(ctx, s, model.TableRooms, s.source.Rooms)
	})
	step(model.TableVotes, func() (int, error) {
		return syncTable(ctx, s, model.TableVotes, s.source.Votes)
	})
	step(model.TableUsers, func() (int, error) {
		return s.syncUsers(ctx)
	})

	if tablesOK > 0 {
		if err := s.store.WriteFreshness(time.Now()); err != nil {
			errs = multierror.Append(errs, err)
		}
	}

	res.Duration = time.Since(start)
	s.log.Info("sync cycle finished",
		zap.Int("rows", res.RowsSynced),
		zap.Int("tables_ok", tablesOK),
		zap.Int("tables_failed", len(model.Tables)-tablesOK),
		zap.Duration("duration", res.Duration))

	return res, errs.ErrorOrNil()
}

// SyncVotes refreshes only the votes table so room-level queries see
// near-real-time vote data without paying for a full cycle. It shares
// the in-flight guard with Sync and leaves the freshness marker alone
// (the dashboard bundle is unaffected by a votes-only refresh).
func (s *Syncer) SyncVotes(ctx context.Context) (int, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		s.log.Info("sync already in progress, dropping votes refresh")
		return 0, ErrSyncInProgress
	}
	defer s.inFlight.Store(false)

	return syncTable(ctx, s, model.TableVotes, s.source.Votes)
}

// syncTable is the id-keyed incremental step: watermark, fetch strictly
// newer rows, merge, atomic write. Zero new rows is a no-op.
func syncTable[T store.Keyed](ctx context.Context, s *Syncer, table string, fetch func(context.Context, int64) ([]T, error)) (int, error) {
	watermark, _, err := store.MaxWatermark[T](s.store, table)
	if err != nil {
		return 0, err
	}

	newRows, err := fetch(ctx, watermark)
	if err != nil {
		return 0, err
	}
	if len(newRows) == 0 {
		s.log.Debug("no new rows", zap.String("table", table))
		return 0, nil
	}

	existing, err := store.ReadAll[T](s.store, table)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return 0, err
	}

	if err := store.WriteAll(s.store, table, store.Merge(newRows, existing)); err != nil {
		return 0, err
	}

	s.log.Info("synced table",
		zap.String("table", table),
		zap.Int("new_rows", len(newRows)))
	return len(newRows), nil
}

// syncUsers handles the created_at-keyed users table. The source
// delivers rows descending; the merge dedupes on created_at so a
// re-fetch of the row sitting exactly on the watermark stays idempotent.
func (s *Syncer) syncUsers(ctx context.Context) (int, error) {
	watermark, ok, err := store.MaxWatermark[model.User](s.store, model.TableUsers)
	if err != nil {
		return 0, err
	}

	var since *time.Time
	if ok {
		t := time.Unix(0, watermark).UTC()
		since = &t
	}

	newRows, err := s.source.Users(ctx, since)
	if err != nil {
		return 0, err
	}
	if len(newRows) == 0 {
		s.log.Debug("no new rows", zap.String("table", model.TableUsers))
		return 0, nil
	}

	existing, err := store.ReadAll[model.User](s.store, model.TableUsers)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return 0, err
	}

	if err := store.WriteAll(s.store, model.TableUsers, store.Merge(newRows, existing)); err != nil {
		return 0, err
	}

	s.log.Info("synced table",
		zap.String("table", model.TableUsers),
		zap.Int("new_rows", len(newRows)))
	return len(newRows), nil
}
