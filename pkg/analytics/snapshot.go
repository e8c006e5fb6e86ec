package analytics

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/jkrumm/fpp-analytics/pkg/model"
	"github.com/jkrumm/fpp-analytics/pkg/store"
)

// Snapshot holds every table loaded exactly once per request and shared
// by all calculators, so computing the bundle reads each Parquet file a
// single time. This is a read cache, not the response cache: it lives
// for one computation only.
type Snapshot struct {
	Estimations []model.Estimation
	Events      []model.Event
	PageViews   []model.PageView
	Rooms       []model.Room
	Users       []model.User
	Votes       []model.Vote
}

// snapshot loads all six tables concurrently. A missing table file is
// fatal here: the dashboard expects a fully synced read model.
func (e *Engine) snapshot(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{}
	g, _ := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		snap.Estimations, err = store.ReadAll[model.Estimation](e.store, model.TableEstimations)
		return err
	})
	g.Go(func() (err error) {
		snap.Events, err = store.ReadAll[model.Event](e.store, model.TableEvents)
		return err
	})
	g.Go(func() (err error) {
		snap.PageViews, err = store.ReadAll[model.PageView](e.store, model.TablePageViews)
		return err
	})
	g.Go(func() (err error) {
		snap.Rooms, err = store.ReadAll[model.Room](e.store, model.TableRooms)
		return err
	})
	g.Go(func() (err error) {
		snap.Users, err = store.ReadAll[model.User](e.store, model.TableUsers)
		return err
	})
	g.Go(func() (err error) {
		snap.Votes, err = store.ReadAll[model.Vote](e.store, model.TableVotes)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snap, nil
}
