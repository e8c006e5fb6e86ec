package analytics

import (
	"context"

	"github.com/jkrumm/fpp-analytics/pkg/config"
	"github.com/jkrumm/fpp-analytics/pkg/model"
	"github.com/jkrumm/fpp-analytics/pkg/store"
)

// DailyStats is the trailing-24h summary sent with the daily report
// email.
type DailyStats struct {
	Votes       int `json:"votes"`
	Estimations int `json:"estimations"`
	Rooms       int `json:"rooms"`
	UniqueUsers int `json:"unique_users"`
	PageViews   int `json:"page_views"`
}

// Daily computes the trailing-24h summary. Only the votes and
// page-view tables are needed, so it skips the full snapshot.
func (e *Engine) Daily(ctx context.Context) (DailyStats, error) {
	votes, err := store.ReadAll[model.Vote](e.store, model.TableVotes)
	if err != nil {
		return DailyStats{}, err
	}
	pageViews, err := store.ReadAll[model.PageView](e.store, model.TablePageViews)
	if err != nil {
		return DailyStats{}, err
	}

	cutoff := e.now().Add(-config.DailyReportWindow)

	stats := DailyStats{}
	rooms := make(map[int32]struct{})
	for _, v := range votes {
		if !v.VotedAt.After(cutoff) {
			continue
		}
		stats.Votes++
		stats.Estimations += int(v.AmountOfEstimations)
		rooms[v.RoomID] = struct{}{}
	}
	stats.Rooms = len(rooms)

	users := make(map[string]struct{})
	for _, pv := range pageViews {
		if !pv.ViewedAt.After(cutoff) {
			continue
		}
		stats.PageViews++
		users[pv.UserID] = struct{}{}
	}
	stats.UniqueUsers = len(users)

	return stats, nil
}
