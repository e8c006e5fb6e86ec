package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jkrumm/fpp-analytics/pkg/model"
)

var testStart = time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)

func at(day, hour, minute int) time.Time {
	return time.Date(2024, 6, day, hour, minute, 0, 0, time.UTC)
}

func TestCalcTrafficEmpty(t *testing.T) {
	stats := calcTraffic(&Snapshot{}, testStart)
	require.Equal(t, TrafficStats{}, stats)
}

func TestCalcTrafficBounceRate(t *testing.T) {
	snap := &Snapshot{
		PageViews: []model.PageView{
			{ID: 1, UserID: "a", ViewedAt: at(4, 10, 0)},
			{ID: 2, UserID: "b", ViewedAt: at(4, 10, 0)},
			{ID: 3, UserID: "c", ViewedAt: at(4, 10, 0)},
			{ID: 4, UserID: "d", ViewedAt: at(4, 10, 0)},
		},
		Estimations: []model.Estimation{
			{ID: 1, UserID: "a", EstimatedAt: at(4, 10, 1)},
		},
	}

	stats := calcTraffic(snap, testStart)
	require.Equal(t, 4, stats.UniqueUsers)
	require.Equal(t, 4, stats.PageViews)
	// 1 of 4 visitors estimated.
	require.InDelta(t, 0.75, stats.BounceRate, 1e-9)
}

func TestSessionization(t *testing.T) {
	// User a: two events 5 minutes apart (one session), then a gap of
	// 11 minutes starting a second session with a single event.
	// User b: one single-event session.
	snap := &Snapshot{
		PageViews: []model.PageView{
			{ID: 1, UserID: "a", ViewedAt: at(4, 10, 0)},
			{ID: 2, UserID: "a", ViewedAt: at(4, 10, 5)},
			{ID: 3, UserID: "a", ViewedAt: at(4, 10, 16)},
			{ID: 4, UserID: "b", ViewedAt: at(4, 12, 0)},
		},
	}

	stats := calcTraffic(snap, testStart)
	// Durations: 300s+10s, 0s+10s, 0s+10s over 3 sessions = 110s mean
	// = 1.83 minutes.
	require.InDelta(t, 1.83, stats.AverageDuration, 1e-9)
}

func TestSessionizationSplitsOnUserChange(t *testing.T) {
	snap := &Snapshot{
		PageViews: []model.PageView{
			{ID: 1, UserID: "a", ViewedAt: at(4, 10, 0)},
			{ID: 2, UserID: "b", ViewedAt: at(4, 10, 1)},
		},
	}

	stats := calcTraffic(snap, testStart)
	// Two single-event sessions, 10s floor each.
	require.InDelta(t, 0.17, stats.AverageDuration, 1e-9)
}
