package analytics

import (
	"sort"
	"time"

	"github.com/jkrumm/fpp-analytics/pkg/config"
)

// TrafficStats summarizes site traffic and visit depth.
type TrafficStats struct {
	UniqueUsers     int     `json:"unique_users"`
	PageViews       int     `json:"page_views"`
	BounceRate      float64 `json:"bounce_rate"`
	AverageDuration float64 `json:"average_duration"` // minutes
}

// activity is one timeline entry (page view or estimation) for
// sessionization.
type activity struct {
	userID string
	at     time.Time
}

func calcTraffic(snap *Snapshot, startDate time.Time) TrafficStats {
	uniqueUsers := make(map[string]struct{})
	for _, pv := range snap.PageViews {
		uniqueUsers[pv.UserID] = struct{}{}
	}

	// Bounce rate: share of visitors who never made an estimation.
	// Estimations are bounded to the analytics start date; the unique
	// visitor count is not.
	estimators := make(map[string]struct{})
	for _, e := range snap.Estimations {
		if e.EstimatedAt.After(startDate) {
			estimators[e.UserID] = struct{}{}
		}
	}
	bounceRate := 0.0
	if len(uniqueUsers) > 0 {
		bounceRate = round2(1 - float64(len(estimators))/float64(len(uniqueUsers)))
	}

	return TrafficStats{
		UniqueUsers:     len(uniqueUsers),
		PageViews:       len(snap.PageViews),
		BounceRate:      bounceRate,
		AverageDuration: averageSessionMinutes(snap, startDate),
	}
}

// averageSessionMinutes merges page views and estimations into one
// per-user activity timeline and sessionizes it: a session ends when
// the user changes or the gap since the previous event exceeds the
// session gap. Every session gets a fixed floor added so single-event
// sessions do not count as zero.
func averageSessionMinutes(snap *Snapshot, startDate time.Time) float64 {
	timeline := make([]activity, 0, len(snap.PageViews)+len(snap.Estimations))
	for _, pv := range snap.PageViews {
		if pv.ViewedAt.After(startDate) {
			timeline = append(timeline, activity{userID: pv.UserID, at: pv.ViewedAt})
		}
	}
	for _, e := range snap.Estimations {
		if e.EstimatedAt.After(startDate) {
			timeline = append(timeline, activity{userID: e.UserID, at: e.EstimatedAt})
		}
	}
	if len(timeline) == 0 {
		return 0
	}

	sort.Slice(timeline, func(i, j int) bool {
		if timeline[i].userID != timeline[j].userID {
			return timeline[i].userID < timeline[j].userID
		}
		return timeline[i].at.Before(timeline[j].at)
	})

	var totalSeconds float64
	sessions := 0
	sessionStart := timeline[0].at
	prev := timeline[0]

	closeSession := func(end time.Time) {
		totalSeconds += end.Sub(sessionStart).Seconds() + config.SessionFloorSeconds
		sessions++
	}

	for _, cur := range timeline[1:] {
		if cur.userID != prev.userID || cur.at.Sub(prev.at) > config.SessionGap {
			closeSession(prev.at)
			sessionStart = cur.at
		}
		prev = cur
	}
	closeSession(prev.at)

	return round2(totalSeconds / float64(sessions) / 60)
}
