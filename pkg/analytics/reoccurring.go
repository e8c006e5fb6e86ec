package analytics

import (
	"time"

	"github.com/jkrumm/fpp-analytics/pkg/config"
)

// ReoccurringDay reports cohort reoccurrence per business day. The
// cumulative counts only ever grow; the adjusted counts drop entities
// whose last activity is older than the staleness window and may
// shrink day over day.
type ReoccurringDay struct {
	Date                     string `json:"date"`
	ReoccurringUsers         int    `json:"reoccurring_users"`
	ReoccurringRooms         int    `json:"reoccurring_rooms"`
	AdjustedReoccurringUsers int    `json:"adjusted_reoccurring_users"`
	AdjustedReoccurringRooms int    `json:"adjusted_reoccurring_rooms"`
}

// dayActivity collects the distinct users and rooms that estimated on
// one calendar day.
type dayActivity struct {
	users map[string]struct{}
	rooms map[int32]struct{}
}

func calcReoccurring(snap *Snapshot, startDate time.Time, now time.Time) []ReoccurringDay {
	activityByDay := make(map[string]*dayActivity)
	for _, e := range snap.Estimations {
		key := dateKey(e.EstimatedAt)
		day, ok := activityByDay[key]
		if !ok {
			day = &dayActivity{users: make(map[string]struct{}), rooms: make(map[int32]struct{})}
			activityByDay[key] = day
		}
		day.users[e.UserID] = struct{}{}
		day.rooms[e.RoomID] = struct{}{}
	}

	seenUsers := make(map[string]struct{})
	seenRooms := make(map[int32]struct{})
	accountedUsers := make(map[string]struct{})
	accountedRooms := make(map[int32]struct{})
	lastActiveUser := make(map[string]time.Time)
	lastActiveRoom := make(map[int32]time.Time)

	days := businessDays(startDate, now)
	out := make([]ReoccurringDay, 0, len(days))
	for _, d := range days {
		if day, ok := activityByDay[dateKey(d)]; ok {
			for user := range day.users {
				lastActiveUser[user] = d
				if _, seen := seenUsers[user]; !seen {
					seenUsers[user] = struct{}{}
				} else {
					// Second distinct active day: the user counts as
					// reoccurring from here on.
					accountedUsers[user] = struct{}{}
				}
			}
			for room := range day.rooms {
				lastActiveRoom[room] = d
				if _, seen := seenRooms[room]; !seen {
					seenRooms[room] = struct{}{}
				} else {
					accountedRooms[room] = struct{}{}
				}
			}
		}

		adjustedUsers := 0
		for user := range accountedUsers {
			if withinAdjustedWindow(d, lastActiveUser[user]) {
				adjustedUsers++
			}
		}
		adjustedRooms := 0
		for room := range accountedRooms {
			if withinAdjustedWindow(d, lastActiveRoom[room]) {
				adjustedRooms++
			}
		}

		out = append(out, ReoccurringDay{
			Date:                     dateKey(d),
			ReoccurringUsers:         len(accountedUsers),
			ReoccurringRooms:         len(accountedRooms),
			AdjustedReoccurringUsers: adjustedUsers,
			AdjustedReoccurringRooms: adjustedRooms,
		})
	}
	return out
}

func withinAdjustedWindow(day, lastActive time.Time) bool {
	return int(day.Sub(lastActive).Hours()/24) <= config.AdjustedWindowDays
}
