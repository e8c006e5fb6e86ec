package analytics

import (
	"time"

	"github.com/jkrumm/fpp-analytics/pkg/config"
)

// HistoricalDay is one business day of growth metrics: daily counts,
// running totals and trailing moving averages. Moving averages are nil
// until a full window of business days exists.
type HistoricalDay struct {
	Date           string   `json:"date"`
	NewUsers       int      `json:"new_users"`
	AccNewUsers    int      `json:"acc_new_users"`
	PageViews      int      `json:"page_views"`
	AccPageViews   int      `json:"acc_page_views"`
	Rooms          int      `json:"rooms"`
	AccRooms       int      `json:"acc_rooms"`
	Estimations    int      `json:"estimations"`
	AccEstimations int      `json:"acc_estimations"`
	Votes          int      `json:"votes"`
	AccVotes       int      `json:"acc_votes"`
	MANewUsers     *float64 `json:"ma_new_users"`
	MAPageViews    *float64 `json:"ma_page_views"`
	MAVotes        *float64 `json:"ma_votes"`
	MARooms        *float64 `json:"ma_rooms"`
	MAEstimations  *float64 `json:"ma_estimations"`
}

func calcHistorical(snap *Snapshot, startDate time.Time, now time.Time) []HistoricalDay {
	usersByDay := make(map[string]int)
	for _, u := range snap.Users {
		usersByDay[dateKey(u.CreatedAt)]++
	}
	pageViewsByDay := make(map[string]int)
	for _, pv := range snap.PageViews {
		pageViewsByDay[dateKey(pv.ViewedAt)]++
	}
	roomsByDay := make(map[string]int)
	for _, r := range snap.Rooms {
		roomsByDay[dateKey(r.FirstUsedAt)]++
	}
	estimationsByDay := make(map[string]int)
	for _, e := range snap.Estimations {
		estimationsByDay[dateKey(e.EstimatedAt)]++
	}
	votesByDay := make(map[string]int)
	for _, v := range snap.Votes {
		votesByDay[dateKey(v.VotedAt)]++
	}

	days := businessDays(startDate, now)
	historical := make([]HistoricalDay, 0, len(days))
	acc := HistoricalDay{}
	for _, d := range days {
		key := dateKey(d)
		acc.NewUsers = usersByDay[key]
		acc.PageViews = pageViewsByDay[key]
		acc.Rooms = roomsByDay[key]
		acc.Estimations = estimationsByDay[key]
		acc.Votes = votesByDay[key]
		acc.AccNewUsers += acc.NewUsers
		acc.AccPageViews += acc.PageViews
		acc.AccRooms += acc.Rooms
		acc.AccEstimations += acc.Estimations
		acc.AccVotes += acc.Votes
		acc.Date = key
		historical = append(historical, acc)
	}

	attachMovingAverages(historical)
	return historical
}

// attachMovingAverages fills the trailing simple moving average over
// the last MovingAverageWindow business days, inclusive of the current
// row. Rows before a full window keep nil.
func attachMovingAverages(days []HistoricalDay) {
	window := config.MovingAverageWindow
	for i := range days {
		if i < window-1 {
			continue
		}
		var users, views, votes, rooms, estimations int
		for j := i - window + 1; j <= i; j++ {
			users += days[j].NewUsers
			views += days[j].PageViews
			votes += days[j].Votes
			rooms += days[j].Rooms
			estimations += days[j].Estimations
		}
		days[i].MANewUsers = maValue(users, window)
		days[i].MAPageViews = maValue(views, window)
		days[i].MAVotes = maValue(votes, window)
		days[i].MARooms = maValue(rooms, window)
		days[i].MAEstimations = maValue(estimations, window)
	}
}

func maValue(sum, window int) *float64 {
	v := round2(float64(sum) / float64(window))
	return &v
}

// businessDays enumerates calendar days from start through end,
// skipping Saturdays and Sundays.
func businessDays(start, end time.Time) []time.Time {
	startDay := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	endDay := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)

	var days []time.Time
	for d := startDay; !d.After(endDay); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		days = append(days, d)
	}
	return days
}

func dateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
