package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jkrumm/fpp-analytics/pkg/model"
)

func estimationOn(id int64, user string, room int32, day time.Time) model.Estimation {
	return model.Estimation{ID: id, UserID: user, RoomID: room, Estimation: i32(3), EstimatedAt: day.Add(10 * time.Hour)}
}

func TestReoccurringCountsFromSecondActiveDay(t *testing.T) {
	snap := &Snapshot{
		Estimations: []model.Estimation{
			estimationOn(1, "once", 1, at(3, 0, 0)),
			estimationOn(2, "twice", 2, at(3, 0, 0)),
			estimationOn(3, "twice", 2, at(4, 0, 0)),
		},
	}

	out := calcReoccurring(snap, testStart, at(5, 12, 0))
	require.Len(t, out, 3)

	// First active day never counts.
	require.Equal(t, 0, out[0].ReoccurringUsers)
	require.Equal(t, 0, out[0].ReoccurringRooms)

	// "twice" and room 2 reoccur from their second day on.
	require.Equal(t, 1, out[1].ReoccurringUsers)
	require.Equal(t, 1, out[1].ReoccurringRooms)
	require.Equal(t, 1, out[2].ReoccurringUsers)

	// "once" stays out forever.
	require.Equal(t, 1, out[2].AdjustedReoccurringUsers)
}

func TestReoccurringAdjustedDropsStale(t *testing.T) {
	snap := &Snapshot{
		Estimations: []model.Estimation{
			estimationOn(1, "u", 1, at(3, 0, 0)),
			estimationOn(2, "u", 1, at(4, 0, 0)),
		},
	}

	// 2024-06-04 + 31 days = 2024-07-05.
	out := calcReoccurring(snap, testStart, time.Date(2024, 7, 5, 12, 0, 0, 0, time.UTC))
	last := out[len(out)-1]
	require.Equal(t, "2024-07-05", last.Date)
	require.Equal(t, 1, last.ReoccurringUsers)
	require.Equal(t, 0, last.AdjustedReoccurringUsers, "31 days idle falls out of the adjusted window")

	// One day earlier the user is exactly 30 days idle and still counts.
	prev := out[len(out)-2]
	require.Equal(t, "2024-07-04", prev.Date)
	require.Equal(t, 1, prev.AdjustedReoccurringUsers)
}
