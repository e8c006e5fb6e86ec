package analytics

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"

	"github.com/jkrumm/fpp-analytics/pkg/model"
)

func i32(v int32) *int32 { return &v }

func TestCalcVotesEmpty(t *testing.T) {
	stats := calcVotes(&Snapshot{})
	require.Zero(t, stats.TotalVotes)
	require.Zero(t, stats.AvgEstimation)
	require.Len(t, stats.WeekdayCounts, 7)
	for _, name := range weekdayNames {
		require.Contains(t, stats.WeekdayCounts, name)
	}
}

func TestCalcVotesAverages(t *testing.T) {
	snap := &Snapshot{
		Votes: []model.Vote{
			{ID: 1, RoomID: 1, AvgEstimation: 3, MinEstimation: 1, MaxEstimation: 5, AmountOfEstimations: 4, AmountOfSpectators: 1, Duration: 90, VotedAt: at(3, 10, 0)},  // Monday
			{ID: 2, RoomID: 1, AvgEstimation: 5, MinEstimation: 2, MaxEstimation: 8, AmountOfEstimations: 2, AmountOfSpectators: 0, Duration: 30, VotedAt: at(4, 10, 0)},  // Tuesday
			{ID: 3, RoomID: 2, AvgEstimation: 8, MinEstimation: 8, MaxEstimation: 8, AmountOfEstimations: 3, AmountOfSpectators: 2, Duration: 60, VotedAt: at(10, 10, 0)}, // Monday
		},
	}

	stats := calcVotes(snap)
	require.Equal(t, 3, stats.TotalVotes)
	require.Equal(t, 9, stats.TotalEstimations)
	require.InDelta(t, 3.0, stats.AvgEstimationsPerVote, 1e-9)
	require.InDelta(t, 1.0, stats.AvgDurationPerVote, 1e-9)
	require.InDelta(t, 5.33, stats.AvgEstimation, 1e-9)
	require.Equal(t, 2, stats.WeekdayCounts["Monday"])
	require.Equal(t, 1, stats.WeekdayCounts["Tuesday"])
	require.Equal(t, 0, stats.WeekdayCounts["Sunday"])
}

func TestEstimationHistogram(t *testing.T) {
	snap := &Snapshot{}
	for _, value := range []int32{8, 5, 3, 2, 1} {
		for i := 0; i < 20; i++ {
			snap.Estimations = append(snap.Estimations, model.Estimation{
				ID: int64(len(snap.Estimations) + 1), UserID: "u", RoomID: 1,
				Estimation: i32(value), EstimatedAt: at(4, 10, 0),
			})
		}
	}
	// Spectator rows carry no estimation and must not count.
	snap.Estimations = append(snap.Estimations, model.Estimation{ID: 101, UserID: "s", RoomID: 1, Spectator: true, EstimatedAt: at(4, 10, 0)})

	histogram := estimationHistogram(snap)
	require.Equal(t, EstimationCounts{{1, 20}, {2, 20}, {3, 20}, {5, 20}, {8, 20}}, histogram)

	raw, err := json.Marshal(histogram)
	require.NoError(t, err)
	require.Equal(t, `{"1":20,"2":20,"3":20,"5":20,"8":20}`, string(raw))
}
