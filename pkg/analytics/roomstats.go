package analytics

import (
	"context"

	"github.com/jkrumm/fpp-analytics/pkg/model"
	"github.com/jkrumm/fpp-analytics/pkg/store"
)

// RoomStats aggregates the voting history of a single room. A room
// with no votes yields the zero value, not an error.
type RoomStats struct {
	Votes              int     `json:"votes"`
	Duration           float64 `json:"duration"` // seconds, whole
	Estimations        int     `json:"estimations"`
	EstimationsPerVote float64 `json:"estimations_per_vote"`
	AvgMinEstimation   float64 `json:"avg_min_estimation"`
	AvgAvgEstimation   float64 `json:"avg_avg_estimation"`
	AvgMaxEstimation   float64 `json:"avg_max_estimation"`
	Spectators         int     `json:"spectators"`
	SpectatorsPerVote  float64 `json:"spectators_per_vote"`
}

// RoomStats computes per-room vote aggregates. Callers refresh the
// votes table first when they need near-real-time numbers.
func (e *Engine) RoomStats(ctx context.Context, roomID int64) (RoomStats, error) {
	votes, err := store.ReadAll[model.Vote](e.store, model.TableVotes)
	if err != nil {
		return RoomStats{}, err
	}

	stats := RoomStats{}
	var sumDuration, sumMin, sumAvg, sumMax float64
	for _, v := range votes {
		if int64(v.RoomID) != roomID {
			continue
		}
		stats.Votes++
		stats.Estimations += int(v.AmountOfEstimations)
		stats.Spectators += int(v.AmountOfSpectators)
		sumDuration += float64(v.Duration)
		sumMin += float64(v.MinEstimation)
		sumAvg += v.AvgEstimation
		sumMax += float64(v.MaxEstimation)
	}
	if stats.Votes == 0 {
		return stats, nil
	}

	votesCount := float64(stats.Votes)
	stats.Duration = round0(sumDuration / votesCount)
	stats.EstimationsPerVote = round2(float64(stats.Estimations) / votesCount)
	stats.AvgMinEstimation = round2(sumMin / votesCount)
	stats.AvgAvgEstimation = round2(sumAvg / votesCount)
	stats.AvgMaxEstimation = round2(sumMax / votesCount)
	stats.SpectatorsPerVote = round2(float64(stats.Spectators) / votesCount)

	return stats, nil
}
