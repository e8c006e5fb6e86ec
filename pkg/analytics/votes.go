package analytics

import (
	"bytes"
	"sort"
	"strconv"
)

// VoteStats summarizes voting rounds and raw estimation values.
type VoteStats struct {
	TotalVotes            int              `json:"total_votes"`
	TotalEstimations      int              `json:"total_estimations"`
	AvgEstimationsPerVote float64          `json:"avg_estimations_per_vote"`
	AvgSpectatorsPerVote  float64          `json:"avg_spectators_per_vote"`
	AvgDurationPerVote    float64          `json:"avg_duration_per_vote"` // minutes
	AvgEstimation         float64          `json:"avg_estimation"`
	AvgMinEstimation      float64          `json:"avg_min_estimation"`
	AvgMaxEstimation      float64          `json:"avg_max_estimation"`
	WeekdayCounts         map[string]int   `json:"weekday_counts"`
	EstimationCounts      EstimationCounts `json:"estimation_counts"`
}

// weekdayNames is indexed by ISO weekday - 1 (Monday first).
var weekdayNames = [7]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

func calcVotes(snap *Snapshot) VoteStats {
	stats := VoteStats{WeekdayCounts: make(map[string]int, 7)}
	for _, name := range weekdayNames {
		stats.WeekdayCounts[name] = 0
	}

	var sumEstimations, sumSpectators, sumDuration float64
	var sumAvg, sumMin, sumMax float64
	for _, v := range snap.Votes {
		stats.TotalVotes++
		sumEstimations += float64(v.AmountOfEstimations)
		sumSpectators += float64(v.AmountOfSpectators)
		sumDuration += float64(v.Duration)
		sumAvg += v.AvgEstimation
		sumMin += float64(v.MinEstimation)
		sumMax += float64(v.MaxEstimation)

		// time.Weekday is Sunday-based; shift to ISO Monday-based.
		iso := (int(v.VotedAt.Weekday()) + 6) % 7
		stats.WeekdayCounts[weekdayNames[iso]]++
	}

	votes := float64(stats.TotalVotes)
	stats.TotalEstimations = int(sumEstimations)
	stats.AvgEstimationsPerVote = round2(ratio(sumEstimations, votes))
	stats.AvgSpectatorsPerVote = round2(ratio(sumSpectators, votes))
	stats.AvgDurationPerVote = round2(ratio(sumDuration, votes) / 60)
	stats.AvgEstimation = round2(ratio(sumAvg, votes))
	stats.AvgMinEstimation = round2(ratio(sumMin, votes))
	stats.AvgMaxEstimation = round2(ratio(sumMax, votes))
	stats.EstimationCounts = estimationHistogram(snap)

	return stats
}

// estimationHistogram buckets raw estimation rows by card value,
// ascending. Spectator rows carry no value and are skipped.
func estimationHistogram(snap *Snapshot) EstimationCounts {
	counts := make(map[int]int)
	for _, e := range snap.Estimations {
		if e.Estimation == nil {
			continue
		}
		counts[int(*e.Estimation)]++
	}

	histogram := make(EstimationCounts, 0, len(counts))
	for value, count := range counts {
		histogram = append(histogram, EstimationCount{Value: value, Count: count})
	}
	sort.Slice(histogram, func(i, j int) bool { return histogram[i].Value < histogram[j].Value })
	return histogram
}

// EstimationCount is one histogram bucket.
type EstimationCount struct {
	Value int
	Count int
}

// EstimationCounts marshals as a JSON object keyed by card value in
// numerically ascending order, which a plain map cannot guarantee.
type EstimationCounts []EstimationCount

func (c EstimationCounts) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, bucket := range c {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('"')
		buf.WriteString(strconv.Itoa(bucket.Value))
		buf.WriteString(`":`)
		buf.WriteString(strconv.Itoa(bucket.Count))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
