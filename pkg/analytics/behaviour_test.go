package analytics

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jkrumm/fpp-analytics/pkg/model"
)

func strptr(s string) *string { return &s }

func TestCanonicalizeSources(t *testing.T) {
	raw := map[string]int{
		"ads.google.com":      3,
		"www.google.com":      2,
		"teams.microsoft.com": 1,
		"unknown.xyz":         4,
	}

	out := canonicalizeSources(raw)
	require.Equal(t, map[string]int{
		"Google Ads":    3,
		"Google Search": 2,
		"Teams":         1,
		"Other":         4,
	}, out)
}

func TestCanonicalizeSourcesFirstRuleWins(t *testing.T) {
	// "ads." matches before "www.google.com" could; each raw value is
	// consumed exactly once.
	out := canonicalizeSources(map[string]int{"ads.www.google.com": 5})
	require.Equal(t, map[string]int{"Google Ads": 5, "Other": 0}, out)
}

func TestCanonicalizeSourcesEmptyKeepsOther(t *testing.T) {
	out := canonicalizeSources(map[string]int{})
	require.Equal(t, map[string]int{"Other": 0}, out)
}

func TestCalcBehaviourRoomVotes(t *testing.T) {
	snap := &Snapshot{
		PageViews: []model.PageView{
			{ID: 1, UserID: "a", Route: "/", Source: strptr("github.com/jkrumm"), ViewedAt: at(4, 10, 0)},
			{ID: 2, UserID: "a", Route: "/room/23", ViewedAt: at(4, 10, 1)},
		},
		Events: []model.Event{
			{ID: 1, UserID: "a", Event: "room_joined", OccurredAt: at(4, 10, 1)},
		},
		Rooms: []model.Room{
			{ID: 1, Number: 23, Name: "apollo", FirstUsedAt: at(4, 10, 0)},
		},
		Votes: []model.Vote{
			{ID: 1, RoomID: 1, VotedAt: at(4, 10, 5)},
			{ID: 2, RoomID: 1, VotedAt: at(4, 10, 9)},
			{ID: 3, RoomID: 99, VotedAt: at(4, 10, 9)}, // room unknown, skipped
		},
	}

	stats := calcBehaviour(snap)
	require.Equal(t, map[string]int{"/": 1, "/room/23": 1}, stats.Routes)
	require.Equal(t, map[string]int{"GitHub": 1, "Other": 0}, stats.Sources)
	require.Equal(t, map[string]int{"room_joined": 1}, stats.Events)
	require.Equal(t, map[string]int{"apollo": 2}, stats.Rooms)
}

func TestCalcBehaviourRoomVotesWideIDs(t *testing.T) {
	// Room ids above the smallint range must still join their votes.
	snap := &Snapshot{
		Rooms: []model.Room{
			{ID: 70000, Number: 70, Name: "zeus", FirstUsedAt: at(4, 10, 0)},
		},
		Votes: []model.Vote{
			{ID: 1, RoomID: 70000, VotedAt: at(4, 10, 5)},
		},
	}

	stats := calcBehaviour(snap)
	require.Equal(t, map[string]int{"zeus": 1}, stats.Rooms)
}

func TestTopN(t *testing.T) {
	counts := map[string]int{"a": 3, "b": 5, "c": 5, "d": 1}
	out := topN(counts, 2)
	// Ties break on key, so "b" beats "c" for nothing but "c" still
	// makes the cut over "a".
	require.Equal(t, map[string]int{"b": 5, "c": 5}, out)
}
