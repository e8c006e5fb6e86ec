package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jkrumm/fpp-analytics/pkg/model"
)

func TestWriteAndReadRoundTrip(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	votedAt := time.Date(2024, 6, 10, 14, 30, 0, 0, time.UTC)
	votes := []model.Vote{
		{ID: 1, RoomID: 7, AvgEstimation: 4.5, MinEstimation: 2, MaxEstimation: 8, AmountOfEstimations: 4, AmountOfSpectators: 1, Duration: 120, WasAutoFlip: true, VotedAt: votedAt},
		{ID: 2, RoomID: 7, AvgEstimation: 3.0, MinEstimation: 3, MaxEstimation: 3, AmountOfEstimations: 2, Duration: 45, VotedAt: votedAt.Add(time.Hour)},
	}

	require.NoError(t, WriteAll(s, model.TableVotes, votes))

	got, err := ReadAll[model.Vote](s, model.TableVotes)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, int64(1), got[0].ID)
	require.True(t, got[0].WasAutoFlip)
	require.Equal(t, votedAt.UnixNano(), got[0].VotedAt.UnixNano())
}

func TestWriteAndReadSmallintColumns(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	estimatedAt := time.Date(2024, 6, 10, 14, 30, 0, 0, time.UTC)
	value := int32(5)
	estimations := []model.Estimation{
		{ID: 1, UserID: "a", RoomID: 300, Estimation: &value, EstimatedAt: estimatedAt},
		{ID: 2, UserID: "b", RoomID: 300, Spectator: true, EstimatedAt: estimatedAt},
	}

	require.NoError(t, WriteAll(s, model.TableEstimations, estimations))

	got, err := ReadAll[model.Estimation](s, model.TableEstimations)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, int32(300), got[0].RoomID)
	require.NotNil(t, got[0].Estimation)
	require.Equal(t, int32(5), *got[0].Estimation)
	// Spectator rows carry a null estimation.
	require.Nil(t, got[1].Estimation)
}

func TestReadAllMissingFile(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	_, err = ReadAll[model.Vote](s, model.TableVotes)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMaxWatermark(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	// Missing file means "sync everything", not an error.
	_, ok, err := MaxWatermark[model.Vote](s, model.TableVotes)
	require.NoError(t, err)
	require.False(t, ok)

	votes := []model.Vote{{ID: 3}, {ID: 11}, {ID: 7}}
	require.NoError(t, WriteAll(s, model.TableVotes, votes))

	wm, ok, err := MaxWatermark[model.Vote](s, model.TableVotes)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int64(11), wm)
}

func TestMergeDeduplicatesAndSorts(t *testing.T) {
	existing := []model.Room{{ID: 1, Name: "alpha"}, {ID: 2, Name: "beta"}}
	incoming := []model.Room{{ID: 2, Name: "beta-renamed"}, {ID: 3, Name: "gamma"}}

	merged := Merge(incoming, existing)
	require.Len(t, merged, 3)
	require.Equal(t, int64(1), merged[0].ID)
	require.Equal(t, int64(2), merged[1].ID)
	// New rows win on key collision.
	require.Equal(t, "beta-renamed", merged[1].Name)
	require.Equal(t, int64(3), merged[2].ID)
}

func TestFreshnessMarker(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	_, ok := s.ReadFreshness()
	require.False(t, ok)

	at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, s.WriteFreshness(at))

	marker, ok := s.ReadFreshness()
	require.True(t, ok)
	require.Equal(t, at.Format(time.RFC3339Nano), marker)
}

func TestFilesReportsPresence(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, WriteAll(s, model.TableRooms, []model.Room{{ID: 1, Name: "alpha"}}))

	files := s.Files()
	require.Len(t, files, len(model.Tables))
	for _, f := range files {
		if f.Name == model.TableRooms+".parquet" {
			require.True(t, f.Present)
			require.Positive(t, f.SizeBytes)
		} else {
			require.False(t, f.Present)
		}
	}
}

func TestReset(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, WriteAll(s, model.TableRooms, []model.Room{{ID: 1}}))
	require.NoError(t, s.WriteFreshness(time.Now()))
	require.NoError(t, s.Reset())

	_, err = ReadAll[model.Room](s, model.TableRooms)
	require.ErrorIs(t, err, ErrNotFound)
	_, ok := s.ReadFreshness()
	require.False(t, ok)
}
