package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"clearoute/internal/domain/entity"
	"clearoute/internal/domain/port"
)

func newSQLite(t *testing.T) *SQLiteObservationRepository {
	t.Helper()
	repo, err := NewSQLiteObservationRepository(filepath.Join(t.TempDir(), "audit.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func repositories(t *testing.T) map[string]port.ObservationRepository {
	return map[string]port.ObservationRepository{
		"memory": NewMemoryObservationRepository(),
		"sqlite": newSQLite(t),
	}
}

func mustObservation(t *testing.T, ts time.Time, source string, count int) entity.Observation {
	t.Helper()
	obs, err := entity.NewObservation(ts, source, count)
	require.NoError(t, err)
	return obs
}

func TestObservationRepository_AppendAndListNewestFirst(t *testing.T) {
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			var ids []int64
			for i, c := range []int{2, 0, 5} {
				id, err := repo.Append(ctx, mustObservation(t, base.Add(time.Duration(i)*time.Second), "CCTV: road.mp4", c))
				require.NoError(t, err)
				ids = append(ids, id)
			}
			require.Less(t, ids[0], ids[1])
			require.Less(t, ids[1], ids[2])

			all, err := repo.ListAll(ctx)
			require.NoError(t, err)
			require.Len(t, all, 3)

			require.Equal(t, ids[2], all[0].ID)
			require.Equal(t, 5, all[0].DefectCount)
			require.Equal(t, entity.QualityBad, all[0].Quality)
			require.True(t, base.Add(2*time.Second).Equal(all[0].Timestamp))
			require.Equal(t, "CCTV: road.mp4", all[0].Source)

			require.Equal(t, 0, all[1].DefectCount)
			require.Equal(t, entity.QualityGood, all[1].Quality)

			for _, obs := range all {
				require.Equal(t, entity.QualityOf(obs.DefectCount), obs.Quality)
			}
		})
	}
}

func TestObservationRepository_ClearIsIdempotent(t *testing.T) {
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := repo.Append(ctx, mustObservation(t, time.Now(), "a.jpg", 1))
			require.NoError(t, err)
			_, err = repo.Append(ctx, mustObservation(t, time.Now(), "b.jpg", 0))
			require.NoError(t, err)

			require.NoError(t, repo.Clear(ctx))
			all, err := repo.ListAll(ctx)
			require.NoError(t, err)
			require.Empty(t, all)

			require.NoError(t, repo.Clear(ctx))
			all, err = repo.ListAll(ctx)
			require.NoError(t, err)
			require.Empty(t, all)
		})
	}
}

func TestObservationRepository_EmptyStore(t *testing.T) {
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			all, err := repo.ListAll(context.Background())
			require.NoError(t, err)
			require.Empty(t, all)
		})
	}
}

func TestSQLiteObservationRepository_ReadsLegacyTimestamps(t *testing.T) {
	repo := newSQLite(t)

	_, err := repo.db.Exec(
		`INSERT INTO traffic_data (timestamp, source, potholes, quality) VALUES (?, ?, ?, ?)`,
		"2024-01-02 03:04:05", "old.jpg", 1, "Bad")
	require.NoError(t, err)

	all, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Equal(t, 2024, all[0].Timestamp.Year())
	require.Equal(t, 4, all[0].Timestamp.Minute())
}

func TestSQLiteObservationRepository_ClosedStoreFails(t *testing.T) {
	repo := newSQLite(t)
	require.NoError(t, repo.Close())

	_, err := repo.Append(context.Background(), mustObservation(t, time.Now(), "a.jpg", 1))
	require.ErrorIs(t, err, entity.ErrStoreUnavailable)

	_, err = repo.ListAll(context.Background())
	require.ErrorIs(t, err, entity.ErrStoreUnavailable)
}

func TestMemoryObservationRepository_CancelledContext(t *testing.T) {
	repo := NewMemoryObservationRepository()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.Append(ctx, entity.Observation{})
	require.ErrorIs(t, err, entity.ErrStoreUnavailable)
}
