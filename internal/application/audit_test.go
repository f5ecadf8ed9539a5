package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"clearoute/internal/domain/entity"
	"clearoute/internal/infrastructure/storage"
)

func seed(t *testing.T, repo *storage.MemoryObservationRepository, source string, counts ...int) {
	t.Helper()
	for _, c := range counts {
		obs, err := entity.NewObservation(time.Now(), source, c)
		require.NoError(t, err)
		_, err = repo.Append(context.Background(), obs)
		require.NoError(t, err)
	}
}

func TestAuditService_Report(t *testing.T) {
	repo := storage.NewMemoryObservationRepository()
	seed(t, repo, "CCTV: a.mp4", 2, 5)
	seed(t, repo, "b.jpg", 7)
	seed(t, repo, "CCTV: a.mp4", 1, 4)

	svc := NewAuditService(repo, zap.NewNop())
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }
	ctx := context.Background()

	rep, err := svc.Report(ctx, "CCTV: a.mp4")
	require.NoError(t, err)
	require.Equal(t, 8, rep.UniqueDefects)
	require.Equal(t, 4, rep.Frames)
	require.Equal(t, fixed, rep.GeneratedAt)

	counts := make([]int, len(rep.Rows))
	for i, o := range rep.Rows {
		counts[i] = o.DefectCount
	}
	require.Equal(t, []int{4, 1, 5, 2}, counts, "rows keep store order")

	rows, err := svc.SourceHistory(ctx, "b.jpg")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, 7, rows[0].DefectCount)

	sources, err := svc.Sources(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"CCTV: a.mp4", "b.jpg"}, sources)

	reports, err := svc.Reports(ctx)
	require.NoError(t, err)
	require.Len(t, reports, 2)
	require.Equal(t, 7, reports[1].UniqueDefects)
}

func TestAuditService_EmptyHistory(t *testing.T) {
	svc := NewAuditService(storage.NewMemoryObservationRepository(), zap.NewNop())

	rep, err := svc.Report(context.Background(), "missing")
	require.NoError(t, err)
	require.Zero(t, rep.UniqueDefects)
	require.Empty(t, rep.Rows)

	reports, err := svc.Reports(context.Background())
	require.NoError(t, err)
	require.Empty(t, reports)
}

func TestAuditService_ClearTwice(t *testing.T) {
	repo := storage.NewMemoryObservationRepository()
	seed(t, repo, "a.jpg", 1, 2)
	svc := NewAuditService(repo, zap.NewNop())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		require.NoError(t, svc.Clear(ctx))
		all, err := svc.History(ctx)
		require.NoError(t, err)
		require.Empty(t, all)
	}
}

func TestAuditService_StoreUnavailable(t *testing.T) {
	svc := NewAuditService(brokenRepo{}, zap.NewNop())

	_, err := svc.Report(context.Background(), "a.jpg")
	require.ErrorIs(t, err, entity.ErrStoreUnavailable)
	require.ErrorIs(t, svc.Clear(context.Background()), entity.ErrStoreUnavailable)
}
