package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"clearoute/internal/domain/entity"
	"clearoute/internal/infrastructure/storage"
	"clearoute/internal/observability"
)

func TestInspectionService_AnalyzeRecordsObservation(t *testing.T) {
	repo := storage.NewMemoryObservationRepository()
	svc := NewInspectionService(&fakeDetector{}, repo, time.Second, zap.NewNop(), observability.NewMetrics())
	ctx := context.Background()

	out, err := svc.Analyze(ctx, "road.jpg", []byte{3})
	require.NoError(t, err)
	require.Equal(t, 3, out.Count())
	require.Equal(t, entity.QualityBad, out.Quality())
	require.True(t, out.Recorded)
	require.NoError(t, out.StoreErr)
	require.NotZero(t, out.Observation.ID)
	require.Equal(t, []byte("annotated"), out.Result.Annotated)

	out, err = svc.Analyze(ctx, "road.jpg", []byte{0})
	require.NoError(t, err)
	require.Equal(t, entity.QualityGood, out.Quality())

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, 0, all[0].DefectCount)
	require.Equal(t, 3, all[1].DefectCount)
	require.Equal(t, "road.jpg", all[1].Source)
}

func TestInspectionService_StoreFailureKeepsResult(t *testing.T) {
	svc := NewInspectionService(&fakeDetector{}, brokenRepo{}, time.Second, zap.NewNop(), nil)

	out, err := svc.Analyze(context.Background(), "road.jpg", []byte{2})
	require.NoError(t, err)
	require.Equal(t, 2, out.Count())
	require.False(t, out.Recorded)
	require.ErrorIs(t, out.StoreErr, entity.ErrStoreUnavailable)
	require.Zero(t, out.Observation.ID)
}

func TestInspectionService_DetectorFailureRecordsNothing(t *testing.T) {
	repo := storage.NewMemoryObservationRepository()
	svc := NewInspectionService(&fakeDetector{}, repo, time.Second, zap.NewNop(), nil)

	_, err := svc.Analyze(context.Background(), "road.jpg", []byte{failFrame})
	require.ErrorIs(t, err, entity.ErrDetectorUnavailable)

	var detErr *entity.DetectorError
	require.ErrorAs(t, err, &detErr)

	all, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	require.Empty(t, all)
}

func TestInspectionService_EmptyImageFailsFast(t *testing.T) {
	det := &fakeDetector{}
	svc := NewInspectionService(det, storage.NewMemoryObservationRepository(), time.Second, zap.NewNop(), nil)

	_, err := svc.Analyze(context.Background(), "road.jpg", nil)
	require.ErrorIs(t, err, entity.ErrInvalidImage)
	require.Zero(t, det.Calls())
}

func TestInspectionService_Timeout(t *testing.T) {
	repo := storage.NewMemoryObservationRepository()
	svc := NewInspectionService(&fakeDetector{delay: time.Second}, repo, 20*time.Millisecond, zap.NewNop(), nil)

	_, err := svc.Analyze(context.Background(), "road.jpg", []byte{1})
	require.ErrorIs(t, err, entity.ErrDetectorUnavailable)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	all, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	require.Empty(t, all)
}

func TestInspectionService_NoDetector(t *testing.T) {
	svc := NewInspectionService(nil, storage.NewMemoryObservationRepository(), time.Second, zap.NewNop(), nil)

	_, err := svc.Analyze(context.Background(), "road.jpg", []byte{1})
	require.ErrorIs(t, err, entity.ErrDetectorUnavailable)
}
