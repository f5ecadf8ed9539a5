package container

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"clearoute/config"
	"clearoute/internal/domain/entity"
	"clearoute/internal/infrastructure/storage"
	"clearoute/internal/infrastructure/vision"
)

func testConfig() *config.Config {
	return &config.Config{
		StorageDriver:   config.StorageMemory,
		Detector:        config.DetectorRemote,
		InferenceURL:    "http://127.0.0.1:1/predict",
		DetectorTimeout: time.Second,
		Confidence:      0.25,
	}
}

func TestNew_MemoryRemote(t *testing.T) {
	c, err := New(testConfig(), zap.NewNop())
	require.NoError(t, err)
	defer c.Close()

	assert.IsType(t, &storage.MemoryObservationRepository{}, c.Observations)
	assert.IsType(t, &vision.RemoteDetector{}, c.Detector)
	assert.NotNil(t, c.InspectionService)
	assert.NotNil(t, c.SurveillanceService)
	assert.NotNil(t, c.UserService)
	assert.NotNil(t, c.Metrics)
}

func TestNewStorage_SQLite(t *testing.T) {
	cfg := testConfig()
	cfg.StorageDriver = config.StorageSQLite
	cfg.DBPath = filepath.Join(t.TempDir(), "audit.db")

	c, err := NewStorage(cfg, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, c.Detector)

	ctx := context.Background()
	obs, err := entity.NewObservation(time.Now(), "cam", 2)
	require.NoError(t, err)
	_, err = c.Observations.Append(ctx, obs)
	require.NoError(t, err)

	rep, err := c.AuditService.Report(ctx, "cam")
	require.NoError(t, err)
	assert.Equal(t, 2, rep.UniqueDefects)

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
}

func TestNew_UnknownDriver(t *testing.T) {
	cfg := testConfig()
	cfg.StorageDriver = "postgres"
	_, err := New(cfg, zap.NewNop())
	require.Error(t, err)

	cfg = testConfig()
	cfg.Detector = "magic"
	_, err = New(cfg, zap.NewNop())
	require.Error(t, err)
}
