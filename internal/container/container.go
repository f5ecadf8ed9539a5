package container

import (
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"clearoute/config"
	app "clearoute/internal/application"
	"clearoute/internal/domain/port"
	"clearoute/internal/infrastructure/storage"
	"clearoute/internal/infrastructure/vision"
	"clearoute/internal/observability"
)

// Container собирает зависимости приложения по конфигурации.
type Container struct {
	Metrics      *observability.Metrics
	Observations port.ObservationRepository
	Detector     port.DefectDetector

	AuditService        *app.AuditService
	InspectionService   *app.InspectionService
	SurveillanceService *app.SurveillanceService
	UserService         *app.UserService

	closers []io.Closer
}

// New собирает полный набор сервисов: хранилище, детектор и сервисы поверх них.
func New(cfg *config.Config, log *zap.Logger) (*Container, error) {
	c, err := NewStorage(cfg, log)
	if err != nil {
		return nil, err
	}

	detector, err := newDetector(cfg)
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	if closer, ok := detector.(io.Closer); ok {
		c.closers = append(c.closers, closer)
	}

	c.Detector = detector
	c.Metrics = observability.NewMetrics()
	c.InspectionService = app.NewInspectionService(detector, c.Observations, cfg.DetectorTimeout, log.Named("inspection"), c.Metrics)
	c.SurveillanceService = app.NewSurveillanceService(c.InspectionService, log.Named("surveillance"))
	c.UserService = app.NewUserService(storage.NewMemoryUserRepository())

	return c, nil
}

// NewStorage открывает только журнал аудита. Используется командами,
// которым детектор не нужен: history, report, clear, dashboard.
func NewStorage(cfg *config.Config, log *zap.Logger) (*Container, error) {
	c := &Container{}

	switch cfg.StorageDriver {
	case config.StorageMemory:
		c.Observations = storage.NewMemoryObservationRepository()
	case config.StorageSQLite:
		repo, err := storage.NewSQLiteObservationRepository(cfg.DBPath, log.Named("sqlite"))
		if err != nil {
			return nil, fmt.Errorf("open audit store: %w", err)
		}
		c.Observations = repo
		c.closers = append(c.closers, repo)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}

	c.AuditService = app.NewAuditService(c.Observations, log.Named("audit"))
	return c, nil
}

func newDetector(cfg *config.Config) (port.DefectDetector, error) {
	switch cfg.Detector {
	case config.DetectorRemote:
		return vision.NewRemoteDetector(cfg.InferenceURL, cfg.Confidence, cfg.DetectorTimeout), nil
	case config.DetectorGoCV:
		d, err := vision.NewGoCVDetector(cfg.ModelPath, float32(cfg.Confidence))
		if err != nil {
			return nil, fmt.Errorf("load model %s: %w", cfg.ModelPath, err)
		}
		return d, nil
	default:
		return nil, fmt.Errorf("unknown detector %q", cfg.Detector)
	}
}

// Close освобождает ресурсы в обратном порядке.
func (c *Container) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}
