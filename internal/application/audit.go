package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"clearoute/internal/domain/entity"
	"clearoute/internal/domain/port"
)

// AuditService чтение и очистка журнала аудита, сводки по источникам.
type AuditService struct {
	repo port.ObservationRepository
	log  *zap.Logger
	now  func() time.Time
}

func NewAuditService(repo port.ObservationRepository, log *zap.Logger) *AuditService {
	return &AuditService{repo: repo, log: log, now: time.Now}
}

// History возвращает весь журнал, новые записи первыми.
func (s *AuditService) History(ctx context.Context) ([]entity.Observation, error) {
	return s.repo.ListAll(ctx)
}

// SourceHistory возвращает записи одного источника в порядке журнала.
func (s *AuditService) SourceHistory(ctx context.Context, source string) ([]entity.Observation, error) {
	all, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return entity.FilterBySource(all, source), nil
}

// Sources возвращает источники в порядке журнала.
func (s *AuditService) Sources(ctx context.Context) ([]string, error) {
	all, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return entity.Sources(all), nil
}

// Report собирает сводку по источнику. Пустая история не ошибка.
func (s *AuditService) Report(ctx context.Context, source string) (*entity.SourceReport, error) {
	all, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return entity.NewSourceReport(source, all, s.now()), nil
}

// Reports собирает сводки по всем источникам за один проход по журналу.
func (s *AuditService) Reports(ctx context.Context) ([]*entity.SourceReport, error) {
	all, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	sources := entity.Sources(all)
	reports := make([]*entity.SourceReport, 0, len(sources))
	for _, src := range sources {
		reports = append(reports, entity.NewSourceReport(src, all, now))
	}
	return reports, nil
}

// Clear удаляет журнал целиком.
func (s *AuditService) Clear(ctx context.Context) error {
	if err := s.repo.Clear(ctx); err != nil {
		return err
	}
	s.log.Info("history deleted")
	return nil
}
