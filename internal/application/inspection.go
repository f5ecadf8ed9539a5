package app

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"clearoute/internal/domain/entity"
	"clearoute/internal/domain/port"
	"clearoute/internal/observability"
)

// Analyzer прогоняет один кадр через детектор и журнал аудита.
// Реализуется InspectionService и HTTP-клиентом удалённого API.
type Analyzer interface {
	Analyze(ctx context.Context, source string, image []byte) (*AnalysisOutput, error)
}

// AnalysisOutput содержит результат детекции и судьбу записи аудита.
type AnalysisOutput struct {
	Result      *entity.InspectionResult
	Observation entity.Observation // ID заполнен, только если Recorded
	Recorded    bool
	StoreErr    error // *entity.StoreError, если запись потеряна
}

// Count возвращает число выбоин на кадре.
func (o *AnalysisOutput) Count() int {
	return o.Observation.DefectCount
}

// Quality возвращает оценку кадра.
func (o *AnalysisOutput) Quality() entity.Quality {
	return o.Observation.Quality
}

type InspectionService struct {
	detector port.DefectDetector
	repo     port.ObservationRepository
	timeout  time.Duration
	log      *zap.Logger
	metrics  *observability.Metrics
	now      func() time.Time
}

// NewInspectionService создаёт сервис проверки кадров. timeout ограничивает вызов детектора.
func NewInspectionService(
	detector port.DefectDetector,
	repo port.ObservationRepository,
	timeout time.Duration,
	log *zap.Logger,
	metrics *observability.Metrics,
) *InspectionService {
	return &InspectionService{
		detector: detector,
		repo:     repo,
		timeout:  timeout,
		log:      log,
		metrics:  metrics,
		now:      time.Now,
	}
}

// Analyze запускает детектор и добавляет запись в журнал.
//
// Ошибка детектора возвращается как *entity.DetectorError, запись при этом не создаётся.
// Ошибка хранилища не прерывает ответ: результат возвращается с Recorded=false и StoreErr.
func (s *InspectionService) Analyze(ctx context.Context, source string, image []byte) (*AnalysisOutput, error) {
	if s.detector == nil {
		return nil, &entity.DetectorError{Op: "detect", Err: errors.New("detector is not configured")}
	}

	started := time.Now()
	result, err := s.detect(ctx, image)
	if err != nil {
		s.metrics.DetectorFailed()
		s.log.Warn("frame skipped", zap.String("source", source), zap.Error(err))
		return nil, err
	}

	obs, err := entity.NewObservation(s.now(), source, result.Count())
	if err != nil {
		s.metrics.DetectorFailed()
		return nil, &entity.DetectorError{Op: "detect", Err: err}
	}
	s.metrics.FrameAnalyzed(string(obs.Quality), time.Since(started))

	out := &AnalysisOutput{Result: result, Observation: obs}
	s.persist(ctx, out)
	return out, nil
}

// detect вызывает детектор с ограничением по времени. Детектор на gocv не
// слушает контекст, поэтому ждём его в отдельной горутине.
func (s *InspectionService) detect(ctx context.Context, image []byte) (*entity.InspectionResult, error) {
	if len(image) == 0 {
		return nil, &entity.DetectorError{Op: "decode", Err: entity.ErrInvalidImage}
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	type outcome struct {
		result *entity.InspectionResult
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		result, err := s.detector.Detect(ctx, image)
		done <- outcome{result: result, err: err}
	}()

	select {
	case o := <-done:
		if o.err != nil {
			var detErr *entity.DetectorError
			if !errors.As(o.err, &detErr) {
				o.err = &entity.DetectorError{Op: "detect", Err: o.err}
			}
			return nil, o.err
		}
		if o.result == nil {
			return nil, &entity.DetectorError{Op: "detect", Err: errors.New("empty result")}
		}
		return o.result, nil
	case <-ctx.Done():
		return nil, &entity.DetectorError{Op: "detect", Err: ctx.Err()}
	}
}

// persist пишет запись по принципу best effort.
func (s *InspectionService) persist(ctx context.Context, out *AnalysisOutput) {
	if s.repo == nil {
		out.StoreErr = &entity.StoreError{Op: "append", Err: errors.New("store is not configured")}
		s.metrics.StoreFailed()
		return
	}

	id, err := s.repo.Append(ctx, out.Observation)
	if err != nil {
		var storeErr *entity.StoreError
		if !errors.As(err, &storeErr) {
			err = &entity.StoreError{Op: "append", Err: err}
		}
		out.StoreErr = err
		s.metrics.StoreFailed()
		s.log.Error("observation not persisted",
			zap.String("source", out.Observation.Source),
			zap.Int("potholes", out.Observation.DefectCount),
			zap.Error(err))
		return
	}

	out.Observation.ID = id
	out.Recorded = true
}

var _ Analyzer = (*InspectionService)(nil)
