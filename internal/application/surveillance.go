package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"clearoute/internal/domain/entity"
	"clearoute/internal/domain/port"
)

// FrameUpdate состояние живой сессии после обработанного кадра.
type FrameUpdate struct {
	Frame       int // номер кадра в сессии, с единицы
	Count       int // выбоин на кадре
	Quality     entity.Quality
	UniqueTotal int // накопленное число уникальных выбоин
	Annotated   []byte
	Recorded    bool
}

// SessionSummary итог живой сессии.
type SessionSummary struct {
	Source        string
	Frames        int // кадров получено от источника
	Analyzed      int
	Skipped       int // детектор не ответил
	Unrecorded    int // результат есть, запись в журнал потеряна
	UniqueDefects int
}

type SurveillanceService struct {
	analyzer Analyzer
	log      *zap.Logger
}

// NewSurveillanceService создаёт сервис живого наблюдения.
func NewSurveillanceService(analyzer Analyzer, log *zap.Logger) *SurveillanceService {
	return &SurveillanceService{analyzer: analyzer, log: log}
}

// Watch запрашивает кадры по одному, анализирует их и ведёт счётчик уникальных выбоин.
//
// Кадр, на котором детектор упал, пропускается без обновления. Сессия
// заканчивается на io.EOF источника или при отмене ctx.
func (s *SurveillanceService) Watch(ctx context.Context, source string, frames port.FrameSource, onUpdate func(FrameUpdate)) (*SessionSummary, error) {
	var tally entity.Tally
	summary := &SessionSummary{Source: source}

	for {
		data, err := frames.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			summary.UniqueDefects = tally.Total()
			if ctxErr := ctx.Err(); ctxErr != nil {
				return summary, ctxErr
			}
			return summary, fmt.Errorf("read frame %d: %w", summary.Frames+1, err)
		}
		summary.Frames++

		out, err := s.analyzer.Analyze(ctx, source, data)
		if err != nil {
			if !errors.Is(err, entity.ErrDetectorUnavailable) {
				summary.UniqueDefects = tally.Total()
				return summary, err
			}
			summary.Skipped++
			continue
		}

		summary.Analyzed++
		if !out.Recorded {
			summary.Unrecorded++
		}

		total := tally.Observe(out.Count())
		if onUpdate != nil {
			var annotated []byte
			if out.Result != nil {
				annotated = out.Result.Annotated
			}
			onUpdate(FrameUpdate{
				Frame:       summary.Frames,
				Count:       out.Count(),
				Quality:     out.Quality(),
				UniqueTotal: total,
				Annotated:   annotated,
				Recorded:    out.Recorded,
			})
		}
	}

	summary.UniqueDefects = tally.Total()
	s.log.Info("analysis complete",
		zap.String("source", source),
		zap.Int("frames", summary.Frames),
		zap.Int("skipped", summary.Skipped),
		zap.Int("unique_defects", summary.UniqueDefects))
	return summary, nil
}
