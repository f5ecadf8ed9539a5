package app

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"clearoute/internal/domain/entity"
)

// fakeDetector отдаёт количество выбоин, записанное в первом байте кадра.
// Байт 0xFF означает отказ детектора.
type fakeDetector struct {
	mu    sync.Mutex
	delay time.Duration
	calls int
}

const failFrame = 0xFF

func (d *fakeDetector) Detect(ctx context.Context, imageData []byte) (*entity.InspectionResult, error) {
	d.mu.Lock()
	d.calls++
	d.mu.Unlock()

	if d.delay > 0 {
		select {
		case <-time.After(d.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if imageData[0] == failFrame {
		return nil, errors.New("model crashed")
	}

	defects := make([]entity.DefectArea, int(imageData[0]))
	return &entity.InspectionResult{Defects: defects, Annotated: []byte("annotated")}, nil
}

func (d *fakeDetector) Calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

// brokenRepo хранилище, которое всегда недоступно.
type brokenRepo struct{}

func (brokenRepo) Append(context.Context, entity.Observation) (int64, error) {
	return 0, errors.New("database is locked")
}

func (brokenRepo) ListAll(context.Context) ([]entity.Observation, error) {
	return nil, &entity.StoreError{Op: "list", Err: errors.New("database is locked")}
}

func (brokenRepo) Clear(context.Context) error {
	return &entity.StoreError{Op: "clear", Err: errors.New("database is locked")}
}

// sliceFrames источник кадров из памяти.
type sliceFrames struct {
	frames [][]byte
	next   int
}

func framesOf(counts ...int) *sliceFrames {
	s := &sliceFrames{}
	for _, c := range counts {
		s.frames = append(s.frames, []byte{byte(c)})
	}
	return s
}

func (s *sliceFrames) Next(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.next >= len(s.frames) {
		return nil, io.EOF
	}
	f := s.frames[s.next]
	s.next++
	return f, nil
}

func (s *sliceFrames) Close() error { return nil }
