//go:build gocv
// +build gocv

package vision

import (
	"context"
	"fmt"
	"io"

	"gocv.io/x/gocv"

	"clearoute/internal/domain/port"
)

// VideoFrameSource читает видеофайл и отдаёт каждый stride-й кадр в JPEG.
type VideoFrameSource struct {
	capture *gocv.VideoCapture
	frame   gocv.Mat
	stride  int
	index   int
}

// NewVideoFrameSource открывает видеофайл. stride < 1 трактуется как 1.
func NewVideoFrameSource(path string, stride int) (*VideoFrameSource, error) {
	capture, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, fmt.Errorf("open video %s: %w", path, err)
	}
	if stride < 1 {
		stride = 1
	}
	return &VideoFrameSource{
		capture: capture,
		frame:   gocv.NewMat(),
		stride:  stride,
	}, nil
}

// Next пропускает stride-1 кадров и кодирует следующий.
func (s *VideoFrameSource) Next(ctx context.Context) ([]byte, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if ok := s.capture.Read(&s.frame); !ok || s.frame.Empty() {
			return nil, io.EOF
		}
		s.index++
		if s.index%s.stride != 0 {
			continue
		}

		buf, err := gocv.IMEncode(gocv.JPEGFileExt, s.frame)
		if err != nil {
			return nil, fmt.Errorf("encode frame %d: %w", s.index, err)
		}
		data := append([]byte(nil), buf.GetBytes()...)
		buf.Close()
		return data, nil
	}
}

// Close освобождает видеопоток.
func (s *VideoFrameSource) Close() error {
	_ = s.frame.Close()
	return s.capture.Close()
}

var _ port.FrameSource = (*VideoFrameSource)(nil)
