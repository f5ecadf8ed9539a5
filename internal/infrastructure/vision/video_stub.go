//go:build !gocv
// +build !gocv

package vision

import (
	"context"
	"io"
)

// VideoFrameSource заглушка для сборки без OpenCV.
type VideoFrameSource struct{}

// NewVideoFrameSource возвращает ошибку, если сборка без тега gocv.
func NewVideoFrameSource(path string, stride int) (*VideoFrameSource, error) {
	_ = path
	_ = stride
	return nil, errGoCVDisabled
}

// Next всегда сообщает о конце потока.
func (s *VideoFrameSource) Next(ctx context.Context) ([]byte, error) {
	_ = ctx
	return nil, io.EOF
}

// Close ничего не делает.
func (s *VideoFrameSource) Close() error {
	return nil
}
