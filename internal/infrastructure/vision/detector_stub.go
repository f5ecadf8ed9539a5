//go:build !gocv
// +build !gocv

package vision

import (
	"context"
	"errors"

	"clearoute/internal/domain/entity"
)

var errGoCVDisabled = errors.New("gocv build tag is not enabled")

// GoCVDetector заглушка для сборки без OpenCV.
type GoCVDetector struct {
	InputSize    int
	Confidence   float32
	NMSThreshold float32
	Classes      []string
}

// NewGoCVDetector возвращает ошибку, если сборка без тега gocv.
func NewGoCVDetector(modelPath string, confidence float32) (*GoCVDetector, error) {
	_ = modelPath
	_ = confidence
	return nil, errGoCVDisabled
}

// Detect возвращает ошибку, если сборка без тега gocv.
func (d *GoCVDetector) Detect(ctx context.Context, imageData []byte) (*entity.InspectionResult, error) {
	_ = ctx
	_ = imageData
	return nil, &entity.DetectorError{Op: "detect", Err: errGoCVDisabled}
}

// Close ничего не делает.
func (d *GoCVDetector) Close() error {
	return nil
}
