//go:build gocv
// +build gocv

package vision

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"sync"

	"gocv.io/x/gocv"

	"clearoute/internal/domain/entity"
)

// GoCVDetector запускает YOLO-модель в формате ONNX через модуль dnn OpenCV.
type GoCVDetector struct {
	InputSize    int     // сторона квадратного входа модели
	Confidence   float32 // минимальная уверенность рамки
	NMSThreshold float32 // порог подавления пересекающихся рамок
	Classes      []string

	mu  sync.Mutex // gocv.Net нельзя использовать из нескольких горутин
	net gocv.Net
}

// NewGoCVDetector загружает модель из файла .onnx.
func NewGoCVDetector(modelPath string, confidence float32) (*GoCVDetector, error) {
	net := gocv.ReadNetFromONNX(modelPath)
	if net.Empty() {
		return nil, fmt.Errorf("load model %s: empty network", modelPath)
	}
	if err := net.SetPreferableBackend(gocv.NetBackendDefault); err != nil {
		_ = net.Close()
		return nil, fmt.Errorf("set backend: %w", err)
	}
	if err := net.SetPreferableTarget(gocv.NetTargetCPU); err != nil {
		_ = net.Close()
		return nil, fmt.Errorf("set target: %w", err)
	}

	return &GoCVDetector{
		InputSize:    640,
		Confidence:   confidence,
		NMSThreshold: 0.45,
		Classes:      []string{"pothole"},
		net:          net,
	}, nil
}

// Detect ищет выбоины на кадре и рисует найденные рамки.
func (d *GoCVDetector) Detect(ctx context.Context, imageData []byte) (*entity.InspectionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, &entity.DetectorError{Op: "detect", Err: err}
	}

	mat, err := decodeToMat(imageData)
	if err != nil {
		return nil, &entity.DetectorError{Op: "decode", Err: err}
	}
	defer mat.Close()

	defects, err := d.infer(mat)
	if err != nil {
		return nil, &entity.DetectorError{Op: "infer", Err: err}
	}

	annotated, err := d.annotate(mat, defects)
	if err != nil {
		return nil, &entity.DetectorError{Op: "annotate", Err: err}
	}

	return &entity.InspectionResult{
		ImageWidth:  mat.Cols(),
		ImageHeight: mat.Rows(),
		Defects:     defects,
		Annotated:   annotated,
	}, nil
}

// infer прогоняет кадр через сеть и разбирает выход YOLOv8: [1, 4+классы, якоря].
func (d *GoCVDetector) infer(mat gocv.Mat) ([]entity.DefectArea, error) {
	blob := gocv.BlobFromImage(mat, 1.0/255.0, image.Pt(d.InputSize, d.InputSize), gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.mu.Lock()
	d.net.SetInput(blob, "")
	out := d.net.Forward("")
	d.mu.Unlock()
	defer out.Close()

	dims := out.Size()
	if len(dims) != 3 || dims[1] < 5 {
		return nil, fmt.Errorf("unexpected model output shape %v", dims)
	}
	rows, anchors := dims[1], dims[2]

	data, err := out.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("read model output: %w", err)
	}

	scaleX := float32(mat.Cols()) / float32(d.InputSize)
	scaleY := float32(mat.Rows()) / float32(d.InputSize)

	var (
		boxes   []image.Rectangle
		scores  []float32
		classes []int
	)
	for i := 0; i < anchors; i++ {
		best, bestClass := float32(0), 0
		for c := 4; c < rows; c++ {
			if s := data[c*anchors+i]; s > best {
				best, bestClass = s, c-4
			}
		}
		if best < d.Confidence {
			continue
		}

		cx, cy := data[i]*scaleX, data[anchors+i]*scaleY
		w, h := data[2*anchors+i]*scaleX, data[3*anchors+i]*scaleY
		boxes = append(boxes, image.Rect(int(cx-w/2), int(cy-h/2), int(cx+w/2), int(cy+h/2)))
		scores = append(scores, best)
		classes = append(classes, bestClass)
	}
	if len(boxes) == 0 {
		return nil, nil
	}

	indices := gocv.NMSBoxes(boxes, scores, d.Confidence, d.NMSThreshold)
	defects := make([]entity.DefectArea, 0, len(indices))
	for _, idx := range indices {
		rect := boxes[idx].Intersect(image.Rect(0, 0, mat.Cols(), mat.Rows()))
		if rect.Empty() {
			continue
		}
		defects = append(defects, entity.DefectArea{
			X:          rect.Min.X,
			Y:          rect.Min.Y,
			Width:      rect.Dx(),
			Height:     rect.Dy(),
			Class:      d.className(classes[idx]),
			Confidence: scores[idx],
		})
	}
	return defects, nil
}

// annotate рисует рамки с подписями и возвращает JPEG.
func (d *GoCVDetector) annotate(mat gocv.Mat, defects []entity.DefectArea) ([]byte, error) {
	red := color.RGBA{R: 255, A: 255}
	for _, defect := range defects {
		rect := image.Rect(defect.X, defect.Y, defect.X+defect.Width, defect.Y+defect.Height)
		gocv.Rectangle(&mat, rect, red, 2)
		label := fmt.Sprintf("%s %.2f", defect.Class, defect.Confidence)
		gocv.PutText(&mat, label, image.Pt(defect.X, maxInt(defect.Y-5, 12)), gocv.FontHersheySimplex, 0.5, red, 1)
	}

	img, err := mat.ToImage()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func (d *GoCVDetector) className(idx int) string {
	if idx >= 0 && idx < len(d.Classes) {
		return d.Classes[idx]
	}
	return fmt.Sprintf("class_%d", idx)
}

// Close освобождает сеть.
func (d *GoCVDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.net.Close()
}

// decodeToMat превращает байты изображения в gocv.Mat.
func decodeToMat(imageData []byte) (gocv.Mat, error) {
	if len(imageData) == 0 {
		return gocv.NewMat(), entity.ErrInvalidImage
	}
	mat, err := gocv.IMDecode(imageData, gocv.IMReadColor)
	if err == nil && !mat.Empty() {
		return mat, nil
	}
	if !mat.Empty() {
		mat.Close()
	}
	return gocv.NewMat(), errors.Join(entity.ErrInvalidImage, errors.New("failed to decode image"))
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
