package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"clearoute/internal/domain/entity"
	"clearoute/internal/domain/port"
)

// RemoteDetector вызывает внешний сервис инференса с моделью.
type RemoteDetector struct {
	inferenceURL string  // URL Python-сервиса с моделью
	confidence   float64 // порог уверенности, передаётся сервису
	client       *http.Client
}

// remoteBox рамка в ответе сервиса
type remoteBox struct {
	X          int     `json:"x"`
	Y          int     `json:"y"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	Class      string  `json:"class"`
	Confidence float32 `json:"confidence"`
}

// remoteResponse ответ сервиса инференса
type remoteResponse struct {
	PotholesFound int         `json:"potholes_found"`
	ImageBase64   string      `json:"image_base64"`
	Detections    []remoteBox `json:"detections"`
}

// NewRemoteDetector создаёт адаптер. timeout ограничивает один вызов модели.
func NewRemoteDetector(inferenceURL string, confidence float64, timeout time.Duration) *RemoteDetector {
	return &RemoteDetector{
		inferenceURL: inferenceURL,
		confidence:   confidence,
		client:       &http.Client{Timeout: timeout},
	}
}

// Detect отправляет кадр в сервис и разбирает результат.
func (m *RemoteDetector) Detect(ctx context.Context, imageData []byte) (*entity.InspectionResult, error) {
	width, height, err := probeImage(imageData)
	if err != nil {
		return nil, &entity.DetectorError{Op: "decode", Err: err}
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", "frame.jpg")
	if err != nil {
		return nil, &entity.DetectorError{Op: "encode", Err: fmt.Errorf("create form file: %w", err)}
	}
	if _, err := part.Write(imageData); err != nil {
		return nil, &entity.DetectorError{Op: "encode", Err: fmt.Errorf("copy image data: %w", err)}
	}
	if err := writer.WriteField("conf", strconv.FormatFloat(m.confidence, 'f', -1, 64)); err != nil {
		return nil, &entity.DetectorError{Op: "encode", Err: fmt.Errorf("write conf: %w", err)}
	}
	if err := writer.Close(); err != nil {
		return nil, &entity.DetectorError{Op: "encode", Err: fmt.Errorf("close form: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.inferenceURL, body)
	if err != nil {
		return nil, &entity.DetectorError{Op: "request", Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, &entity.DetectorError{Op: "request", Err: fmt.Errorf("send request: %w", err)}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity:
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &entity.DetectorError{Op: "infer", Err: errors.Join(entity.ErrInvalidImage, fmt.Errorf("rejected: %s", strings.TrimSpace(string(b))))}
	case resp.StatusCode != http.StatusOK:
		return nil, &entity.DetectorError{Op: "infer", Err: fmt.Errorf("inference failed with status: %d", resp.StatusCode)}
	}

	var result remoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &entity.DetectorError{Op: "infer", Err: fmt.Errorf("decode response: %w", err)}
	}
	if result.PotholesFound < 0 {
		return nil, &entity.DetectorError{Op: "infer", Err: fmt.Errorf("negative count %d", result.PotholesFound)}
	}

	annotated := imageData
	if result.ImageBase64 != "" {
		annotated, err = base64.StdEncoding.DecodeString(result.ImageBase64)
		if err != nil {
			return nil, &entity.DetectorError{Op: "infer", Err: fmt.Errorf("decode annotated image: %w", err)}
		}
	}

	defects := make([]entity.DefectArea, 0, len(result.Detections))
	for _, b := range result.Detections {
		defects = append(defects, entity.DefectArea{
			X:          b.X,
			Y:          b.Y,
			Width:      b.Width,
			Height:     b.Height,
			Class:      b.Class,
			Confidence: b.Confidence,
		})
	}

	return &entity.InspectionResult{
		ImageWidth:  width,
		ImageHeight: height,
		Defects:     defects,
		Annotated:   annotated,
		Reported:    result.PotholesFound,
	}, nil
}

// CheckHealth проверяет доступность сервиса инференса
func (m *RemoteDetector) CheckHealth(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimSuffix(m.inferenceURL, "/")+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ml service unhealthy: %d", resp.StatusCode)
	}

	return nil
}

var _ port.DefectDetector = (*RemoteDetector)(nil)
