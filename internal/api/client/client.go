package client

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
	"strings"
	"time"

	"clearoute/internal/api/dto"
	app "clearoute/internal/application"
	"clearoute/internal/domain/entity"
)

// Client HTTP-клиент API сервиса. Через него панель и watch --remote
// работают с удалённым сервером так же, как с локальными сервисами.
type Client struct {
	baseURL   string
	http      *http.Client
	UserAgent string
}

// New создаёт клиента. timeout ограничивает каждый запрос.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		http:      &http.Client{Timeout: timeout},
		UserAgent: "clearoute-cli/1.0",
	}
}

// Analyze отправляет кадр на POST /analyze.
func (c *Client) Analyze(ctx context.Context, source string, image []byte) (*app.AnalysisOutput, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", "frame.jpg")
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return nil, fmt.Errorf("copy image data: %w", err)
	}
	if err := writer.WriteField("source_name", source); err != nil {
		return nil, fmt.Errorf("write source_name: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close form: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, "/analyze", body, writer.FormDataContentType())
	if err != nil {
		// Сервер недоступен: для живой сессии это пропущенный кадр.
		return nil, &entity.DetectorError{Op: "request", Err: err}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusBadRequest:
		return nil, &entity.DetectorError{Op: "analyze", Err: errors.Join(entity.ErrInvalidImage, readError(resp))}
	default:
		// Любой другой ответ сервера для живой сессии означает пропущенный кадр.
		return nil, &entity.DetectorError{Op: "analyze", Err: readError(resp)}
	}

	var out dto.AnalyzeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &entity.DetectorError{Op: "analyze", Err: fmt.Errorf("decode response: %w", err)}
	}

	annotated, err := base64.StdEncoding.DecodeString(out.ImageBase64)
	if err != nil {
		return nil, &entity.DetectorError{Op: "analyze", Err: fmt.Errorf("decode annotated image: %w", err)}
	}

	obs, err := entity.NewObservation(time.Now(), source, out.PotholesFound)
	if err != nil {
		return nil, &entity.DetectorError{Op: "analyze", Err: err}
	}
	obs.ID = out.ObservationID

	result := &entity.InspectionResult{Annotated: annotated, Reported: out.PotholesFound}
	for _, b := range out.Detections {
		result.Defects = append(result.Defects, entity.DefectArea{
			X: b.X, Y: b.Y, Width: b.Width, Height: b.Height, Class: b.Class, Confidence: b.Confidence,
		})
	}

	output := &app.AnalysisOutput{Result: result, Observation: obs, Recorded: out.Recorded}
	if !out.Recorded {
		output.StoreErr = &entity.StoreError{Op: "append", Err: errors.New("server did not persist the observation")}
	}
	return output, nil
}

// History читает GET /history.
func (c *Client) History(ctx context.Context) ([]entity.Observation, error) {
	resp, err := c.do(ctx, http.MethodGet, "/history", nil, "")
	if err != nil {
		return nil, &entity.StoreError{Op: "list", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &entity.StoreError{Op: "list", Err: readError(resp)}
	}

	var items []dto.HistoryItem
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}

	out := make([]entity.Observation, 0, len(items))
	for _, item := range items {
		obs, err := item.Observation()
		if err != nil {
			return nil, err
		}
		out = append(out, obs)
	}
	return out, nil
}

// Clear вызывает DELETE /clear_history.
func (c *Client) Clear(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodDelete, "/clear_history", nil, "")
	if err != nil {
		return &entity.StoreError{Op: "clear", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &entity.StoreError{Op: "clear", Err: readError(resp)}
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	return c.http.Do(req)
}

// readError достаёт текст ошибки из ответа API.
func readError(resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var e dto.ErrorResponse
	if json.Unmarshal(b, &e) == nil && e.Error != "" {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, e.Error)
	}
	return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
}

var _ app.Analyzer = (*Client)(nil)
