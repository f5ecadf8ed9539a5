package http

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"clearoute/internal/api/dto"
	app "clearoute/internal/application"
	"clearoute/internal/domain/entity"
	"clearoute/internal/infrastructure/report"
	"clearoute/internal/logger"
)

const maxUploadSize = 50 << 20 // 50MB

type Handler struct {
	analyzer app.Analyzer
	audit    *app.AuditService
	log      *zap.Logger
}

func NewHandler(analyzer app.Analyzer, audit *app.AuditService, log *zap.Logger) *Handler {
	return &Handler{
		analyzer: analyzer,
		audit:    audit,
		log:      log,
	}
}

// Home GET /
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{"status": "CleaRoute Local Server Online"}, http.StatusOK)
}

// Analyze обрабатывает POST /analyze: multipart file + source_name
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		respondError(w, "Failed to parse form", http.StatusBadRequest)
		return
	}

	source := r.FormValue("source_name")
	if source == "" {
		respondError(w, "source_name is required", http.StatusBadRequest)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		respondError(w, "No file uploaded", http.StatusBadRequest)
		return
	}
	defer file.Close()

	imageData, err := io.ReadAll(file)
	if err != nil {
		respondError(w, "Failed to read file", http.StatusInternalServerError)
		return
	}

	out, err := h.analyzer.Analyze(r.Context(), source, imageData)
	if err != nil {
		log := logger.FromContext(r.Context(), h.log)
		switch {
		case errors.Is(err, entity.ErrInvalidImage):
			respondError(w, "Invalid image", http.StatusBadRequest)
		case errors.Is(err, entity.ErrDetectorUnavailable):
			log.Warn("detection failed", zap.Error(err))
			respondError(w, "Detector unavailable", http.StatusServiceUnavailable)
		default:
			log.Error("analyze failed", zap.Error(err))
			respondError(w, "Internal error", http.StatusInternalServerError)
		}
		return
	}

	resp := dto.AnalyzeResponse{
		PotholesFound: out.Count(),
		RoadQuality:   string(out.Quality()),
		Recorded:      out.Recorded,
		ObservationID: out.Observation.ID,
		Detections:    []dto.Box{},
	}
	if out.Result != nil {
		resp.ImageBase64 = base64.StdEncoding.EncodeToString(out.Result.Annotated)
		resp.Detections = dto.BoxesFrom(out.Result.Defects)
	}

	respondJSON(w, resp, http.StatusOK)
}

// History GET /history[?source=]: записи, новые первыми
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	var (
		all []entity.Observation
		err error
	)
	if source := r.URL.Query().Get("source"); source != "" {
		all, err = h.audit.SourceHistory(r.Context(), source)
	} else {
		all, err = h.audit.History(r.Context())
	}
	if err != nil {
		h.storeFailed(w, r, err)
		return
	}
	respondJSON(w, dto.HistoryFrom(all), http.StatusOK)
}

// ClearHistory DELETE /clear_history
func (h *Handler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	if err := h.audit.Clear(r.Context()); err != nil {
		h.storeFailed(w, r, err)
		return
	}
	respondJSON(w, dto.MessageResponse{Message: "History Deleted"}, http.StatusOK)
}

// Summary GET /summary?source=
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	rep, ok := h.sourceReport(w, r)
	if !ok {
		return
	}
	respondJSON(w, dto.SummaryResponse{
		Source:        rep.Source,
		UniqueDefects: rep.UniqueDefects,
		Frames:        rep.Frames,
	}, http.StatusOK)
}

// Report GET /report?source=: PDF-отчёт для скачивания
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	rep, ok := h.sourceReport(w, r)
	if !ok {
		return
	}

	// Рендерим в буфер, чтобы при ошибке ещё можно было ответить JSON.
	var buf bytes.Buffer
	if err := report.PDF(&buf, rep); err != nil {
		logger.FromContext(r.Context(), h.log).Error("pdf render failed", zap.Error(err))
		respondError(w, "Failed to render report", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename*=UTF-8''%s", url.PathEscape(report.FileName(rep.Source))))
	_, _ = w.Write(buf.Bytes())
}

// Chart GET /chart?source=: HTML-график по времени
func (h *Handler) Chart(w http.ResponseWriter, r *http.Request) {
	rep, ok := h.sourceReport(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := report.Timeline(&buf, rep); err != nil {
		logger.FromContext(r.Context(), h.log).Error("chart render failed", zap.Error(err))
		respondError(w, "Failed to render chart", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// Health проверка здоровья сервиса
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

func (h *Handler) sourceReport(w http.ResponseWriter, r *http.Request) (*entity.SourceReport, bool) {
	source := r.URL.Query().Get("source")
	if source == "" {
		respondError(w, "source is required", http.StatusBadRequest)
		return nil, false
	}
	rep, err := h.audit.Report(r.Context(), source)
	if err != nil {
		h.storeFailed(w, r, err)
		return nil, false
	}
	return rep, true
}

func (h *Handler) storeFailed(w http.ResponseWriter, r *http.Request, err error) {
	logger.FromContext(r.Context(), h.log).Error("store request failed", zap.Error(err))
	respondError(w, "Store unavailable", http.StatusServiceUnavailable)
}

func respondJSON(w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, message string, status int) {
	respondJSON(w, dto.ErrorResponse{Error: message}, status)
}
