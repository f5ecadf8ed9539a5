package http

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"clearoute/internal/logger"
)

// NewRouter собирает маршруты API. metrics может быть nil.
func NewRouter(h *Handler, metrics http.Handler, log *zap.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", h.Home)
	mux.HandleFunc("POST /analyze", h.Analyze)
	mux.HandleFunc("GET /history", h.History)
	mux.HandleFunc("DELETE /clear_history", h.ClearHistory)
	mux.HandleFunc("GET /summary", h.Summary)
	mux.HandleFunc("GET /report", h.Report)
	mux.HandleFunc("GET /chart", h.Chart)
	mux.HandleFunc("GET /health", h.Health)
	if metrics != nil {
		mux.Handle("GET /metrics", metrics)
	}

	return corsMiddleware(requestLogger(log, mux))
}

// corsMiddleware добавляет CORS заголовки
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// requestLogger кладёт в контекст логгер с req_id и пишет access-лог.
func requestLogger(log *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)

		reqLog := log.With(zap.String("req_id", id))
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		started := time.Now()

		next.ServeHTTP(rec, r.WithContext(logger.WithContext(r.Context(), reqLog)))

		reqLog.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("took", time.Since(started)))
	})
}
