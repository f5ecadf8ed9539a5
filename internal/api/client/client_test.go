package client

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"clearoute/internal/api/dto"
	app "clearoute/internal/application"
	"clearoute/internal/domain/entity"
)

func TestClient_Analyze(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/analyze", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "CCTV: road.mp4", r.FormValue("source_name"))

		_ = json.NewEncoder(w).Encode(dto.AnalyzeResponse{
			PotholesFound: 2,
			RoadQuality:   "Bad",
			ImageBase64:   base64.StdEncoding.EncodeToString([]byte("jpeg")),
			Recorded:      true,
			ObservationID: 11,
			Detections:    []dto.Box{{X: 1, Class: "pothole"}, {X: 2, Class: "pothole"}},
		})
	}))
	defer srv.Close()

	out, err := New(srv.URL, time.Second).Analyze(context.Background(), "CCTV: road.mp4", []byte("frame"))
	require.NoError(t, err)
	assert.Equal(t, 2, out.Count())
	assert.Equal(t, entity.QualityBad, out.Quality())
	assert.True(t, out.Recorded)
	assert.Equal(t, int64(11), out.Observation.ID)
	assert.Equal(t, []byte("jpeg"), out.Result.Annotated)
	assert.Len(t, out.Result.Defects, 2)
}

func TestClient_AnalyzeNotRecorded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(dto.AnalyzeResponse{PotholesFound: 0, RoadQuality: "Good"})
	}))
	defer srv.Close()

	out, err := New(srv.URL, time.Second).Analyze(context.Background(), "a.jpg", []byte("frame"))
	require.NoError(t, err)
	assert.False(t, out.Recorded)
	assert.ErrorIs(t, out.StoreErr, entity.ErrStoreUnavailable)
}

func TestClient_AnalyzeErrors(t *testing.T) {
	cases := []struct {
		name     string
		status   int
		detector bool
		invalid  bool
	}{
		{"invalid image", http.StatusBadRequest, true, true},
		{"detector down", http.StatusServiceUnavailable, true, false},
		{"server error", http.StatusInternalServerError, true, false},
		{"upload too large", http.StatusRequestEntityTooLarge, true, false},
		{"rate limited", http.StatusTooManyRequests, true, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_ = json.NewEncoder(w).Encode(dto.ErrorResponse{Error: "nope"})
			}))
			defer srv.Close()

			_, err := New(srv.URL, time.Second).Analyze(context.Background(), "a.jpg", []byte("frame"))
			require.Error(t, err)
			assert.Equal(t, tc.detector, errors.Is(err, entity.ErrDetectorUnavailable))
			assert.Equal(t, tc.invalid, errors.Is(err, entity.ErrInvalidImage))
			assert.Contains(t, err.Error(), "nope")
		})
	}
}

func TestClient_ServerDownIsSkippedFrame(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url, time.Second).Analyze(context.Background(), "a.jpg", []byte("frame"))
	require.ErrorIs(t, err, entity.ErrDetectorUnavailable)

	_, err = New(url, time.Second).History(context.Background())
	require.ErrorIs(t, err, entity.ErrStoreUnavailable)
}

func TestClient_HistoryAndClear(t *testing.T) {
	ts := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	cleared := false

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/history":
			_ = json.NewEncoder(w).Encode(dto.HistoryFrom([]entity.Observation{
				{ID: 2, Timestamp: ts.Add(time.Second), Source: "a.jpg", DefectCount: 0, Quality: entity.QualityGood},
				{ID: 1, Timestamp: ts, Source: "a.jpg", DefectCount: 3, Quality: entity.QualityBad},
			}))
		case r.Method == http.MethodDelete && r.URL.Path == "/clear_history":
			cleared = true
			_ = json.NewEncoder(w).Encode(dto.MessageResponse{Message: "History Deleted"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := New(srv.URL+"/", time.Second)
	history, err := c.History(context.Background())
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, int64(2), history[0].ID)
	assert.Equal(t, entity.QualityBad, history[1].Quality)
	assert.True(t, ts.Equal(history[1].Timestamp))

	require.NoError(t, c.Clear(context.Background()))
	assert.True(t, cleared)
}

type sliceFrames struct {
	frames [][]byte
}

func (s *sliceFrames) Next(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(s.frames) == 0 {
		return nil, io.EOF
	}
	f := s.frames[0]
	s.frames = s.frames[1:]
	return f, nil
}

func (s *sliceFrames) Close() error { return nil }

func TestClient_WatchSkipsFrameOnServerError(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 2 {
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(dto.ErrorResponse{Error: "Internal error"})
			return
		}
		_ = json.NewEncoder(w).Encode(dto.AnalyzeResponse{PotholesFound: calls, RoadQuality: "Bad", Recorded: true})
	}))
	defer srv.Close()

	frames := &sliceFrames{frames: [][]byte{{1}, {2}, {3}, {4}}}
	watcher := app.NewSurveillanceService(New(srv.URL, time.Second), zap.NewNop())

	var totals []int
	summary, err := watcher.Watch(context.Background(), "CCTV: road.mp4", frames, func(u app.FrameUpdate) {
		totals = append(totals, u.UniqueTotal)
	})
	require.NoError(t, err)
	assert.Equal(t, 4, summary.Frames)
	assert.Equal(t, 3, summary.Analyzed)
	assert.Equal(t, 1, summary.Skipped)
	// counts seen: 1, 3, 4
	assert.Equal(t, []int{1, 3, 4}, totals)
	assert.Equal(t, 4, summary.UniqueDefects)
}
