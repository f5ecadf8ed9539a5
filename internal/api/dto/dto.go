package dto

import (
	"fmt"
	"time"

	"clearoute/internal/domain/entity"
)

// Box рамка выбоины в ответе API
type Box struct {
	X          int     `json:"x"`
	Y          int     `json:"y"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	Class      string  `json:"class"`
	Confidence float32 `json:"confidence"`
}

// AnalyzeResponse ответ POST /analyze
type AnalyzeResponse struct {
	PotholesFound int    `json:"potholes_found"`
	RoadQuality   string `json:"road_quality"`
	ImageBase64   string `json:"image_base64"`
	Recorded      bool   `json:"recorded"`
	ObservationID int64  `json:"observation_id,omitempty"`
	Detections    []Box  `json:"detections"`
}

// HistoryItem строка GET /history
type HistoryItem struct {
	ID       int64  `json:"id"`
	Time     string `json:"time"` // RFC 3339
	Source   string `json:"source"`
	Potholes int    `json:"potholes"`
	Status   string `json:"status"`
}

// SummaryResponse ответ GET /summary
type SummaryResponse struct {
	Source        string `json:"source"`
	UniqueDefects int    `json:"unique_defects"`
	Frames        int    `json:"frames"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// BoxesFrom переводит рамки детектора в формат API.
func BoxesFrom(defects []entity.DefectArea) []Box {
	boxes := make([]Box, 0, len(defects))
	for _, d := range defects {
		boxes = append(boxes, Box{
			X:          d.X,
			Y:          d.Y,
			Width:      d.Width,
			Height:     d.Height,
			Class:      d.Class,
			Confidence: d.Confidence,
		})
	}
	return boxes
}

// HistoryFrom переводит записи журнала в строки истории.
func HistoryFrom(observations []entity.Observation) []HistoryItem {
	items := make([]HistoryItem, 0, len(observations))
	for _, o := range observations {
		items = append(items, HistoryItem{
			ID:       o.ID,
			Time:     o.Timestamp.Format(time.RFC3339Nano),
			Source:   o.Source,
			Potholes: o.DefectCount,
			Status:   string(o.Quality),
		})
	}
	return items
}

// Observation восстанавливает запись журнала из строки истории.
func (h HistoryItem) Observation() (entity.Observation, error) {
	ts, err := time.Parse(time.RFC3339Nano, h.Time)
	if err != nil {
		return entity.Observation{}, fmt.Errorf("history item %d: %w", h.ID, err)
	}
	obs, err := entity.NewObservation(ts, h.Source, h.Potholes)
	if err != nil {
		return entity.Observation{}, fmt.Errorf("history item %d: %w", h.ID, err)
	}
	obs.ID = h.ID
	return obs, nil
}
