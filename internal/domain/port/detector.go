package port

import (
	"context"

	"clearoute/internal/domain/entity"
)

// DefectDetector интерфейс детектора выбоин
type DefectDetector interface {
	// Detect анализирует кадр и возвращает рамки вместе с размеченным JPEG.
	// На битом изображении должен сразу вернуть ошибку с entity.ErrInvalidImage.
	Detect(ctx context.Context, imageData []byte) (*entity.InspectionResult, error)
}
