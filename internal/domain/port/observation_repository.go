package port

import (
	"context"

	"clearoute/internal/domain/entity"
)

// ObservationRepository журнал аудита: только добавление, чтение и полная очистка
type ObservationRepository interface {
	// Append добавляет запись и возвращает её идентификатор
	Append(ctx context.Context, obs entity.Observation) (int64, error)

	// ListAll возвращает все записи, последние добавленные первыми
	ListAll(ctx context.Context) ([]entity.Observation, error)

	// Clear удаляет все записи всех источников; повторный вызов ничего не делает
	Clear(ctx context.Context) error
}
