package storage

import (
	"context"
	"sync"

	"clearoute/internal/domain/entity"
	"clearoute/internal/domain/port"
)

// MemoryObservationRepository журнал аудита в памяти.
// Используется в тестах и при STORAGE_DRIVER=memory.
type MemoryObservationRepository struct {
	mu     sync.RWMutex
	rows   []entity.Observation
	nextID int64
}

// NewMemoryObservationRepository создаёт пустой журнал
func NewMemoryObservationRepository() *MemoryObservationRepository {
	return &MemoryObservationRepository{nextID: 1}
}

// Append добавляет запись и назначает ей идентификатор
func (r *MemoryObservationRepository) Append(ctx context.Context, obs entity.Observation) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, &entity.StoreError{Op: "append", Err: err}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	obs.ID = r.nextID
	r.nextID++
	r.rows = append(r.rows, obs)

	return obs.ID, nil
}

// ListAll возвращает копию журнала, новые записи первыми
func (r *MemoryObservationRepository) ListAll(ctx context.Context) ([]entity.Observation, error) {
	if err := ctx.Err(); err != nil {
		return nil, &entity.StoreError{Op: "list", Err: err}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]entity.Observation, len(r.rows))
	for i, obs := range r.rows {
		out[len(r.rows)-1-i] = obs
	}
	return out, nil
}

// Clear удаляет все записи
func (r *MemoryObservationRepository) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return &entity.StoreError{Op: "clear", Err: err}
	}

	r.mu.Lock()
	r.rows = nil
	r.mu.Unlock()

	return nil
}

var _ port.ObservationRepository = (*MemoryObservationRepository)(nil)
