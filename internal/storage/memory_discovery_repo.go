package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/tekknoschtev/astral-surveyor-sub000/internal/vec"
)

// MemoryDiscoveryRepo реализует DiscoveryRepo в памяти.
// Используется как fallback, когда внешнее хранилище недоступно,
// или для CI/локальной разработки без БД.
// ВНИМАНИЕ: Данные теряются при перезапуске сервера!
type MemoryDiscoveryRepo struct {
	mu   sync.RWMutex
	data map[string]DiscoveryRecord // objectID -> запись
}

// NewMemoryDiscoveryRepo создает новый репозиторий открытий в памяти.
func NewMemoryDiscoveryRepo() *MemoryDiscoveryRepo {
	return &MemoryDiscoveryRepo{
		data: make(map[string]DiscoveryRecord),
	}
}

// Save сохраняет запись об открытии в памяти.
func (r *MemoryDiscoveryRepo) Save(ctx context.Context, rec DiscoveryRecord) error {
	if rec.ObjectID == "" {
		return fmt.Errorf("пустая идентичность объекта")
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Первая отметка времени сохраняется: повторное открытие не
	// переписывает историю
	if _, exists := r.data[rec.ObjectID]; exists {
		return nil
	}
	r.data[rec.ObjectID] = rec
	return nil
}

// Load загружает запись об открытии из памяти.
func (r *MemoryDiscoveryRepo) Load(ctx context.Context, objectID string) (DiscoveryRecord, bool, error) {
	if objectID == "" {
		return DiscoveryRecord{}, false, fmt.Errorf("пустая идентичность объекта")
	}

	select {
	case <-ctx.Done():
		return DiscoveryRecord{}, false, ctx.Err()
	default:
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, exists := r.data[objectID]
	return rec, exists, nil
}

// LoadChunk загружает все открытия чанка из памяти.
func (r *MemoryDiscoveryRepo) LoadChunk(ctx context.Context, coords vec.Vec2) ([]DiscoveryRecord, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []DiscoveryRecord
	for _, rec := range r.data {
		if rec.Chunk == coords {
			result = append(result, rec)
		}
	}
	return result, nil
}

// LoadAll возвращает полный журнал открытий.
func (r *MemoryDiscoveryRepo) LoadAll(ctx context.Context) ([]DiscoveryRecord, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]DiscoveryRecord, 0, len(r.data))
	for _, rec := range r.data {
		result = append(result, rec)
	}
	return result, nil
}

// BatchSave сохраняет пачку записей в памяти.
func (r *MemoryDiscoveryRepo) BatchSave(ctx context.Context, recs []DiscoveryRecord) error {
	if len(recs) == 0 {
		return nil // Нечего сохранять
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	// Валидация всех записей перед сохранением
	for i, rec := range recs {
		if rec.ObjectID == "" {
			return fmt.Errorf("пустая идентичность объекта в batch (запись %d)", i)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, rec := range recs {
		if _, exists := r.data[rec.ObjectID]; !exists {
			r.data[rec.ObjectID] = rec
		}
	}
	return nil
}

// Delete удаляет запись об открытии из памяти.
func (r *MemoryDiscoveryRepo) Delete(ctx context.Context, objectID string) error {
	if objectID == "" {
		return fmt.Errorf("пустая идентичность объекта")
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.data[objectID]; !exists {
		return fmt.Errorf("открытие %s не найдено", objectID)
	}
	delete(r.data, objectID)
	return nil
}

// Reset стирает весь журнал открытий.
func (r *MemoryDiscoveryRepo) Reset(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.data = make(map[string]DiscoveryRecord)
	return nil
}

// Count возвращает число записей в журнале.
func (r *MemoryDiscoveryRepo) Count(ctx context.Context) (int, error) {
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	default:
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.data), nil
}
