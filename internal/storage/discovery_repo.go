package storage

import (
	"context"
	"time"

	"github.com/tekknoschtev/astral-surveyor-sub000/internal/vec"
)

// DiscoveryRecord — персистентная запись об открытии небесного объекта.
// Ключ — стабильная идентичность объекта, выводимая из генеративных
// параметров: запись переживает выгрузку чанка и перезапуск сервера.
type DiscoveryRecord struct {
	ObjectID     string        `json:"object_id"`
	ObjectType   string        `json:"object_type"`
	Chunk        vec.Vec2      `json:"chunk"`
	Position     vec.Vec2Float `json:"position"`
	DiscoveredAt time.Time     `json:"discovered_at"`
}

// DiscoveryRepo определяет интерфейс для сохранения и загрузки открытий.
// Открытия привязаны к идентичности объекта, а не к экземпляру в памяти:
// при повторной генерации чанка флаги восстанавливаются по этим записям.
type DiscoveryRepo interface {
	// Save сохраняет запись об открытии. Повторное сохранение того же
	// объекта идемпотентно: первая отметка времени сохраняется.
	Save(ctx context.Context, rec DiscoveryRecord) error

	// Load загружает запись по идентичности объекта.
	// Возвращает false вторым значением, если объект ещё не открыт.
	Load(ctx context.Context, objectID string) (DiscoveryRecord, bool, error)

	// LoadChunk загружает все открытия, относящиеся к чанку.
	// Используется при восстановлении флагов после регенерации.
	LoadChunk(ctx context.Context, coords vec.Vec2) ([]DiscoveryRecord, error)

	// LoadAll возвращает полный журнал открытий (для снапшотов и API).
	LoadAll(ctx context.Context) ([]DiscoveryRecord, error)

	// BatchSave сохраняет пачку записей одним вызовом (для автосохранения).
	BatchSave(ctx context.Context, recs []DiscoveryRecord) error

	// Delete удаляет запись об открытии (для тестов или отладки).
	Delete(ctx context.Context, objectID string) error

	// Reset стирает весь журнал открытий. Единственный легальный путь
	// перевода объектов из открытых обратно в неоткрытые.
	Reset(ctx context.Context) error

	// Count возвращает число записей в журнале.
	Count(ctx context.Context) (int, error)
}
