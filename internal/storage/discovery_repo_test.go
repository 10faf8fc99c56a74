package storage

import (
	"context"
	"testing"
	"time"

	"github.com/tekknoschtev/astral-surveyor-sub000/internal/vec"
)

func record(id string, chunk vec.Vec2) DiscoveryRecord {
	return DiscoveryRecord{
		ObjectID:     id,
		ObjectType:   "star",
		Chunk:        chunk,
		Position:     vec.Vec2Float{X: 100, Y: 200},
		DiscoveredAt: time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC),
	}
}

// TestMemoryDiscoveryRepo тестирует in-memory репозиторий открытий
func TestMemoryDiscoveryRepo(t *testing.T) {
	repo := NewMemoryDiscoveryRepo()
	ctx := context.Background()

	t.Run("Save and Load", func(t *testing.T) {
		rec := record("star_100_200", vec.Vec2{X: 0, Y: 0})

		if err := repo.Save(ctx, rec); err != nil {
			t.Fatalf("Ошибка сохранения открытия: %v", err)
		}

		loaded, found, err := repo.Load(ctx, "star_100_200")
		if err != nil {
			t.Fatalf("Ошибка загрузки открытия: %v", err)
		}
		if !found {
			t.Fatal("Открытие не найдено")
		}
		if loaded != rec {
			t.Errorf("Неверная запись: ожидалась %+v, получена %+v", rec, loaded)
		}
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, found, err := repo.Load(ctx, "planet_no_such")
		if err != nil {
			t.Fatalf("Ошибка при загрузке несуществующего открытия: %v", err)
		}
		if found {
			t.Error("Найдено несуществующее открытие")
		}
	})

	t.Run("Save Is Idempotent", func(t *testing.T) {
		first := record("nebula_1_1", vec.Vec2{X: 1, Y: 1})
		if err := repo.Save(ctx, first); err != nil {
			t.Fatalf("Ошибка первого сохранения: %v", err)
		}

		// Повторное сохранение с другой отметкой времени не переписывает историю
		second := first
		second.DiscoveredAt = second.DiscoveredAt.Add(time.Hour)
		if err := repo.Save(ctx, second); err != nil {
			t.Fatalf("Ошибка повторного сохранения: %v", err)
		}

		loaded, _, err := repo.Load(ctx, "nebula_1_1")
		if err != nil {
			t.Fatalf("Ошибка загрузки: %v", err)
		}
		if !loaded.DiscoveredAt.Equal(first.DiscoveredAt) {
			t.Errorf("Первая отметка времени переписана: %v", loaded.DiscoveredAt)
		}
	})

	t.Run("Empty ObjectID Rejected", func(t *testing.T) {
		if err := repo.Save(ctx, DiscoveryRecord{}); err == nil {
			t.Error("Ожидалась ошибка для пустой идентичности")
		}
		if _, _, err := repo.Load(ctx, ""); err == nil {
			t.Error("Ожидалась ошибка для пустой идентичности")
		}
	})

	t.Run("LoadChunk Filters By Coordinates", func(t *testing.T) {
		repo := NewMemoryDiscoveryRepo()
		repo.Save(ctx, record("a", vec.Vec2{X: 5, Y: 5}))
		repo.Save(ctx, record("b", vec.Vec2{X: 5, Y: 5}))
		repo.Save(ctx, record("c", vec.Vec2{X: 6, Y: 5}))

		recs, err := repo.LoadChunk(ctx, vec.Vec2{X: 5, Y: 5})
		if err != nil {
			t.Fatalf("Ошибка загрузки чанка: %v", err)
		}
		if len(recs) != 2 {
			t.Errorf("Ожидалось 2 записи, получено %d", len(recs))
		}
	})

	t.Run("BatchSave", func(t *testing.T) {
		repo := NewMemoryDiscoveryRepo()
		batch := []DiscoveryRecord{
			record("x1", vec.Vec2{}),
			record("x2", vec.Vec2{}),
			record("x3", vec.Vec2{}),
		}
		if err := repo.BatchSave(ctx, batch); err != nil {
			t.Fatalf("Ошибка batch-сохранения: %v", err)
		}

		n, err := repo.Count(ctx)
		if err != nil {
			t.Fatalf("Ошибка подсчёта: %v", err)
		}
		if n != 3 {
			t.Errorf("Ожидалось 3 записи, получено %d", n)
		}

		// Пустая идентичность отклоняет весь batch
		bad := []DiscoveryRecord{record("x4", vec.Vec2{}), {}}
		if err := repo.BatchSave(ctx, bad); err == nil {
			t.Error("Ожидалась ошибка для batch с пустой идентичностью")
		}
	})

	t.Run("Delete", func(t *testing.T) {
		repo := NewMemoryDiscoveryRepo()
		repo.Save(ctx, record("victim", vec.Vec2{}))

		if err := repo.Delete(ctx, "victim"); err != nil {
			t.Fatalf("Ошибка удаления: %v", err)
		}
		if _, found, _ := repo.Load(ctx, "victim"); found {
			t.Error("Запись не удалена")
		}
		if err := repo.Delete(ctx, "victim"); err == nil {
			t.Error("Ожидалась ошибка удаления несуществующей записи")
		}
	})

	t.Run("Reset", func(t *testing.T) {
		repo := NewMemoryDiscoveryRepo()
		repo.Save(ctx, record("r1", vec.Vec2{}))
		repo.Save(ctx, record("r2", vec.Vec2{}))

		if err := repo.Reset(ctx); err != nil {
			t.Fatalf("Ошибка сброса: %v", err)
		}
		n, _ := repo.Count(ctx)
		if n != 0 {
			t.Errorf("Журнал не пуст после сброса: %d записей", n)
		}
	})

	t.Run("Cancelled Context", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(context.Background())
		cancel()

		if err := repo.Save(cancelled, record("ctx", vec.Vec2{})); err == nil {
			t.Error("Ожидалась ошибка отменённого контекста")
		}
	})
}
