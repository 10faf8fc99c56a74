package sim

import (
	"context"
	"testing"

	"github.com/tekknoschtev/astral-surveyor-sub000/internal/discovery"
	"github.com/tekknoschtev/astral-surveyor-sub000/internal/storage"
	"github.com/tekknoschtev/astral-surveyor-sub000/internal/vec"
	"github.com/tekknoschtev/astral-surveyor-sub000/internal/world"
)

func newTestSimulation() *Simulation {
	manager := world.NewManager(world.NewGenerator(42), 1, 2, nil)
	svc := discovery.NewService(storage.NewMemoryDiscoveryRepo(), nil, nil)
	viewport := NewViewportProjection(1600, 900)
	return NewSimulation(manager, svc, viewport, 1.0, nil)
}

func TestViewportProjection(t *testing.T) {
	vp := NewViewportProjection(1600, 900)
	vp.SetCenter(vec.Vec2Float{X: 1000, Y: 1000})

	if !vp.IsVisible(vec.Vec2Float{X: 1000, Y: 1000}, 10) {
		t.Error("Центр экрана не виден")
	}
	if !vp.IsVisible(vec.Vec2Float{X: 1790, Y: 1000}, 20) {
		t.Error("Объект у правого края с запасом радиуса не виден")
	}
	if vp.IsVisible(vec.Vec2Float{X: 3000, Y: 1000}, 10) {
		t.Error("Объект далеко за краем экрана виден")
	}
	// Радиус расширяет зону видимости
	if vp.IsVisible(vec.Vec2Float{X: 1850, Y: 1000}, 10) {
		t.Error("Малый объект сразу за краем виден")
	}
	if !vp.IsVisible(vec.Vec2Float{X: 1850, Y: 1000}, 100) {
		t.Error("Крупный объект, пересекающий край, не виден")
	}
}

func TestStepAdvancesTimeAndArea(t *testing.T) {
	s := newTestSimulation()
	ctx := context.Background()

	s.SetCamera(vec.Vec2Float{X: 1000, Y: 1000})
	s.Step(ctx, 0.5)

	if s.Time() != 0.5 {
		t.Errorf("Универсальное время: ожидалось 0.5, получено %f", s.Time())
	}

	// Радиус загрузки 1 — окно 3x3 вокруг чанка (0, 0)
	if n := s.Manager().ActiveCount(); n != 9 {
		t.Errorf("Ожидалось 9 активных чанков, получено %d", n)
	}
}

func TestStepTimeRate(t *testing.T) {
	manager := world.NewManager(world.NewGenerator(42), 1, 2, nil)
	s := NewSimulation(manager, nil, nil, 10.0, nil)

	s.Step(context.Background(), 1.0)
	if s.Time() != 10.0 {
		t.Errorf("Время с ускорением x10: ожидалось 10, получено %f", s.Time())
	}
}

func TestStepRunsDiscoverySweep(t *testing.T) {
	repo := storage.NewMemoryDiscoveryRepo()
	manager := world.NewManager(world.NewGenerator(42), 2, 4, nil)
	svc := discovery.NewService(repo, nil, nil)
	viewport := NewViewportProjection(4000, 4000)
	s := NewSimulation(manager, svc, viewport, 1.0, nil)

	manager.OnGenerated = func(c *world.Chunk) {
		_ = svc.Restore(context.Background(), c)
	}

	// Широкий экран в плотной области почти наверняка накрывает звезду
	s.SetCamera(vec.Vec2Float{X: 1000, Y: 1000})
	for i := 0; i < 3; i++ {
		s.Step(context.Background(), 0.1)
	}

	n, err := repo.Count(context.Background())
	if err != nil {
		t.Fatalf("Ошибка подсчёта: %v", err)
	}
	if n == 0 {
		t.Skip("В стартовой области нет объектов в зоне досягаемости")
	}
}

func TestSetTimeRestoresClock(t *testing.T) {
	s := newTestSimulation()
	s.SetTime(12345.5)
	if s.Time() != 12345.5 {
		t.Errorf("Время не восстановлено: %f", s.Time())
	}
}
