package sim

import (
	"context"
	"sync"
	"time"

	"github.com/tekknoschtev/astral-surveyor-sub000/internal/discovery"
	"github.com/tekknoschtev/astral-surveyor-sub000/internal/logging"
	"github.com/tekknoschtev/astral-surveyor-sub000/internal/vec"
	"github.com/tekknoschtev/astral-surveyor-sub000/internal/world"
)

// ViewportProjection — прямоугольная проекция экрана вокруг камеры.
// Объект виден, если его ограничивающий круг пересекает видимую область.
type ViewportProjection struct {
	mu     sync.RWMutex
	center vec.Vec2Float
	width  float64
	height float64
}

// NewViewportProjection создаёт проекцию с указанными размерами экрана
// в мировых единицах.
func NewViewportProjection(width, height float64) *ViewportProjection {
	return &ViewportProjection{width: width, height: height}
}

// SetCenter сдвигает центр экрана (вызывается при движении камеры).
func (vp *ViewportProjection) SetCenter(center vec.Vec2Float) {
	vp.mu.Lock()
	vp.center = center
	vp.mu.Unlock()
}

// IsVisible возвращает true, если круг (pos, radius) пересекает экран.
func (vp *ViewportProjection) IsVisible(pos vec.Vec2Float, radius float64) bool {
	vp.mu.RLock()
	defer vp.mu.RUnlock()

	halfW := vp.width/2 + radius
	halfH := vp.height/2 + radius
	dx := pos.X - vp.center.X
	dy := pos.Y - vp.center.Y
	return dx >= -halfW && dx <= halfW && dy >= -halfH && dy <= halfH
}

// Simulation — цикл вселенной: продвигает универсальное время, держит
// активную область чанков вокруг камеры и прогоняет слой открытий.
// Камера одна: сервер обслуживает одиночную исследовательскую сессию.
type Simulation struct {
	mu       sync.RWMutex
	camera   vec.Vec2Float
	simTime  float64 // Универсальное время, секунды
	timeRate float64 // Единиц универсального времени на реальную секунду

	manager    *world.Manager
	discoverer *discovery.Service
	viewport   *ViewportProjection
	logger     *logging.Logger
}

// NewSimulation создаёт цикл вселенной.
func NewSimulation(manager *world.Manager, discoverer *discovery.Service, viewport *ViewportProjection, timeRate float64, logger *logging.Logger) *Simulation {
	if timeRate <= 0 {
		timeRate = 1.0
	}
	return &Simulation{
		manager:    manager,
		discoverer: discoverer,
		viewport:   viewport,
		timeRate:   timeRate,
		logger:     logger,
	}
}

// SetCamera перемещает камеру. Активная область догонит её на
// следующем тике.
func (s *Simulation) SetCamera(pos vec.Vec2Float) {
	s.mu.Lock()
	s.camera = pos
	s.mu.Unlock()
	if s.viewport != nil {
		s.viewport.SetCenter(pos)
	}
}

// Camera возвращает текущую позицию камеры.
func (s *Simulation) Camera() vec.Vec2Float {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.camera
}

// Time возвращает текущее универсальное время.
func (s *Simulation) Time() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.simTime
}

// SetTime выставляет универсальное время (используется при рестарте
// из сохранённого состояния).
func (s *Simulation) SetTime(t float64) {
	s.mu.Lock()
	s.simTime = t
	s.mu.Unlock()
}

// Manager возвращает менеджер чанков цикла.
func (s *Simulation) Manager() *world.Manager {
	return s.manager
}

// Discoverer возвращает слой открытий цикла.
func (s *Simulation) Discoverer() *discovery.Service {
	return s.discoverer
}

// Step выполняет один тик: продвигает время и орбиты, подтягивает
// активную область к камере и прогоняет слой открытий.
func (s *Simulation) Step(ctx context.Context, delta float64) {
	s.mu.Lock()
	s.simTime += delta * s.timeRate
	t := s.simTime
	camera := s.camera
	s.mu.Unlock()

	s.manager.AdvanceOrbits(delta * s.timeRate)
	s.manager.UpdateActive(camera)

	if s.discoverer != nil {
		if _, err := s.discoverer.Sweep(ctx, s.manager.Active(), camera, s.viewport, t); err != nil {
			if s.logger != nil {
				s.logger.Warn("Ошибка прохода открытий: %v", err)
			}
		}
	}
}

// Run крутит цикл с указанным интервалом до отмены контекста.
func (s *Simulation) Run(ctx context.Context, tick time.Duration) {
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			if s.logger != nil {
				s.logger.Info("Цикл вселенной остановлен")
			}
			return
		case now := <-ticker.C:
			delta := now.Sub(last).Seconds()
			last = now
			s.Step(ctx, delta)
		}
	}
}
