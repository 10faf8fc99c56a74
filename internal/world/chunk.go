package world

import (
	"fmt"
	"sync"
	"time"

	"github.com/tekknoschtev/astral-surveyor-sub000/internal/vec"
)

// Chunk — содержимое одной ячейки мира. Владеет всеми своими объектами;
// дети ссылаются на родителей индексами в списках этого же чанка.
// После генерации содержимое логически неизменяемо, единственное
// исключение — отладочные вставки через Inject (см. ниже).
type Chunk struct {
	Coords vec.Vec2
	Seed   uint32 // Сид чанка, выведенный из сида вселенной и координат

	BackgroundStars []BackgroundStar
	Stars           []*Star
	Planets         []*Planet
	Moons           []*Moon
	Nebulae         []*Nebula
	AsteroidFields  []*AsteroidField
	Comets          []*Comet
	Wormholes       []*Wormhole
	BlackHoles      []*BlackHole
	RoguePlanets    []*RoguePlanet

	GeneratedAt time.Time

	// injected хранит идентичности объектов, вставленных извне.
	// Такие объекты не воспроизводятся регенерацией чанка и исчезают
	// при выгрузке из кеша — это документированное исключение из
	// контракта детерминизма, а не ошибка.
	injected map[string]struct{}

	// Mu защищает изменяемое состояние объектов после публикации
	// чанка: позиции, углы орбит, флаги открытий. AdvanceOrbits и
	// мутации флагов держат запись; читатели позиций берут RLock.
	Mu sync.RWMutex
}

// NewChunk создаёт пустой чанк с указанными координатами и сидом
func NewChunk(coords vec.Vec2, seed uint32) *Chunk {
	return &Chunk{
		Coords:      coords,
		Seed:        seed,
		GeneratedAt: time.Now(),
		injected:    make(map[string]struct{}),
	}
}

// Bodies возвращает все объекты чанка с идентичностью в порядке генерации.
// Фоновые звёзды декоративны и не включаются.
func (c *Chunk) Bodies() []Body {
	c.Mu.RLock()
	defer c.Mu.RUnlock()

	bodies := make([]Body, 0,
		len(c.Stars)+len(c.Planets)+len(c.Moons)+len(c.Nebulae)+
			len(c.AsteroidFields)+len(c.Comets)+len(c.Wormholes)+
			len(c.BlackHoles)+len(c.RoguePlanets))

	for _, o := range c.Stars {
		bodies = append(bodies, o)
	}
	for _, o := range c.Planets {
		bodies = append(bodies, o)
	}
	for _, o := range c.Moons {
		bodies = append(bodies, o)
	}
	for _, o := range c.Nebulae {
		bodies = append(bodies, o)
	}
	for _, o := range c.AsteroidFields {
		bodies = append(bodies, o)
	}
	for _, o := range c.Comets {
		bodies = append(bodies, o)
	}
	for _, o := range c.Wormholes {
		bodies = append(bodies, o)
	}
	for _, o := range c.BlackHoles {
		bodies = append(bodies, o)
	}
	for _, o := range c.RoguePlanets {
		bodies = append(bodies, o)
	}
	return bodies
}

// ObjectCount возвращает количество объектов с идентичностью
func (c *Chunk) ObjectCount() int {
	c.Mu.RLock()
	defer c.Mu.RUnlock()
	return len(c.Stars) + len(c.Planets) + len(c.Moons) + len(c.Nebulae) +
		len(c.AsteroidFields) + len(c.Comets) + len(c.Wormholes) +
		len(c.BlackHoles) + len(c.RoguePlanets)
}

// AdvanceOrbits продвигает круговые орбиты планет и лун на delta единиц
// универсального времени. Кометы не обновляются: их позиция — чистая
// функция времени и пересчитывается при запросе.
func (c *Chunk) AdvanceOrbits(delta float64) {
	c.Mu.Lock()
	defer c.Mu.Unlock()

	for _, p := range c.Planets {
		if p.StarIndex < 0 || p.StarIndex >= len(c.Stars) {
			continue
		}
		p.OrbitAngle = wrapAngle(p.OrbitAngle + p.OrbitSpeed*delta)
		p.Position = orbitPosition(c.Stars[p.StarIndex].Position, p.OrbitDist, p.OrbitAngle)
	}

	// Луны обновляются после планет: позиция родителя уже актуальна
	for _, m := range c.Moons {
		if m.PlanetIndex < 0 || m.PlanetIndex >= len(c.Planets) {
			continue
		}
		m.OrbitAngle = wrapAngle(m.OrbitAngle + m.OrbitSpeed*delta)
		m.Position = orbitPosition(c.Planets[m.PlanetIndex].Position, m.OrbitDist, m.OrbitAngle)
	}
}

// Inject вставляет уже сконструированный объект в чанк.
// Боковой канал для отладочного коллаборатора: объект существует
// только в этой копии чанка и не воспроизводится регенерацией.
func (c *Chunk) Inject(body Body) error {
	c.Mu.Lock()
	defer c.Mu.Unlock()

	switch o := body.(type) {
	case *Star:
		c.Stars = append(c.Stars, o)
	case *Planet:
		c.Planets = append(c.Planets, o)
	case *Moon:
		c.Moons = append(c.Moons, o)
	case *Nebula:
		c.Nebulae = append(c.Nebulae, o)
	case *AsteroidField:
		c.AsteroidFields = append(c.AsteroidFields, o)
	case *Comet:
		c.Comets = append(c.Comets, o)
	case *Wormhole:
		c.Wormholes = append(c.Wormholes, o)
	case *BlackHole:
		c.BlackHoles = append(c.BlackHoles, o)
	case *RoguePlanet:
		c.RoguePlanets = append(c.RoguePlanets, o)
	default:
		return fmt.Errorf("неподдерживаемый тип объекта %T", body)
	}

	c.injected[body.Identity()] = struct{}{}
	return nil
}

// IsInjected возвращает true, если объект был вставлен извне
func (c *Chunk) IsInjected(id string) bool {
	c.Mu.RLock()
	defer c.Mu.RUnlock()
	_, ok := c.injected[id]
	return ok
}
