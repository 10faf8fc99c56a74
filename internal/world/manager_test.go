package world

import (
	"sync"
	"testing"

	"github.com/tekknoschtev/astral-surveyor-sub000/internal/rng"
	"github.com/tekknoschtev/astral-surveyor-sub000/internal/vec"
)

func newTestManager(loadRadius, keepRadius int) *Manager {
	return NewManager(NewGenerator(42), loadRadius, keepRadius, nil)
}

func TestEnsureLoadedCaches(t *testing.T) {
	m := newTestManager(1, 2)
	coords := vec.Vec2{X: 0, Y: 0}

	first := m.EnsureLoaded(coords)
	second := m.EnsureLoaded(coords)
	if first != second {
		t.Error("Повторный EnsureLoaded вернул другой экземпляр чанка")
	}
	if m.ActiveCount() != 1 {
		t.Errorf("В кеше ожидался 1 чанк, получено %d", m.ActiveCount())
	}
}

func TestManagerReproducesAfterEviction(t *testing.T) {
	m := newTestManager(1, 2)
	coords := vec.Vec2{X: 2, Y: 3}

	before := chunkSignature(m.EnsureLoaded(coords))
	m.Unload(coords)
	if m.ActiveCount() != 0 {
		t.Fatalf("Кеш не пуст после выгрузки: %d", m.ActiveCount())
	}
	after := chunkSignature(m.EnsureLoaded(coords))

	if !sameSignature(before, after) {
		t.Error("Чанк не воспроизвёлся после выгрузки и перезагрузки")
	}
}

func TestUpdateActiveLoadsWindow(t *testing.T) {
	m := newTestManager(2, 4)

	m.UpdateActive(vec.Vec2Float{X: 1000, Y: 1000}) // чанк (0, 0)

	// Радиус загрузки 2 — квадрат 5x5
	if m.ActiveCount() != 25 {
		t.Fatalf("Ожидалось 25 активных чанков, получено %d", m.ActiveCount())
	}
	for dy := -2; dy <= 2; dy++ {
		for dx := -2; dx <= 2; dx++ {
			if _, ok := m.GetChunk(vec.Vec2{X: dx, Y: dy}); !ok {
				t.Errorf("Чанк (%d, %d) не загружен", dx, dy)
			}
		}
	}
}

func TestUpdateActiveEvictsDistant(t *testing.T) {
	m := newTestManager(1, 2)

	m.UpdateActive(vec.Vec2Float{X: 1000, Y: 1000}) // центр (0, 0)
	if _, ok := m.GetChunk(vec.Vec2{X: 0, Y: 0}); !ok {
		t.Fatal("Чанк (0, 0) не загружен")
	}

	// Камера уходит далеко: старое окно целиком за радиусом удержания
	m.UpdateActive(vec.Vec2Float{X: 41000, Y: 41000}) // центр (20, 20)

	if _, ok := m.GetChunk(vec.Vec2{X: 0, Y: 0}); ok {
		t.Error("Чанк (0, 0) не выгружен после ухода камеры")
	}
	if _, ok := m.GetChunk(vec.Vec2{X: 20, Y: 20}); !ok {
		t.Error("Чанк (20, 20) не загружен у новой позиции камеры")
	}
	if m.ActiveCount() != 9 {
		t.Errorf("Ожидалось 9 активных чанков, получено %d", m.ActiveCount())
	}
}

func TestUpdateActiveKeepRadiusHysteresis(t *testing.T) {
	m := newTestManager(1, 3)

	m.UpdateActive(vec.Vec2Float{X: 1000, Y: 1000}) // центр (0, 0)
	// Сдвиг на два чанка: чанк (-1, 0) за радиусом загрузки, но в радиусе удержания
	m.UpdateActive(vec.Vec2Float{X: 5000, Y: 1000}) // центр (2, 0)

	if _, ok := m.GetChunk(vec.Vec2{X: -1, Y: 0}); !ok {
		t.Error("Чанк (-1, 0) выгружен внутри радиуса удержания")
	}
}

func TestResetSeedClearsCache(t *testing.T) {
	m := newTestManager(1, 2)
	coords := vec.Vec2{X: 0, Y: 0}

	before := chunkSignature(m.EnsureLoaded(coords))
	m.ResetSeed(777)

	if m.ActiveCount() != 0 {
		t.Errorf("Кеш не очищен после смены сида: %d чанков", m.ActiveCount())
	}
	if m.Generator().UniverseSeed() != 777 {
		t.Errorf("Сид генератора не обновился: %d", m.Generator().UniverseSeed())
	}

	after := chunkSignature(m.EnsureLoaded(coords))
	if sameSignature(before, after) && len(before) > 0 {
		t.Error("Чанк не изменился после смены сида вселенной")
	}
}

func TestInjectDebugNotReproduced(t *testing.T) {
	m := newTestManager(1, 2)

	spawned := &RoguePlanet{
		Object: Object{
			ID:       "rogue_debug",
			Type:     TypeRoguePlanet,
			Position: vec.Vec2Float{X: 500, Y: 500},
			Radius:   12,
		},
		Class: PlanetExotic,
	}
	if err := m.InjectDebug(spawned); err != nil {
		t.Fatalf("InjectDebug вернул ошибку: %v", err)
	}

	coords := vec.Vec2{X: 0, Y: 0}
	chunk, ok := m.GetChunk(coords)
	if !ok {
		t.Fatal("Чанк вставки не загружен")
	}
	if !chunk.IsInjected("rogue_debug") {
		t.Error("Вставленный объект не помечен")
	}

	// Вставка не переживает выгрузку: регенерация её не воспроизводит
	m.Unload(coords)
	reloaded := m.EnsureLoaded(coords)
	for _, b := range reloaded.Bodies() {
		if b.Identity() == "rogue_debug" {
			t.Error("Отладочная вставка воспроизведена регенерацией")
		}
	}
}

func TestOnGeneratedHook(t *testing.T) {
	m := newTestManager(1, 2)

	var seen []vec.Vec2
	m.OnGenerated = func(c *Chunk) {
		seen = append(seen, c.Coords)
	}

	m.EnsureLoaded(vec.Vec2{X: 0, Y: 0})
	m.EnsureLoaded(vec.Vec2{X: 0, Y: 0}) // попадание в кеш — хук не зовётся

	if len(seen) != 1 {
		t.Fatalf("Хук вызван %d раз, ожидался 1", len(seen))
	}
	if seen[0] != (vec.Vec2{X: 0, Y: 0}) {
		t.Errorf("Хук получил чанк %v", seen[0])
	}
}

func TestEnsureLoadedDiscardsStaleGeneration(t *testing.T) {
	m := newTestManager(1, 2)
	coords := vec.Vec2{X: 0, Y: 0}

	// Смена сида прямо во время генерации: результат старой вселенной
	// не должен попасть в свежий кеш
	var once sync.Once
	m.OnGenerated = func(*Chunk) {
		once.Do(func() { m.ResetSeed(777) })
	}

	got := m.EnsureLoaded(coords)
	want := rng.ChunkSeed(777, coords.X, coords.Y)
	if got.Seed != want {
		t.Errorf("EnsureLoaded вернул чанк старого сида: %d, ожидался %d", got.Seed, want)
	}

	cached, ok := m.GetChunk(coords)
	if !ok {
		t.Fatal("Чанк не закеширован после EnsureLoaded")
	}
	if cached.Seed != want {
		t.Errorf("В кеше чанк старого сида: %d, ожидался %d", cached.Seed, want)
	}
}

func TestUpdateActiveDiscardsStaleGeneration(t *testing.T) {
	m := newTestManager(1, 2)

	var once sync.Once
	m.OnGenerated = func(*Chunk) {
		once.Do(func() { m.ResetSeed(777) })
	}

	m.UpdateActive(vec.Vec2Float{X: 0, Y: 0})

	if got := m.Generator().UniverseSeed(); got != 777 {
		t.Fatalf("Сид генератора после сброса: %d, ожидался 777", got)
	}
	for _, c := range m.Active() {
		want := rng.ChunkSeed(777, c.Coords.X, c.Coords.Y)
		if c.Seed != want {
			t.Errorf("Чанк (%d, %d) от старого сида: %d, ожидался %d",
				c.Coords.X, c.Coords.Y, c.Seed, want)
		}
	}

	// Следующий тик заполняет окно чанками новой вселенной
	m.OnGenerated = nil
	m.UpdateActive(vec.Vec2Float{X: 0, Y: 0})
	if m.ActiveCount() != 9 {
		t.Errorf("Окно не заполнено после сброса: %d чанков, ожидалось 9", m.ActiveCount())
	}
	for _, c := range m.Active() {
		want := rng.ChunkSeed(777, c.Coords.X, c.Coords.Y)
		if c.Seed != want {
			t.Errorf("Чанк (%d, %d) не от нового сида: %d, ожидался %d",
				c.Coords.X, c.Coords.Y, c.Seed, want)
		}
	}
}

func TestResetSeedConcurrentWithUpdateActive(t *testing.T) {
	m := newTestManager(1, 2)

	const resets = 20
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < resets; i++ {
			m.ResetSeed(uint32(100 + i))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < resets; i++ {
			m.UpdateActive(vec.Vec2Float{X: float64(i * 2000), Y: 0})
		}
	}()
	wg.Wait()

	// Каждый закешированный чанк обязан принадлежать текущему сиду
	seed := m.Generator().UniverseSeed()
	for _, c := range m.Active() {
		want := rng.ChunkSeed(seed, c.Coords.X, c.Coords.Y)
		if c.Seed != want {
			t.Errorf("Чанк (%d, %d) от чужого сида: %d, ожидался %d",
				c.Coords.X, c.Coords.Y, c.Seed, want)
		}
	}
}

func TestSetWorkersLoadsFullWindow(t *testing.T) {
	m := newTestManager(2, 4)
	m.SetWorkers(1)

	m.UpdateActive(vec.Vec2Float{X: 1000, Y: 1000})
	if m.ActiveCount() != 25 {
		t.Errorf("Один воркер загрузил %d чанков, ожидалось 25", m.ActiveCount())
	}

	// Неположительное значение — воркеры по числу CPU
	m.SetWorkers(0)
	m.ResetSeed(99)
	m.UpdateActive(vec.Vec2Float{X: 1000, Y: 1000})
	if m.ActiveCount() != 25 {
		t.Errorf("После SetWorkers(0) загружено %d чанков, ожидалось 25", m.ActiveCount())
	}
}

func TestManagerAdvanceOrbits(t *testing.T) {
	m := newTestManager(2, 4)
	m.UpdateActive(vec.Vec2Float{X: 0, Y: 0})

	var planet *Planet
	for _, c := range m.Active() {
		if len(c.Planets) > 0 {
			planet = c.Planets[0]
			break
		}
	}
	if planet == nil {
		t.Skip("В активном окне нет планет")
	}

	angleBefore := planet.OrbitAngle
	m.AdvanceOrbits(1.0)
	if planet.OrbitAngle == angleBefore {
		t.Error("Угол орбиты не изменился после AdvanceOrbits")
	}
}
