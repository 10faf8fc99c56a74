package world

import (
	"runtime"
	"sync"
	"time"

	"github.com/tekknoschtev/astral-surveyor-sub000/internal/logging"
	"github.com/tekknoschtev/astral-surveyor-sub000/internal/vec"
)

// Число воркеров параллельной генерации по умолчанию
const updateWorkers = 4

// Manager — кеш чанков поверх генератора. Удерживает окно чанков
// вокруг камеры, генерирует недостающие лениво и выгружает чанки,
// ушедшие за радиус удержания. Выгрузка не теряет состояние: всё,
// кроме отладочных вставок, восстанавливается регенерацией, а флаги
// открытий — слоем открытий при повторной загрузке.
type Manager struct {
	mu        sync.RWMutex
	generator *Generator
	chunks    map[vec.Vec2]*Chunk

	loadRadius int // Радиус обязательной загрузки вокруг камеры
	keepRadius int // Радиус удержания; дальше — выгрузка
	workers    int // Воркеры параллельной генерации

	// OnGenerated вызывается для каждого свежесгенерированного чанка
	// до того, как он станет видим другим горутинам. Слой открытий
	// подвешивает сюда восстановление флагов из репозитория.
	OnGenerated func(*Chunk)

	logger *logging.Logger
}

// NewManager создаёт менеджер чанков.
// keepRadius меньше loadRadius не имеет смысла и поднимается до него.
func NewManager(generator *Generator, loadRadius, keepRadius int, logger *logging.Logger) *Manager {
	if keepRadius < loadRadius {
		keepRadius = loadRadius
	}
	return &Manager{
		generator:  generator,
		chunks:     make(map[vec.Vec2]*Chunk),
		loadRadius: loadRadius,
		keepRadius: keepRadius,
		workers:    updateWorkers,
		logger:     logger,
	}
}

// SetWorkers задаёт число воркеров параллельной генерации.
// Неположительное значение означает «по числу CPU».
func (m *Manager) SetWorkers(n int) {
	if n <= 0 {
		n = runtime.NumCPU()
	}
	m.mu.Lock()
	m.workers = n
	m.mu.Unlock()
}

// Generator возвращает текущий генератор менеджера
func (m *Manager) Generator() *Generator {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.generator
}

// GetChunk возвращает чанк из кеша без генерации
func (m *Manager) GetChunk(coords vec.Vec2) (*Chunk, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.chunks[coords]
	return c, ok
}

// EnsureLoaded возвращает чанк, генерируя его при отсутствии в кеше.
// Используется двойная проверка: генерация идёт вне блокировки, и при
// гонке побеждает первый записавший — проигравшая копия идентична
// по детерминизму и просто отбрасывается. Генератор снимается до
// генерации: если за это время сид сменился, результат принадлежит
// старой вселенной, отбрасывается, и генерация повторяется заново.
func (m *Manager) EnsureLoaded(coords vec.Vec2) *Chunk {
	m.mu.RLock()
	c, ok := m.chunks[coords]
	gen := m.generator
	m.mu.RUnlock()
	if ok {
		chunkCacheHits.Inc()
		return c
	}
	chunkCacheMisses.Inc()

	for {
		fresh := m.generateChunk(gen, coords)

		m.mu.Lock()
		if m.generator != gen {
			gen = m.generator
			m.mu.Unlock()
			continue
		}
		if existing, ok := m.chunks[coords]; ok {
			m.mu.Unlock()
			return existing
		}
		m.chunks[coords] = fresh
		chunksActive.Set(float64(len(m.chunks)))
		m.mu.Unlock()
		return fresh
	}
}

func (m *Manager) generateChunk(gen *Generator, coords vec.Vec2) *Chunk {
	start := time.Now()
	c := gen.Generate(coords)
	chunkGenDuration.Observe(time.Since(start).Seconds())
	chunksGenerated.Inc()

	if m.OnGenerated != nil {
		m.OnGenerated(c)
	}
	if m.logger != nil {
		m.logger.Debug("Сгенерирован чанк (%d, %d): %d объектов за %v",
			coords.X, coords.Y, c.ObjectCount(), time.Since(start))
	}
	return c
}

// Unload выгружает чанк из кеша. Отладочные вставки при этом теряются.
func (m *Manager) Unload(coords vec.Vec2) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.chunks[coords]; ok {
		delete(m.chunks, coords)
		chunksActive.Set(float64(len(m.chunks)))
	}
}

// UpdateActive сдвигает активную область к позиции камеры: догружает
// все чанки в радиусе загрузки и выгружает ушедшие за радиус удержания.
// Генерация недостающих чанков распараллеливается; запись в кеш
// сериализуется финальной секцией под блокировкой. Если сид сменился
// во время прохода, все результаты отбрасываются: кеш уже очищен
// сбросом, следующий тик заполнит его чанками новой вселенной.
func (m *Manager) UpdateActive(camera vec.Vec2Float) {
	center := vec.ToChunkCoords(camera)
	wanted := center.Neighbors(m.loadRadius)

	m.mu.RLock()
	gen := m.generator
	workers := m.workers
	var missing []vec.Vec2
	for _, coords := range wanted {
		if _, ok := m.chunks[coords]; !ok {
			missing = append(missing, coords)
		}
	}
	m.mu.RUnlock()

	generated := make([]*Chunk, len(missing))
	if len(missing) > 0 {
		jobs := make(chan int)
		var wg sync.WaitGroup
		if len(missing) < workers {
			workers = len(missing)
		}
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := range jobs {
					generated[i] = m.generateChunk(gen, missing[i])
				}
			}()
		}
		for i := range missing {
			jobs <- i
		}
		close(jobs)
		wg.Wait()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.generator != gen {
		return
	}

	for i, coords := range missing {
		if _, ok := m.chunks[coords]; !ok {
			m.chunks[coords] = generated[i]
		}
	}

	evicted := 0
	for coords := range m.chunks {
		if coords.DistanceTo(center) > float64(m.keepRadius) {
			delete(m.chunks, coords)
			evicted++
		}
	}
	if evicted > 0 {
		chunksEvicted.Add(float64(evicted))
		if m.logger != nil {
			m.logger.Debug("Выгружено %d чанков за радиусом удержания %d", evicted, m.keepRadius)
		}
	}
	chunksActive.Set(float64(len(m.chunks)))
}

// Active возвращает снимок списка активных чанков
func (m *Manager) Active() []*Chunk {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Chunk, 0, len(m.chunks))
	for _, c := range m.chunks {
		out = append(out, c)
	}
	return out
}

// ActiveCount возвращает число чанков в кеше
func (m *Manager) ActiveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.chunks)
}

// AdvanceOrbits продвигает круговые орбиты во всех активных чанках
func (m *Manager) AdvanceOrbits(delta float64) {
	for _, c := range m.Active() {
		c.AdvanceOrbits(delta)
	}
}

// ResetSeed заменяет генератор на новый сид и сбрасывает кеш целиком:
// чанки старого сида несовместимы с новым по контракту детерминизма.
func (m *Manager) ResetSeed(universeSeed uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generator = NewGenerator(universeSeed)
	m.chunks = make(map[vec.Vec2]*Chunk)
	chunksActive.Set(0)
	if m.logger != nil {
		m.logger.Info("Сид вселенной сброшен на %d, кеш чанков очищен", universeSeed)
	}
}

// InjectDebug вставляет готовый объект в чанк по его мировой позиции,
// загружая чанк при необходимости. Вставка не переживает выгрузку.
func (m *Manager) InjectDebug(body Body) error {
	coords := vec.ToChunkCoords(body.PositionAtTime(0))
	chunk := m.EnsureLoaded(coords)
	return chunk.Inject(body)
}
