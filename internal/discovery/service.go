package discovery

import (
	"context"
	"sync"
	"time"

	"github.com/tekknoschtev/astral-surveyor-sub000/internal/eventbus"
	"github.com/tekknoschtev/astral-surveyor-sub000/internal/logging"
	"github.com/tekknoschtev/astral-surveyor-sub000/internal/storage"
	"github.com/tekknoschtev/astral-surveyor-sub000/internal/vec"
	"github.com/tekknoschtev/astral-surveyor-sub000/internal/world"
)

// Projection отвечает на вопрос, попадает ли объект в видимую область
// экрана. Нужна только для звёзд: они открываются появлением на экране,
// а не сближением. Нулевая проекция переводит звёзды на дистанционный
// предикат, как и остальные объекты.
type Projection interface {
	IsVisible(pos vec.Vec2Float, radius float64) bool
}

// DiscoveryEventPayload — полезная нагрузка события об открытии.
type DiscoveryEventPayload struct {
	ObjectID   string        `json:"object_id"`
	ObjectType string        `json:"object_type"`
	Position   vec.Vec2Float `json:"position"`
	Chunk      vec.Vec2      `json:"chunk"`
}

// Service — слой открытий: сверяет активные чанки с позицией камеры,
// помечает объекты открытыми, пишет журнал в репозиторий и публикует
// события. Все мутации флагов идут через один сервис — это единственный
// писатель состояния открытий.
type Service struct {
	mu     sync.Mutex
	repo   storage.DiscoveryRepo
	bus    eventbus.EventBus
	logger *logging.Logger
}

// NewService создаёт слой открытий. Шина событий опциональна.
func NewService(repo storage.DiscoveryRepo, bus eventbus.EventBus, logger *logging.Logger) *Service {
	return &Service{repo: repo, bus: bus, logger: logger}
}

// Restore восстанавливает флаги открытий свежесгенерированного чанка
// из журнала. Вызывается из хука менеджера чанков до того, как чанк
// станет видим остальной системе.
func (s *Service) Restore(ctx context.Context, chunk *world.Chunk) error {
	recs, err := s.repo.LoadChunk(ctx, chunk.Coords)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		return nil
	}

	known := make(map[string]struct{}, len(recs))
	for _, rec := range recs {
		known[rec.ObjectID] = struct{}{}
	}

	bodies := chunk.Bodies()
	restored := 0
	chunk.Mu.Lock()
	for _, body := range bodies {
		if _, ok := known[body.Identity()]; ok {
			body.SetDiscovered(true)
			restored++
		}
	}
	chunk.Mu.Unlock()
	if s.logger != nil && restored > 0 {
		s.logger.Debug("Чанк (%d, %d): восстановлено %d открытий",
			chunk.Coords.X, chunk.Coords.Y, restored)
	}
	return nil
}

// Sweep проверяет объекты активных чанков против позиции камеры в
// момент универсального времени t и открывает достижимые. Звёзды
// открываются видимостью на экране (через proj), остальные объекты —
// сближением на их дистанцию открытия.
// Возвращает число новых открытий.
func (s *Service) Sweep(ctx context.Context, chunks []*world.Chunk, camera vec.Vec2Float, proj Projection, t float64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var fresh []storage.DiscoveryRecord

	for _, chunk := range chunks {
		// Проход держит запись на чанк: позиции читаются согласованно
		// с тиком орбит, флаги выставляются тем же захватом
		bodies := chunk.Bodies()
		chunk.Mu.Lock()
		for _, body := range bodies {
			if body.IsDiscovered() {
				continue
			}
			pos := body.PositionAtTime(t)

			var reached bool
			if body.Kind() == world.TypeStar && proj != nil {
				reached = proj.IsVisible(pos, body.DiscoveryRange())
			} else {
				reached = camera.DistanceTo(pos) <= body.DiscoveryRange()
			}
			if !reached {
				continue
			}

			body.SetDiscovered(true)
			fresh = append(fresh, storage.DiscoveryRecord{
				ObjectID:     body.Identity(),
				ObjectType:   string(body.Kind()),
				Chunk:        chunk.Coords,
				Position:     pos,
				DiscoveredAt: time.Now().UTC(),
			})
		}
		chunk.Mu.Unlock()
	}

	if len(fresh) == 0 {
		return 0, nil
	}

	if err := s.repo.BatchSave(ctx, fresh); err != nil {
		return 0, err
	}

	for _, rec := range fresh {
		s.publish(ctx, rec)
		if s.logger != nil {
			s.logger.Info("Открыт объект %s (%s)", rec.ObjectID, rec.ObjectType)
		}
	}
	return len(fresh), nil
}

func (s *Service) publish(ctx context.Context, rec storage.DiscoveryRecord) {
	if s.bus == nil {
		return
	}
	ev, err := eventbus.NewEnvelope("discovery", eventbus.EventDiscovery, 5, DiscoveryEventPayload{
		ObjectID:   rec.ObjectID,
		ObjectType: rec.ObjectType,
		Position:   rec.Position,
		Chunk:      rec.Chunk,
	})
	if err != nil {
		logging.Warn("Не удалось собрать событие открытия: %v", err)
		return
	}
	if err := s.bus.Publish(ctx, ev); err != nil {
		logging.Warn("Не удалось опубликовать событие открытия: %v", err)
	}
}

// Snapshot возвращает полный журнал открытий.
func (s *Service) Snapshot(ctx context.Context) ([]storage.DiscoveryRecord, error) {
	return s.repo.LoadAll(ctx)
}

// Count возвращает число записей в журнале.
func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

// Reset стирает журнал открытий. Флаги в уже загруженных чанках при
// этом не трогаются: вызывающая сторона обязана сбросить кеш чанков,
// чтобы регенерация прошла по пустому журналу.
func (s *Service) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo.Reset(ctx)
}

// Import загружает внешний снапшот журнала (например, из локального
// хранилища при старте) в репозиторий.
func (s *Service) Import(ctx context.Context, recs []storage.DiscoveryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo.BatchSave(ctx, recs)
}
