package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tekknoschtev/astral-surveyor-sub000/internal/api"
	"github.com/tekknoschtev/astral-surveyor-sub000/internal/config"
	"github.com/tekknoschtev/astral-surveyor-sub000/internal/discovery"
	"github.com/tekknoschtev/astral-surveyor-sub000/internal/eventbus"
	"github.com/tekknoschtev/astral-surveyor-sub000/internal/logging"
	"github.com/tekknoschtev/astral-surveyor-sub000/internal/observability"
	"github.com/tekknoschtev/astral-surveyor-sub000/internal/sim"
	"github.com/tekknoschtev/astral-surveyor-sub000/internal/storage"
	"github.com/tekknoschtev/astral-surveyor-sub000/internal/vec"
	"github.com/tekknoschtev/astral-surveyor-sub000/internal/world"
)

const (
	simTick      = 100 * time.Millisecond
	autosaveTick = 30 * time.Second
)

func main() {
	configPath := flag.String("config", "", "Путь к YAML конфигурации (или ENV SURVEYOR_CONFIG)")
	flag.Parse()

	// Инициализируем систему логирования
	if err := logging.InitDefaultLogger("server"); err != nil {
		log.Fatalf("Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()

	logging.Info("Запуск сервера вселенной...")

	// === КОНФИГУРАЦИЯ ===
	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Error("Ошибка чтения конфигурации: %v", err)
		log.Fatalf("Ошибка чтения конфигурации: %v", err)
	}
	if cfg == nil {
		cfg = &config.Config{} // дефолты
	}

	restPort := fmt.Sprintf(":%d", cfg.Server.GetRESTPort())
	metricsPort := fmt.Sprintf(":%d", cfg.Server.GetMetricsPort())
	logging.Info("Конфигурация: REST=%s, metrics=%s, backend=%s", restPort, metricsPort, cfg.Storage.Backend)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// === ТЕЛЕМЕТРИЯ ===
	// Без OTLP-коллектора экспортер просто копит ошибки доставки,
	// сервер от этого не страдает.
	shutdownTelemetry, err := observability.InitTelemetry(ctx, "astral-surveyor")
	if err != nil {
		logging.Warn("OpenTelemetry не инициализирован: %v", err)
		shutdownTelemetry = func(context.Context) error { return nil }
	}

	// === ЛОКАЛЬНОЕ ХРАНИЛИЩЕ ===
	dataPath := cfg.Storage.DataPath
	if dataPath == "" {
		dataPath = "data/universe"
	}
	store, err := storage.NewUniverseStore(dataPath)
	if err != nil {
		logging.Error("Ошибка открытия локального хранилища: %v", err)
		log.Fatalf("Ошибка открытия локального хранилища: %v", err)
	}
	defer store.Close()

	// Сид: сохранённый во вселенной имеет приоритет над конфигом
	seed := cfg.Universe.GetSeed()
	if saved, found, err := store.LoadSeed(); err == nil && found {
		seed = saved
		logging.Info("Загружен сохранённый сид вселенной: %d", seed)
	} else {
		if err := store.SaveSeed(seed); err != nil {
			logging.Warn("Не удалось сохранить сид: %v", err)
		}
		logging.Info("Новая вселенная, сид: %d", seed)
	}

	// === КАРТА ОТКРЫТИЙ ===
	repo, closeRepo, err := buildDiscoveryRepo(ctx, &cfg.Storage)
	if err != nil {
		logging.Error("Ошибка подключения к хранилищу открытий: %v", err)
		log.Fatalf("Ошибка подключения к хранилищу открытий: %v", err)
	}
	defer closeRepo()

	// === ШИНА СОБЫТИЙ ===
	bus := buildEventBus(&cfg.EventBus)
	eventbus.Init(bus)
	if err := eventbus.StartLoggingListener(bus); err != nil {
		logging.Warn("LoggingListener не запущен: %v", err)
	}
	busMetrics := eventbus.NewMetricsExporter(bus)
	busMetrics.StartHTTP(metricsPort)
	defer busMetrics.Stop()

	// === МИР И ОТКРЫТИЯ ===
	generator := world.NewGenerator(seed)
	manager := world.NewManager(generator, cfg.Universe.GetLoadRadius(), cfg.Universe.GetKeepRadius(), nil)
	manager.SetWorkers(cfg.Universe.GetWorkers())
	discoverer := discovery.NewService(repo, bus, nil)

	// Свежесгенерированные чанки сразу получают флаги из журнала
	manager.OnGenerated = func(c *world.Chunk) {
		if err := discoverer.Restore(context.Background(), c); err != nil {
			logging.Warn("Не удалось восстановить открытия чанка %v: %v", c.Coords, err)
		}
	}

	// Память восстанавливаем из снапшота (бекенды с собственной
	// персистентностью уже содержат журнал)
	if cfg.Storage.Backend == "" || cfg.Storage.Backend == "memory" || cfg.Storage.Backend == "badger" {
		if snapshot, err := store.LoadDiscoverySnapshot(); err == nil && len(snapshot) > 0 {
			if err := discoverer.Import(ctx, snapshot); err != nil {
				logging.Warn("Ошибка импорта снапшота открытий: %v", err)
			} else {
				logging.Info("Импортирован снапшот открытий: %d записей", len(snapshot))
			}
		}
	}

	// === ЦИКЛ ВСЕЛЕННОЙ ===
	viewport := sim.NewViewportProjection(1600, 900)
	simulation := sim.NewSimulation(manager, discoverer, viewport, 1.0, nil)

	if camera, found, err := store.LoadCamera(); err == nil && found {
		simulation.SetCamera(vec.Vec2Float{X: camera.X, Y: camera.Y})
		logging.Info("Камера восстановлена: (%.1f, %.1f)", camera.X, camera.Y)
	}

	go simulation.Run(ctx, simTick)

	// === REST API ===
	restServer := api.NewRestServer(api.Config{
		Port:       restPort,
		Simulation: simulation,
		Store:      store,
	})
	go func() {
		if err := restServer.Start(); err != nil {
			logging.Error("Ошибка REST сервера: %v", err)
		}
	}()

	// === АВТОСОХРАНЕНИЕ ===
	go func() {
		ticker := time.NewTicker(autosaveTick)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				saveState(ctx, store, discoverer, simulation)
			}
		}
	}()

	logging.Info("Все сервисы запущены")
	logging.Info("   REST API: http://localhost%s", restPort)
	logging.Info("   Prometheus: http://localhost%s/metrics", metricsPort)
	logging.Info("   Health check: http://localhost%s/health", restPort)

	// Ждем сигнала для завершения
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logging.Info("Получен сигнал %v, завершение работы...", sig)

	// === GRACEFUL SHUTDOWN ===
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := restServer.Stop(shutdownCtx); err != nil {
		logging.Error("Ошибка остановки REST API: %v", err)
	}

	// Финальное сохранение состояния вселенной
	saveState(shutdownCtx, store, discoverer, simulation)

	if err := shutdownTelemetry(shutdownCtx); err != nil {
		logging.Warn("Ошибка остановки телеметрии: %v", err)
	}

	logging.Info("Сервер остановлен")
}

// buildDiscoveryRepo выбирает бекенд карты открытий по конфигурации.
// Возвращает репозиторий и функцию закрытия соединения.
func buildDiscoveryRepo(ctx context.Context, cfg *config.StorageConfig) (storage.DiscoveryRepo, func(), error) {
	switch cfg.Backend {
	case "", "memory", "badger":
		// Память + периодический снапшот в локальное хранилище
		return storage.NewMemoryDiscoveryRepo(), func() {}, nil
	case "redis":
		repo, err := storage.NewRedisDiscoveryRepo(cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			return nil, nil, err
		}
		return repo, func() { _ = repo.Close() }, nil
	case "maria":
		repo, err := storage.NewMariaDiscoveryRepo(cfg.MariaDSN)
		if err != nil {
			return nil, nil, err
		}
		return repo, func() { _ = repo.Close() }, nil
	case "mongo":
		db := cfg.MongoDB
		if db == "" {
			db = "surveyor"
		}
		repo, err := storage.NewMongoDiscoveryRepo(ctx, cfg.MongoURI, db)
		if err != nil {
			return nil, nil, err
		}
		return repo, func() { _ = repo.Close(context.Background()) }, nil
	default:
		return nil, nil, fmt.Errorf("неизвестный бекенд хранилища: %s", cfg.Backend)
	}
}

// buildEventBus подключает JetStream или поднимает in-memory шину
func buildEventBus(cfg *config.EventBusConfig) eventbus.EventBus {
	if cfg.URL == "" {
		logging.Info("EventBus: in-memory шина")
		return eventbus.NewMemoryBus(1024)
	}

	retention := time.Duration(cfg.Retention) * time.Hour
	if retention <= 0 {
		retention = 24 * time.Hour
	}
	bus, err := eventbus.NewJetStreamBus(cfg.URL, cfg.Stream, retention)
	if err != nil {
		logging.Warn("JetStream недоступен (%v), откат на in-memory шину", err)
		return eventbus.NewMemoryBus(1024)
	}
	logging.Info("EventBus: NATS JetStream %s", cfg.URL)
	return bus
}

// saveState сбрасывает журнал открытий и позицию камеры в локальное хранилище
func saveState(ctx context.Context, store *storage.UniverseStore, discoverer *discovery.Service, simulation *sim.Simulation) {
	snapshot, err := discoverer.Snapshot(ctx)
	if err != nil {
		logging.Warn("Не удалось собрать снапшот открытий: %v", err)
	} else if err := store.SaveDiscoverySnapshot(snapshot); err != nil {
		logging.Warn("Не удалось сохранить снапшот открытий: %v", err)
	}

	camera := simulation.Camera()
	if err := store.SaveCamera(storage.CameraState{X: camera.X, Y: camera.Y}); err != nil {
		logging.Warn("Не удалось сохранить позицию камеры: %v", err)
	}
}
