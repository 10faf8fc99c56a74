package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/tekknoschtev/astral-surveyor-sub000/internal/eventbus"
	"github.com/tekknoschtev/astral-surveyor-sub000/internal/logging"
	"github.com/tekknoschtev/astral-surveyor-sub000/internal/middleware"
	"github.com/tekknoschtev/astral-surveyor-sub000/internal/sim"
	"github.com/tekknoschtev/astral-surveyor-sub000/internal/storage"
	"github.com/tekknoschtev/astral-surveyor-sub000/internal/vec"
	"github.com/tekknoschtev/astral-surveyor-sub000/internal/world"
)

// RestServer — отладочный REST-интерфейс сервера вселенной:
// инспекция чанков, журнал открытий, управление камерой и сидом.
type RestServer struct {
	router     *gin.Engine
	simulation *sim.Simulation
	store      *storage.UniverseStore
	port       string
	metrics    *ServerMetrics
	httpServer *http.Server
}

// Config содержит конфигурацию для REST сервера
type Config struct {
	Port       string                 // порт для запуска сервера
	Simulation *sim.Simulation        // цикл вселенной
	Store      *storage.UniverseStore // локальное хранилище (опционально)
}

// NewRestServer создает новый REST API сервер
func NewRestServer(config Config) *RestServer {
	if config.Port == "" {
		config.Port = ":8088"
	}

	gin.SetMode(gin.ReleaseMode)

	router := gin.New()        // без стандартного logger/recovery
	router.Use(gin.Recovery()) // добавим только recovery

	// === Observability middleware ===
	loggerMw := middleware.NewRequestLogger()
	router.Use(loggerMw.Handler())

	router.Use(otelgin.Middleware("surveyor_api"))

	promMw := middleware.NewPrometheusMiddleware("surveyor_api")
	router.Use(promMw.Handler())
	promMw.RegisterMetricsEndpoint(router)

	server := &RestServer{
		router:     router,
		simulation: config.Simulation,
		store:      config.Store,
		port:       config.Port,
		metrics:    NewServerMetrics(),
	}

	server.setupRoutes()
	return server
}

// setupRoutes настраивает маршруты REST API
func (rs *RestServer) setupRoutes() {
	// Middleware для CORS
	rs.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	api := rs.router.Group("/api")
	{
		api.GET("/stats", rs.handleStats)
		api.GET("/universe", rs.handleUniverse)
		api.POST("/universe/seed", rs.handleSeedReset)

		api.GET("/chunks/:x/:y", rs.handleChunkInspect)

		api.GET("/discoveries", rs.handleDiscoveries)
		api.DELETE("/discoveries", rs.handleDiscoveriesReset)

		api.GET("/camera", rs.handleCameraGet)
		api.POST("/camera", rs.handleCameraSet)

		api.POST("/debug/spawn", rs.handleDebugSpawn)
	}

	// Health check
	rs.router.GET("/health", rs.handleHealth)
}

// GenericResponse представляет общий ответ API
type GenericResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// handleHealth проверка состояния сервера
func (rs *RestServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().Unix(),
	})
}

// handleStats возвращает статистику сервера
func (rs *RestServer) handleStats(c *gin.Context) {
	stats := make(map[string]interface{})

	memoryMB, _ := rs.metrics.GetMemoryUsage()
	cpuPercent, _ := rs.metrics.GetCPUUsage()

	stats["server"] = map[string]interface{}{
		"uptime":      rs.metrics.GetUptime(),
		"memory_mb":   fmt.Sprintf("%.2f", memoryMB),
		"cpu_percent": fmt.Sprintf("%.2f", cpuPercent),
		"server_time": time.Now().Unix(),
	}
	stats["memory_details"] = rs.metrics.GetDetailedMemoryStats()

	stats["universe"] = map[string]interface{}{
		"active_chunks":  rs.simulation.Manager().ActiveCount(),
		"universal_time": rs.simulation.Time(),
	}

	if n, err := rs.simulation.Discoverer().Count(c.Request.Context()); err == nil {
		stats["discoveries"] = n
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Статистика получена",
		Data:    stats,
	})
}

// handleUniverse возвращает состояние вселенной
func (rs *RestServer) handleUniverse(c *gin.Context) {
	camera := rs.simulation.Camera()
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Состояние вселенной",
		Data: map[string]interface{}{
			"seed":           rs.simulation.Manager().Generator().UniverseSeed(),
			"universal_time": rs.simulation.Time(),
			"camera":         map[string]float64{"x": camera.X, "y": camera.Y},
			"active_chunks":  rs.simulation.Manager().ActiveCount(),
		},
	})
}

// SeedRequest — запрос смены сида вселенной
type SeedRequest struct {
	Seed uint32 `json:"seed"`
}

// handleSeedReset меняет сид вселенной: кеш чанков и журнал открытий
// сбрасываются, новая вселенная начинается с чистого листа.
func (rs *RestServer) handleSeedReset(c *gin.Context) {
	var req SeedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{
			Success: false,
			Message: "Неверный формат запроса",
		})
		return
	}

	ctx := c.Request.Context()
	if err := rs.simulation.Discoverer().Reset(ctx); err != nil {
		c.JSON(http.StatusInternalServerError, GenericResponse{
			Success: false,
			Message: "Не удалось сбросить журнал открытий",
		})
		return
	}
	rs.simulation.Manager().ResetSeed(req.Seed)

	if rs.store != nil {
		if err := rs.store.Wipe(); err != nil {
			logging.Warn("Не удалось очистить локальное хранилище: %v", err)
		}
		if err := rs.store.SaveSeed(req.Seed); err != nil {
			logging.Warn("Не удалось сохранить новый сид: %v", err)
		}
	}

	if ev, err := eventbus.NewEnvelope("api", eventbus.EventSeedReset, 7, req); err == nil {
		_ = eventbus.Publish(ctx, ev)
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Сид вселенной изменён",
		Data:    map[string]interface{}{"seed": req.Seed},
	})
}

// handleChunkInspect возвращает содержимое чанка, генерируя его при
// необходимости
func (rs *RestServer) handleChunkInspect(c *gin.Context) {
	x, errX := strconv.Atoi(c.Param("x"))
	y, errY := strconv.Atoi(c.Param("y"))
	if errX != nil || errY != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{
			Success: false,
			Message: "Неверные координаты чанка",
		})
		return
	}

	chunk := rs.simulation.Manager().EnsureLoaded(vec.Vec2{X: x, Y: y})
	t := rs.simulation.Time()

	bodies := chunk.Bodies()
	objects := make([]map[string]interface{}, 0, len(bodies))

	// Позиции и флаги читаются под RLock чанка: цикл вселенной
	// параллельно двигает орбиты под Mu
	chunk.Mu.RLock()
	for _, b := range bodies {
		pos := b.PositionAtTime(t)
		objects = append(objects, map[string]interface{}{
			"id":         b.Identity(),
			"type":       string(b.Kind()),
			"x":          pos.X,
			"y":          pos.Y,
			"discovered": b.IsDiscovered(),
		})
	}
	chunk.Mu.RUnlock()

	for i, b := range bodies {
		objects[i]["injected"] = chunk.IsInjected(b.Identity())
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Содержимое чанка",
		Data: map[string]interface{}{
			"coords":           map[string]int{"x": x, "y": y},
			"seed":             chunk.Seed,
			"objects":          objects,
			"background_stars": len(chunk.BackgroundStars),
		},
	})
}

// handleDiscoveries возвращает журнал открытий
func (rs *RestServer) handleDiscoveries(c *gin.Context) {
	recs, err := rs.simulation.Discoverer().Snapshot(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, GenericResponse{
			Success: false,
			Message: "Не удалось загрузить журнал открытий",
		})
		return
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Журнал открытий",
		Data: map[string]interface{}{
			"discoveries": recs,
			"total":       len(recs),
		},
	})
}

// handleDiscoveriesReset стирает журнал открытий и сбрасывает кеш
// чанков, чтобы флаги не пережили сброс в памяти
func (rs *RestServer) handleDiscoveriesReset(c *gin.Context) {
	if err := rs.simulation.Discoverer().Reset(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, GenericResponse{
			Success: false,
			Message: "Не удалось сбросить журнал открытий",
		})
		return
	}
	// Перегенерация по пустому журналу: тот же сид, чистые флаги
	rs.simulation.Manager().ResetSeed(rs.simulation.Manager().Generator().UniverseSeed())

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Журнал открытий сброшен",
	})
}

// CameraRequest — запрос перемещения камеры
type CameraRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// handleCameraGet возвращает позицию камеры
func (rs *RestServer) handleCameraGet(c *gin.Context) {
	camera := rs.simulation.Camera()
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Позиция камеры",
		Data:    map[string]float64{"x": camera.X, "y": camera.Y},
	})
}

// handleCameraSet перемещает камеру
func (rs *RestServer) handleCameraSet(c *gin.Context) {
	var req CameraRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{
			Success: false,
			Message: "Неверный формат запроса",
		})
		return
	}

	rs.simulation.SetCamera(vec.Vec2Float{X: req.X, Y: req.Y})
	if rs.store != nil {
		if err := rs.store.SaveCamera(storage.CameraState{X: req.X, Y: req.Y}); err != nil {
			logging.Warn("Не удалось сохранить позицию камеры: %v", err)
		}
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Камера перемещена",
	})
}

// SpawnRequest — запрос отладочной вставки объекта
type SpawnRequest struct {
	Type   string  `json:"type" binding:"required"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Radius float64 `json:"radius"`
}

// handleDebugSpawn вставляет готовый объект в чанк по мировой позиции.
// Объект сразу помечается открытым; вставка не попадает в генерацию
// и исчезает при выгрузке чанка.
func (rs *RestServer) handleDebugSpawn(c *gin.Context) {
	var req SpawnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{
			Success: false,
			Message: "Неверный формат запроса",
		})
		return
	}

	body, err := buildSpawnObject(req)
	if err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{
			Success: false,
			Message: err.Error(),
		})
		return
	}

	if err := rs.simulation.Manager().InjectDebug(body); err != nil {
		c.JSON(http.StatusInternalServerError, GenericResponse{
			Success: false,
			Message: "Не удалось вставить объект: " + err.Error(),
		})
		return
	}

	if ev, err := eventbus.NewEnvelope("api", eventbus.EventDebugSpawn, 3, req); err == nil {
		_ = eventbus.Publish(c.Request.Context(), ev)
	}

	c.JSON(http.StatusCreated, GenericResponse{
		Success: true,
		Message: "Объект вставлен",
		Data:    map[string]interface{}{"id": body.Identity()},
	})
}

// buildSpawnObject собирает объект для отладочной вставки
func buildSpawnObject(req SpawnRequest) (world.Body, error) {
	pos := vec.Vec2Float{X: req.X, Y: req.Y}
	radius := req.Radius

	switch req.Type {
	case string(world.TypeStar):
		if radius <= 0 {
			radius = 45
		}
		return &world.Star{
			Object: world.Object{
				ID: world.StarID(pos), Type: world.TypeStar,
				Position: pos, Radius: radius, DiscoveryDistance: 2500,
				Discovered: true,
			},
			Class: world.StarClassG,
		}, nil
	case string(world.TypeNebula):
		if radius <= 0 {
			radius = 400
		}
		return &world.Nebula{
			Object: world.Object{
				ID: world.NebulaID(pos), Type: world.TypeNebula,
				Position: pos, Radius: radius, DiscoveryDistance: 1100,
				Discovered: true,
			},
			NebulaKind: world.NebulaEmission,
		}, nil
	case string(world.TypeBlackHole):
		if radius <= 0 {
			radius = 40
		}
		return &world.BlackHole{
			Object: world.Object{
				ID: world.BlackHoleID(pos), Type: world.TypeBlackHole,
				Position: pos, Radius: radius, DiscoveryDistance: 500,
				Discovered: true,
			},
			Mass:         10,
			LensingRange: radius * 6,
		}, nil
	case string(world.TypeRoguePlanet):
		if radius <= 0 {
			radius = 15
		}
		return &world.RoguePlanet{
			Object: world.Object{
				ID: world.RoguePlanetID(pos), Type: world.TypeRoguePlanet,
				Position: pos, Radius: radius, DiscoveryDistance: 150,
				Discovered: true,
			},
			Class: world.PlanetExotic,
		}, nil
	default:
		return nil, fmt.Errorf("неподдерживаемый тип объекта для вставки: %s", req.Type)
	}
}

// Start запускает REST сервер
func (rs *RestServer) Start() error {
	rs.httpServer = &http.Server{
		Addr:    rs.port,
		Handler: rs.router,
	}
	logging.Info("REST API запущен на %s", rs.port)
	if err := rs.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop останавливает REST сервер с ожиданием активных запросов
func (rs *RestServer) Stop(ctx context.Context) error {
	if rs.httpServer == nil {
		return nil
	}
	return rs.httpServer.Shutdown(ctx)
}
