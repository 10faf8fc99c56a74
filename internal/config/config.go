package config

import (
	"os"
	"runtime"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config — корневая структура конфигурации сервера вселенной.

type Config struct {
	Universe UniverseConfig `yaml:"universe"`
	Storage  StorageConfig  `yaml:"storage"`
	EventBus EventBusConfig `yaml:"eventbus"`
	Server   ServerConfig   `yaml:"server"`
}

// UniverseConfig задаёт параметры генерации и кеша чанков
type UniverseConfig struct {
	Seed       uint32 `yaml:"seed"`        // Сид вселенной; 0 — выбрать из SURVEYOR_SEED или дефолта
	LoadRadius int    `yaml:"load_radius"` // Радиус подгрузки чанков вокруг камеры (в чанках)
	KeepRadius int    `yaml:"keep_radius"` // Радиус удержания чанков в кеше до выгрузки
	Workers    int    `yaml:"workers"`     // Воркеры параллельной генерации (0 — по числу CPU)
}

// StorageConfig выбирает бекенд для карты открытий.
// backend: memory | badger | redis | maria | mongo
type StorageConfig struct {
	Backend   string `yaml:"backend"`
	DataPath  string `yaml:"data_path"`  // Каталог BadgerDB
	RedisAddr string `yaml:"redis_addr"` // host:port
	RedisDB   int    `yaml:"redis_db"`   //
	MariaDSN  string `yaml:"maria_dsn"`  // user:pass@tcp(host:port)/db
	MongoURI  string `yaml:"mongo_uri"`  // mongodb://host:port
	MongoDB   string `yaml:"mongo_db"`   // Имя базы
}

type EventBusConfig struct {
	URL       string `yaml:"url"`    // nats://host:4222; пусто — in-memory шина
	Stream    string `yaml:"stream"` //
	Retention int    `yaml:"retention_hours"`
}

type ServerConfig struct {
	RESTPort    int `yaml:"rest_port"`
	MetricsPort int `yaml:"metrics_port"`
}

// GetSeed возвращает сид вселенной с приоритетом: config -> env -> default
func (u *UniverseConfig) GetSeed() uint32 {
	if u.Seed != 0 {
		return u.Seed
	}
	if envVal := os.Getenv("SURVEYOR_SEED"); envVal != "" {
		if seed, err := strconv.ParseUint(envVal, 10, 32); err == nil && seed != 0 {
			return uint32(seed)
		}
	}
	return 42
}

// GetLoadRadius возвращает радиус подгрузки с дефолтом 2
func (u *UniverseConfig) GetLoadRadius() int {
	if u.LoadRadius > 0 {
		return u.LoadRadius
	}
	return 2
}

// GetWorkers возвращает число воркеров генерации; 0 в конфиге — по числу CPU
func (u *UniverseConfig) GetWorkers() int {
	if u.Workers > 0 {
		return u.Workers
	}
	return runtime.NumCPU()
}

// GetKeepRadius возвращает радиус удержания; всегда >= радиуса подгрузки
func (u *UniverseConfig) GetKeepRadius() int {
	keep := u.KeepRadius
	if keep <= 0 {
		keep = 4
	}
	if load := u.GetLoadRadius(); keep < load {
		keep = load
	}
	return keep
}

// GetRESTPort возвращает REST порт с поддержкой fallback значений
func (s *ServerConfig) GetRESTPort() int {
	return getPortWithEnvFallback(s.RESTPort, "SURVEYOR_REST_PORT", 8088)
}

// GetMetricsPort возвращает порт Prometheus метрик с поддержкой fallback значений
func (s *ServerConfig) GetMetricsPort() int {
	return getPortWithEnvFallback(s.MetricsPort, "SURVEYOR_METRICS_PORT", 2112)
}

// getPortWithEnvFallback возвращает порт с приоритетом: config -> env -> default
func getPortWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	if configPort > 0 {
		return configPort
	}

	if envVal := os.Getenv(envVar); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}

	return defaultPort
}

// Load читает YAML файл конфигурации.
// Если path == "", пытается прочитать из ENV SURVEYOR_CONFIG или возвращает nil, nil.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("SURVEYOR_CONFIG")
		if path == "" {
			return nil, nil // конфиг не задан — использовать дефолты
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
