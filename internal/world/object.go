package world

import (
	"math"

	"github.com/tekknoschtev/astral-surveyor-sub000/internal/vec"
)

// CelestialType — тег типа небесного объекта
type CelestialType string

const (
	TypeStar          CelestialType = "star"
	TypePlanet        CelestialType = "planet"
	TypeMoon          CelestialType = "moon"
	TypeNebula        CelestialType = "nebula"
	TypeAsteroidField CelestialType = "asteroid-field"
	TypeComet         CelestialType = "comet"
	TypeWormhole      CelestialType = "wormhole"
	TypeBlackHole     CelestialType = "blackhole"
	TypeRoguePlanet   CelestialType = "rogue-planet"
)

// Body — общий интерфейс небесного объекта для слоя открытий и рендерера.
// Реализуется всеми вариантами через встраивание Object.
type Body interface {
	Identity() string
	Kind() CelestialType
	// PositionAtTime возвращает позицию объекта в указанный момент
	// универсального времени. Для большинства тел позиция не зависит
	// от времени; кометы пересчитывают её по орбитальным элементам.
	PositionAtTime(t float64) vec.Vec2Float
	IsDiscovered() bool
	SetDiscovered(discovered bool)
	DiscoveryRange() float64
}

// Object содержит общие атрибуты всех небесных объектов.
// ID выводится из генеративных параметров (см. identity.go),
// никогда — из адреса в памяти.
type Object struct {
	ID                string
	Type              CelestialType
	Position          vec.Vec2Float
	Radius            float64
	Discovered        bool
	DiscoveryDistance float64
}

func (o *Object) Identity() string        { return o.ID }
func (o *Object) Kind() CelestialType     { return o.Type }
func (o *Object) IsDiscovered() bool      { return o.Discovered }
func (o *Object) DiscoveryRange() float64 { return o.DiscoveryDistance }

// SetDiscovered переводит флаг открытия. Переход true -> false запрещён:
// сброс истории открытий выполняется только явной операцией слоя открытий.
func (o *Object) SetDiscovered(discovered bool) {
	if o.Discovered && !discovered {
		return
	}
	o.Discovered = discovered
}

// PositionAtTime — позиция по умолчанию не зависит от времени
func (o *Object) PositionAtTime(_ float64) vec.Vec2Float {
	return o.Position
}

// StarClass — спектральный класс звезды
type StarClass string

const (
	StarClassG     StarClass = "G" // Жёлтый карлик
	StarClassK     StarClass = "K" // Оранжевый карлик
	StarClassM     StarClass = "M" // Красный карлик
	StarClassF     StarClass = "F"
	StarClassA     StarClass = "A"
	StarRedGiant   StarClass = "red-giant"
	StarBlueGiant  StarClass = "blue-giant"
	StarWhiteDwarf StarClass = "white-dwarf"
	StarNeutron    StarClass = "neutron"
)

// BackgroundStar — декоративная фоновая звезда. Не участвует в
// открытиях и не имеет идентичности, поэтому хранится по значению.
type BackgroundStar struct {
	Position   vec.Vec2Float
	Brightness float64
}

// Star представляет звезду — центр системы планет и комет чанка
type Star struct {
	Object
	Class StarClass
	Color string // hex-палитра для рендерера
}

// PlanetClass — тип планеты
type PlanetClass string

const (
	PlanetRocky    PlanetClass = "rocky"
	PlanetOcean    PlanetClass = "ocean"
	PlanetDesert   PlanetClass = "desert"
	PlanetFrozen   PlanetClass = "frozen"
	PlanetGasGiant PlanetClass = "gas-giant"
	PlanetVolcanic PlanetClass = "volcanic"
	PlanetExotic   PlanetClass = "exotic"
)

// Planet — планета на круговой орбите вокруг звезды своего чанка.
// Родитель хранится как индекс в списке звёзд чанка (чанк — единственный
// владелец объектов, обратные указатели не используются).
type Planet struct {
	Object
	Class      PlanetClass
	StarIndex  int     // Индекс родительской звезды в Chunk.Stars
	OrbitIndex int     // Порядковый номер орбиты у звезды
	OrbitDist  float64 // Радиус круговой орбиты
	OrbitAngle float64 // Текущий угол [0, 2π)
	OrbitSpeed float64 // Радианы в единицу времени
	CraterSeed uint32  // Сид поверхностных деталей (не хранится — выводится)
}

// Moon — луна планеты; родитель задаётся парой индексов (звезда, планета)
type Moon struct {
	Object
	StarIndex   int
	PlanetIndex int // Индекс в Chunk.Planets
	OrbitIndex  int
	OrbitDist   float64
	OrbitAngle  float64
	OrbitSpeed  float64
}

// NebulaKind — разновидность туманности
type NebulaKind string

const (
	NebulaEmission   NebulaKind = "emission"
	NebulaReflection NebulaKind = "reflection"
	NebulaDark       NebulaKind = "dark"
	NebulaPlanetary  NebulaKind = "planetary"
)

// Nebula — протяжённая туманность; форма восстанавливается из ShapeSeed
type Nebula struct {
	Object
	NebulaKind NebulaKind
	ShapeSeed  uint32
}

// AsteroidField — эллиптическое поле астероидов
type AsteroidField struct {
	Object
	Width    float64
	Height   float64
	Rotation float64
	Density  float64
	RockSeed uint32 // Позиции отдельных камней выводятся, не хранятся
}

// Comet — комета на эллиптической орбите вокруг звезды чанка.
// Позиция — чистая функция универсального времени (см. orbit.go),
// Object.Position хранит лишь позицию на эпоху для индексации.
type Comet struct {
	Object
	StarIndex  int
	CometIndex int
	Elements   OrbitalElements
	// ParentPos дублирует позицию родительской звезды как значение,
	// чтобы PositionAtTime не требовал доступа к чанку.
	ParentPos  vec.Vec2Float
}

// PositionAtTime возвращает позицию кометы в момент универсального времени t
func (c *Comet) PositionAtTime(t float64) vec.Vec2Float {
	return c.Elements.PositionAt(t, c.ParentPos)
}

// StateAt возвращает полное производное состояние кометы (позиция,
// радиус-вектор, яркость, длина хвоста) в момент t.
func (c *Comet) StateAt(t float64) CometState {
	return c.Elements.StateAt(t, c.ParentPos)
}

// WormholeDesignation различает два конца пары червоточин
type WormholeDesignation string

const (
	WormholeAlpha WormholeDesignation = "alpha"
	WormholeBeta  WormholeDesignation = "beta"
)

// Wormhole — один конец пары червоточин. Координаты второго конца
// хранятся значением, а не ссылкой: парный чанк может быть ещё
// не материализован.
type Wormhole struct {
	Object
	PairID       string
	Designation  WormholeDesignation
	TwinPosition vec.Vec2Float
	TwinChunk    vec.Vec2
}

// BlackHole — чёрная дыра; ультраредкий объект
type BlackHole struct {
	Object
	Mass         float64 // В условных солнечных массах
	LensingRange float64 // Радиус визуального искажения для рендерера
}

// RoguePlanet — планета-сирота без родительской звезды
type RoguePlanet struct {
	Object
	Class      PlanetClass
	DriftAngle float64 // Направление медленного дрейфа (визуальный эффект)
}

// wrapAngle нормализует угол в диапазон [0, 2π)
func wrapAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}
