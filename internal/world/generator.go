package world

import (
	"math"

	"github.com/tekknoschtev/astral-surveyor-sub000/internal/rng"
	"github.com/tekknoschtev/astral-surveyor-sub000/internal/util"
	"github.com/tekknoschtev/astral-surveyor-sub000/internal/vec"
)

// Вероятности спавна на чанк. Значения подобраны так, чтобы при
// бесконечной вселенной плотность объектов оставалась статистически
// стабильной; ультраредкие объекты видны раз в тысячи чанков.
const (
	starSystemChance   = 0.18
	secondStarChance   = 0.12
	nebulaBaseChance   = 0.06
	asteroidBaseChance = 0.08
	cometChance        = 0.25
	secondCometChance  = 0.08
	roguePlanetChance  = 1.0 / 500.0
	blackHoleChance    = 1.0 / 4000.0

	edgeMargin = 150.0
)

// Масштабы крупномасштабных областей для шума плотности
const (
	nebulaRegionScale = 40000.0
	beltRegionScale   = 26000.0
)

// Generator — чистый генератор содержимого чанков.
// Generate(coords) от одного и того же сида вселенной всегда даёт
// списки объектов, равные по количеству, типам, порядку и всем
// генеративным параметрам.
type Generator struct {
	universeSeed uint32

	// Поля шума для региональной модуляции плотности; привязаны к
	// сиду вселенной и читаются без изменения состояния
	nebulaNoise *util.NoiseField
	beltNoise   *util.NoiseField

	starTable   *RarityTable[StarClass]
	planetTable *RarityTable[PlanetClass]
	nebulaTable *RarityTable[NebulaKind]
}

// starColors — палитра рендерера по спектральному классу
var starColors = map[StarClass]string{
	StarClassG:     "#fff4ea",
	StarClassK:     "#ffd2a1",
	StarClassM:     "#ffb56b",
	StarClassF:     "#f8f7ff",
	StarClassA:     "#cad7ff",
	StarRedGiant:   "#ff6b4a",
	StarBlueGiant:  "#9bb0ff",
	StarWhiteDwarf: "#e8e8ff",
	StarNeutron:    "#c8f4ff",
}

// NewGenerator создаёт генератор для указанного сида вселенной
func NewGenerator(universeSeed uint32) *Generator {
	return &Generator{
		universeSeed: universeSeed,
		nebulaNoise: util.NewNoiseField(
			int64(rng.HashComponents(int64(universeSeed), int64(rng.SaltNebula))), nebulaRegionScale),
		beltNoise: util.NewNoiseField(
			int64(rng.HashComponents(int64(universeSeed), int64(rng.SaltCrater))), beltRegionScale),

		// Распределение классов примерно соответствует реальной
		// населённости галактики, сжатой ради геймплейного разнообразия
		starTable: MustRarityTable(
			RarityEntry[StarClass]{StarClassM, 0.38},
			RarityEntry[StarClass]{StarClassK, 0.22},
			RarityEntry[StarClass]{StarClassG, 0.14},
			RarityEntry[StarClass]{StarClassF, 0.08},
			RarityEntry[StarClass]{StarClassA, 0.04},
			RarityEntry[StarClass]{StarRedGiant, 0.06},
			RarityEntry[StarClass]{StarWhiteDwarf, 0.05},
			RarityEntry[StarClass]{StarBlueGiant, 0.02},
			RarityEntry[StarClass]{StarNeutron, 0.01},
		),
		planetTable: MustRarityTable(
			RarityEntry[PlanetClass]{PlanetRocky, 0.30},
			RarityEntry[PlanetClass]{PlanetDesert, 0.15},
			RarityEntry[PlanetClass]{PlanetFrozen, 0.15},
			RarityEntry[PlanetClass]{PlanetGasGiant, 0.15},
			RarityEntry[PlanetClass]{PlanetOcean, 0.10},
			RarityEntry[PlanetClass]{PlanetVolcanic, 0.08},
			RarityEntry[PlanetClass]{PlanetExotic, 0.07},
		),
		nebulaTable: MustRarityTable(
			RarityEntry[NebulaKind]{NebulaEmission, 0.40},
			RarityEntry[NebulaKind]{NebulaReflection, 0.30},
			RarityEntry[NebulaKind]{NebulaDark, 0.20},
			RarityEntry[NebulaKind]{NebulaPlanetary, 0.10},
		),
	}
}

// UniverseSeed возвращает сид вселенной генератора
func (g *Generator) UniverseSeed() uint32 {
	return g.universeSeed
}

// Generate детерминированно материализует содержимое чанка.
//
// Проходы размещения выполняются в фиксированном порядке и потребляют
// розыгрыши одного генератора чанка строго последовательно: добавление
// нового прохода в конец никогда не возмущает результаты предыдущих.
// Слот пары червоточин — исключение: он питается отдельным сидом пары
// (см. wormhole.go) и не трогает основной поток.
func (g *Generator) Generate(coords vec.Vec2) *Chunk {
	seed := rng.ChunkSeed(g.universeSeed, coords.X, coords.Y)
	r := rng.NewSeededRandom(seed)
	chunk := NewChunk(coords, seed)

	g.placeBackgroundStars(chunk, r)
	g.placeStars(chunk, r)
	g.placePlanetsAndMoons(chunk, r)
	g.placeNebulae(chunk, r)
	g.placeAsteroidFields(chunk, r)
	g.placeComets(chunk, r)
	g.placeRoguePlanets(chunk, r)
	g.placeBlackHoles(chunk, r)
	g.resolveWormhole(chunk)

	return chunk
}

// randomPos возвращает позицию внутри чанка с отступом от краёв
func (g *Generator) randomPos(coords vec.Vec2, r *rng.SeededRandom) vec.Vec2Float {
	origin := coords.WorldOrigin()
	return vec.Vec2Float{
		X: origin.X + r.NextFloat(edgeMargin, vec.ChunkSize-edgeMargin),
		Y: origin.Y + r.NextFloat(edgeMargin, vec.ChunkSize-edgeMargin),
	}
}

func (g *Generator) placeBackgroundStars(chunk *Chunk, r *rng.SeededRandom) {
	origin := chunk.Coords.WorldOrigin()
	count := r.NextInt(8, 18)
	for i := 0; i < count; i++ {
		chunk.BackgroundStars = append(chunk.BackgroundStars, BackgroundStar{
			Position: vec.Vec2Float{
				X: origin.X + r.NextFloat(0, vec.ChunkSize),
				Y: origin.Y + r.NextFloat(0, vec.ChunkSize),
			},
			Brightness: r.NextFloat(0.1, 1.0),
		})
	}
}

// starRadius возвращает базовый радиус для класса звезды
func starRadius(class StarClass, r *rng.SeededRandom) float64 {
	switch class {
	case StarRedGiant:
		return r.NextFloat(90, 140)
	case StarBlueGiant:
		return r.NextFloat(70, 110)
	case StarWhiteDwarf:
		return r.NextFloat(14, 22)
	case StarNeutron:
		return r.NextFloat(8, 12)
	default:
		return r.NextFloat(35, 60)
	}
}

func (g *Generator) placeStars(chunk *Chunk, r *rng.SeededRandom) {
	count := 0
	if r.NextBool(starSystemChance) {
		count = 1
		if r.NextBool(secondStarChance) {
			count = 2
		}
	}

	for i := 0; i < count; i++ {
		pos := g.randomPos(chunk.Coords, r)
		class := g.starTable.Pick(r)
		chunk.Stars = append(chunk.Stars, &Star{
			Object: Object{
				ID:       StarID(pos),
				Type:     TypeStar,
				Position: pos,
				Radius:   starRadius(class, r),
				// Звёзды открываются предикатом видимости на экране;
				// дистанция — запасной вариант без проекции камеры
				DiscoveryDistance: 2500,
			},
			Class: class,
			Color: starColors[class],
		})
	}
}

func (g *Generator) placePlanetsAndMoons(chunk *Chunk, r *rng.SeededRandom) {
	for si, star := range chunk.Stars {
		maxPlanets := 5
		if star.Class == StarNeutron || star.Class == StarWhiteDwarf {
			maxPlanets = 2 // компактные остатки почти не держат систему
		}
		planetCount := r.NextInt(0, maxPlanets)

		for oi := 0; oi < planetCount; oi++ {
			dist := star.Radius*2.5 + 110 + 85*float64(oi) + r.NextFloat(0, 40)
			angle := r.NextFloat(0, 2*math.Pi)
			class := g.planetTable.Pick(r)

			radius := r.NextFloat(8, 20)
			if class == PlanetGasGiant {
				radius = r.NextFloat(22, 38)
			}

			pos := orbitPosition(star.Position, dist, angle)
			planet := &Planet{
				Object: Object{
					ID:                PlanetID(star.Position, oi),
					Type:              TypePlanet,
					Position:          pos,
					Radius:            radius,
					DiscoveryDistance: 150,
				},
				Class:      class,
				StarIndex:  si,
				OrbitIndex: oi,
				OrbitDist:  dist,
				OrbitAngle: angle,
				// Дальние орбиты медленнее; знак не меняется, чтобы
				// система вращалась согласованно
				OrbitSpeed: 0.35 / math.Sqrt(dist),
				// Сид кратеров выводится из стабильных параметров
				// (позиция звезды и номер орбиты), а не из текущей
				// позиции планеты, которая меняется со временем
				CraterSeed: rng.FeatureSeed(g.universeSeed, star.Position.X+float64(oi), star.Position.Y, rng.SaltCrater),
			}
			chunk.Planets = append(chunk.Planets, planet)
			planetIndex := len(chunk.Planets) - 1

			g.placeMoons(chunk, r, star, planet, si, planetIndex)
		}
	}
}

func (g *Generator) placeMoons(chunk *Chunk, r *rng.SeededRandom, star *Star, planet *Planet, starIndex, planetIndex int) {
	moonCount := 0
	if planet.Class == PlanetGasGiant {
		moonCount = r.NextInt(0, 3)
	} else if r.NextBool(0.25) {
		moonCount = 1
	}

	for mi := 0; mi < moonCount; mi++ {
		dist := planet.Radius*2.2 + 16*float64(mi+1) + r.NextFloat(0, 8)
		angle := r.NextFloat(0, 2*math.Pi)
		chunk.Moons = append(chunk.Moons, &Moon{
			Object: Object{
				ID:                MoonID(star.Position, planet.OrbitIndex, mi),
				Type:              TypeMoon,
				Position:          orbitPosition(planet.Position, dist, angle),
				Radius:            r.NextFloat(3, 7),
				DiscoveryDistance: 90,
			},
			StarIndex:   starIndex,
			PlanetIndex: planetIndex,
			OrbitIndex:  mi,
			OrbitDist:   dist,
			OrbitAngle:  angle,
			OrbitSpeed:  1.1 / math.Sqrt(dist),
		})
	}
}

func (g *Generator) placeNebulae(chunk *Chunk, r *rng.SeededRandom) {
	origin := chunk.Coords.WorldOrigin()
	center := vec.Vec2Float{X: origin.X + vec.ChunkSize/2, Y: origin.Y + vec.ChunkSize/2}

	// Региональная модуляция: в "плотных" областях туманности
	// встречаются втрое чаще, в пустотах — почти никогда
	density := g.nebulaNoise.At(center.X, center.Y)
	chance := nebulaBaseChance * (0.4 + 1.8*density)

	if !r.NextBool(chance) {
		return
	}

	pos := g.randomPos(chunk.Coords, r)
	chunk.Nebulae = append(chunk.Nebulae, &Nebula{
		Object: Object{
			ID:                NebulaID(pos),
			Type:              TypeNebula,
			Position:          pos,
			Radius:            r.NextFloat(280, 850),
			DiscoveryDistance: 1100,
		},
		NebulaKind: g.nebulaTable.Pick(r),
		ShapeSeed:  rng.FeatureSeed(g.universeSeed, pos.X, pos.Y, rng.SaltNebula),
	})
}

func (g *Generator) placeAsteroidFields(chunk *Chunk, r *rng.SeededRandom) {
	origin := chunk.Coords.WorldOrigin()
	center := vec.Vec2Float{X: origin.X + vec.ChunkSize/2, Y: origin.Y + vec.ChunkSize/2}

	density := g.beltNoise.At(center.X, center.Y)
	chance := asteroidBaseChance * (0.3 + 1.4*density)

	if !r.NextBool(chance) {
		return
	}

	pos := g.randomPos(chunk.Coords, r)
	chunk.AsteroidFields = append(chunk.AsteroidFields, &AsteroidField{
		Object: Object{
			ID:                AsteroidFieldID(pos),
			Type:              TypeAsteroidField,
			Position:          pos,
			Radius:            0, // протяжённость задаётся Width/Height
			DiscoveryDistance: 400,
		},
		Width:    r.NextFloat(350, 900),
		Height:   r.NextFloat(120, 300),
		Rotation: r.NextFloat(0, math.Pi),
		Density:  r.NextFloat(0.3, 1.0),
		RockSeed: rng.FeatureSeed(g.universeSeed, pos.X, pos.Y, rng.SaltCrater),
	})
}

func (g *Generator) placeComets(chunk *Chunk, r *rng.SeededRandom) {
	for si, star := range chunk.Stars {
		if !r.NextBool(cometChance) {
			continue
		}
		count := 1
		if r.NextBool(secondCometChance) {
			count = 2
		}

		for ci := 0; ci < count; ci++ {
			a := r.NextFloat(600, 1600)
			elements := OrbitalElements{
				SemiMajorAxis:    a,
				Eccentricity:     r.NextFloat(0.5, 0.9),
				ArgPerihelion:    r.NextFloat(0, 2*math.Pi),
				MeanAnomalyEpoch: r.NextFloat(0, 2*math.Pi),
				Epoch:            0,
				Period:           3000 + a*3,
			}

			comet := &Comet{
				Object: Object{
					ID:   CometID(star.Position, ci),
					Type: TypeComet,
					// Позиция на эпоху; актуальная позиция —
					// PositionAtTime(t)
					Position:          elements.PositionAt(0, star.Position),
					Radius:            r.NextFloat(4, 9),
					DiscoveryDistance: 250,
				},
				StarIndex:  si,
				CometIndex: ci,
				Elements:   elements,
				ParentPos:  star.Position,
			}
			chunk.Comets = append(chunk.Comets, comet)
		}
	}
}

func (g *Generator) placeRoguePlanets(chunk *Chunk, r *rng.SeededRandom) {
	if !r.NextBool(roguePlanetChance) {
		return
	}
	pos := g.randomPos(chunk.Coords, r)
	chunk.RoguePlanets = append(chunk.RoguePlanets, &RoguePlanet{
		Object: Object{
			ID:                RoguePlanetID(pos),
			Type:              TypeRoguePlanet,
			Position:          pos,
			Radius:            r.NextFloat(10, 24),
			DiscoveryDistance: 150,
		},
		Class:      g.planetTable.Pick(r),
		DriftAngle: r.NextFloat(0, 2*math.Pi),
	})
}

func (g *Generator) placeBlackHoles(chunk *Chunk, r *rng.SeededRandom) {
	if !r.NextBool(blackHoleChance) {
		return
	}
	pos := g.randomPos(chunk.Coords, r)
	radius := r.NextFloat(25, 60)
	chunk.BlackHoles = append(chunk.BlackHoles, &BlackHole{
		Object: Object{
			ID:                BlackHoleID(pos),
			Type:              TypeBlackHole,
			Position:          pos,
			Radius:            radius,
			DiscoveryDistance: 500,
		},
		Mass:         r.NextFloat(3, 40),
		LensingRange: radius * 6,
	})
}
