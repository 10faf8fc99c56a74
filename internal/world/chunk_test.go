package world

import (
	"math"
	"testing"

	"github.com/tekknoschtev/astral-surveyor-sub000/internal/vec"
)

func buildSystemChunk() *Chunk {
	chunk := NewChunk(vec.Vec2{X: 0, Y: 0}, 1)

	star := &Star{
		Object: Object{
			ID:       "star_1000_1000",
			Type:     TypeStar,
			Position: vec.Vec2Float{X: 1000, Y: 1000},
			Radius:   50,
		},
		Class: StarClassG,
	}
	chunk.Stars = append(chunk.Stars, star)

	planet := &Planet{
		Object: Object{
			ID:       "planet_1000_1000_0",
			Type:     TypePlanet,
			Position: orbitPosition(star.Position, 300, 0),
			Radius:   15,
		},
		StarIndex:  0,
		OrbitIndex: 0,
		OrbitDist:  300,
		OrbitAngle: 0,
		OrbitSpeed: 0.02,
	}
	chunk.Planets = append(chunk.Planets, planet)

	moon := &Moon{
		Object: Object{
			ID:       "moon_1000_1000_0_0",
			Type:     TypeMoon,
			Position: orbitPosition(planet.Position, 40, math.Pi/2),
			Radius:   5,
		},
		StarIndex:   0,
		PlanetIndex: 0,
		OrbitIndex:  0,
		OrbitDist:   40,
		OrbitAngle:  math.Pi / 2,
		OrbitSpeed:  0.1,
	}
	chunk.Moons = append(chunk.Moons, moon)

	return chunk
}

func TestAdvanceOrbitsKeepsDistances(t *testing.T) {
	chunk := buildSystemChunk()
	star := chunk.Stars[0]
	planet := chunk.Planets[0]
	moon := chunk.Moons[0]

	for i := 0; i < 50; i++ {
		chunk.AdvanceOrbits(1.0)

		pd := planet.Position.DistanceTo(star.Position)
		if math.Abs(pd-planet.OrbitDist) > 1e-9 {
			t.Fatalf("Шаг %d: расстояние планеты %.9f, ожидалось %.1f", i, pd, planet.OrbitDist)
		}
		md := moon.Position.DistanceTo(planet.Position)
		if math.Abs(md-moon.OrbitDist) > 1e-9 {
			t.Fatalf("Шаг %d: расстояние луны %.9f, ожидалось %.1f", i, md, moon.OrbitDist)
		}
	}
}

func TestAdvanceOrbitsAngle(t *testing.T) {
	chunk := buildSystemChunk()
	planet := chunk.Planets[0]

	chunk.AdvanceOrbits(2.0)
	if math.Abs(planet.OrbitAngle-0.04) > 1e-12 {
		t.Errorf("Угол после шага: ожидалось 0.04, получено %.12f", planet.OrbitAngle)
	}

	// Угол нормализуется в [0, 2π)
	chunk.AdvanceOrbits(1000.0)
	if planet.OrbitAngle < 0 || planet.OrbitAngle >= 2*math.Pi {
		t.Errorf("Угол %.4f вне диапазона [0, 2π)", planet.OrbitAngle)
	}
}

func TestChunkInject(t *testing.T) {
	chunk := buildSystemChunk()
	before := chunk.ObjectCount()

	spawned := &BlackHole{
		Object: Object{
			ID:       "blackhole_500_500",
			Type:     TypeBlackHole,
			Position: vec.Vec2Float{X: 500, Y: 500},
			Radius:   40,
		},
		Mass: 10,
	}
	if err := chunk.Inject(spawned); err != nil {
		t.Fatalf("Inject вернул ошибку: %v", err)
	}

	if chunk.ObjectCount() != before+1 {
		t.Errorf("Количество объектов: ожидалось %d, получено %d", before+1, chunk.ObjectCount())
	}
	if !chunk.IsInjected("blackhole_500_500") {
		t.Error("Вставленный объект не помечен как injected")
	}
	if chunk.IsInjected("star_1000_1000") {
		t.Error("Сгенерированный объект помечен как injected")
	}

	found := false
	for _, b := range chunk.Bodies() {
		if b.Identity() == "blackhole_500_500" {
			found = true
		}
	}
	if !found {
		t.Error("Вставленный объект отсутствует в Bodies()")
	}
}

type fakeBody struct{ Object }

func TestChunkInjectUnsupported(t *testing.T) {
	chunk := buildSystemChunk()
	if err := chunk.Inject(&fakeBody{}); err == nil {
		t.Error("Ожидалась ошибка для неподдерживаемого типа")
	}
}

func TestDiscoveryMonotonic(t *testing.T) {
	chunk := buildSystemChunk()
	star := chunk.Stars[0]

	if star.IsDiscovered() {
		t.Error("Новый объект не должен быть открыт")
	}

	star.SetDiscovered(true)
	if !star.IsDiscovered() {
		t.Error("Объект не открылся после SetDiscovered(true)")
	}

	// Переход true -> false игнорируется
	star.SetDiscovered(false)
	if !star.IsDiscovered() {
		t.Error("Флаг открытия сброшен переходом true -> false")
	}
}

func TestBodiesOrder(t *testing.T) {
	chunk := buildSystemChunk()
	bodies := chunk.Bodies()

	if len(bodies) != 3 {
		t.Fatalf("Ожидалось 3 объекта, получено %d", len(bodies))
	}
	if bodies[0].Kind() != TypeStar || bodies[1].Kind() != TypePlanet || bodies[2].Kind() != TypeMoon {
		t.Errorf("Нарушен порядок типов: %s, %s, %s", bodies[0].Kind(), bodies[1].Kind(), bodies[2].Kind())
	}
}
