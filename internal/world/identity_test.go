package world

import (
	"testing"

	"github.com/tekknoschtev/astral-surveyor-sub000/internal/vec"
)

func TestIdentityFloorsCoordinates(t *testing.T) {
	// Дробная часть отбрасывается вниз, отрицательные координаты стабильны
	cases := []struct {
		pos      vec.Vec2Float
		expected string
	}{
		{vec.Vec2Float{X: 100.7, Y: 200.2}, "star_100_200"},
		{vec.Vec2Float{X: -0.5, Y: -0.5}, "star_-1_-1"},
		{vec.Vec2Float{X: 0, Y: 0}, "star_0_0"},
		{vec.Vec2Float{X: -1999.01, Y: 1999.99}, "star_-2000_1999"},
	}
	for _, c := range cases {
		if got := StarID(c.pos); got != c.expected {
			t.Errorf("StarID(%+v): ожидалось %q, получено %q", c.pos, c.expected, got)
		}
	}
}

func TestIdentityChildrenFromParent(t *testing.T) {
	starPos := vec.Vec2Float{X: 1500.3, Y: -800.9}

	if got := PlanetID(starPos, 2); got != "planet_1500_-801_2" {
		t.Errorf("PlanetID: получено %q", got)
	}
	if got := MoonID(starPos, 2, 0); got != "moon_1500_-801_2_0" {
		t.Errorf("MoonID: получено %q", got)
	}
	if got := CometID(starPos, 1); got != "comet_1500_-801_1" {
		t.Errorf("CometID: получено %q", got)
	}
}

func TestIdentitySurvivesOrbitalMotion(t *testing.T) {
	// Идентичности детей выводятся из позиции звезды и индексов, а не
	// из текущей позиции ребёнка: движение по орбите их не меняет
	g := NewGenerator(42)

	var coords vec.Vec2
	found := false
	for y := 0; y < 20 && !found; y++ {
		for x := 0; x < 20 && !found; x++ {
			c := vec.Vec2{X: x, Y: y}
			if len(g.Generate(c).Planets) > 0 {
				coords = c
				found = true
			}
		}
	}
	if !found {
		t.Fatal("Не нашлось чанка с планетами")
	}

	chunk := g.Generate(coords)
	before := make([]string, len(chunk.Planets))
	for i, p := range chunk.Planets {
		before[i] = p.ID
	}

	chunk.AdvanceOrbits(12345.6)

	regenerated := g.Generate(coords)
	if len(regenerated.Planets) != len(before) {
		t.Fatalf("Число планет изменилось: %d != %d", len(regenerated.Planets), len(before))
	}
	for i, p := range regenerated.Planets {
		if p.ID != before[i] {
			t.Errorf("Идентичность планеты %d изменилась: %q != %q", i, p.ID, before[i])
		}
	}
}

func TestWormholeIdentity(t *testing.T) {
	if got := WormholeID("wormhole_10_-3", WormholeAlpha); got != "wormhole_10_-3_alpha" {
		t.Errorf("WormholeID alpha: получено %q", got)
	}
	if got := WormholeID("wormhole_10_-3", WormholeBeta); got != "wormhole_10_-3_beta" {
		t.Errorf("WormholeID beta: получено %q", got)
	}
}
