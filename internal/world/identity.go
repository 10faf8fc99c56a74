package world

import (
	"fmt"
	"math"

	"github.com/tekknoschtev/astral-surveyor-sub000/internal/vec"
)

// Идентичности объектов выводятся из генеративных параметров —
// позиции родителя, тега типа и индекса внутри родителя либо
// собственной позиции с отброшенной дробной частью. Идентичность
// переживает выгрузку и регенерацию чанка и служит ключом в
// персистентной карте открытий.

func flooredKey(pos vec.Vec2Float) string {
	return fmt.Sprintf("%d_%d", int(math.Floor(pos.X)), int(math.Floor(pos.Y)))
}

// StarID — идентичность звезды от её позиции
func StarID(pos vec.Vec2Float) string {
	return fmt.Sprintf("star_%s", flooredKey(pos))
}

// PlanetID — идентичность планеты от позиции родительской звезды и номера орбиты
func PlanetID(starPos vec.Vec2Float, orbitIndex int) string {
	return fmt.Sprintf("planet_%s_%d", flooredKey(starPos), orbitIndex)
}

// MoonID — идентичность луны от позиции звезды, номера орбиты планеты и номера луны
func MoonID(starPos vec.Vec2Float, planetOrbit, moonOrbit int) string {
	return fmt.Sprintf("moon_%s_%d_%d", flooredKey(starPos), planetOrbit, moonOrbit)
}

// CometID — идентичность кометы от позиции звезды и её индекса
func CometID(starPos vec.Vec2Float, index int) string {
	return fmt.Sprintf("comet_%s_%d", flooredKey(starPos), index)
}

// NebulaID — идентичность туманности от её позиции
func NebulaID(pos vec.Vec2Float) string {
	return fmt.Sprintf("nebula_%s", flooredKey(pos))
}

// AsteroidFieldID — идентичность поля астероидов от его позиции
func AsteroidFieldID(pos vec.Vec2Float) string {
	return fmt.Sprintf("asteroids_%s", flooredKey(pos))
}

// BlackHoleID — идентичность чёрной дыры от её позиции
func BlackHoleID(pos vec.Vec2Float) string {
	return fmt.Sprintf("blackhole_%s", flooredKey(pos))
}

// RoguePlanetID — идентичность планеты-сироты от её позиции
func RoguePlanetID(pos vec.Vec2Float) string {
	return fmt.Sprintf("rogue_%s", flooredKey(pos))
}

// WormholeID — идентичность конца червоточины от идентификатора пары
// и обозначения конца. Оба конца пары выводят одинаковый PairID
// независимо от того, какой чанк сгенерирован первым.
func WormholeID(pairID string, designation WormholeDesignation) string {
	return fmt.Sprintf("%s_%s", pairID, designation)
}
