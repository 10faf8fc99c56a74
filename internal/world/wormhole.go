package world

import (
	"fmt"

	"github.com/tekknoschtev/astral-surveyor-sub000/internal/rng"
	"github.com/tekknoschtev/astral-surveyor-sub000/internal/vec"
)

// Пары червоточин связывают два чанка, которые генерируются лениво и
// независимо, возможно с большим разрывом во времени. Никакое общее
// изменяемое состояние недопустимо, поэтому партнёрство выводится
// чистой инволютивной функцией от координат чанка, а решение о спавне
// и оба мировых смещения — из сида пары, привязанного к каноническому
// ("альфа") чанку. Какой бы конец ни материализовался первым, оба
// выводят одинаковый идентификатор пары и взаимно согласованные
// координаты близнецов.

const (
	// wormholeBlockSize — сторона суперблока в чанках. Партнёр —
	// точечное отражение внутри суперблока, так что расстояния пары
	// достигают ~wormholeBlockSize * ChunkSize * √2 мировых единиц.
	// Чётный размер исключает вырожденный центр (партнёр == сам чанк).
	wormholeBlockSize = 64

	// WormholePairChance — вероятность пары на слот; один розыгрыш
	// резервирует оба чанка пары.
	WormholePairChance = 1.0 / 2000.0

	wormholeEdgeMargin = 200.0
)

// floorDiv — целочисленное деление с округлением вниз
func floorDiv(a, n int) int {
	q := a / n
	if a%n != 0 && (a < 0) != (n < 0) {
		q--
	}
	return q
}

// PartnerChunk возвращает координаты парного чанка: точечное отражение
// внутри суперблока wormholeBlockSize × wormholeBlockSize.
// Функция — инволюция: PartnerChunk(PartnerChunk(c)) == c.
func PartnerChunk(c vec.Vec2) vec.Vec2 {
	bx := floorDiv(c.X, wormholeBlockSize)
	by := floorDiv(c.Y, wormholeBlockSize)
	ix := c.X - bx*wormholeBlockSize
	iy := c.Y - by*wormholeBlockSize
	return vec.Vec2{
		X: bx*wormholeBlockSize + (wormholeBlockSize - 1 - ix),
		Y: by*wormholeBlockSize + (wormholeBlockSize - 1 - iy),
	}
}

// chunkLess задаёт канонический порядок чанков для выбора альфа-конца
func chunkLess(a, b vec.Vec2) bool {
	if a.Y != b.Y {
		return a.Y < b.Y
	}
	return a.X < b.X
}

// wormholePairSeed — сид пары; одинаков для обоих чанков пары
func wormholePairSeed(universeSeed uint32, alpha vec.Vec2) uint32 {
	return rng.HashComponents(int64(universeSeed), int64(alpha.X), int64(alpha.Y), int64(rng.SaltWormhole))
}

// resolveWormhole решает, несёт ли чанк конец пары червоточин, и если
// да — размещает его. Розыгрыш редкости выполняется ровно один раз на
// пару, всегда от сида альфа-чанка: бета-чанк не бросает собственный
// кубик, а детерминированно переигрывает решение альфы. Иначе были бы
// возможны дубликаты и "призрачные" концы.
func (g *Generator) resolveWormhole(chunk *Chunk) {
	partner := PartnerChunk(chunk.Coords)
	if partner == chunk.Coords {
		// Вырожденное партнёрство: спавн подавляется вместо
		// создания само-парного объекта
		return
	}

	alpha := chunk.Coords
	designation := WormholeAlpha
	if chunkLess(partner, alpha) {
		alpha = partner
		designation = WormholeBeta
	}

	pr := rng.NewSeededRandom(wormholePairSeed(g.universeSeed, alpha))
	if !pr.NextBool(WormholePairChance) {
		return
	}

	// Оба смещения выводятся из потока пары в фиксированном порядке,
	// чтобы каждый чанк мог восстановить координаты близнеца
	alphaChunk := alpha
	betaChunk := PartnerChunk(alpha)

	alphaOrigin := alphaChunk.WorldOrigin()
	alphaPos := vec.Vec2Float{
		X: alphaOrigin.X + pr.NextFloat(wormholeEdgeMargin, vec.ChunkSize-wormholeEdgeMargin),
		Y: alphaOrigin.Y + pr.NextFloat(wormholeEdgeMargin, vec.ChunkSize-wormholeEdgeMargin),
	}

	betaOrigin := betaChunk.WorldOrigin()
	betaPos := vec.Vec2Float{
		X: betaOrigin.X + pr.NextFloat(wormholeEdgeMargin, vec.ChunkSize-wormholeEdgeMargin),
		Y: betaOrigin.Y + pr.NextFloat(wormholeEdgeMargin, vec.ChunkSize-wormholeEdgeMargin),
	}

	radius := pr.NextFloat(28, 42)
	pairID := fmt.Sprintf("wormhole_%d_%d", alphaChunk.X, alphaChunk.Y)

	position, twinPos, twinChunk := alphaPos, betaPos, betaChunk
	if designation == WormholeBeta {
		position, twinPos, twinChunk = betaPos, alphaPos, alphaChunk
	}

	chunk.Wormholes = append(chunk.Wormholes, &Wormhole{
		Object: Object{
			ID:                WormholeID(pairID, designation),
			Type:              TypeWormhole,
			Position:          position,
			Radius:            radius,
			DiscoveryDistance: 300,
		},
		PairID:       pairID,
		Designation:  designation,
		TwinPosition: twinPos,
		TwinChunk:    twinChunk,
	})
}
