package vec

import "math"

// ChunkSize задаёт размер чанка в мировых единицах.
// Константа участвует в деривации сидов: менять её нельзя
// без инвалидации всех сохранённых вселенных.
const ChunkSize = 2000.0

// Vec2 представляет целочисленные координаты чанка
type Vec2 struct {
	X, Y int
}

// WorldOrigin возвращает мировые координаты угла чанка
func (v Vec2) WorldOrigin() Vec2Float {
	return Vec2Float{X: float64(v.X) * ChunkSize, Y: float64(v.Y) * ChunkSize}
}

// Neighbors возвращает координаты чанков в квадрате радиуса r (включая сам чанк)
func (v Vec2) Neighbors(r int) []Vec2 {
	result := make([]Vec2, 0, (2*r+1)*(2*r+1))
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			result = append(result, Vec2{X: v.X + dx, Y: v.Y + dy})
		}
	}
	return result
}

// DistanceTo вычисляет расстояние до другого чанка в чанковых единицах
func (v Vec2) DistanceTo(other Vec2) float64 {
	dx := float64(v.X - other.X)
	dy := float64(v.Y - other.Y)
	return math.Sqrt(dx*dx + dy*dy)
}

// ToChunkCoords преобразует мировые координаты в координаты чанка.
// Округление вниз, поэтому отрицательные координаты обрабатываются корректно.
func ToChunkCoords(pos Vec2Float) Vec2 {
	return Vec2{
		X: int(math.Floor(pos.X / ChunkSize)),
		Y: int(math.Floor(pos.Y / ChunkSize)),
	}
}
