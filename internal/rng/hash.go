package rng

import "math"

// Соли для производных сидов. Каждая независимая подсистема генерации
// смешивает свою константу, чтобы потоки случайности не коррелировали.
const (
	SaltChunk    uint32 = 0x9E3779B1 // сид чанка
	SaltWormhole uint32 = 0x85EBCA6B // слот пары червоточин
	SaltCrater   uint32 = 0xC2B2AE35 // поверхностные детали планет
	SaltNebula   uint32 = 0x27D4EB2F // форма туманностей
)

// mix32 доводит 32-битное значение до лавинного распределения
// (финализатор в стиле Murmur3).
func mix32(x uint32) uint32 {
	x ^= x >> 16
	x *= 0x7FEB352D
	x ^= x >> 15
	x *= 0x846CA68B
	x ^= x >> 16
	return x
}

// HashComponents сворачивает последовательность целых компонент в один
// детерминированный 32-битный сид. Функция чистая, чувствительна к порядку
// аргументов; переполнение uint32 — часть контракта, от него зависят
// все производные сиды.
func HashComponents(components ...int64) uint32 {
	h := uint32(0x811C9DC5)
	for _, c := range components {
		// Смешиваем обе половины 64-битной компоненты,
		// чтобы большие координаты не схлопывались.
		h ^= uint32(c) * 0x9E3779B1
		h = mix32(h)
		h ^= uint32(c>>32) * 0x85EBCA6B
		h = mix32(h)
	}
	return h
}

// ChunkSeed возвращает сид чанка от сида вселенной и координат чанка
func ChunkSeed(universeSeed uint32, cx, cy int) uint32 {
	return HashComponents(int64(universeSeed), int64(cx), int64(cy), int64(SaltChunk))
}

// FeatureSeed возвращает сид для подпаттерна объекта (кратеры, форма
// туманности) от мировой позиции объекта и соли подсистемы. Дробная
// часть позиции отбрасывается до хеширования: плавающая точка не должна
// влиять на стабильность сида.
func FeatureSeed(universeSeed uint32, x, y float64, salt uint32) uint32 {
	ix := int64(math.Floor(x))
	iy := int64(math.Floor(y))
	return HashComponents(int64(universeSeed), ix, iy, int64(salt))
}
