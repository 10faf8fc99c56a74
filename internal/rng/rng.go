package rng

// SeededRandom реализует детерминированный генератор псевдослучайных
// чисел по алгоритму Mulberry32. Одинаковый сид даёт одинаковую
// последовательность на любой платформе.
//
// Генератор никогда не разделяется между независимыми шагами генерации:
// каждая точка вызова конструирует собственный экземпляр от локально
// выведенного сида, иначе результат зависел бы от порядка вызовов.
type SeededRandom struct {
	state uint32
	seed  uint32
}

// NewSeededRandom создаёт генератор с указанным сидом
func NewSeededRandom(seed uint32) *SeededRandom {
	return &SeededRandom{state: seed, seed: seed}
}

// Reset возвращает генератор к начальному сиду
func (r *SeededRandom) Reset() {
	r.state = r.seed
}

// Seed возвращает сид, с которым был создан генератор
func (r *SeededRandom) Seed() uint32 {
	return r.seed
}

// Next возвращает следующее число в диапазоне [0, 1)
func (r *SeededRandom) Next() float64 {
	r.state += 0x6D2B79F5
	t := r.state
	t = (t ^ (t >> 15)) * (t | 1)
	t ^= t + (t^(t>>7))*(t|61)
	return float64(t^(t>>14)) / 4294967296.0
}

// NextInt возвращает целое в диапазоне [min, max] включительно
func (r *SeededRandom) NextInt(min, max int) int {
	if max < min {
		min, max = max, min
	}
	return min + int(r.Next()*float64(max-min+1))
}

// NextFloat возвращает число в диапазоне [min, max)
func (r *SeededRandom) NextFloat(min, max float64) float64 {
	return min + r.Next()*(max-min)
}

// NextBool возвращает true с вероятностью p
func (r *SeededRandom) NextBool(p float64) bool {
	return r.Next() < p
}

// Choice возвращает случайный элемент среза.
// Пустой срез возвращает нулевое значение типа.
func Choice[T any](r *SeededRandom, items []T) T {
	var zero T
	if len(items) == 0 {
		return zero
	}
	return items[r.NextInt(0, len(items)-1)]
}
