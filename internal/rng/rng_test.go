package rng

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeededRandom_Determinism(t *testing.T) {
	// Два генератора с одним сидом дают идентичные последовательности
	a := NewSeededRandom(42)
	b := NewSeededRandom(42)

	for i := 0; i < 1000; i++ {
		assert.Equal(t, a.Next(), b.Next(), "последовательности должны совпадать на шаге %d", i)
	}
}

func TestSeededRandom_Range(t *testing.T) {
	r := NewSeededRandom(12345)

	for i := 0; i < 10000; i++ {
		v := r.Next()
		assert.GreaterOrEqual(t, v, 0.0, "Next должен быть >= 0")
		assert.Less(t, v, 1.0, "Next должен быть < 1")
	}
}

func TestSeededRandom_NextInt(t *testing.T) {
	r := NewSeededRandom(7)

	seen := make(map[int]bool)
	for i := 0; i < 1000; i++ {
		v := r.NextInt(3, 6)
		assert.GreaterOrEqual(t, v, 3)
		assert.LessOrEqual(t, v, 6)
		seen[v] = true
	}

	// Все значения диапазона должны встретиться
	for v := 3; v <= 6; v++ {
		assert.True(t, seen[v], "значение %d не выпало за 1000 попыток", v)
	}
}

func TestSeededRandom_NextFloat(t *testing.T) {
	r := NewSeededRandom(99)

	for i := 0; i < 1000; i++ {
		v := r.NextFloat(-5.0, 5.0)
		assert.GreaterOrEqual(t, v, -5.0)
		assert.Less(t, v, 5.0)
	}
}

func TestSeededRandom_Reset(t *testing.T) {
	r := NewSeededRandom(2024)

	first := make([]float64, 10)
	for i := range first {
		first[i] = r.Next()
	}

	r.Reset()
	for i := range first {
		assert.Equal(t, first[i], r.Next(), "после Reset последовательность должна повториться")
	}
}

func TestSeededRandom_DifferentSeeds(t *testing.T) {
	a := NewSeededRandom(1)
	b := NewSeededRandom(2)

	// Разные сиды — разные последовательности (хотя бы одно расхождение за 10 шагов)
	same := true
	for i := 0; i < 10; i++ {
		if a.Next() != b.Next() {
			same = false
		}
	}
	assert.False(t, same, "разные сиды не должны давать одинаковые последовательности")
}

func TestChoice(t *testing.T) {
	r := NewSeededRandom(5)
	items := []string{"G", "K", "M"}

	for i := 0; i < 100; i++ {
		v := Choice(r, items)
		assert.Contains(t, items, v)
	}

	// Пустой срез — нулевое значение
	assert.Equal(t, "", Choice(r, []string{}))
}

func BenchmarkSeededRandom_Next(b *testing.B) {
	r := NewSeededRandom(42)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.Next()
	}
}
