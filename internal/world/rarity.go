package world

import (
	"fmt"

	"github.com/tekknoschtev/astral-surveyor-sub000/internal/rng"
)

// RarityEntry — категория с вероятностным весом
type RarityEntry[T any] struct {
	Value  T
	Weight float64
}

// RarityTable — упорядоченная таблица редкости. Выбор категории —
// кумулятивный проход: берётся первая категория, чья накопленная
// сумма весов не меньше розыгрыша. Порядок записей фиксирован и
// входит в контракт детерминизма.
type RarityTable[T any] struct {
	entries []RarityEntry[T]
	total   float64
}

// NewRarityTable создаёт таблицу редкости.
// Веса должны быть положительными; сумма произвольна (нормализуется при выборе).
func NewRarityTable[T any](entries ...RarityEntry[T]) (*RarityTable[T], error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("таблица редкости пуста")
	}
	total := 0.0
	for i, e := range entries {
		if e.Weight <= 0 {
			return nil, fmt.Errorf("недействительный вес %.4f в записи %d", e.Weight, i)
		}
		total += e.Weight
	}
	return &RarityTable[T]{entries: entries, total: total}, nil
}

// MustRarityTable — вариант для статических таблиц генератора;
// паника допустима только на заведомо корректных константах.
func MustRarityTable[T any](entries ...RarityEntry[T]) *RarityTable[T] {
	t, err := NewRarityTable(entries...)
	if err != nil {
		panic(err)
	}
	return t
}

// PickValue выбирает категорию по готовому розыгрышу draw из [0, 1).
// На краевых случаях плавающей точки (накопленная сумма не достигла
// draw из-за округления) возвращается самая частая категория.
func (t *RarityTable[T]) PickValue(draw float64) T {
	threshold := draw * t.total
	cumulative := 0.0
	for _, e := range t.entries {
		cumulative += e.Weight
		if cumulative >= threshold {
			return e.Value
		}
	}
	return t.mostCommon()
}

// Pick выбирает категорию, потребляя один розыгрыш генератора
func (t *RarityTable[T]) Pick(r *rng.SeededRandom) T {
	return t.PickValue(r.Next())
}

func (t *RarityTable[T]) mostCommon() T {
	best := 0
	for i, e := range t.entries {
		if e.Weight > t.entries[best].Weight {
			best = i
		}
	}
	return t.entries[best].Value
}
