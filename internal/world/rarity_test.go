package world

import (
	"testing"

	"github.com/tekknoschtev/astral-surveyor-sub000/internal/rng"
)

func testTable(t *testing.T) *RarityTable[string] {
	t.Helper()
	table, err := NewRarityTable(
		RarityEntry[string]{"common", 0.7},
		RarityEntry[string]{"uncommon", 0.2},
		RarityEntry[string]{"rare", 0.1},
	)
	if err != nil {
		t.Fatalf("Не удалось создать таблицу: %v", err)
	}
	return table
}

func TestRarityPickValueCumulative(t *testing.T) {
	table := testTable(t)

	cases := []struct {
		draw     float64
		expected string
	}{
		{0.0, "common"},
		{0.5, "common"},
		{0.69, "common"},
		{0.70, "common"}, // граница включается в предыдущую категорию
		{0.75, "uncommon"},
		{0.89, "uncommon"},
		{0.95, "rare"},
		{0.999, "rare"},
	}

	for _, c := range cases {
		got := table.PickValue(c.draw)
		if got != c.expected {
			t.Errorf("PickValue(%.3f): ожидалось %q, получено %q", c.draw, c.expected, got)
		}
	}
}

func TestRarityUnnormalizedWeights(t *testing.T) {
	// Сумма весов не обязана равняться 1: таблица с весами 7/2/1
	// ведёт себя так же, как 0.7/0.2/0.1
	table, err := NewRarityTable(
		RarityEntry[string]{"common", 7},
		RarityEntry[string]{"uncommon", 2},
		RarityEntry[string]{"rare", 1},
	)
	if err != nil {
		t.Fatalf("Не удалось создать таблицу: %v", err)
	}

	if got := table.PickValue(0.75); got != "uncommon" {
		t.Errorf("Ожидалось uncommon, получено %q", got)
	}
	if got := table.PickValue(0.5); got != "common" {
		t.Errorf("Ожидалось common, получено %q", got)
	}
}

func TestRarityInvalidTables(t *testing.T) {
	if _, err := NewRarityTable[string](); err == nil {
		t.Error("Пустая таблица должна возвращать ошибку")
	}
	if _, err := NewRarityTable(RarityEntry[string]{"x", 0}); err == nil {
		t.Error("Нулевой вес должен возвращать ошибку")
	}
	if _, err := NewRarityTable(RarityEntry[string]{"x", -1}); err == nil {
		t.Error("Отрицательный вес должен возвращать ошибку")
	}
}

func TestRarityPickDeterministic(t *testing.T) {
	table := testTable(t)

	r1 := rng.NewSeededRandom(1234)
	r2 := rng.NewSeededRandom(1234)
	for i := 0; i < 100; i++ {
		a := table.Pick(r1)
		b := table.Pick(r2)
		if a != b {
			t.Fatalf("Розыгрыш %d расходится: %q != %q", i, a, b)
		}
	}
}

func TestRarityDistribution(t *testing.T) {
	table := testTable(t)
	r := rng.NewSeededRandom(42)

	counts := map[string]int{}
	const n = 20000
	for i := 0; i < n; i++ {
		counts[table.Pick(r)]++
	}

	// Допуск ±3% от номинальной доли
	expect := map[string]float64{"common": 0.7, "uncommon": 0.2, "rare": 0.1}
	for value, share := range expect {
		got := float64(counts[value]) / n
		if got < share-0.03 || got > share+0.03 {
			t.Errorf("Доля %q = %.3f, ожидалось около %.2f", value, got, share)
		}
	}
}
