package util

import (
	"github.com/aquilax/go-perlin"
)

// NoiseField — детерминированное поле шума Перлина, привязанное к сиду.
// Используется для крупномасштабной модуляции плотности туманностей и
// астероидных полей: соседние чанки получают согласованные значения без
// общего изменяемого состояния.
type NoiseField struct {
	noise *perlin.Perlin
	scale float64
}

// NewNoiseField создаёт поле шума с указанным сидом и масштабом.
// scale — размер одной "области" в мировых единицах.
func NewNoiseField(seed int64, scale float64) *NoiseField {
	alpha := 2.0  // Сглаживание шума
	beta := 2.0   // Частота шума
	n := int32(3) // Количество октав
	return &NoiseField{
		noise: perlin.NewPerlin(alpha, beta, n, seed),
		scale: scale,
	}
}

// At возвращает значение шума в диапазоне [0, 1) для мировых координат
func (nf *NoiseField) At(x, y float64) float64 {
	v := nf.noise.Noise2D(x/nf.scale, y/nf.scale)
	// Noise2D возвращает значение от -1 до 1
	return (v + 1.0) / 2.0
}
