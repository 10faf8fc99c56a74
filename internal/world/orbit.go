package world

import (
	"math"

	"github.com/tekknoschtev/astral-surveyor-sub000/internal/vec"
)

// Параметры решателя уравнения Кеплера. Эксцентриситеты комет ограничены
// заметно ниже параболических, поэтому недосходимость за лимит итераций
// молча терпима: используется лучшая доступная оценка.
const (
	keplerMaxIterations = 10
	keplerTolerance     = 1e-12
)

// OrbitalElements — кеплеровы элементы эллиптической орбиты.
// Позиция — чистая функция универсального времени: пересчитывается
// с нуля при каждом запросе и никогда не интегрируется пошагово.
type OrbitalElements struct {
	SemiMajorAxis    float64 // a, мировые единицы
	Eccentricity     float64 // e, [0, 1)
	ArgPerihelion    float64 // ω, радианы
	MeanAnomalyEpoch float64 // M0 на эпоху
	Epoch            float64 // Эпоха в универсальном времени
	Period           float64 // T, единицы универсального времени
}

// CometState — производное состояние кометы в момент времени.
// Яркость и хвост — скалярные функции радиус-вектора относительно
// перигелия; пересчитываются из того же r, что и позиция.
type CometState struct {
	Position   vec.Vec2Float
	Radius     float64 // Расстояние до родительской звезды
	Brightness float64 // [0, 1]
	TailLength float64 // Мировые единицы
	Visible    bool
}

// SolveKepler решает уравнение Кеплера M = E - e*sin(E) относительно
// эксцентрической аномалии E методом Ньютона-Рафсона.
// Для высоких эксцентриситетов стартовая точка π обусловлена лучше,
// чем M (шаг Ньютона при E≈0 делится на 1-e).
func SolveKepler(meanAnomaly, eccentricity float64) float64 {
	m := wrapAngle(meanAnomaly)

	var e float64
	if eccentricity < 0.8 {
		e = m
	} else {
		e = math.Pi
	}

	for i := 0; i < keplerMaxIterations; i++ {
		f := e - eccentricity*math.Sin(e) - m
		fPrime := 1 - eccentricity*math.Cos(e)
		step := f / fPrime
		e -= step
		if math.Abs(step) < keplerTolerance {
			break
		}
	}
	return e
}

// MeanAnomalyAt возвращает среднюю аномалию в момент t
func (el OrbitalElements) MeanAnomalyAt(t float64) float64 {
	return wrapAngle(el.MeanAnomalyEpoch + (2*math.Pi/el.Period)*(t-el.Epoch))
}

// PositionAt возвращает позицию тела на орбите в момент универсального
// времени t, с учётом аргумента перигелия и позиции родителя.
func (el OrbitalElements) PositionAt(t float64, parent vec.Vec2Float) vec.Vec2Float {
	m := el.MeanAnomalyAt(t)
	e := SolveKepler(m, el.Eccentricity)

	nu := trueAnomaly(e, el.Eccentricity)
	r := el.SemiMajorAxis * (1 - el.Eccentricity*math.Cos(e))

	// Позиция в плоскости орбиты, затем поворот на ω и перенос к родителю
	x := r * math.Cos(nu)
	y := r * math.Sin(nu)

	cosW := math.Cos(el.ArgPerihelion)
	sinW := math.Sin(el.ArgPerihelion)
	return vec.Vec2Float{
		X: parent.X + x*cosW - y*sinW,
		Y: parent.Y + x*sinW + y*cosW,
	}
}

// RadiusAt возвращает расстояние до родителя в момент t
func (el OrbitalElements) RadiusAt(t float64) float64 {
	e := SolveKepler(el.MeanAnomalyAt(t), el.Eccentricity)
	return el.SemiMajorAxis * (1 - el.Eccentricity*math.Cos(e))
}

// PerihelionDistance возвращает расстояние перигелия q = a*(1-e)
func (el OrbitalElements) PerihelionDistance() float64 {
	return el.SemiMajorAxis * (1 - el.Eccentricity)
}

// AphelionDistance возвращает расстояние афелия Q = a*(1+e)
func (el OrbitalElements) AphelionDistance() float64 {
	return el.SemiMajorAxis * (1 + el.Eccentricity)
}

// StateAt возвращает позицию и видимые характеристики кометы в момент t
func (el OrbitalElements) StateAt(t float64, parent vec.Vec2Float) CometState {
	m := el.MeanAnomalyAt(t)
	e := SolveKepler(m, el.Eccentricity)

	nu := trueAnomaly(e, el.Eccentricity)
	r := el.SemiMajorAxis * (1 - el.Eccentricity*math.Cos(e))

	x := r * math.Cos(nu)
	y := r * math.Sin(nu)
	cosW := math.Cos(el.ArgPerihelion)
	sinW := math.Sin(el.ArgPerihelion)
	pos := vec.Vec2Float{
		X: parent.X + x*cosW - y*sinW,
		Y: parent.Y + x*sinW + y*cosW,
	}

	// Яркость спадает линейно от перигелия к афелию
	q := el.PerihelionDistance()
	qMax := el.AphelionDistance()
	brightness := 0.0
	if qMax > q {
		brightness = 1 - (r-q)/(qMax-q)
		brightness = math.Max(0, math.Min(1, brightness))
	}

	return CometState{
		Position:   pos,
		Radius:     r,
		Brightness: brightness,
		TailLength: cometMaxTail * brightness,
		Visible:    brightness > cometVisibleThreshold,
	}
}

// trueAnomaly вычисляет истинную аномалию из эксцентрической,
// нормализованную в [0, 2π)
func trueAnomaly(eccentricAnomaly, eccentricity float64) float64 {
	nu := 2 * math.Atan2(
		math.Sqrt(1+eccentricity)*math.Sin(eccentricAnomaly/2),
		math.Sqrt(1-eccentricity)*math.Cos(eccentricAnomaly/2),
	)
	return wrapAngle(nu)
}

const (
	cometMaxTail          = 120.0
	cometVisibleThreshold = 0.05
)

// orbitPosition возвращает позицию на круговой орбите
func orbitPosition(parent vec.Vec2Float, distance, angle float64) vec.Vec2Float {
	return vec.Vec2Float{
		X: parent.X + math.Cos(angle)*distance,
		Y: parent.Y + math.Sin(angle)*distance,
	}
}
