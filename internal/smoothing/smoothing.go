// Package smoothing реализует численные примитивы сглаживания, общие для
// презентационного кеша: независимое от частоты кадров экспоненциальное
// приближение и скользящее среднее позиций.
package smoothing

import (
	"math"

	"github.com/annelo/go-nameplates/internal/geometry"
)

const (
	// Residual — остаточная доля ошибки после settle-времени (1%).
	Residual = 0.01

	// minSettleTime защищает от деления на ноль.
	minSettleTime = 1e-5
)

// ApproachAlpha возвращает коэффициент интерполяции для кадра длительностью dt
// при настроенном settle-времени: value += (target - value) * alpha.
//
// Формула alpha = 1 - Residual^(dt/settle) гарантирует, что через settle
// секунд реального времени сглаженное значение отстоит от цели не более чем
// на 1%, сколько бы кадров ни уложилось в этот интервал.
func ApproachAlpha(dt, settle float64) float64 {
	if dt < 0 {
		dt = 0
	}
	if settle < minSettleTime {
		settle = minSettleTime
	}
	a := 1.0 - math.Pow(Residual, dt/settle)
	if a < 0 {
		return 0
	}
	if a > 1 {
		return 1
	}
	return a
}

// Approach делает один шаг экспоненциального приближения value к target.
func Approach(value, target, dt, settle float64) float64 {
	return value + (target-value)*ApproachAlpha(dt, settle)
}

// Saturate ограничивает x отрезком [0, 1].
func Saturate(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// SmoothStep — кубическая S-кривая 3x^2 - 2x^3 на [0, 1].
// Вне отрезка значение насыщается.
func SmoothStep(x float64) float64 {
	x = Saturate(x)
	return x * x * (3 - 2*x)
}

// PositionRing — кольцевой буфер сырых экранных позиций фиксированного
// размера для вычисления скользящего среднего. Среднее давит периодический
// джиттер проекции, который экспоненциальное сглаживание гасит хуже.
type PositionRing struct {
	samples []geometry.Vec2
	index   int
	filled  bool
}

// NewPositionRing создаёт буфер на size сэмплов. size < 1 трактуется как 1.
func NewPositionRing(size int) *PositionRing {
	if size < 1 {
		size = 1
	}
	return &PositionRing{samples: make([]geometry.Vec2, size)}
}

// Fill заполняет весь буфер одним значением. Вызывается при первом
// наблюдении сущности, чтобы среднее не тянуло имя от нулевой позиции.
func (r *PositionRing) Fill(p geometry.Vec2) {
	for i := range r.samples {
		r.samples[i] = p
	}
	r.index = 0
	r.filled = true
}

// Push добавляет сырой сэмпл и возвращает текущее скользящее среднее.
func (r *PositionRing) Push(p geometry.Vec2) geometry.Vec2 {
	r.samples[r.index] = p
	r.index = (r.index + 1) % len(r.samples)
	if r.index == 0 {
		r.filled = true
	}

	count := r.index
	if r.filled {
		count = len(r.samples)
	}
	if count == 0 {
		return p
	}

	var sum geometry.Vec2
	for i := 0; i < count; i++ {
		sum = sum.Add(r.samples[i])
	}
	return sum.Scale(1.0 / float64(count))
}
