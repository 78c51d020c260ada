// Package geometry содержит векторную математику и проекцию мир->экран,
// используемые конвейером нейм-плейтов.
package geometry

import "math"

// Vec2 — точка или вектор в экранных координатах (пиксели).
type Vec2 struct {
	X, Y float64
}

// Add возвращает сумму двух векторов.
func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }

// Sub возвращает разность двух векторов.
func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v.X - o.X, v.Y - o.Y} }

// Scale возвращает вектор, умноженный на скаляр.
func (v Vec2) Scale(s float64) Vec2 { return Vec2{v.X * s, v.Y * s} }

// Length возвращает длину вектора.
func (v Vec2) Length() float64 { return math.Hypot(v.X, v.Y) }

// Vec3 — точка или вектор в мировых координатах (игровые единицы).
type Vec3 struct {
	X, Y, Z float64
}

// Add возвращает сумму двух векторов.
func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }

// Sub возвращает разность двух векторов.
func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }

// Scale возвращает вектор, умноженный на скаляр.
func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }

// Dot возвращает скалярное произведение.
func (v Vec3) Dot(o Vec3) float64 { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }

// Cross возвращает векторное произведение.
func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		X: v.Y*o.Z - v.Z*o.Y,
		Y: v.Z*o.X - v.X*o.Z,
		Z: v.X*o.Y - v.Y*o.X,
	}
}

// Length возвращает длину вектора.
func (v Vec3) Length() float64 { return math.Sqrt(v.Dot(v)) }

// DistanceSquared возвращает квадрат расстояния до точки o.
// Используется в горячем фильтре сканирования, чтобы не брать корень.
func (v Vec3) DistanceSquared(o Vec3) float64 {
	d := v.Sub(o)
	return d.Dot(d)
}

// Distance возвращает расстояние до точки o.
func (v Vec3) Distance(o Vec3) float64 { return math.Sqrt(v.DistanceSquared(o)) }

// Normalized возвращает единичный вектор того же направления.
// Нулевой вектор возвращается как есть.
func (v Vec3) Normalized() Vec3 {
	l := v.Length()
	if l < 1e-9 {
		return v
	}
	return v.Scale(1.0 / l)
}
