package geometry

import "math"

// Camera описывает положение и ориентацию камеры наблюдателя вместе с
// параметрами вьюпорта. Передаётся из world-контекста одним значением,
// презентационный контекст не обращается к живому состоянию камеры.
type Camera struct {
	Pos     Vec3
	Forward Vec3 // единичный вектор взгляда
	Up      Vec3 // приблизительный "верх" (не обязан быть ортогонален Forward)

	FOVY   float64 // вертикальный угол обзора в радианах
	Width  float64 // ширина вьюпорта в пикселях
	Height float64 // высота вьюпорта в пикселях

	Near float64 // ближняя плоскость отсечения в мировых единицах
	Far  float64 // дальняя плоскость (только для нормировки глубины)
}

// Projection — результат проекции мировой точки на экран.
type Projection struct {
	Screen Vec2    // позиция в пикселях
	Depth  float64 // нормированная глубина в (0,1], чем больше — тем дальше
	OK     bool    // false, если точка за камерой или вне ближней плоскости
}

// WorldToScreen проецирует мировую точку в экранные координаты камеры.
// Точки за камерой или ближе ближней плоскости дают Projection{OK: false}.
func (c Camera) WorldToScreen(p Vec3) Projection {
	fwd := c.Forward.Normalized()
	right := fwd.Cross(c.Up).Normalized()
	up := right.Cross(fwd)

	d := p.Sub(c.Pos)
	z := d.Dot(fwd)

	near := c.Near
	if near <= 0 {
		near = 1e-3
	}
	if z <= near {
		return Projection{}
	}

	fovy := c.FOVY
	if fovy <= 0 {
		fovy = math.Pi / 3
	}
	// Фокусное расстояние в пикселях из вертикального FOV
	f := (c.Height / 2) / math.Tan(fovy/2)

	x := d.Dot(right)
	y := d.Dot(up)

	far := c.Far
	if far <= near {
		far = near + 1
	}
	depth := z / far
	if depth > 1 {
		depth = 1
	}

	return Projection{
		Screen: Vec2{
			X: c.Width/2 + x*f/z,
			// Экранная ось Y направлена вниз
			Y: c.Height/2 - y*f/z,
		},
		Depth: depth,
		OK:    true,
	}
}

// OnScreen сообщает, попадает ли проекция в пределы вьюпорта с запасом
// margin пикселей. Запас позволяет именам частично показываться у краёв.
func (c Camera) OnScreen(pr Projection, margin float64) bool {
	if !pr.OK {
		return false
	}
	return pr.Screen.X >= -margin && pr.Screen.X <= c.Width+margin &&
		pr.Screen.Y >= -margin && pr.Screen.Y <= c.Height+margin
}
