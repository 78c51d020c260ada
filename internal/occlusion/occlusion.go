// Package occlusion реализует геометрическую эвристику видимости сущности
// относительно камеры наблюдателя.
//
// Политика — fail open: любой отказ зависимостей (нет камеры, не удался
// запрос прямой видимости) трактуется как "видим". Оверлей, который не
// сумел спрятать имя, лучше оверлея, который не сумел его показать.
package occlusion

import (
	"github.com/annelo/go-nameplates/internal/config"
	"github.com/annelo/go-nameplates/internal/geometry"
	"github.com/annelo/go-nameplates/internal/worldstate"
)

// Checker — чистая функция видимости поверх мира. Собственного кеша не
// держит: троттлинг результатов — ответственность продюсера.
type Checker struct {
	world worldstate.World
	cfg   config.Occlusion
}

// NewChecker создаёт проверку видимости с заданными настройками.
func NewChecker(world worldstate.World, cfg config.Occlusion) *Checker {
	return &Checker{world: world, cfg: cfg}
}

// SetConfig обновляет настройки (перезагрузка на лету).
func (c *Checker) SetConfig(cfg config.Occlusion) { c.cfg = cfg }

// IsOccluded сообщает, закрыта ли сущность от взгляда наблюдателя.
// worldPos — позиция якоря имени: проверка по ней точнее, чем по позиции
// самой сущности.
func (c *Checker) IsOccluded(target, viewer worldstate.EntityRef, worldPos geometry.Vec3) bool {
	if !c.cfg.Enabled || target == nil || viewer == nil {
		return false
	}

	cam, ok := c.world.Camera()
	if !ok {
		// Нет данных камеры — не прячем
		return false
	}

	toTarget := worldPos.Sub(cam.Pos)
	distance := toTarget.Length()

	// Вплотную к камере сущность всегда видима, какая бы геометрия её
	// ни перекрывала
	if distance < c.cfg.CloseDistance {
		return false
	}

	if isBehindCamera(toTarget, distance, cam.Forward, c.cfg.BehindDot) {
		return true
	}

	visible, ok := c.world.HasLineOfSight(viewer, worldPos)
	if !ok {
		return false
	}
	return !visible
}

// isBehindCamera классифицирует точку как находящуюся за камерой по
// скалярному произведению нормированного направления с вектором взгляда.
func isBehindCamera(toTarget geometry.Vec3, distance float64, forward geometry.Vec3, threshold float64) bool {
	if distance < 1e-3 {
		// Точка совпала с камерой — не "за камерой"
		return false
	}
	dot := toTarget.Scale(1.0 / distance).Dot(forward)
	return dot < threshold
}
