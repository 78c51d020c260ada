package frameloop

import (
	"context"
	"time"
)

// OverlaySystem — презентационный тик конвейера нейм-плейтов: запрашивает
// обновление снапшота, достаёт готовые трансформы и передаёт их рендереру.
type OverlaySystem struct {
	deps Dependencies
}

// NewOverlaySystem создаёт систему оверлея.
func NewOverlaySystem() *OverlaySystem { return &OverlaySystem{} }

// Name возвращает имя системы.
func (o *OverlaySystem) Name() string { return "overlay" }

// Init сохраняет зависимости.
func (o *OverlaySystem) Init(deps Dependencies) error {
	o.deps = deps
	return nil
}

// Tick выполняет один презентационный кадр конвейера.
func (o *OverlaySystem) Tick(ctx context.Context, dt time.Duration) {
	if o.deps.Pipeline == nil {
		return
	}
	transforms := o.deps.Pipeline.Tick(dt)
	if o.deps.Renderer != nil {
		o.deps.Renderer.RenderFrame(transforms, o.deps.Pipeline.Stats())
	}
}
