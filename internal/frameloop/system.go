package frameloop

import (
	"context"
	"time"

	"github.com/annelo/go-nameplates/internal/pipeline"
	"github.com/annelo/go-nameplates/internal/presentcache"
	"github.com/annelo/go-nameplates/internal/stats"
	"github.com/annelo/go-nameplates/internal/worldsim"
)

// System описывает логику, выполняемую каждый презентационный кадр.
type System interface {
	// Init вызывается один раз перед запуском цикла.
	Init(deps Dependencies) error
	// Tick вызывается каждый кадр.
	Tick(ctx context.Context, dt time.Duration)
	// Name возвращает читаемое имя системы.
	Name() string
}

// Renderer потребляет готовые трансформы кадра. Реализуется демо-рендерером;
// все решения о стилях — на его стороне.
type Renderer interface {
	RenderFrame(transforms []presentcache.Transform, st stats.Snapshot)
}

// Dependencies передаются системам при инициализации.
type Dependencies struct {
	Sim      *worldsim.Sim
	Pipeline *pipeline.Pipeline
	Renderer Renderer
}
