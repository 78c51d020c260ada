package frameloop

import (
	"context"
	"time"
)

// SimSystem продвигает симуляцию мира на каждом кадре.
type SimSystem struct {
	deps Dependencies
}

// NewSimSystem создаёт систему симуляции.
func NewSimSystem() *SimSystem { return &SimSystem{} }

// Name возвращает имя системы.
func (s *SimSystem) Name() string { return "sim" }

// Init сохраняет зависимости.
func (s *SimSystem) Init(deps Dependencies) error {
	s.deps = deps
	return nil
}

// Tick продвигает мир на dt.
func (s *SimSystem) Tick(ctx context.Context, dt time.Duration) {
	if s.deps.Sim != nil {
		s.deps.Sim.Advance(dt.Seconds())
	}
}
